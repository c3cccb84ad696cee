package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	evt_model "github.com/SHolweger/payment-service-main/internal/domain/model/event"
)

// SignatureHeader 閘道夾帶簽章的 header
// 格式: t=<unix>,v1=<hex(hmac-sha256(secret, t + "." + body))>
const SignatureHeader = "Payment-Signature"

const defaultTolerance = 5 * time.Minute

var ErrInvalidSignature = errors.New("invalid webhook signature")

// Verifier 必須拿「未經解析的原始 body」驗章
// 任何先行的 json 處理都會讓簽章失效
type Verifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

func NewVerifier(secret string) *Verifier {
	if secret == "" {
		panic("webhook secret cannot be empty")
	}
	return &Verifier{
		secret:    []byte(secret),
		tolerance: defaultTolerance,
		now:       time.Now,
	}
}

// VerifyAndParse 驗章通過後才解析事件內容
func (v *Verifier) VerifyAndParse(body []byte, sigHeader string) (evt_model.Event, error) {
	if err := v.verify(body, sigHeader); err != nil {
		return nil, err
	}
	return evt_model.Parse(body)
}

func (v *Verifier) verify(body []byte, sigHeader string) error {
	ts, sigs, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return err
	}

	if v.tolerance > 0 {
		age := v.now().Sub(time.Unix(ts, 0))
		if age > v.tolerance || age < -v.tolerance {
			return fmt.Errorf("%w: timestamp outside tolerance", ErrInvalidSignature)
		}
	}

	expected := computeSignature(v.secret, ts, body)
	for _, sig := range sigs {
		raw, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(raw, expected) {
			return nil
		}
	}
	return ErrInvalidSignature
}

func parseSignatureHeader(header string) (ts int64, sigs []string, err error) {
	if header == "" {
		return 0, nil, fmt.Errorf("%w: missing signature header", ErrInvalidSignature)
	}
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts, err = strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("%w: bad timestamp", ErrInvalidSignature)
			}
		case "v1":
			sigs = append(sigs, kv[1])
		}
	}
	if ts == 0 || len(sigs) == 0 {
		return 0, nil, fmt.Errorf("%w: malformed signature header", ErrInvalidSignature)
	}
	return ts, sigs, nil
}

func computeSignature(secret []byte, ts int64, body []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(body)
	return mac.Sum(nil)
}

// Sign 產生合法簽章 header，給測試與本地模擬送件用
func Sign(secret string, body []byte, at time.Time) string {
	sig := computeSignature([]byte(secret), at.Unix(), body)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(sig))
}
