package webhook

import (
	"fmt"
	"testing"
	"time"

	evt_model "github.com/SHolweger/payment-service-main/internal/domain/model/event"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test_secret"

func fixedVerifier(at time.Time) *Verifier {
	v := NewVerifier(testSecret)
	v.now = func() time.Time { return at }
	return v
}

func TestVerifyAndParse(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	body := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","created":1770000000,"data":{"object":{"id":"pi_1","metadata":{"orderId":"o-1"}}}}`)

	v := fixedVerifier(now)
	evt, err := v.VerifyAndParse(body, Sign(testSecret, body, now))
	require.NoError(t, err)
	require.Equal(t, evt_model.PaymentSucceededEventName, evt.Type())
	require.Equal(t, "evt_1", evt.GetID())
}

func TestVerifyRejectsTamperedBody(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	body := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","created":1770000000,"data":{"object":{}}}`)
	sig := Sign(testSecret, body, now)

	// 改掉任何一個 byte 簽章都要失效
	tampered := append([]byte{}, body...)
	tampered[len(tampered)-2] = 'x'

	v := fixedVerifier(now)
	_, err := v.VerifyAndParse(tampered, sig)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	body := []byte(`{"id":"evt_1","type":"checkout.session.completed","created":1,"data":{"object":{}}}`)

	v := fixedVerifier(now)
	_, err := v.VerifyAndParse(body, Sign("whsec_other", body, now))
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyRejectsStaleTimestamp(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	body := []byte(`{"id":"evt_1","type":"checkout.session.completed","created":1,"data":{"object":{}}}`)

	v := fixedVerifier(now)
	_, err := v.VerifyAndParse(body, Sign(testSecret, body, now.Add(-10*time.Minute)))
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyRejectsMalformedHeader(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	body := []byte(`{}`)
	v := fixedVerifier(now)

	for _, header := range []string{
		"",
		"t=abc,v1=deadbeef",
		fmt.Sprintf("t=%d", now.Unix()),
		"v1=deadbeef",
	} {
		_, err := v.VerifyAndParse(body, header)
		require.ErrorIs(t, err, ErrInvalidSignature, "header: %q", header)
	}
}

func TestVerifyAcceptsSecondSignature(t *testing.T) {
	// secret 輪替期間閘道會同時帶新舊兩組 v1
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	body := []byte(`{"id":"evt_1","type":"checkout.session.completed","created":1,"data":{"object":{}}}`)

	good := Sign(testSecret, body, now)
	bad := Sign("whsec_retired", body, now)
	combined := fmt.Sprintf("%s,%s", bad, good[len(fmt.Sprintf("t=%d,", now.Unix())):])

	v := fixedVerifier(now)
	_, err := v.VerifyAndParse(body, combined)
	require.NoError(t, err)
}
