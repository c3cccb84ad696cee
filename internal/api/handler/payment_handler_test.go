package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	evt_model "github.com/SHolweger/payment-service-main/internal/domain/model/event"
	"github.com/SHolweger/payment-service-main/internal/service"
	"github.com/SHolweger/payment-service-main/internal/webhook"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test_secret"

type fakeDispatcher struct {
	calls int
	err   error
	last  evt_model.Event
}

func (f *fakeDispatcher) HandleEvent(ctx context.Context, evt evt_model.Event) error {
	f.calls++
	f.last = evt
	return f.err
}

type fakeCheckoutService struct {
	url string
	err error
}

func (f *fakeCheckoutService) CreateCheckoutSession(ctx context.Context, req service.CheckoutRequest) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

func newTestPaymentHandler(dispatcher *fakeDispatcher, checkout *fakeCheckoutService) *PaymentHandler {
	if checkout == nil {
		checkout = &fakeCheckoutService{url: "https://pay.example/cs_1"}
	}
	return NewPaymentHandler(webhook.NewVerifier(testSecret), dispatcher, checkout, zerolog.Nop())
}

func signedWebhookRequest(t *testing.T, body []byte) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook/payment", bytes.NewReader(body))
	req.Header.Set(webhook.SignatureHeader, webhook.Sign(testSecret, body, time.Now()))
	return req
}

func decodeAck(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Data
}

func TestWebhookAcknowledgesValidEvent(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	h := newTestPaymentHandler(dispatcher, nil)

	body := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","created":1770000000,"data":{"object":{"id":"pi_1","metadata":{"orderId":"o-1"}}}}`)
	rec := httptest.NewRecorder()
	h.Webhook(rec, signedWebhookRequest(t, body))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, decodeAck(t, rec)["received"])
	require.Equal(t, 1, dispatcher.calls)
	require.Equal(t, "evt_1", dispatcher.last.GetID())
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	h := newTestPaymentHandler(dispatcher, nil)

	body := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","created":1,"data":{"object":{}}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook/payment", bytes.NewReader(body))
	req.Header.Set(webhook.SignatureHeader, webhook.Sign("whsec_wrong", body, time.Now()))

	rec := httptest.NewRecorder()
	h.Webhook(rec, req)

	// 驗簽是唯一會回非 2xx 的情況
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Zero(t, dispatcher.calls)
}

func TestWebhookAcknowledgesDespiteProcessingError(t *testing.T) {
	dispatcher := &fakeDispatcher{err: errors.New("downstream down")}
	h := newTestPaymentHandler(dispatcher, nil)

	body := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","created":1770000000,"data":{"object":{"metadata":{"orderId":"o-1"}}}}`)
	rec := httptest.NewRecorder()
	h.Webhook(rec, signedWebhookRequest(t, body))

	// 處理失敗也要回 200，重送只會撞到同一個故障
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, decodeAck(t, rec)["received"])
}

func TestWebhookAcknowledgesUnknownEventType(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	h := newTestPaymentHandler(dispatcher, nil)

	body := []byte(`{"id":"evt_x","type":"charge.refunded","created":1770000000,"data":{"object":{}}}`)
	rec := httptest.NewRecorder()
	h.Webhook(rec, signedWebhookRequest(t, body))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, dispatcher.calls)
	require.Equal(t, evt_model.IgnoredEventName, dispatcher.last.Type())
}

func TestWebhookAcknowledgesUnparsableBody(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	h := newTestPaymentHandler(dispatcher, nil)

	// 簽章對但不是合法 json，回 200 免得閘道一直重送
	body := []byte(`not-json-at-all`)
	rec := httptest.NewRecorder()
	h.Webhook(rec, signedWebhookRequest(t, body))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Zero(t, dispatcher.calls)
}

func TestCreateCheckoutSession(t *testing.T) {
	h := newTestPaymentHandler(&fakeDispatcher{}, &fakeCheckoutService{url: "https://pay.example/cs_1"})

	body := []byte(`{"userId":"u-1","items":[{"name":"Camisa","price":"129.99","quantity":2}]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/session", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.CreateCheckoutSession(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "https://pay.example/cs_1", decodeAck(t, rec)["url"])
}

func TestCreateCheckoutSessionRejectsEmptyItems(t *testing.T) {
	h := newTestPaymentHandler(&fakeDispatcher{}, &fakeCheckoutService{err: service.ErrEmptyItems})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/session", bytes.NewReader([]byte(`{"userId":"u-1"}`)))
	rec := httptest.NewRecorder()
	h.CreateCheckoutSession(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateCheckoutSessionBadBody(t *testing.T) {
	h := newTestPaymentHandler(&fakeDispatcher{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/session", bytes.NewReader([]byte(`{`)))
	rec := httptest.NewRecorder()
	h.CreateCheckoutSession(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
