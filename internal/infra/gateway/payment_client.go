package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// 金流後端 (checkout session / payment intent / 結帳明細)
// 這邊只是呼叫方，授權用 api key bearer header

type CheckoutSessionRequest struct {
	Mode              string            `json:"mode"`
	SuccessURL        string            `json:"success_url"`
	CancelURL         string            `json:"cancel_url"`
	ClientReferenceID string            `json:"client_reference_id,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
	LineItems         []SessionLineItem `json:"line_items"`
}

// SessionLineItem 單價已是結算幣分
type SessionLineItem struct {
	Name       string `json:"name"`
	UnitAmount int64  `json:"unit_amount"`
	Currency   string `json:"currency"`
	Quantity   int    `json:"quantity"`
}

type CheckoutSession struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	PaymentIntent string `json:"payment_intent"`
}

type PaymentIntent struct {
	ID         string `json:"id"`
	ReceiptURL string `json:"receipt_url"`
}

type CheckoutLineItem struct {
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	UnitAmount int64  `json:"unit_amount"`
	Currency   string `json:"currency"`
}

type IPaymentClient interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error)
	// GetPaymentIntent 收據補寫用，失敗不影響開發票
	GetPaymentIntent(ctx context.Context, intentID string) (*PaymentIntent, error)
	// ListCheckoutLineItems metadata 缺明細時的 fallback 來源
	ListCheckoutLineItems(ctx context.Context, sessionID string) ([]CheckoutLineItem, error)
}

type PaymentClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

func NewPaymentClient(client *http.Client, baseURL, apiKey string) *PaymentClient {
	return &PaymentClient{client: client, baseURL: baseURL, apiKey: apiKey}
}

func (c *PaymentClient) authHeaders() map[string]string {
	return map[string]string{"Authorization": "Bearer " + c.apiKey}
}

func (c *PaymentClient) CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error) {
	var session CheckoutSession
	endpoint := fmt.Sprintf("%s/v1/checkout/sessions", c.baseURL)
	if err := doJSON(ctx, c.client, http.MethodPost, endpoint, req, &session, c.authHeaders()); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *PaymentClient) GetPaymentIntent(ctx context.Context, intentID string) (*PaymentIntent, error) {
	var intent PaymentIntent
	endpoint := fmt.Sprintf("%s/v1/payment_intents/%s", c.baseURL, url.PathEscape(intentID))
	if err := doJSON(ctx, c.client, http.MethodGet, endpoint, nil, &intent, c.authHeaders()); err != nil {
		return nil, err
	}
	return &intent, nil
}

func (c *PaymentClient) ListCheckoutLineItems(ctx context.Context, sessionID string) ([]CheckoutLineItem, error) {
	var resp struct {
		Data []CheckoutLineItem `json:"data"`
	}
	endpoint := fmt.Sprintf("%s/v1/checkout/sessions/%s/line_items", c.baseURL, url.PathEscape(sessionID))
	if err := doJSON(ctx, c.client, http.MethodGet, endpoint, nil, &resp, c.authHeaders()); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

var _ IPaymentClient = (*PaymentClient)(nil)
