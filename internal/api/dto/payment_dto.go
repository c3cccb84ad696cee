package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type CheckoutItemDTO struct {
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	VariantID int64           `json:"variantId,omitempty"`
	ProductID int64           `json:"productId,omitempty"`
}

type CreateCheckoutSessionDTO struct {
	UserID        string            `json:"userId"`
	TaxID         string            `json:"taxId,omitempty"`
	Destination   string            `json:"destination,omitempty"`
	ShippingCost  decimal.Decimal   `json:"shippingCost,omitempty"`
	EstimatedDate *time.Time        `json:"estimatedDate,omitempty"`
	Items         []CheckoutItemDTO `json:"items"`
}

type CheckoutSessionResponse struct {
	URL string `json:"url"`
}

// WebhookAck 簽章通過後閘道唯一會看到的成功回應
type WebhookAck struct {
	Received bool `json:"received"`
}
