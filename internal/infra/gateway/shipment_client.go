package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

type CreateShipmentRequest struct {
	BuyerID       string          `json:"buyerId"`
	Destination   string          `json:"destination"`
	Cost          decimal.Decimal `json:"cost"`
	EstimatedDate string          `json:"estimatedDate"`
}

type IShipmentClient interface {
	// CreateShipment 回傳出貨單 id，拿不到 id 後續出貨步驟就不該執行
	CreateShipment(ctx context.Context, req CreateShipmentRequest) (string, error)
	CreateShipmentLine(ctx context.Context, shipmentID string, productID int64, quantity int) error
	CreateShipmentStatus(ctx context.Context, shipmentID string) error
}

type ShipmentClient struct {
	client  *http.Client
	baseURL string
}

func NewShipmentClient(client *http.Client, baseURL string) *ShipmentClient {
	return &ShipmentClient{client: client, baseURL: baseURL}
}

func (c *ShipmentClient) CreateShipment(ctx context.Context, req CreateShipmentRequest) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	url := fmt.Sprintf("%s/api/shipments", c.baseURL)
	if err := doJSON(ctx, c.client, http.MethodPost, url, req, &resp, nil); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *ShipmentClient) CreateShipmentLine(ctx context.Context, shipmentID string, productID int64, quantity int) error {
	url := fmt.Sprintf("%s/api/shipment-lines", c.baseURL)
	body := map[string]interface{}{
		"shipmentId": shipmentID,
		"productId":  productID,
		"quantity":   quantity,
	}
	return doJSON(ctx, c.client, http.MethodPost, url, body, nil, nil)
}

func (c *ShipmentClient) CreateShipmentStatus(ctx context.Context, shipmentID string) error {
	url := fmt.Sprintf("%s/api/shipment-status", c.baseURL)
	body := map[string]string{"shipmentId": shipmentID}
	return doJSON(ctx, c.client, http.MethodPost, url, body, nil, nil)
}

// FormatShipmentDate 出貨服務吃的日期格式
func FormatShipmentDate(t time.Time) string {
	return t.Format("2006-01-02")
}

var _ IShipmentClient = (*ShipmentClient)(nil)
