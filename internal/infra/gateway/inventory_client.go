package gateway

import (
	"context"
	"fmt"
	"net/http"
)

type IInventoryClient interface {
	// DecrementVariant 扣某個商品規格的庫存，fire-and-forget
	DecrementVariant(ctx context.Context, variantID int64, quantity int) error
}

type InventoryClient struct {
	client  *http.Client
	baseURL string
}

func NewInventoryClient(client *http.Client, baseURL string) *InventoryClient {
	return &InventoryClient{client: client, baseURL: baseURL}
}

func (c *InventoryClient) DecrementVariant(ctx context.Context, variantID int64, quantity int) error {
	url := fmt.Sprintf("%s/api/variants/%d/decrement", c.baseURL, variantID)
	body := map[string]int{"quantity": quantity}
	return doJSON(ctx, c.client, http.MethodPost, url, body, nil, nil)
}

var _ IInventoryClient = (*InventoryClient)(nil)
