package gateway

import (
	"context"
	"fmt"
	"net/http"
)

type ICartClient interface {
	// ClearCart 清空買家購物車，清空的購物車再清一次也會成功
	ClearCart(ctx context.Context, userID string) error
}

type CartClient struct {
	client  *http.Client
	baseURL string
}

func NewCartClient(client *http.Client, baseURL string) *CartClient {
	return &CartClient{client: client, baseURL: baseURL}
}

func (c *CartClient) ClearCart(ctx context.Context, userID string) error {
	url := fmt.Sprintf("%s/api/carts/%s", c.baseURL, userID)
	return doJSON(ctx, c.client, http.MethodDelete, url, nil, nil, nil)
}

var _ ICartClient = (*CartClient)(nil)
