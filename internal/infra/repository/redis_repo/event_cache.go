package redis_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const processedEventTTL = 72 * time.Hour

// EventCache 記錄已完整處理過的 webhook 事件
// 只是快速短路用，真正的冪等性由 db 層的 guard 把關
// key 過期只代表重播事件會多跑一次 (便宜的) 檢查
type EventCache struct {
	cache *redis.Client
}

func NewEventCache(cache *redis.Client) *EventCache {
	return &EventCache{cache: cache}
}

func generateEventKey(eventID string) string {
	return fmt.Sprintf("webhook:event:%s", eventID)
}

func (c *EventCache) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	if c == nil || c.cache == nil {
		return false, nil
	}
	_, err := c.cache.Get(ctx, generateEventKey(eventID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *EventCache) MarkProcessed(ctx context.Context, eventID string) error {
	if c == nil || c.cache == nil {
		return nil
	}
	return c.cache.Set(ctx, generateEventKey(eventID), "1", processedEventTTL).Err()
}
