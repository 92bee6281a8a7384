package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/aa12gq/desahogos-moderation/internal/app/model"
)

// AlertPublisher 危机警报的下游投递
type AlertPublisher interface {
	Publish(ctx context.Context, alert *model.CrisisAlert) error
	Pending(ctx context.Context, limit int64) ([]*model.CrisisAlert, error)
}

// RedisAlertQueue 以 Redis 列表作为警报队列，新警报 LPUSH 到队首
type RedisAlertQueue struct {
	client *redis.Client
	key    string
}

// NewRedisAlertQueue 创建 Redis 警报队列
func NewRedisAlertQueue(client *redis.Client, key string) *RedisAlertQueue {
	return &RedisAlertQueue{client: client, key: key}
}

// Publish 推送警报
func (q *RedisAlertQueue) Publish(ctx context.Context, alert *model.CrisisAlert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal crisis alert: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("failed to push crisis alert: %w", err)
	}
	return nil
}

// Pending 返回最近的 limit 条警报，最新的在前
func (q *RedisAlertQueue) Pending(ctx context.Context, limit int64) ([]*model.CrisisAlert, error) {
	if limit <= 0 {
		limit = 50
	}
	items, err := q.client.LRange(ctx, q.key, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list crisis alerts: %w", err)
	}

	alerts := make([]*model.CrisisAlert, 0, len(items))
	for _, item := range items {
		var alert model.CrisisAlert
		if err := json.Unmarshal([]byte(item), &alert); err != nil {
			return nil, fmt.Errorf("failed to unmarshal crisis alert: %w", err)
		}
		alerts = append(alerts, &alert)
	}
	return alerts, nil
}
