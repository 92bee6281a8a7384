package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/aa12gq/desahogos-moderation/internal/app/model"
)

const (
	historyKeyPrefix = "moderation:history:"
	maxWatchRetries  = 5
)

// ErrHistoryConflict 并发写入冲突，重试后仍失败
var ErrHistoryConflict = errors.New("user history update conflict")

// RedisHistoryStore 基于 Redis 的用户历史存储，多实例共享，依靠键过期清理不活跃用户
type RedisHistoryStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisHistoryStore 创建 Redis 历史存储
func NewRedisHistoryStore(client *redis.Client, ttl time.Duration) *RedisHistoryStore {
	return &RedisHistoryStore{
		client: client,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *RedisHistoryStore) key(userID string) string {
	return historyKeyPrefix + userID
}

// Get 读取用户历史
func (s *RedisHistoryStore) Get(ctx context.Context, userID string) (*model.UserModerationHistory, error) {
	data, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user history: %w", err)
	}
	return decodeHistory(data)
}

// Update 使用 WATCH 事务完成读-改-写
func (s *RedisHistoryStore) Update(ctx context.Context, userID string, fn func(h *model.UserModerationHistory)) error {
	key := s.key(userID)

	txf := func(tx *redis.Tx) error {
		h := model.NewUserModerationHistory(userID)
		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			if h, err = decodeHistory(data); err != nil {
				return err
			}
		}

		fn(h)
		h.LastActivityAt = s.now()

		encoded, err := json.Marshal(h)
		if err != nil {
			return fmt.Errorf("failed to marshal user history: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, s.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxWatchRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return fmt.Errorf("failed to update user history: %w", err)
	}
	return ErrHistoryConflict
}

// Delete 删除用户历史
func (s *RedisHistoryStore) Delete(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, s.key(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete user history: %w", err)
	}
	return nil
}

// All 通过 SCAN 遍历全部用户历史
func (s *RedisHistoryStore) All(ctx context.Context) ([]*model.UserModerationHistory, error) {
	var out []*model.UserModerationHistory

	iter := s.client.Scan(ctx, 0, historyKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			// 扫描期间过期
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get user history: %w", err)
		}
		h, err := decodeHistory(data)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan user histories: %w", err)
	}
	return out, nil
}

func decodeHistory(data []byte) (*model.UserModerationHistory, error) {
	var h model.UserModerationHistory
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user history: %w", err)
	}
	if h.RecentContent == nil {
		h.RecentContent = make([]string, 0)
	}
	return &h, nil
}
