// Package di 组装服务依赖
package di

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/aa12gq/desahogos-moderation/internal/app/config"
	"github.com/aa12gq/desahogos-moderation/internal/app/service"
	"github.com/aa12gq/desahogos-moderation/internal/pkg/lexicon"
	"github.com/aa12gq/desahogos-moderation/internal/pkg/logger"
)

const redisPingTimeout = 2 * time.Second

// BuildContainer 创建依赖注入容器
func BuildContainer(configPath string) (*dig.Container, error) {
	container := dig.New()

	// 配置
	if err := container.Provide(func() (*config.Config, error) {
		return config.Load(configPath)
	}); err != nil {
		return nil, err
	}

	// 日志
	if err := container.Provide(func(cfg *config.Config) *zap.Logger {
		return logger.NewLogger(cfg.Server.LogLevel, cfg.Server.Env)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(l *zap.Logger) *zap.SugaredLogger {
		return l.Sugar()
	}); err != nil {
		return nil, err
	}

	// Redis，未启用或连接失败时为空
	if err := container.Provide(newRedisClient); err != nil {
		return nil, err
	}

	// 词库
	if err := container.Provide(func(cfg *config.Config, log *zap.SugaredLogger) (*lexicon.Store, error) {
		return lexicon.NewStore(cfg.Lexicon.Path, log)
	}); err != nil {
		return nil, err
	}

	// 用户历史存储
	if err := container.Provide(newHistoryStore); err != nil {
		return nil, err
	}

	// 危机警报队列
	if err := container.Provide(func(cfg *config.Config, client *redis.Client) service.AlertPublisher {
		if client == nil {
			return nil
		}
		return service.NewRedisAlertQueue(client, cfg.Alerts.QueueKey)
	}); err != nil {
		return nil, err
	}

	// 审核服务
	if err := container.Provide(func(cfg *config.Config, store *lexicon.Store, history service.HistoryStore, alerts service.AlertPublisher, log *zap.SugaredLogger) (*service.ModerationService, error) {
		return service.NewModerationService(cfg.Moderation, store, history, alerts, log)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

func newRedisClient(cfg *config.Config, log *zap.SugaredLogger) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warnf("Failed to connect to Redis at %s: %v, will proceed without Redis", cfg.Redis.Addr(), err)
		_ = client.Close()
		return nil
	}

	log.Infof("Connected to Redis at %s", cfg.Redis.Addr())
	return client
}

func newHistoryStore(cfg *config.Config, client *redis.Client, log *zap.SugaredLogger) service.HistoryStore {
	ttl := time.Duration(cfg.History.TTL) * time.Second

	if cfg.History.Backend == "redis" {
		if client != nil {
			return service.NewRedisHistoryStore(client, ttl)
		}
		log.Warn("Redis history backend requested but Redis is unavailable, using in-memory history")
	}

	return service.NewMemoryHistoryStore(cfg.History.MaxUsers, ttl)
}
