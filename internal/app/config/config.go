package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config 系统配置结构
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Moderation ModerationConfig `mapstructure:"moderation"`
	History    HistoryConfig    `mapstructure:"history"`
	Lexicon    LexiconConfig    `mapstructure:"lexicon"`
	Alerts     AlertsConfig     `mapstructure:"alerts"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	GRPCPort int    `mapstructure:"grpc_port"`
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr Redis地址
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// HistoryConfig 用户历史存储配置
type HistoryConfig struct {
	Backend  string `mapstructure:"backend"`   // memory 或 redis
	MaxUsers int    `mapstructure:"max_users"` // 内存存储最多保留的用户数
	TTL      int    `mapstructure:"ttl"`       // 秒，用户无活动后过期
}

// LexiconConfig 词库配置
type LexiconConfig struct {
	Path           string `mapstructure:"path"`
	ReloadInterval int    `mapstructure:"reload_interval"` // 秒，0 表示不自动重载
}

// AlertsConfig 危机警报队列配置
type AlertsConfig struct {
	QueueKey string `mapstructure:"queue_key"`
}

// Load 加载配置文件；文件不存在时使用默认值
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("MODERATION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := ValidateModeration(config.Moderation); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults 设置默认配置
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.grpc_port", 9090)
	v.SetDefault("server.env", "development")
	v.SetDefault("server.log_level", "info")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	d := DefaultModeration()
	v.SetDefault("moderation.enabled", d.Enabled)
	v.SetDefault("moderation.auto_moderation_enabled", d.AutoModerationEnabled)
	v.SetDefault("moderation.strict_mode", d.StrictMode)
	v.SetDefault("moderation.crisis_detection_enabled", d.CrisisDetectionEnabled)
	v.SetDefault("moderation.allow_anonymous", d.AllowAnonymous)
	for flag, threshold := range d.FlagThresholds {
		v.SetDefault("moderation.flag_thresholds."+flag, threshold)
	}
	v.SetDefault("moderation.action_thresholds.auto_remove", d.ActionThresholds.AutoRemove)
	v.SetDefault("moderation.action_thresholds.auto_hide", d.ActionThresholds.AutoHide)
	v.SetDefault("moderation.action_thresholds.require_review", d.ActionThresholds.RequireReview)
	v.SetDefault("moderation.batch_max_size", d.BatchMaxSize)

	v.SetDefault("history.backend", "memory")
	v.SetDefault("history.max_users", 10000)
	v.SetDefault("history.ttl", 7*24*3600)

	v.SetDefault("lexicon.path", "")
	v.SetDefault("lexicon.reload_interval", 0)

	v.SetDefault("alerts.queue_key", "moderation:crisis_alerts")
}
