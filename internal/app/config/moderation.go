package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidConfig 配置校验失败
var ErrInvalidConfig = errors.New("invalid moderation config")

// ModerationConfig 运行时可调整的审核配置
type ModerationConfig struct {
	Enabled                bool               `mapstructure:"enabled" json:"enabled"`
	AutoModerationEnabled  bool               `mapstructure:"auto_moderation_enabled" json:"auto_moderation_enabled"`
	StrictMode             bool               `mapstructure:"strict_mode" json:"strict_mode"`
	CrisisDetectionEnabled bool               `mapstructure:"crisis_detection_enabled" json:"crisis_detection_enabled"`
	AllowAnonymous         bool               `mapstructure:"allow_anonymous" json:"allow_anonymous"`
	FlagThresholds         map[string]float64 `mapstructure:"flag_thresholds" json:"flag_thresholds" validate:"required,dive,keys,oneof=spam harassment hate_speech self_harm suicide_ideation violence adult_content misinformation off_topic excessive_caps repeated_content fake_profile solicitation,endkeys,gte=0,lte=1"`
	ActionThresholds       ActionThresholds   `mapstructure:"action_thresholds" json:"action_thresholds"`
	BatchMaxSize           int                `mapstructure:"batch_max_size" json:"batch_max_size" validate:"gte=1,lte=1000"`
}

// ActionThresholds 动作阈值
type ActionThresholds struct {
	AutoRemove    float64 `mapstructure:"auto_remove" json:"auto_remove" validate:"gte=0,lte=1"`
	AutoHide      float64 `mapstructure:"auto_hide" json:"auto_hide" validate:"gte=0,lte=1"`
	RequireReview float64 `mapstructure:"require_review" json:"require_review" validate:"gte=0,lte=1"`
}

// DefaultModeration 默认审核配置
func DefaultModeration() ModerationConfig {
	return ModerationConfig{
		Enabled:                true,
		AutoModerationEnabled:  true,
		StrictMode:             false,
		CrisisDetectionEnabled: true,
		AllowAnonymous:         true,
		FlagThresholds: map[string]float64{
			"spam":             0.7,
			"harassment":       0.6,
			"hate_speech":      0.5,
			"self_harm":        0.4,
			"suicide_ideation": 0.3,
			"violence":         0.6,
			"adult_content":    0.8,
			"misinformation":   0.7,
			"off_topic":        0.8,
			"excessive_caps":   0.9,
			"repeated_content": 0.8,
			"fake_profile":     0.7,
			"solicitation":     0.6,
		},
		ActionThresholds: ActionThresholds{
			AutoRemove:    0.9,
			AutoHide:      0.8,
			RequireReview: 0.6,
		},
		BatchMaxSize: 50,
	}
}

// Clone 深拷贝
func (c ModerationConfig) Clone() ModerationConfig {
	out := c
	out.FlagThresholds = make(map[string]float64, len(c.FlagThresholds))
	for k, v := range c.FlagThresholds {
		out.FlagThresholds[k] = v
	}
	return out
}

// ModerationPatch 部分更新，nil 字段保持不变
type ModerationPatch struct {
	Enabled                *bool              `json:"enabled"`
	AutoModerationEnabled  *bool              `json:"auto_moderation_enabled"`
	StrictMode             *bool              `json:"strict_mode"`
	CrisisDetectionEnabled *bool              `json:"crisis_detection_enabled"`
	AllowAnonymous         *bool              `json:"allow_anonymous"`
	FlagThresholds         map[string]float64 `json:"flag_thresholds"`
	AutoRemove             *float64           `json:"auto_remove"`
	AutoHide               *float64           `json:"auto_hide"`
	RequireReview          *float64           `json:"require_review"`
	BatchMaxSize           *int               `json:"batch_max_size"`
}

// Apply 在 base 的副本上应用更新
func (p ModerationPatch) Apply(base ModerationConfig) ModerationConfig {
	out := base.Clone()
	setBool(&out.Enabled, p.Enabled)
	setBool(&out.AutoModerationEnabled, p.AutoModerationEnabled)
	setBool(&out.StrictMode, p.StrictMode)
	setBool(&out.CrisisDetectionEnabled, p.CrisisDetectionEnabled)
	setBool(&out.AllowAnonymous, p.AllowAnonymous)
	for k, v := range p.FlagThresholds {
		out.FlagThresholds[k] = v
	}
	setFloat(&out.ActionThresholds.AutoRemove, p.AutoRemove)
	setFloat(&out.ActionThresholds.AutoHide, p.AutoHide)
	setFloat(&out.ActionThresholds.RequireReview, p.RequireReview)
	if p.BatchMaxSize != nil {
		out.BatchMaxSize = *p.BatchMaxSize
	}
	return out
}

var validate = validator.New()

// ValidateModeration 校验阈值范围，超出 [0,1] 直接拒绝
func ValidateModeration(c ModerationConfig) error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s(%s) with value %v", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
