package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.History.Backend)
	assert.True(t, cfg.Moderation.Enabled)
	assert.True(t, cfg.Moderation.CrisisDetectionEnabled)
	assert.Equal(t, 0.7, cfg.Moderation.FlagThresholds["spam"])
	assert.Equal(t, 0.9, cfg.Moderation.ActionThresholds.AutoRemove)
	assert.Len(t, cfg.Moderation.FlagThresholds, 13)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: 9000
  log_level: debug
moderation:
  strict_mode: true
  action_thresholds:
    auto_remove: 0.95
history:
  backend: redis
  max_users: 5
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.True(t, cfg.Moderation.StrictMode)
	assert.Equal(t, 0.95, cfg.Moderation.ActionThresholds.AutoRemove)
	assert.Equal(t, 0.8, cfg.Moderation.ActionThresholds.AutoHide)
	assert.Equal(t, "redis", cfg.History.Backend)
	assert.Equal(t, 5, cfg.History.MaxUsers)
}

func TestLoad_RejectsOutOfRangeThreshold(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("moderation:\n  action_thresholds:\n    auto_hide: 1.5\n"), 0o600))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateModeration(t *testing.T) {
	require.NoError(t, ValidateModeration(DefaultModeration()))

	tests := []struct {
		name   string
		mutate func(c *ModerationConfig)
	}{
		{"negative flag threshold", func(c *ModerationConfig) { c.FlagThresholds["spam"] = -0.1 }},
		{"flag threshold above one", func(c *ModerationConfig) { c.FlagThresholds["harassment"] = 1.01 }},
		{"unknown flag type", func(c *ModerationConfig) { c.FlagThresholds["bogus"] = 0.5 }},
		{"action threshold above one", func(c *ModerationConfig) { c.ActionThresholds.RequireReview = 2 }},
		{"batch size zero", func(c *ModerationConfig) { c.BatchMaxSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultModeration()
			tt.mutate(&c)
			assert.ErrorIs(t, ValidateModeration(c), ErrInvalidConfig)
		})
	}
}

func TestModerationPatch_Apply(t *testing.T) {
	base := DefaultModeration()
	strict := true
	hide := 0.75

	out := ModerationPatch{
		StrictMode:     &strict,
		AutoHide:       &hide,
		FlagThresholds: map[string]float64{"spam": 0.5},
	}.Apply(base)

	assert.True(t, out.StrictMode)
	assert.Equal(t, 0.75, out.ActionThresholds.AutoHide)
	assert.Equal(t, 0.5, out.FlagThresholds["spam"])
	assert.Equal(t, 0.6, out.FlagThresholds["harassment"])

	// base 不受影响
	assert.False(t, base.StrictMode)
	assert.Equal(t, 0.7, base.FlagThresholds["spam"])
}
