package di

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aa12gq/desahogos-moderation/internal/app/model"
	"github.com/aa12gq/desahogos-moderation/internal/app/service"
)

func TestBuildContainer_Defaults(t *testing.T) {
	container, err := BuildContainer("")
	require.NoError(t, err)

	err = container.Invoke(func(svc *service.ModerationService, history service.HistoryStore) {
		_, ok := history.(*service.MemoryHistoryStore)
		assert.True(t, ok)

		result, err := svc.ModerateContent(context.Background(), "quiero morir", "u1", model.ContentStory)
		require.NoError(t, err)
		assert.Equal(t, model.ActionEscalateCrisis, result.SuggestedAction)

		_, err = svc.PendingCrisisAlerts(context.Background(), 1)
		assert.ErrorIs(t, err, service.ErrAlertQueueUnavailable)
	})
	require.NoError(t, err)
}

func TestBuildContainer_RedisBackend(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := fmt.Sprintf(`server:
  log_level: error
  env: production
redis:
  enabled: true
  host: %s
  port: %s
history:
  backend: redis
  ttl: 60
alerts:
  queue_key: test:alerts
`, mr.Host(), mr.Port())
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	container, err := BuildContainer(path)
	require.NoError(t, err)

	err = container.Invoke(func(svc *service.ModerationService, history service.HistoryStore) {
		_, ok := history.(*service.RedisHistoryStore)
		assert.True(t, ok)

		_, err := svc.CreateCrisisAlert(context.Background(), "u1", "anon", "quiero morir", nil)
		require.NoError(t, err)
	})
	require.NoError(t, err)

	items, err := mr.List("test:alerts")
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestBuildContainer_UnreachableRedisFallsBackToMemory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `server:
  log_level: error
redis:
  enabled: true
  host: 127.0.0.1
  port: 1
history:
  backend: redis
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	container, err := BuildContainer(path)
	require.NoError(t, err)

	err = container.Invoke(func(history service.HistoryStore) {
		_, ok := history.(*service.MemoryHistoryStore)
		assert.True(t, ok)
	})
	require.NoError(t, err)
}
