package lexicon

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDefaultCompiles(t *testing.T) {
	c, err := Default().Compile()
	require.NoError(t, err)

	assert.NotEmpty(t, c.Critical)
	assert.NotEmpty(t, c.High)
	assert.NotEmpty(t, c.Medium)
	assert.Len(t, c.Spam, len(Default().Spam))
	assert.NotNil(t, c.Link)
	assert.Equal(t, "builtin-1", c.Version)
}

func TestCompile_InvalidPattern(t *testing.T) {
	l := Default()
	l.Harassment = append(l.Harassment, `(unclosed`)

	_, err := l.Compile()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "harassment")
}

func TestCompile_EmptyCrisis(t *testing.T) {
	_, err := (&Lexicon{}).Compile()
	assert.ErrorIs(t, err, ErrEmptyLexicon)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "no puedo más", Normalize("NO PUEDO MÁS"))
	assert.Equal(t, "ñandú", Normalize("ÑANDÚ"))
}

func TestMatchAll(t *testing.T) {
	text := Normalize("Ya no quiero vivir, quiero matarme")
	matched := MatchAll(text, []string{"no quiero vivir", "quiero matarme", "suicidio", ""})
	assert.Equal(t, []string{"no quiero vivir", "quiero matarme"}, matched)
	assert.True(t, ContainsAny(text, []string{"otra", "vivir"}))
	assert.False(t, ContainsAny(text, []string{"otra"}))
}

func writeLexicon(t *testing.T, l *Lexicon) string {
	t.Helper()
	data, err := json.Marshal(l)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "lexicon.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestStore_LoadsFile(t *testing.T) {
	l := Default()
	l.Version = "custom-7"
	l.Crisis.Critical = append(l.Crisis.Critical, "PALABRA NUEVA")
	path := writeLexicon(t, l)

	s, err := NewStore(path, zap.NewNop().Sugar())
	require.NoError(t, err)
	assert.Equal(t, "custom-7", s.Version())
	assert.Contains(t, s.Current().Critical, "palabra nueva")
}

func TestStore_BadReloadKeepsPrevious(t *testing.T) {
	path := writeLexicon(t, Default())
	s, err := NewStore(path, zap.NewNop().Sugar())
	require.NoError(t, err)
	before := s.Current()

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	assert.Error(t, s.Reload())
	assert.Same(t, before, s.Current())
}

func TestStore_MissingFileFallsBackToBuiltin(t *testing.T) {
	s, err := NewStore(filepath.Join(t.TempDir(), "missing.json"), zap.NewNop().Sugar())
	require.NoError(t, err)
	assert.Equal(t, "builtin-1", s.Version())
}
