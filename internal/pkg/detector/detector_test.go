package detector

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aa12gq/desahogos-moderation/internal/app/model"
	"github.com/aa12gq/desahogos-moderation/internal/pkg/lexicon"
)

func newTestStore(t *testing.T) *lexicon.Store {
	t.Helper()
	c, err := lexicon.Default().Compile()
	require.NoError(t, err)
	return lexicon.NewStoreFromCompiled(c)
}

func checkCtx(content string, history *model.UserModerationHistory) *model.CheckContext {
	return &model.CheckContext{
		Content:     content,
		Normalized:  lexicon.Normalize(content),
		UserID:      "u1",
		ContentType: model.ContentStory,
		History:     history,
	}
}

func TestCrisisDetector(t *testing.T) {
	d := NewCrisisDetector(newTestStore(t))

	tests := []struct {
		name    string
		input   string
		want    []model.FlagType
		confs   []float64
		keyword string
	}{
		{"critical", "ya no quiero vivir, quiero matarme", []model.FlagType{model.FlagSuicideIdeation}, []float64{0.95}, "quiero matarme"},
		{"high single", "Ya no puedo más con esto", []model.FlagType{model.FlagSelfHarm}, []float64{0.6}, "no puedo más"},
		{"high capped", "no puedo más, no aguanto más, sin esperanza, no tengo salida, hopeless", []model.FlagType{model.FlagSelfHarm}, []float64{0.9}, "hopeless"},
		{"medium three", "estoy triste, deprimida y con ansiedad", []model.FlagType{model.FlagSelfHarm}, []float64{0.55}, "ansiedad"},
		{"medium two is not enough", "estoy triste y con ansiedad", nil, nil, ""},
		{"clean", "hoy salí a caminar con mi perro", nil, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags, err := d.Detect(checkCtx(tt.input, nil))
			require.NoError(t, err)
			require.Len(t, flags, len(tt.want))
			for i, f := range flags {
				assert.Equal(t, tt.want[i], f.Type)
				assert.InDelta(t, tt.confs[i], f.Confidence, 1e-9)
			}
			if tt.keyword != "" {
				assert.Contains(t, flags[0].Evidence, tt.keyword)
			}
		})
	}
}

func TestCrisisDetector_TiersAreNotExclusive(t *testing.T) {
	d := NewCrisisDetector(newTestStore(t))

	flags, err := d.Detect(checkCtx("quiero morir, estoy triste, deprimido, con ansiedad y no puedo dormir", nil))
	require.NoError(t, err)
	require.Len(t, flags, 2)
	assert.Equal(t, model.FlagSuicideIdeation, flags[0].Type)
	assert.Equal(t, model.FlagSelfHarm, flags[1].Type)
	assert.InDelta(t, 0.6, flags[1].Confidence, 1e-9)
}

func TestSpamDetector(t *testing.T) {
	d := NewSpamDetector(newTestStore(t))

	t.Run("scenario with links, flood and repeat offender", func(t *testing.T) {
		content := "looooook this!!!! http://a.example http://b.example http://c.example"
		history := &model.UserModerationHistory{RecentSpamFlags: 3}
		flags, err := d.Detect(checkCtx(content, history))
		require.NoError(t, err)
		require.Len(t, flags, 1)
		assert.Equal(t, model.FlagSpam, flags[0].Type)
		assert.Equal(t, 1.0, flags[0].Confidence)
		assert.Contains(t, flags[0].Evidence, "3 enlaces")
		assert.Contains(t, flags[0].Evidence, "ooooo")
	})

	t.Run("single pattern stays below minimum", func(t *testing.T) {
		flags, err := d.Detect(checkCtx("mira https://ejemplo.org", nil))
		require.NoError(t, err)
		assert.Empty(t, flags)
	})

	t.Run("two patterns reach minimum", func(t *testing.T) {
		flags, err := d.Detect(checkCtx("gana dinero gratis", nil))
		require.NoError(t, err)
		require.Len(t, flags, 1)
		assert.InDelta(t, 0.6, flags[0].Confidence, 1e-9)
	})

	t.Run("repeat offender alone is not spam", func(t *testing.T) {
		flags, err := d.Detect(checkCtx("hola a todos", &model.UserModerationHistory{RecentSpamFlags: 5}))
		require.NoError(t, err)
		assert.Empty(t, flags)
	})
}

func TestFirstCharRun(t *testing.T) {
	assert.Equal(t, "ooooo", firstCharRun("looooook"))
	assert.Equal(t, "", firstCharRun("looook"))
	assert.Equal(t, "ííííí", firstCharRun("síííííí"))
	assert.Equal(t, "", firstCharRun(""))
}

func TestToxicDetector(t *testing.T) {
	d := NewToxicDetector(newTestStore(t))

	t.Run("harassment counts every match", func(t *testing.T) {
		flags, err := d.Detect(checkCtx("eres un idiota y un estúpido", nil))
		require.NoError(t, err)
		require.Len(t, flags, 1)
		assert.Equal(t, model.FlagHarassment, flags[0].Type)
		assert.InDelta(t, 0.9, flags[0].Confidence, 1e-9)
	})

	t.Run("single harassment match", func(t *testing.T) {
		flags, err := d.Detect(checkCtx("cállate", nil))
		require.NoError(t, err)
		require.Len(t, flags, 1)
		assert.InDelta(t, 0.7, flags[0].Confidence, 1e-9)
	})

	t.Run("hate speech and harassment both fire", func(t *testing.T) {
		flags, err := d.Detect(checkCtx("odio a los inmigrantes, idiota", nil))
		require.NoError(t, err)
		require.Len(t, flags, 2)
		assert.Equal(t, model.FlagHarassment, flags[0].Type)
		assert.Equal(t, model.FlagHateSpeech, flags[1].Type)
		assert.Equal(t, 0.85, flags[1].Confidence)
	})

	t.Run("clean", func(t *testing.T) {
		flags, err := d.Detect(checkCtx("gracias por escucharme", nil))
		require.NoError(t, err)
		assert.Empty(t, flags)
	})
}

func TestCapsDetector(t *testing.T) {
	d := NewCapsDetector()

	tests := []struct {
		name  string
		input string
		flag  bool
		conf  float64
	}{
		{"all caps", "AYUDA POR FAVOR NECESITO HABLAR CON ALGUIEN AHORA", true, 1.0},
		{"accented caps", "ÁNIMO CAMPEÓN, ÑOÑO", true, 1.0},
		{"too short", "HOLA SOS", false, 0},
		{"mixed below ratio", "Hola A Todos Como Estan", false, 0},
		{"threshold", "ABCDEFGhij", true, 0.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags, err := d.Detect(checkCtx(tt.input, nil))
			require.NoError(t, err)
			if !tt.flag {
				assert.Empty(t, flags)
				return
			}
			require.Len(t, flags, 1)
			assert.Equal(t, model.FlagExcessiveCaps, flags[0].Type)
			assert.InDelta(t, tt.conf, flags[0].Confidence, 1e-9)
		})
	}
}

func TestRepeatedContentDetector(t *testing.T) {
	d := NewRepeatedContentDetector()
	history := &model.UserModerationHistory{
		RecentContent: []string{"Hoy fue un día muy difícil para mí"},
	}

	flags, err := d.Detect(checkCtx("hoy fue un día muy difícil para mí", history))
	require.NoError(t, err)
	require.Len(t, flags, 1)
	assert.Equal(t, model.FlagRepeatedContent, flags[0].Type)
	assert.Equal(t, 0.9, flags[0].Confidence)

	flags, err = d.Detect(checkCtx("mañana será otro día", history))
	require.NoError(t, err)
	assert.Empty(t, flags)

	flags, err = d.Detect(checkCtx("hoy fue un día muy difícil para mí", nil))
	require.NoError(t, err)
	assert.Empty(t, flags)
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("a b c", "c b a"))
	assert.Equal(t, 0.5, Similarity("a b", "a b c d"))
	assert.Equal(t, 0.0, Similarity("", "a"))
	// 五个词中四个相同，0.8 未超过阈值
	assert.InDelta(t, 0.8, Similarity("a b c d e", "a b c d f"), 1e-9)
}

func TestOffTopicDetector(t *testing.T) {
	d := NewOffTopicDetector(newTestStore(t))

	flags, err := d.Detect(checkCtx("¿Alguien vio el partido de fútbol de ayer? Las elecciones del domingo también.", nil))
	require.NoError(t, err)
	require.Len(t, flags, 1)
	assert.Equal(t, model.FlagOffTopic, flags[0].Type)
	assert.Equal(t, 0.7, flags[0].Confidence)

	// 同时提到心理健康，不算偏题
	flags, err = d.Detect(checkCtx("El fútbol me ayuda con la ansiedad cuando me siento muy mal en semana", nil))
	require.NoError(t, err)
	assert.Empty(t, flags)

	// 长度不足
	flags, err = d.Detect(checkCtx("fútbol y elecciones", nil))
	require.NoError(t, err)
	assert.Empty(t, flags)
}

func TestDetectors_EmptyInput(t *testing.T) {
	store := newTestStore(t)
	detectors := []Detector{
		NewCrisisDetector(store),
		NewSpamDetector(store),
		NewToxicDetector(store),
		NewCapsDetector(),
		NewRepeatedContentDetector(),
		NewOffTopicDetector(store),
	}
	for _, d := range detectors {
		flags, err := d.Detect(checkCtx("", &model.UserModerationHistory{RecentContent: []string{""}}))
		require.NoError(t, err)
		assert.Empty(t, flags)
	}
	assert.NotPanics(t, func() {
		_, _ = NewSpamDetector(store).Detect(checkCtx(strings.Repeat("!", 1000), nil))
	})
}
