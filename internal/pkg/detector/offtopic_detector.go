package detector

import (
	"unicode/utf8"

	"github.com/aa12gq/desahogos-moderation/internal/app/model"
	"github.com/aa12gq/desahogos-moderation/internal/pkg/lexicon"
)

const offTopicMinLength = 50

// OffTopicDetector 偏离主题检测器（商业、政治、体育且与心理健康无关）
type OffTopicDetector struct {
	lexicon lexiconSource
}

// NewOffTopicDetector 创建偏题检测器
func NewOffTopicDetector(store lexiconSource) *OffTopicDetector {
	return &OffTopicDetector{lexicon: store}
}

// Detect 检测偏离主题的内容
func (d *OffTopicDetector) Detect(ctx *model.CheckContext) ([]*model.ModerationFlag, error) {
	if utf8.RuneCountInString(ctx.Content) <= offTopicMinLength {
		return nil, nil
	}

	lex := d.lexicon.Current()
	indicators := lexicon.MatchAll(ctx.Normalized, lex.OffTopicIndicators)
	if len(indicators) == 0 || lexicon.ContainsAny(ctx.Normalized, lex.MentalHealthKeywords) {
		return nil, nil
	}

	return []*model.ModerationFlag{newFlag(
		model.FlagOffTopic,
		0.7,
		"El contenido no parece relacionado con el bienestar emocional",
		indicators...,
	)}, nil
}
