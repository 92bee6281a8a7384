package detector

import (
	"fmt"
	"math"

	"github.com/aa12gq/desahogos-moderation/internal/app/model"
	"github.com/aa12gq/desahogos-moderation/internal/pkg/lexicon"
)

// minMediumMatches 中级关键词至少命中次数
const minMediumMatches = 3

// CrisisDetector 危机/自伤检测器。三个等级各自独立判断，可以同时产生多个标记
type CrisisDetector struct {
	lexicon lexiconSource
}

// NewCrisisDetector 创建危机检测器
func NewCrisisDetector(store lexiconSource) *CrisisDetector {
	return &CrisisDetector{lexicon: store}
}

// Detect 检测危机内容
func (d *CrisisDetector) Detect(ctx *model.CheckContext) ([]*model.ModerationFlag, error) {
	if ctx.Normalized == "" {
		return nil, nil
	}

	lex := d.lexicon.Current()
	var flags []*model.ModerationFlag

	if critical := lexicon.MatchAll(ctx.Normalized, lex.Critical); len(critical) > 0 {
		flags = append(flags, newFlag(
			model.FlagSuicideIdeation,
			0.95,
			"Se detectaron expresiones de ideación suicida",
			critical...,
		))
	}

	if high := lexicon.MatchAll(ctx.Normalized, lex.High); len(high) > 0 {
		flags = append(flags, newFlag(
			model.FlagSelfHarm,
			math.Min(0.9, 0.5+0.1*float64(len(high))),
			"Se detectaron expresiones de autolesión o desesperanza",
			high...,
		))
	}

	if medium := lexicon.MatchAll(ctx.Normalized, lex.Medium); len(medium) >= minMediumMatches {
		flags = append(flags, newFlag(
			model.FlagSelfHarm,
			math.Min(1, 0.4+0.05*float64(len(medium))),
			fmt.Sprintf("Múltiples indicadores de malestar emocional (%d)", len(medium)),
			medium...,
		))
	}

	return flags, nil
}
