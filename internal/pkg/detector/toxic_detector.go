package detector

import (
	"math"

	"github.com/aa12gq/desahogos-moderation/internal/app/model"
	"github.com/aa12gq/desahogos-moderation/internal/pkg/lexicon"
)

// lexiconSource 提供当前词库
type lexiconSource interface {
	Current() *lexicon.Compiled
}

// ToxicDetector 骚扰和仇恨言论检测器，两类分别判断
type ToxicDetector struct {
	lexicon lexiconSource
}

// NewToxicDetector 创建有害内容检测器
func NewToxicDetector(store lexiconSource) *ToxicDetector {
	return &ToxicDetector{lexicon: store}
}

// Detect 检测骚扰与仇恨言论
func (d *ToxicDetector) Detect(ctx *model.CheckContext) ([]*model.ModerationFlag, error) {
	if ctx.Normalized == "" {
		return nil, nil
	}

	lex := d.lexicon.Current()
	var flags []*model.ModerationFlag

	var harassment []string
	for _, re := range lex.Harassment {
		harassment = append(harassment, re.FindAllString(ctx.Normalized, -1)...)
	}
	if len(harassment) > 0 {
		flags = append(flags, newFlag(
			model.FlagHarassment,
			math.Min(0.9, 0.5+0.2*float64(len(harassment))),
			"Lenguaje ofensivo o de acoso hacia otras personas",
			harassment...,
		))
	}

	var hate []string
	for _, re := range lex.HateSpeech {
		hate = append(hate, re.FindAllString(ctx.Normalized, -1)...)
	}
	if len(hate) > 0 {
		flags = append(flags, newFlag(
			model.FlagHateSpeech,
			0.85,
			"Discurso de odio contra un grupo de personas",
			hate...,
		))
	}

	return flags, nil
}
