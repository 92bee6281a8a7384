package detector

import (
	"fmt"
	"strings"

	"github.com/aa12gq/desahogos-moderation/internal/app/model"
	"github.com/aa12gq/desahogos-moderation/internal/pkg/lexicon"
)

const (
	repeatSimilarity = 0.8
	repeatWindow     = 10
)

// RepeatedContentDetector 重复内容检测器，对比用户最近通过审核的内容
type RepeatedContentDetector struct{}

// NewRepeatedContentDetector 创建重复内容检测器
func NewRepeatedContentDetector() *RepeatedContentDetector {
	return &RepeatedContentDetector{}
}

// Detect 与历史内容做词重叠相似度比较
func (d *RepeatedContentDetector) Detect(ctx *model.CheckContext) ([]*model.ModerationFlag, error) {
	if ctx.History == nil || len(ctx.History.RecentContent) == 0 || ctx.Normalized == "" {
		return nil, nil
	}

	recent := ctx.History.RecentContent
	if len(recent) > repeatWindow {
		recent = recent[len(recent)-repeatWindow:]
	}

	for _, previous := range recent {
		sim := Similarity(ctx.Normalized, lexicon.Normalize(previous))
		if sim > repeatSimilarity {
			return []*model.ModerationFlag{newFlag(
				model.FlagRepeatedContent,
				0.9,
				"Contenido muy similar a publicaciones recientes",
				fmt.Sprintf("similitud %.2f", sim),
			)}, nil
		}
	}

	return nil, nil
}

// Similarity 词集合交集大小除以两者中较大的词数
func Similarity(a, b string) float64 {
	wordsA := wordSet(a)
	wordsB := wordSet(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	common := 0
	for w := range wordsA {
		if _, ok := wordsB[w]; ok {
			common++
		}
	}

	return float64(common) / float64(max(len(wordsA), len(wordsB)))
}

func wordSet(s string) map[string]struct{} {
	fields := strings.Fields(s)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
