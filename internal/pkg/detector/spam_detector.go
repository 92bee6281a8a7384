package detector

import (
	"fmt"
	"math"
	"strings"

	"github.com/aa12gq/desahogos-moderation/internal/app/model"
)

const (
	spamPatternScore   = 0.3
	spamLinkScore      = 0.2
	spamMaxLinks       = 2
	spamCharFloodScore = 0.2
	spamRepeatScore    = 0.3
	spamRepeatOffender = 2
	spamMinScore       = 0.5
	charFloodThreshold = 5
)

// SpamDetector 垃圾信息检测器，各项信号独立累加得分
type SpamDetector struct {
	lexicon lexiconSource
}

// NewSpamDetector 创建垃圾信息检测器
func NewSpamDetector(store lexiconSource) *SpamDetector {
	return &SpamDetector{lexicon: store}
}

// Detect 检测内容是否为垃圾信息
func (d *SpamDetector) Detect(ctx *model.CheckContext) ([]*model.ModerationFlag, error) {
	if ctx.Content == "" {
		return nil, nil
	}

	lex := d.lexicon.Current()
	var score float64
	var evidence []string

	// 模式匹配，每个命中的模式计一次
	for _, re := range lex.Spam {
		if m := re.FindString(ctx.Normalized); m != "" {
			score += spamPatternScore
			evidence = append(evidence, m)
		}
	}

	links := lex.Link.FindAllString(ctx.Content, -1)
	if len(links) > spamMaxLinks {
		score += spamLinkScore * float64(len(links))
		evidence = append(evidence, fmt.Sprintf("%d enlaces", len(links)))
	}

	if run := firstCharRun(ctx.Content); run != "" {
		score += spamCharFloodScore
		evidence = append(evidence, run)
	}

	if ctx.History != nil && ctx.History.RecentSpamFlags > spamRepeatOffender {
		score += spamRepeatScore
		evidence = append(evidence, fmt.Sprintf("%d marcas de spam previas", ctx.History.RecentSpamFlags))
	}

	if score < spamMinScore {
		return nil, nil
	}

	return []*model.ModerationFlag{newFlag(
		model.FlagSpam,
		math.Min(score, 1),
		"El contenido presenta características de spam o promoción",
		evidence...,
	)}, nil
}

// firstCharRun 返回第一段连续相同字符（至少 charFloodThreshold 个），没有则为空。
// RE2 不支持反向引用，只能线性扫描
func firstCharRun(text string) string {
	count := 1
	prev := rune(-1)
	for _, r := range text {
		if r == prev {
			count++
			if count == charFloodThreshold {
				return strings.Repeat(string(r), charFloodThreshold)
			}
		} else {
			count = 1
			prev = r
		}
	}
	return ""
}
