package detector

import (
	"fmt"
	"math"
	"strings"

	"github.com/aa12gq/desahogos-moderation/internal/app/model"
)

const (
	capsMinLetters = 10
	capsMinRatio   = 0.7
)

const (
	upperAccented = "ÁÉÍÓÚÜÑ"
	lowerAccented = "áéíóúüñ"
)

// CapsDetector 大写字母滥用检测器
type CapsDetector struct{}

// NewCapsDetector 创建大写检测器
func NewCapsDetector() *CapsDetector {
	return &CapsDetector{}
}

// Detect 统计大写字母占比，字母数不足时不判断
func (d *CapsDetector) Detect(ctx *model.CheckContext) ([]*model.ModerationFlag, error) {
	upper, letters := countLetters(ctx.Content)
	if letters < capsMinLetters {
		return nil, nil
	}

	ratio := float64(upper) / float64(letters)
	if ratio < capsMinRatio {
		return nil, nil
	}

	return []*model.ModerationFlag{newFlag(
		model.FlagExcessiveCaps,
		math.Min(ratio, 1),
		"Uso excesivo de mayúsculas",
		fmt.Sprintf("%.0f%% mayúsculas", ratio*100),
	)}, nil
}

// countLetters 只统计拉丁字母和西班牙语带音标字母
func countLetters(text string) (upper, letters int) {
	for _, r := range text {
		switch {
		case r >= 'A' && r <= 'Z', strings.ContainsRune(upperAccented, r):
			upper++
			letters++
		case r >= 'a' && r <= 'z', strings.ContainsRune(lowerAccented, r):
			letters++
		}
	}
	return upper, letters
}
