package detector

import (
	"github.com/aa12gq/desahogos-moderation/internal/app/model"
)

// Detector 内容检测器接口
type Detector interface {
	// Detect 检测内容，返回零个或多个风险标记
	Detect(ctx *model.CheckContext) ([]*model.ModerationFlag, error)
}

// Named 带名称的检测器，用于日志和指标
type Named struct {
	Name     string
	Detector Detector
}

// newFlag 创建风险标记
func newFlag(t model.FlagType, confidence float64, description string, evidence ...string) *model.ModerationFlag {
	if evidence == nil {
		evidence = []string{}
	}
	return &model.ModerationFlag{
		Type:        t,
		Confidence:  confidence,
		Evidence:    evidence,
		Description: description,
	}
}
