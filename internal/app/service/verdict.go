package service

import (
	"strings"

	"github.com/aa12gq/desahogos-moderation/internal/app/config"
	"github.com/aa12gq/desahogos-moderation/internal/app/model"
)

// strictModeFactor 严格模式下阈值的缩放系数
const strictModeFactor = 0.8

// autoModeratedConfidence 超过该聚合置信度才标记为自动审核
const autoModeratedConfidence = 0.8

// flagWeights 聚合置信度的类型权重
var flagWeights = map[model.FlagType]float64{
	model.FlagSuicideIdeation: 3.0,
	model.FlagSelfHarm:        2.5,
	model.FlagViolence:        2.0,
	model.FlagHarassment:      1.8,
	model.FlagHateSpeech:      1.8,
	model.FlagAdultContent:    1.5,
	model.FlagMisinformation:  1.3,
	model.FlagFakeProfile:     1.2,
	model.FlagSpam:            1.0,
	model.FlagSolicitation:    1.0,
	model.FlagRepeatedContent: 0.8,
	model.FlagOffTopic:        0.5,
	model.FlagExcessiveCaps:   0.3,
}

// actionRationale 每个动作附加在说明末尾的理由
var actionRationale = map[model.Action]string{
	model.ActionApprove:        "Contenido aprobado.",
	model.ActionEscalateCrisis: "Posible situación de crisis: se escala al equipo de apoyo.",
	model.ActionAutoRemove:     "Contenido eliminado automáticamente por alta confianza de infracción.",
	model.ActionAutoHide:       "Contenido ocultado automáticamente a la espera de revisión.",
	model.ActionFlagForReview:  "Contenido marcado para revisión manual.",
	model.ActionWarnUser:       "Se envía una advertencia al usuario.",
	model.ActionSuspendUser:    "Usuario suspendido por infracciones reiteradas.",
	model.ActionRequireEdit:    "Se requiere editar el contenido.",
}

// verdict 过滤后的标记集合对应的审核结论
type verdict struct {
	flags      []*model.ModerationFlag
	severity   model.Severity
	action     model.Action
	confidence float64
}

// filterFlags 按类型阈值过滤标记，严格模式下阈值乘以 0.8
func filterFlags(flags []*model.ModerationFlag, cfg config.ModerationConfig) []*model.ModerationFlag {
	kept := make([]*model.ModerationFlag, 0, len(flags))
	for _, f := range flags {
		threshold, ok := cfg.FlagThresholds[string(f.Type)]
		if !ok {
			// 未配置阈值的类型按默认值处理
			threshold = config.DefaultModeration().FlagThresholds[string(f.Type)]
		}
		if cfg.StrictMode {
			threshold *= strictModeFactor
		}
		if f.Confidence >= threshold {
			kept = append(kept, f)
		}
	}
	return kept
}

// deriveSeverity 计算严重程度，按顺序第一个命中的规则生效
func deriveSeverity(flags []*model.ModerationFlag) model.Severity {
	if len(flags) == 0 {
		return model.SeverityLow
	}
	for _, f := range flags {
		switch f.Type {
		case model.FlagSuicideIdeation, model.FlagSelfHarm, model.FlagViolence:
			if f.Confidence > 0.7 {
				return model.SeverityCritical
			}
		}
	}
	for _, f := range flags {
		switch f.Type {
		case model.FlagHarassment, model.FlagHateSpeech:
			if f.Confidence > 0.6 {
				return model.SeverityHigh
			}
		}
	}
	for _, f := range flags {
		if f.Confidence > 0.5 {
			return model.SeverityMedium
		}
	}
	return model.SeverityLow
}

// deriveAction 计算建议动作，危机类标记优先于任何置信度规则
func deriveAction(flags []*model.ModerationFlag, severity model.Severity, thresholds config.ActionThresholds) model.Action {
	if len(flags) == 0 {
		return model.ActionApprove
	}

	var maxConfidence float64
	for _, f := range flags {
		if f.Type == model.FlagSuicideIdeation || f.Type == model.FlagSelfHarm {
			return model.ActionEscalateCrisis
		}
		if f.Confidence > maxConfidence {
			maxConfidence = f.Confidence
		}
	}

	switch {
	case maxConfidence >= thresholds.AutoRemove:
		return model.ActionAutoRemove
	case maxConfidence >= thresholds.AutoHide:
		return model.ActionAutoHide
	case maxConfidence >= thresholds.RequireReview:
		return model.ActionFlagForReview
	case severity == model.SeverityMedium || severity == model.SeverityHigh:
		return model.ActionWarnUser
	default:
		return model.ActionApprove
	}
}

// aggregateConfidence 按类型权重计算加权平均置信度，无标记时为 1.0
func aggregateConfidence(flags []*model.ModerationFlag) float64 {
	if len(flags) == 0 {
		return 1.0
	}
	var sum, weights float64
	for _, f := range flags {
		w, ok := flagWeights[f.Type]
		if !ok {
			w = 1.0
		}
		sum += f.Confidence * w
		weights += w
	}
	return sum / weights
}

// buildExplanation 拼接标记描述与动作理由
func buildExplanation(flags []*model.ModerationFlag, action model.Action) string {
	parts := make([]string, 0, len(flags)+1)
	for _, f := range flags {
		if f.Description != "" {
			parts = append(parts, f.Description+".")
		}
	}
	parts = append(parts, actionRationale[action])
	return strings.Join(parts, " ")
}

// evaluate 从原始标记得到完整结论
func evaluate(raw []*model.ModerationFlag, cfg config.ModerationConfig) verdict {
	flags := filterFlags(raw, cfg)
	severity := deriveSeverity(flags)
	return verdict{
		flags:      flags,
		severity:   severity,
		action:     deriveAction(flags, severity, cfg.ActionThresholds),
		confidence: aggregateConfidence(flags),
	}
}
