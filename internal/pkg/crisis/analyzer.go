// Package crisis 单条消息的危机分析与警报记录构建，按等级逐级判断，命中即停止
package crisis

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aa12gq/desahogos-moderation/internal/app/model"
	"github.com/aa12gq/desahogos-moderation/internal/pkg/lexicon"
)

// ErrAlertNotRequired 分析结果不需要警报
var ErrAlertNotRequired = errors.New("crisis analysis does not require an alert")

// 各等级的建议处理方式
const (
	ActionCritical = "Contacto inmediato con servicios de emergencia. Monitoreo continuo del usuario."
	ActionHigh     = "Contacto urgente con el usuario. Derivación a profesional de salud mental."
	ActionMedium   = "Seguimiento cercano. Ofrecer recursos de apoyo."
	ActionLow      = "Monitoreo normal. Continuar con apoyo empático."
)

// LexiconSource 提供当前词库
type LexiconSource interface {
	Current() *lexicon.Compiled
}

// Analyzer 危机分析器
type Analyzer struct {
	lexicon LexiconSource
	now     func() time.Time
}

// NewAnalyzer 创建危机分析器
func NewAnalyzer(store LexiconSource) *Analyzer {
	return &Analyzer{lexicon: store, now: time.Now}
}

// Analyze 分析单条消息
func (a *Analyzer) Analyze(message string) *model.CrisisAnalysis {
	text := lexicon.Normalize(message)
	lex := a.lexicon.Current()

	severity := model.SeverityLow
	keywords := []string{}

	if matched := lexicon.MatchAll(text, lex.Critical); len(matched) > 0 {
		severity, keywords = model.SeverityCritical, matched
	} else if matched := lexicon.MatchAll(text, lex.High); len(matched) > 0 {
		severity, keywords = model.SeverityHigh, matched
	} else if matched := lexicon.MatchAll(text, lex.Medium); len(matched) > 0 {
		severity, keywords = model.SeverityMedium, matched
	}

	return &model.CrisisAnalysis{
		Severity:          severity,
		Keywords:          keywords,
		RequiresAlert:     severity >= model.SeverityHigh,
		RecommendedAction: RecommendedAction(severity),
	}
}

// RecommendedAction 返回指定等级的建议
func RecommendedAction(s model.Severity) string {
	switch s {
	case model.SeverityCritical:
		return ActionCritical
	case model.SeverityHigh:
		return ActionHigh
	case model.SeverityMedium:
		return ActionMedium
	default:
		return ActionLow
	}
}

// NewAlert 为需要警报的分析结果构建警报记录
func (a *Analyzer) NewAlert(userID, username, message string, analysis *model.CrisisAnalysis) (*model.CrisisAlert, error) {
	if analysis == nil || !analysis.RequiresAlert {
		return nil, ErrAlertNotRequired
	}

	now := a.now()
	severity := model.SeverityHigh
	if analysis.Severity == model.SeverityCritical {
		severity = model.SeverityCritical
	}

	return &model.CrisisAlert{
		ID:                fmt.Sprintf("alert_%d_%s", now.UnixMilli(), strings.ReplaceAll(uuid.NewString(), "-", "")[:9]),
		UserID:            userID,
		Username:          username,
		Message:           message,
		Timestamp:         now,
		Severity:          severity,
		Status:            model.AlertPending,
		Keywords:          append([]string(nil), analysis.Keywords...),
		RecommendedAction: analysis.RecommendedAction,
	}, nil
}
