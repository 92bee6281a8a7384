package model

import (
	"context"
	"time"
)

// FlagType 风险标记类型
type FlagType string

const (
	FlagSpam            FlagType = "spam"
	FlagHarassment      FlagType = "harassment"
	FlagHateSpeech      FlagType = "hate_speech"
	FlagSelfHarm        FlagType = "self_harm"
	FlagSuicideIdeation FlagType = "suicide_ideation"
	FlagViolence        FlagType = "violence"
	FlagAdultContent    FlagType = "adult_content"
	FlagMisinformation  FlagType = "misinformation"
	FlagOffTopic        FlagType = "off_topic"
	FlagExcessiveCaps   FlagType = "excessive_caps"
	FlagRepeatedContent FlagType = "repeated_content"
	FlagFakeProfile     FlagType = "fake_profile"
	FlagSolicitation    FlagType = "solicitation"
)

// AllFlagTypes 全部标记类型，顺序固定
var AllFlagTypes = []FlagType{
	FlagSpam,
	FlagHarassment,
	FlagHateSpeech,
	FlagSelfHarm,
	FlagSuicideIdeation,
	FlagViolence,
	FlagAdultContent,
	FlagMisinformation,
	FlagOffTopic,
	FlagExcessiveCaps,
	FlagRepeatedContent,
	FlagFakeProfile,
	FlagSolicitation,
}

// Valid 是否为已知的标记类型
func (t FlagType) Valid() bool {
	for _, known := range AllFlagTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Severity 严重程度，按序可比较
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

// String 返回严重程度名称
func (s Severity) String() string {
	switch s {
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "low"
	}
}

// MarshalText 以名称序列化
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText 从名称解析
func (s *Severity) UnmarshalText(text []byte) error {
	switch string(text) {
	case "medium":
		*s = SeverityMedium
	case "high":
		*s = SeverityHigh
	case "critical":
		*s = SeverityCritical
	default:
		*s = SeverityLow
	}
	return nil
}

// Action 建议的审核动作
type Action string

const (
	ActionApprove        Action = "approve"
	ActionFlagForReview  Action = "flag_for_review"
	ActionAutoHide       Action = "auto_hide"
	ActionAutoRemove     Action = "auto_remove"
	ActionEscalateCrisis Action = "escalate_crisis"
	ActionRequireEdit    Action = "require_edit"
	ActionWarnUser       Action = "warn_user"
	ActionSuspendUser    Action = "suspend_user"
)

// ContentType 内容类型
type ContentType string

const (
	ContentStory   ContentType = "story"
	ContentComment ContentType = "comment"
	ContentMessage ContentType = "message"
	ContentProfile ContentType = "profile"
)

// Valid 是否为已知的内容类型
func (c ContentType) Valid() bool {
	switch c {
	case ContentStory, ContentComment, ContentMessage, ContentProfile:
		return true
	}
	return false
}

// ModerationFlag 单个风险信号
type ModerationFlag struct {
	Type        FlagType `json:"type"`
	Confidence  float64  `json:"confidence"`
	Evidence    []string `json:"evidence"`
	Description string   `json:"description"`
}

// ModerationResult 一次审核的结论
type ModerationResult struct {
	IsApproved      bool              `json:"is_approved"`
	Confidence      float64           `json:"confidence"`
	Flags           []*ModerationFlag `json:"flags"`
	Severity        Severity          `json:"severity"`
	SuggestedAction Action            `json:"suggested_action"`
	Explanation     string            `json:"explanation"`
	AutoModerated   bool              `json:"auto_moderated"`
	UserID          string            `json:"user_id"`
	ContentType     ContentType       `json:"content_type"`
	RequestID       string            `json:"request_id"`
	CostTime        int64             `json:"cost_time"`
}

// HasFlag 结果中是否包含指定类型的标记
func (r *ModerationResult) HasFlag(t FlagType) bool {
	return r.Flag(t) != nil
}

// Flag 返回第一个指定类型的标记
func (r *ModerationResult) Flag(t FlagType) *ModerationFlag {
	for _, f := range r.Flags {
		if f.Type == t {
			return f
		}
	}
	return nil
}

// UserModerationHistory 用户审核历史
type UserModerationHistory struct {
	UserID          string     `json:"user_id"`
	RecentContent   []string   `json:"recent_content"`
	RecentSpamFlags int        `json:"recent_spam_flags"`
	TotalFlags      int        `json:"total_flags"`
	LastFlaggedAt   *time.Time `json:"last_flagged_at,omitempty"`
	WarningCount    int        `json:"warning_count"`
	SuspensionCount int        `json:"suspension_count"`
	LastActivityAt  time.Time  `json:"last_activity_at"`
}

// NewUserModerationHistory 创建空的用户历史
func NewUserModerationHistory(userID string) *UserModerationHistory {
	return &UserModerationHistory{
		UserID:        userID,
		RecentContent: make([]string, 0),
	}
}

// Clone 深拷贝，检测器只读副本
func (h *UserModerationHistory) Clone() *UserModerationHistory {
	if h == nil {
		return nil
	}
	c := *h
	c.RecentContent = append([]string(nil), h.RecentContent...)
	if h.LastFlaggedAt != nil {
		t := *h.LastFlaggedAt
		c.LastFlaggedAt = &t
	}
	return &c
}

// CheckContext 检测上下文
type CheckContext struct {
	Content     string
	Normalized  string
	UserID      string
	ContentType ContentType
	History     *UserModerationHistory
}

// CrisisAnalysis 危机分析结果
type CrisisAnalysis struct {
	Severity          Severity `json:"severity"`
	Keywords          []string `json:"keywords"`
	RequiresAlert     bool     `json:"requires_alert"`
	RecommendedAction string   `json:"recommended_action"`
}

// AlertStatus 危机警报状态
type AlertStatus string

// AlertPending 新建警报的初始状态
const AlertPending AlertStatus = "pending"

// CrisisAlert 危机警报记录
type CrisisAlert struct {
	ID                string      `json:"id"`
	UserID            string      `json:"user_id"`
	Username          string      `json:"username"`
	Message           string      `json:"message"`
	Timestamp         time.Time   `json:"timestamp"`
	Severity          Severity    `json:"severity"`
	Status            AlertStatus `json:"status"`
	Keywords          []string    `json:"keywords"`
	RecommendedAction string      `json:"recommended_action"`
}

// SystemStats 系统统计
type SystemStats struct {
	TotalUsers            int     `json:"total_users"`
	TotalFlags            int     `json:"total_flags"`
	FlaggedUsers          int     `json:"flagged_users"`
	FlaggedUserPercentage float64 `json:"flagged_user_percentage"`
	ConfigVersion         int     `json:"config_version"`
	LexiconVersion        string  `json:"lexicon_version"`
}

// ModerationRequest 审核请求
type ModerationRequest struct {
	Content     string
	UserID      string
	ContentType ContentType
}

// ModerationStream 流式审核接口
type ModerationStream interface {
	Send(*ModerationResult) error
	Recv() (*ModerationRequest, error)
	Context() context.Context
}

// BatchItemResult 批量审核中单条内容的结果，失败时 Result 为空
type BatchItemResult struct {
	Index  int               `json:"index"`
	Result *ModerationResult `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`
}
