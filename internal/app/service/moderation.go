package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"

	"github.com/aa12gq/desahogos-moderation/internal/app/config"
	"github.com/aa12gq/desahogos-moderation/internal/app/model"
	"github.com/aa12gq/desahogos-moderation/internal/pkg/crisis"
	"github.com/aa12gq/desahogos-moderation/internal/pkg/detector"
	"github.com/aa12gq/desahogos-moderation/internal/pkg/lexicon"
	"github.com/aa12gq/desahogos-moderation/internal/pkg/logger"
	"github.com/aa12gq/desahogos-moderation/internal/pkg/metrics"
)

var (
	// ErrInvalidRequest 无效请求错误
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidContentType 未知的内容类型
	ErrInvalidContentType = errors.New("invalid content type")
	// ErrAnonymousNotAllowed 未开启匿名时缺少用户ID
	ErrAnonymousNotAllowed = errors.New("anonymous content is not allowed")
	// ErrBatchTooLarge 批量请求超过上限
	ErrBatchTooLarge = errors.New("batch exceeds maximum size")
	// ErrAlertQueueUnavailable 未配置警报队列
	ErrAlertQueueUnavailable = errors.New("crisis alert queue is not configured")
)

const (
	// AnonymousUserID 匿名内容使用的用户ID
	AnonymousUserID = "anonymous"

	userLockStripes  = 64
	batchConcurrency = 8
)

// 检测器名称，用于日志和指标
const (
	detectorCrisis   = "crisis"
	detectorSpam     = "spam"
	detectorToxic    = "toxic"
	detectorCaps     = "caps"
	detectorRepeated = "repeated"
	detectorOffTopic = "off_topic"
)

// ModerationService 内容审核服务
type ModerationService struct {
	logger    *zap.SugaredLogger
	lexicon   *lexicon.Store
	history   HistoryStore
	alerts    AlertPublisher
	analyzer  *crisis.Analyzer
	detectors []detector.Named

	userLocks [userLockStripes]sync.Mutex

	mu            sync.RWMutex
	cfg           config.ModerationConfig
	configVersion int

	now func() time.Time
}

// NewModerationService 创建审核服务；alerts 为空时警报只构建不投递
func NewModerationService(cfg config.ModerationConfig, store *lexicon.Store, history HistoryStore, alerts AlertPublisher, logger *zap.SugaredLogger) (*ModerationService, error) {
	if err := config.ValidateModeration(cfg); err != nil {
		return nil, err
	}
	if store == nil || history == nil {
		return nil, fmt.Errorf("%w: lexicon store and history store are required", ErrInvalidRequest)
	}

	detectors := []detector.Named{
		{Name: detectorCrisis, Detector: detector.NewCrisisDetector(store)},
		{Name: detectorSpam, Detector: detector.NewSpamDetector(store)},
		{Name: detectorToxic, Detector: detector.NewToxicDetector(store)},
		{Name: detectorCaps, Detector: detector.NewCapsDetector()},
		{Name: detectorRepeated, Detector: detector.NewRepeatedContentDetector()},
		{Name: detectorOffTopic, Detector: detector.NewOffTopicDetector(store)},
	}

	return &ModerationService{
		logger:        logger,
		lexicon:       store,
		history:       history,
		alerts:        alerts,
		analyzer:      crisis.NewAnalyzer(store),
		detectors:     detectors,
		cfg:           cfg.Clone(),
		configVersion: 1,
		now:           time.Now,
	}, nil
}

// ModerateContent 审核单条内容并更新用户历史
func (s *ModerationService) ModerateContent(ctx context.Context, content, userID string, contentType model.ContentType) (*model.ModerationResult, error) {
	startTime := time.Now()
	cfg := s.GetConfig()

	userID, err := s.resolveUser(userID, cfg)
	if err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = model.ContentStory
	}
	if !contentType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidContentType, contentType)
	}

	result := &model.ModerationResult{
		UserID:      userID,
		ContentType: contentType,
		RequestID:   uuid.NewString(),
	}

	content = strings.ToValidUTF8(content, "")
	if !cfg.Enabled {
		s.approve(result, "Moderación desactivada.", cfg)
		return s.finish(result, startTime), nil
	}
	if strings.TrimSpace(content) == "" {
		s.approve(result, actionRationale[model.ActionApprove], cfg)
		return s.finish(result, startTime), nil
	}

	log := logger.ForUser(s.logger, userID, "request_id", result.RequestID, "content_type", contentType)

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	history, err := s.history.Get(ctx, userID)
	if err != nil {
		log.Warnf("Failed to load user history: %v, moderating without history", err)
	}
	if history == nil {
		history = model.NewUserModerationHistory(userID)
	}

	checkCtx := &model.CheckContext{
		Content:     content,
		Normalized:  lexicon.Normalize(content),
		UserID:      userID,
		ContentType: contentType,
		History:     history,
	}

	v := evaluate(s.runDetectors(checkCtx, cfg, log), cfg)

	result.IsApproved = v.action == model.ActionApprove
	result.Confidence = v.confidence
	result.Flags = v.flags
	result.Severity = v.severity
	result.SuggestedAction = v.action
	result.Explanation = buildExplanation(v.flags, v.action)
	result.AutoModerated = cfg.AutoModerationEnabled && v.confidence > autoModeratedConfidence

	now := s.now()
	if err := s.history.Update(ctx, userID, func(h *model.UserModerationHistory) {
		applyVerdict(h, content, v, now)
	}); err != nil {
		log.Errorf("Failed to update user history: %v", err)
	}

	for _, f := range v.flags {
		metrics.FlagsTotal.WithLabelValues(string(f.Type)).Inc()
	}
	if v.action != model.ActionApprove {
		log.Infow("Content flagged", "action", v.action, "severity", v.severity, "flags", len(v.flags))
	}

	return s.finish(result, startTime), nil
}

// BatchModerate 并发审核多条内容，结果顺序与输入一致
func (s *ModerationService) BatchModerate(ctx context.Context, items []*model.ModerationRequest) ([]*model.BatchItemResult, error) {
	if len(items) == 0 {
		return nil, ErrInvalidRequest
	}
	if maxSize := s.GetConfig().BatchMaxSize; len(items) > maxSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(items), maxSize)
	}

	mapper := iter.Mapper[*model.ModerationRequest, *model.BatchItemResult]{MaxGoroutines: batchConcurrency}
	results := mapper.Map(items, func(item **model.ModerationRequest) *model.BatchItemResult {
		req := *item
		if req == nil {
			return &model.BatchItemResult{Error: ErrInvalidRequest.Error()}
		}
		result, err := s.ModerateContent(ctx, req.Content, req.UserID, req.ContentType)
		if err != nil {
			return &model.BatchItemResult{Error: err.Error()}
		}
		return &model.BatchItemResult{Result: result}
	})

	for i, r := range results {
		r.Index = i
		if r.Error != "" {
			s.logger.Errorf("Batch moderation error at index %d: %s", i, r.Error)
		}
	}
	return results, nil
}

// StreamModerate 逐条接收并返回审核结果，直到对端关闭
func (s *ModerationService) StreamModerate(stream model.ModerationStream) error {
	for {
		req, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to receive request: %w", err)
		}

		result, err := s.ModerateContent(stream.Context(), req.Content, req.UserID, req.ContentType)
		if err != nil {
			return err
		}

		if err := stream.Send(result); err != nil {
			return fmt.Errorf("failed to send response: %w", err)
		}
	}
}

// GetConfig 返回当前配置副本
func (s *ModerationService) GetConfig() config.ModerationConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Clone()
}

// UpdateConfig 部分更新配置，校验失败时保持原配置
func (s *ModerationService) UpdateConfig(patch config.ModerationPatch) (config.ModerationConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := patch.Apply(s.cfg)
	if err := config.ValidateModeration(next); err != nil {
		return s.cfg.Clone(), err
	}

	s.cfg = next
	s.configVersion++
	s.logger.Infof("Moderation config updated to version %d", s.configVersion)
	return next.Clone(), nil
}

// GetUserHistory 返回用户历史副本
func (s *ModerationService) GetUserHistory(ctx context.Context, userID string) (*model.UserModerationHistory, bool, error) {
	h, err := s.history.Get(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	return h, h != nil, nil
}

// ClearUserHistory 清除用户历史
func (s *ModerationService) ClearUserHistory(ctx context.Context, userID string) error {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.history.Delete(ctx, userID); err != nil {
		return err
	}
	s.logger.Infof("Cleared moderation history for user %s", userID)
	return nil
}

// GetSystemStats 汇总用户历史统计
func (s *ModerationService) GetSystemStats(ctx context.Context) (*model.SystemStats, error) {
	histories, err := s.history.All(ctx)
	if err != nil {
		return nil, err
	}

	stats := &model.SystemStats{
		TotalUsers:     len(histories),
		LexiconVersion: s.lexicon.Version(),
	}
	for _, h := range histories {
		stats.TotalFlags += h.TotalFlags
		if h.TotalFlags > 0 {
			stats.FlaggedUsers++
		}
	}
	if stats.TotalUsers > 0 {
		stats.FlaggedUserPercentage = float64(stats.FlaggedUsers) / float64(stats.TotalUsers) * 100
	}

	s.mu.RLock()
	stats.ConfigVersion = s.configVersion
	s.mu.RUnlock()

	return stats, nil
}

// AnalyzeCrisisContent 单条消息的危机分析
func (s *ModerationService) AnalyzeCrisisContent(message string) *model.CrisisAnalysis {
	return s.analyzer.Analyze(strings.ToValidUTF8(message, ""))
}

// CreateCrisisAlert 构建危机警报并投递到队列；analysis 为空时先分析消息
func (s *ModerationService) CreateCrisisAlert(ctx context.Context, userID, username, message string, analysis *model.CrisisAnalysis) (*model.CrisisAlert, error) {
	if analysis == nil {
		analysis = s.AnalyzeCrisisContent(message)
	}

	alert, err := s.analyzer.NewAlert(userID, username, message, analysis)
	if err != nil {
		return nil, err
	}
	metrics.CrisisAlertsTotal.WithLabelValues(alert.Severity.String()).Inc()

	log := logger.ForUser(s.logger, userID, "alert_id", alert.ID, "severity", alert.Severity)
	log.Warnw("Crisis alert created", "keywords", alert.Keywords)

	if s.alerts != nil {
		if err := s.alerts.Publish(ctx, alert); err != nil {
			log.Errorf("Failed to publish crisis alert: %v", err)
		}
	}
	return alert, nil
}

// PendingCrisisAlerts 返回队列中最近的警报
func (s *ModerationService) PendingCrisisAlerts(ctx context.Context, limit int64) ([]*model.CrisisAlert, error) {
	if s.alerts == nil {
		return nil, ErrAlertQueueUnavailable
	}
	return s.alerts.Pending(ctx, limit)
}

// LexiconVersion 当前词库版本
func (s *ModerationService) LexiconVersion() string {
	return s.lexicon.Version()
}

// RunLexiconReload 定时重新加载词库，直到 ctx 结束
func (s *ModerationService) RunLexiconReload(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.lexicon.Reload(); err != nil {
				s.logger.Errorf("Failed to reload lexicon: %v, keeping version %s", err, s.lexicon.Version())
			}
		}
	}
}

// resolveUser 处理匿名用户
func (s *ModerationService) resolveUser(userID string, cfg config.ModerationConfig) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID != "" {
		return userID, nil
	}
	if !cfg.AllowAnonymous {
		return "", ErrAnonymousNotAllowed
	}
	return AnonymousUserID, nil
}

// runDetectors 顺序执行检测器，单个检测器出错或 panic 不影响其他检测器
func (s *ModerationService) runDetectors(ctx *model.CheckContext, cfg config.ModerationConfig, log *zap.SugaredLogger) []*model.ModerationFlag {
	var flags []*model.ModerationFlag
	for _, d := range s.detectors {
		if d.Name == detectorCrisis && !cfg.CrisisDetectionEnabled {
			continue
		}
		flags = append(flags, s.runDetector(d, ctx, log)...)
	}
	return flags
}

func (s *ModerationService) runDetector(d detector.Named, ctx *model.CheckContext, log *zap.SugaredLogger) (flags []*model.ModerationFlag) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorw("Detector panicked", "detector", d.Name, "panic", r)
			metrics.DetectorFailures.WithLabelValues(d.Name).Inc()
			flags = nil
		}
	}()

	var err error
	flags, err = d.Detector.Detect(ctx)
	if err != nil {
		log.Warnf("Detector %s failed: %v", d.Name, err)
		metrics.DetectorFailures.WithLabelValues(d.Name).Inc()
		return nil
	}
	return flags
}

func (s *ModerationService) approve(result *model.ModerationResult, explanation string, cfg config.ModerationConfig) {
	result.IsApproved = true
	result.Confidence = 1.0
	result.Flags = []*model.ModerationFlag{}
	result.Severity = model.SeverityLow
	result.SuggestedAction = model.ActionApprove
	result.Explanation = explanation
	result.AutoModerated = cfg.AutoModerationEnabled
}

func (s *ModerationService) finish(result *model.ModerationResult, startTime time.Time) *model.ModerationResult {
	elapsed := time.Since(startTime)
	result.CostTime = elapsed.Milliseconds()
	metrics.ModerationLatency.Observe(elapsed.Seconds())
	metrics.VerdictsTotal.WithLabelValues(string(result.SuggestedAction), result.Severity.String()).Inc()
	return result
}

// userLock 按用户ID哈希选择分段锁，同一用户的审核串行执行
func (s *ModerationService) userLock(userID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return &s.userLocks[h.Sum32()%userLockStripes]
}

// applyVerdict 每次审核后更新一次用户历史
func applyVerdict(h *model.UserModerationHistory, content string, v verdict, now time.Time) {
	if v.action == model.ActionApprove {
		h.RecentContent = appendRecent(h.RecentContent, content)
	}

	if len(v.flags) > 0 {
		h.TotalFlags += len(v.flags)
		flaggedAt := now
		h.LastFlaggedAt = &flaggedAt
		for _, f := range v.flags {
			if f.Type == model.FlagSpam {
				h.RecentSpamFlags++
				break
			}
		}
	}

	switch v.action {
	case model.ActionWarnUser:
		h.WarningCount++
	case model.ActionSuspendUser:
		h.SuspensionCount++
	}
}
