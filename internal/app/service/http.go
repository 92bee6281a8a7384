package service

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aa12gq/desahogos-moderation/internal/app/config"
	"github.com/aa12gq/desahogos-moderation/internal/app/model"
	"github.com/aa12gq/desahogos-moderation/internal/pkg/crisis"
	"github.com/aa12gq/desahogos-moderation/internal/pkg/metrics"
)

// HTTPServer HTTP服务
type HTTPServer struct {
	service *ModerationService
	logger  *zap.SugaredLogger
}

// RegisterHTTPHandlers 注册HTTP处理器
func RegisterHTTPHandlers(engine *gin.Engine, service *ModerationService, logger *zap.SugaredLogger) {
	httpServer := &HTTPServer{
		service: service,
		logger:  logger,
	}

	engine.Use(gin.Recovery())
	engine.Use(CORSMiddleware())
	engine.Use(RequestLoggerMiddleware(logger))

	// 设置路由
	api := engine.Group("/api/v1")
	{
		api.POST("/moderate", httpServer.ModerateContent)
		api.POST("/batch_moderate", httpServer.BatchModerate)
		api.POST("/crisis/analyze", httpServer.AnalyzeCrisis)
		api.POST("/crisis/alerts", httpServer.CreateCrisisAlert)
		api.GET("/crisis/alerts", httpServer.PendingCrisisAlerts)
		api.GET("/config", httpServer.GetConfig)
		api.PATCH("/config", httpServer.UpdateConfig)
		api.GET("/users/:user_id/history", httpServer.GetUserHistory)
		api.DELETE("/users/:user_id/history", httpServer.ClearUserHistory)
		api.GET("/stats", httpServer.GetStats)
		api.GET("/health", httpServer.HealthCheck)
	}

	engine.GET("/metrics", gin.WrapH(metrics.Handler()))
}

// CORSMiddleware CORS中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PATCH, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// RequestLoggerMiddleware 请求日志中间件，不记录请求体
func RequestLoggerMiddleware(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		logger.Debugw("HTTP request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(startTime).String(),
		)
	}
}

// HTTPModerateRequest HTTP审核请求，content 为空时直接通过
type HTTPModerateRequest struct {
	Content     string `json:"content"`
	UserID      string `json:"user_id"`
	ContentType string `json:"content_type"`
}

// HTTPBatchModerateRequest HTTP批量审核请求
type HTTPBatchModerateRequest struct {
	Items []*HTTPModerateRequest `json:"items" binding:"required,min=1"`
}

// HTTPCrisisAnalyzeRequest 危机分析请求
type HTTPCrisisAnalyzeRequest struct {
	Message string `json:"message" binding:"required"`
}

// HTTPCrisisAlertRequest 危机警报请求
type HTTPCrisisAlertRequest struct {
	UserID   string `json:"user_id" binding:"required"`
	Username string `json:"username"`
	Message  string `json:"message" binding:"required"`
}

// ModerateContent 审核内容
func (s *HTTPServer) ModerateContent(c *gin.Context) {
	var req HTTPModerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := s.service.ModerateContent(c.Request.Context(), req.Content, req.UserID, model.ContentType(req.ContentType))
	if err != nil {
		s.fail(c, "Failed to moderate content", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  result,
	})
}

// BatchModerate 批量审核内容
func (s *HTTPServer) BatchModerate(c *gin.Context) {
	var req HTTPBatchModerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	items := make([]*model.ModerationRequest, 0, len(req.Items))
	for _, item := range req.Items {
		if item == nil {
			items = append(items, nil)
			continue
		}
		items = append(items, &model.ModerationRequest{
			Content:     item.Content,
			UserID:      item.UserID,
			ContentType: model.ContentType(item.ContentType),
		})
	}

	startTime := time.Now()
	results, err := s.service.BatchModerate(c.Request.Context(), items)
	if err != nil {
		s.fail(c, "Failed to moderate batch", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"results":         results,
		"total_cost_time": time.Since(startTime).Milliseconds(),
	})
}

// AnalyzeCrisis 危机分析
func (s *HTTPServer) AnalyzeCrisis(c *gin.Context) {
	var req HTTPCrisisAnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"analysis": s.service.AnalyzeCrisisContent(req.Message),
	})
}

// CreateCrisisAlert 分析消息并在需要时创建警报
func (s *HTTPServer) CreateCrisisAlert(c *gin.Context) {
	var req HTTPCrisisAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	analysis := s.service.AnalyzeCrisisContent(req.Message)
	alert, err := s.service.CreateCrisisAlert(c.Request.Context(), req.UserID, req.Username, req.Message, analysis)
	if err != nil {
		if errors.Is(err, crisis.ErrAlertNotRequired) {
			c.JSON(http.StatusOK, gin.H{
				"success":  true,
				"analysis": analysis,
				"alert":    nil,
			})
			return
		}
		s.fail(c, "Failed to create crisis alert", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"analysis": analysis,
		"alert":    alert,
	})
}

// PendingCrisisAlerts 查询最近警报
func (s *HTTPServer) PendingCrisisAlerts(c *gin.Context) {
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	if err != nil {
		badRequest(c, err)
		return
	}

	alerts, err := s.service.PendingCrisisAlerts(c.Request.Context(), limit)
	if err != nil {
		s.fail(c, "Failed to list crisis alerts", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"alerts":  alerts,
	})
}

// GetConfig 查询当前审核配置
func (s *HTTPServer) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"config":  s.service.GetConfig(),
	})
}

// UpdateConfig 部分更新审核配置
func (s *HTTPServer) UpdateConfig(c *gin.Context) {
	var patch config.ModerationPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}

	cfg, err := s.service.UpdateConfig(patch)
	if err != nil {
		s.fail(c, "Failed to update config", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"config":  cfg,
	})
}

// GetUserHistory 查询用户历史
func (s *HTTPServer) GetUserHistory(c *gin.Context) {
	history, ok, err := s.service.GetUserHistory(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		s.fail(c, "Failed to get user history", err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "user history not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"history": history,
	})
}

// ClearUserHistory 清除用户历史
func (s *HTTPServer) ClearUserHistory(c *gin.Context) {
	if err := s.service.ClearUserHistory(c.Request.Context(), c.Param("user_id")); err != nil {
		s.fail(c, "Failed to clear user history", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetStats 系统统计
func (s *HTTPServer) GetStats(c *gin.Context) {
	stats, err := s.service.GetSystemStats(c.Request.Context())
	if err != nil {
		s.fail(c, "Failed to get stats", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   stats,
	})
}

// HealthCheck 健康检查
func (s *HTTPServer) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"service":         "desahogos-moderation",
		"lexicon_version": s.service.LexiconVersion(),
		"time":            time.Now().Format(time.RFC3339),
	})
}

// fail 将业务错误映射为HTTP状态码
func (s *HTTPServer) fail(c *gin.Context, msg string, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrInvalidContentType),
		errors.Is(err, ErrAnonymousNotAllowed),
		errors.Is(err, ErrBatchTooLarge),
		errors.Is(err, config.ErrInvalidConfig):
		code = http.StatusBadRequest
	case errors.Is(err, ErrAlertQueueUnavailable):
		code = http.StatusServiceUnavailable
	default:
		s.logger.Errorf("%s: %v", msg, err)
	}

	c.JSON(code, gin.H{
		"success": false,
		"error":   msg + ": " + err.Error(),
	})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   "Invalid request: " + err.Error(),
	})
}
