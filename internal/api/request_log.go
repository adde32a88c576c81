package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mautops/budget-gin/internal/metrics"
	"github.com/sirupsen/logrus"
)

// RequestLogMiddleware 请求日志中间件
// 审批与预算操作都要能按 user_id 和 request_id 回溯
func RequestLogMiddleware() gin.HandlerFunc {
	logger := GetLogger()

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		metrics.RecordAPIRequest(method, path, status, latency.Seconds())

		// 探活与指标抓取只计数不落日志
		if path == "/health" || path == "/metrics" {
			return
		}

		fields := logrus.Fields{
			"request_id": c.GetString("request_id"),
			"method":     method,
			"path":       path,
			"status":     status,
			"latency":    latency.String(),
			"ip":         c.ClientIP(),
		}
		// 认证中间件之后才有 user_id
		if userID := c.GetString("user_id"); userID != "" {
			fields["user_id"] = userID
		}
		entry := logger.WithFields(fields)

		switch {
		case status >= 500:
			entry.Error("API request")
		case status >= 400:
			entry.Warn("API request")
		default:
			entry.Info("API request")
		}
	}
}
