package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mautops/budget-gin/internal/apperrors"
	"gorm.io/gorm"
)

// statusForKind 业务错误类别到 HTTP 状态码的映射
func statusForKind(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindConflict:
		return http.StatusConflict
	case apperrors.KindInvalidState:
		return http.StatusConflict
	case apperrors.KindAuthorization:
		return http.StatusForbidden
	case apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindConfiguration:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// HandleServiceError 将服务层错误写为统一错误响应
func HandleServiceError(c *gin.Context, err error, operation string) {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		Error(c, statusForKind(appErr.Kind), "failed to "+operation, appErr.Message)
		return
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		Error(c, http.StatusNotFound, "failed to "+operation, err.Error())
		return
	}
	Error(c, http.StatusInternalServerError, "failed to "+operation, err.Error())
}

// ErrorHandlerMiddleware 错误处理中间件
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()

			var appErr *apperrors.Error
			if errors.As(err, &appErr) {
				Error(c, statusForKind(appErr.Kind), appErr.Message, "")
			} else {
				Error(c, http.StatusInternalServerError, "internal server error", err.Error())
			}
		}
	}
}
