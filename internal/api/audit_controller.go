package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mautops/budget-gin/internal/service"
)

// AuditController 审计日志控制器
type AuditController struct {
	auditLogSvc service.AuditLogService
}

// NewAuditController 创建审计日志控制器
func NewAuditController(auditLogSvc service.AuditLogService) *AuditController {
	return &AuditController{auditLogSvc: auditLogSvc}
}

// ListByResource 按资源查询审计日志
// @Summary      查询指定资源的审计日志
// @Tags         审计
// @Produce      json
// @Param        resource_type query string true "资源类型"
// @Param        resource_id query string true "资源 ID"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Router       /audit-logs [get]
// @Security     BearerAuth
func (c *AuditController) ListByResource(ctx *gin.Context) {
	resourceType := ctx.Query("resource_type")
	resourceID := ctx.Query("resource_id")
	if resourceType == "" || resourceID == "" {
		Error(ctx, http.StatusBadRequest, "invalid request", "resource_type and resource_id are required")
		return
	}

	logs, err := c.auditLogSvc.ListByResource(resourceType, resourceID)
	if err != nil {
		HandleServiceError(ctx, err, "list audit logs")
		return
	}

	Success(ctx, logs)
}
