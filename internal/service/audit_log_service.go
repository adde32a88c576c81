package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/mautops/budget-gin/internal/model"
	"github.com/mautops/budget-gin/internal/repository"
)

// AuditLogService 审计日志服务
// 记录失败不影响业务操作,调用方统一忽略返回错误
type AuditLogService interface {
	RecordAction(ctx context.Context, userID string, action string, resourceType string, resourceID string, details interface{}) error
	ListByResource(resourceType, resourceID string) ([]*model.AuditLog, error)
}

// auditLogService 审计日志服务实现
type auditLogService struct {
	auditRepo repository.AuditLogRepository
}

// NewAuditLogService 创建审计日志服务
func NewAuditLogService(auditRepo repository.AuditLogRepository) AuditLogService {
	return &auditLogService{
		auditRepo: auditRepo,
	}
}

// RecordAction 记录操作审计日志
func (s *auditLogService) RecordAction(
	ctx context.Context,
	userID string,
	action string,
	resourceType string,
	resourceID string,
	details interface{},
) error {
	if s.auditRepo == nil {
		return nil
	}

	// 序列化详情,字符串按原样存储
	var detailsJSON []byte
	switch d := details.(type) {
	case string:
		detailsJSON = []byte(d)
	default:
		var err error
		detailsJSON, err = json.Marshal(details)
		if err != nil {
			return err
		}
	}

	// 请求上下文信息由中间件注入
	requestID := ""
	if v := ctx.Value("request_id"); v != nil {
		requestID, _ = v.(string)
	}
	ip := ""
	if v := ctx.Value("ip"); v != nil {
		ip, _ = v.(string)
	}
	userAgent := ""
	if v := ctx.Value("user_agent"); v != nil {
		userAgent, _ = v.(string)
	}

	auditLog := &model.AuditLog{
		ID:           uuid.New().String(),
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		RequestID:    requestID,
		IP:           ip,
		UserAgent:    userAgent,
		Details:      detailsJSON,
		CreatedAt:    time.Now(),
	}

	return s.auditRepo.Save(auditLog)
}

// ListByResource 查询资源的审计日志
func (s *auditLogService) ListByResource(resourceType, resourceID string) ([]*model.AuditLog, error) {
	return s.auditRepo.FindByResource(resourceType, resourceID)
}
