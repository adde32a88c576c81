package repository

import (
	"github.com/mautops/budget-gin/internal/model"
	"gorm.io/gorm"
)

// AuditLogRepository 审计日志仓储接口
type AuditLogRepository interface {
	Save(log *model.AuditLog) error
	FindByResource(resourceType, resourceID string) ([]*model.AuditLog, error)
	FindByUser(userID string, limit int) ([]*model.AuditLog, error)
}

// auditLogRepository 审计日志仓储实现
type auditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository 创建审计日志仓储
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &auditLogRepository{db: db}
}

// Save 保存审计日志
func (r *auditLogRepository) Save(log *model.AuditLog) error {
	return r.db.Create(log).Error
}

// FindByResource 查找资源的审计日志
func (r *auditLogRepository) FindByResource(resourceType, resourceID string) ([]*model.AuditLog, error) {
	var logs []*model.AuditLog
	err := r.db.Where("resource_type = ? AND resource_id = ?", resourceType, resourceID).
		Order("created_at DESC").Find(&logs).Error
	return logs, err
}

// FindByUser 查找用户最近的审计日志
func (r *auditLogRepository) FindByUser(userID string, limit int) ([]*model.AuditLog, error) {
	if limit <= 0 {
		limit = 100
	}
	var logs []*model.AuditLog
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").Limit(limit).Find(&logs).Error
	return logs, err
}
