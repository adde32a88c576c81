package model

import (
	"errors"
	"time"
)

// AuditLog 审计日志数据模型
type AuditLog struct {
	ID           string    `gorm:"primaryKey;type:varchar(64)"`
	UserID       string    `gorm:"type:varchar(64);not null;index"`
	Action       string    `gorm:"type:varchar(64);not null;index"` // create/update/delete/submit/approve/reject
	ResourceType string    `gorm:"type:varchar(32);not null"`       // sheet/workflow/hierarchy/user/vendor/device/contract
	ResourceID   string    `gorm:"type:varchar(64);not null;index"`
	RequestID    string    `gorm:"type:varchar(64);index"`
	IP           string    `gorm:"type:varchar(45)"` // IPv4 或 IPv6
	UserAgent    string    `gorm:"type:text"`
	Details      []byte    `gorm:"type:text"` // 操作详情
	CreatedAt    time.Time `gorm:"not null;index"`
}

// TableName 指定表名
func (AuditLog) TableName() string {
	return "audit_logs"
}

// Validate 验证审计日志模型
func (al *AuditLog) Validate() error {
	if al.ID == "" {
		return errors.New("audit log ID is required")
	}
	if al.UserID == "" {
		return errors.New("user ID is required")
	}
	if al.Action == "" {
		return errors.New("action is required")
	}
	if al.ResourceType == "" {
		return errors.New("resource type is required")
	}
	if al.ResourceID == "" {
		return errors.New("resource ID is required")
	}
	return nil
}
