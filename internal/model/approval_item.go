package model

import (
	"errors"
	"time"
)

// ApprovalItem 审批收件箱条目
// 预算表提交时创建,每次审批动作后推进或移除
type ApprovalItem struct {
	ID             string       `gorm:"primaryKey;type:varchar(64)" json:"id"`
	SheetID        string       `gorm:"type:varchar(64);not null;uniqueIndex" json:"sheet_id"`
	SheetType      SheetType    `gorm:"type:varchar(16);not null;index" json:"sheet_type"`
	WorkflowType   WorkflowType `gorm:"type:varchar(32);not null;index" json:"workflow_type"`
	OrganizationID string       `gorm:"type:varchar(64);not null;index" json:"organization_id"`
	DepartmentID   string       `gorm:"type:varchar(64);not null;index" json:"department_id"`
	Year           int          `gorm:"not null;index" json:"year"`
	TotalValue     float64      `gorm:"not null" json:"total_value"`
	// Level 当前等待的审批层级
	Level int `gorm:"not null;index" json:"level"`
	// RoleKey 当前层级的审批角色
	RoleKey     string    `gorm:"type:varchar(64);not null;index" json:"role_key"`
	SubmittedBy string    `gorm:"type:varchar(64);not null;index" json:"submitted_by"`
	SubmittedOn time.Time `gorm:"not null;index" json:"submitted_on"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (ApprovalItem) TableName() string {
	return "approval_items"
}

// Validate 验证审批条目
func (a *ApprovalItem) Validate() error {
	if a.ID == "" {
		return errors.New("approval item ID is required")
	}
	if a.SheetID == "" {
		return errors.New("approval item sheet ID is required")
	}
	if a.RoleKey == "" {
		return errors.New("approval item role key is required")
	}
	if a.Level < 1 {
		return errors.New("approval item level must be positive")
	}
	return nil
}
