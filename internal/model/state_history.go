package model

import (
	"errors"
	"time"
)

// StateHistory 预算表状态迁移历史
type StateHistory struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)"`
	SheetID   string    `gorm:"type:varchar(64);not null;index"`
	FromState string    `gorm:"type:varchar(32)"`
	ToState   string    `gorm:"type:varchar(32);not null"`
	Level     int       `gorm:"not null;default:0"` // 动作发生时的审批层级
	Reason    string    `gorm:"type:text"`
	Operator  string    `gorm:"type:varchar(64);not null"`
	CreatedAt time.Time `gorm:"not null;index"`
}

// TableName 指定表名
func (StateHistory) TableName() string {
	return "state_history"
}

// Validate 验证状态历史模型
func (sh *StateHistory) Validate() error {
	if sh.ID == "" {
		return errors.New("state history ID is required")
	}
	if sh.SheetID == "" {
		return errors.New("state history sheet ID is required")
	}
	if sh.ToState == "" {
		return errors.New("state history to state is required")
	}
	if sh.Operator == "" {
		return errors.New("state history operator is required")
	}
	return nil
}
