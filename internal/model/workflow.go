package model

import (
	"encoding/json"
	"errors"
	"sort"
	"time"
)

// WorkflowType 审批流类型
type WorkflowType string

const (
	WorkflowTypeBudget   WorkflowType = "budget"
	WorkflowTypeContract WorkflowType = "contract"
)

// ValidWorkflowType 判断审批流类型是否合法
func ValidWorkflowType(t WorkflowType) bool {
	return t == WorkflowTypeBudget || t == WorkflowTypeContract
}

// ApprovalWorkflow 审批矩阵,每种流程类型一条记录
type ApprovalWorkflow struct {
	Type      WorkflowType `gorm:"primaryKey;type:varchar(32)" json:"type"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null" json:"updated_at"`

	Levels []ApprovalLevel `gorm:"foreignKey:WorkflowType;references:Type" json:"levels"`
}

// TableName 指定表名
func (ApprovalWorkflow) TableName() string {
	return "approval_workflows"
}

// ApprovalLevel 审批矩阵中的一个层级
// RoleKey 是稳定的角色标识,RoleLabel 仅用于展示
// 审批授权只比较 RoleKey,改名不会破坏在途审批
type ApprovalLevel struct {
	WorkflowType WorkflowType `gorm:"primaryKey;type:varchar(32)" json:"workflow_type"`
	Level        int          `gorm:"primaryKey" json:"level"`
	RoleKey      string       `gorm:"type:varchar(64);not null;index" json:"role_key"`
	RoleLabel    string       `gorm:"type:varchar(255);not null" json:"role_label"`
	Description  string       `gorm:"type:text" json:"description,omitempty"`
}

// TableName 指定表名
func (ApprovalLevel) TableName() string {
	return "approval_levels"
}

// SortedLevels 返回按层级号升序排列的副本
// 层级号允许不连续,"下一级"始终指排序后的下一个条目
func (w *ApprovalWorkflow) SortedLevels() []ApprovalLevel {
	levels := make([]ApprovalLevel, len(w.Levels))
	copy(levels, w.Levels)
	sort.Slice(levels, func(i, j int) bool {
		return levels[i].Level < levels[j].Level
	})
	return levels
}

// Validate 验证审批矩阵
// 层级 1 必须存在,它是所有提交的入口
func (w *ApprovalWorkflow) Validate() error {
	if !ValidWorkflowType(w.Type) {
		return errors.New("workflow type must be budget or contract")
	}
	if len(w.Levels) == 0 {
		return errors.New("workflow requires at least one level")
	}
	hasEntry := false
	seen := make(map[int]bool, len(w.Levels))
	for _, lvl := range w.Levels {
		if lvl.Level == 1 {
			hasEntry = true
		}
		if lvl.Level < 1 {
			return errors.New("workflow level numbers must be positive")
		}
		if seen[lvl.Level] {
			return errors.New("workflow level numbers must be unique")
		}
		seen[lvl.Level] = true
		if lvl.RoleKey == "" {
			return errors.New("workflow level role key is required")
		}
	}
	if !hasEntry {
		return errors.New("workflow level 1 is required")
	}
	return nil
}

// WorkflowSnapshot 提交时刻固化在预算表上的审批链
type WorkflowSnapshot struct {
	Type   WorkflowType    `json:"type"`
	Levels []ApprovalLevel `json:"levels"`
}

// Snapshot 生成已排序的审批链快照
func (w *ApprovalWorkflow) Snapshot() *WorkflowSnapshot {
	return &WorkflowSnapshot{
		Type:   w.Type,
		Levels: w.SortedLevels(),
	}
}

// Marshal 序列化快照
func (s *WorkflowSnapshot) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalWorkflowSnapshot 反序列化快照
func UnmarshalWorkflowSnapshot(data []byte) (*WorkflowSnapshot, error) {
	if len(data) == 0 {
		return nil, errors.New("workflow snapshot is empty")
	}
	var s WorkflowSnapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// LevelAt 按层级号查找快照中的层级
func (s *WorkflowSnapshot) LevelAt(level int) (*ApprovalLevel, bool) {
	for i := range s.Levels {
		if s.Levels[i].Level == level {
			return &s.Levels[i], true
		}
	}
	return nil, false
}

// NextAfter 返回排序链中 level 之后的下一个条目
// 按列表位置推进,而不是层级号 +1
func (s *WorkflowSnapshot) NextAfter(level int) (*ApprovalLevel, bool) {
	for i := range s.Levels {
		if s.Levels[i].Level == level {
			if i+1 < len(s.Levels) {
				return &s.Levels[i+1], true
			}
			return nil, false
		}
	}
	return nil, false
}

// First 返回排序链的第一个层级
func (s *WorkflowSnapshot) First() (*ApprovalLevel, bool) {
	if len(s.Levels) == 0 {
		return nil, false
	}
	return &s.Levels[0], true
}
