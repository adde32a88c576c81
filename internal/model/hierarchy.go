package model

import (
	"errors"
	"time"
)

// Group 集团,组织层级的根节点
type Group struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"name"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (Group) TableName() string {
	return "groups"
}

// Organization 组织,必须归属于一个集团
type Organization struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	GroupID   string    `gorm:"type:varchar(64);not null;index" json:"group_id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (Organization) TableName() string {
	return "organizations"
}

// Department 部门,必须归属于一个组织
type Department struct {
	ID             string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name           string    `gorm:"type:varchar(255);not null" json:"name"`
	OrganizationID string    `gorm:"type:varchar(64);not null;index" json:"organization_id"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (Department) TableName() string {
	return "departments"
}

// SubDepartment 子部门,必须归属于一个部门
type SubDepartment struct {
	ID           string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	DepartmentID string    `gorm:"type:varchar(64);not null;index" json:"department_id"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (SubDepartment) TableName() string {
	return "sub_departments"
}

// AncestorChain 节点到集团根的完整链路
// 用于展示和生成参考编号,字段按需填充
type AncestorChain struct {
	Group         *Group         `json:"group,omitempty"`
	Organization  *Organization  `json:"organization,omitempty"`
	Department    *Department    `json:"department,omitempty"`
	SubDepartment *SubDepartment `json:"sub_department,omitempty"`
}

// Validate 验证集团模型
func (g *Group) Validate() error {
	if g.ID == "" {
		return errors.New("group ID is required")
	}
	if g.Name == "" {
		return errors.New("group name is required")
	}
	return nil
}

// Validate 验证组织模型
func (o *Organization) Validate() error {
	if o.ID == "" {
		return errors.New("organization ID is required")
	}
	if o.Name == "" {
		return errors.New("organization name is required")
	}
	if o.GroupID == "" {
		return errors.New("organization group ID is required")
	}
	return nil
}

// Validate 验证部门模型
func (d *Department) Validate() error {
	if d.ID == "" {
		return errors.New("department ID is required")
	}
	if d.Name == "" {
		return errors.New("department name is required")
	}
	if d.OrganizationID == "" {
		return errors.New("department organization ID is required")
	}
	return nil
}

// Validate 验证子部门模型
func (s *SubDepartment) Validate() error {
	if s.ID == "" {
		return errors.New("sub-department ID is required")
	}
	if s.Name == "" {
		return errors.New("sub-department name is required")
	}
	if s.DepartmentID == "" {
		return errors.New("sub-department department ID is required")
	}
	return nil
}
