package model

import (
	"encoding/json"
	"errors"
	"time"
)

// PermissionLevel 模块访问级别
type PermissionLevel string

const (
	PermissionNone  PermissionLevel = "none"
	PermissionRead  PermissionLevel = "read"
	PermissionWrite PermissionLevel = "write"
	PermissionFull  PermissionLevel = "full"
)

// ValidPermissionLevel 判断访问级别是否合法
func ValidPermissionLevel(l PermissionLevel) bool {
	switch l {
	case PermissionNone, PermissionRead, PermissionWrite, PermissionFull:
		return true
	}
	return false
}

// CanWrite 判断级别是否允许写操作
func (l PermissionLevel) CanWrite() bool {
	return l == PermissionWrite || l == PermissionFull
}

// CanRead 判断级别是否允许读操作
func (l PermissionLevel) CanRead() bool {
	return l == PermissionRead || l == PermissionWrite || l == PermissionFull
}

// 模块权限键
const (
	ModuleBudget    = "budget"
	ModuleContract  = "contract"
	ModuleHierarchy = "hierarchy"
	ModuleWorkflow  = "workflow"
	ModuleUser      = "user"
	ModuleVendor    = "vendor"
	ModuleDevice    = "device"
	ModuleForecast  = "forecast"
)

// User 用户,携带层级归属与逐模块的权限配置
// RoleKey 是稳定的审批角色标识,与展示名解耦
type User struct {
	ID              string `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Username        string `gorm:"type:varchar(128);not null;uniqueIndex" json:"username"`
	Email           string `gorm:"type:varchar(255);not null" json:"email"`
	PasswordHash    string `gorm:"type:varchar(128);not null" json:"-"`
	RoleKey         string `gorm:"type:varchar(64);not null;index" json:"role_key"`
	GroupID         string `gorm:"type:varchar(64);index" json:"group_id,omitempty"`
	OrganizationID  string `gorm:"type:varchar(64);index" json:"organization_id,omitempty"`
	DepartmentID    string `gorm:"type:varchar(64);index" json:"department_id,omitempty"`
	SubDepartmentID string `gorm:"type:varchar(64)" json:"sub_department_id,omitempty"`
	// Permissions 序列化的 moduleKey -> level 映射
	// 每个用户/模块对在建用户时独立配置,无继承
	Permissions []byte    `gorm:"type:text" json:"-"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// PermissionMap 反序列化权限映射,空值返回空映射
func (u *User) PermissionMap() (map[string]PermissionLevel, error) {
	perms := make(map[string]PermissionLevel)
	if len(u.Permissions) == 0 {
		return perms, nil
	}
	if err := json.Unmarshal(u.Permissions, &perms); err != nil {
		return nil, err
	}
	return perms, nil
}

// SetPermissionMap 序列化并写入权限映射
func (u *User) SetPermissionMap(perms map[string]PermissionLevel) error {
	data, err := json.Marshal(perms)
	if err != nil {
		return err
	}
	u.Permissions = data
	return nil
}

// Validate 验证用户模型
func (u *User) Validate() error {
	if u.ID == "" {
		return errors.New("user ID is required")
	}
	if u.Username == "" {
		return errors.New("username is required")
	}
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.RoleKey == "" {
		return errors.New("user role key is required")
	}
	return nil
}
