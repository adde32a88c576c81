package service

import (
	"github.com/mautops/budget-gin/internal/model"
)

// PermissionService 权限求值器
// 每个用户/模块对的级别在建用户时独立配置,无继承与角色覆盖
type PermissionService interface {
	// EffectivePermission 求用户在模块上的有效级别,未配置即 none
	EffectivePermission(user *model.User, moduleKey string) model.PermissionLevel
	// CanRead 读操作守卫
	CanRead(user *model.User, moduleKey string) bool
	// CanWrite 写操作守卫,要求 write 或 full
	CanWrite(user *model.User, moduleKey string) bool
	// CanDelete 破坏性操作守卫,要求 full
	CanDelete(user *model.User, moduleKey string) bool
}

// permissionService 权限求值器实现
type permissionService struct{}

// NewPermissionService 创建权限求值器
func NewPermissionService() PermissionService {
	return &permissionService{}
}

// EffectivePermission 求有效访问级别
// 权限映射损坏按无权限处理,绝不放大访问
func (s *permissionService) EffectivePermission(user *model.User, moduleKey string) model.PermissionLevel {
	if user == nil {
		return model.PermissionNone
	}
	perms, err := user.PermissionMap()
	if err != nil {
		return model.PermissionNone
	}
	level, ok := perms[moduleKey]
	if !ok || !model.ValidPermissionLevel(level) {
		return model.PermissionNone
	}
	return level
}

// CanRead 判断读权限
func (s *permissionService) CanRead(user *model.User, moduleKey string) bool {
	return s.EffectivePermission(user, moduleKey).CanRead()
}

// CanWrite 判断写权限
func (s *permissionService) CanWrite(user *model.User, moduleKey string) bool {
	return s.EffectivePermission(user, moduleKey).CanWrite()
}

// CanDelete 判断删除权限,仅 full 允许
func (s *permissionService) CanDelete(user *model.User, moduleKey string) bool {
	return s.EffectivePermission(user, moduleKey) == model.PermissionFull
}
