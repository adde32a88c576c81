package service

import (
	"testing"

	"github.com/mautops/budget-gin/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEffectivePermission 测试有效级别求值
func TestEffectivePermission(t *testing.T) {
	svc := NewPermissionService()

	user := &model.User{ID: "user-001", RoleKey: "dept_head"}
	require.NoError(t, user.SetPermissionMap(map[string]model.PermissionLevel{
		model.ModuleBudget:    model.PermissionWrite,
		model.ModuleHierarchy: model.PermissionRead,
		model.ModuleUser:      model.PermissionFull,
	}))

	assert.Equal(t, model.PermissionWrite, svc.EffectivePermission(user, model.ModuleBudget))
	assert.Equal(t, model.PermissionRead, svc.EffectivePermission(user, model.ModuleHierarchy))

	// 未配置的模块即 none,无继承
	assert.Equal(t, model.PermissionNone, svc.EffectivePermission(user, model.ModuleForecast))
}

// TestPermissionGuards 测试读/写/删守卫
func TestPermissionGuards(t *testing.T) {
	svc := NewPermissionService()

	user := &model.User{ID: "user-001"}
	require.NoError(t, user.SetPermissionMap(map[string]model.PermissionLevel{
		model.ModuleBudget:    model.PermissionWrite,
		model.ModuleHierarchy: model.PermissionRead,
		model.ModuleUser:      model.PermissionFull,
	}))

	assert.True(t, svc.CanRead(user, model.ModuleBudget))
	assert.True(t, svc.CanWrite(user, model.ModuleBudget))
	// 删除要求 full,write 不够
	assert.False(t, svc.CanDelete(user, model.ModuleBudget))

	assert.True(t, svc.CanRead(user, model.ModuleHierarchy))
	assert.False(t, svc.CanWrite(user, model.ModuleHierarchy))

	assert.True(t, svc.CanDelete(user, model.ModuleUser))

	assert.False(t, svc.CanRead(user, model.ModuleVendor))
}

// TestPermissionNilUser 测试缺失用户一律无权限
func TestPermissionNilUser(t *testing.T) {
	svc := NewPermissionService()
	assert.Equal(t, model.PermissionNone, svc.EffectivePermission(nil, model.ModuleBudget))
	assert.False(t, svc.CanRead(nil, model.ModuleBudget))
	assert.False(t, svc.CanDelete(nil, model.ModuleBudget))
}

// TestPermissionCorruptMap 测试损坏的权限映射按无权限处理
func TestPermissionCorruptMap(t *testing.T) {
	svc := NewPermissionService()
	user := &model.User{ID: "user-001", Permissions: []byte("{broken")}

	assert.Equal(t, model.PermissionNone, svc.EffectivePermission(user, model.ModuleBudget))
	assert.False(t, svc.CanRead(user, model.ModuleBudget))
}

// TestPermissionUnknownLevel 测试映射中的非法级别按无权限处理
func TestPermissionUnknownLevel(t *testing.T) {
	svc := NewPermissionService()
	user := &model.User{ID: "user-001", Permissions: []byte(`{"budget":"admin"}`)}

	assert.Equal(t, model.PermissionNone, svc.EffectivePermission(user, model.ModuleBudget))
}
