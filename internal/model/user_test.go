package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPermissionLevelGuards 测试级别与读写判定的对应关系
func TestPermissionLevelGuards(t *testing.T) {
	assert.False(t, PermissionNone.CanRead())
	assert.False(t, PermissionNone.CanWrite())

	assert.True(t, PermissionRead.CanRead())
	assert.False(t, PermissionRead.CanWrite())

	assert.True(t, PermissionWrite.CanRead())
	assert.True(t, PermissionWrite.CanWrite())

	assert.True(t, PermissionFull.CanRead())
	assert.True(t, PermissionFull.CanWrite())
}

// TestValidPermissionLevel 测试级别合法性判断
func TestValidPermissionLevel(t *testing.T) {
	assert.True(t, ValidPermissionLevel(PermissionNone))
	assert.True(t, ValidPermissionLevel(PermissionFull))
	assert.False(t, ValidPermissionLevel("admin"))
	assert.False(t, ValidPermissionLevel(""))
}

// TestPermissionMapRoundtrip 测试权限映射的序列化往返
func TestPermissionMapRoundtrip(t *testing.T) {
	user := &User{}
	require.NoError(t, user.SetPermissionMap(map[string]PermissionLevel{
		ModuleBudget:   PermissionWrite,
		ModuleForecast: PermissionRead,
	}))

	perms, err := user.PermissionMap()
	require.NoError(t, err)
	assert.Equal(t, PermissionWrite, perms[ModuleBudget])
	assert.Equal(t, PermissionRead, perms[ModuleForecast])
	_, ok := perms[ModuleUser]
	assert.False(t, ok)
}

// TestPermissionMapEmpty 测试未配置权限返回空映射
func TestPermissionMapEmpty(t *testing.T) {
	user := &User{}
	perms, err := user.PermissionMap()
	require.NoError(t, err)
	assert.Empty(t, perms)
}

// TestPermissionMapCorrupt 测试损坏的权限数据返回错误
func TestPermissionMapCorrupt(t *testing.T) {
	user := &User{Permissions: []byte("{broken")}
	_, err := user.PermissionMap()
	assert.Error(t, err)
}
