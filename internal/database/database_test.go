package database

import (
	"testing"

	"github.com/mautops/budget-gin/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	return db
}

// TestMigrateCreatesTables 测试迁移后所有业务表存在
func TestMigrateCreatesTables(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, Migrate(db))

	tables := []string{
		"groups", "organizations", "departments", "sub_departments",
		"budget_sheets", "budget_items",
		"approval_workflows", "approval_levels", "approval_items",
		"state_history", "audit_logs", "users",
		"vendors", "devices", "contracts",
	}
	for _, table := range tables {
		assert.True(t, db.Migrator().HasTable(table), "table %s should exist", table)
	}
}

// TestMigrateIdempotent 测试迁移可重复执行
func TestMigrateIdempotent(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))
}

// TestCreateIndexes 测试索引创建
func TestCreateIndexes(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, Migrate(db))
	require.NoError(t, CreateIndexes(db))

	// 重复执行不报错
	require.NoError(t, CreateIndexes(db))
}

// TestCheckHealth 测试健康检查
func TestCheckHealth(t *testing.T) {
	db := newTestDB(t)
	assert.True(t, CheckHealth(db))
	assert.False(t, CheckHealth(nil))
}

// TestBuildDSN 测试 DSN 拼装
func TestBuildDSN(t *testing.T) {
	dsn := BuildDSN(config.DatabaseConfig{
		Host:     "db.example.com",
		Port:     5433,
		User:     "budget",
		Password: "secret",
		DBName:   "budget",
		SSLMode:  "require",
	})
	assert.Contains(t, dsn, "host=db.example.com")
	assert.Contains(t, dsn, "port=5433")
	assert.Contains(t, dsn, "user=budget")
	assert.Contains(t, dsn, "dbname=budget")
	assert.Contains(t, dsn, "sslmode=require")
}

// TestPoolConfigs 测试连接池默认配置
func TestPoolConfigs(t *testing.T) {
	pool := GetPoolConfig()
	assert.Equal(t, 10, pool.MaxIdleConns)
	assert.Equal(t, 100, pool.MaxOpenConns)

	// 生产环境收紧空闲时间、放大连接数
	prod := GetProductionPoolConfig()
	assert.Equal(t, 20, prod.MaxIdleConns)
	assert.Equal(t, 200, prod.MaxOpenConns)
	assert.Less(t, prod.ConnMaxIdleTime, pool.ConnMaxIdleTime)
}
