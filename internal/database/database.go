package database

import (
	"context"
	"fmt"
	"time"

	"github.com/mautops/budget-gin/internal/config"
	"github.com/mautops/budget-gin/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// PoolConfig 连接池配置
type PoolConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime int // 秒
	ConnMaxIdleTime int // 秒
}

// BuildDSN 构建 PostgreSQL DSN
func BuildDSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}

// GetPoolConfig 获取连接池配置
func GetPoolConfig() *PoolConfig {
	return &PoolConfig{
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: 3600, // 1 小时
		ConnMaxIdleTime: 600,  // 10 分钟
	}
}

// GetProductionPoolConfig 获取生产环境连接池配置
func GetProductionPoolConfig() *PoolConfig {
	return &PoolConfig{
		MaxIdleConns:    20,   // 生产环境增加空闲连接数
		MaxOpenConns:    200,  // 生产环境增加最大连接数
		ConnMaxLifetime: 3600, // 1 小时
		ConnMaxIdleTime: 300,  // 5 分钟（生产环境缩短空闲时间）
	}
}

// Connect 连接数据库
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := BuildDSN(cfg)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	// 配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// 从配置中读取连接池参数，如果没有配置则使用默认值
	var poolConfig *PoolConfig
	if cfg.MaxIdleConns > 0 || cfg.MaxOpenConns > 0 {
		// 使用配置中的值
		poolConfig = &PoolConfig{
			MaxIdleConns:    cfg.MaxIdleConns,
			MaxOpenConns:    cfg.MaxOpenConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		}
		// 如果某些值未设置，使用默认值
		if poolConfig.MaxIdleConns == 0 {
			poolConfig.MaxIdleConns = 10
		}
		if poolConfig.MaxOpenConns == 0 {
			poolConfig.MaxOpenConns = 100
		}
		if poolConfig.ConnMaxLifetime == 0 {
			poolConfig.ConnMaxLifetime = 3600
		}
		if poolConfig.ConnMaxIdleTime == 0 {
			poolConfig.ConnMaxIdleTime = 600
		}
	} else {
		// 使用默认配置
		poolConfig = GetPoolConfig()
	}

	sqlDB.SetMaxIdleConns(poolConfig.MaxIdleConns)
	sqlDB.SetMaxOpenConns(poolConfig.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(poolConfig.ConnMaxLifetime) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(poolConfig.ConnMaxIdleTime) * time.Second)

	return db, nil
}

// ConnectWithRetry 带重试的数据库连接
func ConnectWithRetry(cfg config.DatabaseConfig, maxRetries int, retryInterval time.Duration) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	for i := 0; i < maxRetries; i++ {
		db, err = Connect(cfg)
		if err == nil {
			return db, nil
		}

		// 如果不是最后一次重试，等待后重试
		if i < maxRetries-1 {
			time.Sleep(retryInterval)
			retryInterval *= 2 // 指数退避
		}
	}

	return nil, fmt.Errorf("failed to connect database after %d retries: %w", maxRetries, err)
}

// Migrate 执行数据库迁移
// 所有快照/权限字段均为 TEXT,SQLite 与 PostgreSQL 共用 AutoMigrate
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Group{},
		&model.Organization{},
		&model.Department{},
		&model.SubDepartment{},
		&model.BudgetSheet{},
		&model.BudgetItem{},
		&model.ApprovalWorkflow{},
		&model.ApprovalLevel{},
		&model.ApprovalItem{},
		&model.StateHistory{},
		&model.AuditLog{},
		&model.User{},
		&model.Vendor{},
		&model.Device{},
		&model.Contract{},
	); err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}

	// 创建索引
	if err := CreateIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// CreateIndexes 创建数据库索引
func CreateIndexes(db *gorm.DB) error {
	// budget_sheets 表索引
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_sheets_org_dept ON budget_sheets(organization_id, department_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_sheets_org_dept: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_sheets_status_year ON budget_sheets(status, year)").Error; err != nil {
		return fmt.Errorf("failed to create idx_sheets_status_year: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_sheets_submitted_by ON budget_sheets(submitted_by)").Error; err != nil {
		return fmt.Errorf("failed to create idx_sheets_submitted_by: %w", err)
	}

	// budget_items 表索引
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_items_sheet_id ON budget_items(sheet_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_items_sheet_id: %w", err)
	}

	// approval_items 表索引
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_approval_role_level ON approval_items(role_key, level)").Error; err != nil {
		return fmt.Errorf("failed to create idx_approval_role_level: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_approval_org_year ON approval_items(organization_id, year)").Error; err != nil {
		return fmt.Errorf("failed to create idx_approval_org_year: %w", err)
	}

	// state_history 表索引
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_history_sheet_id ON state_history(sheet_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_history_sheet_id: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_history_created_at ON state_history(created_at)").Error; err != nil {
		return fmt.Errorf("failed to create idx_history_created_at: %w", err)
	}

	// audit_logs 表索引
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_audit_resource ON audit_logs(resource_type, resource_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_audit_resource: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_audit_user_id ON audit_logs(user_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_audit_user_id: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_audit_created_at ON audit_logs(created_at)").Error; err != nil {
		return fmt.Errorf("failed to create idx_audit_created_at: %w", err)
	}

	// contracts 表索引
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_contracts_vendor ON contracts(vendor_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_contracts_vendor: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_contracts_status ON contracts(status)").Error; err != nil {
		return fmt.Errorf("failed to create idx_contracts_status: %w", err)
	}

	// users 表索引
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_users_role_key ON users(role_key)").Error; err != nil {
		return fmt.Errorf("failed to create idx_users_role_key: %w", err)
	}

	return nil
}

// CheckHealth 检查数据库连接健康状态
func CheckHealth(db *gorm.DB) bool {
	if db == nil {
		return false
	}

	sqlDB, err := db.DB()
	if err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return false
	}

	return true
}

// Reconnect 重新连接数据库
func Reconnect(cfg config.DatabaseConfig, oldDB *gorm.DB) (*gorm.DB, error) {
	// 关闭旧连接
	if oldDB != nil {
		if sqlDB, err := oldDB.DB(); err == nil {
			sqlDB.Close()
		}
	}

	// 重新连接
	return Connect(cfg)
}
