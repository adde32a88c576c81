package container

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/mautops/budget-gin/internal/auth"
	"github.com/mautops/budget-gin/internal/config"
	"github.com/mautops/budget-gin/internal/database"
	"github.com/mautops/budget-gin/internal/llm"
	"github.com/mautops/budget-gin/internal/notify"
	"github.com/mautops/budget-gin/internal/repository"
	"github.com/mautops/budget-gin/internal/service"
	"github.com/mautops/budget-gin/internal/websocket"
)

// Container 依赖注入容器
// 管理数据库、通知网关、LLM 客户端与全部服务
type Container struct {
	cfg       *config.Config
	db        *gorm.DB
	hub       *websocket.Hub
	tokens    *auth.TokenManager
	notifier  notify.Notifier
	llmClient llm.Client

	hierarchySvc  service.HierarchyService
	sheetSvc      service.SheetService
	workflowSvc   service.WorkflowService
	permissionSvc service.PermissionService
	userSvc       service.UserService
	registrySvc   service.RegistryService
	forecastSvc   service.ForecastService
	auditLogSvc   service.AuditLogService
}

// NewContainer 创建依赖注入容器
// 根据配置初始化所有依赖组件
func NewContainer(cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	if logger == nil {
		logger = logrus.New()
	}

	// 1. 初始化数据库（带重试机制）
	// 默认重试 3 次，初始间隔 1 秒，指数退避
	db, err := database.ConnectWithRetry(cfg.Database, 3, time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// 执行数据库迁移
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// 2. 初始化令牌管理器
	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTL)*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token manager: %w", err)
	}

	// 3. 初始化通知网关,未配置 webhook 时退化为空实现
	var notifier notify.Notifier = notify.NopNotifier{}
	if cfg.Notify.WebhookURL != "" {
		notifier = notify.NewWebhookNotifier(cfg.Notify.WebhookURL, cfg.Notify.Workers, cfg.Notify.QueueSize, logger)
	}

	// 4. 初始化 LLM 客户端,未配置 API key 时预测接口不可用
	var llmClient llm.Client
	if cfg.Gemini.APIKey != "" {
		llmClient, err = llm.NewGeminiClient(context.Background(), cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize llm client: %w", err)
		}
	}

	// 5. 初始化 WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// 6. 仓储层
	hierarchyRepo := repository.NewHierarchyRepository(db)
	sheetRepo := repository.NewSheetRepository(db)
	workflowRepo := repository.NewWorkflowRepository(db)
	itemRepo := repository.NewApprovalItemRepository(db)
	historyRepo := repository.NewStateHistoryRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	userRepo := repository.NewUserRepository(db)
	registryRepo := repository.NewRegistryRepository(db)

	// 7. 服务层
	auditLogSvc := service.NewAuditLogService(auditRepo)
	hierarchySvc := service.NewHierarchyService(hierarchyRepo, auditLogSvc)
	sheetSvc := service.NewSheetService(sheetRepo, hierarchySvc, auditLogSvc)
	workflowSvc := service.NewWorkflowService(
		db, workflowRepo, sheetRepo, itemRepo, historyRepo,
		hierarchySvc, auditLogSvc, notifier, hub, logger,
	)
	permissionSvc := service.NewPermissionService()
	userSvc := service.NewUserService(userRepo, auditLogSvc)
	registrySvc := service.NewRegistryService(
		db, registryRepo, workflowRepo, historyRepo,
		hierarchySvc, auditLogSvc, notifier,
	)
	forecastSvc := service.NewForecastService(llmClient, logger)

	return &Container{
		cfg:           cfg,
		db:            db,
		hub:           hub,
		tokens:        tokens,
		notifier:      notifier,
		llmClient:     llmClient,
		hierarchySvc:  hierarchySvc,
		sheetSvc:      sheetSvc,
		workflowSvc:   workflowSvc,
		permissionSvc: permissionSvc,
		userSvc:       userSvc,
		registrySvc:   registrySvc,
		forecastSvc:   forecastSvc,
		auditLogSvc:   auditLogSvc,
	}, nil
}

// DB 获取数据库连接
func (c *Container) DB() *gorm.DB {
	return c.db
}

// Hub 获取 WebSocket Hub
func (c *Container) Hub() *websocket.Hub {
	return c.hub
}

// Tokens 获取令牌管理器
func (c *Container) Tokens() *auth.TokenManager {
	return c.tokens
}

// LLMClient 获取 LLM 客户端,未配置时为 nil
func (c *Container) LLMClient() llm.Client {
	return c.llmClient
}

// HierarchyService 获取组织层级服务
func (c *Container) HierarchyService() service.HierarchyService {
	return c.hierarchySvc
}

// SheetService 获取预算表服务
func (c *Container) SheetService() service.SheetService {
	return c.sheetSvc
}

// WorkflowService 获取审批流引擎
func (c *Container) WorkflowService() service.WorkflowService {
	return c.workflowSvc
}

// PermissionService 获取权限服务
func (c *Container) PermissionService() service.PermissionService {
	return c.permissionSvc
}

// UserService 获取用户服务
func (c *Container) UserService() service.UserService {
	return c.userSvc
}

// RegistryService 获取台账服务
func (c *Container) RegistryService() service.RegistryService {
	return c.registrySvc
}

// ForecastService 获取预测服务
func (c *Container) ForecastService() service.ForecastService {
	return c.forecastSvc
}

// AuditLogService 获取审计日志服务
func (c *Container) AuditLogService() service.AuditLogService {
	return c.auditLogSvc
}

// Close 关闭容器,清理资源
func (c *Container) Close() error {
	if c.notifier != nil {
		c.notifier.Close()
	}

	if c.llmClient != nil {
		_ = c.llmClient.Close()
	}

	if c.db != nil {
		sqlDB, err := c.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	return nil
}
