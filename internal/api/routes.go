package api

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "github.com/mautops/budget-gin/docs" // 导入生成的 docs 包
	"github.com/mautops/budget-gin/internal/auth"
	"github.com/mautops/budget-gin/internal/config"
	"github.com/mautops/budget-gin/internal/llm"
	"github.com/mautops/budget-gin/internal/metrics"
	"github.com/mautops/budget-gin/internal/model"
	"github.com/mautops/budget-gin/internal/service"
	"github.com/mautops/budget-gin/internal/websocket"
)

// RouterConfig 路由依赖
type RouterConfig struct {
	Config    *config.Config
	DB        *gorm.DB
	Hub       *websocket.Hub
	Tokens    *auth.TokenManager
	LLMClient llm.Client

	HierarchySvc  service.HierarchyService
	SheetSvc      service.SheetService
	WorkflowSvc   service.WorkflowService
	PermissionSvc service.PermissionService
	UserSvc       service.UserService
	RegistrySvc   service.RegistryService
	ForecastSvc   service.ForecastService
	AuditLogSvc   service.AuditLogService
}

// SetupRoutes 配置路由
func SetupRoutes(rc *RouterConfig) *gin.Engine {
	if config.IsProduction(rc.Config) {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// 中间件
	router.Use(RequestIDMiddleware())
	router.Use(RequestLogMiddleware())
	router.Use(SecurityHeadersMiddleware())
	if rc.Config != nil {
		router.Use(CORSMiddleware(rc.Config.CORS.AllowedOrigins))
	}

	// 健康检查
	healthController := NewHealthController(rc.DB, rc.LLMClient)
	router.GET("/health", healthController.Check)

	// Prometheus 指标端点
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// WebSocket 路由,按审批角色推送
	if rc.Hub != nil && rc.Tokens != nil {
		router.GET("/ws/approvals", websocket.ApprovalFeedHandler(rc.Hub, rc.Tokens))
	}

	// Swagger UI 路由
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 控制器
	hierarchyController := NewHierarchyController(rc.HierarchySvc)
	sheetController := NewSheetController(rc.SheetSvc, rc.WorkflowSvc)
	workflowController := NewWorkflowController(rc.WorkflowSvc)
	userController := NewUserController(rc.UserSvc, rc.Tokens)
	registryController := NewRegistryController(rc.RegistrySvc)
	forecastController := NewForecastController(rc.ForecastSvc)
	auditController := NewAuditController(rc.AuditLogSvc)

	perm := rc.PermissionSvc

	rateCfg := config.Default().Rate
	if rc.Config != nil {
		rateCfg = rc.Config.Rate
	}

	// API v1 路由组
	v1 := router.Group("/api/v1")
	{
		// 登录不要求认证,但按来源 IP 限流压制口令爆破
		v1.POST("/auth/login", RateLimitMiddleware(rateCfg.LoginRPS, rateCfg.LoginBurst), userController.Login)
	}

	authed := router.Group("/api/v1")
	authed.Use(AuthMiddleware(rc.Tokens, rc.UserSvc))
	{
		// 组织层级路由
		hierarchy := authed.Group("/hierarchy")
		{
			hierarchy.POST("/groups", RequirePermission(perm, model.ModuleHierarchy, ActionWrite), hierarchyController.CreateGroup)
			hierarchy.GET("/groups", RequirePermission(perm, model.ModuleHierarchy, ActionRead), hierarchyController.ListGroups)
			hierarchy.GET("/groups/:id", RequirePermission(perm, model.ModuleHierarchy, ActionRead), hierarchyController.GetGroup)
			hierarchy.DELETE("/groups/:id", RequirePermission(perm, model.ModuleHierarchy, ActionDelete), hierarchyController.DeleteGroup)

			hierarchy.POST("/organizations", RequirePermission(perm, model.ModuleHierarchy, ActionWrite), hierarchyController.CreateOrganization)
			hierarchy.GET("/organizations", RequirePermission(perm, model.ModuleHierarchy, ActionRead), hierarchyController.ListOrganizations)
			hierarchy.DELETE("/organizations/:id", RequirePermission(perm, model.ModuleHierarchy, ActionDelete), hierarchyController.DeleteOrganization)

			hierarchy.POST("/departments", RequirePermission(perm, model.ModuleHierarchy, ActionWrite), hierarchyController.CreateDepartment)
			hierarchy.GET("/departments", RequirePermission(perm, model.ModuleHierarchy, ActionRead), hierarchyController.ListDepartments)
			hierarchy.DELETE("/departments/:id", RequirePermission(perm, model.ModuleHierarchy, ActionDelete), hierarchyController.DeleteDepartment)

			hierarchy.POST("/sub-departments", RequirePermission(perm, model.ModuleHierarchy, ActionWrite), hierarchyController.CreateSubDepartment)
			hierarchy.GET("/sub-departments", RequirePermission(perm, model.ModuleHierarchy, ActionRead), hierarchyController.ListSubDepartments)
			hierarchy.DELETE("/sub-departments/:id", RequirePermission(perm, model.ModuleHierarchy, ActionDelete), hierarchyController.DeleteSubDepartment)

			hierarchy.GET("/:kind/:id/ancestors", RequirePermission(perm, model.ModuleHierarchy, ActionRead), hierarchyController.Ancestors)
		}

		// 预算表路由
		sheets := authed.Group("/sheets")
		{
			sheets.POST("", RequirePermission(perm, model.ModuleBudget, ActionWrite), sheetController.Create)
			sheets.GET("", RequirePermission(perm, model.ModuleBudget, ActionRead), sheetController.List)
			sheets.GET("/:id", RequirePermission(perm, model.ModuleBudget, ActionRead), sheetController.Get)
			sheets.DELETE("/:id", RequirePermission(perm, model.ModuleBudget, ActionDelete), sheetController.Delete)

			sheets.POST("/:id/items", RequirePermission(perm, model.ModuleBudget, ActionWrite), sheetController.AddItem)
			sheets.PUT("/:id/items/:item_id", RequirePermission(perm, model.ModuleBudget, ActionWrite), sheetController.UpdateItem)
			sheets.DELETE("/:id/items/:item_id", RequirePermission(perm, model.ModuleBudget, ActionWrite), sheetController.RemoveItem)

			sheets.POST("/:id/submit", RequirePermission(perm, model.ModuleBudget, ActionWrite), sheetController.Submit)
			// 审批动作由审批矩阵的角色判定,模块权限只需可读
			sheets.POST("/:id/approve", RequirePermission(perm, model.ModuleBudget, ActionRead), sheetController.Approve)
			sheets.POST("/:id/reject", RequirePermission(perm, model.ModuleBudget, ActionRead), sheetController.Reject)
			sheets.GET("/:id/history", RequirePermission(perm, model.ModuleBudget, ActionRead), sheetController.History)
		}

		// 审批矩阵路由
		workflows := authed.Group("/workflows")
		{
			workflows.PUT("", RequirePermission(perm, model.ModuleWorkflow, ActionWrite), workflowController.Save)
			workflows.GET("", RequirePermission(perm, model.ModuleWorkflow, ActionRead), workflowController.List)
			workflows.GET("/:type", RequirePermission(perm, model.ModuleWorkflow, ActionRead), workflowController.Get)
		}

		// 审批收件箱
		authed.GET("/approvals/pending", RequirePermission(perm, model.ModuleBudget, ActionRead), workflowController.Pending)

		// 用户管理路由
		users := authed.Group("/users")
		{
			users.GET("/me", userController.Me)
			users.POST("", RequirePermission(perm, model.ModuleUser, ActionWrite), userController.Create)
			users.GET("", RequirePermission(perm, model.ModuleUser, ActionRead), userController.List)
			users.GET("/:id", RequirePermission(perm, model.ModuleUser, ActionRead), userController.Get)
			users.DELETE("/:id", RequirePermission(perm, model.ModuleUser, ActionDelete), userController.Delete)
		}

		// 供应商台账
		vendors := authed.Group("/vendors")
		{
			vendors.POST("", RequirePermission(perm, model.ModuleVendor, ActionWrite), registryController.CreateVendor)
			vendors.GET("", RequirePermission(perm, model.ModuleVendor, ActionRead), registryController.ListVendors)
			vendors.GET("/:id", RequirePermission(perm, model.ModuleVendor, ActionRead), registryController.GetVendor)
			vendors.DELETE("/:id", RequirePermission(perm, model.ModuleVendor, ActionDelete), registryController.DeleteVendor)
		}

		// 设备台账
		devices := authed.Group("/devices")
		{
			devices.POST("", RequirePermission(perm, model.ModuleDevice, ActionWrite), registryController.CreateDevice)
			devices.GET("", RequirePermission(perm, model.ModuleDevice, ActionRead), registryController.ListDevices)
			devices.DELETE("/:id", RequirePermission(perm, model.ModuleDevice, ActionDelete), registryController.DeleteDevice)
		}

		// 合同台账,审批动作同预算表
		contracts := authed.Group("/contracts")
		{
			contracts.POST("", RequirePermission(perm, model.ModuleContract, ActionWrite), registryController.CreateContract)
			contracts.GET("", RequirePermission(perm, model.ModuleContract, ActionRead), registryController.ListContracts)
			contracts.GET("/:id", RequirePermission(perm, model.ModuleContract, ActionRead), registryController.GetContract)
			contracts.POST("/:id/submit", RequirePermission(perm, model.ModuleContract, ActionWrite), registryController.SubmitContract)
			contracts.POST("/:id/approve", RequirePermission(perm, model.ModuleContract, ActionRead), registryController.ApproveContract)
			contracts.POST("/:id/reject", RequirePermission(perm, model.ModuleContract, ActionRead), registryController.RejectContract)
		}

		// 预测与比价,限流保护模型配额
		forecast := authed.Group("/forecast")
		forecast.Use(RateLimitMiddleware(rateCfg.ForecastRPS, rateCfg.ForecastBurst))
		{
			forecast.POST("/budget", RequirePermission(perm, model.ModuleForecast, ActionRead), forecastController.ForecastBudget)
			forecast.POST("/quotes", RequirePermission(perm, model.ModuleForecast, ActionRead), forecastController.CompareQuotes)
		}

		// 审计日志
		authed.GET("/audit-logs", RequirePermission(perm, model.ModuleUser, ActionRead), auditController.ListByResource)
	}

	// 未匹配路由返回统一 JSON
	router.NoRoute(func(c *gin.Context) {
		Error(c, 404, "route not found", c.Request.URL.Path)
	})

	return router
}
