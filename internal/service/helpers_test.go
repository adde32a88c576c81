package service

import (
	"context"
	"testing"

	"github.com/mautops/budget-gin/internal/database"
	"github.com/mautops/budget-gin/internal/model"
	"github.com/mautops/budget-gin/internal/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// testEnv 服务层测试环境,内存数据库 + 全套服务
type testEnv struct {
	db           *gorm.DB
	hierarchySvc HierarchyService
	sheetSvc     SheetService
	workflowSvc  WorkflowService
	userSvc      UserService
	registrySvc  RegistryService
	auditLogSvc  AuditLogService
}

// newTestEnv 创建测试环境
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	auditLogSvc := NewAuditLogService(repository.NewAuditLogRepository(db))
	hierarchySvc := NewHierarchyService(repository.NewHierarchyRepository(db), auditLogSvc)
	sheetSvc := NewSheetService(repository.NewSheetRepository(db), hierarchySvc, auditLogSvc)
	workflowSvc := NewWorkflowService(
		db,
		repository.NewWorkflowRepository(db),
		repository.NewSheetRepository(db),
		repository.NewApprovalItemRepository(db),
		repository.NewStateHistoryRepository(db),
		hierarchySvc,
		auditLogSvc,
		nil, // NopNotifier
		nil, // 无广播
		nil,
	)
	userSvc := NewUserService(repository.NewUserRepository(db), auditLogSvc)
	registrySvc := NewRegistryService(
		db,
		repository.NewRegistryRepository(db),
		repository.NewWorkflowRepository(db),
		repository.NewStateHistoryRepository(db),
		hierarchySvc,
		auditLogSvc,
		nil,
	)

	return &testEnv{
		db:           db,
		hierarchySvc: hierarchySvc,
		sheetSvc:     sheetSvc,
		workflowSvc:  workflowSvc,
		userSvc:      userSvc,
		registrySvc:  registrySvc,
		auditLogSvc:  auditLogSvc,
	}
}

// seedHierarchy 创建 集团 → 组织 → 部门 链路
func (e *testEnv) seedHierarchy(t *testing.T) (*model.Group, *model.Organization, *model.Department) {
	t.Helper()
	ctx := context.Background()

	group, err := e.hierarchySvc.CreateGroup(ctx, &CreateGroupRequest{Name: "Acme Holding"})
	require.NoError(t, err)
	org, err := e.hierarchySvc.CreateOrganization(ctx, &CreateOrganizationRequest{Name: "Acme Manufacturing", GroupID: group.ID})
	require.NoError(t, err)
	dept, err := e.hierarchySvc.CreateDepartment(ctx, &CreateDepartmentRequest{Name: "Information Technology", OrganizationID: org.ID})
	require.NoError(t, err)

	return group, org, dept
}

// seedWorkflow 配置指定类型的审批矩阵
func (e *testEnv) seedWorkflow(t *testing.T, wtype model.WorkflowType, levels ...WorkflowLevelInput) {
	t.Helper()
	_, err := e.workflowSvc.SaveWorkflow(context.Background(), &SaveWorkflowRequest{
		Type:   wtype,
		Levels: levels,
	})
	require.NoError(t, err)
}

// twoLevelBudgetWorkflow 默认的两级预算审批矩阵
func (e *testEnv) twoLevelBudgetWorkflow(t *testing.T) {
	t.Helper()
	e.seedWorkflow(t, model.WorkflowTypeBudget,
		WorkflowLevelInput{Level: 1, RoleKey: "dept_head", RoleLabel: "Department Head"},
		WorkflowLevelInput{Level: 2, RoleKey: "finance_manager", RoleLabel: "Finance Manager"},
	)
}

// draftCAPEXSheet 创建带一条行项的 CAPEX 草稿
func (e *testEnv) draftCAPEXSheet(t *testing.T, orgID, deptID string) *SheetView {
	t.Helper()
	ctx := context.Background()

	sheet, err := e.sheetSvc.Create(ctx, &CreateSheetRequest{
		Type:           model.SheetTypeCAPEX,
		OrganizationID: orgID,
		DepartmentID:   deptID,
		Year:           2026,
	})
	require.NoError(t, err)

	sheet, err = e.sheetSvc.AddItem(ctx, sheet.ID, &SheetItemRequest{
		Description: "Rack servers",
		Quantity:    3,
		Amount:      1000,
		Priority:    "High",
		Supplier:    "Dell",
	})
	require.NoError(t, err)
	return sheet
}

// userWithRole 构造携带审批角色的操作者
func userWithRole(id, roleKey string) *model.User {
	return &model.User{ID: id, Username: id, RoleKey: roleKey}
}
