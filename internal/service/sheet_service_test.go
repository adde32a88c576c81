package service

import (
	"context"
	"testing"

	"github.com/mautops/budget-gin/internal/apperrors"
	"github.com/mautops/budget-gin/internal/model"
	"github.com/mautops/budget-gin/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCreateSheetValidation 测试创建预算表的输入校验
func TestCreateSheetValidation(t *testing.T) {
	env := newTestEnv(t)
	_, org, dept := env.seedHierarchy(t)
	ctx := context.Background()

	// 非法类型
	_, err := env.sheetSvc.Create(ctx, &CreateSheetRequest{
		Type: "MIXED", OrganizationID: org.ID, DepartmentID: dept.ID, Year: 2026,
	})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	// 年度越界
	_, err = env.sheetSvc.Create(ctx, &CreateSheetRequest{
		Type: model.SheetTypeCAPEX, OrganizationID: org.ID, DepartmentID: dept.ID, Year: 1999,
	})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	// 部门不存在
	_, err = env.sheetSvc.Create(ctx, &CreateSheetRequest{
		Type: model.SheetTypeCAPEX, OrganizationID: org.ID, DepartmentID: "missing", Year: 2026,
	})
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	// 部门不属于给定组织
	otherOrg, err := env.hierarchySvc.CreateOrganization(ctx, &CreateOrganizationRequest{Name: "Acme Retail", GroupID: org.GroupID})
	require.NoError(t, err)
	_, err = env.sheetSvc.Create(ctx, &CreateSheetRequest{
		Type: model.SheetTypeCAPEX, OrganizationID: otherOrg.ID, DepartmentID: dept.ID, Year: 2026,
	})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	// 正常创建,空行项草稿
	sheet, err := env.sheetSvc.Create(ctx, &CreateSheetRequest{
		Type: model.SheetTypeCAPEX, OrganizationID: org.ID, DepartmentID: dept.ID, Year: 2026,
	})
	require.NoError(t, err)
	assert.Equal(t, model.SheetStatusDraft, sheet.Status)
	assert.Empty(t, sheet.Items)
	assert.Equal(t, 0.0, sheet.TotalValue)
}

// TestCAPEXItemTotals 测试 CAPEX 行项合计与参考编号
func TestCAPEXItemTotals(t *testing.T) {
	env := newTestEnv(t)
	_, org, dept := env.seedHierarchy(t)
	sheet := env.draftCAPEXSheet(t, org.ID, dept.ID)

	require.Len(t, sheet.Items, 1)
	assert.Equal(t, 3000.0, sheet.Items[0].LineTotal)
	assert.Equal(t, 3000.0, sheet.TotalValue)

	// 参考编号由组织/部门名称派生
	assert.Equal(t, "ACM/INFO/2026/001", sheet.Items[0].ReferenceCode)
}

// TestOPEXItemValidation 测试 OPEX 周期校验与年化合计
func TestOPEXItemValidation(t *testing.T) {
	env := newTestEnv(t)
	_, org, dept := env.seedHierarchy(t)
	ctx := context.Background()

	sheet, err := env.sheetSvc.Create(ctx, &CreateSheetRequest{
		Type: model.SheetTypeOPEX, OrganizationID: org.ID, DepartmentID: dept.ID, Year: 2026,
	})
	require.NoError(t, err)

	// 非法周期
	_, err = env.sheetSvc.AddItem(ctx, sheet.ID, &SheetItemRequest{
		Description: "Cloud hosting", Amount: 500, Period: "Weekly",
	})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	// 季度周期年化 4 倍
	sheet, err = env.sheetSvc.AddItem(ctx, sheet.ID, &SheetItemRequest{
		Description: "Cloud hosting", Amount: 500, Period: model.PeriodQuarterly,
	})
	require.NoError(t, err)
	require.Len(t, sheet.Items, 1)
	assert.Equal(t, 2000.0, sheet.Items[0].LineTotal)
	assert.Equal(t, 2000.0, sheet.TotalValue)
}

// TestItemRequestValidation 测试行项字段校验
func TestItemRequestValidation(t *testing.T) {
	env := newTestEnv(t)
	_, org, dept := env.seedHierarchy(t)
	ctx := context.Background()

	sheet, err := env.sheetSvc.Create(ctx, &CreateSheetRequest{
		Type: model.SheetTypeCAPEX, OrganizationID: org.ID, DepartmentID: dept.ID, Year: 2026,
	})
	require.NoError(t, err)

	// 空描述
	_, err = env.sheetSvc.AddItem(ctx, sheet.ID, &SheetItemRequest{Description: "   ", Quantity: 1, Amount: 100})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	// 负金额
	_, err = env.sheetSvc.AddItem(ctx, sheet.ID, &SheetItemRequest{Description: "Switches", Quantity: 1, Amount: -1})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	// CAPEX 数量必须为正
	_, err = env.sheetSvc.AddItem(ctx, sheet.ID, &SheetItemRequest{Description: "Switches", Quantity: 0, Amount: 100})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

// TestDraftOnlyMutation 测试提交后行项不可变
func TestDraftOnlyMutation(t *testing.T) {
	env := newTestEnv(t)
	_, org, dept := env.seedHierarchy(t)
	env.twoLevelBudgetWorkflow(t)
	sheet := env.draftCAPEXSheet(t, org.ID, dept.ID)
	ctx := context.Background()

	itemID := sheet.Items[0].ID
	require.NoError(t, env.workflowSvc.Submit(ctx, sheet.ID, nil))

	_, err := env.sheetSvc.AddItem(ctx, sheet.ID, &SheetItemRequest{Description: "More servers", Quantity: 1, Amount: 100})
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))

	_, err = env.sheetSvc.UpdateItem(ctx, sheet.ID, itemID, &SheetItemRequest{Description: "More servers", Quantity: 1, Amount: 100})
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))

	_, err = env.sheetSvc.RemoveItem(ctx, sheet.ID, itemID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))

	err = env.sheetSvc.Delete(ctx, sheet.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))
}

// TestUpdateAndRemoveItem 测试草稿行项的更新与删除
func TestUpdateAndRemoveItem(t *testing.T) {
	env := newTestEnv(t)
	_, org, dept := env.seedHierarchy(t)
	sheet := env.draftCAPEXSheet(t, org.ID, dept.ID)
	ctx := context.Background()

	itemID := sheet.Items[0].ID
	sheet, err := env.sheetSvc.UpdateItem(ctx, sheet.ID, itemID, &SheetItemRequest{
		Description: "Rack servers", Quantity: 5, Amount: 1200,
	})
	require.NoError(t, err)
	assert.Equal(t, 6000.0, sheet.TotalValue)

	// 不存在的行项
	_, err = env.sheetSvc.UpdateItem(ctx, sheet.ID, "missing", &SheetItemRequest{
		Description: "Rack servers", Quantity: 1, Amount: 1,
	})
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	sheet, err = env.sheetSvc.RemoveItem(ctx, sheet.ID, itemID)
	require.NoError(t, err)
	assert.Empty(t, sheet.Items)
	assert.Equal(t, 0.0, sheet.TotalValue)
}

// TestListSheetsWithFilter 测试预算表过滤查询
func TestListSheetsWithFilter(t *testing.T) {
	env := newTestEnv(t)
	_, org, dept := env.seedHierarchy(t)
	ctx := context.Background()

	_, err := env.sheetSvc.Create(ctx, &CreateSheetRequest{
		Type: model.SheetTypeCAPEX, OrganizationID: org.ID, DepartmentID: dept.ID, Year: 2026,
	})
	require.NoError(t, err)
	_, err = env.sheetSvc.Create(ctx, &CreateSheetRequest{
		Type: model.SheetTypeOPEX, OrganizationID: org.ID, DepartmentID: dept.ID, Year: 2027,
	})
	require.NoError(t, err)

	capex := model.SheetTypeCAPEX
	sheets, err := env.sheetSvc.List(&repository.SheetFilter{Type: &capex})
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	assert.Equal(t, model.SheetTypeCAPEX, sheets[0].Type)

	year := 2027
	sheets, err = env.sheetSvc.List(&repository.SheetFilter{Year: &year})
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	assert.Equal(t, 2027, sheets[0].Year)

	sheets, err = env.sheetSvc.List(nil)
	require.NoError(t, err)
	assert.Len(t, sheets, 2)
}

// TestReferenceCode 测试参考编号派生规则
func TestReferenceCode(t *testing.T) {
	assert.Equal(t, "ACM/INFO/2026/001", ReferenceCode("Acme Manufacturing", "Information Technology", 2026, 1))
	assert.Equal(t, "IT/OPS/2027/012", ReferenceCode("it", "ops", 2027, 12))
	// 短名称不足截断长度时整体使用
	assert.Equal(t, "A/B/2026/100", ReferenceCode("a", "b", 2026, 100))
}

// TestSheetAuditTrail 测试预算表操作写入审计日志,操作人取自 context
func TestSheetAuditTrail(t *testing.T) {
	env := newTestEnv(t)
	_, org, dept := env.seedHierarchy(t)
	ctx := WithUserID(context.Background(), "user-001")

	sheet, err := env.sheetSvc.Create(ctx, &CreateSheetRequest{
		Type: model.SheetTypeCAPEX, OrganizationID: org.ID, DepartmentID: dept.ID, Year: 2026,
	})
	require.NoError(t, err)

	_, err = env.sheetSvc.AddItem(ctx, sheet.ID, &SheetItemRequest{
		Description: "Rack servers", Quantity: 3, Amount: 1000,
	})
	require.NoError(t, err)

	logs, err := env.auditLogSvc.ListByResource("sheet", sheet.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	actions := []string{logs[0].Action, logs[1].Action}
	assert.ElementsMatch(t, []string{"create", "update"}, actions)
	for _, entry := range logs {
		assert.Equal(t, "user-001", entry.UserID)
		assert.Equal(t, sheet.ID, entry.ResourceID)
	}

	// context 未携带用户时回落为 system
	_, err = env.sheetSvc.AddItem(context.Background(), sheet.ID, &SheetItemRequest{
		Description: "Network switches", Quantity: 2, Amount: 500,
	})
	require.NoError(t, err)

	logs, err = env.auditLogSvc.ListByResource("sheet", sheet.ID)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	var actors []string
	for _, entry := range logs {
		actors = append(actors, entry.UserID)
	}
	assert.Contains(t, actors, "system")
}
