package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mautops/budget-gin/internal/auth"
	"github.com/mautops/budget-gin/internal/config"
	"github.com/mautops/budget-gin/internal/database"
	"github.com/mautops/budget-gin/internal/model"
	"github.com/mautops/budget-gin/internal/repository"
	"github.com/mautops/budget-gin/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// fullAccess 覆盖所有模块的 full 权限
func fullAccess() map[string]model.PermissionLevel {
	perms := make(map[string]model.PermissionLevel)
	for _, moduleKey := range []string{
		model.ModuleBudget, model.ModuleContract, model.ModuleHierarchy, model.ModuleWorkflow,
		model.ModuleUser, model.ModuleVendor, model.ModuleDevice, model.ModuleForecast,
	} {
		perms[moduleKey] = model.PermissionFull
	}
	return perms
}

// setupTestServer 构建完整接线的测试服务
func setupTestServer(t *testing.T) (*gin.Engine, service.UserService, *auth.TokenManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	auditLogSvc := service.NewAuditLogService(repository.NewAuditLogRepository(db))
	hierarchySvc := service.NewHierarchyService(repository.NewHierarchyRepository(db), auditLogSvc)
	sheetSvc := service.NewSheetService(repository.NewSheetRepository(db), hierarchySvc, auditLogSvc)
	workflowSvc := service.NewWorkflowService(
		db,
		repository.NewWorkflowRepository(db),
		repository.NewSheetRepository(db),
		repository.NewApprovalItemRepository(db),
		repository.NewStateHistoryRepository(db),
		hierarchySvc,
		auditLogSvc,
		nil,
		nil,
		nil,
	)
	userSvc := service.NewUserService(repository.NewUserRepository(db), auditLogSvc)
	registrySvc := service.NewRegistryService(
		db,
		repository.NewRegistryRepository(db),
		repository.NewWorkflowRepository(db),
		repository.NewStateHistoryRepository(db),
		hierarchySvc,
		auditLogSvc,
		nil,
	)

	tokens, err := auth.NewTokenManager("routes-test-secret", time.Hour)
	require.NoError(t, err)

	router := SetupRoutes(&RouterConfig{
		Config:        config.Default(),
		DB:            db,
		Tokens:        tokens,
		HierarchySvc:  hierarchySvc,
		SheetSvc:      sheetSvc,
		WorkflowSvc:   workflowSvc,
		PermissionSvc: service.NewPermissionService(),
		UserSvc:       userSvc,
		RegistrySvc:   registrySvc,
		ForecastSvc:   service.NewForecastService(nil, nil),
		AuditLogSvc:   auditLogSvc,
	})
	return router, userSvc, tokens
}

// createRouteUser 创建用户并签发令牌
func createRouteUser(t *testing.T, userSvc service.UserService, tokens *auth.TokenManager, username, roleKey string, perms map[string]model.PermissionLevel) string {
	t.Helper()
	user, err := userSvc.Create(context.Background(), &service.CreateUserRequest{
		Username:    username,
		Email:       username + "@example.com",
		Password:    "s3cret-password",
		RoleKey:     roleKey,
		Permissions: perms,
	})
	require.NoError(t, err)

	token, err := tokens.Issue(user)
	require.NoError(t, err)
	return token
}

// doJSON 发送带令牌的 JSON 请求
func doJSON(router *gin.Engine, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	var body *bytes.Reader
	if payload != nil {
		data, _ := json.Marshal(payload)
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// dataField 从统一响应中取出 data 字段
func dataField(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok, "response data is not an object: %s", w.Body.String())
	return data
}

// TestHealthAndNoRoute 测试健康检查与统一 404
func TestHealthAndNoRoute(t *testing.T) {
	router, _, _ := setupTestServer(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/no/such/route", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "route not found")
}

// TestLoginFlow 测试登录签发令牌
func TestLoginFlow(t *testing.T) {
	router, userSvc, tokens := setupTestServer(t)
	createRouteUser(t, userSvc, tokens, "jdoe", "dept_head", fullAccess())

	w := doJSON(router, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "jdoe",
		"password": "s3cret-password",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := dataField(t, w)
	assert.NotEmpty(t, data["token"])
	assert.Equal(t, "jdoe", data["username"])
	assert.Equal(t, "dept_head", data["role_key"])

	// 错误口令
	w = doJSON(router, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "jdoe",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// TestBudgetApprovalEndToEnd 测试预算表从创建到批准的完整 API 流程
func TestBudgetApprovalEndToEnd(t *testing.T) {
	router, userSvc, tokens := setupTestServer(t)

	requester := createRouteUser(t, userSvc, tokens, "requester", "requester", fullAccess())
	deptHead := createRouteUser(t, userSvc, tokens, "depthead", "dept_head", fullAccess())
	finance := createRouteUser(t, userSvc, tokens, "finance", "finance_manager", fullAccess())

	// 配置两级审批矩阵
	w := doJSON(router, http.MethodPut, "/api/v1/workflows", requester, map[string]interface{}{
		"type": "budget",
		"levels": []map[string]interface{}{
			{"level": 1, "role_key": "dept_head", "role_label": "Department Head"},
			{"level": 2, "role_key": "finance_manager", "role_label": "Finance Manager"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// 搭建层级
	w = doJSON(router, http.MethodPost, "/api/v1/hierarchy/groups", requester, map[string]string{"name": "Acme Holding"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	groupID := dataField(t, w)["id"].(string)

	w = doJSON(router, http.MethodPost, "/api/v1/hierarchy/organizations", requester, map[string]string{
		"name": "Acme Manufacturing", "group_id": groupID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	orgID := dataField(t, w)["id"].(string)

	w = doJSON(router, http.MethodPost, "/api/v1/hierarchy/departments", requester, map[string]string{
		"name": "Information Technology", "organization_id": orgID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	deptID := dataField(t, w)["id"].(string)

	// 创建 CAPEX 预算表并添加行项
	w = doJSON(router, http.MethodPost, "/api/v1/sheets", requester, map[string]interface{}{
		"type": "CAPEX", "organization_id": orgID, "department_id": deptID, "year": 2026,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sheetID := dataField(t, w)["id"].(string)

	w = doJSON(router, http.MethodPost, fmt.Sprintf("/api/v1/sheets/%s/items", sheetID), requester, map[string]interface{}{
		"description": "Rack servers", "quantity": 3, "amount": 1000, "supplier": "Dell",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 3000.0, dataField(t, w)["total_value"])

	// 提交
	w = doJSON(router, http.MethodPost, fmt.Sprintf("/api/v1/sheets/%s/submit", sheetID), requester, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// 提交后行项不可变
	w = doJSON(router, http.MethodPost, fmt.Sprintf("/api/v1/sheets/%s/items", sheetID), requester, map[string]interface{}{
		"description": "More servers", "quantity": 1, "amount": 100,
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// 收件箱对 dept_head 可见
	w = doJSON(router, http.MethodGet, "/api/v1/approvals/pending", deptHead, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), sheetID)

	// 错误角色审批被拒
	w = doJSON(router, http.MethodPost, fmt.Sprintf("/api/v1/sheets/%s/approve", sheetID), finance, map[string]string{"comment": "looks fine"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// 逐级批准
	w = doJSON(router, http.MethodPost, fmt.Sprintf("/api/v1/sheets/%s/approve", sheetID), deptHead, map[string]string{"comment": "ok"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(router, http.MethodPost, fmt.Sprintf("/api/v1/sheets/%s/approve", sheetID), finance, map[string]string{"comment": "approved"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// 终态确认与历史
	w = doJSON(router, http.MethodGet, "/api/v1/sheets/"+sheetID, requester, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "approved", dataField(t, w)["status"])

	w = doJSON(router, http.MethodGet, fmt.Sprintf("/api/v1/sheets/%s/history", sheetID), requester, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var history Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	entries, ok := history.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, entries, 3)
}

// TestForecastNotConfigured 测试未配置大模型时预测返回 422
func TestForecastNotConfigured(t *testing.T) {
	router, userSvc, tokens := setupTestServer(t)
	token := createRouteUser(t, userSvc, tokens, "analyst", "analyst", fullAccess())

	w := doJSON(router, http.MethodPost, "/api/v1/forecast/budget", token, map[string]string{
		"historical_spending_data": "year,amount\n2025,100",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
