package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

// TestSuccessEnvelope 测试成功响应格式
func TestSuccessEnvelope(t *testing.T) {
	c, w := testContext()
	Success(c, map[string]string{"id": "sheet-001"})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Code)
	assert.Equal(t, "success", resp.Message)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "sheet-001", data["id"])
}

// TestErrorEnvelope 测试错误响应格式
func TestErrorEnvelope(t *testing.T) {
	c, w := testContext()
	Error(c, http.StatusConflict, "failed to approve sheet", "version mismatch")

	assert.Equal(t, http.StatusConflict, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, "failed to approve sheet", resp.Message)
	assert.Equal(t, "version mismatch", resp.Detail)
}

// TestErrorInvalidStatusCode 测试非法状态码回退到 500
func TestErrorInvalidStatusCode(t *testing.T) {
	c, w := testContext()
	Error(c, 42, "weird", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	// 业务码保留原值
	assert.Equal(t, 42, resp.Code)
}

// TestPaginatedEnvelope 测试分页响应格式
func TestPaginatedEnvelope(t *testing.T) {
	c, w := testContext()
	Paginated(c, []string{"a", "b"}, PaginationInfo{Page: 1, PageSize: 20, Total: 2, TotalPage: 1})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp PaginatedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Code)
	assert.Equal(t, int64(2), resp.Pagination.Total)
}
