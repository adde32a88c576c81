package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/mautops/budget-gin/internal/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// TestStatusForKind 测试错误类别到状态码的映射
func TestStatusForKind(t *testing.T) {
	tests := []struct {
		kind     apperrors.Kind
		expected int
	}{
		{apperrors.KindNotFound, http.StatusNotFound},
		{apperrors.KindConflict, http.StatusConflict},
		{apperrors.KindInvalidState, http.StatusConflict},
		{apperrors.KindAuthorization, http.StatusForbidden},
		{apperrors.KindValidation, http.StatusBadRequest},
		{apperrors.KindConfiguration, http.StatusUnprocessableEntity},
		{"unknown", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, statusForKind(tt.kind), "kind %s", tt.kind)
	}
}

// TestHandleServiceError 测试业务错误写为统一响应
func TestHandleServiceError(t *testing.T) {
	c, w := testContext()
	HandleServiceError(c, apperrors.NotFound("sheet", "sheet-001"), "get sheet")

	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "failed to get sheet", resp.Message)
	assert.Contains(t, resp.Detail, "sheet-001")
}

// TestHandleServiceErrorWrapped 测试包装链中的业务错误仍可识别
func TestHandleServiceErrorWrapped(t *testing.T) {
	c, w := testContext()
	err := apperrors.Wrap(apperrors.KindInvalidState, errors.New("sheet is pending"), "cannot edit items")
	HandleServiceError(c, err, "update item")

	assert.Equal(t, http.StatusConflict, w.Code)
}

// TestHandleServiceErrorGormNotFound 测试 gorm 未找到映射为 404
func TestHandleServiceErrorGormNotFound(t *testing.T) {
	c, w := testContext()
	HandleServiceError(c, gorm.ErrRecordNotFound, "get vendor")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestHandleServiceErrorUnknown 测试未知错误映射为 500
func TestHandleServiceErrorUnknown(t *testing.T) {
	c, w := testContext()
	HandleServiceError(c, errors.New("disk on fire"), "list sheets")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
