package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestValidateEntityName 测试实体名称校验
func TestValidateEntityName(t *testing.T) {
	assert.NoError(t, ValidateEntityName("Acme Manufacturing"))
	assert.NoError(t, ValidateEntityName("  Information Technology  "))

	assert.ErrorIs(t, ValidateEntityName(""), ErrEmptyName)
	assert.ErrorIs(t, ValidateEntityName("   "), ErrEmptyName)
	assert.ErrorIs(t, ValidateEntityName(strings.Repeat("a", 256)), ErrNameTooLong)

	// XSS / SQL 注入常见字符
	assert.ErrorIs(t, ValidateEntityName("<script>alert(1)</script>"), ErrDangerousChars)
	assert.ErrorIs(t, ValidateEntityName("name; DROP TABLE users"), ErrDangerousChars)
	assert.ErrorIs(t, ValidateEntityName("name -- comment"), ErrDangerousChars)
	assert.ErrorIs(t, ValidateEntityName("name /* block */"), ErrDangerousChars)
}

// TestValidateID 测试实体 ID 格式校验
func TestValidateID(t *testing.T) {
	assert.NoError(t, ValidateID("grp-001"))
	assert.NoError(t, ValidateID("a1b2c3d4-e5f6-7890-abcd-ef1234567890"))
	assert.NoError(t, ValidateID("under_score"))

	assert.ErrorIs(t, ValidateID(""), ErrEmptyID)
	assert.ErrorIs(t, ValidateID("has space"), ErrInvalidIDFormat)
	assert.ErrorIs(t, ValidateID("semi;colon"), ErrInvalidIDFormat)
	assert.ErrorIs(t, ValidateID("slash/id"), ErrInvalidIDFormat)
}

// TestValidateUsername 测试用户名格式校验
func TestValidateUsername(t *testing.T) {
	assert.NoError(t, ValidateUsername("jdoe"))
	assert.NoError(t, ValidateUsername("j.doe-2"))
	assert.NoError(t, ValidateUsername("user_name"))

	// 长度不足 3
	assert.ErrorIs(t, ValidateUsername("ab"), ErrInvalidUsername)
	assert.ErrorIs(t, ValidateUsername(""), ErrInvalidUsername)
	assert.ErrorIs(t, ValidateUsername("has space"), ErrInvalidUsername)
	assert.ErrorIs(t, ValidateUsername("j@doe"), ErrInvalidUsername)
	assert.ErrorIs(t, ValidateUsername(strings.Repeat("a", 129)), ErrInvalidUsername)
}

// TestSanitizeString 测试字符串清理
func TestSanitizeString(t *testing.T) {
	// HTML 转义
	assert.Equal(t, "&lt;b&gt;bold&lt;/b&gt;", SanitizeString("<b>bold</b>"))

	// 控制字符剔除,保留换行与制表
	assert.Equal(t, "line1\nline2\tend", SanitizeString("line1\n\x00line2\t\x07end"))

	// 普通文本原样
	assert.Equal(t, "plain text", SanitizeString("plain text"))
}
