package utils

import (
	"errors"
	"html"
	"regexp"
	"strings"
	"unicode"
)

// 校验错误
var (
	ErrEmptyName       = errors.New("name is empty")
	ErrNameTooLong     = errors.New("name exceeds 255 characters")
	ErrDangerousChars  = errors.New("name contains dangerous characters")
	ErrEmptyID         = errors.New("ID is empty")
	ErrInvalidIDFormat = errors.New("ID may only contain letters, digits, hyphens and underscores")
	ErrInvalidUsername = errors.New("username may only contain letters, digits, dots, hyphens and underscores")
)

var (
	idPattern       = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{3,128}$`)
)

// SanitizeString 清理字符串,移除或转义危险字符
func SanitizeString(input string) string {
	// HTML 转义,防止 XSS
	sanitized := html.EscapeString(input)

	// 移除控制字符(保留换行符和制表符)
	var result strings.Builder
	for _, r := range sanitized {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		result.WriteRune(r)
	}
	return result.String()
}

// ValidateEntityName 验证实体名称(集团/组织/部门/供应商等)
func ValidateEntityName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ErrEmptyName
	}
	if len(trimmed) > 255 {
		return ErrNameTooLong
	}
	if containsDangerousChars(trimmed) {
		return ErrDangerousChars
	}
	return nil
}

// ValidateID 验证实体 ID 格式
func ValidateID(id string) error {
	if id == "" {
		return ErrEmptyID
	}
	if !idPattern.MatchString(id) {
		return ErrInvalidIDFormat
	}
	return nil
}

// ValidateUsername 验证用户名格式
func ValidateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

// containsDangerousChars 检查 XSS / SQL 注入常见的危险字符
func containsDangerousChars(s string) bool {
	dangerous := []string{"<", ">", ";", "--", "/*", "*/", "\x00"}
	lower := strings.ToLower(s)
	for _, d := range dangerous {
		if strings.Contains(lower, d) {
			return true
		}
	}
	return false
}
