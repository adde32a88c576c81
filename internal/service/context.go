package service

import "context"

// contextKey 私有键类型,避免与其他包的字符串键冲突
type contextKey int

const userIDKey contextKey = iota

// WithUserID 将认证用户 ID 写入 context,由认证中间件调用
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// getUserIDFromContext 从 context 中获取用户 ID(由认证中间件设置)
func getUserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if userID, ok := ctx.Value(userIDKey).(string); ok {
		return userID
	}
	return ""
}
