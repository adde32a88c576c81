package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mautops/budget-gin/internal/auth"
	"github.com/mautops/budget-gin/internal/model"
	"github.com/mautops/budget-gin/internal/service"
)

// AuthMiddleware 认证中间件
// 验证 Bearer 令牌并把用户注入请求上下文
func AuthMiddleware(tokens *auth.TokenManager, userSvc service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			Error(c, http.StatusUnauthorized, "missing authorization header", "")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == header {
			Error(c, http.StatusUnauthorized, "invalid authorization header", "expected Bearer token")
			c.Abort()
			return
		}

		claims, err := tokens.Validate(tokenString)
		if err != nil {
			Error(c, http.StatusUnauthorized, "invalid token", err.Error())
			c.Abort()
			return
		}

		user, err := userSvc.Get(claims.Subject)
		if err != nil {
			Error(c, http.StatusUnauthorized, "unknown user", claims.Subject)
			c.Abort()
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user", user)

		// 注入 request context,供服务层审计日志读取
		c.Request = c.Request.WithContext(service.WithUserID(c.Request.Context(), user.ID))

		c.Next()
	}
}

// CurrentUser 从 gin 上下文取出认证用户
func CurrentUser(c *gin.Context) *model.User {
	v, ok := c.Get("user")
	if !ok {
		return nil
	}
	user, ok := v.(*model.User)
	if !ok {
		return nil
	}
	return user
}

// PermissionAction 权限动作
type PermissionAction string

const (
	ActionRead   PermissionAction = "read"
	ActionWrite  PermissionAction = "write"
	ActionDelete PermissionAction = "delete"
)

// RequirePermission 模块权限守卫
// 审批动作本身由审批矩阵的角色判定,此处只管模块级读写
func RequirePermission(permSvc service.PermissionService, moduleKey string, action PermissionAction) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			Error(c, http.StatusUnauthorized, "authentication required", "")
			c.Abort()
			return
		}

		allowed := false
		switch action {
		case ActionRead:
			allowed = permSvc.CanRead(user, moduleKey)
		case ActionWrite:
			allowed = permSvc.CanWrite(user, moduleKey)
		case ActionDelete:
			allowed = permSvc.CanDelete(user, moduleKey)
		}

		if !allowed {
			Error(c, http.StatusForbidden, "permission denied",
				"module "+moduleKey+" requires "+string(action)+" access")
			c.Abort()
			return
		}

		c.Next()
	}
}
