package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mautops/budget-gin/internal/auth"
	"github.com/mautops/budget-gin/internal/service"
	"github.com/mautops/budget-gin/internal/utils"
)

// UserController 用户与登录控制器
type UserController struct {
	userSvc service.UserService
	tokens  *auth.TokenManager
}

// NewUserController 创建用户控制器
func NewUserController(userSvc service.UserService, tokens *auth.TokenManager) *UserController {
	return &UserController{
		userSvc: userSvc,
		tokens:  tokens,
	}
}

// LoginRequest 登录请求
// @Description 用户名密码登录
type LoginRequest struct {
	Username string `json:"username" example:"jdoe" binding:"required"` // 用户名
	Password string `json:"password" binding:"required"`                // 密码
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token    string `json:"token"`     // Bearer 访问令牌
	UserID   string `json:"user_id"`   // 用户 ID
	Username string `json:"username"`  // 用户名
	RoleKey  string `json:"role_key"`  // 审批角色标识
}

// Login 登录
// @Summary      用户登录
// @Description  校验用户名密码,签发访问令牌
// @Tags         用户管理
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "登录信息"
// @Success      200  {object}  Response
// @Failure      401  {object}  ErrorResponse
// @Router       /auth/login [post]
func (c *UserController) Login(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	user, err := c.userSvc.Authenticate(req.Username, req.Password)
	if err != nil {
		Error(ctx, http.StatusUnauthorized, "authentication failed", "invalid username or password")
		return
	}

	token, err := c.tokens.Issue(user)
	if err != nil {
		Error(ctx, http.StatusInternalServerError, "failed to issue token", err.Error())
		return
	}

	Success(ctx, LoginResponse{
		Token:    token,
		UserID:   user.ID,
		Username: user.Username,
		RoleKey:  user.RoleKey,
	})
}

// Create 创建用户
// @Summary      创建用户
// @Description  创建用户并配置模块权限与审批角色
// @Tags         用户管理
// @Accept       json
// @Produce      json
// @Param        request body service.CreateUserRequest true "用户信息"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /users [post]
// @Security     BearerAuth
func (c *UserController) Create(ctx *gin.Context) {
	var req service.CreateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	user, err := c.userSvc.Create(ctx.Request.Context(), &req)
	if err != nil {
		HandleServiceError(ctx, err, "create user")
		return
	}

	Success(ctx, user)
}

// Get 获取用户
// @Summary      获取用户详情
// @Tags         用户管理
// @Produce      json
// @Param        id path string true "用户 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /users/{id} [get]
// @Security     BearerAuth
func (c *UserController) Get(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid user ID", err.Error())
		return
	}

	user, err := c.userSvc.Get(id)
	if err != nil {
		HandleServiceError(ctx, err, "get user")
		return
	}

	Success(ctx, user)
}

// List 列出用户
// @Summary      列出全部用户
// @Tags         用户管理
// @Produce      json
// @Success      200  {object}  Response
// @Router       /users [get]
// @Security     BearerAuth
func (c *UserController) List(ctx *gin.Context) {
	users, err := c.userSvc.List()
	if err != nil {
		HandleServiceError(ctx, err, "list users")
		return
	}

	Success(ctx, users)
}

// Delete 删除用户
// @Summary      删除用户
// @Tags         用户管理
// @Produce      json
// @Param        id path string true "用户 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /users/{id} [delete]
// @Security     BearerAuth
func (c *UserController) Delete(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid user ID", err.Error())
		return
	}

	if err := c.userSvc.Delete(ctx.Request.Context(), id); err != nil {
		HandleServiceError(ctx, err, "delete user")
		return
	}

	Success(ctx, nil)
}

// Me 当前用户
// @Summary      获取当前登录用户
// @Tags         用户管理
// @Produce      json
// @Success      200  {object}  Response
// @Router       /users/me [get]
// @Security     BearerAuth
func (c *UserController) Me(ctx *gin.Context) {
	user := CurrentUser(ctx)
	if user == nil {
		Error(ctx, http.StatusUnauthorized, "authentication required", "")
		return
	}

	Success(ctx, user)
}
