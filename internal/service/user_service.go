package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mautops/budget-gin/internal/apperrors"
	"github.com/mautops/budget-gin/internal/model"
	"github.com/mautops/budget-gin/internal/repository"
	"github.com/mautops/budget-gin/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserService 用户服务接口
type UserService interface {
	Create(ctx context.Context, req *CreateUserRequest) (*model.User, error)
	Get(id string) (*model.User, error)
	GetByUsername(username string) (*model.User, error)
	List() ([]*model.User, error)
	Delete(ctx context.Context, id string) error
	// Authenticate 校验用户名密码,成功返回用户
	Authenticate(username, password string) (*model.User, error)
}

// CreateUserRequest 创建用户请求
// @Description 创建用户的请求参数,权限按模块逐项配置
type CreateUserRequest struct {
	Username        string                           `json:"username" example:"jdoe" binding:"required"`          // 用户名
	Email           string                           `json:"email" example:"jdoe@example.com" binding:"required"` // 邮箱
	Password        string                           `json:"password" binding:"required"`                         // 初始密码
	RoleKey         string                           `json:"role_key" example:"dept_head" binding:"required"`     // 审批角色标识
	GroupID         string                           `json:"group_id,omitempty"`                                  // 层级归属:集团
	OrganizationID  string                           `json:"organization_id,omitempty"`                           // 层级归属:组织
	DepartmentID    string                           `json:"department_id,omitempty"`                             // 层级归属:部门
	SubDepartmentID string                           `json:"sub_department_id,omitempty"`                         // 层级归属:子部门
	Permissions     map[string]model.PermissionLevel `json:"permissions"`                                         // moduleKey -> level
}

type userService struct {
	repo        repository.UserRepository
	auditLogSvc AuditLogService
}

// NewUserService 创建用户服务
func NewUserService(repo repository.UserRepository, auditLogSvc AuditLogService) UserService {
	return &userService{repo: repo, auditLogSvc: auditLogSvc}
}

// Create 创建用户
func (s *userService) Create(ctx context.Context, req *CreateUserRequest) (*model.User, error) {
	if err := utils.ValidateUsername(req.Username); err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, err, "invalid username")
	}
	if !strings.Contains(req.Email, "@") {
		return nil, apperrors.Validation("invalid email address %q", req.Email)
	}
	if len(req.Password) < 8 {
		return nil, apperrors.Validation("password must be at least 8 characters")
	}
	if req.RoleKey == "" {
		return nil, apperrors.Validation("role key is required")
	}
	for moduleKey, level := range req.Permissions {
		if !model.ValidPermissionLevel(level) {
			return nil, apperrors.Validation("unknown permission level %q for module %q", level, moduleKey)
		}
	}
	if _, err := s.repo.FindByUsername(req.Username); err == nil {
		return nil, apperrors.Conflict("username %q is already taken", req.Username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:              uuid.New().String(),
		Username:        req.Username,
		Email:           req.Email,
		PasswordHash:    string(hash),
		RoleKey:         req.RoleKey,
		GroupID:         req.GroupID,
		OrganizationID:  req.OrganizationID,
		DepartmentID:    req.DepartmentID,
		SubDepartmentID: req.SubDepartmentID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := user.SetPermissionMap(req.Permissions); err != nil {
		return nil, fmt.Errorf("failed to encode permissions: %w", err)
	}
	if err := s.repo.Save(user); err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	s.audit(ctx, "create", "user", user.ID, fmt.Sprintf(`{"username":%q,"role_key":%q}`, user.Username, user.RoleKey))
	return user, nil
}

// Get 获取用户
func (s *userService) Get(id string) (*model.User, error) {
	user, err := s.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user", id)
		}
		return nil, err
	}
	return user, nil
}

// GetByUsername 根据用户名获取用户
func (s *userService) GetByUsername(username string) (*model.User, error) {
	user, err := s.repo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user", username)
		}
		return nil, err
	}
	return user, nil
}

// List 列出所有用户
func (s *userService) List() ([]*model.User, error) {
	return s.repo.FindAll()
}

// Delete 删除用户
func (s *userService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	if err := s.repo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.audit(ctx, "delete", "user", id, `{}`)
	return nil
}

// Authenticate 校验用户名密码
func (s *userService) Authenticate(username, password string) (*model.User, error) {
	user, err := s.repo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Authorization("invalid username or password")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.Authorization("invalid username or password")
	}
	return user, nil
}

// audit 记录审计日志,失败不影响业务操作
func (s *userService) audit(ctx context.Context, action, resourceType, resourceID, details string) {
	if s.auditLogSvc == nil {
		return
	}
	userID := getUserIDFromContext(ctx)
	if userID == "" {
		userID = "system"
	}
	_ = s.auditLogSvc.RecordAction(ctx, userID, action, resourceType, resourceID, details)
}
