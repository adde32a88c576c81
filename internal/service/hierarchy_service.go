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
	"gorm.io/gorm"
)

// HierarchyService 组织层级服务接口
// 维护 集团 → 组织 → 部门 → 子部门 的父子完整性
type HierarchyService interface {
	CreateGroup(ctx context.Context, req *CreateGroupRequest) (*model.Group, error)
	CreateOrganization(ctx context.Context, req *CreateOrganizationRequest) (*model.Organization, error)
	CreateDepartment(ctx context.Context, req *CreateDepartmentRequest) (*model.Department, error)
	CreateSubDepartment(ctx context.Context, req *CreateSubDepartmentRequest) (*model.SubDepartment, error)

	GetGroup(id string) (*model.Group, error)
	ListGroups() ([]*model.Group, error)
	ListOrganizations(groupID string) ([]*model.Organization, error)
	ListDepartments(orgID string) ([]*model.Department, error)
	ListSubDepartments(deptID string) ([]*model.SubDepartment, error)

	DeleteGroup(ctx context.Context, id string) error
	DeleteOrganization(ctx context.Context, id string) error
	DeleteDepartment(ctx context.Context, id string) error
	DeleteSubDepartment(ctx context.Context, id string) error

	// ResolveAncestors 解析节点到集团根的完整链路
	ResolveAncestors(kind NodeKind, id string) (*model.AncestorChain, error)
}

// NodeKind 层级节点类型
type NodeKind string

const (
	NodeGroup         NodeKind = "group"
	NodeOrganization  NodeKind = "organization"
	NodeDepartment    NodeKind = "department"
	NodeSubDepartment NodeKind = "sub_department"
)

// CreateGroupRequest 创建集团请求
// @Description 创建集团的请求参数
type CreateGroupRequest struct {
	Name string `json:"name" example:"Acme Holding" binding:"required"` // 集团名称
}

// CreateOrganizationRequest 创建组织请求
// @Description 创建组织的请求参数
type CreateOrganizationRequest struct {
	Name    string `json:"name" example:"Acme Manufacturing" binding:"required"` // 组织名称
	GroupID string `json:"group_id" example:"grp-001" binding:"required"`        // 所属集团 ID
}

// CreateDepartmentRequest 创建部门请求
// @Description 创建部门的请求参数
type CreateDepartmentRequest struct {
	Name           string `json:"name" example:"Information Technology" binding:"required"` // 部门名称
	OrganizationID string `json:"organization_id" example:"org-001" binding:"required"`     // 所属组织 ID
}

// CreateSubDepartmentRequest 创建子部门请求
// @Description 创建子部门的请求参数
type CreateSubDepartmentRequest struct {
	Name         string `json:"name" example:"Infrastructure" binding:"required"`    // 子部门名称
	DepartmentID string `json:"department_id" example:"dept-001" binding:"required"` // 所属部门 ID
}

type hierarchyService struct {
	repo        repository.HierarchyRepository
	auditLogSvc AuditLogService
}

// NewHierarchyService 创建组织层级服务
func NewHierarchyService(repo repository.HierarchyRepository, auditLogSvc AuditLogService) HierarchyService {
	return &hierarchyService{repo: repo, auditLogSvc: auditLogSvc}
}

// CreateGroup 创建集团
func (s *hierarchyService) CreateGroup(ctx context.Context, req *CreateGroupRequest) (*model.Group, error) {
	if err := utils.ValidateEntityName(req.Name); err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, err, "invalid group name")
	}

	now := time.Now()
	group := &model.Group{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(req.Name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.SaveGroup(group); err != nil {
		return nil, fmt.Errorf("failed to save group: %w", err)
	}

	s.audit(ctx, "create", "hierarchy", group.ID, fmt.Sprintf(`{"kind":"group","name":%q}`, group.Name))
	return group, nil
}

// CreateOrganization 创建组织,集团必须已存在
func (s *hierarchyService) CreateOrganization(ctx context.Context, req *CreateOrganizationRequest) (*model.Organization, error) {
	if err := utils.ValidateEntityName(req.Name); err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, err, "invalid organization name")
	}
	if _, err := s.repo.FindGroupByID(req.GroupID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("group", req.GroupID)
		}
		return nil, fmt.Errorf("failed to resolve group: %w", err)
	}

	now := time.Now()
	org := &model.Organization{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(req.Name),
		GroupID:   req.GroupID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.SaveOrganization(org); err != nil {
		return nil, fmt.Errorf("failed to save organization: %w", err)
	}

	s.audit(ctx, "create", "hierarchy", org.ID, fmt.Sprintf(`{"kind":"organization","name":%q}`, org.Name))
	return org, nil
}

// CreateDepartment 创建部门,组织必须已存在
func (s *hierarchyService) CreateDepartment(ctx context.Context, req *CreateDepartmentRequest) (*model.Department, error) {
	if err := utils.ValidateEntityName(req.Name); err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, err, "invalid department name")
	}
	if _, err := s.repo.FindOrganizationByID(req.OrganizationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("organization", req.OrganizationID)
		}
		return nil, fmt.Errorf("failed to resolve organization: %w", err)
	}

	now := time.Now()
	dept := &model.Department{
		ID:             uuid.New().String(),
		Name:           strings.TrimSpace(req.Name),
		OrganizationID: req.OrganizationID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.SaveDepartment(dept); err != nil {
		return nil, fmt.Errorf("failed to save department: %w", err)
	}

	s.audit(ctx, "create", "hierarchy", dept.ID, fmt.Sprintf(`{"kind":"department","name":%q}`, dept.Name))
	return dept, nil
}

// CreateSubDepartment 创建子部门,部门必须已存在
func (s *hierarchyService) CreateSubDepartment(ctx context.Context, req *CreateSubDepartmentRequest) (*model.SubDepartment, error) {
	if err := utils.ValidateEntityName(req.Name); err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, err, "invalid sub-department name")
	}
	if _, err := s.repo.FindDepartmentByID(req.DepartmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("department", req.DepartmentID)
		}
		return nil, fmt.Errorf("failed to resolve department: %w", err)
	}

	now := time.Now()
	sub := &model.SubDepartment{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(req.Name),
		DepartmentID: req.DepartmentID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.SaveSubDepartment(sub); err != nil {
		return nil, fmt.Errorf("failed to save sub-department: %w", err)
	}

	s.audit(ctx, "create", "hierarchy", sub.ID, fmt.Sprintf(`{"kind":"sub_department","name":%q}`, sub.Name))
	return sub, nil
}

// GetGroup 获取集团
func (s *hierarchyService) GetGroup(id string) (*model.Group, error) {
	group, err := s.repo.FindGroupByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("group", id)
		}
		return nil, err
	}
	return group, nil
}

// ListGroups 列出所有集团
func (s *hierarchyService) ListGroups() ([]*model.Group, error) {
	return s.repo.FindAllGroups()
}

// ListOrganizations 列出集团下的组织
func (s *hierarchyService) ListOrganizations(groupID string) ([]*model.Organization, error) {
	return s.repo.FindOrganizationsByGroup(groupID)
}

// ListDepartments 列出组织下的部门
func (s *hierarchyService) ListDepartments(orgID string) ([]*model.Department, error) {
	return s.repo.FindDepartmentsByOrganization(orgID)
}

// ListSubDepartments 列出部门下的子部门
func (s *hierarchyService) ListSubDepartments(deptID string) ([]*model.SubDepartment, error) {
	return s.repo.FindSubDepartmentsByDepartment(deptID)
}

// DeleteGroup 删除集团,存在下级组织时拒绝
func (s *hierarchyService) DeleteGroup(ctx context.Context, id string) error {
	if _, err := s.GetGroup(id); err != nil {
		return err
	}
	count, err := s.repo.CountOrganizationsByGroup(id)
	if err != nil {
		return fmt.Errorf("failed to count organizations: %w", err)
	}
	if count > 0 {
		return apperrors.Conflict("group %s still has %d organizations", id, count)
	}
	if err := s.repo.DeleteGroup(id); err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}

	s.audit(ctx, "delete", "hierarchy", id, `{"kind":"group"}`)
	return nil
}

// DeleteOrganization 删除组织,存在下级部门时拒绝
func (s *hierarchyService) DeleteOrganization(ctx context.Context, id string) error {
	if _, err := s.repo.FindOrganizationByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("organization", id)
		}
		return err
	}
	count, err := s.repo.CountDepartmentsByOrganization(id)
	if err != nil {
		return fmt.Errorf("failed to count departments: %w", err)
	}
	if count > 0 {
		return apperrors.Conflict("organization %s still has %d departments", id, count)
	}
	if err := s.repo.DeleteOrganization(id); err != nil {
		return fmt.Errorf("failed to delete organization: %w", err)
	}

	s.audit(ctx, "delete", "hierarchy", id, `{"kind":"organization"}`)
	return nil
}

// DeleteDepartment 删除部门,存在子部门时拒绝
func (s *hierarchyService) DeleteDepartment(ctx context.Context, id string) error {
	if _, err := s.repo.FindDepartmentByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("department", id)
		}
		return err
	}
	count, err := s.repo.CountSubDepartmentsByDepartment(id)
	if err != nil {
		return fmt.Errorf("failed to count sub-departments: %w", err)
	}
	if count > 0 {
		return apperrors.Conflict("department %s still has %d sub-departments", id, count)
	}
	if err := s.repo.DeleteDepartment(id); err != nil {
		return fmt.Errorf("failed to delete department: %w", err)
	}

	s.audit(ctx, "delete", "hierarchy", id, `{"kind":"department"}`)
	return nil
}

// DeleteSubDepartment 删除子部门
func (s *hierarchyService) DeleteSubDepartment(ctx context.Context, id string) error {
	if _, err := s.repo.FindSubDepartmentByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("sub_department", id)
		}
		return err
	}
	if err := s.repo.DeleteSubDepartment(id); err != nil {
		return fmt.Errorf("failed to delete sub-department: %w", err)
	}

	s.audit(ctx, "delete", "hierarchy", id, `{"kind":"sub_department"}`)
	return nil
}

// ResolveAncestors 自下而上解析节点的祖先链
func (s *hierarchyService) ResolveAncestors(kind NodeKind, id string) (*model.AncestorChain, error) {
	chain := &model.AncestorChain{}

	switch kind {
	case NodeSubDepartment:
		sub, err := s.repo.FindSubDepartmentByID(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.NotFound("sub_department", id)
			}
			return nil, err
		}
		chain.SubDepartment = sub
		id = sub.DepartmentID
		fallthrough
	case NodeDepartment:
		dept, err := s.repo.FindDepartmentByID(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.NotFound("department", id)
			}
			return nil, err
		}
		chain.Department = dept
		id = dept.OrganizationID
		fallthrough
	case NodeOrganization:
		org, err := s.repo.FindOrganizationByID(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.NotFound("organization", id)
			}
			return nil, err
		}
		chain.Organization = org
		id = org.GroupID
		fallthrough
	case NodeGroup:
		group, err := s.repo.FindGroupByID(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.NotFound("group", id)
			}
			return nil, err
		}
		chain.Group = group
	default:
		return nil, apperrors.Validation("unknown hierarchy node kind: %s", kind)
	}

	return chain, nil
}

// audit 记录审计日志,失败不影响业务操作
func (s *hierarchyService) audit(ctx context.Context, action, resourceType, resourceID, details string) {
	if s.auditLogSvc == nil {
		return
	}
	userID := getUserIDFromContext(ctx)
	if userID == "" {
		return
	}
	_ = s.auditLogSvc.RecordAction(ctx, userID, action, resourceType, resourceID, details)
}
