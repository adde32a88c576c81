package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mautops/budget-gin/internal/service"
	"github.com/mautops/budget-gin/internal/utils"
)

// HierarchyController 组织层级控制器
type HierarchyController struct {
	hierarchySvc service.HierarchyService
}

// NewHierarchyController 创建组织层级控制器
func NewHierarchyController(hierarchySvc service.HierarchyService) *HierarchyController {
	return &HierarchyController{hierarchySvc: hierarchySvc}
}

// validateNodeID 验证节点 ID 并返回错误响应（如果无效）
func (c *HierarchyController) validateNodeID(ctx *gin.Context, id string) bool {
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid node ID", err.Error())
		return false
	}
	return true
}

// CreateGroup 创建集团
// @Summary      创建集团
// @Description  创建层级树的根节点
// @Tags         组织层级
// @Accept       json
// @Produce      json
// @Param        request body service.CreateGroupRequest true "集团信息"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Router       /hierarchy/groups [post]
// @Security     BearerAuth
func (c *HierarchyController) CreateGroup(ctx *gin.Context) {
	var req service.CreateGroupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	group, err := c.hierarchySvc.CreateGroup(ctx.Request.Context(), &req)
	if err != nil {
		HandleServiceError(ctx, err, "create group")
		return
	}

	Success(ctx, group)
}

// ListGroups 列出集团
// @Summary      列出集团
// @Tags         组织层级
// @Produce      json
// @Success      200  {object}  Response
// @Router       /hierarchy/groups [get]
// @Security     BearerAuth
func (c *HierarchyController) ListGroups(ctx *gin.Context) {
	groups, err := c.hierarchySvc.ListGroups()
	if err != nil {
		HandleServiceError(ctx, err, "list groups")
		return
	}

	Success(ctx, groups)
}

// GetGroup 获取集团
// @Summary      获取集团详情
// @Tags         组织层级
// @Produce      json
// @Param        id path string true "集团 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /hierarchy/groups/{id} [get]
// @Security     BearerAuth
func (c *HierarchyController) GetGroup(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateNodeID(ctx, id) {
		return
	}

	group, err := c.hierarchySvc.GetGroup(id)
	if err != nil {
		HandleServiceError(ctx, err, "get group")
		return
	}

	Success(ctx, group)
}

// DeleteGroup 删除集团
// @Summary      删除集团
// @Description  存在下属组织时拒绝删除
// @Tags         组织层级
// @Produce      json
// @Param        id path string true "集团 ID"
// @Success      200  {object}  Response
// @Failure      409  {object}  ErrorResponse
// @Router       /hierarchy/groups/{id} [delete]
// @Security     BearerAuth
func (c *HierarchyController) DeleteGroup(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateNodeID(ctx, id) {
		return
	}

	if err := c.hierarchySvc.DeleteGroup(ctx.Request.Context(), id); err != nil {
		HandleServiceError(ctx, err, "delete group")
		return
	}

	Success(ctx, nil)
}

// CreateOrganization 创建组织
// @Summary      创建组织
// @Tags         组织层级
// @Accept       json
// @Produce      json
// @Param        request body service.CreateOrganizationRequest true "组织信息"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /hierarchy/organizations [post]
// @Security     BearerAuth
func (c *HierarchyController) CreateOrganization(ctx *gin.Context) {
	var req service.CreateOrganizationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	org, err := c.hierarchySvc.CreateOrganization(ctx.Request.Context(), &req)
	if err != nil {
		HandleServiceError(ctx, err, "create organization")
		return
	}

	Success(ctx, org)
}

// ListOrganizations 列出组织
// @Summary      列出集团下的组织
// @Tags         组织层级
// @Produce      json
// @Param        group_id query string false "集团 ID"
// @Success      200  {object}  Response
// @Router       /hierarchy/organizations [get]
// @Security     BearerAuth
func (c *HierarchyController) ListOrganizations(ctx *gin.Context) {
	orgs, err := c.hierarchySvc.ListOrganizations(ctx.Query("group_id"))
	if err != nil {
		HandleServiceError(ctx, err, "list organizations")
		return
	}

	Success(ctx, orgs)
}

// DeleteOrganization 删除组织
// @Summary      删除组织
// @Tags         组织层级
// @Produce      json
// @Param        id path string true "组织 ID"
// @Success      200  {object}  Response
// @Failure      409  {object}  ErrorResponse
// @Router       /hierarchy/organizations/{id} [delete]
// @Security     BearerAuth
func (c *HierarchyController) DeleteOrganization(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateNodeID(ctx, id) {
		return
	}

	if err := c.hierarchySvc.DeleteOrganization(ctx.Request.Context(), id); err != nil {
		HandleServiceError(ctx, err, "delete organization")
		return
	}

	Success(ctx, nil)
}

// CreateDepartment 创建部门
// @Summary      创建部门
// @Tags         组织层级
// @Accept       json
// @Produce      json
// @Param        request body service.CreateDepartmentRequest true "部门信息"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /hierarchy/departments [post]
// @Security     BearerAuth
func (c *HierarchyController) CreateDepartment(ctx *gin.Context) {
	var req service.CreateDepartmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	dept, err := c.hierarchySvc.CreateDepartment(ctx.Request.Context(), &req)
	if err != nil {
		HandleServiceError(ctx, err, "create department")
		return
	}

	Success(ctx, dept)
}

// ListDepartments 列出部门
// @Summary      列出组织下的部门
// @Tags         组织层级
// @Produce      json
// @Param        organization_id query string false "组织 ID"
// @Success      200  {object}  Response
// @Router       /hierarchy/departments [get]
// @Security     BearerAuth
func (c *HierarchyController) ListDepartments(ctx *gin.Context) {
	depts, err := c.hierarchySvc.ListDepartments(ctx.Query("organization_id"))
	if err != nil {
		HandleServiceError(ctx, err, "list departments")
		return
	}

	Success(ctx, depts)
}

// DeleteDepartment 删除部门
// @Summary      删除部门
// @Tags         组织层级
// @Produce      json
// @Param        id path string true "部门 ID"
// @Success      200  {object}  Response
// @Failure      409  {object}  ErrorResponse
// @Router       /hierarchy/departments/{id} [delete]
// @Security     BearerAuth
func (c *HierarchyController) DeleteDepartment(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateNodeID(ctx, id) {
		return
	}

	if err := c.hierarchySvc.DeleteDepartment(ctx.Request.Context(), id); err != nil {
		HandleServiceError(ctx, err, "delete department")
		return
	}

	Success(ctx, nil)
}

// CreateSubDepartment 创建子部门
// @Summary      创建子部门
// @Tags         组织层级
// @Accept       json
// @Produce      json
// @Param        request body service.CreateSubDepartmentRequest true "子部门信息"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /hierarchy/sub-departments [post]
// @Security     BearerAuth
func (c *HierarchyController) CreateSubDepartment(ctx *gin.Context) {
	var req service.CreateSubDepartmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	sub, err := c.hierarchySvc.CreateSubDepartment(ctx.Request.Context(), &req)
	if err != nil {
		HandleServiceError(ctx, err, "create sub-department")
		return
	}

	Success(ctx, sub)
}

// ListSubDepartments 列出子部门
// @Summary      列出部门下的子部门
// @Tags         组织层级
// @Produce      json
// @Param        department_id query string false "部门 ID"
// @Success      200  {object}  Response
// @Router       /hierarchy/sub-departments [get]
// @Security     BearerAuth
func (c *HierarchyController) ListSubDepartments(ctx *gin.Context) {
	subs, err := c.hierarchySvc.ListSubDepartments(ctx.Query("department_id"))
	if err != nil {
		HandleServiceError(ctx, err, "list sub-departments")
		return
	}

	Success(ctx, subs)
}

// DeleteSubDepartment 删除子部门
// @Summary      删除子部门
// @Tags         组织层级
// @Produce      json
// @Param        id path string true "子部门 ID"
// @Success      200  {object}  Response
// @Router       /hierarchy/sub-departments/{id} [delete]
// @Security     BearerAuth
func (c *HierarchyController) DeleteSubDepartment(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateNodeID(ctx, id) {
		return
	}

	if err := c.hierarchySvc.DeleteSubDepartment(ctx.Request.Context(), id); err != nil {
		HandleServiceError(ctx, err, "delete sub-department")
		return
	}

	Success(ctx, nil)
}

// Ancestors 解析祖先链
// @Summary      解析节点到根的祖先链
// @Tags         组织层级
// @Produce      json
// @Param        kind path string true "节点类型" Enums(group, organization, department, sub_department)
// @Param        id path string true "节点 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /hierarchy/{kind}/{id}/ancestors [get]
// @Security     BearerAuth
func (c *HierarchyController) Ancestors(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateNodeID(ctx, id) {
		return
	}

	chain, err := c.hierarchySvc.ResolveAncestors(service.NodeKind(ctx.Param("kind")), id)
	if err != nil {
		HandleServiceError(ctx, err, "resolve ancestors")
		return
	}

	Success(ctx, chain)
}
