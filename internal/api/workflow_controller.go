package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mautops/budget-gin/internal/model"
	"github.com/mautops/budget-gin/internal/repository"
	"github.com/mautops/budget-gin/internal/service"
)

// WorkflowController 审批矩阵与审批收件箱控制器
type WorkflowController struct {
	workflowSvc service.WorkflowService
}

// NewWorkflowController 创建审批矩阵控制器
func NewWorkflowController(workflowSvc service.WorkflowService) *WorkflowController {
	return &WorkflowController{workflowSvc: workflowSvc}
}

// Save 保存审批矩阵
// @Summary      保存审批矩阵
// @Description  整体替换指定类型的审批层级配置,已提交单据沿用提交时刻的快照
// @Tags         审批矩阵
// @Accept       json
// @Produce      json
// @Param        request body service.SaveWorkflowRequest true "审批矩阵"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Router       /workflows [put]
// @Security     BearerAuth
func (c *WorkflowController) Save(ctx *gin.Context) {
	var req service.SaveWorkflowRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	workflow, err := c.workflowSvc.SaveWorkflow(ctx.Request.Context(), &req)
	if err != nil {
		HandleServiceError(ctx, err, "save workflow")
		return
	}

	Success(ctx, workflow)
}

// Get 获取审批矩阵
// @Summary      获取指定类型的审批矩阵
// @Tags         审批矩阵
// @Produce      json
// @Param        type path string true "矩阵类型" Enums(budget, contract)
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /workflows/{type} [get]
// @Security     BearerAuth
func (c *WorkflowController) Get(ctx *gin.Context) {
	workflow, err := c.workflowSvc.GetWorkflow(model.WorkflowType(ctx.Param("type")))
	if err != nil {
		HandleServiceError(ctx, err, "get workflow")
		return
	}

	Success(ctx, workflow)
}

// List 列出审批矩阵
// @Summary      列出全部审批矩阵
// @Tags         审批矩阵
// @Produce      json
// @Success      200  {object}  Response
// @Router       /workflows [get]
// @Security     BearerAuth
func (c *WorkflowController) List(ctx *gin.Context) {
	workflows, err := c.workflowSvc.ListWorkflows()
	if err != nil {
		HandleServiceError(ctx, err, "list workflows")
		return
	}

	Success(ctx, workflows)
}

// Pending 审批收件箱
// @Summary      查询等待审批的单据
// @Description  默认按当前用户角色过滤,可按组织/部门/年度筛选
// @Tags         审批矩阵
// @Produce      json
// @Param        role_key query string false "审批角色,缺省为当前用户角色"
// @Param        workflow_type query string false "矩阵类型"
// @Param        organization_id query string false "组织 ID"
// @Param        department_id query string false "部门 ID"
// @Param        year query int false "预算年度"
// @Success      200  {object}  Response
// @Router       /approvals/pending [get]
// @Security     BearerAuth
func (c *WorkflowController) Pending(ctx *gin.Context) {
	filter := &repository.ApprovalItemFilter{}

	roleKey := ctx.Query("role_key")
	if roleKey == "" {
		if user := CurrentUser(ctx); user != nil {
			roleKey = user.RoleKey
		}
	}
	if roleKey != "" {
		filter.RoleKey = &roleKey
	}
	if v := ctx.Query("workflow_type"); v != "" {
		t := model.WorkflowType(v)
		filter.WorkflowType = &t
	}
	if v := ctx.Query("organization_id"); v != "" {
		filter.OrganizationID = &v
	}
	if v := ctx.Query("department_id"); v != "" {
		filter.DepartmentID = &v
	}
	if v := ctx.Query("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			Error(ctx, http.StatusBadRequest, "invalid year", v)
			return
		}
		filter.Year = &year
	}

	items, err := c.workflowSvc.ListPending(filter)
	if err != nil {
		HandleServiceError(ctx, err, "list pending approvals")
		return
	}

	Success(ctx, items)
}
