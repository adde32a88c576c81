package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mautops/budget-gin/internal/model"
	"github.com/mautops/budget-gin/internal/repository"
	"github.com/mautops/budget-gin/internal/service"
	"github.com/mautops/budget-gin/internal/utils"
)

// SheetController 预算表控制器
type SheetController struct {
	sheetSvc    service.SheetService
	workflowSvc service.WorkflowService
}

// NewSheetController 创建预算表控制器
func NewSheetController(sheetSvc service.SheetService, workflowSvc service.WorkflowService) *SheetController {
	return &SheetController{
		sheetSvc:    sheetSvc,
		workflowSvc: workflowSvc,
	}
}

// validateSheetID 验证预算表 ID 并返回错误响应（如果无效）
func (c *SheetController) validateSheetID(ctx *gin.Context, id string) bool {
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid sheet ID", err.Error())
		return false
	}
	return true
}

// Create 创建预算表
// @Summary      创建预算表
// @Description  创建 CAPEX 或 OPEX 预算表,初始为草稿
// @Tags         预算表
// @Accept       json
// @Produce      json
// @Param        request body service.CreateSheetRequest true "预算表信息"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /sheets [post]
// @Security     BearerAuth
func (c *SheetController) Create(ctx *gin.Context) {
	var req service.CreateSheetRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	sheet, err := c.sheetSvc.Create(ctx.Request.Context(), &req)
	if err != nil {
		HandleServiceError(ctx, err, "create sheet")
		return
	}

	Success(ctx, sheet)
}

// Get 获取预算表
// @Summary      获取预算表详情
// @Description  合计与参考编号在读取时重算
// @Tags         预算表
// @Produce      json
// @Param        id path string true "预算表 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /sheets/{id} [get]
// @Security     BearerAuth
func (c *SheetController) Get(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateSheetID(ctx, id) {
		return
	}

	sheet, err := c.sheetSvc.Get(id)
	if err != nil {
		HandleServiceError(ctx, err, "get sheet")
		return
	}

	Success(ctx, sheet)
}

// List 查询预算表
// @Summary      查询预算表
// @Tags         预算表
// @Produce      json
// @Param        type query string false "CAPEX 或 OPEX"
// @Param        status query string false "生命周期状态"
// @Param        organization_id query string false "组织 ID"
// @Param        department_id query string false "部门 ID"
// @Param        year query int false "预算年度"
// @Success      200  {object}  Response
// @Router       /sheets [get]
// @Security     BearerAuth
func (c *SheetController) List(ctx *gin.Context) {
	filter := &repository.SheetFilter{}

	if v := ctx.Query("type"); v != "" {
		t := model.SheetType(v)
		filter.Type = &t
	}
	if v := ctx.Query("status"); v != "" {
		s := model.SheetStatus(v)
		filter.Status = &s
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

	sheets, err := c.sheetSvc.List(filter)
	if err != nil {
		HandleServiceError(ctx, err, "list sheets")
		return
	}

	Success(ctx, sheets)
}

// Delete 删除预算表
// @Summary      删除草稿预算表
// @Description  只允许删除草稿状态的预算表
// @Tags         预算表
// @Produce      json
// @Param        id path string true "预算表 ID"
// @Success      200  {object}  Response
// @Failure      409  {object}  ErrorResponse
// @Router       /sheets/{id} [delete]
// @Security     BearerAuth
func (c *SheetController) Delete(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateSheetID(ctx, id) {
		return
	}

	if err := c.sheetSvc.Delete(ctx.Request.Context(), id); err != nil {
		HandleServiceError(ctx, err, "delete sheet")
		return
	}

	Success(ctx, nil)
}

// AddItem 新增行项
// @Summary      新增预算行项
// @Description  仅草稿状态允许修改行项
// @Tags         预算表
// @Accept       json
// @Produce      json
// @Param        id path string true "预算表 ID"
// @Param        request body service.SheetItemRequest true "行项信息"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /sheets/{id}/items [post]
// @Security     BearerAuth
func (c *SheetController) AddItem(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateSheetID(ctx, id) {
		return
	}

	var req service.SheetItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	sheet, err := c.sheetSvc.AddItem(ctx.Request.Context(), id, &req)
	if err != nil {
		HandleServiceError(ctx, err, "add item")
		return
	}

	Success(ctx, sheet)
}

// UpdateItem 更新行项
// @Summary      更新预算行项
// @Tags         预算表
// @Accept       json
// @Produce      json
// @Param        id path string true "预算表 ID"
// @Param        item_id path string true "行项 ID"
// @Param        request body service.SheetItemRequest true "行项信息"
// @Success      200  {object}  Response
// @Failure      409  {object}  ErrorResponse
// @Router       /sheets/{id}/items/{item_id} [put]
// @Security     BearerAuth
func (c *SheetController) UpdateItem(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateSheetID(ctx, id) {
		return
	}

	var req service.SheetItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	sheet, err := c.sheetSvc.UpdateItem(ctx.Request.Context(), id, ctx.Param("item_id"), &req)
	if err != nil {
		HandleServiceError(ctx, err, "update item")
		return
	}

	Success(ctx, sheet)
}

// RemoveItem 删除行项
// @Summary      删除预算行项
// @Tags         预算表
// @Produce      json
// @Param        id path string true "预算表 ID"
// @Param        item_id path string true "行项 ID"
// @Success      200  {object}  Response
// @Failure      409  {object}  ErrorResponse
// @Router       /sheets/{id}/items/{item_id} [delete]
// @Security     BearerAuth
func (c *SheetController) RemoveItem(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateSheetID(ctx, id) {
		return
	}

	sheet, err := c.sheetSvc.RemoveItem(ctx.Request.Context(), id, ctx.Param("item_id"))
	if err != nil {
		HandleServiceError(ctx, err, "remove item")
		return
	}

	Success(ctx, sheet)
}

// Submit 提交审批
// @Summary      提交预算表进入审批流
// @Description  草稿进入第一审批层级,审批矩阵在此刻快照
// @Tags         预算表
// @Produce      json
// @Param        id path string true "预算表 ID"
// @Success      200  {object}  Response
// @Failure      409  {object}  ErrorResponse
// @Failure      422  {object}  ErrorResponse
// @Router       /sheets/{id}/submit [post]
// @Security     BearerAuth
func (c *SheetController) Submit(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateSheetID(ctx, id) {
		return
	}

	if err := c.workflowSvc.Submit(ctx.Request.Context(), id, CurrentUser(ctx)); err != nil {
		HandleServiceError(ctx, err, "submit sheet")
		return
	}

	Success(ctx, nil)
}

// Approve 审批同意
// @Summary      审批同意
// @Description  当前层级角色同意,推进到下一层级或终态
// @Tags         预算表
// @Accept       json
// @Produce      json
// @Param        id path string true "预算表 ID"
// @Param        request body ApprovalActionRequest false "审批意见"
// @Success      200  {object}  Response
// @Failure      403  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /sheets/{id}/approve [post]
// @Security     BearerAuth
func (c *SheetController) Approve(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateSheetID(ctx, id) {
		return
	}

	var req ApprovalActionRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
			return
		}
	}

	if err := c.workflowSvc.Approve(ctx.Request.Context(), id, CurrentUser(ctx), req.Comment); err != nil {
		HandleServiceError(ctx, err, "approve sheet")
		return
	}

	Success(ctx, nil)
}

// Reject 审批拒绝
// @Summary      审批拒绝
// @Description  任意层级拒绝即进入终态
// @Tags         预算表
// @Accept       json
// @Produce      json
// @Param        id path string true "预算表 ID"
// @Param        request body ApprovalActionRequest false "拒绝原因"
// @Success      200  {object}  Response
// @Failure      403  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /sheets/{id}/reject [post]
// @Security     BearerAuth
func (c *SheetController) Reject(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateSheetID(ctx, id) {
		return
	}

	var req ApprovalActionRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
			return
		}
	}

	if err := c.workflowSvc.Reject(ctx.Request.Context(), id, CurrentUser(ctx), req.Comment); err != nil {
		HandleServiceError(ctx, err, "reject sheet")
		return
	}

	Success(ctx, nil)
}

// History 状态变迁历史
// @Summary      获取预算表状态变迁历史
// @Tags         预算表
// @Produce      json
// @Param        id path string true "预算表 ID"
// @Success      200  {object}  Response
// @Router       /sheets/{id}/history [get]
// @Security     BearerAuth
func (c *SheetController) History(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateSheetID(ctx, id) {
		return
	}

	history, err := c.workflowSvc.History(id)
	if err != nil {
		HandleServiceError(ctx, err, "get history")
		return
	}

	Success(ctx, history)
}

// ApprovalActionRequest 审批动作请求
// @Description 审批同意/拒绝时的附言
type ApprovalActionRequest struct {
	Comment string `json:"comment"` // 审批意见或拒绝原因
}
