package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mautops/budget-gin/internal/model"
	"github.com/mautops/budget-gin/internal/repository"
	"github.com/mautops/budget-gin/internal/service"
	"github.com/mautops/budget-gin/internal/utils"
)

// RegistryController 供应商/设备/合同台账控制器
type RegistryController struct {
	registrySvc service.RegistryService
}

// NewRegistryController 创建台账控制器
func NewRegistryController(registrySvc service.RegistryService) *RegistryController {
	return &RegistryController{registrySvc: registrySvc}
}

// validateEntryID 验证台账 ID 并返回错误响应（如果无效）
func (c *RegistryController) validateEntryID(ctx *gin.Context, id string) bool {
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid ID", err.Error())
		return false
	}
	return true
}

// CreateVendor 创建供应商
// @Summary      创建供应商
// @Tags         台账
// @Accept       json
// @Produce      json
// @Param        request body service.CreateVendorRequest true "供应商信息"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Router       /vendors [post]
// @Security     BearerAuth
func (c *RegistryController) CreateVendor(ctx *gin.Context) {
	var req service.CreateVendorRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	vendor, err := c.registrySvc.CreateVendor(ctx.Request.Context(), &req)
	if err != nil {
		HandleServiceError(ctx, err, "create vendor")
		return
	}

	Success(ctx, vendor)
}

// ListVendors 列出供应商
// @Summary      列出供应商
// @Tags         台账
// @Produce      json
// @Success      200  {object}  Response
// @Router       /vendors [get]
// @Security     BearerAuth
func (c *RegistryController) ListVendors(ctx *gin.Context) {
	vendors, err := c.registrySvc.ListVendors()
	if err != nil {
		HandleServiceError(ctx, err, "list vendors")
		return
	}

	Success(ctx, vendors)
}

// GetVendor 获取供应商
// @Summary      获取供应商详情
// @Tags         台账
// @Produce      json
// @Param        id path string true "供应商 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /vendors/{id} [get]
// @Security     BearerAuth
func (c *RegistryController) GetVendor(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateEntryID(ctx, id) {
		return
	}

	vendor, err := c.registrySvc.GetVendor(id)
	if err != nil {
		HandleServiceError(ctx, err, "get vendor")
		return
	}

	Success(ctx, vendor)
}

// DeleteVendor 删除供应商
// @Summary      删除供应商
// @Description  被合同或设备引用时拒绝删除
// @Tags         台账
// @Produce      json
// @Param        id path string true "供应商 ID"
// @Success      200  {object}  Response
// @Failure      409  {object}  ErrorResponse
// @Router       /vendors/{id} [delete]
// @Security     BearerAuth
func (c *RegistryController) DeleteVendor(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateEntryID(ctx, id) {
		return
	}

	if err := c.registrySvc.DeleteVendor(ctx.Request.Context(), id); err != nil {
		HandleServiceError(ctx, err, "delete vendor")
		return
	}

	Success(ctx, nil)
}

// CreateDevice 创建设备
// @Summary      登记设备
// @Tags         台账
// @Accept       json
// @Produce      json
// @Param        request body service.CreateDeviceRequest true "设备信息"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /devices [post]
// @Security     BearerAuth
func (c *RegistryController) CreateDevice(ctx *gin.Context) {
	var req service.CreateDeviceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	device, err := c.registrySvc.CreateDevice(ctx.Request.Context(), &req)
	if err != nil {
		HandleServiceError(ctx, err, "create device")
		return
	}

	Success(ctx, device)
}

// ListDevices 列出设备
// @Summary      列出部门下的设备
// @Tags         台账
// @Produce      json
// @Param        department_id query string false "部门 ID"
// @Success      200  {object}  Response
// @Router       /devices [get]
// @Security     BearerAuth
func (c *RegistryController) ListDevices(ctx *gin.Context) {
	devices, err := c.registrySvc.ListDevices(ctx.Query("department_id"))
	if err != nil {
		HandleServiceError(ctx, err, "list devices")
		return
	}

	Success(ctx, devices)
}

// DeleteDevice 删除设备
// @Summary      删除设备
// @Tags         台账
// @Produce      json
// @Param        id path string true "设备 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /devices/{id} [delete]
// @Security     BearerAuth
func (c *RegistryController) DeleteDevice(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateEntryID(ctx, id) {
		return
	}

	if err := c.registrySvc.DeleteDevice(ctx.Request.Context(), id); err != nil {
		HandleServiceError(ctx, err, "delete device")
		return
	}

	Success(ctx, nil)
}

// CreateContract 创建合同
// @Summary      创建合同
// @Description  合同初始为草稿,走 contract 类型审批矩阵
// @Tags         台账
// @Accept       json
// @Produce      json
// @Param        request body service.CreateContractRequest true "合同信息"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /contracts [post]
// @Security     BearerAuth
func (c *RegistryController) CreateContract(ctx *gin.Context) {
	var req service.CreateContractRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	contract, err := c.registrySvc.CreateContract(ctx.Request.Context(), &req)
	if err != nil {
		HandleServiceError(ctx, err, "create contract")
		return
	}

	Success(ctx, contract)
}

// GetContract 获取合同
// @Summary      获取合同详情
// @Tags         台账
// @Produce      json
// @Param        id path string true "合同 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /contracts/{id} [get]
// @Security     BearerAuth
func (c *RegistryController) GetContract(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateEntryID(ctx, id) {
		return
	}

	contract, err := c.registrySvc.GetContract(id)
	if err != nil {
		HandleServiceError(ctx, err, "get contract")
		return
	}

	Success(ctx, contract)
}

// ListContracts 查询合同
// @Summary      查询合同
// @Tags         台账
// @Produce      json
// @Param        vendor_id query string false "供应商 ID"
// @Param        organization_id query string false "组织 ID"
// @Param        status query string false "生命周期状态"
// @Success      200  {object}  Response
// @Router       /contracts [get]
// @Security     BearerAuth
func (c *RegistryController) ListContracts(ctx *gin.Context) {
	filter := &repository.ContractFilter{}

	if v := ctx.Query("vendor_id"); v != "" {
		filter.VendorID = &v
	}
	if v := ctx.Query("organization_id"); v != "" {
		filter.OrganizationID = &v
	}
	if v := ctx.Query("status"); v != "" {
		s := model.SheetStatus(v)
		filter.Status = &s
	}

	contracts, err := c.registrySvc.ListContracts(filter)
	if err != nil {
		HandleServiceError(ctx, err, "list contracts")
		return
	}

	Success(ctx, contracts)
}

// SubmitContract 提交合同审批
// @Summary      提交合同进入审批流
// @Tags         台账
// @Produce      json
// @Param        id path string true "合同 ID"
// @Success      200  {object}  Response
// @Failure      409  {object}  ErrorResponse
// @Failure      422  {object}  ErrorResponse
// @Router       /contracts/{id}/submit [post]
// @Security     BearerAuth
func (c *RegistryController) SubmitContract(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateEntryID(ctx, id) {
		return
	}

	if err := c.registrySvc.SubmitContract(ctx.Request.Context(), id, CurrentUser(ctx)); err != nil {
		HandleServiceError(ctx, err, "submit contract")
		return
	}

	Success(ctx, nil)
}

// ApproveContract 合同审批同意
// @Summary      合同审批同意
// @Tags         台账
// @Accept       json
// @Produce      json
// @Param        id path string true "合同 ID"
// @Param        request body ApprovalActionRequest false "审批意见"
// @Success      200  {object}  Response
// @Failure      403  {object}  ErrorResponse
// @Router       /contracts/{id}/approve [post]
// @Security     BearerAuth
func (c *RegistryController) ApproveContract(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateEntryID(ctx, id) {
		return
	}

	var req ApprovalActionRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
			return
		}
	}

	if err := c.registrySvc.ApproveContract(ctx.Request.Context(), id, CurrentUser(ctx), req.Comment); err != nil {
		HandleServiceError(ctx, err, "approve contract")
		return
	}

	Success(ctx, nil)
}

// RejectContract 合同审批拒绝
// @Summary      合同审批拒绝
// @Tags         台账
// @Accept       json
// @Produce      json
// @Param        id path string true "合同 ID"
// @Param        request body ApprovalActionRequest false "拒绝原因"
// @Success      200  {object}  Response
// @Failure      403  {object}  ErrorResponse
// @Router       /contracts/{id}/reject [post]
// @Security     BearerAuth
func (c *RegistryController) RejectContract(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateEntryID(ctx, id) {
		return
	}

	var req ApprovalActionRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
			return
		}
	}

	if err := c.registrySvc.RejectContract(ctx.Request.Context(), id, CurrentUser(ctx), req.Comment); err != nil {
		HandleServiceError(ctx, err, "reject contract")
		return
	}

	Success(ctx, nil)
}
