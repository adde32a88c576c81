package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mautops/budget-gin/internal/apperrors"
	"github.com/mautops/budget-gin/internal/metrics"
	"github.com/mautops/budget-gin/internal/model"
	"github.com/mautops/budget-gin/internal/notify"
	"github.com/mautops/budget-gin/internal/repository"
	"github.com/mautops/budget-gin/internal/utils"
	"gorm.io/gorm"
)

// RegistryService 供应商/设备/合同台账服务接口
// 合同与预算表共用审批矩阵机制,类型为 contract
type RegistryService interface {
	CreateVendor(ctx context.Context, req *CreateVendorRequest) (*model.Vendor, error)
	GetVendor(id string) (*model.Vendor, error)
	ListVendors() ([]*model.Vendor, error)
	DeleteVendor(ctx context.Context, id string) error

	CreateDevice(ctx context.Context, req *CreateDeviceRequest) (*model.Device, error)
	ListDevices(departmentID string) ([]*model.Device, error)
	DeleteDevice(ctx context.Context, id string) error

	CreateContract(ctx context.Context, req *CreateContractRequest) (*model.Contract, error)
	GetContract(id string) (*model.Contract, error)
	ListContracts(filter *repository.ContractFilter) ([]*model.Contract, error)

	SubmitContract(ctx context.Context, id string, actor *model.User) error
	ApproveContract(ctx context.Context, id string, actor *model.User, comment string) error
	RejectContract(ctx context.Context, id string, actor *model.User, reason string) error
}

// CreateVendorRequest 创建供应商请求
type CreateVendorRequest struct {
	Name          string `json:"name" example:"Dell Technologies" binding:"required"` // 供应商名称
	ContactPerson string `json:"contact_person,omitempty"`                            // 联系人
	Email         string `json:"email,omitempty"`                                     // 邮箱
	Phone         string `json:"phone,omitempty"`                                     // 电话
	Address       string `json:"address,omitempty"`                                   // 地址
}

// CreateDeviceRequest 创建设备请求
type CreateDeviceRequest struct {
	Name         string `json:"name" example:"PowerEdge R760" binding:"required"`    // 设备名称
	SerialNumber string `json:"serial_number,omitempty"`                             // 序列号
	DepartmentID string `json:"department_id" example:"dept-001" binding:"required"` // 归属部门
	VendorID     string `json:"vendor_id,omitempty"`                                 // 供应商
}

// CreateContractRequest 创建合同请求
type CreateContractRequest struct {
	Title          string    `json:"title" example:"Server maintenance 2026" binding:"required"` // 合同标题
	VendorID       string    `json:"vendor_id" example:"vnd-001" binding:"required"`             // 供应商
	OrganizationID string    `json:"organization_id" example:"org-001" binding:"required"`       // 组织
	DepartmentID   string    `json:"department_id" example:"dept-001" binding:"required"`        // 部门
	Value          float64   `json:"value" example:"120000" binding:"required"`                  // 合同金额
	StartDate      time.Time `json:"start_date" binding:"required"`                              // 起始日期
	EndDate        time.Time `json:"end_date" binding:"required"`                                // 结束日期
	Obligations    string    `json:"obligations,omitempty"`                                      // 合同义务
}

type registryService struct {
	db           *gorm.DB
	repo         repository.RegistryRepository
	workflowRepo repository.WorkflowRepository
	historyRepo  repository.StateHistoryRepository
	hierarchySvc HierarchyService
	auditLogSvc  AuditLogService
	notifier     notify.Notifier
}

// NewRegistryService 创建台账服务
func NewRegistryService(
	db *gorm.DB,
	repo repository.RegistryRepository,
	workflowRepo repository.WorkflowRepository,
	historyRepo repository.StateHistoryRepository,
	hierarchySvc HierarchyService,
	auditLogSvc AuditLogService,
	notifier notify.Notifier,
) RegistryService {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &registryService{
		db:           db,
		repo:         repo,
		workflowRepo: workflowRepo,
		historyRepo:  historyRepo,
		hierarchySvc: hierarchySvc,
		auditLogSvc:  auditLogSvc,
		notifier:     notifier,
	}
}

// CreateVendor 创建供应商
func (s *registryService) CreateVendor(ctx context.Context, req *CreateVendorRequest) (*model.Vendor, error) {
	if err := utils.ValidateEntityName(req.Name); err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, err, "invalid vendor name")
	}

	now := time.Now()
	vendor := &model.Vendor{
		ID:            uuid.New().String(),
		Name:          strings.TrimSpace(req.Name),
		ContactPerson: req.ContactPerson,
		Email:         req.Email,
		Phone:         req.Phone,
		Address:       req.Address,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.SaveVendor(vendor); err != nil {
		return nil, fmt.Errorf("failed to save vendor: %w", err)
	}

	s.audit(ctx, "create", "vendor", vendor.ID, fmt.Sprintf(`{"name":%q}`, vendor.Name))
	return vendor, nil
}

// GetVendor 获取供应商
func (s *registryService) GetVendor(id string) (*model.Vendor, error) {
	vendor, err := s.repo.FindVendorByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("vendor", id)
		}
		return nil, err
	}
	return vendor, nil
}

// ListVendors 列出所有供应商
func (s *registryService) ListVendors() ([]*model.Vendor, error) {
	return s.repo.FindAllVendors()
}

// DeleteVendor 删除供应商,被合同或设备引用时拒绝
func (s *registryService) DeleteVendor(ctx context.Context, id string) error {
	if _, err := s.GetVendor(id); err != nil {
		return err
	}
	contracts, err := s.repo.CountContractsByVendor(id)
	if err != nil {
		return fmt.Errorf("failed to count contracts: %w", err)
	}
	if contracts > 0 {
		return apperrors.Conflict("vendor %s is referenced by %d contracts", id, contracts)
	}
	devices, err := s.repo.CountDevicesByVendor(id)
	if err != nil {
		return fmt.Errorf("failed to count devices: %w", err)
	}
	if devices > 0 {
		return apperrors.Conflict("vendor %s is referenced by %d devices", id, devices)
	}
	if err := s.repo.DeleteVendor(id); err != nil {
		return fmt.Errorf("failed to delete vendor: %w", err)
	}

	s.audit(ctx, "delete", "vendor", id, `{}`)
	return nil
}

// CreateDevice 创建设备,部门与可选供应商必须存在
func (s *registryService) CreateDevice(ctx context.Context, req *CreateDeviceRequest) (*model.Device, error) {
	if err := utils.ValidateEntityName(req.Name); err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, err, "invalid device name")
	}
	if _, err := s.hierarchySvc.ResolveAncestors(NodeDepartment, req.DepartmentID); err != nil {
		return nil, err
	}
	if req.VendorID != "" {
		if _, err := s.GetVendor(req.VendorID); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	device := &model.Device{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(req.Name),
		SerialNumber: req.SerialNumber,
		DepartmentID: req.DepartmentID,
		VendorID:     req.VendorID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.SaveDevice(device); err != nil {
		return nil, fmt.Errorf("failed to save device: %w", err)
	}

	s.audit(ctx, "create", "device", device.ID, fmt.Sprintf(`{"name":%q}`, device.Name))
	return device, nil
}

// ListDevices 列出部门下的设备
func (s *registryService) ListDevices(departmentID string) ([]*model.Device, error) {
	return s.repo.FindDevicesByDepartment(departmentID)
}

// DeleteDevice 删除设备
func (s *registryService) DeleteDevice(ctx context.Context, id string) error {
	if _, err := s.repo.FindDeviceByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("device", id)
		}
		return err
	}
	if err := s.repo.DeleteDevice(id); err != nil {
		return fmt.Errorf("failed to delete device: %w", err)
	}

	s.audit(ctx, "delete", "device", id, `{}`)
	return nil
}

// CreateContract 创建合同草稿
func (s *registryService) CreateContract(ctx context.Context, req *CreateContractRequest) (*model.Contract, error) {
	if err := utils.ValidateEntityName(req.Title); err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, err, "invalid contract title")
	}
	if req.Value < 0 {
		return nil, apperrors.Validation("contract value must not be negative")
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, apperrors.Validation("contract end date must not precede start date")
	}
	if _, err := s.GetVendor(req.VendorID); err != nil {
		return nil, err
	}
	chain, err := s.hierarchySvc.ResolveAncestors(NodeDepartment, req.DepartmentID)
	if err != nil {
		return nil, err
	}
	if chain.Organization == nil || chain.Organization.ID != req.OrganizationID {
		return nil, apperrors.Validation("department %s does not belong to organization %s", req.DepartmentID, req.OrganizationID)
	}

	now := time.Now()
	contract := &model.Contract{
		ID:             uuid.New().String(),
		Title:          strings.TrimSpace(req.Title),
		VendorID:       req.VendorID,
		OrganizationID: req.OrganizationID,
		DepartmentID:   req.DepartmentID,
		Value:          req.Value,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		Obligations:    req.Obligations,
		Status:         model.SheetStatusDraft,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.SaveContract(contract); err != nil {
		return nil, fmt.Errorf("failed to save contract: %w", err)
	}

	s.audit(ctx, "create", "contract", contract.ID, fmt.Sprintf(`{"title":%q}`, contract.Title))
	return contract, nil
}

// GetContract 获取合同
func (s *registryService) GetContract(id string) (*model.Contract, error) {
	contract, err := s.repo.FindContractByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("contract", id)
		}
		return nil, err
	}
	return contract, nil
}

// ListContracts 查询合同
func (s *registryService) ListContracts(filter *repository.ContractFilter) ([]*model.Contract, error) {
	return s.repo.FindContractsByFilter(filter)
}

// SubmitContract 提交合同进入审批,使用 contract 类型的审批矩阵
func (s *registryService) SubmitContract(ctx context.Context, id string, actor *model.User) error {
	contract, err := s.GetContract(id)
	if err != nil {
		return err
	}
	if contract.Status != model.SheetStatusDraft {
		return apperrors.InvalidState("contract %s is %s, only draft contracts can be submitted", id, contract.Status)
	}

	workflow, err := s.workflowRepo.FindByType(model.WorkflowTypeContract)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.Configuration("no approval workflow configured for type %s", model.WorkflowTypeContract)
		}
		return err
	}
	if err := workflow.Validate(); err != nil {
		return apperrors.Wrap(apperrors.KindConfiguration, err, "approval workflow for %s is invalid", model.WorkflowTypeContract)
	}

	snapshot := workflow.Snapshot()
	entry, ok := snapshot.First()
	if !ok || entry.Level != 1 {
		return apperrors.Configuration("approval workflow for %s has no level 1 entry", model.WorkflowTypeContract)
	}
	snapshotData, err := snapshot.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal workflow snapshot: %w", err)
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Contract{}).
			Where("id = ? AND version = ? AND status = ?", contract.ID, contract.Version, model.SheetStatusDraft).
			Updates(map[string]interface{}{
				"status":            model.SheetStatusPending,
				"current_level":     entry.Level,
				"workflow_snapshot": snapshotData,
				"version":           contract.Version + 1,
				"submitted_by":      actorID(actor),
				"submitted_at":      now,
				"updated_at":        now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.Conflict("contract %s was modified concurrently, retry with fresh state", contract.ID)
		}
		return s.recordContractHistory(tx, contract.ID, model.SheetStatusDraft, model.SheetStatusPending, entry.Level, "", actorID(actor), now)
	})
	if err != nil {
		return err
	}

	metrics.RecordApproval("contract_submit")
	s.audit(ctx, "submit", "contract", contract.ID, fmt.Sprintf(`{"level":%d,"role_key":%q}`, entry.Level, entry.RoleKey))
	s.notifyContract(contract, notify.KindApprovalRequest, entry.RoleKey, entry.Level)
	return nil
}

// ApproveContract 合同当前层级审批通过
func (s *registryService) ApproveContract(ctx context.Context, id string, actor *model.User, comment string) error {
	contract, snapshot, current, err := s.pendingContract(id)
	if err != nil {
		return err
	}
	if actor == nil || actor.RoleKey != current.RoleKey {
		return apperrors.Authorization("role mismatch for contract approval at level %d", current.Level)
	}

	next, hasNext := snapshot.NextAfter(current.Level)
	now := time.Now()

	err = s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"version":    contract.Version + 1,
			"updated_at": now,
		}
		toState := model.SheetStatusApproved
		if hasNext {
			toState = model.SheetStatusPending
			updates["current_level"] = next.Level
		} else {
			updates["status"] = model.SheetStatusApproved
			updates["current_level"] = 0
		}

		res := tx.Model(&model.Contract{}).
			Where("id = ? AND version = ? AND status = ?", contract.ID, contract.Version, model.SheetStatusPending).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.Conflict("contract %s was modified concurrently, retry with fresh state", contract.ID)
		}
		return s.recordContractHistory(tx, contract.ID, model.SheetStatusPending, toState, current.Level, comment, actorID(actor), now)
	})
	if err != nil {
		return err
	}

	metrics.RecordApproval("approve")
	s.audit(ctx, "approve", "contract", contract.ID, fmt.Sprintf(`{"level":%d}`, current.Level))
	if hasNext {
		s.notifyContract(contract, notify.KindApprovalRequest, next.RoleKey, next.Level)
	} else {
		s.notifyContract(contract, notify.KindApproved, "", 0)
	}
	return nil
}

// RejectContract 合同当前层级审批拒绝,直接进入终态
func (s *registryService) RejectContract(ctx context.Context, id string, actor *model.User, reason string) error {
	contract, _, current, err := s.pendingContract(id)
	if err != nil {
		return err
	}
	if actor == nil || actor.RoleKey != current.RoleKey {
		return apperrors.Authorization("role mismatch for contract approval at level %d", current.Level)
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Contract{}).
			Where("id = ? AND version = ? AND status = ?", contract.ID, contract.Version, model.SheetStatusPending).
			Updates(map[string]interface{}{
				"status":        model.SheetStatusRejected,
				"current_level": 0,
				"version":       contract.Version + 1,
				"updated_at":    now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.Conflict("contract %s was modified concurrently, retry with fresh state", contract.ID)
		}
		return s.recordContractHistory(tx, contract.ID, model.SheetStatusPending, model.SheetStatusRejected, current.Level, reason, actorID(actor), now)
	})
	if err != nil {
		return err
	}

	metrics.RecordApproval("reject")
	s.audit(ctx, "reject", "contract", contract.ID, fmt.Sprintf(`{"level":%d,"reason":%q}`, current.Level, reason))
	s.notifyContract(contract, notify.KindRejected, "", 0)
	return nil
}

// pendingContract 加载审批中的合同及其快照与当前层级
func (s *registryService) pendingContract(id string) (*model.Contract, *model.WorkflowSnapshot, *model.ApprovalLevel, error) {
	contract, err := s.GetContract(id)
	if err != nil {
		return nil, nil, nil, err
	}
	if contract.Status != model.SheetStatusPending {
		return nil, nil, nil, apperrors.InvalidState("contract %s is %s, no approval action is possible", id, contract.Status)
	}
	snapshot, err := model.UnmarshalWorkflowSnapshot(contract.WorkflowSnapshot)
	if err != nil {
		return nil, nil, nil, apperrors.Wrap(apperrors.KindConfiguration, err, "contract %s has no usable workflow snapshot", id)
	}
	current, ok := snapshot.LevelAt(contract.CurrentLevel)
	if !ok {
		return nil, nil, nil, apperrors.Configuration("contract %s points at level %d which is absent from its snapshot", id, contract.CurrentLevel)
	}
	return contract, snapshot, current, nil
}

// recordContractHistory 在事务内记录合同状态迁移
func (s *registryService) recordContractHistory(tx *gorm.DB, contractID string, from, to model.SheetStatus, level int, reason, operator string, now time.Time) error {
	history := &model.StateHistory{
		ID:        uuid.New().String(),
		SheetID:   contractID,
		FromState: string(from),
		ToState:   string(to),
		Level:     level,
		Reason:    reason,
		Operator:  operator,
		CreatedAt: now,
	}
	return tx.Create(history).Error
}

// notifyContract 发送合同审批通知,失败不回滚状态迁移
func (s *registryService) notifyContract(contract *model.Contract, kind notify.Kind, roleKey string, level int) {
	orgName, deptName := contract.OrganizationID, contract.DepartmentID
	if chain, err := s.hierarchySvc.ResolveAncestors(NodeDepartment, contract.DepartmentID); err == nil {
		if chain.Organization != nil {
			orgName = chain.Organization.Name
		}
		if chain.Department != nil {
			deptName = chain.Department.Name
		}
	}
	s.notifier.Notify(&notify.Notification{
		Kind:         kind,
		RoleKey:      roleKey,
		Recipient:    contract.SubmittedBy,
		SheetID:      contract.ID,
		SheetType:    string(model.WorkflowTypeContract),
		Organization: orgName,
		Department:   deptName,
		Year:         contract.StartDate.Year(),
		TotalValue:   contract.Value,
		Level:        level,
	})
}

// audit 记录审计日志,失败不影响业务操作
func (s *registryService) audit(ctx context.Context, action, resourceType, resourceID, details string) {
	if s.auditLogSvc == nil {
		return
	}
	userID := getUserIDFromContext(ctx)
	if userID == "" {
		userID = "system"
	}
	_ = s.auditLogSvc.RecordAction(ctx, userID, action, resourceType, resourceID, details)
}
