package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mautops/budget-gin/internal/apperrors"
	"github.com/mautops/budget-gin/internal/metrics"
	"github.com/mautops/budget-gin/internal/model"
	"github.com/mautops/budget-gin/internal/notify"
	"github.com/mautops/budget-gin/internal/repository"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// WorkflowService 审批流引擎接口
// 驱动预算表在 Draft → Pending(level) → Approved/Rejected 之间迁移
// 所有迁移都在单个事务内完成并带乐观锁版本校验
type WorkflowService interface {
	// 审批矩阵配置
	SaveWorkflow(ctx context.Context, req *SaveWorkflowRequest) (*model.ApprovalWorkflow, error)
	GetWorkflow(t model.WorkflowType) (*model.ApprovalWorkflow, error)
	ListWorkflows() ([]*model.ApprovalWorkflow, error)

	// 预算表状态迁移
	Submit(ctx context.Context, sheetID string, actor *model.User) error
	Approve(ctx context.Context, sheetID string, actor *model.User, comment string) error
	Reject(ctx context.Context, sheetID string, actor *model.User, reason string) error

	// 审批收件箱与历史
	ListPending(filter *repository.ApprovalItemFilter) ([]*model.ApprovalItem, error)
	History(sheetID string) ([]*model.StateHistory, error)
}

// SaveWorkflowRequest 保存审批矩阵请求
// @Description 整体替换指定类型审批矩阵的层级配置
type SaveWorkflowRequest struct {
	Type   model.WorkflowType   `json:"type" example:"budget" binding:"required"` // budget 或 contract
	Levels []WorkflowLevelInput `json:"levels" binding:"required"`                // 审批层级,层级 1 必须存在
}

// WorkflowLevelInput 审批层级输入
type WorkflowLevelInput struct {
	Level       int    `json:"level" example:"1" binding:"required"`                    // 层级号,允许不连续
	RoleKey     string `json:"role_key" example:"dept_head" binding:"required"`         // 稳定角色标识
	RoleLabel   string `json:"role_label" example:"Department Head" binding:"required"` // 展示名
	Description string `json:"description"`                                             // 说明
}

// Broadcaster 审批事件的实时广播出口
// 由 websocket Hub 实现,nil 时跳过广播
type Broadcaster interface {
	BroadcastToRole(roleKey string, message []byte)
}

type workflowService struct {
	db           *gorm.DB
	workflowRepo repository.WorkflowRepository
	sheetRepo    repository.SheetRepository
	itemRepo     repository.ApprovalItemRepository
	historyRepo  repository.StateHistoryRepository
	hierarchySvc HierarchyService
	auditLogSvc  AuditLogService
	notifier     notify.Notifier
	broadcaster  Broadcaster
	logger       *logrus.Logger
}

// NewWorkflowService 创建审批流引擎
func NewWorkflowService(
	db *gorm.DB,
	workflowRepo repository.WorkflowRepository,
	sheetRepo repository.SheetRepository,
	itemRepo repository.ApprovalItemRepository,
	historyRepo repository.StateHistoryRepository,
	hierarchySvc HierarchyService,
	auditLogSvc AuditLogService,
	notifier notify.Notifier,
	broadcaster Broadcaster,
	logger *logrus.Logger,
) WorkflowService {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &workflowService{
		db:           db,
		workflowRepo: workflowRepo,
		sheetRepo:    sheetRepo,
		itemRepo:     itemRepo,
		historyRepo:  historyRepo,
		hierarchySvc: hierarchySvc,
		auditLogSvc:  auditLogSvc,
		notifier:     notifier,
		broadcaster:  broadcaster,
		logger:       logger,
	}
}

// SaveWorkflow 保存审批矩阵,整体替换层级
// 已提交的预算表引用提交时刻的快照,不受矩阵变更影响
func (s *workflowService) SaveWorkflow(ctx context.Context, req *SaveWorkflowRequest) (*model.ApprovalWorkflow, error) {
	now := time.Now()
	workflow := &model.ApprovalWorkflow{
		Type:      req.Type,
		CreatedAt: now,
		UpdatedAt: now,
		Levels:    make([]model.ApprovalLevel, 0, len(req.Levels)),
	}
	for _, lvl := range req.Levels {
		workflow.Levels = append(workflow.Levels, model.ApprovalLevel{
			WorkflowType: req.Type,
			Level:        lvl.Level,
			RoleKey:      lvl.RoleKey,
			RoleLabel:    lvl.RoleLabel,
			Description:  lvl.Description,
		})
	}
	if err := workflow.Validate(); err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, err, "invalid workflow")
	}
	if err := s.workflowRepo.Save(workflow); err != nil {
		return nil, fmt.Errorf("failed to save workflow: %w", err)
	}

	s.audit(ctx, "update", "workflow", string(req.Type), fmt.Sprintf(`{"levels":%d}`, len(req.Levels)))
	return workflow, nil
}

// GetWorkflow 获取审批矩阵
func (s *workflowService) GetWorkflow(t model.WorkflowType) (*model.ApprovalWorkflow, error) {
	workflow, err := s.workflowRepo.FindByType(t)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("workflow", string(t))
		}
		return nil, err
	}
	return workflow, nil
}

// ListWorkflows 列出所有审批矩阵
func (s *workflowService) ListWorkflows() ([]*model.ApprovalWorkflow, error) {
	return s.workflowRepo.FindAll()
}

// Submit 提交预算表进入审批
// 仅草稿可提交;提交时固化审批链快照并进入排序后的第一个层级
func (s *workflowService) Submit(ctx context.Context, sheetID string, actor *model.User) error {
	sheet, err := s.sheetRepo.FindByID(sheetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("sheet", sheetID)
		}
		return err
	}
	if sheet.Status != model.SheetStatusDraft {
		return apperrors.InvalidState("sheet %s is %s, only draft sheets can be submitted", sheetID, sheet.Status)
	}

	// 查找并校验审批矩阵:层级 1 缺失视为配置错误
	workflow, err := s.workflowRepo.FindByType(model.WorkflowTypeBudget)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.Configuration("no approval workflow configured for type %s", model.WorkflowTypeBudget)
		}
		return err
	}
	if err := workflow.Validate(); err != nil {
		return apperrors.Wrap(apperrors.KindConfiguration, err, "approval workflow for %s is invalid", model.WorkflowTypeBudget)
	}

	snapshot := workflow.Snapshot()
	entry, ok := snapshot.First()
	if !ok || entry.Level != 1 {
		return apperrors.Configuration("approval workflow for %s has no level 1 entry", model.WorkflowTypeBudget)
	}
	snapshotData, err := snapshot.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal workflow snapshot: %w", err)
	}

	now := time.Now()
	totalValue := sheet.TotalValue()
	actorID := actorID(actor)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// 乐观锁:读到的版本被并发修改时放弃,调用方基于新状态重试
		res := tx.Model(&model.BudgetSheet{}).
			Where("id = ? AND version = ? AND status = ?", sheet.ID, sheet.Version, model.SheetStatusDraft).
			Updates(map[string]interface{}{
				"status":            model.SheetStatusPending,
				"current_level":     entry.Level,
				"workflow_snapshot": snapshotData,
				"version":           sheet.Version + 1,
				"submitted_by":      actorID,
				"submitted_at":      now,
				"updated_at":        now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.Conflict("sheet %s was modified concurrently, retry with fresh state", sheet.ID)
		}

		item := &model.ApprovalItem{
			ID:             uuid.New().String(),
			SheetID:        sheet.ID,
			SheetType:      sheet.Type,
			WorkflowType:   model.WorkflowTypeBudget,
			OrganizationID: sheet.OrganizationID,
			DepartmentID:   sheet.DepartmentID,
			Year:           sheet.Year,
			TotalValue:     totalValue,
			Level:          entry.Level,
			RoleKey:        entry.RoleKey,
			SubmittedBy:    actorID,
			SubmittedOn:    now,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := tx.Create(item).Error; err != nil {
			return fmt.Errorf("failed to create approval item: %w", err)
		}

		history := &model.StateHistory{
			ID:        uuid.New().String(),
			SheetID:   sheet.ID,
			FromState: string(model.SheetStatusDraft),
			ToState:   string(model.SheetStatusPending),
			Level:     entry.Level,
			Operator:  actorID,
			CreatedAt: now,
		}
		return tx.Create(history).Error
	})
	if err != nil {
		return err
	}

	metrics.RecordSheetSubmitted()
	s.audit(ctx, "submit", "sheet", sheet.ID, fmt.Sprintf(`{"level":%d,"role_key":%q}`, entry.Level, entry.RoleKey))
	s.notifyLevel(sheet, entry, totalValue)
	return nil
}

// Approve 当前层级审批通过
// 角色不匹配返回授权错误;有下一层级则推进,否则进入终态 Approved
func (s *workflowService) Approve(ctx context.Context, sheetID string, actor *model.User, comment string) error {
	sheet, snapshot, current, err := s.pendingSheet(sheetID)
	if err != nil {
		return err
	}
	if err := s.authorize(actor, current); err != nil {
		return err
	}

	next, hasNext := snapshot.NextAfter(current.Level)
	now := time.Now()
	totalValue := sheet.TotalValue()
	actorID := actorID(actor)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"version":    sheet.Version + 1,
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

		res := tx.Model(&model.BudgetSheet{}).
			Where("id = ? AND version = ? AND status = ?", sheet.ID, sheet.Version, model.SheetStatusPending).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.Conflict("sheet %s was modified concurrently, retry with fresh state", sheet.ID)
		}

		if hasNext {
			// 推进收件箱条目到下一层级
			if err := tx.Model(&model.ApprovalItem{}).
				Where("sheet_id = ?", sheet.ID).
				Updates(map[string]interface{}{
					"level":      next.Level,
					"role_key":   next.RoleKey,
					"updated_at": now,
				}).Error; err != nil {
				return fmt.Errorf("failed to advance approval item: %w", err)
			}
		} else {
			if err := tx.Delete(&model.ApprovalItem{}, "sheet_id = ?", sheet.ID).Error; err != nil {
				return fmt.Errorf("failed to remove approval item: %w", err)
			}
		}

		history := &model.StateHistory{
			ID:        uuid.New().String(),
			SheetID:   sheet.ID,
			FromState: string(model.SheetStatusPending),
			ToState:   string(toState),
			Level:     current.Level,
			Reason:    comment,
			Operator:  actorID,
			CreatedAt: now,
		}
		return tx.Create(history).Error
	})
	if err != nil {
		return err
	}

	metrics.RecordApproval("approve")
	s.audit(ctx, "approve", "sheet", sheet.ID, fmt.Sprintf(`{"level":%d,"comment":%q}`, current.Level, comment))

	if hasNext {
		s.notifyLevel(sheet, next, totalValue)
	} else {
		s.notifyFinal(sheet, notify.KindApproved, totalValue)
	}
	return nil
}

// Reject 当前层级审批拒绝
// 任一层级拒绝直接进入终态 Rejected,跳过剩余层级,并通知提交人
func (s *workflowService) Reject(ctx context.Context, sheetID string, actor *model.User, reason string) error {
	sheet, _, current, err := s.pendingSheet(sheetID)
	if err != nil {
		return err
	}
	if err := s.authorize(actor, current); err != nil {
		return err
	}

	now := time.Now()
	totalValue := sheet.TotalValue()
	actorID := actorID(actor)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.BudgetSheet{}).
			Where("id = ? AND version = ? AND status = ?", sheet.ID, sheet.Version, model.SheetStatusPending).
			Updates(map[string]interface{}{
				"status":        model.SheetStatusRejected,
				"current_level": 0,
				"version":       sheet.Version + 1,
				"updated_at":    now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.Conflict("sheet %s was modified concurrently, retry with fresh state", sheet.ID)
		}

		if err := tx.Delete(&model.ApprovalItem{}, "sheet_id = ?", sheet.ID).Error; err != nil {
			return fmt.Errorf("failed to remove approval item: %w", err)
		}

		history := &model.StateHistory{
			ID:        uuid.New().String(),
			SheetID:   sheet.ID,
			FromState: string(model.SheetStatusPending),
			ToState:   string(model.SheetStatusRejected),
			Level:     current.Level,
			Reason:    reason,
			Operator:  actorID,
			CreatedAt: now,
		}
		return tx.Create(history).Error
	})
	if err != nil {
		return err
	}

	metrics.RecordApproval("reject")
	s.audit(ctx, "reject", "sheet", sheet.ID, fmt.Sprintf(`{"level":%d,"reason":%q}`, current.Level, reason))
	s.notifyFinal(sheet, notify.KindRejected, totalValue)
	return nil
}

// ListPending 查询审批收件箱
func (s *workflowService) ListPending(filter *repository.ApprovalItemFilter) ([]*model.ApprovalItem, error) {
	return s.itemRepo.FindByFilter(filter)
}

// History 查询预算表的状态迁移历史
func (s *workflowService) History(sheetID string) ([]*model.StateHistory, error) {
	return s.historyRepo.FindBySheetID(sheetID)
}

// pendingSheet 加载审批中的预算表及其快照与当前层级
// 终态与草稿一律拒绝
func (s *workflowService) pendingSheet(sheetID string) (*model.BudgetSheet, *model.WorkflowSnapshot, *model.ApprovalLevel, error) {
	sheet, err := s.sheetRepo.FindByID(sheetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, apperrors.NotFound("sheet", sheetID)
		}
		return nil, nil, nil, err
	}
	if sheet.Status != model.SheetStatusPending {
		return nil, nil, nil, apperrors.InvalidState("sheet %s is %s, no approval action is possible", sheetID, sheet.Status)
	}

	snapshot, err := model.UnmarshalWorkflowSnapshot(sheet.WorkflowSnapshot)
	if err != nil {
		return nil, nil, nil, apperrors.Wrap(apperrors.KindConfiguration, err, "sheet %s has no usable workflow snapshot", sheetID)
	}
	current, ok := snapshot.LevelAt(sheet.CurrentLevel)
	if !ok {
		return nil, nil, nil, apperrors.Configuration("sheet %s points at level %d which is absent from its snapshot", sheetID, sheet.CurrentLevel)
	}
	return sheet, snapshot, current, nil
}

// authorize 校验操作者角色与当前层级角色一致
// 只比较稳定的 RoleKey,模块权限再高也不能越过角色匹配
func (s *workflowService) authorize(actor *model.User, level *model.ApprovalLevel) error {
	if actor == nil {
		return apperrors.Authorization("acting user is required")
	}
	if actor.RoleKey != level.RoleKey {
		return apperrors.Authorization("role %q cannot act at level %d, expected role %q", actor.RoleKey, level.Level, level.RoleKey)
	}
	return nil
}

// notifyLevel 通知进入新层级的审批角色
// 投递失败绝不回滚已提交的状态迁移
func (s *workflowService) notifyLevel(sheet *model.BudgetSheet, level *model.ApprovalLevel, totalValue float64) {
	orgName, deptName := s.resolveNames(sheet)
	n := &notify.Notification{
		Kind:         notify.KindApprovalRequest,
		RoleKey:      level.RoleKey,
		SheetID:      sheet.ID,
		SheetType:    string(sheet.Type),
		Organization: orgName,
		Department:   deptName,
		Year:         sheet.Year,
		TotalValue:   totalValue,
		Level:        level.Level,
	}
	s.notifier.Notify(n)
	s.broadcast(level.RoleKey, n)
}

// notifyFinal 终态通知提交人
func (s *workflowService) notifyFinal(sheet *model.BudgetSheet, kind notify.Kind, totalValue float64) {
	orgName, deptName := s.resolveNames(sheet)
	n := &notify.Notification{
		Kind:         kind,
		Recipient:    sheet.SubmittedBy,
		SheetID:      sheet.ID,
		SheetType:    string(sheet.Type),
		Organization: orgName,
		Department:   deptName,
		Year:         sheet.Year,
		TotalValue:   totalValue,
	}
	s.notifier.Notify(n)
}

// resolveNames 将组织/部门 ID 解析为名称,解析失败退回 ID
func (s *workflowService) resolveNames(sheet *model.BudgetSheet) (string, string) {
	orgName, deptName := sheet.OrganizationID, sheet.DepartmentID
	chain, err := s.hierarchySvc.ResolveAncestors(NodeDepartment, sheet.DepartmentID)
	if err != nil {
		s.logger.WithError(err).WithField("sheet_id", sheet.ID).Warn("failed to resolve hierarchy names for notification")
		return orgName, deptName
	}
	if chain.Organization != nil {
		orgName = chain.Organization.Name
	}
	if chain.Department != nil {
		deptName = chain.Department.Name
	}
	return orgName, deptName
}

// broadcast 向角色的在线客户端推送审批事件
func (s *workflowService) broadcast(roleKey string, n *notify.Notification) {
	if s.broadcaster == nil {
		return
	}
	msg := fmt.Sprintf(`{"kind":%q,"sheet_id":%q,"level":%d}`, n.Kind, n.SheetID, n.Level)
	s.broadcaster.BroadcastToRole(roleKey, []byte(msg))
}

// audit 记录审计日志,失败不影响业务操作
func (s *workflowService) audit(ctx context.Context, action, resourceType, resourceID, details string) {
	if s.auditLogSvc == nil {
		return
	}
	userID := getUserIDFromContext(ctx)
	if userID == "" {
		userID = "system"
	}
	_ = s.auditLogSvc.RecordAction(ctx, userID, action, resourceType, resourceID, details)
}

// actorID 提取操作者 ID,空操作者记为 system
func actorID(actor *model.User) string {
	if actor == nil {
		return "system"
	}
	return actor.ID
}
