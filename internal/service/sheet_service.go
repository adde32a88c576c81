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
	"gorm.io/gorm"
)

// SheetService 预算表聚合服务接口
// 行项只在草稿状态可变,合计每次读取重算
type SheetService interface {
	Create(ctx context.Context, req *CreateSheetRequest) (*SheetView, error)
	Get(id string) (*SheetView, error)
	List(filter *repository.SheetFilter) ([]*SheetView, error)
	Delete(ctx context.Context, id string) error

	AddItem(ctx context.Context, sheetID string, req *SheetItemRequest) (*SheetView, error)
	UpdateItem(ctx context.Context, sheetID, itemID string, req *SheetItemRequest) (*SheetView, error)
	RemoveItem(ctx context.Context, sheetID, itemID string) (*SheetView, error)
}

// CreateSheetRequest 创建预算表请求
// @Description 创建预算表的请求参数
type CreateSheetRequest struct {
	Type           model.SheetType `json:"type" example:"CAPEX" binding:"required"`               // CAPEX 或 OPEX
	OrganizationID string          `json:"organization_id" example:"org-001" binding:"required"`  // 组织 ID
	DepartmentID   string          `json:"department_id" example:"dept-001" binding:"required"`   // 部门 ID
	Year           int             `json:"year" example:"2026" binding:"required"`                // 预算年度
}

// SheetItemRequest 预算行项请求
// @Description 新增/更新预算行项的请求参数
type SheetItemRequest struct {
	Description    string  `json:"description" example:"Rack servers" binding:"required"` // 描述
	Quantity       int     `json:"quantity" example:"3"`                                  // 数量(CAPEX)
	Amount         float64 `json:"amount" example:"1000" binding:"required"`              // 金额
	Period         string  `json:"period" example:"Quarterly"`                            // 周期(OPEX)
	Priority       string  `json:"priority" example:"High"`                               // 优先级(CAPEX)
	Justification  string  `json:"justification"`                                         // 采购理由(CAPEX)
	Implementation string  `json:"implementation"`                                        // 实施说明(OPEX)
	Supplier       string  `json:"supplier" example:"Dell"`                               // 供应商
	Remarks        string  `json:"remarks"`                                               // 备注
}

// SheetItemView 行项视图,带行合计与派生参考编号
type SheetItemView struct {
	model.BudgetItem
	LineTotal float64 `json:"line_total"`
	// ReferenceCode 形如 ORG/DEPT/YEAR/NNN 的展示编号
	// 由当前组织/部门名称派生,改名后会变化,绝不能当作稳定标识
	ReferenceCode string `json:"reference_code"`
}

// SheetView 预算表视图,合计在读取时重算
type SheetView struct {
	model.BudgetSheet
	TotalValue float64         `json:"total_value"`
	Items      []SheetItemView `json:"items"`
}

type sheetService struct {
	repo         repository.SheetRepository
	hierarchySvc HierarchyService
	auditLogSvc  AuditLogService
}

// NewSheetService 创建预算表服务
func NewSheetService(repo repository.SheetRepository, hierarchySvc HierarchyService, auditLogSvc AuditLogService) SheetService {
	return &sheetService{
		repo:         repo,
		hierarchySvc: hierarchySvc,
		auditLogSvc:  auditLogSvc,
	}
}

// Create 创建预算表,初始为空行项的草稿
func (s *sheetService) Create(ctx context.Context, req *CreateSheetRequest) (*SheetView, error) {
	if req.Type != model.SheetTypeCAPEX && req.Type != model.SheetTypeOPEX {
		return nil, apperrors.Validation("sheet type must be CAPEX or OPEX, got %q", req.Type)
	}
	if req.Year < 2000 || req.Year > 2200 {
		return nil, apperrors.Validation("year %d is out of range", req.Year)
	}

	// 部门必须归属于给定组织
	chain, err := s.hierarchySvc.ResolveAncestors(NodeDepartment, req.DepartmentID)
	if err != nil {
		return nil, err
	}
	if chain.Organization == nil || chain.Organization.ID != req.OrganizationID {
		return nil, apperrors.Validation("department %s does not belong to organization %s", req.DepartmentID, req.OrganizationID)
	}

	now := time.Now()
	sheet := &model.BudgetSheet{
		ID:             uuid.New().String(),
		Type:           req.Type,
		OrganizationID: req.OrganizationID,
		DepartmentID:   req.DepartmentID,
		Year:           req.Year,
		Status:         model.SheetStatusDraft,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := sheet.Validate(); err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, err, "invalid sheet")
	}
	if err := s.repo.Save(sheet); err != nil {
		return nil, fmt.Errorf("failed to save sheet: %w", err)
	}

	s.audit(ctx, "create", "sheet", sheet.ID, fmt.Sprintf(`{"type":%q,"year":%d}`, sheet.Type, sheet.Year))
	return s.buildView(sheet)
}

// Get 获取预算表,合计与参考编号在此处派生
func (s *sheetService) Get(id string) (*SheetView, error) {
	sheet, err := s.findSheet(id)
	if err != nil {
		return nil, err
	}
	return s.buildView(sheet)
}

// List 查询预算表
func (s *sheetService) List(filter *repository.SheetFilter) ([]*SheetView, error) {
	sheets, err := s.repo.FindByFilter(filter)
	if err != nil {
		return nil, err
	}
	views := make([]*SheetView, 0, len(sheets))
	for _, sheet := range sheets {
		view, err := s.buildView(sheet)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// Delete 删除预算表,仅草稿可删
func (s *sheetService) Delete(ctx context.Context, id string) error {
	sheet, err := s.findSheet(id)
	if err != nil {
		return err
	}
	if sheet.Status != model.SheetStatusDraft {
		return apperrors.InvalidState("sheet %s is %s, only draft sheets can be deleted", id, sheet.Status)
	}
	if err := s.repo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete sheet: %w", err)
	}

	s.audit(ctx, "delete", "sheet", id, `{}`)
	return nil
}

// AddItem 新增行项,仅草稿状态允许
func (s *sheetService) AddItem(ctx context.Context, sheetID string, req *SheetItemRequest) (*SheetView, error) {
	sheet, err := s.mutableSheet(sheetID)
	if err != nil {
		return nil, err
	}
	if err := validateItemRequest(sheet.Type, req); err != nil {
		return nil, err
	}

	now := time.Now()
	item := &model.BudgetItem{
		ID:             uuid.New().String(),
		SheetID:        sheet.ID,
		Description:    strings.TrimSpace(req.Description),
		Quantity:       req.Quantity,
		Amount:         req.Amount,
		Period:         req.Period,
		Priority:       req.Priority,
		Justification:  req.Justification,
		Implementation: req.Implementation,
		Supplier:       req.Supplier,
		Remarks:        req.Remarks,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.SaveItemInDraft(sheet.ID, item); err != nil {
		return nil, mapItemWriteError(sheet.ID, err)
	}

	s.audit(ctx, "update", "sheet", sheet.ID, fmt.Sprintf(`{"op":"add_item","item_id":%q}`, item.ID))
	return s.Get(sheet.ID)
}

// UpdateItem 更新行项,仅草稿状态允许
func (s *sheetService) UpdateItem(ctx context.Context, sheetID, itemID string, req *SheetItemRequest) (*SheetView, error) {
	sheet, err := s.mutableSheet(sheetID)
	if err != nil {
		return nil, err
	}
	if err := validateItemRequest(sheet.Type, req); err != nil {
		return nil, err
	}

	item, err := s.repo.FindItemByID(itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("budget item", itemID)
		}
		return nil, err
	}
	if item.SheetID != sheet.ID {
		return nil, apperrors.Validation("item %s does not belong to sheet %s", itemID, sheetID)
	}

	item.Description = strings.TrimSpace(req.Description)
	item.Quantity = req.Quantity
	item.Amount = req.Amount
	item.Period = req.Period
	item.Priority = req.Priority
	item.Justification = req.Justification
	item.Implementation = req.Implementation
	item.Supplier = req.Supplier
	item.Remarks = req.Remarks
	item.UpdatedAt = time.Now()
	if err := s.repo.SaveItemInDraft(sheet.ID, item); err != nil {
		return nil, mapItemWriteError(sheet.ID, err)
	}

	s.audit(ctx, "update", "sheet", sheet.ID, fmt.Sprintf(`{"op":"update_item","item_id":%q}`, itemID))
	return s.Get(sheet.ID)
}

// RemoveItem 删除行项,仅草稿状态允许
func (s *sheetService) RemoveItem(ctx context.Context, sheetID, itemID string) (*SheetView, error) {
	sheet, err := s.mutableSheet(sheetID)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindItemByID(itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("budget item", itemID)
		}
		return nil, err
	}
	if item.SheetID != sheet.ID {
		return nil, apperrors.Validation("item %s does not belong to sheet %s", itemID, sheetID)
	}
	if err := s.repo.DeleteItemInDraft(sheet.ID, itemID); err != nil {
		return nil, mapItemWriteError(sheet.ID, err)
	}

	s.audit(ctx, "update", "sheet", sheet.ID, fmt.Sprintf(`{"op":"remove_item","item_id":%q}`, itemID))
	return s.Get(sheet.ID)
}

// audit 记录审计日志,失败不影响业务操作
func (s *sheetService) audit(ctx context.Context, action, resourceType, resourceID, details string) {
	if s.auditLogSvc == nil {
		return
	}
	userID := getUserIDFromContext(ctx)
	if userID == "" {
		userID = "system"
	}
	_ = s.auditLogSvc.RecordAction(ctx, userID, action, resourceType, resourceID, details)
}

// findSheet 查找预算表
func (s *sheetService) findSheet(id string) (*model.BudgetSheet, error) {
	sheet, err := s.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("sheet", id)
		}
		return nil, err
	}
	return sheet, nil
}

// mutableSheet 查找预算表并校验其可编辑性
// 非草稿状态的预算表行项不可变
// 这里只是预检,事务内的状态守卫才是最终裁决
func (s *sheetService) mutableSheet(id string) (*model.BudgetSheet, error) {
	sheet, err := s.findSheet(id)
	if err != nil {
		return nil, err
	}
	if sheet.Status != model.SheetStatusDraft {
		return nil, apperrors.InvalidState("sheet %s is %s, items are immutable outside draft", id, sheet.Status)
	}
	return sheet, nil
}

// mapItemWriteError 转换行项写入错误
// 并发提交击穿预检时守卫返回 ErrSheetNotDraft
func mapItemWriteError(sheetID string, err error) error {
	if errors.Is(err, repository.ErrSheetNotDraft) {
		return apperrors.InvalidState("sheet %s left draft during item write, items are immutable outside draft", sheetID)
	}
	return fmt.Errorf("failed to write item: %w", err)
}

// validateItemRequest 校验行项输入
// 未知周期在入库时即拒绝,不靠展示层的 0 兜底
func validateItemRequest(sheetType model.SheetType, req *SheetItemRequest) error {
	if strings.TrimSpace(req.Description) == "" {
		return apperrors.Validation("item description is required")
	}
	if req.Amount < 0 {
		return apperrors.Validation("item amount must not be negative")
	}
	switch sheetType {
	case model.SheetTypeCAPEX:
		if req.Quantity <= 0 {
			return apperrors.Validation("CAPEX item quantity must be positive")
		}
	case model.SheetTypeOPEX:
		if !model.ValidPeriod(req.Period) {
			return apperrors.Validation("unknown OPEX period %q, expected Monthly, Quarterly or Annually", req.Period)
		}
	}
	return nil
}

// buildView 构建视图:重算合计并派生参考编号
func (s *sheetService) buildView(sheet *model.BudgetSheet) (*SheetView, error) {
	orgName, deptName := sheet.OrganizationID, sheet.DepartmentID
	chain, err := s.hierarchySvc.ResolveAncestors(NodeDepartment, sheet.DepartmentID)
	if err == nil && chain.Organization != nil && chain.Department != nil {
		orgName = chain.Organization.Name
		deptName = chain.Department.Name
	}

	view := &SheetView{
		BudgetSheet: *sheet,
		TotalValue:  sheet.TotalValue(),
		Items:       make([]SheetItemView, 0, len(sheet.Items)),
	}
	for i := range sheet.Items {
		item := sheet.Items[i]
		view.Items = append(view.Items, SheetItemView{
			BudgetItem:    item,
			LineTotal:     item.LineTotal(sheet.Type),
			ReferenceCode: ReferenceCode(orgName, deptName, sheet.Year, i+1),
		})
	}
	view.BudgetSheet.Items = nil
	return view, nil
}

// ReferenceCode 生成展示用参考编号 ORG3/DEPT4/YEAR/NNN
// 取组织名前 3 位与部门名前 4 位大写,序号三位补零
// 派生值不持久化,组织或部门改名后编号随之变化
func ReferenceCode(orgName, deptName string, year, index int) string {
	return fmt.Sprintf("%s/%s/%d/%03d", prefix(orgName, 3), prefix(deptName, 4), year, index)
}

// prefix 取字符串前 n 个字符并大写,忽略空白
func prefix(s string, n int) string {
	compact := strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	runes := []rune(compact)
	if len(runes) > n {
		runes = runes[:n]
	}
	return strings.ToUpper(string(runes))
}
