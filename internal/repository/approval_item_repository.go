package repository

import (
	"github.com/mautops/budget-gin/internal/model"
	"gorm.io/gorm"
)

// ApprovalItemRepository 审批收件箱仓储接口
type ApprovalItemRepository interface {
	Save(item *model.ApprovalItem) error
	FindBySheetID(sheetID string) (*model.ApprovalItem, error)
	FindByFilter(filter *ApprovalItemFilter) ([]*model.ApprovalItem, error)
	DeleteBySheetID(sheetID string) error
}

// ApprovalItemFilter 审批收件箱查询过滤器
type ApprovalItemFilter struct {
	RoleKey        *string
	WorkflowType   *model.WorkflowType
	OrganizationID *string
	DepartmentID   *string
	Year           *int
}

// approvalItemRepository 审批收件箱仓储实现
type approvalItemRepository struct {
	db *gorm.DB
}

// NewApprovalItemRepository 创建审批收件箱仓储
func NewApprovalItemRepository(db *gorm.DB) ApprovalItemRepository {
	return &approvalItemRepository{db: db}
}

// Save 保存审批条目
func (r *approvalItemRepository) Save(item *model.ApprovalItem) error {
	return r.db.Save(item).Error
}

// FindBySheetID 根据预算表 ID 查找审批条目
func (r *approvalItemRepository) FindBySheetID(sheetID string) (*model.ApprovalItem, error) {
	var item model.ApprovalItem
	if err := r.db.Where("sheet_id = ?", sheetID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindByFilter 根据过滤器查找审批条目
func (r *approvalItemRepository) FindByFilter(filter *ApprovalItemFilter) ([]*model.ApprovalItem, error) {
	var items []*model.ApprovalItem
	query := r.db.Model(&model.ApprovalItem{})

	if filter != nil {
		if filter.RoleKey != nil {
			query = query.Where("role_key = ?", *filter.RoleKey)
		}
		if filter.WorkflowType != nil {
			query = query.Where("workflow_type = ?", *filter.WorkflowType)
		}
		if filter.OrganizationID != nil {
			query = query.Where("organization_id = ?", *filter.OrganizationID)
		}
		if filter.DepartmentID != nil {
			query = query.Where("department_id = ?", *filter.DepartmentID)
		}
		if filter.Year != nil {
			query = query.Where("year = ?", *filter.Year)
		}
	}

	err := query.Order("submitted_on ASC").Find(&items).Error
	return items, err
}

// DeleteBySheetID 根据预算表 ID 删除审批条目
func (r *approvalItemRepository) DeleteBySheetID(sheetID string) error {
	return r.db.Delete(&model.ApprovalItem{}, "sheet_id = ?", sheetID).Error
}
