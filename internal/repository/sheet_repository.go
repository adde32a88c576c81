package repository

import (
	"errors"
	"time"

	"github.com/mautops/budget-gin/internal/model"
	"gorm.io/gorm"
)

// ErrSheetNotDraft 行项写入时预算表已不在草稿状态
// 并发提交可能在状态预检之后把预算表推入待审
var ErrSheetNotDraft = errors.New("sheet is not draft")

// SheetRepository 预算表仓储接口
type SheetRepository interface {
	Save(sheet *model.BudgetSheet) error
	FindByID(id string) (*model.BudgetSheet, error)
	FindByFilter(filter *SheetFilter) ([]*model.BudgetSheet, error)
	Delete(id string) error

	SaveItemInDraft(sheetID string, item *model.BudgetItem) error
	FindItemByID(id string) (*model.BudgetItem, error)
	DeleteItemInDraft(sheetID, itemID string) error
	CountItems(sheetID string) (int64, error)
}

// SheetFilter 预算表查询过滤器
type SheetFilter struct {
	Type           *model.SheetType
	Status         *model.SheetStatus
	OrganizationID *string
	DepartmentID   *string
	Year           *int
	SubmittedBy    *string
}

// sheetRepository 预算表仓储实现
type sheetRepository struct {
	db *gorm.DB
}

// NewSheetRepository 创建预算表仓储
func NewSheetRepository(db *gorm.DB) SheetRepository {
	return &sheetRepository{db: db}
}

// Save 保存预算表
func (r *sheetRepository) Save(sheet *model.BudgetSheet) error {
	return r.db.Save(sheet).Error
}

// FindByID 根据 ID 查找预算表,预加载行项
// 行项按创建顺序排序,参考编号的序号依赖稳定顺序
func (r *sheetRepository) FindByID(id string) (*model.BudgetSheet, error) {
	var sheet model.BudgetSheet
	if err := r.db.Preload("Items", itemOrder).Where("id = ?", id).First(&sheet).Error; err != nil {
		return nil, err
	}
	return &sheet, nil
}

// itemOrder 行项的稳定排序,created_at 相同时按 id 决胜
func itemOrder(db *gorm.DB) *gorm.DB {
	return db.Order("created_at, id")
}

// FindByFilter 根据过滤器查找预算表
func (r *sheetRepository) FindByFilter(filter *SheetFilter) ([]*model.BudgetSheet, error) {
	var sheets []*model.BudgetSheet
	query := r.db.Model(&model.BudgetSheet{}).Preload("Items", itemOrder)

	if filter != nil {
		if filter.Type != nil {
			query = query.Where("type = ?", *filter.Type)
		}
		if filter.Status != nil {
			query = query.Where("status = ?", *filter.Status)
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
		if filter.SubmittedBy != nil {
			query = query.Where("submitted_by = ?", *filter.SubmittedBy)
		}
	}

	err := query.Order("created_at DESC").Find(&sheets).Error
	return sheets, err
}

// Delete 删除预算表及其行项
func (r *sheetRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.BudgetItem{}, "sheet_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&model.BudgetSheet{}, "id = ?", id).Error
	})
}

// SaveItemInDraft 保存行项,在同一事务内确认预算表仍为草稿
// 状态守卫写在事务里,挡住预检和写入之间并发提交的竞争
func (r *sheetRepository) SaveItemInDraft(sheetID string, item *model.BudgetItem) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := r.guardDraft(tx, sheetID); err != nil {
			return err
		}
		return tx.Save(item).Error
	})
}

// FindItemByID 根据 ID 查找行项
func (r *sheetRepository) FindItemByID(id string) (*model.BudgetItem, error) {
	var item model.BudgetItem
	if err := r.db.Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteItemInDraft 删除行项,在同一事务内确认预算表仍为草稿
func (r *sheetRepository) DeleteItemInDraft(sheetID, itemID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := r.guardDraft(tx, sheetID); err != nil {
			return err
		}
		return tx.Delete(&model.BudgetItem{}, "id = ?", itemID).Error
	})
}

// guardDraft 带守卫地触碰预算表行
// 命中 0 行说明预算表缺失或已离开草稿状态
func (r *sheetRepository) guardDraft(tx *gorm.DB, sheetID string) error {
	res := tx.Model(&model.BudgetSheet{}).
		Where("id = ? AND status = ?", sheetID, model.SheetStatusDraft).
		Update("updated_at", time.Now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSheetNotDraft
	}
	return nil
}

// CountItems 统计预算表的行项数
func (r *sheetRepository) CountItems(sheetID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.BudgetItem{}).Where("sheet_id = ?", sheetID).Count(&count).Error
	return count, err
}
