package repository

import (
	"github.com/mautops/budget-gin/internal/model"
	"gorm.io/gorm"
)

// StateHistoryRepository 状态历史仓储接口
type StateHistoryRepository interface {
	Save(history *model.StateHistory) error
	FindBySheetID(sheetID string) ([]*model.StateHistory, error)
}

// stateHistoryRepository 状态历史仓储实现
type stateHistoryRepository struct {
	db *gorm.DB
}

// NewStateHistoryRepository 创建状态历史仓储
func NewStateHistoryRepository(db *gorm.DB) StateHistoryRepository {
	return &stateHistoryRepository{db: db}
}

// Save 保存状态历史
func (r *stateHistoryRepository) Save(history *model.StateHistory) error {
	return r.db.Create(history).Error
}

// FindBySheetID 按时间序查找预算表的状态历史
func (r *stateHistoryRepository) FindBySheetID(sheetID string) ([]*model.StateHistory, error) {
	var histories []*model.StateHistory
	err := r.db.Where("sheet_id = ?", sheetID).Order("created_at ASC").Find(&histories).Error
	return histories, err
}
