package repository

import (
	"github.com/mautops/budget-gin/internal/model"
	"gorm.io/gorm"
)

// WorkflowRepository 审批矩阵仓储接口
type WorkflowRepository interface {
	Save(workflow *model.ApprovalWorkflow) error
	FindByType(t model.WorkflowType) (*model.ApprovalWorkflow, error)
	FindAll() ([]*model.ApprovalWorkflow, error)
	Delete(t model.WorkflowType) error
}

// workflowRepository 审批矩阵仓储实现
type workflowRepository struct {
	db *gorm.DB
}

// NewWorkflowRepository 创建审批矩阵仓储
func NewWorkflowRepository(db *gorm.DB) WorkflowRepository {
	return &workflowRepository{db: db}
}

// Save 保存审批矩阵,层级整体替换
func (r *workflowRepository) Save(workflow *model.ApprovalWorkflow) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.ApprovalLevel{}, "workflow_type = ?", workflow.Type).Error; err != nil {
			return err
		}
		if err := tx.Omit("Levels").Save(workflow).Error; err != nil {
			return err
		}
		for i := range workflow.Levels {
			workflow.Levels[i].WorkflowType = workflow.Type
			if err := tx.Create(&workflow.Levels[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// FindByType 根据类型查找审批矩阵
func (r *workflowRepository) FindByType(t model.WorkflowType) (*model.ApprovalWorkflow, error) {
	var workflow model.ApprovalWorkflow
	if err := r.db.Preload("Levels").Where("type = ?", t).First(&workflow).Error; err != nil {
		return nil, err
	}
	return &workflow, nil
}

// FindAll 查找所有审批矩阵
func (r *workflowRepository) FindAll() ([]*model.ApprovalWorkflow, error) {
	var workflows []*model.ApprovalWorkflow
	err := r.db.Preload("Levels").Find(&workflows).Error
	return workflows, err
}

// Delete 删除审批矩阵及其层级
func (r *workflowRepository) Delete(t model.WorkflowType) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.ApprovalLevel{}, "workflow_type = ?", t).Error; err != nil {
			return err
		}
		return tx.Delete(&model.ApprovalWorkflow{}, "type = ?", t).Error
	})
}
