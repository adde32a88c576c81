package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/mautops/budget-gin/internal/database"
	"github.com/mautops/budget-gin/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newSheetRepo 创建内存数据库仓储
func newSheetRepo(t *testing.T) (SheetRepository, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return NewSheetRepository(db), db
}

// seedSheet 写入指定状态的预算表
func seedSheet(t *testing.T, db *gorm.DB, id string, status model.SheetStatus) {
	t.Helper()

	require.NoError(t, db.Create(&model.BudgetSheet{
		ID:             id,
		Type:           model.SheetTypeCAPEX,
		OrganizationID: "org-001",
		DepartmentID:   "dept-001",
		Year:           2026,
		Status:         status,
		Version:        1,
	}).Error)
}

// TestSaveItemInDraftGuard 测试行项写入的事务内草稿守卫
// 状态预检之后预算表可能已被并发提交推入待审,守卫必须兜底
func TestSaveItemInDraftGuard(t *testing.T) {
	repo, db := newSheetRepo(t)
	seedSheet(t, db, "sheet-draft", model.SheetStatusDraft)
	seedSheet(t, db, "sheet-pending", model.SheetStatusPending)

	// 草稿预算表允许写入
	err := repo.SaveItemInDraft("sheet-draft", &model.BudgetItem{
		ID:          "item-001",
		SheetID:     "sheet-draft",
		Description: "Rack servers",
		Quantity:    3,
		Amount:      1000,
	})
	require.NoError(t, err)

	// 待审预算表拒绝写入,且不落任何行项
	err = repo.SaveItemInDraft("sheet-pending", &model.BudgetItem{
		ID:          "item-002",
		SheetID:     "sheet-pending",
		Description: "Rack servers",
		Amount:      1000,
	})
	assert.True(t, errors.Is(err, ErrSheetNotDraft))

	var count int64
	require.NoError(t, db.Model(&model.BudgetItem{}).Where("sheet_id = ?", "sheet-pending").Count(&count).Error)
	assert.Zero(t, count)

	// 缺失的预算表同样命中守卫
	err = repo.SaveItemInDraft("sheet-missing", &model.BudgetItem{ID: "item-003", SheetID: "sheet-missing", Amount: 1})
	assert.True(t, errors.Is(err, ErrSheetNotDraft))
}

// TestDeleteItemInDraftGuard 测试行项删除的事务内草稿守卫
func TestDeleteItemInDraftGuard(t *testing.T) {
	repo, db := newSheetRepo(t)
	seedSheet(t, db, "sheet-001", model.SheetStatusDraft)

	require.NoError(t, repo.SaveItemInDraft("sheet-001", &model.BudgetItem{
		ID:          "item-001",
		SheetID:     "sheet-001",
		Description: "Rack servers",
		Amount:      1000,
	}))

	// 预算表离开草稿后删除被拒,行项原样保留
	require.NoError(t, db.Model(&model.BudgetSheet{}).Where("id = ?", "sheet-001").
		Update("status", model.SheetStatusPending).Error)
	err := repo.DeleteItemInDraft("sheet-001", "item-001")
	assert.True(t, errors.Is(err, ErrSheetNotDraft))

	item, err := repo.FindItemByID("item-001")
	require.NoError(t, err)
	assert.Equal(t, "sheet-001", item.SheetID)

	// 回到草稿后删除成功
	require.NoError(t, db.Model(&model.BudgetSheet{}).Where("id = ?", "sheet-001").
		Update("status", model.SheetStatusDraft).Error)
	require.NoError(t, repo.DeleteItemInDraft("sheet-001", "item-001"))

	_, err = repo.FindItemByID("item-001")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

// TestFindByIDItemOrder 测试预加载行项的稳定排序
func TestFindByIDItemOrder(t *testing.T) {
	repo, db := newSheetRepo(t)
	seedSheet(t, db, "sheet-001", model.SheetStatusDraft)

	base := time.Now().Add(-time.Hour)
	for i, desc := range []string{"first", "second", "third"} {
		require.NoError(t, db.Create(&model.BudgetItem{
			ID:          desc,
			SheetID:     "sheet-001",
			Description: desc,
			Amount:      100,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}).Error)
	}

	sheet, err := repo.FindByID("sheet-001")
	require.NoError(t, err)
	require.Len(t, sheet.Items, 3)
	assert.Equal(t, "first", sheet.Items[0].Description)
	assert.Equal(t, "second", sheet.Items[1].Description)
	assert.Equal(t, "third", sheet.Items[2].Description)
}
