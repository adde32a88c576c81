package repository

import (
	"github.com/mautops/budget-gin/internal/model"
	"gorm.io/gorm"
)

// UserRepository 用户仓储接口
type UserRepository interface {
	Save(user *model.User) error
	FindByID(id string) (*model.User, error)
	FindByUsername(username string) (*model.User, error)
	FindByRoleKey(roleKey string) ([]*model.User, error)
	FindAll() ([]*model.User, error)
	Delete(id string) error
}

// userRepository 用户仓储实现
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Save 保存用户
func (r *userRepository) Save(user *model.User) error {
	return r.db.Save(user).Error
}

// FindByID 根据 ID 查找用户
func (r *userRepository) FindByID(id string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsername 根据用户名查找用户
func (r *userRepository) FindByUsername(username string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByRoleKey 查找持有指定角色的用户
func (r *userRepository) FindByRoleKey(roleKey string) ([]*model.User, error) {
	var users []*model.User
	err := r.db.Where("role_key = ?", roleKey).Find(&users).Error
	return users, err
}

// FindAll 查找所有用户
func (r *userRepository) FindAll() ([]*model.User, error) {
	var users []*model.User
	err := r.db.Order("created_at ASC").Find(&users).Error
	return users, err
}

// Delete 删除用户
func (r *userRepository) Delete(id string) error {
	return r.db.Delete(&model.User{}, "id = ?", id).Error
}
