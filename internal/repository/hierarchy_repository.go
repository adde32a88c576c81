package repository

import (
	"github.com/mautops/budget-gin/internal/model"
	"gorm.io/gorm"
)

// HierarchyRepository 组织层级仓储接口
type HierarchyRepository interface {
	SaveGroup(g *model.Group) error
	FindGroupByID(id string) (*model.Group, error)
	FindAllGroups() ([]*model.Group, error)
	DeleteGroup(id string) error
	CountOrganizationsByGroup(groupID string) (int64, error)

	SaveOrganization(o *model.Organization) error
	FindOrganizationByID(id string) (*model.Organization, error)
	FindOrganizationsByGroup(groupID string) ([]*model.Organization, error)
	DeleteOrganization(id string) error
	CountDepartmentsByOrganization(orgID string) (int64, error)

	SaveDepartment(d *model.Department) error
	FindDepartmentByID(id string) (*model.Department, error)
	FindDepartmentsByOrganization(orgID string) ([]*model.Department, error)
	DeleteDepartment(id string) error
	CountSubDepartmentsByDepartment(deptID string) (int64, error)

	SaveSubDepartment(s *model.SubDepartment) error
	FindSubDepartmentByID(id string) (*model.SubDepartment, error)
	FindSubDepartmentsByDepartment(deptID string) ([]*model.SubDepartment, error)
	DeleteSubDepartment(id string) error
}

// hierarchyRepository 组织层级仓储实现
type hierarchyRepository struct {
	db *gorm.DB
}

// NewHierarchyRepository 创建组织层级仓储
func NewHierarchyRepository(db *gorm.DB) HierarchyRepository {
	return &hierarchyRepository{db: db}
}

// SaveGroup 保存集团
func (r *hierarchyRepository) SaveGroup(g *model.Group) error {
	return r.db.Save(g).Error
}

// FindGroupByID 根据 ID 查找集团
func (r *hierarchyRepository) FindGroupByID(id string) (*model.Group, error) {
	var g model.Group
	if err := r.db.Where("id = ?", id).First(&g).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

// FindAllGroups 查找所有集团
func (r *hierarchyRepository) FindAllGroups() ([]*model.Group, error) {
	var groups []*model.Group
	err := r.db.Order("created_at ASC").Find(&groups).Error
	return groups, err
}

// DeleteGroup 删除集团
func (r *hierarchyRepository) DeleteGroup(id string) error {
	return r.db.Delete(&model.Group{}, "id = ?", id).Error
}

// CountOrganizationsByGroup 统计集团下的组织数
func (r *hierarchyRepository) CountOrganizationsByGroup(groupID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Organization{}).Where("group_id = ?", groupID).Count(&count).Error
	return count, err
}

// SaveOrganization 保存组织
func (r *hierarchyRepository) SaveOrganization(o *model.Organization) error {
	return r.db.Save(o).Error
}

// FindOrganizationByID 根据 ID 查找组织
func (r *hierarchyRepository) FindOrganizationByID(id string) (*model.Organization, error) {
	var o model.Organization
	if err := r.db.Where("id = ?", id).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// FindOrganizationsByGroup 查找集团下的组织
func (r *hierarchyRepository) FindOrganizationsByGroup(groupID string) ([]*model.Organization, error) {
	var orgs []*model.Organization
	err := r.db.Where("group_id = ?", groupID).Order("created_at ASC").Find(&orgs).Error
	return orgs, err
}

// DeleteOrganization 删除组织
func (r *hierarchyRepository) DeleteOrganization(id string) error {
	return r.db.Delete(&model.Organization{}, "id = ?", id).Error
}

// CountDepartmentsByOrganization 统计组织下的部门数
func (r *hierarchyRepository) CountDepartmentsByOrganization(orgID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Department{}).Where("organization_id = ?", orgID).Count(&count).Error
	return count, err
}

// SaveDepartment 保存部门
func (r *hierarchyRepository) SaveDepartment(d *model.Department) error {
	return r.db.Save(d).Error
}

// FindDepartmentByID 根据 ID 查找部门
func (r *hierarchyRepository) FindDepartmentByID(id string) (*model.Department, error) {
	var d model.Department
	if err := r.db.Where("id = ?", id).First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// FindDepartmentsByOrganization 查找组织下的部门
func (r *hierarchyRepository) FindDepartmentsByOrganization(orgID string) ([]*model.Department, error) {
	var depts []*model.Department
	err := r.db.Where("organization_id = ?", orgID).Order("created_at ASC").Find(&depts).Error
	return depts, err
}

// DeleteDepartment 删除部门
func (r *hierarchyRepository) DeleteDepartment(id string) error {
	return r.db.Delete(&model.Department{}, "id = ?", id).Error
}

// CountSubDepartmentsByDepartment 统计部门下的子部门数
func (r *hierarchyRepository) CountSubDepartmentsByDepartment(deptID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.SubDepartment{}).Where("department_id = ?", deptID).Count(&count).Error
	return count, err
}

// SaveSubDepartment 保存子部门
func (r *hierarchyRepository) SaveSubDepartment(s *model.SubDepartment) error {
	return r.db.Save(s).Error
}

// FindSubDepartmentByID 根据 ID 查找子部门
func (r *hierarchyRepository) FindSubDepartmentByID(id string) (*model.SubDepartment, error) {
	var s model.SubDepartment
	if err := r.db.Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// FindSubDepartmentsByDepartment 查找部门下的子部门
func (r *hierarchyRepository) FindSubDepartmentsByDepartment(deptID string) ([]*model.SubDepartment, error) {
	var subs []*model.SubDepartment
	err := r.db.Where("department_id = ?", deptID).Order("created_at ASC").Find(&subs).Error
	return subs, err
}

// DeleteSubDepartment 删除子部门
func (r *hierarchyRepository) DeleteSubDepartment(id string) error {
	return r.db.Delete(&model.SubDepartment{}, "id = ?", id).Error
}
