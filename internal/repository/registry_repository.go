package repository

import (
	"github.com/mautops/budget-gin/internal/model"
	"gorm.io/gorm"
)

// RegistryRepository 供应商/设备/合同台账仓储接口
type RegistryRepository interface {
	SaveVendor(v *model.Vendor) error
	FindVendorByID(id string) (*model.Vendor, error)
	FindAllVendors() ([]*model.Vendor, error)
	DeleteVendor(id string) error
	CountContractsByVendor(vendorID string) (int64, error)
	CountDevicesByVendor(vendorID string) (int64, error)

	SaveDevice(d *model.Device) error
	FindDeviceByID(id string) (*model.Device, error)
	FindDevicesByDepartment(deptID string) ([]*model.Device, error)
	DeleteDevice(id string) error

	SaveContract(c *model.Contract) error
	FindContractByID(id string) (*model.Contract, error)
	FindContractsByFilter(filter *ContractFilter) ([]*model.Contract, error)
	DeleteContract(id string) error
}

// ContractFilter 合同查询过滤器
type ContractFilter struct {
	VendorID       *string
	OrganizationID *string
	Status         *model.SheetStatus
}

// registryRepository 台账仓储实现
type registryRepository struct {
	db *gorm.DB
}

// NewRegistryRepository 创建台账仓储
func NewRegistryRepository(db *gorm.DB) RegistryRepository {
	return &registryRepository{db: db}
}

// SaveVendor 保存供应商
func (r *registryRepository) SaveVendor(v *model.Vendor) error {
	return r.db.Save(v).Error
}

// FindVendorByID 根据 ID 查找供应商
func (r *registryRepository) FindVendorByID(id string) (*model.Vendor, error) {
	var v model.Vendor
	if err := r.db.Where("id = ?", id).First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

// FindAllVendors 查找所有供应商
func (r *registryRepository) FindAllVendors() ([]*model.Vendor, error) {
	var vendors []*model.Vendor
	err := r.db.Order("name ASC").Find(&vendors).Error
	return vendors, err
}

// DeleteVendor 删除供应商
func (r *registryRepository) DeleteVendor(id string) error {
	return r.db.Delete(&model.Vendor{}, "id = ?", id).Error
}

// CountContractsByVendor 统计引用供应商的合同数
func (r *registryRepository) CountContractsByVendor(vendorID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Contract{}).Where("vendor_id = ?", vendorID).Count(&count).Error
	return count, err
}

// CountDevicesByVendor 统计引用供应商的设备数
func (r *registryRepository) CountDevicesByVendor(vendorID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Device{}).Where("vendor_id = ?", vendorID).Count(&count).Error
	return count, err
}

// SaveDevice 保存设备
func (r *registryRepository) SaveDevice(d *model.Device) error {
	return r.db.Save(d).Error
}

// FindDeviceByID 根据 ID 查找设备
func (r *registryRepository) FindDeviceByID(id string) (*model.Device, error) {
	var d model.Device
	if err := r.db.Where("id = ?", id).First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// FindDevicesByDepartment 查找部门下的设备
func (r *registryRepository) FindDevicesByDepartment(deptID string) ([]*model.Device, error) {
	var devices []*model.Device
	err := r.db.Where("department_id = ?", deptID).Order("created_at ASC").Find(&devices).Error
	return devices, err
}

// DeleteDevice 删除设备
func (r *registryRepository) DeleteDevice(id string) error {
	return r.db.Delete(&model.Device{}, "id = ?", id).Error
}

// SaveContract 保存合同
func (r *registryRepository) SaveContract(c *model.Contract) error {
	return r.db.Save(c).Error
}

// FindContractByID 根据 ID 查找合同
func (r *registryRepository) FindContractByID(id string) (*model.Contract, error) {
	var c model.Contract
	if err := r.db.Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// FindContractsByFilter 根据过滤器查找合同
func (r *registryRepository) FindContractsByFilter(filter *ContractFilter) ([]*model.Contract, error) {
	var contracts []*model.Contract
	query := r.db.Model(&model.Contract{})

	if filter != nil {
		if filter.VendorID != nil {
			query = query.Where("vendor_id = ?", *filter.VendorID)
		}
		if filter.OrganizationID != nil {
			query = query.Where("organization_id = ?", *filter.OrganizationID)
		}
		if filter.Status != nil {
			query = query.Where("status = ?", *filter.Status)
		}
	}

	err := query.Order("created_at DESC").Find(&contracts).Error
	return contracts, err
}

// DeleteContract 删除合同
func (r *registryRepository) DeleteContract(id string) error {
	return r.db.Delete(&model.Contract{}, "id = ?", id).Error
}
