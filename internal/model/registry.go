package model

import (
	"errors"
	"time"
)

// Vendor 供应商台账条目
type Vendor struct {
	ID            string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name          string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"name"`
	ContactPerson string    `gorm:"type:varchar(255)" json:"contact_person,omitempty"`
	Email         string    `gorm:"type:varchar(255)" json:"email,omitempty"`
	Phone         string    `gorm:"type:varchar(64)" json:"phone,omitempty"`
	Address       string    `gorm:"type:text" json:"address,omitempty"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (Vendor) TableName() string {
	return "vendors"
}

// Device 设备台账条目,归属于部门
type Device struct {
	ID           string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name         string     `gorm:"type:varchar(255);not null" json:"name"`
	SerialNumber string     `gorm:"type:varchar(128);uniqueIndex" json:"serial_number"`
	DepartmentID string     `gorm:"type:varchar(64);not null;index" json:"department_id"`
	VendorID     string     `gorm:"type:varchar(64);index" json:"vendor_id,omitempty"`
	PurchasedAt  *time.Time `json:"purchased_at,omitempty"`
	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (Device) TableName() string {
	return "devices"
}

// Contract 合同,与预算表共用审批引擎(workflow type = contract)
type Contract struct {
	ID             string      `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Title          string      `gorm:"type:varchar(255);not null" json:"title"`
	VendorID       string      `gorm:"type:varchar(64);not null;index" json:"vendor_id"`
	OrganizationID string      `gorm:"type:varchar(64);not null;index" json:"organization_id"`
	DepartmentID   string      `gorm:"type:varchar(64);not null;index" json:"department_id"`
	Value          float64     `gorm:"not null" json:"value"`
	StartDate      time.Time   `gorm:"not null" json:"start_date"`
	EndDate        time.Time   `gorm:"not null" json:"end_date"`
	Obligations    string      `gorm:"type:text" json:"obligations,omitempty"`
	Status         SheetStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	// 合同与预算表共用同一套审批机制:层级游标、链快照与乐观锁版本
	CurrentLevel     int        `gorm:"not null;default:0" json:"current_level"`
	WorkflowSnapshot []byte     `gorm:"type:text" json:"-"`
	Version          int        `gorm:"not null;default:1" json:"version"`
	SubmittedBy      string     `gorm:"type:varchar(64);index" json:"submitted_by"`
	SubmittedAt      *time.Time `json:"submitted_at,omitempty"`
	CreatedAt        time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (Contract) TableName() string {
	return "contracts"
}

// Validate 验证供应商模型
func (v *Vendor) Validate() error {
	if v.ID == "" {
		return errors.New("vendor ID is required")
	}
	if v.Name == "" {
		return errors.New("vendor name is required")
	}
	return nil
}

// Validate 验证设备模型
func (d *Device) Validate() error {
	if d.ID == "" {
		return errors.New("device ID is required")
	}
	if d.Name == "" {
		return errors.New("device name is required")
	}
	if d.DepartmentID == "" {
		return errors.New("device department ID is required")
	}
	return nil
}

// Validate 验证合同模型
func (c *Contract) Validate() error {
	if c.ID == "" {
		return errors.New("contract ID is required")
	}
	if c.Title == "" {
		return errors.New("contract title is required")
	}
	if c.VendorID == "" {
		return errors.New("contract vendor ID is required")
	}
	if c.Value < 0 {
		return errors.New("contract value must not be negative")
	}
	if c.EndDate.Before(c.StartDate) {
		return errors.New("contract end date must not precede start date")
	}
	return nil
}
