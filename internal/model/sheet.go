package model

import (
	"errors"
	"time"
)

// SheetType 预算表类型
type SheetType string

const (
	SheetTypeCAPEX SheetType = "CAPEX" // 资本性支出
	SheetTypeOPEX  SheetType = "OPEX"  // 运营性支出
)

// SheetStatus 预算表生命周期状态
type SheetStatus string

const (
	SheetStatusDraft    SheetStatus = "draft"    // 草稿,仅此状态允许编辑行项
	SheetStatusPending  SheetStatus = "pending"  // 审批中,行项不可变
	SheetStatusApproved SheetStatus = "approved" // 终态:已批准
	SheetStatusRejected SheetStatus = "rejected" // 终态:已拒绝
)

// IsTerminal 判断是否为终态
func (s SheetStatus) IsTerminal() bool {
	return s == SheetStatusApproved || s == SheetStatusRejected
}

// OPEX 费用周期
const (
	PeriodMonthly   = "Monthly"
	PeriodQuarterly = "Quarterly"
	PeriodAnnually  = "Annually"
)

// periodMultipliers 周期对应的年度乘数
var periodMultipliers = map[string]float64{
	PeriodMonthly:   12,
	PeriodQuarterly: 4,
	PeriodAnnually:  1,
}

// PeriodMultiplier 返回周期的年度乘数
// 未知周期返回 0 并报告无效,仅作展示兜底,入库时必须先校验
func PeriodMultiplier(period string) (float64, bool) {
	m, ok := periodMultipliers[period]
	return m, ok
}

// ValidPeriod 判断周期字符串是否合法
func ValidPeriod(period string) bool {
	_, ok := periodMultipliers[period]
	return ok
}

// BudgetSheet 预算表,按组织+部门+年度维度提交审批
type BudgetSheet struct {
	ID             string      `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Type           SheetType   `gorm:"type:varchar(16);not null;index" json:"type"`
	OrganizationID string      `gorm:"type:varchar(64);not null;index" json:"organization_id"`
	DepartmentID   string      `gorm:"type:varchar(64);not null;index" json:"department_id"`
	Year           int         `gorm:"not null;index" json:"year"`
	Status         SheetStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	// CurrentLevel 当前审批层级,仅在 pending 状态有意义
	CurrentLevel int `gorm:"not null;default:0" json:"current_level"`
	// WorkflowSnapshot 提交时刻审批链的序列化快照
	// 矩阵后续变更不影响在途预算表
	WorkflowSnapshot []byte `gorm:"type:text" json:"-"`
	// Version 乐观锁版本号,状态迁移时递增
	Version     int        `gorm:"not null;default:1" json:"version"`
	SubmittedBy string     `gorm:"type:varchar(64);index" json:"submitted_by"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	CreatedAt   time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`

	Items []BudgetItem `gorm:"foreignKey:SheetID" json:"items,omitempty"`
}

// TableName 指定表名
func (BudgetSheet) TableName() string {
	return "budget_sheets"
}

// BudgetItem 预算行项,CAPEX 与 OPEX 共用一张表
// CAPEX 使用 Quantity/Priority/Justification,OPEX 使用 Period/Implementation
type BudgetItem struct {
	ID             string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	SheetID        string    `gorm:"type:varchar(64);not null;index" json:"sheet_id"`
	Description    string    `gorm:"type:varchar(512);not null" json:"description"`
	Quantity       int       `gorm:"not null;default:0" json:"quantity,omitempty"`
	Amount         float64   `gorm:"not null" json:"amount"`
	Period         string    `gorm:"type:varchar(16)" json:"period,omitempty"`
	Priority       string    `gorm:"type:varchar(32)" json:"priority,omitempty"`
	Justification  string    `gorm:"type:text" json:"justification,omitempty"`
	Implementation string    `gorm:"type:text" json:"implementation,omitempty"`
	Supplier       string    `gorm:"type:varchar(255)" json:"supplier"`
	Remarks        string    `gorm:"type:text" json:"remarks,omitempty"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (BudgetItem) TableName() string {
	return "budget_items"
}

// LineTotal 行项合计
// CAPEX: 数量 × 单价;OPEX: 金额 × 周期年度乘数
// 未知周期按 0 计,入库校验保证正常数据不会走到这里
func (i *BudgetItem) LineTotal(sheetType SheetType) float64 {
	switch sheetType {
	case SheetTypeCAPEX:
		return float64(i.Quantity) * i.Amount
	case SheetTypeOPEX:
		m, _ := PeriodMultiplier(i.Period)
		return i.Amount * m
	}
	return 0
}

// TotalValue 预算表合计,每次读取重算,绝不信任持久化副本
func (s *BudgetSheet) TotalValue() float64 {
	var total float64
	for i := range s.Items {
		total += s.Items[i].LineTotal(s.Type)
	}
	return total
}

// Validate 验证预算表模型
func (s *BudgetSheet) Validate() error {
	if s.ID == "" {
		return errors.New("sheet ID is required")
	}
	if s.Type != SheetTypeCAPEX && s.Type != SheetTypeOPEX {
		return errors.New("sheet type must be CAPEX or OPEX")
	}
	if s.OrganizationID == "" {
		return errors.New("sheet organization ID is required")
	}
	if s.DepartmentID == "" {
		return errors.New("sheet department ID is required")
	}
	if s.Year < 2000 || s.Year > 2200 {
		return errors.New("sheet year is out of range")
	}
	return nil
}
