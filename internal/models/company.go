package models

import "time"

// Company 经营主体（农场公司）
type Company struct {
	ID        uint      `gorm:"primarykey" json:"id"`                               // 主键
	Name      string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"` // 名称
	ClusterID *uint     `gorm:"index" json:"cluster_id,omitempty"`                  // 所属集群
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`             // 是否启用
	CreatedAt time.Time `gorm:"index" json:"created_at"`                            // 创建时间
	UpdatedAt time.Time `json:"updated_at"`                                         // 更新时间
}

// TableName 指定表名
func (Company) TableName() string {
	return "companies"
}

// Payer 付款方
type Payer struct {
	ID        uint      `gorm:"primarykey" json:"id"`                               // 主键
	Name      string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"` // 名称
	TaxCode   string    `gorm:"type:varchar(32)" json:"tax_code,omitempty"`         // 税号
	CreatedAt time.Time `gorm:"index" json:"created_at"`                            // 创建时间
	UpdatedAt time.Time `json:"updated_at"`                                         // 更新时间
}

// TableName 指定表名
func (Payer) TableName() string {
	return "payers"
}

// Warehouse 仓库
type Warehouse struct {
	ID        uint      `gorm:"primarykey" json:"id"`                   // 主键
	Name      string    `gorm:"type:varchar(255);not null" json:"name"` // 名称
	CompanyID *uint     `gorm:"index" json:"company_id,omitempty"`      // 所属公司
	CreatedAt time.Time `gorm:"index" json:"created_at"`                // 创建时间
	UpdatedAt time.Time `json:"updated_at"`                             // 更新时间
}

// TableName 指定表名
func (Warehouse) TableName() string {
	return "warehouses"
}
