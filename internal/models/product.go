package models

import "time"

// Product 农资产品
type Product struct {
	ID             uint      `gorm:"primarykey" json:"id"`                         // 主键
	Name           string    `gorm:"type:varchar(255);not null;index" json:"name"` // 名称
	UnitID         *uint     `gorm:"index" json:"unit_id,omitempty"`               // 计量单位
	ManufacturerID *uint     `gorm:"index" json:"manufacturer_id,omitempty"`       // 生产厂家
	Container      string    `gorm:"type:varchar(120)" json:"container"`           // 包装规格文本，例如 "10 л"
	IsActive       bool      `gorm:"not null;default:true" json:"is_active"`       // 是否启用
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                      // 创建时间
	UpdatedAt      time.Time `json:"updated_at"`                                   // 更新时间
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

// Unit 计量单位
type Unit struct {
	ID        uint      `gorm:"primarykey" json:"id"`                  // 主键
	Name      string    `gorm:"type:varchar(64);not null" json:"name"` // 名称
	ShortName string    `gorm:"type:varchar(16)" json:"short_name"`    // 简称
	CreatedAt time.Time `json:"created_at"`                            // 创建时间
	UpdatedAt time.Time `json:"updated_at"`                            // 更新时间
}

// TableName 指定表名
func (Unit) TableName() string {
	return "units"
}

// Manufacturer 生产厂家
type Manufacturer struct {
	ID        uint      `gorm:"primarykey" json:"id"`                               // 主键
	Name      string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"` // 名称
	Country   string    `gorm:"type:varchar(64)" json:"country,omitempty"`          // 国家
	CreatedAt time.Time `json:"created_at"`                                         // 创建时间
	UpdatedAt time.Time `json:"updated_at"`                                         // 更新时间
}

// TableName 指定表名
func (Manufacturer) TableName() string {
	return "manufacturers"
}
