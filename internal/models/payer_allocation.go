package models

import "time"

// PayerAllocation 地块 × 产品的需求快照及其付款方
type PayerAllocation struct {
	ID             uint       `gorm:"primarykey" json:"id"`                                                           // 主键
	FieldID        uint       `gorm:"uniqueIndex:uq_payer_allocation_field_product;not null" json:"field_id"`         // 地块ID
	ProductID      uint       `gorm:"uniqueIndex:uq_payer_allocation_field_product;index;not null" json:"product_id"` // 产品ID
	CompanyID      uint       `gorm:"index;not null" json:"company_id"`                                               // 公司ID
	ManufacturerID *uint      `gorm:"index" json:"manufacturer_id"`                                                   // 生产厂家（来自产品）
	UnitID         *uint      `json:"unit_id"`                                                                        // 计量单位（来自产品）
	Quantity       Quantity   `gorm:"type:decimal(14,3);not null;default:0" json:"quantity"`                          // 计划需求量
	PayerID        *uint      `gorm:"index" json:"payer_id"`                                                          // 付款方
	Status         string     `gorm:"type:varchar(16);index;not null;default:'active'" json:"status"`                 // active / stale
	AssignedAt     *time.Time `json:"assigned_at"`                                                                    // 付款方分配时间
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`                                                        // 创建时间
	UpdatedAt      time.Time  `json:"updated_at"`                                                                     // 更新时间
}

// TableName 指定表名
func (PayerAllocation) TableName() string {
	return "payer_allocations"
}
