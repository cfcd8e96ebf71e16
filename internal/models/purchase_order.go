package models

import "time"

// PurchaseOrder 采购申请（付款收件箱）
type PurchaseOrder struct {
	ID        uint       `gorm:"primarykey" json:"id"`                                  // 主键
	OrderNo   string     `gorm:"type:varchar(32);uniqueIndex;not null" json:"order_no"` // 申请编号
	CompanyID uint       `gorm:"index;not null" json:"company_id"`                      // 申请公司
	Status    string     `gorm:"type:varchar(32);index;not null" json:"status"`         // 申请状态
	Note      string     `gorm:"type:text" json:"note,omitempty"`                       // 备注
	PaidAt    *time.Time `gorm:"index" json:"paid_at"`                                  // 付款时间
	CreatedAt time.Time  `gorm:"index" json:"created_at"`                               // 创建时间
	UpdatedAt time.Time  `json:"updated_at"`                                            // 更新时间

	Lines []PurchaseOrderLine `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"lines,omitempty"` // 申请行
}

// TableName 指定表名
func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// PurchaseOrderLine 采购申请行，创建后不可修改
type PurchaseOrderLine struct {
	ID               uint      `gorm:"primarykey" json:"id"`                                          // 主键
	OrderID          uint      `gorm:"uniqueIndex:uq_purchase_order_line;not null" json:"order_id"`   // 申请ID
	LineIndex        int       `gorm:"uniqueIndex:uq_purchase_order_line;not null" json:"line_index"` // 行号（从 1 开始）
	CompanyID        uint      `gorm:"index;not null" json:"company_id"`                              // 公司ID
	ProductID        uint      `gorm:"index;not null" json:"product_id"`                              // 产品ID
	PayerID          *uint     `gorm:"index" json:"payer_id"`                                         // 付款方
	UnitID           *uint     `json:"unit_id"`                                                       // 计量单位
	ManufacturerID   *uint     `json:"manufacturer_id"`                                               // 生产厂家（强制取自产品）
	Quantity         Quantity  `gorm:"type:decimal(14,3);not null;default:0" json:"quantity"`         // 申请数量
	PackageText      string    `gorm:"type:varchar(120)" json:"package_text"`                         // 包装规格（强制取自产品）
	ProductName      string    `gorm:"type:varchar(255)" json:"product_name"`                         // 产品名称快照
	PayerName        string    `gorm:"type:varchar(255)" json:"payer_name"`                           // 付款方名称快照
	ManufacturerName string    `gorm:"type:varchar(255)" json:"manufacturer_name"`                    // 厂家名称快照
	CreatedAt        time.Time `json:"created_at"`                                                    // 创建时间
}

// TableName 指定表名
func (PurchaseOrderLine) TableName() string {
	return "purchase_order_lines"
}
