package models

import "time"

// StockTransaction 库存流水（入库记录）
type StockTransaction struct {
	ID                  uint      `gorm:"primarykey" json:"id"`                                                   // 主键
	TxType              string    `gorm:"type:varchar(8);index;not null" json:"tx_type"`                          // in / out
	WarehouseID         uint      `gorm:"index;not null" json:"warehouse_id"`                                     // 仓库ID
	ProductID           uint      `gorm:"index;not null" json:"product_id"`                                       // 产品ID
	UnitID              *uint     `json:"unit_id"`                                                                // 计量单位
	Quantity            Quantity  `gorm:"type:decimal(14,3);not null" json:"quantity"`                            // 数量
	SourceKind          string    `gorm:"type:varchar(32);index:idx_stock_tx_source;not null" json:"source_kind"` // 来源类型
	SourceID            uint      `gorm:"index:idx_stock_tx_source;not null" json:"source_id"`                    // 来源单据ID
	SourceLineIndex     int       `gorm:"index:idx_stock_tx_source;not null" json:"source_line_index"`            // 来源单据行号
	ProductName         string    `gorm:"type:varchar(255)" json:"product_name"`                                  // 产品名称快照
	UnitText            string    `gorm:"type:varchar(64)" json:"unit_text"`                                      // 单位快照
	PayerName           string    `gorm:"type:varchar(255)" json:"payer_name"`                                    // 付款方快照
	PackageText         string    `gorm:"type:varchar(120)" json:"package_text"`                                  // 包装快照
	ManufacturerName    string    `gorm:"type:varchar(255)" json:"manufacturer_name"`                             // 厂家快照
	ConsumerCompanyName string    `gorm:"type:varchar(255)" json:"consumer_company_name"`                         // 申请公司快照
	Note                string    `gorm:"type:text" json:"note,omitempty"`                                        // 备注
	TxDate              time.Time `gorm:"index" json:"tx_date"`                                                   // 业务日期
	CreatedAt           time.Time `gorm:"index" json:"created_at"`                                                // 创建时间
}

// TableName 指定表名
func (StockTransaction) TableName() string {
	return "stock_transactions"
}
