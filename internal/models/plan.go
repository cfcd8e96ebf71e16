package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Plan 地块植保计划
type Plan struct {
	ID         uint       `gorm:"primarykey" json:"id"`                                          // 主键
	FieldID    uint       `gorm:"index;not null" json:"field_id"`                                // 地块ID
	Year       int        `gorm:"index" json:"year"`                                             // 计划年份
	Status     string     `gorm:"type:varchar(32);index;not null;default:'draft'" json:"status"` // 计划状态
	IsApproved bool       `gorm:"index;not null;default:false" json:"is_approved"`               // 是否已审批
	ApprovedAt *time.Time `json:"approved_at"`                                                   // 审批时间
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt  time.Time  `json:"updated_at"`                                                    // 更新时间

	Treatments []Treatment `gorm:"foreignKey:PlanID;constraint:OnDelete:CASCADE" json:"treatments,omitempty"` // 处理项
}

// TableName 指定表名
func (Plan) TableName() string {
	return "plans"
}

// Treatment 计划中的单次处理（产品 + 每公顷用量）
type Treatment struct {
	ID        uint            `gorm:"primarykey" json:"id"`                              // 主键
	PlanID    uint            `gorm:"index;not null" json:"plan_id"`                     // 计划ID
	ProductID uint            `gorm:"index;not null" json:"product_id"`                  // 产品ID
	Rate      decimal.Decimal `gorm:"type:decimal(14,4);not null;default:0" json:"rate"` // 每公顷用量
	CreatedAt time.Time       `json:"created_at"`                                        // 创建时间
	UpdatedAt time.Time       `json:"updated_at"`                                        // 更新时间
}

// TableName 指定表名
func (Treatment) TableName() string {
	return "treatments"
}
