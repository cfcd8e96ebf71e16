package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Field 地块
type Field struct {
	ID        uint                `gorm:"primarykey" json:"id"`                   // 主键
	Name      string              `gorm:"type:varchar(255);not null" json:"name"` // 名称
	CompanyID *uint               `gorm:"index" json:"company_id"`                // 所属公司
	CultureID *uint               `gorm:"index" json:"culture_id,omitempty"`      // 种植作物
	Area      decimal.NullDecimal `gorm:"type:decimal(14,4)" json:"area"`         // 面积（公顷）
	CreatedAt time.Time           `gorm:"index" json:"created_at"`                // 创建时间
	UpdatedAt time.Time           `json:"updated_at"`                             // 更新时间
}

// TableName 指定表名
func (Field) TableName() string {
	return "fields"
}

// Culture 作物
type Culture struct {
	ID        uint      `gorm:"primarykey" json:"id"`                               // 主键
	Name      string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"` // 名称
	CreatedAt time.Time `json:"created_at"`                                         // 创建时间
	UpdatedAt time.Time `json:"updated_at"`                                         // 更新时间
}

// TableName 指定表名
func (Culture) TableName() string {
	return "cultures"
}
