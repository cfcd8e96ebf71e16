package models

import (
	"database/sql/driver"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// QuantityScale 数量统一保留的小数位
const QuantityScale = 3

// Quantity 统一数量类型（保留 3 位小数）
type Quantity struct {
	decimal.Decimal
}

// NewQuantity 从 decimal 创建数量
func NewQuantity(value decimal.Decimal) Quantity {
	return Quantity{Decimal: value.Round(QuantityScale)}
}

// NewQuantityFromFloat 从浮点数创建数量
func NewQuantityFromFloat(value float64) Quantity {
	return NewQuantity(decimal.NewFromFloat(value))
}

// ParseQuantity 解析用户输入的数量，兼容逗号小数点
func ParseQuantity(raw string) (Quantity, error) {
	trimmed := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if trimmed == "" {
		return Quantity{}, nil
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return Quantity{}, err
	}
	return NewQuantity(d), nil
}

// MarshalJSON 统一输出 3 位小数的字符串
func (q Quantity) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.Decimal.Round(QuantityScale).StringFixed(QuantityScale))
}

// UnmarshalJSON 解析数量（字符串或数字）
func (q *Quantity) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		parsed, err := ParseQuantity(s)
		if err != nil {
			return err
		}
		*q = parsed
		return nil
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return err
	}
	q.Decimal = d.Round(QuantityScale)
	return nil
}

// Value 用于数据库写入
func (q Quantity) Value() (driver.Value, error) {
	return q.Decimal.Round(QuantityScale).Value()
}

// Scan 用于数据库读取
func (q *Quantity) Scan(value interface{}) error {
	if err := q.Decimal.Scan(value); err != nil {
		return err
	}
	q.Decimal = q.Decimal.Round(QuantityScale)
	return nil
}

// String 返回 3 位小数格式
func (q Quantity) String() string {
	return q.Decimal.Round(QuantityScale).StringFixed(QuantityScale)
}
