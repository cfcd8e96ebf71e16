package service

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var packageSizePattern = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

// ParsePackageSize 从包装文本中提取第一个数字作为包装规格
func ParsePackageSize(text string) (decimal.Decimal, bool) {
	token := packageSizePattern.FindString(text)
	if token == "" {
		return decimal.Zero, false
	}
	size, err := decimal.NewFromString(strings.ReplaceAll(token, ",", "."))
	if err != nil || !size.IsPositive() {
		return decimal.Zero, false
	}
	return size, true
}

// RoundUpToPackage 将数量向上取整到包装规格的整数倍
func RoundUpToPackage(value, size decimal.Decimal) decimal.Decimal {
	if !size.IsPositive() || !value.IsPositive() {
		return value
	}
	packs := value.Div(size).Ceil()
	return packs.Mul(size)
}
