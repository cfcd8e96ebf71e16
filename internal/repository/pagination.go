package repository

import "gorm.io/gorm"

// findPage 先统计总数再按页读取，pageSize <= 0 时返回全部
func findPage[T any](query *gorm.DB, page, pageSize int, order string, scopes ...func(*gorm.DB) *gorm.DB) ([]T, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	rows := make([]T, 0)
	if total == 0 {
		return rows, 0, nil
	}
	if pageSize > 0 {
		if page < 1 {
			page = 1
		}
		query = query.Limit(pageSize).Offset((page - 1) * pageSize)
	}
	if err := query.Scopes(scopes...).Order(order).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
