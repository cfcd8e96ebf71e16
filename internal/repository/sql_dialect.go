package repository

import (
	"database/sql"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// dialect 当前连接的方言名，未知时按 sqlite 处理
func dialect(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	if name := strings.ToLower(db.Dialector.Name()); name != "" {
		return name
	}
	return "sqlite"
}

// lockForUpdate postgres 下追加 FOR UPDATE；sqlite 依赖单写事务
func lockForUpdate(query *gorm.DB) *gorm.DB {
	if dialect(query) != "postgres" {
		return query
	}
	return query.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
}

// searchCondition 拼出任一列模糊匹配 @kw 的条件；postgres 不区分大小写
func searchCondition(dialectName string, columns []string) string {
	operator := "LIKE"
	if dialectName == "postgres" {
		operator = "ILIKE"
	}
	var parts []string
	for _, column := range columns {
		if column = strings.TrimSpace(column); column != "" {
			parts = append(parts, column+" "+operator+" @kw")
		}
	}
	return strings.Join(parts, " OR ")
}

// matchAny 关键字为空时不加条件
func matchAny(keyword string, columns ...string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		keyword = strings.TrimSpace(keyword)
		condition := searchCondition(dialect(db), columns)
		if keyword == "" || condition == "" {
			return db
		}
		return db.Where("("+condition+")", sql.Named("kw", "%"+keyword+"%"))
	}
}

// uniqueIDs 去重并剔除 0，保持原有顺序
func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id != 0 && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
