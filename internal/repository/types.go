package repository

import "time"

// PlanScope 同步与对账的作用范围，零值表示全部
type PlanScope struct {
	CompanyID  uint
	FieldIDs   []uint
	ProductIDs []uint
}

// IsEmpty 是否为全量范围
func (s PlanScope) IsEmpty() bool {
	return s.CompanyID == 0 && len(s.FieldIDs) == 0 && len(s.ProductIDs) == 0
}

// AllocationListFilter 查询付款分配列表的过滤条件
type AllocationListFilter struct {
	Page       int
	PageSize   int
	CompanyID  uint
	FieldID    uint
	ProductID  uint
	PayerID    uint
	Unassigned bool
	Status     string
}

// AllocationTotalsFilter 汇总活跃分配的过滤条件
type AllocationTotalsFilter struct {
	CompanyID      uint
	ProductID      uint
	ManufacturerID uint
	PayerID        uint
}

// OrderedTotalsFilter 统计已申请数量的过滤条件
type OrderedTotalsFilter struct {
	CompanyID  uint
	ProductIDs []uint
}

// PurchaseOrderListFilter 查询采购申请列表的过滤条件
type PurchaseOrderListFilter struct {
	Page        int
	PageSize    int
	CompanyID   uint
	Status      string
	Statuses    []string
	OrderNo     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// StockTransactionListFilter 查询库存流水的过滤条件
type StockTransactionListFilter struct {
	Page        int
	PageSize    int
	WarehouseID uint
	ProductID   uint
	SourceID    uint
	TxType      string
	Search      string
	DateFrom    *time.Time
	DateTo      *time.Time
}
