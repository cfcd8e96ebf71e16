package repository

import (
	"github.com/agro-backoffice/internal/constants"
	"github.com/agro-backoffice/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockBalanceRow 仓库 × 产品的库存余额
type StockBalanceRow struct {
	WarehouseID uint            `json:"warehouse_id"`
	ProductID   uint            `json:"product_id"`
	QtyIn       decimal.Decimal `json:"qty_in"`
	QtyOut      decimal.Decimal `json:"qty_out"`
}

// StockRepository 库存流水数据访问接口
type StockRepository interface {
	ReceivedByLine(orderID uint) (map[int]decimal.Decimal, error)
	ReceivedByOrders(orderIDs []uint) (map[uint]map[int]decimal.Decimal, error)
	CountBySource(orderID uint) (int64, error)
	CreateBatch(rows []models.StockTransaction) error
	List(filter StockTransactionListFilter) ([]models.StockTransaction, int64, error)
	Balances(warehouseID uint) ([]StockBalanceRow, error)
	WithTx(tx *gorm.DB) *GormStockRepository
}

// GormStockRepository GORM 实现
type GormStockRepository struct {
	db *gorm.DB
}

// NewStockRepository 创建库存流水仓库
func NewStockRepository(db *gorm.DB) *GormStockRepository {
	return &GormStockRepository{db: db}
}

// WithTx 绑定事务
func (r *GormStockRepository) WithTx(tx *gorm.DB) *GormStockRepository {
	if tx == nil {
		return r
	}
	return &GormStockRepository{db: tx}
}

// ReceivedByLine 汇总单个申请每行的已入库数量
func (r *GormStockRepository) ReceivedByLine(orderID uint) (map[int]decimal.Decimal, error) {
	byOrder, err := r.ReceivedByOrders([]uint{orderID})
	if err != nil {
		return nil, err
	}
	if lines, ok := byOrder[orderID]; ok {
		return lines, nil
	}
	return map[int]decimal.Decimal{}, nil
}

// ReceivedByOrders 汇总多个申请每行的已入库数量
func (r *GormStockRepository) ReceivedByOrders(orderIDs []uint) (map[uint]map[int]decimal.Decimal, error) {
	orderIDs = uniqueIDs(orderIDs)
	result := make(map[uint]map[int]decimal.Decimal, len(orderIDs))
	if len(orderIDs) == 0 {
		return result, nil
	}
	var rows []struct {
		SourceID        uint
		SourceLineIndex int
		Quantity        models.Quantity
	}
	if err := r.db.Model(&models.StockTransaction{}).
		Select("source_id, source_line_index, quantity").
		Where("source_kind = ?", constants.StockSourceKindPurchaseOrder).
		Where("tx_type = ?", constants.StockTxTypeIn).
		Where("source_id IN ?", orderIDs).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		lines, ok := result[row.SourceID]
		if !ok {
			lines = make(map[int]decimal.Decimal)
			result[row.SourceID] = lines
		}
		lines[row.SourceLineIndex] = lines[row.SourceLineIndex].Add(row.Quantity.Decimal)
	}
	return result, nil
}

// CountBySource 统计申请关联的入库流水条数
func (r *GormStockRepository) CountBySource(orderID uint) (int64, error) {
	var total int64
	err := r.db.Model(&models.StockTransaction{}).
		Where("source_kind = ? AND source_id = ?", constants.StockSourceKindPurchaseOrder, orderID).
		Count(&total).Error
	return total, err
}

// CreateBatch 批量写入流水
func (r *GormStockRepository) CreateBatch(rows []models.StockTransaction) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.Create(&rows).Error
}

// List 分页查询库存流水
func (r *GormStockRepository) List(filter StockTransactionListFilter) ([]models.StockTransaction, int64, error) {
	query := r.db.Model(&models.StockTransaction{})
	if filter.WarehouseID != 0 {
		query = query.Where("warehouse_id = ?", filter.WarehouseID)
	}
	if filter.ProductID != 0 {
		query = query.Where("product_id = ?", filter.ProductID)
	}
	if filter.SourceID != 0 {
		query = query.Where("source_id = ?", filter.SourceID)
	}
	if filter.TxType != "" {
		query = query.Where("tx_type = ?", filter.TxType)
	}
	query = query.Scopes(matchAny(filter.Search, "product_name", "payer_name", "consumer_company_name", "note"))
	if filter.DateFrom != nil {
		query = query.Where("tx_date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("tx_date <= ?", *filter.DateTo)
	}

	return findPage[models.StockTransaction](query, filter.Page, filter.PageSize, "tx_date DESC, id DESC")
}

// Balances 计算库存余额（入库 − 出库）
func (r *GormStockRepository) Balances(warehouseID uint) ([]StockBalanceRow, error) {
	var rows []struct {
		WarehouseID uint
		ProductID   uint
		TxType      string
		Quantity    models.Quantity
	}
	query := r.db.Model(&models.StockTransaction{}).Select("warehouse_id, product_id, tx_type, quantity")
	if warehouseID != 0 {
		query = query.Where("warehouse_id = ?", warehouseID)
	}
	if err := query.Order("warehouse_id ASC, product_id ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}

	type balanceKey struct{ warehouseID, productID uint }
	index := make(map[balanceKey]int)
	balances := make([]StockBalanceRow, 0)
	for _, row := range rows {
		key := balanceKey{row.WarehouseID, row.ProductID}
		pos, ok := index[key]
		if !ok {
			balances = append(balances, StockBalanceRow{WarehouseID: row.WarehouseID, ProductID: row.ProductID})
			pos = len(balances) - 1
			index[key] = pos
		}
		switch row.TxType {
		case constants.StockTxTypeIn:
			balances[pos].QtyIn = balances[pos].QtyIn.Add(row.Quantity.Decimal)
		case constants.StockTxTypeOut:
			balances[pos].QtyOut = balances[pos].QtyOut.Add(row.Quantity.Decimal)
		}
	}
	return balances, nil
}
