package repository

import (
	"errors"

	"github.com/agro-backoffice/internal/constants"
	"github.com/agro-backoffice/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderedKey 已申请数量的汇总键，PayerID 为 0 表示未指定付款方
type OrderedKey struct {
	CompanyID uint
	ProductID uint
	PayerID   uint
}

// NewOrderedKey 构建汇总键
func NewOrderedKey(companyID, productID uint, payerID *uint) OrderedKey {
	key := OrderedKey{CompanyID: companyID, ProductID: productID}
	if payerID != nil {
		key.PayerID = *payerID
	}
	return key
}

// PurchaseOrderRepository 采购申请数据访问接口
type PurchaseOrderRepository interface {
	Create(order *models.PurchaseOrder, lines []models.PurchaseOrderLine) error
	GetByID(id uint) (*models.PurchaseOrder, error)
	GetByIDForUpdate(id uint) (*models.PurchaseOrder, error)
	List(filter PurchaseOrderListFilter) ([]models.PurchaseOrder, int64, error)
	UpdateStatus(id uint, status string, updates map[string]interface{}) error
	Delete(id uint) error
	OrderedTotals(filter OrderedTotalsFilter) (map[OrderedKey]decimal.Decimal, error)
	WithTx(tx *gorm.DB) *GormPurchaseOrderRepository
}

// GormPurchaseOrderRepository GORM 实现
type GormPurchaseOrderRepository struct {
	db *gorm.DB
}

// NewPurchaseOrderRepository 创建采购申请仓库
func NewPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPurchaseOrderRepository) WithTx(tx *gorm.DB) *GormPurchaseOrderRepository {
	if tx == nil {
		return r
	}
	return &GormPurchaseOrderRepository{db: tx}
}

func preloadLines(query *gorm.DB) *gorm.DB {
	return query.Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("line_index ASC")
	})
}

// Create 创建采购申请与申请行
func (r *GormPurchaseOrderRepository) Create(order *models.PurchaseOrder, lines []models.PurchaseOrderLine) error {
	if err := r.db.Omit("Lines").Create(order).Error; err != nil {
		return err
	}
	for i := range lines {
		lines[i].OrderID = order.ID
	}
	if len(lines) > 0 {
		if err := r.db.Create(&lines).Error; err != nil {
			return err
		}
	}
	order.Lines = lines
	return nil
}

// GetByID 根据 ID 获取采购申请
func (r *GormPurchaseOrderRepository) GetByID(id uint) (*models.PurchaseOrder, error) {
	var order models.PurchaseOrder
	if err := preloadLines(r.db).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByIDForUpdate 事务内读取并锁定采购申请
func (r *GormPurchaseOrderRepository) GetByIDForUpdate(id uint) (*models.PurchaseOrder, error) {
	var order models.PurchaseOrder
	if err := lockForUpdate(r.db.Model(&models.PurchaseOrder{})).Where("id = ?", id).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var lines []models.PurchaseOrderLine
	if err := r.db.Where("order_id = ?", id).Order("line_index ASC").Find(&lines).Error; err != nil {
		return nil, err
	}
	order.Lines = lines
	return &order, nil
}

// List 分页查询采购申请
func (r *GormPurchaseOrderRepository) List(filter PurchaseOrderListFilter) ([]models.PurchaseOrder, int64, error) {
	query := r.db.Model(&models.PurchaseOrder{})
	if filter.CompanyID != 0 {
		query = query.Where("company_id = ?", filter.CompanyID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	query = query.Scopes(matchAny(filter.OrderNo, "order_no"))
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	return findPage[models.PurchaseOrder](query, filter.Page, filter.PageSize, "id DESC", preloadLines)
}

// UpdateStatus 更新申请状态
func (r *GormPurchaseOrderRepository) UpdateStatus(id uint, status string, updates map[string]interface{}) error {
	fields := map[string]interface{}{
		"status": status,
	}
	for key, value := range updates {
		fields[key] = value
	}
	return r.db.Model(&models.PurchaseOrder{}).Where("id = ?", id).Updates(fields).Error
}

// Delete 删除采购申请及其申请行
func (r *GormPurchaseOrderRepository) Delete(id uint) error {
	if err := r.db.Where("order_id = ?", id).Delete(&models.PurchaseOrderLine{}).Error; err != nil {
		return err
	}
	return r.db.Delete(&models.PurchaseOrder{}, id).Error
}

// OrderedTotals 按 (公司, 产品, 付款方) 汇总未取消申请的数量
func (r *GormPurchaseOrderRepository) OrderedTotals(filter OrderedTotalsFilter) (map[OrderedKey]decimal.Decimal, error) {
	query := r.db.Table("purchase_order_lines AS l").
		Select("l.company_id, l.product_id, l.payer_id, l.quantity").
		Joins("JOIN purchase_orders AS o ON o.id = l.order_id").
		Where("o.status NOT IN ?", constants.ExcludedFromOrderedStatuses)
	if filter.CompanyID != 0 {
		query = query.Where("l.company_id = ?", filter.CompanyID)
	}
	if ids := uniqueIDs(filter.ProductIDs); len(ids) > 0 {
		query = query.Where("l.product_id IN ?", ids)
	}

	var rows []struct {
		CompanyID uint
		ProductID uint
		PayerID   *uint
		Quantity  models.Quantity
	}
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	totals := make(map[OrderedKey]decimal.Decimal)
	for _, row := range rows {
		key := NewOrderedKey(row.CompanyID, row.ProductID, row.PayerID)
		totals[key] = totals[key].Add(row.Quantity.Decimal)
	}
	return totals, nil
}
