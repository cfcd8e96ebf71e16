package repository

import (
	"errors"
	"time"

	"github.com/agro-backoffice/internal/constants"
	"github.com/agro-backoffice/internal/models"

	"gorm.io/gorm"
)

// AllocationRepository 付款分配数据访问接口
type AllocationRepository interface {
	GetByID(id uint) (*models.PayerAllocation, error)
	ListByFieldIDs(fieldIDs []uint) ([]models.PayerAllocation, error)
	ListActiveInScope(scope PlanScope) ([]models.PayerAllocation, error)
	ListActive(filter AllocationTotalsFilter) ([]models.PayerAllocation, error)
	LockActiveByCompanyProducts(companyID uint, productIDs []uint) ([]models.PayerAllocation, error)
	List(filter AllocationListFilter) ([]models.PayerAllocation, int64, error)
	CreateBatch(rows []models.PayerAllocation) error
	UpdateSnapshot(id uint, updates map[string]interface{}) error
	MarkStale(ids []uint) (int64, error)
	CountActive(scope PlanScope) (int64, error)
	SetPayer(ids []uint, payerID *uint, assignedAt *time.Time) (int64, error)
	PurgeStale(scope PlanScope) (int64, error)
	WithTx(tx *gorm.DB) *GormAllocationRepository
}

// GormAllocationRepository GORM 实现
type GormAllocationRepository struct {
	db *gorm.DB
}

// NewAllocationRepository 创建付款分配仓库
func NewAllocationRepository(db *gorm.DB) *GormAllocationRepository {
	return &GormAllocationRepository{db: db}
}

// WithTx 绑定事务
func (r *GormAllocationRepository) WithTx(tx *gorm.DB) *GormAllocationRepository {
	if tx == nil {
		return r
	}
	return &GormAllocationRepository{db: tx}
}

func applyAllocationScope(query *gorm.DB, scope PlanScope) *gorm.DB {
	if scope.CompanyID != 0 {
		query = query.Where("company_id = ?", scope.CompanyID)
	}
	if ids := uniqueIDs(scope.FieldIDs); len(ids) > 0 {
		query = query.Where("field_id IN ?", ids)
	}
	if ids := uniqueIDs(scope.ProductIDs); len(ids) > 0 {
		query = query.Where("product_id IN ?", ids)
	}
	return query
}

// GetByID 根据 ID 获取分配
func (r *GormAllocationRepository) GetByID(id uint) (*models.PayerAllocation, error) {
	var row models.PayerAllocation
	if err := r.db.First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// ListByFieldIDs 读取指定地块的全部分配（含 stale）
func (r *GormAllocationRepository) ListByFieldIDs(fieldIDs []uint) ([]models.PayerAllocation, error) {
	fieldIDs = uniqueIDs(fieldIDs)
	if len(fieldIDs) == 0 {
		return nil, nil
	}
	var rows []models.PayerAllocation
	if err := r.db.Where("field_id IN ?", fieldIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListActiveInScope 读取作用范围内的活跃分配
func (r *GormAllocationRepository) ListActiveInScope(scope PlanScope) ([]models.PayerAllocation, error) {
	query := applyAllocationScope(r.db.Model(&models.PayerAllocation{}), scope).
		Where("status = ?", constants.AllocationStatusActive)
	var rows []models.PayerAllocation
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListActive 按汇总过滤条件读取活跃分配
func (r *GormAllocationRepository) ListActive(filter AllocationTotalsFilter) ([]models.PayerAllocation, error) {
	query := r.db.Model(&models.PayerAllocation{}).Where("status = ?", constants.AllocationStatusActive)
	if filter.CompanyID != 0 {
		query = query.Where("company_id = ?", filter.CompanyID)
	}
	if filter.ProductID != 0 {
		query = query.Where("product_id = ?", filter.ProductID)
	}
	if filter.ManufacturerID != 0 {
		query = query.Where("manufacturer_id = ?", filter.ManufacturerID)
	}
	if filter.PayerID != 0 {
		query = query.Where("payer_id = ?", filter.PayerID)
	}
	var rows []models.PayerAllocation
	if err := query.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// LockActiveByCompanyProducts 读取公司指定产品的活跃分配，支持的方言上加行锁
func (r *GormAllocationRepository) LockActiveByCompanyProducts(companyID uint, productIDs []uint) ([]models.PayerAllocation, error) {
	productIDs = uniqueIDs(productIDs)
	if companyID == 0 || len(productIDs) == 0 {
		return nil, nil
	}
	query := lockForUpdate(r.db.Model(&models.PayerAllocation{})).
		Where("company_id = ?", companyID).
		Where("product_id IN ?", productIDs).
		Where("status = ?", constants.AllocationStatusActive)
	var rows []models.PayerAllocation
	if err := query.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// List 分页查询分配
func (r *GormAllocationRepository) List(filter AllocationListFilter) ([]models.PayerAllocation, int64, error) {
	query := r.db.Model(&models.PayerAllocation{})
	if filter.CompanyID != 0 {
		query = query.Where("company_id = ?", filter.CompanyID)
	}
	if filter.FieldID != 0 {
		query = query.Where("field_id = ?", filter.FieldID)
	}
	if filter.ProductID != 0 {
		query = query.Where("product_id = ?", filter.ProductID)
	}
	if filter.Unassigned {
		query = query.Where("payer_id IS NULL")
	} else if filter.PayerID != 0 {
		query = query.Where("payer_id = ?", filter.PayerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	return findPage[models.PayerAllocation](query, filter.Page, filter.PageSize, "company_id ASC, field_id ASC, product_id ASC")
}

// CreateBatch 批量插入分配
func (r *GormAllocationRepository) CreateBatch(rows []models.PayerAllocation) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.CreateInBatches(&rows, 200).Error
}

// UpdateSnapshot 更新计划快照字段，不触碰付款方
func (r *GormAllocationRepository) UpdateSnapshot(id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	delete(updates, "payer_id")
	delete(updates, "assigned_at")
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return r.db.Model(&models.PayerAllocation{}).Where("id = ?", id).Updates(updates).Error
}

// MarkStale 将分配标记为 stale
func (r *GormAllocationRepository) MarkStale(ids []uint) (int64, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.PayerAllocation{}).
		Where("id IN ?", ids).
		Where("status = ?", constants.AllocationStatusActive).
		Updates(map[string]interface{}{
			"status":     constants.AllocationStatusStale,
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}

// CountActive 统计作用范围内的活跃分配
func (r *GormAllocationRepository) CountActive(scope PlanScope) (int64, error) {
	var total int64
	err := applyAllocationScope(r.db.Model(&models.PayerAllocation{}), scope).
		Where("status = ?", constants.AllocationStatusActive).
		Count(&total).Error
	return total, err
}

// SetPayer 设置或清除付款方，只更新 payer_id 与 assigned_at
func (r *GormAllocationRepository) SetPayer(ids []uint, payerID *uint, assignedAt *time.Time) (int64, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.PayerAllocation{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"payer_id":    payerID,
			"assigned_at": assignedAt,
			"updated_at":  time.Now(),
		})
	return result.RowsAffected, result.Error
}

// PurgeStale 物理删除作用范围内的 stale 分配
func (r *GormAllocationRepository) PurgeStale(scope PlanScope) (int64, error) {
	result := applyAllocationScope(r.db.Model(&models.PayerAllocation{}), scope).
		Where("status = ?", constants.AllocationStatusStale).
		Delete(&models.PayerAllocation{})
	return result.RowsAffected, result.Error
}
