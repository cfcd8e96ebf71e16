package repository

import (
	"errors"
	"time"

	"github.com/agro-backoffice/internal/constants"
	"github.com/agro-backoffice/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PlanLineRow 已审批计划的单条处理行
// ResolvedFieldID 为空表示计划引用的地块不存在。
type PlanLineRow struct {
	PlanID          uint
	TreatmentID     uint
	FieldID         uint
	ResolvedFieldID *uint
	CompanyID       *uint
	CultureID       *uint
	ProductID       uint
	Area            decimal.NullDecimal
	Rate            decimal.Decimal
}

// Quantity 计算 面积 × 用量，面积为空按 0 处理
func (r PlanLineRow) Quantity() decimal.Decimal {
	if !r.Area.Valid {
		return decimal.Zero
	}
	return r.Area.Decimal.Mul(r.Rate)
}

// PlanRepository 计划数据访问接口
type PlanRepository interface {
	ListApprovedLines(scope PlanScope) ([]PlanLineRow, error)
	GetByID(id uint) (*models.Plan, error)
	ListByIDs(ids []uint) ([]models.Plan, error)
	SetApproved(ids []uint, approved bool, at *time.Time) (int64, error)
	WithTx(tx *gorm.DB) *GormPlanRepository
}

// GormPlanRepository GORM 实现
type GormPlanRepository struct {
	db *gorm.DB
}

// NewPlanRepository 创建计划仓库
func NewPlanRepository(db *gorm.DB) *GormPlanRepository {
	return &GormPlanRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPlanRepository) WithTx(tx *gorm.DB) *GormPlanRepository {
	if tx == nil {
		return r
	}
	return &GormPlanRepository{db: tx}
}

// ListApprovedLines 读取作用范围内已审批计划的处理行
// 地块通过 LEFT JOIN 关联，以便上层识别缺失的地块或公司。
func (r *GormPlanRepository) ListApprovedLines(scope PlanScope) ([]PlanLineRow, error) {
	query := r.db.Table("treatments AS t").
		Select(`p.id AS plan_id, t.id AS treatment_id, p.field_id AS field_id, f.id AS resolved_field_id,
			f.company_id AS company_id, f.culture_id AS culture_id, t.product_id AS product_id,
			f.area AS area, t.rate AS rate`).
		Joins("JOIN plans AS p ON p.id = t.plan_id").
		Joins("LEFT JOIN fields AS f ON f.id = p.field_id").
		Where("p.is_approved = ?", true)

	if scope.CompanyID != 0 {
		query = query.Where("f.company_id = ?", scope.CompanyID)
	}
	if ids := uniqueIDs(scope.FieldIDs); len(ids) > 0 {
		query = query.Where("p.field_id IN ?", ids)
	}
	if ids := uniqueIDs(scope.ProductIDs); len(ids) > 0 {
		query = query.Where("t.product_id IN ?", ids)
	}

	var rows []PlanLineRow
	if err := query.Order("p.field_id ASC, t.product_id ASC, t.id ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetByID 获取计划及其处理项
func (r *GormPlanRepository) GetByID(id uint) (*models.Plan, error) {
	var plan models.Plan
	if err := r.db.Preload("Treatments").First(&plan, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

// ListByIDs 批量获取计划
func (r *GormPlanRepository) ListByIDs(ids []uint) ([]models.Plan, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	var plans []models.Plan
	if err := r.db.Where("id IN ?", ids).Order("id ASC").Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

// SetApproved 批量设置审批状态
func (r *GormPlanRepository) SetApproved(ids []uint, approved bool, at *time.Time) (int64, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return 0, nil
	}
	status := constants.PlanStatusDraft
	if approved {
		status = constants.PlanStatusApproved
	}
	result := r.db.Model(&models.Plan{}).
		Where("id IN ?", ids).
		Where("is_approved <> ?", approved).
		Updates(map[string]interface{}{
			"is_approved": approved,
			"approved_at": at,
			"status":      status,
			"updated_at":  time.Now(),
		})
	return result.RowsAffected, result.Error
}
