package service

import (
	"context"
	"errors"
	"time"

	"github.com/agro-backoffice/internal/constants"
	"github.com/agro-backoffice/internal/logger"
	"github.com/agro-backoffice/internal/metrics"
	"github.com/agro-backoffice/internal/models"
	"github.com/agro-backoffice/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var errDryRunRollback = errors.New("dry run rollback")

// SyncOptions 同步参数
type SyncOptions struct {
	Scope  repository.PlanScope
	DryRun bool
	// ReconcileOnly 只标记 stale，不新增也不更新
	ReconcileOnly bool
}

// SyncResult 同步结果
type SyncResult struct {
	Added       int64 `json:"added"`
	Updated     int64 `json:"updated"`
	MarkedStale int64 `json:"marked_stale"`
	TotalActive int64 `json:"total_active"`
	DryRun      bool  `json:"dry_run"`
}

// ReconciliationService 计划 → 付款分配的对账同步
type ReconciliationService struct {
	db             *gorm.DB
	planRepo       repository.PlanRepository
	catalogRepo    repository.CatalogRepository
	allocationRepo repository.AllocationRepository
}

// NewReconciliationService 创建对账服务
func NewReconciliationService(
	db *gorm.DB,
	planRepo repository.PlanRepository,
	catalogRepo repository.CatalogRepository,
	allocationRepo repository.AllocationRepository,
) *ReconciliationService {
	return &ReconciliationService{
		db:             db,
		planRepo:       planRepo,
		catalogRepo:    catalogRepo,
		allocationRepo: allocationRepo,
	}
}

type allocationKey struct {
	fieldID   uint
	productID uint
}

type planAggregate struct {
	key       allocationKey
	companyID uint
	quantity  decimal.Decimal
}

// Sync 按 (地块, 产品) 聚合已审批计划并写入分配表，单事务执行
func (s *ReconciliationService) Sync(ctx context.Context, opts SyncOptions) (*SyncResult, error) {
	started := time.Now()
	var result SyncResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := s.syncTx(tx, opts, started)
		if err != nil {
			return err
		}
		result = *r
		if opts.DryRun {
			return errDryRunRollback
		}
		return nil
	})
	if errors.Is(err, errDryRunRollback) {
		err = nil
		result.DryRun = true
	}
	if err != nil {
		logger.Errorw("allocation_sync_failed",
			"company_id", opts.Scope.CompanyID,
			"field_ids", opts.Scope.FieldIDs,
			"product_ids", opts.Scope.ProductIDs,
			"error", err,
		)
		return nil, err
	}
	if !result.DryRun {
		metrics.ObserveSync(result.Added, result.Updated, result.MarkedStale, time.Since(started).Seconds())
	}
	logger.Infow("allocation_sync_done",
		"company_id", opts.Scope.CompanyID,
		"full_scope", opts.Scope.IsEmpty(),
		"added", result.Added,
		"updated", result.Updated,
		"marked_stale", result.MarkedStale,
		"total_active", result.TotalActive,
		"dry_run", result.DryRun,
		"reconcile_only", opts.ReconcileOnly,
		"latency_ms", time.Since(started).Milliseconds(),
	)
	return &result, nil
}

// Reconcile 只标记失效分配
func (s *ReconciliationService) Reconcile(ctx context.Context, scope repository.PlanScope) (*SyncResult, error) {
	return s.Sync(ctx, SyncOptions{Scope: scope, ReconcileOnly: true})
}

// RecomputeRow 针对单条分配重新计算数量
func (s *ReconciliationService) RecomputeRow(ctx context.Context, allocationID uint) (*SyncResult, error) {
	row, err := s.allocationRepo.GetByID(allocationID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrAllocationNotFound
	}
	return s.Sync(ctx, SyncOptions{Scope: repository.PlanScope{
		FieldIDs:   []uint{row.FieldID},
		ProductIDs: []uint{row.ProductID},
	}})
}

func (s *ReconciliationService) syncTx(tx *gorm.DB, opts SyncOptions, now time.Time) (*SyncResult, error) {
	planRepo := s.planRepo.WithTx(tx)
	catalogRepo := s.catalogRepo.WithTx(tx)
	allocationRepo := s.allocationRepo.WithTx(tx)
	result := &SyncResult{}

	lines, err := planRepo.ListApprovedLines(opts.Scope)
	if err != nil {
		return nil, err
	}
	aggregates, order, err := aggregatePlanLines(lines)
	if err != nil {
		return nil, err
	}

	if !opts.ReconcileOnly {
		added, updated, err := upsertAggregates(catalogRepo, allocationRepo, aggregates, order, now)
		if err != nil {
			return nil, err
		}
		result.Added = added
		result.Updated = updated
	}

	active, err := allocationRepo.ListActiveInScope(opts.Scope)
	if err != nil {
		return nil, err
	}
	staleIDs := make([]uint, 0)
	for _, row := range active {
		if _, ok := aggregates[allocationKey{row.FieldID, row.ProductID}]; !ok {
			staleIDs = append(staleIDs, row.ID)
		}
	}
	if result.MarkedStale, err = allocationRepo.MarkStale(staleIDs); err != nil {
		return nil, err
	}
	if result.TotalActive, err = allocationRepo.CountActive(opts.Scope); err != nil {
		return nil, err
	}
	return result, nil
}

// aggregatePlanLines 按 (地块, 产品) 汇总数量，地块或公司缺失时整体失败
func aggregatePlanLines(lines []repository.PlanLineRow) (map[allocationKey]*planAggregate, []allocationKey, error) {
	aggregates := make(map[allocationKey]*planAggregate)
	order := make([]allocationKey, 0)
	for _, line := range lines {
		if line.ResolvedFieldID == nil {
			return nil, nil, &IntegrityError{Err: ErrPlanFieldMissing, PlanID: line.PlanID, FieldID: line.FieldID}
		}
		if line.CompanyID == nil || *line.CompanyID == 0 {
			return nil, nil, &IntegrityError{Err: ErrFieldCompanyMissing, PlanID: line.PlanID, FieldID: line.FieldID}
		}
		key := allocationKey{fieldID: line.FieldID, productID: line.ProductID}
		agg, ok := aggregates[key]
		if !ok {
			agg = &planAggregate{key: key, companyID: *line.CompanyID}
			aggregates[key] = agg
			order = append(order, key)
		} else if agg.companyID != *line.CompanyID {
			return nil, nil, &IntegrityError{Err: ErrFieldCompanyConflict, PlanID: line.PlanID, FieldID: line.FieldID}
		}
		agg.quantity = agg.quantity.Add(line.Quantity())
	}
	return aggregates, order, nil
}

func upsertAggregates(
	catalogRepo repository.CatalogRepository,
	allocationRepo repository.AllocationRepository,
	aggregates map[allocationKey]*planAggregate,
	order []allocationKey,
	now time.Time,
) (int64, int64, error) {
	if len(order) == 0 {
		return 0, 0, nil
	}
	fieldIDs := make([]uint, 0, len(order))
	productIDs := make([]uint, 0, len(order))
	for _, key := range order {
		fieldIDs = append(fieldIDs, key.fieldID)
		productIDs = append(productIDs, key.productID)
	}
	metas, err := catalogRepo.ProductMeta(productIDs)
	if err != nil {
		return 0, 0, err
	}
	existingRows, err := allocationRepo.ListByFieldIDs(fieldIDs)
	if err != nil {
		return 0, 0, err
	}
	existing := make(map[allocationKey]models.PayerAllocation, len(existingRows))
	for _, row := range existingRows {
		existing[allocationKey{row.FieldID, row.ProductID}] = row
	}

	var updated int64
	inserts := make([]models.PayerAllocation, 0)
	for _, key := range order {
		agg := aggregates[key]
		meta := metas[key.productID]
		quantity := models.NewQuantity(agg.quantity)

		row, ok := existing[key]
		if !ok {
			inserts = append(inserts, models.PayerAllocation{
				FieldID:        key.fieldID,
				ProductID:      key.productID,
				CompanyID:      agg.companyID,
				ManufacturerID: meta.ManufacturerID,
				UnitID:         meta.UnitID,
				Quantity:       quantity,
				Status:         constants.AllocationStatusActive,
				CreatedAt:      now,
				UpdatedAt:      now,
			})
			continue
		}

		updates := snapshotChanges(row, agg.companyID, quantity, meta)
		if len(updates) == 0 {
			continue
		}
		updates["updated_at"] = now
		if err := allocationRepo.UpdateSnapshot(row.ID, updates); err != nil {
			return 0, 0, err
		}
		updated++
	}
	if err := allocationRepo.CreateBatch(inserts); err != nil {
		return 0, 0, err
	}
	return int64(len(inserts)), updated, nil
}

// snapshotChanges 比较持久化快照与本次聚合，仅返回变化的列
func snapshotChanges(row models.PayerAllocation, companyID uint, quantity models.Quantity, meta repository.ProductMeta) map[string]interface{} {
	updates := make(map[string]interface{})
	if !row.Quantity.Equal(quantity.Decimal) {
		updates["quantity"] = quantity
	}
	if row.CompanyID != companyID {
		updates["company_id"] = companyID
	}
	if !sameID(row.ManufacturerID, meta.ManufacturerID) {
		updates["manufacturer_id"] = meta.ManufacturerID
	}
	if !sameID(row.UnitID, meta.UnitID) {
		updates["unit_id"] = meta.UnitID
	}
	if row.Status != constants.AllocationStatusActive {
		updates["status"] = constants.AllocationStatusActive
	}
	return updates
}

func sameID(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
