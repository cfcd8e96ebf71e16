package service

import (
	"context"
	"time"

	"github.com/agro-backoffice/internal/constants"
	"github.com/agro-backoffice/internal/logger"
	"github.com/agro-backoffice/internal/models"
	"github.com/agro-backoffice/internal/repository"

	"gorm.io/gorm"
)

// AllocationView 分配行及其展示名称
type AllocationView struct {
	models.PayerAllocation
	CompanyName      string `json:"company_name"`
	FieldName        string `json:"field_name"`
	ProductName      string `json:"product_name"`
	ManufacturerName string `json:"manufacturer_name"`
	UnitName         string `json:"unit_name"`
	PayerName        string `json:"payer_name"`
}

// AllocationService 付款方分配服务
type AllocationService struct {
	db             *gorm.DB
	allocationRepo repository.AllocationRepository
	catalogRepo    repository.CatalogRepository
	names          *NameResolver
}

// NewAllocationService 创建付款方分配服务
func NewAllocationService(
	db *gorm.DB,
	allocationRepo repository.AllocationRepository,
	catalogRepo repository.CatalogRepository,
	names *NameResolver,
) *AllocationService {
	return &AllocationService{
		db:             db,
		allocationRepo: allocationRepo,
		catalogRepo:    catalogRepo,
		names:          names,
	}
}

// List 分页查询分配并补全名称
func (s *AllocationService) List(ctx context.Context, filter repository.AllocationListFilter) ([]AllocationView, int64, error) {
	rows, total, err := s.allocationRepo.List(filter)
	if err != nil {
		return nil, 0, err
	}
	ids := idCollector{}
	for _, row := range rows {
		ids.add(constants.NameKindCompany, row.CompanyID)
		ids.add(constants.NameKindField, row.FieldID)
		ids.add(constants.NameKindProduct, row.ProductID)
		ids.addPtr(constants.NameKindManufacturer, row.ManufacturerID)
		ids.addPtr(constants.NameKindUnit, row.UnitID)
		ids.addPtr(constants.NameKindPayer, row.PayerID)
	}
	book, err := s.names.Names(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	views := make([]AllocationView, 0, len(rows))
	for _, row := range rows {
		views = append(views, AllocationView{
			PayerAllocation:  row,
			CompanyName:      book.GetID(constants.NameKindCompany, row.CompanyID),
			FieldName:        book.GetID(constants.NameKindField, row.FieldID),
			ProductName:      book.GetID(constants.NameKindProduct, row.ProductID),
			ManufacturerName: book.Get(constants.NameKindManufacturer, row.ManufacturerID),
			UnitName:         book.Get(constants.NameKindUnit, row.UnitID),
			PayerName:        book.Get(constants.NameKindPayer, row.PayerID),
		})
	}
	return views, total, nil
}

// SetPayer 设置或清除单条分配的付款方，payerID 为空表示清除
func (s *AllocationService) SetPayer(ctx context.Context, allocationID uint, payerID *uint) (*models.PayerAllocation, error) {
	var updated *models.PayerAllocation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		allocationRepo := s.allocationRepo.WithTx(tx)
		row, err := allocationRepo.GetByID(allocationID)
		if err != nil {
			return err
		}
		if row == nil {
			return ErrAllocationNotFound
		}
		if err := s.assign(tx, []uint{row.ID}, payerID); err != nil {
			return err
		}
		updated, err = allocationRepo.GetByID(row.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// BulkAssign 为多条分配设置同一付款方
func (s *AllocationService) BulkAssign(ctx context.Context, allocationIDs []uint, payerID *uint) (int64, error) {
	if len(allocationIDs) == 0 {
		return 0, ErrInvalidScope
	}
	var affected int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkPayer(tx, payerID); err != nil {
			return err
		}
		var err error
		affected, err = s.allocationRepo.WithTx(tx).SetPayer(allocationIDs, payerID, assignedAt(payerID))
		return err
	})
	if err != nil {
		return 0, err
	}
	logger.Infow("allocation_payer_bulk_assigned", "rows", affected, "payer_id", payerID)
	return affected, nil
}

func (s *AllocationService) assign(tx *gorm.DB, ids []uint, payerID *uint) error {
	if err := s.checkPayer(tx, payerID); err != nil {
		return err
	}
	if _, err := s.allocationRepo.WithTx(tx).SetPayer(ids, payerID, assignedAt(payerID)); err != nil {
		return err
	}
	logger.Infow("allocation_payer_assigned", "allocation_ids", ids, "payer_id", payerID)
	return nil
}

func (s *AllocationService) checkPayer(tx *gorm.DB, payerID *uint) error {
	if payerID == nil {
		return nil
	}
	if *payerID == 0 {
		return ErrPayerNotFound
	}
	found, err := s.catalogRepo.WithTx(tx).NameMap(constants.NameKindPayer, []uint{*payerID})
	if err != nil {
		return err
	}
	if _, ok := found[*payerID]; !ok {
		return ErrPayerNotFound
	}
	return nil
}

func assignedAt(payerID *uint) *time.Time {
	if payerID == nil {
		return nil
	}
	now := time.Now()
	return &now
}

// PurgeStale 删除作用范围内的 stale 分配
func (s *AllocationService) PurgeStale(ctx context.Context, scope repository.PlanScope) (int64, error) {
	var purged int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		purged, err = s.allocationRepo.WithTx(tx).PurgeStale(scope)
		return err
	})
	if err != nil {
		return 0, err
	}
	logger.Infow("allocation_stale_purged", "company_id", scope.CompanyID, "rows", purged)
	return purged, nil
}
