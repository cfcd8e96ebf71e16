package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/agro-backoffice/internal/constants"
	"github.com/agro-backoffice/internal/logger"
	"github.com/agro-backoffice/internal/metrics"
	"github.com/agro-backoffice/internal/models"
	"github.com/agro-backoffice/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SubmitPurchaseLine 提交的申请行
// ManufacturerID 仅用于接收客户端字段，实际厂家始终取自产品目录。
type SubmitPurchaseLine struct {
	ProductID      uint
	PayerID        *uint
	Quantity       decimal.Decimal
	ManufacturerID *uint
}

// SubmitPurchaseInput 提交采购申请输入
type SubmitPurchaseInput struct {
	CompanyID uint
	Lines     []SubmitPurchaseLine
	Note      string
}

// PurchaseOrderService 采购申请服务
type PurchaseOrderService struct {
	db             *gorm.DB
	orderRepo      repository.PurchaseOrderRepository
	allocationRepo repository.AllocationRepository
	catalogRepo    repository.CatalogRepository
	stockRepo      repository.StockRepository
	names          *NameResolver
	locker         SubmitLocker
	lockTTL        time.Duration
}

// NewPurchaseOrderService 创建采购申请服务
func NewPurchaseOrderService(
	db *gorm.DB,
	orderRepo repository.PurchaseOrderRepository,
	allocationRepo repository.AllocationRepository,
	catalogRepo repository.CatalogRepository,
	stockRepo repository.StockRepository,
	names *NameResolver,
	locker SubmitLocker,
	lockTTL time.Duration,
) *PurchaseOrderService {
	if locker == nil {
		locker = noopSubmitLocker{}
	}
	return &PurchaseOrderService{
		db:             db,
		orderRepo:      orderRepo,
		allocationRepo: allocationRepo,
		catalogRepo:    catalogRepo,
		stockRepo:      stockRepo,
		names:          names,
		locker:         locker,
		lockTTL:        lockTTL,
	}
}

// allowedPurchaseTransitions 手动状态流转表，入库状态由入库流程推进
var allowedPurchaseTransitions = map[string]map[string]bool{
	constants.PurchaseOrderStatusSubmitted: {
		constants.PurchaseOrderStatusPaid:      true,
		constants.PurchaseOrderStatusCancelled: true,
		constants.PurchaseOrderStatusRejected:  true,
	},
	constants.PurchaseOrderStatusPaid: {
		constants.PurchaseOrderStatusCancelled: true,
	},
}

// Submit 按剩余量截断后写入采购申请
func (s *PurchaseOrderService) Submit(ctx context.Context, input SubmitPurchaseInput) (*models.PurchaseOrder, error) {
	if input.CompanyID == 0 {
		metrics.PurchaseSubmissions.WithLabelValues("no_company").Inc()
		return nil, ErrPurchaseCompanyRequired
	}
	company, err := s.catalogRepo.GetCompany(input.CompanyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, ErrCompanyNotFound
	}
	if input.Lines, err = s.normalizeLines(input.Lines); err != nil {
		metrics.PurchaseSubmissions.WithLabelValues("invalid").Inc()
		return nil, err
	}

	release, err := s.locker.Obtain(ctx, fmt.Sprintf("purchase_submit:%d", input.CompanyID), s.lockTTL)
	if err != nil {
		metrics.PurchaseSubmissions.WithLabelValues("locked").Inc()
		return nil, err
	}
	defer release()

	productIDs := make([]uint, 0, len(input.Lines))
	ids := idCollector{}
	for _, line := range input.Lines {
		productIDs = append(productIDs, line.ProductID)
		ids.addPtr(constants.NameKindPayer, line.PayerID)
	}

	var order *models.PurchaseOrder
	var clamped, skipped int
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		remaining, err := remainingByTriple(s.allocationRepo.WithTx(tx), orderRepo, input.CompanyID, productIDs, true)
		if err != nil {
			return err
		}
		metas, err := s.catalogRepo.WithTx(tx).ProductMeta(productIDs)
		if err != nil {
			return err
		}
		for _, meta := range metas {
			ids.addPtr(constants.NameKindManufacturer, meta.ManufacturerID)
		}
		book, err := s.names.Names(ctx, ids)
		if err != nil {
			return err
		}

		consumed := make(map[repository.OrderedKey]decimal.Decimal)
		lines := make([]models.PurchaseOrderLine, 0, len(input.Lines))
		for _, line := range input.Lines {
			requested := line.Quantity.Round(models.QuantityScale)
			if line.ProductID == 0 || !requested.IsPositive() {
				skipped++
				continue
			}
			key := repository.NewOrderedKey(input.CompanyID, line.ProductID, line.PayerID)
			available := remaining[key].Sub(consumed[key])
			effective := decimal.Min(requested, available)
			if !effective.IsPositive() {
				skipped++
				continue
			}
			if effective.LessThan(requested) {
				clamped++
			}
			consumed[key] = consumed[key].Add(effective)

			meta := metas[line.ProductID]
			lines = append(lines, models.PurchaseOrderLine{
				LineIndex:        len(lines) + 1,
				CompanyID:        input.CompanyID,
				ProductID:        line.ProductID,
				PayerID:          line.PayerID,
				UnitID:           meta.UnitID,
				ManufacturerID:   meta.ManufacturerID,
				Quantity:         models.NewQuantity(effective),
				PackageText:      meta.Container,
				ProductName:      meta.Name,
				PayerName:        book.Get(constants.NameKindPayer, line.PayerID),
				ManufacturerName: book.Get(constants.NameKindManufacturer, meta.ManufacturerID),
			})
		}
		if len(lines) == 0 {
			return ErrNothingToSubmit
		}

		order = &models.PurchaseOrder{
			OrderNo:   generatePurchaseOrderNo(),
			CompanyID: input.CompanyID,
			Status:    constants.PurchaseOrderStatusSubmitted,
			Note:      strings.TrimSpace(input.Note),
		}
		return orderRepo.Create(order, lines)
	})
	if err != nil {
		if errors.Is(err, ErrNothingToSubmit) {
			metrics.PurchaseSubmissions.WithLabelValues("nothing_to_submit").Inc()
		} else {
			metrics.PurchaseSubmissions.WithLabelValues("error").Inc()
			logger.Errorw("purchase_order_submit_failed", "company_id", input.CompanyID, "error", err)
		}
		return nil, err
	}

	metrics.PurchaseSubmissions.WithLabelValues("ok").Inc()
	metrics.PurchaseLinesClamped.Add(float64(clamped))
	logger.Infow("purchase_order_submitted",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"company_id", order.CompanyID,
		"lines", len(order.Lines),
		"clamped", clamped,
		"skipped", skipped,
	)
	return order, nil
}

// normalizeLines 写入前校验：负数量拒绝整单，payer_id 0 视为未指定，付款方必须存在
func (s *PurchaseOrderService) normalizeLines(lines []SubmitPurchaseLine) ([]SubmitPurchaseLine, error) {
	out := make([]SubmitPurchaseLine, len(lines))
	payerIDs := make([]uint, 0, len(lines))
	for i, line := range lines {
		if line.Quantity.Round(models.QuantityScale).IsNegative() {
			return nil, fmt.Errorf("%w: line %d is negative", ErrInvalidQuantity, i+1)
		}
		if line.PayerID != nil && *line.PayerID == 0 {
			line.PayerID = nil
		}
		if line.PayerID != nil {
			payerIDs = append(payerIDs, *line.PayerID)
		}
		out[i] = line
	}
	if len(payerIDs) == 0 {
		return out, nil
	}
	found, err := s.catalogRepo.NameMap(constants.NameKindPayer, payerIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range payerIDs {
		if _, ok := found[id]; !ok {
			return nil, ErrPayerNotFound
		}
	}
	return out, nil
}

// Get 获取采购申请详情
func (s *PurchaseOrderService) Get(id uint) (*models.PurchaseOrder, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// List 查询采购申请列表
func (s *PurchaseOrderService) List(filter repository.PurchaseOrderListFilter) ([]models.PurchaseOrder, int64, error) {
	return s.orderRepo.List(filter)
}

// UpdateStatus 手动推进申请状态（付款、取消、驳回）
func (s *PurchaseOrderService) UpdateStatus(ctx context.Context, id uint, target string) (*models.PurchaseOrder, error) {
	target = strings.ToLower(strings.TrimSpace(target))
	if target == constants.PurchaseOrderStatusCanceled {
		target = constants.PurchaseOrderStatusCancelled
	}
	var updated *models.PurchaseOrder
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		order, err := orderRepo.GetByIDForUpdate(id)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if !allowedPurchaseTransitions[order.Status][target] {
			return ErrOrderStatusInvalid
		}
		if target == constants.PurchaseOrderStatusCancelled {
			count, err := s.stockRepo.WithTx(tx).CountBySource(order.ID)
			if err != nil {
				return err
			}
			if count > 0 {
				return ErrOrderHasReceipts
			}
		}
		now := time.Now()
		updates := map[string]interface{}{"updated_at": now}
		if target == constants.PurchaseOrderStatusPaid {
			updates["paid_at"] = now
		}
		if err := orderRepo.UpdateStatus(order.ID, target, updates); err != nil {
			return err
		}
		updated, err = orderRepo.GetByID(order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("purchase_order_status_updated", "order_id", id, "status", target)
	return updated, nil
}

// Delete 删除尚未入库的采购申请
func (s *PurchaseOrderService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		order, err := orderRepo.GetByID(id)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		count, err := s.stockRepo.WithTx(tx).CountBySource(id)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrOrderHasReceipts
		}
		if err := orderRepo.Delete(id); err != nil {
			return err
		}
		logger.Infow("purchase_order_deleted", "order_id", id, "order_no", order.OrderNo)
		return nil
	})
}

func generatePurchaseOrderNo() string {
	now := time.Now().Format("20060102150405")
	return fmt.Sprintf("PR%s%s", now, randNumeric(6))
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(n.String())
	}
	return b.String()
}
