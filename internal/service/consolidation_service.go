package service

import (
	"context"
	"sort"
	"strings"

	"github.com/agro-backoffice/internal/constants"
	"github.com/agro-backoffice/internal/models"
	"github.com/agro-backoffice/internal/repository"

	"github.com/shopspring/decimal"
)

// ConsolidatedFilter 汇总过滤条件
type ConsolidatedFilter = repository.AllocationTotalsFilter

// ConsolidatedRow 剩余待申请数量
type ConsolidatedRow struct {
	CompanyID         uint             `json:"company_id"`
	ProductID         uint             `json:"product_id"`
	ManufacturerID    *uint            `json:"manufacturer_id"`
	UnitID            *uint            `json:"unit_id"`
	PayerID           *uint            `json:"payer_id"`
	TotalQty          models.Quantity  `json:"total_qty"`
	AlreadyOrderedQty models.Quantity  `json:"already_ordered_qty"`
	RemainingRawQty   models.Quantity  `json:"remaining_raw_qty"`
	RemainingQty      models.Quantity  `json:"remaining_qty"`
	PackageText       string           `json:"package"`
	PackageSize       *models.Quantity `json:"package_size"`
	CompanyName       string           `json:"company_name"`
	ProductName       string           `json:"product_name"`
	ManufacturerName  string           `json:"manufacturer_name"`
	UnitName          string           `json:"unit_name"`
	PayerName         string           `json:"payer_name"`
}

// ConsolidationService 分配与已申请数量的汇总
type ConsolidationService struct {
	allocationRepo  repository.AllocationRepository
	orderRepo       repository.PurchaseOrderRepository
	catalogRepo     repository.CatalogRepository
	names           *NameResolver
	packageRounding bool
}

// NewConsolidationService 创建汇总服务
func NewConsolidationService(
	allocationRepo repository.AllocationRepository,
	orderRepo repository.PurchaseOrderRepository,
	catalogRepo repository.CatalogRepository,
	names *NameResolver,
	packageRounding bool,
) *ConsolidationService {
	return &ConsolidationService{
		allocationRepo:  allocationRepo,
		orderRepo:       orderRepo,
		catalogRepo:     catalogRepo,
		names:           names,
		packageRounding: packageRounding,
	}
}

type consolidationKey struct {
	companyID      uint
	productID      uint
	manufacturerID uint
	unitID         uint
	payerID        uint
}

type consolidationGroup struct {
	key            consolidationKey
	manufacturerID *uint
	unitID         *uint
	payerID        *uint
	total          decimal.Decimal
}

// Consolidated 按 (公司, 产品, 厂家, 单位, 付款方) 汇总剩余待申请数量
func (s *ConsolidationService) Consolidated(ctx context.Context, filter ConsolidatedFilter) ([]ConsolidatedRow, error) {
	rows, err := s.allocationRepo.ListActive(filter)
	if err != nil {
		return nil, err
	}
	groups := groupAllocations(rows)
	if len(groups) == 0 {
		return []ConsolidatedRow{}, nil
	}

	productIDs := make([]uint, 0, len(groups))
	for _, g := range groups {
		productIDs = append(productIDs, g.key.productID)
	}
	ordered, err := s.orderRepo.OrderedTotals(repository.OrderedTotalsFilter{
		CompanyID:  filter.CompanyID,
		ProductIDs: productIDs,
	})
	if err != nil {
		return nil, err
	}
	metas, err := s.catalogRepo.ProductMeta(productIDs)
	if err != nil {
		return nil, err
	}

	ids := idCollector{}
	for _, g := range groups {
		ids.add(constants.NameKindCompany, g.key.companyID)
		ids.add(constants.NameKindProduct, g.key.productID)
		ids.addPtr(constants.NameKindManufacturer, g.manufacturerID)
		ids.addPtr(constants.NameKindUnit, g.unitID)
		ids.addPtr(constants.NameKindPayer, g.payerID)
	}
	book, err := s.names.Names(ctx, ids)
	if err != nil {
		return nil, err
	}

	// 同一 (公司, 产品, 付款方) 拆成多组时，已申请量按组顺序依次抵扣
	consumed := make(map[repository.OrderedKey]decimal.Decimal)
	lastGroup := lastGroupIndexByTriple(groups)
	result := make([]ConsolidatedRow, 0, len(groups))
	for i, g := range groups {
		triple := repository.OrderedKey{CompanyID: g.key.companyID, ProductID: g.key.productID, PayerID: g.key.payerID}
		left := ordered[triple].Sub(consumed[triple])
		already := decimal.Min(left, g.total)
		if lastGroup[triple] == i {
			already = left
		}
		if already.IsNegative() {
			already = decimal.Zero
		}
		consumed[triple] = consumed[triple].Add(already)

		remainingRaw := decimal.Max(g.total.Sub(already), decimal.Zero)
		remaining := remainingRaw
		meta := metas[g.key.productID]
		var packageSize *models.Quantity
		if size, ok := ParsePackageSize(meta.Container); ok {
			q := models.NewQuantity(size)
			packageSize = &q
			if s.packageRounding {
				remaining = RoundUpToPackage(remainingRaw, size)
			}
		}

		result = append(result, ConsolidatedRow{
			CompanyID:         g.key.companyID,
			ProductID:         g.key.productID,
			ManufacturerID:    g.manufacturerID,
			UnitID:            g.unitID,
			PayerID:           g.payerID,
			TotalQty:          models.NewQuantity(g.total),
			AlreadyOrderedQty: models.NewQuantity(already),
			RemainingRawQty:   models.NewQuantity(remainingRaw),
			RemainingQty:      models.NewQuantity(remaining),
			PackageText:       meta.Container,
			PackageSize:       packageSize,
			CompanyName:       book.GetID(constants.NameKindCompany, g.key.companyID),
			ProductName:       book.GetID(constants.NameKindProduct, g.key.productID),
			ManufacturerName:  book.Get(constants.NameKindManufacturer, g.manufacturerID),
			UnitName:          book.Get(constants.NameKindUnit, g.unitID),
			PayerName:         book.Get(constants.NameKindPayer, g.payerID),
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if c := strings.Compare(a.CompanyName, b.CompanyName); c != 0 {
			return c < 0
		}
		if c := strings.Compare(a.ProductName, b.ProductName); c != 0 {
			return c < 0
		}
		return strings.Compare(a.PayerName, b.PayerName) < 0
	})
	return result, nil
}

func groupAllocations(rows []models.PayerAllocation) []*consolidationGroup {
	index := make(map[consolidationKey]*consolidationGroup)
	groups := make([]*consolidationGroup, 0)
	for _, row := range rows {
		key := consolidationKey{
			companyID:      row.CompanyID,
			productID:      row.ProductID,
			manufacturerID: derefID(row.ManufacturerID),
			unitID:         derefID(row.UnitID),
			payerID:        derefID(row.PayerID),
		}
		g, ok := index[key]
		if !ok {
			g = &consolidationGroup{
				key:            key,
				manufacturerID: row.ManufacturerID,
				unitID:         row.UnitID,
				payerID:        row.PayerID,
			}
			index[key] = g
			groups = append(groups, g)
		}
		g.total = g.total.Add(row.Quantity.Decimal)
	}
	return groups
}

func lastGroupIndexByTriple(groups []*consolidationGroup) map[repository.OrderedKey]int {
	last := make(map[repository.OrderedKey]int, len(groups))
	for i, g := range groups {
		last[repository.OrderedKey{CompanyID: g.key.companyID, ProductID: g.key.productID, PayerID: g.key.payerID}] = i
	}
	return last
}

// remainingByTriple 计算 (公司, 产品, 付款方) 的未取整剩余量
// lock 为 true 时在支持的方言上锁定相关分配行。
func remainingByTriple(
	allocationRepo repository.AllocationRepository,
	orderRepo repository.PurchaseOrderRepository,
	companyID uint,
	productIDs []uint,
	lock bool,
) (map[repository.OrderedKey]decimal.Decimal, error) {
	var rows []models.PayerAllocation
	var err error
	if lock {
		rows, err = allocationRepo.LockActiveByCompanyProducts(companyID, productIDs)
	} else {
		rows, err = allocationRepo.ListActive(repository.AllocationTotalsFilter{CompanyID: companyID})
	}
	if err != nil {
		return nil, err
	}
	totals := make(map[repository.OrderedKey]decimal.Decimal)
	for _, row := range rows {
		key := repository.NewOrderedKey(row.CompanyID, row.ProductID, row.PayerID)
		totals[key] = totals[key].Add(row.Quantity.Decimal)
	}
	ordered, err := orderRepo.OrderedTotals(repository.OrderedTotalsFilter{CompanyID: companyID, ProductIDs: productIDs})
	if err != nil {
		return nil, err
	}
	remaining := make(map[repository.OrderedKey]decimal.Decimal, len(totals))
	for key, total := range totals {
		remaining[key] = decimal.Max(total.Sub(ordered[key]), decimal.Zero)
	}
	return remaining, nil
}

func derefID(id *uint) uint {
	if id == nil {
		return 0
	}
	return *id
}
