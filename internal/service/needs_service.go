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

// NeedsRow 已审批计划按 (公司, 作物, 产品) 汇总的需求量
type NeedsRow struct {
	CompanyID   uint            `json:"company_id"`
	CultureID   *uint           `json:"culture_id"`
	ProductID   uint            `json:"product_id"`
	Area        models.Quantity `json:"area"`
	Quantity    models.Quantity `json:"quantity"`
	FieldCount  int             `json:"field_count"`
	CompanyName string          `json:"company_name"`
	CultureName string          `json:"culture_name"`
	ProductName string          `json:"product_name"`
}

// NeedsService 需求汇总服务
type NeedsService struct {
	planRepo repository.PlanRepository
	names    *NameResolver
}

// NewNeedsService 创建需求汇总服务
func NewNeedsService(planRepo repository.PlanRepository, names *NameResolver) *NeedsService {
	return &NeedsService{planRepo: planRepo, names: names}
}

type needsKey struct {
	companyID uint
	cultureID uint
	productID uint
}

// Summary 汇总需求，地块或公司缺失的行被跳过
func (s *NeedsService) Summary(ctx context.Context, scope repository.PlanScope) ([]NeedsRow, error) {
	lines, err := s.planRepo.ListApprovedLines(scope)
	if err != nil {
		return nil, err
	}

	type acc struct {
		cultureID *uint
		area      decimal.Decimal
		quantity  decimal.Decimal
		fields    map[uint]struct{}
	}
	index := make(map[needsKey]*acc)
	keys := make([]needsKey, 0)
	for _, line := range lines {
		if line.ResolvedFieldID == nil || line.CompanyID == nil || *line.CompanyID == 0 {
			continue
		}
		key := needsKey{companyID: *line.CompanyID, cultureID: derefID(line.CultureID), productID: line.ProductID}
		a, ok := index[key]
		if !ok {
			a = &acc{cultureID: line.CultureID, fields: make(map[uint]struct{})}
			index[key] = a
			keys = append(keys, key)
		}
		if _, seen := a.fields[line.FieldID]; !seen && line.Area.Valid {
			a.area = a.area.Add(line.Area.Decimal)
		}
		a.fields[line.FieldID] = struct{}{}
		a.quantity = a.quantity.Add(line.Quantity())
	}

	ids := idCollector{}
	for _, key := range keys {
		ids.add(constants.NameKindCompany, key.companyID)
		ids.add(constants.NameKindCulture, key.cultureID)
		ids.add(constants.NameKindProduct, key.productID)
	}
	book, err := s.names.Names(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]NeedsRow, 0, len(keys))
	for _, key := range keys {
		a := index[key]
		result = append(result, NeedsRow{
			CompanyID:   key.companyID,
			CultureID:   a.cultureID,
			ProductID:   key.productID,
			Area:        models.NewQuantity(a.area),
			Quantity:    models.NewQuantity(a.quantity),
			FieldCount:  len(a.fields),
			CompanyName: book.GetID(constants.NameKindCompany, key.companyID),
			CultureName: book.Get(constants.NameKindCulture, a.cultureID),
			ProductName: book.GetID(constants.NameKindProduct, key.productID),
		})
	}
	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if c := strings.Compare(a.CompanyName, b.CompanyName); c != 0 {
			return c < 0
		}
		if c := strings.Compare(a.CultureName, b.CultureName); c != 0 {
			return c < 0
		}
		return strings.Compare(a.ProductName, b.ProductName) < 0
	})
	return result, nil
}
