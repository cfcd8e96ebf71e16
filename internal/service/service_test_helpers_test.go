package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/agro-backoffice/internal/constants"
	"github.com/agro-backoffice/internal/models"
	"github.com/agro-backoffice/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type serviceEnv struct {
	db             *gorm.DB
	planRepo       *repository.GormPlanRepository
	catalogRepo    *repository.GormCatalogRepository
	allocationRepo *repository.GormAllocationRepository
	orderRepo      *repository.GormPurchaseOrderRepository
	stockRepo      *repository.GormStockRepository
	names          *NameResolver
	reconciler     *ReconciliationService
	consolidation  *ConsolidationService
	purchases      *PurchaseOrderService
	receiving      *ReceivingService
	allocations    *AllocationService
	plans          *PlanService
	needs          *NeedsService
	exports        *ExportService
}

type farmFixture struct {
	CompanyID      uint
	OtherCompanyID uint
	FieldA         uint
	FieldB         uint
	HerbicideID    uint
	FungicideID    uint
	ManufacturerID uint
	UnitID         uint
	PayerID        uint
	OtherPayerID   uint
	WarehouseID    uint
	PlanA          uint
	PlanB          uint
}

func newServiceEnv(t *testing.T) *serviceEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	env := &serviceEnv{
		db:             db,
		planRepo:       repository.NewPlanRepository(db),
		catalogRepo:    repository.NewCatalogRepository(db),
		allocationRepo: repository.NewAllocationRepository(db),
		orderRepo:      repository.NewPurchaseOrderRepository(db),
		stockRepo:      repository.NewStockRepository(db),
	}
	env.names = NewNameResolver(env.catalogRepo, 0)
	env.reconciler = NewReconciliationService(db, env.planRepo, env.catalogRepo, env.allocationRepo)
	env.consolidation = NewConsolidationService(env.allocationRepo, env.orderRepo, env.catalogRepo, env.names, true)
	env.purchases = NewPurchaseOrderService(db, env.orderRepo, env.allocationRepo, env.catalogRepo, env.stockRepo, env.names, nil, 0)
	env.receiving = NewReceivingService(db, env.orderRepo, env.stockRepo, env.catalogRepo, env.names, 0)
	env.allocations = NewAllocationService(db, env.allocationRepo, env.catalogRepo, env.names)
	env.plans = NewPlanService(db, env.planRepo, env.reconciler, true)
	env.needs = NewNeedsService(env.planRepo, env.names)
	env.exports = NewExportService(env.consolidation, env.receiving, env.names)
	return env
}

func mustCreate(t *testing.T, db *gorm.DB, value interface{}) {
	t.Helper()
	if err := db.Create(value).Error; err != nil {
		t.Fatalf("create %T failed: %v", value, err)
	}
}

// seedFarm 两块地：A 10 公顷（除草剂 1.5、杀菌剂 0.2），B 5 公顷（除草剂 1）
func seedFarm(t *testing.T, db *gorm.DB) farmFixture {
	t.Helper()
	var fx farmFixture

	company := models.Company{Name: "Agro North", IsActive: true}
	other := models.Company{Name: "Agro South", IsActive: true}
	mustCreate(t, db, &company)
	mustCreate(t, db, &other)
	fx.CompanyID, fx.OtherCompanyID = company.ID, other.ID

	culture := models.Culture{Name: "Wheat"}
	mustCreate(t, db, &culture)

	fieldA := models.Field{Name: "A-1", CompanyID: &company.ID, CultureID: &culture.ID, Area: decimal.NewNullDecimal(decimal.NewFromInt(10))}
	fieldB := models.Field{Name: "B-1", CompanyID: &company.ID, CultureID: &culture.ID, Area: decimal.NewNullDecimal(decimal.NewFromInt(5))}
	mustCreate(t, db, &fieldA)
	mustCreate(t, db, &fieldB)
	fx.FieldA, fx.FieldB = fieldA.ID, fieldB.ID

	manufacturer := models.Manufacturer{Name: "ChemCo"}
	unit := models.Unit{Name: "litre", ShortName: "l"}
	mustCreate(t, db, &manufacturer)
	mustCreate(t, db, &unit)
	fx.ManufacturerID, fx.UnitID = manufacturer.ID, unit.ID

	herbicide := models.Product{Name: "Herbicide", UnitID: &unit.ID, ManufacturerID: &manufacturer.ID, Container: "10 l canister", IsActive: true}
	fungicide := models.Product{Name: "Fungicide", UnitID: &unit.ID, ManufacturerID: &manufacturer.ID, Container: "bulk", IsActive: true}
	mustCreate(t, db, &herbicide)
	mustCreate(t, db, &fungicide)
	fx.HerbicideID, fx.FungicideID = herbicide.ID, fungicide.ID

	payer := models.Payer{Name: "Payer One"}
	otherPayer := models.Payer{Name: "Payer Two"}
	mustCreate(t, db, &payer)
	mustCreate(t, db, &otherPayer)
	fx.PayerID, fx.OtherPayerID = payer.ID, otherPayer.ID

	warehouse := models.Warehouse{Name: "Main", CompanyID: &company.ID}
	mustCreate(t, db, &warehouse)
	fx.WarehouseID = warehouse.ID

	now := time.Now()
	planA := models.Plan{FieldID: fieldA.ID, Year: 2026, Status: constants.PlanStatusApproved, IsApproved: true, ApprovedAt: &now}
	planB := models.Plan{FieldID: fieldB.ID, Year: 2026, Status: constants.PlanStatusApproved, IsApproved: true, ApprovedAt: &now}
	mustCreate(t, db, &planA)
	mustCreate(t, db, &planB)
	fx.PlanA, fx.PlanB = planA.ID, planB.ID

	treatments := []models.Treatment{
		{PlanID: planA.ID, ProductID: herbicide.ID, Rate: decimal.RequireFromString("1.5")},
		{PlanID: planA.ID, ProductID: fungicide.ID, Rate: decimal.RequireFromString("0.2")},
		{PlanID: planB.ID, ProductID: herbicide.ID, Rate: decimal.NewFromInt(1)},
	}
	mustCreate(t, db, &treatments)
	return fx
}

func dec(raw string) decimal.Decimal {
	return decimal.RequireFromString(raw)
}

func uintPtr(v uint) *uint {
	return &v
}

func assertQty(t *testing.T, label string, got models.Quantity, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Fatalf("%s: want %s got %s", label, want, got.String())
	}
}

func findAllocation(t *testing.T, env *serviceEnv, fieldID, productID uint) models.PayerAllocation {
	t.Helper()
	var row models.PayerAllocation
	if err := env.db.Where("field_id = ? AND product_id = ?", fieldID, productID).First(&row).Error; err != nil {
		t.Fatalf("load allocation failed: %v", err)
	}
	return row
}
