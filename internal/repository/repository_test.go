package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/agro-backoffice/internal/constants"
	"github.com/agro-backoffice/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupRepositoryTest(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repository_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func uintPtr(v uint) *uint {
	return &v
}

func TestPlanRepositoryListApprovedLines(t *testing.T) {
	db := setupRepositoryTest(t)
	company := models.Company{Name: "Agro North"}
	if err := db.Create(&company).Error; err != nil {
		t.Fatalf("create company failed: %v", err)
	}
	field := models.Field{Name: "F-1", CompanyID: &company.ID, Area: decimal.NewNullDecimal(decimal.NewFromFloat(12.5))}
	if err := db.Create(&field).Error; err != nil {
		t.Fatalf("create field failed: %v", err)
	}
	approved := models.Plan{FieldID: field.ID, IsApproved: true, Status: constants.PlanStatusApproved}
	draft := models.Plan{FieldID: field.ID, IsApproved: false, Status: constants.PlanStatusDraft}
	if err := db.Create(&approved).Error; err != nil {
		t.Fatalf("create approved plan failed: %v", err)
	}
	if err := db.Create(&draft).Error; err != nil {
		t.Fatalf("create draft plan failed: %v", err)
	}
	treatments := []models.Treatment{
		{PlanID: approved.ID, ProductID: 7, Rate: decimal.NewFromFloat(0.4)},
		{PlanID: draft.ID, ProductID: 8, Rate: decimal.NewFromInt(1)},
	}
	if err := db.Create(&treatments).Error; err != nil {
		t.Fatalf("create treatments failed: %v", err)
	}

	repo := NewPlanRepository(db)
	rows, err := repo.ListApprovedLines(PlanScope{})
	if err != nil {
		t.Fatalf("list approved lines failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected only approved line, got %d", len(rows))
	}
	row := rows[0]
	if row.ResolvedFieldID == nil || *row.ResolvedFieldID != field.ID {
		t.Fatalf("field should resolve, got %+v", row.ResolvedFieldID)
	}
	if row.CompanyID == nil || *row.CompanyID != company.ID {
		t.Fatalf("company should come from field, got %+v", row.CompanyID)
	}
	if !row.Quantity().Equal(decimal.NewFromInt(5)) {
		t.Fatalf("quantity want 5 got %s", row.Quantity())
	}

	scoped, err := repo.ListApprovedLines(PlanScope{ProductIDs: []uint{99}})
	if err != nil {
		t.Fatalf("list scoped lines failed: %v", err)
	}
	if len(scoped) != 0 {
		t.Fatalf("product scope should filter lines, got %d", len(scoped))
	}
}

func TestPlanRepositoryListApprovedLinesMissingField(t *testing.T) {
	db := setupRepositoryTest(t)
	plan := models.Plan{FieldID: 404, IsApproved: true, Status: constants.PlanStatusApproved}
	if err := db.Create(&plan).Error; err != nil {
		t.Fatalf("create plan failed: %v", err)
	}
	if err := db.Create(&models.Treatment{PlanID: plan.ID, ProductID: 1, Rate: decimal.NewFromInt(1)}).Error; err != nil {
		t.Fatalf("create treatment failed: %v", err)
	}
	rows, err := NewPlanRepository(db).ListApprovedLines(PlanScope{})
	if err != nil {
		t.Fatalf("list approved lines failed: %v", err)
	}
	if len(rows) != 1 || rows[0].ResolvedFieldID != nil {
		t.Fatalf("missing field should surface as nil resolved id, got %+v", rows)
	}
}

func TestAllocationRepositorySetPayerAndMarkStale(t *testing.T) {
	db := setupRepositoryTest(t)
	repo := NewAllocationRepository(db)
	rows := []models.PayerAllocation{
		{FieldID: 1, ProductID: 1, CompanyID: 1, Quantity: models.NewQuantityFromFloat(10), Status: constants.AllocationStatusActive},
		{FieldID: 1, ProductID: 2, CompanyID: 1, Quantity: models.NewQuantityFromFloat(20), Status: constants.AllocationStatusActive},
	}
	if err := repo.CreateBatch(rows); err != nil {
		t.Fatalf("create batch failed: %v", err)
	}
	created, err := repo.ListByFieldIDs([]uint{1})
	if err != nil || len(created) != 2 {
		t.Fatalf("list by field failed: %v len=%d", err, len(created))
	}

	now := time.Now().UTC().Truncate(time.Second)
	affected, err := repo.SetPayer([]uint{created[0].ID}, uintPtr(5), &now)
	if err != nil || affected != 1 {
		t.Fatalf("set payer failed: %v affected=%d", err, affected)
	}

	if err := repo.UpdateSnapshot(created[0].ID, map[string]interface{}{
		"quantity": models.NewQuantityFromFloat(11),
		"payer_id": nil,
	}); err != nil {
		t.Fatalf("update snapshot failed: %v", err)
	}
	reloaded, err := repo.GetByID(created[0].ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.PayerID == nil || *reloaded.PayerID != 5 {
		t.Fatalf("snapshot update must not touch payer, got %+v", reloaded.PayerID)
	}
	if !reloaded.Quantity.Equal(decimal.NewFromInt(11)) {
		t.Fatalf("quantity want 11 got %s", reloaded.Quantity)
	}

	staled, err := repo.MarkStale([]uint{created[1].ID})
	if err != nil || staled != 1 {
		t.Fatalf("mark stale failed: %v affected=%d", err, staled)
	}
	active, err := repo.CountActive(PlanScope{CompanyID: 1})
	if err != nil || active != 1 {
		t.Fatalf("count active want 1 got %d err=%v", active, err)
	}

	purged, err := repo.PurgeStale(PlanScope{})
	if err != nil || purged != 1 {
		t.Fatalf("purge stale failed: %v affected=%d", err, purged)
	}
	_, total, err := repo.List(AllocationListFilter{Page: 1, PageSize: 20})
	if err != nil || total != 1 {
		t.Fatalf("list after purge want 1 got %d err=%v", total, err)
	}
}

func TestAllocationRepositoryUniqueFieldProduct(t *testing.T) {
	db := setupRepositoryTest(t)
	repo := NewAllocationRepository(db)
	row := models.PayerAllocation{FieldID: 3, ProductID: 3, CompanyID: 1, Status: constants.AllocationStatusActive}
	if err := repo.CreateBatch([]models.PayerAllocation{row}); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if err := repo.CreateBatch([]models.PayerAllocation{row}); err == nil {
		t.Fatalf("duplicate (field, product) must violate unique index")
	}
}

func TestPurchaseOrderRepositoryOrderedTotalsExcludesCancelled(t *testing.T) {
	db := setupRepositoryTest(t)
	repo := NewPurchaseOrderRepository(db)

	create := func(no, status string, qty float64, payer *uint) {
		order := &models.PurchaseOrder{OrderNo: no, CompanyID: 1, Status: status}
		lines := []models.PurchaseOrderLine{{LineIndex: 1, CompanyID: 1, ProductID: 9, PayerID: payer, Quantity: models.NewQuantityFromFloat(qty)}}
		if err := repo.Create(order, lines); err != nil {
			t.Fatalf("create order %s failed: %v", no, err)
		}
	}
	create("PO-1", constants.PurchaseOrderStatusSubmitted, 4, uintPtr(2))
	create("PO-2", constants.PurchaseOrderStatusPaid, 1.5, uintPtr(2))
	create("PO-3", constants.PurchaseOrderStatusCancelled, 100, uintPtr(2))
	create("PO-4", constants.PurchaseOrderStatusRejected, 100, uintPtr(2))
	create("PO-5", constants.PurchaseOrderStatusSubmitted, 3, nil)

	totals, err := repo.OrderedTotals(OrderedTotalsFilter{CompanyID: 1})
	if err != nil {
		t.Fatalf("ordered totals failed: %v", err)
	}
	if got := totals[OrderedKey{CompanyID: 1, ProductID: 9, PayerID: 2}]; !got.Equal(decimal.NewFromFloat(5.5)) {
		t.Fatalf("payer total want 5.5 got %s", got)
	}
	if got := totals[NewOrderedKey(1, 9, nil)]; !got.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("unassigned total want 3 got %s", got)
	}

	order, err := repo.GetByID(1)
	if err != nil || order == nil || len(order.Lines) != 1 {
		t.Fatalf("get order with lines failed: %v", err)
	}
	if err := repo.Delete(order.ID); err != nil {
		t.Fatalf("delete order failed: %v", err)
	}
	var lineCount int64
	db.Model(&models.PurchaseOrderLine{}).Where("order_id = ?", order.ID).Count(&lineCount)
	if lineCount != 0 {
		t.Fatalf("lines should be deleted with parent, got %d", lineCount)
	}
}

func TestStockRepositoryReceivedAndBalances(t *testing.T) {
	db := setupRepositoryTest(t)
	repo := NewStockRepository(db)
	now := time.Now()
	rows := []models.StockTransaction{
		{TxType: constants.StockTxTypeIn, WarehouseID: 1, ProductID: 4, Quantity: models.NewQuantityFromFloat(2), SourceKind: constants.StockSourceKindPurchaseOrder, SourceID: 10, SourceLineIndex: 1, TxDate: now},
		{TxType: constants.StockTxTypeIn, WarehouseID: 1, ProductID: 4, Quantity: models.NewQuantityFromFloat(3), SourceKind: constants.StockSourceKindPurchaseOrder, SourceID: 10, SourceLineIndex: 1, TxDate: now},
		{TxType: constants.StockTxTypeIn, WarehouseID: 1, ProductID: 5, Quantity: models.NewQuantityFromFloat(7), SourceKind: constants.StockSourceKindPurchaseOrder, SourceID: 10, SourceLineIndex: 2, TxDate: now},
		{TxType: constants.StockTxTypeOut, WarehouseID: 1, ProductID: 4, Quantity: models.NewQuantityFromFloat(1), SourceKind: "manual", SourceID: 0, TxDate: now},
	}
	if err := repo.CreateBatch(rows); err != nil {
		t.Fatalf("create batch failed: %v", err)
	}

	received, err := repo.ReceivedByLine(10)
	if err != nil {
		t.Fatalf("received by line failed: %v", err)
	}
	if !received[1].Equal(decimal.NewFromInt(5)) || !received[2].Equal(decimal.NewFromInt(7)) {
		t.Fatalf("unexpected received map: %v", received)
	}

	balances, err := repo.Balances(1)
	if err != nil {
		t.Fatalf("balances failed: %v", err)
	}
	if len(balances) != 2 {
		t.Fatalf("expected 2 balance rows, got %d", len(balances))
	}
	if !balances[0].QtyIn.Equal(decimal.NewFromInt(5)) || !balances[0].QtyOut.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("unexpected balance row: %+v", balances[0])
	}

	count, err := repo.CountBySource(10)
	if err != nil || count != 3 {
		t.Fatalf("count by source want 3 got %d err=%v", count, err)
	}
}

func TestCatalogRepositoryNameMap(t *testing.T) {
	db := setupRepositoryTest(t)
	units := []models.Unit{{Name: "Litre", ShortName: "л"}, {Name: "Kilogram"}}
	if err := db.Create(&units).Error; err != nil {
		t.Fatalf("create units failed: %v", err)
	}
	repo := NewCatalogRepository(db)
	names, err := repo.NameMap(constants.NameKindUnit, []uint{units[0].ID, units[1].ID, 999})
	if err != nil {
		t.Fatalf("name map failed: %v", err)
	}
	if names[units[0].ID] != "л" || names[units[1].ID] != "Kilogram" {
		t.Fatalf("unexpected unit names: %v", names)
	}
	if _, ok := names[999]; ok {
		t.Fatalf("unknown id must be absent")
	}
	if _, err := repo.NameMap("bogus", []uint{1}); err == nil {
		t.Fatalf("unknown name kind should fail")
	}
}
