package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/agro-backoffice/internal/constants"
	"github.com/agro-backoffice/internal/i18n"
	"github.com/agro-backoffice/internal/models"
	"github.com/agro-backoffice/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// 计划 → 分配 → 汇总 → 申请 → 付款 → 入库 的完整流程
func TestPurchaseWorkflowEndToEnd(t *testing.T) {
	env := newServiceEnv(t)
	fx := syncFarm(t, env)
	ctx := context.Background()

	rowA := findAllocation(t, env, fx.FieldA, fx.HerbicideID)
	rowB := findAllocation(t, env, fx.FieldB, fx.HerbicideID)
	if _, err := env.allocations.BulkAssign(ctx, []uint{rowA.ID, rowB.ID}, uintPtr(fx.PayerID)); err != nil {
		t.Fatalf("bulk assign failed: %v", err)
	}

	rows, err := env.consolidation.Consolidated(ctx, ConsolidatedFilter{CompanyID: fx.CompanyID, PayerID: fx.PayerID})
	if err != nil {
		t.Fatalf("consolidated failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected single payer group, got %+v", rows)
	}
	assertQty(t, "need", rows[0].RemainingQty, "20")

	order, err := env.purchases.Submit(ctx, SubmitPurchaseInput{
		CompanyID: fx.CompanyID,
		Lines: []SubmitPurchaseLine{{
			ProductID: fx.HerbicideID,
			PayerID:   rows[0].PayerID,
			Quantity:  rows[0].RemainingQty.Decimal,
		}},
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := env.purchases.UpdateStatus(ctx, order.ID, constants.PurchaseOrderStatusPaid); err != nil {
		t.Fatalf("pay failed: %v", err)
	}

	rows, err = env.consolidation.Consolidated(ctx, ConsolidatedFilter{CompanyID: fx.CompanyID, PayerID: fx.PayerID})
	if err != nil {
		t.Fatalf("consolidated failed: %v", err)
	}
	assertQty(t, "remaining after order", rows[0].RemainingQty, "0")
	if _, err := env.purchases.Submit(ctx, SubmitPurchaseInput{
		CompanyID: fx.CompanyID,
		Lines:     []SubmitPurchaseLine{{ProductID: fx.HerbicideID, PayerID: uintPtr(fx.PayerID), Quantity: dec("1")}},
	}); !errors.Is(err, ErrNothingToSubmit) {
		t.Fatalf("fully ordered triple must reject new lines, got %v", err)
	}

	if _, err := env.receiving.Receive(ctx, ReceiveInput{
		OrderID:     order.ID,
		WarehouseID: fx.WarehouseID,
		Quantities:  map[int]decimal.Decimal{1: dec("20")},
	}); err != nil {
		t.Fatalf("receive failed: %v", err)
	}
	if status := orderStatus(t, env, order.ID); status != constants.PurchaseOrderStatusReceived {
		t.Fatalf("expected received order, got %s", status)
	}
	if _, err := env.purchases.UpdateStatus(ctx, order.ID, constants.PurchaseOrderStatusCancelled); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("received order cannot be cancelled, got %v", err)
	}

	// 付款方分配在重新同步后保留
	if _, err := env.reconciler.Sync(ctx, SyncOptions{}); err != nil {
		t.Fatalf("resync failed: %v", err)
	}
	if got := findAllocation(t, env, fx.FieldB, fx.HerbicideID); got.PayerID == nil || *got.PayerID != fx.PayerID {
		t.Fatalf("payer lost after resync: %+v", got)
	}
}

func TestAllocationPayerAssignment(t *testing.T) {
	env := newServiceEnv(t)
	fx := syncFarm(t, env)
	ctx := context.Background()
	row := findAllocation(t, env, fx.FieldA, fx.FungicideID)

	if _, err := env.allocations.SetPayer(ctx, row.ID, uintPtr(9999)); !errors.Is(err, ErrPayerNotFound) {
		t.Fatalf("expected ErrPayerNotFound, got %v", err)
	}
	if _, err := env.allocations.SetPayer(ctx, 9999, uintPtr(fx.PayerID)); !errors.Is(err, ErrAllocationNotFound) {
		t.Fatalf("expected ErrAllocationNotFound, got %v", err)
	}
	assigned, err := env.allocations.SetPayer(ctx, row.ID, uintPtr(fx.OtherPayerID))
	if err != nil {
		t.Fatalf("set payer failed: %v", err)
	}
	if assigned.PayerID == nil || *assigned.PayerID != fx.OtherPayerID || assigned.AssignedAt == nil {
		t.Fatalf("unexpected assignment: %+v", assigned)
	}
	cleared, err := env.allocations.SetPayer(ctx, row.ID, nil)
	if err != nil {
		t.Fatalf("clear payer failed: %v", err)
	}
	if cleared.PayerID != nil || cleared.AssignedAt != nil {
		t.Fatalf("clear should reset payer and assigned_at: %+v", cleared)
	}
	if _, err := env.allocations.BulkAssign(ctx, nil, uintPtr(fx.PayerID)); !errors.Is(err, ErrInvalidScope) {
		t.Fatalf("expected ErrInvalidScope, got %v", err)
	}

	views, total, err := env.allocations.List(ctx, repository.AllocationListFilter{Page: 1, PageSize: 20, CompanyID: fx.CompanyID, Unassigned: true})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 3 || len(views) != 3 {
		t.Fatalf("expected 3 unassigned rows, got %d", total)
	}
	if views[0].CompanyName != "Agro North" || views[0].FieldName == "" || views[0].PayerName != constants.NamePlaceholder {
		t.Fatalf("unexpected view names: %+v", views[0])
	}
}

func TestPurgeStale(t *testing.T) {
	env := newServiceEnv(t)
	fx := syncFarm(t, env)
	ctx := context.Background()
	if err := env.db.Model(&models.Plan{}).Where("id = ?", fx.PlanA).Update("is_approved", false).Error; err != nil {
		t.Fatalf("unapprove failed: %v", err)
	}
	if _, err := env.reconciler.Reconcile(ctx, repository.PlanScope{}); err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	purged, err := env.allocations.PurgeStale(ctx, repository.PlanScope{CompanyID: fx.CompanyID})
	if err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	if purged != 2 {
		t.Fatalf("expected 2 purged rows, got %d", purged)
	}
}

func TestPlanApprovalTriggersFieldSync(t *testing.T) {
	env := newServiceEnv(t)
	fx := syncFarm(t, env)
	ctx := context.Background()

	result, err := env.plans.Unapprove(ctx, fx.PlanB)
	if err != nil {
		t.Fatalf("unapprove failed: %v", err)
	}
	if result.Affected != 1 || result.Sync == nil || result.Sync.MarkedStale != 1 {
		t.Fatalf("unapprove should stale field B rows, got %+v", result)
	}
	plan, err := env.planRepo.GetByID(fx.PlanB)
	if err != nil {
		t.Fatalf("load plan failed: %v", err)
	}
	if plan.IsApproved || plan.ApprovedAt != nil || plan.Status != constants.PlanStatusDraft {
		t.Fatalf("unexpected plan state: %+v", plan)
	}

	result, err = env.plans.Approve(ctx, fx.PlanB)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if result.Sync == nil || result.Sync.Updated != 1 {
		t.Fatalf("approve should reactivate field B row, got %+v", result)
	}

	again, err := env.plans.Approve(ctx, fx.PlanB)
	if err != nil {
		t.Fatalf("repeat approve failed: %v", err)
	}
	if again.Affected != 0 || again.Sync != nil {
		t.Fatalf("repeat approve is a no-op, got %+v", again)
	}
	if _, err := env.plans.Approve(ctx, 9999); !errors.Is(err, ErrPlanNotFound) {
		t.Fatalf("expected ErrPlanNotFound, got %v", err)
	}
	if _, err := env.plans.BulkApprove(ctx, nil, true); !errors.Is(err, ErrInvalidScope) {
		t.Fatalf("expected ErrInvalidScope, got %v", err)
	}
	bulk, err := env.plans.BulkApprove(ctx, []uint{fx.PlanA, fx.PlanB, 9999}, false)
	if err != nil {
		t.Fatalf("bulk unapprove failed: %v", err)
	}
	if bulk.Affected != 2 || bulk.Sync == nil || bulk.Sync.MarkedStale != 3 {
		t.Fatalf("unexpected bulk result: %+v", bulk)
	}
}

func TestPlanApprovalRollsBackWhenSyncFails(t *testing.T) {
	env := newServiceEnv(t)
	fx := seedFarm(t, env.db)
	field := models.Field{Name: "Loose", Area: decimal.NewNullDecimal(decimal.NewFromInt(3))}
	mustCreate(t, env.db, &field)
	plan := models.Plan{FieldID: field.ID, Status: constants.PlanStatusDraft}
	mustCreate(t, env.db, &plan)
	mustCreate(t, env.db, &models.Treatment{PlanID: plan.ID, ProductID: fx.HerbicideID, Rate: decimal.NewFromInt(1)})

	if _, err := env.plans.Approve(context.Background(), plan.ID); !errors.Is(err, ErrFieldCompanyMissing) {
		t.Fatalf("expected ErrFieldCompanyMissing, got %v", err)
	}
	got, err := env.planRepo.GetByID(plan.ID)
	if err != nil {
		t.Fatalf("load plan failed: %v", err)
	}
	if got.IsApproved || got.ApprovedAt != nil {
		t.Fatalf("failed sync must roll back the approval: %+v", got)
	}
	var count int64
	env.db.Model(&models.PayerAllocation{}).Count(&count)
	if count != 0 {
		t.Fatalf("failed approval must write no allocations, got %d", count)
	}
}

func TestNeedsSummary(t *testing.T) {
	env := newServiceEnv(t)
	fx := seedFarm(t, env.db)

	rows, err := env.needs.Summary(context.Background(), repository.PlanScope{CompanyID: fx.CompanyID})
	if err != nil {
		t.Fatalf("needs failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected herbicide and fungicide rows, got %+v", rows)
	}
	var herbicide *NeedsRow
	for i := range rows {
		if rows[i].ProductID == fx.HerbicideID {
			herbicide = &rows[i]
		}
	}
	if herbicide == nil {
		t.Fatalf("herbicide row missing")
	}
	assertQty(t, "needs quantity", herbicide.Quantity, "20")
	assertQty(t, "needs area", herbicide.Area, "15")
	if herbicide.FieldCount != 2 || herbicide.CultureName != "Wheat" {
		t.Fatalf("unexpected needs row: %+v", herbicide)
	}
}

func TestExportWorkbooks(t *testing.T) {
	env := newServiceEnv(t)
	fx := syncFarm(t, env)
	ctx := context.Background()

	var buf bytes.Buffer
	if err := env.exports.WriteConsolidated(ctx, ConsolidatedFilter{CompanyID: fx.CompanyID}, i18n.LocaleEN, &buf); err != nil {
		t.Fatalf("export consolidated failed: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook failed: %v", err)
	}
	defer f.Close()
	sheet := i18n.T(i18n.LocaleEN, "export.sheet.consolidated")
	header, err := f.GetCellValue(sheet, "A1")
	if err != nil {
		t.Fatalf("read header failed: %v", err)
	}
	if header != "Company" {
		t.Fatalf("unexpected header %q", header)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("read rows failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}

	order := paidHerbicideOrder(t, env, fx)
	if _, err := env.receiving.Receive(ctx, ReceiveInput{
		OrderID:     order.ID,
		WarehouseID: fx.WarehouseID,
		Quantities:  map[int]decimal.Decimal{1: dec("4")},
	}); err != nil {
		t.Fatalf("receive failed: %v", err)
	}
	buf.Reset()
	if err := env.exports.WriteReceipts(ctx, repository.StockTransactionListFilter{}, i18n.LocaleUK, &buf); err != nil {
		t.Fatalf("export receipts failed: %v", err)
	}
	receipts, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open receipts workbook failed: %v", err)
	}
	defer receipts.Close()
	receiptRows, err := receipts.GetRows(i18n.T(i18n.LocaleUK, "export.sheet.receipts"))
	if err != nil {
		t.Fatalf("read receipt rows failed: %v", err)
	}
	if len(receiptRows) != 2 || receiptRows[1][1] != "Main" {
		t.Fatalf("unexpected receipt rows: %+v", receiptRows)
	}
}
