//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"testing"

	"github.com/agro-backoffice/internal/constants"
	"github.com/agro-backoffice/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	all := models.AllModels()
	_ = db.Migrator().DropTable(all...)
	if err := db.AutoMigrate(all...); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Migrator().DropTable(all...)
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestPostgresLockActiveByCompanyProducts(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewAllocationRepository(db)
	if err := repo.CreateBatch([]models.PayerAllocation{
		{FieldID: 1, ProductID: 1, CompanyID: 1, Quantity: models.NewQuantityFromFloat(10), Status: constants.AllocationStatusActive},
		{FieldID: 2, ProductID: 1, CompanyID: 1, Quantity: models.NewQuantityFromFloat(5), Status: constants.AllocationStatusStale},
	}); err != nil {
		t.Fatalf("create allocations failed: %v", err)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		rows, err := repo.WithTx(tx).LockActiveByCompanyProducts(1, []uint{1})
		if err != nil {
			return err
		}
		if len(rows) != 1 {
			t.Fatalf("expected 1 locked active row, got %d", len(rows))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("lock transaction failed: %v", err)
	}
}

func TestPostgresOrderedTotalsAndSearch(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewPurchaseOrderRepository(db)
	order := &models.PurchaseOrder{OrderNo: "PR-PG-0001", CompanyID: 1, Status: constants.PurchaseOrderStatusSubmitted}
	lines := []models.PurchaseOrderLine{{LineIndex: 1, CompanyID: 1, ProductID: 3, Quantity: models.NewQuantityFromFloat(2.25)}}
	if err := repo.Create(order, lines); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	totals, err := repo.OrderedTotals(OrderedTotalsFilter{CompanyID: 1})
	if err != nil {
		t.Fatalf("ordered totals failed: %v", err)
	}
	if got := totals[NewOrderedKey(1, 3, nil)]; !got.Equal(decimal.NewFromFloat(2.25)) {
		t.Fatalf("ordered total want 2.25 got %s", got)
	}

	rows, total, err := repo.List(PurchaseOrderListFilter{Page: 1, PageSize: 10, OrderNo: "pg-00"})
	if err != nil {
		t.Fatalf("list orders failed: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Fatalf("ilike search want 1 got total=%d len=%d", total, len(rows))
	}
}
