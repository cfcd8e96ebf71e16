package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/agro-backoffice/internal/config"
	"github.com/agro-backoffice/internal/http/response"
	"github.com/agro-backoffice/internal/models"
	"github.com/agro-backoffice/internal/provider"
	"github.com/agro-backoffice/internal/seed"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type testEnvelope struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

type adminTestEnv struct {
	db        *gorm.DB
	engine    *gin.Engine
	companyID uint
	productID uint
	warehouse uint
}

func newAdminTestEnv(t *testing.T) *adminTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dsn := fmt.Sprintf("file:admin_handler_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if _, err := seed.Demo(context.Background(), db, 2026); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	cfg := &config.Config{Purchase: config.PurchaseConfig{PackageRounding: true, AutoSyncOnApprove: true}}
	h := New(provider.NewContainerWithDB(cfg, db))
	r := gin.New()
	admin := r.Group("/api/v1/admin")
	admin.GET("/allocations", h.GetAllocations)
	admin.POST("/allocations/sync", h.SyncAllocations)
	admin.POST("/allocations/bulk-payer", h.BulkAssignPayer)
	admin.PUT("/allocations/:id/payer", h.SetAllocationPayer)
	admin.GET("/purchases/consolidated", h.GetConsolidated)
	admin.GET("/purchases/consolidated/export", h.ExportConsolidated)
	admin.POST("/purchase-orders", h.SubmitPurchaseOrder)
	admin.GET("/purchase-orders/:id", h.GetPurchaseOrder)
	admin.PATCH("/purchase-orders/:id/status", h.UpdatePurchaseOrderStatus)
	admin.POST("/warehouse/receive/:id", h.ReceiveOrder)
	admin.POST("/plans/:id/unapprove", h.UnapprovePlan)

	env := &adminTestEnv{db: db, engine: r}
	var company models.Company
	if err := db.Where("name = ?", "Агро Північ").First(&company).Error; err != nil {
		t.Fatalf("load company failed: %v", err)
	}
	var product models.Product
	if err := db.Where("name = ?", "Гербіцид Раундап").First(&product).Error; err != nil {
		t.Fatalf("load product failed: %v", err)
	}
	var warehouse models.Warehouse
	if err := db.Where("company_id = ?", company.ID).First(&warehouse).Error; err != nil {
		t.Fatalf("load warehouse failed: %v", err)
	}
	env.companyID = company.ID
	env.productID = product.ID
	env.warehouse = warehouse.ID
	return env
}

func (env *adminTestEnv) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, testEnvelope) {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			t.Fatalf("marshal body failed: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Locale", "en-US")
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)

	var envelope testEnvelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("decode response failed: %v body=%s", err, w.Body.String())
		}
	}
	return w, envelope
}

func (env *adminTestEnv) sync(t *testing.T) {
	t.Helper()
	_, resp := env.do(t, http.MethodPost, "/api/v1/admin/allocations/sync", nil)
	if resp.StatusCode != response.CodeOK {
		t.Fatalf("sync failed: %+v", resp)
	}
}

func decodeData(t *testing.T, resp testEnvelope, dest interface{}) {
	t.Helper()
	if err := json.Unmarshal(resp.Data, dest); err != nil {
		t.Fatalf("decode data failed: %v data=%s", err, string(resp.Data))
	}
}

func TestSyncAllocationsDryRunThenApply(t *testing.T) {
	env := newAdminTestEnv(t)

	_, resp := env.do(t, http.MethodPost, "/api/v1/admin/allocations/sync", map[string]interface{}{"dry_run": true})
	if resp.StatusCode != response.CodeOK {
		t.Fatalf("dry run failed: %+v", resp)
	}
	var result struct {
		Added  int64 `json:"added"`
		DryRun bool  `json:"dry_run"`
	}
	decodeData(t, resp, &result)
	if result.Added != 7 || !result.DryRun {
		t.Fatalf("unexpected dry run result: %+v", result)
	}
	var count int64
	env.db.Model(&models.PayerAllocation{}).Count(&count)
	if count != 0 {
		t.Fatalf("dry run must not persist rows, got %d", count)
	}

	env.sync(t)
	_, resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/admin/allocations?company_id=%d&product_id=%d", env.companyID, env.productID), nil)
	if resp.StatusCode != response.CodeOK {
		t.Fatalf("list failed: %+v", resp)
	}
	var rows []struct {
		ID          uint   `json:"id"`
		Quantity    string `json:"quantity"`
		ProductName string `json:"product_name"`
	}
	decodeData(t, resp, &rows)
	if len(rows) != 2 || rows[0].ProductName != "Гербіцид Раундап" {
		t.Fatalf("expected two herbicide rows, got %+v", rows)
	}
}

func TestSyncScopedToUnknownCompanyIsEmpty(t *testing.T) {
	env := newAdminTestEnv(t)
	_, resp := env.do(t, http.MethodPost, "/api/v1/admin/allocations/sync", map[string]interface{}{"company_id": 9999})
	if resp.StatusCode != response.CodeOK {
		t.Fatalf("scoped sync failed: %+v", resp)
	}
	var result struct {
		Added       int64 `json:"added"`
		TotalActive int64 `json:"total_active"`
	}
	decodeData(t, resp, &result)
	if result.Added != 0 || result.TotalActive != 0 {
		t.Fatalf("unknown company scope should touch nothing, got %+v", result)
	}
}

func TestSetPayerValidation(t *testing.T) {
	env := newAdminTestEnv(t)
	env.sync(t)

	_, resp := env.do(t, http.MethodPut, "/api/v1/admin/allocations/abc/payer", map[string]interface{}{"payer_id": 1})
	if resp.StatusCode != response.CodeBadRequest || resp.Msg != "Invalid id" {
		t.Fatalf("expected localized invalid id, got %+v", resp)
	}
	_, resp = env.do(t, http.MethodPut, "/api/v1/admin/allocations/9999/payer", map[string]interface{}{"payer_id": 1})
	if resp.StatusCode != response.CodeNotFound {
		t.Fatalf("expected 404 for missing allocation, got %+v", resp)
	}
	_, resp = env.do(t, http.MethodPost, "/api/v1/admin/allocations/bulk-payer", map[string]interface{}{"payer_id": 1})
	if resp.StatusCode != response.CodeBadRequest {
		t.Fatalf("bulk assign without ids should fail binding, got %+v", resp)
	}
}

func TestConsolidatedSubmitReceiveFlow(t *testing.T) {
	env := newAdminTestEnv(t)
	env.sync(t)

	_, resp := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/admin/purchases/consolidated?company_id=%d&product_id=%d", env.companyID, env.productID), nil)
	if resp.StatusCode != response.CodeOK {
		t.Fatalf("consolidated failed: %+v", resp)
	}
	var rows []struct {
		TotalQty        string `json:"total_qty"`
		RemainingRawQty string `json:"remaining_raw_qty"`
		RemainingQty    string `json:"remaining_qty"`
	}
	decodeData(t, resp, &rows)
	if len(rows) != 1 || rows[0].TotalQty != "569.250" || rows[0].RemainingQty != "580.000" {
		t.Fatalf("unexpected consolidated rows: %+v", rows)
	}

	_, resp = env.do(t, http.MethodPost, "/api/v1/admin/purchase-orders", map[string]interface{}{
		"company_id": env.companyID,
		"lines":      []map[string]interface{}{{"product_id": env.productID, "quantity": "1000,5"}},
	})
	if resp.StatusCode != response.CodeOK {
		t.Fatalf("submit failed: %+v", resp)
	}
	var order struct {
		ID     uint   `json:"id"`
		Status string `json:"status"`
		Lines  []struct {
			LineIndex int    `json:"line_index"`
			Quantity  string `json:"quantity"`
		} `json:"lines"`
	}
	decodeData(t, resp, &order)
	if len(order.Lines) != 1 || order.Lines[0].Quantity != "569.250" {
		t.Fatalf("submit should clamp to remaining, got %+v", order)
	}

	path := fmt.Sprintf("/api/v1/admin/warehouse/receive/%d", order.ID)
	_, resp = env.do(t, http.MethodPost, path, map[string]interface{}{
		"warehouse_id": env.warehouse,
		"quantities":   map[string]string{"1": "10"},
	})
	if resp.StatusCode != response.CodeBadRequest {
		t.Fatalf("unpaid order must not be received, got %+v", resp)
	}

	_, resp = env.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/admin/purchase-orders/%d/status", order.ID), map[string]interface{}{"status": "paid"})
	if resp.StatusCode != response.CodeOK {
		t.Fatalf("pay failed: %+v", resp)
	}

	_, resp = env.do(t, http.MethodPost, path, map[string]interface{}{
		"warehouse_id": env.warehouse,
		"quantities":   map[string]string{"1": "600"},
	})
	if resp.StatusCode != response.CodeBadRequest {
		t.Fatalf("over receipt should be rejected, got %+v", resp)
	}
	var over struct {
		LineIndex int    `json:"line_index"`
		Allowed   string `json:"allowed"`
	}
	decodeData(t, resp, &over)
	if over.LineIndex != 1 || over.Allowed != "569.250" {
		t.Fatalf("unexpected over receipt detail: %+v", over)
	}

	_, resp = env.do(t, http.MethodPost, path, map[string]interface{}{
		"warehouse_id": env.warehouse,
		"tx_date":      "2026-04-02",
		"quantities":   map[string]string{"1": "569.25"},
	})
	if resp.StatusCode != response.CodeOK {
		t.Fatalf("receive failed: %+v", resp)
	}
	_, resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/admin/purchase-orders/%d", order.ID), nil)
	decodeData(t, resp, &order)
	if order.Status != "received" {
		t.Fatalf("fully received order expected, got %s", order.Status)
	}
}

func TestSubmitRejectsBadQuantity(t *testing.T) {
	env := newAdminTestEnv(t)
	env.sync(t)
	_, resp := env.do(t, http.MethodPost, "/api/v1/admin/purchase-orders", map[string]interface{}{
		"company_id": env.companyID,
		"lines":      []map[string]interface{}{{"product_id": env.productID, "quantity": "lots"}},
	})
	if resp.StatusCode != response.CodeBadRequest || resp.Msg != "Invalid quantity" {
		t.Fatalf("expected invalid quantity, got %+v", resp)
	}
}

func TestExportConsolidatedSendsWorkbook(t *testing.T) {
	env := newAdminTestEnv(t)
	env.sync(t)
	w, _ := env.do(t, http.MethodGet, "/api/v1/admin/purchases/consolidated/export", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected http status %d", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Fatalf("unexpected content type %q", got)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("PK")) {
		t.Fatalf("workbook should be a zip archive")
	}
}

func TestUnapprovePlanMarksAllocationsStale(t *testing.T) {
	env := newAdminTestEnv(t)
	env.sync(t)
	var plan models.Plan
	if err := env.db.Order("id asc").First(&plan).Error; err != nil {
		t.Fatalf("load plan failed: %v", err)
	}
	_, resp := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/admin/plans/%d/unapprove", plan.ID), nil)
	if resp.StatusCode != response.CodeOK {
		t.Fatalf("unapprove failed: %+v", resp)
	}
	var stale int64
	env.db.Model(&models.PayerAllocation{}).Where("status = ?", "stale").Count(&stale)
	if stale != 3 {
		t.Fatalf("first demo field has 3 treatments, got %d stale rows", stale)
	}
}

func TestSubmitRejectsNegativeQuantity(t *testing.T) {
	env := newAdminTestEnv(t)
	env.sync(t)
	_, resp := env.do(t, http.MethodPost, "/api/v1/admin/purchase-orders", map[string]interface{}{
		"company_id": env.companyID,
		"lines":      []map[string]interface{}{{"product_id": env.productID, "quantity": "-3"}},
	})
	if resp.StatusCode != response.CodeBadRequest || resp.Msg != "Invalid quantity" {
		t.Fatalf("expected invalid quantity, got %+v", resp)
	}
}
