package admin

import (
	"bytes"
	"strings"

	handlershared "github.com/agro-backoffice/internal/http/handlers/shared"
	"github.com/agro-backoffice/internal/http/response"
	"github.com/agro-backoffice/internal/i18n"
	"github.com/agro-backoffice/internal/models"
	"github.com/agro-backoffice/internal/repository"
	"github.com/agro-backoffice/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ReceiveRequest 入库请求，quantities 以申请行号为键
type ReceiveRequest struct {
	WarehouseID uint           `json:"warehouse_id"`
	TxDate      string         `json:"tx_date"`
	Note        string         `json:"note"`
	Quantities  map[int]string `json:"quantities"`
}

// GetReceiveJournal 已付款且仍有待入库行的申请
func (h *Handler) GetReceiveJournal(c *gin.Context) {
	companyID, ok := queryUintOrReject(c, "company_id")
	if !ok {
		return
	}
	views, err := h.ReceivingService.Journal(c.Request.Context(), companyID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.stock_fetch_failed", err)
		return
	}
	response.Success(c, views)
}

// GetReceiveView 单个申请逐行的申请/已收/剩余
func (h *Handler) GetReceiveView(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	view, err := h.ReceivingService.ReceiveView(c.Request.Context(), id)
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "error.stock_fetch_failed")
		return
	}
	response.Success(c, view)
}

// ReceiveOrder 按行入库
func (h *Handler) ReceiveOrder(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req ReceiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	txDate, err := handlershared.ParseTimeNullable(req.TxDate)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	quantities := make(map[int]decimal.Decimal, len(req.Quantities))
	for lineIndex, raw := range req.Quantities {
		qty, err := models.ParseQuantity(raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.quantity_invalid", nil)
			return
		}
		quantities[lineIndex] = qty.Decimal
	}

	created, err := h.ReceivingService.Receive(c.Request.Context(), service.ReceiveInput{
		OrderID:     id,
		WarehouseID: req.WarehouseID,
		Quantities:  quantities,
		TxDate:      txDate,
		Note:        req.Note,
	})
	if err != nil {
		respondReceiveError(c, err)
		return
	}
	response.Success(c, created)
}

// GetStockBalances 库存余额
func (h *Handler) GetStockBalances(c *gin.Context) {
	warehouseID, ok := queryUintOrReject(c, "warehouse_id")
	if !ok {
		return
	}
	balances, err := h.ReceivingService.StockBalances(c.Request.Context(), warehouseID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.stock_fetch_failed", err)
		return
	}
	response.Success(c, balances)
}

func bindStockFilter(c *gin.Context) (repository.StockTransactionListFilter, bool) {
	page, pageSize := handlershared.QueryPagination(c)
	filter := repository.StockTransactionListFilter{
		Page:     page,
		PageSize: pageSize,
		TxType:   strings.TrimSpace(c.Query("tx_type")),
		Search:   strings.TrimSpace(c.Query("search")),
	}
	var ok bool
	if filter.WarehouseID, ok = queryUintOrReject(c, "warehouse_id"); !ok {
		return filter, false
	}
	if filter.ProductID, ok = queryUintOrReject(c, "product_id"); !ok {
		return filter, false
	}
	if filter.SourceID, ok = queryUintOrReject(c, "order_id"); !ok {
		return filter, false
	}
	var err error
	if filter.DateFrom, err = handlershared.ParseTimeNullable(c.Query("date_from")); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return filter, false
	}
	if filter.DateTo, err = handlershared.ParseTimeNullable(c.Query("date_to")); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return filter, false
	}
	return filter, true
}

// GetStockTransactions 库存流水
func (h *Handler) GetStockTransactions(c *gin.Context) {
	filter, ok := bindStockFilter(c)
	if !ok {
		return
	}
	items, total, err := h.ReceivingService.History(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.stock_fetch_failed", err)
		return
	}
	response.Page(c, items, filter.Page, filter.PageSize, total)
}

// ExportReceipts 导出入库流水 xlsx
func (h *Handler) ExportReceipts(c *gin.Context) {
	filter, ok := bindStockFilter(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.ExportService.WriteReceipts(c.Request.Context(), filter, i18n.ResolveLocale(c), &buf); err != nil {
		respondError(c, response.CodeInternal, "error.export_failed", err)
		return
	}
	sendWorkbook(c, "receipts", &buf)
}
