package admin

import (
	"bytes"
	"fmt"
	"time"

	"github.com/agro-backoffice/internal/http/response"
	"github.com/agro-backoffice/internal/i18n"
	"github.com/agro-backoffice/internal/repository"
	"github.com/agro-backoffice/internal/service"

	"github.com/gin-gonic/gin"
)

func bindConsolidatedFilter(c *gin.Context) (service.ConsolidatedFilter, bool) {
	var filter service.ConsolidatedFilter
	var ok bool
	if filter.CompanyID, ok = queryUintOrReject(c, "company_id"); !ok {
		return filter, false
	}
	if filter.ProductID, ok = queryUintOrReject(c, "product_id"); !ok {
		return filter, false
	}
	if filter.ManufacturerID, ok = queryUintOrReject(c, "manufacturer_id"); !ok {
		return filter, false
	}
	if filter.PayerID, ok = queryUintOrReject(c, "payer_id"); !ok {
		return filter, false
	}
	return filter, true
}

// GetConsolidated 剩余待申请数量汇总
func (h *Handler) GetConsolidated(c *gin.Context) {
	filter, ok := bindConsolidatedFilter(c)
	if !ok {
		return
	}
	rows, err := h.ConsolidationService.Consolidated(c.Request.Context(), filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.consolidated_fetch_failed", err)
		return
	}
	response.Success(c, rows)
}

// ExportConsolidated 导出汇总 xlsx
func (h *Handler) ExportConsolidated(c *gin.Context) {
	filter, ok := bindConsolidatedFilter(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.ExportService.WriteConsolidated(c.Request.Context(), filter, i18n.ResolveLocale(c), &buf); err != nil {
		respondError(c, response.CodeInternal, "error.export_failed", err)
		return
	}
	sendWorkbook(c, "consolidated", &buf)
}

// GetNeeds 按公司、作物、产品汇总已审批计划的需求
func (h *Handler) GetNeeds(c *gin.Context) {
	var scope repository.PlanScope
	var ok bool
	if scope.CompanyID, ok = queryUintOrReject(c, "company_id"); !ok {
		return
	}
	rows, err := h.NeedsService.Summary(c.Request.Context(), scope)
	if err != nil {
		respondError(c, response.CodeInternal, "error.needs_fetch_failed", err)
		return
	}
	response.Success(c, rows)
}

func sendWorkbook(c *gin.Context, name string, buf *bytes.Buffer) {
	filename := fmt.Sprintf("%s_%s.xlsx", name, time.Now().Format("20060102_150405"))
	response.Attachment(c, filename, response.XLSXContentType, buf.Bytes())
}
