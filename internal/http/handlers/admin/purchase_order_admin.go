package admin

import (
	"strings"

	handlershared "github.com/agro-backoffice/internal/http/handlers/shared"
	"github.com/agro-backoffice/internal/http/response"
	"github.com/agro-backoffice/internal/models"
	"github.com/agro-backoffice/internal/repository"
	"github.com/agro-backoffice/internal/service"

	"github.com/gin-gonic/gin"
)

// SubmitLineRequest 申请行
type SubmitLineRequest struct {
	ProductID      uint   `json:"product_id" binding:"required"`
	PayerID        *uint  `json:"payer_id"`
	ManufacturerID *uint  `json:"manufacturer_id"`
	Quantity       string `json:"quantity"`
}

// SubmitPurchaseRequest 提交采购申请
type SubmitPurchaseRequest struct {
	CompanyID uint                `json:"company_id"`
	Note      string              `json:"note"`
	Lines     []SubmitLineRequest `json:"lines" binding:"dive"`
}

// UpdateOrderStatusRequest 修改申请状态
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SubmitPurchaseOrder 提交采购申请，数量按剩余量截断
func (h *Handler) SubmitPurchaseOrder(c *gin.Context) {
	var req SubmitPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	input := service.SubmitPurchaseInput{
		CompanyID: req.CompanyID,
		Note:      req.Note,
		Lines:     make([]service.SubmitPurchaseLine, 0, len(req.Lines)),
	}
	for _, line := range req.Lines {
		qty, err := models.ParseQuantity(line.Quantity)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.quantity_invalid", nil)
			return
		}
		input.Lines = append(input.Lines, service.SubmitPurchaseLine{
			ProductID:      line.ProductID,
			PayerID:        line.PayerID,
			ManufacturerID: line.ManufacturerID,
			Quantity:       qty.Decimal,
		})
	}

	order, err := h.PurchaseOrderService.Submit(c.Request.Context(), input)
	if err != nil {
		respondSubmitError(c, err)
		return
	}
	response.Success(c, order)
}

// GetPurchaseOrders 采购申请列表
func (h *Handler) GetPurchaseOrders(c *gin.Context) {
	page, pageSize := handlershared.QueryPagination(c)
	filter := repository.PurchaseOrderListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   strings.TrimSpace(c.Query("status")),
		OrderNo:  strings.TrimSpace(c.Query("order_no")),
	}
	var ok bool
	if filter.CompanyID, ok = queryUintOrReject(c, "company_id"); !ok {
		return
	}
	createdFrom, err := handlershared.ParseTimeNullable(c.Query("created_from"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	createdTo, err := handlershared.ParseTimeNullable(c.Query("created_to"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	filter.CreatedFrom = createdFrom
	filter.CreatedTo = createdTo

	orders, total, err := h.PurchaseOrderService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
		return
	}
	response.Page(c, orders, page, pageSize, total)
}

// GetPurchaseOrder 采购申请详情
func (h *Handler) GetPurchaseOrder(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	order, err := h.PurchaseOrderService.Get(id)
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "error.order_fetch_failed")
		return
	}
	response.Success(c, order)
}

// UpdatePurchaseOrderStatus 修改申请状态（paid / cancelled / rejected）
func (h *Handler) UpdatePurchaseOrderStatus(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	order, err := h.PurchaseOrderService.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "error.order_update_failed")
		return
	}
	response.Success(c, order)
}

// DeletePurchaseOrder 删除尚未入库的申请
func (h *Handler) DeletePurchaseOrder(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.PurchaseOrderService.Delete(c.Request.Context(), id); err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "error.order_delete_failed")
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
