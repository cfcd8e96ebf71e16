package admin

import (
	"errors"
	"io"

	handlershared "github.com/agro-backoffice/internal/http/handlers/shared"
	"github.com/agro-backoffice/internal/http/response"
	"github.com/agro-backoffice/internal/repository"
	"github.com/agro-backoffice/internal/service"

	"github.com/gin-gonic/gin"
)

// ScopeRequest 同步与对账范围
type ScopeRequest struct {
	CompanyID  uint   `json:"company_id"`
	FieldIDs   []uint `json:"field_ids"`
	ProductIDs []uint `json:"product_ids"`
}

func (r ScopeRequest) toScope() repository.PlanScope {
	return repository.PlanScope{
		CompanyID:  r.CompanyID,
		FieldIDs:   r.FieldIDs,
		ProductIDs: r.ProductIDs,
	}
}

// SyncAllocationsRequest 同步请求
type SyncAllocationsRequest struct {
	ScopeRequest
	DryRun bool `json:"dry_run"`
}

// SetPayerRequest 设置付款方，payer_id 为 null 时清空
type SetPayerRequest struct {
	PayerID *uint `json:"payer_id"`
}

// BulkPayerRequest 批量设置付款方
type BulkPayerRequest struct {
	AllocationIDs []uint `json:"allocation_ids" binding:"required"`
	PayerID       *uint  `json:"payer_id"`
}

// bindOptionalJSON 允许空请求体
func bindOptionalJSON(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// SyncAllocations 由已审批计划同步付款分配
func (h *Handler) SyncAllocations(c *gin.Context) {
	var req SyncAllocationsRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	result, err := h.ReconciliationService.Sync(c.Request.Context(), service.SyncOptions{
		Scope:  req.toScope(),
		DryRun: req.DryRun,
	})
	if err != nil {
		respondSyncError(c, err)
		return
	}
	response.Success(c, result)
}

// ReconcileAllocations 仅标记不再对应计划的分配为 stale
func (h *Handler) ReconcileAllocations(c *gin.Context) {
	var req ScopeRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	result, err := h.ReconciliationService.Reconcile(c.Request.Context(), req.toScope())
	if err != nil {
		respondSyncError(c, err)
		return
	}
	response.Success(c, result)
}

// RecomputeAllocation 重新计算单条分配
func (h *Handler) RecomputeAllocation(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	result, err := h.ReconciliationService.RecomputeRow(c.Request.Context(), id)
	if err != nil {
		respondSyncError(c, err)
		return
	}
	response.Success(c, result)
}

// GetAllocations 分配列表
func (h *Handler) GetAllocations(c *gin.Context) {
	page, pageSize := handlershared.QueryPagination(c)
	filter := repository.AllocationListFilter{
		Page:       page,
		PageSize:   pageSize,
		Unassigned: handlershared.QueryBool(c, "unassigned"),
		Status:     c.Query("status"),
	}
	var ok bool
	if filter.CompanyID, ok = queryUintOrReject(c, "company_id"); !ok {
		return
	}
	if filter.FieldID, ok = queryUintOrReject(c, "field_id"); !ok {
		return
	}
	if filter.ProductID, ok = queryUintOrReject(c, "product_id"); !ok {
		return
	}
	if filter.PayerID, ok = queryUintOrReject(c, "payer_id"); !ok {
		return
	}

	views, total, err := h.AllocationService.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.allocation_fetch_failed", err)
		return
	}
	response.Page(c, views, page, pageSize, total)
}

// SetAllocationPayer 设置或清空单条分配的付款方
func (h *Handler) SetAllocationPayer(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req SetPayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	row, err := h.AllocationService.SetPayer(c.Request.Context(), id, req.PayerID)
	if err != nil {
		respondWithMappedError(c, err, allocationUpdateErrorRules, response.CodeInternal, "error.allocation_update_failed")
		return
	}
	response.Success(c, row)
}

// BulkAssignPayer 批量设置付款方
func (h *Handler) BulkAssignPayer(c *gin.Context) {
	var req BulkPayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	affected, err := h.AllocationService.BulkAssign(c.Request.Context(), req.AllocationIDs, req.PayerID)
	if err != nil {
		respondWithMappedError(c, err, concatMappedHandlerErrors(scopeErrorRules, allocationUpdateErrorRules), response.CodeInternal, "error.allocation_update_failed")
		return
	}
	response.Success(c, gin.H{"affected": affected})
}

// PurgeStaleAllocations 删除 stale 分配
func (h *Handler) PurgeStaleAllocations(c *gin.Context) {
	var scope repository.PlanScope
	var ok bool
	if scope.CompanyID, ok = queryUintOrReject(c, "company_id"); !ok {
		return
	}
	fieldID, ok := queryUintOrReject(c, "field_id")
	if !ok {
		return
	}
	if fieldID > 0 {
		scope.FieldIDs = []uint{fieldID}
	}
	productID, ok := queryUintOrReject(c, "product_id")
	if !ok {
		return
	}
	if productID > 0 {
		scope.ProductIDs = []uint{productID}
	}

	purged, err := h.AllocationService.PurgeStale(c.Request.Context(), scope)
	if err != nil {
		respondWithMappedError(c, err, scopeErrorRules, response.CodeInternal, "error.allocation_update_failed")
		return
	}
	response.Success(c, gin.H{"purged": purged})
}
