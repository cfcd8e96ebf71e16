package admin

import (
	"github.com/agro-backoffice/internal/http/response"

	"github.com/gin-gonic/gin"
)

// BulkApproveRequest 批量审批
type BulkApproveRequest struct {
	PlanIDs  []uint `json:"plan_ids" binding:"required"`
	Approved bool   `json:"approved"`
}

// ApprovePlan 审批计划
func (h *Handler) ApprovePlan(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	result, err := h.PlanService.Approve(c.Request.Context(), id)
	if err != nil {
		respondPlanError(c, err)
		return
	}
	response.Success(c, result)
}

// UnapprovePlan 取消审批
func (h *Handler) UnapprovePlan(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	result, err := h.PlanService.Unapprove(c.Request.Context(), id)
	if err != nil {
		respondPlanError(c, err)
		return
	}
	response.Success(c, result)
}

// BulkApprovePlans 批量审批或取消审批
func (h *Handler) BulkApprovePlans(c *gin.Context) {
	var req BulkApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	result, err := h.PlanService.BulkApprove(c.Request.Context(), req.PlanIDs, req.Approved)
	if err != nil {
		respondPlanError(c, err)
		return
	}
	response.Success(c, result)
}
