package admin

import (
	"errors"

	handlershared "github.com/agro-backoffice/internal/http/handlers/shared"
	"github.com/agro-backoffice/internal/http/response"
	"github.com/agro-backoffice/internal/i18n"
	"github.com/agro-backoffice/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	var integrity *service.IntegrityError
	if errors.As(err, &integrity) {
		requestLog(c).Warnw("plan_integrity_error",
			"plan_id", integrity.PlanID,
			"field_id", integrity.FieldID,
			"error", integrity.Err,
		)
	}
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var scopeErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidScope, code: response.CodeBadRequest, key: "error.scope_invalid"},
	{target: service.ErrCompanyNotFound, code: response.CodeNotFound, key: "error.company_not_found"},
}

var syncErrorRules = []mappedHandlerError{
	{target: service.ErrPlanFieldMissing, code: response.CodeUnprocessable, key: "error.plan_field_missing"},
	{target: service.ErrFieldCompanyMissing, code: response.CodeUnprocessable, key: "error.field_company_missing"},
	{target: service.ErrFieldCompanyConflict, code: response.CodeUnprocessable, key: "error.field_company_conflict"},
	{target: service.ErrAllocationNotFound, code: response.CodeNotFound, key: "error.allocation_not_found"},
}

var allocationUpdateErrorRules = []mappedHandlerError{
	{target: service.ErrAllocationNotFound, code: response.CodeNotFound, key: "error.allocation_not_found"},
	{target: service.ErrPayerNotFound, code: response.CodeBadRequest, key: "error.payer_not_found"},
}

var planErrorRules = []mappedHandlerError{
	{target: service.ErrPlanNotFound, code: response.CodeNotFound, key: "error.plan_not_found"},
}

var submitErrorRules = []mappedHandlerError{
	{target: service.ErrPurchaseCompanyRequired, code: response.CodeBadRequest, key: "error.purchase_company_required"},
	{target: service.ErrNothingToSubmit, code: response.CodeBadRequest, key: "error.nothing_to_submit"},
	{target: service.ErrInvalidQuantity, code: response.CodeBadRequest, key: "error.quantity_invalid"},
	{target: service.ErrPayerNotFound, code: response.CodeBadRequest, key: "error.payer_not_found"},
	{target: service.ErrSubmitLocked, code: response.CodeConflict, key: "error.submit_locked"},
}

var orderErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, key: "error.order_not_found"},
	{target: service.ErrOrderStatusInvalid, code: response.CodeBadRequest, key: "error.order_status_invalid"},
	{target: service.ErrOrderHasReceipts, code: response.CodeConflict, key: "error.order_has_receipts"},
}

var receiveErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, key: "error.order_not_found"},
	{target: service.ErrOrderNotPaid, code: response.CodeBadRequest, key: "error.order_not_paid"},
	{target: service.ErrOrderAlreadyReceived, code: response.CodeBadRequest, key: "error.order_already_received"},
	{target: service.ErrOrderLineNotFound, code: response.CodeBadRequest, key: "error.order_line_not_found"},
	{target: service.ErrNegativeQuantity, code: response.CodeBadRequest, key: "error.quantity_negative"},
	{target: service.ErrNothingToReceive, code: response.CodeBadRequest, key: "error.nothing_to_receive"},
	{target: service.ErrWarehouseNotFound, code: response.CodeBadRequest, key: "error.warehouse_not_found"},
}

func respondSyncError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(scopeErrorRules, syncErrorRules), response.CodeInternal, "error.sync_failed")
}

func respondSubmitError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(scopeErrorRules, submitErrorRules), response.CodeInternal, "error.order_submit_failed")
}

func respondPlanError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(scopeErrorRules, planErrorRules, syncErrorRules), response.CodeInternal, "error.plan_update_failed")
}

// respondReceiveError 超量入库时带上行号、品名与允许数量
func respondReceiveError(c *gin.Context, err error) {
	var over *service.OverReceiptError
	if errors.As(err, &over) {
		msg := i18n.Sprintf(i18n.ResolveLocale(c), "error.over_receipt", over.LineIndex, over.ProductName, over.Allowed.StringFixed(3))
		response.ErrorWithData(c, response.CodeBadRequest, msg, map[string]interface{}{
			"line_index": over.LineIndex,
			"requested":  over.Requested.StringFixed(3),
			"allowed":    over.Allowed.StringFixed(3),
		})
		return
	}
	respondWithMappedError(c, err, receiveErrorRules, response.CodeInternal, "error.receive_failed")
}
