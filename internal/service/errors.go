package service

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// 通用错误
var (
	ErrInvalidScope    = errors.New("invalid scope")
	ErrCompanyNotFound = errors.New("company not found")
	ErrPayerNotFound   = errors.New("payer not found")
)

// 付款分配与同步错误
var (
	ErrAllocationNotFound   = errors.New("allocation not found")
	ErrPlanNotFound         = errors.New("plan not found")
	ErrPlanFieldMissing     = errors.New("plan references a missing field")
	ErrFieldCompanyMissing  = errors.New("field has no company")
	ErrFieldCompanyConflict = errors.New("field resolves to more than one company")
)

// 采购申请错误
var (
	ErrPurchaseCompanyRequired = errors.New("purchase company is required")
	ErrNothingToSubmit         = errors.New("nothing to submit")
	ErrInvalidQuantity         = errors.New("invalid purchase quantity")
	ErrSubmitLocked            = errors.New("another submission for this company is in progress")
	ErrOrderNotFound           = errors.New("purchase order not found")
	ErrOrderStatusInvalid      = errors.New("purchase order status transition not allowed")
	ErrOrderHasReceipts        = errors.New("purchase order already has stock receipts")
)

// 入库错误
var (
	ErrOrderNotPaid         = errors.New("purchase order is not paid")
	ErrOrderLineNotFound    = errors.New("purchase order line not found")
	ErrNegativeQuantity     = errors.New("negative quantity")
	ErrOverReceipt          = errors.New("over receipt")
	ErrNothingToReceive     = errors.New("nothing to receive")
	ErrOrderAlreadyReceived = errors.New("purchase order already fully received")
	ErrWarehouseNotFound    = errors.New("warehouse not found")
)

// IntegrityError 计划数据完整性错误，整个同步回滚
type IntegrityError struct {
	Err     error
	PlanID  uint
	FieldID uint
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s (plan_id=%d field_id=%d)", e.Err.Error(), e.PlanID, e.FieldID)
}

func (e *IntegrityError) Unwrap() error {
	return e.Err
}

// OverReceiptError 入库数量超过申请行剩余量
type OverReceiptError struct {
	LineIndex   int
	ProductName string
	Requested   decimal.Decimal
	Allowed     decimal.Decimal
}

func (e *OverReceiptError) Error() string {
	return fmt.Sprintf("line %d %s: requested %s exceeds allowed %s",
		e.LineIndex, e.ProductName, e.Requested.StringFixed(3), e.Allowed.StringFixed(3))
}

// Is 匹配 ErrOverReceipt
func (e *OverReceiptError) Is(target error) bool {
	return target == ErrOverReceipt
}
