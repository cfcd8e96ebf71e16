package constants

// 付款分配状态常量
const (
	AllocationStatusActive = "active"
	AllocationStatusStale  = "stale"
)

// 采购申请状态常量
const (
	PurchaseOrderStatusDraft             = "draft"
	PurchaseOrderStatusSubmitted         = "submitted"
	PurchaseOrderStatusPaid              = "paid"
	PurchaseOrderStatusPartiallyReceived = "partially_received"
	PurchaseOrderStatusReceived          = "received"
	PurchaseOrderStatusCancelled         = "cancelled"
	PurchaseOrderStatusCanceled          = "canceled"
	PurchaseOrderStatusRejected          = "rejected"
	PurchaseOrderStatusVoid              = "void"
	PurchaseOrderStatusDeleted           = "deleted"
)

// ExcludedFromOrderedStatuses 不计入已申请数量的状态
var ExcludedFromOrderedStatuses = []string{
	PurchaseOrderStatusCancelled,
	PurchaseOrderStatusCanceled,
	PurchaseOrderStatusRejected,
	PurchaseOrderStatusVoid,
	PurchaseOrderStatusDeleted,
	PurchaseOrderStatusDraft,
}

// ReceivableStatuses 允许入库的申请状态
var ReceivableStatuses = []string{
	PurchaseOrderStatusPaid,
	PurchaseOrderStatusPartiallyReceived,
}

// 库存流水常量
const (
	StockTxTypeIn  = "in"
	StockTxTypeOut = "out"

	StockSourceKindPurchaseOrder = "purchase_order"
)

// 计划状态常量
const (
	PlanStatusDraft    = "draft"
	PlanStatusApproved = "approved"
)

// 名称字典类型
const (
	NameKindCompany      = "company"
	NameKindProduct      = "product"
	NameKindManufacturer = "manufacturer"
	NameKindUnit         = "unit"
	NameKindPayer        = "payer"
	NameKindCulture      = "culture"
	NameKindField        = "field"
	NameKindWarehouse    = "warehouse"
)

// NamePlaceholder 名称缺失时的占位符
const NamePlaceholder = "—"
