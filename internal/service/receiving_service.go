package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/agro-backoffice/internal/constants"
	"github.com/agro-backoffice/internal/logger"
	"github.com/agro-backoffice/internal/metrics"
	"github.com/agro-backoffice/internal/models"
	"github.com/agro-backoffice/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// receiveEpsilon 浮点比较容差
var receiveEpsilon = decimal.New(1, -9)

// ReceiveInput 入库输入，Quantities 以申请行号为键
type ReceiveInput struct {
	OrderID     uint
	WarehouseID uint
	Quantities  map[int]decimal.Decimal
	TxDate      *time.Time
	Note        string
}

// ReceiveLineView 申请行的入库进度
type ReceiveLineView struct {
	LineIndex        int             `json:"line_index"`
	ProductID        uint            `json:"product_id"`
	ProductName      string          `json:"product_name"`
	PayerName        string          `json:"payer_name"`
	ManufacturerName string          `json:"manufacturer_name"`
	PackageText      string          `json:"package_text"`
	UnitName         string          `json:"unit_name"`
	OrderedQty       models.Quantity `json:"ordered_qty"`
	ReceivedQty      models.Quantity `json:"received_qty"`
	RemainingQty     models.Quantity `json:"remaining_qty"`
}

// ReceiveView 单个申请的入库视图
type ReceiveView struct {
	OrderID     uint              `json:"order_id"`
	OrderNo     string            `json:"order_no"`
	CompanyID   uint              `json:"company_id"`
	CompanyName string            `json:"company_name"`
	Status      string            `json:"status"`
	Lines       []ReceiveLineView `json:"lines"`
}

// StockBalance 库存余额
type StockBalance struct {
	WarehouseID   uint            `json:"warehouse_id"`
	WarehouseName string          `json:"warehouse_name"`
	ProductID     uint            `json:"product_id"`
	ProductName   string          `json:"product_name"`
	QtyIn         models.Quantity `json:"qty_in"`
	QtyOut        models.Quantity `json:"qty_out"`
	Balance       models.Quantity `json:"balance"`
}

// ReceivingService 仓库入库服务
type ReceivingService struct {
	db                 *gorm.DB
	orderRepo          repository.PurchaseOrderRepository
	stockRepo          repository.StockRepository
	catalogRepo        repository.CatalogRepository
	names              *NameResolver
	defaultWarehouseID uint
}

// NewReceivingService 创建入库服务
func NewReceivingService(
	db *gorm.DB,
	orderRepo repository.PurchaseOrderRepository,
	stockRepo repository.StockRepository,
	catalogRepo repository.CatalogRepository,
	names *NameResolver,
	defaultWarehouseID uint,
) *ReceivingService {
	return &ReceivingService{
		db:                 db,
		orderRepo:          orderRepo,
		stockRepo:          stockRepo,
		catalogRepo:        catalogRepo,
		names:              names,
		defaultWarehouseID: defaultWarehouseID,
	}
}

func isReceivable(status string) bool {
	for _, s := range constants.ReceivableStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Receive 在一个事务内登记入库并推进申请状态
func (s *ReceivingService) Receive(ctx context.Context, input ReceiveInput) ([]models.StockTransaction, error) {
	warehouseID := input.WarehouseID
	if warehouseID == 0 {
		warehouseID = s.defaultWarehouseID
	}

	var created []models.StockTransaction
	var finalStatus string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		stockRepo := s.stockRepo.WithTx(tx)

		order, err := orderRepo.GetByIDForUpdate(input.OrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if order.Status == constants.PurchaseOrderStatusReceived {
			return ErrOrderAlreadyReceived
		}
		if !isReceivable(order.Status) {
			return ErrOrderNotPaid
		}

		if warehouseID == 0 {
			return ErrWarehouseNotFound
		}
		warehouses, err := s.catalogRepo.WithTx(tx).NameMap(constants.NameKindWarehouse, []uint{warehouseID})
		if err != nil {
			return err
		}
		if _, ok := warehouses[warehouseID]; !ok {
			return ErrWarehouseNotFound
		}

		received, err := stockRepo.ReceivedByLine(order.ID)
		if err != nil {
			return err
		}
		lines := make(map[int]models.PurchaseOrderLine, len(order.Lines))
		for _, line := range order.Lines {
			lines[line.LineIndex] = line
		}

		indexes := make([]int, 0, len(input.Quantities))
		for idx := range input.Quantities {
			indexes = append(indexes, idx)
		}
		sort.Ints(indexes)

		book, err := s.names.Names(ctx, receiveNameIDs(order))
		if err != nil {
			return err
		}
		txDate := time.Now()
		if input.TxDate != nil && !input.TxDate.IsZero() {
			txDate = *input.TxDate
		}

		rows := make([]models.StockTransaction, 0, len(indexes))
		for _, idx := range indexes {
			requested := input.Quantities[idx].Round(models.QuantityScale)
			if requested.IsNegative() {
				return ErrNegativeQuantity
			}
			line, ok := lines[idx]
			if !ok {
				return ErrOrderLineNotFound
			}
			if !requested.IsPositive() {
				continue
			}
			allowed := decimal.Max(line.Quantity.Sub(received[idx]), decimal.Zero)
			if requested.Sub(allowed).GreaterThan(receiveEpsilon) {
				return &OverReceiptError{
					LineIndex:   idx,
					ProductName: line.ProductName,
					Requested:   requested,
					Allowed:     allowed,
				}
			}
			rows = append(rows, models.StockTransaction{
				TxType:              constants.StockTxTypeIn,
				WarehouseID:         warehouseID,
				ProductID:           line.ProductID,
				UnitID:              line.UnitID,
				Quantity:            models.NewQuantity(requested),
				SourceKind:          constants.StockSourceKindPurchaseOrder,
				SourceID:            order.ID,
				SourceLineIndex:     idx,
				ProductName:         line.ProductName,
				UnitText:            book.Get(constants.NameKindUnit, line.UnitID),
				PayerName:           line.PayerName,
				PackageText:         line.PackageText,
				ManufacturerName:    line.ManufacturerName,
				ConsumerCompanyName: book.GetID(constants.NameKindCompany, order.CompanyID),
				Note:                strings.TrimSpace(input.Note),
				TxDate:              txDate,
			})
			received[idx] = received[idx].Add(requested)
		}
		if len(rows) == 0 {
			return ErrNothingToReceive
		}
		if err := stockRepo.CreateBatch(rows); err != nil {
			return err
		}

		finalStatus = constants.PurchaseOrderStatusReceived
		for _, line := range order.Lines {
			if line.Quantity.Sub(received[line.LineIndex]).GreaterThan(receiveEpsilon) {
				finalStatus = constants.PurchaseOrderStatusPartiallyReceived
				break
			}
		}
		if finalStatus != order.Status {
			if err := orderRepo.UpdateStatus(order.ID, finalStatus, map[string]interface{}{"updated_at": time.Now()}); err != nil {
				return err
			}
		}
		created = rows
		return nil
	})
	if err != nil {
		result := "error"
		switch {
		case errors.Is(err, ErrOverReceipt):
			result = "over_receipt"
		case errors.Is(err, ErrOrderNotPaid), errors.Is(err, ErrOrderAlreadyReceived):
			result = "not_receivable"
		case errors.Is(err, ErrNothingToReceive):
			result = "nothing_to_receive"
		}
		metrics.StockReceipts.WithLabelValues(result).Inc()
		logger.Warnw("stock_receive_failed", "order_id", input.OrderID, "warehouse_id", warehouseID, "error", err)
		return nil, err
	}

	metrics.StockReceipts.WithLabelValues("ok").Inc()
	logger.Infow("stock_received",
		"order_id", input.OrderID,
		"warehouse_id", warehouseID,
		"lines", len(created),
		"status", finalStatus,
	)
	return created, nil
}

func receiveNameIDs(order *models.PurchaseOrder) idCollector {
	ids := idCollector{}
	ids.add(constants.NameKindCompany, order.CompanyID)
	for _, line := range order.Lines {
		ids.addPtr(constants.NameKindUnit, line.UnitID)
	}
	return ids
}

// ReceiveView 返回申请各行的申请量、已入库量与剩余量
func (s *ReceivingService) ReceiveView(ctx context.Context, orderID uint) (*ReceiveView, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	received, err := s.stockRepo.ReceivedByLine(order.ID)
	if err != nil {
		return nil, err
	}
	book, err := s.names.Names(ctx, receiveNameIDs(order))
	if err != nil {
		return nil, err
	}
	return buildReceiveView(order, received, book), nil
}

func buildReceiveView(order *models.PurchaseOrder, received map[int]decimal.Decimal, book NameBook) *ReceiveView {
	view := &ReceiveView{
		OrderID:     order.ID,
		OrderNo:     order.OrderNo,
		CompanyID:   order.CompanyID,
		CompanyName: book.GetID(constants.NameKindCompany, order.CompanyID),
		Status:      order.Status,
		Lines:       make([]ReceiveLineView, 0, len(order.Lines)),
	}
	for _, line := range order.Lines {
		got := received[line.LineIndex]
		view.Lines = append(view.Lines, ReceiveLineView{
			LineIndex:        line.LineIndex,
			ProductID:        line.ProductID,
			ProductName:      line.ProductName,
			PayerName:        line.PayerName,
			ManufacturerName: line.ManufacturerName,
			PackageText:      line.PackageText,
			UnitName:         book.Get(constants.NameKindUnit, line.UnitID),
			OrderedQty:       line.Quantity,
			ReceivedQty:      models.NewQuantity(got),
			RemainingQty:     models.NewQuantity(decimal.Max(line.Quantity.Sub(got), decimal.Zero)),
		})
	}
	return view
}

// Journal 列出待入库的已付款申请，仅保留仍有剩余量的行
func (s *ReceivingService) Journal(ctx context.Context, companyID uint) ([]ReceiveView, error) {
	orders, _, err := s.orderRepo.List(repository.PurchaseOrderListFilter{
		CompanyID: companyID,
		Statuses:  constants.ReceivableStatuses,
	})
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return []ReceiveView{}, nil
	}
	orderIDs := make([]uint, 0, len(orders))
	ids := idCollector{}
	for i := range orders {
		orderIDs = append(orderIDs, orders[i].ID)
		for kind, list := range receiveNameIDs(&orders[i]) {
			ids[kind] = append(ids[kind], list...)
		}
	}
	received, err := s.stockRepo.ReceivedByOrders(orderIDs)
	if err != nil {
		return nil, err
	}
	book, err := s.names.Names(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]ReceiveView, 0, len(orders))
	for i := range orders {
		view := buildReceiveView(&orders[i], received[orders[i].ID], book)
		open := view.Lines[:0]
		for _, line := range view.Lines {
			if line.RemainingQty.IsPositive() {
				open = append(open, line)
			}
		}
		if len(open) == 0 {
			continue
		}
		view.Lines = open
		result = append(result, *view)
	}
	return result, nil
}

// StockBalances 计算仓库 × 产品的库存余额
func (s *ReceivingService) StockBalances(ctx context.Context, warehouseID uint) ([]StockBalance, error) {
	rows, err := s.stockRepo.Balances(warehouseID)
	if err != nil {
		return nil, err
	}
	ids := idCollector{}
	for _, row := range rows {
		ids.add(constants.NameKindWarehouse, row.WarehouseID)
		ids.add(constants.NameKindProduct, row.ProductID)
	}
	book, err := s.names.Names(ctx, ids)
	if err != nil {
		return nil, err
	}
	result := make([]StockBalance, 0, len(rows))
	for _, row := range rows {
		result = append(result, StockBalance{
			WarehouseID:   row.WarehouseID,
			WarehouseName: book.GetID(constants.NameKindWarehouse, row.WarehouseID),
			ProductID:     row.ProductID,
			ProductName:   book.GetID(constants.NameKindProduct, row.ProductID),
			QtyIn:         models.NewQuantity(row.QtyIn),
			QtyOut:        models.NewQuantity(row.QtyOut),
			Balance:       models.NewQuantity(row.QtyIn.Sub(row.QtyOut)),
		})
	}
	return result, nil
}

// History 分页查询库存流水
func (s *ReceivingService) History(filter repository.StockTransactionListFilter) ([]models.StockTransaction, int64, error) {
	return s.stockRepo.List(filter)
}
