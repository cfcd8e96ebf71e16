package service

import (
	"context"
	"io"

	"github.com/agro-backoffice/internal/constants"
	"github.com/agro-backoffice/internal/i18n"
	"github.com/agro-backoffice/internal/models"
	"github.com/agro-backoffice/internal/repository"

	"github.com/xuri/excelize/v2"
)

// exportPageSize 导出流水时的单页数量
const exportPageSize = 500

// ExportService xlsx 导出
type ExportService struct {
	consolidation *ConsolidationService
	receiving     *ReceivingService
	names         *NameResolver
}

// NewExportService 创建导出服务
func NewExportService(consolidation *ConsolidationService, receiving *ReceivingService, names *NameResolver) *ExportService {
	return &ExportService{consolidation: consolidation, receiving: receiving, names: names}
}

// WriteConsolidated 导出剩余待申请汇总
func (s *ExportService) WriteConsolidated(ctx context.Context, filter ConsolidatedFilter, locale string, w io.Writer) error {
	rows, err := s.consolidation.Consolidated(ctx, filter)
	if err != nil {
		return err
	}
	headers := []string{
		"export.col.company",
		"export.col.product",
		"export.col.manufacturer",
		"export.col.payer",
		"export.col.unit",
		"export.col.package",
		"export.col.total",
		"export.col.ordered",
		"export.col.remaining_raw",
		"export.col.remaining",
	}
	data := make([][]interface{}, 0, len(rows))
	for _, row := range rows {
		data = append(data, []interface{}{
			row.CompanyName,
			row.ProductName,
			row.ManufacturerName,
			row.PayerName,
			row.UnitName,
			row.PackageText,
			quantityCell(row.TotalQty),
			quantityCell(row.AlreadyOrderedQty),
			quantityCell(row.RemainingRawQty),
			quantityCell(row.RemainingQty),
		})
	}
	return writeSheet(w, i18n.T(locale, "export.sheet.consolidated"), localizeHeaders(locale, headers), data)
}

// WriteReceipts 导出入库流水
func (s *ExportService) WriteReceipts(ctx context.Context, filter repository.StockTransactionListFilter, locale string, w io.Writer) error {
	filter.PageSize = exportPageSize
	rows := make([]models.StockTransaction, 0)
	for page := 1; ; page++ {
		filter.Page = page
		batch, total, err := s.receiving.History(filter)
		if err != nil {
			return err
		}
		rows = append(rows, batch...)
		if len(batch) == 0 || int64(len(rows)) >= total {
			break
		}
	}

	ids := idCollector{}
	for _, row := range rows {
		ids.add(constants.NameKindWarehouse, row.WarehouseID)
	}
	book, err := s.names.Names(ctx, ids)
	if err != nil {
		return err
	}

	headers := []string{
		"export.col.date",
		"export.col.warehouse",
		"export.col.order",
		"export.col.line",
		"export.col.product",
		"export.col.manufacturer",
		"export.col.payer",
		"export.col.package",
		"export.col.unit",
		"export.col.quantity",
		"export.col.consumer_company",
		"export.col.note",
	}
	data := make([][]interface{}, 0, len(rows))
	for _, row := range rows {
		data = append(data, []interface{}{
			row.TxDate.Format("2006-01-02"),
			book.GetID(constants.NameKindWarehouse, row.WarehouseID),
			row.SourceID,
			row.SourceLineIndex,
			row.ProductName,
			row.ManufacturerName,
			row.PayerName,
			row.PackageText,
			row.UnitText,
			quantityCell(row.Quantity),
			row.ConsumerCompanyName,
			row.Note,
		})
	}
	return writeSheet(w, i18n.T(locale, "export.sheet.receipts"), localizeHeaders(locale, headers), data)
}

func localizeHeaders(locale string, keys []string) []interface{} {
	headers := make([]interface{}, 0, len(keys))
	for _, key := range keys {
		headers = append(headers, i18n.T(locale, key))
	}
	return headers
}

func quantityCell(q models.Quantity) float64 {
	return q.Round(models.QuantityScale).InexactFloat64()
}

func writeSheet(w io.Writer, sheet string, headers []interface{}, rows [][]interface{}) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return err
	}
	if len(headers) > 0 {
		style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return err
		}
		last, err := excelize.CoordinatesToCellName(len(headers), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
			return err
		}
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return err
		}
	}
	return f.Write(w)
}
