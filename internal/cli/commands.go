package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/agro-backoffice/internal/i18n"
	"github.com/agro-backoffice/internal/repository"
	"github.com/agro-backoffice/internal/seed"
	"github.com/agro-backoffice/internal/service"

	"github.com/spf13/cobra"
)

func newSeedCmd() *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo companies, fields, products and approved plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadContainer()
			if err != nil {
				return err
			}
			summary, err := seed.Demo(cmd.Context(), c.DB, year)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), summary)
		},
	}
	cmd.Flags().IntVar(&year, "year", time.Now().Year(), "Plan year for demo plans")
	return cmd
}

type scopeFlags struct {
	companyID  uint
	fieldIDs   []uint
	productIDs []uint
}

func (f *scopeFlags) bind(cmd *cobra.Command) {
	cmd.Flags().UintVar(&f.companyID, "company", 0, "Limit to one company id")
	cmd.Flags().UintSliceVar(&f.fieldIDs, "field", nil, "Limit to field ids (repeatable)")
	cmd.Flags().UintSliceVar(&f.productIDs, "product", nil, "Limit to product ids (repeatable)")
}

func (f *scopeFlags) scope() repository.PlanScope {
	return repository.PlanScope{
		CompanyID:  f.companyID,
		FieldIDs:   f.fieldIDs,
		ProductIDs: f.productIDs,
	}
}

func newSyncCmd() *cobra.Command {
	var scope scopeFlags
	var dryRun, reconcileOnly bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile payer allocations with approved plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadContainer()
			if err != nil {
				return err
			}
			result, err := c.ReconciliationService.Sync(cmd.Context(), service.SyncOptions{
				Scope:         scope.scope(),
				DryRun:        dryRun,
				ReconcileOnly: reconcileOnly,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
	scope.bind(cmd)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute changes and roll back")
	cmd.Flags().BoolVar(&reconcileOnly, "reconcile-only", false, "Only mark rows without a plan as stale")
	return cmd
}

func newConsolidatedCmd() *cobra.Command {
	var filter service.ConsolidatedFilter
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "consolidated",
		Short: "Print remaining quantities per company, product and payer",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadContainer()
			if err != nil {
				return err
			}
			rows, err := c.ConsolidationService.Consolidated(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), rows)
			}
			return writeConsolidatedTable(cmd.OutOrStdout(), rows)
		},
	}
	cmd.Flags().UintVar(&filter.CompanyID, "company", 0, "Company id")
	cmd.Flags().UintVar(&filter.ProductID, "product", 0, "Product id")
	cmd.Flags().UintVar(&filter.ManufacturerID, "manufacturer", 0, "Manufacturer id")
	cmd.Flags().UintVar(&filter.PayerID, "payer", 0, "Payer id")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newExportCmd() *cobra.Command {
	var out, locale string
	var companyID, warehouseID uint
	cmd := &cobra.Command{
		Use:       "export [consolidated|receipts]",
		Short:     "Write an xlsx workbook",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"consolidated", "receipts"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := strings.ToLower(strings.TrimSpace(args[0]))
			if kind != "consolidated" && kind != "receipts" {
				return fmt.Errorf("unknown export %q", args[0])
			}
			c, err := loadContainer()
			if err != nil {
				return err
			}
			if out == "" {
				out = fmt.Sprintf("%s_%s.xlsx", kind, time.Now().Format("20060102"))
			}
			if locale == "" {
				locale = i18n.DefaultLocale
			}
			file, err := os.Create(out)
			if err != nil {
				return err
			}
			defer file.Close()

			switch kind {
			case "consolidated":
				err = c.ExportService.WriteConsolidated(cmd.Context(), service.ConsolidatedFilter{CompanyID: companyID}, locale, file)
			default:
				err = c.ExportService.WriteReceipts(cmd.Context(), repository.StockTransactionListFilter{WarehouseID: warehouseID}, locale, file)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file")
	cmd.Flags().StringVar(&locale, "locale", "", "Header locale (uk-UA, en-US)")
	cmd.Flags().UintVar(&companyID, "company", 0, "Company id (consolidated)")
	cmd.Flags().UintVar(&warehouseID, "warehouse", 0, "Warehouse id (receipts)")
	return cmd
}

func newPurgeStaleCmd() *cobra.Command {
	var scope scopeFlags
	cmd := &cobra.Command{
		Use:   "purge-stale",
		Short: "Delete allocations marked stale",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadContainer()
			if err != nil {
				return err
			}
			purged, err := c.AllocationService.PurgeStale(cmd.Context(), scope.scope())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d stale allocations\n", purged)
			return nil
		},
	}
	scope.bind(cmd)
	return cmd
}

func writeJSON(w io.Writer, value interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func writeConsolidatedTable(w io.Writer, rows []service.ConsolidatedRow) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COMPANY\tPRODUCT\tPAYER\tUNIT\tTOTAL\tORDERED\tREMAINING\tTO ORDER")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			row.CompanyName,
			row.ProductName,
			row.PayerName,
			row.UnitName,
			row.TotalQty.String(),
			row.AlreadyOrderedQty.String(),
			row.RemainingRawQty.String(),
			row.RemainingQty.String(),
		)
	}
	return tw.Flush()
}
