package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gearup/storefront/internal/database"
	"github.com/gearup/storefront/internal/invoice"
	"github.com/gearup/storefront/internal/store"
)

func NewInvoiceCommand(rootOpts *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "invoice <orderID>",
		Short: "Render an order invoice to PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rootOpts.Config

			db, err := database.NewConnection(&cfg.Database)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer db.Close()

			order, err := store.GetOrder(cmd.Context(), db, args[0])
			if err != nil {
				return err
			}

			pdf, err := invoice.Render(order, invoice.Options{Brand: cfg.Storefront.Brand})
			if err != nil {
				return err
			}

			path := output
			if path == "" {
				path = invoice.FileName(cfg.Storefront.Brand, order.ID)
			}
			if err := os.WriteFile(path, pdf, 0o644); err != nil {
				return fmt.Errorf("write invoice: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <Brand>-Invoice-<orderID>.pdf)")
	return cmd
}
