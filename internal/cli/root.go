package cli

import (
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/gearup/storefront/internal/config"
)

// RootOptions holds settings shared by every command.
type RootOptions struct {
	Config *config.Config

	APIURL   string
	Token    string
	CartFile string
}

// NewRootCommand creates the storefront command tree. A nil cfg is loaded
// from the environment before any command runs.
func NewRootCommand(cfg *config.Config) *cobra.Command {
	opts := &RootOptions{Config: cfg}

	cmd := &cobra.Command{
		Use:           "storefront",
		Short:         "GearUp storefront",
		Long:          "Runs the GearUp storefront API and drives the shopper cart and checkout from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Config == nil {
				loaded, err := config.Load()
				if err != nil {
					return err
				}
				opts.Config = loaded
			}
			if opts.APIURL != "" {
				opts.Config.Storefront.APIBaseURL = opts.APIURL
			}
			if opts.Token != "" {
				opts.Config.Storefront.Token = opts.Token
			}
			if opts.CartFile != "" {
				opts.Config.Storefront.CartFile = opts.CartFile
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.APIURL, "api-url", "", "storefront API base URL (default from STOREFRONT_API_URL)")
	cmd.PersistentFlags().StringVar(&opts.Token, "token", "", "identity token for signed-in commands (default from STOREFRONT_TOKEN)")
	cmd.PersistentFlags().StringVar(&opts.CartFile, "cart-file", "", "where the cart is kept (default from STOREFRONT_CART_FILE)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewInvoiceCommand(opts))
	cmd.AddCommand(NewCartCommand(opts))
	cmd.AddCommand(NewCheckoutCommand(opts))

	return cmd
}

func newLogger(w io.Writer, component string) *log.Logger {
	return log.New(w, "["+component+"] ", log.LstdFlags|log.Lshortfile)
}
