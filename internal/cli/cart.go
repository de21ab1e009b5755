package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/gearup/storefront/internal/cart"
	"github.com/gearup/storefront/internal/client"
	"github.com/gearup/storefront/internal/models"
)

// openCart loads the shopper's cart. A corrupt cart file is reported and
// replaced by an empty cart.
func openCart(ctx context.Context, path string, errOut io.Writer) (*cart.Store, error) {
	s := cart.New(cart.NewFileStorage(path))
	if err := s.Load(ctx); err != nil {
		if !errors.Is(err, cart.ErrCorruptStorage) {
			return nil, err
		}
		fmt.Fprintf(errOut, "warning: %v; starting with an empty cart\n", err)
	}
	return s, nil
}

func newAPIClient(rootOpts *RootOptions) (*client.Client, error) {
	return client.New(rootOpts.Config.Storefront.APIBaseURL, nil)
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func printCart(w io.Writer, s *cart.Store) {
	if s.IsEmpty() {
		fmt.Fprintln(w, "Your cart is empty")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSIZE\tQTY\tPRICE\tLINE TOTAL")
	for _, item := range s.Items() {
		size := item.Size
		if size == "" {
			size = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			item.ID, item.Name, size, item.Quantity,
			money(item.Price), money(item.LineTotal()))
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d item(s), total %s\n", s.Count(), money(s.Total()))
}

func NewCartCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage the shopping cart on this device",
	}

	cmd.AddCommand(newCartListCommand(rootOpts))
	cmd.AddCommand(newCartAddCommand(rootOpts))
	cmd.AddCommand(newCartUpdateCommand(rootOpts))
	cmd.AddCommand(newCartRemoveCommand(rootOpts))
	cmd.AddCommand(newCartClearCommand(rootOpts))
	return cmd
}

func newCartListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openCart(cmd.Context(), rootOpts.Config.Storefront.CartFile, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			printCart(cmd.OutOrStdout(), s)
			return nil
		},
	}
}

type addOptions struct {
	Quantity int
	Size     string
	Variant  int
}

// cartItemFor snapshots product into a cart line. Products sold in sizes
// need one of their sizes picked.
func cartItemFor(p *models.Product, opts addOptions) (models.CartItem, error) {
	if len(p.Sizes) > 0 {
		if opts.Size == "" {
			return models.CartItem{}, models.NewValidationError("please select a size", "size")
		}
		if !slices.Contains(p.Sizes, opts.Size) {
			return models.CartItem{}, models.NewValidationError(fmt.Sprintf("size %q is not available", opts.Size), "size")
		}
	}
	if opts.Variant < 0 || (opts.Variant > 0 && opts.Variant >= len(p.Images)) {
		return models.CartItem{}, models.NewValidationError("unknown variant", "variant")
	}

	return models.CartItem{
		ID:                p.ID,
		Name:              p.Name,
		Price:             p.Price,
		Size:              opts.Size,
		Variant:           opts.Variant,
		Images:            p.Images,
		OriginalPrice:     p.OriginalPrice,
		EstimatedDelivery: p.EstimatedDelivery,
	}, nil
}

func newCartAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := addOptions{}

	cmd := &cobra.Command{
		Use:   "add <productID>",
		Short: "Add a product to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			api, err := newAPIClient(rootOpts)
			if err != nil {
				return err
			}
			product, err := api.GetProduct(ctx, args[0])
			if err != nil {
				return err
			}

			item, err := cartItemFor(product, opts)
			if err != nil {
				return err
			}

			s, err := openCart(ctx, rootOpts.Config.Storefront.CartFile, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if err := s.Add(ctx, item, opts.Quantity); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added %d x %s\n", opts.Quantity, product.Name)
			printCart(cmd.OutOrStdout(), s)
			return nil
		},
	}

	cmd.Flags().IntVarP(&opts.Quantity, "quantity", "q", 1, "how many to add")
	cmd.Flags().StringVar(&opts.Size, "size", "", "size, for products sold in sizes")
	cmd.Flags().IntVar(&opts.Variant, "variant", 0, "image variant index")
	return cmd
}

func newCartUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update <productID> <quantity>",
		Short: "Change a line's quantity; 0 removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}

			s, err := openCart(cmd.Context(), rootOpts.Config.Storefront.CartFile, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if err := s.UpdateQuantity(cmd.Context(), args[0], qty); err != nil {
				return err
			}
			printCart(cmd.OutOrStdout(), s)
			return nil
		},
	}
}

func newCartRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <productID>",
		Short: "Remove a line from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openCart(cmd.Context(), rootOpts.Config.Storefront.CartFile, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if err := s.Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			printCart(cmd.OutOrStdout(), s)
			return nil
		},
	}
}

func newCartClearCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openCart(cmd.Context(), rootOpts.Config.Storefront.CartFile, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if err := s.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cart cleared")
			return nil
		},
	}
}
