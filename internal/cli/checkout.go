package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gearup/storefront/internal/checkout"
	"github.com/gearup/storefront/internal/client"
	"github.com/gearup/storefront/internal/models"
)

type checkoutOptions struct {
	Form      checkout.Form
	Shipping  string
	ClearCart bool
}

// merge fills form from the flags that were set, keeping prefilled values
// otherwise.
func (o checkoutOptions) merge(form checkout.Form) checkout.Form {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&form.FirstName, o.Form.FirstName)
	set(&form.LastName, o.Form.LastName)
	set(&form.Email, o.Form.Email)
	set(&form.Phone, o.Form.Phone)
	set(&form.Address, o.Form.Address)
	set(&form.City, o.Form.City)
	set(&form.Country, o.Form.Country)
	set(&form.PostalCode, o.Form.PostalCode)
	set(&form.Notes, o.Form.Notes)
	return form
}

func NewCheckoutCommand(rootOpts *RootOptions) *cobra.Command {
	opts := checkoutOptions{}

	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for the cart and print the WhatsApp confirmation link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := rootOpts.Config.Storefront
			out := cmd.OutOrStdout()

			if cfg.Token == "" {
				return checkout.ErrNotSignedIn
			}
			api, err := newAPIClient(rootOpts)
			if err != nil {
				return err
			}
			me, err := api.Me(ctx, cfg.Token)
			if err != nil {
				if errors.Is(err, client.ErrUnauthenticated) {
					return fmt.Errorf("%w: please sign in again", checkout.ErrNotSignedIn)
				}
				return err
			}

			s, err := openCart(ctx, cfg.CartFile, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			flow, err := checkout.NewFlow(s, &checkout.Session{UID: me.UID, Email: me.Email, Token: cfg.Token}, checkout.Options{
				MerchantNumber: cfg.MerchantNumber,
				Delay:          cfg.CheckoutDelay,
			})
			if err != nil {
				return err
			}

			if err := flow.SubmitInformation(opts.merge(flow.Form())); err != nil {
				return err
			}

			fmt.Fprintln(out, "Calculating shipping...")
			method := models.ShippingMethod(opts.Shipping)
			if err := flow.ChooseShipping(ctx, method); err != nil {
				return err
			}

			fmt.Fprintf(out, "Subtotal: %s\nShipping (%s): %s\nTotal:    %s\n",
				money(s.Total()), method, money(method.Cost()), money(s.Total().Add(method.Cost())))

			result, err := flow.Confirm(ctx, api)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Order %s placed (%s)\n", result.Order.ID, result.Order.Status)
			fmt.Fprintf(out, "Confirm it on WhatsApp: %s\n", result.HandoffURL)

			if opts.ClearCart {
				if err := s.Clear(ctx); err != nil {
					return fmt.Errorf("order placed but the cart could not be cleared: %w", err)
				}
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Form.FirstName, "first-name", "", "first name")
	f.StringVar(&opts.Form.LastName, "last-name", "", "last name")
	f.StringVar(&opts.Form.Email, "email", "", "contact email (default: signed-in account email)")
	f.StringVar(&opts.Form.Phone, "phone", "", "phone number")
	f.StringVar(&opts.Form.Address, "address", "", "street address")
	f.StringVar(&opts.Form.City, "city", "", "city")
	f.StringVar(&opts.Form.Country, "country", "", "country")
	f.StringVar(&opts.Form.PostalCode, "postal-code", "", "postal code")
	f.StringVar(&opts.Form.Notes, "notes", "", "delivery notes")
	f.StringVar(&opts.Shipping, "shipping", string(models.ShippingStandard), "shipping method (standard|express)")
	f.BoolVar(&opts.ClearCart, "clear-cart", false, "empty the cart once the order is placed")
	return cmd
}
