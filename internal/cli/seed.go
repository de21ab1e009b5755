package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gearup/storefront/internal/database"
	"github.com/gearup/storefront/internal/models"
	"github.com/gearup/storefront/internal/store"
)

// seedProduct mirrors models.Product with money fields as decimal strings.
type seedProduct struct {
	ID                string   `yaml:"id"`
	Name              string   `yaml:"name"`
	Description       string   `yaml:"description"`
	Category          string   `yaml:"category"`
	Subcategory       string   `yaml:"subcategory"`
	Brand             string   `yaml:"brand"`
	Price             string   `yaml:"price"`
	OriginalPrice     string   `yaml:"originalPrice"`
	Stock             int      `yaml:"stock"`
	Images            []string `yaml:"images"`
	Sizes             []string `yaml:"sizes"`
	Features          []string `yaml:"features"`
	Specifications    []string `yaml:"specifications"`
	Status            string   `yaml:"status"`
	Rating            string   `yaml:"rating"`
	ReviewCount       int      `yaml:"reviewCount"`
	SoldCount         int      `yaml:"soldCount"`
	EstimatedDelivery string   `yaml:"estimatedDelivery"`
}

type seedFile struct {
	Products []seedProduct `yaml:"products"`
}

func parseDecimal(field, raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s %q: %w", field, raw, err)
	}
	return d, nil
}

func (s seedProduct) product() (models.Product, error) {
	p := models.Product{
		ID:                s.ID,
		Name:              s.Name,
		Description:       s.Description,
		Category:          s.Category,
		Subcategory:       s.Subcategory,
		Brand:             s.Brand,
		Stock:             s.Stock,
		Images:            s.Images,
		Sizes:             s.Sizes,
		Features:          s.Features,
		Specifications:    s.Specifications,
		Status:            s.Status,
		ReviewCount:       s.ReviewCount,
		SoldCount:         s.SoldCount,
		EstimatedDelivery: s.EstimatedDelivery,
	}

	var err error
	if p.Price, err = parseDecimal("price", s.Price); err != nil {
		return p, err
	}
	if p.Rating, err = parseDecimal("rating", s.Rating); err != nil {
		return p, err
	}
	if s.OriginalPrice != "" {
		original, err := parseDecimal("originalPrice", s.OriginalPrice)
		if err != nil {
			return p, err
		}
		p.OriginalPrice = &original
	}
	return p, p.Validate()
}

// parseSeed reads a catalog seed document and validates every product.
func parseSeed(r io.Reader) ([]models.Product, error) {
	var file seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if len(file.Products) == 0 {
		return nil, errors.New("seed file has no products")
	}

	products := make([]models.Product, 0, len(file.Products))
	for i, sp := range file.Products {
		p, err := sp.product()
		if err != nil {
			return nil, fmt.Errorf("product %d (%s): %w", i+1, sp.Name, err)
		}
		products = append(products, p)
	}
	return products, nil
}

func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <products.yaml>",
		Short: "Load catalog products from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			products, err := parseSeed(f)
			if err != nil {
				return err
			}

			db, err := database.NewConnection(&rootOpts.Config.Database)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer db.Close()

			n, err := store.SeedProducts(cmd.Context(), db, products)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d products\n", n)
			return nil
		},
	}
}
