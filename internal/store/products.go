package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gearup/storefront/internal/database"
	"github.com/gearup/storefront/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

const productColumns = `id, name, description, category, subcategory, brand, price, original_price,
	stock, images, sizes, features, specifications, status, rating, review_count, sold_count,
	estimated_delivery, created_at, updated_at`

const RelatedLimit = 4

// NormalizeCategory trims and NFC-normalises a category.
func NormalizeCategory(category string) string {
	return norm.NFC.String(strings.TrimSpace(category))
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var (
		product       models.Product
		originalPrice decimal.NullDecimal
	)
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Category,
		&product.Subcategory,
		&product.Brand,
		&product.Price,
		&originalPrice,
		&product.Stock,
		pq.Array(&product.Images),
		pq.Array(&product.Sizes),
		pq.Array(&product.Features),
		pq.Array(&product.Specifications),
		&product.Status,
		&product.Rating,
		&product.ReviewCount,
		&product.SoldCount,
		&product.EstimatedDelivery,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if originalPrice.Valid {
		product.OriginalPrice = &originalPrice.Decimal
	}
	if product.Images == nil {
		product.Images = []string{}
	}
	return &product, nil
}

func nullablePrice(p *decimal.Decimal) decimal.NullDecimal {
	if p == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *p, Valid: true}
}

func textArray(v []string) interface{} {
	if v == nil {
		v = []string{}
	}
	return pq.Array(v)
}

func CreateProduct(ctx context.Context, db database.Querier, p *models.Product) (*models.Product, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = "Active"
	}

	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, NOW(), NOW())
		RETURNING ` + productColumns

	product, err := scanProduct(db.QueryRowContext(ctx, query,
		p.ID,
		p.Name,
		p.Description,
		NormalizeCategory(p.Category),
		p.Subcategory,
		p.Brand,
		p.Price,
		nullablePrice(p.OriginalPrice),
		p.Stock,
		textArray(p.Images),
		textArray(p.Sizes),
		textArray(p.Features),
		textArray(p.Specifications),
		p.Status,
		p.Rating,
		p.ReviewCount,
		p.SoldCount,
		p.EstimatedDelivery,
	))
	if database.IsUniqueViolation(err, "products_pkey") {
		return nil, models.NewValidationError("product id already exists", "id")
	}
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}

func GetProduct(ctx context.Context, db *sql.DB, id string) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}

func UpdateProduct(ctx context.Context, db *sql.DB, p *models.Product) (*models.Product, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Status == "" {
		p.Status = "Active"
	}

	query := `
		UPDATE products
		SET name = $2, description = $3, category = $4, subcategory = $5, brand = $6,
		    price = $7, original_price = $8, stock = $9, images = $10, sizes = $11,
		    features = $12, specifications = $13, status = $14, estimated_delivery = $15,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + productColumns

	product, err := scanProduct(db.QueryRowContext(ctx, query,
		p.ID,
		p.Name,
		p.Description,
		NormalizeCategory(p.Category),
		p.Subcategory,
		p.Brand,
		p.Price,
		nullablePrice(p.OriginalPrice),
		p.Stock,
		textArray(p.Images),
		textArray(p.Sizes),
		textArray(p.Features),
		textArray(p.Specifications),
		p.Status,
		p.EstimatedDelivery,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("update product: %w", err)
	}
	return product, nil
}

func DeleteProduct(ctx context.Context, db *sql.DB, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrProductNotFound
	}
	return nil
}

type ProductFilter struct {
	Query    string
	Category string
	MaxPrice *decimal.Decimal
}

func ListProducts(ctx context.Context, db *sql.DB, filter ProductFilter, page, pageSize int) (*OffsetPage, error) {
	page, pageSize = NormalizePage(page, pageSize)
	category := NormalizeCategory(filter.Category)
	maxPrice := nullablePrice(filter.MaxPrice)

	where := `
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR category = $2)
		  AND ($3::numeric IS NULL OR price <= $3)`

	var total int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`+where,
		filter.Query, category, maxPrice).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `SELECT ` + productColumns + ` FROM products` + where + `
		ORDER BY created_at DESC, id DESC
		LIMIT $4 OFFSET $5`

	rows, err := db.QueryContext(ctx, query, filter.Query, category, maxPrice, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products, err := collectProducts(rows)
	if err != nil {
		return nil, err
	}

	return newOffsetPage(products, total, page, pageSize), nil
}

// RelatedProducts returns up to limit products sharing category, excluding
// the product being viewed.
func RelatedProducts(ctx context.Context, db *sql.DB, category, excludeID string, limit int) ([]models.Product, error) {
	category = NormalizeCategory(category)
	if category == "" {
		return nil, models.NewValidationError("category is required", "category")
	}
	if limit < 1 || limit > RelatedLimit {
		limit = RelatedLimit
	}

	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE category = $1 AND id <> $2
		ORDER BY sold_count DESC, created_at DESC
		LIMIT $3`

	rows, err := db.QueryContext(ctx, query, category, excludeID, limit)
	if err != nil {
		return nil, fmt.Errorf("related products: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

func collectProducts(rows *sql.Rows) ([]models.Product, error) {
	products := []models.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return products, nil
}

// SeedProducts inserts products in one transaction; any failure leaves the
// catalog unchanged.
func SeedProducts(ctx context.Context, db *sql.DB, products []models.Product) (int, error) {
	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		for i := range products {
			if _, err := CreateProduct(ctx, tx, &products[i]); err != nil {
				return fmt.Errorf("seed product %q: %w", products[i].Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(products), nil
}
