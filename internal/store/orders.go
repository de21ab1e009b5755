package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gearup/storefront/internal/database"
	"github.com/gearup/storefront/internal/models"
	"github.com/google/uuid"
)

const orderColumns = `id, user_id, status, items, shipping, customer, total, idempotency_key, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var (
		order                     models.Order
		items, shipping, customer []byte
		idempotencyKey            sql.NullString
	)
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.Status,
		&items,
		&shipping,
		&customer,
		&order.Total,
		&idempotencyKey,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	order.IdempotencyKey = idempotencyKey.String

	if err := json.Unmarshal(items, &order.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	if shipping != nil {
		order.Shipping = &models.Shipping{}
		if err := json.Unmarshal(shipping, order.Shipping); err != nil {
			return nil, fmt.Errorf("unmarshal order shipping: %w", err)
		}
	}
	if customer != nil {
		order.Customer = &models.Customer{}
		if err := json.Unmarshal(customer, order.Customer); err != nil {
			return nil, fmt.Errorf("unmarshal order customer: %w", err)
		}
	}
	return &order, nil
}

// marshalOptional encodes v for a nullable JSONB column.
func marshalOptional(v any, present bool) (any, error) {
	if !present {
		return nil, nil
	}
	return json.Marshal(v)
}

// CreateOrder inserts order as given; callers set status, owner and timestamps.
// When the order carries an idempotency key that the same user already used,
// the previously stored order is returned and created is false.
func CreateOrder(ctx context.Context, db *sql.DB, order *models.Order) (stored *models.Order, created bool, err error) {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	items := order.Items
	if items == nil {
		items = []models.OrderItem{}
	}

	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return nil, false, fmt.Errorf("marshal order items: %w", err)
	}
	shippingJSON, err := marshalOptional(order.Shipping, order.Shipping != nil)
	if err != nil {
		return nil, false, fmt.Errorf("marshal order shipping: %w", err)
	}
	customerJSON, err := marshalOptional(order.Customer, order.Customer != nil)
	if err != nil {
		return nil, false, fmt.Errorf("marshal order customer: %w", err)
	}

	key := sql.NullString{String: order.IdempotencyKey, Valid: order.IdempotencyKey != ""}

	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id, idempotency_key) WHERE idempotency_key IS NOT NULL DO NOTHING
		RETURNING ` + orderColumns

	stored, err = scanOrder(db.QueryRowContext(ctx, query,
		order.ID,
		order.UserID,
		order.Status,
		itemsJSON,
		shippingJSON,
		customerJSON,
		order.Total,
		key,
		order.CreatedAt,
		order.UpdatedAt,
	))
	if err == nil {
		return stored, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) || !key.Valid {
		return nil, false, fmt.Errorf("create order: %w", err)
	}

	stored, err = getOrderByIdempotencyKey(ctx, db, order.UserID, order.IdempotencyKey)
	if err != nil {
		return nil, false, fmt.Errorf("load replayed order: %w", err)
	}
	return stored, false, nil
}

func getOrderByIdempotencyKey(ctx context.Context, db *sql.DB, userID, key string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 AND idempotency_key = $2`

	order, err := scanOrder(db.QueryRowContext(ctx, query, userID, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func GetOrder(ctx context.Context, db *sql.DB, id string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

// ListOrdersByUser returns a user's orders newest first. An empty status
// returns every order.
func ListOrdersByUser(ctx context.Context, db *sql.DB, userID string, status models.OrderStatus) ([]models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC, id DESC`

	rows, err := db.QueryContext(ctx, query, userID, string(status))
	if err != nil {
		return nil, fmt.Errorf("list user orders: %w", err)
	}
	defer rows.Close()

	return collectOrders(rows)
}

type OrderFilter struct {
	Query  string
	Status models.OrderStatus
}

// ListOrdersCursor pages through all orders newest first. Query matches the
// order id or the customer's name or email.
func ListOrdersCursor(ctx context.Context, db *sql.DB, filter OrderFilter, cursor string, limit int) (*CursorPage, error) {
	cursorData, err := DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	_, limit = NormalizePage(1, limit)

	var cursorTime sql.NullTime
	if !cursorData.IsZero() {
		cursorTime = sql.NullTime{Time: cursorData.CreatedAt, Valid: true}
	}

	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE ($1::timestamptz IS NULL OR (created_at, id) < ($1, $2))
		  AND ($3 = '' OR status = $3)
		  AND ($4 = '' OR id ILIKE '%' || $4 || '%'
		       OR customer->>'firstName' ILIKE '%' || $4 || '%'
		       OR customer->>'lastName' ILIKE '%' || $4 || '%'
		       OR customer->>'email' ILIKE '%' || $4 || '%')
		ORDER BY created_at DESC, id DESC
		LIMIT $5`

	rows, err := db.QueryContext(ctx, query,
		cursorTime, cursorData.ID, string(filter.Status), filter.Query, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders, err := collectOrders(rows)
	if err != nil {
		return nil, err
	}

	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}

	var nextCursor string
	if hasMore && len(orders) > 0 {
		last := orders[len(orders)-1]
		nextCursor = EncodeCursor(OrderCursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}

	return &CursorPage{
		Items:      orders,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

func collectOrders(rows *sql.Rows) ([]models.Order, error) {
	orders := []models.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return orders, nil
}

func UpdateOrderStatus(ctx context.Context, db *sql.DB, id string, status models.OrderStatus, now time.Time) (*models.Order, error) {
	if !status.Valid() {
		return nil, models.NewValidationError("unknown order status", "status")
	}

	query := `
		UPDATE orders
		SET status = $2, updated_at = $3
		WHERE id = $1
		RETURNING ` + orderColumns

	order, err := scanOrder(db.QueryRowContext(ctx, query, id, status, now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}
	return order, nil
}

func DeleteOrder(ctx context.Context, db *sql.DB, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrOrderNotFound
	}
	return nil
}
