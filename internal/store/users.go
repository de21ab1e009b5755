package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gearup/storefront/internal/database"
	"github.com/gearup/storefront/internal/models"
)

const userColumns = `id, email, display_name, role, status, joined`

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.Role,
		&user.Status,
		&user.Joined,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// EnsureUsers inserts a store record for every user that does not have one
// yet and leaves existing records untouched. It returns how many were added.
func EnsureUsers(ctx context.Context, db *sql.DB, users []models.User) (int, error) {
	if len(users) == 0 {
		return 0, nil
	}

	var inserted int
	err := database.WithRetry(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		inserted = 0
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO users (`+userColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO NOTHING`)
		if err != nil {
			return fmt.Errorf("prepare user insert: %w", err)
		}
		defer stmt.Close()

		for _, u := range users {
			result, err := stmt.ExecContext(ctx, u.ID, u.Email, u.DisplayName, u.Role, u.Status, u.Joined)
			if err != nil {
				return fmt.Errorf("insert user %s: %w", u.ID, err)
			}
			n, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("get rows affected: %w", err)
			}
			inserted += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func UpsertUser(ctx context.Context, db database.Querier, u models.User) (*models.User, error) {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET email = EXCLUDED.email,
		    display_name = EXCLUDED.display_name,
		    role = EXCLUDED.role,
		    status = EXCLUDED.status
		RETURNING ` + userColumns

	user, err := scanUser(db.QueryRowContext(ctx, query,
		u.ID, u.Email, u.DisplayName, u.Role, u.Status, u.Joined))
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return user, nil
}

func GetUser(ctx context.Context, db *sql.DB, id string) (*models.User, error) {
	user, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func ListUsers(ctx context.Context, db *sql.DB, page, pageSize int) (*OffsetPage, error) {
	page, pageSize = NormalizePage(page, pageSize)

	var total int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY joined DESC, id
		LIMIT $1 OFFSET $2`

	rows, err := db.QueryContext(ctx, query, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return newOffsetPage(users, total, page, pageSize), nil
}

func UpdateUser(ctx context.Context, db *sql.DB, id, displayName string, role models.Role) (*models.User, error) {
	query := `
		UPDATE users
		SET display_name = $2, role = $3
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(db.QueryRowContext(ctx, query, id, displayName, role))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrUserNotFound
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func SetUserStatus(ctx context.Context, db *sql.DB, id string, status models.UserStatus) (*models.User, error) {
	query := `
		UPDATE users
		SET status = $2
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(db.QueryRowContext(ctx, query, id, status))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrUserNotFound
		}
		return nil, fmt.Errorf("set user status: %w", err)
	}
	return user, nil
}

// DeleteUser removes the store record. A missing record is not an error since
// the identity account may have been created outside the back office.
func DeleteUser(ctx context.Context, db *sql.DB, id string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func CountUsers(ctx context.Context, db *sql.DB) (int64, error) {
	var total int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return total, nil
}
