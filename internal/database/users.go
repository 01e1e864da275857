package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"shoecare/internal/models"
)

const userColumns = `id, email, name, is_admin, created_at, updated_at`

// NormalizeEmail lower-cases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateOrUpdateUser upserts by email. The admin flag is only set on insert;
// use SetUserAdmin to change it afterwards.
func (db *DB) CreateOrUpdateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (email, name, is_admin, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(email) DO UPDATE SET
				name = excluded.name,
				updated_at = excluded.updated_at`
	now := time.Now().UTC()
	user.Email = NormalizeEmail(user.Email)
	if _, err := db.ExecContext(ctx, query, user.Email, user.Name, user.IsAdmin, now, now); err != nil {
		return fmt.Errorf("failed to create or update user: %w", err)
	}

	stored, err := db.GetUserByEmail(ctx, user.Email)
	if err != nil {
		return err
	}
	if stored == nil {
		return fmt.Errorf("user %s vanished after upsert", user.Email)
	}
	*user = *stored
	return nil
}

// GetUserByID returns nil when the user does not exist.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return db.queryUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetUserByEmail returns nil when the user does not exist.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return db.queryUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, NormalizeEmail(email))
}

func (db *DB) queryUser(ctx context.Context, query string, args ...any) (*models.User, error) {
	var user models.User
	err := db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID, &user.Email, &user.Name, &user.IsAdmin, &user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// SetUserAdmin changes the persisted admin flag and returns the updated user.
func (db *DB) SetUserAdmin(ctx context.Context, id int64, isAdmin bool) (*models.User, error) {
	result, err := db.ExecContext(ctx, `UPDATE users SET is_admin = ?, updated_at = ? WHERE id = ?`,
		isAdmin, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to set admin flag: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return nil, ErrNotFound
	}
	return db.GetUserByID(ctx, id)
}

// ListUsers returns all users, newest first, with their booking counts.
func (db *DB) ListUsers(ctx context.Context) ([]*models.UserSummary, error) {
	query := `SELECT u.id, u.email, u.name, u.is_admin, u.created_at, u.updated_at, COUNT(b.id)
              FROM users u LEFT JOIN bookings b ON b.user_id = u.id
              GROUP BY u.id ORDER BY u.created_at DESC, u.id DESC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.UserSummary, 0)
	for rows.Next() {
		u := &models.UserSummary{}
		err := rows.Scan(
			&u.ID, &u.Email, &u.Name, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt, &u.BookingCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchUsers matches query case-insensitively against name and email and returns
// at most limit users ordered by name. An empty query matches everyone.
func (db *DB) SearchUsers(ctx context.Context, query string, limit int) ([]*models.User, error) {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(query))) + "%"
	rows, err := db.QueryContext(ctx, `SELECT `+userColumns+` FROM users
              WHERE lower(name) LIKE ? ESCAPE '\' OR lower(email) LIKE ? ESCAPE '\'
              ORDER BY name, id LIMIT ?`, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		u := &models.User{}
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}
