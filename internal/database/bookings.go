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

const bookingColumns = `id, customer_name, customer_email, customer_phone, shoe_type, service_type,
	status, scheduled_date, notes, collection_required, collection_address, collection_city,
	collection_postcode, user_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	b := &models.Booking{}
	err := row.Scan(
		&b.ID, &b.CustomerName, &b.CustomerEmail, &b.CustomerPhone, &b.ShoeType, &b.ServiceType,
		&b.Status, &b.ScheduledDate, &b.Notes, &b.CollectionRequired, &b.CollectionAddress,
		&b.CollectionCity, &b.CollectionPostcode, &b.UserID, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func buildBookingWhere(filter models.BookingFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if filter.ID != 0 {
		conds = append(conds, "id = ?")
		args = append(args, filter.ID)
	}
	if filter.UserID != 0 {
		conds = append(conds, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.CollectionRequired != nil {
		conds = append(conds, "collection_required = ?")
		args = append(args, *filter.CollectionRequired)
	}
	if !filter.ScheduledFrom.IsZero() {
		conds = append(conds, "scheduled_date >= ?")
		args = append(args, filter.ScheduledFrom.UTC())
	}
	if !filter.ScheduledTo.IsZero() {
		conds = append(conds, "scheduled_date <= ?")
		args = append(args, filter.ScheduledTo.UTC())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// FindBookings returns bookings matching filter, latest scheduled first.
func (db *DB) FindBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error) {
	where, args := buildBookingWhere(filter)
	query := `SELECT ` + bookingColumns + ` FROM bookings` + where + ` ORDER BY scheduled_date DESC, id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]*models.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return bookings, nil
}

// FindBooking returns the first booking matching filter, or nil when there is none.
func (db *DB) FindBooking(ctx context.Context, filter models.BookingFilter) (*models.Booking, error) {
	where, args := buildBookingWhere(filter)
	query := `SELECT ` + bookingColumns + ` FROM bookings` + where + ` ORDER BY id LIMIT 1`

	b, err := scanBooking(db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return b, nil
}

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	query := `INSERT INTO bookings (
				customer_name, customer_email, customer_phone, shoe_type, service_type,
				status, scheduled_date, notes, collection_required, collection_address,
				collection_city, collection_postcode, user_id, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, query,
		booking.CustomerName,
		booking.CustomerEmail,
		booking.CustomerPhone,
		booking.ShoeType,
		booking.ServiceType,
		booking.Status,
		booking.ScheduledDate.UTC(),
		booking.Notes,
		booking.CollectionRequired,
		booking.CollectionAddress,
		booking.CollectionCity,
		booking.CollectionPostcode,
		booking.UserID,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	booking.ID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now
	return nil
}

// UpdateBooking overwrites every mutable column of the row with booking's values.
// There is no version check: the last writer wins.
func (db *DB) UpdateBooking(ctx context.Context, booking *models.Booking) error {
	query := `UPDATE bookings SET
				customer_name = ?, customer_email = ?, customer_phone = ?, shoe_type = ?,
				service_type = ?, status = ?, scheduled_date = ?, notes = ?,
				collection_required = ?, collection_address = ?, collection_city = ?,
				collection_postcode = ?, updated_at = ?
			WHERE id = ?`
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, query,
		booking.CustomerName,
		booking.CustomerEmail,
		booking.CustomerPhone,
		booking.ShoeType,
		booking.ServiceType,
		booking.Status,
		booking.ScheduledDate.UTC(),
		booking.Notes,
		booking.CollectionRequired,
		booking.CollectionAddress,
		booking.CollectionCity,
		booking.CollectionPostcode,
		now,
		booking.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	booking.UpdatedAt = now
	return nil
}

func (db *DB) DeleteBooking(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
