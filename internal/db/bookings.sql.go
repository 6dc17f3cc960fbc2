package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const bookingColumns = `id, item_id, start_time, end_time, status, created_at, updated_at`

func scanBooking(row scanner) (Booking, error) {
	var b Booking
	err := row.Scan(
		&b.ID,
		&b.ItemID,
		&b.StartTime,
		&b.EndTime,
		&b.Status,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	return b, err
}

func collectBookings(rows pgx.Rows) ([]Booking, error) {
	defer rows.Close()
	var items []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

const createBooking = `-- name: CreateBooking :one
INSERT INTO bookings (item_id, start_time, end_time, status)
VALUES ($1, $2, $3, 'confirmed')
RETURNING ` + bookingColumns

type CreateBookingParams struct {
	ItemID    uuid.UUID
	StartTime time.Time
	EndTime   time.Time
}

func (q *Queries) CreateBooking(ctx context.Context, arg CreateBookingParams) (Booking, error) {
	return scanBooking(q.db.QueryRow(ctx, createBooking, arg.ItemID, arg.StartTime, arg.EndTime))
}

const getBooking = `-- name: GetBooking :one
SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

func (q *Queries) GetBooking(ctx context.Context, id uuid.UUID) (Booking, error) {
	return scanBooking(q.db.QueryRow(ctx, getBooking, id))
}

const findOverlappingBooking = `-- name: FindOverlappingBooking :one
SELECT ` + bookingColumns + `
FROM bookings
WHERE item_id = $1 AND status <> 'cancelled'
  AND start_time < $3 AND end_time > $2
ORDER BY start_time
LIMIT 1`

type FindOverlappingBookingParams struct {
	ItemID    uuid.UUID
	StartTime time.Time
	EndTime   time.Time
}

// FindOverlappingBooking returns pgx.ErrNoRows when the range is free.
func (q *Queries) FindOverlappingBooking(ctx context.Context, arg FindOverlappingBookingParams) (Booking, error) {
	return scanBooking(q.db.QueryRow(ctx, findOverlappingBooking, arg.ItemID, arg.StartTime, arg.EndTime))
}

const listBookingsByItem = `-- name: ListBookingsByItem :many
SELECT ` + bookingColumns + `
FROM bookings
WHERE item_id = $1
  AND ($2::text IS NULL OR status = $2::text)
  AND ($3::timestamptz IS NULL OR end_time > $3::timestamptz)
  AND ($4::timestamptz IS NULL OR start_time < $4::timestamptz)
ORDER BY start_time`

type ListBookingsByItemParams struct {
	ItemID uuid.UUID
	Status *string
	From   *time.Time
	To     *time.Time
}

func (q *Queries) ListBookingsByItem(ctx context.Context, arg ListBookingsByItemParams) ([]Booking, error) {
	rows, err := q.db.Query(ctx, listBookingsByItem, arg.ItemID, arg.Status, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

const listBookingsInRange = `-- name: ListBookingsInRange :many
SELECT ` + bookingColumns + `
FROM bookings
WHERE item_id = $1 AND status <> 'cancelled'
  AND start_time < $3 AND end_time > $2
ORDER BY start_time`

type ListBookingsInRangeParams struct {
	ItemID uuid.UUID
	From   time.Time
	To     time.Time
}

// ListBookingsInRange returns non-cancelled bookings intersecting [From, To).
func (q *Queries) ListBookingsInRange(ctx context.Context, arg ListBookingsInRangeParams) ([]Booking, error) {
	rows, err := q.db.Query(ctx, listBookingsInRange, arg.ItemID, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

const findActiveBooking = `-- name: FindActiveBooking :one
SELECT ` + bookingColumns + `
FROM bookings
WHERE item_id = $1 AND status = 'confirmed'
  AND start_time <= $2 AND end_time > $2
ORDER BY start_time DESC
LIMIT 1`

func (q *Queries) FindActiveBooking(ctx context.Context, itemID uuid.UUID, at time.Time) (Booking, error) {
	return scanBooking(q.db.QueryRow(ctx, findActiveBooking, itemID, at))
}

const cancelBooking = `-- name: CancelBooking :one
UPDATE bookings SET status = 'cancelled', updated_at = now()
WHERE id = $1 AND status = 'confirmed'
RETURNING ` + bookingColumns

// CancelBooking returns pgx.ErrNoRows when the booking is missing or no longer confirmed.
func (q *Queries) CancelBooking(ctx context.Context, id uuid.UUID) (Booking, error) {
	return scanBooking(q.db.QueryRow(ctx, cancelBooking, id))
}

const completeExpiredBookings = `-- name: CompleteExpiredBookings :execrows
UPDATE bookings SET status = 'completed', updated_at = now()
WHERE status = 'confirmed' AND end_time <= $1`

func (q *Queries) CompleteExpiredBookings(ctx context.Context, now time.Time) (int64, error) {
	tag, err := q.db.Exec(ctx, completeExpiredBookings, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
