package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/stadix/stadix/internal/domain"
)

// QueryRepo is the read side of the booking store. It never touches the
// capacity ledger, so it is safe to point at a replica.
type QueryRepo struct {
	db DB
}

func (r *QueryRepo) GetBooking(ctx context.Context, id int64) (*domain.BookingWithSeats, error) {
	const op = "postgres.QueryRepo.GetBooking"

	out, err := getBookingWithSeats(ctx, r.db, id)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (r *QueryRepo) ListByEvent(ctx context.Context, eventID int64) ([]domain.Booking, error) {
	const op = "postgres.QueryRepo.ListByEvent"

	rows, err := r.db.Query(ctx,
		`SELECT id, event_id, number, customer_name, customer_email, customer_phone,
		 		seat_count, total_cents, status, created_at, updated_at
       	 FROM bookings
      	 WHERE event_id = $1
      	 ORDER BY created_at DESC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (r *QueryRepo) List(ctx context.Context, limit, offset int) ([]domain.Booking, error) {
	const op = "postgres.QueryRepo.List"

	rows, err := r.db.Query(ctx,
		`SELECT id, event_id, number, customer_name, customer_email, customer_phone,
		 		seat_count, total_cents, status, created_at, updated_at
       	 FROM bookings
      	 ORDER BY created_at DESC
      	 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (r *QueryRepo) CountByDay(ctx context.Context, day time.Time) (int64, error) {
	const op = "postgres.QueryRepo.CountByDay"

	prefix := "BK-" + day.Format("20060102") + "-%"

	var n int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM bookings WHERE number LIKE $1`,
		prefix,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return n, nil
}

// ConfirmedRevenue sums the total of CONFIRMED bookings for an event.
func (r *QueryRepo) ConfirmedRevenue(ctx context.Context, eventID int64) (int64, error) {
	const op = "postgres.QueryRepo.ConfirmedRevenue"

	var cents int64
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(total_cents), 0)
       	 FROM bookings
      	 WHERE event_id = $1 AND status = 'CONFIRMED'`,
		eventID,
	).Scan(&cents)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return cents, nil
}
