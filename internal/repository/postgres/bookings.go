package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/stadix/stadix/internal/domain"
	"github.com/stadix/stadix/internal/repository"
)

type BookingRepo struct {
	db DB
}

// Insert creates the booking row and one booking_seats row per seat. The
// generated id and timestamps are written back into b.
func (r *BookingRepo) Insert(ctx context.Context, b *domain.Booking, seats []domain.BookingSeat) (int64, error) {
	const op = "postgres.BookingRepo.Insert"

	err := r.db.QueryRow(ctx,
		`INSERT INTO bookings(
			event_id, number, customer_name, customer_email, customer_phone,
			seat_count, total_cents, status)
       	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
     	 RETURNING id, created_at, updated_at`,
		b.EventID, b.Number,
		b.Customer.Name, b.Customer.Email, b.Customer.Phone,
		b.SeatCount, b.TotalCents, string(b.Status),
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	batch := &pgx.Batch{}
	for _, s := range seats {
		batch.Queue(
			`INSERT INTO booking_seats(
				booking_id, section_id, seat_id, row_label, seat_number,
				price_cents, status)
         	 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			b.ID, s.SectionID, s.SeatID, s.RowLabel, s.SeatNumber,
			s.PriceCents, string(s.Status),
		)
	}
	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return b.ID, nil
}

func (r *BookingRepo) GetWithSeats(ctx context.Context, id int64) (*domain.BookingWithSeats, error) {
	const op = "postgres.BookingRepo.GetWithSeats"

	out, err := getBookingWithSeats(ctx, r.db, id)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// MarkCancelled flips a CONFIRMED booking and all of its seats to CANCELLED.
func (r *BookingRepo) MarkCancelled(ctx context.Context, id int64) error {
	const op = "postgres.BookingRepo.MarkCancelled"

	tag, err := r.db.Exec(ctx,
		`UPDATE bookings
        	SET status = 'CANCELLED', updated_at = now()
      	 WHERE id = $1 AND status = 'CONFIRMED'`,
		id,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	if _, err := r.db.Exec(ctx,
		`UPDATE booking_seats SET status = 'CANCELLED' WHERE booking_id = $1`,
		id,
	); err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

// Delete removes the booking seats, then the booking row.
func (r *BookingRepo) Delete(ctx context.Context, id int64) error {
	const op = "postgres.BookingRepo.Delete"

	if _, err := r.db.Exec(ctx,
		`DELETE FROM booking_seats WHERE booking_id = $1`,
		id,
	); err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	tag, err := r.db.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

// CountByDay counts bookings whose number carries the given day's prefix.
// The count feeds the next date-scoped sequence number.
func (r *BookingRepo) CountByDay(ctx context.Context, day time.Time) (int64, error) {
	const op = "postgres.BookingRepo.CountByDay"

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

func getBookingWithSeats(ctx context.Context, db DB, id int64) (*domain.BookingWithSeats, error) {
	var out domain.BookingWithSeats

	b, err := scanBooking(db.QueryRow(ctx,
		`SELECT id, event_id, number, customer_name, customer_email, customer_phone,
		 		seat_count, total_cents, status, created_at, updated_at
       	 FROM bookings WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, translateDBErr(err)
	}

	out.Booking = *b

	rows, err := db.Query(ctx,
		`SELECT id, booking_id, section_id, seat_id, row_label, seat_number,
		 		price_cents, status
       	 FROM booking_seats
      	 WHERE booking_id = $1
      	 ORDER BY id`,
		id,
	)
	if err != nil {
		return nil, translateDBErr(err)
	}

	defer rows.Close()

	for rows.Next() {
		var s domain.BookingSeat
		var status string

		if err := rows.Scan(
			&s.ID,
			&s.BookingID,
			&s.SectionID,
			&s.SeatID,
			&s.RowLabel,
			&s.SeatNumber,
			&s.PriceCents,
			&status,
		); err != nil {
			return nil, translateDBErr(err)
		}

		s.Status = domain.BookingSeatStatus(status)
		out.Seats = append(out.Seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &out, nil
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	var status string

	if err := row.Scan(
		&b.ID,
		&b.EventID,
		&b.Number,
		&b.Customer.Name,
		&b.Customer.Email,
		&b.Customer.Phone,
		&b.SeatCount,
		&b.TotalCents,
		&status,
		&b.CreatedAt,
		&b.UpdatedAt,
	); err != nil {
		return nil, err
	}

	b.Status = domain.BookingStatus(status)

	return &b, nil
}
