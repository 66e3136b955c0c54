package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/stadix/stadix/internal/domain"
)

type SeatRepo struct {
	db DB
}

func (r *SeatRepo) GetSection(ctx context.Context, sectionID int64) (*domain.Section, error) {
	const op = "postgres.SeatRepo.GetSection"

	var s domain.Section
	var typ string
	err := r.db.QueryRow(ctx,
		`SELECT id, name, type, total_rows, seats_per_row, standing_capacity
       	 FROM sections WHERE id = $1`,
		sectionID,
	).Scan(&s.ID, &s.Name, &typ, &s.TotalRows, &s.SeatsPerRow, &s.StandingCapacity)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	s.Type = domain.SectionType(typ)

	return &s, nil
}

// SeatsByIDs returns the seats among seatIDs that belong to the section.
// Callers compare the result length against len(seatIDs) to detect seats
// claimed for the wrong section.
func (r *SeatRepo) SeatsByIDs(ctx context.Context, sectionID int64, seatIDs []int64) ([]domain.Seat, error) {
	const op = "postgres.SeatRepo.SeatsByIDs"

	rows, err := r.db.Query(ctx,
		`SELECT id, section_id, row_label, seat_number
       	 FROM seats
      	 WHERE section_id = $1 AND id = ANY($2)
      	 ORDER BY row_label, seat_number`,
		sectionID, seatIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.Seat
	for rows.Next() {
		var s domain.Seat
		if err := rows.Scan(&s.ID, &s.SectionID, &s.RowLabel, &s.SeatNumber); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// ActiveBookedSeatIDs returns the subset of seatIDs already held by an
// ACTIVE booking seat for the event.
func (r *SeatRepo) ActiveBookedSeatIDs(ctx context.Context, eventID int64, seatIDs []int64) ([]int64, error) {
	const op = "postgres.SeatRepo.ActiveBookedSeatIDs"

	rows, err := r.db.Query(ctx,
		`SELECT bs.seat_id
       	 FROM booking_seats bs
       	 JOIN bookings b ON b.id = bs.booking_id
      	 WHERE b.event_id = $1
        	AND bs.status = 'ACTIVE'
        	AND bs.seat_id = ANY($2)`,
		eventID, seatIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (r *SeatRepo) CountActiveBookingSeats(ctx context.Context, sectionID int64) (int64, error) {
	const op = "postgres.SeatRepo.CountActiveBookingSeats"

	var n int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*)
       	 FROM booking_seats bs
       	 JOIN seats s ON s.id = bs.seat_id
      	 WHERE s.section_id = $1 AND bs.status = 'ACTIVE'`,
		sectionID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return n, nil
}

// ReplaceLayout deletes every seat of the section and inserts the given
// layout in one batch. The caller checks for active booking references
// before invoking this; the delete is unconditional here.
func (r *SeatRepo) ReplaceLayout(ctx context.Context, sectionID int64, seats []domain.Seat) (int64, error) {
	const op = "postgres.SeatRepo.ReplaceLayout"

	if _, err := r.db.Exec(ctx,
		`DELETE FROM seats WHERE section_id = $1`,
		sectionID,
	); err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	batch := &pgx.Batch{}
	for _, s := range seats {
		batch.Queue(
			`INSERT INTO seats(section_id, row_label, seat_number)
         	 VALUES ($1, $2, $3)`,
			sectionID, s.RowLabel, s.SeatNumber,
		)
	}
	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return int64(len(seats)), nil
}

func (r *SeatRepo) SeatsBySection(ctx context.Context, sectionID int64) ([]domain.Seat, error) {
	const op = "postgres.SeatRepo.SeatsBySection"

	rows, err := r.db.Query(ctx,
		`SELECT id, section_id, row_label, seat_number
       	 FROM seats
      	 WHERE section_id = $1
      	 ORDER BY row_label, seat_number`,
		sectionID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.Seat
	for rows.Next() {
		var s domain.Seat
		if err := rows.Scan(&s.ID, &s.SectionID, &s.RowLabel, &s.SeatNumber); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}
