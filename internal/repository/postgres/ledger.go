package postgres

import (
	"context"
	"fmt"

	"github.com/stadix/stadix/internal/domain"
	"github.com/stadix/stadix/internal/repository"
)

type LedgerRepo struct {
	db DB
}

// Decrement subtracts amount from the available counter of (eventID,
// sectionID) in a single conditional statement. The WHERE clause carries the
// capacity check, so two concurrent bookings can never drive the counter
// below zero: the losing update touches zero rows.
//
// Returns:
//   - error: repository.ErrInsufficientCapacity if available < amount.
//   - error: repository.ErrNotFound if the ledger row does not exist.
func (r *LedgerRepo) Decrement(ctx context.Context, eventID, sectionID int64, amount int) error {
	const op = "postgres.LedgerRepo.Decrement"

	tag, err := r.db.Exec(ctx,
		`UPDATE event_sections
        	SET available = available - $3
      	 WHERE event_id = $1
        	AND section_id = $2
        	AND available >= $3`,
		eventID, sectionID, amount,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		// Distinguish a missing ledger row from a genuine shortage. The
		// existence probe is for error classification only; the capacity
		// check itself already happened atomically above.
		var exists bool
		if err := r.db.QueryRow(ctx,
			`SELECT EXISTS (
			 	SELECT 1 FROM event_sections
			  	 WHERE event_id = $1 AND section_id = $2)`,
			eventID, sectionID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		if !exists {
			return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
		}

		return fmt.Errorf("%s:%w", op, repository.ErrInsufficientCapacity)
	}

	return nil
}

// Increment restores amount to the available counter. Callers are trusted
// not to restore more than they reserved; no upper bound is enforced here.
func (r *LedgerRepo) Increment(ctx context.Context, eventID, sectionID int64, amount int) error {
	const op = "postgres.LedgerRepo.Increment"

	tag, err := r.db.Exec(ctx,
		`UPDATE event_sections
        	SET available = available + $3
      	 WHERE event_id = $1
        	AND section_id = $2`,
		eventID, sectionID, amount,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

func (r *LedgerRepo) Get(ctx context.Context, eventID, sectionID int64) (*domain.EventSection, error) {
	const op = "postgres.LedgerRepo.Get"

	var es domain.EventSection
	err := r.db.QueryRow(ctx,
		`SELECT event_id, section_id, title, unit_price_cents, total_capacity, available
       	 FROM event_sections
      	 WHERE event_id = $1 AND section_id = $2`,
		eventID, sectionID,
	).Scan(
		&es.EventID,
		&es.SectionID,
		&es.Title,
		&es.UnitPriceCents,
		&es.TotalCapacity,
		&es.Available,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &es, nil
}
