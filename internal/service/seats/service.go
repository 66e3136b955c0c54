package seats

import (
	"context"
	"errors"
	"fmt"

	"github.com/stadix/stadix/internal/domain"
	"github.com/stadix/stadix/internal/repository"
	"github.com/stadix/stadix/internal/uow"
)

// Service is the seat catalog: it turns a tribune section's layout
// parameters into concrete seat identities and guards regeneration.
type Service struct {
	store repository.Store
	uow   *uow.UoW
}

func New(store repository.Store) *Service {
	return &Service{
		store: store,
		uow:   uow.NewUoW(store),
	}
}

// Layout expands a tribune section into its rows × seatsPerRow seat
// identities. Field sections produce no seats.
func Layout(section domain.Section) []domain.Seat {
	if section.Type != domain.SectionTribune {
		return nil
	}

	out := make([]domain.Seat, 0, section.TotalRows*section.SeatsPerRow)
	for row := 1; row <= section.TotalRows; row++ {
		label := RowLabel(row)
		for num := 1; num <= section.SeatsPerRow; num++ {
			out = append(out, domain.Seat{
				SectionID:  section.ID,
				RowLabel:   label,
				SeatNumber: num,
			})
		}
	}

	return out
}

// GenerateLayout destructively regenerates the section's seats: prior seat
// identities are deleted and recreated from the current layout parameters.
// Regeneration is refused while any seat of the section is referenced by an
// ACTIVE booking seat. Field sections are a no-op.
//
// Returns:
//   - int64: the number of seats created.
//   - error: seats.ErrSectionNotFound if the section does not exist.
//   - error: seats.ErrSectionInUse if active bookings reference the section.
func (s *Service) GenerateLayout(ctx context.Context, sectionID int64) (int64, error) {
	const op = "service.seats.GenerateLayout"

	var created int64

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx repository.Tx,
		after func(uow.AfterCommit),
	) error {
		section, err := tx.Seats().GetSection(ctx, sectionID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrSectionNotFound)
			}

			return fmt.Errorf("%s:%w", op, err)
		}

		if section.Type != domain.SectionTribune {
			return nil
		}

		active, err := tx.Seats().CountActiveBookingSeats(ctx, sectionID)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		if active > 0 {
			return fmt.Errorf("%s:%w", op, ErrSectionInUse)
		}

		created, err = tx.Seats().ReplaceLayout(ctx, sectionID, Layout(*section))
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return created, nil
}

// ListSeats returns the section's seats in row/number order.
func (s *Service) ListSeats(ctx context.Context, sectionID int64) ([]domain.Seat, error) {
	const op = "service.seats.ListSeats"

	if _, err := s.store.Seats().GetSection(ctx, sectionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrSectionNotFound)
		}

		return nil, fmt.Errorf("%s:%w", op, err)
	}

	seats, err := s.store.Seats().SeatsBySection(ctx, sectionID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return seats, nil
}
