package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stadix/stadix/internal/domain"
	"github.com/stadix/stadix/internal/repository"
	"github.com/stadix/stadix/internal/service/seats"
	"github.com/stadix/stadix/internal/uow"
)

// Service manages the static inventory: sections, events and the capacity
// rows that attach one to the other.
type Service struct {
	store repository.Store
	uow   *uow.UoW
	seats *seats.Service
}

func New(store repository.Store, seatSvc *seats.Service) *Service {
	return &Service{
		store: store,
		uow:   uow.NewUoW(store),
		seats: seatSvc,
	}
}

// CreateSection validates and persists a section, then generates the seat
// layout for tribune sections.
//
// Returns:
//   - *domain.Section: the section with its id filled in.
//   - error: admin.ErrInvalidSection when the layout parameters do not match
//     the section type.
func (s *Service) CreateSection(ctx context.Context, sec domain.Section) (*domain.Section, error) {
	const op = "service.admin.CreateSection"

	if sec.Name == "" {
		return nil, fmt.Errorf("%s:%w: name is required", op, ErrInvalidSection)
	}

	switch sec.Type {
	case domain.SectionTribune:
		if sec.TotalRows <= 0 || sec.SeatsPerRow <= 0 {
			return nil, fmt.Errorf("%s:%w: tribune needs rows and seats per row", op, ErrInvalidSection)
		}
		sec.StandingCapacity = 0
	case domain.SectionField:
		if sec.StandingCapacity <= 0 {
			return nil, fmt.Errorf("%s:%w: field needs standing capacity", op, ErrInvalidSection)
		}
		sec.TotalRows = 0
		sec.SeatsPerRow = 0
	default:
		return nil, fmt.Errorf("%s:%w: unknown section type %q", op, ErrInvalidSection, sec.Type)
	}

	id, err := s.store.Admin().CreateSection(ctx, &sec)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}
	sec.ID = id

	if sec.Type == domain.SectionTribune {
		if _, err := s.seats.GenerateLayout(ctx, id); err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}
	}

	return &sec, nil
}

// ListSections returns all sections.
func (s *Service) ListSections(ctx context.Context) ([]domain.Section, error) {
	const op = "service.admin.ListSections"

	list, err := s.store.Admin().ListSections(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return list, nil
}

// CreateEvent persists an event.
func (s *Service) CreateEvent(ctx context.Context, name string, starts time.Time) (int64, error) {
	const op = "service.admin.CreateEvent"

	if name == "" {
		return 0, fmt.Errorf("%s:%w: name is required", op, ErrInvalidEvent)
	}

	id, err := s.store.Admin().CreateEvent(ctx, name, starts)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	return id, nil
}

// AttachSection creates the capacity row for (event, section), seeding
// available = total. Total defaults to the section's own capacity when zero.
//
// Returns:
//   - error: admin.ErrAlreadyAttached if the pair already has a capacity row.
//   - error: admin.ErrSectionNotFound if the section does not exist.
func (s *Service) AttachSection(
	ctx context.Context,
	eventID, sectionID int64,
	title string,
	unitPriceCents int64,
	total int,
) (*domain.EventSection, error) {
	const op = "service.admin.AttachSection"

	var out *domain.EventSection

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

		if total <= 0 {
			total = section.Capacity()
		}
		if title == "" {
			title = section.Name
		}

		es := &domain.EventSection{
			EventID:        eventID,
			SectionID:      sectionID,
			Title:          title,
			UnitPriceCents: unitPriceCents,
			TotalCapacity:  total,
			Available:      total,
		}

		if err := tx.Admin().AttachEventSection(ctx, es); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%s:%w", op, ErrAlreadyAttached)
			}

			return fmt.Errorf("%s:%w", op, err)
		}

		out = es

		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}
