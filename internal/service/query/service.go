package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stadix/stadix/internal/domain"
	"github.com/stadix/stadix/internal/repository"
	redisrepo "github.com/stadix/stadix/internal/repository/redis"
)

const (
	availabilityTTL = 5 * time.Second
	revenueTTL      = 30 * time.Second
)

// Service is the read side: booking lookups, listings and the derived
// aggregates. Hot reads go through the cache; writers invalidate the keys
// after commit, so a hit is at worst availabilityTTL stale.
type Service struct {
	store repository.Store
	cache *redisrepo.Cache
}

func New(store repository.Store, cache *redisrepo.Cache) *Service {
	return &Service{store: store, cache: cache}
}

// Availability is the cached view of one (event, section) ledger row.
type Availability struct {
	EventID   int64 `json:"event_id"`
	SectionID int64 `json:"section_id"`
	Total     int   `json:"total"`
	Available int   `json:"available"`
	Booked    int   `json:"booked"`
}

// GetBooking returns the booking with its seats.
//
// Returns:
//   - error: query.ErrBookingNotFound if no booking has this id.
func (s *Service) GetBooking(ctx context.Context, id int64) (*domain.BookingWithSeats, error) {
	const op = "service.query.GetBooking"

	bw, err := s.store.Query().GetBooking(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrBookingNotFound)
		}

		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return bw, nil
}

// ListByEvent returns the event's bookings, newest first.
func (s *Service) ListByEvent(ctx context.Context, eventID int64) ([]domain.Booking, error) {
	const op = "service.query.ListByEvent"

	list, err := s.store.Query().ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return list, nil
}

// List pages through all bookings, newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]domain.Booking, error) {
	const op = "service.query.List"

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	list, err := s.store.Query().List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return list, nil
}

// Availability reports total, available and booked for one
// (event, section) pair. booked is derived as total - available.
//
// Returns:
//   - error: query.ErrSectionNotFound if the section is not attached to the
//     event.
func (s *Service) Availability(ctx context.Context, eventID, sectionID int64) (*Availability, error) {
	const op = "service.query.Availability"

	load := func(ctx context.Context) (*Availability, error) {
		es, err := s.store.Ledger().Get(ctx, eventID, sectionID)
		if err != nil {
			return nil, err
		}

		return &Availability{
			EventID:   eventID,
			SectionID: sectionID,
			Total:     es.TotalCapacity,
			Available: es.Available,
			Booked:    es.TotalCapacity - es.Available,
		}, nil
	}

	var (
		av  *Availability
		err error
	)

	if s.cache != nil {
		av, err = redisrepo.GetOrSetJSON(
			ctx,
			s.cache,
			redisrepo.KeyAvailability(eventID, sectionID),
			availabilityTTL,
			load,
		)
	} else {
		av, err = load(ctx)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrSectionNotFound)
		}

		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return av, nil
}

// ConfirmedRevenue sums total_cents over the event's CONFIRMED bookings.
func (s *Service) ConfirmedRevenue(ctx context.Context, eventID int64) (int64, error) {
	const op = "service.query.ConfirmedRevenue"

	load := func(ctx context.Context) (int64, error) {
		return s.store.Query().ConfirmedRevenue(ctx, eventID)
	}

	var (
		total int64
		err   error
	)

	if s.cache != nil {
		total, err = redisrepo.GetOrSetJSON(
			ctx,
			s.cache,
			redisrepo.KeyEventRevenue(eventID),
			revenueTTL,
			load,
		)
	} else {
		total, err = load(ctx)
	}
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	return total, nil
}

// CountToday returns how many bookings were created today, the same count
// the booking number sequence is derived from.
func (s *Service) CountToday(ctx context.Context) (int64, error) {
	const op = "service.query.CountToday"

	n, err := s.store.Query().CountByDay(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	return n, nil
}
