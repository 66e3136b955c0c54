package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stadix/stadix/internal/domain"
	"github.com/stadix/stadix/internal/repository"
	redisrepo "github.com/stadix/stadix/internal/repository/redis"
	"github.com/stadix/stadix/internal/uow"
)

type Config struct {
	MaxSeatsPerBooking int
}

// Service is the transactional booking core: create reserves capacity and
// persists the booking as one unit, cancel and delete run the inverse.
type Service struct {
	store   repository.Store
	cache   *redisrepo.Cache
	pubsub  *redisrepo.BookingPubSub
	limiter *redisrepo.SlidingWindowLimiter
	uow     *uow.UoW
	cfg     Config
}

func New(
	store repository.Store,
	cache *redisrepo.Cache,
	pubsub *redisrepo.BookingPubSub,
	limiter *redisrepo.SlidingWindowLimiter,
	cfg Config,
) *Service {
	if cfg.MaxSeatsPerBooking <= 0 {
		cfg.MaxSeatsPerBooking = 50
	}

	return &Service{
		store:   store,
		cache:   cache,
		pubsub:  pubsub,
		limiter: limiter,
		uow:     uow.NewUoW(store),
		cfg:     cfg,
	}
}

// CreateRequest describes one booking against a single (event, section)
// pair. Tribune bookings name their seats; field (standing) bookings carry
// only a quantity. TotalCents overrides the list price when non-zero.
type CreateRequest struct {
	EventID    int64
	SectionID  int64
	SeatIDs    []int64
	Quantity   int
	Customer   domain.Customer
	TotalCents int64
}

// Create books the requested seats. Seat validation, the booking insert and
// the capacity decrement commit as one transaction; any failure leaves no
// partial booking and no ledger change.
//
// Returns:
//   - *domain.Booking: the persisted booking with id and number filled in.
//   - error: booking.ErrInsufficientCapacity if the section has fewer than
//     the requested seats available.
//   - error: booking.ErrSeatsAlreadyBooked if a selected seat is held by an
//     active booking for this event.
//   - error: validation sentinels for an empty or malformed selection.
func (s *Service) Create(ctx context.Context, req CreateRequest, rlKey string) (*domain.Booking, error) {
	const op = "service.booking.Create"

	if req.Customer.Name == "" {
		return nil, fmt.Errorf("%s:%w", op, ErrCustomerRequired)
	}

	if s.limiter != nil && rlKey != "" {
		ok, _, retry, err := s.limiter.Allow(ctx, rlKey)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}
		if !ok {
			return nil, fmt.Errorf("%s:%w: retry in %s", op, ErrRateLimited, retry)
		}
	}

	var out *domain.Booking

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx repository.Tx,
		after func(uow.AfterCommit),
	) error {
		es, err := tx.Ledger().Get(ctx, req.EventID, req.SectionID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrSectionNotAttached)
			}

			return fmt.Errorf("%s:%w", op, err)
		}

		section, err := tx.Seats().GetSection(ctx, req.SectionID)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		bookingSeats, err := s.resolveSeats(ctx, tx, section, req)
		if err != nil {
			return err
		}

		seatCount := len(bookingSeats)
		if seatCount > s.cfg.MaxSeatsPerBooking {
			return fmt.Errorf("%s:%w: at most %d", op, ErrTooManySeats, s.cfg.MaxSeatsPerBooking)
		}

		total := req.TotalCents
		if total == 0 {
			total = es.UnitPriceCents * int64(seatCount)
		}

		for i, cents := range splitCents(total, seatCount) {
			bookingSeats[i].PriceCents = cents
		}

		number, err := s.nextNumber(ctx, tx)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		b := &domain.Booking{
			EventID:    req.EventID,
			Number:     number,
			Customer:   req.Customer,
			SeatCount:  seatCount,
			TotalCents: total,
			Status:     domain.BookingConfirmed,
		}

		if _, err := tx.Bookings().Insert(ctx, b, bookingSeats); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		if err := tx.Ledger().Decrement(ctx, req.EventID, req.SectionID, seatCount); err != nil {
			if errors.Is(err, repository.ErrInsufficientCapacity) {
				return fmt.Errorf("%s:%w", op, ErrInsufficientCapacity)
			}

			return fmt.Errorf("%s:%w", op, err)
		}

		out = b

		after(func(ctx context.Context) {
			s.invalidate(ctx, req.EventID, req.SectionID)
			if s.pubsub != nil {
				_ = s.pubsub.PublishBookingConfirmed(ctx, b.ID, b.EventID, b.Number)
			}
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// Cancel flips a CONFIRMED booking and its seats to CANCELLED and restores
// the reserved capacity, atomically.
//
// Returns:
//   - error: booking.ErrBookingNotFound if the booking does not exist.
//   - error: booking.ErrAlreadyCancelled if it was cancelled before; the
//     capacity is never restored twice.
func (s *Service) Cancel(ctx context.Context, bookingID int64) error {
	const op = "service.booking.Cancel"

	return s.uow.Do(ctx, func(
		ctx context.Context,
		tx repository.Tx,
		after func(uow.AfterCommit),
	) error {
		bw, err := tx.Bookings().GetWithSeats(ctx, bookingID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrBookingNotFound)
			}

			return fmt.Errorf("%s:%w", op, err)
		}

		if bw.Booking.Status == domain.BookingCancelled {
			return fmt.Errorf("%s:%w", op, ErrAlreadyCancelled)
		}

		if err := tx.Bookings().MarkCancelled(ctx, bookingID); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		if len(bw.Seats) > 0 {
			sectionID := bw.Seats[0].SectionID
			if err := tx.Ledger().Increment(ctx, bw.Booking.EventID, sectionID, bw.Booking.SeatCount); err != nil {
				return fmt.Errorf("%s:%w", op, err)
			}

			after(func(ctx context.Context) {
				s.invalidate(ctx, bw.Booking.EventID, sectionID)
			})
		}

		after(func(ctx context.Context) {
			if s.pubsub != nil {
				_ = s.pubsub.PublishBookingCancelled(ctx, bw.Booking.ID, bw.Booking.EventID, bw.Booking.Number)
			}
		})

		return nil
	})
}

// Delete removes the booking and its seats entirely. Capacity is restored
// only when the booking was still CONFIRMED: a cancelled booking already
// gave its seats back.
//
// Returns:
//   - error: booking.ErrBookingNotFound if the booking does not exist.
func (s *Service) Delete(ctx context.Context, bookingID int64) error {
	const op = "service.booking.Delete"

	return s.uow.Do(ctx, func(
		ctx context.Context,
		tx repository.Tx,
		after func(uow.AfterCommit),
	) error {
		bw, err := tx.Bookings().GetWithSeats(ctx, bookingID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrBookingNotFound)
			}

			return fmt.Errorf("%s:%w", op, err)
		}

		if err := tx.Bookings().Delete(ctx, bookingID); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		if bw.Booking.Status == domain.BookingConfirmed && len(bw.Seats) > 0 {
			sectionID := bw.Seats[0].SectionID
			if err := tx.Ledger().Increment(ctx, bw.Booking.EventID, sectionID, bw.Booking.SeatCount); err != nil {
				return fmt.Errorf("%s:%w", op, err)
			}

			after(func(ctx context.Context) {
				s.invalidate(ctx, bw.Booking.EventID, sectionID)
			})
		}

		return nil
	})
}

func (s *Service) invalidate(ctx context.Context, eventID, sectionID int64) {
	if s.cache == nil {
		return
	}

	_ = s.cache.InvalidateEventSection(ctx, eventID, sectionID)
}

// resolveSeats validates the selection against the seat catalog and turns it
// into booking seat rows. Tribune sections require concrete seat ids; field
// sections take a quantity of standing allocations.
func (s *Service) resolveSeats(
	ctx context.Context,
	tx repository.Tx,
	section *domain.Section,
	req CreateRequest,
) ([]domain.BookingSeat, error) {
	const op = "service.booking.resolveSeats"

	if section.Type != domain.SectionTribune {
		if req.Quantity <= 0 {
			return nil, fmt.Errorf("%s:%w", op, ErrNoSeatsSelected)
		}

		out := make([]domain.BookingSeat, req.Quantity)
		for i := range out {
			out[i] = domain.BookingSeat{
				SectionID: section.ID,
				Status:    domain.BookingSeatActive,
			}
		}

		return out, nil
	}

	if len(req.SeatIDs) == 0 {
		return nil, fmt.Errorf("%s:%w", op, ErrNoSeatsSelected)
	}

	seen := make(map[int64]bool, len(req.SeatIDs))
	for _, id := range req.SeatIDs {
		if seen[id] {
			return nil, fmt.Errorf("%s:%w", op, ErrDuplicateSeats)
		}
		seen[id] = true
	}

	seats, err := tx.Seats().SeatsByIDs(ctx, section.ID, req.SeatIDs)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if len(seats) != len(req.SeatIDs) {
		return nil, fmt.Errorf("%s:%w", op, ErrSeatNotInSection)
	}

	booked, err := tx.Seats().ActiveBookedSeatIDs(ctx, req.EventID, req.SeatIDs)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if len(booked) > 0 {
		return nil, fmt.Errorf("%s:%w", op, ErrSeatsAlreadyBooked)
	}

	out := make([]domain.BookingSeat, 0, len(seats))
	for _, seat := range seats {
		out = append(out, domain.BookingSeat{
			SectionID:  section.ID,
			SeatID:     &seat.ID,
			RowLabel:   &seat.RowLabel,
			SeatNumber: &seat.SeatNumber,
			Status:     domain.BookingSeatActive,
		})
	}

	return out, nil
}

// nextNumber builds the date-scoped display number BK-YYYYMMDD-NNNN. The
// count runs inside the enclosing transaction, so same-instant creates
// cannot commit the same sequence; the number stays a display label either
// way, never a key.
func (s *Service) nextNumber(ctx context.Context, tx repository.Tx) (string, error) {
	today := time.Now()

	n, err := tx.Bookings().CountByDay(ctx, today)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("BK-%s-%04d", today.Format("20060102"), n+1), nil
}

// splitCents spreads total across count seats with largest-remainder
// distribution: every seat gets total/count and the first total%count seats
// get one extra cent, so the parts always sum to total.
func splitCents(total int64, count int) []int64 {
	out := make([]int64, count)
	if count == 0 {
		return out
	}

	base := total / int64(count)
	rem := total % int64(count)

	for i := range out {
		out[i] = base
		if int64(i) < rem {
			out[i]++
		}
	}

	return out
}
