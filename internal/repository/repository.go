package repository

import (
	"context"
	"time"

	"github.com/stadix/stadix/internal/domain"
)

// LedgerRepo maintains the per-(event, section) available counter.
type LedgerRepo interface {
	// Decrement subtracts amount only if available >= amount; returns
	// ErrInsufficientCapacity when the conditional update touches no row.
	Decrement(ctx context.Context, eventID, sectionID int64, amount int) error
	// Increment adds amount back. No upper bound is enforced here; callers
	// must not restore more than they reserved.
	Increment(ctx context.Context, eventID, sectionID int64, amount int) error
	Get(ctx context.Context, eventID, sectionID int64) (*domain.EventSection, error)
}

// SeatRepo covers the seat catalog: section layout and seat identity lookups.
type SeatRepo interface {
	GetSection(ctx context.Context, sectionID int64) (*domain.Section, error)
	// SeatsByIDs returns the subset of seatIDs that exist in the section.
	SeatsByIDs(ctx context.Context, sectionID int64, seatIDs []int64) ([]domain.Seat, error)
	// ActiveBookedSeatIDs returns the seat IDs among seatIDs that are held by
	// an ACTIVE booking seat for the event.
	ActiveBookedSeatIDs(ctx context.Context, eventID int64, seatIDs []int64) ([]int64, error)
	CountActiveBookingSeats(ctx context.Context, sectionID int64) (int64, error)
	// ReplaceLayout deletes all seats of the section and inserts the given
	// ones. Callers must refuse replacement while active bookings reference
	// the section.
	ReplaceLayout(ctx context.Context, sectionID int64, seats []domain.Seat) (int64, error)
	SeatsBySection(ctx context.Context, sectionID int64) ([]domain.Seat, error)
}

// BookingRepo is the write side of bookings and their seats.
type BookingRepo interface {
	Insert(ctx context.Context, b *domain.Booking, seats []domain.BookingSeat) (int64, error)
	GetWithSeats(ctx context.Context, id int64) (*domain.BookingWithSeats, error)
	// MarkCancelled flips the booking and all of its seats to CANCELLED.
	MarkCancelled(ctx context.Context, id int64) error
	// Delete removes the booking seats and then the booking row.
	Delete(ctx context.Context, id int64) error
	CountByDay(ctx context.Context, day time.Time) (int64, error)
}

// QueryRepo is the read side; it never mutates the ledger.
type QueryRepo interface {
	GetBooking(ctx context.Context, id int64) (*domain.BookingWithSeats, error)
	ListByEvent(ctx context.Context, eventID int64) ([]domain.Booking, error)
	List(ctx context.Context, limit, offset int) ([]domain.Booking, error)
	CountByDay(ctx context.Context, day time.Time) (int64, error)
	ConfirmedRevenue(ctx context.Context, eventID int64) (int64, error)
}

// AdminRepo creates the static inventory the booking core operates on.
type AdminRepo interface {
	CreateSection(ctx context.Context, s *domain.Section) (int64, error)
	ListSections(ctx context.Context) ([]domain.Section, error)
	CreateEvent(ctx context.Context, name string, starts time.Time) (int64, error)
	// AttachEventSection creates the capacity ledger row for (event, section)
	// with available = total.
	AttachEventSection(ctx context.Context, es *domain.EventSection) error
}

// Tx is the set of repositories bound to one transaction (or to the pool
// when obtained from a Store directly).
type Tx interface {
	Ledger() LedgerRepo
	Seats() SeatRepo
	Bookings() BookingRepo
	Query() QueryRepo
	Admin() AdminRepo
}

// Store runs functions inside a storage transaction. fn sees repositories
// bound to that transaction; any error rolls the whole unit back.
type Store interface {
	Tx
	RunTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
