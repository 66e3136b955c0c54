package booking

import (
	"errors"
)

var (
	ErrNoSeatsSelected      = errors.New("no seats selected")
	ErrDuplicateSeats       = errors.New("duplicate seats in selection")
	ErrSeatNotInSection     = errors.New("seat does not belong to the claimed section")
	ErrSeatsAlreadyBooked   = errors.New("some seats are already booked")
	ErrTooManySeats         = errors.New("selection exceeds the per-booking seat limit")
	ErrInsufficientCapacity = errors.New("not enough capacity left")
	ErrCustomerRequired     = errors.New("customer name is required")
	ErrBookingNotFound      = errors.New("booking not found")
	ErrAlreadyCancelled     = errors.New("booking is already cancelled")
	ErrSectionNotAttached   = errors.New("section is not attached to the event")
	ErrRateLimited          = errors.New("too many booking attempts")
)
