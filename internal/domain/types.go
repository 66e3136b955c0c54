package domain

import (
	"time"
)

type SectionType string

const (
	SectionTribune SectionType = "TRIBUNE"
	SectionField   SectionType = "FIELD"
)

type Section struct {
	ID               int64
	Name             string
	Type             SectionType
	TotalRows        int
	SeatsPerRow      int
	StandingCapacity int
}

// Capacity is the number of admissions the section can hold: seats for
// tribunes, standing room for field sections.
func (s Section) Capacity() int {
	if s.Type == SectionTribune {
		return s.TotalRows * s.SeatsPerRow
	}
	return s.StandingCapacity
}

type Seat struct {
	ID         int64
	SectionID  int64
	RowLabel   string
	SeatNumber int
}

type Event struct {
	ID     int64
	Name   string
	Starts time.Time
}

// EventSection associates a section with an event occurrence. Available is
// the shared capacity counter the booking core keeps consistent:
// 0 <= Available <= TotalCapacity at all times.
type EventSection struct {
	EventID        int64
	SectionID      int64
	Title          string
	UnitPriceCents int64
	TotalCapacity  int
	Available      int
}

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
)

type BookingSeatStatus string

const (
	BookingSeatActive    BookingSeatStatus = "ACTIVE"
	BookingSeatCancelled BookingSeatStatus = "CANCELLED"
)

type Customer struct {
	Name  string
	Email string
	Phone string
}

type Booking struct {
	ID         int64
	EventID    int64
	Number     string
	Customer   Customer
	SeatCount  int
	TotalCents int64
	Status     BookingStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// BookingSeat links a booking to a tribune seat, or carries a standing
// allocation when SeatID/RowLabel/SeatNumber are nil.
type BookingSeat struct {
	ID         int64
	BookingID  int64
	SectionID  int64
	SeatID     *int64
	RowLabel   *string
	SeatNumber *int
	PriceCents int64
	Status     BookingSeatStatus
}

type BookingWithSeats struct {
	Booking Booking
	Seats   []BookingSeat
}
