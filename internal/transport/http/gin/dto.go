package httpgin

import (
	"time"

	"github.com/stadix/stadix/internal/domain"
)

type CustomerInput struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type CreateBookingRequest struct {
	SectionID  int64         `json:"section_id" binding:"required"`
	SeatIDs    []int64       `json:"seat_ids"`
	Quantity   int           `json:"quantity"`
	Customer   CustomerInput `json:"customer" binding:"required"`
	TotalCents int64         `json:"total_cents"`
}

type CreateSectionRequest struct {
	Name             string `json:"name" binding:"required"`
	Type             string `json:"type" binding:"required"`
	TotalRows        int    `json:"total_rows"`
	SeatsPerRow      int    `json:"seats_per_row"`
	StandingCapacity int    `json:"standing_capacity"`
}

type CreateEventRequest struct {
	Name     string `json:"name" binding:"required"`
	StartsAt string `json:"starts_at" binding:"required"`
}

type AttachSectionRequest struct {
	SectionID      int64  `json:"section_id" binding:"required"`
	Title          string `json:"title"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	TotalCapacity  int    `json:"total_capacity"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type BookingSeatResponse struct {
	SeatID     *int64  `json:"seat_id,omitempty"`
	RowLabel   *string `json:"row_label,omitempty"`
	SeatNumber *int    `json:"seat_number,omitempty"`
	PriceCents int64   `json:"price_cents"`
	Status     string  `json:"status"`
}

type BookingResponse struct {
	BookingID  int64                 `json:"booking_id"`
	Number     string                `json:"number"`
	EventID    int64                 `json:"event_id"`
	Customer   CustomerInput         `json:"customer"`
	SeatCount  int                   `json:"seat_count"`
	TotalCents int64                 `json:"total_cents"`
	Status     string                `json:"status"`
	CreatedAt  time.Time             `json:"created_at"`
	Seats      []BookingSeatResponse `json:"seats,omitempty"`
}

type CreateSectionResponse struct {
	SectionID int64 `json:"section_id"`
	Seats     int   `json:"seats"`
}

type CreateEventResponse struct {
	EventID int64 `json:"event_id"`
}

type GenerateSeatsResponse struct {
	Created int64 `json:"created"`
}

type RevenueResponse struct {
	EventID    int64 `json:"event_id"`
	TotalCents int64 `json:"total_cents"`
}

func toBookingResponse(b domain.Booking, seats []domain.BookingSeat) BookingResponse {
	resp := BookingResponse{
		BookingID: b.ID,
		Number:    b.Number,
		EventID:   b.EventID,
		Customer: CustomerInput{
			Name:  b.Customer.Name,
			Email: b.Customer.Email,
			Phone: b.Customer.Phone,
		},
		SeatCount:  b.SeatCount,
		TotalCents: b.TotalCents,
		Status:     string(b.Status),
		CreatedAt:  b.CreatedAt,
	}

	for _, s := range seats {
		resp.Seats = append(resp.Seats, BookingSeatResponse{
			SeatID:     s.SeatID,
			RowLabel:   s.RowLabel,
			SeatNumber: s.SeatNumber,
			PriceCents: s.PriceCents,
			Status:     string(s.Status),
		})
	}

	return resp
}

func parseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
