package httpgin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stadix/stadix/internal/domain"
	redisrepo "github.com/stadix/stadix/internal/repository/redis"
	"github.com/stadix/stadix/internal/service"
	"github.com/stadix/stadix/internal/service/admin"
	"github.com/stadix/stadix/internal/service/booking"
	"github.com/stadix/stadix/internal/service/query"
	"github.com/stadix/stadix/internal/service/seats"
)

func NewRouter(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public API
	r.GET("/events/:id/sections/:sectionID/availability", handleGetAvailability(svcs))
	r.GET("/events/:id/bookings", handleListEventBookings(svcs))
	r.GET("/events/:id/revenue", handleGetRevenue(svcs))
	r.POST("/events/:id/bookings", handleCreateBooking(svcs, idem))

	r.GET("/bookings", handleListBookings(svcs))
	r.GET("/bookings/:id", handleGetBooking(svcs))
	r.POST("/bookings/:id/cancel", handleCancelBooking(svcs))
	r.DELETE("/bookings/:id", handleDeleteBooking(svcs))

	r.GET("/sections/:id/seats", handleListSectionSeats(svcs))
	r.GET("/stats/today", handleCountToday(svcs))

	// Admin API
	// TODO: add admin auth middleware once the operator accounts land
	adminGroup := r.Group("/admin")
	{
		adminGroup.POST("/sections", handleCreateSection(svcs))
		adminGroup.GET("/sections", handleListSections(svcs))
		adminGroup.POST("/sections/:id/seats", handleGenerateSeats(svcs))
		adminGroup.POST("/events", handleCreateEvent(svcs))
		adminGroup.POST("/events/:id/sections", handleAttachSection(svcs))
	}

	return r
}

func handleGetAvailability(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		sectionID, ok := parseInt64Param(c, "sectionID")
		if !ok {
			return
		}
		av, err := svcs.Query.Availability(c.Request.Context(), eventID, sectionID)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, av, "public, max-age=5", true)
	}
}

func handleListEventBookings(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		list, err := svcs.Query.ListByEvent(c.Request.Context(), eventID)
		if err != nil {
			respondErr(c, err)
			return
		}
		out := make([]BookingResponse, 0, len(list))
		for _, b := range list {
			out = append(out, toBookingResponse(b, nil))
		}
		writeJSONWithCache(c, http.StatusOK, out, "public, max-age=15", true)
	}
}

func handleGetRevenue(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		total, err := svcs.Query.ConfirmedRevenue(c.Request.Context(), eventID)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(
			c,
			http.StatusOK,
			RevenueResponse{EventID: eventID, TotalCents: total},
			"public, max-age=30",
			true,
		)
	}
}

func handleCreateBooking(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req CreateBookingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemBooking(eventID, idemKey)

			if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
				c.Header("Idempotency-Key", idemKey)
				c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
				return
			}

			locked, err := idem.AcquireLock(c.Request.Context(), idemStorageKey, 60*time.Second)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
					c.Header("Idempotency-Key", idemKey)
					c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(http.StatusConflict, ErrorResponse{Error: "idempotency key in progress"})
				return
			}
		}

		rlKey := "ip:" + c.ClientIP()

		b, err := svcs.Booking.Create(c.Request.Context(), booking.CreateRequest{
			EventID:   eventID,
			SectionID: req.SectionID,
			SeatIDs:   req.SeatIDs,
			Quantity:  req.Quantity,
			Customer: domain.Customer{
				Name:  req.Customer.Name,
				Email: req.Customer.Email,
				Phone: req.Customer.Phone,
			},
			TotalCents: req.TotalCents,
		}, rlKey)
		if err != nil {
			if idemStorageKey != "" && idem != nil {
				_ = idem.Release(c.Request.Context(), idemStorageKey)
			}
			respondErr(c, err)
			return
		}

		resp := toBookingResponse(*b, nil)

		if idemStorageKey != "" && idem != nil {
			raw, _ := json.Marshal(resp)
			_ = idem.SaveResult(c.Request.Context(), idemStorageKey, string(raw))
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, resp)
	}
}

func handleListBookings(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := parseIntDefault(c.Query("limit"), 20)
		offset := parseIntDefault(c.Query("offset"), 0)

		list, err := svcs.Query.List(c.Request.Context(), limit, offset)
		if err != nil {
			respondErr(c, err)
			return
		}
		out := make([]BookingResponse, 0, len(list))
		for _, b := range list {
			out = append(out, toBookingResponse(b, nil))
		}
		c.JSON(http.StatusOK, out)
	}
}

func handleGetBooking(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		bw, err := svcs.Query.GetBooking(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toBookingResponse(bw.Booking, bw.Seats))
	}
}

func handleCancelBooking(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		if err := svcs.Booking.Cancel(c.Request.Context(), id); err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
	}
}

func handleDeleteBooking(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		if err := svcs.Booking.Delete(c.Request.Context(), id); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func handleListSectionSeats(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		list, err := svcs.Seats.ListSeats(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, list, "public, max-age=60", true)
	}
}

func handleCountToday(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := svcs.Query.CountToday(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"date":  time.Now().Format("2006-01-02"),
			"count": n,
		})
	}
}

func handleCreateSection(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateSectionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		sec, err := svcs.Admin.CreateSection(c.Request.Context(), domain.Section{
			Name:             req.Name,
			Type:             domain.SectionType(req.Type),
			TotalRows:        req.TotalRows,
			SeatsPerRow:      req.SeatsPerRow,
			StandingCapacity: req.StandingCapacity,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, CreateSectionResponse{
			SectionID: sec.ID,
			Seats:     sec.Capacity(),
		})
	}
}

func handleListSections(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svcs.Admin.ListSections(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

func handleGenerateSeats(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		created, err := svcs.Seats.GenerateLayout(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, GenerateSeatsResponse{Created: created})
	}
}

func handleCreateEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		starts, err := parseRFC3339(req.StartsAt)
		if err != nil {
			badRequest(c, "invalid starts_at (RFC3339)")
			return
		}
		id, err := svcs.Admin.CreateEvent(c.Request.Context(), req.Name, starts)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, CreateEventResponse{EventID: id})
	}
}

func handleAttachSection(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req AttachSectionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		es, err := svcs.Admin.AttachSection(
			c.Request.Context(),
			eventID,
			req.SectionID,
			req.Title,
			req.UnitPriceCents,
			req.TotalCapacity,
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, es)
	}
}

// --- Helpers ---

func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	s := c.Param(name)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	switch {
	// booking service
	case errors.Is(err, booking.ErrRateLimited):
		c.Header("Retry-After", "60")
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "too many booking attempts"})
		return
	case errors.Is(err, booking.ErrInsufficientCapacity):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "not enough capacity left"})
		return
	case errors.Is(err, booking.ErrSeatsAlreadyBooked):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "some seats are already booked"})
		return
	case errors.Is(err, booking.ErrAlreadyCancelled):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "booking is already cancelled"})
		return
	case errors.Is(err, booking.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "booking not found"})
		return
	case errors.Is(err, booking.ErrSectionNotAttached):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "section is not attached to the event"})
		return
	case errors.Is(err, booking.ErrNoSeatsSelected),
		errors.Is(err, booking.ErrDuplicateSeats),
		errors.Is(err, booking.ErrSeatNotInSection),
		errors.Is(err, booking.ErrTooManySeats),
		errors.Is(err, booking.ErrCustomerRequired):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	// query service
	case errors.Is(err, query.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "booking not found"})
		return
	case errors.Is(err, query.ErrSectionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "event section not found"})
		return
	// seat catalog
	case errors.Is(err, seats.ErrSectionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "section not found"})
		return
	case errors.Is(err, seats.ErrSectionInUse):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "section has active bookings"})
		return
	// admin service
	case errors.Is(err, admin.ErrInvalidSection), errors.Is(err, admin.ErrInvalidEvent):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	case errors.Is(err, admin.ErrAlreadyAttached):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "section already attached"})
		return
	case errors.Is(err, admin.ErrSectionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "section not found"})
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}
