package httpgin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/stadix/stadix/internal/repository/memory"
	"github.com/stadix/stadix/internal/service"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	svcs := service.NewServices(store, nil, nil, nil, service.Config{})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewRouter(svcs, nil, logger)
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func seedFieldEvent(t *testing.T, r *gin.Engine, capacity int) (eventID, sectionID int64) {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, "/admin/sections", CreateSectionRequest{
		Name:             "South Field",
		Type:             "FIELD",
		StandingCapacity: capacity,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var secResp CreateSectionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &secResp))
	sectionID = secResp.SectionID

	w = doJSON(t, r, http.MethodPost, "/admin/events", CreateEventRequest{
		Name:     "Final",
		StartsAt: time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var evResp CreateEventResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &evResp))
	eventID = evResp.EventID

	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/admin/events/%d/sections", eventID), AttachSectionRequest{
		SectionID:      sectionID,
		UnitPriceCents: 1000,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	return eventID, sectionID
}

func TestBookingLifecycleHTTP(t *testing.T) {
	r := newTestRouter(t)
	eventID, sectionID := seedFieldEvent(t, r, 100)

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/events/%d/bookings", eventID), CreateBookingRequest{
		SectionID: sectionID,
		Quantity:  3,
		Customer:  CustomerInput{Name: "Ivan"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created BookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Equal(t, 3, created.SeatCount)
	require.EqualValues(t, 3000, created.TotalCents)
	require.Contains(t, created.Number, "BK-")

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/events/%d/sections/%d/availability", eventID, sectionID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"available":97`)

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/bookings/%d", created.BookingID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/stats/today", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"count":1`)

	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/bookings/%d/cancel", created.BookingID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/bookings/%d/cancel", created.BookingID), nil)
	require.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/bookings/%d", created.BookingID), nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/bookings/%d", created.BookingID), nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateBookingOverCapacityHTTP(t *testing.T) {
	r := newTestRouter(t)
	eventID, sectionID := seedFieldEvent(t, r, 2)

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/events/%d/bookings", eventID), CreateBookingRequest{
		SectionID: sectionID,
		Quantity:  3,
		Customer:  CustomerInput{Name: "Ivan"},
	})
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/events/%d/sections/%d/availability", eventID, sectionID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"available":2`)
}

func TestCreateBookingValidationHTTP(t *testing.T) {
	r := newTestRouter(t)
	eventID, sectionID := seedFieldEvent(t, r, 10)

	// binding rejects the missing customer name
	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/events/%d/bookings", eventID), map[string]any{
		"section_id": sectionID,
		"quantity":   1,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	// zero quantity on a field section
	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/events/%d/bookings", eventID), CreateBookingRequest{
		SectionID: sectionID,
		Customer:  CustomerInput{Name: "Ivan"},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	// section not attached to the event
	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/events/%d/bookings", eventID), CreateBookingRequest{
		SectionID: sectionID + 50,
		Quantity:  1,
		Customer:  CustomerInput{Name: "Ivan"},
	})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestSectionSeatsHTTP(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/admin/sections", CreateSectionRequest{
		Name:        "North Tribune",
		Type:        "TRIBUNE",
		TotalRows:   2,
		SeatsPerRow: 3,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var secResp CreateSectionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &secResp))
	require.Equal(t, 6, secResp.Seats)

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/sections/%d/seats", secResp.SectionID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, w.Header().Get("ETag"))

	w = doJSON(t, r, http.MethodGet, "/sections/999/seats", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}
