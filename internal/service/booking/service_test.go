package booking

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stadix/stadix/internal/domain"
	"github.com/stadix/stadix/internal/repository/memory"
	"github.com/stadix/stadix/internal/service/seats"
)

type fixture struct {
	store     *memory.Store
	svc       *Service
	eventID   int64
	sectionID int64
}

func newFieldFixture(t *testing.T, capacity int, unitPriceCents int64) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	sectionID, err := store.Admin().CreateSection(ctx, &domain.Section{
		Name:             "South Field",
		Type:             domain.SectionField,
		StandingCapacity: capacity,
	})
	require.NoError(t, err)

	eventID, err := store.Admin().CreateEvent(ctx, "Championship Final", time.Now().Add(24*time.Hour))
	require.NoError(t, err)

	require.NoError(t, store.Admin().AttachEventSection(ctx, &domain.EventSection{
		EventID:        eventID,
		SectionID:      sectionID,
		Title:          "South Field",
		UnitPriceCents: unitPriceCents,
		TotalCapacity:  capacity,
	}))

	return &fixture{
		store:     store,
		svc:       New(store, nil, nil, nil, Config{}),
		eventID:   eventID,
		sectionID: sectionID,
	}
}

func newTribuneFixture(t *testing.T, rows, perRow int, unitPriceCents int64) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	sectionID, err := store.Admin().CreateSection(ctx, &domain.Section{
		Name:        "North Tribune",
		Type:        domain.SectionTribune,
		TotalRows:   rows,
		SeatsPerRow: perRow,
	})
	require.NoError(t, err)

	_, err = seats.New(store).GenerateLayout(ctx, sectionID)
	require.NoError(t, err)

	eventID, err := store.Admin().CreateEvent(ctx, "Derby", time.Now().Add(24*time.Hour))
	require.NoError(t, err)

	require.NoError(t, store.Admin().AttachEventSection(ctx, &domain.EventSection{
		EventID:        eventID,
		SectionID:      sectionID,
		Title:          "North Tribune",
		UnitPriceCents: unitPriceCents,
		TotalCapacity:  rows * perRow,
	}))

	return &fixture{
		store:     store,
		svc:       New(store, nil, nil, nil, Config{}),
		eventID:   eventID,
		sectionID: sectionID,
	}
}

func (f *fixture) available(t *testing.T) int {
	t.Helper()
	es, err := f.store.Ledger().Get(context.Background(), f.eventID, f.sectionID)
	require.NoError(t, err)
	return es.Available
}

func (f *fixture) seatIDs(t *testing.T, n int) []int64 {
	t.Helper()
	list, err := f.store.Seats().SeatsBySection(context.Background(), f.sectionID)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(list), n)

	out := make([]int64, 0, n)
	for _, s := range list[:n] {
		out = append(out, s.ID)
	}
	return out
}

func TestCreateFieldBooking(t *testing.T) {
	ctx := context.Background()
	f := newFieldFixture(t, 100, 1500)

	b, err := f.svc.Create(ctx, CreateRequest{
		EventID:   f.eventID,
		SectionID: f.sectionID,
		Quantity:  3,
		Customer:  domain.Customer{Name: "Ivan", Email: "ivan@example.com"},
	}, "")
	require.NoError(t, err)

	require.Equal(t, domain.BookingConfirmed, b.Status)
	require.Equal(t, 3, b.SeatCount)
	require.EqualValues(t, 4500, b.TotalCents)
	require.Equal(t, 97, f.available(t))

	wantPrefix := "BK-" + time.Now().Format("20060102") + "-"
	require.Equal(t, wantPrefix+"0001", b.Number)

	bw, err := f.store.Bookings().GetWithSeats(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, bw.Seats, 3)
	for _, s := range bw.Seats {
		require.Nil(t, s.SeatID)
		require.EqualValues(t, 1500, s.PriceCents)
		require.Equal(t, domain.BookingSeatActive, s.Status)
	}
}

func TestCreateNumberSequence(t *testing.T) {
	ctx := context.Background()
	f := newFieldFixture(t, 100, 1000)

	for i := 1; i <= 3; i++ {
		b, err := f.svc.Create(ctx, CreateRequest{
			EventID:   f.eventID,
			SectionID: f.sectionID,
			Quantity:  1,
			Customer:  domain.Customer{Name: "Olha"},
		}, "")
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("BK-%s-%04d", time.Now().Format("20060102"), i), b.Number)
	}
}

func TestCreateInsufficientCapacity(t *testing.T) {
	ctx := context.Background()
	f := newFieldFixture(t, 100, 1000)

	_, err := f.svc.Create(ctx, CreateRequest{
		EventID:   f.eventID,
		SectionID: f.sectionID,
		Quantity:  101,
		Customer:  domain.Customer{Name: "Ivan"},
	}, "")
	require.ErrorIs(t, err, ErrInsufficientCapacity)

	// rejected booking leaves no trace
	require.Equal(t, 100, f.available(t))
	list, err := f.store.Query().ListByEvent(ctx, f.eventID)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	f := newFieldFixture(t, 10, 1000)

	_, err := f.svc.Create(ctx, CreateRequest{
		EventID:   f.eventID,
		SectionID: f.sectionID,
		Quantity:  1,
	}, "")
	require.ErrorIs(t, err, ErrCustomerRequired)

	_, err = f.svc.Create(ctx, CreateRequest{
		EventID:   f.eventID,
		SectionID: f.sectionID,
		Customer:  domain.Customer{Name: "Ivan"},
	}, "")
	require.ErrorIs(t, err, ErrNoSeatsSelected)

	_, err = f.svc.Create(ctx, CreateRequest{
		EventID:   f.eventID,
		SectionID: f.sectionID + 99,
		Quantity:  1,
		Customer:  domain.Customer{Name: "Ivan"},
	}, "")
	require.ErrorIs(t, err, ErrSectionNotAttached)
}

func TestCreateSeatLimit(t *testing.T) {
	ctx := context.Background()
	f := newFieldFixture(t, 100, 1000)
	f.svc = New(f.store, nil, nil, nil, Config{MaxSeatsPerBooking: 5})

	_, err := f.svc.Create(ctx, CreateRequest{
		EventID:   f.eventID,
		SectionID: f.sectionID,
		Quantity:  6,
		Customer:  domain.Customer{Name: "Ivan"},
	}, "")
	require.ErrorIs(t, err, ErrTooManySeats)
	require.Equal(t, 100, f.available(t))

	_, err = f.svc.Create(ctx, CreateRequest{
		EventID:   f.eventID,
		SectionID: f.sectionID,
		Quantity:  5,
		Customer:  domain.Customer{Name: "Ivan"},
	}, "")
	require.NoError(t, err)
}

func TestCreateTribuneSeats(t *testing.T) {
	ctx := context.Background()
	f := newTribuneFixture(t, 2, 2, 2000)
	ids := f.seatIDs(t, 2)

	b, err := f.svc.Create(ctx, CreateRequest{
		EventID:   f.eventID,
		SectionID: f.sectionID,
		SeatIDs:   ids,
		Customer:  domain.Customer{Name: "Ivan"},
	}, "")
	require.NoError(t, err)
	require.Equal(t, 2, b.SeatCount)
	require.Equal(t, 2, f.available(t))

	bw, err := f.store.Bookings().GetWithSeats(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, bw.Seats, 2)
	require.NotNil(t, bw.Seats[0].SeatID)
	require.Equal(t, "A", *bw.Seats[0].RowLabel)
	require.Equal(t, 1, *bw.Seats[0].SeatNumber)
}

func TestCreateTribuneSeatConflicts(t *testing.T) {
	ctx := context.Background()
	f := newTribuneFixture(t, 2, 2, 2000)
	ids := f.seatIDs(t, 2)

	_, err := f.svc.Create(ctx, CreateRequest{
		EventID:   f.eventID,
		SectionID: f.sectionID,
		SeatIDs:   []int64{ids[0], ids[0]},
		Customer:  domain.Customer{Name: "Ivan"},
	}, "")
	require.ErrorIs(t, err, ErrDuplicateSeats)

	_, err = f.svc.Create(ctx, CreateRequest{
		EventID:   f.eventID,
		SectionID: f.sectionID,
		SeatIDs:   []int64{ids[0], 9999},
		Customer:  domain.Customer{Name: "Ivan"},
	}, "")
	require.ErrorIs(t, err, ErrSeatNotInSection)

	_, err = f.svc.Create(ctx, CreateRequest{
		EventID:   f.eventID,
		SectionID: f.sectionID,
		SeatIDs:   ids,
		Customer:  domain.Customer{Name: "Ivan"},
	}, "")
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, CreateRequest{
		EventID:   f.eventID,
		SectionID: f.sectionID,
		SeatIDs:   []int64{ids[0]},
		Customer:  domain.Customer{Name: "Petro"},
	}, "")
	require.ErrorIs(t, err, ErrSeatsAlreadyBooked)
	require.Equal(t, 2, f.available(t))
}

func TestCancelRestoresCapacity(t *testing.T) {
	ctx := context.Background()
	f := newFieldFixture(t, 100, 1000)

	b, err := f.svc.Create(ctx, CreateRequest{
		EventID:   f.eventID,
		SectionID: f.sectionID,
		Quantity:  3,
		Customer:  domain.Customer{Name: "Ivan"},
	}, "")
	require.NoError(t, err)
	require.Equal(t, 97, f.available(t))

	require.NoError(t, f.svc.Cancel(ctx, b.ID))
	require.Equal(t, 100, f.available(t))

	bw, err := f.store.Bookings().GetWithSeats(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, domain.BookingCancelled, bw.Booking.Status)
	for _, s := range bw.Seats {
		require.Equal(t, domain.BookingSeatCancelled, s.Status)
	}

	// second cancel must not restore capacity again
	err = f.svc.Cancel(ctx, b.ID)
	require.ErrorIs(t, err, ErrAlreadyCancelled)
	require.Equal(t, 100, f.available(t))
}

func TestCancelNotFound(t *testing.T) {
	f := newFieldFixture(t, 10, 1000)
	require.ErrorIs(t, f.svc.Cancel(context.Background(), 777), ErrBookingNotFound)
}

func TestDeleteRestoresConfirmed(t *testing.T) {
	ctx := context.Background()
	f := newFieldFixture(t, 100, 1000)

	b, err := f.svc.Create(ctx, CreateRequest{
		EventID:   f.eventID,
		SectionID: f.sectionID,
		Quantity:  5,
		Customer:  domain.Customer{Name: "Ivan"},
	}, "")
	require.NoError(t, err)
	require.Equal(t, 95, f.available(t))

	require.NoError(t, f.svc.Delete(ctx, b.ID))
	require.Equal(t, 100, f.available(t))

	_, err = f.store.Bookings().GetWithSeats(ctx, b.ID)
	require.Error(t, err)

	require.ErrorIs(t, f.svc.Delete(ctx, b.ID), ErrBookingNotFound)
}

func TestDeleteCancelledDoesNotRestoreTwice(t *testing.T) {
	ctx := context.Background()
	f := newFieldFixture(t, 100, 1000)

	b, err := f.svc.Create(ctx, CreateRequest{
		EventID:   f.eventID,
		SectionID: f.sectionID,
		Quantity:  4,
		Customer:  domain.Customer{Name: "Ivan"},
	}, "")
	require.NoError(t, err)

	require.NoError(t, f.svc.Cancel(ctx, b.ID))
	require.Equal(t, 100, f.available(t))

	require.NoError(t, f.svc.Delete(ctx, b.ID))
	require.Equal(t, 100, f.available(t))
}

func TestConcurrentCreateLastSpot(t *testing.T) {
	ctx := context.Background()
	f := newFieldFixture(t, 1, 1000)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Create(ctx, CreateRequest{
				EventID:   f.eventID,
				SectionID: f.sectionID,
				Quantity:  1,
				Customer:  domain.Customer{Name: fmt.Sprintf("fan-%d", i)},
			}, "")
		}(i)
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, ErrInsufficientCapacity)
		}
	}

	require.Equal(t, 1, succeeded)
	require.Equal(t, 0, f.available(t))

	list, err := f.store.Query().ListByEvent(ctx, f.eventID)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestSplitCents(t *testing.T) {
	cases := []struct {
		total int64
		count int
		want  []int64
	}{
		{3000, 3, []int64{1000, 1000, 1000}},
		{100, 3, []int64{34, 33, 33}},
		{101, 2, []int64{51, 50}},
		{5, 4, []int64{2, 1, 1, 1}},
		{0, 2, []int64{0, 0}},
	}

	for _, tc := range cases {
		got := splitCents(tc.total, tc.count)
		require.Equal(t, tc.want, got, "total=%d count=%d", tc.total, tc.count)

		var sum int64
		for _, v := range got {
			sum += v
		}
		require.Equal(t, tc.total, sum)
	}
}
