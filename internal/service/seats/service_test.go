package seats

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stadix/stadix/internal/domain"
	"github.com/stadix/stadix/internal/repository/memory"
)

func TestRowLabel(t *testing.T) {
	cases := []struct {
		n    int
		want string
	}{
		{1, "A"},
		{2, "B"},
		{25, "Y"},
		{26, "Z"},
		{27, "AA"},
		{28, "AB"},
		{52, "AZ"},
		{53, "BA"},
		{702, "ZZ"},
		{703, "AAA"},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, RowLabel(tc.n), "row %d", tc.n)
	}
}

func TestLayoutTribune(t *testing.T) {
	section := domain.Section{
		ID:          1,
		Type:        domain.SectionTribune,
		TotalRows:   3,
		SeatsPerRow: 2,
	}

	got := Layout(section)
	require.Len(t, got, 6)

	require.Equal(t, "A", got[0].RowLabel)
	require.Equal(t, 1, got[0].SeatNumber)
	require.Equal(t, "A", got[1].RowLabel)
	require.Equal(t, 2, got[1].SeatNumber)
	require.Equal(t, "C", got[5].RowLabel)
	require.Equal(t, 2, got[5].SeatNumber)
}

func TestLayoutField(t *testing.T) {
	section := domain.Section{
		ID:               1,
		Type:             domain.SectionField,
		StandingCapacity: 500,
	}

	require.Empty(t, Layout(section))
}

func TestGenerateLayout(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := New(store)

	sectionID, err := store.Admin().CreateSection(ctx, &domain.Section{
		Name:        "North Tribune",
		Type:        domain.SectionTribune,
		TotalRows:   2,
		SeatsPerRow: 3,
	})
	require.NoError(t, err)

	created, err := svc.GenerateLayout(ctx, sectionID)
	require.NoError(t, err)
	require.EqualValues(t, 6, created)

	list, err := svc.ListSeats(ctx, sectionID)
	require.NoError(t, err)
	require.Len(t, list, 6)
	require.Equal(t, "A", list[0].RowLabel)
	require.Equal(t, 1, list[0].SeatNumber)
	require.Equal(t, "B", list[5].RowLabel)
	require.Equal(t, 3, list[5].SeatNumber)
}

func TestGenerateLayoutSectionNotFound(t *testing.T) {
	svc := New(memory.NewStore())

	_, err := svc.GenerateLayout(context.Background(), 42)
	require.ErrorIs(t, err, ErrSectionNotFound)
}

func TestGenerateLayoutRefusedWhileBooked(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := New(store)

	sectionID, err := store.Admin().CreateSection(ctx, &domain.Section{
		Name:        "East Tribune",
		Type:        domain.SectionTribune,
		TotalRows:   1,
		SeatsPerRow: 2,
	})
	require.NoError(t, err)

	_, err = svc.GenerateLayout(ctx, sectionID)
	require.NoError(t, err)

	seatList, err := store.Seats().SeatsBySection(ctx, sectionID)
	require.NoError(t, err)
	require.NotEmpty(t, seatList)

	seat := seatList[0]
	_, err = store.Bookings().Insert(ctx, &domain.Booking{
		EventID:   1,
		Number:    "BK-20260829-0001",
		Customer:  domain.Customer{Name: "Ivan"},
		SeatCount: 1,
		Status:    domain.BookingConfirmed,
	}, []domain.BookingSeat{{
		SectionID:  sectionID,
		SeatID:     &seat.ID,
		RowLabel:   &seat.RowLabel,
		SeatNumber: &seat.SeatNumber,
		Status:     domain.BookingSeatActive,
	}})
	require.NoError(t, err)

	_, err = svc.GenerateLayout(ctx, sectionID)
	require.ErrorIs(t, err, ErrSectionInUse)
}

func TestGenerateLayoutFieldNoop(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := New(store)

	sectionID, err := store.Admin().CreateSection(ctx, &domain.Section{
		Name:             "South Field",
		Type:             domain.SectionField,
		StandingCapacity: 300,
	})
	require.NoError(t, err)

	created, err := svc.GenerateLayout(ctx, sectionID)
	require.NoError(t, err)
	require.Zero(t, created)
}
