package admin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stadix/stadix/internal/domain"
	"github.com/stadix/stadix/internal/repository/memory"
	"github.com/stadix/stadix/internal/service/seats"
)

func newService(t *testing.T) (*memory.Store, *Service) {
	t.Helper()
	store := memory.NewStore()
	return store, New(store, seats.New(store))
}

func TestCreateSectionTribuneGeneratesSeats(t *testing.T) {
	ctx := context.Background()
	store, svc := newService(t)

	sec, err := svc.CreateSection(ctx, domain.Section{
		Name:        "North Tribune",
		Type:        domain.SectionTribune,
		TotalRows:   4,
		SeatsPerRow: 10,
	})
	require.NoError(t, err)
	require.NotZero(t, sec.ID)
	require.Equal(t, 40, sec.Capacity())

	list, err := store.Seats().SeatsBySection(ctx, sec.ID)
	require.NoError(t, err)
	require.Len(t, list, 40)
}

func TestCreateSectionField(t *testing.T) {
	ctx := context.Background()
	store, svc := newService(t)

	sec, err := svc.CreateSection(ctx, domain.Section{
		Name:             "South Field",
		Type:             domain.SectionField,
		StandingCapacity: 500,
	})
	require.NoError(t, err)
	require.Equal(t, 500, sec.Capacity())

	list, err := store.Seats().SeatsBySection(ctx, sec.ID)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestCreateSectionValidation(t *testing.T) {
	ctx := context.Background()
	_, svc := newService(t)

	_, err := svc.CreateSection(ctx, domain.Section{Type: domain.SectionTribune})
	require.ErrorIs(t, err, ErrInvalidSection)

	_, err = svc.CreateSection(ctx, domain.Section{
		Name: "No Rows",
		Type: domain.SectionTribune,
	})
	require.ErrorIs(t, err, ErrInvalidSection)

	_, err = svc.CreateSection(ctx, domain.Section{
		Name: "No Capacity",
		Type: domain.SectionField,
	})
	require.ErrorIs(t, err, ErrInvalidSection)

	_, err = svc.CreateSection(ctx, domain.Section{
		Name: "Weird",
		Type: "BALCONY",
	})
	require.ErrorIs(t, err, ErrInvalidSection)
}

func TestAttachSectionDefaults(t *testing.T) {
	ctx := context.Background()
	store, svc := newService(t)

	sec, err := svc.CreateSection(ctx, domain.Section{
		Name:             "East Field",
		Type:             domain.SectionField,
		StandingCapacity: 120,
	})
	require.NoError(t, err)

	eventID, err := svc.CreateEvent(ctx, "Friendly", time.Now().Add(time.Hour))
	require.NoError(t, err)

	es, err := svc.AttachSection(ctx, eventID, sec.ID, "", 1500, 0)
	require.NoError(t, err)
	require.Equal(t, "East Field", es.Title)
	require.Equal(t, 120, es.TotalCapacity)
	require.Equal(t, 120, es.Available)

	got, err := store.Ledger().Get(ctx, eventID, sec.ID)
	require.NoError(t, err)
	require.Equal(t, 120, got.Available)
}

func TestAttachSectionConflicts(t *testing.T) {
	ctx := context.Background()
	_, svc := newService(t)

	sec, err := svc.CreateSection(ctx, domain.Section{
		Name:             "East Field",
		Type:             domain.SectionField,
		StandingCapacity: 120,
	})
	require.NoError(t, err)

	eventID, err := svc.CreateEvent(ctx, "Friendly", time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = svc.AttachSection(ctx, eventID, sec.ID, "", 1500, 0)
	require.NoError(t, err)

	_, err = svc.AttachSection(ctx, eventID, sec.ID, "", 1500, 0)
	require.ErrorIs(t, err, ErrAlreadyAttached)

	_, err = svc.AttachSection(ctx, eventID, 999, "", 1500, 0)
	require.ErrorIs(t, err, ErrSectionNotFound)
}

func TestCreateEventValidation(t *testing.T) {
	_, svc := newService(t)

	_, err := svc.CreateEvent(context.Background(), "", time.Now())
	require.ErrorIs(t, err, ErrInvalidEvent)
}
