// Package memory provides an in-memory repository.Store. It backs service
// tests and mirrors the transactional behavior of the postgres store: RunTx
// serializes units of work and rolls the state back on error.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stadix/stadix/internal/domain"
	"github.com/stadix/stadix/internal/repository"
)

type ledgerKey struct {
	eventID   int64
	sectionID int64
}

type state struct {
	sections     map[int64]domain.Section
	seats        map[int64]domain.Seat
	events       map[int64]domain.Event
	ledger       map[ledgerKey]domain.EventSection
	bookings     map[int64]domain.Booking
	bookingSeats map[int64]domain.BookingSeat

	nextSectionID     int64
	nextSeatID        int64
	nextEventID       int64
	nextBookingID     int64
	nextBookingSeatID int64
}

func newState() *state {
	return &state{
		sections:     map[int64]domain.Section{},
		seats:        map[int64]domain.Seat{},
		events:       map[int64]domain.Event{},
		ledger:       map[ledgerKey]domain.EventSection{},
		bookings:     map[int64]domain.Booking{},
		bookingSeats: map[int64]domain.BookingSeat{},
	}
}

func (s *state) clone() *state {
	cp := &state{
		sections:          make(map[int64]domain.Section, len(s.sections)),
		seats:             make(map[int64]domain.Seat, len(s.seats)),
		events:            make(map[int64]domain.Event, len(s.events)),
		ledger:            make(map[ledgerKey]domain.EventSection, len(s.ledger)),
		bookings:          make(map[int64]domain.Booking, len(s.bookings)),
		bookingSeats:      make(map[int64]domain.BookingSeat, len(s.bookingSeats)),
		nextSectionID:     s.nextSectionID,
		nextSeatID:        s.nextSeatID,
		nextEventID:       s.nextEventID,
		nextBookingID:     s.nextBookingID,
		nextBookingSeatID: s.nextBookingSeatID,
	}
	for k, v := range s.sections {
		cp.sections[k] = v
	}
	for k, v := range s.seats {
		cp.seats[k] = v
	}
	for k, v := range s.events {
		cp.events[k] = v
	}
	for k, v := range s.ledger {
		cp.ledger[k] = v
	}
	for k, v := range s.bookings {
		cp.bookings[k] = v
	}
	for k, v := range s.bookingSeats {
		cp.bookingSeats[k] = v
	}
	return cp
}

type Store struct {
	mu sync.Mutex
	st *state
}

func NewStore() *Store {
	return &Store{st: newState()}
}

// RunTx serializes transactions with a mutex and restores a pre-transaction
// snapshot when fn fails, so partial writes never survive.
func (s *Store) RunTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()

	if err := fn(ctx, &view{store: s, inTx: true}); err != nil {
		s.st = snapshot
		return err
	}

	return nil
}

func (s *Store) Ledger() repository.LedgerRepo    { return &ledgerRepo{store: s} }
func (s *Store) Seats() repository.SeatRepo       { return &seatRepo{store: s} }
func (s *Store) Bookings() repository.BookingRepo { return &bookingRepo{store: s} }
func (s *Store) Query() repository.QueryRepo      { return &queryRepo{store: s} }
func (s *Store) Admin() repository.AdminRepo      { return &adminRepo{store: s} }

type view struct {
	store *Store
	inTx  bool
}

func (v *view) Ledger() repository.LedgerRepo    { return &ledgerRepo{store: v.store, inTx: true} }
func (v *view) Seats() repository.SeatRepo       { return &seatRepo{store: v.store, inTx: true} }
func (v *view) Bookings() repository.BookingRepo { return &bookingRepo{store: v.store, inTx: true} }
func (v *view) Query() repository.QueryRepo      { return &queryRepo{store: v.store, inTx: true} }
func (v *view) Admin() repository.AdminRepo      { return &adminRepo{store: v.store, inTx: true} }

// lock acquires the store mutex for pool-bound repos; tx-bound repos already
// hold it via RunTx.
func lock(s *Store, inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

type ledgerRepo struct {
	store *Store
	inTx  bool
}

func (r *ledgerRepo) Decrement(ctx context.Context, eventID, sectionID int64, amount int) error {
	defer lock(r.store, r.inTx)()

	k := ledgerKey{eventID, sectionID}
	es, ok := r.store.st.ledger[k]
	if !ok {
		return repository.ErrNotFound
	}

	if es.Available < amount {
		return repository.ErrInsufficientCapacity
	}

	es.Available -= amount
	r.store.st.ledger[k] = es

	return nil
}

func (r *ledgerRepo) Increment(ctx context.Context, eventID, sectionID int64, amount int) error {
	defer lock(r.store, r.inTx)()

	k := ledgerKey{eventID, sectionID}
	es, ok := r.store.st.ledger[k]
	if !ok {
		return repository.ErrNotFound
	}

	es.Available += amount
	r.store.st.ledger[k] = es

	return nil
}

func (r *ledgerRepo) Get(ctx context.Context, eventID, sectionID int64) (*domain.EventSection, error) {
	defer lock(r.store, r.inTx)()

	es, ok := r.store.st.ledger[ledgerKey{eventID, sectionID}]
	if !ok {
		return nil, repository.ErrNotFound
	}

	return &es, nil
}

type seatRepo struct {
	store *Store
	inTx  bool
}

func (r *seatRepo) GetSection(ctx context.Context, sectionID int64) (*domain.Section, error) {
	defer lock(r.store, r.inTx)()

	s, ok := r.store.st.sections[sectionID]
	if !ok {
		return nil, repository.ErrNotFound
	}

	return &s, nil
}

func (r *seatRepo) SeatsByIDs(ctx context.Context, sectionID int64, seatIDs []int64) ([]domain.Seat, error) {
	defer lock(r.store, r.inTx)()

	var out []domain.Seat
	for _, id := range seatIDs {
		if s, ok := r.store.st.seats[id]; ok && s.SectionID == sectionID {
			out = append(out, s)
		}
	}

	sortSeats(out)

	return out, nil
}

func (r *seatRepo) ActiveBookedSeatIDs(ctx context.Context, eventID int64, seatIDs []int64) ([]int64, error) {
	defer lock(r.store, r.inTx)()

	want := make(map[int64]bool, len(seatIDs))
	for _, id := range seatIDs {
		want[id] = true
	}

	var out []int64
	for _, bs := range r.store.st.bookingSeats {
		if bs.Status != domain.BookingSeatActive || bs.SeatID == nil || !want[*bs.SeatID] {
			continue
		}
		if b, ok := r.store.st.bookings[bs.BookingID]; ok && b.EventID == eventID {
			out = append(out, *bs.SeatID)
		}
	}

	return out, nil
}

func (r *seatRepo) CountActiveBookingSeats(ctx context.Context, sectionID int64) (int64, error) {
	defer lock(r.store, r.inTx)()

	var n int64
	for _, bs := range r.store.st.bookingSeats {
		if bs.Status != domain.BookingSeatActive || bs.SeatID == nil {
			continue
		}
		if seat, ok := r.store.st.seats[*bs.SeatID]; ok && seat.SectionID == sectionID {
			n++
		}
	}

	return n, nil
}

func (r *seatRepo) ReplaceLayout(ctx context.Context, sectionID int64, seats []domain.Seat) (int64, error) {
	defer lock(r.store, r.inTx)()

	for id, s := range r.store.st.seats {
		if s.SectionID == sectionID {
			delete(r.store.st.seats, id)
		}
	}

	for _, s := range seats {
		r.store.st.nextSeatID++
		s.ID = r.store.st.nextSeatID
		s.SectionID = sectionID
		r.store.st.seats[s.ID] = s
	}

	return int64(len(seats)), nil
}

func (r *seatRepo) SeatsBySection(ctx context.Context, sectionID int64) ([]domain.Seat, error) {
	defer lock(r.store, r.inTx)()

	var out []domain.Seat
	for _, s := range r.store.st.seats {
		if s.SectionID == sectionID {
			out = append(out, s)
		}
	}

	sortSeats(out)

	return out, nil
}

type bookingRepo struct {
	store *Store
	inTx  bool
}

func (r *bookingRepo) Insert(ctx context.Context, b *domain.Booking, seats []domain.BookingSeat) (int64, error) {
	defer lock(r.store, r.inTx)()

	st := r.store.st

	st.nextBookingID++
	b.ID = st.nextBookingID
	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now
	st.bookings[b.ID] = *b

	for _, s := range seats {
		st.nextBookingSeatID++
		s.ID = st.nextBookingSeatID
		s.BookingID = b.ID
		st.bookingSeats[s.ID] = s
	}

	return b.ID, nil
}

func (r *bookingRepo) GetWithSeats(ctx context.Context, id int64) (*domain.BookingWithSeats, error) {
	defer lock(r.store, r.inTx)()

	return getWithSeats(r.store.st, id)
}

func (r *bookingRepo) MarkCancelled(ctx context.Context, id int64) error {
	defer lock(r.store, r.inTx)()

	st := r.store.st

	b, ok := st.bookings[id]
	if !ok || b.Status != domain.BookingConfirmed {
		return repository.ErrNotFound
	}

	b.Status = domain.BookingCancelled
	b.UpdatedAt = time.Now()
	st.bookings[id] = b

	for sid, bs := range st.bookingSeats {
		if bs.BookingID == id {
			bs.Status = domain.BookingSeatCancelled
			st.bookingSeats[sid] = bs
		}
	}

	return nil
}

func (r *bookingRepo) Delete(ctx context.Context, id int64) error {
	defer lock(r.store, r.inTx)()

	st := r.store.st

	if _, ok := st.bookings[id]; !ok {
		return repository.ErrNotFound
	}

	for sid, bs := range st.bookingSeats {
		if bs.BookingID == id {
			delete(st.bookingSeats, sid)
		}
	}

	delete(st.bookings, id)

	return nil
}

func (r *bookingRepo) CountByDay(ctx context.Context, day time.Time) (int64, error) {
	defer lock(r.store, r.inTx)()

	return countByDay(r.store.st, day), nil
}

type queryRepo struct {
	store *Store
	inTx  bool
}

func (r *queryRepo) GetBooking(ctx context.Context, id int64) (*domain.BookingWithSeats, error) {
	defer lock(r.store, r.inTx)()

	return getWithSeats(r.store.st, id)
}

func (r *queryRepo) ListByEvent(ctx context.Context, eventID int64) ([]domain.Booking, error) {
	defer lock(r.store, r.inTx)()

	var out []domain.Booking
	for _, b := range r.store.st.bookings {
		if b.EventID == eventID {
			out = append(out, b)
		}
	}

	sortBookings(out)

	return out, nil
}

func (r *queryRepo) List(ctx context.Context, limit, offset int) ([]domain.Booking, error) {
	defer lock(r.store, r.inTx)()

	var all []domain.Booking
	for _, b := range r.store.st.bookings {
		all = append(all, b)
	}

	sortBookings(all)

	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}

	return all, nil
}

func (r *queryRepo) CountByDay(ctx context.Context, day time.Time) (int64, error) {
	defer lock(r.store, r.inTx)()

	return countByDay(r.store.st, day), nil
}

func (r *queryRepo) ConfirmedRevenue(ctx context.Context, eventID int64) (int64, error) {
	defer lock(r.store, r.inTx)()

	var cents int64
	for _, b := range r.store.st.bookings {
		if b.EventID == eventID && b.Status == domain.BookingConfirmed {
			cents += b.TotalCents
		}
	}

	return cents, nil
}

type adminRepo struct {
	store *Store
	inTx  bool
}

func (r *adminRepo) CreateSection(ctx context.Context, s *domain.Section) (int64, error) {
	defer lock(r.store, r.inTx)()

	r.store.st.nextSectionID++
	s.ID = r.store.st.nextSectionID
	r.store.st.sections[s.ID] = *s

	return s.ID, nil
}

func (r *adminRepo) ListSections(ctx context.Context) ([]domain.Section, error) {
	defer lock(r.store, r.inTx)()

	var out []domain.Section
	for _, s := range r.store.st.sections {
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out, nil
}

func (r *adminRepo) CreateEvent(ctx context.Context, name string, starts time.Time) (int64, error) {
	defer lock(r.store, r.inTx)()

	r.store.st.nextEventID++
	id := r.store.st.nextEventID
	r.store.st.events[id] = domain.Event{ID: id, Name: name, Starts: starts}

	return id, nil
}

func (r *adminRepo) AttachEventSection(ctx context.Context, es *domain.EventSection) error {
	defer lock(r.store, r.inTx)()

	k := ledgerKey{es.EventID, es.SectionID}
	if _, ok := r.store.st.ledger[k]; ok {
		return repository.ErrConflict
	}

	es.Available = es.TotalCapacity
	r.store.st.ledger[k] = *es

	return nil
}

func getWithSeats(st *state, id int64) (*domain.BookingWithSeats, error) {
	b, ok := st.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}

	out := &domain.BookingWithSeats{Booking: b}
	for _, bs := range st.bookingSeats {
		if bs.BookingID == id {
			out.Seats = append(out.Seats, bs)
		}
	}

	sort.Slice(out.Seats, func(i, j int) bool { return out.Seats[i].ID < out.Seats[j].ID })

	return out, nil
}

func countByDay(st *state, day time.Time) int64 {
	prefix := "BK-" + day.Format("20060102") + "-"

	var n int64
	for _, b := range st.bookings {
		if len(b.Number) >= len(prefix) && b.Number[:len(prefix)] == prefix {
			n++
		}
	}

	return n
}

func sortSeats(seats []domain.Seat) {
	sort.Slice(seats, func(i, j int) bool {
		if seats[i].RowLabel != seats[j].RowLabel {
			return seats[i].RowLabel < seats[j].RowLabel
		}
		return seats[i].SeatNumber < seats[j].SeatNumber
	})
}

func sortBookings(bs []domain.Booking) {
	sort.Slice(bs, func(i, j int) bool {
		if bs[i].CreatedAt.Equal(bs[j].CreatedAt) {
			return bs[i].ID > bs[j].ID
		}
		return bs[i].CreatedAt.After(bs[j].CreatedAt)
	})
}
