package service

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	bookingserrors "turfbook/internal/bookings/errors"
	"turfbook/internal/bookings/repository"
	"turfbook/internal/slots/lock"
	slotrepo "turfbook/internal/slots/repository"
	venuerepo "turfbook/internal/venues/repository"
	mongotx "turfbook/pkg/db/mongo"
	"turfbook/pkg/model"
)

// memStore backs both fake repositories. Writes made inside a transaction
// record an undo step so a failed transaction leaves no trace.
type memStore struct {
	mu       sync.Mutex
	bookings map[string]*model.Booking
	slots    map[string]*model.Slot

	// casFailures makes the next N swaps fail as if another writer won.
	casFailures int
	casCalls    int

	// commitAborts makes the next N commits fail the way the server aborts a
	// transaction on a write conflict.
	commitAborts int
	txCalls      int
}

func newMemStore() *memStore {
	return &memStore{
		bookings: map[string]*model.Booking{},
		slots:    map[string]*model.Slot{},
	}
}

type txKey struct{}

type txLog struct {
	undo []func()
}

func recordUndo(ctx context.Context, fn func()) {
	if tx, ok := ctx.Value(txKey{}).(*txLog); ok {
		tx.undo = append(tx.undo, fn)
	}
}

func cloneBooking(b *model.Booking) *model.Booking {
	c := *b
	return &c
}

func cloneSlot(s *model.Slot) *model.Slot {
	c := *s
	c.BookingRefs = slices.Clone(s.BookingRefs)
	return &c
}

// --- booking ledger ---

type fakeBookingRepo struct {
	store *memStore
}

var _ repository.BookingRepository = (*fakeBookingRepo)(nil)

func (r *fakeBookingRepo) Create(ctx context.Context, booking *model.Booking) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if booking.ID == "" {
		booking.ID = repository.NewBookingID()
	}
	r.store.bookings[booking.ID] = cloneBooking(booking)
	id := booking.ID
	recordUndo(ctx, func() { delete(r.store.bookings, id) })
	return nil
}

func (r *fakeBookingRepo) FindByID(_ context.Context, id string) (*model.Booking, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	b, ok := r.store.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	return cloneBooking(b), nil
}

func (r *fakeBookingRepo) matching(filter model.BookingFilter) []*model.Booking {
	var out []*model.Booking
	for _, b := range r.store.bookings {
		if filter.RequesterEmail != "" && b.Requester.Email != filter.RequesterEmail {
			continue
		}
		if filter.VenueID != "" && b.VenueID != filter.VenueID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		out = append(out, cloneBooking(b))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *fakeBookingRepo) List(_ context.Context, filter model.BookingFilter) ([]*model.Booking, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	all := r.matching(filter)
	start := min(int(filter.Offset), len(all))
	end := min(start+filter.Limit, len(all))
	return all[start:end], nil
}

func (r *fakeBookingRepo) Count(_ context.Context, filter model.BookingFilter) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return int64(len(r.matching(filter))), nil
}

func (r *fakeBookingRepo) UpdateStatus(ctx context.Context, id string, from string, to string) (*model.Booking, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	b, ok := r.store.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	if b.Status != from {
		return nil, bookingserrors.ErrStatusChanged
	}
	prev := cloneBooking(b)
	b.Status = to
	if to == model.StatusCancelled {
		now := time.Now().UTC()
		b.CancelledAt = &now
	}
	recordUndo(ctx, func() { r.store.bookings[id] = prev })
	return cloneBooking(b), nil
}

func (r *fakeBookingRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	tx := &txLog{}
	err := fn(context.WithValue(ctx, txKey{}, tx))

	r.store.mu.Lock()
	r.store.txCalls++
	if err == nil && r.store.commitAborts > 0 {
		r.store.commitAborts--
		err = fmt.Errorf("%w: WriteConflict", mongotx.ErrTransientTransaction)
	}
	r.store.mu.Unlock()

	if err != nil {
		r.store.mu.Lock()
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		r.store.mu.Unlock()
	}
	return err
}

// --- slot store ---

type fakeSlotRepo struct {
	store *memStore
}

var _ slotrepo.SlotRepository = (*fakeSlotRepo)(nil)

func (r *fakeSlotRepo) GetOrCreate(_ context.Context, key model.SlotKey) (*model.Slot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	s, ok := r.store.slots[key.String()]
	if !ok {
		s = model.NewSlot(key)
		r.store.slots[key.String()] = s
	}
	return cloneSlot(s), nil
}

func (r *fakeSlotRepo) Get(_ context.Context, key model.SlotKey) (*model.Slot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	s, ok := r.store.slots[key.String()]
	if !ok {
		return nil, slotrepo.ErrNotFound
	}
	return cloneSlot(s), nil
}

func (r *fakeSlotRepo) CompareAndSwap(_ context.Context, key model.SlotKey, expectedVersion int64, next *model.Slot) (*model.Slot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.casCalls++
	if r.store.casFailures > 0 {
		r.store.casFailures--
		return nil, slotrepo.ErrVersionConflict
	}

	current, ok := r.store.slots[key.String()]
	if !ok || current.Version != expectedVersion {
		return nil, slotrepo.ErrVersionConflict
	}
	stored := cloneSlot(next)
	stored.Version = expectedVersion + 1
	r.store.slots[key.String()] = stored
	return cloneSlot(stored), nil
}

func (r *fakeSlotRepo) ListByVenueAndDate(_ context.Context, venueID, date string) ([]*model.Slot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []*model.Slot
	for _, s := range r.store.slots {
		if s.VenueID == venueID && s.Date == date {
			out = append(out, cloneSlot(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out, nil
}

// --- collaborators ---

type fakeVenues struct {
	mu     sync.Mutex
	venues map[string]*model.Venue
}

func (f *fakeVenues) GetVenue(_ context.Context, id string) (*model.Venue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.venues[id]
	if !ok {
		return nil, venuerepo.ErrNotFound
	}
	c := *v
	return &c, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*model.BookingEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event *model.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type failingLocker struct {
	err error
}

func (f failingLocker) Acquire(context.Context, model.SlotKey) (lock.ReleaseFunc, error) {
	return nil, f.err
}
