package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylight-cinema/box-office/internal/model"
	"github.com/skylight-cinema/box-office/internal/queue"
	"github.com/skylight-cinema/box-office/internal/repository"
	"github.com/skylight-cinema/box-office/internal/selection"
)

// fakeBookingStore is an in-memory BookingStore.  findErr poisons the
// filtered Find variant only, so the duplicate guard's fallback path
// can be exercised.
type fakeBookingStore struct {
	nextID  uint64
	rows    []model.Booking
	findErr error // returned when the filter carries a SeatCount
	allErr  error // returned by every Find
	createN int
}

func (f *fakeBookingStore) Create(_ context.Context, b *model.Booking) error {
	f.createN++
	f.nextID++
	b.ID = f.nextID
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = b.CreatedAt
	f.rows = append(f.rows, *b)
	return nil
}

func (f *fakeBookingStore) GetByID(_ context.Context, id uint64) (*model.Booking, error) {
	for i := range f.rows {
		if f.rows[i].ID == id {
			b := f.rows[i]
			return &b, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeBookingStore) Find(_ context.Context, filt repository.BookingFilter) ([]model.Booking, error) {
	if f.allErr != nil {
		return nil, f.allErr
	}
	if filt.SeatCount > 0 && f.findErr != nil {
		return nil, f.findErr
	}
	var out []model.Booking
	for _, b := range f.rows {
		if filt.Date != nil && !sameDay(b.ShowDate, *filt.Date) {
			continue
		}
		if filt.Show != "" && b.Show != filt.Show {
			continue
		}
		if filt.Status != "" && b.Status != filt.Status {
			continue
		}
		if filt.SeatCount > 0 && b.SeatCount != filt.SeatCount {
			continue
		}
		out = append(out, b)
		if filt.Limit > 0 && len(out) >= filt.Limit {
			break
		}
	}
	return out, nil
}

func (f *fakeBookingStore) Update(_ context.Context, id uint64, p repository.BookingPatch) (*model.Booking, error) {
	for i := range f.rows {
		if f.rows[i].ID == id {
			if p.Status != nil {
				f.rows[i].Status = *p.Status
			}
			if p.Synced != nil {
				f.rows[i].Synced = *p.Synced
			}
			if p.PrintedAt != nil {
				f.rows[i].PrintedAt = p.PrintedAt
			}
			b := f.rows[i]
			return &b, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeBookingStore) Delete(_ context.Context, id uint64) error {
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeBookingStore) Count(ctx context.Context, filt repository.BookingFilter) (int64, error) {
	rows, err := f.Find(ctx, filt)
	return int64(len(rows)), err
}

func (f *fakeBookingStore) SumTotal(ctx context.Context, filt repository.BookingFilter) (int64, error) {
	rows, err := f.Find(ctx, filt)
	if err != nil {
		return 0, err
	}
	var sum int64
	for _, b := range rows {
		sum += b.TotalPrice
	}
	return sum, nil
}

func (f *fakeBookingStore) GroupByClass(ctx context.Context, filt repository.BookingFilter) ([]repository.ClassAggregate, error) {
	rows, err := f.Find(ctx, filt)
	if err != nil {
		return nil, err
	}
	byClass := map[string]*repository.ClassAggregate{}
	for _, b := range rows {
		agg, ok := byClass[b.ClassLabel]
		if !ok {
			agg = &repository.ClassAggregate{ClassLabel: b.ClassLabel}
			byClass[b.ClassLabel] = agg
		}
		agg.Count++
		agg.Total += b.TotalPrice
	}
	out := make([]repository.ClassAggregate, 0, len(byClass))
	for _, agg := range byClass {
		out = append(out, *agg)
	}
	return out, nil
}

func sameDay(a, b time.Time) bool {
	return a.UTC().Format("2006-01-02") == b.UTC().Format("2006-01-02")
}

// capturingPublisher records published events.
type capturingPublisher struct {
	events []queue.BookingCreatedEvent
	err    error
}

func (p *capturingPublisher) PublishBookingCreated(_ context.Context, ev queue.BookingCreatedEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

func newTestService(store *fakeBookingStore, pub EventPublisher) (*BookingService, *selection.Cache) {
	sel := selection.NewCache()
	return NewBookingService(store, sel, pub), sel
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestBookingCreate(t *testing.T) {
	store := &fakeBookingStore{}
	pub := &capturingPublisher{}
	svc, sel := newTestService(store, pub)

	date := day("2024-03-01")
	sel.Set(date, model.ShowEvening, []string{"SC-A1", "SC-A2", "SC-A3"})

	b, dup, err := svc.Create(context.Background(), CreateBookingInput{
		Date:       date,
		Show:       model.ShowEvening,
		Screen:     "Screen 1",
		MovieTitle: "Interstellar",
		Seats:      []string{"SC-A1", "SC-A2"},
		TotalPrice: 300,
	})
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.False(t, dup)
	assert.Equal(t, 2, b.SeatCount)
	assert.Equal(t, int64(150), b.PricePerSeat)
	assert.Equal(t, "SOFA", b.ClassLabel)
	assert.Equal(t, model.BookingConfirmed, b.Status)
	assert.Equal(t, model.SourceCounter, b.Source)
	require.NotNil(t, b.PrintedAt)

	// The sold seats left the selection; the third one stays.
	assert.ElementsMatch(t, []string{"SC-A3"}, sel.Get(date, model.ShowEvening))

	require.Len(t, pub.events, 1)
	assert.Equal(t, b.ID, pub.events[0].BookingID)
	assert.False(t, pub.events[0].Duplicate)
}

func TestBookingCreateValidation(t *testing.T) {
	svc, _ := newTestService(&fakeBookingStore{}, nil)
	date := day("2024-03-01")

	_, _, err := svc.Create(context.Background(), CreateBookingInput{
		Show: model.ShowEvening, Seats: []string{"G-1"}, TotalPrice: 100,
	})
	assert.ErrorIs(t, err, ErrMissingDate)

	_, _, err = svc.Create(context.Background(), CreateBookingInput{
		Date: date, Show: model.ShowEvening, TotalPrice: 100,
	})
	assert.ErrorIs(t, err, ErrNoSeats)

	// Empty labels do not count as seats.
	_, _, err = svc.Create(context.Background(), CreateBookingInput{
		Date: date, Show: model.ShowEvening, Seats: []string{"", ""}, TotalPrice: 100,
	})
	assert.ErrorIs(t, err, ErrNoSeats)

	_, _, err = svc.Create(context.Background(), CreateBookingInput{
		Date: date, Show: model.ShowEvening, Seats: []string{"G-1"}, TotalPrice: -1,
	})
	assert.ErrorIs(t, err, ErrNegativePrice)
}

func TestBookingCreateDuplicateReturnsOriginal(t *testing.T) {
	store := &fakeBookingStore{}
	svc, _ := newTestService(store, nil)
	date := day("2024-03-01")

	first, dup, err := svc.Create(context.Background(), CreateBookingInput{
		Date: date, Show: model.ShowEvening,
		Seats: []string{"SC-A1", "SC-A2"}, TotalPrice: 300,
	})
	require.NoError(t, err)
	require.False(t, dup)

	// Same seat set in a different order is still the same booking.
	second, dup, err := svc.Create(context.Background(), CreateBookingInput{
		Date: date, Show: model.ShowEvening,
		Seats: []string{"SC-A2", "SC-A1"}, TotalPrice: 300,
	})
	require.NoError(t, err)
	assert.True(t, dup)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, store.createN)
}

func TestBookingCreateDistinctSeatSetsBothInsert(t *testing.T) {
	store := &fakeBookingStore{}
	svc, _ := newTestService(store, nil)
	date := day("2024-03-01")

	_, _, err := svc.Create(context.Background(), CreateBookingInput{
		Date: date, Show: model.ShowEvening,
		Seats: []string{"SC-A1", "SC-A2"}, TotalPrice: 300,
	})
	require.NoError(t, err)

	// Same count, one seat different: not a duplicate.
	_, dup, err := svc.Create(context.Background(), CreateBookingInput{
		Date: date, Show: model.ShowEvening,
		Seats: []string{"SC-A1", "SC-A3"}, TotalPrice: 300,
	})
	require.NoError(t, err)
	assert.False(t, dup)
	assert.Equal(t, 2, store.createN)
}

func TestBookingCreateMixedClassLabel(t *testing.T) {
	svc, _ := newTestService(&fakeBookingStore{}, nil)

	b, _, err := svc.Create(context.Background(), CreateBookingInput{
		Date: day("2024-03-01"), Show: model.ShowNight,
		Seats: []string{"SC-A1", "G-5"}, TotalPrice: 250,
	})
	require.NoError(t, err)
	assert.Equal(t, "MIXED", b.ClassLabel)
}

func TestBookingCreatePublisherFailureDoesNotFailSale(t *testing.T) {
	store := &fakeBookingStore{}
	pub := &capturingPublisher{err: errors.New("broker down")}
	svc, _ := newTestService(store, pub)

	b, _, err := svc.Create(context.Background(), CreateBookingInput{
		Date: day("2024-03-01"), Show: model.ShowMorning,
		Seats: []string{"S-1"}, TotalPrice: 80,
	})
	require.NoError(t, err)
	assert.NotZero(t, b.ID)
}

func TestBookingStats(t *testing.T) {
	store := &fakeBookingStore{}
	svc, _ := newTestService(store, nil)
	date := day("2024-03-01")

	for _, in := range []CreateBookingInput{
		{Date: date, Show: model.ShowEvening, Seats: []string{"SC-A1"}, TotalPrice: 150},
		{Date: date, Show: model.ShowEvening, Seats: []string{"G-1", "G-2"}, TotalPrice: 200},
		{Date: day("2024-03-02"), Show: model.ShowEvening, Seats: []string{"G-3"}, TotalPrice: 100},
	} {
		_, _, err := svc.Create(context.Background(), in)
		require.NoError(t, err)
	}

	stats, err := svc.Stats(context.Background(), &date, model.ShowEvening)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalBookings)
	assert.Equal(t, int64(350), stats.TotalRevenue)
	assert.Len(t, stats.PerClass, 2)
}

func TestBookingMarkPrinted(t *testing.T) {
	store := &fakeBookingStore{}
	svc, _ := newTestService(store, nil)

	b, _, err := svc.Create(context.Background(), CreateBookingInput{
		Date: day("2024-03-01"), Show: model.ShowMatinee,
		Seats: []string{"PL-1"}, TotalPrice: 200,
	})
	require.NoError(t, err)

	before := *b.PrintedAt
	updated, err := svc.MarkPrinted(context.Background(), b.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.PrintedAt)
	assert.False(t, updated.PrintedAt.Before(before))

	_, err = svc.MarkPrinted(context.Background(), 9999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestBookingDelete(t *testing.T) {
	store := &fakeBookingStore{}
	svc, _ := newTestService(store, nil)

	b, _, err := svc.Create(context.Background(), CreateBookingInput{
		Date: day("2024-03-01"), Show: model.ShowMatinee,
		Seats: []string{"P-1"}, TotalPrice: 120,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), b.ID))
	assert.ErrorIs(t, svc.Delete(context.Background(), b.ID), repository.ErrNotFound)
}
