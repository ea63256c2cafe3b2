package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylight-cinema/box-office/internal/model"
	"github.com/skylight-cinema/box-office/internal/repository"
	"github.com/skylight-cinema/box-office/internal/selection"
)

// fakeOnlineSeatStore is an in-memory OnlineSeatStore.
type fakeOnlineSeatStore struct {
	marks   []model.OnlineSeatMark
	findErr error
}

func (f *fakeOnlineSeatStore) FindByShow(_ context.Context, date time.Time, show model.Show) ([]model.OnlineSeatMark, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	var out []model.OnlineSeatMark
	for _, m := range f.marks {
		if sameDay(m.ShowDate, date) && m.Show == show {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeOnlineSeatStore) Upsert(_ context.Context, m model.OnlineSeatMark) error {
	for i := range f.marks {
		if f.marks[i].SeatLabel == m.SeatLabel && sameDay(f.marks[i].ShowDate, m.ShowDate) && f.marks[i].Show == m.Show {
			f.marks[i] = m
			return nil
		}
	}
	f.marks = append(f.marks, m)
	return nil
}

func (f *fakeOnlineSeatStore) DeleteMany(_ context.Context, date time.Time, show model.Show, seatLabels []string) error {
	drop := map[string]struct{}{}
	for _, l := range seatLabels {
		drop[l] = struct{}{}
	}
	kept := f.marks[:0]
	for _, m := range f.marks {
		if _, ok := drop[m.SeatLabel]; ok && sameDay(m.ShowDate, date) && m.Show == show {
			continue
		}
		kept = append(kept, m)
	}
	f.marks = kept
	return nil
}

func TestSeatStatusProjection(t *testing.T) {
	bookings := &fakeBookingStore{}
	online := &fakeOnlineSeatStore{}
	sel := selection.NewCache()
	bookingSvc := NewBookingService(bookings, sel, nil)
	svc := NewSeatStatusService(bookings, online, sel)

	date := day("2024-03-01")
	show := model.ShowEvening

	// A MIXED booking still projects each seat under its own class.
	_, _, err := bookingSvc.Create(context.Background(), CreateBookingInput{
		Date: date, Show: show,
		Seats: []string{"SC-A1", "G-5"}, TotalPrice: 250,
	})
	require.NoError(t, err)

	require.NoError(t, svc.MarkOnline(context.Background(), date, show, []string{"PL-2"}))
	svc.SetSelection(date, show, []string{"S-9"})

	view := svc.Project(context.Background(), date, show)
	assert.Equal(t, map[string]string{"SC-A1": "SOFA", "G-5": "GOLD"}, view.Booked)
	assert.Equal(t, map[string]string{"PL-2": "PLATINUM"}, view.Online)
	assert.Equal(t, map[string]string{"S-9": "SELECTED"}, view.Selected)
	assert.Equal(t, 2, view.BookedCount)
	assert.Equal(t, 1, view.OnlineCount)
	assert.Equal(t, 1, view.SelectedCount)
}

func TestSeatStatusOverlapReportedInBoth(t *testing.T) {
	bookings := &fakeBookingStore{}
	online := &fakeOnlineSeatStore{}
	sel := selection.NewCache()
	bookingSvc := NewBookingService(bookings, sel, nil)
	svc := NewSeatStatusService(bookings, online, sel)

	date := day("2024-03-01")
	show := model.ShowNight

	_, _, err := bookingSvc.Create(context.Background(), CreateBookingInput{
		Date: date, Show: show, Seats: []string{"G-1"}, TotalPrice: 100,
	})
	require.NoError(t, err)
	require.NoError(t, svc.MarkOnline(context.Background(), date, show, []string{"G-1"}))

	// The conflicting channels are never reconciled; the seat shows up
	// in both maps.
	view := svc.Project(context.Background(), date, show)
	assert.Contains(t, view.Booked, "G-1")
	assert.Contains(t, view.Online, "G-1")
}

func TestSeatStatusDegradesPerSource(t *testing.T) {
	bookings := &fakeBookingStore{allErr: errors.New("db down")}
	online := &fakeOnlineSeatStore{}
	sel := selection.NewCache()
	svc := NewSeatStatusService(bookings, online, sel)

	date := day("2024-03-01")
	show := model.ShowMorning
	require.NoError(t, svc.MarkOnline(context.Background(), date, show, []string{"P-3"}))
	svc.SetSelection(date, show, []string{"S-1"})

	// The booking source fails; the other two still render.
	view := svc.Project(context.Background(), date, show)
	assert.Empty(t, view.Booked)
	assert.Equal(t, map[string]string{"P-3": "PREMIUM"}, view.Online)
	assert.Equal(t, map[string]string{"S-1": "SELECTED"}, view.Selected)
}

func TestSeatStatusCancelledBookingsExcluded(t *testing.T) {
	bookings := &fakeBookingStore{}
	online := &fakeOnlineSeatStore{}
	sel := selection.NewCache()
	bookingSvc := NewBookingService(bookings, sel, nil)
	svc := NewSeatStatusService(bookings, online, sel)

	date := day("2024-03-01")
	show := model.ShowMatinee

	b, _, err := bookingSvc.Create(context.Background(), CreateBookingInput{
		Date: date, Show: show, Seats: []string{"G-7"}, TotalPrice: 100,
	})
	require.NoError(t, err)

	cancelled := model.BookingCancelled
	_, err = bookingSvc.Update(context.Background(), b.ID, repository.BookingPatch{Status: &cancelled})
	require.NoError(t, err)

	view := svc.Project(context.Background(), date, show)
	assert.Empty(t, view.Booked)
}

func TestSeatStatusUnmarkOnline(t *testing.T) {
	bookings := &fakeBookingStore{}
	online := &fakeOnlineSeatStore{}
	svc := NewSeatStatusService(bookings, online, selection.NewCache())

	date := day("2024-03-01")
	show := model.ShowEvening
	require.NoError(t, svc.MarkOnline(context.Background(), date, show, []string{"G-1", "G-2"}))
	require.NoError(t, svc.UnmarkOnline(context.Background(), date, show, []string{"G-1"}))

	view := svc.Project(context.Background(), date, show)
	assert.Equal(t, map[string]string{"G-2": "GOLD"}, view.Online)
}
