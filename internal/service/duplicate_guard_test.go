package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylight-cinema/box-office/internal/model"
)

func TestFindDuplicateOrderIndependent(t *testing.T) {
	store := &fakeBookingStore{}
	svc, _ := newTestService(store, nil)
	date := day("2024-03-01")

	_, _, err := svc.Create(context.Background(), CreateBookingInput{
		Date: date, Show: model.ShowEvening,
		Seats: []string{"G-1", "G-2", "G-3"}, TotalPrice: 300,
	})
	require.NoError(t, err)

	found, err := svc.FindDuplicate(context.Background(), date, model.ShowEvening,
		[]string{"G-3", "G-1", "G-2"})
	require.NoError(t, err)
	require.NotNil(t, found)

	// Subset of the stored seats is not a duplicate.
	found, err = svc.FindDuplicate(context.Background(), date, model.ShowEvening,
		[]string{"G-1", "G-2"})
	require.NoError(t, err)
	assert.Nil(t, found)

	// Same seats, different screening slot.
	found, err = svc.FindDuplicate(context.Background(), date, model.ShowNight,
		[]string{"G-1", "G-2", "G-3"})
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestFindDuplicateEmptySeatsIsNever(t *testing.T) {
	svc, _ := newTestService(&fakeBookingStore{}, nil)

	found, err := svc.FindDuplicate(context.Background(), day("2024-03-01"), model.ShowEvening, nil)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestFindDuplicateFallbackScan(t *testing.T) {
	store := &fakeBookingStore{}
	svc, _ := newTestService(store, nil)
	date := day("2024-03-01")

	_, _, err := svc.Create(context.Background(), CreateBookingInput{
		Date: date, Show: model.ShowEvening,
		Seats: []string{"SC-A1", "SC-A2"}, TotalPrice: 300,
	})
	require.NoError(t, err)

	// Poison the indexed query; the guard must still find the booking
	// through the bounded scan.
	store.findErr = errors.New("index unavailable")

	found, err := svc.FindDuplicate(context.Background(), date, model.ShowEvening,
		[]string{"SC-A2", "SC-A1"})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, uint64(1), found.ID)
}

func TestFindDuplicateBothPhasesFailing(t *testing.T) {
	store := &fakeBookingStore{allErr: errors.New("db down")}
	svc, _ := newTestService(store, nil)

	_, err := svc.FindDuplicate(context.Background(), day("2024-03-01"), model.ShowEvening,
		[]string{"G-1"})
	assert.Error(t, err)
}
