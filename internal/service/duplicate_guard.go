package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/skylight-cinema/box-office/internal/logger"
	"github.com/skylight-cinema/box-office/internal/model"
	"github.com/skylight-cinema/box-office/internal/repository"
)

// Candidate caps for the two duplicate-detection phases.  Exact
// seat-count matches for one screening are rare, so a small indexed
// window is plenty; the fallback scan is wider because it cannot
// filter on seat count.
const (
	dupCandidateLimit = 20
	dupFallbackLimit  = 100
)

// FindDuplicate looks for an existing booking covering exactly the
// given seat set for the given screening.  It returns nil when no
// equivalent booking exists.
//
// Two phases: (1) an index-friendly query filtered by date, show and
// seat count, with candidates compared via sorted element-wise
// equality.  Sorting is required because seat insertion order is not
// guaranteed to match between a stored booking and a fresh request.
// (2) If the indexed query fails, degrade to a bounded scan of the
// screening's bookings using set containment, and log the
// degradation.
//
// The check is advisory: nothing locks between it and a subsequent
// insert, so two near-simultaneous requests can both pass.  At
// single-terminal, human-paced request rates this is an accepted risk.
func (s *BookingService) FindDuplicate(ctx context.Context, date time.Time, show model.Show, seatLabels []string) (*model.Booking, error) {
	if len(seatLabels) == 0 {
		return nil, nil
	}
	want := sortedCopy(seatLabels)

	candidates, err := s.bookings.Find(ctx, repository.BookingFilter{
		Date:      &date,
		Show:      show,
		SeatCount: len(seatLabels),
		Limit:     dupCandidateLimit,
	})
	if err == nil {
		for i := range candidates {
			if equalSorted(want, sortedCopy(candidates[i].Seats)) {
				return &candidates[i], nil
			}
		}
		return nil, nil
	}

	logger.Warn("duplicate check degraded to full scan", zap.Error(err),
		zap.String("show", string(show)), zap.Time("date", date))

	all, err := s.bookings.Find(ctx, repository.BookingFilter{
		Date:  &date,
		Show:  show,
		Limit: dupFallbackLimit,
	})
	if err != nil {
		return nil, err
	}
	wantSet := make(map[string]struct{}, len(seatLabels))
	for _, l := range seatLabels {
		wantSet[l] = struct{}{}
	}
	for i := range all {
		if containsAll(wantSet, all[i].Seats) {
			return &all[i], nil
		}
	}
	return nil, nil
}

func sortedCopy(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}

func equalSorted(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// containsAll reports whether the seat slice covers exactly the
// wanted set: same size and every element present.
func containsAll(want map[string]struct{}, seats []string) bool {
	if len(seats) != len(want) {
		return false
	}
	for _, l := range seats {
		if _, ok := want[l]; !ok {
			return false
		}
	}
	return true
}
