package service

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/skylight-cinema/box-office/internal/logger"
	"github.com/skylight-cinema/box-office/internal/model"
	"github.com/skylight-cinema/box-office/internal/queue"
	"github.com/skylight-cinema/box-office/internal/repository"
	"github.com/skylight-cinema/box-office/internal/seatclass"
	"github.com/skylight-cinema/box-office/internal/selection"
)

// BookingService orchestrates the booking lifecycle: creation with
// in-create duplicate detection, listing, stats, partial updates,
// printed marking and deletion.
type BookingService struct {
	bookings   BookingStore
	selections *selection.Cache
	publisher  EventPublisher
}

// NewBookingService constructs a BookingService.  The selection cache
// may not be nil; the publisher may be nil when no broker is
// configured.
func NewBookingService(bookings BookingStore, selections *selection.Cache, publisher EventPublisher) *BookingService {
	if bookings == nil || selections == nil {
		panic("nil dependency passed to NewBookingService")
	}
	return &BookingService{bookings: bookings, selections: selections, publisher: publisher}
}

// CreateBookingInput carries everything needed to record a counter
// sale.  Seats is the unordered set of seat labels from the ticket
// list; TotalPrice is caller-supplied and not re-derived.
type CreateBookingInput struct {
	Date          time.Time
	Show          model.Show
	Screen        string
	MovieTitle    string
	MovieLanguage string
	Seats         []string
	TotalPrice    int64
	Source        string
	CustomerName  string
	CustomerPhone string
}

// Create persists a new CONFIRMED booking.  Duplicate detection is
// enforced here: when an equivalent booking (same date, show and seat
// set) already exists, it is returned with duplicate=true and no new
// row is written.  A guard failure is logged and the insert proceeds;
// losing the advisory check is better than refusing a sale.
//
// The printed timestamp is set to the creation time by default; a
// counter sale prints its ticket immediately, and MarkPrinted exists
// for reprints.
func (s *BookingService) Create(ctx context.Context, in CreateBookingInput) (*model.Booking, bool, error) {
	if in.Date.IsZero() {
		return nil, false, ErrMissingDate
	}
	seats := dedupe(in.Seats)
	if len(seats) == 0 {
		return nil, false, ErrNoSeats
	}
	if in.TotalPrice < 0 {
		return nil, false, ErrNegativePrice
	}

	existing, err := s.FindDuplicate(ctx, in.Date, in.Show, seats)
	if err != nil {
		logger.Warn("duplicate check failed, proceeding with insert", zap.Error(err))
	}
	if existing != nil {
		return existing, true, nil
	}

	now := time.Now().UTC()
	source := in.Source
	if source == "" {
		source = model.SourceCounter
	}
	b := &model.Booking{
		ShowDate:      in.Date.UTC(),
		Show:          in.Show,
		Screen:        in.Screen,
		MovieTitle:    in.MovieTitle,
		MovieLanguage: in.MovieLanguage,
		Seats:         seats,
		SeatCount:     len(seats),
		ClassLabel:    deriveClassLabel(seats),
		PricePerSeat:  int64(math.Round(float64(in.TotalPrice) / float64(len(seats)))),
		TotalPrice:    in.TotalPrice,
		Status:        model.BookingConfirmed,
		Source:        source,
		Synced:        false,
		CustomerName:  in.CustomerName,
		CustomerPhone: in.CustomerPhone,
		PrintedAt:     &now,
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, false, err
	}

	// The sold seats are no longer a pending selection.
	s.selections.Remove(in.Date, in.Show, seats)

	s.publish(ctx, b, false)
	return b, false, nil
}

// List returns bookings matching the optional date, show and status
// filters, newest first.
func (s *BookingService) List(ctx context.Context, date *time.Time, show model.Show, status string) ([]model.Booking, error) {
	return s.bookings.Find(ctx, repository.BookingFilter{Date: date, Show: show, Status: status})
}

// BookingStats aggregates sales figures for an optional date and
// show.  PerClass groups counts and revenue by booking class label.
type BookingStats struct {
	TotalBookings int64                       `json:"total_bookings"`
	TotalRevenue  int64                       `json:"total_revenue"`
	PerClass      []repository.ClassAggregate `json:"per_class"`
}

// Stats computes aggregate counts and revenue.  The date filter uses
// UTC day boundaries (see repository.BookingFilter) so a stored
// timestamp's time-of-day cannot shift it into a neighbouring day.
func (s *BookingService) Stats(ctx context.Context, date *time.Time, show model.Show) (*BookingStats, error) {
	f := repository.BookingFilter{Date: date, Show: show}
	count, err := s.bookings.Count(ctx, f)
	if err != nil {
		return nil, err
	}
	revenue, err := s.bookings.SumTotal(ctx, f)
	if err != nil {
		return nil, err
	}
	perClass, err := s.bookings.GroupByClass(ctx, f)
	if err != nil {
		return nil, err
	}
	return &BookingStats{TotalBookings: count, TotalRevenue: revenue, PerClass: perClass}, nil
}

// Update applies a partial update.  It returns
// repository.ErrNotFound when the id does not exist.
func (s *BookingService) Update(ctx context.Context, id uint64, patch repository.BookingPatch) (*model.Booking, error) {
	return s.bookings.Update(ctx, id, patch)
}

// MarkPrinted stamps the booking with the current time, e.g. after a
// reprint.
func (s *BookingService) MarkPrinted(ctx context.Context, id uint64) (*model.Booking, error) {
	now := time.Now().UTC()
	return s.bookings.Update(ctx, id, repository.BookingPatch{PrintedAt: &now})
}

// Delete removes a booking permanently.
func (s *BookingService) Delete(ctx context.Context, id uint64) error {
	return s.bookings.Delete(ctx, id)
}

// publish sends the booking.created event; failures are logged only.
func (s *BookingService) publish(ctx context.Context, b *model.Booking, duplicate bool) {
	if s.publisher == nil {
		return
	}
	ev := queue.BookingCreatedEvent{
		BookingID:  b.ID,
		ShowDate:   b.ShowDate.Format("2006-01-02"),
		Show:       string(b.Show),
		Screen:     b.Screen,
		MovieTitle: b.MovieTitle,
		Seats:      b.Seats,
		SeatCount:  b.SeatCount,
		ClassLabel: b.ClassLabel,
		TotalPrice: b.TotalPrice,
		Source:     b.Source,
		Duplicate:  duplicate,
		CreatedAt:  b.CreatedAt.UTC().Format(time.RFC3339),
	}
	if err := s.publisher.PublishBookingCreated(ctx, ev); err != nil {
		logger.Warn("publish booking.created failed",
			zap.Uint64("booking_id", b.ID), zap.Error(err))
	}
}

// deriveClassLabel resolves each seat's class and returns the single
// shared class, or the MIXED sentinel when the seats span classes.
func deriveClassLabel(seats []string) string {
	if len(seats) == 0 {
		return seatclass.Default
	}
	first := seatclass.Of(seats[0])
	for _, l := range seats[1:] {
		if seatclass.Of(l) != first {
			return seatclass.Mixed
		}
	}
	return first
}

// dedupe drops repeated and empty seat labels, preserving first-seen
// order.
func dedupe(seats []string) []string {
	seen := make(map[string]struct{}, len(seats))
	out := make([]string, 0, len(seats))
	for _, l := range seats {
		if l == "" {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
