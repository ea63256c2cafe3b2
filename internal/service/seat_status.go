package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/skylight-cinema/box-office/internal/logger"
	"github.com/skylight-cinema/box-office/internal/model"
	"github.com/skylight-cinema/box-office/internal/repository"
	"github.com/skylight-cinema/box-office/internal/seatclass"
	"github.com/skylight-cinema/box-office/internal/selection"
)

// SeatStatusService merges the three independent seat-occupancy
// sources (confirmed counter bookings, online-channel marks and
// ephemeral selections) into one view per screening.
type SeatStatusService struct {
	bookings   BookingStore
	onlineSeat OnlineSeatStore
	selections *selection.Cache
}

// NewSeatStatusService constructs a SeatStatusService.
func NewSeatStatusService(bookings BookingStore, onlineSeat OnlineSeatStore, selections *selection.Cache) *SeatStatusService {
	if bookings == nil || onlineSeat == nil || selections == nil {
		panic("nil dependency passed to NewSeatStatusService")
	}
	return &SeatStatusService{bookings: bookings, onlineSeat: onlineSeat, selections: selections}
}

// SeatStatusView is the merged occupancy picture for one screening.
// The three maps are seat label -> class and are computed
// independently: a seat present in both Booked and Online appears in
// both.  That overlap is a data-integrity gap between two channels
// that are never reconciled upstream; the projector reports it
// as-is and logs a warning rather than papering over it.
type SeatStatusView struct {
	Date          time.Time         `json:"date"`
	Show          model.Show        `json:"show"`
	Booked        map[string]string `json:"booked"`
	Online        map[string]string `json:"online"`
	Selected      map[string]string `json:"selected"`
	BookedCount   int               `json:"booked_count"`
	OnlineCount   int               `json:"online_count"`
	SelectedCount int               `json:"selected_count"`
}

// Project computes the seat-status view for one screening.  Reads
// are best-effort: a failing store query degrades that source to
// empty and is logged, never surfaced; the counter UI must keep
// rendering whatever can still be read.
func (s *SeatStatusService) Project(ctx context.Context, date time.Time, show model.Show) *SeatStatusView {
	view := &SeatStatusView{
		Date:     date,
		Show:     show,
		Booked:   map[string]string{},
		Online:   map[string]string{},
		Selected: map[string]string{},
	}

	// Seats from confirmed bookings, flattened across every booking's
	// seat set.  Classes are resolved per seat, not taken from the
	// booking's stored label: a MIXED booking still projects each seat
	// under its real class.
	bookings, err := s.bookings.Find(ctx, repository.BookingFilter{
		Date:   &date,
		Show:   show,
		Status: model.BookingConfirmed,
	})
	if err != nil {
		logger.Warn("seat status: booking query failed, projecting without bookings",
			zap.Error(err), zap.String("show", string(show)))
	} else {
		for _, b := range bookings {
			for _, seat := range b.Seats {
				view.Booked[seat] = seatclass.Of(seat)
			}
		}
	}

	marks, err := s.onlineSeat.FindByShow(ctx, date, show)
	if err != nil {
		logger.Warn("seat status: online seat query failed, projecting without online marks",
			zap.Error(err), zap.String("show", string(show)))
	} else {
		for _, m := range marks {
			class := m.ClassLabel
			if class == "" {
				class = seatclass.Of(m.SeatLabel)
			}
			view.Online[m.SeatLabel] = class
		}
	}

	for _, seat := range s.selections.Get(date, show) {
		view.Selected[seat] = seatclass.Selected
	}

	view.BookedCount = len(view.Booked)
	view.OnlineCount = len(view.Online)
	view.SelectedCount = len(view.Selected)

	if overlap := overlapping(view.Booked, view.Online); len(overlap) > 0 {
		logger.Warn("seat status: seats booked at the counter and marked online",
			zap.Strings("seats", overlap),
			zap.Time("date", date), zap.String("show", string(show)))
	}
	return view
}

// MarkOnline upserts online-channel marks for the given seats.
func (s *SeatStatusService) MarkOnline(ctx context.Context, date time.Time, show model.Show, seatLabels []string) error {
	for _, l := range dedupe(seatLabels) {
		m := model.OnlineSeatMark{
			SeatLabel:  l,
			ShowDate:   date,
			Show:       show,
			ClassLabel: seatclass.Of(l),
			Status:     model.StatusOnlineBooked,
		}
		if err := s.onlineSeat.Upsert(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// UnmarkOnline removes online-channel marks for the given seats.
func (s *SeatStatusService) UnmarkOnline(ctx context.Context, date time.Time, show model.Show, seatLabels []string) error {
	return s.onlineSeat.DeleteMany(ctx, date, show, dedupe(seatLabels))
}

// SetSelection replaces the ephemeral selection set for a screening.
func (s *SeatStatusService) SetSelection(date time.Time, show model.Show, seatLabels []string) {
	s.selections.Set(date, show, dedupe(seatLabels))
}

func overlapping(a, b map[string]string) []string {
	var out []string
	for seat := range a {
		if _, ok := b[seat]; ok {
			out = append(out, seat)
		}
	}
	sort.Strings(out)
	return out
}
