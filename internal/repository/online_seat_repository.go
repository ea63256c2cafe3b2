package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/skylight-cinema/box-office/internal/model"
)

// OnlineSeatRepo persists seat marks arriving from the third-party
// online booking feed.  Marks are keyed by (seat label, date, show)
// and live entirely apart from counter bookings; the two channels are
// only merged in the seat status projection.
type OnlineSeatRepo struct {
	db *sql.DB
}

// NewOnlineSeatRepo returns a new OnlineSeatRepo bound to the given database.
func NewOnlineSeatRepo(db *sql.DB) *OnlineSeatRepo { return &OnlineSeatRepo{db: db} }

// FindByShow returns all active marks for one screening.
func (r *OnlineSeatRepo) FindByShow(ctx context.Context, date time.Time, show model.Show) ([]model.OnlineSeatMark, error) {
	const q = `SELECT seat_label, show_date, show_slot, class_label, status, created_at, updated_at
               FROM online_seats
               WHERE show_date = ? AND show_slot = ? AND status = ?`
	rows, err := r.db.QueryContext(ctx, q, dayOf(date), string(show), model.StatusOnlineBooked)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.OnlineSeatMark, 0)
	for rows.Next() {
		var (
			m    model.OnlineSeatMark
			slot string
		)
		if err := rows.Scan(&m.SeatLabel, &m.ShowDate, &slot, &m.ClassLabel, &m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		m.Show = model.Show(slot)
		out = append(out, m)
	}
	return out, rows.Err()
}

// Upsert inserts or refreshes a mark.  The unique key on
// (seat_label, show_date, show_slot) makes repeated feed imports
// idempotent.
func (r *OnlineSeatRepo) Upsert(ctx context.Context, m model.OnlineSeatMark) error {
	const q = `INSERT INTO online_seats (seat_label, show_date, show_slot, class_label, status)
               VALUES (?, ?, ?, ?, ?)
               ON DUPLICATE KEY UPDATE class_label = VALUES(class_label), status = VALUES(status)`
	_, err := r.db.ExecContext(ctx, q,
		m.SeatLabel, dayOf(m.ShowDate), string(m.Show), m.ClassLabel, m.Status)
	return err
}

// DeleteMany removes the given seats' marks for one screening.  Seats
// without a mark are ignored.  Passing an empty slice has no effect.
func (r *OnlineSeatRepo) DeleteMany(ctx context.Context, date time.Time, show model.Show, seatLabels []string) error {
	if len(seatLabels) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(seatLabels)), ",")
	q := `DELETE FROM online_seats WHERE show_date = ? AND show_slot = ? AND seat_label IN (` + placeholders + `)`
	args := make([]interface{}, 0, len(seatLabels)+2)
	args = append(args, dayOf(date), string(show))
	for _, l := range seatLabels {
		args = append(args, l)
	}
	_, err := r.db.ExecContext(ctx, q, args...)
	return err
}

// dayOf truncates a timestamp to its UTC calendar day, matching the
// DATE column type.
func dayOf(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
