package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/skylight-cinema/box-office/internal/model"
)

// BookingRepo provides CRUD and aggregate operations for bookings.
// A booking stores its complete seat set as a JSON array in a single
// column; there are no per-seat child rows.  The seat_count column
// duplicates the set size so the duplicate guard can filter on it
// with an index instead of unpacking JSON.  All timestamps are stored
// in UTC.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying handle for callers that need to open a
// transaction spanning multiple repositories.
func (r *BookingRepo) DB() *sql.DB { return r.db }

// BookingFilter narrows Find, Count and aggregate queries.  Date
// matches the calendar day in UTC: stored values inside
// [date 00:00:00Z, next day 00:00:00Z) are included regardless of
// their time-of-day.  Zero values mean "any".
type BookingFilter struct {
	Date      *time.Time
	Show      model.Show
	Status    string
	SeatCount int
	Limit     int
}

// ClassAggregate is one row of the per-class stats breakdown.
type ClassAggregate struct {
	ClassLabel string `json:"class_label"`
	Count      int64  `json:"count"`
	Total      int64  `json:"total"`
}

const bookingColumns = `id, show_date, show_slot, screen, movie_title, movie_language,
       seats, seat_count, class_label, price_per_seat, total_price,
       status, source, synced, customer_name, customer_phone,
       printed_at, created_at, updated_at`

// Create inserts a new booking and populates the generated ID and
// timestamps on the provided record.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	seats, err := json.Marshal(b.Seats)
	if err != nil {
		return fmt.Errorf("marshal seats: %w", err)
	}
	const q = `INSERT INTO bookings
        (show_date, show_slot, screen, movie_title, movie_language,
         seats, seat_count, class_label, price_per_seat, total_price,
         status, source, synced, customer_name, customer_phone, printed_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		b.ShowDate.UTC(), string(b.Show), b.Screen, b.MovieTitle, b.MovieLanguage,
		string(seats), b.SeatCount, b.ClassLabel, b.PricePerSeat, b.TotalPrice,
		b.Status, b.Source, b.Synced, nullStr(b.CustomerName), nullStr(b.CustomerPhone),
		nullTime(b.PrintedAt),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	// Query back the full row to populate timestamps and defaults.
	got, err := r.GetByID(ctx, b.ID)
	if err != nil {
		return err
	}
	*b = *got
	return nil
}

// GetByID returns one booking or ErrNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return b, err
}

// Find returns bookings matching the filter ordered newest first.
func (r *BookingRepo) Find(ctx context.Context, f BookingFilter) ([]model.Booking, error) {
	where, args := buildFilter(f)
	q := `SELECT ` + bookingColumns + ` FROM bookings` + where + ` ORDER BY created_at DESC`
	if f.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", f.Limit)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// BookingPatch carries the mutable fields for a partial update.  Nil
// pointers leave the stored value untouched.
type BookingPatch struct {
	Screen        *string
	MovieTitle    *string
	MovieLanguage *string
	Status        *string
	Synced        *bool
	CustomerName  *string
	CustomerPhone *string
	PrintedAt     *time.Time
}

// Update applies a partial update and returns the fresh row.  It
// returns ErrNotFound when the id does not exist.  An empty patch is
// a no-op that still verifies existence.
func (r *BookingRepo) Update(ctx context.Context, id uint64, p BookingPatch) (*model.Booking, error) {
	sets := make([]string, 0, 8)
	args := make([]interface{}, 0, 8)
	add := func(col string, v interface{}) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if p.Screen != nil {
		add("screen", *p.Screen)
	}
	if p.MovieTitle != nil {
		add("movie_title", *p.MovieTitle)
	}
	if p.MovieLanguage != nil {
		add("movie_language", *p.MovieLanguage)
	}
	if p.Status != nil {
		add("status", *p.Status)
	}
	if p.Synced != nil {
		add("synced", *p.Synced)
	}
	if p.CustomerName != nil {
		add("customer_name", nullStr(*p.CustomerName))
	}
	if p.CustomerPhone != nil {
		add("customer_phone", nullStr(*p.CustomerPhone))
	}
	if p.PrintedAt != nil {
		add("printed_at", p.PrintedAt.UTC())
	}
	if len(sets) > 0 {
		q := `UPDATE bookings SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
		args = append(args, id)
		if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
			return nil, err
		}
	}
	// The select distinguishes a missing row from an unchanged one.
	return r.GetByID(ctx, id)
}

// Delete removes a booking or returns ErrNotFound.
func (r *BookingRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of bookings matching the filter.
func (r *BookingRepo) Count(ctx context.Context, f BookingFilter) (int64, error) {
	where, args := buildFilter(f)
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings`+where, args...).Scan(&n)
	return n, err
}

// SumTotal returns the revenue sum over bookings matching the filter.
func (r *BookingRepo) SumTotal(ctx context.Context, f BookingFilter) (int64, error) {
	where, args := buildFilter(f)
	var sum sql.NullInt64
	err := r.db.QueryRowContext(ctx, `SELECT SUM(total_price) FROM bookings`+where, args...).Scan(&sum)
	if err != nil {
		return 0, err
	}
	return sum.Int64, nil
}

// GroupByClass returns per-class counts and revenue sums for
// bookings matching the filter.
func (r *BookingRepo) GroupByClass(ctx context.Context, f BookingFilter) ([]ClassAggregate, error) {
	where, args := buildFilter(f)
	q := `SELECT class_label, COUNT(*), COALESCE(SUM(total_price), 0)
          FROM bookings` + where + ` GROUP BY class_label`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ClassAggregate, 0)
	for rows.Next() {
		var a ClassAggregate
		if err := rows.Scan(&a.ClassLabel, &a.Count, &a.Total); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// buildFilter renders the WHERE clause for a BookingFilter.  The date
// filter uses a UTC day-boundary range so stored timestamps with a
// time-of-day component still match their calendar day.
func buildFilter(f BookingFilter) (where string, args []interface{}) {
	conds := make([]string, 0, 4)
	if f.Date != nil {
		start := time.Date(f.Date.Year(), f.Date.Month(), f.Date.Day(), 0, 0, 0, 0, time.UTC)
		conds = append(conds, "show_date >= ? AND show_date < ?")
		args = append(args, start, start.Add(24*time.Hour))
	}
	if f.Show != "" {
		conds = append(conds, "show_slot = ?")
		args = append(args, string(f.Show))
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if f.SeatCount > 0 {
		conds = append(conds, "seat_count = ?")
		args = append(args, f.SeatCount)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*model.Booking, error) {
	var (
		b         model.Booking
		show      string
		seatsJSON string
		name      sql.NullString
		phone     sql.NullString
		printedAt sql.NullTime
	)
	err := row.Scan(
		&b.ID, &b.ShowDate, &show, &b.Screen, &b.MovieTitle, &b.MovieLanguage,
		&seatsJSON, &b.SeatCount, &b.ClassLabel, &b.PricePerSeat, &b.TotalPrice,
		&b.Status, &b.Source, &b.Synced, &name, &phone,
		&printedAt, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Show = model.Show(show)
	if err := json.Unmarshal([]byte(seatsJSON), &b.Seats); err != nil {
		return nil, fmt.Errorf("unmarshal seats for booking %d: %w", b.ID, err)
	}
	if name.Valid {
		b.CustomerName = name.String
	}
	if phone.Valid {
		b.CustomerPhone = phone.String
	}
	if printedAt.Valid {
		t := printedAt.Time
		b.PrintedAt = &t
	}
	return &b, nil
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
