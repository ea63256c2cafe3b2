package model

import "time"

// Booking statuses.  The box office only ever writes CONFIRMED;
// CANCELLED and REFUNDED exist for imports from the online feed and
// manual corrections.
const (
	BookingConfirmed = "CONFIRMED"
	BookingCancelled = "CANCELLED"
	BookingRefunded  = "REFUNDED"
)

// Sales channels a booking can originate from.
const (
	SourceCounter = "COUNTER"
	SourceOnline  = "ONLINE"
	SourceOther   = "OTHER"
)

// Booking records a confirmed sale of one or more seats for a single
// screening.  A booking is atomic at the seat-set granularity: there
// are no per-seat child records, the full set of seat labels is stored
// on the booking itself.  SeatCount always equals len(Seats),
// ClassLabel is the shared seat class or MIXED, and PricePerSeat is
// derived as round(TotalPrice / SeatCount); TotalPrice itself is
// caller-supplied and never recomputed.
type Booking struct {
	ID            uint64     `json:"id"`
	ShowDate      time.Time  `json:"show_date"`
	Show          Show       `json:"show"`
	Screen        string     `json:"screen"`
	MovieTitle    string     `json:"movie_title"`
	MovieLanguage string     `json:"movie_language"`
	Seats         []string   `json:"seats"`
	SeatCount     int        `json:"seat_count"`
	ClassLabel    string     `json:"class_label"`
	PricePerSeat  int64      `json:"price_per_seat"`
	TotalPrice    int64      `json:"total_price"`
	Status        string     `json:"status"`
	Source        string     `json:"source"`
	Synced        bool       `json:"synced"`
	CustomerName  string     `json:"customer_name,omitempty"`
	CustomerPhone string     `json:"customer_phone,omitempty"`
	PrintedAt     *time.Time `json:"printed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
