package model

import "time"

// OnlineSeatStatus values for the third-party feed.  A mark either
// exists with StatusOnlineBooked or has been removed; there is no
// intermediate state.
const StatusOnlineBooked = "ONLINE_BOOKED"

// OnlineSeatMark flags a single seat as sold through the third-party
// online channel for one screening.  Marks are keyed by
// (seat label, date, show) and are never joined against counter
// bookings at the storage layer; merging happens only in the seat
// status projection.
type OnlineSeatMark struct {
	SeatLabel  string    `json:"seat_label"`
	ShowDate   time.Time `json:"show_date"`
	Show       Show      `json:"show"`
	ClassLabel string    `json:"class_label"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
