// Package queue publishes and consumes domain events over RabbitMQ.
package queue

// BookingQueueName is the durable queue booking events travel on.
const BookingQueueName = "booking.created"

// BookingCreatedEvent is published after a booking is persisted.  It
// carries enough information for downstream consumers to log, notify
// or feed analytics without querying the primary database.
type BookingCreatedEvent struct {
	BookingID  uint64   `json:"booking_id"`
	ShowDate   string   `json:"show_date"`
	Show       string   `json:"show"`
	Screen     string   `json:"screen"`
	MovieTitle string   `json:"movie_title"`
	Seats      []string `json:"seats"`
	SeatCount  int      `json:"seat_count"`
	ClassLabel string   `json:"class_label"`
	TotalPrice int64    `json:"total_price"`
	Source     string   `json:"source"`
	Duplicate  bool     `json:"duplicate"`
	CreatedAt  string   `json:"created_at"`
}
