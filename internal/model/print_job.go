package model

import "time"

// Print job states.  Jobs move pending -> processing -> completed or
// failed; completed includes delivery via the manual fallback.
const (
	PrintPending    = "pending"
	PrintProcessing = "processing"
	PrintCompleted  = "completed"
	PrintFailed     = "failed"
)

// PrintPayload is the render-ready ticket content handed to the print
// pipeline together with the target device name.  The content is
// already formatted by the ticket layer; the pipeline never inspects
// it.
type PrintPayload struct {
	TicketNo string `json:"ticket_no"`
	Content  string `json:"content"`
	Device   string `json:"device"`
}

// PrintJob tracks one attempt to physically produce a ticket.
type PrintJob struct {
	ID        string       `json:"id"`
	Payload   PrintPayload `json:"payload"`
	Status    string       `json:"status"`
	Error     string       `json:"error,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
