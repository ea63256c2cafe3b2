// Package service implements the booking engine: booking lifecycle,
// duplicate detection and the merged seat-status projection.  The
// persisted store is consumed through narrow interfaces so unit tests
// can substitute mocks for the MySQL repositories.
package service

import (
	"context"
	"time"

	"github.com/skylight-cinema/box-office/internal/model"
	"github.com/skylight-cinema/box-office/internal/queue"
	"github.com/skylight-cinema/box-office/internal/repository"
)

// BookingStore is the persistence contract the booking service needs.
// *repository.BookingRepo satisfies it.
type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id uint64) (*model.Booking, error)
	Find(ctx context.Context, f repository.BookingFilter) ([]model.Booking, error)
	Update(ctx context.Context, id uint64, p repository.BookingPatch) (*model.Booking, error)
	Delete(ctx context.Context, id uint64) error
	Count(ctx context.Context, f repository.BookingFilter) (int64, error)
	SumTotal(ctx context.Context, f repository.BookingFilter) (int64, error)
	GroupByClass(ctx context.Context, f repository.BookingFilter) ([]repository.ClassAggregate, error)
}

// OnlineSeatStore is the persistence contract for online-channel seat
// marks.  *repository.OnlineSeatRepo satisfies it.
type OnlineSeatStore interface {
	FindByShow(ctx context.Context, date time.Time, show model.Show) ([]model.OnlineSeatMark, error)
	Upsert(ctx context.Context, m model.OnlineSeatMark) error
	DeleteMany(ctx context.Context, date time.Time, show model.Show, seatLabels []string) error
}

// EventPublisher pushes domain events to the message broker.  Publish
// failures never fail the originating request.
type EventPublisher interface {
	PublishBookingCreated(ctx context.Context, ev queue.BookingCreatedEvent) error
}
