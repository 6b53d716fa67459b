package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/andregamma/cinema-saas/internal/queue"
)

// Publisher sends booking events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, ev queue.BookingEvent) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, queue.BookingEvent) error { return nil }

type options struct {
	now          func() time.Time
	log          logrus.FieldLogger
	events       Publisher
	overlapCheck bool
	sweepBatch   int
}

// Option configures a service.
type Option func(*options)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLogger sets the logger used for operational messages.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) { o.log = l }
}

// WithPublisher sets where booking events go after commit.
func WithPublisher(p Publisher) Option {
	return func(o *options) {
		if p != nil {
			o.events = p
		}
	}
}

// WithOverlapCheck makes the screening generator reject screenings that
// overlap another screening on the same screen.
func WithOverlapCheck(enabled bool) Option {
	return func(o *options) { o.overlapCheck = enabled }
}

// WithSweepBatch limits how many bookings one sweep pass loads.
func WithSweepBatch(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.sweepBatch = n
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		now:        time.Now,
		log:        logrus.StandardLogger(),
		events:     nopPublisher{},
		sweepBatch: 200,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
