package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
)

// Sweeper periodically expires unpaid bookings and completes bookings whose
// screening has started.
type Sweeper struct {
	ledger         *Ledger
	pendingTimeout time.Duration
	interval       time.Duration
	log            logrus.FieldLogger
	scheduler      gocron.Scheduler
	ctx            context.Context
	cancel         context.CancelFunc
}

// NewSweeper constructs a Sweeper. It does not start until Start is called.
func NewSweeper(ledger *Ledger, pendingTimeout, interval time.Duration, log logrus.FieldLogger) (*Sweeper, error) {
	if pendingTimeout <= 0 || interval <= 0 {
		return nil, fmt.Errorf("sweeper: timeout and interval must be positive")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("sweeper: new scheduler: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	sw := &Sweeper{
		ledger:         ledger,
		pendingTimeout: pendingTimeout,
		interval:       interval,
		log:            log.WithField("component", "sweeper"),
		scheduler:      s,
		ctx:            ctx,
		cancel:         cancel,
	}
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { sw.RunOnce(sw.ctx) }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName("booking-sweep"),
	)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("sweeper: register job: %w", err)
	}
	return sw, nil
}

// Start begins running the sweep every interval.
func (s *Sweeper) Start() {
	s.log.WithFields(logrus.Fields{
		"interval":        s.interval.String(),
		"pending_timeout": s.pendingTimeout.String(),
	}).Info("sweeper started")
	s.scheduler.Start()
}

// Stop cancels an in-flight sweep and shuts the scheduler down.
func (s *Sweeper) Stop() error {
	s.cancel()
	return s.scheduler.Shutdown()
}

// RunOnce performs one sweep and returns how many bookings were expired and
// completed.
func (s *Sweeper) RunOnce(ctx context.Context) (expired, completed int) {
	var err error
	expired, err = s.ledger.ExpirePending(ctx, s.pendingTimeout)
	if err != nil {
		s.log.WithError(err).Error("expire pending bookings")
	}
	completed, err = s.ledger.CompleteStarted(ctx)
	if err != nil {
		s.log.WithError(err).Error("complete started bookings")
	}
	if expired > 0 || completed > 0 {
		s.log.WithFields(logrus.Fields{"expired": expired, "completed": completed}).Info("sweep done")
	}
	return expired, completed
}
