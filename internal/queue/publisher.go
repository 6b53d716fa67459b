package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// BookingQueue is the durable queue booking events are routed to.
const BookingQueue = "booking.events"

const (
	defaultBuffer      = 256
	defaultDialTimeout = 3 * time.Second
	defaultRetryAfter  = 10 * time.Second
	sendTimeout        = 5 * time.Second
)

var (
	// ErrQueueFull is returned by Publish when the outbound buffer is full.
	ErrQueueFull = errors.New("publisher buffer full")
	// ErrPublisherClosed is returned by Publish after Close.
	ErrPublisherClosed = errors.New("publisher closed")

	errBrokerDown = errors.New("broker unavailable")
)

// Publisher sends booking events to RabbitMQ from a single background
// goroutine. Publish only enqueues, so callers never wait on the broker.
// The connection is opened on first use; after a failed dial no new dial is
// attempted until the retry window passes, and events sent meanwhile are
// logged and dropped.
type Publisher struct {
	url         string
	queue       string
	log         logrus.FieldLogger
	dialTimeout time.Duration
	retryAfter  time.Duration

	events    chan BookingEvent
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once

	// owned by run
	conn     *amqp.Connection
	ch       *amqp.Channel
	nextDial time.Time
}

// NewPublisher starts a publisher for the broker at url.
func NewPublisher(url string, log logrus.FieldLogger) *Publisher {
	return newPublisher(url, log, defaultBuffer, defaultDialTimeout, defaultRetryAfter)
}

func newPublisher(url string, log logrus.FieldLogger, buffer int, dialTimeout, retryAfter time.Duration) *Publisher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	p := &Publisher{
		url:         url,
		queue:       BookingQueue,
		log:         log.WithField("component", "publisher"),
		dialTimeout: dialTimeout,
		retryAfter:  retryAfter,
		events:      make(chan BookingEvent, buffer),
		done:        make(chan struct{}),
	}
	p.wg.Add(1)
	go p.run()
	return p
}

// Publish queues ev for delivery. It never blocks.
func (p *Publisher) Publish(_ context.Context, ev BookingEvent) error {
	select {
	case <-p.done:
		return ErrPublisherClosed
	default:
	}
	select {
	case p.events <- ev:
		return nil
	default:
		return fmt.Errorf("publish %s: %w", ev.Type, ErrQueueFull)
	}
}

// Close stops the background goroutine and releases the connection.
// Events still buffered are sent only if the broker is connected.
func (p *Publisher) Close() error {
	p.closeOnce.Do(func() { close(p.done) })
	p.wg.Wait()
	return nil
}

func (p *Publisher) run() {
	defer p.wg.Done()
	defer p.disconnect()
	for {
		select {
		case ev := <-p.events:
			p.deliver(ev)
		case <-p.done:
			p.flush()
			return
		}
	}
}

func (p *Publisher) flush() {
	for {
		select {
		case ev := <-p.events:
			if p.ch == nil || p.ch.IsClosed() {
				p.log.WithField("event", ev.Type).Warn("dropping booking event on shutdown")
				continue
			}
			p.deliver(ev)
		default:
			return
		}
	}
}

func (p *Publisher) deliver(ev BookingEvent) {
	entry := p.log.WithFields(logrus.Fields{"booking_id": ev.BookingID, "event": ev.Type})
	ch, err := p.channel()
	if err != nil {
		entry.WithError(err).Warn("booking event dropped")
		return
	}
	if err := p.send(ch, ev); err != nil {
		// drop the channel so the next event reconnects
		_ = ch.Close()
		p.ch = nil
		entry.WithError(err).Warn("booking event dropped")
	}
}

func (p *Publisher) send(ch *amqp.Channel, ev BookingEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	return ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         ev.Type,
		MessageId:    ev.BookingID + ":" + ev.Type,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}

// channel returns an open channel, dialing when needed and allowed.
func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	if p.conn == nil || p.conn.IsClosed() {
		if time.Now().Before(p.nextDial) {
			return nil, errBrokerDown
		}
		conn, err := amqp.DialConfig(p.url, amqp.Config{
			Heartbeat: 10 * time.Second,
			Locale:    "en_US",
			Dial:      amqp.DefaultDial(p.dialTimeout),
		})
		if err != nil {
			p.nextDial = time.Now().Add(p.retryAfter)
			return nil, fmt.Errorf("dial broker: %w", err)
		}
		p.conn = conn
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	// durable so events survive broker restarts
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare queue %s: %w", p.queue, err)
	}
	p.ch = ch
	return ch, nil
}

func (p *Publisher) disconnect() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			p.log.WithError(err).Warn("close broker connection")
		}
		p.conn = nil
	}
}
