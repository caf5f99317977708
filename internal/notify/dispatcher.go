package notify

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/safar/tradein-store/internal/models"
	"github.com/safar/tradein-store/internal/store"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const channelEmail = "email"

// Backend resolves recipients and records delivery outcomes.
type Backend interface {
	CustomerEmail(ctx context.Context, customerID int64) (string, error)
	RecordCommunication(ctx context.Context, c *models.Communication) error
}

type Options struct {
	QueueSize     int
	MaxAttempts   int
	RetryInterval time.Duration
}

// Dispatcher delivers notifications off the request path. Delivery is
// best-effort: a failed send is retried up to MaxAttempts, recorded and
// logged, and never reported back to the code that enqueued it.
type Dispatcher struct {
	queue   chan Event
	sender  EmailSender
	backend Backend
	opts    Options
	log     *zap.Logger

	// mu orders Enqueue's send against Run marking the dispatcher stopped,
	// so every accepted event is in the queue before the final drain.
	mu      sync.RWMutex
	stopped bool
}

func NewDispatcher(sender EmailSender, backend Backend, opts Options, log *zap.Logger) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 500 * time.Millisecond
	}
	return &Dispatcher{
		queue:   make(chan Event, opts.QueueSize),
		sender:  sender,
		backend: backend,
		opts:    opts,
		log:     log,
	}
}

// Enqueue queues e without blocking. It returns false when the queue is full
// or the dispatcher has stopped.
func (d *Dispatcher) Enqueue(e Event) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		d.log.Warn("notification dropped, dispatcher stopped",
			zap.Int64("trade_in_id", e.TradeInID), zap.String("event", string(e.Kind)))
		return false
	}

	select {
	case d.queue <- e:
		return true
	default:
		d.log.Warn("notification dropped, queue full",
			zap.Int64("trade_in_id", e.TradeInID), zap.String("event", string(e.Kind)))
		return false
	}
}

// Run starts workers and blocks until ctx is cancelled. Events still queued
// at that point are delivered before Run returns.
func (d *Dispatcher) Run(ctx context.Context, workers int) error {
	if workers <= 0 {
		workers = 1
	}

	g := new(errgroup.Group)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for {
				select {
				case e := <-d.queue:
					d.deliver(ctx, e)
				case <-ctx.Done():
					return nil
				}
			}
		})
	}
	err := g.Wait()

	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()

	d.drain()

	return err
}

func (d *Dispatcher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for {
		select {
		case e := <-d.queue:
			d.deliver(ctx, e)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, e Event) {
	comm := &models.Communication{
		TradeInID: e.TradeInID,
		Channel:   channelEmail,
		Event:     string(e.Kind),
		Template:  e.Template(),
		Subject:   e.Subject(),
	}

	log := d.log.With(
		zap.Int64("trade_in_id", e.TradeInID),
		zap.String("reference_number", e.ReferenceNumber),
		zap.String("event", string(e.Kind)),
	)

	to, err := d.backend.CustomerEmail(ctx, e.CustomerID)
	if err != nil {
		log.Error("resolve notification recipient", zap.Error(err))
		comm.Status = models.CommunicationFailed
		comm.Error = err.Error()
		d.record(ctx, log, comm)
		return
	}
	comm.Recipient = to

	email := Email{
		To:       to,
		Subject:  comm.Subject,
		Template: comm.Template,
		Data:     e.Data(),
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = d.opts.RetryInterval
	policy.MaxElapsedTime = 0

	err = backoff.Retry(func() error {
		comm.Attempts++
		err := d.sender.SendEmail(ctx, email)
		var perr *ProviderError
		if errors.As(err, &perr) && !perr.Temporary() {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(d.opts.MaxAttempts-1)), ctx))

	if err != nil {
		log.Error("send notification", zap.Int("attempts", comm.Attempts), zap.Error(err))
		comm.Status = models.CommunicationFailed
		comm.Error = err.Error()
	} else {
		log.Info("notification sent", zap.Int("attempts", comm.Attempts))
		comm.Status = models.CommunicationSent
	}

	d.record(ctx, log, comm)
}

func (d *Dispatcher) record(ctx context.Context, log *zap.Logger, comm *models.Communication) {
	if err := d.backend.RecordCommunication(ctx, comm); err != nil {
		log.Error("record communication", zap.Error(err))
	}
}

// SQLBackend implements Backend on the service database.
type SQLBackend struct {
	DB *sql.DB
}

func (b SQLBackend) CustomerEmail(ctx context.Context, customerID int64) (string, error) {
	customer, err := store.GetCustomer(ctx, b.DB, customerID)
	if err != nil {
		return "", err
	}
	return customer.Email, nil
}

func (b SQLBackend) RecordCommunication(ctx context.Context, c *models.Communication) error {
	return store.InsertCommunication(ctx, b.DB, c)
}
