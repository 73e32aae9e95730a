package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketplace-engine/pkg/logger"
	"github.com/angelmondragon/marketplace-engine/pkg/metrics"
	"github.com/angelmondragon/marketplace-engine/pkg/outbox"
)

const (
	defaultQueueSize    = 1024
	defaultWriteTimeout = 5 * time.Second

	dropQueueFull   = "queue_full"
	dropClosed      = "closed"
	dropWriteFailed = "write_failed"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type emitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type Options struct {
	QueueSize    int
	WriteTimeout time.Duration
	Tx           txRunner
	Emitter      emitter
	Metrics      *metrics.CommerceMetrics
	Logger       *logger.Logger
}

// Dispatcher hands domain events to the outbox table off the request path.
// Dispatch never blocks: when the queue is full the event is dropped, logged
// and counted.
type Dispatcher struct {
	queue        chan outbox.DomainEvent
	tx           txRunner
	emitter      emitter
	metrics      *metrics.CommerceMetrics
	logg         *logger.Logger
	writeTimeout time.Duration

	mu       sync.RWMutex
	closed   bool
	started  bool
	done     chan struct{}
	drainErr error
}

func NewDispatcher(opts Options) (*Dispatcher, error) {
	if opts.Tx == nil {
		return nil, errors.New("transaction runner required")
	}
	if opts.Emitter == nil {
		return nil, errors.New("outbox emitter required")
	}
	size := opts.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}
	timeout := opts.WriteTimeout
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}
	return &Dispatcher{
		queue:        make(chan outbox.DomainEvent, size),
		tx:           opts.Tx,
		emitter:      opts.Emitter,
		metrics:      opts.Metrics,
		logg:         opts.Logger,
		writeTimeout: timeout,
		done:         make(chan struct{}),
	}, nil
}

// Start launches the worker that drains the queue. It is safe to call once.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true
	go d.run()
}

// Dispatch enqueues events without blocking the caller.
func (d *Dispatcher) Dispatch(ctx context.Context, events ...outbox.DomainEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, event := range events {
		if d.closed {
			d.drop(ctx, event, dropClosed, nil)
			continue
		}
		select {
		case d.queue <- event:
		default:
			d.drop(ctx, event, dropQueueFull, nil)
		}
	}
	d.metrics.SetEventQueueLength(len(d.queue))
}

// Shutdown stops accepting events and waits for the queue to drain. Write
// failures seen while draining are combined with a context timeout, if any.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	started := d.started
	d.mu.Unlock()

	if !started {
		go d.run()
	}
	select {
	case <-d.done:
	case <-ctx.Done():
		d.mu.Lock()
		d.drainErr = multierr.Append(d.drainErr, fmt.Errorf("events not drained: %w", ctx.Err()))
		d.mu.Unlock()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.drainErr
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for event := range d.queue {
		if err := d.write(event); err != nil {
			d.drop(context.Background(), event, dropWriteFailed, err)
			d.mu.Lock()
			if d.closed {
				d.drainErr = multierr.Append(d.drainErr, fmt.Errorf("%s %s: %w", event.EventType, event.EventID, err))
			}
			d.mu.Unlock()
		} else {
			d.metrics.IncEventDispatched(string(event.EventType))
		}
		d.metrics.SetEventQueueLength(len(d.queue))
	}
}

func (d *Dispatcher) write(event outbox.DomainEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), d.writeTimeout)
	defer cancel()
	return d.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return d.emitter.Emit(ctx, tx, event)
	})
}

func (d *Dispatcher) drop(ctx context.Context, event outbox.DomainEvent, cause string, err error) {
	d.metrics.IncEventDropped(string(event.EventType), cause)
	if d.logg == nil {
		return
	}
	logCtx := d.logg.WithFields(ctx, map[string]any{
		"event_id":     event.EventID.String(),
		"event_type":   string(event.EventType),
		"aggregate_id": event.AggregateID.String(),
		"cause":        cause,
	})
	if err == nil {
		err = errors.New(cause)
	}
	d.logg.Error(logCtx, "domain event dropped", err)
}
