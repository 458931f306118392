package settings

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultDelay is the quiescence window: a write happens only once no new
// request has arrived for this long.
const DefaultDelay = 700 * time.Millisecond

// ErrWriterClosed is returned by Request after Close
var ErrWriterClosed = errors.New("settings writer closed")

// Option configures a Writer
type Option func(*Writer)

// WithDelay overrides the quiescence window
func WithDelay(d time.Duration) Option {
	return func(w *Writer) {
		w.delay = d
	}
}

// WithLogger sets the logger used to report writes and failures
func WithLogger(logger *slog.Logger) Option {
	return func(w *Writer) {
		w.logger = logger
	}
}

// WithErrorHandler registers fn to receive every failed write.
// fn runs on the writer goroutine and must not call back into the Writer.
func WithErrorHandler(fn func(error)) Option {
	return func(w *Writer) {
		w.onError = fn
	}
}

// Writer runs flush in the background, coalescing bursts of requests.
//
// A request starts a wait of one delay; every further request during the
// wait restarts it. When the wait expires flush runs once. Requests that
// arrive while flush runs are remembered in a single pending slot and cause
// exactly one more wait-and-flush round afterwards.
type Writer struct {
	flush   func() error
	delay   time.Duration
	logger  *slog.Logger
	onError func(error)

	requests chan struct{}
	stop     chan struct{}
	done     chan struct{}

	// guards closed so a request is either queued before stop or refused
	mu       sync.Mutex
	closed   bool
	finalErr error

	writes   atomic.Int64
	failures atomic.Int64
}

// NewWriter starts the background worker. flush must be safe to call from
// the worker goroutine; it is never called concurrently with itself.
func NewWriter(flush func() error, opts ...Option) *Writer {
	w := &Writer{
		flush:    flush,
		delay:    DefaultDelay,
		logger:   slog.Default(),
		requests: make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	go w.run()
	return w
}

// Request schedules a debounced flush. It never blocks.
func (w *Writer) Request() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWriterClosed
	}
	select {
	case w.requests <- struct{}{}:
	default:
		// A request is already pending; it covers this one.
	}
	return nil
}

// Close stops the worker. A pending request is flushed synchronously before
// Close returns; with nothing pending the worker exits without writing.
// The error of that final flush is returned.
func (w *Writer) Close(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.stop)
	}
	w.mu.Unlock()

	select {
	case <-w.done:
		return w.finalErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns the number of flushes attempted and how many of them failed
func (w *Writer) Stats() (writes, failures int64) {
	return w.writes.Load(), w.failures.Load()
}

func (w *Writer) run() {
	defer close(w.done)

	var (
		timer *time.Timer
		fire  <-chan time.Time // nil while idle
	)

	for {
		select {
		case <-w.requests:
			if timer == nil {
				timer = time.NewTimer(w.delay)
			} else {
				timer.Reset(w.delay)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.write()

		case <-w.stop:
			pending := fire != nil
			select {
			case <-w.requests:
				pending = true
			default:
			}
			if timer != nil {
				timer.Stop()
			}
			if pending {
				w.logger.Debug("flushing pending settings before exit")
				w.finalErr = w.write()
			}
			return
		}
	}
}

func (w *Writer) write() error {
	err := w.flush()
	w.writes.Add(1)
	if err != nil {
		w.failures.Add(1)
		w.logger.Error("failed to save settings", "error", err)
		if w.onError != nil {
			w.onError(err)
		}
		return err
	}
	w.logger.Debug("settings saved")
	return nil
}
