// internal/historian/historian.go
package historian

import (
	"context"
	"errors"
	"time"

	"github.com/jason-s-yu/runo/internal/models"
	"github.com/sirupsen/logrus"
)

// Queue is the consumer side of the action queue (cache.ActionQueue).
type Queue interface {
	Pop(ctx context.Context, timeout time.Duration) (*models.GameAction, error)
}

// Sink persists one batch of actions (database.InsertActions bound to a pool).
type Sink func(ctx context.Context, actions []models.GameAction) error

// ErrRejected is wrapped by a Sink for records that can never be stored. The
// historian drops such records instead of retrying them.
var ErrRejected = errors.New("action rejected")

const (
	// maxFlushAttempts is how many times a batch is retried whole before its records
	// are written one by one.
	maxFlushAttempts = 3
	// pendingFactor bounds the backlog to pendingFactor*batchSize records; the oldest
	// are dropped beyond that.
	pendingFactor = 50
)

// Historian pops game actions off the queue and writes them in batches. A batch is
// flushed when it reaches BatchSize records or FlushDelay has passed since the last flush.
type Historian struct {
	queue      Queue
	sink       Sink
	batchSize  int
	flushDelay time.Duration
	popTimeout time.Duration
	retryDelay time.Duration
	logger     logrus.FieldLogger

	batch    []models.GameAction
	failures int
}

// New returns a Historian. Non-positive sizes fall back to 20 records and 500ms.
func New(queue Queue, sink Sink, batchSize int, flushDelay time.Duration, logger logrus.FieldLogger) *Historian {
	if batchSize <= 0 {
		batchSize = 20
	}
	if flushDelay <= 0 {
		flushDelay = 500 * time.Millisecond
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	popTimeout := flushDelay
	if popTimeout < time.Second {
		// BLPOP timeouts below one second are rounded by redis
		popTimeout = time.Second
	}
	return &Historian{
		queue:      queue,
		sink:       sink,
		batchSize:  batchSize,
		flushDelay: flushDelay,
		popTimeout: popTimeout,
		retryDelay: time.Second,
		logger:     logger,
		batch:      make([]models.GameAction, 0, batchSize),
	}
}

// Run consumes the queue until ctx is cancelled, then flushes what is left.
func (h *Historian) Run(ctx context.Context) error {
	h.logger.Info("runo-historian service started.")
	lastFlush := time.Now()
	for {
		if ctx.Err() != nil {
			h.flush(context.Background())
			h.logger.Info("runo-historian shutting down.")
			return nil
		}

		record, err := h.queue.Pop(ctx, h.popTimeout)
		switch {
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			continue
		case err != nil:
			h.logger.WithError(err).Error("failed to pop action")
			h.wait(ctx)
		case record != nil:
			h.batch = append(h.batch, *record)
		}

		if len(h.batch) >= h.batchSize || (len(h.batch) > 0 && time.Since(lastFlush) >= h.flushDelay) {
			if !h.flush(ctx) {
				h.wait(ctx)
			}
			lastFlush = time.Now()
		}
	}
}

// flush writes the pending batch. A failed batch is kept and retried with the next
// flush. After maxFlushAttempts failures the records are written singly so rejected
// ones can be dropped without holding back the rest. It reports whether the batch
// was written.
func (h *Historian) flush(ctx context.Context) bool {
	if len(h.batch) == 0 {
		return true
	}
	err := h.sink(ctx, h.batch)
	if err == nil {
		h.logger.Debugf("Flushed %d actions to DB.", len(h.batch))
		h.batch = h.batch[:0]
		h.failures = 0
		return true
	}

	h.failures++
	h.logger.WithError(err).WithField("pending", len(h.batch)).Error("failed to flush actions")
	if h.failures >= maxFlushAttempts {
		h.flushSingly(ctx)
	}
	h.trim()
	return false
}

func (h *Historian) flushSingly(ctx context.Context) {
	kept := h.batch[:0]
	for _, record := range h.batch {
		err := h.sink(ctx, []models.GameAction{record})
		switch {
		case err == nil:
		case errors.Is(err, ErrRejected):
			h.logger.WithError(err).WithFields(logrus.Fields{
				"game":         record.GameID,
				"action_index": record.ActionIndex,
				"action_type":  record.ActionType,
			}).Error("dropping action")
		default:
			kept = append(kept, record)
		}
	}
	h.batch = kept
	h.failures = 0
}

// trim drops the oldest records once the backlog outgrows its bound.
func (h *Historian) trim() {
	limit := pendingFactor * h.batchSize
	if len(h.batch) <= limit {
		return
	}
	dropped := len(h.batch) - limit
	h.logger.WithField("dropped", dropped).Error("action backlog full, dropping oldest actions")
	h.batch = append(h.batch[:0], h.batch[dropped:]...)
}

// wait pauses after a queue error so a lost connection does not spin the loop.
func (h *Historian) wait(ctx context.Context) {
	t := time.NewTimer(h.retryDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
