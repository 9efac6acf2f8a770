package counter

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// WriteBuffer coalesces rapid count increments in memory and writes them
// out after an idle delay, so a burst of messages costs one store write per
// key instead of one per message. Flush must be called on shutdown.
type WriteBuffer struct {
	repo  Repository
	delay time.Duration

	mu      sync.Mutex
	pending map[string]int64
	timer   *time.Timer
}

func NewWriteBuffer(repo Repository, delay time.Duration) *WriteBuffer {
	if delay <= 0 {
		delay = 250 * time.Millisecond
	}
	return &WriteBuffer{
		repo:    repo,
		delay:   delay,
		pending: make(map[string]int64),
	}
}

// Add records one increment for the key and (re)arms the flush timer.
func (b *WriteBuffer) Add(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pending[key]++

	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.delay, func() {
		if err := b.Flush(context.Background()); err != nil {
			logrus.WithError(err).Error("Deferred counter flush failed")
		}
	})
}

// Flush writes all pending increments to the store. Increments that fail to
// write are put back so they are retried on the next flush.
func (b *WriteBuffer) Flush(ctx context.Context) error {
	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	pending := b.pending
	b.pending = make(map[string]int64)
	b.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	var firstErr error
	for key, delta := range pending {
		if err := b.repo.IncrementBy(ctx, key, delta); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			b.mu.Lock()
			b.pending[key] += delta
			b.mu.Unlock()
		}
	}

	if firstErr == nil {
		logrus.WithField("keys", len(pending)).Debug("Flushed message counters")
	}
	return firstErr
}

// Pending reports the number of keys waiting to be flushed.
func (b *WriteBuffer) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
