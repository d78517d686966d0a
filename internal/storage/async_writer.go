package storage

import (
	"context"
	"sync"
	"time"

	"github.com/everforgeworks/tycoon-clicker/internal/platform/logger"
)

// SaveRecorder observes completed writes (metrics hook).
type SaveRecorder interface {
	RecordSave(latency time.Duration, err error)
}

// AsyncWriter moves save I/O off the game loop.
//
// Submit only swaps the pending blob, so the caller may hold its own lock
// while calling it. Blobs are complete snapshots; when several arrive before
// the writer wakes up, only the newest is written.
type AsyncWriter struct {
	store    Store
	logger   *logger.Logger
	recorder SaveRecorder
	timeout  time.Duration

	mu      sync.Mutex
	pending []byte

	writeMu sync.Mutex
	wake    chan struct{}
}

// NewAsyncWriter wraps store. recorder may be nil.
func NewAsyncWriter(store Store, log *logger.Logger, recorder SaveRecorder) *AsyncWriter {
	return &AsyncWriter{
		store:    store,
		logger:   log,
		recorder: recorder,
		timeout:  5 * time.Second,
		wake:     make(chan struct{}, 1),
	}
}

// Submit queues blob as the next thing to write. It never blocks.
func (w *AsyncWriter) Submit(blob []byte) {
	w.mu.Lock()
	w.pending = blob
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Run writes queued blobs until ctx is done. Call in a goroutine and Flush afterwards.
func (w *AsyncWriter) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.wake:
			wctx, cancel := context.WithTimeout(context.Background(), w.timeout)
			w.write(wctx)
			cancel()
		}
	}
}

// Flush synchronously writes whatever is pending.
func (w *AsyncWriter) Flush(ctx context.Context) error {
	return w.write(ctx)
}

func (w *AsyncWriter) write(ctx context.Context) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	w.mu.Lock()
	blob := w.pending
	w.pending = nil
	w.mu.Unlock()
	if blob == nil {
		return nil
	}

	start := time.Now()
	err := w.store.Save(ctx, blob)
	if w.recorder != nil {
		w.recorder.RecordSave(time.Since(start), err)
	}
	if err != nil {
		w.logger.Error("Save failed: " + err.Error())
	}
	return err
}
