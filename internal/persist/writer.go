package persist

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/moorebrett0/gremlin/internal/metrics"
	"github.com/moorebrett0/gremlin/internal/store"
)

// saveTimeout bounds each save started by Run. Saves are detached from Run's
// context so shutdown never interrupts a write halfway.
const saveTimeout = 10 * time.Second

// Snapshotter supplies a consistent copy of the store.
type Snapshotter interface {
	Snapshot() []store.Entry
}

// Writer is the single owner of persistence writes. Requests coalesce, and
// every save snapshots the store when it starts writing, so a save never sees
// state older than the request that triggered it and saves cannot overtake
// one another.
type Writer struct {
	src     Snapshotter
	gw      Gateway
	metrics *metrics.Metrics

	kick chan struct{}

	mu      sync.Mutex // serializes snapshot+save
	lastErr error
}

// NewWriter creates a writer saving src through gw.
func NewWriter(src Snapshotter, gw Gateway, m *metrics.Metrics) *Writer {
	return &Writer{
		src:     src,
		gw:      gw,
		metrics: m,
		kick:    make(chan struct{}, 1),
	}
}

// Request schedules a save. It never blocks.
func (w *Writer) Request() {
	select {
	case w.kick <- struct{}{}:
	default:
	}
}

// Run performs requested saves until ctx is cancelled, then flushes any
// request still pending.
func (w *Writer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			select {
			case <-w.kick:
				w.flushDetached()
			default:
			}
			return
		case <-w.kick:
			w.flushDetached()
		}
	}
}

func (w *Writer) flushDetached() {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	_ = w.Flush(ctx)
}

// Flush saves the current store contents now. Failures are logged and
// returned; the in-memory store stays authoritative.
func (w *Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	entries := w.src.Snapshot()
	start := time.Now()
	err := w.gw.Save(ctx, entries)
	w.metrics.Save(time.Since(start), err)
	w.lastErr = err
	if err != nil {
		slog.Error("persist: save failed", "pets", len(entries), "err", err)
		return err
	}
	slog.Debug("persist: saved", "pets", len(entries))
	return nil
}

// LastError returns the result of the most recent save.
func (w *Writer) LastError() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}
