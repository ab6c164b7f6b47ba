package workers

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/cbodonnell/reactions/pkg/game/constants"
	"github.com/cbodonnell/reactions/pkg/log"
	"github.com/cbodonnell/reactions/pkg/repositories"
)

// shutdownFlushTimeout bounds the final flush when the worker stops.
const shutdownFlushTimeout = 5 * time.Second

// SaveWorker is the single writer of the repository. Save requests are
// coalesced per key so only the latest value is written.
type SaveWorker struct {
	repository repositories.Repository
	interval   time.Duration

	lock    sync.Mutex
	pending map[string]json.RawMessage
	notify  chan struct{}
}

type NewSaveWorkerOptions struct {
	Repository repositories.Repository
	// Interval is the period of the background flush; requests are also
	// flushed as soon as the worker is idle
	Interval time.Duration
}

// NewSaveWorker creates a new SaveWorker.
// The worker processes save requests from the control loop and
// writes them to the repository.
func NewSaveWorker(opts NewSaveWorkerOptions) *SaveWorker {
	if opts.Interval <= 0 {
		opts.Interval = constants.SaveInterval
	}
	return &SaveWorker{
		repository: opts.Repository,
		interval:   opts.Interval,
		pending:    make(map[string]json.RawMessage),
		notify:     make(chan struct{}, 1),
	}
}

// Save queues value to be written under key. The value is encoded right away
// so callers may keep mutating their own copy. Save never blocks.
func (w *SaveWorker) Save(key string, value interface{}) {
	b, err := json.Marshal(value)
	if err != nil {
		log.Error("Failed to encode %s for saving: %v", key, err)
		return
	}

	w.lock.Lock()
	w.pending[key] = b
	w.lock.Unlock()

	select {
	case w.notify <- struct{}{}:
	default:
	}
}

func (w *SaveWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), shutdownFlushTimeout)
			w.flush(flushCtx)
			cancel()
			return
		case <-w.notify:
			w.flush(ctx)
		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

func (w *SaveWorker) flush(ctx context.Context) {
	w.lock.Lock()
	if len(w.pending) == 0 {
		w.lock.Unlock()
		return
	}
	batch := w.pending
	w.pending = make(map[string]json.RawMessage)
	w.lock.Unlock()

	keys := make([]string, 0, len(batch))
	for key := range batch {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := w.repository.Save(ctx, key, batch[key]); err != nil {
			log.Error("Failed to save %s: %v", key, err)
			continue
		}
		log.Trace("Saved %s", key)
	}
}
