package assets

import (
	"context"
	"sync"

	"github.com/cbodonnell/reactions/pkg/game/types"
	"github.com/cbodonnell/reactions/pkg/log"
)

type State int

const (
	StateRunning State = iota
	StatePaused
	StateCancelled
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateCancelled:
		return "cancelled"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateCancelled || s == StateDone || s == StateFailed
}

// Download is a single resumable transfer of one asset.
type Download struct {
	fetcher  *Fetcher
	ref      types.AssetRef
	path     string
	observer Observer
	ctx      context.Context

	mu    sync.Mutex
	state State
	// cancel stops the current transfer; exited is closed once it returns
	cancel    context.CancelFunc
	exited    chan struct{}
	done      chan struct{}
	localPath string
	err       error
}

// AssetID returns the id of the asset being downloaded.
func (d *Download) AssetID() int64 {
	return d.ref.ID
}

// Path returns the final local path of the asset.
func (d *Download) Path() string {
	return d.path
}

func (d *Download) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// start launches a transfer. d.mu must be held.
func (d *Download) start() {
	ctx, cancel := context.WithCancel(d.ctx)
	exited := make(chan struct{})
	d.state = StateRunning
	d.cancel = cancel
	d.exited = exited
	go d.run(ctx, exited)
}

func (d *Download) run(ctx context.Context, exited chan struct{}) {
	err := d.fetcher.transfer(ctx, d)
	d.mu.Lock()
	defer d.mu.Unlock()
	close(exited)

	switch d.state {
	case StateRunning:
		if err != nil {
			d.finish(StateFailed, err)
			return
		}
		d.finish(StateDone, nil)
	case StatePaused:
		// the transfer may have completed before the pause took effect
		if err == nil {
			d.finish(StateDone, nil)
		}
	}
}

// finish moves the download into a terminal state. d.mu must be held.
func (d *Download) finish(state State, err error) {
	if d.state.Terminal() && d.state != StateCancelled {
		return
	}
	d.state = state
	d.err = err
	if state == StateDone {
		d.localPath = d.path
	}
	if d.cancel != nil {
		d.cancel()
	}
	select {
	case <-d.done:
	default:
		close(d.done)
	}
}

func (d *Download) report(p Progress) {
	log.Trace("Asset %d progress: %d/%d bytes", p.AssetID, p.BytesWritten, p.BytesExpected)
	if d.observer != nil {
		d.observer(p)
	}
}

// Pause stops the transfer, keeping the bytes written so far.
func (d *Download) Pause() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != StateRunning {
		return nil
	}
	d.state = StatePaused
	d.cancel()
	return nil
}

// Resume continues a paused transfer from where it stopped.
func (d *Download) Resume() error {
	d.mu.Lock()
	if d.state != StatePaused {
		d.mu.Unlock()
		return nil
	}
	exited := d.exited
	d.mu.Unlock()

	<-exited

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == StatePaused {
		d.start()
	}
	return nil
}

// Cancel stops the transfer and discards any partial bytes. Cancelling a
// finished download is a no-op.
func (d *Download) Cancel() error {
	d.mu.Lock()
	if d.state.Terminal() {
		d.mu.Unlock()
		return nil
	}
	d.state = StateCancelled
	d.cancel()
	exited := d.exited
	d.mu.Unlock()

	<-exited

	fs := d.fetcher.fs
	if err := fs.Remove(partPath(d.path)); err != nil && !isNotExist(err) {
		log.Warn("Failed to remove partial asset %d: %v", d.ref.ID, err)
	}
	// a transfer that completed while being cancelled is not kept
	if err := fs.Remove(d.path); err != nil && !isNotExist(err) {
		log.Warn("Failed to remove cancelled asset %d: %v", d.ref.ID, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.finish(StateCancelled, &FetchError{Kind: FetchErrorCancelled, AssetID: d.ref.ID})
	return nil
}

// Wait blocks until the download reaches a terminal state and returns the
// local path of the completed file. A paused download keeps Wait blocked
// until it is resumed or cancelled.
func (d *Download) Wait(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-d.done:
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.localPath, d.err
}
