package cache

import (
	"context"
	"errors"
	"io/fs"
	"sort"
	"sync/atomic"

	"github.com/cbodonnell/reactions/pkg/assets"
	"github.com/cbodonnell/reactions/pkg/game/types"
	"github.com/cbodonnell/reactions/pkg/log"
	"github.com/cbodonnell/reactions/pkg/repositories"
	"github.com/spf13/afero"
)

// Manager turns the authority's asset queue into local files.
//
// Every method except Running must be called on the control thread. The
// window pass runs on its own goroutine and reaches back into the manager
// only through the dispatcher.
type Manager struct {
	fs       afero.Fs
	fetcher  Fetcher
	dispatch Dispatcher
	saver    Saver
	logger   *log.Logger

	ctx    context.Context
	cancel context.CancelFunc

	// running is set while a window pass is in flight
	running atomic.Bool

	entries      map[int64]string
	pending      map[int64]Handle
	watermark    int64
	hasWatermark bool
	activeID     int64
	// generation is bumped by Evict so that a pass started before the
	// eviction stops at its next step
	generation uint64
}

type NewManagerOptions struct {
	Fs       afero.Fs
	Fetcher  Fetcher
	Dispatch Dispatcher
	Saver    Saver
}

func NewManager(opts NewManagerOptions) *Manager {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		fs:       opts.Fs,
		fetcher:  opts.Fetcher,
		dispatch: opts.Dispatch,
		saver:    opts.Saver,
		logger:   log.Default().WithComponent("cache"),
		ctx:      ctx,
		cancel:   cancel,
		entries:  make(map[int64]string),
		pending:  make(map[int64]Handle),
	}
}

// Close stops any pass in flight and the downloads it started.
func (m *Manager) Close() {
	m.cancel()
}

// Running reports whether a window pass is in flight.
func (m *Manager) Running() bool {
	return m.running.Load()
}

// Restore loads persisted entries, dropping those whose file is gone.
func (m *Manager) Restore(entries map[int64]string) {
	dropped := 0
	for id, path := range entries {
		if _, err := m.fs.Stat(path); err != nil {
			m.logger.Debug("Dropping cache entry for asset %d: %v", id, err)
			dropped++
			continue
		}
		m.entries[id] = path
	}
	if dropped > 0 {
		m.persist()
	}
	m.logger.Info("Restored %d cached assets (%d dropped)", len(m.entries), dropped)
}

// HighestCachedAssetID returns the watermark, if set.
func (m *Manager) HighestCachedAssetID() (int64, bool) {
	return m.watermark, m.hasWatermark
}

// Entries returns a copy of the published cache entries.
func (m *Manager) Entries() map[int64]string {
	entries := make(map[int64]string, len(m.entries))
	for id, path := range m.entries {
		entries[id] = path
	}
	return entries
}

// PendingIDs returns the ids of the assets being downloaded, in order.
func (m *Manager) PendingIDs() []int64 {
	ids := make([]int64, 0, len(m.pending))
	for id := range m.pending {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Annotate returns a copy of ref marked with its local file, if cached.
func (m *Manager) Annotate(ref types.AssetRef) types.AssetRef {
	path, ok := m.entries[ref.ID]
	ref.Cached = ok
	ref.LocalPath = path
	return ref
}

// AnnotateGame returns a copy of game with every asset annotated.
func (m *Manager) AnnotateGame(game *types.GameSnapshot) *types.GameSnapshot {
	c := game.Copy()
	if c == nil {
		return nil
	}
	if c.CurrentAsset != nil {
		annotated := m.Annotate(*c.CurrentAsset)
		c.CurrentAsset = &annotated
	}
	for i := range c.AssetQueue {
		c.AssetQueue[i] = m.Annotate(c.AssetQueue[i])
	}
	return c
}

// ReconcileAssetWindow starts a pass that makes the assets in queue
// available locally, newest first, one download at a time. It returns
// false without doing anything when a pass is already in flight.
func (m *Manager) ReconcileAssetWindow(sessionID int64, queue []types.AssetRef, activeAssetID int64) bool {
	if !m.running.CompareAndSwap(false, true) {
		m.logger.Debug("Asset window pass already running")
		return false
	}
	if activeAssetID > m.activeID {
		m.activeID = activeAssetID
	}
	window := make([]types.AssetRef, len(queue))
	copy(window, queue)
	go m.pass(sessionID, window, m.generation)
	return true
}

// pass runs off the control thread.
func (m *Manager) pass(sessionID int64, window []types.AssetRef, generation uint64) {
	defer m.running.Store(false)

	m.logger.Debug("Starting asset window pass over %d assets", len(window))
	failed := false
	for i := len(window) - 1; i >= 0; i-- {
		ref := window[i]

		var handle Handle
		var stop, skip bool
		if err := m.dispatch(m.ctx, func() {
			if m.generation != generation {
				stop = true
				return
			}
			if ref.ID < m.activeID {
				m.drop(ref.ID)
				skip = true
				return
			}
			if _, ok := m.entries[ref.ID]; ok {
				skip = true
				return
			}
			h, err := m.fetcher.Fetch(m.ctx, sessionID, ref)
			if err != nil {
				m.logger.Warn("Failed to start fetch of asset %d: %v", ref.ID, err)
				failed = true
				skip = true
				return
			}
			m.pending[ref.ID] = h
			handle = h
		}); err != nil {
			m.logger.Debug("Asset window pass interrupted: %v", err)
			return
		}
		if stop {
			m.logger.Debug("Asset window pass aborted by eviction")
			return
		}
		if skip {
			continue
		}

		path, waitErr := handle.Wait(m.ctx)
		if err := m.dispatch(m.ctx, func() {
			if current, ok := m.pending[ref.ID]; ok && current == handle {
				delete(m.pending, ref.ID)
			}
			if waitErr != nil {
				if assets.IsCancelled(waitErr) {
					m.logger.Debug("Fetch of asset %d cancelled", ref.ID)
					return
				}
				m.logger.Warn("Failed to fetch asset %d: %v", ref.ID, waitErr)
				failed = true
				return
			}
			if m.generation != generation || ref.ID < m.activeID {
				m.logger.Debug("Discarding superseded asset %d", ref.ID)
				m.removeFile(path)
				return
			}
			m.entries[ref.ID] = path
			m.persist()
			m.logger.Debug("Cached asset %d at %s", ref.ID, path)
		}); err != nil {
			m.logger.Debug("Asset window pass interrupted: %v", err)
			return
		}
	}

	if err := m.dispatch(m.ctx, func() {
		if m.generation != generation {
			return
		}
		if failed {
			m.logger.Info("Asset window pass finished with failures, will retry on next poll")
			return
		}
		if len(window) > 0 && (!m.hasWatermark || window[0].ID > m.watermark) {
			m.watermark = window[0].ID
			m.hasWatermark = true
		}
		m.logger.Debug("Asset window pass finished, watermark %d", m.watermark)
	}); err != nil {
		m.logger.Debug("Asset window pass interrupted: %v", err)
	}
}

// Supersede stops downloads of assets older than the new active asset.
func (m *Manager) Supersede(activeAssetID int64) {
	if activeAssetID > m.activeID {
		m.activeID = activeAssetID
	}
	for id := range m.pending {
		if id < m.activeID {
			m.logger.Debug("Asset %d superseded by %d", id, m.activeID)
			m.drop(id)
		}
	}
}

// Evict cancels all downloads and deletes every cached file.
func (m *Manager) Evict() {
	m.generation++
	for id := range m.pending {
		m.drop(id)
	}
	for id, path := range m.entries {
		m.removeFile(path)
		delete(m.entries, id)
	}
	m.watermark = 0
	m.hasWatermark = false
	m.activeID = 0
	m.persist()
	m.logger.Info("Evicted asset cache")
}

// drop cancels and forgets the pending download of id.
func (m *Manager) drop(id int64) {
	h, ok := m.pending[id]
	if !ok {
		return
	}
	delete(m.pending, id)
	if err := h.Cancel(); err != nil {
		m.logger.Warn("Failed to cancel fetch of asset %d: %v", id, err)
	}
}

func (m *Manager) removeFile(path string) {
	if path == "" {
		return
	}
	if err := m.fs.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		m.logger.Warn("Failed to remove cached file %s: %v", path, err)
	}
}

func (m *Manager) persist() {
	if m.saver == nil {
		return
	}
	m.saver.Save(repositories.KeyCacheEntries, m.Entries())
}
