package state

import (
	"context"
	"fmt"
	"sync"

	"github.com/cbodonnell/reactions/pkg/game/types"
)

type InMemoryStateManager struct {
	lock sync.RWMutex
	view *View
}

func NewInMemoryStateManager() *InMemoryStateManager {
	return &InMemoryStateManager{
		view: &View{
			Phase:        types.PhaseNoGame,
			CacheEntries: make(map[int64]string),
		},
	}
}

func (m *InMemoryStateManager) Get(ctx context.Context) (*View, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.view.Copy(), nil
}

func (m *InMemoryStateManager) Set(ctx context.Context, view *View) error {
	if view == nil {
		return fmt.Errorf("view is nil")
	}

	m.lock.Lock()
	defer m.lock.Unlock()
	m.view = view.Copy()
	return nil
}
