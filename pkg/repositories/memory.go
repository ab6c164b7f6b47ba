package repositories

import (
	"context"
	"encoding/json"
	"sync"
)

// InMemoryRepository keeps state for the lifetime of the process only.
type InMemoryRepository struct {
	lock   sync.RWMutex
	values map[string]json.RawMessage
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		values: make(map[string]json.RawMessage),
	}
}

func (r *InMemoryRepository) Close(ctx context.Context) error {
	return nil
}

func (r *InMemoryRepository) Load(ctx context.Context) (map[string]json.RawMessage, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	values := make(map[string]json.RawMessage, len(r.values))
	for k, v := range r.values {
		values[k] = append(json.RawMessage(nil), v...)
	}
	return values, nil
}

func (r *InMemoryRepository) Save(ctx context.Context, key string, value json.RawMessage) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.values[key] = append(json.RawMessage(nil), normalize(value)...)
	return nil
}
