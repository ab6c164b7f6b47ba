package cache

import (
	"context"

	"github.com/cbodonnell/reactions/pkg/assets"
	"github.com/cbodonnell/reactions/pkg/game/types"
)

// Handle controls one in-flight download.
type Handle interface {
	Pause() error
	Cancel() error
	Wait(ctx context.Context) (string, error)
}

// Fetcher starts downloads on behalf of the manager.
type Fetcher interface {
	Fetch(ctx context.Context, sessionID int64, ref types.AssetRef) (Handle, error)
}

// Dispatcher runs fn on the control thread and returns once it has run.
type Dispatcher func(ctx context.Context, fn func()) error

// Saver persists a value under key. Implementations must not block.
type Saver interface {
	Save(key string, value interface{})
}

// AssetFetcher adapts an *assets.Fetcher to the Fetcher interface.
type AssetFetcher struct {
	fetcher  *assets.Fetcher
	observer assets.Observer
}

func NewAssetFetcher(fetcher *assets.Fetcher, observer assets.Observer) *AssetFetcher {
	return &AssetFetcher{
		fetcher:  fetcher,
		observer: observer,
	}
}

func (a *AssetFetcher) Fetch(ctx context.Context, sessionID int64, ref types.AssetRef) (Handle, error) {
	d, err := a.fetcher.Fetch(ctx, sessionID, ref, a.observer)
	if err != nil {
		// keep the interface nil rather than wrapping a nil *Download
		return nil, err
	}
	return d, nil
}
