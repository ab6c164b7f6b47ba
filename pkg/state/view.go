package state

import (
	"time"

	"github.com/cbodonnell/reactions/pkg/game/types"
)

// View is an immutable snapshot of the local app state published by the
// control thread for concurrent readers.
type View struct {
	Phase        types.Phase                `json:"phase"`
	Mode         string                     `json:"mode"`
	Game         *types.GameSnapshot        `json:"game"`
	Participant  *types.ParticipantSnapshot `json:"participant"`
	ErrorMessage string                     `json:"errorMessage,omitempty"`
	NetworkError bool                       `json:"networkError"`
	CountdownMs  *int64                     `json:"countdownMs"`
	AppIsActive  bool                       `json:"appIsActive"`
	// CacheEntries maps asset ids to local files
	CacheEntries         map[int64]string `json:"cacheEntries"`
	PendingAssets        []int64          `json:"pendingAssets"`
	HighestCachedAssetID *int64           `json:"highestCachedAssetId"`
	UpdatedAt            time.Time        `json:"updatedAt"`
}

// Copy returns a deep copy of the view.
func (v *View) Copy() *View {
	if v == nil {
		return nil
	}
	c := *v
	c.Game = v.Game.Copy()
	c.Participant = v.Participant.Copy()
	if v.CountdownMs != nil {
		countdown := *v.CountdownMs
		c.CountdownMs = &countdown
	}
	if v.CacheEntries != nil {
		c.CacheEntries = make(map[int64]string, len(v.CacheEntries))
		for id, path := range v.CacheEntries {
			c.CacheEntries[id] = path
		}
	}
	if v.PendingAssets != nil {
		c.PendingAssets = append([]int64(nil), v.PendingAssets...)
	}
	if v.HighestCachedAssetID != nil {
		watermark := *v.HighestCachedAssetID
		c.HighestCachedAssetID = &watermark
	}
	return &c
}
