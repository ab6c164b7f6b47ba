package game

import (
	"encoding/json"

	"github.com/cbodonnell/reactions/pkg/log"
	"github.com/cbodonnell/reactions/pkg/repositories"
	"github.com/google/uuid"
)

// InstallID returns the persisted install id, or a freshly generated one
// when none was saved. created reports whether the id is new.
func InstallID(saved map[string]json.RawMessage) (id string, created bool) {
	if raw, ok := saved[repositories.KeyInstallID]; ok {
		if err := json.Unmarshal(raw, &id); err == nil {
			if _, err := uuid.Parse(id); err == nil {
				return id, false
			}
		}
		log.Warn("Ignoring invalid persisted install id")
	}
	return uuid.NewString(), true
}

// cacheEntries decodes the persisted cache entry map.
func cacheEntries(saved map[string]json.RawMessage) map[int64]string {
	raw, ok := saved[repositories.KeyCacheEntries]
	if !ok {
		return nil
	}
	entries := make(map[int64]string)
	if err := json.Unmarshal(raw, &entries); err != nil {
		log.Error("Failed to decode persisted cache entries: %v", err)
		return nil
	}
	return entries
}
