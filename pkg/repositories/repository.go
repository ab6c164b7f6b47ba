package repositories

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
)

const (
	KeyGame         = "game"
	KeyParticipant  = "participant"
	KeyErrorMessage = "errorMessage"
	KeyCacheEntries = "cacheEntries"
	KeyPushToken    = "pushToken"
	KeyInstallID    = "installId"
)

// Keys lists every key the runtime persists.
var Keys = []string{
	KeyGame,
	KeyParticipant,
	KeyErrorMessage,
	KeyCacheEntries,
	KeyPushToken,
	KeyInstallID,
}

// Repository is a persistent key/value store for the client's state.
// Values are JSON documents. Load is called once at startup; Save is only
// called by a single writer.
type Repository interface {
	Close(ctx context.Context) error
	Load(ctx context.Context) (map[string]json.RawMessage, error)
	Save(ctx context.Context, key string, value json.RawMessage) error
}

//go:embed migrations
var migrations embed.FS

// migrationScripts returns the migration scripts for driver in lexical order.
func migrationScripts(driver string) ([]string, error) {
	dir := path.Join("migrations", driver)
	entries, err := fs.ReadDir(migrations, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %v", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var scripts []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		migrationPath := path.Join(dir, entry.Name())
		b, err := fs.ReadFile(migrations, migrationPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %v", migrationPath, err)
		}
		scripts = append(scripts, string(b))
	}
	return scripts, nil
}

// normalize maps an empty value to JSON null so every store holds valid JSON.
func normalize(value json.RawMessage) json.RawMessage {
	if len(value) == 0 {
		return json.RawMessage("null")
	}
	return value
}
