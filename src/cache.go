package terminal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/berrym/lusush-sub003/src/tui"
)

type cacheEntry struct {
	Profile tui.Profile `json:"profile"`
	SavedAt time.Time   `json:"saved_at"`
}

// ProfileCache persists probed capability profiles across sessions so a
// known terminal does not pay the probing latency on every startup. Only
// profiles the device itself confirmed are stored; heuristic guesses are
// cheap to recompute and not worth pinning.
type ProfileCache struct {
	path    string
	mutex   sync.Mutex
	entries map[string]cacheEntry
}

// NewProfileCache loads the cache file at path. A missing or corrupt file
// yields an empty cache, never an error; the cache is an optimization.
func NewProfileCache(path string) *ProfileCache {
	cache := &ProfileCache{path: path, entries: make(map[string]cacheEntry)}
	if len(path) == 0 {
		return cache
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cache
	}
	if json.Unmarshal(data, &cache.entries) != nil {
		cache.entries = make(map[string]cacheEntry)
	}
	return cache
}

// Find returns the cached profile for the key, if present and not stale.
func (c *ProfileCache) Find(key string) (tui.Profile, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, found := c.entries[key]
	if !found || time.Since(entry.SavedAt) > cacheMaxAge {
		return tui.Profile{}, false
	}
	if entry.Profile.Reliability != tui.Reliable {
		return tui.Profile{}, false
	}
	return entry.Profile, true
}

// Store records a probed profile and rewrites the cache file. Heuristic
// profiles are ignored; a fresh probe result always replaces an older
// entry for the same terminal.
func (c *ProfileCache) Store(profile tui.Profile) error {
	if profile.Reliability != tui.Reliable {
		return nil
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries[profile.CacheKey()] = cacheEntry{
		Profile: profile,
		SavedAt: time.Now(),
	}
	if len(c.path) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0600)
}
