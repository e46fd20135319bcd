package terminal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/berrym/lusush-sub003/src/tui"
)

func cachePath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "capabilities.json")
}

func TestProfileCacheRoundTrip(t *testing.T) {
	path := cachePath(t)
	probed := tui.Profile{
		TermName:    "xterm-ghostty",
		Program:     "ghostty",
		ID:          "?62;4",
		SyncOutput:  true,
		Reliability: tui.Reliable,
	}
	if err := NewProfileCache(path).Store(probed); err != nil {
		t.Fatal(err)
	}

	// A fresh cache instance must see what the previous one stored
	found, ok := NewProfileCache(path).Find(probed.CacheKey())
	if !ok {
		t.Fatal("stored profile not found")
	}
	if found.ID != "?62;4" || !found.SyncOutput {
		t.Errorf("loaded profile: %+v", found)
	}
}

func TestProfileCacheIgnoresHeuristic(t *testing.T) {
	path := cachePath(t)
	cache := NewProfileCache(path)
	if err := cache.Store(tui.Profile{TermName: "vt100"}); err != nil {
		t.Fatal(err)
	}
	if _, ok := cache.Find("vt100/"); ok {
		t.Error("heuristic profile was cached")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("cache file written for a heuristic profile")
	}
}

func TestProfileCacheExpiry(t *testing.T) {
	path := cachePath(t)
	stale := map[string]cacheEntry{
		"xterm/foot": {
			Profile: tui.Profile{
				TermName:    "xterm",
				Program:     "foot",
				Reliability: tui.Reliable,
			},
			SavedAt: time.Now().Add(-2 * cacheMaxAge),
		},
	}
	data, err := json.Marshal(stale)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}
	if _, ok := NewProfileCache(path).Find("xterm/foot"); ok {
		t.Error("stale entry served")
	}
}

func TestProfileCacheCorruptFile(t *testing.T) {
	path := cachePath(t)
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	cache := NewProfileCache(path)
	if _, ok := cache.Find("anything"); ok {
		t.Error("corrupt cache produced a hit")
	}
	// And it must recover by overwriting
	if err := cache.Store(tui.Profile{
		TermName: "xterm", Reliability: tui.Reliable}); err != nil {
		t.Fatal(err)
	}
	if _, ok := NewProfileCache(path).Find("xterm/"); !ok {
		t.Error("cache did not recover from corruption")
	}
}

func TestProfileCacheDisabled(t *testing.T) {
	cache := NewProfileCache("")
	if err := cache.Store(tui.Profile{
		TermName: "xterm", Reliability: tui.Reliable}); err != nil {
		t.Fatal(err)
	}
	// In-memory lookups still work within the process
	if _, ok := cache.Find("xterm/"); !ok {
		t.Error("in-memory entry lost")
	}
}
