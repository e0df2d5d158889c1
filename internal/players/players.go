// Package players maintains the local player catalog: per-name portrait
// overrides and scouting notes, optionally seeded from a JSON file.
package players

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// ErrEmptyName is returned when a catalog entry has no name.
var ErrEmptyName = errors.New("player name is required")

// LocalPlayer is one catalog entry. Names are matched case-insensitively.
type LocalPlayer struct {
	Name     string `json:"name"`
	ImageURL string `json:"image_url,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// Catalog is a thread-safe, name-keyed store of local players.
type Catalog struct {
	mu      sync.RWMutex
	players map[string]LocalPlayer
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{players: make(map[string]LocalPlayer)}
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// LoadFile seeds the catalog from a JSON array of LocalPlayer objects.
// An empty path is a no-op.
func (c *Catalog) LoadFile(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read players file: %w", err)
	}
	var entries []LocalPlayer
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse players file %s: %w", path, err)
	}
	for _, p := range entries {
		if err := c.Upsert(p); err != nil {
			return fmt.Errorf("players file %s: %w", path, err)
		}
	}
	return nil
}

// Upsert adds or replaces an entry, keyed by normalized name.
func (c *Catalog) Upsert(p LocalPlayer) error {
	key := nameKey(p.Name)
	if key == "" {
		return ErrEmptyName
	}
	p.Name = strings.TrimSpace(p.Name)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.players[key] = p
	return nil
}

// Get returns the entry for a name.
func (c *Catalog) Get(name string) (LocalPlayer, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.players[nameKey(name)]
	return p, ok
}

// Remove deletes the entry for a name. Returns false if absent.
func (c *Catalog) Remove(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := nameKey(name)
	if _, ok := c.players[key]; !ok {
		return false
	}
	delete(c.players, key)
	return true
}

// List returns all entries sorted by name.
func (c *Catalog) List() []LocalPlayer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]LocalPlayer, 0, len(c.players))
	for _, p := range c.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// Count returns the number of entries.
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.players)
}

// PortraitOverride returns the curated portrait URL for a name, if one is
// set. Satisfies the portrait lookup's override hook.
func (c *Catalog) PortraitOverride(name string) (string, bool) {
	p, ok := c.Get(name)
	if !ok || p.ImageURL == "" {
		return "", false
	}
	return p.ImageURL, true
}
