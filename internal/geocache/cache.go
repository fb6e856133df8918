// Package geocache persists geocoding results keyed by full address so repeat runs skip the geocoder.
package geocache

import (
	"context"

	"github.com/rotisserie/eris"
)

// DefaultTable is the table the cache is persisted to.
const DefaultTable = "geocoding_cache"

// ErrConflictingEntry is returned by Merge when an address would map to two different results.
var ErrConflictingEntry = eris.New("geocache: conflicting entry")

// Entry is one cached geocoding result. Located is false only for legacy rows stored with
// NULL coordinates.
type Entry struct {
	Address      string
	Longitude    float64
	Latitude     float64
	LocationType string
	Score        int
	Located      bool
}

// Store loads and persists the cache.
type Store interface {
	// Load returns every persisted entry. A missing backing table yields an empty cache.
	Load(ctx context.Context) (*Cache, error)
	// Persist fully replaces the backing table with c.
	Persist(ctx context.Context, c *Cache) error
}

// Cache is an ordered collection of entries indexed by address.
type Cache struct {
	entries []Entry
	index   map[string][]int
}

// New builds a cache from entries, keeping their order. Rows are not deduplicated.
func New(entries ...Entry) *Cache {
	c := &Cache{index: make(map[string][]int, len(entries))}
	for _, e := range entries {
		c.add(e)
	}
	return c
}

func (c *Cache) add(e Entry) {
	c.index[e.Address] = append(c.index[e.Address], len(c.entries))
	c.entries = append(c.entries, e)
}

// Len returns the number of rows.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Entries returns a copy of the rows in insertion order.
func (c *Cache) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Lookup returns the first row stored under address. Matching is exact.
func (c *Cache) Lookup(address string) (Entry, bool) {
	idx, ok := c.index[address]
	if !ok || len(idx) == 0 {
		return Entry{}, false
	}
	return c.entries[idx[0]], true
}

// Matches returns every row stored under address.
func (c *Cache) Matches(address string) []Entry {
	idx := c.index[address]
	out := make([]Entry, len(idx))
	for i, j := range idx {
		out[i] = c.entries[j]
	}
	return out
}

// Merge returns the union of existing and newEntries, in that order. Every row identical to one
// already present is collapsed, including duplicates carried by existing; a row whose address is
// present with different values fails with ErrConflictingEntry. existing is not modified.
func Merge(existing *Cache, newEntries []Entry) (*Cache, error) {
	var base []Entry
	if existing != nil {
		base = existing.entries
	}
	out := New()

	for _, list := range [][]Entry{base, newEntries} {
		for _, e := range list {
			dup := false
			for _, prev := range out.Matches(e.Address) {
				if prev != e {
					return nil, eris.Wrapf(ErrConflictingEntry, "address %q", e.Address)
				}
				dup = true
			}
			if !dup {
				out.add(e)
			}
		}
	}
	return out, nil
}
