// Package gpath assigns dense file ids to paths in first-seen order, the
// way the tag database numbers its files.
package gpath

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Table maps paths to ids starting at 1. It is safe for concurrent use.
type Table struct {
	mu     sync.RWMutex
	byHash map[uint64][]int // xxhash of the path -> ids sharing that hash
	paths  []string         // id-1 -> path
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{byHash: make(map[uint64][]int)}
}

// ID returns the id of path, assigning the next one on first sight.
func (t *Table) ID(path string) int {
	h := xxhash.Sum64String(path)

	t.mu.RLock()
	id := t.lookup(h, path)
	t.mu.RUnlock()
	if id != 0 {
		return id
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if id := t.lookup(h, path); id != 0 {
		return id
	}
	t.paths = append(t.paths, path)
	id = len(t.paths)
	t.byHash[h] = append(t.byHash[h], id)
	return id
}

// Lookup returns the id of path without assigning one.
func (t *Table) Lookup(path string) (int, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	id := t.lookup(xxhash.Sum64String(path), path)
	return id, id != 0
}

// Path returns the path for id.
func (t *Table) Path(id int) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if id < 1 || id > len(t.paths) {
		return "", false
	}
	return t.paths[id-1], true
}

// Len returns the number of assigned ids.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.paths)
}

func (t *Table) lookup(h uint64, path string) int {
	for _, id := range t.byHash[h] {
		if t.paths[id-1] == path {
			return id
		}
	}
	return 0
}
