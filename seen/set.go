// Package seen keeps the durable set of item identifiers already notified.
// The set only grows.
package seen

import (
	"context"
	"fmt"
	"sort"
)

// Set is a set of item identifiers
type Set map[string]struct{}

// NewSet creates a set holding ids
func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	s.Add(ids...)
	return s
}

// Has reports whether id is in the set
func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Add inserts ids and returns how many were not present before
func (s Set) Add(ids ...string) int {
	added := 0
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := s[id]; !ok {
			s[id] = struct{}{}
			added++
		}
	}
	return added
}

// Len returns the number of identifiers
func (s Set) Len() int {
	return len(s)
}

// Sorted returns the identifiers in ascending order
func (s Set) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Store loads and saves the seen set
type Store interface {
	// Load returns the stored set. Implementations report unreadable state as an error;
	// callers decide whether to start empty.
	Load(ctx context.Context) (Set, error)
	// Save durably records every identifier in s
	Save(ctx context.Context, s Set) error
	Close() error
}

// PersistenceError means the seen set could not be written
type PersistenceError struct {
	Backend string
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist seen set (%s): %v", e.Backend, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
