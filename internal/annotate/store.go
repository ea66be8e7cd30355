// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package annotate holds the user's per-issue decisions (ignore, which side
// to update, free-text comment) and persists them as named sessions.
//
// Annotations are keyed by part number and issue kind. They are never
// checked against a comparison result: keys for parts that no longer exist
// are kept and simply match nothing.
package annotate

import (
	"cmp"
	"slices"
	"sync"

	"github.com/pdiddy/bom-reconcile/pkg/types"
)

// Store is a concurrency-safe annotation map. The zero value is not usable;
// call NewStore.
type Store struct {
	mu      sync.RWMutex
	entries map[types.AnnotationKey]types.Annotation
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{entries: make(map[types.AnnotationKey]types.Annotation)}
}

// Get returns the annotation for k, or the zero annotation.
func (s *Store) Get(k types.AnnotationKey) types.Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[k]
}

// Set stores a for k. A zero annotation removes the key.
func (s *Store) Set(k types.AnnotationKey, a types.Annotation) {
	s.Update(k, func(cur *types.Annotation) { *cur = a })
}

// Update applies fn to the annotation for k, creating it if needed.
func (s *Store) Update(k types.AnnotationKey, fn func(*types.Annotation)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.entries[k]
	fn(&a)
	if a.IsZero() {
		delete(s.entries, k)
		return
	}
	s.entries[k] = a
}

// SetIgnored marks k ignored or not.
func (s *Store) SetIgnored(k types.AnnotationKey, ignored bool) {
	s.Update(k, func(a *types.Annotation) { a.Ignored = ignored })
}

// SetUpdate records which systems should change to resolve k.
func (s *Store) SetUpdate(k types.AnnotationKey, u types.UpdateSource) {
	s.Update(k, func(a *types.Annotation) { a.UpdateSource = u })
}

// SetComment replaces the comment on k.
func (s *Store) SetComment(k types.AnnotationKey, comment string) {
	s.Update(k, func(a *types.Annotation) { a.Comment = comment })
}

// Len returns the number of stored annotations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Clear removes every annotation.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.entries)
}

// Snapshot returns a copy of the store that later edits do not affect.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(Snapshot, len(s.entries))
	for k, a := range s.entries {
		out[k] = a
	}
	return out
}

// Load replaces the store contents with snap.
func (s *Store) Load(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.entries)
	for k, a := range snap {
		if !a.IsZero() {
			s.entries[k] = a
		}
	}
}

// Snapshot is a read-only view of annotations handed to exporters. A nil
// Snapshot is empty.
type Snapshot map[types.AnnotationKey]types.Annotation

// Get returns the annotation for k, or the zero annotation.
func (s Snapshot) Get(k types.AnnotationKey) types.Annotation { return s[k] }

// For returns the annotation of one issue of a record.
func (s Snapshot) For(rec types.ComparisonRecord, kind types.IssueKind) types.Annotation {
	return s[types.AnnotationKey{PartNumber: rec.PartNumber, Kind: kind}]
}

// Ignored reports whether k is ignored. Its method value serves as a
// reconcile.IgnoreFunc.
func (s Snapshot) Ignored(k types.AnnotationKey) bool { return s[k].Ignored }

// Entry is one annotation with its key.
type Entry struct {
	types.AnnotationKey `yaml:",inline"`
	types.Annotation    `yaml:",inline"`
}

// Entries lists annotations ordered by part number then issue kind.
func (s Snapshot) Entries() []Entry {
	out := make([]Entry, 0, len(s))
	for k, a := range s {
		out = append(out, Entry{AnnotationKey: k, Annotation: a})
	}
	slices.SortFunc(out, func(a, b Entry) int {
		if c := cmp.Compare(a.PartNumber, b.PartNumber); c != 0 {
			return c
		}
		return cmp.Compare(kindOrder(a.Kind), kindOrder(b.Kind))
	})
	return out
}

// IgnoredKeys lists ignored keys in Entries order.
func (s Snapshot) IgnoredKeys() []types.AnnotationKey {
	var out []types.AnnotationKey
	for _, e := range s.Entries() {
		if e.Ignored {
			out = append(out, e.AnnotationKey)
		}
	}
	return out
}

// FromEntries builds a snapshot from a list, dropping empty annotations.
func FromEntries(entries []Entry) Snapshot {
	out := make(Snapshot, len(entries))
	for _, e := range entries {
		if !e.Annotation.IsZero() {
			out[e.AnnotationKey] = e.Annotation
		}
	}
	return out
}

func kindOrder(k types.IssueKind) int {
	if i := slices.Index(types.IssueKinds, k); i >= 0 {
		return i
	}
	return len(types.IssueKinds)
}
