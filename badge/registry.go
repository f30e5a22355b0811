package badge

import (
	"sort"
	"strings"
)

// Sort orders accepted by Registry.SortBy.
const (
	SortDefault    = "default"
	SortMostCards  = "mostcards"
	SortLeastCards = "leastcards"
)

// Registry is the in-memory collection of known titles.
// It is not safe for concurrent use; the orchestrator owns it.
type Registry struct {
	titles []*Title
	byID   map[string]*Title
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*Title)}
}

// Upsert updates hours and drops of an existing title in place, or appends a new one.
// The returned pointer stays valid across later upserts of the same id.
func (r *Registry) Upsert(id, name string, drops DropCount, hours float64) *Title {
	if t, ok := r.byID[id]; ok {
		t.HoursPlayed = hours
		t.Remaining = drops
		if t.Name == "" {
			t.Name = name
		}
		return t
	}
	t := &Title{ID: id, Name: name, HoursPlayed: hours, Remaining: drops}
	r.titles = append(r.titles, t)
	r.byID[id] = t
	return t
}

// SortBy reorders the whole collection. Unknown drop counts sort as zero.
func (r *Registry) SortBy(mode string) {
	switch strings.ToLower(mode) {
	case SortMostCards:
		sort.SliceStable(r.titles, func(i, j int) bool {
			return r.titles[i].Remaining.Value() > r.titles[j].Remaining.Value()
		})
	case SortLeastCards:
		sort.SliceStable(r.titles, func(i, j int) bool {
			return r.titles[i].Remaining.Value() < r.titles[j].Remaining.Value()
		})
	}
}

// Clear empties the registry.
func (r *Registry) Clear() {
	r.titles = nil
	r.byID = make(map[string]*Title)
}

// Remove drops every title matching pred and returns how many were removed.
func (r *Registry) Remove(pred func(*Title) bool) int {
	kept := r.titles[:0]
	removed := 0
	for _, t := range r.titles {
		if pred(t) {
			delete(r.byID, t.ID)
			removed++
			continue
		}
		kept = append(kept, t)
	}
	for i := len(kept); i < len(r.titles); i++ {
		r.titles[i] = nil
	}
	r.titles = kept
	return removed
}

// Find returns the title with the given id, or nil.
func (r *Registry) Find(id string) *Title {
	return r.byID[id]
}

// Titles returns the titles in registry order. The slice is a copy.
func (r *Registry) Titles() []*Title {
	out := make([]*Title, len(r.titles))
	copy(out, r.titles)
	return out
}

// Len returns the number of titles.
func (r *Registry) Len() int { return len(r.titles) }
