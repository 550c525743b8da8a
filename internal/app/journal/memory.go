package journal

import (
	"context"
	"sort"
	"sync"
	"time"
)

type MemoryRepository struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{entries: map[string]Entry{}}
}

func (r *MemoryRepository) EnsureIndexes(context.Context) error { return nil }

func (r *MemoryRepository) Create(_ context.Context, e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[e.ID] = e.clone()
	return nil
}

func inRange(t time.Time, start, end *time.Time) bool {
	if start != nil && t.Before(*start) {
		return false
	}
	if end != nil && t.After(*end) {
		return false
	}
	return true
}

func (r *MemoryRepository) Find(_ context.Context, ownerID string, q Query) ([]Entry, error) {
	q = q.normalized()
	r.mu.RLock()
	out := make([]Entry, 0)
	for _, e := range r.entries {
		if e.OwnerID == ownerID && inRange(e.EntryDate, q.Start, q.End) {
			out = append(out, e.clone())
		}
	}
	r.mu.RUnlock()

	key := func(e Entry) time.Time {
		if q.SortBy == SortEntryDate {
			return e.EntryDate
		}
		return e.CreatedAt
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := key(out[i]), key(out[j])
		if a.Equal(b) {
			return out[i].ID < out[j].ID
		}
		if q.ascending() {
			return a.Before(b)
		}
		return a.After(b)
	})
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (r *MemoryRepository) Month(_ context.Context, ownerID string, start, end time.Time) ([]MonthItem, error) {
	r.mu.RLock()
	matched := make([]Entry, 0)
	for _, e := range r.entries {
		if e.OwnerID == ownerID && inRange(e.EntryDate, &start, &end) {
			matched = append(matched, e)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].EntryDate.After(matched[j].EntryDate)
	})
	out := make([]MonthItem, 0, len(matched))
	for _, e := range matched {
		out = append(out, e.monthItem())
	}
	return out, nil
}

func (r *MemoryRepository) Get(_ context.Context, ownerID, id string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok || e.OwnerID != ownerID {
		return Entry{}, ErrNotFound
	}
	return e.clone(), nil
}

func (r *MemoryRepository) Save(_ context.Context, e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.entries[e.ID]
	if !ok || cur.OwnerID != e.OwnerID {
		return ErrNotFound
	}
	r.entries[e.ID] = e.clone()
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, ownerID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok || e.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(r.entries, id)
	return nil
}
