package task

import (
	"context"
	"sync"
	"time"
)

// MemoryRepository keeps tasks in process. It backs STORE_DRIVER=memory and
// the unit tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	tasks map[string]Task
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{tasks: map[string]Task{}}
}

func (r *MemoryRepository) EnsureIndexes(context.Context) error { return nil }

func (r *MemoryRepository) Create(_ context.Context, t Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[t.ID] = t.clone()
	return nil
}

func (r *MemoryRepository) List(_ context.Context, ownerID string, f Filter) ([]Task, error) {
	cat, byCat := f.category()
	pri, byPri := f.priority()

	r.mu.RLock()
	out := make([]Task, 0)
	for _, t := range r.tasks {
		if t.OwnerID != ownerID {
			continue
		}
		if byCat && t.Category != cat {
			continue
		}
		if byPri && t.Priority != pri {
			continue
		}
		out = append(out, t.clone())
	}
	r.mu.RUnlock()

	SortForDisplay(out)
	return out, nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	return t.clone(), nil
}

func (r *MemoryRepository) Update(_ context.Context, ownerID, id string, p Patch, now time.Time) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return Task{}, ErrNotFound
	}
	p.Apply(&t)
	t.UpdatedAt = now
	r.tasks[id] = t
	return t.clone(), nil
}

func (r *MemoryRepository) Delete(_ context.Context, ownerID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *MemoryRepository) Overdue(_ context.Context, ownerID string, before time.Time) ([]Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Task, 0)
	for _, t := range r.tasks {
		if t.OwnerID == ownerID && IsOverdue(t, before) {
			out = append(out, t.clone())
		}
	}
	return out, nil
}

func (r *MemoryRepository) Save(_ context.Context, t Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.tasks[t.ID]
	if !ok || cur.OwnerID != t.OwnerID {
		return ErrNotFound
	}
	r.tasks[t.ID] = t.clone()
	return nil
}

func (r *MemoryRepository) Reorder(_ context.Context, ownerID string, updates []OrderUpdate, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := 0
	for _, u := range updates {
		t, ok := r.tasks[u.ID]
		if !ok || t.OwnerID != ownerID {
			continue
		}
		t.Order = u.Order
		t.UpdatedAt = now
		r.tasks[u.ID] = t
		matched++
	}
	return matched, nil
}

func (r *MemoryRepository) CreatedSince(_ context.Context, ownerID string, since time.Time) ([]Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Task, 0)
	for _, t := range r.tasks {
		if t.OwnerID == ownerID && !t.CreatedAt.Before(since) {
			out = append(out, t.clone())
		}
	}
	return out, nil
}
