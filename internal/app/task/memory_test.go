package task

import (
	"context"
	"testing"
	"time"
)

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	repo := NewMemoryRepository()
	due := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)
	if err := repo.Create(context.Background(), Task{ID: "t1", OwnerID: "o", DueDate: &due}); err != nil {
		t.Fatal(err)
	}
	due = due.AddDate(1, 0, 0)

	got, err := repo.Get(context.Background(), "t1")
	if err != nil {
		t.Fatal(err)
	}
	if got.DueDate.Year() != 2024 {
		t.Fatalf("stored task aliases caller memory: %s", got.DueDate)
	}
	*got.DueDate = got.DueDate.AddDate(5, 0, 0)
	again, _ := repo.Get(context.Background(), "t1")
	if again.DueDate.Year() != 2024 {
		t.Fatalf("returned task aliases stored memory: %s", again.DueDate)
	}
}

func TestMemoryRepository_OwnerScopedWrites(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	_ = repo.Create(ctx, Task{ID: "t1", OwnerID: "alice"})

	if _, err := repo.Update(ctx, "bob", "t1", Patch{Order: ptr(5)}, time.Now()); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for foreign update, got %v", err)
	}
	if err := repo.Delete(ctx, "bob", "t1"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for foreign delete, got %v", err)
	}
	if err := repo.Save(ctx, Task{ID: "t1", OwnerID: "bob"}); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for foreign save, got %v", err)
	}
	got, _ := repo.Get(ctx, "t1")
	if got.OwnerID != "alice" || got.Order != 0 {
		t.Fatalf("task was modified: %+v", got)
	}
}

func TestMemoryRepository_CreatedSince(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	since := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
	_ = repo.Create(ctx, Task{ID: "edge", OwnerID: "o", CreatedAt: since})
	_ = repo.Create(ctx, Task{ID: "old", OwnerID: "o", CreatedAt: since.Add(-time.Nanosecond)})
	_ = repo.Create(ctx, Task{ID: "other", OwnerID: "x", CreatedAt: since})

	got, _ := repo.CreatedSince(ctx, "o", since)
	if len(got) != 1 || got[0].ID != "edge" {
		t.Fatalf("unexpected result: %+v", got)
	}
}
