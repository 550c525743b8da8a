package activity

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/daybook/server/internal/contracts"
)

type fakeRepository struct {
	gotEvent contracts.ActivityEvent
	gotSeq   uint64
	calls    int
	err      error
}

func (f *fakeRepository) InsertEvent(_ context.Context, event contracts.ActivityEvent, streamSeq uint64) error {
	f.calls++
	f.gotEvent = event
	f.gotSeq = streamSeq
	return f.err
}

func validPayload(t *testing.T) []byte {
	t.Helper()
	payload, err := json.Marshal(contracts.ActivityEvent{
		EventID:    "evt-1",
		OwnerID:    "user-1",
		Entity:     contracts.EntityTask,
		EntityID:   "65f000000000000000000001",
		Action:     contracts.ActionCarriedOver,
		OccurredAt: time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC),
		ShardID:    532,
	})
	if err != nil {
		t.Fatal(err)
	}
	return payload
}

func TestHandle_ValidEvent(t *testing.T) {
	repo := &fakeRepository{}
	svc := NewService(repo)

	if err := svc.Handle(context.Background(), validPayload(t), 42); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if repo.gotEvent.EventID != "evt-1" || repo.gotEvent.Action != contracts.ActionCarriedOver {
		t.Fatalf("unexpected event in repository: %+v", repo.gotEvent)
	}
	if repo.gotSeq != 42 {
		t.Fatalf("expected stream sequence 42, got %d", repo.gotSeq)
	}
}

func TestHandle_InvalidPayload(t *testing.T) {
	repo := &fakeRepository{}
	svc := NewService(repo)

	for name, payload := range map[string][]byte{
		"malformed": []byte("{invalid"),
		"no id":     []byte(`{"ownerId":"u","entity":"task","action":"created"}`),
		"no owner":  []byte(`{"eventId":"e","entity":"task","action":"created"}`),
		"no action": []byte(`{"eventId":"e","ownerId":"u","entity":"task"}`),
	} {
		if err := svc.Handle(context.Background(), payload, 1); !errors.Is(err, ErrInvalidEventPayload) {
			t.Fatalf("%s: expected ErrInvalidEventPayload, got %v", name, err)
		}
	}
	if repo.calls != 0 {
		t.Fatalf("repository should not be called, got %d calls", repo.calls)
	}
}

func TestHandle_UnsupportedEntity(t *testing.T) {
	svc := NewService(&fakeRepository{})
	payload := []byte(`{"eventId":"e","ownerId":"u","entity":"group","action":"created"}`)
	if err := svc.Handle(context.Background(), payload, 1); !errors.Is(err, ErrUnsupportedEntity) {
		t.Fatalf("expected ErrUnsupportedEntity, got %v", err)
	}
}

func TestDecide(t *testing.T) {
	storeErr := errors.New("connection refused")
	svc := NewService(&fakeRepository{err: storeErr})
	err := svc.Handle(context.Background(), validPayload(t), 1)

	tests := []struct {
		err  error
		want Outcome
	}{
		{nil, Ack},
		{ErrInvalidEventPayload, Term},
		{ErrUnsupportedEntity, Term},
		{err, Nak},
	}
	for _, tt := range tests {
		if got := Decide(tt.err); got != tt.want {
			t.Errorf("Decide(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}
