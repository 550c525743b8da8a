package activity

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/daybook/server/internal/contracts"
	"github.com/daybook/server/internal/sharding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureBus struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (b *captureBus) Publish(subject string, payload []byte) error {
	b.subjects = append(b.subjects, subject)
	b.payloads = append(b.payloads, payload)
	return b.err
}

func TestPublisherRecord(t *testing.T) {
	bus := &captureBus{}
	p := NewPublisher(bus)
	p.NewID = func() string { return "evt-1" }
	p.Now = func() time.Time { return time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC) }

	p.Record(context.Background(), "user-1", contracts.EntityJournal, "j-1", contracts.ActionDeleted)

	require.Len(t, bus.subjects, 1)
	assert.Equal(t, sharding.GetSubject(contracts.EntityJournal, "user-1"), bus.subjects[0])

	var got contracts.ActivityEvent
	require.NoError(t, json.Unmarshal(bus.payloads[0], &got))
	assert.Equal(t, "evt-1", got.EventID)
	assert.Equal(t, "user-1", got.OwnerID)
	assert.Equal(t, "j-1", got.EntityID)
	assert.Equal(t, contracts.ActionDeleted, got.Action)
	assert.Equal(t, sharding.GetShardID("user-1"), got.ShardID)
}

func TestPublisherSwallowsBusErrors(t *testing.T) {
	bus := &captureBus{err: errors.New("nats: no responders")}
	p := NewPublisher(bus)

	assert.NotPanics(t, func() {
		p.Record(context.Background(), "user-1", contracts.EntityTask, "t-1", contracts.ActionCreated)
	})
	assert.Len(t, bus.subjects, 1)
}

func TestPublishedEventsRoundTripThroughSink(t *testing.T) {
	bus := &captureBus{}
	p := NewPublisher(bus)
	repo := &fakeRepository{}
	sink := NewService(repo)

	p.Record(context.Background(), "user-2", contracts.EntityUser, "user-2", contracts.ActionSignedUp)
	require.Len(t, bus.payloads, 1)
	require.NoError(t, sink.Handle(context.Background(), bus.payloads[0], 7))
	assert.Equal(t, contracts.ActionSignedUp, repo.gotEvent.Action)
	assert.NotEmpty(t, repo.gotEvent.EventID)
}

func TestNewPublisherDefaultsToNoop(t *testing.T) {
	p := NewPublisher(nil)
	assert.NotPanics(t, func() {
		p.Record(context.Background(), "user-1", contracts.EntityTask, "", contracts.ActionReordered)
	})
}
