// Package activity publishes mutation records to JetStream and persists
// them into the Postgres activity log.
package activity

import (
	"context"
	"encoding/json"
	"time"

	"github.com/daybook/server/internal/contracts"
	"github.com/daybook/server/internal/platform/logging"
	"github.com/daybook/server/internal/platform/natsutil"
	"github.com/daybook/server/internal/sharding"
	"github.com/nats-io/nuid"
	"github.com/sirupsen/logrus"
)

// Publisher turns service mutations into ActivityEvents. Publishing is
// best-effort: failures are logged and never reach the caller.
type Publisher struct {
	Bus   natsutil.Publisher
	Log   logrus.FieldLogger
	Now   func() time.Time
	NewID func() string
}

func NewPublisher(bus natsutil.Publisher) *Publisher {
	if bus == nil {
		bus = natsutil.NoopPublisher{}
	}
	return &Publisher{
		Bus:   bus,
		Log:   logging.Discard(),
		Now:   func() time.Time { return time.Now().UTC() },
		NewID: nuid.Next,
	}
}

func (p *Publisher) Event(ownerID, entity, entityID, action string) contracts.ActivityEvent {
	return contracts.ActivityEvent{
		EventID:    p.NewID(),
		OwnerID:    ownerID,
		Entity:     entity,
		EntityID:   entityID,
		Action:     action,
		OccurredAt: p.Now(),
		ShardID:    sharding.GetShardID(ownerID),
	}
}

func (p *Publisher) Record(_ context.Context, ownerID, entity, entityID, action string) {
	event := p.Event(ownerID, entity, entityID, action)
	payload, err := json.Marshal(event)
	if err != nil {
		p.Log.WithError(err).Error("encode activity event")
		return
	}
	subject := sharding.GetSubject(entity, ownerID)
	if err := p.Bus.Publish(subject, payload); err != nil {
		p.Log.WithError(err).WithFields(logrus.Fields{
			"subject": subject,
			"action":  action,
		}).Warn("publish activity event failed")
	}
}
