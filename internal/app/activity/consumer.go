package activity

import (
	"context"
	"time"

	"github.com/daybook/server/internal/messaging"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

const (
	ConsumerQueue  = "activity-sink"
	persistTimeout = 3 * time.Second
)

// Subscribe attaches the sink to every activity subject as a queue
// consumer with manual acknowledgement.
func Subscribe(ctx context.Context, js nats.JetStreamContext, svc *Service, log logrus.FieldLogger) (*nats.Subscription, error) {
	return js.QueueSubscribe(messaging.ActivitySubjects, ConsumerQueue, func(msg *nats.Msg) {
		var seq uint64
		if meta, err := msg.Metadata(); err == nil {
			seq = meta.Sequence.Stream
		}

		insertCtx, cancel := context.WithTimeout(ctx, persistTimeout)
		defer cancel()
		err := svc.Handle(insertCtx, msg.Data, seq)

		switch Decide(err) {
		case Ack:
			_ = msg.Ack()
		case Term:
			log.WithError(err).WithField("subject", msg.Subject).Warn("discarding activity event")
			_ = msg.Term()
		default:
			log.WithError(err).WithField("subject", msg.Subject).Error("activity persistence failed")
			_ = msg.Nak()
		}
	}, nats.ManualAck(), nats.Durable(ConsumerQueue))
}
