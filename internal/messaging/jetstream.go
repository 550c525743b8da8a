package messaging

import (
	"errors"

	"github.com/nats-io/nats.go"
)

const (
	ActivityStream   = "ACTIVITY"
	ActivitySubjects = "app.activity.>"
)

// EnsureStreams creates the activity stream when it is missing. Existing
// streams are left untouched.
func EnsureStreams(js nats.JetStreamContext) error {
	return ensureStream(js, &nats.StreamConfig{
		Name:      ActivityStream,
		Subjects:  []string{ActivitySubjects},
		Retention: nats.LimitsPolicy,
		Storage:   nats.FileStorage,
		Replicas:  1,
	})
}

func ensureStream(js nats.JetStreamContext, cfg *nats.StreamConfig) error {
	_, err := js.StreamInfo(cfg.Name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return err
	}
	_, err = js.AddStream(cfg)
	return err
}
