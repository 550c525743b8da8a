// Package natsutil dials NATS with JetStream enabled and provides the
// publishers shared by the API and the activity sink.
package natsutil

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/daybook/server/internal/messaging"
	"github.com/daybook/server/internal/platform/logging"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

const (
	clientName     = "daybook"
	retryInterval  = 500 * time.Millisecond
	maxPendingAcks = 256
	flushTimeout   = 2 * time.Second
)

var ErrNotConnected = errors.New("nats is not connected")

// Bus is a live connection with its JetStream context. Async publish
// failures are logged through the bus logger.
type Bus struct {
	Conn *nats.Conn
	JS   nats.JetStreamContext
	log  logrus.FieldLogger
}

// Dial makes one connection attempt and ensures the activity stream.
func Dial(url string, log logrus.FieldLogger) (*Bus, error) {
	if log == nil {
		log = logging.Discard()
	}
	conn, err := nats.Connect(url,
		nats.Name(clientName),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.WithError(err).Warn("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.WithField("url", c.ConnectedUrl()).Info("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	js, err := conn.JetStream(
		nats.PublishAsyncMaxPending(maxPendingAcks),
		nats.PublishAsyncErrHandler(func(_ nats.JetStream, msg *nats.Msg, err error) {
			log.WithError(err).WithField("subject", msg.Subject).Warn("jetstream publish not acknowledged")
		}),
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream context: %w", err)
	}
	if err := messaging.EnsureStreams(js); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ensure streams: %w", err)
	}
	return &Bus{Conn: conn, JS: js, log: log}, nil
}

// DialWithRetry retries Dial until it succeeds, timeout elapses or ctx is
// cancelled. Each failed attempt is logged.
func DialWithRetry(ctx context.Context, url string, timeout time.Duration, log logrus.FieldLogger) (*Bus, error) {
	if log == nil {
		log = logging.Discard()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for attempt := 1; ; attempt++ {
		bus, err := Dial(url, log)
		if err == nil {
			return bus, nil
		}
		log.WithError(err).WithField("attempt", attempt).Info("waiting for nats")
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("nats at %s not reachable: %w (last error: %w)", url, ctx.Err(), err)
		case <-time.After(retryInterval):
		}
	}
}

// Ready is a readiness check for /readyz.
func (b *Bus) Ready(context.Context) error {
	if b == nil || b.Conn == nil {
		return ErrNotConnected
	}
	if status := b.Conn.Status(); status != nats.CONNECTED {
		return fmt.Errorf("%w: %s", ErrNotConnected, status)
	}
	return nil
}

// Publisher returns a publisher that does not wait for JetStream acks.
func (b *Bus) Publisher() Publisher {
	return AsyncPublisher{JS: b.JS}
}

// Close waits briefly for outstanding async acks, then drains.
func (b *Bus) Close() {
	if b == nil || b.Conn == nil {
		return
	}
	if b.JS != nil && b.JS.PublishAsyncPending() > 0 {
		select {
		case <-b.JS.PublishAsyncComplete():
		case <-time.After(flushTimeout):
			b.log.WithField("pending", b.JS.PublishAsyncPending()).Warn("closing with unacknowledged publishes")
		}
	}
	if err := b.Conn.Drain(); err != nil {
		b.Conn.Close()
	}
}

type Publisher interface {
	Publish(subject string, payload []byte) error
}

// AsyncPublisher hands each message to JetStream and returns without
// waiting for the ack. Only a full pending window makes Publish fail.
type AsyncPublisher struct {
	JS nats.JetStreamContext
}

func (p AsyncPublisher) Publish(subject string, payload []byte) error {
	_, err := p.JS.PublishAsync(subject, payload)
	return err
}

// NoopPublisher drops every message. Used when NATS_URL is unset.
type NoopPublisher struct{}

func (NoopPublisher) Publish(string, []byte) error { return nil }
