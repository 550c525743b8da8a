package activity

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/daybook/server/internal/contracts"
)

var (
	ErrInvalidEventPayload = errors.New("invalid event payload")
	ErrUnsupportedEntity   = errors.New("unsupported entity")
)

type Repository interface {
	InsertEvent(ctx context.Context, event contracts.ActivityEvent, streamSeq uint64) error
}

type Service struct {
	Repository Repository
}

func NewService(repository Repository) *Service {
	return &Service{Repository: repository}
}

// Handle decodes one bus message and stores it. Payload problems are
// reported with the sentinel errors so the consumer can terminate the
// message instead of redelivering it.
func (s *Service) Handle(ctx context.Context, payload []byte, streamSeq uint64) error {
	var event contracts.ActivityEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return ErrInvalidEventPayload
	}
	if strings.TrimSpace(event.EventID) == "" || strings.TrimSpace(event.OwnerID) == "" || event.Action == "" {
		return ErrInvalidEventPayload
	}
	switch event.Entity {
	case contracts.EntityTask, contracts.EntityJournal, contracts.EntityUser:
	default:
		return ErrUnsupportedEntity
	}
	return s.Repository.InsertEvent(ctx, event, streamSeq)
}

type Outcome int

const (
	Ack Outcome = iota
	Nak
	Term
)

func (o Outcome) String() string {
	switch o {
	case Ack:
		return "ack"
	case Nak:
		return "nak"
	default:
		return "term"
	}
}

// Decide maps a Handle result to the JetStream acknowledgement.
func Decide(err error) Outcome {
	switch {
	case err == nil:
		return Ack
	case errors.Is(err, ErrInvalidEventPayload), errors.Is(err, ErrUnsupportedEntity):
		return Term
	default:
		return Nak
	}
}
