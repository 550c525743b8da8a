package journal

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/daybook/server/internal/apperr"
	"github.com/daybook/server/internal/contracts"
	"github.com/daybook/server/internal/platform/logging"
	"github.com/daybook/server/internal/platform/mongodb"
	"github.com/daybook/server/internal/platform/validate"
	"github.com/sirupsen/logrus"
)

// Recorder receives an activity record after each successful mutation.
type Recorder interface {
	Record(ctx context.Context, ownerID, entity, entityID, action string)
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, string, string, string, string) {}

type Service struct {
	Repo     Repository
	Events   Recorder
	Validate *validate.Validator
	Log      logrus.FieldLogger
	Location *time.Location
	Now      func() time.Time
	NewID    func() string
}

func NewService(repo Repository) *Service {
	return &Service{
		Repo:     repo,
		Events:   nopRecorder{},
		Validate: validate.New(),
		Log:      logging.Discard(),
		Location: time.Local,
		Now:      time.Now,
		NewID:    mongodb.NewID,
	}
}

func (s *Service) Create(ctx context.Context, ownerID string, in NewEntry) (Entry, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" || in.Content == "" {
		return Entry{}, apperr.Validation("Title and content are required")
	}
	if err := s.Validate.Struct(in); err != nil {
		return Entry{}, err
	}
	now := s.Now()
	e := Entry{
		ID:        s.NewID(),
		OwnerID:   ownerID,
		Title:     in.Title,
		Content:   in.Content,
		EntryDate: now,
		Tags:      cleanTags(in.Tags),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.EntryDate != nil {
		e.EntryDate = *in.EntryDate
	}
	if in.Mood != "" {
		m := in.Mood
		e.Mood = &m
	}
	if err := s.Repo.Create(ctx, e); err != nil {
		return Entry{}, s.internal(err, "Failed to create journal entry")
	}
	s.Events.Record(ctx, ownerID, contracts.EntityJournal, e.ID, contracts.ActionCreated)
	return e, nil
}

// Find runs the bounded store query first and then filters by search, so
// Limit caps the candidates rather than the matches.
func (s *Service) Find(ctx context.Context, ownerID string, q Query) ([]Entry, error) {
	q = q.normalized()
	if q.Start != nil && q.End != nil && q.End.Before(*q.Start) {
		return nil, apperr.Validation("endDate must not be before startDate")
	}
	entries, err := s.Repo.Find(ctx, ownerID, q)
	if err != nil {
		return nil, s.internal(err, "Failed to fetch journal entries")
	}
	return MatchSearch(entries, strings.TrimSpace(q.Search)), nil
}

func (s *Service) Month(ctx context.Context, ownerID string, year, month int) ([]MonthItem, error) {
	if year <= 0 || month == 0 {
		return nil, apperr.Validation("Year and month are required")
	}
	if month < 1 || month > 12 {
		return nil, apperr.Validation("month must be between 1 and 12")
	}
	start, end := MonthRange(year, time.Month(month), s.Location)
	items, err := s.Repo.Month(ctx, ownerID, start, end)
	if err != nil {
		return nil, s.internal(err, "Failed to fetch journal entries")
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, ownerID, id string) (Entry, error) {
	e, err := s.Repo.Get(ctx, ownerID, id)
	if err != nil {
		return Entry{}, s.lookupErr(err, "Failed to fetch journal entry")
	}
	return e, nil
}

func (s *Service) Update(ctx context.Context, ownerID, id string, p Patch) (Entry, error) {
	if p.Mood.Set && p.Mood.Value != nil && !p.Mood.Value.Valid() {
		return Entry{}, apperr.Validation("mood must be one of: great good okay bad terrible")
	}
	e, err := s.Repo.Get(ctx, ownerID, id)
	if err != nil {
		return Entry{}, s.lookupErr(err, "Failed to update journal entry")
	}
	p.Apply(&e)
	e.UpdatedAt = s.Now()
	if err := s.Repo.Save(ctx, e); err != nil {
		return Entry{}, s.lookupErr(err, "Failed to update journal entry")
	}
	s.Events.Record(ctx, ownerID, contracts.EntityJournal, id, contracts.ActionUpdated)
	return e, nil
}

func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.Repo.Delete(ctx, ownerID, id); err != nil {
		return s.lookupErr(err, "Failed to delete journal entry")
	}
	s.Events.Record(ctx, ownerID, contracts.EntityJournal, id, contracts.ActionDeleted)
	return nil
}

func (s *Service) lookupErr(err error, msg string) error {
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound("Journal entry not found")
	}
	return s.internal(err, msg)
}

func (s *Service) internal(err error, msg string) error {
	s.Log.WithError(err).Error(msg)
	return apperr.Internal(msg, err)
}
