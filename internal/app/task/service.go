package task

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

const (
	DefaultAnalyticsDays = 7
	MaxAnalyticsDays     = 365
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
	Cache    *CachedAnalytics
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

func (s *Service) Create(ctx context.Context, ownerID string, in NewTask) (Task, error) {
	in.Text = strings.TrimSpace(in.Text)
	if err := s.Validate.Struct(in); err != nil {
		return Task{}, err
	}
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	if in.Category == "" {
		in.Category = CategoryOther
	}
	now := s.Now()
	t := Task{
		ID:        s.NewID(),
		OwnerID:   ownerID,
		Text:      in.Text,
		Completed: in.Completed,
		Priority:  in.Priority,
		Category:  in.Category,
		DueDate:   cloneTime(in.DueDate),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Repo.Create(ctx, t); err != nil {
		return Task{}, s.internal(err, "error occurred in todo creation")
	}
	s.changed(ctx, ownerID, t.ID, contracts.ActionCreated)
	return t, nil
}

func (s *Service) List(ctx context.Context, ownerID string, f Filter) ([]Task, error) {
	if err := s.Validate.Struct(f); err != nil {
		return nil, err
	}
	tasks, err := s.Repo.List(ctx, ownerID, f)
	if err != nil {
		return nil, s.internal(err, "error occurred in fetching todos")
	}
	return tasks, nil
}

func (s *Service) Update(ctx context.Context, ownerID, id string, p Patch) (Task, error) {
	if err := validatePatch(&p); err != nil {
		return Task{}, err
	}
	if err := s.authorize(ctx, ownerID, id, "Unauthorized to update this todo"); err != nil {
		return Task{}, err
	}
	t, err := s.Repo.Update(ctx, ownerID, id, p, s.Now())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Task{}, apperr.NotFound("Todo not found")
		}
		return Task{}, s.internal(err, "error occurred in updating todo")
	}
	s.changed(ctx, ownerID, id, contracts.ActionUpdated)
	return t, nil
}

func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.authorize(ctx, ownerID, id, "Unauthorized to delete this todo"); err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, ownerID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound("Todo not found")
		}
		return s.internal(err, "error occurred in deleting todo")
	}
	s.changed(ctx, ownerID, id, contracts.ActionDeleted)
	return nil
}

// Overdue is the server-side lookup; tasks already carried over are left
// out. Clients wanting every past-due task use PendingCarryOver.
func (s *Service) Overdue(ctx context.Context, ownerID string) ([]Task, error) {
	startOfToday := StartOfDay(s.Now(), s.Location)
	tasks, err := s.Repo.Overdue(ctx, ownerID, startOfToday)
	if err != nil {
		return nil, s.internal(err, "error fetching overdue tasks")
	}
	return tasks, nil
}

func (s *Service) CarryOver(ctx context.Context, ownerID, id string, newDue *time.Time) (Task, error) {
	t, err := s.Repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Task{}, apperr.NotFound("Todo not found")
		}
		return Task{}, s.internal(err, "error carrying over task")
	}
	if t.OwnerID != ownerID {
		return Task{}, apperr.Forbidden("Unauthorized")
	}
	t = ApplyCarryOver(t, newDue, s.Now(), s.Location)
	if err := s.Repo.Save(ctx, t); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Task{}, apperr.NotFound("Todo not found")
		}
		return Task{}, s.internal(err, "error carrying over task")
	}
	s.changed(ctx, ownerID, id, contracts.ActionCarriedOver)
	return t, nil
}

// Reorder applies the batch best-effort. A storage failure may leave some
// orders applied; it is reported without rollback.
func (s *Service) Reorder(ctx context.Context, ownerID string, updates []OrderUpdate) (int, error) {
	if len(updates) == 0 {
		return 0, apperr.Validation("tasks must be a non-empty array")
	}
	for _, u := range updates {
		if strings.TrimSpace(u.ID) == "" {
			return 0, apperr.Validation("every task needs an id")
		}
	}
	matched, err := s.Repo.Reorder(ctx, ownerID, updates, s.Now())
	if err != nil {
		return matched, s.internal(err, "error reordering tasks")
	}
	s.changed(ctx, ownerID, "", contracts.ActionReordered)
	return matched, nil
}

// Analytics returns the rollup for the last days days. Zero means the
// default window.
func (s *Service) Analytics(ctx context.Context, ownerID string, days int) (Analytics, error) {
	if days == 0 {
		days = DefaultAnalyticsDays
	}
	if days < 1 || days > MaxAnalyticsDays {
		return Analytics{}, apperr.Validation("days must be between 1 and 365")
	}
	now := s.Now()
	key, cacheable := s.Cache.key(ctx, ownerID, days, StartOfDay(now, s.Location))
	if cacheable {
		if a, ok := s.Cache.lookup(ctx, key); ok {
			return a, nil
		}
	}

	tasks, err := s.Repo.CreatedSince(ctx, ownerID, AnalyticsWindowStart(days, now, s.Location))
	if err != nil {
		return Analytics{}, s.internal(err, "error fetching analytics")
	}
	a := Rollup(tasks, days, now, s.Location)
	if cacheable {
		s.Cache.store(ctx, key, a)
	}
	return a, nil
}

// authorize loads the task by id and checks the owner. A missing task is
// NotFound; someone else's is Forbidden.
func (s *Service) authorize(ctx context.Context, ownerID, id, forbidden string) error {
	t, err := s.Repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound("Todo not found")
		}
		return s.internal(err, "error loading todo")
	}
	if t.OwnerID != ownerID {
		return apperr.Forbidden(forbidden)
	}
	return nil
}

func (s *Service) changed(ctx context.Context, ownerID, id, action string) {
	s.Cache.Invalidate(ctx, ownerID)
	s.Events.Record(ctx, ownerID, contracts.EntityTask, id, action)
}

func (s *Service) internal(err error, msg string) error {
	s.Log.WithError(err).Error(msg)
	return apperr.Internal(msg, err)
}

func validatePatch(p *Patch) error {
	if p.Text != nil {
		text := strings.TrimSpace(*p.Text)
		if text == "" {
			return apperr.Validation("text cannot be empty")
		}
		p.Text = &text
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return apperr.Validation("priority must be one of: low medium high")
	}
	if p.Category != nil && !p.Category.Valid() {
		return apperr.Validation("category must be one of: work personal health other")
	}
	return nil
}
