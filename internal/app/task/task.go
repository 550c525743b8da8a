package task

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("task not found")

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Category string

const (
	CategoryWork     Category = "work"
	CategoryPersonal Category = "personal"
	CategoryHealth   Category = "health"
	CategoryOther    Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryWork, CategoryPersonal, CategoryHealth, CategoryOther:
		return true
	}
	return false
}

type Task struct {
	ID              string     `json:"_id"`
	OwnerID         string     `json:"userId"`
	Text            string     `json:"text"`
	Completed       bool       `json:"completed"`
	Priority        Priority   `json:"priority"`
	Category        Category   `json:"category"`
	DueDate         *time.Time `json:"dueDate"`
	IsCarriedOver   bool       `json:"isCarriedOver"`
	CarriedOverFrom *time.Time `json:"carriedOverFrom"`
	Order           int        `json:"order"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func (t Task) clone() Task {
	t.DueDate = cloneTime(t.DueDate)
	t.CarriedOverFrom = cloneTime(t.CarriedOverFrom)
	return t
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

type NewTask struct {
	Text      string     `json:"text" validate:"required"`
	Completed bool       `json:"completed"`
	Priority  Priority   `json:"priority" validate:"omitempty,oneof=low medium high"`
	Category  Category   `json:"category" validate:"omitempty,oneof=work personal health other"`
	DueDate   *time.Time `json:"dueDate"`
}

// Filter narrows List. Empty values and "all" match everything.
type Filter struct {
	Category Category `validate:"omitempty,oneof=all work personal health other"`
	Priority Priority `validate:"omitempty,oneof=all low medium high"`
}

func (f Filter) category() (Category, bool) {
	if f.Category == "" || f.Category == "all" {
		return "", false
	}
	return f.Category, true
}

func (f Filter) priority() (Priority, bool) {
	if f.Priority == "" || f.Priority == "all" {
		return "", false
	}
	return f.Priority, true
}

// NullableTime distinguishes "leave unchanged" (Set false) from "clear"
// (Set true, Value nil).
type NullableTime struct {
	Set   bool
	Value *time.Time
}

func SetTime(t time.Time) NullableTime { return NullableTime{Set: true, Value: &t} }

func ClearTime() NullableTime { return NullableTime{Set: true} }

// Patch is a partial update. Nil pointers and unset NullableTimes leave the
// field untouched.
type Patch struct {
	Text            *string
	Completed       *bool
	Priority        *Priority
	Category        *Category
	DueDate         NullableTime
	IsCarriedOver   *bool
	CarriedOverFrom NullableTime
	Order           *int
}

func (p Patch) Apply(t *Task) {
	if p.Text != nil {
		t.Text = *p.Text
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.DueDate.Set {
		t.DueDate = cloneTime(p.DueDate.Value)
	}
	if p.IsCarriedOver != nil {
		t.IsCarriedOver = *p.IsCarriedOver
	}
	if p.CarriedOverFrom.Set {
		t.CarriedOverFrom = cloneTime(p.CarriedOverFrom.Value)
	}
	if p.Order != nil {
		t.Order = *p.Order
	}
}

type OrderUpdate struct {
	ID    string `json:"id"`
	Order int    `json:"order"`
}

type Bucket struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

type DailyStat struct {
	Date      string `json:"date"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
}

type Analytics struct {
	TotalTasks     int                 `json:"totalTasks"`
	CompletedTasks int                 `json:"completedTasks"`
	CompletionRate int                 `json:"completionRate"`
	ByCategory     map[Category]Bucket `json:"byCategory"`
	ByPriority     map[Priority]Bucket `json:"byPriority"`
	DailyStats     []DailyStat         `json:"dailyStats"`
}

// Repository is the task store. Owner-scoped writes include the owner in
// the match predicate; Get is by id alone so callers can tell a missing
// task from someone else's.
type Repository interface {
	EnsureIndexes(ctx context.Context) error
	Create(ctx context.Context, t Task) error
	List(ctx context.Context, ownerID string, f Filter) ([]Task, error)
	Get(ctx context.Context, id string) (Task, error)
	Update(ctx context.Context, ownerID, id string, p Patch, now time.Time) (Task, error)
	Delete(ctx context.Context, ownerID, id string) error
	Overdue(ctx context.Context, ownerID string, before time.Time) ([]Task, error)
	Save(ctx context.Context, t Task) error
	// Reorder applies each order value to the task matching id and owner.
	// Unmatched pairs are skipped; the returned count is how many matched.
	Reorder(ctx context.Context, ownerID string, updates []OrderUpdate, now time.Time) (int, error)
	CreatedSince(ctx context.Context, ownerID string, since time.Time) ([]Task, error)
}
