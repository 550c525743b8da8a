package journal

import (
	"context"
	"errors"
	"strings"
	"time"
)

var ErrNotFound = errors.New("journal entry not found")

type Mood string

const (
	MoodGreat    Mood = "great"
	MoodGood     Mood = "good"
	MoodOkay     Mood = "okay"
	MoodBad      Mood = "bad"
	MoodTerrible Mood = "terrible"
)

func (m Mood) Valid() bool {
	switch m {
	case MoodGreat, MoodGood, MoodOkay, MoodBad, MoodTerrible:
		return true
	}
	return false
}

type Entry struct {
	ID        string    `json:"_id"`
	OwnerID   string    `json:"userId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	EntryDate time.Time `json:"entryDate"`
	Mood      *Mood     `json:"mood"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (e Entry) clone() Entry {
	if e.Mood != nil {
		m := *e.Mood
		e.Mood = &m
	}
	e.Tags = append([]string{}, e.Tags...)
	return e
}

// MonthItem is the calendar projection of an entry.
type MonthItem struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	EntryDate time.Time `json:"entryDate"`
	Mood      *Mood     `json:"mood"`
	Tags      []string  `json:"tags"`
}

func (e Entry) monthItem() MonthItem {
	c := e.clone()
	return MonthItem{ID: c.ID, Title: c.Title, EntryDate: c.EntryDate, Mood: c.Mood, Tags: c.Tags}
}

type NewEntry struct {
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	EntryDate *time.Time `json:"entryDate"`
	Mood      Mood       `json:"mood" validate:"omitempty,oneof=great good okay bad terrible"`
	Tags      []string   `json:"tags"`
}

const (
	SortCreatedAt = "createdAt"
	SortEntryDate = "entryDate"

	DefaultLimit = 100
)

// Query selects entries. The store applies the date range, sort and limit;
// Search is matched afterwards against the limited candidates.
type Query struct {
	Start  *time.Time
	End    *time.Time
	Search string
	Limit  int
	SortBy string
	Order  string
}

func (q Query) normalized() Query {
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.SortBy != SortEntryDate {
		q.SortBy = SortCreatedAt
	}
	if q.Order != "asc" {
		q.Order = "desc"
	}
	return q
}

func (q Query) ascending() bool { return q.Order == "asc" }

// NullableMood distinguishes an absent mood from an explicit null.
type NullableMood struct {
	Set   bool
	Value *Mood
}

// Patch follows replace-if-present rules: empty strings and a nil EntryDate
// leave fields alone, a non-nil Tags slice (even empty) replaces them, and
// a set Mood is always applied.
type Patch struct {
	Title     *string
	Content   *string
	EntryDate *time.Time
	Mood      NullableMood
	Tags      []string
}

func (p Patch) Apply(e *Entry) {
	if p.Title != nil && strings.TrimSpace(*p.Title) != "" {
		e.Title = strings.TrimSpace(*p.Title)
	}
	if p.Content != nil && *p.Content != "" {
		e.Content = *p.Content
	}
	if p.EntryDate != nil {
		e.EntryDate = *p.EntryDate
	}
	if p.Mood.Set {
		if p.Mood.Value == nil {
			e.Mood = nil
		} else {
			m := *p.Mood.Value
			e.Mood = &m
		}
	}
	if p.Tags != nil {
		e.Tags = cleanTags(p.Tags)
	}
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, strings.TrimSpace(t))
	}
	return out
}

// MatchSearch keeps entries whose title or content contains term,
// case-insensitively. An empty term keeps everything.
func MatchSearch(entries []Entry, term string) []Entry {
	if term == "" {
		return entries
	}
	needle := strings.ToLower(term)
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Title), needle) ||
			strings.Contains(strings.ToLower(e.Content), needle) {
			out = append(out, e)
		}
	}
	return out
}

// MonthRange is the inclusive span of a calendar month in loc.
func MonthRange(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0).Add(-time.Millisecond)
	return start, end
}

type Repository interface {
	EnsureIndexes(ctx context.Context) error
	Create(ctx context.Context, e Entry) error
	// Find applies owner, date range, sort and limit. It never searches.
	Find(ctx context.Context, ownerID string, q Query) ([]Entry, error)
	Month(ctx context.Context, ownerID string, start, end time.Time) ([]MonthItem, error)
	Get(ctx context.Context, ownerID, id string) (Entry, error)
	Save(ctx context.Context, e Entry) error
	Delete(ctx context.Context, ownerID, id string) error
}
