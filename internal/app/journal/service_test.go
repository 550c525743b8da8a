package journal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/daybook/server/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedEvent struct {
	owner, entity, id, action string
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeRecorder) Record(_ context.Context, ownerID, entity, entityID, action string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{ownerID, entity, entityID, action})
}

const (
	alice = "65f000000000000000000001"
	bob   = "65f000000000000000000002"
)

var testLoc = time.FixedZone("UTC+2", 2*60*60)

type fixture struct {
	svc    *Service
	repo   *MemoryRepository
	events *fakeRecorder
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:   NewMemoryRepository(),
		events: &fakeRecorder{},
		now:    time.Date(2024, 3, 15, 10, 0, 0, 0, testLoc),
	}
	seq := 0
	f.svc = NewService(f.repo)
	f.svc.Events = f.events
	f.svc.Location = testLoc
	f.svc.Now = func() time.Time { return f.now }
	f.svc.NewID = func() string {
		seq++
		return fmt.Sprintf("entry-%02d", seq)
	}
	return f
}

func (f *fixture) create(t *testing.T, owner string, in NewEntry) Entry {
	t.Helper()
	e, err := f.svc.Create(context.Background(), owner, in)
	require.NoError(t, err)
	return e
}

func ptr[T any](v T) *T { return &v }

func TestCreate_Defaults(t *testing.T) {
	f := newFixture(t)

	e := f.create(t, alice, NewEntry{Title: "  Morning  ", Content: "Walked the dog", Tags: []string{" calm "}})
	assert.Equal(t, "Morning", e.Title)
	assert.Equal(t, f.now, e.EntryDate)
	assert.Nil(t, e.Mood)
	assert.Equal(t, []string{"calm"}, e.Tags)
	assert.Equal(t, alice, e.OwnerID)

	bare := f.create(t, alice, NewEntry{Title: "t", Content: "c"})
	assert.NotNil(t, bare.Tags)
	assert.Empty(t, bare.Tags)

	require.Len(t, f.events.events, 2)
	assert.Equal(t, recordedEvent{alice, "journal", e.ID, "created"}, f.events.events[0])
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, in := range []NewEntry{
		{Content: "c"},
		{Title: "t"},
		{Title: "   ", Content: "c"},
	} {
		_, err := f.svc.Create(ctx, alice, in)
		require.Error(t, err)
		assert.Equal(t, "Title and content are required", apperr.From(err).Message)
		assert.Equal(t, apperr.CodeValidation, apperr.From(err).Code)
	}

	_, err := f.svc.Create(ctx, alice, NewEntry{Title: "t", Content: "c", Mood: "ecstatic"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.Empty(t, f.events.events)
}

func TestCreate_ExplicitDateAndMood(t *testing.T) {
	f := newFixture(t)
	date := time.Date(2024, 2, 1, 8, 0, 0, 0, testLoc)

	e := f.create(t, alice, NewEntry{Title: "t", Content: "c", EntryDate: &date, Mood: MoodGood})
	assert.Equal(t, date, e.EntryDate)
	require.NotNil(t, e.Mood)
	assert.Equal(t, MoodGood, *e.Mood)
}

func TestFind_SearchRunsAfterLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, testLoc)

	// 20 entries, 3 of which mention "river". Newest first, the first five
	// contain exactly one match.
	for i := 0; i < 20; i++ {
		f.now = base.Add(time.Duration(i) * time.Hour)
		in := NewEntry{Title: fmt.Sprintf("day %d", i), Content: "nothing much"}
		switch i {
		case 2, 9, 17:
			in.Content = "Walked by the River"
		}
		f.create(t, alice, in)
	}

	got, err := f.svc.Find(ctx, alice, Query{Limit: 5, Search: "river"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "day 17", got[0].Title)

	all, err := f.svc.Find(ctx, alice, Query{Search: "RIVER"})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestFind_SortAndRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d := func(day int) *time.Time { return ptr(time.Date(2024, 3, day, 12, 0, 0, 0, testLoc)) }
	f.create(t, alice, NewEntry{Title: "b", Content: "c", EntryDate: d(10)})
	f.create(t, alice, NewEntry{Title: "a", Content: "c", EntryDate: d(5)})
	f.create(t, alice, NewEntry{Title: "c", Content: "c", EntryDate: d(20)})
	f.create(t, bob, NewEntry{Title: "x", Content: "c", EntryDate: d(10)})

	got, err := f.svc.Find(ctx, alice, Query{SortBy: SortEntryDate, Order: "asc"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{got[0].Title, got[1].Title, got[2].Title})

	got, err = f.svc.Find(ctx, alice, Query{SortBy: SortEntryDate, Start: d(5), End: d(10)})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Title)

	_, err = f.svc.Find(ctx, alice, Query{Start: d(10), End: d(5)})
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestMonth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := func(title string, tm time.Time) NewEntry {
		return NewEntry{Title: title, Content: "c", EntryDate: &tm}
	}
	f.create(t, alice, in("first", time.Date(2024, 2, 1, 0, 0, 0, 0, testLoc)))
	f.create(t, alice, in("last", time.Date(2024, 2, 29, 23, 59, 0, 0, testLoc)))
	f.create(t, alice, in("march", time.Date(2024, 3, 1, 0, 0, 0, 0, testLoc)))
	f.create(t, alice, in("jan", time.Date(2024, 1, 31, 23, 0, 0, 0, testLoc)))

	items, err := f.svc.Month(ctx, alice, 2024, 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "last", items[0].Title)
	assert.Equal(t, "first", items[1].Title)

	_, err = f.svc.Month(ctx, alice, 0, 2)
	require.Error(t, err)
	assert.Equal(t, "Year and month are required", apperr.From(err).Message)

	_, err = f.svc.Month(ctx, alice, 2024, 13)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestGet_OwnerScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.create(t, alice, NewEntry{Title: "t", Content: "c"})

	got, err := f.svc.Get(ctx, alice, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e, got)

	_, err = f.svc.Get(ctx, bob, e.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeNotFound, apperr.From(err).Code)
	assert.Equal(t, "Journal entry not found", apperr.From(err).Message)
}

func TestUpdate_ReplaceIfPresent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.create(t, alice, NewEntry{Title: "t", Content: "c", Mood: MoodBad, Tags: []string{"a"}})

	f.now = f.now.Add(time.Hour)
	got, err := f.svc.Update(ctx, alice, e.ID, Patch{Title: ptr(""), Content: ptr("new")})
	require.NoError(t, err)
	assert.Equal(t, "t", got.Title)
	assert.Equal(t, "new", got.Content)
	require.NotNil(t, got.Mood)
	assert.Equal(t, []string{"a"}, got.Tags)
	assert.Equal(t, f.now, got.UpdatedAt)

	got, err = f.svc.Update(ctx, alice, e.ID, Patch{Mood: NullableMood{Set: true}, Tags: []string{}})
	require.NoError(t, err)
	assert.Nil(t, got.Mood)
	assert.Empty(t, got.Tags)

	stored, _ := f.repo.Get(ctx, alice, e.ID)
	assert.Equal(t, got, stored)
}

func TestUpdate_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.create(t, alice, NewEntry{Title: "t", Content: "c"})

	_, err := f.svc.Update(ctx, bob, e.ID, Patch{Content: ptr("x")})
	assert.Equal(t, apperr.CodeNotFound, apperr.From(err).Code)

	bad := Mood("meh")
	_, err = f.svc.Update(ctx, alice, e.ID, Patch{Mood: NullableMood{Set: true, Value: &bad}})
	assert.Equal(t, apperr.CodeValidation, apperr.From(err).Code)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.create(t, alice, NewEntry{Title: "t", Content: "c"})

	err := f.svc.Delete(ctx, bob, e.ID)
	assert.Equal(t, apperr.CodeNotFound, apperr.From(err).Code)

	require.NoError(t, f.svc.Delete(ctx, alice, e.ID))
	_, err = f.svc.Get(ctx, alice, e.ID)
	assert.Equal(t, apperr.CodeNotFound, apperr.From(err).Code)

	last := f.events.events[len(f.events.events)-1]
	assert.Equal(t, recordedEvent{alice, "journal", e.ID, "deleted"}, last)
}
