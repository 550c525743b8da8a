package task

import (
	"math"
	"sort"
	"time"
)

// DateLayout is the calendar-day format used in analytics and date inputs.
const DateLayout = "2006-01-02"

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// IsPastDue is the day-granularity rule: incomplete, has a due date, and
// that date's calendar day is before today's. The carry-over flag is not
// consulted.
func IsPastDue(t Task, now time.Time, loc *time.Location) bool {
	if t.Completed || t.DueDate == nil {
		return false
	}
	return StartOfDay(*t.DueDate, loc).Before(StartOfDay(now, loc))
}

// PendingCarryOver recomputes the reschedule prompt from a full task list.
// Unlike IsOverdue it includes tasks that were already carried over.
func PendingCarryOver(tasks []Task, now time.Time, loc *time.Location) []Task {
	out := make([]Task, 0)
	for _, t := range tasks {
		if IsPastDue(t, now, loc) {
			out = append(out, t)
		}
	}
	return out
}

// IsOverdue is the predicate behind GET /todo/overdue: incomplete, due
// strictly before startOfToday and never carried over.
func IsOverdue(t Task, startOfToday time.Time) bool {
	return !t.Completed &&
		t.DueDate != nil &&
		t.DueDate.Before(startOfToday) &&
		!t.IsCarriedOver
}

// ApplyCarryOver reschedules t. carriedOverFrom is a single slot holding the
// due date immediately before this call; it is overwritten, not appended.
// A nil newDue moves the task to today.
func ApplyCarryOver(t Task, newDue *time.Time, now time.Time, loc *time.Location) Task {
	t.CarriedOverFrom = cloneTime(t.DueDate)
	t.IsCarriedOver = true
	if newDue != nil {
		t.DueDate = cloneTime(newDue)
	} else {
		today := StartOfDay(now, loc)
		t.DueDate = &today
	}
	t.UpdatedAt = now
	return t
}

// SortForDisplay orders by order ascending, newest first on ties.
func SortForDisplay(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].Order != tasks[j].Order {
			return tasks[i].Order < tasks[j].Order
		}
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
}

// AnalyticsWindowStart is midnight, days days before today.
func AnalyticsWindowStart(days int, now time.Time, loc *time.Location) time.Time {
	return StartOfDay(now, loc).AddDate(0, 0, -days)
}

// CompletionRate is the rounded integer percentage, half away from zero.
// It is 0 when total is 0.
func CompletionRate(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) * 100 / float64(total)))
}

// Rollup aggregates tasks created on or after the window start. The
// category and priority groups are sparse; DailyStats always has exactly
// days entries, oldest first, ending today.
func Rollup(tasks []Task, days int, now time.Time, loc *time.Location) Analytics {
	if loc == nil {
		loc = time.Local
	}
	start := AnalyticsWindowStart(days, now, loc)

	a := Analytics{
		ByCategory: map[Category]Bucket{},
		ByPriority: map[Priority]Bucket{},
		DailyStats: make([]DailyStat, 0, max(days, 0)),
	}
	window := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if t.CreatedAt.Before(start) {
			continue
		}
		window = append(window, t)

		a.TotalTasks++
		cat := a.ByCategory[t.Category]
		pri := a.ByPriority[t.Priority]
		cat.Total++
		pri.Total++
		if t.Completed {
			a.CompletedTasks++
			cat.Completed++
			pri.Completed++
		}
		a.ByCategory[t.Category] = cat
		a.ByPriority[t.Priority] = pri
	}
	a.CompletionRate = CompletionRate(a.CompletedTasks, a.TotalTasks)

	today := StartOfDay(now, loc)
	for i := days - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		next := day.AddDate(0, 0, 1)
		stat := DailyStat{Date: day.Format(DateLayout)}
		for _, t := range window {
			if !t.CreatedAt.Before(day) && t.CreatedAt.Before(next) {
				stat.Total++
				if t.Completed {
					stat.Completed++
				}
			}
		}
		a.DailyStats = append(a.DailyStats, stat)
	}
	return a
}
