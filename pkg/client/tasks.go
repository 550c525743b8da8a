package client

import (
	"context"
	"net/http"
	"time"

	"github.com/daybook/server/internal/app/task"
)

type TaskQuery struct {
	Category Category `url:"category,omitempty"`
	Priority Priority `url:"priority,omitempty"`
}

// TaskUpdate lists the fields to change. Nil fields are not sent;
// ClearDueDate sends an explicit null.
type TaskUpdate struct {
	Text          *string
	Completed     *bool
	Priority      *Priority
	Category      *Category
	DueDate       *time.Time
	ClearDueDate  bool
	IsCarriedOver *bool
	Order         *int
}

func (u TaskUpdate) body() map[string]any {
	m := map[string]any{}
	if u.Text != nil {
		m["text"] = *u.Text
	}
	if u.Completed != nil {
		m["completed"] = *u.Completed
	}
	if u.Priority != nil {
		m["priority"] = *u.Priority
	}
	if u.Category != nil {
		m["category"] = *u.Category
	}
	switch {
	case u.ClearDueDate:
		m["dueDate"] = nil
	case u.DueDate != nil:
		m["dueDate"] = u.DueDate.Format(time.RFC3339Nano)
	}
	if u.IsCarriedOver != nil {
		m["isCarriedOver"] = *u.IsCarriedOver
	}
	if u.Order != nil {
		m["order"] = *u.Order
	}
	return m
}

func (c *Client) CreateTask(ctx context.Context, in NewTask) (Task, error) {
	var t Task
	err := c.send(ctx, http.MethodPost, "/todo/create", in, &t)
	return t, err
}

func (c *Client) ListTasks(ctx context.Context, q TaskQuery) ([]Task, error) {
	var tasks []Task
	err := c.get(ctx, "/todo/fetch", q, &tasks)
	return tasks, err
}

func (c *Client) UpdateTask(ctx context.Context, id string, u TaskUpdate) (Task, error) {
	var t Task
	err := c.send(ctx, http.MethodPut, "/todo/update/"+escape(id), u.body(), &t)
	return t, err
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "/todo/delete/"+escape(id), nil, nil)
}

func (c *Client) OverdueTasks(ctx context.Context) ([]Task, error) {
	var tasks []Task
	err := c.get(ctx, "/todo/overdue", nil, &tasks)
	return tasks, err
}

// CarryOver moves the task to newDue, or to today when newDue is nil.
func (c *Client) CarryOver(ctx context.Context, id string, newDue *time.Time) (Task, error) {
	body := map[string]any{}
	if newDue != nil {
		body["newDueDate"] = newDue.Format(time.RFC3339Nano)
	}
	var t Task
	err := c.send(ctx, http.MethodPut, "/todo/carry-over/"+escape(id), body, &t)
	return t, err
}

func (c *Client) Reorder(ctx context.Context, updates []OrderUpdate) (int, error) {
	var resp struct {
		Matched int `json:"matched"`
	}
	err := c.send(ctx, http.MethodPost, "/todo/reorder", map[string]any{"tasks": updates}, &resp)
	return resp.Matched, err
}

type analyticsQuery struct {
	Days int `url:"days,omitempty"`
}

func (c *Client) Analytics(ctx context.Context, days int) (Analytics, error) {
	var a Analytics
	err := c.get(ctx, "/todo/analytics", analyticsQuery{Days: days}, &a)
	return a, err
}

// PendingCarryOver fetches every task and keeps the ones the carry-over
// prompt should offer. Unlike OverdueTasks it ignores isCarriedOver, so a
// task carried over on an earlier day shows up again once that day passes.
func (c *Client) PendingCarryOver(ctx context.Context) ([]Task, error) {
	tasks, err := c.ListTasks(ctx, TaskQuery{})
	if err != nil {
		return nil, err
	}
	return pendingCarryOver(tasks, c.Now(), c.Location), nil
}

// MoveAllToToday sets each task's due date to today and flags it as
// carried over. It stops at the first failure and returns the tasks
// updated so far.
func (c *Client) MoveAllToToday(ctx context.Context, ids []string) ([]Task, error) {
	today := task.StartOfDay(c.Now(), c.Location)
	carried := true
	moved := make([]Task, 0, len(ids))
	for _, id := range ids {
		t, err := c.UpdateTask(ctx, id, TaskUpdate{DueDate: &today, IsCarriedOver: &carried})
		if err != nil {
			return moved, err
		}
		moved = append(moved, t)
	}
	return moved, nil
}

// pendingCarryOver applies the server's past-due rule to client tasks.
func pendingCarryOver(tasks []Task, now time.Time, loc *time.Location) []Task {
	out := make([]Task, 0)
	for _, t := range tasks {
		if task.IsPastDue(task.Task{Completed: t.Completed, DueDate: t.DueDate}, now, loc) {
			out = append(out, t)
		}
	}
	return out
}
