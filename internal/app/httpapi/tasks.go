package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/daybook/server/internal/app/task"
	"github.com/daybook/server/internal/apperr"
	"github.com/go-chi/chi/v5"
)

type createTaskRequest struct {
	Text      string          `json:"text"`
	Completed bool            `json:"completed"`
	Priority  task.Priority   `json:"priority"`
	Category  task.Category   `json:"category"`
	DueDate   json.RawMessage `json:"dueDate"`
}

func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeErr(w, r, err)
		return
	}
	due, err := optionalDate(req.DueDate, "dueDate", h.Location)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	in := task.NewTask{
		Text:      req.Text,
		Completed: req.Completed,
		Priority:  req.Priority,
		Category:  req.Category,
		DueDate:   due,
	}
	t, err := h.Tasks.Create(r.Context(), ownerFromContext(r.Context()), in)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, t)
}

func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := task.Filter{
		Category: task.Category(strings.TrimSpace(q.Get("category"))),
		Priority: task.Priority(strings.TrimSpace(q.Get("priority"))),
	}
	tasks, err := h.Tasks.List(r.Context(), ownerFromContext(r.Context()), f)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, tasks)
}

// decodeTaskPatch turns a JSON object into a Patch. Absent keys are left
// alone; null clears dueDate and carriedOverFrom. Unknown keys are ignored.
func (h *Handler) decodeTaskPatch(fields map[string]json.RawMessage) (task.Patch, error) {
	var p task.Patch
	var err error
	if p.Text, err = field[string](fields, "text"); err != nil {
		return p, err
	}
	if p.Completed, err = field[bool](fields, "completed"); err != nil {
		return p, err
	}
	if p.Priority, err = field[task.Priority](fields, "priority"); err != nil {
		return p, err
	}
	if p.Category, err = field[task.Category](fields, "category"); err != nil {
		return p, err
	}
	if p.IsCarriedOver, err = field[bool](fields, "isCarriedOver"); err != nil {
		return p, err
	}
	if p.Order, err = field[int](fields, "order"); err != nil {
		return p, err
	}
	for name, dst := range map[string]*task.NullableTime{
		"dueDate":         &p.DueDate,
		"carriedOverFrom": &p.CarriedOverFrom,
	} {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		t, err := optionalDate(raw, name, h.Location)
		if err != nil {
			return p, err
		}
		*dst = task.NullableTime{Set: true, Value: t}
	}
	return p, nil
}

func (h *Handler) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	p, err := h.decodeTaskPatch(fields)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	t, err := h.Tasks.Update(r.Context(), ownerFromContext(r.Context()), chi.URLParam(r, "id"), p)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, t)
}

func (h *Handler) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.Tasks.Delete(r.Context(), ownerFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.writeMessage(w, http.StatusOK, "todo deleted successfully")
}

func (h *Handler) handleOverdue(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.Tasks.Overdue(r.Context(), ownerFromContext(r.Context()))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, tasks)
}

func (h *Handler) handleCarryOver(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	due, err := optionalDate(fields["newDueDate"], "newDueDate", h.Location)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	t, err := h.Tasks.CarryOver(r.Context(), ownerFromContext(r.Context()), chi.URLParam(r, "id"), due)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, t)
}

type reorderRequest struct {
	Tasks []task.OrderUpdate `json:"tasks"`
}

type reorderResponse struct {
	Message string `json:"message"`
	Matched int    `json:"matched"`
}

func (h *Handler) handleReorder(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeErr(w, r, err)
		return
	}
	matched, err := h.Tasks.Reorder(r.Context(), ownerFromContext(r.Context()), req.Tasks)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, reorderResponse{Message: "Tasks reordered successfully", Matched: matched})
}

func (h *Handler) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	days := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("days")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.writeErr(w, r, apperr.Validation("days must be an integer"))
			return
		}
		days = n
	}
	a, err := h.Tasks.Analytics(r.Context(), ownerFromContext(r.Context()), days)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, a)
}
