package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/daybook/server/internal/app/journal"
	"github.com/daybook/server/internal/apperr"
	"github.com/go-chi/chi/v5"
)

type createEntryRequest struct {
	Title     string          `json:"title"`
	Content   string          `json:"content"`
	EntryDate json.RawMessage `json:"entryDate"`
	Mood      *journal.Mood   `json:"mood"`
	Tags      []string        `json:"tags"`
}

func (h *Handler) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req createEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeErr(w, r, err)
		return
	}
	date, err := optionalDate(req.EntryDate, "entryDate", h.Location)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	in := journal.NewEntry{
		Title:     req.Title,
		Content:   req.Content,
		EntryDate: date,
		Tags:      req.Tags,
	}
	if req.Mood != nil {
		in.Mood = *req.Mood
	}
	e, err := h.Journal.Create(r.Context(), ownerFromContext(r.Context()), in)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, e)
}

func (h *Handler) handleFindEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := journal.Query{
		Search: q.Get("search"),
		SortBy: q.Get("sortBy"),
		Order:  q.Get("order"),
	}
	var err error
	if query.Start, err = queryDate(r, "startDate", h.Location); err != nil {
		h.writeErr(w, r, err)
		return
	}
	if query.End, err = queryDate(r, "endDate", h.Location); err != nil {
		h.writeErr(w, r, err)
		return
	}
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		if query.Limit, err = strconv.Atoi(raw); err != nil {
			h.writeErr(w, r, apperr.Validation("limit must be an integer"))
			return
		}
	}

	entries, err := h.Journal.Find(r.Context(), ownerFromContext(r.Context()), query)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) handleMonth(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rawYear, rawMonth := strings.TrimSpace(q.Get("year")), strings.TrimSpace(q.Get("month"))
	if rawYear == "" || rawMonth == "" {
		h.writeErr(w, r, apperr.Validation("Year and month are required"))
		return
	}
	year, errY := strconv.Atoi(rawYear)
	month, errM := strconv.Atoi(rawMonth)
	if errY != nil || errM != nil {
		h.writeErr(w, r, apperr.Validation("year and month must be integers"))
		return
	}
	items, err := h.Journal.Month(r.Context(), ownerFromContext(r.Context()), year, month)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, items)
}

func (h *Handler) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	e, err := h.Journal.Get(r.Context(), ownerFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, e)
}

func (h *Handler) decodeEntryPatch(fields map[string]json.RawMessage) (journal.Patch, error) {
	var p journal.Patch
	var err error
	if p.Title, err = field[string](fields, "title"); err != nil {
		return p, err
	}
	if p.Content, err = field[string](fields, "content"); err != nil {
		return p, err
	}
	if p.EntryDate, err = optionalDate(fields["entryDate"], "entryDate", h.Location); err != nil {
		return p, err
	}
	tags, err := field[[]string](fields, "tags")
	if err != nil {
		return p, err
	}
	if tags != nil {
		p.Tags = *tags
		if p.Tags == nil {
			p.Tags = []string{}
		}
	}
	if _, ok := fields["mood"]; ok {
		mood, err := field[journal.Mood](fields, "mood")
		if err != nil {
			return p, err
		}
		if mood != nil && *mood == "" {
			mood = nil
		}
		p.Mood = journal.NullableMood{Set: true, Value: mood}
	}
	return p, nil
}

func (h *Handler) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	p, err := h.decodeEntryPatch(fields)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	e, err := h.Journal.Update(r.Context(), ownerFromContext(r.Context()), chi.URLParam(r, "id"), p)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, e)
}

type deleteEntryResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

func (h *Handler) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Journal.Delete(r.Context(), ownerFromContext(r.Context()), id); err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, deleteEntryResponse{Message: "Journal entry deleted successfully", ID: id})
}
