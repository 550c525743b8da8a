package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/daybook/server/internal/apperr"
)

const maxBodyBytes = 1 << 20

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (h *Handler) writeMessage(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"message": msg})
}

// writeErr maps a service error to its status. Only the public message is
// sent; internal causes go to the log.
func (h *Handler) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	e := apperr.From(err)
	status := e.Code.HTTPStatus()
	if status >= http.StatusInternalServerError {
		h.Log.WithError(err).WithField("route", r.URL.Path).Error("request failed")
	}
	h.writeMessage(w, status, e.Message)
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return apperr.Validation("invalid JSON payload")
}

func decodeFields(r *http.Request) (map[string]json.RawMessage, error) {
	fields := map[string]json.RawMessage{}
	if err := decodeJSON(r, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// parseDate accepts a calendar date (local midnight in loc) or an RFC 3339
// timestamp.
func parseDate(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.ParseInLocation("2006-01-02", raw, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	return time.Time{}, errors.New("invalid date")
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

// optionalDate decodes a JSON string date. Null and "" yield nil.
func optionalDate(raw json.RawMessage, field string, loc *time.Location) (*time.Time, error) {
	if len(raw) == 0 || isNull(raw) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, apperr.Validation(field + " must be a date string")
	}
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := parseDate(s, loc)
	if err != nil {
		return nil, apperr.Validation(field + " must be YYYY-MM-DD or an RFC 3339 timestamp")
	}
	return &t, nil
}

func queryDate(r *http.Request, key string, loc *time.Location) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	t, err := parseDate(raw, loc)
	if err != nil {
		return nil, apperr.Validation(key + " must be YYYY-MM-DD or an RFC 3339 timestamp")
	}
	return &t, nil
}

func field[T any](fields map[string]json.RawMessage, name string) (*T, error) {
	raw, ok := fields[name]
	if !ok || isNull(raw) {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, apperr.Validation("invalid value for " + name)
	}
	return &v, nil
}
