package client

import (
	"context"
	"net/http"
	"time"
)

type EntryQuery struct {
	StartDate *time.Time `url:"startDate,omitempty" layout:"2006-01-02"`
	EndDate   *time.Time `url:"endDate,omitempty" layout:"2006-01-02"`
	Search    string     `url:"search,omitempty"`
	Limit     int        `url:"limit,omitempty"`
	SortBy    string     `url:"sortBy,omitempty"`
	Order     string     `url:"order,omitempty"`
}

// EntryUpdate lists the fields to change. ClearMood sends an explicit
// null mood.
type EntryUpdate struct {
	Title     *string
	Content   *string
	EntryDate *time.Time
	Mood      *Mood
	ClearMood bool
	Tags      []string
}

func (u EntryUpdate) body() map[string]any {
	m := map[string]any{}
	if u.Title != nil {
		m["title"] = *u.Title
	}
	if u.Content != nil {
		m["content"] = *u.Content
	}
	if u.EntryDate != nil {
		m["entryDate"] = u.EntryDate.Format(time.RFC3339Nano)
	}
	switch {
	case u.ClearMood:
		m["mood"] = nil
	case u.Mood != nil:
		m["mood"] = *u.Mood
	}
	if u.Tags != nil {
		m["tags"] = u.Tags
	}
	return m
}

func (c *Client) CreateEntry(ctx context.Context, in NewEntry) (Entry, error) {
	var e Entry
	err := c.send(ctx, http.MethodPost, "/journal/create", in, &e)
	return e, err
}

func (c *Client) FindEntries(ctx context.Context, q EntryQuery) ([]Entry, error) {
	var entries []Entry
	err := c.get(ctx, "/journal/fetch", q, &entries)
	return entries, err
}

type monthQuery struct {
	Year  int `url:"year"`
	Month int `url:"month"`
}

func (c *Client) Month(ctx context.Context, year int, month time.Month) ([]MonthItem, error) {
	var items []MonthItem
	err := c.get(ctx, "/journal/month", monthQuery{Year: year, Month: int(month)}, &items)
	return items, err
}

func (c *Client) GetEntry(ctx context.Context, id string) (Entry, error) {
	var e Entry
	err := c.get(ctx, "/journal/"+escape(id), nil, &e)
	return e, err
}

func (c *Client) UpdateEntry(ctx context.Context, id string, u EntryUpdate) (Entry, error) {
	var e Entry
	err := c.send(ctx, http.MethodPut, "/journal/update/"+escape(id), u.body(), &e)
	return e, err
}

func (c *Client) DeleteEntry(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "/journal/delete/"+escape(id), nil, nil)
}
