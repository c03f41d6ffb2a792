// Package calendar pushes one all-day event per task to a user's linked
// Google calendar. Every call is fire-and-forget from the mutation
// layer's point of view: an unlinked account is a silent no-op and any
// transport failure is the caller's to swallow.
package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Account identifies a linked external calendar.
type Account struct {
	CalendarID  string
	AccessToken string
}

// Event is the task projection pushed to the calendar.
type Event struct {
	Title       string
	Description string
	ProjectName string
	StartDate   *time.Time
	DueDate     *time.Time
}

// Client creates, updates and deletes task events.
type Client interface {
	CreateEvent(ctx context.Context, acc Account, ev Event) (string, error)
	UpdateEvent(ctx context.Context, acc Account, eventID string, ev Event) error
	DeleteEvent(ctx context.Context, acc Account, eventID string) error
}

// HTTPClient talks to the Google Calendar REST API.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates a client against the given API base URL.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type eventDate struct {
	Date string `json:"date"`
}

type eventPayload struct {
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Start       eventDate `json:"start"`
	End         eventDate `json:"end"`
}

type eventResponse struct {
	ID string `json:"id"`
}

func buildPayload(ev Event) eventPayload {
	day := time.Now().UTC()
	if ev.DueDate != nil {
		day = ev.DueDate.UTC()
	} else if ev.StartDate != nil {
		day = ev.StartDate.UTC()
	}
	start := day
	if ev.StartDate != nil {
		start = ev.StartDate.UTC()
	}
	description := ev.Description
	if ev.ProjectName != "" {
		description = fmt.Sprintf("[%s] %s", ev.ProjectName, description)
	}
	return eventPayload{
		Summary:     ev.Title,
		Description: description,
		Start:       eventDate{Date: start.Format("2006-01-02")},
		// All-day events use an exclusive end date.
		End: eventDate{Date: day.AddDate(0, 0, 1).Format("2006-01-02")},
	}
}

func (c *HTTPClient) CreateEvent(ctx context.Context, acc Account, ev Event) (string, error) {
	url := fmt.Sprintf("%s/calendars/%s/events", c.baseURL, acc.CalendarID)
	var resp eventResponse
	if err := c.do(ctx, http.MethodPost, url, acc.AccessToken, buildPayload(ev), &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *HTTPClient) UpdateEvent(ctx context.Context, acc Account, eventID string, ev Event) error {
	url := fmt.Sprintf("%s/calendars/%s/events/%s", c.baseURL, acc.CalendarID, eventID)
	return c.do(ctx, http.MethodPut, url, acc.AccessToken, buildPayload(ev), nil)
}

func (c *HTTPClient) DeleteEvent(ctx context.Context, acc Account, eventID string) error {
	url := fmt.Sprintf("%s/calendars/%s/events/%s", c.baseURL, acc.CalendarID, eventID)
	return c.do(ctx, http.MethodDelete, url, acc.AccessToken, nil, nil)
}

func (c *HTTPClient) do(ctx context.Context, method, url, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("calendar: %s %s returned %d: %s", method, url, resp.StatusCode, msg)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// Noop is a Client that does nothing, for deployments without calendar
// sync configured.
type Noop struct{}

func (Noop) CreateEvent(context.Context, Account, Event) (string, error) { return "", nil }
func (Noop) UpdateEvent(context.Context, Account, string, Event) error   { return nil }
func (Noop) DeleteEvent(context.Context, Account, string) error          { return nil }
