package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultGoogleBaseURL = "https://www.googleapis.com/calendar/v3"

// GoogleClient talks to the Google Calendar REST API for a single target
// calendar (usually "primary"). It implements Client.
type GoogleClient struct {
	httpClient *http.Client
	baseURL    string
	calendarID string
}

// NewGoogleClient constructs a GoogleClient. When httpClient is nil a client
// with a conservative timeout is used; when calendarID is empty the user's
// primary calendar is targeted.
func NewGoogleClient(httpClient *http.Client, calendarID string) *GoogleClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if calendarID == "" {
		calendarID = "primary"
	}
	return &GoogleClient{
		httpClient: httpClient,
		baseURL:    defaultGoogleBaseURL,
		calendarID: calendarID,
	}
}

type googleEventTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone,omitempty"`
}

type googleReminderOverride struct {
	Method  string `json:"method"`
	Minutes int    `json:"minutes"`
}

type googleReminders struct {
	UseDefault bool                     `json:"useDefault"`
	Overrides  []googleReminderOverride `json:"overrides,omitempty"`
}

type googleEvent struct {
	ID          string          `json:"id,omitempty"`
	Summary     string          `json:"summary"`
	Description string          `json:"description,omitempty"`
	Start       googleEventTime `json:"start"`
	End         googleEventTime `json:"end"`
	Reminders   googleReminders `json:"reminders"`
}

// CreateEvent inserts one event and returns the provider-assigned id.
func (c *GoogleClient) CreateEvent(ctx context.Context, accessToken string, event Event) (string, error) {
	payload := googleEvent{
		Summary:     event.Summary,
		Description: event.Description,
		Start:       googleEventTime{DateTime: event.Start.Format(time.RFC3339), TimeZone: event.Timezone},
		End:         googleEventTime{DateTime: event.End.Format(time.RFC3339), TimeZone: event.Timezone},
		Reminders:   googleReminders{UseDefault: false},
	}
	for _, minutes := range event.ReminderMinutes {
		payload.Reminders.Overrides = append(payload.Reminders.Overrides, googleReminderOverride{
			Method:  "popup",
			Minutes: minutes,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("calendar: encoding event: %w", err)
	}

	endpoint := fmt.Sprintf("%s/calendars/%s/events", c.baseURL, url.PathEscape(c.calendarID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calendar: create event request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", apiError("create event", resp)
	}

	var created googleEvent
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("calendar: decoding create response: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("calendar: provider returned no event id")
	}
	return created.ID, nil
}

// DeleteEvent removes one event by provider id.
func (c *GoogleClient) DeleteEvent(ctx context.Context, accessToken, eventID string) error {
	endpoint := fmt.Sprintf("%s/calendars/%s/events/%s", c.baseURL, url.PathEscape(c.calendarID), url.PathEscape(eventID))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calendar: delete event request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError("delete event", resp)
	}
	return nil
}

func apiError(operation string, resp *http.Response) error {
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if len(detail) == 0 {
		return fmt.Errorf("calendar: %s: provider returned %s", operation, resp.Status)
	}
	return fmt.Errorf("calendar: %s: provider returned %s: %s", operation, resp.Status, detail)
}
