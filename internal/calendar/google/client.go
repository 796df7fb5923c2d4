// Package google implements the calendar.Client contract against the Google
// Calendar REST API v3.
package google

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/example/room-booking/internal/calendar"
)

const defaultBaseURL = "https://www.googleapis.com/calendar/v3"

// Client talks to the calendar REST API with a bearer token supplied per
// request by a TokenSource.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      TokenSource
}

// TokenSource yields a bearer token for an outgoing API call. Implementations
// own refresh; a returned error aborts the call.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource for a fixed token, used in tests and for
// short-lived tooling.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) { return string(t), nil }

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for API calls.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithBaseURL points the client at a different API endpoint, typically a
// test server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// NewClient builds a calendar API client.
func NewClient(token TokenSource, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		token:      token,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx response from the calendar backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("calendar API error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("calendar API error: status %d: %s", e.StatusCode, e.Message)
}

type apiPerson struct {
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

type apiAttendee struct {
	Email          string `json:"email,omitempty"`
	DisplayName    string `json:"displayName,omitempty"`
	ResponseStatus string `json:"responseStatus,omitempty"`
	Optional       bool   `json:"optional,omitempty"`
	Resource       bool   `json:"resource,omitempty"`
}

type apiEventTime struct {
	Date     string `json:"date,omitempty"`
	DateTime string `json:"dateTime,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

type apiEvent struct {
	ID               string        `json:"id,omitempty"`
	Status           string        `json:"status,omitempty"`
	Summary          string        `json:"summary,omitempty"`
	Description      string        `json:"description,omitempty"`
	EventType        string        `json:"eventType,omitempty"`
	Start            *apiEventTime `json:"start,omitempty"`
	End              *apiEventTime `json:"end,omitempty"`
	Organizer        *apiPerson    `json:"organizer,omitempty"`
	Creator          *apiPerson    `json:"creator,omitempty"`
	Attendees        []apiAttendee `json:"attendees,omitempty"`
	AttendeesOmitted bool          `json:"attendeesOmitted,omitempty"`
	HangoutLink      string        `json:"hangoutLink,omitempty"`
	Location         string        `json:"location,omitempty"`
	HTMLLink         string        `json:"htmlLink,omitempty"`
	Updated          string        `json:"updated,omitempty"`
}

type apiEventList struct {
	Items         []apiEvent `json:"items"`
	NextPageToken string     `json:"nextPageToken"`
}

type apiBusyPeriod struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type apiFreeBusyResponse struct {
	Calendars map[string]struct {
		Busy   []apiBusyPeriod `json:"busy"`
		Errors []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"calendars"`
}

// FreeBusy queries aggregate busy intervals for the given calendars. A
// calendar the backend reports an error for yields an empty block list
// rather than failing the whole query.
func (c *Client) FreeBusy(ctx context.Context, timeMin, timeMax time.Time, calendarIDs []string) (map[string][]calendar.BusyBlock, error) {
	items := make([]map[string]string, 0, len(calendarIDs))
	for _, id := range calendarIDs {
		items = append(items, map[string]string{"id": id})
	}
	body := map[string]any{
		"timeMin": timeMin.Format(time.RFC3339),
		"timeMax": timeMax.Format(time.RFC3339),
		"items":   items,
	}

	var parsed apiFreeBusyResponse
	if err := c.do(ctx, http.MethodPost, "/freeBusy", nil, body, &parsed); err != nil {
		return nil, err
	}

	result := make(map[string][]calendar.BusyBlock, len(calendarIDs))
	for _, id := range calendarIDs {
		entry, ok := parsed.Calendars[id]
		if !ok || len(entry.Errors) > 0 {
			result[id] = nil
			continue
		}
		blocks := make([]calendar.BusyBlock, 0, len(entry.Busy))
		for _, period := range entry.Busy {
			start, err := time.Parse(time.RFC3339, period.Start)
			if err != nil {
				continue
			}
			end, err := time.Parse(time.RFC3339, period.End)
			if err != nil {
				continue
			}
			blocks = append(blocks, calendar.BusyBlock{Start: start, End: end})
		}
		result[id] = blocks
	}
	return result, nil
}

// ListEvents fetches every event matching opts, following pagination until
// the backend stops returning a next page token.
func (c *Client) ListEvents(ctx context.Context, calendarID string, opts calendar.ListOptions) ([]calendar.Event, error) {
	query := url.Values{}
	if !opts.TimeMin.IsZero() {
		query.Set("timeMin", opts.TimeMin.Format(time.RFC3339))
	}
	if !opts.TimeMax.IsZero() {
		query.Set("timeMax", opts.TimeMax.Format(time.RFC3339))
	}
	if !opts.UpdatedMin.IsZero() {
		query.Set("updatedMin", opts.UpdatedMin.Format(time.RFC3339))
	}
	if opts.SingleOccurrences {
		query.Set("singleEvents", "true")
	}
	if opts.OrderByStart {
		query.Set("orderBy", "startTime")
	}
	if opts.ShowDeleted {
		query.Set("showDeleted", "true")
	}
	if opts.MaxResults > 0 {
		query.Set("maxResults", strconv.Itoa(opts.MaxResults))
	}

	path := fmt.Sprintf("/calendars/%s/events", url.PathEscape(calendarID))

	var events []calendar.Event
	for {
		var page apiEventList
		if err := c.do(ctx, http.MethodGet, path, query, nil, &page); err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			events = append(events, decodeEvent(item))
		}
		if page.NextPageToken == "" {
			return events, nil
		}
		query.Set("pageToken", page.NextPageToken)
	}
}

// GetEvent fetches a single event by id.
func (c *Client) GetEvent(ctx context.Context, calendarID, eventID string) (calendar.Event, error) {
	path := fmt.Sprintf("/calendars/%s/events/%s", url.PathEscape(calendarID), url.PathEscape(eventID))
	var item apiEvent
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &item); err != nil {
		return calendar.Event{}, err
	}
	return decodeEvent(item), nil
}

// CreateEvent inserts a new event on the given calendar.
func (c *Client) CreateEvent(ctx context.Context, calendarID string, draft calendar.EventDraft) (calendar.Event, error) {
	attendees := make([]apiAttendee, 0, len(draft.AttendeeEmails))
	for _, email := range draft.AttendeeEmails {
		attendees = append(attendees, apiAttendee{Email: email})
	}
	body := apiEvent{
		Summary:   draft.Summary,
		Start:     &apiEventTime{DateTime: draft.Start.Format(time.RFC3339)},
		End:       &apiEventTime{DateTime: draft.End.Format(time.RFC3339)},
		Attendees: attendees,
	}

	query := url.Values{"sendUpdates": []string{sendUpdates(draft.Notify)}}
	path := fmt.Sprintf("/calendars/%s/events", url.PathEscape(calendarID))

	var created apiEvent
	if err := c.do(ctx, http.MethodPost, path, query, body, &created); err != nil {
		return calendar.Event{}, err
	}
	return decodeEvent(created), nil
}

// PatchEventAttendees replaces the attendee list on an existing event.
func (c *Client) PatchEventAttendees(ctx context.Context, calendarID, eventID string, attendees []calendar.Attendee, notify bool) (calendar.Event, error) {
	encoded := make([]apiAttendee, 0, len(attendees))
	for _, attendee := range attendees {
		encoded = append(encoded, apiAttendee{
			Email:          attendee.Email,
			DisplayName:    attendee.DisplayName,
			ResponseStatus: attendee.ResponseStatus,
			Optional:       attendee.Optional,
			Resource:       attendee.Resource,
		})
	}
	body := map[string]any{"attendees": encoded}

	query := url.Values{"sendUpdates": []string{sendUpdates(notify)}}
	path := fmt.Sprintf("/calendars/%s/events/%s", url.PathEscape(calendarID), url.PathEscape(eventID))

	var patched apiEvent
	if err := c.do(ctx, http.MethodPatch, path, query, body, &patched); err != nil {
		return calendar.Event{}, err
	}
	return decodeEvent(patched), nil
}

// DeleteEvent removes an event. Deleting an already-missing event maps to
// calendar.ErrNotFound like every other lookup miss.
func (c *Client) DeleteEvent(ctx context.Context, calendarID, eventID string, notify bool) error {
	query := url.Values{"sendUpdates": []string{sendUpdates(notify)}}
	path := fmt.Sprintf("/calendars/%s/events/%s", url.PathEscape(calendarID), url.PathEscape(eventID))
	return c.do(ctx, http.MethodDelete, path, query, nil, nil)
}

func sendUpdates(notify bool) string {
	if notify {
		return "all"
	}
	return "none"
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode calendar request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build calendar request: %w", err)
	}
	token, err := c.token.Token(ctx)
	if err != nil {
		return fmt.Errorf("resolve calendar token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call calendar API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return calendar.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Message: string(bytes.TrimSpace(message))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode calendar response: %w", err)
	}
	return nil
}

func decodeEvent(item apiEvent) calendar.Event {
	event := calendar.Event{
		ID:               item.ID,
		Summary:          item.Summary,
		Description:      item.Description,
		Status:           item.Status,
		EventType:        item.EventType,
		AttendeesOmitted: item.AttendeesOmitted,
		HangoutLink:      item.HangoutLink,
		Location:         item.Location,
		HTMLLink:         item.HTMLLink,
	}
	if item.Organizer != nil {
		event.Organizer = &calendar.Person{Email: item.Organizer.Email, DisplayName: item.Organizer.DisplayName}
	}
	if item.Creator != nil {
		event.Creator = &calendar.Person{Email: item.Creator.Email, DisplayName: item.Creator.DisplayName}
	}
	for _, attendee := range item.Attendees {
		event.Attendees = append(event.Attendees, calendar.Attendee{
			Email:          attendee.Email,
			DisplayName:    attendee.DisplayName,
			ResponseStatus: attendee.ResponseStatus,
			Optional:       attendee.Optional,
			Resource:       attendee.Resource,
		})
	}
	event.Start, event.AllDay = decodeEventTime(item.Start)
	if end, _ := decodeEventTime(item.End); !end.IsZero() {
		event.End = end
	}
	if item.Updated != "" {
		if updated, err := time.Parse(time.RFC3339, item.Updated); err == nil {
			event.Updated = updated
		}
	}
	return event
}

func decodeEventTime(t *apiEventTime) (time.Time, bool) {
	if t == nil {
		return time.Time{}, false
	}
	if t.DateTime != "" {
		parsed, err := time.Parse(time.RFC3339, t.DateTime)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, false
	}
	if t.Date != "" {
		parsed, err := time.Parse("2006-01-02", t.Date)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	}
	return time.Time{}, false
}
