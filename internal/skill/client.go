package skill

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/grupoheroica/calidadrecintos/internal/config"
)

// Event statuses worth importing when browsing by date range. A query for
// a specific event number bypasses this filter.
var allowedStatuses = map[string]bool{
	"confirmado":    true,
	"por confirmar": true,
}

// Event is a normalized scheduling-API event
type Event struct {
	IDEvento int    `json:"idEvento"`
	Nombre   string `json:"nombre"`
}

// Client talks to the external Skill scheduling API. Stateless: every call
// authenticates, queries once and surfaces any failure to the caller — no
// retry, no caching, no circuit breaking.
type Client struct {
	URL           string
	Username      string
	Password      string
	CompanyAuthID string
	IDData        string
	HttpClient    *http.Client
}

// NewClient creates a Skill client from configuration
func NewClient(cfg config.SkillConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		URL:           strings.TrimRight(cfg.URL, "/"),
		Username:      cfg.Username,
		Password:      cfg.Password,
		CompanyAuthID: cfg.CompanyAuthID,
		IDData:        cfg.IDData,
		HttpClient:    &http.Client{Timeout: timeout},
	}
}

type authResponse struct {
	Success bool `json:"success"`
	Result  struct {
		Token string `json:"token"`
	} `json:"result"`
}

type eventsResponse struct {
	Success bool `json:"success"`
	Result  struct {
		Events []rawEvent `json:"events"`
	} `json:"result"`
}

type rawEvent struct {
	EventNumber int    `json:"eventNumber"`
	Title       string `json:"title"`
	Status      string `json:"status"`
}

// authenticate obtains a bearer token for this call
func (c *Client) authenticate(ctx context.Context) (string, error) {
	payload := map[string]string{
		"username":      c.Username,
		"password":      c.Password,
		"companyAuthId": c.CompanyAuthID,
		"companyId":     "",
	}

	var resp authResponse
	if err := c.post(ctx, c.URL+"/authenticate", "", payload, &resp); err != nil {
		return "", fmt.Errorf("authenticating with Skill API: %w", err)
	}
	if !resp.Success || resp.Result.Token == "" {
		return "", fmt.Errorf("authentication failed with Skill API")
	}
	return resp.Result.Token, nil
}

// EventsByMonth fetches the month's events, keeping only the statuses in
// the allow-list
func (c *Client) EventsByMonth(ctx context.Context, month, year int) ([]Event, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("invalid month %d", month)
	}
	token, err := c.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	startDate := fmt.Sprintf("%04d-%02d-01", year, month)
	lastDay := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	endDate := fmt.Sprintf("%04d-%02d-%02d", year, month, lastDay)

	payload := map[string]interface{}{
		"Events": map[string]string{
			"startDate": startDate,
			"endDate":   endDate,
		},
	}

	var resp eventsResponse
	if err := c.post(ctx, c.URL+"/events", token, payload, &resp); err != nil {
		return nil, fmt.Errorf("fetching Skill events: %w", err)
	}
	if !resp.Success {
		return []Event{}, nil
	}

	events := make([]Event, 0, len(resp.Result.Events))
	for _, e := range resp.Result.Events {
		if !allowedStatuses[strings.ToLower(strings.TrimSpace(e.Status))] {
			continue
		}
		events = append(events, Event{IDEvento: e.EventNumber, Nombre: e.Title})
	}
	return events, nil
}

// EventByNumber fetches one event by its external code, regardless of status
func (c *Client) EventByNumber(ctx context.Context, eventNumber int) ([]Event, error) {
	token, err := c.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"Events": map[string]int{
			"eventNumber": eventNumber,
		},
	}

	var resp eventsResponse
	if err := c.post(ctx, c.URL+"/events", token, payload, &resp); err != nil {
		return nil, fmt.Errorf("fetching Skill event %d: %w", eventNumber, err)
	}
	if !resp.Success {
		return []Event{}, nil
	}

	events := make([]Event, 0, len(resp.Result.Events))
	for _, e := range resp.Result.Events {
		events = append(events, Event{IDEvento: e.EventNumber, Nombre: e.Title})
	}
	return events, nil
}

func (c *Client) post(ctx context.Context, url, token string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("idData", c.IDData)
		req.Header.Set("companyAuthId", c.CompanyAuthID)
	}

	resp, err := c.HttpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
