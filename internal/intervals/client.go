// Package intervals is a minimal Intervals.icu API client: event upserts for
// planned workouts and activity listing for the weekly export.
package intervals

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultBaseURL = "https://intervals.icu/api/v1"

// Event is the calendar-service wire format for one planned workout.
type Event struct {
	Category       string `json:"category"`
	StartDateLocal string `json:"start_date_local"`
	Type           string `json:"type"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	ExternalID     string `json:"external_id"`
}

// Activity is a completed activity as returned by the activities endpoint.
// The API's field set varies by source, so it stays a loose map and the
// export layer picks fields with fallbacks.
type Activity map[string]any

// Client talks to the Intervals.icu API with HTTP basic auth.
type Client struct {
	BaseURL    string
	APIKey     string
	AthleteID  int
	HTTPClient *http.Client
	// sleep is swapped in tests to keep retries fast.
	sleep func(time.Duration)
}

// NewClient creates a client for the given athlete.
func NewClient(apiKey string, athleteID int) *Client {
	return &Client{
		BaseURL:    defaultBaseURL,
		APIKey:     apiKey,
		AthleteID:  athleteID,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		sleep:      time.Sleep,
	}
}

func retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func backoff(attempt int) time.Duration {
	base := min(time.Duration(1<<attempt)*time.Second, 30*time.Second)
	return base + time.Duration(rand.Int63n(int64(500*time.Millisecond)))
}

// UpsertEvent pushes one planned workout as a one-element upsert batch.
// Transient failures (429 and 5xx, plus transport errors) are retried with
// bounded exponential backoff; anything left after five attempts comes back
// as a typed *UploadError so the caller can report it against the workout
// without aborting the rest of the batch.
func (c *Client) UpsertEvent(ctx context.Context, ev Event) error {
	body, err := json.Marshal([]Event{ev})
	if err != nil {
		return &UploadError{Kind: UploadMalformed, Err: err}
	}
	endpoint := fmt.Sprintf("%s/athlete/%d/events/bulk?upsert=true", c.BaseURL, c.AthleteID)

	var lastErr *UploadError
	for attempt := range 5 {
		if attempt > 0 {
			c.sleep(backoff(attempt - 1))
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return &UploadError{Kind: UploadTransport, Err: err}
		}
		req.SetBasicAuth("API_KEY", c.APIKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			lastErr = &UploadError{Kind: UploadTransport, Err: err}
			continue
		}
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			c.slowDownIfNearRateLimit(resp.Header)
			return nil
		case retryable(resp.StatusCode):
			lastErr = classifyStatus(resp.StatusCode, respBody)
			continue
		default:
			return classifyStatus(resp.StatusCode, respBody)
		}
	}
	return fmt.Errorf("after 5 attempts: %w", lastErr)
}

// ListActivities returns completed activities between oldest and newest
// (YYYY-MM-DD, inclusive).
func (c *Client) ListActivities(ctx context.Context, oldest, newest string) ([]Activity, error) {
	endpoint := fmt.Sprintf("%s/athlete/%d/activities?%s", c.BaseURL, c.AthleteID,
		url.Values{"oldest": {oldest}, "newest": {newest}}.Encode())

	var lastErr error
	for attempt := range 5 {
		if attempt > 0 {
			c.sleep(backoff(attempt - 1))
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.SetBasicAuth("API_KEY", c.APIKey)

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if retryable(resp.StatusCode) {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("activities request failed (status %d)", resp.StatusCode)
			continue
		}
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			resp.Body.Close()
			return nil, fmt.Errorf("auth failed (status %d): check the API key", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return nil, fmt.Errorf("activities request failed (status %d): %s", resp.StatusCode, body)
		}

		var activities []Activity
		err = json.NewDecoder(resp.Body).Decode(&activities)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("decoding activities: %w", err)
		}
		c.slowDownIfNearRateLimit(resp.Header)
		return activities, nil
	}
	return nil, fmt.Errorf("after 5 attempts: %w", lastErr)
}

// slowDownIfNearRateLimit sleeps briefly when the athlete's rate-limit budget
// is nearly spent, so a long batch does not tip over into 429s.
func (c *Client) slowDownIfNearRateLimit(h http.Header) {
	remaining, err1 := strconv.Atoi(h.Get("X-RateLimit-Remaining"))
	limit, err2 := strconv.Atoi(h.Get("X-RateLimit-Limit"))
	if err1 != nil || err2 != nil || limit <= 0 {
		return
	}
	if float64(remaining)/float64(limit) <= 0.1 {
		c.sleep(2 * time.Second)
	}
}
