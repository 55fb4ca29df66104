// Package strava wraps the Strava v3 API: activity listing for the weekly
// export, plus the OAuth flow and token persistence it needs.
package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://www.strava.com/api/v3"

// Client calls the Strava API with a bearer token.
type Client struct {
	AccessToken string
	BaseURL     string
	HTTPClient  *http.Client
	// sleep is swapped in tests to keep retries fast.
	sleep func(time.Duration)
}

// NewClient creates a client around an access token.
func NewClient(accessToken string) *Client {
	return &Client{
		AccessToken: accessToken,
		BaseURL:     defaultBaseURL,
		HTTPClient:  &http.Client{Timeout: 30 * time.Second},
		sleep:       time.Sleep,
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

// get performs an authenticated GET with bounded retry and returns the body.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	endpoint := c.BaseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var lastErr error
	for attempt := range 5 {
		if attempt > 0 {
			c.sleep(backoff(attempt - 1))
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.AccessToken)

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if retryable(resp.StatusCode) {
			lastErr = fmt.Errorf("strava request failed (status %d)", resp.StatusCode)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("strava request failed (status %d): %s", resp.StatusCode, body)
		}
		c.slowDownIfNearRateLimit(resp.Header)
		return body, nil
	}
	return nil, fmt.Errorf("after 5 attempts: %w", lastErr)
}

// ListActivities pages through all activities between the two epoch bounds.
func (c *Client) ListActivities(ctx context.Context, afterEpoch, beforeEpoch int64) ([]map[string]any, error) {
	var activities []map[string]any
	for page := 1; ; page++ {
		params := url.Values{
			"after":    {strconv.FormatInt(afterEpoch, 10)},
			"before":   {strconv.FormatInt(beforeEpoch, 10)},
			"per_page": {"200"},
			"page":     {strconv.Itoa(page)},
		}
		body, err := c.get(ctx, "/athlete/activities", params)
		if err != nil {
			return nil, err
		}
		var batch []map[string]any
		if err := json.Unmarshal(body, &batch); err != nil {
			return nil, fmt.Errorf("decoding activities page %d: %w", page, err)
		}
		if len(batch) == 0 {
			return activities, nil
		}
		activities = append(activities, batch...)
	}
}

// GetActivityDetail fetches the full activity, including its description.
func (c *Client) GetActivityDetail(ctx context.Context, id int64) (map[string]any, error) {
	body, err := c.get(ctx, fmt.Sprintf("/activities/%d", id), nil)
	if err != nil {
		return nil, err
	}
	var detail map[string]any
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, fmt.Errorf("decoding activity %d: %w", id, err)
	}
	return detail, nil
}

// GetGear fetches gear metadata (shoes, bikes) by id.
func (c *Client) GetGear(ctx context.Context, gearID string) (map[string]any, error) {
	body, err := c.get(ctx, "/gear/"+gearID, nil)
	if err != nil {
		return nil, err
	}
	var gear map[string]any
	if err := json.Unmarshal(body, &gear); err != nil {
		return nil, fmt.Errorf("decoding gear %s: %w", gearID, err)
	}
	return gear, nil
}

// slowDownIfNearRateLimit sleeps when either the 15-minute or daily usage
// window is at 90% of its limit. Header format: "X-RateLimit-Usage: 10,100"
// and "X-RateLimit-Limit: 100,1000".
func (c *Client) slowDownIfNearRateLimit(h http.Header) {
	usage := strings.Split(h.Get("X-RateLimit-Usage"), ",")
	limit := strings.Split(h.Get("X-RateLimit-Limit"), ",")
	if len(usage) != 2 || len(limit) != 2 {
		return
	}
	for i := range 2 {
		used, err1 := strconv.Atoi(strings.TrimSpace(usage[i]))
		max, err2 := strconv.Atoi(strings.TrimSpace(limit[i]))
		if err1 != nil || err2 != nil || max <= 0 {
			return
		}
		if float64(used)/float64(max) >= 0.9 {
			c.sleep(2 * time.Second)
			return
		}
	}
}
