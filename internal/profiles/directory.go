// Package profiles is the HTTP client for the remote profile directory,
// the provider that owns social profiles and accepts status creations.
package profiles

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/failsafe-go/failsafe-go"

	"socialcast/internal/models"
	"socialcast/pkg/cache"
	"socialcast/pkg/clients"
)

// APIError carries the provider's HTTP status for a failed call.
type APIError struct {
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("profile directory returned status: %d", e.StatusCode)
}

const listCacheKey = "profiles"

// Client talks to the profile directory. Profile lists are cached with a
// TTL; status creations always go to the wire.
type Client struct {
	baseURL      string
	apiKey       string
	client       *http.Client
	httpExecutor failsafe.Executor[*http.Response]
	shouldRetry  func(resp *http.Response, err error) bool
	cache        *cache.Cache
}

type Option func(*Client)

func NewClient(baseURL, apiKey string, ttl time.Duration, opts ...Option) *Client {
	defaultConfig := clients.DefaultHTTPExecutorConfig()
	c := &Client{
		baseURL:      baseURL,
		apiKey:       apiKey,
		client:       &http.Client{Timeout: 10 * time.Second, Transport: clients.DefaultTransport()},
		httpExecutor: clients.NewHTTPExecutor(defaultConfig),
		shouldRetry:  defaultConfig.ShouldRetry,
		cache:        cache.New(cache.Options{TTL: ttl}, cache.MetricsHooks{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.client = httpClient
		}
	}
}

func WithHTTPExecutorConfig(cfg clients.HTTPExecutorConfig) Option {
	return func(c *Client) {
		c.httpExecutor = clients.NewHTTPExecutor(cfg)
		c.shouldRetry = cfg.ShouldRetry
	}
}

func WithCacheHooks(hooks cache.MetricsHooks) Option {
	return func(c *Client) {
		c.cache = cache.New(cache.Options{TTL: 10 * time.Minute}, hooks)
	}
}

func (c *Client) doRequest(ctx context.Context, build func(ctx context.Context) (*http.Request, error)) (*http.Response, error) {
	if c.httpExecutor == nil {
		req, err := build(ctx)
		if err != nil {
			return nil, err
		}
		return c.client.Do(req)
	}

	return clients.ExecuteHTTP(ctx, c.httpExecutor, func() (*http.Response, error) {
		req, err := build(ctx)
		if err != nil {
			return nil, err
		}
		resp, err := c.client.Do(req)
		if c.shouldRetry != nil && c.shouldRetry(resp, err) {
			if resp != nil && resp.Body != nil {
				_ = resp.Body.Close()
			}
		}
		return resp, err
	})
}

// List returns the current profiles, from cache when fresh. forceRefresh
// drops the cached list first so the next read hits the directory.
func (c *Client) List(ctx context.Context, forceRefresh bool) ([]models.Profile, error) {
	if forceRefresh {
		c.cache.Delete(listCacheKey)
	}
	val, ok, err := c.cache.Get(ctx, listCacheKey, func(ctx context.Context, _ string) (interface{}, bool, error) {
		list, err := c.fetchList(ctx)
		if err != nil {
			return nil, false, err
		}
		return list, true, nil
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("profiles: list unavailable")
	}
	return val.([]models.Profile), nil
}

func (c *Client) fetchList(ctx context.Context) ([]models.Profile, error) {
	reqURL := fmt.Sprintf("%s/api/profiles", c.baseURL)

	resp, err := c.doRequest(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, &APIError{StatusCode: resp.StatusCode}
	}

	var result struct {
		Data []struct {
			ID               string `json:"id"`
			Service          string `json:"service"`
			FormattedService string `json:"formatted_service"`
			Username         string `json:"username"`
			Enabled          bool   `json:"enabled"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	list := make([]models.Profile, 0, len(result.Data))
	for _, p := range result.Data {
		list = append(list, models.Profile{
			ID:               p.ID,
			Service:          p.Service,
			FormattedService: p.FormattedService,
			Username:         p.Username,
			Enabled:          p.Enabled,
		})
	}
	return list, nil
}

type statusRequest struct {
	ProfileIDs []string          `json:"profile_ids"`
	Text       string            `json:"text"`
	RichText   string            `json:"rich_text,omitempty"`
	ImageURL   string            `json:"image_url,omitempty"`
	QueueHint  string            `json:"queue_hint,omitempty"`
	ScheduleAt string            `json:"scheduled_at,omitempty"`
	Shorten    bool              `json:"shorten"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// CreateStatus submits one rendered payload for its profile and returns
// the provider's receipt.
func (c *Client) CreateStatus(ctx context.Context, payload models.DispatchPayload) (*models.ProviderReceipt, error) {
	reqURL := fmt.Sprintf("%s/api/statuses", c.baseURL)

	body := statusRequest{
		ProfileIDs: []string{payload.ProfileID},
		Text:       payload.Text,
		RichText:   payload.RichText,
		ImageURL:   payload.ImageURL,
		QueueHint:  payload.Schedule.QueueHint,
		Shorten:    payload.ShortenLinks,
		Extra:      payload.Extra,
	}
	if !payload.Schedule.At.IsZero() {
		body.ScheduleAt = payload.Schedule.At.UTC().Format(time.RFC3339)
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	resp, err := c.doRequest(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, "POST", reqURL, bytes.NewBuffer(jsonBody))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, &APIError{StatusCode: resp.StatusCode}
	}

	var result struct {
		Data struct {
			ProfileID string    `json:"profile_id"`
			Message   string    `json:"message"`
			CreatedAt time.Time `json:"created_at"`
			DueAt     time.Time `json:"due_at"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &models.ProviderReceipt{
		ProfileID: result.Data.ProfileID,
		Message:   result.Data.Message,
		CreatedAt: result.Data.CreatedAt,
		DueAt:     result.Data.DueAt,
	}, nil
}
