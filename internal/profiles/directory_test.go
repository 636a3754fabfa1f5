package profiles

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"socialcast/internal/models"
	"socialcast/pkg/cache"
)

// newTestClient builds a client without an executor so tests use the
// direct client.Do path, avoiding retry wrapping.
func newTestClient(baseURL string, ttl time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  "test-key",
		client:  &http.Client{},
		cache:   cache.New(cache.Options{TTL: ttl}, cache.MetricsHooks{}),
	}
}

func profilesHandler(hits *int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		*hits++
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"id": "p1", "service": "mastodon", "formatted_service": "Mastodon", "username": "acme", "enabled": true},
				{"id": "p2", "service": "bluesky", "formatted_service": "Bluesky", "username": "acme.bsky", "enabled": false},
			},
		})
	}
}

func TestListDecodesAndAuthenticates(t *testing.T) {
	var gotAuth, gotPath string
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		profilesHandler(&hits)(w, r)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, time.Minute)
	list, err := c.List(context.Background(), false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("expected bearer auth, got %q", gotAuth)
	}
	if gotPath != "/api/profiles" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if len(list) != 2 || list[0].ID != "p1" || list[0].Service != "mastodon" || !list[0].Enabled {
		t.Fatalf("unexpected list %+v", list)
	}
	if list[1].Enabled {
		t.Fatal("expected p2 disabled")
	}
}

func TestListCachesWithinTTL(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(profilesHandler(&hits))
	defer srv.Close()

	c := newTestClient(srv.URL, time.Minute)
	for i := 0; i < 3; i++ {
		if _, err := c.List(context.Background(), false); err != nil {
			t.Fatalf("list %d: %v", i, err)
		}
	}
	if hits != 1 {
		t.Fatalf("expected a single upstream fetch, got %d", hits)
	}
}

func TestListForceRefreshBypassesCache(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(profilesHandler(&hits))
	defer srv.Close()

	c := newTestClient(srv.URL, time.Minute)
	if _, err := c.List(context.Background(), false); err != nil {
		t.Fatalf("list: %v", err)
	}
	if _, err := c.List(context.Background(), true); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if hits != 2 {
		t.Fatalf("expected refresh to hit upstream, got %d fetches", hits)
	}
}

func TestListErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, time.Minute)
	_, err := c.List(context.Background(), false)
	apiErr, ok := err.(*APIError)
	if !ok || apiErr.StatusCode != http.StatusForbidden {
		t.Fatalf("expected APIError 403, got %v", err)
	}
}

func TestCreateStatus(t *testing.T) {
	var gotBody statusRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/statuses" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"profile_id": "p1",
				"message":    "queued",
				"created_at": "2024-09-01T12:00:00Z",
				"due_at":     "2024-09-01T15:00:00Z",
			},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, time.Minute)
	at := time.Date(2024, 9, 1, 15, 0, 0, 0, time.UTC)
	receipt, err := c.CreateStatus(context.Background(), models.DispatchPayload{
		ProfileID:    "p1",
		Service:      "mastodon",
		Text:         "Hello",
		Schedule:     models.ScheduleInstruction{At: at},
		ShortenLinks: true,
	})
	if err != nil {
		t.Fatalf("create status: %v", err)
	}
	if gotBody.ProfileIDs[0] != "p1" || gotBody.Text != "Hello" || !gotBody.Shorten {
		t.Fatalf("unexpected request body %+v", gotBody)
	}
	if gotBody.ScheduleAt != "2024-09-01T15:00:00Z" {
		t.Fatalf("expected RFC3339 schedule, got %q", gotBody.ScheduleAt)
	}
	if receipt.ProfileID != "p1" || receipt.Message != "queued" {
		t.Fatalf("unexpected receipt %+v", receipt)
	}
	if !receipt.DueAt.Equal(at) {
		t.Fatalf("unexpected due time %v", receipt.DueAt)
	}
}

func TestCreateStatusErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, time.Minute)
	_, err := c.CreateStatus(context.Background(), models.DispatchPayload{ProfileID: "p1", Text: "x"})
	apiErr, ok := err.(*APIError)
	if !ok || apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected APIError 400, got %v", err)
	}
}
