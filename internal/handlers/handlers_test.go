package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"

	"socialcast/internal/dispatch"
	"socialcast/internal/models"
	"socialcast/internal/store"
	"socialcast/internal/trigger"
)

type triggerStub struct {
	outcome   trigger.Outcome
	err       error
	signals   []trigger.Signal
	persisted []int64
}

func (s *triggerStub) Resolve(ctx context.Context, sig trigger.Signal) (trigger.Outcome, error) {
	s.signals = append(s.signals, sig)
	return s.outcome, s.err
}

func (s *triggerStub) MetadataPersisted(ctx context.Context, contentID int64) (trigger.Outcome, error) {
	s.persisted = append(s.persisted, contentID)
	return s.outcome, s.err
}

type contentStub struct {
	item *models.ContentItem
}

func (s *contentStub) Get(ctx context.Context, id int64) (*models.ContentItem, error) {
	if s.item == nil || s.item.ID != id {
		return nil, store.ErrNotFound
	}
	return s.item, nil
}

type dispatcherStub struct {
	results []models.DispatchResult
	err     error
	calls   []dispatch.Options
	actions []models.Action
}

func (s *dispatcherStub) Dispatch(ctx context.Context, contentID int64, action models.Action, opts dispatch.Options) ([]models.DispatchResult, error) {
	s.calls = append(s.calls, opts)
	s.actions = append(s.actions, action)
	return s.results, s.err
}

func postJSON(t *testing.T, router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBuffer(raw))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func setupLifecycle(stub *triggerStub) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	logger, _ := test.NewNullLogger()
	content := &contentStub{item: &models.ContentItem{ID: 1, Type: "post", Status: models.StatusPublish}}
	h := NewLifecycleHandler(stub, content, logger)
	router.POST("/api/lifecycle", h.Handle)
	router.POST("/api/lifecycle/persisted", h.HandleMetadataPersisted)
	return router
}

func TestLifecycleSignal(t *testing.T) {
	stub := &triggerStub{outcome: trigger.OutcomeDispatched}
	router := setupLifecycle(stub)

	resp := postJSON(t, router, "/api/lifecycle", map[string]interface{}{
		"content_id":      1,
		"previous_status": "draft",
		"new_status":      "publish",
		"transport":       "deferred-metadata",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if len(stub.signals) != 1 {
		t.Fatalf("expected one signal, got %d", len(stub.signals))
	}
	sig := stub.signals[0]
	if sig.Previous != models.StatusDraft || sig.New != models.StatusPublish || sig.Transport != models.TransportDeferredMeta {
		t.Fatalf("unexpected signal %+v", sig)
	}

	var body map[string]interface{}
	_ = json.Unmarshal(resp.Body.Bytes(), &body)
	if body["outcome"] != "dispatched" {
		t.Fatalf("unexpected outcome %v", body["outcome"])
	}
}

func TestLifecycleDefaultsToDirectTransport(t *testing.T) {
	stub := &triggerStub{}
	router := setupLifecycle(stub)

	postJSON(t, router, "/api/lifecycle", map[string]interface{}{
		"content_id": 1,
		"new_status": "publish",
	})
	if len(stub.signals) != 1 || stub.signals[0].Transport != models.TransportDirect {
		t.Fatalf("expected direct transport default, got %+v", stub.signals)
	}
}

func TestLifecycleUnknownContent(t *testing.T) {
	stub := &triggerStub{}
	router := setupLifecycle(stub)

	resp := postJSON(t, router, "/api/lifecycle", map[string]interface{}{
		"content_id": 99,
		"new_status": "publish",
	})
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	if len(stub.signals) != 0 {
		t.Fatal("expected no signal for unknown content")
	}
}

func TestLifecycleMetadataPersisted(t *testing.T) {
	stub := &triggerStub{outcome: trigger.OutcomeDispatched}
	router := setupLifecycle(stub)

	resp := postJSON(t, router, "/api/lifecycle/persisted", map[string]interface{}{"content_id": 1})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if len(stub.persisted) != 1 || stub.persisted[0] != 1 {
		t.Fatalf("unexpected persisted calls %v", stub.persisted)
	}
}

func setupDispatch(stub *dispatcherStub) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	logger, _ := test.NewNullLogger()
	router.POST("/api/dispatch", NewDispatchHandler(stub, logger).Handle)
	return router
}

func TestDispatchEndpoint(t *testing.T) {
	stub := &dispatcherStub{results: []models.DispatchResult{{ProfileID: "p1", Kind: models.ResultSuccess}}}
	router := setupDispatch(stub)

	resp := postJSON(t, router, "/api/dispatch", map[string]interface{}{
		"content_id": 1,
		"action":     "repost",
		"test_mode":  true,
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if len(stub.calls) != 1 || !stub.calls[0].TestMode {
		t.Fatalf("expected test-mode call, got %+v", stub.calls)
	}
	if stub.actions[0] != models.ActionRepost {
		t.Fatalf("unexpected action %v", stub.actions[0])
	}
}

func TestDispatchRejectsUnknownAction(t *testing.T) {
	stub := &dispatcherStub{}
	router := setupDispatch(stub)

	resp := postJSON(t, router, "/api/dispatch", map[string]interface{}{
		"content_id": 1,
		"action":     "retweet",
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if len(stub.calls) != 0 {
		t.Fatal("expected no dispatch for unknown action")
	}
}

func TestDispatchEmptyBatchCodes(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{dispatch.ErrNoApplicableStatus, "no_applicable_status"},
		{dispatch.ErrNoEnabledStatus, "no_enabled_status"},
	}
	for _, tc := range tests {
		stub := &dispatcherStub{err: tc.err}
		router := setupDispatch(stub)

		resp := postJSON(t, router, "/api/dispatch", map[string]interface{}{"content_id": 1})
		if resp.Code != http.StatusUnprocessableEntity {
			t.Fatalf("%s: expected 422, got %d", tc.code, resp.Code)
		}
		var body map[string]interface{}
		_ = json.Unmarshal(resp.Body.Bytes(), &body)
		if body["code"] != tc.code {
			t.Fatalf("expected code %q, got %v", tc.code, body["code"])
		}
	}
}

func TestDispatchDoNotPost(t *testing.T) {
	stub := &dispatcherStub{results: nil}
	router := setupDispatch(stub)

	resp := postJSON(t, router, "/api/dispatch", map[string]interface{}{"content_id": 1})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body map[string]interface{}
	_ = json.Unmarshal(resp.Body.Bytes(), &body)
	if body["code"] != "do_not_post" {
		t.Fatalf("expected do_not_post, got %v", body)
	}
}

func TestDispatchMissingCredentials(t *testing.T) {
	stub := &dispatcherStub{err: dispatch.ErrMissingCredentials}
	router := setupDispatch(stub)

	resp := postJSON(t, router, "/api/dispatch", map[string]interface{}{"content_id": 1})
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}
