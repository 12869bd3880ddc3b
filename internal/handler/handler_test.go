package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/convention-catalog-service/internal/catalog"
	"github.com/maxviazov/convention-catalog-service/internal/handler"
	"github.com/maxviazov/convention-catalog-service/internal/metrics"
	"github.com/maxviazov/convention-catalog-service/internal/model"
	"github.com/maxviazov/convention-catalog-service/internal/repository/memory"
	"github.com/maxviazov/convention-catalog-service/internal/service"
	"github.com/maxviazov/convention-catalog-service/internal/slice"
	"github.com/maxviazov/convention-catalog-service/pkg/response"
)

// stubPinger implements handler.Pinger for health endpoints.
type stubPinger struct{ err error }

func (s stubPinger) Ping(ctx context.Context) error { return s.err }

type server struct {
	engine   *gin.Engine
	catalogs service.Catalogs
	feedback *service.Catalog[model.Feedback]
	metrics  *metrics.Recorder
}

// newServer wires the full router over memory stores.
func newServer(t *testing.T, p handler.Pinger) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zerolog.New(io.Discard)
	limits := slice.Limits{DefaultSize: 20, MaxSize: 100}
	rec := metrics.New(false)
	opt := slice.WithObserver(rec)

	c := service.Catalogs{
		TechStacks:    service.NewCatalog(catalog.TechStacks, memory.New(catalog.TechStacks), limits, log, opt),
		Architectures: service.NewCatalog(catalog.Architectures, memory.New(catalog.Architectures), limits, log, opt),
		Layers:        service.NewCatalog(catalog.Layers, memory.New(catalog.Layers), limits, log, opt),
		Modules:       service.NewCatalog(catalog.Modules, memory.New(catalog.Modules), limits, log, opt),
		CodingRules:   service.NewCatalog(catalog.CodingRules, memory.New(catalog.CodingRules), limits, log, opt),
		Templates:     service.NewCatalog(catalog.Templates, memory.New(catalog.Templates), limits, log, opt),
	}
	fbStore := memory.New(catalog.Feedback)
	fb := service.NewCatalog(catalog.Feedback, fbStore, limits, log, opt)

	r := gin.New()
	r.Use(handler.RequestID(), handler.AccessLog(log), handler.Metrics(rec))
	handler.Register(r, handler.Deps{
		Pinger:        p,
		TechStacks:    c.TechStacks,
		Architectures: c.Architectures,
		Layers:        c.Layers,
		Modules:       c.Modules,
		CodingRules:   c.CodingRules,
		Templates:     c.Templates,
		Feedback:      fb,
		Review:        service.NewFeedbackQueue(fb, fbStore, log),
		Context:       service.NewContextService(c, nil, log),
		Metrics:       rec.Handler(),
	})
	return &server{engine: r, catalogs: c, feedback: fb, metrics: rec}
}

func (s *server) do(method, target string, body any) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

type sliceBody[T any] struct {
	Content    []T     `json:"content"`
	Size       int     `json:"size"`
	HasNext    bool    `json:"has_next"`
	NextCursor *string `json:"next_cursor"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (s *server) seedRules(t *testing.T, n int, mk func(i int) model.CodingRule) {
	t.Helper()
	for i := 1; i <= n; i++ {
		_, err := s.catalogs.CodingRules.Create(context.Background(), mk(i))
		require.NoError(t, err)
	}
}

func rule(i int) model.CodingRule {
	return model.CodingRule{
		LayerID:     1,
		Code:        fmt.Sprintf("R-%03d", i),
		Name:        fmt.Sprintf("rule %d", i),
		Severity:    model.SeverityMajor,
		Category:    "STYLE",
		Description: "d",
	}
}

func TestHealth(t *testing.T) {
	s := newServer(t, stubPinger{})
	for _, p := range []string{"/live", "/ready", "/api/v1/health/live", "/api/v1/health/ready"} {
		w := s.do(http.MethodGet, p, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d, body=%s", p, w.Code, w.Body.String())
		}
	}
}

func TestReadiness_Unavailable(t *testing.T) {
	s := newServer(t, stubPinger{err: errors.New("db down")})
	w := s.do(http.MethodGet, "/api/v1/health/ready", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d, body=%s", w.Code, w.Body.String())
	}
	assert.Contains(t, w.Body.String(), "db down")
}

func TestReadiness_ReportsEveryCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler.Register(r, handler.Deps{
		Pinger: stubPinger{},
		Checks: map[string]handler.Pinger{"redis": stubPinger{err: errors.New("connection refused")}},
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "unavailable", body.Status)
	assert.Equal(t, map[string]string{"store": "ok", "redis": "connection refused"}, body.Checks)
}

func TestDocs_Served(t *testing.T) {
	s := newServer(t, stubPinger{})
	w := s.do(http.MethodGet, "/openapi.yaml", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "openapi: 3.0.3")
	w = s.do(http.MethodGet, "/docs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "swagger-ui")
}

func TestTechStack_CreateGetDelete(t *testing.T) {
	s := newServer(t, stubPinger{})
	w := s.do(http.MethodPost, "/api/v1/tech-stacks", map[string]string{"name": " spring-boot ", "language": "JAVA"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[model.TechStack](t, w)
	assert.Equal(t, "spring-boot", created.Name)
	assert.Equal(t, model.TechStackActive, created.Status)
	require.NotZero(t, created.ID)

	w = s.do(http.MethodGet, fmt.Sprintf("/api/v1/tech-stacks/%d", created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created.ID, decode[model.TechStack](t, w).ID)

	w = s.do(http.MethodPost, "/api/v1/tech-stacks", map[string]string{"name": "spring-boot", "language": "JAVA"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodDelete, fmt.Sprintf("/api/v1/tech-stacks/%d", created.ID), nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(http.MethodGet, fmt.Sprintf("/api/v1/tech-stacks/%d", created.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(http.MethodDelete, fmt.Sprintf("/api/v1/tech-stacks/%d", created.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Soft-deleted rows stay reachable through include_deleted.
	w = s.do(http.MethodGet, "/api/v1/tech-stacks?include_deleted=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[sliceBody[model.TechStack]](t, w).Content, 1)
	w = s.do(http.MethodGet, "/api/v1/tech-stacks", nil)
	assert.Empty(t, decode[sliceBody[model.TechStack]](t, w).Content)
}

func TestCreate_InvalidInput(t *testing.T) {
	s := newServer(t, stubPinger{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tech-stacks", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on malformed body, got %d", w.Code)
	}

	w = s.do(http.MethodPost, "/api/v1/coding-rules", map[string]any{"layer_id": 1, "code": "R-1", "name": "n", "severity": "LOUD", "category": "STYLE", "description": "d"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	p := decode[response.ErrorPayload](t, w)
	assert.Equal(t, "invalid_input", p.Error)
	require.Len(t, p.FieldErrors, 1)
	assert.Equal(t, "severity", p.FieldErrors[0].Field)
	assert.NotEmpty(t, p.RequestID)
}

func TestGet_InvalidID(t *testing.T) {
	s := newServer(t, stubPinger{})
	for _, id := range []string{"abc", "0", "-3"} {
		w := s.do(http.MethodGet, "/api/v1/modules/"+id, nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("id %q: expected 400, got %d", id, w.Code)
		}
	}
}

func TestFeedback_CreatedPendingAndHardDeleted(t *testing.T) {
	s := newServer(t, stubPinger{})
	w := s.do(http.MethodPost, "/api/v1/feedback", map[string]any{
		"target_type": "CODING_RULE", "target_id": 7, "feedback_type": "MODIFY", "risk_level": "SAFE", "payload": "{}", "status": "MERGED",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	fb := decode[model.Feedback](t, w)
	assert.Equal(t, model.FeedbackPending, fb.Status)

	require.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, fmt.Sprintf("/api/v1/feedback/%d", fb.ID), nil).Code)
	w = s.do(http.MethodGet, "/api/v1/feedback?include_deleted=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[sliceBody[model.Feedback]](t, w).Content)
}

func TestUpdate_ReplacesFields(t *testing.T) {
	s := newServer(t, stubPinger{})
	body := map[string]any{"layer_id": 1, "code": "DOM-001", "name": "n", "severity": "MAJOR", "category": "STYLE", "description": "d"}
	w := s.do(http.MethodPost, "/api/v1/coding-rules", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[model.CodingRule](t, w)
	body["code"] = "DOM-002"
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/v1/coding-rules", body).Code)

	body["code"] = " DOM-001 "
	body["severity"] = "BLOCKER"
	w = s.do(http.MethodPut, fmt.Sprintf("/api/v1/coding-rules/%d", created.ID), body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[model.CodingRule](t, w)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "DOM-001", updated.Code)
	assert.Equal(t, model.SeverityBlocker, updated.Severity)

	body["code"] = "DOM-002"
	w = s.do(http.MethodPut, fmt.Sprintf("/api/v1/coding-rules/%d", created.ID), body)
	require.Equal(t, http.StatusConflict, w.Code)
	p := decode[response.ErrorPayload](t, w)
	assert.Equal(t, "already_exists", p.Error)
	assert.Equal(t, "coding_rules with the same code already exists", p.Message)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPut, "/api/v1/coding-rules/999", body).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPut, "/api/v1/coding-rules/abc", body).Code)

	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/v1/coding-rules/%d", created.ID), strings.NewReader("{"))
	w = httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	require.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, fmt.Sprintf("/api/v1/coding-rules/%d", created.ID), nil).Code)
	body["code"] = "DOM-003"
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPut, fmt.Sprintf("/api/v1/coding-rules/%d", created.ID), body).Code)
}

func TestFeedback_ReviewTransitions(t *testing.T) {
	s := newServer(t, stubPinger{})
	create := func(risk string) int64 {
		w := s.do(http.MethodPost, "/api/v1/feedback", map[string]any{
			"target_type": "CODING_RULE", "target_id": 7, "feedback_type": "MODIFY", "risk_level": risk, "payload": "{}",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		return decode[model.Feedback](t, w).ID
	}
	step := func(method string, id int64, action string) *httptest.ResponseRecorder {
		return s.do(method, fmt.Sprintf("/api/v1/feedback/%d/%s", id, action), nil)
	}

	high := create("HIGH")
	w := step(http.MethodPatch, high, "llm-approve")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, model.FeedbackLLMApproved, decode[model.Feedback](t, w).Status)

	w = step(http.MethodPost, high, "merge")
	require.Equal(t, http.StatusConflict, w.Code)
	p := decode[response.ErrorPayload](t, w)
	assert.Equal(t, "conflict", p.Error)
	assert.Equal(t, "cannot merge feedback in status LLM_APPROVED with risk HIGH", p.Message)

	require.Equal(t, http.StatusOK, step(http.MethodPatch, high, "approve").Code)
	w = step(http.MethodPost, high, "merge")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.FeedbackMerged, decode[model.Feedback](t, w).Status)
	assert.Equal(t, http.StatusConflict, step(http.MethodPatch, high, "reject").Code)

	safe := create("SAFE")
	require.Equal(t, http.StatusOK, step(http.MethodPatch, safe, "llm-approve").Code)
	assert.Equal(t, http.StatusConflict, step(http.MethodPatch, safe, "approve").Code)
	assert.Equal(t, http.StatusOK, step(http.MethodPost, safe, "merge").Code)

	rejected := create("MEDIUM")
	w = step(http.MethodPatch, rejected, "llm-reject")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.FeedbackRejected, decode[model.Feedback](t, w).Status)
	assert.Equal(t, http.StatusConflict, step(http.MethodPatch, rejected, "llm-approve").Code)

	assert.Equal(t, http.StatusNotFound, step(http.MethodPatch, 999, "llm-approve").Code)
	assert.Equal(t, http.StatusBadRequest, step(http.MethodPatch, 0, "llm-approve").Code)
	assert.Equal(t, http.StatusNotFound, step(http.MethodPatch, safe, "escalate").Code)
}

func TestSearch_WalkFollowsNextCursor(t *testing.T) {
	s := newServer(t, stubPinger{})
	s.seedRules(t, 25, rule)

	var (
		pages  [][]int64
		target = "/api/v1/coding-rules?size=10"
	)
	for {
		w := s.do(http.MethodGet, target, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		body := decode[sliceBody[model.CodingRule]](t, w)
		ids := make([]int64, 0, len(body.Content))
		for _, r := range body.Content {
			ids = append(ids, r.ID)
		}
		pages = append(pages, ids)
		assert.Equal(t, 10, body.Size)
		if !body.HasNext {
			assert.Nil(t, body.NextCursor)
			break
		}
		require.NotNil(t, body.NextCursor)
		target = "/api/v1/coding-rules?size=10&cursor=" + url.QueryEscape(*body.NextCursor)
		require.Less(t, len(pages), 5, "walk does not terminate")
	}

	require.Len(t, pages, 3)
	assert.Equal(t, []int64{25, 24, 23, 22, 21, 20, 19, 18, 17, 16}, pages[0])
	assert.Equal(t, []int64{15, 14, 13, 12, 11, 10, 9, 8, 7, 6}, pages[1])
	assert.Equal(t, []int64{5, 4, 3, 2, 1}, pages[2])
}

func TestSearch_Ascending(t *testing.T) {
	s := newServer(t, stubPinger{})
	s.seedRules(t, 5, rule)

	w := s.do(http.MethodGet, "/api/v1/coding-rules?size=2&direction=asc&cursor=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[sliceBody[model.CodingRule]](t, w)
	require.Len(t, body.Content, 2)
	assert.Equal(t, int64(3), body.Content[0].ID)
	assert.Equal(t, int64(4), body.Content[1].ID)
	require.NotNil(t, body.NextCursor)
	assert.Equal(t, "4", *body.NextCursor)
}

func TestSearch_SizeAndCursorAreLenient(t *testing.T) {
	s := newServer(t, stubPinger{})
	s.seedRules(t, 3, rule)

	w := s.do(http.MethodGet, "/api/v1/coding-rules?size=abc&cursor=garbage", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[sliceBody[model.CodingRule]](t, w)
	assert.Equal(t, 20, body.Size)
	assert.Len(t, body.Content, 3)

	w = s.do(http.MethodGet, "/api/v1/coding-rules?size=1000", nil)
	assert.Equal(t, 100, decode[sliceBody[model.CodingRule]](t, w).Size)
}

func TestSearch_Filters(t *testing.T) {
	s := newServer(t, stubPinger{})
	severities := []string{model.SeverityBlocker, model.SeverityMajor, model.SeverityMinor}
	s.seedRules(t, 9, func(i int) model.CodingRule {
		r := rule(i)
		r.LayerID = int64(i%2 + 1)
		r.Severity = severities[i%3]
		if i == 4 {
			r.Name = "Repository NAMING"
		}
		return r
	})

	count := func(query string) int {
		t.Helper()
		w := s.do(http.MethodGet, "/api/v1/coding-rules?"+query, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		return len(decode[sliceBody[model.CodingRule]](t, w).Content)
	}

	assert.Equal(t, 9, count(""))
	assert.Equal(t, 9, count("severity=&layer_id="))
	assert.Equal(t, 3, count("severity=blocker"))
	assert.Equal(t, 6, count("severity=BLOCKER,MINOR"))
	assert.Equal(t, 6, count("severity=BLOCKER&severity=MINOR"))
	assert.Equal(t, 5, count("layer_id=2"))
	assert.Equal(t, 9, count("layer_id=1,2"))
	// BLOCKER rows are 3, 6 and 9; the odd ones sit on layer 2.
	assert.Equal(t, 2, count("severity=BLOCKER&layer_id=2"))
	assert.Equal(t, 1, count("search_field=name&search_word=repository"))
	assert.Equal(t, 9, count("search_field=name&search_word=%20"))
	assert.Equal(t, 0, count("search_field=name&search_word=%25_"))
}

func TestSearch_RejectsBadParameters(t *testing.T) {
	s := newServer(t, stubPinger{})
	cases := map[string]string{
		"direction=sideways":                 "direction",
		"search_field=payload&search_word=x": "search_field",
		"include_deleted=maybe":              "include_deleted",
		"severity=LOUD":                      "severity",
		"layer_id=abc":                       "layer_id",
		"layer_id=0":                         "layer_id",
	}
	for q, field := range cases {
		w := s.do(http.MethodGet, "/api/v1/coding-rules?"+q, nil)
		require.Equal(t, http.StatusBadRequest, w.Code, q)
		p := decode[response.ErrorPayload](t, w)
		require.NotEmpty(t, p.FieldErrors, q)
		assert.Equal(t, field, p.FieldErrors[0].Field, q)
	}
}

func TestContext(t *testing.T) {
	s := newServer(t, stubPinger{})
	ctx := context.Background()
	ts, err := s.catalogs.TechStacks.Create(ctx, model.TechStack{Name: "spring-boot", Language: "JAVA", Status: model.TechStackActive})
	require.NoError(t, err)
	arch, err := s.catalogs.Architectures.Create(ctx, model.Architecture{TechStackID: ts.ID, Name: "hexagonal", Pattern: "HEXAGONAL"})
	require.NoError(t, err)
	for i, code := range []string{"DOMAIN", "ADAPTER_IN"} {
		l, err := s.catalogs.Layers.Create(ctx, model.Layer{ArchitectureID: arch.ID, Code: code, Name: code, OrderIndex: i})
		require.NoError(t, err)
		_, err = s.catalogs.CodingRules.Create(ctx, model.CodingRule{LayerID: l.ID, Code: code[:3] + "-001", Name: "r", Severity: model.SeverityInfo, Category: "NAMING", Description: "d"})
		require.NoError(t, err)
	}

	w := s.do(http.MethodGet, fmt.Sprintf("/api/v1/context?tech_stack_id=%d&layer_codes=domain", ts.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decode[service.ConventionContext](t, w)
	assert.Equal(t, ts.ID, out.TechStack.ID)
	require.Len(t, out.Architectures, 1)
	require.Len(t, out.Architectures[0].Layers, 1)
	assert.Equal(t, "DOMAIN", out.Architectures[0].Layers[0].Code)
	assert.Len(t, out.Architectures[0].Layers[0].CodingRules, 1)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/v1/context", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/v1/context?tech_stack_id=x", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/context?tech_stack_id=999", nil).Code)
}

func TestMiddleware_RequestIDAndMetrics(t *testing.T) {
	s := newServer(t, stubPinger{})

	w := s.do(http.MethodGet, "/api/v1/tech-stacks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(handler.HeaderRequestID))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tech-stacks/0", nil)
	req.Header.Set(handler.HeaderRequestID, "req-42")
	w = httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get(handler.HeaderRequestID))
	assert.Equal(t, "req-42", decode[response.ErrorPayload](t, w).RequestID)

	w = s.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `catalog_http_requests_total{method="GET",route="/api/v1/tech-stacks",status="200"} 1`)
	assert.Contains(t, body, `catalog_http_requests_total{method="GET",route="/api/v1/tech-stacks/:id",status="400"} 1`)
	assert.Contains(t, body, `catalog_slice_queries_total{entity="tech_stack",outcome="last"} 1`)
}
