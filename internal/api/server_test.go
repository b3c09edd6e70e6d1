package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coursemind-io/coursemind/internal/logbuf"
	"github.com/coursemind-io/coursemind/internal/rag"
)

type fakeRAG struct {
	result  *rag.Result
	stats   *rag.Stats
	err     error
	cleared []string

	gotQuery   string
	gotSession string
}

func (f *fakeRAG) Query(_ context.Context, query, sessionID string) (*rag.Result, error) {
	f.gotQuery, f.gotSession = query, sessionID
	return f.result, f.err
}

func (f *fakeRAG) Analytics(context.Context) (*rag.Stats, error) {
	return f.stats, f.err
}

func (f *fakeRAG) ClearSession(id string) { f.cleared = append(f.cleared, id) }

func newTestServer(svc RAGService, cfg Config, logs LogQuerier) http.Handler {
	return NewServer(svc, cfg, slog.Default(), logs).Handler()
}

func doJSON(t *testing.T, h http.Handler, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h := newTestServer(&fakeRAG{}, Config{}, nil)
	rec := doJSON(t, h, http.MethodGet, "/api/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
}

func TestQueryEndpoint(t *testing.T) {
	svc := &fakeRAG{result: &rag.Result{
		Answer:    "MCP is a protocol.",
		Sources:   []string{"[Course - Lesson 1](https://example.com)"},
		SessionID: "s1",
	}}
	h := newTestServer(svc, Config{}, nil)

	rec := doJSON(t, h, http.MethodPost, "/api/query", `{"query": "What is MCP?", "session_id": "s1"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d, body: %s", rec.Code, rec.Body)
	}
	if svc.gotQuery != "What is MCP?" || svc.gotSession != "s1" {
		t.Errorf("request not forwarded: %q, %q", svc.gotQuery, svc.gotSession)
	}

	var resp struct {
		Answer    string   `json:"answer"`
		Sources   []string `json:"sources"`
		SessionID string   `json:"session_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Answer != "MCP is a protocol." || resp.SessionID != "s1" || len(resp.Sources) != 1 {
		t.Errorf("response: %+v", resp)
	}
}

func TestQueryEndpoint_NilSourcesSerializeAsEmptyArray(t *testing.T) {
	svc := &fakeRAG{result: &rag.Result{Answer: "hi", SessionID: "s"}}
	h := newTestServer(svc, Config{}, nil)

	rec := doJSON(t, h, http.MethodPost, "/api/query", `{"query": "x"}`, nil)
	if !strings.Contains(rec.Body.String(), `"sources":[]`) {
		t.Errorf("expected an empty array, got %s", rec.Body)
	}
}

func TestQueryEndpoint_Validation(t *testing.T) {
	h := newTestServer(&fakeRAG{}, Config{}, nil)

	rec := doJSON(t, h, http.MethodPost, "/api/query", `{not json`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body: %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/query", `{"query": "   "}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("blank query: %d", rec.Code)
	}
}

func TestQueryEndpoint_ServiceError(t *testing.T) {
	h := newTestServer(&fakeRAG{err: errors.New("provider down")}, Config{}, nil)
	rec := doJSON(t, h, http.MethodPost, "/api/query", `{"query": "x"}`, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status: %d", rec.Code)
	}
}

func TestCoursesEndpoint(t *testing.T) {
	svc := &fakeRAG{stats: &rag.Stats{TotalCourses: 2, CourseTitles: []string{"A", "B"}}}
	h := newTestServer(svc, Config{}, nil)

	rec := doJSON(t, h, http.MethodGet, "/api/courses", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
	var stats rag.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.TotalCourses != 2 || len(stats.CourseTitles) != 2 {
		t.Errorf("stats: %+v", stats)
	}
}

func TestClearSessionEndpoint(t *testing.T) {
	svc := &fakeRAG{}
	h := newTestServer(svc, Config{}, nil)

	rec := doJSON(t, h, http.MethodDelete, "/api/sessions/abc123", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
	if len(svc.cleared) != 1 || svc.cleared[0] != "abc123" {
		t.Errorf("clear not forwarded: %v", svc.cleared)
	}
	if !strings.Contains(rec.Body.String(), "Session abc123 cleared") {
		t.Errorf("body: %s", rec.Body)
	}
}

func TestLogsEndpoint(t *testing.T) {
	buf := logbuf.New(10)
	buf.Write(logbuf.Entry{Time: time.Now(), Level: "INFO", Message: "indexed"})
	buf.Write(logbuf.Entry{Time: time.Now(), Level: "WARN", Message: "slow query"})

	h := newTestServer(&fakeRAG{}, Config{Key: "secret"}, buf)

	rec := doJSON(t, h, http.MethodGet, "/api/logs", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing key must 401, got %d", rec.Code)
	}

	hdr := http.Header{"Authorization": {"Bearer secret"}}
	rec = doJSON(t, h, http.MethodGet, "/api/logs", "", hdr)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
	var entries []logbuf.Entry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(entries))
	}

	rec = doJSON(t, h, http.MethodGet, "/api/logs?level=warn", "", hdr)
	json.Unmarshal(rec.Body.Bytes(), &entries)
	if len(entries) != 1 || entries[0].Message != "slow query" {
		t.Errorf("level filter: %+v", entries)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/logs?since=not-a-time", "", hdr)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad since: %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(&fakeRAG{}, Config{}, nil)
	rec := doJSON(t, h, http.MethodOptions, "/api/query", "", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status: %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("missing CORS header")
	}
}
