package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/datenollm/internal/config"
	"github.com/ziadkadry99/datenollm/internal/dateno"
	"github.com/ziadkadry99/datenollm/internal/db"
	"github.com/ziadkadry99/datenollm/internal/journal"
	"github.com/ziadkadry99/datenollm/internal/llm"
	"github.com/ziadkadry99/datenollm/internal/metrics"
	"github.com/ziadkadry99/datenollm/internal/orchestrator"
	"github.com/ziadkadry99/datenollm/internal/response"
)

type mockProvider struct {
	content string
	err     error
	calls   int
}

func (m *mockProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &llm.CompletionResponse{Content: m.content, Model: req.Model}, nil
}

func (m *mockProvider) Name() string { return "mock" }

const payload = `{"question":"Kenya climate","queries":[{"query":"climate","filters":[{"name":"source.countries.name","value":"Kenya"}]}]}`

type fixture struct {
	srv      *Server
	provider *mockProvider
	journal  *journal.Store
}

func newFixture(t *testing.T, cfg Config, deps Deps) *fixture {
	t.Helper()
	c := *config.DefaultConfig()
	c.APIKey = "sk-test"
	c.Prompt = "system"
	c.FlaggingDir = filepath.Join(t.TempDir(), "flagged")

	p := &mockProvider{content: "```json\n" + payload + "\n```"}
	v, err := response.NewSchemaValidator()
	if err != nil {
		t.Fatalf("NewSchemaValidator: %v", err)
	}
	orch, err := orchestrator.New(c, p, v, nil)
	if err != nil {
		t.Fatalf("orchestrator.New: %v", err)
	}

	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	store := journal.NewStore(database)
	deps.Journal = store
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewQueryMetrics(nil)
	}

	return &fixture{srv: New(cfg, orch, deps), provider: p, journal: store}
}

func (f *fixture) do(t *testing.T, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	f.srv.Router().ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	f := newFixture(t, Config{}, Deps{})
	w := f.do(t, "GET", "/healthz", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", body["status"])
	}
}

func TestCORSHeaders(t *testing.T) {
	f := newFixture(t, Config{AllowAll: true}, Deps{})

	req := httptest.NewRequest("OPTIONS", "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	f.srv.Router().ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected CORS Allow-Origin header")
	}
}

func TestAsk(t *testing.T) {
	f := newFixture(t, Config{}, Deps{})
	w := f.do(t, "POST", "/api/ask", AskRequest{Message: "climate in Kenya", Params: `{"max_tokens":256}`})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var resp DataResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	ql, err := response.Parse(resp.Data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if ql.Question != "Kenya climate" {
		t.Errorf("question = %q", ql.Question)
	}

	entries, err := f.journal.Query(context.Background(), journal.Filter{Operation: journal.OpAsk})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 1 || entries[0].Message != "climate in Kenya" || entries[0].Fallback {
		t.Errorf("journal = %+v", entries)
	}
}

func TestAskErrors(t *testing.T) {
	f := newFixture(t, Config{}, Deps{})

	if w := f.do(t, "POST", "/api/ask", AskRequest{}); w.Code != http.StatusBadRequest {
		t.Errorf("empty message: status = %d", w.Code)
	}
	if w := f.do(t, "POST", "/api/ask", AskRequest{Message: "q", Params: "{bad"}); w.Code != http.StatusBadRequest {
		t.Errorf("bad params: status = %d", w.Code)
	}

	f.provider.err = errors.New("upstream down")
	w := f.do(t, "POST", "/api/ask", AskRequest{Message: "q"})
	if w.Code != http.StatusBadGateway {
		t.Errorf("transport error: status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "upstream down") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestAskFallback(t *testing.T) {
	f := newFixture(t, Config{}, Deps{})
	f.provider.content = "not json"

	w := f.do(t, "POST", "/api/ask", AskRequest{Message: "q"})
	var resp DataResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Data != response.Fallback() {
		t.Errorf("expected fallback, got %q", resp.Data)
	}

	m := f.do(t, "GET", "/metrics", nil)
	if !strings.Contains(m.Body.String(), `outcome="fallback"`) {
		t.Errorf("fallback not counted:\n%s", m.Body.String())
	}
}

func TestFilter(t *testing.T) {
	f := newFixture(t, Config{}, Deps{})
	body := map[string]any{
		"message": "keep Kenya",
		"history": []map[string]any{{"role": "user", "content": "q"}, {"role": "assistant", "content": "a"}},
		"data":    []map[string]string{{"title": "Kenya rainfall"}},
		"model":   "openai/gpt-4o-mini",
	}
	w := f.do(t, "POST", "/api/filter", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if f.provider.calls != 1 {
		t.Errorf("expected one model call, got %d", f.provider.calls)
	}
}

func TestLikeAndLogs(t *testing.T) {
	f := newFixture(t, Config{}, Deps{})

	if w := f.do(t, "GET", "/api/logs", nil); w.Code != http.StatusNotFound {
		t.Errorf("logs before feedback: status = %d", w.Code)
	}

	single := map[string]any{"index": 1, "like": true, "messages": map[string]any{"role": "assistant", "content": payload}}
	if w := f.do(t, "POST", "/api/like", single); w.Code != http.StatusNoContent {
		t.Fatalf("like single: status = %d: %s", w.Code, w.Body.String())
	}
	list := map[string]any{"index": 2, "like": false, "messages": []map[string]any{{"role": "user", "content": "q"}, {"role": "assistant", "content": "a"}}}
	if w := f.do(t, "POST", "/api/like", list); w.Code != http.StatusNoContent {
		t.Fatalf("like list: status = %d", w.Code)
	}
	if w := f.do(t, "POST", "/api/like", map[string]any{"messages": 5}); w.Code != http.StatusBadRequest {
		t.Errorf("bad messages: status = %d", w.Code)
	}

	w := f.do(t, "GET", "/api/logs", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("logs: status = %d", w.Code)
	}
	csv := w.Body.String()
	if !strings.HasPrefix(csv, "conversation,index,like_dislike,flag") || !strings.Contains(csv, ",Dislike,") {
		t.Errorf("unexpected log:\n%s", csv)
	}

	entries, _ := f.journal.Query(context.Background(), journal.Filter{Operation: journal.OpLike})
	if len(entries) != 2 {
		t.Errorf("expected 2 like entries, got %d", len(entries))
	}
}

func TestAuthToken(t *testing.T) {
	f := newFixture(t, Config{AuthToken: "secret"}, Deps{})

	if w := f.do(t, "POST", "/api/ask", AskRequest{Message: "q"}); w.Code != http.StatusUnauthorized {
		t.Errorf("missing token: status = %d", w.Code)
	}
	if w := f.do(t, "POST", "/api/ask", AskRequest{Message: "q"}, "Authorization", "Bearer wrong"); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token: status = %d", w.Code)
	}
	if w := f.do(t, "POST", "/api/ask", AskRequest{Message: "q"}, "Authorization", "Bearer secret"); w.Code != http.StatusOK {
		t.Errorf("valid token: status = %d", w.Code)
	}
	if w := f.do(t, "GET", "/healthz", nil); w.Code != http.StatusOK {
		t.Errorf("healthz should not require a token: status = %d", w.Code)
	}
}

func TestDatenoSearchAndResultsHTML(t *testing.T) {
	index := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"hits":{"hits":[{"_id":"id-1","_source":{"dataset":{"title":"Kenya rainfall"}}}]}}`))
	}))
	defer index.Close()

	f := newFixture(t, Config{}, Deps{Dateno: dateno.NewClient(index.URL, "k")})

	w := f.do(t, "POST", "/api/dateno_search", SearchRequest{LLMResponse: json.RawMessage(`"` + strings.ReplaceAll(payload, `"`, `\"`) + `"`)})
	if w.Code != http.StatusOK {
		t.Fatalf("dateno_search: status = %d: %s", w.Code, w.Body.String())
	}
	var results []dateno.QueryResult
	if err := json.Unmarshal(w.Body.Bytes(), &results); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(results) != 1 || results[0].Query.Query != "climate" {
		t.Fatalf("results = %+v", results)
	}

	w = f.do(t, "POST", "/api/results2html", ResultsHTMLRequest{Data: w.Body.Bytes(), Verbose: false})
	if w.Code != http.StatusOK {
		t.Fatalf("results2html: status = %d: %s", w.Code, w.Body.String())
	}
	var html DataResponse
	json.Unmarshal(w.Body.Bytes(), &html)
	if !strings.Contains(html.Data, "https://dateno.io/search/#id-1") {
		t.Errorf("html = %s", html.Data)
	}
}

func TestDatenoSearchNotConfigured(t *testing.T) {
	f := newFixture(t, Config{}, Deps{})
	if w := f.do(t, "POST", "/api/dateno_search", SearchRequest{LLMResponse: json.RawMessage(payload)}); w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d", w.Code)
	}
}

func TestJournalRoutes(t *testing.T) {
	f := newFixture(t, Config{}, Deps{})
	f.do(t, "POST", "/api/ask", AskRequest{Message: "q"})

	w := f.do(t, "GET", "/api/journal/", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var entries []journal.Entry
	json.Unmarshal(w.Body.Bytes(), &entries)
	if len(entries) != 1 {
		t.Errorf("entries = %+v", entries)
	}
}

func TestSettingsHidesPrompt(t *testing.T) {
	f := newFixture(t, Config{}, Deps{})
	w := f.do(t, "GET", "/api/settings", nil)
	var s orchestrator.Settings
	json.Unmarshal(w.Body.Bytes(), &s)
	if s.Model != config.DefaultModel || s.Prompt != "" {
		t.Errorf("settings = %+v", s)
	}
}

func TestWebSocketAsk(t *testing.T) {
	f := newFixture(t, Config{}, Deps{})
	ts := httptest.NewServer(f.srv.Router())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	conn.WriteJSON(chatRequest{Type: "ask", Content: "climate in Kenya"})
	var resp chatResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	if resp.Type != "response" {
		t.Fatalf("type = %q content = %q", resp.Type, resp.Content)
	}
	if _, err := response.Parse(resp.Content); err != nil {
		t.Errorf("content not a query list: %v", err)
	}

	conn.WriteJSON(chatRequest{Type: "dance", Content: "x"})
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	if resp.Type != "error" || !strings.Contains(resp.Content, "unknown message type") {
		t.Errorf("resp = %+v", resp)
	}

	conn.WriteMessage(websocket.TextMessage, []byte("{"))
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	if resp.Type != "error" {
		t.Errorf("expected error for malformed message, got %+v", resp)
	}
}
