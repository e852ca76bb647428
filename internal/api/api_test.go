package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sprite-ai/devpulse/internal/client"
)

const testPayload = `{
	"report_id": 4,
	"results": {
		"repo_url": "https://github.com/acme/widget",
		"git_sha": "0123456789abcdef",
		"code_health_score": 82,
		"ai_summary": "## Overview\n\nFine.",
		"pylint": {"score": 8.5},
		"radon": {"blocks": [{"name": "f", "complexity": 3, "grade": "A"}, {"name": "g", "complexity": 12, "grade": "D"}]}
	}
}`

// gatedAnalyzer blocks each call until release is signaled.
type gatedAnalyzer struct {
	release chan struct{}
	payload []byte
	err     error
}

func (g *gatedAnalyzer) Analyze(ctx context.Context, repoURL string) ([]byte, error) {
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return g.payload, g.err
}

func newTestServer(opts ...Option) *Server {
	return New(":0", opts...)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json decode: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status ok, got %q", resp["status"])
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/api/normalize", strings.NewReader(testPayload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Report struct {
			ReportID    int     `json:"report_id"`
			HealthScore float64 `json:"health_score"`
		} `json:"report"`
		Health struct {
			Tier  string `json:"tier"`
			Color string `json:"color"`
		} `json:"health"`
		Series []struct {
			Label string `json:"label"`
			Band  string `json:"band"`
		} `json:"complexity_series"`
		Page struct {
			Scorecard struct {
				Commit string `json:"commit"`
			} `json:"scorecard"`
			LineCount struct {
				Available   bool   `json:"available"`
				Placeholder string `json:"placeholder"`
			} `json:"line_count"`
		} `json:"page"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json decode: %v", err)
	}
	if resp.Report.ReportID != 4 {
		t.Errorf("expected report_id 4, got %d", resp.Report.ReportID)
	}
	if resp.Health.Tier != "good" || resp.Health.Color != "success" {
		t.Errorf("unexpected health classification: %+v", resp.Health)
	}
	if len(resp.Series) != 2 || resp.Series[1].Band != "high" {
		t.Errorf("unexpected series: %+v", resp.Series)
	}
	if resp.Page.Scorecard.Commit != "0123456789" {
		t.Errorf("expected commit prefix, got %q", resp.Page.Scorecard.Commit)
	}
	if resp.Page.LineCount.Available || resp.Page.LineCount.Placeholder != "No line count data available" {
		t.Errorf("expected line count placeholder, got %+v", resp.Page.LineCount)
	}
}

func TestNormalizeInvalidJSON(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/api/normalize", strings.NewReader(`{"pylint": `))
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestNormalizeEmptyBody(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/api/normalize", http.NoBody)
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestRenderEndpoint(t *testing.T) {
	srv := newTestServer()

	body, _ := json.Marshal(renderRequest{Text: "# Title\n\nSome <b>bold</b> words"})
	req := httptest.NewRequest(http.MethodPost, "/api/render", bytes.NewReader(body))
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Tree struct {
			Kind string `json:"kind"`
		} `json:"tree"`
		HTML        string `json:"html"`
		Words       int    `json:"words"`
		Collapsible bool   `json:"collapsible"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json decode: %v", err)
	}
	if resp.Tree.Kind != "document" {
		t.Errorf("expected document root, got %q", resp.Tree.Kind)
	}
	if !strings.Contains(resp.HTML, "<h1>Title</h1>") {
		t.Errorf("expected heading in html, got %q", resp.HTML)
	}
	if strings.Contains(resp.HTML, "<b>") {
		t.Errorf("raw html leaked: %q", resp.HTML)
	}
	if resp.Collapsible {
		t.Error("short narrative should not be collapsible")
	}
}

func TestRenderInvalidJSON(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/api/render", strings.NewReader("not json"))
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

type testState struct {
	State struct {
		Phase             string          `json:"phase"`
		Tab               string          `json:"tab"`
		Seq               uint64          `json:"seq"`
		Error             string          `json:"error"`
		NarrativeExpanded bool            `json:"narrative_expanded"`
		Report            json.RawMessage `json:"report"`
	} `json:"state"`
	Page json.RawMessage `json:"page"`
}

func dial(t *testing.T, srv *Server) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("ws dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msgType string, data any) {
	t.Helper()
	msg := wsMessage{Type: msgType}
	if data != nil {
		raw, _ := json.Marshal(data)
		msg.Data = raw
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("ws write %s: %v", msgType, err)
	}
}

func read(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg wsMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ws read: %v", err)
	}
	return msg
}

func readState(t *testing.T, conn *websocket.Conn) testState {
	t.Helper()
	msg := read(t, conn)
	if msg.Type != wsMsgState {
		t.Fatalf("expected 'state' message, got %q: %s", msg.Type, msg.Data)
	}
	var st testState
	if err := json.Unmarshal(msg.Data, &st); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	return st
}

func TestWebSocketSession(t *testing.T) {
	a := &gatedAnalyzer{release: make(chan struct{}), payload: []byte(testPayload)}
	conn := dial(t, newTestServer(WithAnalyzer(a)))

	if st := readState(t, conn); st.State.Phase != "idle" || st.State.Tab != "complexity" {
		t.Fatalf("unexpected initial state: %+v", st.State)
	}

	send(t, conn, wsMsgSubmit, wsSubmit{RepoURL: "https://github.com/acme/widget"})
	st := readState(t, conn)
	if st.State.Phase != "submitting" || st.State.Seq != 1 {
		t.Fatalf("expected submitting seq 1, got %+v", st.State)
	}

	// A second submit while busy is refused.
	send(t, conn, wsMsgSubmit, wsSubmit{RepoURL: "https://github.com/acme/other"})
	if msg := read(t, conn); msg.Type != wsMsgError {
		t.Fatalf("expected error for busy submit, got %q", msg.Type)
	}

	a.release <- struct{}{}
	st = readState(t, conn)
	if st.State.Phase != "success" {
		t.Fatalf("expected success, got %+v", st.State)
	}
	if len(st.Page) == 0 || len(st.State.Report) == 0 {
		t.Fatal("expected report and page on success")
	}

	send(t, conn, wsMsgSelectTab, wsSelectTab{Tab: "lint"})
	if st = readState(t, conn); st.State.Tab != "lint" {
		t.Errorf("expected lint tab, got %q", st.State.Tab)
	}

	send(t, conn, wsMsgToggleNarrative, nil)
	if st = readState(t, conn); !st.State.NarrativeExpanded {
		t.Error("expected narrative expanded")
	}

	send(t, conn, wsMsgDismiss, nil)
	st = readState(t, conn)
	if st.State.Phase != "idle" || len(st.Page) != 0 {
		t.Errorf("expected idle without page, got %+v", st.State)
	}
	if st.State.Tab != "lint" {
		t.Errorf("tab should survive dismiss, got %q", st.State.Tab)
	}
}

func TestWebSocketServiceError(t *testing.T) {
	a := &gatedAnalyzer{
		release: make(chan struct{}, 1),
		err:     &client.ServiceError{Status: http.StatusBadRequest, Detail: "Repository not found"},
	}
	a.release <- struct{}{}
	conn := dial(t, newTestServer(WithAnalyzer(a)))
	readState(t, conn)

	send(t, conn, wsMsgSubmit, wsSubmit{RepoURL: "github.com/acme/missing"})
	readState(t, conn)

	st := readState(t, conn)
	if st.State.Phase != "failed" {
		t.Fatalf("expected failed, got %+v", st.State)
	}
	if !strings.Contains(st.State.Error, "Repository not found") {
		t.Errorf("expected service detail, got %q", st.State.Error)
	}
}

func TestWebSocketInvalidMessages(t *testing.T) {
	conn := dial(t, newTestServer())
	readState(t, conn)

	send(t, conn, wsMsgSubmit, wsSubmit{RepoURL: "https://gitlab.com/a/b"})
	if msg := read(t, conn); msg.Type != wsMsgError {
		t.Errorf("expected error for invalid url, got %q", msg.Type)
	}

	send(t, conn, wsMsgSelectTab, wsSelectTab{Tab: "coverage"})
	if msg := read(t, conn); msg.Type != wsMsgError {
		t.Errorf("expected error for unknown tab, got %q", msg.Type)
	}

	send(t, conn, "rewind", nil)
	if msg := read(t, conn); msg.Type != wsMsgError {
		t.Errorf("expected error for unknown type, got %q", msg.Type)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{")); err != nil {
		t.Fatalf("ws write: %v", err)
	}
	if msg := read(t, conn); msg.Type != wsMsgError {
		t.Errorf("expected error for malformed message, got %q", msg.Type)
	}
}

func TestWebSocketWithoutAnalyzer(t *testing.T) {
	conn := dial(t, newTestServer())
	readState(t, conn)

	send(t, conn, wsMsgSubmit, wsSubmit{RepoURL: "https://github.com/acme/widget"})
	readState(t, conn)
	st := readState(t, conn)
	if st.State.Phase != "failed" || st.State.Error != errNoAnalyzer.Error() {
		t.Errorf("expected failure without analyzer, got %+v", st.State)
	}
}

func TestWebSocketOriginPolicy(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		origin  string // "self" means the test server's own origin
		allowed bool
	}{
		{"no origin header", nil, "", true},
		{"same origin", nil, "self", true},
		{"foreign origin", nil, "https://evil.example", false},
		{"listed origin", []Option{WithAllowedOrigins("https://dash.example/")}, "https://dash.example", true},
		{"wildcard", []Option{WithAllowedOrigins("*")}, "https://evil.example", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(New("", tt.opts...).Handler())
			defer ts.Close()

			header := http.Header{}
			switch tt.origin {
			case "":
			case "self":
				header.Set("Origin", ts.URL)
			default:
				header.Set("Origin", tt.origin)
			}

			wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
			conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
			if tt.allowed {
				if err != nil {
					t.Fatalf("expected upgrade, got %v", err)
				}
				conn.Close()
				return
			}
			if err == nil {
				conn.Close()
				t.Fatal("expected the upgrade to be refused")
			}
			if resp == nil || resp.StatusCode != http.StatusForbidden {
				t.Errorf("expected 403, got %v", resp)
			}
		})
	}
}
