package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sprite-ai/devpulse/internal/client"
	"github.com/sprite-ai/devpulse/internal/model"
	"github.com/sprite-ai/devpulse/internal/report"
	"github.com/sprite-ai/devpulse/internal/session"
	"github.com/sprite-ai/devpulse/internal/view"
)

// checkOrigin accepts requests without an Origin header, same-origin requests and the
// configured allowed origins. "*" allows every origin.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if s.origins["*"] || s.origins[strings.ToLower(origin)] {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// WebSocket message types from client.
const (
	wsMsgSubmit          = "submit"
	wsMsgDismiss         = "dismiss"
	wsMsgSelectTab       = "select_tab"
	wsMsgToggleNarrative = "toggle_narrative"
)

// WebSocket message types to client.
const (
	wsMsgState = "state"
	wsMsgError = "error"
)

var errNoAnalyzer = errors.New("no analysis service configured")

// wsMessage is the envelope for WebSocket messages in both directions.
type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// wsSubmit is the payload for "submit" messages.
type wsSubmit struct {
	RepoURL string `json:"repo_url"`
}

// wsSelectTab is the payload for "select_tab" messages.
type wsSelectTab struct {
	Tab string `json:"tab"`
}

// wsStateResponse is pushed after every state change. Page is set while a report is shown.
type wsStateResponse struct {
	State session.State `json:"state"`
	Page  *view.Page    `json:"page,omitempty"`
}

// wsSession owns the view state of one connection. Analysis results arrive on other
// goroutines, so state and writes are guarded by mu.
type wsSession struct {
	srv  *Server
	conn *websocket.Conn
	ctx  context.Context

	mu    sync.Mutex
	state session.State
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade", "err", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	ws := &wsSession{srv: s, conn: conn, ctx: ctx, state: session.New()}
	ws.mu.Lock()
	ws.pushState()
	ws.mu.Unlock()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Info("websocket read", "err", err)
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			ws.sendError("invalid message format")
			continue
		}

		switch msg.Type {
		case wsMsgSubmit:
			ws.handleSubmit(msg.Data)
		case wsMsgDismiss:
			ws.apply(session.State.Dismiss)
		case wsMsgSelectTab:
			ws.handleSelectTab(msg.Data)
		case wsMsgToggleNarrative:
			ws.apply(session.State.ToggleNarrative)
		default:
			ws.sendError("unknown message type: " + msg.Type)
		}
	}
}

func (ws *wsSession) apply(f func(session.State) session.State) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.state = f(ws.state)
	ws.pushState()
}

func (ws *wsSession) handleSelectTab(data json.RawMessage) {
	var req wsSelectTab
	if err := json.Unmarshal(data, &req); err != nil {
		ws.sendError("invalid select_tab data")
		return
	}
	tab, err := session.ParseTab(req.Tab)
	if err != nil {
		ws.sendError(err.Error())
		return
	}
	ws.apply(func(st session.State) session.State { return st.SelectTab(tab) })
}

func (ws *wsSession) handleSubmit(data json.RawMessage) {
	var req wsSubmit
	if err := json.Unmarshal(data, &req); err != nil {
		ws.sendError("invalid submit data")
		return
	}
	repoURL, err := client.ValidateRepoURL(req.RepoURL)
	if err != nil {
		ws.sendError(err.Error())
		return
	}

	ws.mu.Lock()
	next, accepted, ok := ws.state.Submit(repoURL)
	if !ok {
		ws.mu.Unlock()
		ws.sendError("analysis already in progress")
		return
	}
	ws.state = next
	ws.pushState()
	ws.mu.Unlock()

	go ws.analyze(accepted)
}

// analyze runs one request and resolves it. Results for superseded requests are dropped.
func (ws *wsSession) analyze(req session.Request) {
	var (
		raw []byte
		err error
	)
	if ws.srv.analyzer == nil {
		err = errNoAnalyzer
	} else {
		raw, err = ws.srv.analyzer.Analyze(ws.ctx, req.RepoURL)
	}
	rep, nerr := normalizeResult(raw, err)

	ws.mu.Lock()
	defer ws.mu.Unlock()
	next, ok := ws.state.Resolve(req.Seq, rep, nerr)
	if !ok {
		ws.srv.log.Debug("dropping stale result", "seq", req.Seq)
		return
	}
	ws.state = next
	ws.pushState()
}

func normalizeResult(raw []byte, err error) (*model.Report, error) {
	if err != nil {
		return nil, err
	}
	return report.Normalize(raw)
}

// pushState sends the current state. Callers hold mu.
func (ws *wsSession) pushState() {
	resp := wsStateResponse{State: ws.state}
	if ws.state.Report != nil {
		page := view.NewPageWith(ws.srv.sanitizer, ws.state.Report)
		resp.Page = &page
	}
	ws.send(wsMsgState, resp)
}

func (ws *wsSession) sendError(errMsg string) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.send(wsMsgError, map[string]string{"message": errMsg})
}

// send writes one message. Callers hold mu.
func (ws *wsSession) send(msgType string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		ws.srv.log.Warn("ws marshal", "err", err)
		return
	}
	msg := wsMessage{Type: msgType, Data: raw}
	if err := ws.conn.WriteJSON(msg); err != nil {
		ws.srv.log.Info("ws write", "err", err)
	}
}
