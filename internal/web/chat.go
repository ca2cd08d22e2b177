package web

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/pdfrag/internal/session"
)

// newUpgrader accepts same-origin sockets only, unless every origin is
// allowed.
func newUpgrader(allowAll bool) websocket.Upgrader {
	var u websocket.Upgrader
	if allowAll {
		u.CheckOrigin = func(r *http.Request) bool { return true }
	}
	return u
}

// chatRequest is the incoming WebSocket message format.
type chatRequest struct {
	Type      string `json:"type"`       // "ask" or "clear"
	SessionID string `json:"session_id"` // empty starts a new session
	Content   string `json:"content"`
}

// chatResponse is the outgoing WebSocket message format.
type chatResponse struct {
	Type        string       `json:"type"` // "response", "cleared" or "error"
	SessionID   string       `json:"session_id"`
	Content     string       `json:"content"`
	ContentHTML string       `json:"content_html,omitempty"`
	Sources     []sourceView `json:"sources,omitempty"`
	IsError     bool         `json:"is_error,omitempty"`
}

func (h *Web) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	// The socket outlives the request timeout; messages get a context that
	// keeps the request values but not its deadline.
	ctx := context.WithoutCancel(r.Context())

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("web: websocket read: %v", err)
			}
			return
		}

		var req chatRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			h.sendError(conn, "", "invalid message format")
			continue
		}

		switch req.Type {
		case "ask":
			h.handleAskMessage(ctx, conn, req)
		case "clear":
			h.handleClearMessage(ctx, conn, req)
		default:
			h.sendError(conn, req.SessionID, "unknown message type: "+req.Type)
		}
	}
}

func (h *Web) handleAskMessage(ctx context.Context, conn *websocket.Conn, req chatRequest) {
	if strings.TrimSpace(req.Content) == "" {
		h.sendError(conn, req.SessionID, "content is required")
		return
	}

	sess, ok := h.socketSession(ctx, conn, req)
	if !ok {
		return
	}

	turn, err := sess.Ask(ctx, req.Content)
	if err != nil {
		h.sendError(conn, sess.ID, "question failed: "+err.Error())
		return
	}

	v := h.turnView(*turn)
	h.sendResponse(conn, chatResponse{
		Type:        "response",
		SessionID:   sess.ID,
		Content:     v.Content,
		ContentHTML: v.ContentHTML,
		Sources:     v.Sources,
		IsError:     v.IsError,
	})
}

func (h *Web) handleClearMessage(ctx context.Context, conn *websocket.Conn, req chatRequest) {
	sess, err := h.sessions.Get(req.SessionID)
	if err != nil {
		h.sendError(conn, req.SessionID, err.Error())
		return
	}
	if err := sess.Clear(ctx); err != nil {
		h.sendError(conn, sess.ID, "clear failed: "+err.Error())
		return
	}
	h.sendResponse(conn, chatResponse{Type: "cleared", SessionID: sess.ID})
}

// socketSession resolves the request's session, starting one when the
// client has none yet.
func (h *Web) socketSession(ctx context.Context, conn *websocket.Conn, req chatRequest) (*session.Session, bool) {
	if req.SessionID == "" {
		sess, err := h.sessions.Create(ctx)
		if err != nil {
			h.sendError(conn, "", "failed to create session: "+err.Error())
			return nil, false
		}
		return sess, true
	}
	sess, err := h.sessions.Get(req.SessionID)
	if err != nil {
		h.sendError(conn, req.SessionID, err.Error())
		return nil, false
	}
	return sess, true
}

func (h *Web) sendResponse(conn *websocket.Conn, resp chatResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		log.Printf("web: websocket write: %v", err)
	}
}

func (h *Web) sendError(conn *websocket.Conn, sessionID, message string) {
	resp := chatResponse{
		Type:      "error",
		SessionID: sessionID,
		Content:   message,
	}
	if err := conn.WriteJSON(resp); err != nil {
		log.Printf("web: websocket write error: %v", err)
	}
}
