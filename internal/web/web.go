// Package web serves the browser UI: PDF upload and processing, the chat
// transcript with its sources, and the chat websocket.
package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/yuin/goldmark"

	"github.com/ziadkadry99/pdfrag/internal/session"
)

// defaultMaxUpload applies when Options.MaxUploadBytes is zero.
const defaultMaxUpload = 200 << 20

// Options tunes the web UI.
type Options struct {
	MaxUploadBytes int64

	// AllowAllOrigins accepts chat sockets from any origin. Otherwise only
	// same-origin pages may connect.
	AllowAllOrigins bool
}

// Web wires HTTP and websocket handlers to the session manager.
type Web struct {
	sessions  *session.Manager
	md        goldmark.Markdown
	maxUpload int64
	upgrader  websocket.Upgrader
}

// New creates the web UI.
func New(sessions *session.Manager, opts Options) *Web {
	limit := opts.MaxUploadBytes
	if limit <= 0 {
		limit = defaultMaxUpload
	}
	return &Web{
		sessions:  sessions,
		md:        newMarkdown(),
		maxUpload: limit,
		upgrader:  newUpgrader(opts.AllowAllOrigins),
	}
}

// RegisterRoutes mounts all UI routes onto the given router.
func (h *Web) RegisterRoutes(r chi.Router) {
	r.Get("/", h.ServeIndex)
	r.Get("/api/stats", h.handleStats)
	r.Post("/api/sessions", h.handleCreateSession)
	r.Route("/api/sessions/{id}", func(r chi.Router) {
		r.Get("/", h.handleGetSession)
		r.Delete("/", h.handleEndSession)
		r.Post("/end", h.handleEndSession) // navigator.sendBeacon can only POST
		r.Post("/documents", h.handleProcess)
		r.Post("/questions", h.handleAsk)
		r.Delete("/turns", h.handleClear)
	})
	r.Get("/ws/chat", h.handleWebSocket)
}
