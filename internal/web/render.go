package web

import (
	"bytes"
	"html"
	"log"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"

	"github.com/ziadkadry99/pdfrag/internal/session"
)

// newMarkdown renders model answers. Raw HTML in answers is escaped.
func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
			),
		),
	)
}

func (h *Web) renderMarkdown(text string) string {
	var buf bytes.Buffer
	if err := h.md.Convert([]byte(text), &buf); err != nil {
		log.Printf("web: rendering markdown: %v", err)
		return "<p>" + html.EscapeString(text) + "</p>"
	}
	return buf.String()
}

// sourceView is a source excerpt as shown under an answer.
type sourceView struct {
	Excerpt  string            `json:"excerpt"`
	Metadata map[string]string `json:"metadata"`
}

type turnView struct {
	ID          string       `json:"id"`
	Role        session.Role `json:"role"`
	Content     string       `json:"content"`
	ContentHTML string       `json:"content_html"`
	Sources     []sourceView `json:"sources"`
	IsError     bool         `json:"is_error,omitempty"`
}

type sessionView struct {
	ID    string     `json:"id"`
	Ready bool       `json:"ready"`
	Turns []turnView `json:"turns"`
}

func (h *Web) turnView(t session.ChatTurn) turnView {
	v := turnView{
		ID:          t.ID,
		Role:        t.Role,
		Content:     t.Content,
		ContentHTML: h.renderMarkdown(t.Content),
		Sources:     []sourceView{},
		IsError:     t.IsError,
	}
	for _, c := range t.Sources {
		v.Sources = append(v.Sources, sourceView{
			Excerpt:  session.Excerpt(c.Text),
			Metadata: c.Metadata.Map(),
		})
	}
	return v
}

func (h *Web) sessionView(sess *session.Session, turns []session.ChatTurn) sessionView {
	v := sessionView{ID: sess.ID, Ready: sess.Ready(), Turns: []turnView{}}
	for _, t := range turns {
		v.Turns = append(v.Turns, h.turnView(t))
	}
	return v
}
