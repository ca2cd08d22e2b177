package session

import (
	"context"
	"time"

	"github.com/ziadkadry99/pdfrag/internal/chunker"
	"github.com/ziadkadry99/pdfrag/internal/ingest"
	"github.com/ziadkadry99/pdfrag/internal/rag"
	"github.com/ziadkadry99/pdfrag/internal/vectordb"
)

// Role identifies who produced a chat turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatTurn is one entry in a session transcript. Only assistant turns carry
// sources.
type ChatTurn struct {
	ID        string          `json:"id"`
	Role      Role            `json:"role"`
	Content   string          `json:"content"`
	Sources   []chunker.Chunk `json:"sources,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Engine is the QA pipeline a session drives. *rag.Engine implements it.
type Engine interface {
	Ingest(ctx context.Context, files []ingest.UploadedFile) (*rag.IngestReport, error)
	Ask(ctx context.Context, question string) rag.Answer
	Search(ctx context.Context, query string, k int) ([]vectordb.Match, error)
	Ready() bool
}

// EngineFactory builds the engine for a new session.
type EngineFactory func() (Engine, error)

// ExcerptLength is the number of characters of a source shown in the UI.
const ExcerptLength = 300

// Excerpt truncates text to ExcerptLength characters, marking the cut with
// an ellipsis.
func Excerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= ExcerptLength {
		return text
	}
	return string(runes[:ExcerptLength]) + "..."
}
