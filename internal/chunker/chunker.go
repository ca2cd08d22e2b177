// Package chunker splits page documents into overlapping fixed-size windows.
package chunker

import (
	"fmt"
	"strings"

	"github.com/ziadkadry99/pdfrag/internal/ingest"
)

// Chunk is one window of a page's text. Seq is its position in the output
// of Split.
type Chunk struct {
	Text     string          `json:"text"`
	Metadata ingest.Metadata `json:"metadata"`
	Seq      int             `json:"seq"`
}

// ChunkingError reports invalid parameters or input that produced no chunks.
type ChunkingError struct {
	Reason string
}

func (e *ChunkingError) Error() string {
	return "chunking failed: " + e.Reason
}

// Split slides a window of size characters over each document's text,
// advancing size-overlap characters at a time. The window that reaches the
// end of a text is the last one for that document.
func Split(docs []ingest.Document, size, overlap int) ([]Chunk, error) {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, &ChunkingError{Reason: fmt.Sprintf("invalid window size=%d overlap=%d", size, overlap)}
	}
	if len(docs) == 0 {
		return nil, &ChunkingError{Reason: "no documents"}
	}

	step := size - overlap
	var chunks []Chunk
	for _, doc := range docs {
		if strings.TrimSpace(doc.Text) == "" {
			continue
		}
		runes := []rune(doc.Text)
		for start := 0; ; start += step {
			end := start + size
			if end > len(runes) {
				end = len(runes)
			}
			chunks = append(chunks, Chunk{
				Text:     string(runes[start:end]),
				Metadata: doc.Metadata,
				Seq:      len(chunks),
			})
			if end == len(runes) {
				break
			}
		}
	}

	if len(chunks) == 0 {
		return nil, &ChunkingError{Reason: "documents contain no text"}
	}
	return chunks, nil
}
