package vectordb

import (
	"fmt"
	"strings"

	"github.com/ziadkadry99/pdfrag/internal/chunker"
)

// FormatMatches renders search hits as human-readable text.
func FormatMatches(matches []Match) string {
	if len(matches) == 0 {
		return "No results found."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d result(s):\n\n", len(matches)))

	for i, m := range matches {
		sb.WriteString(fmt.Sprintf("--- Result %d (similarity: %.4f) ---\n", i+1, m.Similarity))
		if m.Chunk.Metadata.Source != "" {
			sb.WriteString(fmt.Sprintf("Source: %s\n", m.Chunk.Metadata))
		}
		sb.WriteString("\n")
		sb.WriteString(m.Chunk.Text)
		sb.WriteString("\n\n")
	}

	return sb.String()
}

// Chunks strips the scores from matches.
func Chunks(matches []Match) []chunker.Chunk {
	out := make([]chunker.Chunk, len(matches))
	for i, m := range matches {
		out[i] = m.Chunk
	}
	return out
}
