package rag

import (
	"fmt"
	"strings"

	"github.com/ziadkadry99/pdfrag/internal/vectordb"
)

const systemPrompt = `You answer questions about documents the user has uploaded. Use only the context passages provided. If the context does not contain the answer, say that you don't know instead of making one up. Mention the source file and page when you rely on a passage.`

// buildPrompt stuffs every retrieved passage into a single user message,
// followed by the question.
func buildPrompt(question string, matches []vectordb.Match) string {
	var b strings.Builder

	b.WriteString("## Context\n")
	if len(matches) == 0 {
		b.WriteString("(no relevant passages found)\n")
	}
	for i, m := range matches {
		fmt.Fprintf(&b, "\n[%d] %s\n%s\n", i+1, m.Chunk.Metadata, m.Chunk.Text)
	}

	fmt.Fprintf(&b, "\n## Question\n%s\n", question)

	return b.String()
}
