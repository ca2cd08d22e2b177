package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/pdfrag/internal/ingest"
	"github.com/ziadkadry99/pdfrag/internal/rag"
	"github.com/ziadkadry99/pdfrag/internal/session"
	"github.com/ziadkadry99/pdfrag/internal/vectordb"
)

func (s *Server) handleIngestPDFs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("paths")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: paths"), nil
	}

	var patterns []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, p)
		}
	}
	if len(patterns) == 0 {
		return mcp.NewToolResultError("missing required parameter: paths"), nil
	}

	files, err := ingest.ReadFiles(patterns)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	report, err := s.sess.Process(ctx, files)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("processing failed: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Indexed %d chunk(s) from %d page(s) of %d file(s).\n", report.Chunks, report.Documents, len(report.Files)))
	if len(report.Skipped) > 0 {
		sb.WriteString(fmt.Sprintf("Skipped (no extractable text): %s\n", strings.Join(report.Skipped, ", ")))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleAskDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: question"), nil
	}

	turn, err := s.sess.Ask(ctx, question)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("answering question: %v", err)), nil
	}
	if turn.IsError {
		return mcp.NewToolResultError(turn.Content), nil
	}

	var sb strings.Builder
	sb.WriteString(turn.Content)
	sb.WriteString("\n")
	if len(turn.Sources) > 0 {
		sb.WriteString("\nSources:\n")
		for i, c := range turn.Sources {
			sb.WriteString(fmt.Sprintf("\n[%d] %s\n%s\n", i+1, c.Metadata, session.Excerpt(c.Text)))
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleSearchDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	limit := request.GetInt("limit", rag.TopK)
	if limit <= 0 {
		limit = rag.TopK
	}

	matches, err := s.sess.Search(ctx, query, limit)
	if err != nil {
		if errors.Is(err, rag.ErrNotReady) {
			return mcp.NewToolResultError("No documents are indexed yet. Call ingest_pdfs first."), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	return mcp.NewToolResultText(vectordb.FormatMatches(matches)), nil
}

func (s *Server) handleClearTranscript(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.sess.Clear(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("clearing transcript: %v", err)), nil
	}
	return mcp.NewToolResultText("Transcript cleared."), nil
}
