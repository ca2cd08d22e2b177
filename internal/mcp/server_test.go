package mcp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/pdfrag/internal/db"
	"github.com/ziadkadry99/pdfrag/internal/ingest"
	"github.com/ziadkadry99/pdfrag/internal/llm"
	"github.com/ziadkadry99/pdfrag/internal/rag"
	"github.com/ziadkadry99/pdfrag/internal/session"
)

// mockEmbedder implements embeddings.Embedder for testing.
type mockEmbedder struct{}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i, text := range texts {
		vec := []float32{1, 0, 0}
		for _, ch := range text {
			vec[int(ch)%3] += 0.1
		}
		result[i] = vec
	}
	return result, nil
}
func (m *mockEmbedder) Dimensions() int { return 3 }
func (m *mockEmbedder) Name() string    { return "mock" }

type mockProvider struct{ err error }

func (m *mockProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &llm.CompletionResponse{Content: "The report covers Q3 revenue."}, nil
}
func (m *mockProvider) Name() string { return "mock" }

type pageExtractor struct{}

func (pageExtractor) ExtractPages(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return strings.Split(string(data), "\f"), nil
}

func newTestServer(t *testing.T, prov *mockProvider) *Server {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	mgr := session.NewManager(session.NewStore(database), func() (session.Engine, error) {
		return rag.NewEngine(&mockEmbedder{}, prov, rag.Options{
			ChatModel:    "gpt-3.5-turbo",
			ChunkSize:    1000,
			ChunkOverlap: 200,
			Loader:       ingest.NewPDFLoaderWithExtractor(pageExtractor{}),
		}), nil
	})
	sess, err := mgr.Create(context.Background())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return NewServer(sess)
}

func writePDFs(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "report.pdf"), []byte("Q3 revenue grew.\fCosts were flat."), 0o644)
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644)
	return dir
}

func call(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", result.Content[0])
	}
	return tc.Text
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		name     string
		tool     mcp.Tool
		wantName string
	}{
		{"ingest_pdfs", ingestPDFsTool, "ingest_pdfs"},
		{"ask_documents", askDocumentsTool, "ask_documents"},
		{"search_documents", searchDocumentsTool, "search_documents"},
		{"clear_transcript", clearTranscriptTool, "clear_transcript"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
		})
	}
}

func TestNewServer(t *testing.T) {
	srv := newTestServer(t, &mockProvider{})
	if srv.mcp == nil {
		t.Fatal("MCP server not initialized")
	}
	if srv.sess == nil {
		t.Error("session not set")
	}
}

func TestAskBeforeIngest(t *testing.T) {
	srv := newTestServer(t, &mockProvider{})
	result, err := srv.handleAskDocuments(context.Background(), call(map[string]any{"question": "What is X?"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := text(t, result); !strings.Contains(got, rag.NotReadyAnswer) {
		t.Errorf("expected sentinel answer, got %q", got)
	}

	result, _ = srv.handleSearchDocuments(context.Background(), call(map[string]any{"query": "x"}))
	if !result.IsError || !strings.Contains(text(t, result), "ingest_pdfs") {
		t.Error("search before ingestion should point at ingest_pdfs")
	}
}

func TestIngestAskSearch(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t, &mockProvider{})
	dir := writePDFs(t)

	result, err := srv.handleIngestPDFs(ctx, call(map[string]any{"paths": filepath.Join(dir, "*.pdf")}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", text(t, result))
	}
	if got := text(t, result); !strings.Contains(got, "2 page(s) of 1 file(s)") {
		t.Errorf("unexpected ingest summary %q", got)
	}

	result, _ = srv.handleAskDocuments(ctx, call(map[string]any{"question": "How did revenue do?"}))
	got := text(t, result)
	if !strings.Contains(got, "Q3 revenue") || !strings.Contains(got, "Sources:") || !strings.Contains(got, "report.pdf, page") {
		t.Errorf("unexpected answer %q", got)
	}

	result, _ = srv.handleSearchDocuments(ctx, call(map[string]any{"query": "costs", "limit": 1}))
	if result.IsError || !strings.Contains(text(t, result), "Found 1 result(s)") {
		t.Errorf("unexpected search result %q", text(t, result))
	}

	result, _ = srv.handleClearTranscript(ctx, call(nil))
	if result.IsError {
		t.Errorf("clear failed: %s", text(t, result))
	}
	turns, _ := srv.sess.Transcript(ctx)
	if len(turns) != 0 {
		t.Errorf("transcript not cleared: %d turns", len(turns))
	}
}

func TestIngestErrors(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t, &mockProvider{})
	dir := writePDFs(t)

	tests := []struct {
		name string
		args map[string]any
	}{
		{"missing paths", map[string]any{}},
		{"blank paths", map[string]any{"paths": " , "}},
		{"no match", map[string]any{"paths": filepath.Join(dir, "*.docx")}},
		{"no pdf", map[string]any{"paths": filepath.Join(dir, "notes.txt")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := srv.handleIngestPDFs(ctx, call(tt.args))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !result.IsError {
				t.Error("expected tool error")
			}
		})
	}
	if srv.sess.Ready() {
		t.Error("failed ingestion must not make the session ready")
	}
}

func TestAskServiceError(t *testing.T) {
	ctx := context.Background()
	prov := &mockProvider{}
	srv := newTestServer(t, prov)
	srv.handleIngestPDFs(ctx, call(map[string]any{"paths": writePDFs(t)}))

	prov.err = context.DeadlineExceeded
	result, _ := srv.handleAskDocuments(ctx, call(map[string]any{"question": "anything"}))
	if !result.IsError || !strings.HasPrefix(text(t, result), "Error processing question: ") {
		t.Errorf("expected error answer, got %+v", result)
	}

	result, _ = srv.handleAskDocuments(ctx, call(map[string]any{}))
	if !result.IsError {
		t.Error("expected error for missing question")
	}
}
