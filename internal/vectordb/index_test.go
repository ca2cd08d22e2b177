package vectordb

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/ziadkadry99/pdfrag/internal/chunker"
	"github.com/ziadkadry99/pdfrag/internal/ingest"
)

// mockEmbedder returns deterministic embeddings based on text content.
// Similar texts produce similar vectors because shared characters contribute
// to the same positions in the vector.
type mockEmbedder struct {
	dims    int
	calls   int
	failOn  int // 1-based call number that fails, 0 for never
	short   bool
	batches []int
}

func newMockEmbedder(dims int) *mockEmbedder {
	return &mockEmbedder{dims: dims}
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	m.calls++
	m.batches = append(m.batches, len(texts))
	if m.failOn > 0 && m.calls == m.failOn {
		return nil, errors.New("embedding service unavailable")
	}
	results := make([][]float32, len(texts))
	for i, text := range texts {
		results[i] = m.deterministicVector(text)
	}
	if m.short {
		results = results[:len(results)-1]
	}
	return results, nil
}

func (m *mockEmbedder) Dimensions() int { return m.dims }
func (m *mockEmbedder) Name() string    { return "mock" }

func (m *mockEmbedder) deterministicVector(text string) []float32 {
	vec := make([]float32, m.dims)
	vec[0] = 0.01
	for i, ch := range text {
		idx := (int(ch) + i) % m.dims
		vec[idx] += 1.0
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

func testChunks() []chunker.Chunk {
	texts := []struct {
		src  string
		page int
		text string
	}{
		{"manual.pdf", 1, "The authentication module handles user login and session management"},
		{"manual.pdf", 2, "Database connection pool configuration and initialization"},
		{"guide.pdf", 1, "HTTP router setup and middleware chain for the REST API"},
		{"guide.pdf", 3, "Quarterly revenue grew eleven percent on strong subscription sales"},
	}
	chunks := make([]chunker.Chunk, len(texts))
	for i, tt := range texts {
		chunks[i] = chunker.Chunk{
			Text:     tt.text,
			Metadata: ingest.Metadata{Source: tt.src, Page: tt.page},
			Seq:      i,
		}
	}
	return chunks
}

func TestBuild_AndSimilaritySearch(t *testing.T) {
	ctx := context.Background()
	embedder := newMockEmbedder(64)
	chunks := testChunks()

	ix, err := Build(ctx, "pdf_documents", chunks, embedder, BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if ix.Name() != "pdf_documents" {
		t.Errorf("Name: got %q", ix.Name())
	}
	if ix.Count() != len(chunks) {
		t.Errorf("Count: got %d, want %d", ix.Count(), len(chunks))
	}

	query := embedder.deterministicVector(chunks[2].Text)
	matches, err := ix.SimilaritySearch(ctx, query, 3)
	if err != nil {
		t.Fatalf("SimilaritySearch: %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(matches))
	}
	if matches[0].Chunk.Text != chunks[2].Text {
		t.Errorf("expected exact chunk first, got %q", matches[0].Chunk.Text)
	}
	if matches[0].Chunk.Metadata != chunks[2].Metadata || matches[0].Chunk.Seq != 2 {
		t.Errorf("metadata not preserved: %+v", matches[0].Chunk)
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Similarity > matches[i-1].Similarity {
			t.Errorf("matches not ordered by similarity: %v", matches)
		}
	}
}

func TestSimilaritySearch_ClampsK(t *testing.T) {
	ctx := context.Background()
	embedder := newMockEmbedder(32)
	ix, err := Build(ctx, "c", testChunks()[:2], embedder, BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	matches, err := ix.SimilaritySearch(ctx, embedder.deterministicVector("login"), 10)
	if err != nil {
		t.Fatalf("SimilaritySearch: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("expected k clamped to 2, got %d", len(matches))
	}

	matches, err = ix.SimilaritySearch(ctx, embedder.deterministicVector("login"), 0)
	if err != nil || matches != nil {
		t.Errorf("k=0: got %v, %v", matches, err)
	}
}

func TestSearch_UsesEmbedder(t *testing.T) {
	ctx := context.Background()
	ix, err := Build(ctx, "c", testChunks(), newMockEmbedder(64), BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	matches, err := ix.Search(ctx, "Database connection pool configuration and initialization", 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 1 || matches[0].Chunk.Metadata.Page != 2 {
		t.Errorf("unexpected matches %+v", matches)
	}
}

func TestBuild_BatchesAndProgress(t *testing.T) {
	embedder := newMockEmbedder(16)
	var chunks []chunker.Chunk
	for i := 0; i < 7; i++ {
		chunks = append(chunks, chunker.Chunk{Text: strings.Repeat("x", i+1), Seq: i})
	}

	var progress [][2]int
	_, err := Build(context.Background(), "c", chunks, embedder, BuildOptions{
		BatchSize:  3,
		OnProgress: func(done, total int) { progress = append(progress, [2]int{done, total}) },
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if want := []int{3, 3, 1}; len(embedder.batches) != 3 || embedder.batches[0] != want[0] || embedder.batches[2] != want[2] {
		t.Errorf("batches = %v, want %v", embedder.batches, want)
	}
	if len(progress) != 3 || progress[2] != [2]int{7, 7} {
		t.Errorf("progress = %v", progress)
	}
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name     string
		chunks   []chunker.Chunk
		embedder *mockEmbedder
	}{
		{"no chunks", nil, newMockEmbedder(8)},
		{"embedding fails", testChunks(), &mockEmbedder{dims: 8, failOn: 1}},
		{"short response", testChunks(), &mockEmbedder{dims: 8, short: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ix, err := Build(context.Background(), "c", tt.chunks, tt.embedder, BuildOptions{BatchSize: 2})
			var idxErr *IndexingError
			if !errors.As(err, &idxErr) {
				t.Fatalf("expected *IndexingError, got %v", err)
			}
			if ix != nil {
				t.Error("no index should be returned on failure")
			}
		})
	}
}

func TestBuild_FailureInLaterBatch(t *testing.T) {
	embedder := &mockEmbedder{dims: 8, failOn: 2}
	_, err := Build(context.Background(), "c", testChunks(), embedder, BuildOptions{BatchSize: 2})
	if err == nil || !strings.Contains(err.Error(), "embedding service unavailable") {
		t.Errorf("expected wrapped service error, got %v", err)
	}
}

func TestFormatMatches(t *testing.T) {
	matches := []Match{
		{Chunk: chunker.Chunk{Text: "revenue grew", Metadata: ingest.Metadata{Source: "q3.pdf", Page: 4}}, Similarity: 0.91},
	}
	out := FormatMatches(matches)
	for _, want := range []string{"Found 1 result(s)", "similarity: 0.9100", "Source: q3.pdf, page 4", "revenue grew"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if FormatMatches(nil) != "No results found." {
		t.Error("unexpected empty output")
	}
	if got := Chunks(matches); len(got) != 1 || got[0].Text != "revenue grew" {
		t.Errorf("Chunks = %+v", got)
	}
}
