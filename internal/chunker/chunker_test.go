package chunker

import (
	"errors"
	"strings"
	"testing"

	"github.com/ziadkadry99/pdfrag/internal/ingest"
)

func page(src string, n int, text string) ingest.Document {
	return ingest.Document{Text: text, Metadata: ingest.Metadata{Source: src, Page: n}}
}

// covered reports, for each rune of text, whether some chunk contains it at
// the position the window implies.
func covered(t *testing.T, text string, chunks []Chunk, size, overlap int) []bool {
	t.Helper()
	runes := []rune(text)
	seen := make([]bool, len(runes))
	step := size - overlap
	for i, c := range chunks {
		start := i * step
		cr := []rune(c.Text)
		if len(cr) > size {
			t.Fatalf("chunk %d has %d runes, size is %d", i, len(cr), size)
		}
		if string(runes[start:start+len(cr)]) != c.Text {
			t.Fatalf("chunk %d does not match source at offset %d", i, start)
		}
		for j := range cr {
			seen[start+j] = true
		}
	}
	return seen
}

func TestSplit_NoGaps(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 57) + "ünïcödé tail"
	for _, tc := range []struct{ size, overlap int }{
		{1000, 200}, {100, 0}, {100, 99}, {7, 3}, {1, 0}, {5000, 10},
	} {
		chunks, err := Split([]ingest.Document{page("a.pdf", 1, text)}, tc.size, tc.overlap)
		if err != nil {
			t.Fatalf("Split(%d,%d): %v", tc.size, tc.overlap, err)
		}
		for i, ok := range covered(t, text, chunks, tc.size, tc.overlap) {
			if !ok {
				t.Fatalf("Split(%d,%d): rune %d not in any chunk", tc.size, tc.overlap, i)
			}
		}
	}
}

func TestSplit_MonotonicInSize(t *testing.T) {
	docs := []ingest.Document{
		page("a.pdf", 1, strings.Repeat("lorem ipsum ", 300)),
		page("a.pdf", 2, strings.Repeat("dolor sit amet ", 40)),
	}
	const overlap = 20
	prev := 0
	for size := 2000; size > overlap; size -= 37 {
		chunks, err := Split(docs, size, overlap)
		if err != nil {
			t.Fatalf("Split(%d): %v", size, err)
		}
		if len(chunks) < prev {
			t.Fatalf("size %d produced %d chunks, larger size produced %d", size, len(chunks), prev)
		}
		prev = len(chunks)
	}
}

func TestSplit_MetadataAndSeq(t *testing.T) {
	docs := []ingest.Document{
		page("a.pdf", 1, strings.Repeat("x", 2500)),
		page("a.pdf", 2, "short page"),
		page("b.pdf", 1, "another"),
	}
	chunks, err := Split(docs, 1000, 200)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	// 2500 runes with step 800: windows at 0, 800, 1600.
	if len(chunks) != 5 {
		t.Fatalf("expected 5 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.Seq != i {
			t.Errorf("chunk %d has Seq %d", i, c.Seq)
		}
	}
	if chunks[2].Metadata != (ingest.Metadata{Source: "a.pdf", Page: 1}) {
		t.Errorf("unexpected metadata %+v", chunks[2].Metadata)
	}
	if chunks[4].Metadata.Source != "b.pdf" || chunks[4].Text != "another" {
		t.Errorf("unexpected last chunk %+v", chunks[4])
	}
	if got := len([]rune(chunks[2].Text)); got != 900 {
		t.Errorf("last window of page 1 has %d runes, want 900", got)
	}
}

func TestSplit_SkipsBlankDocuments(t *testing.T) {
	chunks, err := Split([]ingest.Document{page("a.pdf", 1, "  \n "), page("a.pdf", 2, "text")}, 10, 2)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(chunks) != 1 || chunks[0].Metadata.Page != 2 {
		t.Errorf("unexpected chunks %+v", chunks)
	}
}

func TestSplit_Errors(t *testing.T) {
	tests := []struct {
		name          string
		docs          []ingest.Document
		size, overlap int
	}{
		{"empty input", nil, 1000, 200},
		{"all blank", []ingest.Document{page("a.pdf", 1, ""), page("a.pdf", 2, "   ")}, 1000, 200},
		{"overlap equals size", []ingest.Document{page("a.pdf", 1, "x")}, 100, 100},
		{"negative overlap", []ingest.Document{page("a.pdf", 1, "x")}, 100, -1},
		{"zero size", []ingest.Document{page("a.pdf", 1, "x")}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Split(tt.docs, tt.size, tt.overlap)
			var chErr *ChunkingError
			if !errors.As(err, &chErr) {
				t.Errorf("expected *ChunkingError, got %v", err)
			}
		})
	}
}
