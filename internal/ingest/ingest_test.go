package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeExtractor treats file content as pages separated by form feeds and
// remembers the directories it was pointed at.
type fakeExtractor struct {
	dirs []string
	fail map[string]bool
}

func (f *fakeExtractor) ExtractPages(path string) ([]string, error) {
	f.dirs = append(f.dirs, filepath.Dir(path))
	if f.fail[filepath.Base(path)] {
		return nil, errors.New("corrupt pdf")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return strings.Split(string(data), "\f"), nil
}

func TestIngestOneDocumentPerPage(t *testing.T) {
	ext := &fakeExtractor{}
	files := []UploadedFile{
		{Name: "a.pdf", Data: []byte("alpha page one\falpha page two")},
		{Name: "b.pdf", Data: []byte("bravo page one")},
	}

	res, err := Ingest(context.Background(), files, NewPDFLoaderWithExtractor(ext))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(res.Documents) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(res.Documents))
	}

	want := []Metadata{{"a.pdf", 1}, {"a.pdf", 2}, {"b.pdf", 1}}
	for i, doc := range res.Documents {
		if doc.Metadata != want[i] {
			t.Errorf("doc %d metadata = %+v, want %+v", i, doc.Metadata, want[i])
		}
	}
	if res.Documents[1].Text != "alpha page two" {
		t.Errorf("unexpected text %q", res.Documents[1].Text)
	}
	if len(res.Accepted) != 2 {
		t.Errorf("expected 2 accepted files, got %v", res.Accepted)
	}
}

func TestIngestFiltersNonPDF(t *testing.T) {
	ext := &fakeExtractor{}
	_, err := Ingest(context.Background(), []UploadedFile{{Name: "notes.txt", Data: []byte("hello")}}, NewPDFLoaderWithExtractor(ext))

	var ingErr *IngestionError
	if !errors.As(err, &ingErr) {
		t.Fatalf("expected *IngestionError, got %v", err)
	}
	if len(ext.dirs) != 0 {
		t.Error("extractor should not run when no PDFs were uploaded")
	}
}

func TestIngestExtensionCaseInsensitive(t *testing.T) {
	ext := &fakeExtractor{}
	files := []UploadedFile{
		{Name: "REPORT.PDF", Data: []byte("upper")},
		{Name: "draft.Pdf", Data: []byte("mixed")},
		{Name: "readme.md", Data: []byte("skip me")},
	}
	res, err := Ingest(context.Background(), files, NewPDFLoaderWithExtractor(ext))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(res.Documents) != 2 {
		t.Errorf("expected 2 documents, got %d", len(res.Documents))
	}
}

func TestIngestEmptyTextFails(t *testing.T) {
	ext := &fakeExtractor{}
	files := []UploadedFile{{Name: "blank.pdf", Data: []byte("  \f\n")}}

	_, err := Ingest(context.Background(), files, NewPDFLoaderWithExtractor(ext))
	var ingErr *IngestionError
	if !errors.As(err, &ingErr) {
		t.Fatalf("expected *IngestionError, got %v", err)
	}
}

func TestIngestSkipsUnreadableFile(t *testing.T) {
	ext := &fakeExtractor{fail: map[string]bool{"bad.pdf": true}}
	files := []UploadedFile{
		{Name: "bad.pdf", Data: []byte("garbage")},
		{Name: "good.pdf", Data: []byte("fine text")},
	}
	res, err := Ingest(context.Background(), files, NewPDFLoaderWithExtractor(ext))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(res.Documents) != 1 || res.Documents[0].Metadata.Source != "good.pdf" {
		t.Errorf("unexpected documents: %+v", res.Documents)
	}
	if len(res.Skipped) != 1 || res.Skipped[0] != "bad.pdf" {
		t.Errorf("expected bad.pdf skipped, got %v", res.Skipped)
	}
}

func TestIngestRemovesScratchDir(t *testing.T) {
	for _, tc := range []struct {
		name string
		data string
	}{
		{"success", "some text"},
		{"failure", "   "},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ext := &fakeExtractor{}
			Ingest(context.Background(), []UploadedFile{{Name: "x.pdf", Data: []byte(tc.data)}}, NewPDFLoaderWithExtractor(ext))

			if len(ext.dirs) == 0 {
				t.Fatal("extractor was not called")
			}
			if _, err := os.Stat(ext.dirs[0]); !os.IsNotExist(err) {
				t.Errorf("scratch dir %s still exists (err=%v)", ext.dirs[0], err)
			}
		})
	}
}

func TestIngestDuplicateAndUnsafeNames(t *testing.T) {
	ext := &fakeExtractor{}
	files := []UploadedFile{
		{Name: "../../etc/doc.pdf", Data: []byte("one")},
		{Name: "doc.pdf", Data: []byte("two")},
	}
	res, err := Ingest(context.Background(), files, NewPDFLoaderWithExtractor(ext))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(res.Documents) != 2 {
		t.Fatalf("expected both uploads to be kept, got %d documents", len(res.Documents))
	}
	if res.Accepted[0] != "doc.pdf" || res.Accepted[1] != "doc (2).pdf" {
		t.Errorf("unexpected accepted names %v", res.Accepted)
	}
	for _, d := range ext.dirs {
		if d != ext.dirs[0] {
			t.Errorf("file escaped scratch dir: %s", d)
		}
	}
}

func TestPlainTextExtractorRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.pdf")
	if err := os.WriteFile(path, []byte("this is not a pdf"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := (plainTextExtractor{}).ExtractPages(path); err == nil {
		t.Error("expected error for non-PDF content")
	}
}

func TestMetadataMapRoundTrip(t *testing.T) {
	m := Metadata{Source: "a.pdf", Page: 4}
	if got := MetadataFromMap(m.Map()); got != m {
		t.Errorf("round trip = %+v, want %+v", got, m)
	}
	if m.String() != "a.pdf, page 4" {
		t.Errorf("String() = %q", m.String())
	}
}
