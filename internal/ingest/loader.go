package ingest

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Loader turns every PDF in a directory into page documents.
type Loader interface {
	// LoadDir returns one Document per non-empty page, plus the names of
	// files that produced nothing.
	LoadDir(ctx context.Context, dir string) (docs []Document, skipped []string, err error)
}

// PageExtractor returns the plain text of each page of a PDF file.
type PageExtractor interface {
	ExtractPages(path string) ([]string, error)
}

// PDFLoader is a directory-scoped PDF loader.
type PDFLoader struct {
	extractor PageExtractor
}

// NewPDFLoader creates a loader backed by github.com/ledongthuc/pdf.
func NewPDFLoader() *PDFLoader {
	return &PDFLoader{extractor: plainTextExtractor{}}
}

// NewPDFLoaderWithExtractor creates a loader with a custom page extractor.
func NewPDFLoaderWithExtractor(e PageExtractor) *PDFLoader {
	return &PDFLoader{extractor: e}
}

func (l *PDFLoader) LoadDir(ctx context.Context, dir string) ([]Document, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && IsPDF(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var docs []Document
	var skipped []string
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		pages, err := l.extractor.ExtractPages(filepath.Join(dir, name))
		if err != nil {
			log.Printf("ingest: skipping %s: %v", name, err)
			skipped = append(skipped, name)
			continue
		}

		n := 0
		for i, text := range pages {
			if strings.TrimSpace(text) == "" {
				continue
			}
			docs = append(docs, Document{
				Text:     text,
				Metadata: Metadata{Source: name, Page: i + 1},
			})
			n++
		}
		if n == 0 {
			skipped = append(skipped, name)
		}
	}

	return docs, skipped, nil
}

// IsPDF reports whether name has a .pdf extension, ignoring case.
func IsPDF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

type plainTextExtractor struct{}

func (plainTextExtractor) ExtractPages(path string) (pages []string, err error) {
	// The parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("parsing %s: %v", filepath.Base(path), r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	n := r.NumPage()
	pages = make([]string, 0, n)
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}
