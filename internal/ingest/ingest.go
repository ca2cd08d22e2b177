// Package ingest writes uploaded PDFs to a scratch directory and extracts
// their text page by page.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Ingest filters files to PDFs, writes them to a fresh scratch directory,
// loads every page and removes the directory before returning.
func Ingest(ctx context.Context, files []UploadedFile, loader Loader) (*Result, error) {
	var pdfs []UploadedFile
	for _, f := range files {
		if IsPDF(f.Name) {
			pdfs = append(pdfs, f)
		}
	}
	if len(pdfs) == 0 {
		return nil, &IngestionError{Reason: "no PDF files in upload"}
	}

	dir, err := os.MkdirTemp("", "pdfrag-")
	if err != nil {
		return nil, &IngestionError{Reason: "creating scratch directory", Err: err}
	}
	defer os.RemoveAll(dir)

	accepted, err := writeScratch(dir, pdfs)
	if err != nil {
		return nil, &IngestionError{Reason: "writing uploads", Err: err}
	}

	docs, skipped, err := loader.LoadDir(ctx, dir)
	if err != nil {
		return nil, &IngestionError{Reason: "loading PDFs", Err: err}
	}
	if len(docs) == 0 {
		return nil, &IngestionError{Reason: "no text could be extracted from the uploaded PDFs"}
	}

	return &Result{
		Documents: docs,
		Accepted:  accepted,
		Skipped:   skipped,
	}, nil
}

// writeScratch stores each file under its base name. Clashing names get a
// numeric suffix so no upload is silently dropped.
func writeScratch(dir string, files []UploadedFile) ([]string, error) {
	used := make(map[string]bool, len(files))
	names := make([]string, 0, len(files))
	for _, f := range files {
		name := uniqueName(safeBase(f.Name), used)
		used[strings.ToLower(name)] = true
		if err := os.WriteFile(filepath.Join(dir, name), f.Data, 0o600); err != nil {
			return nil, fmt.Errorf("writing %s: %w", name, err)
		}
		names = append(names, name)
	}
	return names, nil
}

func safeBase(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	base := filepath.Base(name)
	if base == "." || base == "/" || base == ".." {
		return "upload.pdf"
	}
	return base
}

func uniqueName(name string, used map[string]bool) string {
	if !used[strings.ToLower(name)] {
		return name
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s (%d)%s", stem, i, ext)
		if !used[strings.ToLower(candidate)] {
			return candidate
		}
	}
}
