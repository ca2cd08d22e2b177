package ingest

import (
	"fmt"
	"strconv"
)

// UploadedFile is a raw file handed over by the UI layer.
type UploadedFile struct {
	Name string
	Data []byte
}

// Document is the text of one PDF page.
type Document struct {
	Text     string
	Metadata Metadata
}

// Metadata locates a document in its source file.
type Metadata struct {
	Source string `json:"source"`
	Page   int    `json:"page"` // 1-based
}

// Map renders the metadata as a flat string map.
func (m Metadata) Map() map[string]string {
	return map[string]string{
		"source": m.Source,
		"page":   strconv.Itoa(m.Page),
	}
}

// MetadataFromMap is the inverse of Metadata.Map.
func MetadataFromMap(m map[string]string) Metadata {
	page, _ := strconv.Atoi(m["page"])
	return Metadata{Source: m["source"], Page: page}
}

func (m Metadata) String() string {
	return fmt.Sprintf("%s, page %d", m.Source, m.Page)
}

// Result is the outcome of a successful ingestion.
type Result struct {
	Documents []Document
	Accepted  []string // file names written to scratch
	Skipped   []string // accepted files that yielded no text
}

// IngestionError reports that an upload batch produced no usable documents.
type IngestionError struct {
	Reason string
	Err    error
}

func (e *IngestionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ingestion failed: %s: %v", e.Reason, e.Err)
	}
	return "ingestion failed: " + e.Reason
}

func (e *IngestionError) Unwrap() error { return e.Err }
