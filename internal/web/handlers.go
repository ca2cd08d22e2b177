package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/pdfrag/internal/chunker"
	"github.com/ziadkadry99/pdfrag/internal/ingest"
	"github.com/ziadkadry99/pdfrag/internal/session"
	"github.com/ziadkadry99/pdfrag/internal/vectordb"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to temporary files.
const multipartMemory = 32 << 20

type statsResponse struct {
	Sessions int `json:"sessions"`
}

type processResponse struct {
	Files      []string `json:"files"`
	Skipped    []string `json:"skipped"`
	Documents  int      `json:"documents"`
	Chunks     int      `json:"chunks"`
	DurationMS int64    `json:"duration_ms"`
	Ready      bool     `json:"ready"`
}

type askRequest struct {
	Question string `json:"question"`
}

func (h *Web) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statsResponse{Sessions: h.sessions.Len()})
}

func (h *Web) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Create(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, h.sessionView(sess, nil))
}

func (h *Web) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	turns, err := sess.Transcript(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.sessionView(sess, turns))
}

func (h *Web) handleEndSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.End(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Web) handleProcess(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d MB", h.maxUpload>>20))
			return
		}
		writeError(w, http.StatusBadRequest, "expected multipart form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	files, err := readUploads(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := sess.Process(r.Context(), files)
	if err != nil {
		writeError(w, processStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, processResponse{
		Files:      nonNil(report.Files),
		Skipped:    nonNil(report.Skipped),
		Documents:  report.Documents,
		Chunks:     report.Chunks,
		DurationMS: report.Duration.Milliseconds(),
		Ready:      sess.Ready(),
	})
}

func (h *Web) handleAsk(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	turn, err := sess.Ask(r.Context(), req.Question)
	if err != nil {
		if errors.Is(err, session.ErrEmptyQuestion) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.turnView(*turn))
}

func (h *Web) handleClear(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := sess.Clear(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Web) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return sess, true
}

// readUploads reads every part of the "files" field. Zero files is valid
// here; the pipeline reports it.
func readUploads(r *http.Request) ([]ingest.UploadedFile, error) {
	var files []ingest.UploadedFile
	for _, fh := range r.MultipartForm.File["files"] {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", fh.Filename, err)
		}
		files = append(files, ingest.UploadedFile{Name: fh.Filename, Data: data})
	}
	return files, nil
}

// processStatus maps pipeline failures to 422 and anything else to 500.
func processStatus(err error) int {
	var ingErr *ingest.IngestionError
	var chErr *chunker.ChunkingError
	var idxErr *vectordb.IndexingError
	switch {
	case errors.As(err, &ingErr), errors.As(err, &chErr), errors.As(err, &idxErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
