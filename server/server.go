// Package server exposes the question-answer pipeline over HTTP for a
// single session: upload a document, then ask questions against it.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/askdoc/askdoc/internal/types"
	"github.com/askdoc/askdoc/pkg/chunker"
	"github.com/askdoc/askdoc/pkg/composer"
	"github.com/askdoc/askdoc/pkg/extractor"
	"github.com/askdoc/askdoc/pkg/pipeline"
)

// Server owns one session: the current document's index and the
// conversation history. Uploading a new document replaces the index
// wholesale and clears the history.
type Server struct {
	pipeline *pipeline.Pipeline
	history  *pipeline.History

	mu    sync.Mutex
	index types.Index
}

func New(p *pipeline.Pipeline) *Server {
	return &Server{
		pipeline: p,
		history:  pipeline.NewHistory(),
	}
}

func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/upload", s.handleUpload)
	mux.HandleFunc("/upload-pdf", s.handleUploadPDF)
	mux.HandleFunc("/ask", s.handleAsk)
	mux.HandleFunc("/history", s.handleHistory)
	return mux
}

func (s *Server) ListenAndServe(addr string) error {
	log.Printf("listening on %s", addr)
	return http.ListenAndServe(addr, s.Routes())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintln(w, "ok")
}

// POST /upload (body: raw document text)
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	s.ingest(w, r, string(body))
}

// POST /upload-pdf (multipart form, "file" field)
func (s *Server) handleUploadPDF(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	// 20MB cap on uploads
	if err := r.ParseMultipartForm(20 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse form")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	// The PDF reader works with file paths, so stage the upload.
	tmp, err := os.CreateTemp("", "upload-*.pdf")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create temp file")
		return
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := io.Copy(tmp, file); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save upload")
		return
	}

	text, _, err := extractor.ExtractPDF(tmp.Name())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.ingest(w, r, text)
}

func (s *Server) ingest(w http.ResponseWriter, r *http.Request, text string) {
	idx, err := s.pipeline.Ingest(r.Context(), text, uuid.New().String())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, chunker.ErrEmptyInput) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}

	s.mu.Lock()
	if s.index != nil {
		s.index.Close()
	}
	s.index = idx
	s.history.Clear()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"segments_indexed": idx.Len(),
	})
}

type askRequest struct {
	Question string `json:"question"`
}

// POST /ask {"question": "..."}
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	s.mu.Lock()
	idx := s.index
	s.mu.Unlock()

	if idx == nil {
		writeError(w, http.StatusConflict, "no document uploaded yet")
		return
	}

	record, err := s.pipeline.Ask(r.Context(), req.Question, idx)
	if err != nil {
		var genErr *composer.GenerationError
		if errors.As(err, &genErr) {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.history.Append(record)
	writeJSON(w, http.StatusOK, record)
}

// GET /history
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.history.Records())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
