// Package api exposes the knowledge base over HTTP and MCP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"pdf-qa-rag/internal/models"
	"pdf-qa-rag/internal/service"
)

// Knowledge is the part of the service the adapters call
type Knowledge interface {
	Ingest(ctx context.Context, filename string, r io.ReaderAt, size int64) (*service.IngestResult, error)
	Ask(ctx context.Context, question string) (*models.Response, error)
	Documents() []service.DocumentSummary
	Sections() []string
}

// multipart parts beyond this are spooled to disk
const maxMemory = 32 << 20

// Server handles the HTTP endpoints
type Server struct {
	knowledge Knowledge
	uploadDir string
	maxUpload int64
	logger    *zap.Logger
}

// NewServer creates the HTTP adapter. Uploaded files are kept in uploadDir.
func NewServer(knowledge Knowledge, uploadDir string, maxUpload int64, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{knowledge: knowledge, uploadDir: uploadDir, maxUpload: maxUpload, logger: logger}
}

// Handler returns the routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("POST /ask", s.handleAsk)
	mux.HandleFunc("GET /documents", s.handleDocuments)
	mux.HandleFunc("GET /sections", s.handleSections)
	return mux
}

// ListenAndServe serves until ctx is done, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type askRequest struct {
	Question string `json:"question"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	resp, err := s.knowledge.Ask(r.Context(), req.Question)
	if err != nil {
		if errors.Is(err, models.ErrEmptyQuery) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		s.logger.Error("failed to answer question", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, models.ErrFileTooLarge)
		case errors.Is(err, http.ErrMissingFile):
			writeError(w, http.StatusBadRequest, models.ErrNoFile)
		default:
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid upload: %w", err))
		}
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if name == "." || name == string(filepath.Separator) || name == "" {
		writeError(w, http.StatusBadRequest, models.ErrNoFile)
		return
	}
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		writeError(w, http.StatusBadRequest, fmt.Errorf("only PDF files are accepted"))
		return
	}

	path, err := s.saveUpload(name, file)
	if err != nil {
		s.logger.Error("failed to store upload", zap.String("file", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	result, err := s.knowledge.Ingest(r.Context(), name, f, info.Size())
	if err != nil {
		s.logger.Error("failed to ingest upload", zap.String("file", name), zap.Error(err))
		writeError(w, ingestStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// saveUpload writes the upload next to its final name and renames it into place
func (s *Server) saveUpload(name string, src io.Reader) (string, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	// the dot prefix keeps the watcher off partial files
	tmp, err := os.CreateTemp(s.uploadDir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write upload: %w", err)
	}

	path := filepath.Join(s.uploadDir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to store upload: %w", err)
	}
	return path, nil
}

func (s *Server) handleDocuments(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.knowledge.Documents())
}

func (s *Server) handleSections(w http.ResponseWriter, _ *http.Request) {
	sections := s.knowledge.Sections()
	if sections == nil {
		sections = []string{}
	}
	writeJSON(w, http.StatusOK, sections)
}

func ingestStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, models.ErrExtractionTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, models.ErrNoFile):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
