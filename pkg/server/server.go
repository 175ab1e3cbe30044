// Package server exposes the transcription pipeline over HTTP: job creation
// from a multipart upload and polling reads of job progress.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/betjuliano/Bard-AI/pkg/job"
	"github.com/betjuliano/Bard-AI/pkg/logger"
	"github.com/betjuliano/Bard-AI/pkg/media"
	"github.com/betjuliano/Bard-AI/pkg/pipeline"
)

// Server wires the HTTP routes to the pipeline and job store.
type Server struct {
	pipeline  *pipeline.Pipeline
	store     *job.Store
	uploadDir string
	maxBytes  int64
	router    *mux.Router
}

// New creates the HTTP server.
func New(p *pipeline.Pipeline, store *job.Store, uploadDir string, maxBytes int64) *Server {
	s := &Server{
		pipeline:  p,
		store:     store,
		uploadDir: uploadDir,
		maxBytes:  maxBytes,
		router:    mux.NewRouter(),
	}

	s.router.HandleFunc("/api/jobs", s.handleCreateJob).Methods(http.MethodPost)
	s.router.HandleFunc("/api/jobs", s.handleListJobs).Methods(http.MethodGet)
	s.router.HandleFunc("/api/jobs/{id}", s.handleGetJob).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts serving on addr until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router}

	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()

	logger.WithComponent("server").Info().Str("addr", addr).Msg("HTTP server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleCreateJob accepts a multipart upload, admits it against the credit
// ledger, spools the file and starts the pipeline as a detached background
// task. The response returns immediately with the job in preparing state.
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	log := logger.WithComponent("server")

	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-ID header")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart payload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer func() { _ = file.Close() }()

	if !media.IsSupported(header.Filename) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported file format: %s", filepath.Ext(header.Filename)))
		return
	}

	title := r.FormValue("title")
	if title == "" {
		title = header.Filename
	}

	quality := media.QualityStandard
	if r.Header.Get("X-Premium") == "true" {
		quality = media.QualityPremium
	}

	uploadPath, size, err := s.spoolUpload(file, header.Filename)
	if err != nil {
		log.Error().Err(err).Msg("Failed to spool upload")
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	j, err := s.pipeline.CreateJob(userID, title, header.Filename, size, quality)
	if err != nil {
		_ = os.Remove(uploadPath)
		switch {
		case errors.Is(err, pipeline.ErrInsufficientCredits):
			writeError(w, http.StatusPaymentRequired, "insufficient credits")
		case errors.Is(err, pipeline.ErrFreeTrialTooLarge):
			writeError(w, http.StatusPaymentRequired, "file exceeds the free trial size limit")
		default:
			log.Error().Err(err).Msg("Failed to create job")
			writeError(w, http.StatusInternalServerError, "failed to create job")
		}
		return
	}

	// Detached from the request lifecycle: the client polls for progress.
	go s.pipeline.Run(context.Background(), j, uploadPath)

	log.Info().Str("job_id", j.ID).Str("user_id", userID).Int64("size", size).Msg("Job accepted")
	writeJSON(w, http.StatusAccepted, j)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	j, err := s.store.Get(id)
	if err != nil {
		if errors.Is(err, job.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load job")
		return
	}

	writeJSON(w, http.StatusOK, j)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-ID header")
		return
	}

	jobs, err := s.store.ListByUser(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}
	if jobs == nil {
		jobs = []*job.Job{}
	}

	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// spoolUpload copies the uploaded stream into the upload directory and
// returns its path and size.
func (s *Server) spoolUpload(src io.Reader, filename string) (string, int64, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("failed to create upload directory: %w", err)
	}

	path := filepath.Join(s.uploadDir, uuid.NewString()+filepath.Ext(filename))
	dst, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create upload file: %w", err)
	}

	size, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", 0, fmt.Errorf("failed to write upload: %w", err)
	}

	return path, size, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
