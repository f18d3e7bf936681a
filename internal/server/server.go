package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"video-transcribe-go/internal/apperr"
	"video-transcribe-go/internal/config"
	"video-transcribe-go/internal/export"
	"video-transcribe-go/internal/logger"
	"video-transcribe-go/internal/middleware"
	"video-transcribe-go/internal/pipeline"
	"video-transcribe-go/internal/types"
)

// ReadyChecker reports whether the speech model loaded at startup.
type ReadyChecker interface {
	Ready() bool
}

// Server is the HTTP surface: liveness, health, transcribe and export.
type Server struct {
	cfg         config.Config
	log         *logger.Logger
	pipeline    *pipeline.Pipeline
	transcriber ReadyChecker
	handler     http.Handler
}

func New(cfg config.Config, log *logger.Logger, p *pipeline.Pipeline, t ReadyChecker) *Server {
	s := &Server{cfg: cfg, log: log, pipeline: p, transcriber: t}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHome)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/transcribe", s.handleTranscribe)
	mux.HandleFunc("/download_excel", s.handleExport)

	s.handler = middleware.Chain(mux,
		middleware.RequestID(),
		middleware.Recovery(log),
		middleware.CORS(),
		middleware.RateLimit(cfg.RateLimit),
		middleware.RequestLogger(log),
	)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	fmt.Fprint(w, "Whisper Transcription API is running")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, types.HealthResponse{
		Status:       "healthy",
		WhisperReady: s.transcriber.Ready(),
	})
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	reqLog := s.log.WithRequest(r).WithField("handler", "transcribe")
	if r.Method != http.MethodPost {
		s.respondJSON(w, http.StatusMethodNotAllowed, types.ErrorResponse{Error: "method not allowed"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	file, header, err := r.FormFile("video")
	if err != nil {
		reqLog.Warn("missing video file")
		s.respondJSON(w, http.StatusBadRequest, types.ErrorResponse{Error: "No video file provided"})
		return
	}
	defer file.Close()

	res, err := s.pipeline.Run(r.Context(), file, header.Filename)
	if err != nil {
		reqLog.WithError(err).Warn("pipeline failed")
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	reqLog := s.log.WithRequest(r).WithField("handler", "download_excel")
	if r.Method != http.MethodPost {
		s.respondJSON(w, http.StatusMethodNotAllowed, types.ErrorResponse{Error: "method not allowed"})
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		reqLog.WithError(err).Warn("bad export body")
		s.respondJSON(w, http.StatusBadRequest, types.ErrorResponse{Error: "No JSON data provided"})
		return
	}

	// an empty object is treated the same as a missing body; an object
	// with keys present but zero-valued still renders a row
	var raw map[string]json.RawMessage
	var req types.ExportRequest
	if json.Unmarshal(body, &raw) != nil || len(raw) == 0 || json.Unmarshal(body, &req) != nil {
		reqLog.Warn("bad export body")
		s.respondJSON(w, http.StatusBadRequest, types.ErrorResponse{Error: "No JSON data provided"})
		return
	}

	buf, err := export.Workbook(req)
	if err != nil {
		reqLog.WithError(err).Error("workbook build failed")
		s.respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		reqLog.WithError(err).Error("failed to write attachment")
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.WithError(err).Error("failed to encode response")
	}
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	s.respondJSON(w, apperr.StatusOf(err), types.ErrorResponse{Error: apperr.MessageOf(err)})
}
