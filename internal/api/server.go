// Package api exposes the document pipeline over HTTP.
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

	"github.com/sirupsen/logrus"

	"guardianpdf/internal/auditor"
	"guardianpdf/internal/service"
)

// maxUploadSize bounds the multipart form parse for PDF uploads.
const maxUploadSize = 64 << 20

// Service is the application surface the HTTP layer needs.
type Service interface {
	ProcessPDF(path, name string) (*service.UploadReport, error)
	Query(ctx context.Context, question string, topK int, includeSecurity bool) (*service.QueryResult, error)
	SecurityAnalysis(name string) (*service.SecurityAnalysis, error)
	Stats() service.SystemStats
	Clear() error
}

// Server routes HTTP requests to the application service.
type Server struct {
	svc Service
	log *logrus.Entry
	mux *http.ServeMux
}

// NewServer builds the router.
func NewServer(svc Service, log *logrus.Entry) *Server {
	s := &Server{svc: svc, log: log, mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("POST /upload_pdf", s.handleUpload)
	s.mux.HandleFunc("POST /query", s.handleQuery)
	s.mux.HandleFunc("GET /security/analysis/{filename}", s.handleSecurityAnalysis)
	s.mux.HandleFunc("GET /stats", s.handleStats)
	s.mux.HandleFunc("DELETE /clear", s.handleClear)
	return s
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.mux }

// Start blocks serving HTTP on addr.
func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.WithField("addr", addr).Info("HTTP server listening")
	return srv.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// UploadResponse is the flattened upload report returned to clients.
type UploadResponse struct {
	Filename           string                  `json:"filename"`
	TotalChunks        int                     `json:"total_chunks"`
	UniqueChunks       int                     `json:"unique_chunks"`
	DuplicatesRemoved  int                     `json:"duplicates_removed"`
	DeduplicationRatio float64                 `json:"deduplication_ratio"`
	IntegrityVerified  *bool                   `json:"integrity_verified,omitempty"`
	Security           auditor.DocumentSummary `json:"security_analysis"`
	Warnings           []string                `json:"warnings"`
	Message            string                  `json:"message"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		s.errorResponse(w, http.StatusBadRequest, "only PDF files are accepted")
		return
	}

	tmp, err := os.CreateTemp("", "guardianpdf-*.pdf")
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "cannot store upload")
		return
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		s.errorResponse(w, http.StatusInternalServerError, "cannot store upload")
		return
	}
	tmp.Close()

	report, err := s.svc.ProcessPDF(tmp.Name(), name)
	if err != nil {
		s.log.WithError(err).WithField("file", name).Error("Upload processing failed")
		s.errorResponse(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	resp := UploadResponse{
		Filename:           report.Filename,
		TotalChunks:        report.Stats.OriginalCount,
		UniqueChunks:       report.Stats.UniqueCount,
		DuplicatesRemoved:  report.Stats.DuplicatesRemoved,
		DeduplicationRatio: report.Stats.DeduplicationRatio,
		Security:           report.Security,
		Warnings:           report.Warnings,
		Message: fmt.Sprintf("Processed %d pages into %d unique chunks",
			report.Pages, report.Stats.UniqueCount),
	}
	if report.Integrity != nil {
		resp.IntegrityVerified = &report.Integrity.Verified
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

type queryRequest struct {
	Question        string `json:"question"`
	NChunks         int    `json:"n_chunks"`
	IncludeSecurity bool   `json:"include_security"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		s.errorResponse(w, http.StatusBadRequest, "question is required")
		return
	}
	if req.NChunks <= 0 {
		req.NChunks = 3
	}

	result, err := s.svc.Query(r.Context(), req.Question, req.NChunks, req.IncludeSecurity)
	if err != nil {
		s.log.WithError(err).Error("Query failed")
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

func (s *Server) handleSecurityAnalysis(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("filename")
	analysis, err := s.svc.SecurityAnalysis(name)
	if err != nil {
		if errors.Is(err, service.ErrNotAnalyzed) {
			s.errorResponse(w, http.StatusNotFound, "no analysis for this document")
			return
		}
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, analysis)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.svc.Stats())
}

func (s *Server) handleClear(w http.ResponseWriter, _ *http.Request) {
	if err := s.svc.Clear(); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"message": "all documents cleared"})
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.WithError(err).Error("Failed to encode response")
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, status int, msg string) {
	s.jsonResponse(w, status, map[string]string{"error": msg})
}
