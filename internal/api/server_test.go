package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"guardianpdf/internal/api"
	"guardianpdf/internal/auditor"
	"guardianpdf/internal/dedup"
	"guardianpdf/internal/service"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) ProcessPDF(path, name string) (*service.UploadReport, error) {
	args := m.Called(path, name)
	report, _ := args.Get(0).(*service.UploadReport)
	return report, args.Error(1)
}

func (m *mockService) Query(ctx context.Context, question string, topK int, includeSecurity bool) (*service.QueryResult, error) {
	args := m.Called(ctx, question, topK, includeSecurity)
	result, _ := args.Get(0).(*service.QueryResult)
	return result, args.Error(1)
}

func (m *mockService) SecurityAnalysis(name string) (*service.SecurityAnalysis, error) {
	args := m.Called(name)
	analysis, _ := args.Get(0).(*service.SecurityAnalysis)
	return analysis, args.Error(1)
}

func (m *mockService) Stats() service.SystemStats {
	return m.Called().Get(0).(service.SystemStats)
}

func (m *mockService) Clear() error {
	return m.Called().Error(0)
}

func newTestServer(svc api.Service) *api.Server {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	return api.NewServer(svc, logrus.NewEntry(logger))
}

func TestHealth(t *testing.T) {
	srv := newTestServer(new(mockService))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func multipartPDF(t *testing.T, filename string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 fake body"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestUploadPDF(t *testing.T) {
	svc := new(mockService)
	verified := true
	svc.On("ProcessPDF", mock.AnythingOfType("string"), "report.pdf").Return(&service.UploadReport{
		Filename: "report.pdf",
		Pages:    2,
		Stats: dedup.Stats{
			OriginalCount:      10,
			UniqueCount:        8,
			DuplicatesRemoved:  2,
			DeduplicationRatio: 0.2,
		},
		Integrity: &auditor.IntegrityReport{Verified: verified},
		Security:  auditor.DocumentSummary{WarningLevel: "LOW"},
		Warnings:  []string{},
	}, nil)

	body, contentType := multipartPDF(t, "report.pdf")
	req := httptest.NewRequest(http.MethodPost, "/upload_pdf", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	newTestServer(svc).Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp api.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "report.pdf", resp.Filename)
	assert.Equal(t, 10, resp.TotalChunks)
	assert.Equal(t, 8, resp.UniqueChunks)
	assert.Equal(t, 2, resp.DuplicatesRemoved)
	require.NotNil(t, resp.IntegrityVerified)
	assert.True(t, *resp.IntegrityVerified)
	assert.Contains(t, resp.Message, "2 pages")
	svc.AssertExpectations(t)
}

func TestUploadRejectsNonPDF(t *testing.T) {
	svc := new(mockService)
	body, contentType := multipartPDF(t, "notes.txt")
	req := httptest.NewRequest(http.MethodPost, "/upload_pdf", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	newTestServer(svc).Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "ProcessPDF", mock.Anything, mock.Anything)
}

func TestUploadProcessingFailure(t *testing.T) {
	svc := new(mockService)
	svc.On("ProcessPDF", mock.AnythingOfType("string"), "bad.pdf").
		Return(nil, errors.New("no text extracted from bad.pdf"))

	body, contentType := multipartPDF(t, "bad.pdf")
	req := httptest.NewRequest(http.MethodPost, "/upload_pdf", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	newTestServer(svc).Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestQuery(t *testing.T) {
	svc := new(mockService)
	svc.On("Query", mock.Anything, "What is this about?", 3, false).Return(&service.QueryResult{
		Answer:  "It is about foxes.",
		Sources: []service.Source{{Source: "report.pdf", ChunkIndex: 0}},
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/query",
		strings.NewReader(`{"question":"What is this about?"}`))
	rec := httptest.NewRecorder()
	newTestServer(svc).Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp service.QueryResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "It is about foxes.", resp.Answer)
	require.Len(t, resp.Sources, 1)
	svc.AssertExpectations(t)
}

func TestQueryValidation(t *testing.T) {
	srv := newTestServer(new(mockService))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/query",
		strings.NewReader(`{"question":"  "}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/query",
		strings.NewReader(`not json`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSecurityAnalysisNotFound(t *testing.T) {
	svc := new(mockService)
	svc.On("SecurityAnalysis", "missing.pdf").Return(nil, service.ErrNotAnalyzed)

	rec := httptest.NewRecorder()
	newTestServer(svc).Handler().ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/security/analysis/missing.pdf", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSecurityAnalysisFound(t *testing.T) {
	svc := new(mockService)
	svc.On("SecurityAnalysis", "report.pdf").Return(&service.SecurityAnalysis{
		Filename: "report.pdf",
		Summary:  auditor.DocumentSummary{TotalChunks: 3, WarningLevel: "LOW"},
	}, nil)

	rec := httptest.NewRecorder()
	newTestServer(svc).Handler().ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/security/analysis/report.pdf", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp service.SecurityAnalysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Summary.TotalChunks)
}

func TestStatsAndClear(t *testing.T) {
	svc := new(mockService)
	svc.On("Stats").Return(service.SystemStats{StoredChunks: 42, Embedder: "tfidf"})
	svc.On("Clear").Return(nil)

	srv := newTestServer(svc)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var stats service.SystemStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 42, stats.StoredChunks)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/clear", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}
