// Package service wires the processing pipeline, security auditor,
// embedder, vector store and LLM provider into the application's two
// flows: ingesting documents and answering questions about them.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"guardianpdf/internal/auditor"
	"guardianpdf/internal/dedup"
	"guardianpdf/internal/domain"
	"guardianpdf/internal/pipeline"
)

const systemPrompt = "You are GuardianPDF, an AI assistant that answers questions based strictly on provided PDF context. Never make up information."

// ErrNotAnalyzed is returned when a security analysis is requested for a
// document that was never ingested (or was ingested with AI detection off).
var ErrNotAnalyzed = errors.New("document not found in analysis cache")

// Config assembles a Service from its collaborators.
type Config struct {
	Extractor       domain.Extractor
	Embedder        domain.Embedder
	Store           domain.VectorStore
	LLM             domain.Provider
	Options         pipeline.Options
	VerifyIntegrity bool
	AIDetection     bool
	Logger          *logrus.Entry
}

// Service implements document ingestion and retrieval-augmented querying.
type Service struct {
	extractor       domain.Extractor
	embedder        domain.Embedder
	store           domain.VectorStore
	llm             domain.Provider
	verifier        *auditor.SignatureVerifier
	analyzer        *auditor.PerplexityAnalyzer
	opts            pipeline.Options
	verifyIntegrity bool
	aiDetection     bool
	log             *logrus.Entry

	mu       sync.Mutex
	analyses map[string][]auditor.ChunkReport
}

// New builds a Service. The auditor components are stateless and created
// internally.
func New(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Service{
		extractor:       cfg.Extractor,
		embedder:        cfg.Embedder,
		store:           cfg.Store,
		llm:             cfg.LLM,
		verifier:        auditor.NewSignatureVerifier(),
		analyzer:        auditor.NewPerplexityAnalyzer(),
		opts:            cfg.Options,
		verifyIntegrity: cfg.VerifyIntegrity,
		aiDetection:     cfg.AIDetection,
		log:             logger,
		analyses:        make(map[string][]auditor.ChunkReport),
	}
}

// UploadReport summarizes the ingestion of one document.
type UploadReport struct {
	Filename  string                   `json:"filename"`
	Pages     int                      `json:"pages"`
	Stats     dedup.Stats              `json:"stats"`
	Integrity *auditor.IntegrityReport `json:"integrity,omitempty"`
	Security  auditor.DocumentSummary  `json:"security_analysis"`
	Warnings  []string                 `json:"warnings"`
}

// ProcessPDF verifies, extracts, chunks, audits, embeds and stores one
// PDF file. The name is used as the document's source identifier.
func (s *Service) ProcessPDF(path, name string) (*UploadReport, error) {
	report := &UploadReport{Filename: name, Warnings: []string{}}

	if s.verifyIntegrity {
		integrity := s.verifier.VerifyPDF(path)
		report.Integrity = integrity
		if !integrity.Verified {
			msg := "Integrity check failed"
			if integrity.Error != "" {
				msg = fmt.Sprintf("Integrity check failed: %s", integrity.Error)
			}
			report.Warnings = append(report.Warnings, msg)
		}
		report.Warnings = append(report.Warnings, integrity.Warnings...)
	}

	pages, err := s.extractor.ExtractPages(path)
	if err != nil {
		return nil, err
	}
	report.Pages = len(pages)
	return s.ingest(name, pages, report)
}

// IngestText runs the same pipeline over an already-extracted text blob,
// skipping the PDF-specific integrity check.
func (s *Service) IngestText(name, text string) (*UploadReport, error) {
	report := &UploadReport{Filename: name, Warnings: []string{}}
	return s.ingest(name, []string{text}, report)
}

func (s *Service) ingest(name string, pages []string, report *UploadReport) (*UploadReport, error) {
	chunkTexts, stats, err := pipeline.ProcessPages(pages, s.opts)
	if err != nil {
		return nil, err
	}
	if len(chunkTexts) == 0 {
		return nil, fmt.Errorf("no text extracted from %s", name)
	}
	if stats == nil {
		stats = &dedup.Stats{OriginalCount: len(chunkTexts), UniqueCount: len(chunkTexts)}
	}
	report.Stats = *stats

	var reports []auditor.ChunkReport
	if s.aiDetection {
		reports = s.analyzer.Analyze(chunkTexts)
		report.Security = s.analyzer.Summarize(reports)
		s.mu.Lock()
		s.analyses[name] = reports
		s.mu.Unlock()
		if report.Security.WarningLevel != "LOW" {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("%s (%.1f%% AI)", report.Security.OverallLabel, report.Security.AIPercentage))
		}
	}

	if err := s.embedder.Prepare(chunkTexts); err != nil {
		return nil, fmt.Errorf("prepare embedder: %w", err)
	}
	// TF-IDF vocabularies are corpus-scoped, so the store is rebuilt for
	// every document; remote embedders accumulate across uploads.
	if s.embedder.Name() == "tfidf" {
		if err := s.store.Clear(); err != nil {
			return nil, fmt.Errorf("clear store: %w", err)
		}
	}

	chunks := make([]domain.Chunk, len(chunkTexts))
	vectors := make([][]float64, len(chunkTexts))
	for i, text := range chunkTexts {
		vec, err := s.embedder.Embed(text)
		if err != nil {
			return nil, fmt.Errorf("embed chunk %d: %w", i, err)
		}
		vectors[i] = vec
		chunks[i] = domain.Chunk{
			Source:  name,
			ChunkID: fmt.Sprintf("%s:%d", name, i),
			Text:    text,
			Index:   i,
		}
		if reports != nil {
			r := reports[i]
			chunks[i].Perplexity = r.Perplexity
			chunks[i].SecurityLabel = r.Label
			if r.IsAI != nil && *r.IsAI {
				chunks[i].AIProbability = r.Confidence
			}
		}
	}
	// Remote embedders only learn their dimension from the first
	// response, so the store is sized from the vectors themselves.
	if err := s.store.Init(len(vectors[0])); err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	if err := s.store.Upsert(chunks, vectors); err != nil {
		return nil, fmt.Errorf("store chunks: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"document":    name,
		"pages":       report.Pages,
		"chunks":      stats.OriginalCount,
		"unique":      stats.UniqueCount,
		"dedup_ratio": stats.DeduplicationRatio,
		"warning_lvl": report.Security.WarningLevel,
	}).Info("Document ingested")
	return report, nil
}

// Source is one retrieved context chunk backing an answer.
type Source struct {
	Text           string  `json:"text"`
	Source         string  `json:"source"`
	ChunkIndex     int     `json:"chunk_index"`
	RelevanceScore float64 `json:"relevance_score"`
}

// SecurityWarning flags an answer source as suspected AI-generated.
type SecurityWarning struct {
	Type     string         `json:"type"`
	Severity string         `json:"severity"`
	Message  string         `json:"message"`
	Details  map[string]any `json:"details,omitempty"`
}

// QueryMetadata describes how an answer was produced.
type QueryMetadata struct {
	ChunksRetrieved int    `json:"n_chunks_retrieved"`
	Model           string `json:"model"`
	Provider        string `json:"provider"`
}

// QueryResult is a grounded answer with its sources.
type QueryResult struct {
	Answer           string            `json:"answer"`
	Sources          []Source          `json:"sources"`
	SecurityWarnings []SecurityWarning `json:"security_warnings"`
	Metadata         *QueryMetadata    `json:"metadata,omitempty"`
}

// Query answers a question over the stored chunks. When includeSecurity
// is set, sources whose chunks were flagged as AI-generated during
// ingestion produce security warnings.
func (s *Service) Query(ctx context.Context, question string, topK int, includeSecurity bool) (*QueryResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, errors.New("empty question")
	}
	if topK <= 0 {
		topK = 3
	}

	vec, err := s.embedder.Embed(question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	hits, err := s.store.Search(vec, topK)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if len(hits) == 0 {
		return &QueryResult{
			Answer:           "No relevant information found in the document.",
			Sources:          []Source{},
			SecurityWarnings: []SecurityWarning{},
		}, nil
	}

	var contextBlock strings.Builder
	for i, hit := range hits {
		if i > 0 {
			contextBlock.WriteString("\n\n")
		}
		fmt.Fprintf(&contextBlock, "[Context %d] %s", i+1, hit.Chunk.Text)
	}
	answer, err := s.llm.Generate(ctx, systemPrompt, buildPrompt(question, contextBlock.String()))
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	result := &QueryResult{
		Answer:           answer,
		Sources:          make([]Source, 0, len(hits)),
		SecurityWarnings: []SecurityWarning{},
		Metadata: &QueryMetadata{
			ChunksRetrieved: len(hits),
			Model:           s.llm.Model(),
			Provider:        s.llm.Name(),
		},
	}
	for _, hit := range hits {
		result.Sources = append(result.Sources, Source{
			Text:           preview(hit.Chunk.Text, 200),
			Source:         hit.Chunk.Source,
			ChunkIndex:     hit.Chunk.Index,
			RelevanceScore: hit.Score,
		})
		if includeSecurity {
			if w := s.securityWarning(hit.Chunk); w != nil {
				result.SecurityWarnings = append(result.SecurityWarnings, *w)
			}
		}
	}
	return result, nil
}

// securityWarning checks the ingestion-time analysis of a chunk's source
// document and flags high-confidence AI chunks.
func (s *Service) securityWarning(chunk domain.Chunk) *SecurityWarning {
	s.mu.Lock()
	reports, ok := s.analyses[chunk.Source]
	s.mu.Unlock()
	if !ok || chunk.Index >= len(reports) {
		return nil
	}
	r := reports[chunk.Index]
	if r.IsAI == nil || !*r.IsAI || r.Confidence <= 0.7 {
		return nil
	}
	severity := "MEDIUM"
	if r.Confidence > 0.8 {
		severity = "HIGH"
	}
	return &SecurityWarning{
		Type:     "AI_GENERATED_CONTENT",
		Severity: severity,
		Message:  r.Label,
		Details: map[string]any{
			"chunk_index": chunk.Index,
			"confidence":  r.Confidence,
			"perplexity":  r.Perplexity,
		},
	}
}

// SecurityAnalysis is the cached per-chunk AI analysis of one document.
type SecurityAnalysis struct {
	Filename string                  `json:"filename"`
	Summary  auditor.DocumentSummary `json:"summary"`
	Chunks   []auditor.ChunkReport   `json:"chunk_analysis"`
}

// SecurityAnalysis returns the cached analysis for a document.
func (s *Service) SecurityAnalysis(name string) (*SecurityAnalysis, error) {
	s.mu.Lock()
	reports, ok := s.analyses[name]
	s.mu.Unlock()
	if !ok {
		return nil, ErrNotAnalyzed
	}
	return &SecurityAnalysis{
		Filename: name,
		Summary:  s.analyzer.Summarize(reports),
		Chunks:   reports,
	}, nil
}

// SystemStats is a snapshot of the system's state.
type SystemStats struct {
	StoredChunks   int    `json:"stored_chunks"`
	Embedder       string `json:"embedder"`
	EmbeddingDim   int    `json:"embedding_dimension"`
	Provider       string `json:"llm_provider"`
	Model          string `json:"llm_model"`
	CachedAnalyses int    `json:"cached_analyses"`
}

// Stats reports counters for the stats endpoint.
func (s *Service) Stats() SystemStats {
	count, _ := s.store.Count()
	s.mu.Lock()
	cached := len(s.analyses)
	s.mu.Unlock()
	return SystemStats{
		StoredChunks:   count,
		Embedder:       s.embedder.Name(),
		EmbeddingDim:   s.embedder.Dimension(),
		Provider:       s.llm.Name(),
		Model:          s.llm.Model(),
		CachedAnalyses: cached,
	}
}

// Clear drops all stored chunks and cached analyses.
func (s *Service) Clear() error {
	if err := s.store.Clear(); err != nil {
		return err
	}
	s.mu.Lock()
	s.analyses = make(map[string][]auditor.ChunkReport)
	s.mu.Unlock()
	return nil
}

func buildPrompt(question, contextBlock string) string {
	return fmt.Sprintf(`Based on the following context from a PDF document, answer the question.

Context:
%s

Question: %s

Instructions:
- Answer ONLY based on the provided context
- If the context doesn't contain relevant information, say so
- Be concise and accurate
- Quote specific parts of the context when relevant

Answer:`, contextBlock, question)
}

func preview(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
