package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardianpdf/internal/embedding/tfidf"
	"guardianpdf/internal/pipeline"
	"guardianpdf/internal/service"
	"guardianpdf/internal/vectorstore/memory"
)

type fakeProvider struct {
	answer     string
	lastSystem string
	lastPrompt string
}

func (f *fakeProvider) Name() string  { return "fake" }
func (f *fakeProvider) Model() string { return "fake-model" }

func (f *fakeProvider) Generate(_ context.Context, system, prompt string) (string, error) {
	f.lastSystem = system
	f.lastPrompt = prompt
	return f.answer, nil
}

func newTestService(llm *fakeProvider) *service.Service {
	return service.New(service.Config{
		Embedder: tfidf.NewEmbedder(),
		Store:    memory.NewStorage(),
		LLM:      llm,
		Options: pipeline.Options{
			ChunkSize:           20,
			OverlapSize:         5,
			Dedup:               true,
			SimilarityThreshold: 0.9,
		},
		AIDetection: true,
	})
}

const repetitiveSentence = "the quick brown fox jumps over the lazy dog sleeping near the quiet river bank today "

func TestIngestDeduplicatesRepetitiveText(t *testing.T) {
	svc := newTestService(&fakeProvider{answer: "ok"})

	report, err := svc.IngestText("doc.txt", strings.Repeat(repetitiveSentence, 8))
	require.NoError(t, err)

	assert.Equal(t, "doc.txt", report.Filename)
	assert.Greater(t, report.Stats.OriginalCount, report.Stats.UniqueCount)
	assert.Greater(t, report.Stats.DuplicatesRemoved, 0)

	// Repetitive wording reads as machine-generated.
	assert.Equal(t, "HIGH", report.Security.WarningLevel)
	assert.NotEmpty(t, report.Warnings)
}

func TestQueryReturnsGroundedAnswer(t *testing.T) {
	llm := &fakeProvider{answer: "The fox jumps over the dog."}
	svc := newTestService(llm)

	_, err := svc.IngestText("doc.txt", strings.Repeat(repetitiveSentence, 8))
	require.NoError(t, err)

	result, err := svc.Query(context.Background(), "What does the fox do?", 2, true)
	require.NoError(t, err)

	assert.Equal(t, llm.answer, result.Answer)
	assert.NotEmpty(t, result.Sources)
	for _, src := range result.Sources {
		assert.Equal(t, "doc.txt", src.Source)
	}

	require.NotNil(t, result.Metadata)
	assert.Equal(t, "fake-model", result.Metadata.Model)
	assert.Equal(t, "fake", result.Metadata.Provider)
	assert.Equal(t, len(result.Sources), result.Metadata.ChunksRetrieved)

	assert.Contains(t, llm.lastPrompt, "[Context 1]")
	assert.Contains(t, llm.lastPrompt, "What does the fox do?")
	assert.Contains(t, llm.lastSystem, "GuardianPDF")

	// Ingestion flagged every chunk as AI with high confidence.
	require.NotEmpty(t, result.SecurityWarnings)
	assert.Equal(t, "AI_GENERATED_CONTENT", result.SecurityWarnings[0].Type)
	assert.Equal(t, "HIGH", result.SecurityWarnings[0].Severity)
}

func TestQueryEmptyQuestion(t *testing.T) {
	svc := newTestService(&fakeProvider{})
	_, err := svc.Query(context.Background(), "   ", 3, false)
	assert.Error(t, err)
}

func TestSecurityAnalysisCache(t *testing.T) {
	svc := newTestService(&fakeProvider{})

	_, err := svc.IngestText("doc.txt", strings.Repeat(repetitiveSentence, 8))
	require.NoError(t, err)

	analysis, err := svc.SecurityAnalysis("doc.txt")
	require.NoError(t, err)
	assert.Equal(t, "doc.txt", analysis.Filename)
	assert.NotEmpty(t, analysis.Chunks)
	assert.Equal(t, len(analysis.Chunks), analysis.Summary.TotalChunks)

	_, err = svc.SecurityAnalysis("other.pdf")
	assert.True(t, errors.Is(err, service.ErrNotAnalyzed))
}

func TestStatsAndClear(t *testing.T) {
	svc := newTestService(&fakeProvider{})

	_, err := svc.IngestText("doc.txt", strings.Repeat(repetitiveSentence, 8))
	require.NoError(t, err)

	stats := svc.Stats()
	assert.Greater(t, stats.StoredChunks, 0)
	assert.Equal(t, "tfidf", stats.Embedder)
	assert.Equal(t, "fake", stats.Provider)
	assert.Equal(t, 1, stats.CachedAnalyses)

	require.NoError(t, svc.Clear())
	stats = svc.Stats()
	assert.Zero(t, stats.StoredChunks)
	assert.Zero(t, stats.CachedAnalyses)
}

// remoteEmbedder mimics the API-backed embedder contract: Prepare is a
// no-op and the dimension is only known after the first Embed response.
type remoteEmbedder struct {
	dim int
}

func (e *remoteEmbedder) Name() string                  { return "remote" }
func (e *remoteEmbedder) Prepare(corpus []string) error { return nil }
func (e *remoteEmbedder) Dimension() int                { return e.dim }

func (e *remoteEmbedder) Embed(text string) ([]float64, error) {
	vec := []float64{float64(len(text)), 1, 0}
	if e.dim == 0 {
		e.dim = len(vec)
	}
	return vec, nil
}

func TestIngestSizesStoreFromFirstEmbedding(t *testing.T) {
	emb := &remoteEmbedder{}
	svc := service.New(service.Config{
		Embedder: emb,
		Store:    memory.NewStorage(),
		LLM:      &fakeProvider{},
		Options: pipeline.Options{
			ChunkSize:           20,
			OverlapSize:         5,
			Dedup:               true,
			SimilarityThreshold: 0.9,
		},
	})

	_, err := svc.IngestText("first.txt", strings.Repeat(repetitiveSentence, 8))
	require.NoError(t, err)
	_, err = svc.IngestText("second.txt", "a handful of words to ingest")
	require.NoError(t, err)

	stats := svc.Stats()
	assert.Greater(t, stats.StoredChunks, 0)
	assert.Equal(t, 3, stats.EmbeddingDim)
}

func TestIngestRejectsInvalidChunking(t *testing.T) {
	svc := service.New(service.Config{
		Embedder: tfidf.NewEmbedder(),
		Store:    memory.NewStorage(),
		LLM:      &fakeProvider{},
		Options:  pipeline.Options{ChunkSize: 10, OverlapSize: 10},
	})
	_, err := svc.IngestText("doc.txt", "some text")
	assert.Error(t, err)
}
