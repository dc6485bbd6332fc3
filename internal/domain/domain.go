package domain

import "context"

// Chunk is one deduplicated text segment of a processed document, together
// with the metadata the security auditor attaches to it before storage.
type Chunk struct {
	Source        string
	ChunkID       string
	Text          string
	Index         int
	Perplexity    float64
	AIProbability float64
	SecurityLabel string
}

// SearchResult is a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Extractor pulls plain text out of a document file, one string per page.
type Extractor interface {
	ExtractPages(path string) ([]string, error)
}

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(text string) ([]float64, error)
}

// VectorStore persists chunk vectors and supports similarity search.
type VectorStore interface {
	Init(dimension int) error
	Upsert(chunks []Chunk, vectors [][]float64) error
	Search(vector []float64, topK int) ([]SearchResult, error)
	Count() (int, error)
	Clear() error
}

// Provider generates a completion for a prompt using some LLM backend.
type Provider interface {
	Name() string
	Model() string
	Generate(ctx context.Context, system, prompt string) (string, error)
}
