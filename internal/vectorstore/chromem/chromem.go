// Package chromem persists chunk vectors in an embedded chromem-go
// database so uploads survive restarts without an external service.
package chromem

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/philippgille/chromem-go"

	"guardianpdf/internal/domain"
)

// Storage is a persistent vector store backed by chromem-go.
type Storage struct {
	db         *chromem.DB
	collection *chromem.Collection
	name       string
	dimension  int
}

// Config configures the chromem-backed store.
type Config struct {
	Path       string
	Collection string
	Compress   bool
}

// NewStorage opens (or creates) the database at cfg.Path.
func NewStorage(cfg Config) (*Storage, error) {
	if cfg.Path == "" {
		cfg.Path = "./guardian_db"
	}
	if cfg.Collection == "" {
		cfg.Collection = "guardian_pdf_chunks"
	}
	db, err := chromem.NewPersistentDB(cfg.Path, cfg.Compress)
	if err != nil {
		return nil, fmt.Errorf("open chromem db: %w", err)
	}
	return &Storage{db: db, name: cfg.Collection}, nil
}

// embeddingFunc rejects text-based embedding: vectors are always computed
// upstream and supplied with the documents.
func embeddingFunc(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("chromem store expects precomputed embeddings")
}

// Init opens the collection for vectors of the given dimension.
func (s *Storage) Init(dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	c, err := s.db.GetOrCreateCollection(s.name, nil, embeddingFunc)
	if err != nil {
		return fmt.Errorf("open collection %s: %w", s.name, err)
	}
	s.collection = c
	s.dimension = dimension
	return nil
}

// Upsert stores chunks with their vectors and security metadata.
func (s *Storage) Upsert(chunks []domain.Chunk, vectors [][]float64) error {
	if s.collection == nil {
		return errors.New("store not initialized")
	}
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	if len(chunks) == 0 {
		return nil
	}
	docs := make([]chromem.Document, len(chunks))
	for i, ch := range chunks {
		docs[i] = chromem.Document{
			ID:        ch.ChunkID,
			Content:   ch.Text,
			Embedding: toFloat32(vectors[i]),
			Metadata: map[string]string{
				"source":         ch.Source,
				"chunk_index":    strconv.Itoa(ch.Index),
				"perplexity":     strconv.FormatFloat(ch.Perplexity, 'f', 2, 64),
				"ai_probability": strconv.FormatFloat(ch.AIProbability, 'f', 2, 64),
				"security_label": ch.SecurityLabel,
			},
		}
	}
	return s.collection.AddDocuments(context.Background(), docs, 1)
}

// Search returns the topK most similar chunks.
func (s *Storage) Search(vector []float64, topK int) ([]domain.SearchResult, error) {
	if s.collection == nil {
		return nil, errors.New("store not initialized")
	}
	if topK <= 0 {
		topK = 5
	}
	// chromem rejects queries asking for more results than stored docs.
	if n := s.collection.Count(); topK > n {
		topK = n
	}
	if topK == 0 {
		return nil, nil
	}
	res, err := s.collection.QueryEmbedding(context.Background(), toFloat32(vector), topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}
	results := make([]domain.SearchResult, 0, len(res))
	for _, r := range res {
		chunk := domain.Chunk{
			ChunkID: r.ID,
			Text:    r.Content,
			Source:  r.Metadata["source"],
		}
		if v, err := strconv.Atoi(r.Metadata["chunk_index"]); err == nil {
			chunk.Index = v
		}
		if v, err := strconv.ParseFloat(r.Metadata["perplexity"], 64); err == nil {
			chunk.Perplexity = v
		}
		if v, err := strconv.ParseFloat(r.Metadata["ai_probability"], 64); err == nil {
			chunk.AIProbability = v
		}
		chunk.SecurityLabel = r.Metadata["security_label"]
		results = append(results, domain.SearchResult{Chunk: chunk, Score: float64(r.Similarity)})
	}
	return results, nil
}

// Count reports the number of stored chunks.
func (s *Storage) Count() (int, error) {
	if s.collection == nil {
		return 0, nil
	}
	return s.collection.Count(), nil
}

// Clear drops and recreates the collection.
func (s *Storage) Clear() error {
	if err := s.db.DeleteCollection(s.name); err != nil {
		return fmt.Errorf("delete collection %s: %w", s.name, err)
	}
	if s.collection != nil {
		c, err := s.db.GetOrCreateCollection(s.name, nil, embeddingFunc)
		if err != nil {
			return fmt.Errorf("recreate collection %s: %w", s.name, err)
		}
		s.collection = c
	}
	return nil
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
