package chunker

import (
	"fmt"
	"strings"
)

// Chunker splits raw text into fixed-size overlapping word windows.
// It holds no mutable state beyond the two sizes, so a single instance is
// safe for concurrent use.
type Chunker struct {
	chunkSize   int
	overlapSize int
}

// New validates the window geometry and returns a ready chunker.
// chunkSize is the number of words per chunk, overlapSize the number of
// words shared between consecutive chunks.
func New(chunkSize, overlapSize int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlapSize < 0 {
		return nil, fmt.Errorf("overlap size must be non-negative, got %d", overlapSize)
	}
	if overlapSize >= chunkSize {
		return nil, fmt.Errorf("overlap size %d must be less than chunk size %d", overlapSize, chunkSize)
	}
	return &Chunker{chunkSize: chunkSize, overlapSize: overlapSize}, nil
}

// Chunk splits text into windows of chunkSize whitespace-delimited words,
// advancing by chunkSize-overlapSize words per step. Words are rejoined
// with single spaces. The final chunk always ends at the last word and may
// be shorter than chunkSize. Empty or whitespace-only input yields no
// chunks.
func (c *Chunker) Chunk(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	stride := c.chunkSize - c.overlapSize
	var chunks []string
	for start := 0; start < len(words); start += stride {
		end := start + c.chunkSize
		if end >= len(words) {
			chunks = append(chunks, strings.Join(words[start:], " "))
			break
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}

// ChunkAll chunks several text blocks (for example PDF pages) and returns
// all chunks in block order. Windows never span block boundaries.
func (c *Chunker) ChunkAll(texts []string) []string {
	var all []string
	for _, text := range texts {
		all = append(all, c.Chunk(text)...)
	}
	return all
}
