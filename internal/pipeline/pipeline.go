// Package pipeline composes the chunker and the deduplicator into the
// document processing entry point used by the rest of the system.
package pipeline

import (
	"guardianpdf/internal/chunker"
	"guardianpdf/internal/dedup"
)

// Options configure a single processing run. A zero SimilarityThreshold
// falls back to the default; the other fields are taken as given and
// validated by the components they configure.
type Options struct {
	ChunkSize           int
	OverlapSize         int
	Dedup               bool
	SimilarityThreshold float64
}

// DefaultOptions returns the standard processing parameters: 500-word
// chunks, 50 words of overlap, deduplication on.
func DefaultOptions() Options {
	return Options{
		ChunkSize:           500,
		OverlapSize:         50,
		Dedup:               true,
		SimilarityThreshold: dedup.DefaultSimilarityThreshold,
	}
}

// Process chunks a single text blob and optionally deduplicates the
// result. Stats are nil when deduplication is disabled. Empty input yields
// an empty sequence and zeroed stats, not an error.
func Process(text string, opts Options) ([]string, *dedup.Stats, error) {
	return ProcessPages([]string{text}, opts)
}

// ProcessPages runs the pipeline over several text blocks (PDF pages) in
// order. Configuration is validated before any text is read; an invalid
// configuration fails regardless of input.
func ProcessPages(pages []string, opts Options) ([]string, *dedup.Stats, error) {
	c, err := chunker.New(opts.ChunkSize, opts.OverlapSize)
	if err != nil {
		return nil, nil, err
	}

	var d *dedup.Deduplicator
	if opts.Dedup {
		threshold := opts.SimilarityThreshold
		if threshold == 0 {
			threshold = dedup.DefaultSimilarityThreshold
		}
		d, err = dedup.NewDeduplicator(threshold)
		if err != nil {
			return nil, nil, err
		}
	}

	chunks := c.ChunkAll(pages)
	if d == nil {
		return chunks, nil, nil
	}
	unique, stats := d.Deduplicate(chunks)
	return unique, &stats, nil
}
