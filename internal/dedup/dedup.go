package dedup

import "fmt"

// DefaultSimilarityThreshold is the Jaccard similarity above which two
// chunks are considered duplicates.
const DefaultSimilarityThreshold = 0.9

// Stats reports the outcome of a single Deduplicate call.
type Stats struct {
	OriginalCount      int     `json:"original_count"`
	UniqueCount        int     `json:"unique_count"`
	DuplicatesRemoved  int     `json:"duplicates_removed"`
	DeduplicationRatio float64 `json:"deduplication_ratio"`
}

// Deduplicator removes chunks that are near-duplicates of chunks seen
// earlier in the same sequence. All working state is scoped to one
// Deduplicate call, so a single instance may be reused sequentially; use
// one instance per in-flight document when processing in parallel.
type Deduplicator struct {
	similarityThreshold float64
}

// NewDeduplicator validates the threshold and returns a deduplicator.
func NewDeduplicator(similarityThreshold float64) (*Deduplicator, error) {
	if similarityThreshold < 0 || similarityThreshold > 1 {
		return nil, fmt.Errorf("similarity threshold must be within [0,1], got %g", similarityThreshold)
	}
	return &Deduplicator{similarityThreshold: similarityThreshold}, nil
}

// Deduplicate greedily filters the chunk sequence in input order: a chunk
// is dropped when its fingerprint's Jaccard similarity to any already-kept
// fingerprint reaches the threshold. Survivors keep their original
// relative order; downstream chunk indices depend on that.
//
// The scan is O(n²) over kept chunks in the worst case, which is fine at
// single-document scale. The comparison loop exits at the first match.
func (d *Deduplicator) Deduplicate(chunks []string) ([]string, Stats) {
	stats := Stats{OriginalCount: len(chunks)}
	kept := make([]string, 0, len(chunks))
	keptFingerprints := make([]Fingerprint, 0, len(chunks))

	for _, chunk := range chunks {
		fp := NewFingerprint(chunk)
		duplicate := false
		for _, seen := range keptFingerprints {
			if Jaccard(fp, seen) >= d.similarityThreshold {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		kept = append(kept, chunk)
		keptFingerprints = append(keptFingerprints, fp)
	}

	stats.UniqueCount = len(kept)
	stats.DuplicatesRemoved = stats.OriginalCount - stats.UniqueCount
	if stats.OriginalCount > 0 {
		stats.DeduplicationRatio = float64(stats.DuplicatesRemoved) / float64(stats.OriginalCount)
	}
	return kept, stats
}
