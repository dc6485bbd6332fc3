package dedup

import (
	"hash/fnv"
	"strings"
)

// shingleWidth is the number of words per fingerprint shingle. Three-word
// shingles keep incidental overlap between unrelated chunks low while
// still catching partial near-duplicates.
const shingleWidth = 3

// Rabin-Karp rolling hash parameters.
const (
	hashBase uint64 = 257
	hashMod  uint64 = 1_000_000_007
)

// Fingerprint is the set of rolling-hash values of a chunk's word shingles.
// Duplicate shingles within one chunk collapse into a single entry.
type Fingerprint map[uint64]struct{}

// NewFingerprint computes the shingle fingerprint of a chunk. Words are
// lowercased so near-duplicate detection ignores case. A chunk shorter
// than the shingle width produces a single shingle spanning all its words.
//
// The hash is a polynomial rolling hash over per-word symbols: advancing
// the shingle window by one word removes the oldest word's contribution
// and adds the newest, so each step is O(1) instead of rehashing the
// whole shingle.
func NewFingerprint(text string) Fingerprint {
	words := strings.Fields(strings.ToLower(text))
	fp := make(Fingerprint)
	if len(words) == 0 {
		return fp
	}

	k := shingleWidth
	if len(words) < k {
		k = len(words)
	}

	// base^(k-1) mod M, the weight of the oldest word in the window
	leadWeight := uint64(1)
	for i := 0; i < k-1; i++ {
		leadWeight = leadWeight * hashBase % hashMod
	}

	symbols := make([]uint64, len(words))
	for i, w := range words {
		symbols[i] = wordSymbol(w)
	}

	var h uint64
	for i := 0; i < k; i++ {
		h = (h*hashBase + symbols[i]) % hashMod
	}
	fp[h] = struct{}{}

	for i := k; i < len(symbols); i++ {
		drop := symbols[i-k] * leadWeight % hashMod
		h = (h + hashMod - drop) % hashMod
		h = (h*hashBase + symbols[i]) % hashMod
		fp[h] = struct{}{}
	}
	return fp
}

// Jaccard returns |A∩B| / |A∪B| for two fingerprints. Two empty
// fingerprints are identical (1.0); one empty against a non-empty one is
// fully disjoint (0.0).
func Jaccard(a, b Fingerprint) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	intersection := 0
	for h := range small {
		if _, ok := large[h]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// wordSymbol maps a word to a stable numeric symbol below the modulus.
func wordSymbol(word string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(word))
	return h.Sum64() % hashMod
}
