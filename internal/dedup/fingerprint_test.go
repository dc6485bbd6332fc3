package dedup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// directShingleHash recomputes one shingle hash without the rolling update,
// to cross-check the incremental computation.
func directShingleHash(words []string) uint64 {
	var h uint64
	for _, w := range words {
		h = (h*hashBase + wordSymbol(w)) % hashMod
	}
	return h
}

func TestRollingHashMatchesDirectHash(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog again and again"
	words := strings.Fields(text)

	fp := NewFingerprint(text)

	for i := 0; i+shingleWidth <= len(words); i++ {
		h := directShingleHash(words[i : i+shingleWidth])
		_, ok := fp[h]
		assert.True(t, ok, "shingle starting at word %d missing from fingerprint", i)
	}
}

func TestFingerprintShorterThanShingleWidth(t *testing.T) {
	fp := NewFingerprint("two words")
	require.Len(t, fp, 1)

	h := directShingleHash([]string{"two", "words"})
	_, ok := fp[h]
	assert.True(t, ok)
}

func TestFingerprintIgnoresCase(t *testing.T) {
	assert.Equal(t, NewFingerprint("Alpha Beta Gamma Delta"), NewFingerprint("alpha beta gamma delta"))
}

func TestFingerprintEmptyText(t *testing.T) {
	assert.Empty(t, NewFingerprint(""))
	assert.Empty(t, NewFingerprint("   "))
}

func TestFingerprintCollapsesRepeatedShingles(t *testing.T) {
	// Four repetitions of the same three words yield far fewer distinct
	// shingles than word positions.
	fp := NewFingerprint("a b c a b c a b c a b c")
	assert.Len(t, fp, 3)
}

func TestJaccard(t *testing.T) {
	a := NewFingerprint("one two three four five")
	b := NewFingerprint("one two three four five")
	c := NewFingerprint("six seven eight nine ten")

	assert.Equal(t, 1.0, Jaccard(a, b))
	assert.Equal(t, 0.0, Jaccard(a, c))

	// Overlapping halves land strictly between the extremes.
	d := NewFingerprint("one two three four five six seven")
	mixed := Jaccard(a, d)
	assert.Greater(t, mixed, 0.0)
	assert.Less(t, mixed, 1.0)
}

func TestJaccardEmptyFingerprints(t *testing.T) {
	empty := Fingerprint{}
	assert.Equal(t, 1.0, Jaccard(empty, Fingerprint{}))
	assert.Equal(t, 0.0, Jaccard(empty, NewFingerprint("some actual words here")))
}
