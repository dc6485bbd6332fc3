package pipeline_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardianpdf/internal/pipeline"
)

func words(n int) string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(out, " ")
}

func TestProcessWithoutDedup(t *testing.T) {
	opts := pipeline.Options{ChunkSize: 10, OverlapSize: 2}
	chunks, stats, err := pipeline.Process(words(25), opts)
	require.NoError(t, err)
	assert.Nil(t, stats)
	assert.Len(t, chunks, 3)
}

func TestProcessWithDedup(t *testing.T) {
	opts := pipeline.Options{ChunkSize: 5, OverlapSize: 0, Dedup: true, SimilarityThreshold: 0.9}
	repeated := strings.Repeat("alpha beta gamma delta epsilon ", 4)

	chunks, stats, err := pipeline.Process(repeated, opts)
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, 4, stats.OriginalCount)
	assert.Equal(t, 1, stats.UniqueCount)
	assert.Equal(t, 3, stats.DuplicatesRemoved)
	assert.Len(t, chunks, 1)
}

func TestProcessInvalidConfigFailsBeforeText(t *testing.T) {
	opts := pipeline.Options{ChunkSize: 10, OverlapSize: 10}
	for _, text := range []string{"", "some text here"} {
		_, _, err := pipeline.Process(text, opts)
		assert.Error(t, err)
	}

	_, _, err := pipeline.Process("text", pipeline.Options{ChunkSize: 10, OverlapSize: 2, Dedup: true, SimilarityThreshold: 1.5})
	assert.Error(t, err)
}

func TestProcessEmptyText(t *testing.T) {
	opts := pipeline.DefaultOptions()
	chunks, stats, err := pipeline.Process("", opts)
	require.NoError(t, err)
	assert.Empty(t, chunks)
	require.NotNil(t, stats)
	assert.Equal(t, 0, stats.OriginalCount)
	assert.Equal(t, 0.0, stats.DeduplicationRatio)
}

func TestProcessPagesConcatenatesInOrder(t *testing.T) {
	opts := pipeline.Options{ChunkSize: 4, OverlapSize: 1}
	chunks, _, err := pipeline.ProcessPages([]string{"a b c d e", "f g h"}, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"a b c d", "d e", "f g h"}, chunks)
}

func TestProcessZeroThresholdUsesDefault(t *testing.T) {
	// A zero threshold would otherwise drop every chunk after the first.
	opts := pipeline.Options{ChunkSize: 4, OverlapSize: 0, Dedup: true}
	chunks, stats, err := pipeline.Process("alpha beta gamma delta epsilon zeta eta theta", opts)
	require.NoError(t, err)
	assert.Len(t, chunks, 2)
	assert.Equal(t, 0, stats.DuplicatesRemoved)
}

func TestDefaultOptions(t *testing.T) {
	opts := pipeline.DefaultOptions()
	assert.Equal(t, 500, opts.ChunkSize)
	assert.Equal(t, 50, opts.OverlapSize)
	assert.True(t, opts.Dedup)
	assert.InDelta(t, 0.9, opts.SimilarityThreshold, 1e-12)
}
