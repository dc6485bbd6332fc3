// Package tfidf provides an offline TF-IDF embedder. It needs no model
// download or API key, which makes it the default for local use; the
// vocabulary is scoped to the corpus passed to Prepare.
package tfidf

import (
	"errors"
	"math"
	"sort"

	"guardianpdf/internal/tokenize"
)

// Embedder implements a simple TF-IDF vectorizer.
type Embedder struct {
	vocab     map[string]int
	idf       []float64
	dimension int
	prepared  bool
	stopwords map[string]struct{}
}

// NewEmbedder creates an unprepared TF-IDF embedder.
func NewEmbedder() *Embedder {
	return &Embedder{stopwords: defaultStopwords()}
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "tfidf" }

// Prepare builds the vocabulary and IDF values from the provided corpus.
func (e *Embedder) Prepare(corpus []string) error {
	if len(corpus) == 0 {
		return errors.New("empty corpus for TF-IDF prepare")
	}
	df := make(map[string]int)
	for _, text := range corpus {
		for term := range e.uniqueTerms(text) {
			df[term]++
		}
	}
	if len(df) == 0 {
		return errors.New("no tokens found in corpus")
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	e.vocab = make(map[string]int, len(terms))
	e.idf = make([]float64, len(terms))
	docs := float64(len(corpus))
	for i, term := range terms {
		e.vocab[term] = i
		// Smoothed IDF
		e.idf[i] = math.Log((1+docs)/(1+float64(df[term]))) + 1.0
	}
	e.dimension = len(terms)
	e.prepared = true
	return nil
}

// Dimension returns the dimensionality of the produced embedding vectors.
func (e *Embedder) Dimension() int { return e.dimension }

// Embed computes the L2-normalized TF-IDF embedding for the given text.
func (e *Embedder) Embed(text string) ([]float64, error) {
	if !e.prepared {
		return nil, errors.New("tfidf embedder not prepared")
	}
	vec := make([]float64, e.dimension)
	counts := make(map[int]int)
	total := 0
	for _, term := range e.terms(text) {
		if idx, ok := e.vocab[term]; ok {
			counts[idx]++
			total++
		}
	}
	if total == 0 {
		return vec, nil
	}

	sumSquares := 0.0
	for idx, n := range counts {
		w := float64(n) / float64(total) * e.idf[idx]
		vec[idx] = w
		sumSquares += w * w
	}
	if norm := math.Sqrt(sumSquares); norm > 0 {
		for idx := range counts {
			vec[idx] /= norm
		}
	}
	return vec, nil
}

// terms tokenizes text and drops stopwords.
func (e *Embedder) terms(text string) []string {
	var out []string
	for _, tok := range tokenize.Words(text) {
		if _, isStop := e.stopwords[tok]; isStop {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// uniqueTerms returns the set of distinct non-stopword tokens in text.
func (e *Embedder) uniqueTerms(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, term := range e.terms(text) {
		set[term] = struct{}{}
	}
	return set
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
