// Package auditor contains the document security checks: heuristic
// AI-content scoring over chunk text and integrity verification of the
// source PDF.
package auditor

import (
	"math"

	"guardianpdf/internal/tokenize"
)

// Classification bands. Text below the low band reads as highly
// predictable (AI-like); above the high band as human-written.
const (
	perplexityBandHigh      = 30
	perplexityBandModerate  = 50
	perplexityBandUncertain = 100
)

// maxPerplexity caps the score for degenerate chunks (fewer than two
// words) so reports stay JSON-encodable.
const maxPerplexity = 1e6

// ChunkReport is the AI-content analysis of a single chunk.
type ChunkReport struct {
	ChunkIndex int     `json:"chunk_index"`
	Perplexity float64 `json:"perplexity"`
	IsAI       *bool   `json:"is_ai"`
	Confidence float64 `json:"confidence"`
	Label      string  `json:"label"`
}

// DocumentSummary aggregates chunk reports into a document verdict.
type DocumentSummary struct {
	TotalChunks       int     `json:"total_chunks"`
	AIChunks          int     `json:"ai_chunks"`
	UncertainChunks   int     `json:"uncertain_chunks"`
	HumanChunks       int     `json:"human_chunks"`
	AIPercentage      float64 `json:"ai_percentage"`
	AveragePerplexity float64 `json:"average_perplexity"`
	OverallLabel      string  `json:"overall_label"`
	WarningLevel      string  `json:"warning_level"`
}

// PerplexityAnalyzer scores how predictable each chunk's wording is. It
// fits a bigram language model over the whole document and measures each
// chunk's perplexity under that model: text that keeps reusing the same
// constructions scores low (AI-like), varied text scores high.
type PerplexityAnalyzer struct{}

// NewPerplexityAnalyzer returns a ready analyzer.
func NewPerplexityAnalyzer() *PerplexityAnalyzer {
	return &PerplexityAnalyzer{}
}

// bigramModel holds add-one-smoothed transition counts.
type bigramModel struct {
	bigrams   map[[2]string]int
	unigrams  map[string]int
	vocabSize int
}

func (a *PerplexityAnalyzer) fit(chunks []string) *bigramModel {
	m := &bigramModel{
		bigrams:  make(map[[2]string]int),
		unigrams: make(map[string]int),
	}
	for _, chunk := range chunks {
		words := tokenize.Words(chunk)
		for i, w := range words {
			m.unigrams[w]++
			if i > 0 {
				m.bigrams[[2]string{words[i-1], w}]++
			}
		}
	}
	m.vocabSize = len(m.unigrams)
	return m
}

// perplexity is exp of the mean negative log transition probability.
func (m *bigramModel) perplexity(words []string) float64 {
	if len(words) < 2 || m.vocabSize == 0 {
		return maxPerplexity
	}
	logSum := 0.0
	for i := 1; i < len(words); i++ {
		num := float64(m.bigrams[[2]string{words[i-1], words[i]}] + 1)
		den := float64(m.unigrams[words[i-1]] + m.vocabSize)
		logSum += math.Log(num / den)
	}
	p := math.Exp(-logSum / float64(len(words)-1))
	if p > maxPerplexity {
		return maxPerplexity
	}
	return p
}

// Analyze scores every chunk against a model fitted on all of them.
func (a *PerplexityAnalyzer) Analyze(chunks []string) []ChunkReport {
	model := a.fit(chunks)
	reports := make([]ChunkReport, len(chunks))
	for i, chunk := range chunks {
		p := model.perplexity(tokenize.Words(chunk))
		reports[i] = classify(p)
		reports[i].ChunkIndex = i
	}
	return reports
}

func classify(perplexity float64) ChunkReport {
	r := ChunkReport{Perplexity: math.Round(perplexity*100) / 100}
	switch {
	case perplexity < perplexityBandHigh:
		r.IsAI = boolPtr(true)
		r.Confidence = 0.9
		r.Label = "High probability AI-generated"
	case perplexity < perplexityBandModerate:
		r.IsAI = boolPtr(true)
		r.Confidence = 0.7
		r.Label = "Moderate probability AI-generated"
	case perplexity < perplexityBandUncertain:
		r.Confidence = 0.5
		r.Label = "Uncertain origin"
	default:
		r.IsAI = boolPtr(false)
		r.Confidence = 0.8
		r.Label = "Likely human-written"
	}
	return r
}

// Summarize aggregates chunk reports into the document-level verdict.
func (a *PerplexityAnalyzer) Summarize(reports []ChunkReport) DocumentSummary {
	if len(reports) == 0 {
		return DocumentSummary{}
	}
	s := DocumentSummary{TotalChunks: len(reports)}
	sum := 0.0
	for _, r := range reports {
		switch {
		case r.IsAI == nil:
			s.UncertainChunks++
		case *r.IsAI:
			s.AIChunks++
		default:
			s.HumanChunks++
		}
		sum += r.Perplexity
	}
	s.AveragePerplexity = math.Round(sum/float64(len(reports))*100) / 100
	ratio := float64(s.AIChunks) / float64(s.TotalChunks)
	s.AIPercentage = math.Round(ratio*10000) / 100
	switch {
	case ratio > 0.5:
		s.OverallLabel = "Document contains significant AI-generated content"
		s.WarningLevel = "HIGH"
	case ratio > 0.2:
		s.OverallLabel = "Document contains some AI-generated content"
		s.WarningLevel = "MEDIUM"
	default:
		s.OverallLabel = "Document appears mostly human-written"
		s.WarningLevel = "LOW"
	}
	return s
}

func boolPtr(v bool) *bool { return &v }
