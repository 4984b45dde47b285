package plagiarism

import (
	"fmt"
	"math"
)

type MetricKind string

const (
	MetricHashOnly    MetricKind = "hash_only"
	MetricWordOverlap MetricKind = "word_overlap"
	MetricTFIDFCosine MetricKind = "tfidf_cosine"
)

// Metric compares two normalized texts and returns a percentage in [0, 100]
type Metric interface {
	Kind() MetricKind
	Similarity(a, b string) float64
}

// NewMetric resolves a configured metric name
func NewMetric(name string) (Metric, error) {
	switch MetricKind(name) {
	case MetricHashOnly:
		return HashOnly(), nil
	case MetricWordOverlap:
		return WordOverlap(), nil
	case MetricTFIDFCosine:
		return TFIDFCosine(), nil
	default:
		return nil, fmt.Errorf("unknown similarity metric %q", name)
	}
}

type hashOnlyMetric struct{}

// HashOnly never finds fuzzy overlap; only byte-identical uploads score
func HashOnly() Metric { return hashOnlyMetric{} }

func (hashOnlyMetric) Kind() MetricKind { return MetricHashOnly }

func (hashOnlyMetric) Similarity(a, b string) float64 { return 0 }

type wordOverlapMetric struct{}

// WordOverlap is the Jaccard ratio of the two word sets
func WordOverlap() Metric { return wordOverlapMetric{} }

func (wordOverlapMetric) Kind() MetricKind { return MetricWordOverlap }

func (wordOverlapMetric) Similarity(a, b string) float64 {
	setA := toSet(Tokenize(a)...)
	setB := toSet(Tokenize(b)...)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	shared := 0
	for w := range setA {
		if setB[w] {
			shared++
		}
	}
	union := len(setA) + len(setB) - shared
	return clampPercent(100 * float64(shared) / float64(union))
}

type tfidfCosineMetric struct {
	stopWords map[string]bool
}

// TFIDFCosine weighs term counts by a smoothed inverse document frequency
// over the pair being compared and returns their cosine similarity.
func TFIDFCosine() Metric {
	return tfidfCosineMetric{stopWords: englishStopWords}
}

func (tfidfCosineMetric) Kind() MetricKind { return MetricTFIDFCosine }

func (m tfidfCosineMetric) Similarity(a, b string) float64 {
	countsA := m.termCounts(a)
	countsB := m.termCounts(b)
	if len(countsA) == 0 || len(countsB) == 0 {
		return 0
	}

	// idf = ln((1+n)/(1+df)) + 1 with n = 2 documents
	idf := func(term string) float64 {
		df := 0
		if countsA[term] > 0 {
			df++
		}
		if countsB[term] > 0 {
			df++
		}
		return math.Log(3.0/float64(1+df)) + 1
	}

	var dot, normA, normB float64
	for term, count := range countsA {
		w := float64(count) * idf(term)
		normA += w * w
		if other, ok := countsB[term]; ok {
			dot += w * float64(other) * idf(term)
		}
	}
	for term, count := range countsB {
		w := float64(count) * idf(term)
		normB += w * w
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return clampPercent(100 * dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

func (m tfidfCosineMetric) termCounts(text string) map[string]int {
	counts := make(map[string]int)
	for _, w := range Tokenize(text) {
		if len(w) < 2 || m.stopWords[w] {
			continue
		}
		counts[w]++
	}
	return counts
}

func clampPercent(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
