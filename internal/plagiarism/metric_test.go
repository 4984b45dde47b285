package plagiarism

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetric(t *testing.T) {
	for _, name := range []string{"hash_only", "word_overlap", "tfidf_cosine"} {
		m, err := NewMetric(name)
		require.NoError(t, err)
		assert.Equal(t, MetricKind(name), m.Kind())
	}

	_, err := NewMetric("levenshtein")
	assert.Error(t, err)
}

func TestTFIDFCosine(t *testing.T) {
	m := TFIDFCosine()

	tests := []struct {
		name  string
		a, b  string
		check func(t *testing.T, got float64)
	}{
		{
			name: "identical documents",
			a:    "binary search trees keep keys ordered",
			b:    "binary search trees keep keys ordered",
			check: func(t *testing.T, got float64) {
				assert.InDelta(t, 100, got, 0.001)
			},
		},
		{
			name: "disjoint vocabulary",
			a:    "binary search trees keep keys ordered",
			b:    "photosynthesis converts sunlight energy",
			check: func(t *testing.T, got float64) {
				assert.Equal(t, 0.0, got)
			},
		},
		{
			name: "only stop words",
			a:    "the and of to",
			b:    "the and of to",
			check: func(t *testing.T, got float64) {
				assert.Equal(t, 0.0, got)
			},
		},
		{
			name: "partial overlap",
			a:    "binary search trees keep keys ordered",
			b:    "binary heaps keep keys partially ordered",
			check: func(t *testing.T, got float64) {
				assert.Greater(t, got, 0.0)
				assert.Less(t, got, 100.0)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, m.Similarity(tt.a, tt.b))
		})
	}
}

func TestTFIDFCosineIsSymmetric(t *testing.T) {
	m := TFIDFCosine()
	a := "queues process requests in arrival order"
	b := "stacks process requests in reverse order"
	assert.InDelta(t, m.Similarity(a, b), m.Similarity(b, a), 1e-9)
}

func TestWordOverlap(t *testing.T) {
	m := WordOverlap()
	assert.InDelta(t, 50.0, m.Similarity("a b c", "b c d"), 1e-9)
	assert.InDelta(t, 100.0, m.Similarity("a b b", "b a"), 1e-9)
	assert.Equal(t, 0.0, m.Similarity("", "a"))
}

func TestHashOnly(t *testing.T) {
	assert.Equal(t, 0.0, HashOnly().Similarity("same text", "same text"))
}

func TestGetRiskLevel(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{score: 0, want: RiskOriginal},
		{score: 39.99, want: RiskOriginal},
		{score: 40, want: RiskSuspicious},
		{score: 69.99, want: RiskSuspicious},
		{score: 70, want: RiskLikelyCopy},
		{score: 100, want: RiskLikelyCopy},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GetRiskLevel(tt.score, 70), "score %v", tt.score)
	}
}
