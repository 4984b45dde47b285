package plagiarism

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/RishiKendai/assignment-portal/internal/metrics"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

// Fetcher loads stored document bytes by reference
type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// TextExtractor turns document bytes into raw text; failures yield ""
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, fileName string) string
}

type Outcome string

const (
	OutcomeNoPriors         Outcome = "no_priors"
	OutcomeExactMatch       Outcome = "exact_match"
	OutcomeNoExactMatch     Outcome = "no_exact_match"
	OutcomeInsufficientText Outcome = "insufficient_text"
	OutcomeCompared         Outcome = "compared"
)

type ScoreRequest struct {
	AssignmentID string `validate:"required"`
	SubmissionID string
	Content      []byte
	ContentHash  string `validate:"omitempty,max=128"`
	FileName     string `validate:"max=255"`
}

// Prior is an earlier submission to the same assignment
type Prior struct {
	SubmissionID string
	ContentHash  string
	FileRef      string
	FileName     string
}

type Verdict struct {
	Score    float64
	Flagged  bool
	Risk     string
	Outcome  Outcome
	Compared int
}

type Options struct {
	Metric             Metric
	MinTextLength      int
	EarlyExitThreshold float64
	FlagThreshold      float64
	FetchTimeout       time.Duration
}

func DefaultOptions() Options {
	return Options{
		Metric:             TFIDFCosine(),
		MinTextLength:      100,
		EarlyExitThreshold: 95,
		FlagThreshold:      70,
		FetchTimeout:       15 * time.Second,
	}
}

// Scorer rates how much a new submission overlaps earlier submissions to
// the same assignment. It never persists anything.
type Scorer struct {
	fetcher   Fetcher
	extractor TextExtractor
	pool      *WorkerPool
	opts      Options
	validate  *validator.Validate
}

// NewScorer builds a scorer. A nil pool compares priors sequentially.
func NewScorer(fetcher Fetcher, extractor TextExtractor, pool *WorkerPool, opts Options) *Scorer {
	defaults := DefaultOptions()
	if opts.Metric == nil {
		opts.Metric = defaults.Metric
	}
	if opts.EarlyExitThreshold <= 0 {
		opts.EarlyExitThreshold = defaults.EarlyExitThreshold
	}
	if opts.FlagThreshold <= 0 {
		opts.FlagThreshold = defaults.FlagThreshold
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaults.FetchTimeout
	}
	return &Scorer{
		fetcher:   fetcher,
		extractor: extractor,
		pool:      pool,
		opts:      opts,
		validate:  validator.New(),
	}
}

var ErrEmptySubmission = errors.New("submission has neither content nor content hash")

// Score returns the highest similarity between the request and any prior,
// as a percentage rounded to two decimals.
func (s *Scorer) Score(ctx context.Context, req ScoreRequest, priors []Prior) (Verdict, error) {
	if err := s.validate.Struct(req); err != nil {
		return Verdict{}, fmt.Errorf("invalid score request: %w", err)
	}
	if len(req.Content) == 0 && req.ContentHash == "" {
		return Verdict{}, ErrEmptySubmission
	}

	start := time.Now()
	verdict := s.score(ctx, req, priors)
	metrics.ScoringCount.WithLabelValues(string(verdict.Outcome)).Inc()
	metrics.ScoringDuration.Observe(time.Since(start).Seconds())

	log.Debug().
		Str("assignmentId", req.AssignmentID).
		Str("submissionId", req.SubmissionID).
		Str("outcome", string(verdict.Outcome)).
		Int("priors", len(priors)).
		Int("compared", verdict.Compared).
		Float64("score", verdict.Score).
		Dur("took", time.Since(start)).
		Msg("Originality scored")
	return verdict, nil
}

func (s *Scorer) score(ctx context.Context, req ScoreRequest, priors []Prior) Verdict {
	if len(priors) == 0 {
		return s.verdict(0, OutcomeNoPriors, 0)
	}

	hash := req.ContentHash
	if hash == "" {
		hash = ContentHash(req.Content)
	}
	for _, prior := range priors {
		if prior.ContentHash != "" && prior.ContentHash == hash {
			return s.verdict(100, OutcomeExactMatch, 1)
		}
	}

	if s.opts.Metric.Kind() == MetricHashOnly {
		return s.verdict(0, OutcomeNoExactMatch, 0)
	}

	text := Normalize(s.extractor.Extract(ctx, req.Content, req.FileName))
	if utf8.RuneCountInString(text) < s.opts.MinTextLength {
		return s.verdict(0, OutcomeInsufficientText, 0)
	}

	var best float64
	var compared int
	if s.pool == nil {
		best, compared = s.compareSequential(ctx, text, priors)
	} else {
		best, compared = s.compareConcurrent(ctx, text, priors)
	}
	return s.verdict(best, OutcomeCompared, compared)
}

func (s *Scorer) verdict(score float64, outcome Outcome, compared int) Verdict {
	score = round2(clampPercent(score))
	return Verdict{
		Score:    score,
		Flagged:  score >= s.opts.FlagThreshold,
		Risk:     GetRiskLevel(score, s.opts.FlagThreshold),
		Outcome:  outcome,
		Compared: compared,
	}
}

func (s *Scorer) compareSequential(ctx context.Context, text string, priors []Prior) (float64, int) {
	best, compared := 0.0, 0
	for _, prior := range priors {
		if ctx.Err() != nil {
			break
		}
		best = max(best, s.compare(ctx, text, prior))
		compared++
		if best >= s.opts.EarlyExitThreshold {
			break
		}
	}
	return best, compared
}

// compareConcurrent fans priors out to the pool and cancels outstanding
// comparisons once the early-exit threshold is reached.
func (s *Scorer) compareConcurrent(ctx context.Context, text string, priors []Prior) (float64, int) {
	cmpCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan float64, len(priors))
	submitted := 0
	for _, prior := range priors {
		job := &comparisonJob{ctx: cmpCtx, scorer: s, text: text, prior: prior, results: results}
		if err := s.pool.Submit(job); err != nil {
			log.Warn().Err(err).Msg("Comparison pool unavailable, stopping fan-out")
			break
		}
		submitted++
	}

	best, received := 0.0, 0
	for received < submitted {
		select {
		case similarity := <-results:
			received++
			best = max(best, similarity)
			if best >= s.opts.EarlyExitThreshold {
				return best, received
			}
		case <-ctx.Done():
			return best, received
		case <-s.pool.Done():
			return best, received
		}
	}
	return best, received
}

// compare fetches and extracts one prior. Any failure scores that prior 0.
func (s *Scorer) compare(ctx context.Context, text string, prior Prior) float64 {
	fetchCtx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	data, err := s.fetcher.Fetch(fetchCtx, prior.FileRef)
	cancel()
	if err != nil {
		if ctx.Err() == nil {
			metrics.PriorFetchFailures.Inc()
			log.Warn().Err(err).
				Str("priorId", prior.SubmissionID).
				Msg("Skipping prior submission, fetch failed")
		}
		return 0
	}

	priorText := Normalize(s.extractor.Extract(ctx, data, prior.FileName))
	if utf8.RuneCountInString(priorText) < s.opts.MinTextLength {
		return 0
	}
	return s.opts.Metric.Similarity(text, priorText)
}

type comparisonJob struct {
	ctx     context.Context
	scorer  *Scorer
	text    string
	prior   Prior
	results chan<- float64
}

func (j *comparisonJob) Execute(ctx context.Context) error {
	similarity := 0.0
	defer func() { j.results <- similarity }()

	if ctx.Err() != nil || j.ctx.Err() != nil {
		return nil
	}
	similarity = j.scorer.compare(j.ctx, j.text, j.prior)
	return nil
}
