package scoring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RishiKendai/assignment-portal/internal/models"
	"github.com/RishiKendai/assignment-portal/internal/plagiarism"
	"github.com/RishiKendai/assignment-portal/internal/repository"
	"github.com/RishiKendai/assignment-portal/internal/storage"
	"github.com/rs/zerolog/log"
)

type SubmissionStore interface {
	GetSubmissionByID(ctx context.Context, id string) (*models.Submission, error)
	PriorSubmissions(ctx context.Context, assignmentID, excludeID string, before time.Time) ([]*models.Submission, error)
	UpdateScore(ctx context.Context, id string, similarity float64, flagged bool, risk string) error
	UpdateScoreStep(ctx context.Context, id string, step models.Step) error
}

type StatusTracker interface {
	UpdateStatus(ctx context.Context, submissionID string, step models.Step) error
}

type Scorer interface {
	Score(ctx context.Context, req plagiarism.ScoreRequest, priors []plagiarism.Prior) (plagiarism.Verdict, error)
}

// Service scores stored submissions and persists the verdict
type Service struct {
	submissions  SubmissionStore
	fetcher      plagiarism.Fetcher
	scorer       Scorer
	status       StatusTracker
	fetchTimeout time.Duration
}

func NewService(submissions SubmissionStore, fetcher plagiarism.Fetcher, scorer Scorer, status StatusTracker, fetchTimeout time.Duration) *Service {
	return &Service{
		submissions:  submissions,
		fetcher:      fetcher,
		scorer:       scorer,
		status:       status,
		fetchTimeout: fetchTimeout,
	}
}

// ScoreSubmission compares a submission against earlier submissions to the
// same assignment. A submission that no longer exists is skipped.
func (s *Service) ScoreSubmission(ctx context.Context, submissionID string) error {
	sub, err := s.submissions.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return fmt.Errorf("failed to load submission: %w", err)
	}
	if sub == nil {
		log.Warn().Str("submissionId", submissionID).Msg("Submission deleted before scoring, skipping")
		return nil
	}

	s.setStep(ctx, submissionID, models.StepExtracting)

	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	content, err := s.fetcher.Fetch(fetchCtx, sub.FileRef)
	cancel()
	if errors.Is(err, storage.ErrNotFound) {
		log.Error().Str("submissionId", submissionID).Str("fileRef", sub.FileRef).Msg("Submission file missing, cannot score")
		s.MarkFailed(ctx, submissionID, err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to fetch submission file: %w", err)
	}

	priorSubs, err := s.submissions.PriorSubmissions(ctx, sub.AssignmentID, sub.ID, sub.SubmittedAt)
	if err != nil {
		return fmt.Errorf("failed to load prior submissions: %w", err)
	}
	priors := make([]plagiarism.Prior, 0, len(priorSubs))
	for _, p := range priorSubs {
		priors = append(priors, plagiarism.Prior{
			SubmissionID: p.ID,
			ContentHash:  p.ContentHash,
			FileRef:      p.FileRef,
			FileName:     p.FileName,
		})
	}

	s.setStep(ctx, submissionID, models.StepComparing)

	verdict, err := s.scorer.Score(ctx, plagiarism.ScoreRequest{
		AssignmentID: sub.AssignmentID,
		SubmissionID: sub.ID,
		Content:      content,
		ContentHash:  sub.ContentHash,
		FileName:     sub.FileName,
	}, priors)
	if err != nil {
		return fmt.Errorf("failed to score submission: %w", err)
	}

	err = s.submissions.UpdateScore(ctx, sub.ID, verdict.Score, verdict.Flagged, verdict.Risk)
	if errors.Is(err, repository.ErrNotFound) {
		log.Warn().Str("submissionId", submissionID).Msg("Submission deleted while scoring, dropping verdict")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to store score: %w", err)
	}
	s.setStatus(ctx, submissionID, models.StepCompleted)

	log.Info().
		Str("submissionId", sub.ID).
		Str("assignmentId", sub.AssignmentID).
		Float64("similarity", verdict.Score).
		Str("risk", verdict.Risk).
		Bool("flagged", verdict.Flagged).
		Msg("Submission scored")
	return nil
}

// MarkFailed records that scoring gave up on a submission
func (s *Service) MarkFailed(ctx context.Context, submissionID string, cause error) {
	log.Error().Err(cause).Str("submissionId", submissionID).Msg("Scoring failed")
	if err := s.submissions.UpdateScoreStep(ctx, submissionID, models.StepFailed); err != nil && !errors.Is(err, repository.ErrNotFound) {
		log.Error().Err(err).Str("submissionId", submissionID).Msg("Failed to record scoring failure")
	}
	s.setStatus(ctx, submissionID, models.StepFailed)
}

func (s *Service) setStep(ctx context.Context, submissionID string, step models.Step) {
	if err := s.submissions.UpdateScoreStep(ctx, submissionID, step); err != nil {
		log.Warn().Err(err).Str("submissionId", submissionID).Str("step", string(step)).Msg("Failed to store scoring step")
	}
	s.setStatus(ctx, submissionID, step)
}

// setStatus mirrors progress to Redis; the stored record stays authoritative
func (s *Service) setStatus(ctx context.Context, submissionID string, step models.Step) {
	if err := s.status.UpdateStatus(ctx, submissionID, step); err != nil {
		log.Warn().Err(err).Str("submissionId", submissionID).Msg("Failed to mirror scoring status")
	}
}
