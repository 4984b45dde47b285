package coursework

import (
	"context"
	"errors"
	"fmt"

	"github.com/RishiKendai/assignment-portal/internal/models"
	"github.com/RishiKendai/assignment-portal/internal/plagiarism"
	"github.com/RishiKendai/assignment-portal/internal/portal"
	"github.com/RishiKendai/assignment-portal/internal/repository"
	"github.com/RishiKendai/assignment-portal/internal/storage"
	"github.com/RishiKendai/assignment-portal/internal/stream"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func (s *Service) StudentDashboard(ctx context.Context, studentID string) (portal.Dashboard, error) {
	student, err := s.getStudent(ctx, studentID)
	if err != nil {
		return portal.Dashboard{}, err
	}

	assignments, err := s.assignments.ListAssignmentsByCohort(ctx, student.Cohort)
	if err != nil {
		return portal.Dashboard{}, err
	}
	subs, err := s.submissions.ListSubmissionsByStudent(ctx, studentID)
	if err != nil {
		return portal.Dashboard{}, err
	}

	return portal.Derive(student.Cohort, deref(assignments), deref(subs), portal.Today(s.now(), s.loc)), nil
}

// visibleAssignment loads an assignment the student is allowed to see
func (s *Service) visibleAssignment(ctx context.Context, student *models.Student, assignmentID string) (*models.Assignment, error) {
	assignment, err := s.getAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if !portal.CohortMatches(student.Cohort, assignment.Cohort) {
		return nil, ErrForbidden
	}
	return assignment, nil
}

func (s *Service) daysLeft(assignment *models.Assignment) int {
	return portal.DaysLeft(assignment.DueDate, portal.Today(s.now(), s.loc))
}

// Submit stores a student's work and queues it for originality scoring.
// A student gets one submission per assignment, accepted up to and
// including the due date.
func (s *Service) Submit(ctx context.Context, studentID, assignmentID string, upload Upload) (*models.Submission, models.Step, error) {
	student, err := s.getStudent(ctx, studentID)
	if err != nil {
		return nil, "", err
	}
	assignment, err := s.visibleAssignment(ctx, student, assignmentID)
	if err != nil {
		return nil, "", err
	}
	if !portal.CanUpload(s.daysLeft(assignment)) {
		return nil, "", ErrDeadlinePassed
	}
	if len(upload.Data) == 0 {
		return nil, "", ErrEmptyFile
	}

	existing, err := s.submissions.GetSubmissionByStudentAndAssignment(ctx, studentID, assignmentID)
	if err != nil {
		return nil, "", err
	}
	if existing != nil {
		return nil, "", ErrAlreadySubmitted
	}

	sub := &models.Submission{
		ID:           uuid.NewString(),
		StudentID:    studentID,
		AssignmentID: assignmentID,
		FileName:     upload.Name,
		ContentHash:  plagiarism.ContentHash(upload.Data),
		ScoreStep:    models.StepQueued,
		SubmittedAt:  s.now().UTC(),
	}

	ref, err := s.putFile(ctx, storage.SubmissionKey(assignmentID, studentID, upload.Name), upload)
	if err != nil {
		return nil, "", err
	}
	sub.FileRef = ref

	// the unique index settles concurrent uploads that both passed the check above
	if err := s.submissions.InsertSubmission(ctx, sub); err != nil {
		s.removeFile(ctx, ref)
		if errors.Is(err, repository.ErrDuplicateSubmission) {
			return nil, "", ErrAlreadySubmitted
		}
		return nil, "", err
	}

	log.Info().
		Str("submissionId", sub.ID).
		Str("assignmentId", assignmentID).
		Str("studentId", studentID).
		Int("bytes", len(upload.Data)).
		Msg("Submission stored")

	step := s.enqueue(ctx, sub, stream.ReasonSubmitted)
	sub.ScoreStep = step
	return sub, step, nil
}

// enqueue publishes a score job. If the job cannot be published the
// submission is marked failed so a teacher can rescore it later.
func (s *Service) enqueue(ctx context.Context, sub *models.Submission, reason string) models.Step {
	step := models.StepQueued
	if _, err := s.publisher.PublishScoreJob(ctx, sub.ID, sub.AssignmentID, reason); err != nil {
		log.Error().Err(err).Str("submissionId", sub.ID).Msg("Failed to queue submission for scoring")
		step = models.StepFailed
	}

	if err := s.submissions.UpdateScoreStep(ctx, sub.ID, step); err != nil {
		log.Warn().Err(err).Str("submissionId", sub.ID).Msg("Failed to store scoring step")
	}
	if err := s.status.UpdateStatus(ctx, sub.ID, step); err != nil {
		log.Warn().Err(err).Str("submissionId", sub.ID).Msg("Failed to mirror scoring status")
	}
	return step
}

// DeleteSubmission withdraws a student's submission while the assignment
// is still open.
func (s *Service) DeleteSubmission(ctx context.Context, studentID, assignmentID string) error {
	assignment, err := s.getAssignment(ctx, assignmentID)
	if err != nil {
		return err
	}
	if !portal.CanUpload(s.daysLeft(assignment)) {
		return ErrDeadlinePassed
	}

	sub, err := s.submissions.GetSubmissionByStudentAndAssignment(ctx, studentID, assignmentID)
	if err != nil {
		return err
	}
	if sub == nil {
		return fmt.Errorf("submission: %w", ErrNotFound)
	}
	if err := s.submissions.DeleteSubmission(ctx, sub.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("submission %s: %w", sub.ID, ErrNotFound)
		}
		return err
	}
	s.removeFile(ctx, sub.FileRef)

	log.Info().Str("submissionId", sub.ID).Str("studentId", studentID).Msg("Submission withdrawn")
	return nil
}

// SubmissionStatus reports scoring progress for the student's own
// submission, preferring the live status over the stored step.
func (s *Service) SubmissionStatus(ctx context.Context, studentID, submissionID string) (*models.StatusResponse, error) {
	sub, err := s.getSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.StudentID != studentID {
		return nil, fmt.Errorf("submission %s: %w", submissionID, ErrNotFound)
	}

	step := sub.ScoreStep
	if live, err := s.status.GetStatus(ctx, submissionID); err != nil {
		log.Warn().Err(err).Str("submissionId", submissionID).Msg("Failed to read live scoring status")
	} else if live != "" {
		step = live
	}

	return &models.StatusResponse{
		SubmissionID: sub.ID,
		Step:         step,
		Similarity:   sub.Similarity,
		Flagged:      sub.Flagged,
		Risk:         sub.Risk,
	}, nil
}

// StudentAssignmentFile returns the assignment brief if the student's
// cohort can see it.
func (s *Service) StudentAssignmentFile(ctx context.Context, studentID, assignmentID string) (string, []byte, error) {
	student, err := s.getStudent(ctx, studentID)
	if err != nil {
		return "", nil, err
	}
	assignment, err := s.visibleAssignment(ctx, student, assignmentID)
	if err != nil {
		return "", nil, err
	}
	data, err := s.readFile(ctx, assignment.FileRef)
	if err != nil {
		return "", nil, err
	}
	return assignment.FileName, data, nil
}

func (s *Service) TeacherAssignmentFile(ctx context.Context, assignmentID string) (string, []byte, error) {
	assignment, err := s.getAssignment(ctx, assignmentID)
	if err != nil {
		return "", nil, err
	}
	data, err := s.readFile(ctx, assignment.FileRef)
	if err != nil {
		return "", nil, err
	}
	return assignment.FileName, data, nil
}

func deref[T any](items []*T) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if item != nil {
			out = append(out, *item)
		}
	}
	return out
}
