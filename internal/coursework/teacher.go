package coursework

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/RishiKendai/assignment-portal/internal/models"
	"github.com/RishiKendai/assignment-portal/internal/portal"
	"github.com/RishiKendai/assignment-portal/internal/repository"
	"github.com/RishiKendai/assignment-portal/internal/storage"
	"github.com/RishiKendai/assignment-portal/internal/stream"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// CreateAssignment stores the assignment file and then the record. The file
// is removed again if the record cannot be written.
func (s *Service) CreateAssignment(ctx context.Context, teacherID string, form models.CreateAssignmentForm, upload Upload) (*models.Assignment, error) {
	if len(upload.Data) == 0 {
		return nil, ErrEmptyFile
	}
	due, err := portal.ParseDueDate(form.DueDate)
	if err != nil {
		return nil, err
	}

	assignment := &models.Assignment{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(form.Title),
		TeacherID: teacherID,
		DueDate:   due,
		Cohort: portal.CleanCohort(models.Cohort{
			Year:    form.Year,
			Branch:  form.Branch,
			Section: form.Section,
		}),
		FileName: upload.Name,
	}

	ref, err := s.putFile(ctx, storage.AssignmentKey(assignment.ID, upload.Name), upload)
	if err != nil {
		return nil, err
	}
	assignment.FileRef = ref

	if err := s.assignments.InsertAssignment(ctx, assignment); err != nil {
		s.removeFile(ctx, ref)
		return nil, err
	}

	log.Info().
		Str("assignmentId", assignment.ID).
		Str("teacherId", teacherID).
		Str("dueDate", form.DueDate).
		Msg("Assignment created")
	return assignment, nil
}

// DeleteAssignment removes an assignment with all of its submissions and
// stored files. Only the teacher who created it may delete it.
func (s *Service) DeleteAssignment(ctx context.Context, teacherID, assignmentID string) error {
	assignment, err := s.getAssignment(ctx, assignmentID)
	if err != nil {
		return err
	}
	if assignment.TeacherID != teacherID {
		return ErrForbidden
	}

	subs, err := s.submissions.ListSubmissionsByAssignment(ctx, assignmentID)
	if err != nil {
		return err
	}
	deleted, err := s.submissions.DeleteSubmissionsByAssignment(ctx, assignmentID)
	if err != nil {
		return err
	}
	if err := s.assignments.DeleteAssignment(ctx, assignmentID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("assignment %s: %w", assignmentID, ErrNotFound)
		}
		return err
	}

	for _, sub := range subs {
		s.removeFile(ctx, sub.FileRef)
	}
	s.removeFile(ctx, assignment.FileRef)

	log.Info().
		Str("assignmentId", assignmentID).
		Int64("submissionsDeleted", deleted).
		Msg("Assignment deleted")
	return nil
}

// TeacherDashboard lists assignments by due date, latest first. With mine
// set only the caller's own assignments are returned.
func (s *Service) TeacherDashboard(ctx context.Context, teacherID string, mine bool) ([]*models.Assignment, error) {
	if mine {
		return s.assignments.ListAssignmentsByTeacher(ctx, teacherID)
	}
	return s.assignments.ListAssignments(ctx)
}

func (s *Service) AssignmentSubmissions(ctx context.Context, assignmentID string) ([]*models.Submission, error) {
	if _, err := s.getAssignment(ctx, assignmentID); err != nil {
		return nil, err
	}
	return s.submissions.ListSubmissionsByAssignment(ctx, assignmentID)
}

func (s *Service) SetMarks(ctx context.Context, submissionID string, marks int) (*models.Submission, error) {
	if err := s.submissions.SetMarks(ctx, submissionID, marks); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("submission %s: %w", submissionID, ErrNotFound)
		}
		return nil, err
	}
	return s.getSubmission(ctx, submissionID)
}

// Rescore queues a stored submission for scoring again
func (s *Service) Rescore(ctx context.Context, submissionID string) (models.Step, error) {
	sub, err := s.getSubmission(ctx, submissionID)
	if err != nil {
		return "", err
	}
	return s.enqueue(ctx, sub, stream.ReasonRescore), nil
}

func (s *Service) SubmissionFile(ctx context.Context, submissionID string) (string, []byte, error) {
	sub, err := s.getSubmission(ctx, submissionID)
	if err != nil {
		return "", nil, err
	}
	data, err := s.readFile(ctx, sub.FileRef)
	if err != nil {
		return "", nil, err
	}
	return sub.FileName, data, nil
}
