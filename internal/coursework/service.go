package coursework

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RishiKendai/assignment-portal/internal/models"
	"github.com/RishiKendai/assignment-portal/internal/storage"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrDeadlinePassed   = errors.New("the due date for this assignment has passed")
	ErrAlreadySubmitted = errors.New("you have already submitted this assignment")
	ErrEmptyFile        = errors.New("uploaded file is empty")
)

type AssignmentStore interface {
	InsertAssignment(ctx context.Context, assignment *models.Assignment) error
	GetAssignmentByID(ctx context.Context, id string) (*models.Assignment, error)
	ListAssignments(ctx context.Context) ([]*models.Assignment, error)
	ListAssignmentsByCohort(ctx context.Context, cohort models.Cohort) ([]*models.Assignment, error)
	ListAssignmentsByTeacher(ctx context.Context, teacherID string) ([]*models.Assignment, error)
	DeleteAssignment(ctx context.Context, id string) error
}

type SubmissionStore interface {
	InsertSubmission(ctx context.Context, submission *models.Submission) error
	GetSubmissionByID(ctx context.Context, id string) (*models.Submission, error)
	GetSubmissionByStudentAndAssignment(ctx context.Context, studentID, assignmentID string) (*models.Submission, error)
	ListSubmissionsByStudent(ctx context.Context, studentID string) ([]*models.Submission, error)
	ListSubmissionsByAssignment(ctx context.Context, assignmentID string) ([]*models.Submission, error)
	UpdateScoreStep(ctx context.Context, id string, step models.Step) error
	SetMarks(ctx context.Context, id string, marks int) error
	DeleteSubmission(ctx context.Context, id string) error
	DeleteSubmissionsByAssignment(ctx context.Context, assignmentID string) (int64, error)
}

type StudentStore interface {
	GetStudentByID(ctx context.Context, id string) (*models.Student, error)
}

// Publisher queues a submission for asynchronous scoring
type Publisher interface {
	PublishScoreJob(ctx context.Context, submissionID, assignmentID, reason string) (string, error)
}

type StatusStore interface {
	UpdateStatus(ctx context.Context, submissionID string, step models.Step) error
	GetStatus(ctx context.Context, submissionID string) (models.Step, error)
}

// Upload is a file received from a client
type Upload struct {
	Name string
	Data []byte
}

type Service struct {
	assignments AssignmentStore
	submissions SubmissionStore
	students    StudentStore
	files       storage.Store
	publisher   Publisher
	status      StatusStore
	loc         *time.Location
	now         func() time.Time
}

func NewService(
	assignments AssignmentStore,
	submissions SubmissionStore,
	students StudentStore,
	files storage.Store,
	publisher Publisher,
	status StatusStore,
	loc *time.Location,
) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		assignments: assignments,
		submissions: submissions,
		students:    students,
		files:       files,
		publisher:   publisher,
		status:      status,
		loc:         loc,
		now:         time.Now,
	}
}

func (s *Service) getAssignment(ctx context.Context, id string) (*models.Assignment, error) {
	assignment, err := s.assignments.GetAssignmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignment: %w", err)
	}
	if assignment == nil {
		return nil, fmt.Errorf("assignment %s: %w", id, ErrNotFound)
	}
	return assignment, nil
}

func (s *Service) getSubmission(ctx context.Context, id string) (*models.Submission, error) {
	sub, err := s.submissions.GetSubmissionByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load submission: %w", err)
	}
	if sub == nil {
		return nil, fmt.Errorf("submission %s: %w", id, ErrNotFound)
	}
	return sub, nil
}

func (s *Service) getStudent(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.students.GetStudentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load student: %w", err)
	}
	if student == nil {
		return nil, fmt.Errorf("student %s: %w", id, ErrNotFound)
	}
	return student, nil
}

func (s *Service) putFile(ctx context.Context, key string, upload Upload) (string, error) {
	ref, err := s.files.Put(ctx, key, bytes.NewReader(upload.Data))
	if err != nil {
		return "", fmt.Errorf("failed to store file: %w", err)
	}
	return ref, nil
}

// removeFile deletes a stored object; failures only leave an orphan behind
func (s *Service) removeFile(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := s.files.Delete(ctx, ref); err != nil {
		log.Warn().Err(err).Str("fileRef", ref).Msg("Failed to delete stored file")
	}
}

func (s *Service) readFile(ctx context.Context, ref string) ([]byte, error) {
	data, err := s.files.Get(ctx, ref)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("file: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}
