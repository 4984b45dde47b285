package coursework

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/RishiKendai/assignment-portal/internal/models"
	"github.com/RishiKendai/assignment-portal/internal/portal"
	"github.com/RishiKendai/assignment-portal/internal/repository"
)

type memoryAssignments struct {
	mu   sync.Mutex
	byID map[string]*models.Assignment
	err  error
}

func (m *memoryAssignments) InsertAssignment(_ context.Context, a *models.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	copied := *a
	m.byID[a.ID] = &copied
	return nil
}

func (m *memoryAssignments) GetAssignmentByID(_ context.Context, id string) (*models.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	copied := *a
	return &copied, nil
}

func (m *memoryAssignments) list(keep func(*models.Assignment) bool) []*models.Assignment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.Assignment{}
	for _, a := range m.byID {
		if keep(a) {
			copied := *a
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.After(out[j].DueDate) })
	return out
}

func (m *memoryAssignments) ListAssignments(_ context.Context) ([]*models.Assignment, error) {
	return m.list(func(*models.Assignment) bool { return true }), nil
}

func (m *memoryAssignments) ListAssignmentsByCohort(_ context.Context, cohort models.Cohort) ([]*models.Assignment, error) {
	return m.list(func(a *models.Assignment) bool { return portal.CohortMatches(cohort, a.Cohort) }), nil
}

func (m *memoryAssignments) ListAssignmentsByTeacher(_ context.Context, teacherID string) ([]*models.Assignment, error) {
	return m.list(func(a *models.Assignment) bool { return a.TeacherID == teacherID }), nil
}

func (m *memoryAssignments) DeleteAssignment(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type memorySubmissions struct {
	mu         sync.Mutex
	byID       map[string]*models.Submission
	skipLookup bool // simulates a concurrent upload that passed the pre-check
}

func (m *memorySubmissions) InsertSubmission(_ context.Context, s *models.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.StudentID == s.StudentID && existing.AssignmentID == s.AssignmentID {
			return repository.ErrDuplicateSubmission
		}
	}
	copied := *s
	m.byID[s.ID] = &copied
	return nil
}

func (m *memorySubmissions) GetSubmissionByID(_ context.Context, id string) (*models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (m *memorySubmissions) GetSubmissionByStudentAndAssignment(_ context.Context, studentID, assignmentID string) (*models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.skipLookup {
		return nil, nil
	}
	for _, s := range m.byID {
		if s.StudentID == studentID && s.AssignmentID == assignmentID {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *memorySubmissions) filter(keep func(*models.Submission) bool) []*models.Submission {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.Submission{}
	for _, s := range m.byID {
		if keep(s) {
			copied := *s
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out
}

func (m *memorySubmissions) ListSubmissionsByStudent(_ context.Context, studentID string) ([]*models.Submission, error) {
	return m.filter(func(s *models.Submission) bool { return s.StudentID == studentID }), nil
}

func (m *memorySubmissions) ListSubmissionsByAssignment(_ context.Context, assignmentID string) ([]*models.Submission, error) {
	return m.filter(func(s *models.Submission) bool { return s.AssignmentID == assignmentID }), nil
}

func (m *memorySubmissions) update(id string, fn func(*models.Submission)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(s)
	return nil
}

func (m *memorySubmissions) UpdateScoreStep(_ context.Context, id string, step models.Step) error {
	return m.update(id, func(s *models.Submission) { s.ScoreStep = step })
}

func (m *memorySubmissions) SetMarks(_ context.Context, id string, marks int) error {
	return m.update(id, func(s *models.Submission) { s.Marks = &marks })
}

func (m *memorySubmissions) DeleteSubmission(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memorySubmissions) DeleteSubmissionsByAssignment(_ context.Context, assignmentID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.byID {
		if s.AssignmentID == assignmentID {
			delete(m.byID, id)
			n++
		}
	}
	return n, nil
}

type memoryStudents map[string]*models.Student

func (m memoryStudents) GetStudentByID(_ context.Context, id string) (*models.Student, error) {
	return m[id], nil
}

type recordingPublisher struct {
	mu   sync.Mutex
	jobs []string
	err  error
}

func (p *recordingPublisher) PublishScoreJob(_ context.Context, submissionID, assignmentID, reason string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.jobs = append(p.jobs, reason+":"+submissionID)
	return "1-0", nil
}

type memoryStatus struct {
	mu    sync.Mutex
	steps map[string]models.Step
	err   error
}

func (m *memoryStatus) UpdateStatus(_ context.Context, id string, step models.Step) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps[id] = step
	return nil
}

func (m *memoryStatus) GetStatus(_ context.Context, id string) (models.Step, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	return m.steps[id], nil
}

var errStoreDown = errors.New("store unavailable")
