package coursework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/RishiKendai/assignment-portal/internal/models"
	"github.com/RishiKendai/assignment-portal/internal/plagiarism"
	"github.com/RishiKendai/assignment-portal/internal/portal"
	"github.com/RishiKendai/assignment-portal/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc         *Service
	assignments *memoryAssignments
	submissions *memorySubmissions
	files       *storage.MemoryStore
	publisher   *recordingPublisher
	status      *memoryStatus
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		assignments: &memoryAssignments{byID: map[string]*models.Assignment{}},
		submissions: &memorySubmissions{byID: map[string]*models.Submission{}},
		files:       storage.NewMemoryStore(),
		publisher:   &recordingPublisher{},
		status:      &memoryStatus{steps: map[string]models.Step{}},
	}
	students := memoryStudents{
		"stu-1": {ID: "stu-1", Name: "Asha", Cohort: models.Cohort{Year: "3", Branch: "CSE", Section: "A"}},
		"stu-2": {ID: "stu-2", Name: "Ravi", Cohort: models.Cohort{Year: "3", Branch: "ECE", Section: "A"}},
	}
	f.svc = NewService(f.assignments, f.submissions, students, f.files, f.publisher, f.status, time.UTC)
	f.svc.now = func() time.Time { return time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC) }
	return f
}

func (f *fixture) createAssignment(t *testing.T, dueDate string) *models.Assignment {
	a, err := f.svc.CreateAssignment(context.Background(), "teacher-1", models.CreateAssignmentForm{
		Title:   " Trees ",
		DueDate: dueDate,
		Year:    "3",
		Branch:  " cse ",
		Section: "a",
	}, Upload{Name: "brief.pdf", Data: []byte("%PDF-1.4 brief")})
	require.NoError(t, err)
	return a
}

func TestCreateAssignment(t *testing.T) {
	f := newFixture(t)
	a := f.createAssignment(t, "2024-01-12")

	assert.Equal(t, "Trees", a.Title)
	assert.Equal(t, models.Cohort{Year: "3", Branch: "cse", Section: "a"}, a.Cohort)
	assert.Equal(t, time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC), a.DueDate)
	assert.Equal(t, 1, f.files.Len())

	name, data, err := f.svc.TeacherAssignmentFile(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "brief.pdf", name)
	assert.Equal(t, []byte("%PDF-1.4 brief"), data)
}

func TestCreateAssignmentRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	form := models.CreateAssignmentForm{Title: "T", DueDate: "2024-01-12", Year: "3", Branch: "CSE", Section: "A"}

	_, err := f.svc.CreateAssignment(ctx, "teacher-1", form, Upload{Name: "brief.pdf"})
	assert.ErrorIs(t, err, ErrEmptyFile)

	form.DueDate = "12/01/2024"
	_, err = f.svc.CreateAssignment(ctx, "teacher-1", form, Upload{Name: "brief.pdf", Data: []byte("x")})
	assert.Error(t, err)
	assert.Zero(t, f.files.Len())
}

func TestCreateAssignmentCleansUpFileOnInsertFailure(t *testing.T) {
	f := newFixture(t)
	f.assignments.err = errStoreDown

	_, err := f.svc.CreateAssignment(context.Background(), "teacher-1", models.CreateAssignmentForm{
		Title: "T", DueDate: "2024-01-12", Year: "3", Branch: "CSE", Section: "A",
	}, Upload{Name: "brief.pdf", Data: []byte("x")})
	assert.ErrorIs(t, err, errStoreDown)
	assert.Zero(t, f.files.Len())
}

func TestSubmit(t *testing.T) {
	f := newFixture(t)
	a := f.createAssignment(t, "2024-01-10")

	sub, step, err := f.svc.Submit(context.Background(), "stu-1", a.ID, Upload{Name: "answer.TXT", Data: []byte("my answer")})
	require.NoError(t, err)
	assert.Equal(t, models.StepQueued, step)
	assert.Equal(t, plagiarism.ContentHash([]byte("my answer")), sub.ContentHash)
	assert.Equal(t, "stu-1", sub.StudentID)
	assert.Equal(t, []string{"submitted:" + sub.ID}, f.publisher.jobs)
	assert.Equal(t, models.StepQueued, f.status.steps[sub.ID])
	assert.Equal(t, 2, f.files.Len())

	_, _, err = f.svc.Submit(context.Background(), "stu-1", a.ID, Upload{Name: "again.txt", Data: []byte("second try")})
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	assert.Equal(t, 2, f.files.Len())
}

func TestSubmitRejections(t *testing.T) {
	f := newFixture(t)
	open := f.createAssignment(t, "2024-01-11")
	closed := f.createAssignment(t, "2024-01-09")

	tests := []struct {
		name       string
		student    string
		assignment string
		upload     Upload
		wantErr    error
	}{
		{name: "deadline passed", student: "stu-1", assignment: closed.ID, upload: Upload{Name: "a.txt", Data: []byte("x")}, wantErr: ErrDeadlinePassed},
		{name: "other cohort", student: "stu-2", assignment: open.ID, upload: Upload{Name: "a.txt", Data: []byte("x")}, wantErr: ErrForbidden},
		{name: "empty file", student: "stu-1", assignment: open.ID, upload: Upload{Name: "a.txt"}, wantErr: ErrEmptyFile},
		{name: "unknown assignment", student: "stu-1", assignment: "missing", upload: Upload{Name: "a.txt", Data: []byte("x")}, wantErr: ErrNotFound},
		{name: "unknown student", student: "ghost", assignment: open.ID, upload: Upload{Name: "a.txt", Data: []byte("x")}, wantErr: ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.svc.Submit(context.Background(), tt.student, tt.assignment, tt.upload)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Empty(t, f.publisher.jobs)
}

func TestSubmitConcurrentDuplicateLosesCleanly(t *testing.T) {
	f := newFixture(t)
	a := f.createAssignment(t, "2024-01-11")

	_, _, err := f.svc.Submit(context.Background(), "stu-1", a.ID, Upload{Name: "a.txt", Data: []byte("first")})
	require.NoError(t, err)
	filesAfterFirst := f.files.Len()

	f.submissions.skipLookup = true
	_, _, err = f.svc.Submit(context.Background(), "stu-1", a.ID, Upload{Name: "b.txt", Data: []byte("second")})
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	assert.Equal(t, filesAfterFirst, f.files.Len())
}

func TestSubmitPublishFailureMarksFailed(t *testing.T) {
	f := newFixture(t)
	a := f.createAssignment(t, "2024-01-11")
	f.publisher.err = errors.New("redis down")

	sub, step, err := f.svc.Submit(context.Background(), "stu-1", a.ID, Upload{Name: "a.txt", Data: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, models.StepFailed, step)
	assert.Equal(t, models.StepFailed, f.submissions.byID[sub.ID].ScoreStep)

	f.publisher.err = nil
	step, err = f.svc.Rescore(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepQueued, step)
	assert.Equal(t, []string{"rescore:" + sub.ID}, f.publisher.jobs)
}

func TestStudentDashboard(t *testing.T) {
	f := newFixture(t)
	dueToday := f.createAssignment(t, "2024-01-10")
	later := f.createAssignment(t, "2024-01-20")
	expired := f.createAssignment(t, "2024-01-05")

	_, _, err := f.svc.Submit(context.Background(), "stu-1", later.ID, Upload{Name: "a.txt", Data: []byte("x")})
	require.NoError(t, err)

	dash, err := f.svc.StudentDashboard(context.Background(), "stu-1")
	require.NoError(t, err)

	require.Len(t, dash.Submitted, 1)
	assert.Equal(t, later.ID, dash.Submitted[0].Assignment.ID)

	require.Len(t, dash.Available, 2)
	byID := map[string]portal.AvailableAssignment{}
	for _, a := range dash.Available {
		byID[a.Assignment.ID] = a
	}
	assert.Equal(t, portal.TierUrgent, byID[dueToday.ID].Tier)
	assert.True(t, byID[dueToday.ID].CanUpload)
	assert.Equal(t, portal.TierExpired, byID[expired.ID].Tier)
	assert.False(t, byID[expired.ID].CanUpload)

	other, err := f.svc.StudentDashboard(context.Background(), "stu-2")
	require.NoError(t, err)
	assert.Empty(t, other.Available)
	assert.Empty(t, other.Submitted)
}

func TestDeleteSubmission(t *testing.T) {
	f := newFixture(t)
	a := f.createAssignment(t, "2024-01-10")
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.DeleteSubmission(ctx, "stu-1", a.ID), ErrNotFound)

	_, _, err := f.svc.Submit(ctx, "stu-1", a.ID, Upload{Name: "a.txt", Data: []byte("x")})
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteSubmission(ctx, "stu-1", a.ID))
	assert.Empty(t, f.submissions.byID)
	assert.Equal(t, 1, f.files.Len())

	// once withdrawn the student may submit again
	_, _, err = f.svc.Submit(ctx, "stu-1", a.ID, Upload{Name: "b.txt", Data: []byte("y")})
	require.NoError(t, err)

	f.svc.now = func() time.Time { return time.Date(2024, 1, 11, 0, 0, 1, 0, time.UTC) }
	assert.ErrorIs(t, f.svc.DeleteSubmission(ctx, "stu-1", a.ID), ErrDeadlinePassed)
}

func TestDeleteAssignmentCascades(t *testing.T) {
	f := newFixture(t)
	a := f.createAssignment(t, "2024-01-12")
	ctx := context.Background()

	_, _, err := f.svc.Submit(ctx, "stu-1", a.ID, Upload{Name: "a.txt", Data: []byte("x")})
	require.NoError(t, err)
	require.Equal(t, 2, f.files.Len())

	assert.ErrorIs(t, f.svc.DeleteAssignment(ctx, "teacher-2", a.ID), ErrForbidden)

	require.NoError(t, f.svc.DeleteAssignment(ctx, "teacher-1", a.ID))
	assert.Empty(t, f.assignments.byID)
	assert.Empty(t, f.submissions.byID)
	assert.Zero(t, f.files.Len())

	assert.ErrorIs(t, f.svc.DeleteAssignment(ctx, "teacher-1", a.ID), ErrNotFound)
}

func TestSubmissionStatus(t *testing.T) {
	f := newFixture(t)
	a := f.createAssignment(t, "2024-01-12")
	ctx := context.Background()

	sub, _, err := f.svc.Submit(ctx, "stu-1", a.ID, Upload{Name: "a.txt", Data: []byte("x")})
	require.NoError(t, err)

	f.status.steps[sub.ID] = models.StepComparing
	status, err := f.svc.SubmissionStatus(ctx, "stu-1", sub.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepComparing, status.Step)

	// expired live status falls back to the stored record
	delete(f.status.steps, sub.ID)
	f.submissions.byID[sub.ID].ScoreStep = models.StepCompleted
	f.submissions.byID[sub.ID].Similarity = 12.5
	status, err = f.svc.SubmissionStatus(ctx, "stu-1", sub.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepCompleted, status.Step)
	assert.Equal(t, 12.5, status.Similarity)

	f.status.err = errors.New("redis down")
	status, err = f.svc.SubmissionStatus(ctx, "stu-1", sub.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepCompleted, status.Step)

	_, err = f.svc.SubmissionStatus(ctx, "stu-2", sub.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetMarks(t *testing.T) {
	f := newFixture(t)
	a := f.createAssignment(t, "2024-01-12")
	ctx := context.Background()

	sub, _, err := f.svc.Submit(ctx, "stu-1", a.ID, Upload{Name: "a.txt", Data: []byte("x")})
	require.NoError(t, err)

	updated, err := f.svc.SetMarks(ctx, sub.ID, 85)
	require.NoError(t, err)
	require.NotNil(t, updated.Marks)
	assert.Equal(t, 85, *updated.Marks)

	_, err = f.svc.SetMarks(ctx, "missing", 10)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFilesAccess(t *testing.T) {
	f := newFixture(t)
	a := f.createAssignment(t, "2024-01-12")
	ctx := context.Background()

	name, _, err := f.svc.StudentAssignmentFile(ctx, "stu-1", a.ID)
	require.NoError(t, err)
	assert.Equal(t, "brief.pdf", name)

	_, _, err = f.svc.StudentAssignmentFile(ctx, "stu-2", a.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	sub, _, err := f.svc.Submit(ctx, "stu-1", a.ID, Upload{Name: "a.txt", Data: []byte("answer")})
	require.NoError(t, err)
	name, data, err := f.svc.SubmissionFile(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "a.txt", name)
	assert.Equal(t, []byte("answer"), data)
}

func TestTeacherDashboard(t *testing.T) {
	f := newFixture(t)
	first := f.createAssignment(t, "2024-01-12")
	second := f.createAssignment(t, "2024-01-20")
	f.assignments.byID[first.ID].TeacherID = "teacher-2"

	all, err := f.svc.TeacherDashboard(context.Background(), "teacher-1", false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)

	mine, err := f.svc.TeacherDashboard(context.Background(), "teacher-1", true)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, second.ID, mine[0].ID)
}
