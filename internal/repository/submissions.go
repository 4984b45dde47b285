package repository

import (
	"context"
	"time"

	"github.com/RishiKendai/assignment-portal/internal/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const submissionsCollection = "submissions"

type SubmissionsRepository struct {
	mongoRepo *MongoRepository
}

func NewSubmissionsRepository(mongoRepo *MongoRepository) *SubmissionsRepository {
	return &SubmissionsRepository{
		mongoRepo: mongoRepo,
	}
}

// EnsureIndexes creates the unique (studentId, assignmentId) index that
// closes the check-then-insert race for concurrent uploads.
func (r *SubmissionsRepository) EnsureIndexes(ctx context.Context) error {
	return r.mongoRepo.EnsureIndexes(ctx, submissionsCollection,
		mongo.IndexModel{
			Keys:    bson.D{{Key: "studentId", Value: 1}, {Key: "assignmentId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_student_assignment"),
		},
		mongo.IndexModel{
			Keys: bson.D{{Key: "assignmentId", Value: 1}, {Key: "submittedAt", Value: 1}},
		},
	)
}

func (r *SubmissionsRepository) InsertSubmission(ctx context.Context, submission *models.Submission) error {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	if submission.SubmittedAt.IsZero() {
		submission.SubmittedAt = time.Now().UTC()
	}

	return r.mongoRepo.Insert(ctx, submissionsCollection, submission, ErrDuplicateSubmission)
}

// GetSubmissionByID returns nil, nil when no submission matches
func (r *SubmissionsRepository) GetSubmissionByID(ctx context.Context, id string) (*models.Submission, error) {
	return findOne[models.Submission](ctx, r.mongoRepo, submissionsCollection, bson.M{"_id": id})
}

// GetSubmissionByStudentAndAssignment returns nil, nil when the student has not submitted
func (r *SubmissionsRepository) GetSubmissionByStudentAndAssignment(ctx context.Context, studentID, assignmentID string) (*models.Submission, error) {
	filter := bson.M{"studentId": studentID, "assignmentId": assignmentID}
	return findOne[models.Submission](ctx, r.mongoRepo, submissionsCollection, filter)
}

func (r *SubmissionsRepository) ListSubmissionsByStudent(ctx context.Context, studentID string) ([]*models.Submission, error) {
	return r.find(ctx, bson.M{"studentId": studentID})
}

func (r *SubmissionsRepository) ListSubmissionsByAssignment(ctx context.Context, assignmentID string) ([]*models.Submission, error) {
	return r.find(ctx, bson.M{"assignmentId": assignmentID})
}

// PriorSubmissions returns the other submissions to the same assignment that
// were accepted no later than before.
func (r *SubmissionsRepository) PriorSubmissions(ctx context.Context, assignmentID, excludeID string, before time.Time) ([]*models.Submission, error) {
	filter := bson.M{
		"assignmentId": assignmentID,
		"_id":          bson.M{"$ne": excludeID},
		"submittedAt":  bson.M{"$lte": before},
	}
	return r.find(ctx, filter)
}

func (r *SubmissionsRepository) UpdateScore(ctx context.Context, id string, similarity float64, flagged bool, risk string) error {
	update := bson.M{"$set": bson.M{
		"similarity": similarity,
		"flagged":    flagged,
		"risk":       risk,
		"scoreStep":  models.StepCompleted,
	}}
	return r.mongoRepo.UpdateByID(ctx, submissionsCollection, id, update)
}

func (r *SubmissionsRepository) UpdateScoreStep(ctx context.Context, id string, step models.Step) error {
	return r.mongoRepo.UpdateByID(ctx, submissionsCollection, id, bson.M{"$set": bson.M{"scoreStep": step}})
}

func (r *SubmissionsRepository) SetMarks(ctx context.Context, id string, marks int) error {
	return r.mongoRepo.UpdateByID(ctx, submissionsCollection, id, bson.M{"$set": bson.M{"marks": marks}})
}

func (r *SubmissionsRepository) DeleteSubmission(ctx context.Context, id string) error {
	return r.mongoRepo.DeleteByID(ctx, submissionsCollection, id)
}

func (r *SubmissionsRepository) DeleteSubmissionsByAssignment(ctx context.Context, assignmentID string) (int64, error) {
	return r.mongoRepo.DeleteMany(ctx, submissionsCollection, bson.M{"assignmentId": assignmentID})
}

func (r *SubmissionsRepository) find(ctx context.Context, filter bson.M) ([]*models.Submission, error) {
	return findAll[models.Submission](ctx, r.mongoRepo, submissionsCollection, filter, bson.D{{Key: "submittedAt", Value: 1}})
}
