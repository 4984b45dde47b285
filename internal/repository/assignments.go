package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/RishiKendai/assignment-portal/internal/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const assignmentsCollection = "assignments"

type AssignmentsRepository struct {
	mongoRepo *MongoRepository
}

func NewAssignmentsRepository(mongoRepo *MongoRepository) *AssignmentsRepository {
	return &AssignmentsRepository{
		mongoRepo: mongoRepo,
	}
}

func (r *AssignmentsRepository) EnsureIndexes(ctx context.Context) error {
	err := r.mongoRepo.EnsureIndexes(ctx, assignmentsCollection,
		mongo.IndexModel{Keys: bson.D{{Key: "dueDate", Value: -1}}},
		mongo.IndexModel{Keys: bson.D{{Key: "teacherId", Value: 1}}},
	)
	if err != nil {
		return fmt.Errorf("failed to create assignment indexes: %w", err)
	}
	return nil
}

func (r *AssignmentsRepository) InsertAssignment(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	assignment.CreatedAt = time.Now().UTC()

	return r.mongoRepo.Insert(ctx, assignmentsCollection, assignment, nil)
}

// GetAssignmentByID returns nil, nil when no assignment matches
func (r *AssignmentsRepository) GetAssignmentByID(ctx context.Context, id string) (*models.Assignment, error) {
	return findOne[models.Assignment](ctx, r.mongoRepo, assignmentsCollection, bson.M{"_id": id})
}

// ListAssignments returns every assignment, latest due date first
func (r *AssignmentsRepository) ListAssignments(ctx context.Context) ([]*models.Assignment, error) {
	return r.find(ctx, bson.M{})
}

// ListAssignmentsByCohort pre-filters on the cohort with trimmed,
// case-insensitive matching. Callers still apply exact cohort semantics.
func (r *AssignmentsRepository) ListAssignmentsByCohort(ctx context.Context, cohort models.Cohort) ([]*models.Assignment, error) {
	return r.find(ctx, cohortFilter(cohort))
}

func (r *AssignmentsRepository) ListAssignmentsByTeacher(ctx context.Context, teacherID string) ([]*models.Assignment, error) {
	return r.find(ctx, bson.M{"teacherId": teacherID})
}

func (r *AssignmentsRepository) DeleteAssignment(ctx context.Context, id string) error {
	return r.mongoRepo.DeleteByID(ctx, assignmentsCollection, id)
}

// latest due date first
func (r *AssignmentsRepository) find(ctx context.Context, filter bson.M) ([]*models.Assignment, error) {
	sort := bson.D{{Key: "dueDate", Value: -1}, {Key: "createdAt", Value: -1}}
	return findAll[models.Assignment](ctx, r.mongoRepo, assignmentsCollection, filter, sort)
}
