package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/RishiKendai/assignment-portal/internal/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	studentsCollection = "students"
	teachersCollection = "teachers"
)

type UsersRepository struct {
	mongoRepo *MongoRepository
}

func NewUsersRepository(mongoRepo *MongoRepository) *UsersRepository {
	return &UsersRepository{
		mongoRepo: mongoRepo,
	}
}

func (r *UsersRepository) EnsureIndexes(ctx context.Context) error {
	err := r.mongoRepo.EnsureIndexes(ctx, studentsCollection,
		mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		mongo.IndexModel{Keys: bson.D{{Key: "rollNo", Value: 1}}, Options: options.Index().SetUnique(true)},
	)
	if err != nil {
		return fmt.Errorf("failed to create student indexes: %w", err)
	}

	err = r.mongoRepo.EnsureIndexes(ctx, teachersCollection,
		mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	)
	if err != nil {
		return fmt.Errorf("failed to create teacher indexes: %w", err)
	}
	return nil
}

func (r *UsersRepository) InsertStudent(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	student.Email = normalizeEmail(student.Email)
	student.CreatedAt = time.Now().UTC()

	return r.mongoRepo.Insert(ctx, studentsCollection, student, ErrDuplicateUser)
}

func (r *UsersRepository) InsertTeacher(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	teacher.Email = normalizeEmail(teacher.Email)
	teacher.CreatedAt = time.Now().UTC()

	return r.mongoRepo.Insert(ctx, teachersCollection, teacher, ErrDuplicateUser)
}

// GetStudentByID returns nil, nil when no student matches
func (r *UsersRepository) GetStudentByID(ctx context.Context, id string) (*models.Student, error) {
	return findOne[models.Student](ctx, r.mongoRepo, studentsCollection, bson.M{"_id": id})
}

func (r *UsersRepository) GetStudentByEmail(ctx context.Context, email string) (*models.Student, error) {
	return findOne[models.Student](ctx, r.mongoRepo, studentsCollection, bson.M{"email": normalizeEmail(email)})
}

func (r *UsersRepository) GetTeacherByEmail(ctx context.Context, email string) (*models.Teacher, error) {
	return findOne[models.Teacher](ctx, r.mongoRepo, teachersCollection, bson.M{"email": normalizeEmail(email)})
}
