package repository

import (
	"context"
	"errors"
	"fmt"

	mongoInfra "github.com/RishiKendai/assignment-portal/internal/infra/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrDuplicateSubmission = errors.New("submission already exists for this student and assignment")
	ErrDuplicateUser       = errors.New("user already exists")
)

// MongoRepository holds the collection plumbing shared by the entity
// repositories. Every document is keyed by a string _id.
type MongoRepository struct {
	db *mongo.Database
}

func NewMongoRepository(client *mongoInfra.Client) *MongoRepository {
	return &MongoRepository{
		db: client.Database,
	}
}

// Insert stores document. A unique index violation is reported as onDuplicate.
func (r *MongoRepository) Insert(ctx context.Context, collection string, document interface{}, onDuplicate error) error {
	_, err := r.db.Collection(collection).InsertOne(ctx, document)
	if err == nil {
		return nil
	}
	if onDuplicate != nil && mongo.IsDuplicateKeyError(err) {
		return onDuplicate
	}
	return fmt.Errorf("failed to insert into %s: %w", collection, err)
}

// UpdateByID applies update to one document; ErrNotFound if id does not exist.
func (r *MongoRepository) UpdateByID(ctx context.Context, collection, id string, update interface{}) error {
	res, err := r.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", collection, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s %s: %w", collection, id, ErrNotFound)
	}
	return nil
}

// DeleteByID removes one document; ErrNotFound if id does not exist.
func (r *MongoRepository) DeleteByID(ctx context.Context, collection, id string) error {
	res, err := r.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", collection, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%s %s: %w", collection, id, ErrNotFound)
	}
	return nil
}

func (r *MongoRepository) DeleteMany(ctx context.Context, collection string, filter interface{}) (int64, error) {
	res, err := r.db.Collection(collection).DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to delete from %s: %w", collection, err)
	}
	return res.DeletedCount, nil
}

func (r *MongoRepository) EnsureIndexes(ctx context.Context, collection string, indexes ...mongo.IndexModel) error {
	if len(indexes) == 0 {
		return nil
	}
	if _, err := r.db.Collection(collection).Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create %s indexes: %w", collection, err)
	}
	return nil
}

// findOne decodes the first match into a new T, or returns nil, nil when
// nothing matches.
func findOne[T any](ctx context.Context, r *MongoRepository, collection string, filter interface{}) (*T, error) {
	var out T
	err := r.db.Collection(collection).FindOne(ctx, filter).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find in %s: %w", collection, err)
	}
	return &out, nil
}

// findAll returns every match in sort order. The slice is never nil.
func findAll[T any](ctx context.Context, r *MongoRepository, collection string, filter interface{}, sort bson.D) ([]*T, error) {
	cursor, err := r.db.Collection(collection).Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	out := make([]*T, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", collection, err)
	}
	return out, nil
}
