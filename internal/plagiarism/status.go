package plagiarism

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RishiKendai/assignment-portal/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	statusKeyPrefix = "plagiarism_score_status:"
	statusTTL       = 12 * time.Hour
)

// StatusStore tracks scoring progress per submission in Redis
type StatusStore struct {
	client redis.Cmdable
}

func NewStatusStore(client redis.Cmdable) *StatusStore {
	return &StatusStore{client: client}
}

func statusKey(submissionID string) string {
	return statusKeyPrefix + submissionID
}

func (s *StatusStore) UpdateStatus(ctx context.Context, submissionID string, step models.Step) error {
	if !step.Valid() {
		return fmt.Errorf("unknown step: %s", step)
	}

	rkey := statusKey(submissionID)
	if err := s.client.Set(ctx, rkey, string(step), statusTTL).Err(); err != nil {
		log.Error().Err(err).
			Str("step", string(step)).
			Str("submissionID", submissionID).
			Str("redisKey", rkey).
			Msg("Failed to update status in Redis")
		return fmt.Errorf("failed to update status in Redis: %w", err)
	}

	log.Trace().
		Str("step", string(step)).
		Str("submissionID", submissionID).
		Msg("Status updated in Redis")
	return nil
}

// GetStatus returns the last recorded step, or "" when none is recorded
// or the key has expired.
func (s *StatusStore) GetStatus(ctx context.Context, submissionID string) (models.Step, error) {
	val, err := s.client.Get(ctx, statusKey(submissionID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read status from Redis: %w", err)
	}
	return models.Step(val), nil
}
