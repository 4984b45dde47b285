package stream

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Producer enqueues scoring jobs on the scoring stream
type Producer struct {
	client    redis.Cmdable
	streamKey string
}

func NewProducer(client redis.Cmdable, streamKey string) *Producer {
	return &Producer{client: client, streamKey: streamKey}
}

// PublishScoreJob appends the job to the stream and returns its entry ID
func (p *Producer) PublishScoreJob(ctx context.Context, submissionID, assignmentID, reason string) (string, error) {
	job := ScoreJob{
		SubmissionID: submissionID,
		AssignmentID: assignmentID,
		Reason:       reason,
		EnqueuedAt:   time.Now(),
	}

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.streamKey,
		Values: job.values(),
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to publish score job: %w", err)
	}

	log.Debug().
		Str("message_id", id).
		Str("submissionId", submissionID).
		Str("reason", reason).
		Msg("Score job published")
	return id, nil
}
