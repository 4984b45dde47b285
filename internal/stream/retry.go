package stream

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RetryHandler retries a job with exponential backoff and parks it on the
// dead-letter stream once every attempt has failed.
type RetryHandler struct {
	client        redis.Cmdable
	deadLetterKey string
	maxAttempts   int
	baseDelay     time.Duration
}

func NewRetryHandler(client redis.Cmdable, deadLetterKey string, maxAttempts int, baseDelay time.Duration) *RetryHandler {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &RetryHandler{
		client:        client,
		deadLetterKey: deadLetterKey,
		maxAttempts:   maxAttempts,
		baseDelay:     baseDelay,
	}
}

func (h *RetryHandler) RetryWithBackoff(ctx context.Context, fn func() error, messageID string, fields map[string]interface{}) error {
	var lastErr error
	for attempt := 1; attempt <= h.maxAttempts; attempt++ {
		if lastErr = fn(); lastErr == nil {
			return nil
		}

		log.Warn().
			Err(lastErr).
			Str("message_id", messageID).
			Int("attempt", attempt).
			Int("max_attempts", h.maxAttempts).
			Msg("Job attempt failed")

		if attempt == h.maxAttempts {
			break
		}
		delay := h.baseDelay * time.Duration(1<<(attempt-1))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	if err := h.sendToDeadLetter(ctx, messageID, fields, lastErr); err != nil {
		log.Error().Err(err).Str("message_id", messageID).Msg("Failed to write dead letter")
	}
	return fmt.Errorf("job %s failed after %d attempts: %w", messageID, h.maxAttempts, lastErr)
}

func (h *RetryHandler) sendToDeadLetter(ctx context.Context, messageID string, fields map[string]interface{}, cause error) error {
	values := make(map[string]interface{}, len(fields)+3)
	for k, v := range fields {
		values[k] = v
	}
	values["originalId"] = messageID
	values["error"] = cause.Error()
	values["failedAt"] = time.Now().UTC().Format(time.RFC3339)

	id, err := h.client.XAdd(ctx, &redis.XAddArgs{
		Stream: h.deadLetterKey,
		Values: values,
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to add to dead letter stream: %w", err)
	}

	log.Error().
		Str("message_id", messageID).
		Str("dead_letter_id", id).
		Str("stream", h.deadLetterKey).
		Msg("Job moved to dead letter stream")
	return nil
}
