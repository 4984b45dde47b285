package stream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Processor scores the submission a job refers to
type Processor interface {
	ScoreSubmission(ctx context.Context, submissionID string) error
	MarkFailed(ctx context.Context, submissionID string, cause error)
}

// ConsumerOptions tunes how the scoring worker reads the stream
type ConsumerOptions struct {
	// JobTimeout bounds a single scoring attempt
	JobTimeout time.Duration
	// Retention is how long entries are kept before the stream is trimmed
	Retention time.Duration
	// BatchSize is the number of entries read or reclaimed per call
	BatchSize int64
	// ClaimIdle is how long an entry must sit unacknowledged before another
	// worker may take it over
	ClaimIdle       time.Duration
	ReclaimInterval time.Duration
	CleanupInterval time.Duration
}

func DefaultConsumerOptions() ConsumerOptions {
	return ConsumerOptions{
		JobTimeout:      5 * time.Minute,
		Retention:       24 * time.Hour,
		BatchSize:       10,
		ClaimIdle:       time.Minute,
		ReclaimInterval: 30 * time.Second,
		CleanupInterval: time.Hour,
	}
}

func (o ConsumerOptions) withDefaults() ConsumerOptions {
	d := DefaultConsumerOptions()
	if o.JobTimeout <= 0 {
		o.JobTimeout = d.JobTimeout
	}
	if o.Retention <= 0 {
		o.Retention = d.Retention
	}
	if o.BatchSize <= 0 {
		o.BatchSize = d.BatchSize
	}
	if o.ClaimIdle <= 0 {
		o.ClaimIdle = d.ClaimIdle
	}
	if o.ReclaimInterval <= 0 {
		o.ReclaimInterval = d.ReclaimInterval
	}
	if o.CleanupInterval <= 0 {
		o.CleanupInterval = d.CleanupInterval
	}
	return o
}

// Consumer reads score jobs through a consumer group. Jobs stay in the
// pending list until they succeed or are dead-lettered, so a worker that
// dies mid-job has its entries reclaimed by the next one.
type Consumer struct {
	client       redis.Cmdable
	streamKey    string
	group        string
	name         string
	processor    Processor
	retryHandler *RetryHandler
	opts         ConsumerOptions
	lastReclaim  time.Time
	now          func() time.Time
}

func NewConsumer(
	client redis.Cmdable,
	streamKey string,
	group string,
	name string,
	processor Processor,
	retryHandler *RetryHandler,
	opts ConsumerOptions,
) *Consumer {
	return &Consumer{
		client:       client,
		streamKey:    streamKey,
		group:        group,
		name:         name,
		processor:    processor,
		retryHandler: retryHandler,
		opts:         opts.withDefaults(),
		now:          time.Now,
	}
}

// Start blocks until ctx is cancelled
func (c *Consumer) Start(ctx context.Context) error {
	if err := c.ensureGroup(ctx); err != nil {
		return err
	}

	// entries left behind by a crashed worker
	if _, err := c.reclaim(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to reclaim pending score jobs on startup")
	}
	c.lastReclaim = c.now()

	go c.trimPeriodically(ctx)

	log.Info().
		Str("stream", c.streamKey).
		Str("group", c.group).
		Str("consumer", c.name).
		Dur("retention", c.opts.Retention).
		Msg("Score job consumer running")

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := c.poll(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("Error reading score jobs")
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}
}

func (c *Consumer) ensureGroup(ctx context.Context) error {
	// "0" so jobs published before the group existed are still delivered
	err := c.client.XGroupCreateMkStream(ctx, c.streamKey, c.group, "0").Err()
	if err == nil {
		log.Info().Str("group", c.group).Str("stream", c.streamKey).Msg("Created consumer group")
		return nil
	}
	if strings.Contains(err.Error(), "BUSYGROUP") {
		return nil
	}
	return fmt.Errorf("failed to create consumer group: %w", err)
}

// reclaim takes over entries idle longer than ClaimIdle and processes them.
// It returns how many entries were handled.
func (c *Consumer) reclaim(ctx context.Context) (int, error) {
	handled := 0
	start := "0-0"
	for {
		msgs, next, err := c.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   c.streamKey,
			Group:    c.group,
			Consumer: c.name,
			MinIdle:  c.opts.ClaimIdle,
			Start:    start,
			Count:    c.opts.BatchSize,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return handled, nil
			}
			return handled, fmt.Errorf("failed to claim pending jobs: %w", err)
		}

		if len(msgs) > 0 {
			log.Info().Int("claimed", len(msgs)).Msg("Reclaimed idle score jobs")
		}
		for i := range msgs {
			if ctx.Err() != nil {
				return handled, ctx.Err()
			}
			_ = c.processMessage(ctx, &msgs[i])
			handled++
		}

		if next == "" || next == "0-0" {
			return handled, nil
		}
		start = next
	}
}

func (c *Consumer) poll(ctx context.Context) error {
	if c.now().Sub(c.lastReclaim) >= c.opts.ReclaimInterval {
		if _, err := c.reclaim(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to reclaim pending score jobs")
		}
		c.lastReclaim = c.now()
	}

	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.name,
		Streams:  []string{c.streamKey, ">"},
		Count:    c.opts.BatchSize,
		Block:    time.Second,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read from stream: %w", err)
	}

	for _, s := range streams {
		if s.Stream != c.streamKey {
			continue
		}
		for i := range s.Messages {
			_ = c.processMessage(ctx, &s.Messages[i])
		}
	}
	return nil
}

// processMessage runs one job. The entry is acknowledged once it has either
// succeeded or been parked on the dead-letter stream.
func (c *Consumer) processMessage(ctx context.Context, msg *redis.XMessage) error {
	fields := make(map[string]string, len(msg.Values))
	for key, val := range msg.Values {
		if value, ok := val.(string); ok {
			fields[key] = value
		}
	}

	job, err := ParseScoreJob(&StreamMessage{ID: msg.ID, Fields: fields})
	if err != nil {
		log.Error().Err(err).Str("message_id", msg.ID).Msg("Dropping malformed score job")
		_ = c.acknowledge(ctx, msg.ID)
		return err
	}

	logger := log.With().
		Str("message_id", msg.ID).
		Str("submissionId", job.SubmissionID).
		Str("reason", job.Reason).
		Logger()
	if !job.EnqueuedAt.IsZero() {
		logger.Debug().Dur("queued_for", c.now().Sub(job.EnqueuedAt)).Msg("Score job picked up")
	}

	err = c.retryHandler.RetryWithBackoff(ctx, func() error {
		jobCtx, cancel := context.WithTimeout(ctx, c.opts.JobTimeout)
		defer cancel()
		return c.processor.ScoreSubmission(jobCtx, job.SubmissionID)
	}, msg.ID, msg.Values)

	if err != nil {
		if ctx.Err() != nil {
			// shutting down; the entry stays pending for the next worker
			return err
		}
		logger.Error().Err(err).Msg("Score job failed")
		c.processor.MarkFailed(ctx, job.SubmissionID, err)
		_ = c.acknowledge(ctx, msg.ID)
		return err
	}

	return c.acknowledge(ctx, msg.ID)
}

// trim drops entries older than the retention window and returns how many
// were removed.
func (c *Consumer) trim(ctx context.Context) (int64, error) {
	cutoff := c.now().Add(-c.opts.Retention)
	trimmed, err := c.client.XTrimMinID(ctx, c.streamKey, fmt.Sprintf("%d-0", cutoff.UnixMilli())).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to trim stream: %w", err)
	}
	if trimmed > 0 {
		log.Debug().
			Int64("trimmed", trimmed).
			Time("cutoff", cutoff).
			Msg("Trimmed old score jobs")
	}
	return trimmed, nil
}

func (c *Consumer) trimPeriodically(ctx context.Context) {
	ticker := time.NewTicker(c.opts.CleanupInterval)
	defer ticker.Stop()

	for {
		if _, err := c.trim(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("Failed to trim score job stream")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (c *Consumer) acknowledge(ctx context.Context, messageID string) error {
	if err := c.client.XAck(ctx, c.streamKey, c.group, messageID).Err(); err != nil {
		log.Error().Err(err).Str("message_id", messageID).Msg("Failed to acknowledge score job")
		return err
	}
	return nil
}
