package stream

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScoreJob(t *testing.T) {
	tests := []struct {
		name    string
		fields  map[string]string
		want    ScoreJob
		wantErr bool
	}{
		{
			name:   "defaults reason",
			fields: map[string]string{"submissionId": "s1", "assignmentId": "a1"},
			want:   ScoreJob{SubmissionID: "s1", AssignmentID: "a1", Reason: ReasonSubmitted},
		},
		{
			name: "full",
			fields: map[string]string{
				"submissionId": "s1", "assignmentId": "a1", "reason": "rescore",
				"enqueuedAt": "2024-03-01T10:00:00Z",
			},
			want: ScoreJob{
				SubmissionID: "s1", AssignmentID: "a1", Reason: ReasonRescore,
				EnqueuedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
			},
		},
		{name: "missing submission", fields: map[string]string{"assignmentId": "a1"}, wantErr: true},
		{name: "bad timestamp", fields: map[string]string{"submissionId": "s1", "assignmentId": "a1", "enqueuedAt": "yesterday"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseScoreJob(&StreamMessage{ID: "1-0", Fields: tt.fields})
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedMessage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProducerPublishScoreJob(t *testing.T) {
	rdb := newFakeRedis()
	p := NewProducer(rdb, "portal:scoring")

	id, err := p.PublishScoreJob(context.Background(), "s1", "a1", ReasonSubmitted)
	require.NoError(t, err)
	assert.Equal(t, "1-0", id)

	require.Len(t, rdb.added["portal:scoring"], 1)
	values := rdb.added["portal:scoring"][0]
	assert.Equal(t, "s1", values["submissionId"])
	assert.Equal(t, "a1", values["assignmentId"])
	assert.Equal(t, ReasonSubmitted, values["reason"])
	assert.NotEmpty(t, values["enqueuedAt"])

	rdb.addErr = errors.New("redis down")
	_, err = p.PublishScoreJob(context.Background(), "s1", "a1", ReasonSubmitted)
	assert.Error(t, err)
}

func TestRetryWithBackoff(t *testing.T) {
	rdb := newFakeRedis()
	h := NewRetryHandler(rdb, "dlq", 3, time.Millisecond)

	calls := 0
	err := h.RetryWithBackoff(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, "1-0", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Empty(t, rdb.added["dlq"])
}

func TestRetryWithBackoffDeadLetters(t *testing.T) {
	rdb := newFakeRedis()
	h := NewRetryHandler(rdb, "dlq", 2, time.Millisecond)

	calls := 0
	cause := errors.New("ocr service unavailable")
	err := h.RetryWithBackoff(context.Background(), func() error {
		calls++
		return cause
	}, "7-0", map[string]interface{}{"submissionId": "s1"})

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 2, calls)
	require.Len(t, rdb.added["dlq"], 1)
	dead := rdb.added["dlq"][0]
	assert.Equal(t, "s1", dead["submissionId"])
	assert.Equal(t, "7-0", dead["originalId"])
	assert.Equal(t, "ocr service unavailable", dead["error"])
}

func TestRetryWithBackoffStopsOnCancel(t *testing.T) {
	rdb := newFakeRedis()
	h := NewRetryHandler(rdb, "dlq", 5, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := h.RetryWithBackoff(ctx, func() error {
		calls++
		cancel()
		return errors.New("fail")
	}, "1-0", nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
	assert.Empty(t, rdb.added["dlq"])
}

type fakeProcessor struct {
	errs   []error
	scored []string
	failed []string
}

func (p *fakeProcessor) ScoreSubmission(ctx context.Context, submissionID string) error {
	p.scored = append(p.scored, submissionID)
	if len(p.errs) == 0 {
		return nil
	}
	err := p.errs[0]
	p.errs = p.errs[1:]
	return err
}

func (p *fakeProcessor) MarkFailed(ctx context.Context, submissionID string, cause error) {
	p.failed = append(p.failed, submissionID)
}

func newTestConsumer(rdb *fakeRedis, proc Processor) *Consumer {
	return NewConsumer(rdb, "portal:scoring", "group", "worker-1", proc,
		NewRetryHandler(rdb, "dlq", 2, time.Millisecond),
		ConsumerOptions{JobTimeout: time.Second, Retention: time.Hour})
}

func message(id string, values map[string]interface{}) *redis.XMessage {
	return &redis.XMessage{ID: id, Values: values}
}

func TestConsumerProcessMessage(t *testing.T) {
	rdb := newFakeRedis()
	proc := &fakeProcessor{errs: []error{errors.New("transient")}}
	c := newTestConsumer(rdb, proc)

	err := c.processMessage(context.Background(), message("1-0", map[string]interface{}{
		"submissionId": "s1", "assignmentId": "a1",
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s1"}, proc.scored)
	assert.Empty(t, proc.failed)
	assert.Equal(t, []string{"1-0"}, rdb.acked)
}

func TestConsumerAcksDeadLetteredMessage(t *testing.T) {
	rdb := newFakeRedis()
	boom := errors.New("mongo unavailable")
	proc := &fakeProcessor{errs: []error{boom, boom}}
	c := newTestConsumer(rdb, proc)

	err := c.processMessage(context.Background(), message("2-0", map[string]interface{}{
		"submissionId": "s2", "assignmentId": "a1",
	}))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"s2"}, proc.failed)
	assert.Equal(t, []string{"2-0"}, rdb.acked)
	assert.Len(t, rdb.added["dlq"], 1)
}

func TestConsumerAcksMalformedMessage(t *testing.T) {
	rdb := newFakeRedis()
	proc := &fakeProcessor{}
	c := newTestConsumer(rdb, proc)

	err := c.processMessage(context.Background(), message("3-0", map[string]interface{}{"foo": "bar"}))
	assert.ErrorIs(t, err, ErrMalformedMessage)
	assert.Empty(t, proc.scored)
	assert.Equal(t, []string{"3-0"}, rdb.acked)
}

func TestConsumerReclaimWalksAllPages(t *testing.T) {
	rdb := newFakeRedis()
	rdb.claimPages = [][]redis.XMessage{
		{*message("1-0", map[string]interface{}{"submissionId": "s1", "assignmentId": "a1"})},
		{*message("2-0", map[string]interface{}{"submissionId": "s2", "assignmentId": "a1"})},
	}
	proc := &fakeProcessor{}
	c := newTestConsumer(rdb, proc)

	handled, err := c.reclaim(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, handled)
	assert.Equal(t, []string{"0-0", "1-0"}, rdb.claimStarts)
	assert.Equal(t, []string{"s1", "s2"}, proc.scored)
	assert.Equal(t, []string{"1-0", "2-0"}, rdb.acked)
}

func TestConsumerReclaimNothingPending(t *testing.T) {
	rdb := newFakeRedis()
	c := newTestConsumer(rdb, &fakeProcessor{})

	handled, err := c.reclaim(context.Background())
	require.NoError(t, err)
	assert.Zero(t, handled)
	assert.Empty(t, rdb.acked)
}

func TestConsumerTrimUsesRetentionCutoff(t *testing.T) {
	rdb := newFakeRedis()
	rdb.trimCount = 4
	c := newTestConsumer(rdb, &fakeProcessor{})
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	trimmed, err := c.trim(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), trimmed)
	assert.Equal(t, fmt.Sprintf("%d-0", now.Add(-time.Hour).UnixMilli()), rdb.trimmedTo)
}

func TestConsumerOptionsDefaults(t *testing.T) {
	opts := ConsumerOptions{JobTimeout: time.Second}.withDefaults()
	assert.Equal(t, time.Second, opts.JobTimeout)
	assert.Equal(t, int64(10), opts.BatchSize)
	assert.Equal(t, time.Minute, opts.ClaimIdle)
	assert.Equal(t, 24*time.Hour, opts.Retention)
}
