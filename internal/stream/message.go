package stream

import (
	"errors"
	"fmt"
	"time"
)

const (
	fieldSubmissionID = "submissionId"
	fieldAssignmentID = "assignmentId"
	fieldReason       = "reason"
	fieldEnqueuedAt   = "enqueuedAt"
)

const (
	ReasonSubmitted = "submitted"
	ReasonRescore   = "rescore"
)

var ErrMalformedMessage = errors.New("malformed stream message")

// StreamMessage is a raw entry read from a Redis stream
type StreamMessage struct {
	ID     string
	Fields map[string]string
}

// ScoreJob asks the scoring worker to score one stored submission
type ScoreJob struct {
	SubmissionID string
	AssignmentID string
	Reason       string
	EnqueuedAt   time.Time
}

func (j ScoreJob) values() map[string]interface{} {
	return map[string]interface{}{
		fieldSubmissionID: j.SubmissionID,
		fieldAssignmentID: j.AssignmentID,
		fieldReason:       j.Reason,
		fieldEnqueuedAt:   j.EnqueuedAt.UTC().Format(time.RFC3339Nano),
	}
}

func ParseScoreJob(msg *StreamMessage) (ScoreJob, error) {
	job := ScoreJob{
		SubmissionID: msg.Fields[fieldSubmissionID],
		AssignmentID: msg.Fields[fieldAssignmentID],
		Reason:       msg.Fields[fieldReason],
	}
	if job.SubmissionID == "" || job.AssignmentID == "" {
		return ScoreJob{}, fmt.Errorf("%w %s: submissionId and assignmentId are required", ErrMalformedMessage, msg.ID)
	}
	if job.Reason == "" {
		job.Reason = ReasonSubmitted
	}
	if raw := msg.Fields[fieldEnqueuedAt]; raw != "" {
		enqueuedAt, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return ScoreJob{}, fmt.Errorf("%w %s: bad enqueuedAt: %v", ErrMalformedMessage, msg.ID, err)
		}
		job.EnqueuedAt = enqueuedAt
	}
	return job, nil
}
