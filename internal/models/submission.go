package models

import (
	"time"
)

// Submission represents a student's upload for an assignment. There is at
// most one per (StudentID, AssignmentID).
type Submission struct {
	ID           string    `bson:"_id" json:"id"`
	StudentID    string    `bson:"studentId" json:"studentId"`
	AssignmentID string    `bson:"assignmentId" json:"assignmentId"`
	FileRef      string    `bson:"fileRef" json:"-"`
	FileName     string    `bson:"fileName" json:"fileName"`
	ContentHash  string    `bson:"contentHash" json:"contentHash"`
	Similarity   float64   `bson:"similarity" json:"similarity"`
	Flagged      bool      `bson:"flagged" json:"flagged"`
	Risk         string    `bson:"risk" json:"risk"`
	ScoreStep    Step      `bson:"scoreStep" json:"scoreStep"`
	Marks        *int      `bson:"marks,omitempty" json:"marks,omitempty"`
	SubmittedAt  time.Time `bson:"submittedAt" json:"submittedAt"`
}
