package models

import (
	"time"
)

// DateLayout is the wire format for due dates
const DateLayout = "2006-01-02"

// Cohort scopes which assignments a student sees. Values are free-typed by
// teachers, so comparisons trim and case-fold each part.
type Cohort struct {
	Year    string `bson:"year" json:"year"`
	Branch  string `bson:"branch" json:"branch"`
	Section string `bson:"section" json:"section"`
}

// Assignment represents a teacher-uploaded assignment stored in MongoDB
type Assignment struct {
	ID        string    `bson:"_id" json:"id"`
	Title     string    `bson:"title" json:"title"`
	TeacherID string    `bson:"teacherId" json:"teacherId"`
	DueDate   time.Time `bson:"dueDate" json:"dueDate"` // calendar date at 00:00 UTC
	Cohort    Cohort    `bson:"cohort" json:"cohort"`
	FileRef   string    `bson:"fileRef" json:"-"`
	FileName  string    `bson:"fileName" json:"fileName"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
