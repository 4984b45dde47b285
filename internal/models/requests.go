package models

// StudentRegisterRequest is the body of the student registration endpoint
type StudentRegisterRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	RollNo   string `json:"rollNo" binding:"required,max=50"`
	Email    string `json:"email" binding:"required,email,max=100"`
	Phone    string `json:"phone" binding:"required,max=15"`
	Year     string `json:"year" binding:"required,max=10"`
	Branch   string `json:"branch" binding:"required,max=20"`
	Section  string `json:"section" binding:"required,max=10"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// TeacherRegisterRequest is the body of the teacher registration endpoint
type TeacherRegisterRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email,max=100"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

// CreateAssignmentForm is the multipart form for uploading an assignment;
// the file itself is read separately from the "file" part.
type CreateAssignmentForm struct {
	Title   string `form:"title" binding:"required,max=200"`
	DueDate string `form:"dueDate" binding:"required,datetime=2006-01-02"`
	Year    string `form:"year" binding:"required,max=10"`
	Branch  string `form:"branch" binding:"required,max=20"`
	Section string `form:"section" binding:"required,max=10"`
}

// MarksRequest uses a pointer so an explicit zero still passes "required"
type MarksRequest struct {
	Marks *int `json:"marks" binding:"required,min=0,max=100"`
}

// SubmitResponse is returned once a submission is stored and queued for scoring
type SubmitResponse struct {
	Submission *Submission `json:"submission"`
	Step       Step        `json:"step"`
}

type StatusResponse struct {
	SubmissionID string  `json:"submissionId"`
	Step         Step    `json:"step"`
	Similarity   float64 `json:"similarity"`
	Flagged      bool    `json:"flagged"`
	Risk         string  `json:"risk"`
}
