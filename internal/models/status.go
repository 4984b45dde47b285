package models

type Step string

const (
	StepQueued     Step = "queued"
	StepExtracting Step = "extracting"
	StepComparing  Step = "comparing"
	StepCompleted  Step = "completed"
	StepFailed     Step = "failed"
)

// Valid reports whether s is one of the known scoring steps
func (s Step) Valid() bool {
	switch s {
	case StepQueued, StepExtracting, StepComparing, StepCompleted, StepFailed:
		return true
	}
	return false
}
