package execution

import "time"

// Batch identifies one pass over the fixtures.
type Batch struct {
	ID         string
	SourcePath string
	Language   Language
	StartedAt  time.Time
}

// Verdict is the reportable outcome of one fixture.
type Verdict struct {
	Fixture        Fixture
	Classification Classification
	Duration       time.Duration
	ExitCode       int64
	TimedOut       bool
	Error          string
}

// NewVerdict combines an execution result with its classification.
func NewVerdict(result ExecutionResult, c Classification) Verdict {
	v := Verdict{
		Fixture:        result.Fixture,
		Classification: c,
		Duration:       result.Duration,
		ExitCode:       result.ExitCode,
		TimedOut:       result.TimedOut,
	}
	if result.Err != nil {
		v.Error = result.Err.Error()
	}
	return v
}
