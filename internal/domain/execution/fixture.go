package execution

import "time"

// Fixture is one input case plus its optional ground truth.
type Fixture struct {
	// ID is the input file name with the pattern suffix stripped.
	ID string
	// Name is the input file name as matched by the glob.
	Name       string
	InputPath  string
	OutputPath string
	// ExpectedPath is empty when neither <stem>.ans nor <stem>.out exists.
	ExpectedPath string
}

// HasGroundTruth reports whether an expected-output file was found.
func (f Fixture) HasGroundTruth() bool {
	return f.ExpectedPath != ""
}

// Result captures the outcome of one program run.
type Result struct {
	Stderr   string
	ExitCode int64
	Duration time.Duration
	TimedOut bool
}

// ExecutionResult is what the execution engine hands to the comparator.
type ExecutionResult struct {
	Fixture          Fixture
	ActualOutputPath string
	Duration         time.Duration
	ExitCode         int64
	TimedOut         bool
	Stderr           string
	// Err is set when the program could not be run at all.
	Err error
}
