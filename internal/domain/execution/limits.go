package execution

import "time"

// RunLimits describes optional boundaries for a single fixture run.
//
// A zero value RunLimits imposes no restrictions, so a program that never
// exits blocks the batch.
type RunLimits struct {
	// TimeLimit caps the wall-clock time of one run. Zero means no limit.
	TimeLimit time.Duration
}

// Normalize clamps negative values to zero.
func (l RunLimits) Normalize() RunLimits {
	if l.TimeLimit < 0 {
		l.TimeLimit = 0
	}
	return l
}
