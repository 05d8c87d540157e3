package ports

import (
	"fixrun/internal/compare"
	"fixrun/internal/domain/execution"
)

// Reporter presents fixture outcomes to the operator.
type Reporter interface {
	Header(name string)
	Body(diff compare.Diff)
	Timing(verdict execution.Verdict)
	FixtureError(err error)
	Summary(summary execution.RunSummary)
}
