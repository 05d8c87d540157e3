package ports

import (
	"context"

	"fixrun/internal/domain/execution"
)

// VerdictPublisher ships fixture verdicts and batch summaries to an external
// system.
type VerdictPublisher interface {
	PublishVerdict(ctx context.Context, batch execution.Batch, verdict execution.Verdict) error
	PublishSummary(ctx context.Context, batch execution.Batch, summary execution.RunSummary) error
	Close() error
}
