package runtime

import (
	"context"

	"fixrun/internal/domain/execution"
	"fixrun/internal/ports"
)

// Module provides runtime support for a specific language.
type Module interface {
	Language() execution.Language
	Prepare(ctx context.Context, plan execution.RunPlan) (ports.PreparedProgram, error)
	Close() error
}
