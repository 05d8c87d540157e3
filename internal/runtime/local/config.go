package local

import "fixrun/internal/domain/execution"

// Config describes how to create a host-process runtime engine.
type Config struct {
	Languages     []execution.Language
	DefaultLimits execution.RunLimits
}
