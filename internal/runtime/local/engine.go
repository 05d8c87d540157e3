// Package local runs compilers and programs as child processes of fixrun.
package local

import (
	"context"
	"fmt"

	"fixrun/internal/domain/execution"
	"fixrun/internal/ports"
	runtimex "fixrun/internal/runtime"
)

var _ ports.Runner = (*Engine)(nil)

// Engine implements ports.Runner on top of os/exec.
type Engine struct {
	registry *runtimex.Registry
}

// New constructs an Engine for the configured languages. With no languages
// configured every supported language is registered.
func New(cfg Config) (*Engine, error) {
	langs := cfg.Languages
	if len(langs) == 0 {
		langs = []execution.Language{execution.LanguageC, execution.LanguageCPP, execution.LanguagePython}
	}

	modules := make([]runtimex.Module, 0, len(langs))
	for _, lang := range langs {
		modules = append(modules, newModule(lang, cfg.DefaultLimits))
	}

	registry, err := runtimex.NewRegistry(modules...)
	if err != nil {
		return nil, fmt.Errorf("local runtime: %w", err)
	}
	return &Engine{registry: registry}, nil
}

// Prepare delegates to the underlying registry.
func (e *Engine) Prepare(ctx context.Context, plan execution.RunPlan) (ports.PreparedProgram, error) {
	return e.registry.Prepare(ctx, plan)
}

// Close releases module resources.
func (e *Engine) Close() error {
	return e.registry.Close()
}
