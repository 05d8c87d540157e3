package docker

import (
	"context"
	"fmt"
	"sync"

	"fixrun/internal/domain/execution"
	"fixrun/internal/ports"
	runtimex "fixrun/internal/runtime"
)

type languageStrategy interface {
	Prepare(ctx context.Context, m *module, plan execution.RunPlan) (ports.PreparedProgram, error)
}

// module serves one language. Images are pulled lazily, the first time a
// plan needs them.
type module struct {
	language execution.Language
	config   LanguageConfig
	engine   *containerEngine
	strategy languageStrategy

	mu     sync.Mutex
	pulled map[string]bool
}

func newModule(lang execution.Language, cfg LanguageConfig, engine *containerEngine) (runtimex.Module, error) {
	if cfg.Image == "" {
		return nil, fmt.Errorf("docker runtime: language %q missing image configuration", lang)
	}
	if cfg.Workdir == "" {
		cfg.Workdir = "/tmp"
	}
	if cfg.RunImage == "" {
		cfg.RunImage = cfg.Image
	}

	strategy, err := strategyForLanguage(lang)
	if err != nil {
		return nil, err
	}

	return &module{
		language: lang,
		config:   cfg,
		engine:   engine,
		strategy: strategy,
		pulled:   make(map[string]bool),
	}, nil
}

func (m *module) Language() execution.Language {
	return m.language
}

func (m *module) Prepare(ctx context.Context, plan execution.RunPlan) (ports.PreparedProgram, error) {
	if plan.Language != m.language {
		return nil, fmt.Errorf("docker runtime: plan language %q does not match module %q", plan.Language, m.language)
	}

	for _, ref := range m.imagesFor(plan) {
		if err := m.ensureImage(ctx, ref); err != nil {
			return nil, err
		}
	}

	return m.strategy.Prepare(ctx, m, plan)
}

func (m *module) Close() error {
	return nil
}

// imagesFor lists the images a plan touches: the toolchain only when there
// is something to compile, and always the image the program runs in.
func (m *module) imagesFor(plan execution.RunPlan) []string {
	var refs []string
	if plan.NeedsCompile() {
		refs = append(refs, m.config.Image)
	}
	if len(refs) == 0 || refs[0] != m.config.RunImage {
		refs = append(refs, m.config.RunImage)
	}
	return refs
}

// ensureImage pulls ref unless an earlier plan already did. Failed pulls are
// retried on the next Prepare.
func (m *module) ensureImage(ctx context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pulled[ref] {
		return nil
	}
	if err := m.engine.pullImage(ctx, ref); err != nil {
		return err
	}
	m.pulled[ref] = true
	return nil
}
