package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"fixrun/internal/compare"
	"fixrun/internal/domain/execution"
	"fixrun/internal/fixtures"
	"fixrun/internal/ports"
	"fixrun/internal/resolver"
	"fixrun/internal/scratch"
)

const scratchPrefix = "fixrun"

// Request describes one batch.
type Request struct {
	SourcePath string
	Pattern    string
	Toolchain  resolver.Toolchain
}

// Service drives the compile, run, compare and report pipeline over all
// fixtures of a batch.
type Service struct {
	runtime   ports.Runner
	reporter  ports.Reporter
	publisher ports.VerdictPublisher
	logger    *log.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithPublisher forwards every verdict and the final summary to p.
func WithPublisher(p ports.VerdictPublisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithLogger replaces the default logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService constructs a Service with the provided runtime and reporter.
func NewService(runtime ports.Runner, reporter ports.Reporter, opts ...Option) *Service {
	s := &Service{
		runtime:  runtime,
		reporter: reporter,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes one batch and returns its summary.
//
// Unsupported sources and compile failures abort before any fixture runs.
// Context cancellation aborts the batch without printing a summary. Scratch
// artifacts are removed on every return path.
func (s *Service) Run(ctx context.Context, req Request) (execution.RunSummary, error) {
	var summary execution.RunSummary

	if _, err := execution.LanguageForPath(req.SourcePath); err != nil {
		return summary, err
	}
	if info, err := os.Stat(req.SourcePath); err != nil {
		return summary, fmt.Errorf("source file: %w", err)
	} else if info.IsDir() {
		return summary, fmt.Errorf("source file: %s is a directory", req.SourcePath)
	}

	dir, err := scratch.New(scratchPrefix)
	if err != nil {
		return summary, err
	}
	defer func() {
		if cerr := dir.Close(); cerr != nil {
			s.logger.Warn("failed to clean up scratch files", "err", cerr)
		}
	}()

	plan, err := resolver.New(req.Toolchain, dir.Path()).Resolve(req.SourcePath)
	if err != nil {
		return summary, err
	}
	s.logger.Debug("resolved run plan", "language", plan.Language, "compile", plan.CompileCommand, "run", plan.RunCommand)

	prepared, err := s.runtime.Prepare(ctx, plan)
	if err != nil {
		return summary, err
	}
	if prepared == nil {
		return summary, fmt.Errorf("runner returned nil prepared program")
	}
	defer func() {
		if cerr := prepared.Close(); cerr != nil {
			s.logger.Warn("failed to release prepared program", "err", cerr)
		}
	}()

	found, err := fixtures.Discover(req.Pattern)
	if err != nil {
		return summary, err
	}
	if len(found) == 0 {
		s.logger.Warn("no fixtures matched", "pattern", req.Pattern)
	}

	batch := execution.Batch{
		ID:         dir.Token(),
		SourcePath: req.SourcePath,
		Language:   plan.Language,
		StartedAt:  time.Now(),
	}
	runner := newFixtureRunner(prepared, dir.Token(), s.logger)

	for _, fixture := range found {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if !fixtures.StillPresent(fixture) {
			s.logger.Warn("fixture disappeared before execution, skipping", "fixture", fixture.Name)
			continue
		}

		s.reporter.Header(fixture.Name)
		result := runner.execute(ctx, fixture)
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		verdict := s.classify(result)
		s.reporter.Timing(verdict)
		summary.Record(fixture.Name, verdict.Classification)
		s.publishVerdict(ctx, batch, verdict)
	}

	s.reporter.Summary(summary)
	s.publishSummary(ctx, batch, summary)
	return summary, nil
}

// classify compares the run output and prints the fixture body.
func (s *Service) classify(result execution.ExecutionResult) execution.Verdict {
	fixture := result.Fixture
	if result.Err != nil {
		s.logger.Debug("fixture run failed", "fixture", fixture.Name, "err", result.Err)
		s.reporter.FixtureError(result.Err)
	}

	// Ground truth is looked up again so a file removed since discovery
	// yields Unknown rather than a read error.
	expected := fixture.ExpectedPath
	if expected != "" && !fileExists(expected) {
		expected = ""
	}

	if result.ActualOutputPath == "" {
		return execution.NewVerdict(result, fallbackClassification(expected))
	}

	outcome, err := compare.Compare(result.ActualOutputPath, expected, fixture.InputPath)
	if err != nil {
		s.reporter.FixtureError(err)
		return execution.NewVerdict(result, fallbackClassification(expected))
	}

	s.reporter.Body(outcome.Diff)
	return execution.NewVerdict(result, outcome.Classification)
}

// fallbackClassification is used when no output could be compared.
func fallbackClassification(expected string) execution.Classification {
	if expected == "" {
		return execution.Unknown
	}
	return execution.Bad
}

func (s *Service) publishVerdict(ctx context.Context, batch execution.Batch, verdict execution.Verdict) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishVerdict(ctx, batch, verdict); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("failed to publish verdict", "fixture", verdict.Fixture.Name, "err", err)
	}
}

func (s *Service) publishSummary(ctx context.Context, batch execution.Batch, summary execution.RunSummary) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSummary(ctx, batch, summary); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("failed to publish summary", "err", err)
	}
}

// Close releases any resources owned by the runtime and publisher.
func (s *Service) Close() error {
	var errs []error
	if err := s.runtime.Close(); err != nil {
		errs = append(errs, err)
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}
	return errors.Join(errs...)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
