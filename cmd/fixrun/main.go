// Command fixrun compiles a solution, runs it against every input fixture
// and reports how its output compares with the expected answers.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"fixrun/internal/app/executor"
	"fixrun/internal/fixtures"
	kafkainfra "fixrun/internal/infra/kafka"
	"fixrun/internal/ports"
	"fixrun/internal/render"
	"fixrun/internal/runtime/docker"
	"fixrun/internal/runtime/local"
	"fixrun/internal/watch"
)

const (
	exitOK          = 0
	exitFatal       = 1
	exitInterrupted = 130
)

var (
	// errReported marks a fatal error that has already been printed.
	errReported = errors.New("fatal error reported")
	// errInterrupted marks a batch stopped by a signal.
	errInterrupted = errors.New("interrupted")
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type flagValues struct {
	configPath  string
	summaryOnly bool
	color       bool
	pattern     string
	width       int
	timeout     time.Duration
	runtime     string
	watch       bool
	brokers     []string
	topic       string
	verbose     bool
}

// run executes the command line and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand(stdout, stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errInterrupted):
		return exitInterrupted
	case errors.Is(err, errReported):
		return exitFatal
	default:
		fmt.Fprintf(stderr, "fixrun: %v\n", err)
		fmt.Fprintln(stderr, "Run 'fixrun -h' for usage.")
		return exitFatal
	}
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	var flags flagValues

	cmd := &cobra.Command{
		Use:   "fixrun SOURCE-FILE",
		Short: "Run a solution against input fixtures and compare its output",
		Long: `fixrun compiles SOURCE-FILE if needed (.c, .cpp) or runs it directly (.py)
once per fixture matched by PATTERN. Each fixture's input is fed on stdin and
stdout is saved next to it as <stem>.run, then compared with <stem>.ans or
<stem>.out when one exists.

Configuration is read from .fixrun.yaml (or --config), then FIXRUN_*
environment variables, then flags.

Examples:
  fixrun sol.cpp
  fixrun -c -p 'tests/*.txt' sol.py
  fixrun --watch --timeout 2s sol.c`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadAppConfig(flags.configPath)
			if err != nil {
				return err
			}
			applyFlags(cmd.Flags(), flags, &cfg)
			if err := cfg.validate(); err != nil {
				return err
			}
			return runHarness(cmd.Context(), args[0], cfg, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	f := cmd.Flags()
	f.BoolVarP(&flags.summaryOnly, "summary", "s", false, "print only headers, timings and the summary")
	f.BoolVarP(&flags.color, "color", "c", false, "colorize output")
	f.StringVarP(&flags.pattern, "pattern", "p", fixtures.DefaultPattern, "glob selecting fixture inputs")
	f.IntVarP(&flags.width, "width", "w", 0, "output width in cells (default: terminal width or 80; diff columns use at least 20)")
	f.DurationVar(&flags.timeout, "timeout", 0, "per-fixture wall-clock limit, e.g. 2s (default: none)")
	f.StringVar(&flags.runtime, "runtime", runtimeLocal, "execution backend: local or docker")
	f.BoolVar(&flags.watch, "watch", false, "rerun the batch when the source or a fixture changes")
	f.StringSliceVar(&flags.brokers, "publish-brokers", nil, "Kafka brokers receiving verdicts")
	f.StringVar(&flags.topic, "publish-topic", "", "Kafka topic receiving verdicts")
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "log debug details to stderr")
	f.StringVar(&flags.configPath, "config", "", "config file (default: ./.fixrun.yaml if present)")

	return cmd
}

// applyFlags overrides cfg with every flag set on the command line.
func applyFlags(set *pflag.FlagSet, flags flagValues, cfg *appConfig) {
	if set.Changed("summary") {
		cfg.SummaryOnly = flags.summaryOnly
	}
	if set.Changed("color") {
		cfg.Color = flags.color
	}
	if set.Changed("pattern") {
		cfg.Pattern = flags.pattern
	}
	if set.Changed("width") {
		cfg.Width = flags.width
	}
	if set.Changed("timeout") {
		cfg.Timeout = flags.timeout
	}
	if set.Changed("runtime") {
		cfg.Runtime = flags.runtime
	}
	if set.Changed("publish-brokers") {
		cfg.Brokers = flags.brokers
	}
	if set.Changed("publish-topic") {
		cfg.Topic = flags.topic
	}
	cfg.Watch = flags.watch
	cfg.Verbose = flags.verbose
}

func runHarness(ctx context.Context, source string, cfg appConfig, stdout, stderr io.Writer) error {
	logger := newLogger(stderr, cfg.Verbose)

	reporter := render.New(stdout, render.Options{
		Width:       resolveWidth(cfg.Width, stdout),
		SummaryOnly: cfg.SummaryOnly,
		Color:       cfg.Color,
	})

	runner, err := newRunner(cfg)
	if err != nil {
		return err
	}

	opts := []executor.Option{executor.WithLogger(logger)}
	if len(cfg.Brokers) > 0 {
		publisher, err := kafkainfra.NewPublisher(kafkainfra.PublisherConfig{Brokers: cfg.Brokers, Topic: cfg.Topic})
		if err != nil {
			_ = runner.Close()
			return err
		}
		opts = append(opts, executor.WithPublisher(publisher))
	}

	service := executor.NewService(runner, reporter, opts...)
	defer func() {
		if cerr := service.Close(); cerr != nil {
			logger.Warn("failed to release runtime", "err", cerr)
		}
	}()

	req := executor.Request{
		SourcePath: source,
		Pattern:    cfg.Pattern,
		Toolchain:  cfg.Toolchain,
	}

	batchErr := runBatch(ctx, service, reporter, req)
	if !cfg.Watch || errors.Is(batchErr, errInterrupted) {
		return batchErr
	}
	return watchBatches(ctx, service, reporter, req, logger)
}

// runBatch runs one batch and maps its failure to a reported fatal error.
func runBatch(ctx context.Context, service *executor.Service, reporter *render.Renderer, req executor.Request) error {
	_, err := service.Run(ctx, req)
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return errInterrupted
	default:
		reporter.Error(err)
		return errReported
	}
}

func watchBatches(ctx context.Context, service *executor.Service, reporter *render.Renderer, req executor.Request, logger *log.Logger) error {
	absSource, err := filepath.Abs(req.SourcePath)
	if err != nil {
		return err
	}
	absPattern, err := filepath.Abs(req.Pattern)
	if err != nil {
		return err
	}

	w, err := watch.New(func(path string) bool {
		return path == absSource || fixtures.Related(absPattern, path)
	}, watch.WithLogger(logger))
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Watch(absSource, absPattern); err != nil {
		return err
	}
	logger.Info("watching for changes", "source", req.SourcePath, "pattern", req.Pattern)

	err = w.Run(ctx, func(ctx context.Context) error {
		if err := runBatch(ctx, service, reporter, req); errors.Is(err, errInterrupted) {
			return ctx.Err()
		}
		return nil
	})
	if ctx.Err() != nil {
		return errInterrupted
	}
	return err
}

func newRunner(cfg appConfig) (ports.Runner, error) {
	switch cfg.Runtime {
	case runtimeDocker:
		engine, err := docker.New(cfg.dockerConfig())
		if err != nil {
			return nil, err
		}
		return engine, nil
	default:
		engine, err := local.New(local.Config{DefaultLimits: cfg.limits()})
		if err != nil {
			return nil, err
		}
		return engine, nil
	}
}

func newLogger(w io.Writer, verbose bool) *log.Logger {
	level := log.WarnLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Level:  level,
		Prefix: "fixrun",
	})
}

// resolveWidth prefers an explicit width, then the terminal size.
func resolveWidth(configured int, out io.Writer) int {
	if configured > 0 {
		return configured
	}
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return render.DefaultWidth
}
