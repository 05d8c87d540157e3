package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"fixrun/internal/domain/execution"
)

// sumScript is run through sh in place of the Python interpreter so that
// these tests only depend on a POSIX shell.
const sumScript = "read a b\necho $((a + b))\n"

func TestRunReportsGoodAndUnknown(t *testing.T) {
	t.Parallel()

	dir := writeTree(t, map[string]string{
		"sol.py": sumScript,
		"1.in":   "2 4\n",
		"1.ans":  "6\n",
		"2.in":   "3 5\n",
	})

	stdout, stderr, code := runCLI(t, "--config", shellConfig(t, dir), "-p", filepath.Join(dir, "*.in"), "-w", "60", filepath.Join(dir, "sol.py"))
	if code != exitOK {
		t.Fatalf("expected exit %d, got %d (stderr: %s)", exitOK, code, stderr)
	}
	if !strings.Contains(stdout, "Good: 1/2; Bad: 0/2; Unknown: 1/2") {
		t.Fatalf("unexpected summary:\n%s", stdout)
	}
	if strings.Contains(stdout, "Bad fixtures:") {
		t.Fatalf("expected no bad list:\n%s", stdout)
	}
}

func TestRunReportsBadFixture(t *testing.T) {
	t.Parallel()

	dir := writeTree(t, map[string]string{
		"sol.py": sumScript,
		"1.in":   "2 4\n",
		"1.ans":  "7\n",
		"2.in":   "3 5\n",
	})

	stdout, stderr, code := runCLI(t, "--config", shellConfig(t, dir), "-s", "-p", filepath.Join(dir, "*.in"), filepath.Join(dir, "sol.py"))
	if code != exitOK {
		t.Fatalf("expected exit %d, got %d (stderr: %s)", exitOK, code, stderr)
	}
	if !strings.Contains(stdout, "Good: 0/2; Bad: 1/2; Unknown: 1/2") {
		t.Fatalf("unexpected summary:\n%s", stdout)
	}
	if !strings.Contains(stdout, "Bad fixtures: 1.in") {
		t.Fatalf("expected bad list:\n%s", stdout)
	}
	if strings.Contains(stdout, "no ground truth available") {
		t.Fatalf("expected diff bodies to be suppressed with -s:\n%s", stdout)
	}

	run, err := os.ReadFile(filepath.Join(dir, "2.run"))
	if err != nil {
		t.Fatalf("expected 2.run to be kept: %v", err)
	}
	if string(run) != "8\n" {
		t.Fatalf("unexpected 2.run contents %q", run)
	}
}

func TestRunUnsupportedSourceExitsFatal(t *testing.T) {
	t.Parallel()

	dir := writeTree(t, map[string]string{"sol.rs": "fn main() {}", "1.in": ""})

	stdout, _, code := runCLI(t, "-p", filepath.Join(dir, "*.in"), filepath.Join(dir, "sol.rs"))
	if code != exitFatal {
		t.Fatalf("expected exit %d, got %d", exitFatal, code)
	}
	if !strings.Contains(stdout, "unsupported source kind") {
		t.Fatalf("expected unsupported source error, got:\n%s", stdout)
	}
	if strings.Contains(stdout, "Good:") {
		t.Fatalf("expected no summary on fatal error:\n%s", stdout)
	}
}

func TestRunUsageErrors(t *testing.T) {
	t.Parallel()

	if _, stderr, code := runCLI(t); code != exitFatal || !strings.Contains(stderr, "accepts 1 arg") {
		t.Fatalf("expected usage error for missing source, got %d: %s", code, stderr)
	}
	if _, _, code := runCLI(t, "--runtime", "vm", "sol.py"); code != exitFatal {
		t.Fatalf("expected exit %d for unknown runtime, got %d", exitFatal, code)
	}
	if _, _, code := runCLI(t, "--bogus", "sol.py"); code != exitFatal {
		t.Fatalf("expected exit %d for unknown flag, got %d", exitFatal, code)
	}
}

func TestRunHelpExitsZero(t *testing.T) {
	t.Parallel()

	stdout, _, code := runCLI(t, "-h")
	if code != exitOK {
		t.Fatalf("expected exit %d, got %d", exitOK, code)
	}
	if !strings.Contains(stdout, "--pattern") || !strings.Contains(stdout, "--summary") {
		t.Fatalf("expected flag descriptions in help:\n%s", stdout)
	}
}

func TestRunInterruptedExitCode(t *testing.T) {
	t.Parallel()

	dir := writeTree(t, map[string]string{"sol.py": sumScript, "1.in": "1 1\n"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout, stderr bytes.Buffer
	code := run(ctx, []string{"--config", shellConfig(t, dir), "-p", filepath.Join(dir, "*.in"), filepath.Join(dir, "sol.py")}, &stdout, &stderr)
	if code != exitInterrupted {
		t.Fatalf("expected exit %d, got %d", exitInterrupted, code)
	}
	if strings.Contains(stdout.String(), "Good:") {
		t.Fatalf("expected no summary after interruption:\n%s", stdout.String())
	}
}

func TestLoadAppConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := loadAppConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatalf("expected error for missing explicit config file")
	}

	cfg = defaultAppConfig()
	if cfg.Pattern != "*.in" || cfg.Runtime != runtimeLocal || cfg.Timeout != 0 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Toolchain.CXX != "g++" || cfg.Toolchain.Python != "python3" {
		t.Fatalf("unexpected default toolchain %+v", cfg.Toolchain)
	}
}

func TestLoadAppConfigFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "fixrun.yaml")
	writeFile(t, path, `pattern: "tests/*.txt"
width: 100
color: true
summary_only: false
timeout: 1500ms
runtime: docker
toolchain:
  cxx: clang++
  cxxflags: ["-std=c++20", "-O0"]
  cflags: []
docker:
  images:
    python: python:3.11
  workdir: /src
publish:
  brokers: ["kafka:9092"]
  topic: verdicts
`)

	cfg, err := loadAppConfig(path)
	if err != nil {
		t.Fatalf("loadAppConfig returned error: %v", err)
	}

	if cfg.Pattern != "tests/*.txt" || cfg.Width != 100 || !cfg.Color || cfg.SummaryOnly {
		t.Fatalf("unexpected presentation config %+v", cfg)
	}
	if cfg.Timeout != 1500*time.Millisecond || cfg.Runtime != runtimeDocker {
		t.Fatalf("unexpected execution config %+v", cfg)
	}
	if cfg.Toolchain.CXX != "clang++" || cfg.Toolchain.CC != "gcc" {
		t.Fatalf("unexpected compilers %+v", cfg.Toolchain)
	}
	if diff := cmp.Diff([]string{"-std=c++20", "-O0"}, cfg.Toolchain.CXXFlags); diff != "" {
		t.Fatalf("unexpected cxxflags (-want +got):\n%s", diff)
	}
	if cfg.Toolchain.CFlags == nil || len(cfg.Toolchain.CFlags) != 0 {
		t.Fatalf("expected explicit empty cflags to be kept, got %v", cfg.Toolchain.CFlags)
	}
	if cfg.Topic != "verdicts" || len(cfg.Brokers) != 1 {
		t.Fatalf("unexpected publish config %+v", cfg)
	}

	dockerCfg := cfg.dockerConfig()
	if got := dockerCfg.Languages[execution.LanguagePython]; got.Image != "python:3.11" || got.Workdir != "/src" {
		t.Fatalf("unexpected python docker config %+v", got)
	}
	if got := dockerCfg.Languages[execution.LanguageCPP]; got.Image != "gcc:13" {
		t.Fatalf("expected default cpp image, got %+v", got)
	}
	if dockerCfg.DefaultLimits.TimeLimit != 1500*time.Millisecond {
		t.Fatalf("expected timeout to become the default limit")
	}
}

func TestLoadAppConfigRejectsBadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "fixrun.yaml")
	writeFile(t, path, "timeout: soon\n")
	if _, err := loadAppConfig(path); err == nil {
		t.Fatalf("expected error for invalid timeout")
	}

	writeFile(t, path, "pattern: [unterminated\n")
	if _, err := loadAppConfig(path); err == nil {
		t.Fatalf("expected error for malformed yaml")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := defaultAppConfig()
	if err := cfg.validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	bad := cfg
	bad.Brokers = []string{"localhost:9092"}
	if err := bad.validate(); err == nil {
		t.Fatalf("expected error when brokers are set without a topic")
	}

	bad = cfg
	bad.Timeout = -time.Second
	if err := bad.validate(); err == nil {
		t.Fatalf("expected error for negative timeout")
	}
}

func TestParseBrokerList(t *testing.T) {
	t.Parallel()

	got := parseBrokerList(" kafka-1:9092, ,kafka-2:9092 ")
	if diff := cmp.Diff([]string{"kafka-1:9092", "kafka-2:9092"}, got); diff != "" {
		t.Fatalf("unexpected brokers (-want +got):\n%s", diff)
	}
}

func TestParseHelpers(t *testing.T) {
	t.Parallel()

	if v, err := parseWidth("", 42); err != nil || v != 42 {
		t.Fatalf("expected fallback width, got %d, %v", v, err)
	}
	if _, err := parseWidth("-3", 0); err == nil {
		t.Fatalf("expected error for negative width")
	}
	if v, err := parseBool("true", false); err != nil || !v {
		t.Fatalf("expected true, got %v, %v", v, err)
	}
	if _, err := parseBool("maybe", false); err == nil {
		t.Fatalf("expected error for invalid boolean")
	}
	if v, err := parseDuration("250ms", 0); err != nil || v != 250*time.Millisecond {
		t.Fatalf("expected 250ms, got %v, %v", v, err)
	}
}

func TestResolveWidth(t *testing.T) {
	t.Parallel()

	if got := resolveWidth(120, &bytes.Buffer{}); got != 120 {
		t.Fatalf("expected explicit width, got %d", got)
	}
	if got := resolveWidth(0, &bytes.Buffer{}); got != 80 {
		t.Fatalf("expected fallback width 80, got %d", got)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixrun.yaml")
	writeFile(t, path, "pattern: from-file/*.in\nwidth: 90\n")

	t.Setenv("FIXRUN_PATTERN", "from-env/*.in")
	t.Setenv("FIXRUN_CXXFLAGS", "-O3 -march=native")
	t.Setenv("FIXRUN_PUBLISH_BROKERS", "a:1,b:2")
	t.Setenv("FIXRUN_IMAGE_CPP", "gcc:14")

	cfg, err := loadAppConfig(path)
	if err != nil {
		t.Fatalf("loadAppConfig returned error: %v", err)
	}
	if cfg.Pattern != "from-env/*.in" {
		t.Fatalf("expected env to override file, got %q", cfg.Pattern)
	}
	if cfg.Width != 90 {
		t.Fatalf("expected file width to survive, got %d", cfg.Width)
	}
	if diff := cmp.Diff([]string{"-O3", "-march=native"}, cfg.Toolchain.CXXFlags); diff != "" {
		t.Fatalf("unexpected cxxflags (-want +got):\n%s", diff)
	}
	if len(cfg.Brokers) != 2 || cfg.Images[execution.LanguageCPP] != "gcc:14" {
		t.Fatalf("unexpected env config %+v", cfg)
	}

	t.Setenv("FIXRUN_WIDTH", "wide")
	if _, err := loadAppConfig(path); err == nil {
		t.Fatalf("expected error for invalid FIXRUN_WIDTH")
	}
}

func runCLI(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

// shellConfig writes a config file that runs .py sources with sh.
func shellConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "fixrun.yaml")
	writeFile(t, path, "toolchain:\n  python: sh\n")
	return path
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		writeFile(t, filepath.Join(dir, name), content)
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
