package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"fixrun/internal/domain/execution"
	"fixrun/internal/fixtures"
	"fixrun/internal/resolver"
	"fixrun/internal/runtime/docker"
)

const (
	defaultConfigFile = ".fixrun.yaml"
	envPrefix         = "FIXRUN_"

	runtimeLocal  = "local"
	runtimeDocker = "docker"
)

type appConfig struct {
	Pattern     string
	Width       int
	Color       bool
	SummaryOnly bool
	Timeout     time.Duration
	Runtime     string
	Watch       bool
	Verbose     bool
	Toolchain   resolver.Toolchain
	Images      map[execution.Language]string
	Workdir     string
	Brokers     []string
	Topic       string
}

// fileConfig mirrors appConfig in .fixrun.yaml. Pointer fields distinguish
// an explicit false from an absent key.
type fileConfig struct {
	Pattern     string `yaml:"pattern"`
	Width       int    `yaml:"width"`
	Color       *bool  `yaml:"color"`
	SummaryOnly *bool  `yaml:"summary_only"`
	Timeout     string `yaml:"timeout"`
	Runtime     string `yaml:"runtime"`
	Toolchain   struct {
		CXX      string   `yaml:"cxx"`
		CXXFlags []string `yaml:"cxxflags"`
		CC       string   `yaml:"cc"`
		CFlags   []string `yaml:"cflags"`
		Python   string   `yaml:"python"`
	} `yaml:"toolchain"`
	Docker struct {
		Images  map[string]string `yaml:"images"`
		Workdir string            `yaml:"workdir"`
	} `yaml:"docker"`
	Publish struct {
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"publish"`
}

func defaultAppConfig() appConfig {
	return appConfig{
		Pattern:   fixtures.DefaultPattern,
		Runtime:   runtimeLocal,
		Toolchain: resolver.DefaultToolchain(),
		Images:    map[execution.Language]string{},
	}
}

// loadAppConfig layers the config file and FIXRUN_* variables over the
// defaults. A missing default config file is not an error; a missing file
// named with --config is.
func loadAppConfig(path string) (appConfig, error) {
	cfg := defaultAppConfig()

	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}
	if err := cfg.loadFile(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	if err := cfg.loadEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *appConfig) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return err
	}
	return c.merge(file)
}

func (c *appConfig) merge(src fileConfig) error {
	if src.Pattern != "" {
		c.Pattern = src.Pattern
	}
	if src.Width != 0 {
		c.Width = src.Width
	}
	if src.Color != nil {
		c.Color = *src.Color
	}
	if src.SummaryOnly != nil {
		c.SummaryOnly = *src.SummaryOnly
	}
	if src.Timeout != "" {
		d, err := time.ParseDuration(src.Timeout)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		c.Timeout = d
	}
	if src.Runtime != "" {
		c.Runtime = src.Runtime
	}

	if src.Toolchain.CXX != "" {
		c.Toolchain.CXX = src.Toolchain.CXX
	}
	if src.Toolchain.CXXFlags != nil {
		c.Toolchain.CXXFlags = src.Toolchain.CXXFlags
	}
	if src.Toolchain.CC != "" {
		c.Toolchain.CC = src.Toolchain.CC
	}
	if src.Toolchain.CFlags != nil {
		c.Toolchain.CFlags = src.Toolchain.CFlags
	}
	if src.Toolchain.Python != "" {
		c.Toolchain.Python = src.Toolchain.Python
	}

	for name, image := range src.Docker.Images {
		c.Images[execution.Language(name)] = image
	}
	if src.Docker.Workdir != "" {
		c.Workdir = src.Docker.Workdir
	}

	if len(src.Publish.Brokers) > 0 {
		c.Brokers = src.Publish.Brokers
	}
	if src.Publish.Topic != "" {
		c.Topic = src.Publish.Topic
	}
	return nil
}

func (c *appConfig) loadEnv() error {
	c.Pattern = envOrDefault("PATTERN", c.Pattern)
	c.Runtime = envOrDefault("RUNTIME", c.Runtime)
	c.Toolchain.CXX = envOrDefault("CXX", c.Toolchain.CXX)
	c.Toolchain.CC = envOrDefault("CC", c.Toolchain.CC)
	c.Toolchain.Python = envOrDefault("PYTHON", c.Toolchain.Python)
	c.Workdir = envOrDefault("DOCKER_WORKDIR", c.Workdir)
	c.Topic = envOrDefault("PUBLISH_TOPIC", c.Topic)

	if raw, ok := lookupEnv("CXXFLAGS"); ok {
		c.Toolchain.CXXFlags = strings.Fields(raw)
	}
	if raw, ok := lookupEnv("CFLAGS"); ok {
		c.Toolchain.CFlags = strings.Fields(raw)
	}
	if raw, ok := lookupEnv("PUBLISH_BROKERS"); ok {
		c.Brokers = parseBrokerList(raw)
	}
	for _, lang := range []execution.Language{execution.LanguageC, execution.LanguageCPP, execution.LanguagePython} {
		if image, ok := lookupEnv("IMAGE_" + strings.ToUpper(string(lang))); ok && image != "" {
			c.Images[lang] = image
		}
	}

	var err error
	if c.Width, err = parseWidth(envOrDefault("WIDTH", ""), c.Width); err != nil {
		return err
	}
	if c.Color, err = parseBool(envOrDefault("COLOR", ""), c.Color); err != nil {
		return err
	}
	if c.SummaryOnly, err = parseBool(envOrDefault("SUMMARY", ""), c.SummaryOnly); err != nil {
		return err
	}
	if c.Timeout, err = parseDuration(envOrDefault("TIMEOUT", ""), c.Timeout); err != nil {
		return err
	}
	return nil
}

func (c appConfig) validate() error {
	switch c.Runtime {
	case runtimeLocal, runtimeDocker:
	default:
		return fmt.Errorf("unknown runtime %q (want %s or %s)", c.Runtime, runtimeLocal, runtimeDocker)
	}
	if c.Width < 0 {
		return fmt.Errorf("width must not be negative")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if len(c.Brokers) > 0 && c.Topic == "" {
		return fmt.Errorf("publishing requires a topic")
	}
	return nil
}

func (c appConfig) limits() execution.RunLimits {
	return execution.RunLimits{TimeLimit: c.Timeout}
}

func (c appConfig) dockerConfig() docker.Config {
	languages := docker.DefaultLanguages()
	for lang, langCfg := range languages {
		if image, ok := c.Images[lang]; ok {
			langCfg.Image = image
		}
		if c.Workdir != "" {
			langCfg.Workdir = c.Workdir
		}
		languages[lang] = langCfg
	}
	return docker.Config{
		Languages:     languages,
		DefaultLimits: c.limits(),
	}
}

func envOrDefault(key, fallback string) string {
	if value, ok := lookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func lookupEnv(key string) (string, bool) {
	return os.LookupEnv(envPrefix + key)
}

func parseBrokerList(raw string) []string {
	fields := strings.Split(raw, ",")
	brokers := make([]string, 0, len(fields))
	for _, field := range fields {
		if trimmed := strings.TrimSpace(field); trimmed != "" {
			brokers = append(brokers, trimmed)
		}
	}
	return brokers
}

func parseWidth(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback, fmt.Errorf("invalid %sWIDTH %q", envPrefix, raw)
	}
	return value, nil
}

func parseBool(raw string, fallback bool) (bool, error) {
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback, fmt.Errorf("invalid boolean %q: %w", raw, err)
	}
	return value, nil
}

func parseDuration(raw string, fallback time.Duration) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback, fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	return d, nil
}
