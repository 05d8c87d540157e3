package docker

import "fixrun/internal/domain/execution"

// Config describes how to create a Docker-backed runtime engine.
type Config struct {
	Languages     map[execution.Language]LanguageConfig
	DefaultLimits execution.RunLimits
}

// LanguageConfig specifies container settings for a single language.
//
// Image provides the toolchain. RunImage, when set, is used to run the
// compiled program instead of Image.
type LanguageConfig struct {
	Image    string
	RunImage string
	Workdir  string
}

// DefaultLanguages returns the images used when none are configured.
func DefaultLanguages() map[execution.Language]LanguageConfig {
	return map[execution.Language]LanguageConfig{
		execution.LanguageC:      {Image: "gcc:13", Workdir: "/workspace"},
		execution.LanguageCPP:    {Image: "gcc:13", Workdir: "/workspace"},
		execution.LanguagePython: {Image: "python:3.12-slim", Workdir: "/workspace"},
	}
}
