package docker

import (
	"fmt"
	"path"

	"fixrun/internal/domain/execution"
)

const (
	cSourceFilename      = "main.c"
	cppSourceFilename    = "main.cpp"
	pythonScriptFilename = "main.py"
	binaryFilename       = "program"
)

func strategyForLanguage(lang execution.Language) (languageStrategy, error) {
	switch lang {
	case execution.LanguagePython:
		return &interpretedStrategy{sourceFilename: pythonScriptFilename}, nil
	case execution.LanguageC:
		return &compiledStrategy{sourceFilename: cSourceFilename}, nil
	case execution.LanguageCPP:
		return &compiledStrategy{sourceFilename: cppSourceFilename}, nil
	default:
		return nil, fmt.Errorf("docker runtime: no strategy registered for language %q", lang)
	}
}

// containerCommand rewrites host paths in a plan command to their
// locations inside the container workdir.
func containerCommand(command []string, workdir string, paths map[string]string) []string {
	out := make([]string, len(command))
	for i, arg := range command {
		if name, ok := paths[arg]; ok {
			out[i] = path.Join(workdir, name)
			continue
		}
		out[i] = arg
	}
	return out
}
