package execution

import (
	"path/filepath"
	"strings"
)

// Language identifies the programming language of a source file.
type Language string

const (
	LanguageC      Language = "c"
	LanguageCPP    Language = "cpp"
	LanguagePython Language = "python"
)

// SourceKind tells whether a language needs a compile step before running.
type SourceKind string

const (
	SourceNativeCompiled SourceKind = "native-compiled"
	SourceInterpreted    SourceKind = "interpreted"
)

var extensionLanguages = map[string]Language{
	".c":   LanguageC,
	".cpp": LanguageCPP,
	".py":  LanguagePython,
}

// LanguageForPath maps a source file extension to its Language.
func LanguageForPath(path string) (Language, error) {
	ext := strings.ToLower(filepath.Ext(path))
	lang, ok := extensionLanguages[ext]
	if !ok {
		return "", &UnsupportedSourceKindError{Path: path, Extension: ext}
	}
	return lang, nil
}

// Kind reports how sources of the language are executed.
func (l Language) Kind() SourceKind {
	switch l {
	case LanguageC, LanguageCPP:
		return SourceNativeCompiled
	default:
		return SourceInterpreted
	}
}
