package execution

// RunPlan describes how to turn a source file into a runnable program.
//
// A plan is built once per invocation and never modified afterwards.
type RunPlan struct {
	Language   Language
	SourceKind SourceKind
	SourcePath string
	// BinaryPath is where the compile step writes its output. Empty for
	// interpreted sources.
	BinaryPath string
	// CompileCommand is nil when the source needs no compile step.
	CompileCommand []string
	RunCommand     []string
}

// NeedsCompile reports whether the plan has a compile step.
func (p RunPlan) NeedsCompile() bool {
	return len(p.CompileCommand) > 0
}
