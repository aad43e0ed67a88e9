package compiler

import (
	"fmt"
	"io"

	"dscc/pkg/ir"
)

// Options are the driver-visible knobs of one compilation.
type Options struct {
	// OptLevel is accepted for command-line compatibility; no
	// optimization passes run at any level yet.
	OptLevel int

	// Verbose streams per-stage progress to Log.
	Verbose bool
	Log     io.Writer
}

// Compile runs the full pipeline over one source file: lex, parse,
// analyze, and (only when the front end is clean) generate IR. The
// returned reporter holds every diagnostic in source order; the module
// is nil whenever errors were reported.
func Compile(filename string, src string, opts Options) (*ir.Module, *Reporter) {
	log := opts.Log
	if log == nil {
		log = io.Discard
	}

	reporter := NewReporter(filename)

	lex := NewLexer(filename, src, reporter)
	lex.SetErrorWriter(log)
	parser := NewParser(lex, reporter)
	unit := parser.Parse()
	if opts.Verbose {
		fmt.Fprintf(log, "parsed %s: %d top-level declarations\n", filename, len(unit.Decls))
	}

	analyzer := NewAnalyzer(reporter)
	analyzer.Analyze(unit)
	if opts.Verbose {
		fmt.Fprintf(log, "analyzed %s: %d error(s), %d warning(s)\n",
			filename, reporter.ErrorCount(), reporter.WarningCount())
		fmt.Fprint(log, analyzer.Symbols())
	}

	if reporter.HasErrors() {
		return nil, reporter
	}

	module := NewCodeGen(reporter).Generate(unit)
	if reporter.HasErrors() {
		return nil, reporter
	}
	if opts.Verbose {
		fmt.Fprintf(log, "generated %d function(s), %d global(s)\n",
			len(module.Funcs), len(module.Globals))
	}
	return module, reporter
}
