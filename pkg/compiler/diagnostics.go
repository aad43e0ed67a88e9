package compiler

import (
	"fmt"
	"io"
)

// Level classifies the severity of a diagnostic.
type Level int

const (
	LevelError Level = iota
	LevelWarning
	LevelNote
)

func (lv Level) String() string {
	switch lv {
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	case LevelNote:
		return "note"
	}
	return "unknown"
}

// Diagnostic is one reported problem, immutable once created.
type Diagnostic struct {
	Level    Level
	Message  string
	Filename string
	Line     int
	Column   int
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", d.Filename, d.Line, d.Column, d.Level, d.Message)
}

// Reporter accumulates diagnostics for one compilation run, in insertion
// order, and tracks running error/warning counts.
type Reporter struct {
	filename     string
	diags        []Diagnostic
	errorCount   int
	warningCount int
}

func NewReporter(filename string) *Reporter {
	return &Reporter{filename: filename}
}

// Report appends a diagnostic at the given level.
func (r *Reporter) Report(level Level, line, col int, message string) {
	r.diags = append(r.diags, Diagnostic{
		Level:    level,
		Message:  message,
		Filename: r.filename,
		Line:     line,
		Column:   col,
	})
	switch level {
	case LevelError:
		r.errorCount++
	case LevelWarning:
		r.warningCount++
	}
}

func (r *Reporter) Error(line, col int, message string)   { r.Report(LevelError, line, col, message) }
func (r *Reporter) Warning(line, col int, message string) { r.Report(LevelWarning, line, col, message) }
func (r *Reporter) Note(line, col int, message string)    { r.Report(LevelNote, line, col, message) }

func (r *Reporter) Errorf(line, col int, format string, args ...any) {
	r.Error(line, col, fmt.Sprintf(format, args...))
}

// Diagnostics returns the accumulated diagnostics in insertion order.
func (r *Reporter) Diagnostics() []Diagnostic { return r.diags }

func (r *Reporter) ErrorCount() int   { return r.errorCount }
func (r *Reporter) WarningCount() int { return r.warningCount }

// HasErrors reports whether at least one error-level diagnostic was recorded.
func (r *Reporter) HasErrors() bool { return r.errorCount > 0 }

// Print writes every diagnostic to w followed by a summary line.
// The summary omits a zero count and is skipped entirely when there is
// nothing to summarize.
func (r *Reporter) Print(w io.Writer) {
	for _, d := range r.diags {
		fmt.Fprintln(w, d)
	}
	switch {
	case r.errorCount > 0 && r.warningCount > 0:
		fmt.Fprintf(w, "%d error(s) and %d warning(s) generated.\n", r.errorCount, r.warningCount)
	case r.errorCount > 0:
		fmt.Fprintf(w, "%d error(s) generated.\n", r.errorCount)
	case r.warningCount > 0:
		fmt.Fprintf(w, "%d warning(s) generated.\n", r.warningCount)
	}
}
