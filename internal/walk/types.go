// Package walk enumerates candidate files for a search, either by a
// non-recursive depth-first traversal of a directory tree or by replaying
// a list of paths.
package walk

import (
	"errors"
	"fmt"
	"iter"
)

// Done is returned by Next when the sequence is exhausted.
var Done = errors.New("walk: no more candidates")

// Kind is the resolved type of a directory entry.
type Kind int

const (
	KindFile Kind = iota
	KindDir
	KindOther   // socket, FIFO, device
	KindMissing // broken symlink or vanished entry
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "directory"
	case KindOther:
		return "special file"
	default:
		return "missing"
	}
}

// Class separates source files from other files.
type Class int

const (
	ClassSource Class = iota
	ClassOther
)

func (c Class) String() string {
	if c == ClassSource {
		return "source"
	}
	return "other"
}

// Classifier decides the Class of a candidate path.
type Classifier func(path string) Class

// Candidate is one accepted file.
type Candidate struct {
	// Path is root relative and starts with "./".
	Path string
	// OSPath is the path to open, the root joined with Path.
	OSPath string
	Class  Class
}

// Severity of a Diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "info"
}

// Diagnostic is a human readable note about an entry that was not yielded.
// Info diagnostics are only produced with Options.Verbose.
type Diagnostic struct {
	Path     string
	Message  string
	Severity Severity
	Err      error
}

// DiagnosticFunc receives diagnostics as they happen.
type DiagnosticFunc func(Diagnostic)

// Options controls both the tree walker and the file list reader.
type Options struct {
	// AcceptDotfiles is informational; the skip matcher already encodes it.
	AcceptDotfiles bool
	// SkipUnreadable turns unreadable files and directories into warnings.
	// When false they end the walk with a fatal *errors.FileError.
	SkipUnreadable bool
	// Verbose reports every skipped entry as an info diagnostic.
	Verbose bool
	// Classifier defaults to classifying every file as ClassSource.
	Classifier   Classifier
	OnDiagnostic DiagnosticFunc
}

// Source yields candidates until Done. Close releases everything the
// source holds and may be called more than once.
type Source interface {
	Next() (Candidate, error)
	Close() error
}

// All adapts a Source to a range loop. Iteration stops after the first
// error, which is yielded with a zero Candidate. The caller still closes
// the source.
func All(src Source) iter.Seq2[Candidate, error] {
	return func(yield func(Candidate, error) bool) {
		for {
			c, err := src.Next()
			if err == Done {
				return
			}
			if err != nil {
				yield(Candidate{}, err)
				return
			}
			if !yield(c, nil) {
				return
			}
		}
	}
}

// reporter holds the option handling shared by Walker and ListReader.
type reporter struct {
	opts Options
}

func (r *reporter) info(path, format string, args ...any) {
	if r.opts.Verbose && r.opts.OnDiagnostic != nil {
		r.opts.OnDiagnostic(Diagnostic{Path: path, Message: fmt.Sprintf(format, args...), Severity: SeverityInfo})
	}
}

func (r *reporter) warn(path string, err error, format string, args ...any) {
	if r.opts.OnDiagnostic != nil {
		r.opts.OnDiagnostic(Diagnostic{Path: path, Message: fmt.Sprintf(format, args...), Severity: SeverityWarning, Err: err})
	}
}

func (r *reporter) classify(path string) Class {
	if r.opts.Classifier == nil {
		return ClassSource
	}
	return r.opts.Classifier(path)
}
