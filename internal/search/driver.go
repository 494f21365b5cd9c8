// Package search drives a literal search: it pulls candidates from a walk
// source, loads their bytes, runs the automaton and hands matches to a sink.
package search

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/gxref/internal/content"
	"github.com/standardbeagle/gxref/internal/debug"
	"github.com/standardbeagle/gxref/internal/errors"
	"github.com/standardbeagle/gxref/internal/fgrep"
	"github.com/standardbeagle/gxref/internal/walk"
)

// Target selects which candidate classes are scanned.
type Target int

const (
	TargetSource Target = iota
	TargetOther
	TargetAll
)

func (t Target) String() string {
	switch t {
	case TargetOther:
		return "other"
	case TargetAll:
		return "all"
	default:
		return "source"
	}
}

// ParseTarget accepts "source", "other" and "all".
func ParseTarget(s string) (Target, error) {
	switch strings.ToLower(s) {
	case "", "source":
		return TargetSource, nil
	case "other":
		return TargetOther, nil
	case "all":
		return TargetAll, nil
	}
	return TargetSource, errors.NewConfigError("target", s, fmt.Errorf("expected source, other or all"))
}

// batchFactor is how many files per worker are scanned before emitting.
const batchFactor = 4

// Options controls a search run.
type Options struct {
	// Patterns label the matches; they are joined with "|" into Match.Tag.
	Patterns        []string
	CaseInsensitive bool
	InvertMatch     bool
	// PathOnly emits one match per matching file.
	PathOnly     bool
	Target       Target
	Strategy     content.Strategy
	MapThreshold int64
	// Parallel is the number of files scanned at once. Values below 2 scan
	// one file at a time.
	Parallel int
	// OnWarning receives every recoverable error.
	OnWarning func(error)
}

// Match is one reported line. In path-only mode Text is empty and Line is
// the first selected line.
type Match struct {
	Tag  string
	Path string
	Line int
	Text string
}

// Sink receives matches in candidate order and, within a file, in line
// order. A sink error aborts the run.
type Sink interface {
	Emit(Match) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Match) error

func (f SinkFunc) Emit(m Match) error { return f(m) }

// Stats summarizes a run.
type Stats struct {
	Files    int // candidates produced by the source
	Scanned  int // files whose bytes were scanned
	Matches  int // matches emitted
	Warnings int // recoverable errors
	// Skipped holds the recoverable errors in candidate order.
	Skipped []error
}

// Err returns the recoverable errors of the run as one error, or nil.
func (s Stats) Err() error {
	return errors.NewMultiError(s.Skipped).ErrorOrNil()
}

// Driver runs one automaton over many files. It holds no per-run state and
// can be reused.
type Driver struct {
	automaton *fgrep.Automaton
	opts      Options
	tag       string
	scan      fgrep.ScanOptions
}

// New creates a driver.
func New(a *fgrep.Automaton, opts Options) *Driver {
	return &Driver{
		automaton: a,
		opts:      opts,
		tag:       strings.Join(opts.Patterns, "|"),
		scan: fgrep.ScanOptions{
			CaseInsensitive: opts.CaseInsensitive,
			InvertMatch:     opts.InvertMatch,
			PathOnly:        opts.PathOnly,
		},
	}
}

type fileResult struct {
	matches []Match
	err     error
}

// Run consumes src until it is exhausted, a fatal error occurs or ctx is
// done. src is always closed. Errors from the source are fatal; errors
// opening or reading a file are warnings.
func (d *Driver) Run(ctx context.Context, src walk.Source, sink Sink) (Stats, error) {
	defer src.Close()

	if d.opts.Parallel > 1 {
		return d.runParallel(ctx, src, sink)
	}

	var stats Stats
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		c, ok, err := d.next(src, &stats)
		if err != nil {
			return stats, err
		}
		if !ok {
			return stats, nil
		}
		matches, err := d.scanFile(c)
		if err := d.deliver(sink, &stats, fileResult{matches, err}); err != nil {
			return stats, err
		}
	}
}

// runParallel scans batches concurrently and emits each batch in order.
func (d *Driver) runParallel(ctx context.Context, src walk.Source, sink Sink) (Stats, error) {
	var stats Stats
	size := d.opts.Parallel * batchFactor
	batch := make([]walk.Candidate, 0, size)

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		batch = batch[:0]
		var srcErr error
		exhausted := false
		for len(batch) < size {
			c, ok, err := d.next(src, &stats)
			if err != nil {
				srcErr = err
				break
			}
			if !ok {
				exhausted = true
				break
			}
			batch = append(batch, c)
		}

		results := make([]fileResult, len(batch))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(d.opts.Parallel)
		for i := range batch {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[i].matches, results[i].err = d.scanFile(batch[i])
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return stats, err
		}

		for _, r := range results {
			if err := d.deliver(sink, &stats, r); err != nil {
				return stats, err
			}
		}

		if srcErr != nil {
			return stats, srcErr
		}
		if exhausted {
			return stats, nil
		}
	}
}

// next returns the next candidate of the wanted class.
func (d *Driver) next(src walk.Source, stats *Stats) (walk.Candidate, bool, error) {
	for {
		c, err := src.Next()
		if err == walk.Done {
			return walk.Candidate{}, false, nil
		}
		if err != nil {
			return walk.Candidate{}, false, err
		}
		stats.Files++
		if d.opts.Target.Accepts(c.Class) {
			return c, true, nil
		}
	}
}

// Accepts reports whether files of class c are scanned.
func (t Target) Accepts(c walk.Class) bool {
	switch t {
	case TargetAll:
		return true
	case TargetOther:
		return c == walk.ClassOther
	default:
		return c == walk.ClassSource
	}
}

// deliver emits one file's matches or records its warning.
func (d *Driver) deliver(sink Sink, stats *Stats, r fileResult) error {
	if r.err != nil {
		if errors.IsFatal(r.err) {
			return r.err
		}
		stats.Warnings++
		stats.Skipped = append(stats.Skipped, r.err)
		if d.opts.OnWarning != nil {
			d.opts.OnWarning(r.err)
		}
		return nil
	}
	stats.Scanned++
	for _, m := range r.matches {
		if err := sink.Emit(m); err != nil {
			return err
		}
		stats.Matches++
	}
	return nil
}

// scanFile returns the matches of one file. Match text is copied, so the
// content is released before returning.
func (d *Driver) scanFile(c walk.Candidate) ([]Match, error) {
	src, err := content.Open(c.OSPath, d.opts.Strategy, d.opts.MapThreshold)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	var matches []Match
	for ev := range d.automaton.Scan(src.Bytes(), d.scan) {
		m := Match{Tag: d.tag, Path: c.Path, Line: ev.Line}
		if !ev.PathMatched {
			m.Text = string(ev.Text)
		}
		matches = append(matches, m)
	}
	debug.LogSearch("%s: %d matches\n", c.Path, len(matches))
	return matches, nil
}
