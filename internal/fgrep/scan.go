package fgrep

import (
	"bytes"
	"iter"
)

// ScanOptions controls one scan.
type ScanOptions struct {
	// CaseInsensitive matches ASCII letters without regard to case, also on
	// an automaton built case-sensitively. Scans of an automaton built with
	// Options.CaseInsensitive always fold.
	CaseInsensitive bool
	// InvertMatch reports the lines that do not contain any word.
	InvertMatch bool
	// PathOnly stops at the first reported line with a PathMatched event.
	PathOnly bool
}

// MatchEvent is one reported line.
//
// Text aliases the scanned buffer and excludes the line terminator. It is
// only valid while that buffer is; copy it before releasing the source.
type MatchEvent struct {
	Line        int
	Text        []byte
	PathMatched bool
}

// Scan returns the lines of data selected by the automaton, in increasing
// line order. A line is selected when some word occurs in it (or, with
// InvertMatch, when none does). Once a word is found the rest of the line is
// skipped and matching restarts at the root on the next line. A final line
// without a terminating newline is treated like any other line.
//
// The sequence is finite and can be ranged over once per call; call Scan
// again for fresh input.
func (a *Automaton) Scan(data []byte, opts ScanOptions) iter.Seq[MatchEvent] {
	return func(yield func(MatchEvent) bool) {
		if len(data) == 0 {
			return
		}
		m := a
		if opts.CaseInsensitive {
			m = a.foldedView()
		}
		fold := m.foldCase

		lineno := 1
		for pos := 0; pos < len(data); lineno++ {
			start := pos
			matched := false
			state := root
			for pos < len(data) {
				c := data[pos]
				if c == '\n' {
					break
				}
				if fold {
					c = toLower(c)
				}
				pos++
				var accept bool
				if state, accept = m.Step(state, c); accept {
					matched = true
					break
				}
			}

			end := pos
			if matched {
				if i := bytes.IndexByte(data[pos:], '\n'); i >= 0 {
					end = pos + i
				} else {
					end = len(data)
				}
			}
			pos = end + 1

			if matched == opts.InvertMatch {
				continue
			}

			ev := MatchEvent{Line: lineno, Text: data[start:end]}
			if opts.PathOnly {
				ev.PathMatched = true
				yield(ev)
				return
			}
			if !yield(ev) {
				return
			}
		}
	}
}

// Contains reports whether Scan would select at least one line.
func (a *Automaton) Contains(data []byte, opts ScanOptions) bool {
	opts.PathOnly = true
	for range a.Scan(data, opts) {
		return true
	}
	return false
}

// Count returns the number of lines Scan would select.
func (a *Automaton) Count(data []byte, opts ScanOptions) int {
	opts.PathOnly = false
	n := 0
	for range a.Scan(data, opts) {
		n++
	}
	return n
}
