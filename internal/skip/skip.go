// Package skip compiles the comma separated skip list into a single
// matcher over normalized candidate paths. Candidate paths start with "./";
// directories carry a trailing "/".
package skip

import (
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/gxref/internal/errors"
)

// DefaultSkip is used when neither the configuration nor the command line
// provides a skip list.
const DefaultSkip = "HTML/,HTML.pub/,tags,TAGS,ID,y.tab.c,y.tab.h," +
	"gtags.files,cscope.files,cscope.out,cscope.po.out,cscope.in.out," +
	"SCCS/,RCS/,CVS/,CVSROOT/,{arch}/,autom4te.cache/,_darcs/,_MTN/," +
	"node_modules/,vendor/bundle/,__pycache__/," +
	"*.orig,*.rej,*.bak,*~,#*#,*.swp,*.tmp,*.[oa],*.so,*.lo,*.la," +
	"*.exe,*.obj,*.dll,*.pyc,*.class,*.jar,*.war,*.zip,*.gz,*.bz2,*.xz," +
	"*.tar,*.tgz,*.png,*.jpg,*.jpeg,*.gif,*.ico,*.pdf"

// ReservedNames are the tag database files. They are always skipped.
var ReservedNames = []string{"GPATH", "GTAGS", "GRTAGS", "GSYMS"}

const dotfileFragment = `/\.[^/]+$|/\.[^/]+/`

// Reason explains why a path was skipped.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonDotfile
	ReasonReserved
	ReasonSkipList
	ReasonExclude
)

func (r Reason) String() string {
	switch r {
	case ReasonDotfile:
		return "dot file"
	case ReasonReserved:
		return "reserved tag file"
	case ReasonSkipList:
		return "skip list"
	case ReasonExclude:
		return "exclude pattern"
	default:
		return "none"
	}
}

// Options controls compilation.
type Options struct {
	// AcceptDotfiles keeps names starting with a dot.
	AcceptDotfiles bool
	// Exclude holds doublestar patterns matched against the root relative
	// path with no "./" prefix and no trailing "/".
	Exclude []string
}

// Matcher is an immutable compiled skip policy, safe for concurrent use.
type Matcher struct {
	all      *regexp.Regexp
	dotfile  *regexp.Regexp
	reserved *regexp.Regexp
	list     *regexp.Regexp
	exclude  []string
}

// Compile builds a Matcher from a skip list. Malformed globs and invalid
// exclude patterns are reported as *errors.ConfigError.
func Compile(entries string, opts Options) (*Matcher, error) {
	var fragments []string
	for _, entry := range splitList(entries) {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		frag, err := translate(entry)
		if err != nil {
			return nil, errors.NewConfigError("skip", entry, err)
		}
		fragments = append(fragments, frag)
	}

	m := &Matcher{}
	var union []string

	quoted := make([]string, len(ReservedNames))
	for i, name := range ReservedNames {
		quoted[i] = regexp.QuoteMeta(name)
	}
	reserved := `/(?:` + strings.Join(quoted, "|") + `)$`
	m.reserved = regexp.MustCompile(reserved)
	union = append(union, reserved)

	if !opts.AcceptDotfiles {
		m.dotfile = regexp.MustCompile(dotfileFragment)
		union = append(union, dotfileFragment)
	}

	if len(fragments) > 0 {
		list := strings.Join(fragments, "|")
		re, err := regexp.Compile(list)
		if err != nil {
			return nil, errors.NewConfigError("skip", entries, err)
		}
		m.list = re
		union = append(union, list)
	}

	all, err := regexp.Compile(strings.Join(union, "|"))
	if err != nil {
		return nil, errors.NewConfigError("skip", entries, err)
	}
	m.all = all

	for _, pattern := range opts.Exclude {
		if pattern == "" {
			continue
		}
		if !doublestar.ValidatePattern(pattern) {
			return nil, errors.NewConfigError("exclude", pattern, doublestar.ErrBadPattern)
		}
		m.exclude = append(m.exclude, pattern)
	}

	return m, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(entries string, opts Options) *Matcher {
	m, err := Compile(entries, opts)
	if err != nil {
		panic(err)
	}
	return m
}

// Test reports whether path must be skipped.
func (m *Matcher) Test(path string) bool {
	if m.all.MatchString(path) {
		return true
	}
	return m.excluded(path)
}

// Explain returns the first rule that skips path, or ReasonNone.
func (m *Matcher) Explain(path string) Reason {
	switch {
	case m.reserved.MatchString(path):
		return ReasonReserved
	case m.dotfile != nil && m.dotfile.MatchString(path):
		return ReasonDotfile
	case m.list != nil && m.list.MatchString(path):
		return ReasonSkipList
	case m.excluded(path):
		return ReasonExclude
	}
	return ReasonNone
}

// String returns the compiled regular expression.
func (m *Matcher) String() string {
	return m.all.String()
}

// Exclude returns the extra doublestar patterns.
func (m *Matcher) Exclude() []string {
	return m.exclude
}

func (m *Matcher) excluded(path string) bool {
	if len(m.exclude) == 0 {
		return false
	}
	rel := strings.TrimSuffix(strings.TrimPrefix(path, "./"), "/")
	if rel == "" || rel == "." {
		return false
	}
	for _, pattern := range m.exclude {
		if matched, err := doublestar.Match(pattern, rel); err == nil && matched {
			return true
		}
	}
	return false
}
