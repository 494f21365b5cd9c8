package config

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/gxref/internal/debug"
)

// GitignoreParser reads the root .gitignore and turns its rules into
// doublestar exclusion patterns.
type GitignoreParser struct {
	patterns []GitignorePattern
}

type GitignorePattern struct {
	Pattern   string
	Negate    bool
	Directory bool
	// Anchored patterns contain a slash other than a trailing one and match
	// from the root only.
	Anchored bool
}

// NewGitignoreParser creates a new gitignore parser
func NewGitignoreParser() *GitignoreParser {
	return &GitignoreParser{}
}

// LoadGitignore loads patterns from <rootPath>/.gitignore. A missing file is
// not an error.
func (gp *GitignoreParser) LoadGitignore(rootPath string) error {
	file, err := os.Open(filepath.Join(rootPath, ".gitignore"))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer file.Close()

	return gp.Read(file)
}

// Read parses gitignore lines from r.
func (gp *GitignoreParser) Read(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		gp.AddPattern(scanner.Text())
	}
	return scanner.Err()
}

// AddPattern parses one line. Blank lines and comments are ignored.
func (gp *GitignoreParser) AddPattern(line string) {
	line = trimTrailingSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}

	var p GitignorePattern
	switch {
	case strings.HasPrefix(line, "!"):
		p.Negate = true
		line = line[1:]
	case strings.HasPrefix(line, `\!`), strings.HasPrefix(line, `\#`):
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.Directory = true
		line = strings.TrimRight(line, "/")
	}
	if strings.Contains(line, "/") {
		p.Anchored = true
		line = strings.TrimPrefix(line, "/")
	}
	if line == "" {
		return
	}
	p.Pattern = line
	gp.patterns = append(gp.patterns, p)
}

// trimTrailingSpace drops unescaped trailing spaces.
func trimTrailingSpace(line string) string {
	line = strings.TrimRight(line, "\r")
	for strings.HasSuffix(line, " ") && !strings.HasSuffix(line, `\ `) {
		line = line[:len(line)-1]
	}
	return line
}

// Patterns returns the parsed rules in file order.
func (gp *GitignoreParser) Patterns() []GitignorePattern {
	return gp.patterns
}

// GetExclusionPatterns converts the rules to doublestar patterns. Negated
// rules cannot be expressed as exclusions and are dropped, as are rules that
// doublestar rejects.
func (gp *GitignoreParser) GetExclusionPatterns() []string {
	var exclusions []string
	for _, p := range gp.patterns {
		if p.Negate {
			debug.LogConfig("gitignore: dropping negated rule !%s\n", p.Pattern)
			continue
		}
		for _, pattern := range toDoublestar(p) {
			if !doublestar.ValidatePattern(pattern) {
				debug.LogConfig("gitignore: dropping invalid rule %s\n", p.Pattern)
				break
			}
			exclusions = append(exclusions, pattern)
		}
	}
	return exclusions
}

func toDoublestar(p GitignorePattern) []string {
	base := p.Pattern
	if !p.Anchored && !strings.HasPrefix(base, "**/") {
		base = "**/" + base
	}
	// a directory rule cannot match a file, but everything below it
	if p.Directory {
		return []string{base + "/**"}
	}
	return []string{base, base + "/**"}
}
