// Package pathutil converts candidate paths to their user-facing form.
//
// Candidates are always root relative with a "./" prefix internally. Output
// may show them unchanged, relative to the current directory, or absolute.
package pathutil

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Style selects how paths are printed.
type Style int

const (
	// StyleThrough prints the root relative form, "./src/main.c".
	StyleThrough Style = iota
	// StyleRelative prints paths relative to the current directory.
	StyleRelative
	// StyleAbsolute prints absolute paths.
	StyleAbsolute
)

func (s Style) String() string {
	switch s {
	case StyleRelative:
		return "relative"
	case StyleAbsolute:
		return "absolute"
	default:
		return "through"
	}
}

// ParseStyle accepts "through", "relative" and "absolute".
func ParseStyle(s string) (Style, error) {
	switch strings.ToLower(s) {
	case "", "through":
		return StyleThrough, nil
	case "relative":
		return StyleRelative, nil
	case "absolute":
		return StyleAbsolute, nil
	}
	return StyleThrough, fmt.Errorf("unknown path style %q (expected through, relative or absolute)", s)
}

// Converter renders candidate paths in one style. Build it once per run.
type Converter struct {
	style   Style
	absRoot string
	cwd     string
}

// NewConverter resolves root and cwd to absolute paths.
func NewConverter(style Style, root, cwd string) (*Converter, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	absCwd, err := filepath.Abs(cwd)
	if err != nil {
		return nil, err
	}
	return &Converter{style: style, absRoot: absRoot, cwd: absCwd}, nil
}

// Convert renders a "./" candidate path.
func (c *Converter) Convert(p string) string {
	if c == nil || c.style == StyleThrough {
		return p
	}
	abs := ToAbsolute(p, c.absRoot)
	if c.style == StyleAbsolute {
		return abs
	}
	rel, err := filepath.Rel(c.cwd, abs)
	if err != nil {
		return abs
	}
	return filepath.ToSlash(rel)
}

// ToAbsolute joins a root relative path onto rootDir.
func ToAbsolute(p, rootDir string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(rootDir, filepath.FromSlash(strings.TrimPrefix(p, "./")))
}

// ToRelative converts an absolute path to relative based on a root directory.
// Falls back to the original path if conversion fails or path is already relative.
//
// Examples:
//   - ToRelative("/home/user/project/src/main.c", "/home/user/project") → "src/main.c"
//   - ToRelative("/other/location/file.c", "/home/user/project") → "/other/location/file.c" (outside root)
//   - ToRelative("src/main.c", "/home/user/project") → "src/main.c" (already relative)
func ToRelative(absPath, rootDir string) string {
	if absPath == "" || rootDir == "" {
		return absPath
	}
	if !filepath.IsAbs(absPath) {
		return absPath
	}

	absPath = filepath.Clean(absPath)
	rootDir = filepath.Clean(rootDir)

	relPath, err := filepath.Rel(rootDir, absPath)
	if err != nil {
		// Different volumes on Windows
		return absPath
	}
	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return absPath
	}
	return relPath
}
