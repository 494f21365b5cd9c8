// Package langmap maps file suffixes to languages and classifies candidates
// as source or other files.
package langmap

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/standardbeagle/gxref/internal/errors"
	"github.com/standardbeagle/gxref/internal/walk"
)

// DefaultLangmap lists the suffixes treated as source files.
const DefaultLangmap = "c:.c.h,yacc:.y,asm:.s.S,java:.java," +
	"cpp:.c++.cc.hh.cpp.cxx.hxx.hpp.C.H,php:.php.php3.phtml," +
	"go:.go,python:.py.pyi,rust:.rs,javascript:.js.mjs.cjs.jsx," +
	"typescript:.ts.tsx,csharp:.cs,zig:.zig,ruby:.rb,perl:.pl.pm,shell:.sh.bash"

// Map is an immutable suffix table.
type Map struct {
	bySuffix map[string]string
	defs     string
}

// Parse reads "lang:.ext.ext,lang:.ext". A language may appear more than
// once; later suffixes win over earlier ones.
func Parse(defs string) (*Map, error) {
	m := &Map{bySuffix: make(map[string]string), defs: defs}
	for _, entry := range strings.Split(defs, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		lang, suffixes, ok := strings.Cut(entry, ":")
		if !ok || lang == "" {
			return nil, errors.NewConfigError("langmap", entry, fmt.Errorf("expected lang:.suffix"))
		}
		if !strings.HasPrefix(suffixes, ".") || strings.HasSuffix(suffixes, ".") {
			return nil, errors.NewConfigError("langmap", entry, fmt.Errorf("suffixes must look like .c.h"))
		}
		for _, s := range strings.Split(suffixes[1:], ".") {
			if s == "" {
				return nil, errors.NewConfigError("langmap", entry, fmt.Errorf("empty suffix"))
			}
			m.bySuffix["."+s] = lang
		}
	}
	return m, nil
}

// MustParse is like Parse but panics on error.
func MustParse(defs string) *Map {
	m, err := Parse(defs)
	if err != nil {
		panic(err)
	}
	return m
}

// Language returns the language of path, or "" when its suffix is unknown.
// Suffixes are case sensitive.
func (m *Map) Language(p string) string {
	ext := path.Ext(p)
	if ext == "" {
		return ""
	}
	return m.bySuffix[ext]
}

// Classify implements walk.Classifier.
func (m *Map) Classify(p string) walk.Class {
	if m.Language(p) != "" {
		return walk.ClassSource
	}
	return walk.ClassOther
}

// Languages returns the known languages, sorted.
func (m *Map) Languages() []string {
	seen := make(map[string]bool)
	var langs []string
	for _, lang := range m.bySuffix {
		if !seen[lang] {
			seen[lang] = true
			langs = append(langs, lang)
		}
	}
	sort.Strings(langs)
	return langs
}

func (m *Map) String() string {
	return m.defs
}
