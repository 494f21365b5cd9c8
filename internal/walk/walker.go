package walk

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/standardbeagle/gxref/internal/debug"
	gxerrors "github.com/standardbeagle/gxref/internal/errors"
	"github.com/standardbeagle/gxref/internal/skip"
)

// entry is one name from a directory listing with its resolved kind.
type entry struct {
	name string
	kind Kind
}

// frame is one open directory. prefixLen is the length of the shared path
// buffer up to and including this directory's trailing "/".
type frame struct {
	entries   []entry
	cursor    int
	prefixLen int
	canonical string
}

// Walker is a pre-order depth-first traversal driven by an explicit stack,
// so tree depth is not limited by the goroutine stack. Entries within a
// directory are visited in lexical order. A Walker is not safe for
// concurrent use.
type Walker struct {
	reporter
	root    string
	absRoot string
	skip    *skip.Matcher
	stack   []frame
	path    []byte
	closed  bool
}

// Open resolves root and lists its entries. A nil matcher means the
// default skip list.
func Open(root string, m *skip.Matcher, opts Options) (*Walker, error) {
	if m == nil {
		var err error
		if m, err = skip.Compile(skip.DefaultSkip, skip.Options{AcceptDotfiles: opts.AcceptDotfiles}); err != nil {
			return nil, err
		}
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, gxerrors.NewFileError("resolve", root, err).WithRecoverable(false)
	}
	canonical, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, gxerrors.NewFileError("resolve", root, err).WithRecoverable(false)
	}
	info, err := os.Stat(canonical)
	if err != nil {
		return nil, gxerrors.NewFileError("stat", root, err).WithRecoverable(false)
	}
	if !info.IsDir() {
		return nil, gxerrors.NewFileError("open", root, fmt.Errorf("not a directory")).WithRecoverable(false)
	}

	entries, err := readDir(root)
	if err != nil {
		return nil, gxerrors.NewFileError("list", root, err).WithRecoverable(false)
	}

	w := &Walker{
		reporter: reporter{opts: opts},
		root:     root,
		absRoot:  absRoot,
		skip:     m,
		path:     append(make([]byte, 0, 256), "./"...),
	}
	w.stack = append(w.stack, frame{entries: entries, prefixLen: len(w.path), canonical: canonical})
	debug.LogWalk("walking %s (%s)\n", root, canonical)
	return w, nil
}

// Next returns the next accepted file. Skipped, special and unreadable
// entries are reported through OnDiagnostic. The only error besides Done
// is a fatal *errors.FileError for an unreadable entry when
// SkipUnreadable is off.
func (w *Walker) Next() (Candidate, error) {
	if w.closed {
		return Candidate{}, Done
	}

	for len(w.stack) > 0 {
		top := len(w.stack) - 1
		f := &w.stack[top]
		if f.cursor >= len(f.entries) {
			w.stack[top] = frame{}
			w.stack = w.stack[:top]
			continue
		}
		e := f.entries[f.cursor]
		f.cursor++

		w.path = append(w.path[:f.prefixLen], e.name...)
		if e.kind == KindDir {
			w.path = append(w.path, '/')
		}
		p := string(w.path)

		if w.skip.Test(p) {
			w.info(p, "skipped: %s", w.skip.Explain(p))
			continue
		}

		switch e.kind {
		case KindFile:
			c, ok, err := w.acceptFile(p, w.osPath(p))
			if err != nil {
				return Candidate{}, err
			}
			if ok {
				return c, nil
			}
		case KindDir:
			if err := w.descend(p); err != nil {
				return Candidate{}, err
			}
		case KindOther:
			w.warn(p, nil, "ignored: not a regular file")
		case KindMissing:
			w.warn(p, nil, "ignored: broken symbolic link")
		}
	}
	return Candidate{}, Done
}

// Close drops all open frames. It is safe to call more than once.
func (w *Walker) Close() error {
	w.stack = nil
	w.path = nil
	w.closed = true
	return nil
}

// Depth returns the number of open directories.
func (w *Walker) Depth() int {
	return len(w.stack)
}

// descend pushes a frame for directory p unless it closes a symlink loop.
func (w *Walker) descend(p string) error {
	abs := filepath.Join(w.absRoot, filepath.FromSlash(p))
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return w.unreadable(p, gxerrors.NewFileError("resolve", p, err))
	}

	for i := range w.stack {
		open := w.stack[i].canonical
		if canonical == open || isAncestor(canonical, open) {
			loop := gxerrors.NewIntegrityError(p, canonical, "symbolic link loop")
			w.warn(p, loop, "ignored: %v", loop)
			return nil
		}
	}

	entries, err := readDir(w.osPath(p))
	if err != nil {
		return w.unreadable(p, gxerrors.NewFileError("list", p, err))
	}

	w.stack = append(w.stack, frame{
		entries:   entries,
		prefixLen: len(w.path),
		canonical: canonical,
	})
	return nil
}

func (w *Walker) osPath(p string) string {
	return filepath.Join(w.root, filepath.FromSlash(strings.TrimPrefix(p, "./")))
}

// acceptFile checks readability and classifies a regular file.
func (r *reporter) acceptFile(p, osPath string) (Candidate, bool, error) {
	if err := readable(osPath); err != nil {
		return Candidate{}, false, r.unreadable(p, gxerrors.NewFileError("open", p, err))
	}
	return Candidate{Path: p, OSPath: osPath, Class: r.classify(p)}, true, nil
}

// unreadable reports err as a warning when unreadable entries are skipped
// and returns it as fatal otherwise.
func (r *reporter) unreadable(p string, err *gxerrors.FileError) error {
	if r.opts.SkipUnreadable {
		r.warn(p, err, "ignored: %v", err.Underlying)
		return nil
	}
	return err.WithRecoverable(false)
}

// isAncestor reports whether dir is a proper ancestor of path.
func isAncestor(dir, path string) bool {
	if dir == string(filepath.Separator) {
		return path != dir && strings.HasPrefix(path, dir)
	}
	return strings.HasPrefix(path, dir+string(filepath.Separator))
}

// readDir lists dir in lexical order, resolving symlinks to the kind of
// their target.
func readDir(dir string) ([]entry, error) {
	des, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	entries := make([]entry, 0, len(des))
	for _, de := range des {
		entries = append(entries, entry{name: de.Name(), kind: kindOf(dir, de)})
	}
	return entries, nil
}

func kindOf(dir string, de fs.DirEntry) Kind {
	t := de.Type()
	switch {
	case t.IsDir():
		return KindDir
	case t.IsRegular():
		return KindFile
	case t&fs.ModeSymlink != 0:
		info, err := os.Stat(filepath.Join(dir, de.Name()))
		if err != nil {
			return KindMissing
		}
		return kindOfMode(info.Mode())
	default:
		return KindOther
	}
}

func kindOfMode(m fs.FileMode) Kind {
	switch {
	case m.IsDir():
		return KindDir
	case m.IsRegular():
		return KindFile
	default:
		return KindOther
	}
}
