package walk

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	gxerrors "github.com/standardbeagle/gxref/internal/errors"
	"github.com/standardbeagle/gxref/internal/skip"
)

// ListReader replays a newline separated list of paths as candidates.
// Blank lines and lines starting with ". " are skipped with a warning.
// Relative entries are taken relative to the root.
type ListReader struct {
	reporter
	root          string
	absRoot       string
	canonicalRoot string
	skip          *skip.Matcher
	scanner       *bufio.Scanner
	lineno        int
	closer        io.Closer
	closed        bool
}

// ReplayFileList reads candidates from r. A nil matcher means the default
// skip list.
func ReplayFileList(r io.Reader, root string, m *skip.Matcher, opts Options) (*ListReader, error) {
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
	canonicalRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, gxerrors.NewFileError("resolve", root, err).WithRecoverable(false)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	return &ListReader{
		reporter:      reporter{opts: opts},
		root:          root,
		absRoot:       absRoot,
		canonicalRoot: canonicalRoot,
		skip:          m,
		scanner:       scanner,
	}, nil
}

// OpenFileList opens path, or standard input for "-", and replays it.
// Close closes the file.
func OpenFileList(path, root string, m *skip.Matcher, opts Options) (*ListReader, error) {
	if path == "-" {
		return ReplayFileList(os.Stdin, root, m, opts)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, gxerrors.NewFileError("open", path, err).WithRecoverable(false)
	}
	lr, err := ReplayFileList(f, root, m, opts)
	if err != nil {
		f.Close()
		return nil, err
	}
	lr.closer = f
	return lr, nil
}

// Next returns the next listed file that passes the same checks as the
// tree walker.
func (lr *ListReader) Next() (Candidate, error) {
	if lr.closed {
		return Candidate{}, Done
	}
	for lr.scanner.Scan() {
		lr.lineno++
		raw := strings.TrimSuffix(lr.scanner.Text(), "\r")
		if raw == "" {
			lr.warn(fmt.Sprintf("line %d", lr.lineno), nil, "ignored: blank line")
			continue
		}
		if strings.HasPrefix(raw, ". ") {
			lr.warn(fmt.Sprintf("line %d", lr.lineno), nil, "ignored: comment")
			continue
		}

		p, ok := lr.normalize(raw)
		if !ok {
			continue
		}
		if lr.skip.Test(p) {
			lr.info(p, "skipped: %s", lr.skip.Explain(p))
			continue
		}

		osPath := filepath.Join(lr.root, filepath.FromSlash(strings.TrimPrefix(p, "./")))
		info, err := os.Stat(osPath)
		if err != nil {
			lr.warn(p, gxerrors.NewFileError("stat", p, err), "ignored: not found")
			continue
		}
		if kind := kindOfMode(info.Mode()); kind != KindFile {
			lr.warn(p, nil, "ignored: %s", kind)
			continue
		}

		c, ok, err := lr.acceptFile(p, osPath)
		if err != nil {
			return Candidate{}, err
		}
		if ok {
			return c, nil
		}
	}
	if err := lr.scanner.Err(); err != nil {
		return Candidate{}, gxerrors.NewFileError("read", "file list", err).WithRecoverable(false)
	}
	return Candidate{}, Done
}

// Close closes the underlying file, if this reader opened one.
func (lr *ListReader) Close() error {
	if lr.closed {
		return nil
	}
	lr.closed = true
	if lr.closer != nil {
		return lr.closer.Close()
	}
	return nil
}

// normalize turns a listed path into "./rel" form. Paths outside the root
// are reported as integrity warnings.
func (lr *ListReader) normalize(raw string) (string, bool) {
	p := filepath.FromSlash(raw)
	abs := p
	if !filepath.IsAbs(p) {
		abs = filepath.Join(lr.absRoot, p)
	}
	abs = filepath.Clean(abs)

	rel, ok := within(lr.absRoot, abs)
	if !ok {
		// The root itself may have been reached through a symlink.
		resolved, err := filepath.EvalSymlinks(abs)
		if err == nil {
			rel, ok = within(lr.canonicalRoot, resolved)
		}
		if !ok {
			outside := gxerrors.NewIntegrityError(raw, resolved, "outside of the root")
			lr.warn(raw, outside, "ignored: %v", outside)
			return "", false
		}
	}
	if rel == "." {
		lr.warn(raw, nil, "ignored: %s", KindDir)
		return "", false
	}
	return "./" + filepath.ToSlash(rel), true
}

func within(root, path string) (string, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}
