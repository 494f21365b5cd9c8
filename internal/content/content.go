// Package content acquires the bytes of a file for scanning, either as a
// read-only memory mapping or as a buffered read.
package content

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/standardbeagle/gxref/internal/errors"
)

// DefaultMapThreshold is the file size at which StrategyAuto maps instead
// of reading.
const DefaultMapThreshold = 64 * 1024

// Source is an immutable view of one file's bytes. Bytes is only valid
// until Close, which may be called more than once.
type Source interface {
	Bytes() []byte
	Close() error
}

// Strategy selects how bytes are acquired.
type Strategy int

const (
	StrategyAuto Strategy = iota
	StrategyMapped
	StrategyBuffered
)

func (s Strategy) String() string {
	switch s {
	case StrategyMapped:
		return "mmap"
	case StrategyBuffered:
		return "read"
	default:
		return "auto"
	}
}

// ParseStrategy accepts "auto", "mmap" and "read".
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return StrategyAuto, nil
	case "mmap", "mapped":
		return StrategyMapped, nil
	case "read", "buffered":
		return StrategyBuffered, nil
	}
	return StrategyAuto, errors.NewConfigError("io", s, fmt.Errorf("expected auto, mmap or read"))
}

// Open returns the bytes of path. StrategyAuto maps files of at least
// mapThreshold bytes where mapping is supported and reads the rest.
// StrategyMapped falls back to reading where mapping is unsupported.
// Empty files are never mapped. Failures are *errors.FileError values
// marked recoverable.
func Open(path string, strategy Strategy, mapThreshold int64) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewFileError("open", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, errors.NewFileError("stat", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, errors.NewFileError("open", path, fmt.Errorf("not a regular file"))
	}

	size := info.Size()
	if size == 0 {
		return empty{}, nil
	}

	if mapThreshold <= 0 {
		mapThreshold = DefaultMapThreshold
	}
	useMap := mmapSupported && (strategy == StrategyMapped || (strategy == StrategyAuto && size >= mapThreshold))
	if useMap {
		src, err := mapFile(f, size)
		if err == nil {
			return src, nil
		}
		if strategy == StrategyMapped {
			return nil, errors.NewFileError("mmap", path, err)
		}
	}

	return readAll(f, path, size)
}

type empty struct{}

func (empty) Bytes() []byte { return nil }
func (empty) Close() error  { return nil }

type buffered struct {
	data []byte
}

func (b *buffered) Bytes() []byte { return b.data }

func (b *buffered) Close() error {
	b.data = nil
	return nil
}

func readAll(f *os.File, path string, size int64) (Source, error) {
	data := make([]byte, size)
	n, err := io.ReadFull(f, data)
	switch err {
	case nil:
	case io.ErrUnexpectedEOF:
		// The file shrank after Stat.
		data = data[:n]
	default:
		return nil, errors.NewFileError("read", path, err)
	}
	return &buffered{data: data}, nil
}
