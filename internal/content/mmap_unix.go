//go:build unix

package content

import (
	"os"

	"golang.org/x/sys/unix"
)

const mmapSupported = true

type mapped struct {
	data []byte
}

func mapFile(f *os.File, size int64) (Source, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	return &mapped{data: data}, nil
}

func (m *mapped) Bytes() []byte { return m.data }

func (m *mapped) Close() error {
	if m.data == nil {
		return nil
	}
	data := m.data
	m.data = nil
	return unix.Munmap(data)
}
