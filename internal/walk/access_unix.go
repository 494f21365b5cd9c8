//go:build unix

package walk

import "golang.org/x/sys/unix"

// readable checks read permission without opening the file.
func readable(path string) error {
	return unix.Access(path, unix.R_OK)
}
