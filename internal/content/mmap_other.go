//go:build !unix

package content

import (
	"errors"
	"os"
)

const mmapSupported = false

func mapFile(*os.File, int64) (Source, error) {
	return nil, errors.ErrUnsupported
}
