//go:build !unix

package imagemeta

import (
	"errors"
	"os"
)

func map_file(f *os.File) ([]byte, func() error, error) {
	return nil, nil, errors.ErrUnsupported
}
