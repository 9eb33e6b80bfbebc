//go:build unix

package imagemeta

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// map_file maps a regular file into memory read-only.
func map_file(f *os.File) (data []byte, unmap func() error, err error) {
	st, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}
	sz := st.Size()
	if !st.Mode().IsRegular() || sz <= 0 || int64(int(sz)) != sz {
		return nil, nil, errors.ErrUnsupported
	}
	if data, err = unix.Mmap(int(f.Fd()), 0, int(sz), unix.PROT_READ, unix.MAP_SHARED); err != nil {
		return nil, nil, err
	}
	return data, func() error { return unix.Munmap(data) }, nil
}
