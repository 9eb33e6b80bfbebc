package imagemeta

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/kovidgoyal/go-parallel"
	"github.com/kovidgoyal/imagemeta/meta"
	"github.com/kovidgoyal/imagemeta/meta/autometa"
	"github.com/kovidgoyal/imagemeta/types"
)

var _ = fmt.Print

type fileSystem interface {
	Open(string) (io.ReadCloser, error)
}

type localFS struct{}

func (localFS) Open(name string) (io.ReadCloser, error) { return os.Open(name) }

var fs fileSystem = localFS{}

type (
	ImageMeta  = meta.ImageMeta
	Color      = meta.Color
	ColorMode  = meta.ColorMode
	Dimensions = meta.Dimensions
	Option     = meta.Option
	Format     = types.Format
)

const (
	UNKNOWN = types.UNKNOWN
	BMP     = types.BMP
	GIF     = types.GIF
	JPEG    = types.JPEG
	PNG     = types.PNG
	WEBP    = types.WEBP
)

const (
	Grayscale = meta.Grayscale
	Rgb       = meta.Rgb
	Indexed   = meta.Indexed
	Cmyk      = meta.Cmyk
)

var (
	ErrInvalidSignature  = meta.ErrInvalidSignature
	ErrUnsupportedFormat = meta.ErrUnsupportedFormat
	ErrUnexpectedEOF     = meta.ErrUnexpectedEOF
	ErrCorruptImage      = meta.ErrCorruptImage
)

// CountFrames controls whether animation frames are counted, see meta.CountFrames.
func CountFrames(enabled bool) Option { return meta.CountFrames(enabled) }

// IsRetryable returns true if err was caused by the data ending too soon.
// Loading a longer prefix of the same stream may then succeed.
func IsRetryable(err error) bool { return meta.IsRetryable(err) }

// Load detects the format of the image in r and reads its metadata. r is
// left positioned where it was when Load was called.
func Load(r io.ReadSeeker, opts ...Option) (ImageMeta, error) {
	md, _, err := autometa.Load(r, opts...)
	return md, err
}

// LoadBytes reads the metadata of an image, or a prefix of an image, in memory.
func LoadBytes(data []byte, opts ...Option) (ImageMeta, error) {
	return Load(bytes.NewReader(data), opts...)
}

// LoadFile reads the metadata of the image in the specified file.
func LoadFile(path string, opts ...Option) (md ImageMeta, err error) {
	file, err := fs.Open(path)
	if err != nil {
		return
	}
	defer file.Close()
	if f, ok := file.(*os.File); ok {
		if data, unmap, merr := map_file(f); merr == nil {
			defer func() {
				if uerr := unmap(); err == nil {
					err = uerr
				}
			}()
			return LoadBytes(data, opts...)
		}
	}
	if s, ok := file.(io.ReadSeeker); ok {
		return Load(s, opts...)
	}
	md, _, err = autometa.Load(file, opts...)
	return
}

type Result struct {
	Path     string    `json:"path"`
	Metadata ImageMeta `json:"metadata"`
	Err      error     `json:"-"`
}

var errNotLoaded = errors.New("imagemeta: file was not loaded")

// LoadFiles reads the metadata of many files in parallel. The results are in
// the same order as paths.
func LoadFiles(paths []string, opts ...Option) []Result {
	ans := make([]Result, len(paths))
	if len(paths) == 0 {
		return ans
	}
	for i, path := range paths {
		ans[i] = Result{Path: path, Err: errNotLoaded}
	}
	err := parallel.Run_in_parallel_over_range(0, func(start, limit int) {
		for i := start; i < limit; i++ {
			ans[i].Metadata, ans[i].Err = LoadFile(paths[i], opts...)
		}
	}, 0, len(paths))
	if err != nil {
		// a worker failed, the results it did not reach carry the failure
		for i := range ans {
			if ans[i].Err == errNotLoaded {
				ans[i].Err = err
			}
		}
	}
	return ans
}
