package autometa

import (
	"bytes"
	"fmt"
	"io"

	"github.com/kovidgoyal/imagemeta/meta"
	"github.com/kovidgoyal/imagemeta/meta/bmpmeta"
	"github.com/kovidgoyal/imagemeta/meta/gifmeta"
	"github.com/kovidgoyal/imagemeta/meta/jpegmeta"
	"github.com/kovidgoyal/imagemeta/meta/pngmeta"
	"github.com/kovidgoyal/imagemeta/meta/webpmeta"
	"github.com/kovidgoyal/imagemeta/types"
)

var _ = fmt.Print

// PrefixSize is the number of leading bytes needed to recognize every
// supported format.
const PrefixSize = 16

type Loader func(io.Reader, ...meta.Option) (meta.ImageMeta, error)

var loaders = map[types.Format]Loader{
	types.PNG:  pngmeta.ExtractMetadata,
	types.JPEG: jpegmeta.ExtractMetadata,
	types.GIF:  gifmeta.ExtractMetadata,
	types.WEBP: webpmeta.ExtractMetadata,
	types.BMP:  bmpmeta.ExtractMetadata,
}

// LoaderFor returns the metadata loader for the specified format or nil.
func LoaderFor(f types.Format) Loader { return loaders[f] }

type match int

const (
	no_match match = iota
	partial_match
	full_match
)

// match_at compares magic against p at offset. A p too short to decide is a
// partial match if what is present agrees with magic.
func match_at(p []byte, offset int, magic string) match {
	if len(p) <= offset {
		return partial_match
	}
	p = p[offset:]
	if len(p) < len(magic) {
		if string(p) == magic[:len(p)] {
			return partial_match
		}
		return no_match
	}
	if string(p[:len(magic)]) == magic {
		return full_match
	}
	return no_match
}

var signatures = map[types.Format]func([]byte) match{
	types.PNG:  func(p []byte) match { return match_at(p, 0, string(pngmeta.Signature[:])) },
	types.JPEG: func(p []byte) match { return match_at(p, 0, "\xff\xd8\xff") },
	types.GIF: func(p []byte) match {
		return max(match_at(p, 0, "GIF87a"), match_at(p, 0, "GIF89a"))
	},
	// the four bytes between the tags are the container size
	types.WEBP: func(p []byte) match { return min(match_at(p, 0, "RIFF"), match_at(p, 8, "WEBP")) },
	types.BMP:  func(p []byte) match { return match_at(p, 0, "BM") },
}

// Sniff returns the format whose signature prefix starts with, testing formats
// in the order of types.All. If prefix is too short to decide and could still
// be the start of a supported format, a retryable error is returned, otherwise
// meta.ErrUnsupportedFormat.
func Sniff(prefix []byte) (types.Format, error) {
	maybe := false
	for _, f := range types.All {
		switch signatures[f](prefix) {
		case full_match:
			return f, nil
		case partial_match:
			maybe = true
		}
	}
	if maybe && len(prefix) < PrefixSize {
		return types.UNKNOWN, &meta.InsufficientDataError{Offset: int64(len(prefix)), Needed: PrefixSize - int64(len(prefix))}
	}
	return types.UNKNOWN, meta.ErrUnsupportedFormat
}

func read_prefix(r io.Reader) ([]byte, error) {
	buf := make([]byte, PrefixSize)
	n, err := io.ReadFull(r, buf)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		err = nil
	}
	return buf[:n], err
}

func load_with_seekable(r io.Reader, callback func(io.Reader) error) (stream io.Reader, err error) {
	if s, ok := r.(io.ReadSeeker); ok {
		pos, err := s.Seek(0, io.SeekCurrent)
		if err == nil {
			err = callback(s)
			if _, serr := s.Seek(pos, io.SeekStart); err == nil {
				err = serr
			}
			return s, err
		}
	}
	rewindBuffer := &bytes.Buffer{}
	tee := io.TeeReader(r, rewindBuffer)
	err = callback(tee)
	return io.MultiReader(rewindBuffer, r), err
}

// Load loads the metadata for an image stream, which may be in any of the
// supported image formats.
//
// Only as much of the stream is consumed as necessary to extract the metadata.
// If r is an io.ReadSeeker it is returned positioned where it was when Load
// was called. Otherwise the returned stream contains a buffered copy of the
// consumed data such that reading from it will produce the same results as
// fully reading the input stream. This provides a convenient way to load the
// full image after loading the metadata.
//
// An error is returned if basic metadata could not be extracted. The returned
// stream still provides the full image data.
func Load(r io.Reader, opts ...meta.Option) (md meta.ImageMeta, imgStream io.Reader, err error) {
	imgStream, err = load_with_seekable(r, func(r io.Reader) error {
		prefix, err := read_prefix(r)
		if err != nil {
			return err
		}
		f, err := Sniff(prefix)
		if err != nil {
			return err
		}
		if s, ok := r.(io.Seeker); ok {
			if _, err = s.Seek(-int64(len(prefix)), io.SeekCurrent); err != nil {
				return err
			}
		} else {
			r = io.MultiReader(bytes.NewReader(prefix), r)
		}
		md, err = loaders[f](r, opts...)
		return err
	})
	if err != nil {
		md = meta.ImageMeta{}
	}
	return
}
