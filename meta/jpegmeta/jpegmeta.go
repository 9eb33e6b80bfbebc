package jpegmeta

import (
	"fmt"
	"io"

	"github.com/kovidgoyal/imagemeta/meta"
	"github.com/kovidgoyal/imagemeta/meta/binary"
	"github.com/kovidgoyal/imagemeta/types"
)

var _ = fmt.Print

const (
	markerPrefix = 0xff
	markerTEM    = 0x01
	markerSOF0   = 0xc0
	markerDHT    = 0xc4
	markerJPG    = 0xc8
	markerDAC    = 0xcc
	markerRST0   = 0xd0
	markerRST7   = 0xd7
	markerSOI    = 0xd8
	markerEOI    = 0xd9
	markerSOS    = 0xda
)

var Signature = [2]byte{markerPrefix, markerSOI}

func corrupt(format string, args ...any) error {
	return meta.Corrupt(types.JPEG, format, args...)
}

func is_frame_header(marker byte) bool {
	switch marker {
	case markerDHT, markerJPG, markerDAC:
		return false
	}
	return marker >= markerSOF0 && marker <= 0xcf
}

// lossless frames allow any precision from 2 to 16
func is_lossless(marker byte) bool {
	return marker&0x03 == 0x03
}

func read_marker(c *binary.Cursor) (byte, error) {
	b, err := c.U8()
	if err != nil {
		return 0, err
	}
	if b != markerPrefix {
		return 0, corrupt("expected a marker at offset %d, got byte: 0x%x", c.Offset()-1, b)
	}
	// any number of fill bytes may precede a marker
	for b == markerPrefix {
		if b, err = c.U8(); err != nil {
			return 0, err
		}
	}
	return b, nil
}

func read_frame_header(c *binary.Cursor, marker byte, length uint16) (dims meta.Dimensions, color meta.Color, err error) {
	// precision(1) height(2) width(2) number of components(1)
	if length < 8 {
		err = corrupt("frame header segment too short: %d", length)
		return
	}
	precision, err := c.U8()
	if err != nil {
		return
	}
	h, err := c.U16BE()
	if err != nil {
		return
	}
	w, err := c.U16BE()
	if err != nil {
		return
	}
	num_components, err := c.U8()
	if err != nil {
		return
	}
	if is_lossless(marker) {
		if precision < 2 || precision > 16 {
			err = corrupt("invalid sample precision %d for lossless frame", precision)
			return
		}
	} else if precision != 8 && precision != 12 {
		err = corrupt("invalid sample precision: %d", precision)
		return
	}
	switch num_components {
	case 1:
		color.Mode = meta.Grayscale
	case 3:
		color.Mode = meta.Rgb
	case 4:
		color.Mode = meta.Cmyk
	default:
		err = corrupt("invalid number of components: %d", num_components)
		return
	}
	color.Resolution = precision
	dims.Width, dims.Height = uint32(w), uint32(h)
	return
}

// ExtractMetadata walks the marker segments of a JPEG stream up to the first
// frame header. If the stream ends before the frame header the returned error
// matches meta.ErrUnexpectedEOF, so a caller probing a growing prefix of a
// stream can retry.
func ExtractMetadata(r io.Reader, opts ...meta.Option) (md meta.ImageMeta, err error) {
	c := binary.NewCursor(r)
	var sig [2]byte
	if err = c.ReadFull(sig[:]); err != nil {
		return
	}
	if sig != Signature {
		return md, meta.ErrInvalidSignature
	}
	for {
		marker, err := read_marker(c)
		if err != nil {
			return meta.ImageMeta{}, err
		}
		switch {
		case marker == markerTEM, marker >= markerRST0 && marker <= markerRST7:
			continue
		case marker == 0x00:
			return meta.ImageMeta{}, corrupt("invalid marker 0x00 at offset %d", c.Offset()-1)
		case marker == markerSOI:
			return meta.ImageMeta{}, corrupt("unexpected SOI marker at offset %d", c.Offset()-2)
		case marker == markerEOI:
			return meta.ImageMeta{}, corrupt("reached EOI without a frame header")
		case marker == markerSOS:
			return meta.ImageMeta{}, corrupt("scan at offset %d precedes the frame header", c.Offset()-2)
		}
		length, err := c.U16BE()
		if err != nil {
			return meta.ImageMeta{}, err
		}
		if length < 2 {
			return meta.ImageMeta{}, corrupt("segment for marker 0x%x has invalid length: %d", marker, length)
		}
		if is_frame_header(marker) {
			md.Format = types.JPEG
			if md.Dimensions, md.Color, err = read_frame_header(c, marker, length); err != nil {
				return meta.ImageMeta{}, err
			}
			return md, nil
		}
		if err = c.Skip(int64(length) - 2); err != nil {
			return meta.ImageMeta{}, err
		}
	}
}
