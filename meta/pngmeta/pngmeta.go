package pngmeta

import (
	"bytes"
	"fmt"
	"io"

	"github.com/kovidgoyal/imagemeta/meta"
	"github.com/kovidgoyal/imagemeta/meta/binary"
	"github.com/kovidgoyal/imagemeta/types"
)

var _ = fmt.Print

var Signature = [8]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// PNG limits chunk lengths to 2^31-1
const max_chunk_length = 1<<31 - 1

const ihdr_length = 13

type chunk_header struct {
	length uint32
	name   [4]byte
}

func corrupt(format string, args ...any) error {
	return meta.Corrupt(types.PNG, format, args...)
}

func read_chunk_header(c *binary.Cursor) (ans chunk_header, err error) {
	if ans.length, err = c.U32BE(); err != nil {
		return
	}
	if ans.length > max_chunk_length {
		return ans, corrupt("chunk length too large: %d", ans.length)
	}
	ans.name, err = c.FourCC()
	return
}

// skip the chunk payload and its CRC
func skip_chunk(c *binary.Cursor, h chunk_header) error {
	return c.Skip(int64(h.length) + 4)
}

func read_header(c *binary.Cursor) (dims meta.Dimensions, color meta.Color, err error) {
	h, err := read_chunk_header(c)
	if err != nil {
		return
	}
	if h.name != [4]byte{'I', 'H', 'D', 'R'} {
		err = corrupt("expected IHDR chunk, got %q", h.name[:])
		return
	}
	if h.length != ihdr_length {
		err = corrupt("IHDR chunk has length %d, expected %d", h.length, ihdr_length)
		return
	}
	if dims.Width, err = c.U32BE(); err != nil {
		return
	}
	if dims.Height, err = c.U32BE(); err != nil {
		return
	}
	var bit_depth, color_type uint8
	if bit_depth, err = c.U8(); err != nil {
		return
	}
	if color_type, err = c.U8(); err != nil {
		return
	}
	var legal_depths []uint8
	switch color_type {
	case 0:
		color.Mode = meta.Grayscale
		legal_depths = []uint8{1, 2, 4, 8, 16}
	case 2:
		color.Mode = meta.Rgb
		legal_depths = []uint8{8, 16}
	case 3:
		color.Mode = meta.Indexed
		legal_depths = []uint8{1, 2, 4, 8}
	case 4:
		color.Mode, color.AlphaChannel = meta.Grayscale, true
		legal_depths = []uint8{8, 16}
	case 6:
		color.Mode, color.AlphaChannel = meta.Rgb, true
		legal_depths = []uint8{8, 16}
	default:
		err = corrupt("invalid color type: %d", color_type)
		return
	}
	if bytes.IndexByte(legal_depths, bit_depth) < 0 {
		err = corrupt("invalid bit depth %d for color type %d", bit_depth, color_type)
		return
	}
	color.Resolution = bit_depth
	// compression method, filter method, interlace method and the CRC are
	// not interpreted
	err = c.Skip(3 + 4)
	return
}

// count_frames walks the chunks following IHDR. An APNG must have its acTL
// chunk before the first IDAT, so the walk stops at the first IDAT if no acTL
// has been seen, otherwise fcTL chunks are counted up to IEND.
func count_frames(c *binary.Cursor) (*int, error) {
	is_animated := false
	num_frames := 0
	for {
		h, err := read_chunk_header(c)
		if err != nil {
			return nil, err
		}
		switch string(h.name[:]) {
		case "acTL":
			is_animated = true
		case "fcTL":
			num_frames++
		case "IDAT":
			if !is_animated {
				return nil, nil
			}
		case "IEND":
			if num_frames > 0 {
				return &num_frames, nil
			}
			return nil, nil
		}
		if err = skip_chunk(c, h); err != nil {
			return nil, err
		}
	}
}

// ExtractMetadata reads the PNG signature and IHDR chunk from r and, unless
// disabled with meta.CountFrames(false), counts APNG frames.
func ExtractMetadata(r io.Reader, opts ...meta.Option) (md meta.ImageMeta, err error) {
	cfg := meta.NewConfig(opts...)
	c := binary.NewCursor(r)
	var sig [8]byte
	if err = c.ReadFull(sig[:]); err != nil {
		return
	}
	if sig != Signature {
		return md, meta.ErrInvalidSignature
	}
	md.Format = types.PNG
	if md.Dimensions, md.Color, err = read_header(c); err != nil {
		return meta.ImageMeta{}, err
	}
	if cfg.CountFrames {
		if md.AnimationFrames, err = count_frames(c); err != nil {
			return meta.ImageMeta{}, err
		}
	}
	return md, nil
}
