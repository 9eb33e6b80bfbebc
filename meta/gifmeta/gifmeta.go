package gifmeta

import (
	"fmt"
	"io"

	"github.com/kovidgoyal/imagemeta/meta"
	"github.com/kovidgoyal/imagemeta/meta/binary"
	"github.com/kovidgoyal/imagemeta/types"
)

var _ = fmt.Print

const (
	extension_introducer = 0x21
	image_descriptor     = 0x2c
	trailer              = 0x3b

	color_table_flag = 0x80
)

func corrupt(format string, args ...any) error {
	return meta.Corrupt(types.GIF, format, args...)
}

func skip_color_table(c *binary.Cursor, packed uint8) error {
	if packed&color_table_flag == 0 {
		return nil
	}
	return c.Skip(3 * (1 << ((packed & 7) + 1)))
}

// a sequence of length prefixed sub-blocks ended by a zero length block
func skip_sub_blocks(c *binary.Cursor) error {
	for {
		sz, err := c.U8()
		if err != nil {
			return err
		}
		if sz == 0 {
			return nil
		}
		if err = c.Skip(int64(sz)); err != nil {
			return err
		}
	}
}

func count_frames(c *binary.Cursor) (*int, error) {
	num_frames := 0
	for {
		introducer, err := c.U8()
		if err != nil {
			return nil, err
		}
		switch introducer {
		case extension_introducer:
			// label
			if _, err = c.U8(); err != nil {
				return nil, err
			}
		case image_descriptor:
			// left, top, width, height
			if err = c.Skip(8); err != nil {
				return nil, err
			}
			var packed uint8
			if packed, err = c.U8(); err != nil {
				return nil, err
			}
			if err = skip_color_table(c, packed); err != nil {
				return nil, err
			}
			// LZW minimum code size
			if _, err = c.U8(); err != nil {
				return nil, err
			}
			num_frames++
		case trailer:
			if num_frames > 1 {
				return &num_frames, nil
			}
			return nil, nil
		default:
			return nil, corrupt("unknown block introducer 0x%x at offset %d", introducer, c.Offset()-1)
		}
		if err = skip_sub_blocks(c); err != nil {
			return nil, err
		}
	}
}

// ExtractMetadata reads the GIF header and logical screen descriptor. Unless
// disabled with meta.CountFrames(false), the blocks of the stream are then
// walked up to the trailer and a GIF with more than one image is reported as
// an animation.
func ExtractMetadata(r io.Reader, opts ...meta.Option) (md meta.ImageMeta, err error) {
	cfg := meta.NewConfig(opts...)
	c := binary.NewCursor(r)
	var sig [6]byte
	if err = c.ReadFull(sig[:]); err != nil {
		return
	}
	if s := string(sig[:]); s != "GIF87a" && s != "GIF89a" {
		return md, meta.ErrInvalidSignature
	}
	w, err := c.U16LE()
	if err != nil {
		return
	}
	h, err := c.U16LE()
	if err != nil {
		return
	}
	packed, err := c.U8()
	if err != nil {
		return
	}
	// background color index and pixel aspect ratio
	if err = c.Skip(2); err != nil {
		return
	}
	md.Format = types.GIF
	md.Dimensions = meta.Dimensions{Width: uint32(w), Height: uint32(h)}
	md.Color = meta.Color{Mode: meta.Indexed, Resolution: (packed>>4)&7 + 1}
	if !cfg.CountFrames {
		return md, nil
	}
	if err = skip_color_table(c, packed); err != nil {
		return meta.ImageMeta{}, err
	}
	if md.AnimationFrames, err = count_frames(c); err != nil {
		return meta.ImageMeta{}, err
	}
	return md, nil
}
