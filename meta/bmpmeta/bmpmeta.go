package bmpmeta

import (
	"fmt"
	"io"
	"slices"

	"github.com/kovidgoyal/imagemeta/meta"
	"github.com/kovidgoyal/imagemeta/meta/binary"
	"github.com/kovidgoyal/imagemeta/types"
)

var _ = fmt.Print

const file_header_size = 14

// BITMAPCOREHEADER, BITMAPINFOHEADER, the two Adobe extensions, OS/2
// BITMAPINFOHEADER2, BITMAPV4HEADER and BITMAPV5HEADER
var dib_header_sizes = []uint32{12, 40, 52, 56, 64, 108, 124}

const (
	core_header_size = 12
	// headers at least this large carry an alpha mask at alpha_mask_offset
	min_alpha_header_size = 56
	alpha_mask_offset     = 52
)

func corrupt(format string, args ...any) error {
	return meta.Corrupt(types.BMP, format, args...)
}

func color_for(bpp uint16) (ans meta.Color, err error) {
	switch bpp {
	case 1, 2, 4, 8:
		ans = meta.Color{Mode: meta.Indexed, Resolution: uint8(bpp)}
	case 16:
		ans = meta.Color{Mode: meta.Rgb, Resolution: 5}
	case 24, 32:
		ans = meta.Color{Mode: meta.Rgb, Resolution: 8}
	default:
		err = corrupt("invalid bit count: %d", bpp)
	}
	return
}

// ExtractMetadata reads the BMP file header and DIB header. BMP has no
// animation so options are accepted only for uniformity with the other
// decoders.
func ExtractMetadata(r io.Reader, opts ...meta.Option) (md meta.ImageMeta, err error) {
	c := binary.NewCursor(r)
	var fh [file_header_size]byte
	if err = c.ReadFull(fh[:2]); err != nil {
		return
	}
	if fh[0] != 'B' || fh[1] != 'M' {
		return md, meta.ErrInvalidSignature
	}
	// file size, reserved and pixel data offset are not interpreted
	if err = c.ReadFull(fh[2:]); err != nil {
		return
	}
	dib_size, err := c.U32LE()
	if err != nil {
		return
	}
	if !slices.Contains(dib_header_sizes, dib_size) {
		return md, corrupt("invalid DIB header size: %d", dib_size)
	}
	var planes, bpp uint16
	if dib_size == core_header_size {
		var w, h uint16
		if w, err = c.U16LE(); err != nil {
			return
		}
		if h, err = c.U16LE(); err != nil {
			return
		}
		md.Dimensions = meta.Dimensions{Width: uint32(w), Height: uint32(h)}
	} else {
		var w, h uint32
		if w, err = c.U32LE(); err != nil {
			return
		}
		if h, err = c.U32LE(); err != nil {
			return
		}
		width, height := int32(w), int32(h)
		if width < 0 {
			return md, corrupt("negative width: %d", width)
		}
		// a negative height means the rows are stored top-down
		md.Dimensions = meta.Dimensions{Width: uint32(width), Height: uint32(abs(int64(height)))}
	}
	if planes, err = c.U16LE(); err != nil {
		return meta.ImageMeta{}, err
	}
	if planes != 1 {
		return meta.ImageMeta{}, corrupt("number of color planes must be 1, not %d", planes)
	}
	if bpp, err = c.U16LE(); err != nil {
		return meta.ImageMeta{}, err
	}
	if md.Color, err = color_for(bpp); err != nil {
		return meta.ImageMeta{}, err
	}
	if bpp == 32 && dib_size >= min_alpha_header_size {
		// size, width, height, planes and bit count have been read
		if err = c.Skip(alpha_mask_offset - 16); err != nil {
			return meta.ImageMeta{}, err
		}
		var alpha_mask uint32
		if alpha_mask, err = c.U32LE(); err != nil {
			return meta.ImageMeta{}, err
		}
		md.Color.AlphaChannel = alpha_mask != 0
	}
	md.Format = types.BMP
	return md, nil
}

func abs(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}
