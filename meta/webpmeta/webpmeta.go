package webpmeta

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/kovidgoyal/imagemeta/meta"
	mb "github.com/kovidgoyal/imagemeta/meta/binary"
	"github.com/kovidgoyal/imagemeta/types"
	"golang.org/x/image/riff"
)

var _ = fmt.Print

var (
	fccRIFF = riff.FourCC{'R', 'I', 'F', 'F'}
	fccWEBP = riff.FourCC{'W', 'E', 'B', 'P'}
	fccVP8  = riff.FourCC{'V', 'P', '8', ' '}
	fccVP8L = riff.FourCC{'V', 'P', '8', 'L'}
	fccVP8X = riff.FourCC{'V', 'P', '8', 'X'}
	fccANMF = riff.FourCC{'A', 'N', 'M', 'F'}
)

const (
	vp8HeaderSize  = 10
	vp8lHeaderSize = 5
	vp8xHeaderSize = 10
	vp8lMagic      = 0x2f

	animationBit = 1 << 1
	alphaBit     = 1 << 4
)

// Lossy key frame: 3 byte frame tag, 3 byte start code then 14 bit width and
// height, each followed by 2 bits of scaling.
func read_vp8(c *mb.Cursor, length uint32) (dims meta.Dimensions, color meta.Color, err error) {
	if length < vp8HeaderSize {
		err = corrupt("VP8 chunk too short: %d", length)
		return
	}
	var b [vp8HeaderSize]byte
	if err = c.ReadFull(b[:]); err != nil {
		return
	}
	if b[0]&1 != 0 {
		err = corrupt("VP8 bitstream does not start with a key frame")
		return
	}
	if b[3] != 0x9d || b[4] != 0x01 || b[5] != 0x2a {
		err = corrupt("invalid VP8 start code: % x", b[3:6])
		return
	}
	dims.Width = uint32(binary.LittleEndian.Uint16(b[6:8]) & 0x3fff)
	dims.Height = uint32(binary.LittleEndian.Uint16(b[8:10]) & 0x3fff)
	color = meta.Color{Mode: meta.Rgb, Resolution: 8}
	return
}

// Lossless: a signature byte then a 32 bit little endian word holding
// 14 bits of width-1, 14 bits of height-1, 1 bit alpha hint, 3 bits version.
func read_vp8l(c *mb.Cursor, length uint32) (dims meta.Dimensions, color meta.Color, err error) {
	if length < vp8lHeaderSize {
		err = corrupt("VP8L chunk too short: %d", length)
		return
	}
	magic, err := c.U8()
	if err != nil {
		return
	}
	if magic != vp8lMagic {
		err = corrupt("invalid VP8L signature: 0x%x", magic)
		return
	}
	bits, err := c.U32LE()
	if err != nil {
		return
	}
	if version := bits >> 29; version != 0 {
		err = corrupt("invalid VP8L version: %d", version)
		return
	}
	dims.Width = bits&0x3fff + 1
	dims.Height = (bits>>14)&0x3fff + 1
	color = meta.Color{Mode: meta.Rgb, AlphaChannel: (bits>>28)&1 == 1, Resolution: 8}
	return
}

// Extended: flags byte, 3 reserved bytes, 24 bit canvas width-1 and height-1
func read_vp8x(c *mb.Cursor, length uint32) (dims meta.Dimensions, color meta.Color, animated bool, err error) {
	if length != vp8xHeaderSize {
		err = corrupt("VP8X chunk has length %d, expected %d", length, vp8xHeaderSize)
		return
	}
	flags, err := c.U8()
	if err != nil {
		return
	}
	if err = c.Skip(3); err != nil {
		return
	}
	w, err := c.U24LE()
	if err != nil {
		return
	}
	h, err := c.U24LE()
	if err != nil {
		return
	}
	dims = meta.Dimensions{Width: w + 1, Height: h + 1}
	color = meta.Color{Mode: meta.Rgb, AlphaChannel: flags&alphaBit != 0, Resolution: 8}
	animated = flags&animationBit != 0
	return
}

// count the ANMF chunks up to the declared end of the container
func count_frames(r *SubChunkReader) (int, error) {
	n := 0
	for {
		ch, err := r.Next()
		if err != nil {
			if err == io.EOF {
				return n, nil
			}
			return 0, err
		}
		if ch.ID == fccANMF {
			n++
		}
	}
}

// ExtractMetadata reads the RIFF header of a WebP stream and walks its chunks
// until an image header is found. For animated extended images the walk
// continues to the end of the container counting ANMF chunks, unless disabled
// with meta.CountFrames(false) in which case the frame count is reported as 0.
func ExtractMetadata(r io.Reader, opts ...meta.Option) (md meta.ImageMeta, err error) {
	cfg := meta.NewConfig(opts...)
	c := mb.NewCursor(r)
	tag, err := c.FourCC()
	if err != nil {
		return
	}
	if riff.FourCC(tag) != fccRIFF {
		return md, meta.ErrInvalidSignature
	}
	size, err := c.U32LE()
	if err != nil {
		return
	}
	form, err := c.FourCC()
	if err != nil {
		return
	}
	if riff.FourCC(form) != fccWEBP {
		return md, meta.ErrInvalidSignature
	}
	if size < 4 {
		return md, corrupt("RIFF size too small: %d", size)
	}
	chunks := NewSubChunkReader(c, int64(size)+chunkHeaderSize)
	for {
		ch, err := chunks.Next()
		if err != nil {
			if err == io.EOF {
				err = corrupt("no image header found in the RIFF container")
			}
			return meta.ImageMeta{}, err
		}
		switch ch.ID {
		case fccVP8:
			md.Dimensions, md.Color, err = read_vp8(c, ch.Len)
		case fccVP8L:
			md.Dimensions, md.Color, err = read_vp8l(c, ch.Len)
		case fccVP8X:
			var animated bool
			if md.Dimensions, md.Color, animated, err = read_vp8x(c, ch.Len); err == nil && animated {
				n := 0
				if cfg.CountFrames {
					n, err = count_frames(chunks)
				}
				md.AnimationFrames = &n
			}
		default:
			continue
		}
		if err != nil {
			return meta.ImageMeta{}, err
		}
		md.Format = types.WEBP
		return md, nil
	}
}
