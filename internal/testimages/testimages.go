// Package testimages builds encoded images in memory for the decoder tests.
package testimages

import (
	"bytes"
	encbin "encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"

	"github.com/kettek/apng"
	"golang.org/x/image/bmp"
)

var _ = fmt.Print

// The dimensions used by the reference fixtures.
const Width, Height = 507, 370

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// Opaque returns an opaque NRGBA image.
func Opaque(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.NRGBA{0x80, 0x40, 0x20, 0xff}}, image.Point{}, draw.Src)
	return img
}

// Translucent returns an NRGBA image that has non-opaque pixels.
func Translucent(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.NRGBA{0x80, 0x40, 0x20, 0x80}}, image.Point{}, draw.Src)
	return img
}

func Paletted(w, h int, p color.Palette) *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, w, h), p)
	for i := range img.Pix {
		img.Pix[i] = uint8(i % len(p))
	}
	return img
}

func PNG(img image.Image) []byte {
	var b bytes.Buffer
	must(png.Encode(&b, img))
	return b.Bytes()
}

// APNG returns an animated PNG with the specified number of frames, none of
// which is a default image.
func APNG(w, h, num_frames int) []byte {
	a := apng.APNG{}
	for range num_frames {
		a.Frames = append(a.Frames, apng.Frame{Image: Translucent(w, h), DelayNumerator: 1, DelayDenominator: 10})
	}
	var b bytes.Buffer
	must(apng.Encode(&b, a))
	return b.Bytes()
}

func GIF(w, h int) []byte {
	var b bytes.Buffer
	must(gif.Encode(&b, Paletted(w, h, palette.Plan9), nil))
	return b.Bytes()
}

// AnimatedGIF returns a GIF with num_frames frames, each with its own local
// color table.
func AnimatedGIF(w, h, num_frames int) []byte {
	g := gif.GIF{}
	for range num_frames {
		g.Image = append(g.Image, Paletted(w, h, palette.WebSafe))
		g.Delay = append(g.Delay, 10)
	}
	var b bytes.Buffer
	must(gif.EncodeAll(&b, &g))
	return b.Bytes()
}

func JPEG(img image.Image) []byte {
	var b bytes.Buffer
	must(jpeg.Encode(&b, img, &jpeg.Options{Quality: 75}))
	return b.Bytes()
}

// JPEGWithSegments returns a JPEG with APP1 segments of the specified payload
// sizes inserted between SOI and the rest of the stream.
func JPEGWithSegments(img image.Image, payload_sizes ...int) []byte {
	data := JPEG(img)
	ans := append([]byte{}, data[:2]...)
	for _, sz := range payload_sizes {
		if sz > 0xffff-2 {
			panic(fmt.Sprintf("JPEG segment payload too large: %d", sz))
		}
		ans = append(ans, 0xff, 0xe1, byte((sz+2)>>8), byte(sz+2))
		ans = append(ans, make([]byte, sz)...)
	}
	return append(ans, data[2:]...)
}

func BMP(img image.Image) []byte {
	var b bytes.Buffer
	must(bmp.Encode(&b, img))
	return b.Bytes()
}

// BMPHeader returns the file header and a DIB header of the specified size.
// No pixel data is included.
func BMPHeader(dib_size uint32, width, height int32, bpp uint16, alpha_mask uint32) []byte {
	le := encbin.LittleEndian
	ans := []byte{'B', 'M'}
	ans = le.AppendUint32(ans, 14+dib_size)
	ans = append(ans, 0, 0, 0, 0)
	ans = le.AppendUint32(ans, 14+dib_size)
	ans = le.AppendUint32(ans, dib_size)
	if dib_size == 12 {
		ans = le.AppendUint16(ans, uint16(width))
		ans = le.AppendUint16(ans, uint16(height))
		ans = le.AppendUint16(ans, 1)
		return le.AppendUint16(ans, bpp)
	}
	ans = le.AppendUint32(ans, uint32(width))
	ans = le.AppendUint32(ans, uint32(height))
	ans = le.AppendUint16(ans, 1)
	ans = le.AppendUint16(ans, bpp)
	dib := make([]byte, dib_size-16)
	if dib_size >= 56 {
		// BI_BITFIELDS with BGRA masks
		le.PutUint32(dib[0:], 3)
		le.PutUint32(dib[24:], 0x00ff0000)
		le.PutUint32(dib[28:], 0x0000ff00)
		le.PutUint32(dib[32:], 0x000000ff)
		le.PutUint32(dib[36:], alpha_mask)
	}
	return append(ans, dib...)
}

// Chunk returns a RIFF chunk, padded to an even length.
func Chunk(fourcc string, payload []byte) []byte {
	if len(fourcc) != 4 {
		panic("fourcc must have length 4: " + fourcc)
	}
	ans := append([]byte(fourcc), encbin.LittleEndian.AppendUint32(nil, uint32(len(payload)))...)
	ans = append(ans, payload...)
	if len(payload)%2 == 1 {
		ans = append(ans, 0)
	}
	return ans
}

// RIFF wraps chunks in a RIFF WEBP container.
func RIFF(chunks ...[]byte) []byte {
	var body []byte
	for _, c := range chunks {
		body = append(body, c...)
	}
	ans := append([]byte("RIFF"), encbin.LittleEndian.AppendUint32(nil, uint32(4+len(body)))...)
	ans = append(ans, "WEBP"...)
	return append(ans, body...)
}

func put_u24(b []byte, v uint32) []byte {
	return append(b, byte(v), byte(v>>8), byte(v>>16))
}

// VP8 returns a lossy key frame header followed by some filler bytes.
func VP8(w, h int) []byte {
	ans := []byte{0x10, 0x00, 0x00, 0x9d, 0x01, 0x2a}
	ans = encbin.LittleEndian.AppendUint16(ans, uint16(w)&0x3fff)
	ans = encbin.LittleEndian.AppendUint16(ans, uint16(h)&0x3fff)
	return append(ans, make([]byte, 32)...)
}

// VP8L returns a lossless bitstream header followed by some filler bytes.
func VP8L(w, h int, alpha bool) []byte {
	bits := uint32(w-1)&0x3fff | (uint32(h-1)&0x3fff)<<14
	if alpha {
		bits |= 1 << 28
	}
	ans := encbin.LittleEndian.AppendUint32([]byte{0x2f}, bits)
	return append(ans, make([]byte, 27)...)
}

const (
	VP8XAnimation = 0x02
	VP8XAlpha     = 0x10
)

func VP8X(w, h int, flags byte) []byte {
	ans := []byte{flags, 0, 0, 0}
	ans = put_u24(ans, uint32(w-1))
	return put_u24(ans, uint32(h-1))
}

// ANMF returns an animation frame payload covering a w x h canvas.
func ANMF(w, h int) []byte {
	ans := put_u24(nil, 0)
	ans = put_u24(ans, 0)
	ans = put_u24(ans, uint32(w-1))
	ans = put_u24(ans, uint32(h-1))
	ans = put_u24(ans, 100)
	ans = append(ans, 0)
	return append(ans, Chunk("VP8L", VP8L(w, h, true))...)
}

func WebPLossy(w, h int) []byte {
	return RIFF(Chunk("VP8 ", VP8(w, h)))
}

func WebPLossless(w, h int, alpha bool) []byte {
	return RIFF(Chunk("VP8L", VP8L(w, h, alpha)))
}

func WebPExtended(w, h int, alpha bool) []byte {
	var flags byte
	if alpha {
		flags |= VP8XAlpha
	}
	chunks := [][]byte{Chunk("VP8X", VP8X(w, h, flags))}
	if alpha {
		chunks = append(chunks, Chunk("ALPH", make([]byte, 17)))
	}
	chunks = append(chunks, Chunk("VP8 ", VP8(w, h)))
	return RIFF(chunks...)
}

// WebPAnimated returns an animated WebP with num_frames ANMF chunks. If
// metadata_size is positive, an ICCP chunk of that size is placed before the
// frames and an EXIF chunk of that size after them.
func WebPAnimated(w, h, num_frames, metadata_size int) []byte {
	chunks := [][]byte{Chunk("VP8X", VP8X(w, h, VP8XAlpha|VP8XAnimation|0x20|0x08))}
	if metadata_size > 0 {
		chunks = append(chunks, Chunk("ICCP", make([]byte, metadata_size)))
	}
	chunks = append(chunks, Chunk("ANIM", []byte{0, 0, 0, 0, 0, 0}))
	for range num_frames {
		chunks = append(chunks, Chunk("ANMF", ANMF(w, h)))
	}
	if metadata_size > 0 {
		chunks = append(chunks, Chunk("EXIF", make([]byte, metadata_size)))
	}
	return RIFF(chunks...)
}
