package pngmeta

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/color/palette"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/kovidgoyal/imagemeta/internal/testimages"
	"github.com/kovidgoyal/imagemeta/meta"
	"github.com/kovidgoyal/imagemeta/types"
	"github.com/stretchr/testify/require"
)

const w, h = testimages.Width, testimages.Height

var dims = meta.Dimensions{Width: w, Height: h}

func chunk(name string, payload []byte) []byte {
	ans := binary.BigEndian.AppendUint32(nil, uint32(len(payload)))
	ans = append(ans, name...)
	ans = append(ans, payload...)
	return binary.BigEndian.AppendUint32(ans, crc32.ChecksumIEEE(ans[4:]))
}

func ihdr(width, height uint32, depth, color_type uint8) []byte {
	p := binary.BigEndian.AppendUint32(nil, width)
	p = binary.BigEndian.AppendUint32(p, height)
	p = append(p, depth, color_type, 0, 0, 0)
	return chunk("IHDR", p)
}

func png_stream(chunks ...[]byte) []byte {
	ans := append([]byte{}, Signature[:]...)
	for _, c := range chunks {
		ans = append(ans, c...)
	}
	return ans
}

func TestEncodedImages(t *testing.T) {
	type testCase struct {
		name     string
		img      image.Image
		expected meta.Color
	}
	for _, tc := range []testCase{
		{"rgb", testimages.Opaque(w, h), meta.Color{Mode: meta.Rgb, Resolution: 8}},
		{"rgba", testimages.Translucent(w, h), meta.Color{Mode: meta.Rgb, AlphaChannel: true, Resolution: 8}},
		{"gray", image.NewGray(image.Rect(0, 0, w, h)), meta.Color{Mode: meta.Grayscale, Resolution: 8}},
		{"gray16", image.NewGray16(image.Rect(0, 0, w, h)), meta.Color{Mode: meta.Grayscale, Resolution: 16}},
		{"paletted", testimages.Paletted(w, h, palette.Plan9), meta.Color{Mode: meta.Indexed, Resolution: 8}},
		{"paletted-2", testimages.Paletted(w, h, color.Palette{color.Black, color.White}), meta.Color{Mode: meta.Indexed, Resolution: 1}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			data := testimages.PNG(tc.img)
			for _, opts := range [][]meta.Option{nil, {meta.CountFrames(false)}} {
				md, err := ExtractMetadata(bytes.NewReader(data), opts...)
				require.NoError(t, err)
				expected := meta.ImageMeta{Format: types.PNG, Dimensions: dims, Color: tc.expected}
				if diff := cmp.Diff(expected, md); diff != "" {
					t.Fatalf("unexpected metadata (-want +got):\n%s", diff)
				}
			}
		})
	}
}

func TestAnimatedPNG(t *testing.T) {
	// an encoder given a single frame writes a still PNG without acTL or fcTL
	md, err := ExtractMetadata(bytes.NewReader(testimages.APNG(w, h, 1)))
	require.NoError(t, err)
	require.Equal(t, dims, md.Dimensions)
	require.Nil(t, md.AnimationFrames)

	for _, n := range []int{2, 5} {
		data := testimages.APNG(w, h, n)
		md, err := ExtractMetadata(bytes.NewReader(data))
		require.NoError(t, err)
		require.Equal(t, dims, md.Dimensions)
		require.Equal(t, meta.Rgb, md.Color.Mode)
		require.True(t, md.Color.AlphaChannel)
		require.True(t, md.IsAnimation())
		require.Equal(t, n, *md.AnimationFrames)

		md, err = ExtractMetadata(bytes.NewReader(data), meta.CountFrames(false))
		require.NoError(t, err)
		require.False(t, md.IsAnimation())
		require.Equal(t, dims, md.Dimensions)
	}
}

func TestFrameCountingStopsAtIDAT(t *testing.T) {
	// A still image does not need anything past the first IDAT header
	data := png_stream(ihdr(1, 1, 8, 2), chunk("gAMA", []byte{0, 0, 0, 1}), chunk("IDAT", make([]byte, 100)))
	md, err := ExtractMetadata(bytes.NewReader(data[:len(data)-50]))
	require.NoError(t, err)
	require.Nil(t, md.AnimationFrames)

	// An animated image needs everything up to IEND
	actl := chunk("acTL", []byte{0, 0, 0, 2, 0, 0, 0, 0})
	fctl := chunk("fcTL", make([]byte, 26))
	data = png_stream(ihdr(1, 1, 8, 2), actl, fctl, chunk("IDAT", make([]byte, 10)), fctl, chunk("fdAT", make([]byte, 14)), chunk("IEND", nil))
	md, err = ExtractMetadata(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, meta.Frames(2), md.AnimationFrames)
	_, err = ExtractMetadata(bytes.NewReader(data[:len(data)-10]))
	require.ErrorIs(t, err, meta.ErrUnexpectedEOF)

	// acTL without any fcTL is not an animation
	data = png_stream(ihdr(1, 1, 8, 2), actl, chunk("IDAT", make([]byte, 10)), chunk("IEND", nil))
	md, err = ExtractMetadata(bytes.NewReader(data))
	require.NoError(t, err)
	require.Nil(t, md.AnimationFrames)
}

func TestColorTypes(t *testing.T) {
	type testCase struct {
		depth, color_type uint8
		expected          meta.Color
	}
	for _, tc := range []testCase{
		{1, 0, meta.Color{Mode: meta.Grayscale, Resolution: 1}},
		{16, 0, meta.Color{Mode: meta.Grayscale, Resolution: 16}},
		{16, 2, meta.Color{Mode: meta.Rgb, Resolution: 16}},
		{4, 3, meta.Color{Mode: meta.Indexed, Resolution: 4}},
		{8, 4, meta.Color{Mode: meta.Grayscale, AlphaChannel: true, Resolution: 8}},
		{16, 6, meta.Color{Mode: meta.Rgb, AlphaChannel: true, Resolution: 16}},
	} {
		md, err := ExtractMetadata(bytes.NewReader(png_stream(ihdr(3, 4, tc.depth, tc.color_type))), meta.CountFrames(false))
		require.NoError(t, err)
		require.Equal(t, tc.expected, md.Color)
		require.Equal(t, meta.Dimensions{Width: 3, Height: 4}, md.Dimensions)
	}
}

func TestCorruptHeaders(t *testing.T) {
	for name, data := range map[string][]byte{
		"color type 1":     png_stream(ihdr(1, 1, 8, 1)),
		"color type 7":     png_stream(ihdr(1, 1, 8, 7)),
		"rgb depth 4":      png_stream(ihdr(1, 1, 4, 2)),
		"indexed depth 16": png_stream(ihdr(1, 1, 16, 3)),
		"not IHDR":         png_stream(chunk("gAMA", []byte{0, 0, 0, 1}), ihdr(1, 1, 8, 2)),
		"short IHDR":       png_stream(chunk("IHDR", make([]byte, 12))),
		"huge chunk":       png_stream(ihdr(1, 1, 8, 2), []byte{0xff, 0xff, 0xff, 0xff, 'I', 'D', 'A', 'T'}),
	} {
		_, err := ExtractMetadata(bytes.NewReader(data))
		require.ErrorIs(t, err, meta.ErrCorruptImage, name)
		require.False(t, meta.IsRetryable(err), name)
	}
	_, err := ExtractMetadata(bytes.NewReader(png_stream(ihdr(1, 1, 8, 9))))
	require.ErrorContains(t, err, "invalid color type: 9")
}

func TestSignature(t *testing.T) {
	data := testimages.PNG(testimages.Opaque(4, 4))
	data[1] = 'X'
	_, err := ExtractMetadata(bytes.NewReader(data))
	require.ErrorIs(t, err, meta.ErrInvalidSignature)
	_, err = ExtractMetadata(bytes.NewReader(Signature[:5]))
	require.ErrorIs(t, err, meta.ErrUnexpectedEOF)
}

func TestTruncation(t *testing.T) {
	data := testimages.PNG(testimages.Opaque(w, h))
	// signature + IHDR chunk including its CRC
	const header_size = 8 + 8 + 13 + 4
	for i := range header_size {
		_, err := ExtractMetadata(bytes.NewReader(data[:i]), meta.CountFrames(false))
		require.ErrorIs(t, err, meta.ErrUnexpectedEOF, "prefix of length %d", i)
	}
	_, err := ExtractMetadata(bytes.NewReader(data[:header_size]), meta.CountFrames(false))
	require.NoError(t, err)
}

func TestIdempotence(t *testing.T) {
	data := testimages.APNG(8, 8, 3)
	a, err := ExtractMetadata(bytes.NewReader(data))
	require.NoError(t, err)
	b, err := ExtractMetadata(bytes.NewReader(data))
	require.NoError(t, err)
	require.Empty(t, cmp.Diff(a, b))
}
