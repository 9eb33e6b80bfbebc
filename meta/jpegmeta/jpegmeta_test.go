package jpegmeta

import (
	"bytes"
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/kovidgoyal/imagemeta/internal/testimages"
	"github.com/kovidgoyal/imagemeta/meta"
	"github.com/kovidgoyal/imagemeta/types"
	"github.com/stretchr/testify/require"
)

const w, h = testimages.Width, testimages.Height

func segment(marker byte, payload ...byte) []byte {
	n := len(payload) + 2
	return append([]byte{0xff, marker, byte(n >> 8), byte(n)}, payload...)
}

func sof(marker, precision byte, width, height uint16, num_components byte) []byte {
	p := []byte{precision, byte(height >> 8), byte(height), byte(width >> 8), byte(width), num_components}
	for i := range num_components {
		p = append(p, i+1, 0x11, 0)
	}
	return segment(marker, p...)
}

func stream(parts ...[]byte) []byte {
	ans := []byte{0xff, 0xd8}
	for _, p := range parts {
		ans = append(ans, p...)
	}
	return ans
}

func TestEncodedImages(t *testing.T) {
	dims := meta.Dimensions{Width: w, Height: h}
	for name, tc := range map[string]struct {
		img      image.Image
		expected meta.Color
	}{
		"rgb":  {testimages.Opaque(w, h), meta.Color{Mode: meta.Rgb, Resolution: 8}},
		"gray": {image.NewGray(image.Rect(0, 0, w, h)), meta.Color{Mode: meta.Grayscale, Resolution: 8}},
	} {
		md, err := ExtractMetadata(bytes.NewReader(testimages.JPEG(tc.img)))
		require.NoError(t, err, name)
		expected := meta.ImageMeta{Format: types.JPEG, Dimensions: dims, Color: tc.expected}
		if diff := cmp.Diff(expected, md); diff != "" {
			t.Fatalf("%s: unexpected metadata (-want +got):\n%s", name, diff)
		}
	}
}

func TestFrameHeaders(t *testing.T) {
	type testCase struct {
		name     string
		data     []byte
		expected meta.Color
	}
	app0 := segment(0xe0, []byte("JFIF\x00\x01\x02\x00\x00\x01\x00\x01\x00\x00")...)
	for _, tc := range []testCase{
		{"baseline", stream(app0, sof(0xc0, 8, 640, 480, 3)), meta.Color{Mode: meta.Rgb, Resolution: 8}},
		{"progressive", stream(sof(0xc2, 8, 640, 480, 3)), meta.Color{Mode: meta.Rgb, Resolution: 8}},
		{"cmyk", stream(app0, segment(0xee, 'A', 'd', 'o', 'b', 'e'), sof(0xc0, 8, 640, 480, 4)), meta.Color{Mode: meta.Cmyk, Resolution: 8}},
		{"12-bit", stream(sof(0xc1, 12, 640, 480, 1)), meta.Color{Mode: meta.Grayscale, Resolution: 12}},
		{"lossless", stream(sof(0xc3, 16, 640, 480, 1)), meta.Color{Mode: meta.Grayscale, Resolution: 16}},
		{"arithmetic", stream(segment(0xcc, 0x01, 0x10), sof(0xc9, 8, 640, 480, 3)), meta.Color{Mode: meta.Rgb, Resolution: 8}},
		{"tables first", stream(segment(0xdb, make([]byte, 65)...), segment(0xc4, make([]byte, 30)...), sof(0xc0, 8, 640, 480, 3)), meta.Color{Mode: meta.Rgb, Resolution: 8}},
		{"fill bytes", stream([]byte{0xff, 0xff, 0xff}, sof(0xc0, 8, 640, 480, 3)), meta.Color{Mode: meta.Rgb, Resolution: 8}},
		{"standalone markers", stream([]byte{0xff, 0x01, 0xff, 0xd3}, sof(0xc0, 8, 640, 480, 3)), meta.Color{Mode: meta.Rgb, Resolution: 8}},
	} {
		md, err := ExtractMetadata(bytes.NewReader(tc.data))
		require.NoError(t, err, tc.name)
		require.Equal(t, meta.Dimensions{Width: 640, Height: 480}, md.Dimensions, tc.name)
		require.Equal(t, tc.expected, md.Color, tc.name)
		require.Nil(t, md.AnimationFrames, tc.name)
	}
}

func TestCorrupt(t *testing.T) {
	for name, data := range map[string][]byte{
		"garbage between segments": stream([]byte{0x00}, sof(0xc0, 8, 1, 1, 3)),
		"zero marker":              stream([]byte{0xff, 0x00}),
		"EOI before frame":         stream([]byte{0xff, 0xd9}),
		"SOS before frame":         stream(segment(0xda, 1, 1, 0, 0, 63, 0)),
		"nested SOI":               stream([]byte{0xff, 0xd8}),
		"short length":             stream([]byte{0xff, 0xe1, 0x00, 0x01}),
		"short frame header":       stream(segment(0xc0, 8, 0, 1, 0)),
		"two components":           stream(sof(0xc0, 8, 1, 1, 2)),
		"precision 16 baseline":    stream(sof(0xc0, 16, 1, 1, 3)),
		"precision 1 lossless":     stream(sof(0xc3, 1, 1, 1, 1)),
	} {
		_, err := ExtractMetadata(bytes.NewReader(data))
		require.ErrorIs(t, err, meta.ErrCorruptImage, name)
		require.False(t, meta.IsRetryable(err), name)
	}
}

func TestSignature(t *testing.T) {
	_, err := ExtractMetadata(bytes.NewReader([]byte{0x89, 'P', 'N', 'G'}))
	require.ErrorIs(t, err, meta.ErrInvalidSignature)
	_, err = ExtractMetadata(bytes.NewReader([]byte{0xff}))
	require.ErrorIs(t, err, meta.ErrUnexpectedEOF)
}

func TestProgressiveBuffering(t *testing.T) {
	// large metadata segments in front of the frame header, the way EXIF and
	// ICC profiles are stored by cameras
	data := testimages.JPEGWithSegments(testimages.Opaque(1920, 1200), 60000, 60000, 60000, 30000, 1000)
	sof_offset := bytes.Index(data, []byte{0xff, 0xc0})
	require.Greater(t, sof_offset, 4096)
	needed := sof_offset + 2 + 2 + 6
	var md meta.ImageMeta
	var err error
	idx := 4096
	for ; idx < len(data); idx += 4096 {
		md, err = ExtractMetadata(bytes.NewReader(data[:idx]))
		if err == nil {
			break
		}
		require.True(t, meta.IsRetryable(err), "prefix of length %d failed with: %s", idx, err)
		require.Less(t, idx, needed)
	}
	require.NoError(t, err)
	require.GreaterOrEqual(t, idx, needed)
	require.Equal(t, meta.Dimensions{Width: 1920, Height: 1200}, md.Dimensions)

	// every prefix before the frame header is retryable, never corrupt
	for _, n := range []int{0, 1, 2, 3, 4, 5, sof_offset, sof_offset + 1, sof_offset + 3, needed - 1} {
		_, err = ExtractMetadata(bytes.NewReader(data[:n]))
		require.True(t, meta.IsRetryable(err), "prefix of length %d failed with: %v", n, err)
	}
	_, err = ExtractMetadata(bytes.NewReader(data[:needed]))
	require.NoError(t, err)
}
