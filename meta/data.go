package meta

import (
	"fmt"

	"github.com/kovidgoyal/imagemeta/types"
)

var _ = fmt.Println

// ColorMode is the color model declared by an image header.
type ColorMode int

const (
	Grayscale ColorMode = iota
	Rgb
	Indexed
	Cmyk
)

var colorModeNames = map[ColorMode]string{
	Grayscale: "Grayscale",
	Rgb:       "RGB",
	Indexed:   "Indexed",
	Cmyk:      "CMYK",
}

func (m ColorMode) String() string {
	if ans, ok := colorModeNames[m]; ok {
		return ans
	}
	return fmt.Sprintf("ColorMode(%d)", int(m))
}

func (m ColorMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Color describes how samples are stored. Resolution is the number of bits
// per sample.
type Color struct {
	Mode         ColorMode `json:"mode"`
	AlphaChannel bool      `json:"alpha_channel"`
	Resolution   uint8     `json:"resolution"`
}

func (c Color) String() string {
	a := ""
	if c.AlphaChannel {
		a = "+alpha"
	}
	return fmt.Sprintf("%s%s/%d", c.Mode, a, c.Resolution)
}

// Dimensions are the raw values declared in the header record.
type Dimensions struct {
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

// ImageMeta represents the structural metadata for an image.
type ImageMeta struct {
	Format     types.Format `json:"format"`
	Dimensions Dimensions   `json:"dimensions"`
	Color      Color        `json:"color"`
	// nil means the image is not animated, or animation was not detected.
	// Otherwise it is a best-effort count of the animation control records
	// found in the container.
	AnimationFrames *int `json:"animation_frames,omitempty"`
}

func (md ImageMeta) IsAnimation() bool {
	return md.AnimationFrames != nil
}

func (md ImageMeta) String() string {
	ans := fmt.Sprintf("%s %dx%d %s", md.Format, md.Dimensions.Width, md.Dimensions.Height, md.Color)
	if md.AnimationFrames != nil {
		ans += fmt.Sprintf(" frames=%d", *md.AnimationFrames)
	}
	return ans
}

// Frames is a convenience for constructing ImageMeta.AnimationFrames.
func Frames(n int) *int {
	return &n
}
