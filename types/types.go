package types

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var _ = fmt.Print

// Format is an image file format.
type Format int

// Image file formats.
const (
	UNKNOWN Format = iota
	BMP
	GIF
	JPEG
	PNG
	WEBP
)

// All lists the supported formats in signature sniffing priority order.
var All = []Format{PNG, JPEG, GIF, WEBP, BMP}

var FormatExts = map[string]Format{
	"bmp":  BMP,
	"dib":  BMP,
	"gif":  GIF,
	"jpg":  JPEG,
	"jpeg": JPEG,
	"jpe":  JPEG,
	"jfif": JPEG,
	"png":  PNG,
	"apng": PNG,
	"webp": WEBP,
}

var formatNames = map[Format]string{
	BMP:  "BMP",
	GIF:  "GIF",
	JPEG: "JPEG",
	PNG:  "PNG",
	WEBP: "WEBP",
}

func (f Format) String() string {
	if ans, ok := formatNames[f]; ok {
		return ans
	}
	return "UNKNOWN"
}

func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Format) UnmarshalText(text []byte) error {
	for k, v := range formatNames {
		if strings.EqualFold(v, string(text)) {
			*f = k
			return nil
		}
	}
	return fmt.Errorf("unknown image format: %q", string(text))
}

// ErrUnknownExtension means the file extension does not map to a supported format.
var ErrUnknownExtension = errors.New("imagemeta: unknown image file extension")

// FormatFromExtension parses image format from filename extension:
// "bmp", "gif", "jpg" (or "jpeg"), "png" and "webp" are supported.
func FormatFromExtension(ext string) (Format, error) {
	if f, ok := FormatExts[strings.ToLower(strings.TrimPrefix(ext, "."))]; ok {
		return f, nil
	}
	return UNKNOWN, ErrUnknownExtension
}

// FormatFromFilename parses image format from the extension of filename.
func FormatFromFilename(filename string) (Format, error) {
	return FormatFromExtension(filepath.Ext(filename))
}
