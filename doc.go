/*
Package imagemeta reads structural metadata (pixel dimensions, color model, bit
depth, alpha presence and animation frame count) from encoded PNG, JPEG, GIF,
WebP and BMP images without decoding any pixel data.

Only the header records of each container are read, everything else is skipped,
so metadata can be extracted from a prefix of a file that is still being
downloaded. Errors caused by running out of data are distinguished from errors
caused by corrupt data, see IsRetryable.
*/
package imagemeta

import "fmt"

type ImagemetaVersion struct {
	Major, Minor, Patch uint
}

func (v ImagemetaVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

func (v ImagemetaVersion) Equal(o ImagemetaVersion) bool {
	return v.Major == o.Major && v.Minor == o.Minor && v.Patch == o.Patch
}

func (v ImagemetaVersion) After(o ImagemetaVersion) bool {
	switch {
	case v.Major != o.Major:
		return v.Major > o.Major
	case v.Minor != o.Minor:
		return v.Minor > o.Minor
	}
	return v.Patch > o.Patch
}

func (v ImagemetaVersion) Before(o ImagemetaVersion) bool {
	return !v.Equal(o) && !v.After(o)
}

var Version = ImagemetaVersion{0, 3, 0}
