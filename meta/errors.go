package meta

import (
	"errors"
	"fmt"
	"io"

	"github.com/kovidgoyal/imagemeta/types"
)

var (
	// ErrInvalidSignature is returned by a format specific loader when the
	// leading magic bytes do not belong to its format.
	ErrInvalidSignature = errors.New("imagemeta: invalid signature")

	// ErrUnsupportedFormat is returned when no supported format matches the
	// leading bytes of the stream.
	ErrUnsupportedFormat = errors.New("imagemeta: unsupported image format")

	// ErrUnexpectedEOF matches every InsufficientDataError.
	ErrUnexpectedEOF = errors.New("imagemeta: unexpected end of data")

	// ErrCorruptImage matches every CorruptImageError.
	ErrCorruptImage = errors.New("imagemeta: corrupt image")
)

// InsufficientDataError means the source ended before a required field could
// be read. Retrying with more of the stream may succeed.
type InsufficientDataError struct {
	Offset int64 // offset from the start of the stream of the failed read
	Needed int64 // number of bytes the read required
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("imagemeta: unexpected end of data: needed %d bytes at offset %d", e.Needed, e.Offset)
}

func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrUnexpectedEOF || target == io.ErrUnexpectedEOF
}

// CorruptImageError means a field that was present holds a value outside the
// legal domain of its format.
type CorruptImageError struct {
	Format types.Format
	Detail string
}

func (e *CorruptImageError) Error() string {
	return fmt.Sprintf("imagemeta: corrupt %s image: %s", e.Format, e.Detail)
}

func (e *CorruptImageError) Is(target error) bool {
	return target == ErrCorruptImage
}

func Corrupt(f types.Format, format string, args ...any) error {
	return &CorruptImageError{Format: f, Detail: fmt.Sprintf(format, args...)}
}

// IsRetryable returns true if err means that the stream ended too soon, so
// that decoding a longer prefix of the same stream may succeed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUnexpectedEOF)
}
