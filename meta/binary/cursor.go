// Package binary provides a bounds checked cursor over a byte stream for
// walking image container structures.
package binary

import (
	encbin "encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/kovidgoyal/imagemeta/meta"
)

var _ = fmt.Print

// Cursor reads fixed width fields from an underlying stream, tracking the
// number of bytes consumed. If the stream is an io.Seeker, skips are done by
// seeking, after checking the target against the length of the stream.
// Otherwise skipped bytes are read and discarded.
//
// A Cursor is owned by a single decode call and must not be shared.
type Cursor struct {
	r         io.Reader
	s         io.Seeker
	start     int64
	pos       int64
	size      int64
	sizeKnown bool
	sizeTried bool
	scratch   [8]byte
}

func NewCursor(r io.Reader) *Cursor {
	c := &Cursor{r: r}
	if s, ok := r.(io.Seeker); ok {
		if pos, err := s.Seek(0, io.SeekCurrent); err == nil {
			c.s, c.start = s, pos
		}
	}
	return c
}

// Offset returns the number of bytes consumed since the cursor was created.
func (c *Cursor) Offset() int64 { return c.pos }

func (c *Cursor) load_size() {
	if c.sizeTried || c.s == nil {
		return
	}
	c.sizeTried = true
	end, err := c.s.Seek(0, io.SeekEnd)
	if err != nil {
		return
	}
	if _, err = c.s.Seek(c.start+c.pos, io.SeekStart); err != nil {
		// the stream is in an unknown state, stop seeking on it
		c.s = nil
		return
	}
	c.size, c.sizeKnown = max(0, end-c.start), true
}

// Remaining returns the number of bytes left in the stream, if known.
func (c *Cursor) Remaining() (int64, bool) {
	c.load_size()
	if !c.sizeKnown {
		return 0, false
	}
	return max(0, c.size-c.pos), true
}

func (c *Cursor) short(needed int64) error {
	return &meta.InsufficientDataError{Offset: c.pos, Needed: needed}
}

// ReadFull fills buf or fails with a meta.InsufficientDataError. Errors other
// than end of stream are returned as is.
func (c *Cursor) ReadFull(buf []byte) error {
	n, err := io.ReadFull(c.r, buf)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			err = c.short(int64(len(buf)))
		}
		c.pos += int64(n)
		return err
	}
	c.pos += int64(n)
	return nil
}

// ReadN returns the next n bytes in a newly allocated slice.
func (c *Cursor) ReadN(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("imagemeta: cannot read a negative number of bytes: %d", n)
	}
	if rem, ok := c.Remaining(); ok && int64(n) > rem {
		return nil, c.short(int64(n))
	}
	ans := make([]byte, n)
	if err := c.ReadFull(ans); err != nil {
		return nil, err
	}
	return ans, nil
}

// Skip advances the cursor by n bytes without buffering them.
func (c *Cursor) Skip(n int64) error {
	switch {
	case n < 0:
		return fmt.Errorf("imagemeta: cannot skip a negative number of bytes: %d", n)
	case n == 0:
		return nil
	}
	if c.s != nil {
		if rem, ok := c.Remaining(); ok {
			if n > rem {
				return c.short(n)
			}
			if _, err := c.s.Seek(n, io.SeekCurrent); err != nil {
				return err
			}
			c.pos += n
			return nil
		}
	}
	w, err := io.CopyN(io.Discard, c.r, n)
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = c.short(n)
		}
		c.pos += w
		return err
	}
	c.pos += w
	return nil
}

func (c *Cursor) read(n int) ([]byte, error) {
	b := c.scratch[:n]
	if err := c.ReadFull(b); err != nil {
		return nil, err
	}
	return b, nil
}

func (c *Cursor) U8() (uint8, error) {
	b, err := c.read(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *Cursor) U16BE() (uint16, error) {
	b, err := c.read(2)
	if err != nil {
		return 0, err
	}
	return encbin.BigEndian.Uint16(b), nil
}

func (c *Cursor) U16LE() (uint16, error) {
	b, err := c.read(2)
	if err != nil {
		return 0, err
	}
	return encbin.LittleEndian.Uint16(b), nil
}

func (c *Cursor) U24LE() (uint32, error) {
	b, err := c.read(3)
	if err != nil {
		return 0, err
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16, nil
}

func (c *Cursor) U32BE() (uint32, error) {
	b, err := c.read(4)
	if err != nil {
		return 0, err
	}
	return encbin.BigEndian.Uint32(b), nil
}

func (c *Cursor) U32LE() (uint32, error) {
	b, err := c.read(4)
	if err != nil {
		return 0, err
	}
	return encbin.LittleEndian.Uint32(b), nil
}

// FourCC reads a four byte tag.
func (c *Cursor) FourCC() (ans [4]byte, err error) {
	err = c.ReadFull(ans[:])
	return
}
