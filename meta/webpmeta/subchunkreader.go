package webpmeta

import (
	"fmt"
	"io"

	"github.com/kovidgoyal/imagemeta/meta"
	"github.com/kovidgoyal/imagemeta/meta/binary"
	"github.com/kovidgoyal/imagemeta/types"
	"golang.org/x/image/riff"
)

var _ = fmt.Print

const chunkHeaderSize = 8

type SubChunk struct {
	ID  riff.FourCC
	Len uint32
}

func (c SubChunk) String() string {
	return fmt.Sprintf("%q(%d)", c.ID[:], c.Len)
}

// SubChunkReader iterates over the chunks in a RIFF list, bounded both by the
// declared end of the list and by the end of the underlying stream. Crossing
// the declared end is corruption, crossing the end of the stream is
// insufficient data.
type SubChunkReader struct {
	c             *binary.Cursor
	end           int64
	next_chunk_at int64
}

// NewSubChunkReader returns a reader for the chunks between the current
// position of c and end, which is an offset in the same coordinates as
// c.Offset().
func NewSubChunkReader(c *binary.Cursor, end int64) *SubChunkReader {
	return &SubChunkReader{c: c, end: end, next_chunk_at: c.Offset()}
}

func corrupt(format string, args ...any) error {
	return meta.Corrupt(types.WEBP, format, args...)
}

// Next skips whatever is left of the current chunk's payload and reads the
// header of the next chunk. It returns io.EOF when the declared end of the
// list is reached exactly.
func (r *SubChunkReader) Next() (ans SubChunk, err error) {
	pos := r.c.Offset()
	if pos > r.next_chunk_at {
		return ans, fmt.Errorf("imagemeta: RIFF chunk payload over-read by %d bytes", pos-r.next_chunk_at)
	}
	if err = r.c.Skip(r.next_chunk_at - pos); err != nil {
		return
	}
	pos = r.next_chunk_at
	left := r.end - pos
	switch {
	case left == 0:
		return ans, io.EOF
	case left < chunkHeaderSize:
		return ans, corrupt("chunk header at offset %d crosses the end of the RIFF container at %d", pos, r.end)
	}
	id, err := r.c.FourCC()
	if err != nil {
		return
	}
	if ans.Len, err = r.c.U32LE(); err != nil {
		return
	}
	ans.ID = riff.FourCC(id)
	left -= chunkHeaderSize
	if int64(ans.Len) > left {
		return ans, corrupt("chunk %s at offset %d crosses the end of the RIFF container at %d", ans, pos, r.end)
	}
	// payloads are padded to even length, tolerate a missing final padding byte
	r.next_chunk_at = min(r.end, pos+chunkHeaderSize+int64(ans.Len)+int64(ans.Len&1))
	return ans, nil
}
