// cursor.go provides bounds-checked little-endian reads and tolerant
// text slicing over a raw container buffer.

package cfb

import (
	"encoding/binary"
	"unicode/utf16"

	"golang.org/x/text/encoding/charmap"
)

// TextEncoding selects how SliceText interprets raw bytes.
type TextEncoding int

const (
	// UTF16LE decodes two-byte little-endian code units.
	UTF16LE TextEncoding = iota
	// CodePage decodes single bytes through the Windows-1252 table.
	CodePage
)

// Cursor wraps an immutable byte buffer with bounds-checked reads.
// A failed read returns ErrOutOfBounds and never touches memory past
// the end of the buffer.
type Cursor struct {
	data []byte
}

// NewCursor returns a Cursor over data. The buffer is not copied and
// must not be mutated while the cursor is in use.
func NewCursor(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Len returns the buffer length in bytes.
func (c *Cursor) Len() int {
	return len(c.data)
}

// ReadU16 returns the little-endian uint16 at off.
func (c *Cursor) ReadU16(off int) (uint16, error) {
	if off < 0 || off+2 > len(c.data) {
		return 0, ErrOutOfBounds
	}
	return binary.LittleEndian.Uint16(c.data[off : off+2]), nil
}

// ReadU32 returns the little-endian uint32 at off.
func (c *Cursor) ReadU32(off int) (uint32, error) {
	if off < 0 || off+4 > len(c.data) {
		return 0, ErrOutOfBounds
	}
	return binary.LittleEndian.Uint32(c.data[off : off+4]), nil
}

// ReadI32 returns the little-endian int32 at off.
func (c *Cursor) ReadI32(off int) (int32, error) {
	v, err := c.ReadU32(off)
	return int32(v), err
}

// ReadU64 returns the little-endian uint64 at off.
func (c *Cursor) ReadU64(off int) (uint64, error) {
	if off < 0 || off+8 > len(c.data) {
		return 0, ErrOutOfBounds
	}
	return binary.LittleEndian.Uint64(c.data[off : off+8]), nil
}

// Slice returns the n bytes at off without copying.
func (c *Cursor) Slice(off, n int) ([]byte, error) {
	if off < 0 || n < 0 || off+n > len(c.data) {
		return nil, ErrOutOfBounds
	}
	return c.data[off : off+n], nil
}

// SliceText decodes the n bytes at off as text. A slice that runs past
// the buffer end fails with ErrOutOfBounds, but malformed text inside a
// valid slice never fails: decoding is lossy so that one bad property
// cannot abort extraction of the others.
func (c *Cursor) SliceText(off, n int, enc TextEncoding) (string, error) {
	raw, err := c.Slice(off, n)
	if err != nil {
		return "", err
	}
	return DecodeText(raw, enc), nil
}

// DecodeText converts raw bytes to a string under enc, replacing
// malformed sequences instead of failing.
func DecodeText(raw []byte, enc TextEncoding) string {
	if enc == CodePage {
		s, err := charmap.Windows1252.NewDecoder().Bytes(raw)
		if err != nil {
			return string(raw)
		}
		return string(s)
	}
	// UTF-16LE. An odd trailing byte is dropped rather than rejected.
	units := make([]uint16, 0, len(raw)/2)
	for i := 0; i+2 <= len(raw); i += 2 {
		units = append(units, binary.LittleEndian.Uint16(raw[i:i+2]))
	}
	return string(utf16.Decode(units))
}
