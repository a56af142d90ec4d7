package frame

import (
	"errors"
	"fmt"
	"net"
)

var (
	ErrAddressLength = errors.New("hardware address must be 6 bytes")
	ErrElementLength = errors.New("information element longer than 255 bytes")
)

// Builder appends 802.11 fields to a buffer and tracks the write cursor.
// The first failed append sticks; later appends are ignored and Frame reports it.
type Builder struct {
	buf      []byte
	elements map[byte]int
	err      error
}

// NewBuilder starts a frame from a copy of template.
func NewBuilder(template []byte, capacity int) *Builder {
	if capacity < len(template) {
		capacity = len(template)
	}
	buf := make([]byte, len(template), capacity)
	copy(buf, template)
	return &Builder{buf: buf, elements: make(map[byte]int)}
}

// Len is the current cursor position.
func (b *Builder) Len() int { return len(b.buf) }

// PutAddr overwrites the 6-byte address field at off.
func (b *Builder) PutAddr(off int, hw net.HardwareAddr) *Builder {
	if b.err != nil {
		return b
	}
	if len(hw) != 6 {
		b.err = fmt.Errorf("%w: got %d at offset %d", ErrAddressLength, len(hw), off)
		return b
	}
	if off < 0 || off+6 > len(b.buf) {
		b.err = fmt.Errorf("address offset %d outside frame of %d bytes", off, len(b.buf))
		return b
	}
	copy(b.buf[off:off+6], hw)
	return b
}

// PutUint16 overwrites a little-endian field at off.
func (b *Builder) PutUint16(off int, v uint16) *Builder {
	if b.err != nil {
		return b
	}
	if off < 0 || off+2 > len(b.buf) {
		b.err = fmt.Errorf("field offset %d outside frame of %d bytes", off, len(b.buf))
		return b
	}
	b.buf[off] = byte(v)
	b.buf[off+1] = byte(v >> 8)
	return b
}

// Element appends a tag/length/value information element.
func (b *Builder) Element(tag byte, value []byte) *Builder {
	if b.err != nil {
		return b
	}
	if len(value) > 255 {
		b.err = fmt.Errorf("%w: tag %d has %d bytes", ErrElementLength, tag, len(value))
		return b
	}
	b.elements[tag] = len(b.buf)
	b.buf = append(b.buf, tag, byte(len(value)))
	b.buf = append(b.buf, value...)
	return b
}

// ElementOffset returns where the element with tag starts, or -1.
func (b *Builder) ElementOffset(tag byte) int {
	if off, ok := b.elements[tag]; ok {
		return off
	}
	return -1
}

// Frame returns the built bytes or the first append error.
func (b *Builder) Frame() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.buf, nil
}
