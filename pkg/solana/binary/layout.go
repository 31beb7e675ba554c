// Package binary reads and writes the fixed size, little endian account
// layouts used by the SPL token programs.
package binary

import (
	"crypto/ed25519"
	"encoding/binary"
)

// OptionTagSize is the width of a COption tag in SPL token state.
const OptionTagSize = 4

// Writer fills a preallocated buffer front to back.
type Writer struct {
	buf    []byte
	offset int
}

func NewWriter(buf []byte) *Writer {
	return &Writer{buf: buf}
}

// Offset returns the number of bytes written so far.
func (w *Writer) Offset() int {
	return w.offset
}

func (w *Writer) Key(k ed25519.PublicKey) {
	copy(w.buf[w.offset:], k)
	w.offset += ed25519.PublicKeySize
}

// OptionalKey writes a COption<Pubkey>. An empty key writes the none tag
// followed by zeroes.
func (w *Writer) OptionalKey(k ed25519.PublicKey) {
	if len(k) > 0 {
		w.buf[w.offset] = 1
		copy(w.buf[w.offset+OptionTagSize:], k)
	}
	w.offset += OptionTagSize + ed25519.PublicKeySize
}

func (w *Writer) Uint64(v uint64) {
	binary.LittleEndian.PutUint64(w.buf[w.offset:], v)
	w.offset += 8
}

func (w *Writer) OptionalUint64(v *uint64) {
	if v != nil {
		w.buf[w.offset] = 1
		binary.LittleEndian.PutUint64(w.buf[w.offset+OptionTagSize:], *v)
	}
	w.offset += OptionTagSize + 8
}

func (w *Writer) Uint8(v uint8) {
	w.buf[w.offset] = v
	w.offset++
}

func (w *Writer) Bool(v bool) {
	if v {
		w.buf[w.offset] = 1
	}
	w.offset++
}

// Reader consumes a buffer front to back. Callers are expected to check the
// buffer length against the layout size before reading.
type Reader struct {
	buf    []byte
	offset int
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

func (r *Reader) Offset() int {
	return r.offset
}

func (r *Reader) Key() ed25519.PublicKey {
	k := append(ed25519.PublicKey{}, r.buf[r.offset:r.offset+ed25519.PublicKeySize]...)
	r.offset += ed25519.PublicKeySize
	return k
}

// OptionalKey returns nil for a none tag.
func (r *Reader) OptionalKey() ed25519.PublicKey {
	var k ed25519.PublicKey
	if r.buf[r.offset] == 1 {
		start := r.offset + OptionTagSize
		k = append(ed25519.PublicKey{}, r.buf[start:start+ed25519.PublicKeySize]...)
	}
	r.offset += OptionTagSize + ed25519.PublicKeySize
	return k
}

func (r *Reader) Uint64() uint64 {
	v := binary.LittleEndian.Uint64(r.buf[r.offset:])
	r.offset += 8
	return v
}

func (r *Reader) OptionalUint64() *uint64 {
	var v *uint64
	if r.buf[r.offset] == 1 {
		val := binary.LittleEndian.Uint64(r.buf[r.offset+OptionTagSize:])
		v = &val
	}
	r.offset += OptionTagSize + 8
	return v
}

func (r *Reader) Uint8() uint8 {
	v := r.buf[r.offset]
	r.offset++
	return v
}

func (r *Reader) Bool() bool {
	return r.Uint8() == 1
}
