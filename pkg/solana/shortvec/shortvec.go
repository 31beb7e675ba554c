// Package shortvec implements the compact-u16 length prefix used by the
// Solana wire format for signature, account and instruction arrays.
package shortvec

import (
	"io"

	"github.com/pkg/errors"
)

// MaxEncodedLen is the largest number of bytes a compact-u16 occupies.
const MaxEncodedLen = 3

var ErrInvalidEncoding = errors.New("invalid compact-u16 encoding")

// AppendLen appends the compact-u16 encoding of n to dst.
func AppendLen(dst []byte, n uint16) []byte {
	v := uint32(n)
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

// ReadLen decodes a compact-u16 from r. Encodings longer than MaxEncodedLen
// bytes, or with trailing zero continuation bytes, are rejected.
func ReadLen(r io.ByteReader) (int, error) {
	var val uint32
	for i := 0; i < MaxEncodedLen; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}

		if i > 0 && b == 0 {
			return 0, errors.Wrap(ErrInvalidEncoding, "non-canonical length")
		}

		val |= uint32(b&0x7f) << (7 * i)
		if b&0x80 == 0 {
			if val > 0xffff {
				return 0, errors.Wrapf(ErrInvalidEncoding, "length overflows u16: %d", val)
			}
			return int(val), nil
		}
	}

	return 0, errors.Wrapf(ErrInvalidEncoding, "length exceeds %d bytes", MaxEncodedLen)
}
