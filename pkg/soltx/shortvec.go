package soltx

import (
	"bytes"

	"solwc.io/wallet-adapter/pkg/errors"
)

// Compact-u16 length framing: little-endian base-128 varint capped at
// three bytes, as used throughout the transaction wire format.

func encodeLength(buf *bytes.Buffer, n int) {
	rem := n
	for {
		b := byte(rem & 0x7f)
		rem >>= 7
		if rem == 0 {
			buf.WriteByte(b)
			return
		}
		buf.WriteByte(b | 0x80)
	}
}

func decodeLength(r *bytes.Reader) (int, error) {
	var n, shift int
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, errors.Wrap(err, "read compact-u16 length")
		}
		n |= int(b&0x7f) << shift
		if b&0x80 == 0 {
			return n, nil
		}
		shift += 7
		if shift > 14 {
			return 0, errors.New("compact-u16 length overflow")
		}
	}
}
