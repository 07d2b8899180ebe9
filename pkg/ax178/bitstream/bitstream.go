// Package bitstream maintains a rolling bit buffer over a blocking byte
// source, so that the frame synchronizer can address the stream at arbitrary
// bit offsets.
//
// Bit order is LSB-first within each wire byte: stream bit 8*k+i is bit i of
// byte k. This matches the AX-178's on-wire layout and is the single most
// important constant in the decoder; the tests pin it against hand-written
// byte sequences.
package bitstream

import (
	"io"
)

// Reader accumulates bytes from src and exposes them as a bit sequence with
// peek/consume semantics. Not safe for concurrent use; the decode loop is the
// sole owner.
type Reader struct {
	src io.ByteReader
	buf []byte
	// bit offset into buf[0], always < 8
	off uint
	// total bits consumed since construction
	consumed uint64
}

func NewReader(src io.ByteReader) *Reader {
	return &Reader{src: src}
}

// bitsBuffered returns the number of unconsumed bits currently held.
func (r *Reader) bitsBuffered() uint {
	return uint(len(r.buf))*8 - r.off
}

// fill pulls bytes from the source until at least n bits are buffered.
// Blocks inside src.ReadByte. io.EOF propagates unchanged and is the clean
// end-of-stream signal; any other error is a transport failure.
func (r *Reader) fill(n uint) error {
	for r.bitsBuffered() < n {
		b, err := r.src.ReadByte()
		if err != nil {
			return err
		}
		r.buf = append(r.buf, b)
	}
	return nil
}

// PeekBits returns the next n bits without advancing the cursor. Bit i of the
// returned word is stream bit cursor+i. n must be at most 64.
func (r *Reader) PeekBits(n uint) (uint64, error) {
	if err := r.fill(n); err != nil {
		return 0, err
	}

	var w uint64
	for i := uint(0); i < n; i++ {
		pos := r.off + i
		bit := r.buf[pos/8] >> (pos % 8) & 1
		w |= uint64(bit) << i
	}
	return w, nil
}

// ConsumeBits advances the cursor by n bits, pulling from the source first if
// the buffer is short. Fully drained leading bytes are discarded.
func (r *Reader) ConsumeBits(n uint) error {
	if err := r.fill(n); err != nil {
		return err
	}

	r.off += n
	r.consumed += uint64(n)
	r.buf = r.buf[r.off/8:]
	r.off %= 8
	return nil
}

// BitsConsumed reports the total number of bits consumed so far. The decoder
// uses it for its slip counter; tests use it to check the resynchronization
// bound.
func (r *Reader) BitsConsumed() uint64 {
	return r.consumed
}
