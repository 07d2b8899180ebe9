// Package ax178 decodes the AXIOMET AX-178 multimeter's proprietary serial
// frame format into typed measurements.
//
// The layout below was reverse-engineered from captured traffic at 2400 baud
// 8N1. A frame is 8 wire bytes; bits are numbered LSB-first within each byte
// (stream bit 8*k+i is bit i of byte k), so the whole frame fits a
// little-endian uint64 and wire byte k is frame bits [8k, 8k+8).
package ax178

const (
	SyncPattern uint64 = 0xA5
	SyncWidth   uint   = 8
	FrameWidth  uint   = 64

	// field offsets and widths, in frame bit positions
	functionOffset = 8
	functionWidth  = 4
	signBit        = 12
	acBit          = 13
	digitOffset    = 16
	digitWidth     = 7
	DigitCount     = 4
	decimalOffset  = 44
	decimalWidth   = 3
	prefixOffset   = 47
	prefixWidth    = 3

	// decimal field counts fractional digits; the display has DigitCount
	// positions so anything past that means the window slipped
	maxDecimal = DigitCount
)

// Frame is one captured 64-bit reading snapshot. Fields are read-only views;
// extraction never mutates the frame.
type Frame uint64

// bits returns the width-bit field starting at frame bit position off.
func (f Frame) bits(off, width uint) uint64 {
	return uint64(f) >> off & (1<<width - 1)
}

func (f Frame) function() uint8 {
	return uint8(f.bits(functionOffset, functionWidth))
}

func (f Frame) negative() bool {
	return f.bits(signBit, 1) == 1
}

func (f Frame) acCoupled() bool {
	return f.bits(acBit, 1) == 1
}

// digit returns the 7 segment bits of display digit i, most significant
// digit first.
func (f Frame) digit(i int) uint8 {
	return uint8(f.bits(digitOffset+uint(i)*digitWidth, digitWidth))
}

func (f Frame) decimal() uint8 {
	return uint8(f.bits(decimalOffset, decimalWidth))
}

func (f Frame) prefix() uint8 {
	return uint8(f.bits(prefixOffset, prefixWidth))
}

// String renders the frame's bits in stream order (bit 0 first), the same
// form the raw output mode and sync fault diagnostics use.
func (f Frame) String() string {
	var b [FrameWidth]byte
	for i := uint(0); i < FrameWidth; i++ {
		b[i] = '0' + byte(uint64(f)>>i&1)
	}
	return string(b[:])
}
