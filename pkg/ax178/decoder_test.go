package ax178

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/axmet/axlog/pkg/ax178/bitstream"
)

// frameSpec builds wire frames for tests, the inverse of decodeFrame.
type frameSpec struct {
	selector uint8
	negative bool
	ac       bool
	segments [DigitCount]uint8
	decimal  uint8
	prefix   uint8
}

func digits(d ...int) [DigitCount]uint8 {
	var segs [DigitCount]uint8
	for i, v := range d {
		segs[i] = segmentPattern(v)
	}
	return segs
}

func (fs frameSpec) frame() Frame {
	w := SyncPattern
	w |= uint64(fs.selector) << functionOffset
	if fs.negative {
		w |= 1 << signBit
	}
	if fs.ac {
		w |= 1 << acBit
	}
	for i, seg := range fs.segments {
		w |= uint64(seg) << (digitOffset + uint(i)*digitWidth)
	}
	w |= uint64(fs.decimal) << decimalOffset
	w |= uint64(fs.prefix) << prefixOffset
	return Frame(w)
}

func (fs frameSpec) bytes() []byte {
	f := uint64(fs.frame())
	b := make([]byte, 8)
	for i := range b {
		b[i] = byte(f >> (8 * i))
	}
	return b
}

// packBits packs stream-ordered bits into bytes LSB-first, zero padding the
// tail.
func packBits(bits []byte) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, bit := range bits {
		out[i/8] |= bit << (i % 8)
	}
	return out
}

func frameBits(fs frameSpec) []byte {
	f := uint64(fs.frame())
	bits := make([]byte, FrameWidth)
	for i := range bits {
		bits[i] = byte(f >> i & 1)
	}
	return bits
}

func newTestDecoder(wire []byte) (*Decoder, *bitstream.Reader) {
	bits := bitstream.NewReader(bytes.NewReader(wire))
	return NewDecoder(bits, zerolog.Nop()), bits
}

func TestDecodeDCVolts(t *testing.T) {
	// 2.50 V DC: digits 0 2 5 0 with two fractional digits
	fs := frameSpec{selector: 0, segments: digits(0, 2, 5, 0), decimal: 2}
	dec, _ := newTestDecoder(fs.bytes())

	m, err := dec.Next()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if m.Value != 2.5 {
		t.Errorf("expected value 2.5, got %v", m.Value)
	}
	if m.FracDigits != 2 {
		t.Errorf("expected 2 fractional digits, got %d", m.FracDigits)
	}
	if m.Unit != UnitVolt || m.Prefix != PrefixNone || m.Mode != ModeDC {
		t.Errorf("expected V/none/DC, got %s/%q/%s", m.Unit, m.Prefix, m.Mode)
	}
	if m.Overload {
		t.Error("unexpected overload flag")
	}
	if got := m.String(); got != "2.50 V" {
		t.Errorf("expected display \"2.50 V\", got %q", got)
	}
	if stats := dec.Stats(); stats.Frames != 1 || stats.Faults != 0 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestDecodeTable(t *testing.T) {
	tests := []struct {
		name string
		fs   frameSpec
		want Measurement
	}{
		{
			name: "negative millivolts",
			fs:   frameSpec{selector: 0, negative: true, segments: digits(0, 1, 4, 1), decimal: 1, prefix: 3},
			want: Measurement{Value: -14.1, FracDigits: 1, Unit: UnitVolt, Prefix: PrefixMilli, Mode: ModeDC},
		},
		{
			name: "AC volts",
			fs:   frameSpec{selector: 0, ac: true, segments: digits(2, 3, 0, 4), decimal: 1},
			want: Measurement{Value: 230.4, FracDigits: 1, Unit: UnitVolt, Prefix: PrefixNone, Mode: ModeAC},
		},
		{
			name: "AC microamps",
			fs:   frameSpec{selector: 1, ac: true, segments: digits(0, 0, 9, 8), decimal: 0, prefix: 2},
			want: Measurement{Value: 98, FracDigits: 0, Unit: UnitAmpere, Prefix: PrefixMicro, Mode: ModeAC},
		},
		{
			name: "kiloohms",
			fs:   frameSpec{selector: 2, segments: digits(5, 6, 0, 0), decimal: 2, prefix: 4},
			want: Measurement{Value: 56, FracDigits: 2, Unit: UnitOhm, Prefix: PrefixKilo, Mode: ModeResistance},
		},
		{
			name: "continuity",
			fs:   frameSpec{selector: 3, segments: digits(0, 0, 1, 2), decimal: 1},
			want: Measurement{Value: 1.2, FracDigits: 1, Unit: UnitOhm, Prefix: PrefixNone, Mode: ModeContinuity},
		},
		{
			name: "diode",
			fs:   frameSpec{selector: 4, segments: digits(0, 6, 2, 8), decimal: 3},
			want: Measurement{Value: 0.628, FracDigits: 3, Unit: UnitVolt, Prefix: PrefixNone, Mode: ModeDiode},
		},
		{
			name: "nanofarads",
			fs:   frameSpec{selector: 5, segments: digits(0, 4, 7, 0), decimal: 1, prefix: 1},
			want: Measurement{Value: 47, FracDigits: 1, Unit: UnitFarad, Prefix: PrefixNano, Mode: ModeCapacitance},
		},
		{
			name: "megahertz",
			fs:   frameSpec{selector: 6, segments: digits(1, 2, 3, 4), decimal: 3, prefix: 5},
			want: Measurement{Value: 1.234, FracDigits: 3, Unit: UnitHertz, Prefix: PrefixMega, Mode: ModeFrequency},
		},
		{
			name: "temperature",
			fs:   frameSpec{selector: 7, segments: digits(0, 0, 2, 1), decimal: 0},
			want: Measurement{Value: 21, FracDigits: 0, Unit: UnitCelsius, Prefix: PrefixNone, Mode: ModeTemperature},
		},
		{
			name: "duty cycle",
			fs:   frameSpec{selector: 8, segments: digits(0, 4, 5, 5), decimal: 1},
			want: Measurement{Value: 45.5, FracDigits: 1, Unit: UnitPercent, Prefix: PrefixNone, Mode: ModeDutyCycle},
		},
		{
			name: "blank leading digit",
			fs:   frameSpec{selector: 0, segments: [DigitCount]uint8{segBlank, segmentPattern(2), segmentPattern(5), segmentPattern(0)}, decimal: 2},
			want: Measurement{Value: 2.5, FracDigits: 2, Unit: UnitVolt, Prefix: PrefixNone, Mode: ModeDC},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec, _ := newTestDecoder(tt.fs.bytes())
			m, err := dec.Next()
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if m.Value != tt.want.Value || m.FracDigits != tt.want.FracDigits ||
				m.Unit != tt.want.Unit || m.Prefix != tt.want.Prefix || m.Mode != tt.want.Mode {
				t.Errorf("got %s (%+v), want %s", m, m, tt.want)
			}
		})
	}
}

func TestOverload(t *testing.T) {
	fs := frameSpec{
		selector: 2,
		segments: [DigitCount]uint8{segmentPattern(0), segOverload, segBlank, segBlank},
	}
	dec, _ := newTestDecoder(fs.bytes())

	m, err := dec.Next()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !m.Overload {
		t.Fatal("expected overload flag")
	}
	if m.Value != 0 {
		t.Errorf("expected zero value on overload, got %v", m.Value)
	}
	if got := m.String(); got != "OL Ohm" {
		t.Errorf("expected display \"OL Ohm\", got %q", got)
	}
}

func TestLeadingGarbageRecovery(t *testing.T) {
	fs := frameSpec{selector: 0, segments: digits(0, 2, 5, 0), decimal: 2}
	want := uint64(0)

	for garbage := 1; garbage < int(FrameWidth); garbage++ {
		stream := append(make([]byte, garbage), frameBits(fs)...)
		dec, bits := newTestDecoder(packBits(stream))

		m, err := dec.Next()
		if err != nil {
			t.Fatalf("garbage=%d: decode: %v", garbage, err)
		}
		if m.Value != 2.5 || m.Mode != ModeDC {
			t.Fatalf("garbage=%d: wrong measurement %s", garbage, m)
		}

		want = uint64(garbage) + uint64(FrameWidth)
		if got := bits.BitsConsumed(); got != want {
			t.Fatalf("garbage=%d: consumed %d bits, want %d", garbage, got, want)
		}
		if stats := dec.Stats(); stats.Faults != 0 {
			t.Fatalf("garbage=%d: unexpected sync faults: %+v", garbage, stats)
		}
	}
}

func TestConsecutiveFramesIdentical(t *testing.T) {
	fs := frameSpec{selector: 0, segments: digits(0, 2, 5, 0), decimal: 2}
	dec, bits := newTestDecoder(append(fs.bytes(), fs.bytes()...))

	first, err := dec.Next()
	if err != nil {
		t.Fatalf("first decode: %v", err)
	}
	second, err := dec.Next()
	if err != nil {
		t.Fatalf("second decode: %v", err)
	}

	if first.Value != second.Value || first.Unit != second.Unit ||
		first.Prefix != second.Prefix || first.Mode != second.Mode ||
		first.Overload != second.Overload || first.Raw != second.Raw {
		t.Fatalf("consecutive identical frames decoded differently: %+v vs %+v", first, second)
	}
	// the second frame's sync pattern sat exactly at the cursor: no slippage
	if got := bits.BitsConsumed(); got != 2*uint64(FrameWidth) {
		t.Fatalf("consumed %d bits, want %d", got, 2*FrameWidth)
	}
}

func TestUnknownModeSyncFault(t *testing.T) {
	bad := frameSpec{selector: 12} // blank digits keep the rest of the frame zero
	good := frameSpec{selector: 0, segments: digits(0, 2, 5, 0), decimal: 2}
	dec, _ := newTestDecoder(append(bad.bytes(), good.bytes()...))

	_, err := dec.Next()
	var fault *SyncFault
	if !errors.As(err, &fault) {
		t.Fatalf("expected *SyncFault, got %v", err)
	}
	if fault.RawMode != 12 {
		t.Errorf("expected raw mode 12 preserved, got %d", fault.RawMode)
	}
	if fault.RawFrame != bad.frame() {
		t.Errorf("expected raw frame bits preserved, got %s", fault.RawFrame)
	}

	// scanning resumes and finds the following frame with no further faults
	m, err := dec.Next()
	if err != nil {
		t.Fatalf("decode after fault: %v", err)
	}
	if m.Value != 2.5 || m.Mode != ModeDC {
		t.Fatalf("wrong measurement after fault: %s", m)
	}
	if stats := dec.Stats(); stats.Faults != 1 || stats.Frames != 1 {
		t.Fatalf("expected exactly one fault and one frame, got %+v", stats)
	}
}

func TestFieldFaults(t *testing.T) {
	tests := []struct {
		name string
		fs   frameSpec
	}{
		{"unrecognized segment pattern", frameSpec{selector: 0, segments: [DigitCount]uint8{0x7E, segBlank, segBlank, segBlank}}},
		{"decimal out of range", frameSpec{selector: 0, segments: digits(1, 2, 3, 4), decimal: 5}},
		{"prefix out of range", frameSpec{selector: 0, segments: digits(1, 2, 3, 4), prefix: 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec, _ := newTestDecoder(tt.fs.bytes())
			_, err := dec.Next()
			var fault *SyncFault
			if !errors.As(err, &fault) {
				t.Fatalf("expected *SyncFault, got %v", err)
			}
		})
	}
}

func TestEndOfStreamTerminates(t *testing.T) {
	fs := frameSpec{selector: 0, segments: digits(0, 2, 5, 0), decimal: 2}
	dec, _ := newTestDecoder(fs.bytes())

	if _, err := dec.Next(); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, err := dec.Next(); err == nil {
		t.Fatal("expected end of stream error")
	}
}
