package ax178

import (
	"fmt"
	"math"
	"time"

	"github.com/axmet/axlog/pkg/ax178/bitstream"
	"github.com/rs/zerolog"
)

// SyncFault reports a frame window that matched the sync pattern but failed
// validation. It is recoverable: the caller logs it and calls Next again,
// which resumes scanning one bit past the false match.
type SyncFault struct {
	// RawFrame holds the 64 bits as captured at the faulting window.
	RawFrame Frame
	// RawMode is the function selector field's value, preserved verbatim for
	// the "unknown measurement mode" diagnostic.
	RawMode uint8
	Reason  string
}

func (f *SyncFault) Error() string {
	return fmt.Sprintf("sync fault: %s (mode=%#x bits=%s)", f.Reason, f.RawMode, f.RawFrame)
}

type syncState int

const (
	stateScanning syncState = iota
	stateLocked
)

// Stats counts the decoder's activity since construction.
type Stats struct {
	Frames  uint64
	Faults  uint64
	Slipped uint64 // bits discarded while hunting for the sync pattern
}

// Decoder recovers frame alignment from the bit stream and decodes frames
// into measurements. Single owner, no locking; it blocks inside the bit
// stream's byte fetch and nowhere else.
type Decoder struct {
	bits   *bitstream.Reader
	state  syncState
	stats  Stats
	logger zerolog.Logger
}

func NewDecoder(bits *bitstream.Reader, logger zerolog.Logger) *Decoder {
	return &Decoder{
		bits:   bits,
		state:  stateScanning,
		logger: logger,
	}
}

func (d *Decoder) Stats() Stats {
	return d.stats
}

// Next returns the next decoded measurement. A *SyncFault error is
// recoverable and the caller is expected to call Next again; any other error
// is the byte source's and ends the run (io.EOF for a clean close).
//
// Scanning slides the window one bit at a time, so alignment recovers after
// an arbitrary number of dropped or corrupted bits. A window is consumed only
// once it validates; a faulting window costs a single bit, which keeps a
// false sync match inside noise from swallowing the head of a real frame.
func (d *Decoder) Next() (Measurement, error) {
	d.state = stateScanning
	for {
		w, err := d.bits.PeekBits(SyncWidth)
		if err != nil {
			return Measurement{}, err
		}
		if w != SyncPattern {
			if err := d.bits.ConsumeBits(1); err != nil {
				return Measurement{}, err
			}
			d.stats.Slipped++
			continue
		}

		raw, err := d.bits.PeekBits(FrameWidth)
		if err != nil {
			return Measurement{}, err
		}

		m, fault := decodeFrame(Frame(raw))
		if fault != nil {
			if err := d.bits.ConsumeBits(1); err != nil {
				return Measurement{}, err
			}
			d.stats.Faults++
			d.stats.Slipped++
			d.logger.Debug().Str("bits", fault.RawFrame.String()).Uint8("mode", fault.RawMode).Msg(fault.Reason)
			return Measurement{}, fault
		}

		if err := d.bits.ConsumeBits(FrameWidth); err != nil {
			return Measurement{}, err
		}
		d.state = stateLocked
		d.stats.Frames++
		m.Timestamp = time.Now().UTC()
		return m, nil
	}
}

// decodeFrame validates the frame's closed fields in a fixed order and
// assembles the measurement. The function selector is checked first: an
// unrecognized selector almost always means the window slipped, so it is an
// alignment fault rather than a per-field error, and the same policy applies
// to segment patterns and the other closed fields. Partial confidence in
// alignment must never produce a silently wrong value.
func decodeFrame(f Frame) (Measurement, *SyncFault) {
	selector := f.function()
	unit, mode, ok := resolveFunction(selector, f.acCoupled())
	if !ok {
		return Measurement{}, &SyncFault{RawFrame: f, RawMode: selector, Reason: "unknown measurement mode"}
	}

	var value int64
	overload := false
	for i := 0; i < DigitCount; i++ {
		digit, _, ol, ok := decodeSegments(f.digit(i))
		if !ok {
			return Measurement{}, &SyncFault{RawFrame: f, RawMode: selector, Reason: fmt.Sprintf("unrecognized segment pattern in digit %d", i+1)}
		}
		if ol {
			overload = true
		}
		value = value*10 + int64(digit)
	}

	frac := f.decimal()
	if frac > maxDecimal {
		return Measurement{}, &SyncFault{RawFrame: f, RawMode: selector, Reason: "decimal position out of range"}
	}

	prefix, ok := resolvePrefix(f.prefix())
	if !ok {
		return Measurement{}, &SyncFault{RawFrame: f, RawMode: selector, Reason: "prefix field out of range"}
	}

	magnitude := float64(value) / math.Pow10(int(frac))
	if f.negative() {
		magnitude = -magnitude
	}
	if overload {
		magnitude = 0
	}

	return Measurement{
		Value:      magnitude,
		FracDigits: int(frac),
		Unit:       unit,
		Prefix:     prefix,
		Mode:       mode,
		Overload:   overload,
		Raw:        f,
	}, nil
}
