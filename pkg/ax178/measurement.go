package ax178

import (
	"fmt"
	"strconv"
	"time"
)

type Unit string

const (
	UnitVolt    Unit = "V"
	UnitAmpere  Unit = "A"
	UnitOhm     Unit = "Ohm"
	UnitFarad   Unit = "F"
	UnitHertz   Unit = "Hz"
	UnitCelsius Unit = "degC"
	UnitPercent Unit = "%"
)

type Prefix string

const (
	PrefixNone  Prefix = ""
	PrefixNano  Prefix = "n"
	PrefixMicro Prefix = "u"
	PrefixMilli Prefix = "m"
	PrefixKilo  Prefix = "k"
	PrefixMega  Prefix = "M"
)

// Scale returns the multiplier the prefix applies to the unit.
func (p Prefix) Scale() float64 {
	switch p {
	case PrefixNano:
		return 1e-9
	case PrefixMicro:
		return 1e-6
	case PrefixMilli:
		return 1e-3
	case PrefixKilo:
		return 1e3
	case PrefixMega:
		return 1e6
	}
	return 1
}

type Mode string

const (
	ModeDC          Mode = "DC"
	ModeAC          Mode = "AC"
	ModeResistance  Mode = "resistance"
	ModeContinuity  Mode = "continuity"
	ModeDiode       Mode = "diode"
	ModeCapacitance Mode = "capacitance"
	ModeFrequency   Mode = "frequency"
	ModeTemperature Mode = "temperature"
	ModeDutyCycle   Mode = "duty-cycle"
)

// resolveFunction maps the frame's function selector plus the AC coupling bit
// to the measurement's unit and display mode. The selector set is closed;
// anything else means the bit window slipped.
func resolveFunction(selector uint8, ac bool) (Unit, Mode, bool) {
	switch selector {
	case 0:
		if ac {
			return UnitVolt, ModeAC, true
		}
		return UnitVolt, ModeDC, true
	case 1:
		if ac {
			return UnitAmpere, ModeAC, true
		}
		return UnitAmpere, ModeDC, true
	case 2:
		return UnitOhm, ModeResistance, true
	case 3:
		return UnitOhm, ModeContinuity, true
	case 4:
		return UnitVolt, ModeDiode, true
	case 5:
		return UnitFarad, ModeCapacitance, true
	case 6:
		return UnitHertz, ModeFrequency, true
	case 7:
		return UnitCelsius, ModeTemperature, true
	case 8:
		return UnitPercent, ModeDutyCycle, true
	}
	return "", "", false
}

// resolvePrefix maps the frame's 3-bit SI prefix field. The set is closed;
// values past mega mean the bit window slipped.
func resolvePrefix(raw uint8) (Prefix, bool) {
	switch raw {
	case 0:
		return PrefixNone, true
	case 1:
		return PrefixNano, true
	case 2:
		return PrefixMicro, true
	case 3:
		return PrefixMilli, true
	case 4:
		return PrefixKilo, true
	case 5:
		return PrefixMega, true
	}
	return "", false
}

// Measurement is one decoded reading. Immutable once constructed; the decoder
// hands it off and keeps no reference.
type Measurement struct {
	// Value is the displayed magnitude with sign applied, in prefixed units
	// (a 2.50 V DC reading has Value 2.5, not 2500).
	Value float64
	// FracDigits is the number of digits after the display's decimal point,
	// kept so sinks can reproduce the instrument's resolution exactly.
	FracDigits int
	Unit       Unit
	Prefix     Prefix
	Mode       Mode
	// Overload is set when the display shows the OL glyph; Value is 0.
	Overload bool

	// Raw is the frame the measurement was decoded from.
	Raw Frame
	// Timestamp is when the frame was captured.
	Timestamp time.Time
}

// BaseValue returns the magnitude in unprefixed units (volts, not millivolts).
func (m Measurement) BaseValue() float64 {
	return m.Value * m.Prefix.Scale()
}

// String renders the reading the way the meter displays it, e.g. "2.50 V" or
// "-14.1 mV" or "OL Ohm".
func (m Measurement) String() string {
	if m.Overload {
		return fmt.Sprintf("OL %s%s", m.Prefix, m.Unit)
	}
	return fmt.Sprintf("%s %s%s", strconv.FormatFloat(m.Value, 'f', m.FracDigits, 64), m.Prefix, m.Unit)
}
