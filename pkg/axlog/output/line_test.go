package output

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/axmet/axlog/pkg/ax178"
)

var testMeasurement = ax178.Measurement{
	Value:      2.5,
	FracDigits: 2,
	Unit:       ax178.UnitVolt,
	Mode:       ax178.ModeDC,
	Timestamp:  time.Date(2024, 3, 9, 12, 30, 0, 0, time.UTC),
}

func TestFormatLineTSV(t *testing.T) {
	l := NewLineOutput(io.Discard, LineOptions{})
	if got := l.formatLine(testMeasurement); got != "2.50\tV\tDC\n" {
		t.Fatalf("unexpected line: %q", got)
	}
}

func TestFormatLineCSV(t *testing.T) {
	l := NewLineOutput(io.Discard, LineOptions{CSV: true})
	if got := l.formatLine(testMeasurement); got != "2.50,V,DC\n" {
		t.Fatalf("unexpected line: %q", got)
	}
}

func TestFormatLinePrefixedUnit(t *testing.T) {
	m := testMeasurement
	m.Value = -14.1
	m.FracDigits = 1
	m.Prefix = ax178.PrefixMilli

	l := NewLineOutput(io.Discard, LineOptions{})
	if got := l.formatLine(m); got != "-14.1\tmV\tDC\n" {
		t.Fatalf("unexpected line: %q", got)
	}
}

func TestFormatLineTimestamps(t *testing.T) {
	l := NewLineOutput(io.Discard, LineOptions{Timestamp: "iso"})
	got := l.formatLine(testMeasurement)
	want := testMeasurement.Timestamp.Format(time.RFC3339Nano) + "\t2.50\tV\tDC\n"
	if got != want {
		t.Fatalf("iso: got %q, want %q", got, want)
	}

	l = NewLineOutput(io.Discard, LineOptions{Timestamp: "unix", CSV: true})
	got = l.formatLine(testMeasurement)
	if !strings.HasPrefix(got, "1709987400.000000,") {
		t.Fatalf("unix: unexpected line %q", got)
	}
}

func TestFormatLineOverload(t *testing.T) {
	m := testMeasurement
	m.Overload = true
	m.Value = 0

	l := NewLineOutput(io.Discard, LineOptions{})
	if got := l.formatLine(m); got != "OVERFLOW\tV\tDC\n" {
		t.Fatalf("unexpected line: %q", got)
	}
}

func TestFormatLineRaw(t *testing.T) {
	m := testMeasurement
	m.Raw = ax178.Frame(0xA5)

	l := NewLineOutput(io.Discard, LineOptions{Raw: true})
	got := l.formatLine(m)
	if !strings.HasPrefix(got, "1010010100") {
		t.Fatalf("expected raw bits in stream order, got %q", got)
	}
	if !strings.Contains(got, "2.50 V") {
		t.Fatalf("expected decoded display alongside raw bits, got %q", got)
	}
}
