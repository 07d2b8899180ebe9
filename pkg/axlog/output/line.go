package output

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/axmet/axlog/pkg/ax178"
)

// LineOptions control the text rendering. They correspond to the logger's
// historical command line switches: CSV instead of tab separation, an
// ISO-8601 or Unix epoch timestamp prefix, and raw frame output for protocol
// debugging.
type LineOptions struct {
	CSV bool
	// Timestamp is "iso", "unix" or empty.
	Timestamp string
	Raw       bool
}

// LineOutput writes one line per measurement to dest, normally stdout.
type LineOutput struct {
	dest     io.Writer
	opts     LineOptions
	recvChan chan ax178.Measurement
}

func NewLineOutput(dest io.Writer, opts LineOptions) *LineOutput {
	return &LineOutput{
		dest:     dest,
		opts:     opts,
		recvChan: make(chan ax178.Measurement, measurementBufferLength),
	}
}

func (l *LineOutput) Receive() chan<- ax178.Measurement {
	return l.recvChan
}

func (l *LineOutput) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m := <-l.recvChan:
			if _, err := io.WriteString(l.dest, l.formatLine(m)); err != nil {
				return err
			}
		}
	}
}

func (l *LineOutput) formatLine(m ax178.Measurement) string {
	if l.opts.Raw {
		return fmt.Sprintf("%s %s\n", m.Raw, m)
	}

	sep := "\t"
	if l.opts.CSV {
		sep = ","
	}

	ts := ""
	switch l.opts.Timestamp {
	case "iso":
		ts = m.Timestamp.Format(time.RFC3339Nano) + sep
	case "unix":
		ts = strconv.FormatFloat(float64(m.Timestamp.UnixNano())/float64(time.Second), 'f', 6, 64) + sep
	}

	value := "OVERFLOW"
	if !m.Overload {
		value = strconv.FormatFloat(m.Value, 'f', m.FracDigits, 64)
	}

	return fmt.Sprintf("%s%s%s%s%s%s\n", ts, value, sep, string(m.Prefix)+string(m.Unit), sep, m.Mode)
}
