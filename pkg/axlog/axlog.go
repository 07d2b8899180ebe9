// Package axlog wires the decode pipeline together: a byte source device, the
// bit stream assembler and frame decoder, and the measurement sinks.
package axlog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/influxdata/influxdb-client-go/api"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/axmet/axlog/pkg/ax178"
	"github.com/axmet/axlog/pkg/ax178/bitstream"
	"github.com/axmet/axlog/pkg/axlog/device"
	"github.com/axmet/axlog/pkg/axlog/monitor"
	"github.com/axmet/axlog/pkg/axlog/output"
	"github.com/axmet/axlog/pkg/util"
)

type Options struct {
	Outputs []output.Output
	// RecordLocation tees the raw byte stream to a capture file for later
	// playback, useful when chasing protocol quirks.
	RecordLocation string
}

type Axlog struct {
	device   device.Device
	opts     Options
	writeAPI api.WriteAPI
	monitor  *monitor.Server
	logger   zerolog.Logger

	cancel context.CancelFunc
	ctx    context.Context
}

type AxlogOption func(a *Axlog) error

func WithInfluxDB(writeAPI api.WriteAPI) AxlogOption {
	return func(a *Axlog) error {
		a.writeAPI = writeAPI
		return nil
	}
}

func WithMonitor(srv *monitor.Server) AxlogOption {
	return func(a *Axlog) error {
		a.monitor = srv
		return nil
	}
}

func WithLogger(logger zerolog.Logger) AxlogOption {
	return func(a *Axlog) error {
		a.logger = logger
		return nil
	}
}

func New(dev device.Device, options Options, opts ...AxlogOption) (*Axlog, error) {
	if dev == nil {
		return nil, fmt.Errorf("must specify a byte source device")
	}

	a := &Axlog{
		device:   dev,
		opts:     options,
		writeAPI: &util.MockWriteAPI{}, // overwritten with option
		logger:   log.Logger,
	}

	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	return a, nil
}

func (a *Axlog) Stop() error {
	a.cancel()
	if a.monitor != nil {
		a.monitor.Stop(context.TODO())
	}
	return a.device.Stop()
}

func (a *Axlog) Start(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	a.ctx, a.cancel = context.WithCancel(ctx)

	chunks := make(chan []byte, 1)

	eg.Go(func() error {
		defer close(chunks)
		err := a.device.Start(a.ctx, chunks)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if a.monitor != nil {
		eg.Go(func() error {
			return a.monitor.Run(a.ctx)
		})
	}

	for _, out := range a.opts.Outputs {
		thisOutput := out
		eg.Go(func() error {
			return thisOutput.Start(a.ctx)
		})
	}

	eg.Go(func() error {
		return a.decodeLoop(chunks)
	})

	a.logger.Info().Msg("Starting")

	return eg.Wait()
}

// decodeLoop is the single thread of control that owns the bit buffer and the
// synchronizer. It blocks only inside the byte fetch; sync faults are logged
// and decoding resumes, end of stream shuts the pipeline down cleanly, and
// transport errors abort it.
func (a *Axlog) decodeLoop(chunks <-chan []byte) error {
	src := &chunkReader{ctx: a.ctx, ch: chunks}

	if a.opts.RecordLocation != "" {
		f, err := os.Create(a.opts.RecordLocation)
		if err != nil {
			return err
		}
		defer f.Close()
		src.rec = f
	}

	dec := ax178.NewDecoder(bitstream.NewReader(src), a.logger)

	for {
		m, err := dec.Next()

		var fault *ax178.SyncFault
		switch {
		case err == nil:
			a.dispatch(m)
			if a.monitor != nil {
				a.monitor.Record(m, dec.Stats())
			}

		case errors.As(err, &fault):
			a.logger.Warn().
				Uint8("mode", fault.RawMode).
				Str("bits", fault.RawFrame.String()).
				Msg(fault.Reason)
			if a.monitor != nil {
				a.monitor.RecordStats(dec.Stats())
			}
			go a.writeAPI.WritePoint(influxdb2.NewPoint("axlog.sync_fault",
				map[string]string{
					"reason": fault.Reason,
				},
				map[string]interface{}{
					"mode": int(fault.RawMode),
				}, time.Now()))

		case errors.Is(err, io.EOF):
			a.logger.Info().
				Uint64("frames", dec.Stats().Frames).
				Uint64("faults", dec.Stats().Faults).
				Msg("byte source closed")
			a.cancel()
			return nil

		case errors.Is(err, context.Canceled):
			return nil

		default:
			return err
		}
	}
}

func (a *Axlog) dispatch(m ax178.Measurement) {
	for _, out := range a.opts.Outputs {
		select {
		case out.Receive() <- m:
		case <-a.ctx.Done():
			return
		}
	}
}

// chunkReader adapts the device's chunk channel into the blocking
// io.ByteReader the bit stream assembler consumes, optionally teeing the raw
// bytes to a capture file.
type chunkReader struct {
	ctx context.Context
	ch  <-chan []byte
	rec io.Writer
	buf []byte
}

func (r *chunkReader) ReadByte() (byte, error) {
	for len(r.buf) == 0 {
		select {
		case <-r.ctx.Done():
			return 0, r.ctx.Err()
		case chunk, ok := <-r.ch:
			if !ok {
				return 0, io.EOF
			}
			if r.rec != nil {
				r.rec.Write(chunk)
			}
			r.buf = chunk
		}
	}

	b := r.buf[0]
	r.buf = r.buf[1:]
	return b, nil
}
