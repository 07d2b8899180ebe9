package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	"golang.org/x/sync/errgroup"

	"github.com/axmet/axlog/pkg/axlog"
	"github.com/axmet/axlog/pkg/axlog/config"
	"github.com/axmet/axlog/pkg/axlog/device"
	"github.com/axmet/axlog/pkg/axlog/device/file"
	"github.com/axmet/axlog/pkg/axlog/device/serialport"
	"github.com/axmet/axlog/pkg/axlog/monitor"
	"github.com/axmet/axlog/pkg/axlog/output"
)

const playbackReadSize = 8

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.InfoLevel)
	configFile := flag.String("config", "axlog.yaml", "YAML config file")
	debug := flag.Bool("debug", false, "enable debug logging")

	flag.Parse()
	if *debug {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	}

	opts, err := config.Load(*configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("error loading config file")
	}

	var dev device.Device

	if opts.PlaybackLocation != "" {
		log.Info().Str("device", "file").Str("capture", opts.PlaybackLocation).Msg("initializing device...")
		dev, err = file.NewFileDevice(opts.PlaybackLocation, playbackReadSize, opts.PlaybackInterval)
		if err != nil {
			log.Fatal().Str("device", "file").Err(err).Msg("failed to open capture file")
		}
	} else {
		log.Info().Str("device", "serial").Str("port", opts.Port).Int("baud", opts.BaudRate).Msg("initializing device...")
		dev, err = serialport.NewSerialDevice(opts.Port, opts.BaudRate)
		if err != nil {
			log.Fatal().Str("device", "serial").Err(err).Msg("failed to open serial port")
		}
	}

	outputs := []output.Output{
		output.NewLineOutput(os.Stdout, output.LineOptions{
			CSV:       opts.Output.CSV,
			Timestamp: opts.Output.Timestamp,
			Raw:       opts.Output.Raw,
		}),
	}

	axlogOpts := []axlog.AxlogOption{axlog.WithLogger(log.Logger)}

	if opts.InfluxDB.Host != "" {
		writeAPI := influxdb2.NewClient(opts.InfluxDB.Host, "").WriteAPI(opts.InfluxDB.Organization, opts.InfluxDB.Bucket)
		outputs = append(outputs, output.NewInfluxOutput(writeAPI))
		axlogOpts = append(axlogOpts, axlog.WithInfluxDB(writeAPI))
	}

	if opts.Monitor.Port != 0 {
		axlogOpts = append(axlogOpts, axlog.WithMonitor(monitor.NewServer(opts.Monitor.Port)))
	}

	ax, err := axlog.New(dev,
		axlog.Options{
			Outputs:        outputs,
			RecordLocation: opts.RecordLocation,
		}, axlogOpts...)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create decoder pipeline")
	}

	eg, ctx := errgroup.WithContext(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	eg.Go(func() error {
		select {
		case <-sigChan:
		case <-ctx.Done():
		}

		return ax.Stop()
	})

	eg.Go(func() error {
		return ax.Start(ctx)
	})

	if err := eg.Wait(); err != nil && err != context.Canceled {
		log.Fatal().Err(err).Msg("exited program")
	}
}
