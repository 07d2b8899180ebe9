package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

const DefaultBaudRate = 2400

type Config struct {
	// Port is the serial device path, e.g. /dev/ttyUSB0 or COM8.
	Port             string        `yaml:"port"`
	BaudRate         int           `yaml:"baud_rate"`
	RecordLocation   string        `yaml:"record_location"`
	PlaybackLocation string        `yaml:"playback_location"`
	PlaybackInterval time.Duration `yaml:"playback_interval"`

	Output struct {
		CSV bool `yaml:"csv"`
		// Timestamp prefixes each line: "iso", "unix" or empty for none.
		Timestamp string `yaml:"timestamp"`
		Raw       bool   `yaml:"raw"`
	} `yaml:"output"`

	Monitor struct {
		Port int `yaml:"port"`
	} `yaml:"monitor"`

	InfluxDB struct {
		Host         string `yaml:"host"`
		Organization string `yaml:"organization"`
		Bucket       string `yaml:"bucket"`
	} `yaml:"influxdb"`
}

func Load(path string) (Config, error) {
	var conf Config

	contents, err := os.ReadFile(path)
	if err != nil {
		return conf, err
	}
	if err := yaml.Unmarshal(contents, &conf); err != nil {
		return conf, err
	}

	if conf.BaudRate == 0 {
		conf.BaudRate = DefaultBaudRate
	}
	if conf.PlaybackInterval == 0 {
		// one frame's worth of bytes every 380ms on the live meter
		conf.PlaybackInterval = 380 * time.Millisecond
	}
	switch conf.Output.Timestamp {
	case "", "iso", "unix":
	default:
		return conf, fmt.Errorf("unknown timestamp format %q", conf.Output.Timestamp)
	}
	if conf.Port == "" && conf.PlaybackLocation == "" {
		return conf, fmt.Errorf("either port or playback_location must be set")
	}

	return conf, nil
}
