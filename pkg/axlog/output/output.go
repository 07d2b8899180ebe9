// Package output fans decoded measurements out to sinks. Sinks follow a
// common shape: the pipeline sends into Receive() and runs Start in its
// errgroup.
package output

import (
	"context"

	"github.com/axmet/axlog/pkg/ax178"
)

const measurementBufferLength = 8

type Output interface {
	Receive() chan<- ax178.Measurement
	Start(ctx context.Context) error
}
