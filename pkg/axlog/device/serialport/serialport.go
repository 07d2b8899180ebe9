// Package serialport reads the AX-178's serial output. The meter transmits
// continuously at 2400 baud 8N1; there is no handshake and nothing to write.
package serialport

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.bug.st/serial"
)

const readSize = 64

type SerialDevice struct {
	port serial.Port
}

func NewSerialDevice(path string, baudRate int) (*SerialDevice, error) {
	if path == "" {
		return nil, errors.New("no serial device path (e.g. /dev/ttyUSB0 or COM8) provided")
	}

	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", path, err)
	}

	return &SerialDevice{port: port}, nil
}

func (s *SerialDevice) Start(ctx context.Context, chunks chan<- []byte) error {
	buf := make([]byte, readSize)
	for {
		n, err := s.port.Read(buf)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				// port closed under us, normally by Stop
				return nil
			}
			return err
		}
		if n == 0 {
			continue
		}

		chunk := make([]byte, n)
		copy(chunk, buf[:n])

		select {
		case <-ctx.Done():
			return ctx.Err()
		case chunks <- chunk:
		}
	}
}

func (s *SerialDevice) Stop() error {
	return s.port.Close()
}
