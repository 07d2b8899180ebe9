// Package file plays back a raw serial capture, paced to roughly the live
// byte rate so the decode pipeline behaves as it would against the meter.
package file

import (
	"context"
	"errors"
	"io"
	"os"
	"time"
)

type FileDevice struct {
	readFile    *os.File
	readSize    int
	timeBetween time.Duration
}

func NewFileDevice(file string, readSize int, timeBetween time.Duration) (*FileDevice, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}

	return &FileDevice{
		readFile:    f,
		readSize:    readSize,
		timeBetween: timeBetween,
	}, nil
}

func (f *FileDevice) Start(ctx context.Context, chunks chan<- []byte) error {
	tick := time.NewTicker(f.timeBetween)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
			buf := make([]byte, f.readSize)
			n, err := f.readFile.Read(buf)
			if n > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case chunks <- buf[:n]:
				}
			}
			if err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				return err
			}
		}
	}
}

func (f *FileDevice) Stop() error {
	return f.readFile.Close()
}
