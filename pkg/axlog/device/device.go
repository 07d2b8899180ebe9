package device

import (
	"context"
)

// Device is a raw byte source for the decoder. Start pushes chunks of wire
// bytes into the channel until the transport closes (return nil) or fails
// (return the transport error); it must honor ctx cancellation.
type Device interface {
	Start(ctx context.Context, chunks chan<- []byte) error
	Stop() error
}
