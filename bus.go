package barometer

import (
	"context"
	"fmt"
)

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

type BusReader interface {
	Read(ctx context.Context, buffer []byte) error
}

type BusWriter interface {
	Write(ctx context.Context, buffer []byte) error
}

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

// I2CBus is a shared bus addressed per call, e.g. a USB bridge.
type I2CBus interface {
	AddressableReader
	AddressableWriter
}

// Handle is an exclusively owned connection to a single device. It is valid
// until Close is called and must not be shared between transactions.
type Handle interface {
	BusReader
	BusWriter
	Close(ctx context.Context) error
}

// Opener hands out device handles. Every transaction opens its own handle
// and closes it before the next one begins.
type Opener interface {
	Open(ctx context.Context, address byte) (Handle, error)
}

// Addressed turns an addressable bus into an Opener. Closing a handle
// releases the bus.
func Addressed(bus I2CBus) Opener {
	return addressedOpener{bus: bus}
}

type addressedOpener struct {
	bus I2CBus
}

func (o addressedOpener) Open(ctx context.Context, address byte) (Handle, error) {
	return &addressedHandle{bus: o.bus, address: address}, nil
}

type addressedHandle struct {
	bus     I2CBus
	address byte
	closed  bool
}

func (h *addressedHandle) Write(ctx context.Context, buffer []byte) error {
	if h.closed {
		return ErrHandleClosed
	}
	return h.bus.WriteToAddr(ctx, h.address, buffer)
}

func (h *addressedHandle) Read(ctx context.Context, buffer []byte) error {
	if h.closed {
		return ErrHandleClosed
	}
	return h.bus.ReadFromAddr(ctx, h.address, buffer)
}

func (h *addressedHandle) Close(ctx context.Context) error {
	if h.closed {
		return nil
	}
	h.closed = true
	return h.bus.Release(ctx)
}

var ErrHandleClosed = fmt.Errorf("device handle already closed")
