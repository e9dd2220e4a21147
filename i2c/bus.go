package i2c

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mklimuk/barometer"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

const DefaultDevice = "/dev/i2c-1"

var _ barometer.Opener = &GenericBus{}

var hostOnce = sync.OnceValue(func() error {
	state, err := host.Init()
	if err != nil {
		return fmt.Errorf("could not init host: %w", err)
	}
	for _, driver := range state.Loaded {
		slog.Debug("periph driver loaded", "driver", driver.String())
	}
	return nil
})

// GenericBus opens the named periph I2C bus once per transaction, mirroring
// the open/transfer/close discipline of a /dev/i2c-N character device.
type GenericBus struct {
	dev     string
	speed   physic.Frequency
	openBus func(name string) (i2c.BusCloser, error)
}

type GenericBusOpt func(*GenericBus)

// WithSpeed sets the bus clock applied after every open. Zero keeps the
// driver default.
func WithSpeed(f physic.Frequency) GenericBusOpt {
	return func(b *GenericBus) {
		b.speed = f
	}
}

func withBusOpener(open func(name string) (i2c.BusCloser, error)) GenericBusOpt {
	return func(b *GenericBus) {
		b.openBus = open
	}
}

func NewGenericBus(dev string, opts ...GenericBusOpt) *GenericBus {
	if dev == "" {
		dev = DefaultDevice
	}
	b := &GenericBus{
		dev: dev,
		openBus: func(name string) (i2c.BusCloser, error) {
			if err := hostOnce(); err != nil {
				return nil, err
			}
			return i2creg.Open(name)
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *GenericBus) Open(ctx context.Context, address byte) (barometer.Handle, error) {
	bus, err := b.openBus(b.dev)
	if err != nil {
		return nil, fmt.Errorf("could not open i2c bus %s: %w", b.dev, err)
	}
	if b.speed != 0 {
		if err := bus.SetSpeed(b.speed); err != nil {
			_ = bus.Close()
			return nil, fmt.Errorf("could not set i2c bus %s speed to %s: %w", b.dev, b.speed, err)
		}
	}
	return &device{
		bus: bus,
		dev: i2c.Dev{Bus: bus, Addr: uint16(address)},
	}, nil
}

func (b *GenericBus) String() string {
	return b.dev
}

type device struct {
	bus i2c.BusCloser
	dev i2c.Dev
}

func (d *device) Write(ctx context.Context, buffer []byte) error {
	if err := d.dev.Tx(buffer, nil); err != nil {
		return fmt.Errorf("could not write to i2c device %#x: %w", d.dev.Addr, err)
	}
	return nil
}

func (d *device) Read(ctx context.Context, buffer []byte) error {
	if err := d.dev.Tx(nil, buffer); err != nil {
		return fmt.Errorf("could not read from i2c device %#x: %w", d.dev.Addr, err)
	}
	return nil
}

func (d *device) Close(ctx context.Context) error {
	return d.bus.Close()
}
