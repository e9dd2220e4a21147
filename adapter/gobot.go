package adapter

import (
	"context"
	"fmt"

	"gobot.io/x/gobot/v2/drivers/i2c"

	"github.com/mklimuk/barometer"
)

var _ barometer.Opener = &GobotBus{}

type gobotDriver interface {
	Start() error
	Halt() error
	Write(data []byte) error
	Read(data []byte) error
}

// GobotBus opens a gobot generic I2C driver per transaction on boards
// supported by gobot, e.g. the NanoPi NEO adaptor.
type GobotBus struct {
	connector i2c.Connector
	bus       int
	newDriver func(address byte) gobotDriver
}

func NewGobotBus(connector i2c.Connector, bus int) *GobotBus {
	b := &GobotBus{connector: connector, bus: bus}
	b.newDriver = func(address byte) gobotDriver {
		return i2c.NewGenericDriver(b.connector, "mpl115a2", int(address), func(c i2c.Config) {
			c.SetBus(b.bus)
		})
	}
	return b
}

func (b *GobotBus) Open(ctx context.Context, address byte) (barometer.Handle, error) {
	drv := b.newDriver(address)
	if err := drv.Start(); err != nil {
		return nil, fmt.Errorf("gobot: could not start driver for %#x on bus %d: %w", address, b.bus, err)
	}
	return &gobotHandle{drv: drv, address: address}, nil
}

type gobotHandle struct {
	drv     gobotDriver
	address byte
}

func (h *gobotHandle) Write(ctx context.Context, buffer []byte) error {
	if err := h.drv.Write(buffer); err != nil {
		return fmt.Errorf("gobot: write to %#x failed: %w", h.address, err)
	}
	return nil
}

func (h *gobotHandle) Read(ctx context.Context, buffer []byte) error {
	if err := h.drv.Read(buffer); err != nil {
		return fmt.Errorf("gobot: read from %#x failed: %w", h.address, err)
	}
	return nil
}

func (h *gobotHandle) Close(ctx context.Context) error {
	return h.drv.Halt()
}
