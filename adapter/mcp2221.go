package adapter

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/karalabe/hid"

	"github.com/mklimuk/barometer"
	"github.com/mklimuk/barometer/snsctx"
)

const VendorID = 0x04D8
const ProductID = 0x00DD

// HID report commands
const (
	cmdStatus     byte = 0x10
	cmdCancel     byte = 0x10
	cmdI2CWrite   byte = 0x90
	cmdI2CRead    byte = 0x91
	cmdI2CGetData byte = 0x40

	reportSize = 64
	// payload bytes available in a single report after the 4 header bytes
	maxTransfer = 60
)

var ErrCommandFailed = errors.New("mcp2221: command failed")
var ErrDeviceNotFound = errors.New("mcp2221: device not found")

var _ barometer.I2CBus = &MCP2221{}

type hidDevice interface {
	Write(b []byte) (int, error)
	Read(b []byte) (int, error)
	Close() error
}

// MCP2221 is a Microchip USB to I2C bridge. Every command opens the HID
// device, exchanges one 64 byte report pair and closes it again.
type MCP2221 struct {
	mx           sync.Mutex
	request      []byte
	response     []byte
	responseWait time.Duration
	open         func() (hidDevice, error)
}

type MCP2221Status struct {
	I2CDataBufferCounter   int    `yaml:"i2c_data_buffer_counter"`
	I2CSpeedDivider        int    `yaml:"i2c_speed_divider"`
	I2CTimeout             int    `yaml:"i2c_timeout"`
	CurrentAddress         string `yaml:"current_address"`
	LastWriteRequestedSize uint16 `yaml:"last_write_requested_size"`
	LastWriteSentSize      uint16 `yaml:"last_write_sent_size"`
	ReadPending            int    `yaml:"read_pending"`
}

type MCP2221Opt func(*MCP2221)

// WithResponseWait sets the pause between sending a report and reading the
// answer.
func WithResponseWait(d time.Duration) MCP2221Opt {
	return func(m *MCP2221) {
		m.responseWait = d
	}
}

// WithDeviceIndex selects one of several attached bridges.
func WithDeviceIndex(index int) MCP2221Opt {
	return func(m *MCP2221) {
		m.open = func() (hidDevice, error) {
			return openHID(index)
		}
	}
}

func NewMCP2221(opts ...MCP2221Opt) *MCP2221 {
	m := &MCP2221{
		request:      make([]byte, reportSize),
		response:     make([]byte, reportSize),
		responseWait: 50 * time.Millisecond,
		open: func() (hidDevice, error) {
			return openHID(-1)
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Detect lists the attached bridges.
func Detect() []hid.DeviceInfo {
	return hid.Enumerate(VendorID, ProductID)
}

func openHID(index int) (hidDevice, error) {
	devs := Detect()
	if len(devs) == 0 {
		return nil, ErrDeviceNotFound
	}
	if index < 0 {
		if len(devs) > 1 {
			return nil, fmt.Errorf("mcp2221: ambiguous device identification, %d devices attached", len(devs))
		}
		index = 0
	}
	if index >= len(devs) {
		return nil, fmt.Errorf("mcp2221: no device with index %d", index)
	}
	dev, err := devs[index].Open()
	if err != nil {
		return nil, fmt.Errorf("mcp2221: error opening device: %w", err)
	}
	return dev, nil
}

func (d *MCP2221) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	if len(buffer) > maxTransfer {
		return fmt.Errorf("mcp2221: write of %d bytes exceeds %d", len(buffer), maxTransfer)
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdI2CWrite
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(buffer)))
	d.request[3] = address << 1
	copy(d.request[4:], buffer)
	if err := d.send(ctx); err != nil {
		return fmt.Errorf("mcp2221: write to %#x failed: %w", address, err)
	}
	if d.response[1] == 0x01 {
		snsctx.Logger(ctx).DebugContext(ctx, "mcp2221 adapter busy", "address", address)
		return barometer.ErrBusBusy
	}
	return nil
}

func (d *MCP2221) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	if len(buffer) > maxTransfer {
		return fmt.Errorf("mcp2221: read of %d bytes exceeds %d", len(buffer), maxTransfer)
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdI2CRead
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(buffer)))
	d.request[3] = address<<1 | 1
	if err := d.send(ctx); err != nil {
		return fmt.Errorf("mcp2221: read from %#x failed: %w", address, err)
	}
	if d.response[1] == 0x01 {
		return barometer.ErrBusBusy
	}
	d.resetBuffers()
	d.request[0] = cmdI2CGetData
	if err := d.send(ctx); err != nil {
		return fmt.Errorf("mcp2221: error getting read data from adapter: %w", err)
	}
	if d.response[1] == 0x41 {
		return fmt.Errorf("mcp2221: error reading the I2C slave data from the I2C engine: %w", ErrCommandFailed)
	}
	if d.response[3] == 127 || int(d.response[3]) != len(buffer) {
		return fmt.Errorf("mcp2221: invalid data size byte; expected %d, got %d", len(buffer), d.response[3])
	}
	copy(buffer, d.response[4:4+len(buffer)])
	return nil
}

func (d *MCP2221) Status(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatus
	if err := d.send(ctx); err != nil {
		return nil, fmt.Errorf("mcp2221: status request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

// Release cancels any transfer in progress and frees the bus.
func (d *MCP2221) Release(ctx context.Context) error {
	_, err := d.ReleaseBus(ctx)
	return err
}

func (d *MCP2221) ReleaseBus(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatus
	d.request[2] = cmdCancel
	if err := d.send(ctx); err != nil {
		return nil, fmt.Errorf("mcp2221: release request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

func bufferToStatus(buffer []byte) *MCP2221Status {
	/*
		9, 10: requested I2C transfer length (LE)
		11, 12: already transferred number of bytes (LE)
		13: internal I2C data buffer counter
		14: current I2C communication speed divider value
		15: current I2C timeout value
		16, 17: I2C address being used
		25: read pending
	*/
	return &MCP2221Status{
		I2CDataBufferCounter:   int(buffer[13]),
		I2CSpeedDivider:        int(buffer[14]),
		I2CTimeout:             int(buffer[15]),
		CurrentAddress:         hex.EncodeToString(buffer[16:18]),
		LastWriteRequestedSize: binary.LittleEndian.Uint16(buffer[9:11]),
		LastWriteSentSize:      binary.LittleEndian.Uint16(buffer[11:13]),
		ReadPending:            int(buffer[25]),
	}
}

func (d *MCP2221) send(ctx context.Context) error {
	dev, err := d.open()
	if err != nil {
		return err
	}
	defer func() {
		if err := dev.Close(); err != nil {
			snsctx.Logger(ctx).WarnContext(ctx, "could not close mcp2221 device", "error", err)
		}
	}()
	verbose := snsctx.IsVerbose(ctx)
	if verbose {
		snsctx.Logger(ctx).DebugContext(ctx, "sending message to adapter", "report", hex.EncodeToString(d.request))
	}
	n, err := dev.Write(d.request)
	if err != nil {
		return fmt.Errorf("could not write request: %w", err)
	}
	if n != reportSize {
		return fmt.Errorf("short write: %d", n)
	}
	if d.responseWait > 0 {
		time.Sleep(d.responseWait)
	}
	n, err = dev.Read(d.response)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}
	if n != reportSize {
		return fmt.Errorf("short read: %d", n)
	}
	if d.response[0] != d.request[0] {
		return fmt.Errorf("response to command %#x echoes %#x: %w", d.request[0], d.response[0], ErrCommandFailed)
	}
	if verbose {
		snsctx.Logger(ctx).DebugContext(ctx, "read message from adapter", "report", hex.EncodeToString(d.response))
	}
	return nil
}

func (d *MCP2221) resetBuffers() {
	clear(d.request)
	clear(d.response)
}
