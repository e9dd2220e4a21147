package adapter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/barometer"
)

// fakeHID answers every request report with the next canned response.
type fakeHID struct {
	requests  [][]byte
	responses [][]byte
	closed    int
	writeErr  error
}

func (f *fakeHID) Write(b []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	f.requests = append(f.requests, append([]byte{}, b...))
	return len(b), nil
}

func (f *fakeHID) Read(b []byte) (int, error) {
	if len(f.responses) == 0 {
		return 0, errors.New("no response queued")
	}
	copy(b, f.responses[0])
	f.responses = f.responses[1:]
	return reportSize, nil
}

func (f *fakeHID) Close() error {
	f.closed++
	return nil
}

func report(b ...byte) []byte {
	r := make([]byte, reportSize)
	copy(r, b)
	return r
}

func newTestMCP2221(dev *fakeHID) *MCP2221 {
	m := NewMCP2221(WithResponseWait(0))
	m.open = func() (hidDevice, error) { return dev, nil }
	return m
}

func TestMCP2221_WriteToAddr(t *testing.T) {
	dev := &fakeHID{responses: [][]byte{report(cmdI2CWrite, 0x00)}}
	m := newTestMCP2221(dev)

	require.NoError(t, m.WriteToAddr(context.Background(), 0x60, []byte{0x12, 0x00}))
	require.Len(t, dev.requests, 1)
	assert.Equal(t, []byte{cmdI2CWrite, 0x02, 0x00, 0xc0, 0x12, 0x00}, dev.requests[0][:6])
	assert.Equal(t, 1, dev.closed)
}

func TestMCP2221_WriteBusy(t *testing.T) {
	dev := &fakeHID{responses: [][]byte{report(cmdI2CWrite, 0x01)}}
	err := newTestMCP2221(dev).WriteToAddr(context.Background(), 0x60, []byte{0x04})
	assert.ErrorIs(t, err, barometer.ErrBusBusy)
}

func TestMCP2221_ReadFromAddr(t *testing.T) {
	dev := &fakeHID{responses: [][]byte{
		report(cmdI2CRead, 0x00),
		report(cmdI2CGetData, 0x00, 0x00, 0x04, 0x66, 0x80, 0x7e, 0xc0),
	}}
	m := newTestMCP2221(dev)

	buf := make([]byte, 4)
	require.NoError(t, m.ReadFromAddr(context.Background(), 0x60, buf))
	assert.Equal(t, []byte{0x66, 0x80, 0x7e, 0xc0}, buf)
	require.Len(t, dev.requests, 2)
	assert.Equal(t, []byte{cmdI2CRead, 0x04, 0x00, 0xc1}, dev.requests[0][:4])
	assert.Equal(t, cmdI2CGetData, dev.requests[1][0])
}

func TestMCP2221_ReadErrors(t *testing.T) {
	tests := []struct {
		name      string
		responses [][]byte
		expected  string
	}{
		{"engine error", [][]byte{report(cmdI2CRead), report(cmdI2CGetData, 0x41)}, "I2C engine"},
		{"size mismatch", [][]byte{report(cmdI2CRead), report(cmdI2CGetData, 0x00, 0x00, 0x02)}, "invalid data size"},
		{"wrong echo", [][]byte{report(0x00)}, "echoes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := &fakeHID{responses: tt.responses}
			err := newTestMCP2221(dev).ReadFromAddr(context.Background(), 0x60, make([]byte, 4))
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.expected)
		})
	}
}

func TestMCP2221_TooLong(t *testing.T) {
	m := newTestMCP2221(&fakeHID{})
	assert.Error(t, m.WriteToAddr(context.Background(), 0x60, make([]byte, 61)))
	assert.Error(t, m.ReadFromAddr(context.Background(), 0x60, make([]byte, 61)))
}

func TestMCP2221_ReleaseBus(t *testing.T) {
	resp := report(cmdStatus)
	resp[9], resp[10] = 0x02, 0x00
	resp[11], resp[12] = 0x01, 0x00
	resp[13], resp[14], resp[15] = 3, 118, 9
	resp[16], resp[17] = 0xc0, 0x00
	resp[25] = 1
	dev := &fakeHID{responses: [][]byte{resp}}

	status, err := newTestMCP2221(dev).ReleaseBus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &MCP2221Status{
		I2CDataBufferCounter:   3,
		I2CSpeedDivider:        118,
		I2CTimeout:             9,
		CurrentAddress:         "c000",
		LastWriteRequestedSize: 2,
		LastWriteSentSize:      1,
		ReadPending:            1,
	}, status)
	assert.Equal(t, []byte{cmdStatus, 0x00, cmdCancel}, dev.requests[0][:3])
}

func TestMCP2221_OpenFailure(t *testing.T) {
	m := NewMCP2221(WithResponseWait(0))
	m.open = func() (hidDevice, error) { return nil, ErrDeviceNotFound }
	_, err := m.Status(context.Background())
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestMCP2221_WriteFailure(t *testing.T) {
	dev := &fakeHID{writeErr: errors.New("pipe")}
	err := newTestMCP2221(dev).WriteToAddr(context.Background(), 0x60, []byte{0x04})
	assert.ErrorContains(t, err, "could not write request")
	assert.Equal(t, 1, dev.closed)
}
