package mpl115a2

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/barometer"
)

func newTestSession(bus *MockI2CBus, rec *sleepRecorder) *Session {
	s := NewSession(barometer.Addressed(bus), DefaultAddress, 2*time.Millisecond)
	s.sleep = rec.settle
	return s
}

func TestSession_FetchCoefficients(t *testing.T) {
	bus := &MockI2CBus{}
	expectCoefficients(bus, coefficientBytes, nil)
	s := newTestSession(bus, &sleepRecorder{})

	c, err := s.FetchCoefficients(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2009.75, c.A0)
	assert.Equal(t, -2.3758544921875, c.B1)
	assert.Equal(t, -0.92047119140625, c.B2)
	assert.Equal(t, 0.0007901191711425781, c.C12)

	regs := s.Registers()
	assert.Equal(t, coefficientBytes, regs[4:16])
	bus.AssertExpectations(t)
}

func TestSession_FetchCoefficients_PaddingFault(t *testing.T) {
	bus := &MockI2CBus{}
	bad := append([]byte{}, coefficientBytes...)
	bad[11] = 0x01
	expectCoefficients(bus, bad, nil)
	s := newTestSession(bus, &sleepRecorder{})

	_, err := s.FetchCoefficients(context.Background())
	var fault *FaultError
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, PaddingNonZero, fault.Kind)
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x01}, fault.Bytes)
	bus.AssertExpectations(t)
}

func TestSession_FetchMeasurement(t *testing.T) {
	bus := &MockI2CBus{}
	expectMeasurement(bus, measurementBytes, nil)
	rec := &sleepRecorder{}
	s := newTestSession(bus, rec)

	n, err := s.FetchMeasurement(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Counts{Pressure: 410, Temperature: 507}, n)
	assert.Equal(t, []time.Duration{2 * time.Millisecond}, rec.settles)
	bus.AssertExpectations(t)
}

func TestSession_FetchMeasurement_Saturated(t *testing.T) {
	bus := &MockI2CBus{}
	expectMeasurement(bus, []byte{0xff, 0xff, 0x00, 0x00}, nil)
	s := newTestSession(bus, &sleepRecorder{})

	_, err := s.FetchMeasurement(context.Background())
	assert.ErrorIs(t, err, ErrFault)
	assert.NotErrorIs(t, err, ErrTransport)
	assert.Contains(t, err.Error(), "padc: saturated high")
	assert.Contains(t, err.Error(), "tadc: saturated low")
	bus.AssertExpectations(t)
}

func TestSession_TransportErrors(t *testing.T) {
	nack := errors.New("nack")
	tests := []struct {
		name  string
		setup func(bus *MockI2CBus)
		fetch func(s *Session) error
		op    string
	}{
		{
			name: "coefficient select",
			setup: func(bus *MockI2CBus) {
				bus.On("WriteToAddr", mock.Anything, byte(DefaultAddress), []byte{0x04}).Return(nack).Once()
				bus.On("Release", mock.Anything).Return(nil).Once()
			},
			fetch: func(s *Session) error { _, err := s.FetchCoefficients(context.Background()); return err },
			op:    "coefficient register select",
		},
		{
			name: "coefficient read",
			setup: func(bus *MockI2CBus) {
				expectCoefficients(bus, nil, nack)
			},
			fetch: func(s *Session) error { _, err := s.FetchCoefficients(context.Background()); return err },
			op:    "coefficient read",
		},
		{
			name: "start conversion",
			setup: func(bus *MockI2CBus) {
				bus.On("WriteToAddr", mock.Anything, byte(DefaultAddress), []byte{0x12, 0x00}).Return(nack).Once()
				bus.On("Release", mock.Anything).Return(nil).Once()
			},
			fetch: func(s *Session) error { _, err := s.FetchMeasurement(context.Background()); return err },
			op:    "start conversion",
		},
		{
			name: "measurement read",
			setup: func(bus *MockI2CBus) {
				expectMeasurement(bus, nil, nack)
			},
			fetch: func(s *Session) error { _, err := s.FetchMeasurement(context.Background()); return err },
			op:    "measurement read",
		},
		{
			name: "release",
			setup: func(bus *MockI2CBus) {
				bus.On("WriteToAddr", mock.Anything, byte(DefaultAddress), []byte{0x04}).Return(nil).Once()
				bus.On("ReadFromAddr", mock.Anything, byte(DefaultAddress), bufLen(12)).Return(coefficientBytes, nil).Once()
				bus.On("Release", mock.Anything).Return(nack).Once()
			},
			fetch: func(s *Session) error { _, err := s.FetchCoefficients(context.Background()); return err },
			op:    "close",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := &MockI2CBus{}
			tt.setup(bus)
			err := tt.fetch(newTestSession(bus, &sleepRecorder{}))

			var terr *TransportError
			require.ErrorAs(t, err, &terr)
			assert.Equal(t, tt.op, terr.Op)
			assert.ErrorIs(t, err, ErrTransport)
			assert.ErrorIs(t, err, nack)
			bus.AssertExpectations(t)
		})
	}
}

type failingOpener struct {
	err error
}

func (o failingOpener) Open(ctx context.Context, address byte) (barometer.Handle, error) {
	return nil, o.err
}

func TestSession_OpenFailure(t *testing.T) {
	noBus := errors.New("no such device")
	s := NewSession(failingOpener{err: noBus}, DefaultAddress, DefaultSettleInterval)
	_, err := s.FetchMeasurement(context.Background())

	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "open", terr.Op)
	assert.ErrorIs(t, err, noBus)
	assert.Equal(t, "mpl115a2: open failed: no such device", err.Error())
}
