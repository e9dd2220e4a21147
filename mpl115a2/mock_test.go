package mpl115a2

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/mklimuk/barometer"
	"github.com/mklimuk/barometer/retry"
)

// MockI2CBus is a mock implementation of barometer.I2CBus using testify/mock
type MockI2CBus struct {
	mock.Mock
}

func (m *MockI2CBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	return args.Error(0)
}

func (m *MockI2CBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	if data, ok := args.Get(0).([]byte); ok && len(data) <= len(buffer) {
		copy(buffer, data)
	}
	return args.Error(1)
}

func (m *MockI2CBus) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

var (
	coefficientBytes = []byte{0x3e, 0xce, 0xb3, 0xf9, 0xc5, 0x17, 0x33, 0xc8, 0x00, 0x00, 0x00, 0x00}
	measurementBytes = []byte{0x66, 0x80, 0x7e, 0xc0}
)

func bufLen(n int) interface{} {
	return mock.MatchedBy(func(b []byte) bool { return len(b) == n })
}

func expectCoefficients(bus *MockI2CBus, data []byte, readErr error) {
	bus.On("WriteToAddr", mock.Anything, byte(DefaultAddress), []byte{0x04}).Return(nil).Once()
	bus.On("ReadFromAddr", mock.Anything, byte(DefaultAddress), bufLen(12)).Return(data, readErr).Once()
	bus.On("Release", mock.Anything).Return(nil).Once()
}

func expectMeasurement(bus *MockI2CBus, data []byte, readErr error) {
	bus.On("WriteToAddr", mock.Anything, byte(DefaultAddress), []byte{0x12, 0x00}).Return(nil).Once()
	bus.On("WriteToAddr", mock.Anything, byte(DefaultAddress), []byte{0x00}).Return(nil).Once()
	bus.On("ReadFromAddr", mock.Anything, byte(DefaultAddress), bufLen(4)).Return(data, readErr).Once()
	bus.On("Release", mock.Anything).Return(nil).Once()
}

type sleepRecorder struct {
	settles  []time.Duration
	backoffs []time.Duration
	retries  []string
}

func (r *sleepRecorder) settle(d time.Duration) {
	r.settles = append(r.settles, d)
}

func (r *sleepRecorder) policy() retry.Policy {
	p := retry.Default()
	p.Sleep = func(ctx context.Context, d time.Duration) error {
		r.backoffs = append(r.backoffs, d)
		return nil
	}
	p.OnRetry = func(op string, n int, err error) {
		r.retries = append(r.retries, op)
	}
	return p
}

func newTestDev(bus barometer.I2CBus, rec *sleepRecorder, opts ...Opt) *Dev {
	d := New(barometer.Addressed(bus), append([]Opt{WithRetryPolicy(rec.policy())}, opts...)...)
	d.sleep = rec.settle
	return d
}
