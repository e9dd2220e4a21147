// Package mpl115a2 drives the NXP MPL115A2 digital barometer over I2C.
//
// See: https://www.nxp.com/docs/en/data-sheet/MPL115A2.pdf
//
// Usage:
//
//	dev := mpl115a2.New(barometer.Addressed(bus))
//	r, err := dev.Acquire(ctx)
//	fmt.Printf("%.1f hPa\n", r.HectoPascal())
package mpl115a2

import (
	"context"
	"fmt"
	"time"

	"github.com/mklimuk/barometer"
	"github.com/mklimuk/barometer/retry"
)

const DefaultAddress = 0x60

// DefaultSettleInterval is the conversion time. The datasheet gives
// 1.6 ms typical and 3 ms maximum.
const DefaultSettleInterval = 3 * time.Millisecond

// ErrRetriesExhausted is matched by acquisition failures that outlived the
// retry budget.
var ErrRetriesExhausted = retry.ErrExhausted

type Opts struct {
	Address        byte
	SettleInterval time.Duration
	Retry          retry.Policy
}

type Opt func(*Opts)

func WithAddress(address byte) Opt {
	return func(o *Opts) {
		o.Address = address
	}
}

func WithSettleInterval(d time.Duration) Opt {
	return func(o *Opts) {
		o.SettleInterval = d
	}
}

// WithRetryPolicy replaces the policy applied to the coefficient fetch and,
// independently, to the measurement fetch.
func WithRetryPolicy(p retry.Policy) Opt {
	return func(o *Opts) {
		o.Retry = p
	}
}

// Dev represents an MPL115A2 on a bus. It keeps no state between cycles.
type Dev struct {
	opener barometer.Opener
	config Opts
	sleep  func(time.Duration)
}

func New(opener barometer.Opener, opts ...Opt) *Dev {
	config := Opts{
		Address:        DefaultAddress,
		SettleInterval: DefaultSettleInterval,
		Retry:          retry.Default(),
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &Dev{
		opener: opener,
		config: config,
		sleep:  time.Sleep,
	}
}

func (d *Dev) Config() Opts {
	return d.config
}

func (d *Dev) newSession() *Session {
	s := NewSession(d.opener, d.config.Address, d.config.SettleInterval)
	s.sleep = d.sleep
	return s
}

// Acquire runs one full cycle: coefficients, measurement, compensation.
// Either fetch is retried on its own budget; no reading is returned unless
// both succeed.
func (d *Dev) Acquire(ctx context.Context) (Reading, error) {
	s := d.newSession()
	coeffs, err := retry.Do(ctx, d.config.Retry, "fetch coefficients", s.FetchCoefficients)
	if err != nil {
		return Reading{}, fmt.Errorf("mpl115a2: could not get coefficients: %w", err)
	}
	counts, err := retry.Do(ctx, d.config.Retry, "measure", s.FetchMeasurement)
	if err != nil {
		return Reading{}, fmt.Errorf("mpl115a2: could not measure: %w", err)
	}
	return Compensate(coeffs, counts), nil
}

// Coefficients reads and decodes only the calibration coefficients.
func (d *Dev) Coefficients(ctx context.Context) (Coefficients, error) {
	coeffs, err := retry.Do(ctx, d.config.Retry, "fetch coefficients", d.newSession().FetchCoefficients)
	if err != nil {
		return Coefficients{}, fmt.Errorf("mpl115a2: could not get coefficients: %w", err)
	}
	return coeffs, nil
}
