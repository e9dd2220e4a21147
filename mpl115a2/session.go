package mpl115a2

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/mklimuk/barometer"
	"github.com/mklimuk/barometer/snsctx"
)

// Session runs the bus transactions of one acquisition cycle. Every
// transaction opens its own handle and closes it on all exit paths.
type Session struct {
	opener  barometer.Opener
	address byte
	settle  time.Duration
	sleep   func(time.Duration)
	block   RegisterBlock
}

// NewSession prepares a session for the device at address.
func NewSession(opener barometer.Opener, address byte, settle time.Duration) *Session {
	return &Session{
		opener:  opener,
		address: address,
		settle:  settle,
		sleep:   time.Sleep,
	}
}

// Registers returns a copy of the register block as read so far.
func (s *Session) Registers() RegisterBlock {
	return s.block
}

// FetchCoefficients reads registers 0x04-0x0F and decodes the calibration
// coefficients.
func (s *Session) FetchCoefficients(ctx context.Context) (Coefficients, error) {
	err := s.transact(ctx, func(h barometer.Handle) error {
		if err := h.Write(ctx, []byte{regCoeffA0}); err != nil {
			return &TransportError{Op: "coefficient register select", Err: err}
		}
		if err := h.Read(ctx, s.block.coefficients()); err != nil {
			return &TransportError{Op: "coefficient read", Err: err}
		}
		return nil
	})
	if err != nil {
		return Coefficients{}, err
	}
	if snsctx.IsVerbose(ctx) {
		snsctx.Logger(ctx).DebugContext(ctx, "mpl115a2 coefficient registers", "bytes", hex.EncodeToString(s.block.coefficients()))
	}
	if err := ValidateCoefficients(&s.block); err != nil {
		return Coefficients{}, err
	}
	return decodeCoefficients(&s.block), nil
}

// FetchMeasurement starts a conversion, waits for it to settle and reads the
// raw pressure and temperature counts. The settle wait is not cancellable.
func (s *Session) FetchMeasurement(ctx context.Context) (Counts, error) {
	err := s.transact(ctx, func(h barometer.Handle) error {
		if err := h.Write(ctx, []byte{regConvert, 0x00}); err != nil {
			return &TransportError{Op: "start conversion", Err: err}
		}
		s.sleep(s.settle)
		if err := h.Write(ctx, []byte{regPADC}); err != nil {
			return &TransportError{Op: "measurement register select", Err: err}
		}
		if err := h.Read(ctx, s.block.measurement()); err != nil {
			return &TransportError{Op: "measurement read", Err: err}
		}
		return nil
	})
	if err != nil {
		return Counts{}, err
	}
	if snsctx.IsVerbose(ctx) {
		snsctx.Logger(ctx).DebugContext(ctx, "mpl115a2 measurement registers", "bytes", hex.EncodeToString(s.block.measurement()))
	}
	if err := ValidateMeasurement(&s.block); err != nil {
		return Counts{}, err
	}
	return decodeCounts(&s.block), nil
}

func (s *Session) transact(ctx context.Context, fn func(h barometer.Handle) error) (err error) {
	h, err := s.opener.Open(ctx, s.address)
	if err != nil {
		return &TransportError{Op: "open", Err: err}
	}
	defer func() {
		cerr := h.Close(ctx)
		if cerr != nil && err == nil {
			err = &TransportError{Op: "close", Err: cerr}
		}
	}()
	return fn(h)
}
