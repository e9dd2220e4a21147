package adapter

import (
	"context"
	"fmt"
	"sync"

	"github.com/mklimuk/barometer"
)

var _ barometer.I2CBus = &Simulator{}

// CountsFunc produces the raw 10-bit pressure and temperature counts of the
// next conversion.
type CountsFunc func(ctx context.Context) (padc, tadc uint16, err error)

// WordsFunc produces the raw pressure and temperature register words of the
// next conversion, including the six low bits a healthy part leaves zero.
type WordsFunc func(ctx context.Context) (pressure, temperature uint16, err error)

// StaticCounts always converts to the same counts.
func StaticCounts(padc, tadc uint16) CountsFunc {
	return func(context.Context) (uint16, uint16, error) {
		return padc, tadc, nil
	}
}

// DefaultSimulatedCoefficients is a factory calibration block of a real part.
var DefaultSimulatedCoefficients = [12]byte{0x3e, 0xce, 0xb3, 0xf9, 0xc5, 0x17, 0x33, 0xc8, 0x00, 0x00, 0x00, 0x00}

const (
	simRegCount  = 0x10
	simConvert   = 0x12
	simCoeffBase = 0x04
)

// Simulator emulates an MPL115A2 register file so the tool can run without
// hardware.
type Simulator struct {
	mx      sync.Mutex
	address byte
	regs    [simRegCount]byte
	pointer byte
	words   WordsFunc
}

type SimulatorOpt func(*Simulator)

func WithSimulatedCoefficients(raw [12]byte) SimulatorOpt {
	return func(s *Simulator) {
		copy(s.regs[simCoeffBase:], raw[:])
	}
}

func WithSimulatedCounts(f CountsFunc) SimulatorOpt {
	return func(s *Simulator) {
		s.words = func(ctx context.Context) (uint16, uint16, error) {
			padc, tadc, err := f(ctx)
			return padc << 6, tadc << 6, err
		}
	}
}

// WithSimulatedWords bypasses the 10-bit counts so faulty register contents,
// such as saturated words, can be produced.
func WithSimulatedWords(f WordsFunc) SimulatorOpt {
	return func(s *Simulator) {
		s.words = f
	}
}

func NewSimulator(address byte, opts ...SimulatorOpt) *Simulator {
	s := &Simulator{address: address}
	WithSimulatedCounts(StaticCounts(410, 507))(s)
	copy(s.regs[simCoeffBase:], DefaultSimulatedCoefficients[:])
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	if address != s.address {
		return fmt.Errorf("sim: no device at %#02x", address)
	}
	if len(buffer) == 0 {
		return fmt.Errorf("sim: empty write")
	}
	s.mx.Lock()
	defer s.mx.Unlock()
	if buffer[0] == simConvert {
		pw, tw, err := s.words(ctx)
		if err != nil {
			return fmt.Errorf("sim: conversion failed: %w", err)
		}
		s.regs[0], s.regs[1] = byte(pw>>8), byte(pw)
		s.regs[2], s.regs[3] = byte(tw>>8), byte(tw)
		return nil
	}
	if buffer[0] >= simRegCount {
		return fmt.Errorf("sim: invalid register %#02x", buffer[0])
	}
	s.pointer = buffer[0]
	return nil
}

func (s *Simulator) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	if address != s.address {
		return fmt.Errorf("sim: no device at %#02x", address)
	}
	s.mx.Lock()
	defer s.mx.Unlock()
	if int(s.pointer)+len(buffer) > simRegCount {
		return fmt.Errorf("sim: read of %d bytes at %#02x overruns the register file", len(buffer), s.pointer)
	}
	copy(buffer, s.regs[s.pointer:])
	return nil
}

func (s *Simulator) Release(ctx context.Context) error {
	return nil
}
