package mpl115a2

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport matches every TransportError.
	ErrTransport = errors.New("mpl115a2: transport failure")
	// ErrFault matches every FaultError.
	ErrFault = errors.New("mpl115a2: sensor fault")
)

// TransportError reports a failed open, write, read or close of the bus
// handle. The transaction it belongs to is abandoned.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("mpl115a2: %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// FaultKind classifies register contents the sensor uses to signal a fault.
type FaultKind int

const (
	// PaddingNonZero means one of the trailing padding bytes of the
	// coefficient block was not zero.
	PaddingNonZero FaultKind = iota + 1
	// SaturatedLow means an ADC register pair read as 0x0000.
	SaturatedLow
	// SaturatedHigh means an ADC register pair read as 0xFFFF.
	SaturatedHigh
)

func (k FaultKind) String() string {
	switch k {
	case PaddingNonZero:
		return "padding non-zero"
	case SaturatedLow:
		return "saturated low"
	case SaturatedHigh:
		return "saturated high"
	default:
		return fmt.Sprintf("fault(%d)", int(k))
	}
}

// FaultError carries the offending register bytes for diagnostics.
type FaultError struct {
	Kind  FaultKind
	Field string
	Bytes []byte
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("mpl115a2: %s: %s (% x)", e.Field, e.Kind, e.Bytes)
}

func (e *FaultError) Is(target error) bool {
	return target == ErrFault
}
