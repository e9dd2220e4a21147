package mpl115a2

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCoefficients(t *testing.T) {
	for i := 12; i < 16; i++ {
		for _, v := range []byte{0x01, 0x80, 0xff} {
			var b RegisterBlock
			b[i] = v
			err := ValidateCoefficients(&b)
			var fault *FaultError
			require.ErrorAs(t, err, &fault)
			assert.Equal(t, PaddingNonZero, fault.Kind)
			assert.ErrorIs(t, err, ErrFault)
		}
	}
	var b RegisterBlock
	copy(b[4:12], []byte{0x3e, 0xce, 0xb3, 0xf9, 0xc5, 0x17, 0x33, 0xc8})
	assert.NoError(t, ValidateCoefficients(&b))
}

func TestValidateMeasurement(t *testing.T) {
	tests := []struct {
		given    []byte
		expected []FaultKind
	}{
		{[]byte{0x66, 0x80, 0x7e, 0xc0}, nil},
		{[]byte{0x00, 0xff, 0xff, 0x00}, nil},
		{[]byte{0x00, 0x01, 0xfe, 0xff}, nil},
		{[]byte{0x00, 0x00, 0x7e, 0xc0}, []FaultKind{SaturatedLow}},
		{[]byte{0x66, 0x80, 0x00, 0x00}, []FaultKind{SaturatedLow}},
		{[]byte{0xff, 0xff, 0x7e, 0xc0}, []FaultKind{SaturatedHigh}},
		{[]byte{0x66, 0x80, 0xff, 0xff}, []FaultKind{SaturatedHigh}},
		{[]byte{0x00, 0x00, 0xff, 0xff}, []FaultKind{SaturatedLow, SaturatedHigh}},
		{[]byte{0xff, 0xff, 0x00, 0x00}, []FaultKind{SaturatedHigh, SaturatedLow}},
	}
	for _, test := range tests {
		t.Run(hex.EncodeToString(test.given), func(t *testing.T) {
			var b RegisterBlock
			copy(b[:], test.given)
			err := ValidateMeasurement(&b)
			if test.expected == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrFault)
			assert.Equal(t, test.expected, faultKinds(err))
		})
	}
}

func faultKinds(err error) []FaultKind {
	var kinds []FaultKind
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return nil
	}
	for _, e := range joined.Unwrap() {
		var fault *FaultError
		if errors.As(e, &fault) {
			kinds = append(kinds, fault.Kind)
		}
	}
	return kinds
}

func TestADC10(t *testing.T) {
	tests := []struct {
		given    []byte
		expected uint16
	}{
		{[]byte{0x66, 0x80}, 410},
		{[]byte{0x7e, 0xc0}, 507},
		{[]byte{0xff, 0xc0}, 1023},
		{[]byte{0x00, 0x40}, 1},
		{[]byte{0x00, 0x3f}, 0},
	}
	for _, test := range tests {
		t.Run(hex.EncodeToString(test.given), func(t *testing.T) {
			assert.Equal(t, test.expected, adc10(test.given[0], test.given[1]))
		})
	}
}

func TestFaultError_Message(t *testing.T) {
	err := &FaultError{Kind: SaturatedHigh, Field: "padc", Bytes: []byte{0xff, 0xff}}
	assert.Equal(t, "mpl115a2: padc: saturated high (ff ff)", err.Error())
	assert.Equal(t, "fault(9)", FaultKind(9).String())
}
