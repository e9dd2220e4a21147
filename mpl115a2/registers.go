package mpl115a2

import "errors"

// Register map.
const (
	regPADC    byte = 0x00
	regCoeffA0 byte = 0x04
	regConvert byte = 0x12
)

const (
	measurementSize = 4
	coefficientSize = 12
)

// RegisterBlock mirrors the 16 bytes starting at register 0x00: four
// measurement bytes (Padc MSB/LSB, Tadc MSB/LSB), eight coefficient bytes
// (a0, b1, b2, c12) and four padding bytes that must read as zero.
type RegisterBlock [16]byte

func (b *RegisterBlock) measurement() []byte {
	return b[0:measurementSize]
}

func (b *RegisterBlock) coefficients() []byte {
	return b[measurementSize : measurementSize+coefficientSize]
}

func (b *RegisterBlock) padding() []byte {
	return b[12:16]
}

// ValidateCoefficients fails with PaddingNonZero when any of bytes 12-15 is
// set.
func ValidateCoefficients(b *RegisterBlock) error {
	for _, v := range b.padding() {
		if v != 0 {
			pad := make([]byte, 4)
			copy(pad, b.padding())
			return &FaultError{Kind: PaddingNonZero, Field: "coefficient padding", Bytes: pad}
		}
	}
	return nil
}

// ValidateMeasurement checks both ADC pairs for saturation. Each pair is
// checked even when the other already failed and all faults are joined.
func ValidateMeasurement(b *RegisterBlock) error {
	return errors.Join(
		validatePair("padc", b[0], b[1]),
		validatePair("tadc", b[2], b[3]),
	)
}

func validatePair(field string, msb, lsb byte) error {
	switch {
	case msb == 0x00 && lsb == 0x00:
		return &FaultError{Kind: SaturatedLow, Field: field, Bytes: []byte{msb, lsb}}
	case msb == 0xFF && lsb == 0xFF:
		return &FaultError{Kind: SaturatedHigh, Field: field, Bytes: []byte{msb, lsb}}
	}
	return nil
}

// Coefficients are the factory calibration constants.
type Coefficients struct {
	A0  float64 `json:"a0" yaml:"a0"`
	B1  float64 `json:"b1" yaml:"b1"`
	B2  float64 `json:"b2" yaml:"b2"`
	C12 float64 `json:"c12" yaml:"c12"`
}

// Counts are the raw 10-bit ADC results.
type Counts struct {
	Pressure    uint16 `json:"padc" yaml:"padc"`
	Temperature uint16 `json:"tadc" yaml:"tadc"`
}

func decodeCoefficients(b *RegisterBlock) Coefficients {
	return Coefficients{
		A0:  LayoutA0.Decode(b[4], b[5]),
		B1:  LayoutB1.Decode(b[6], b[7]),
		B2:  LayoutB2.Decode(b[8], b[9]),
		C12: LayoutC12.Decode(b[10], b[11]),
	}
}

// adc10 extracts the left-justified 10-bit result of a register pair.
func adc10(msb, lsb byte) uint16 {
	return (uint16(msb)<<8 | uint16(lsb)) >> 6
}

func decodeCounts(b *RegisterBlock) Counts {
	return Counts{
		Pressure:    adc10(b[0], b[1]),
		Temperature: adc10(b[2], b[3]),
	}
}
