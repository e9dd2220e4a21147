package mpl115a2

// Layout describes how a coefficient is packed into a 16-bit register pair.
type Layout struct {
	TotalBits      uint8
	FractionalBits uint8
	ZeroPadBits    uint8
}

// Coefficient layouts from the MPL115A2 datasheet, table 4.
var (
	LayoutA0  = Layout{TotalBits: 16, FractionalBits: 3}
	LayoutB1  = Layout{TotalBits: 16, FractionalBits: 13}
	LayoutB2  = Layout{TotalBits: 16, FractionalBits: 14}
	LayoutC12 = Layout{TotalBits: 14, FractionalBits: 13, ZeroPadBits: 9}
)

// Shift returns the power of two the raw magnitude is divided by.
func (l Layout) Shift() uint {
	return uint(16-int(l.TotalBits)) + uint(l.FractionalBits) + uint(l.ZeroPadBits)
}

// Decode converts a big-endian two's complement register pair into a real
// coefficient.
func Decode(msb, lsb byte, totalBits, fractionalBits, zeroPadBits uint8) float64 {
	return Layout{
		TotalBits:      totalBits,
		FractionalBits: fractionalBits,
		ZeroPadBits:    zeroPadBits,
	}.Decode(msb, lsb)
}

// Decode converts a big-endian register pair to its real value.
func (l Layout) Decode(msb, lsb byte) float64 {
	word := uint16(msb)<<8 | uint16(lsb)
	sign := 1.0
	if msb&0x80 != 0 {
		word = ^word + 1
		sign = -1.0
	}
	// 0x8000 stays 0x8000 after negation; read as unsigned it is the
	// correct magnitude.
	return sign * float64(word) / float64(uint64(1)<<l.Shift())
}
