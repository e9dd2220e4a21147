package mpl115a2

import "periph.io/x/conn/v3/physic"

// Reading is the outcome of one acquisition cycle. Pressure is in kPa; the
// remaining terms are the intermediate steps of the compensation.
type Reading struct {
	Coefficients
	Counts

	C12x2    float64
	A1       float64
	A1x1     float64
	Y1       float64
	A2x2     float64
	PComp    float64
	Pressure float64
}

// HectoPascal returns the compensated pressure in hPa.
func (r Reading) HectoPascal() float64 {
	return r.Pressure * 10
}

// PhysicPressure returns the compensated pressure as a periph quantity.
func (r Reading) PhysicPressure() physic.Pressure {
	return physic.Pressure(r.Pressure * float64(physic.KiloPascal))
}

// Compensate applies the datasheet pressure compensation:
//
//	Pcomp = a0 + (b1 + c12*Tadc)*Padc + b2*Tadc
//	Pressure = Pcomp*65/1023 + 50
//
// The explicit conversions round every step and keep the compiler from
// fusing multiply-adds, so results match the reference arithmetic exactly.
func Compensate(c Coefficients, n Counts) Reading {
	padc := float64(n.Pressure)
	tadc := float64(n.Temperature)

	r := Reading{Coefficients: c, Counts: n}
	r.C12x2 = float64(c.C12 * tadc)
	r.A1 = float64(c.B1 + r.C12x2)
	r.A1x1 = float64(r.A1 * padc)
	r.Y1 = float64(c.A0 + r.A1x1)
	r.A2x2 = float64(c.B2 * tadc)
	r.PComp = float64(r.Y1 + r.A2x2)
	r.Pressure = float64(r.PComp*65)/1023 + 50
	return r
}
