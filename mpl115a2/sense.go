package mpl115a2

import (
	"context"
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/physic"
)

var _ physic.SenseEnv = &Dev{}

var ErrContinuousUnsupported = errors.New("mpl115a2: continuous sensing is not supported")

// Sense runs one acquisition and fills e.Pressure. Temperature and humidity
// are not measured and are left untouched.
func (d *Dev) Sense(e *physic.Env) error {
	r, err := d.Acquire(context.Background())
	if err != nil {
		return err
	}
	e.Pressure = r.PhysicPressure()
	return nil
}

func (d *Dev) SenseContinuous(interval time.Duration) (<-chan physic.Env, error) {
	return nil, ErrContinuousUnsupported
}

// Precision reports one ADC count of pressure.
func (d *Dev) Precision(e *physic.Env) {
	e.Pressure = 65 * physic.KiloPascal / 1023
}

func (d *Dev) String() string {
	return fmt.Sprintf("MPL115A2{%#x}", d.config.Address)
}

func (d *Dev) Halt() error {
	return nil
}
