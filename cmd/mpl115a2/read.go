package main

import (
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/barometer/cmd/mpl115a2/console"
	"github.com/mklimuk/barometer/report"
)

var readCmd = cli.Command{
	Name:    "read",
	Aliases: []string{"rd"},
	Usage:   "run one acquisition and print the compensated pressure",
	Flags:   sensorFlags,
	Action: func(c *cli.Context) error {
		s, err := newSession(c)
		if err != nil {
			return err
		}
		defer s.finish()
		r, err := s.acquire()
		if err != nil {
			slog.Error("acquisition failed", "error", err)
			return acquisitionExit("read pressure", err)
		}
		if err := report.Write(c.App.Writer, s.format, r); err != nil {
			return console.Exit(console.CodeFailure, "output error: %s", console.Red(err))
		}
		return nil
	},
}

var coefficientsCmd = cli.Command{
	Name:    "coefficients",
	Aliases: []string{"coef"},
	Usage:   "read and print the factory calibration coefficients",
	Flags:   sensorFlags,
	Action: func(c *cli.Context) error {
		s, err := newSession(c)
		if err != nil {
			return err
		}
		defer s.finish()
		coef, err := s.dev.Coefficients(s.ctx)
		if err != nil {
			s.collector.ObserveFailure(err)
			slog.Error("coefficient read failed", "error", err)
			return acquisitionExit("read coefficients", err)
		}
		if err := report.WriteCoefficients(c.App.Writer, s.format, coef); err != nil {
			return console.Exit(console.CodeFailure, "output error: %s", console.Red(err))
		}
		return nil
	},
}
