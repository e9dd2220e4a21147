package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"

	"github.com/mklimuk/barometer"
	"github.com/mklimuk/barometer/adapter"
	"github.com/mklimuk/barometer/cmd/mpl115a2/console"
	"github.com/mklimuk/barometer/config"
	"github.com/mklimuk/barometer/i2c"
	"github.com/mklimuk/barometer/metrics"
	"github.com/mklimuk/barometer/mpl115a2"
	"github.com/mklimuk/barometer/report"
	"github.com/mklimuk/barometer/retry"
	"github.com/mklimuk/barometer/snsctx"
)

// sensorFlags are shared by every command that talks to the sensor. Values
// given on the command line take precedence over the configuration file.
var sensorFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "adapter",
		Aliases: []string{"a"},
		Usage:   "bus adapter: periph, mcp2221, nanopi or sim",
	},
	&cli.StringFlag{
		Name:    "device",
		Aliases: []string{"d"},
		Usage:   "I2C device for the periph adapter",
	},
	&cli.IntFlag{
		Name:  "bus",
		Usage: "I2C bus number for the nanopi adapter",
	},
	&cli.UintFlag{
		Name:  "address",
		Usage: "sensor address",
	},
	&cli.DurationFlag{
		Name:  "settle",
		Usage: "wait between starting a conversion and reading it",
	},
	&cli.IntFlag{
		Name:  "retries",
		Usage: "retries per register operation",
	},
	&cli.DurationFlag{
		Name:  "backoff",
		Usage: "delay between retries",
	},
	&cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "output format: human (r), csv (c), json (j) or yaml (y)",
	},
	&cli.StringFlag{
		Name:  "metrics-file",
		Usage: "write Prometheus metrics to this textfile after the run",
	},
}

func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return cfg, err
		}
	}
	if c.IsSet("adapter") {
		cfg.Adapter = c.String("adapter")
	}
	if c.IsSet("device") {
		cfg.Device = c.String("device")
	}
	if c.IsSet("bus") {
		cfg.Bus = c.Int("bus")
	}
	if c.IsSet("address") {
		addr := c.Uint("address")
		if addr > 0x7f {
			return cfg, fmt.Errorf("invalid address %#x", addr)
		}
		cfg.Address = uint8(addr)
	}
	if c.IsSet("settle") {
		cfg.Settle = c.Duration("settle")
	}
	if c.IsSet("retries") {
		cfg.Retries = c.Int("retries")
	}
	if c.IsSet("backoff") {
		cfg.Backoff = c.Duration("backoff")
	}
	if c.IsSet("format") {
		cfg.Format = c.String("format")
	}
	if c.IsSet("metrics-file") {
		cfg.MetricsFile = c.String("metrics-file")
	}
	return cfg, cfg.Validate()
}

// session bundles everything a sensor command needs.
type session struct {
	cfg       config.Config
	format    report.Format
	dev       *mpl115a2.Dev
	collector *metrics.Collector
	ctx       context.Context
	close     func()
}

func newSession(c *cli.Context) (*session, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, console.Exit(console.CodeUsage, "configuration error: %s", console.Red(err))
	}
	format, err := report.ParseFormat(cfg.Format)
	if err != nil {
		return nil, console.Exit(console.CodeUsage, "%s", console.Red(err))
	}
	opener, closeFn, err := openBus(cfg)
	if err != nil {
		return nil, console.Exit(console.CodeFailure, "adapter initialization error: %s", console.Red(err))
	}
	collector := metrics.New()
	policy := retry.Default()
	policy.MaxRetries = cfg.Retries
	policy.Backoff = cfg.Backoff
	policy.OnRetry = collector.ObserveRetry

	dev := mpl115a2.New(opener,
		mpl115a2.WithAddress(cfg.Address),
		mpl115a2.WithSettleInterval(cfg.Settle),
		mpl115a2.WithRetryPolicy(policy),
	)
	ctx := snsctx.SetVerbose(c.Context, c.Bool("verbose"))
	return &session{
		cfg:       cfg,
		format:    format,
		dev:       dev,
		collector: collector,
		ctx:       ctx,
		close:     closeFn,
	}, nil
}

func (s *session) acquire() (mpl115a2.Reading, error) {
	r, err := s.dev.Acquire(s.ctx)
	if err != nil {
		s.collector.ObserveFailure(err)
		return r, err
	}
	s.collector.ObserveReading(r)
	return r, nil
}

func (s *session) writeMetrics() {
	if s.cfg.MetricsFile == "" {
		return
	}
	if err := s.collector.WriteTextfile(s.cfg.MetricsFile); err != nil {
		console.Warnf("could not write metrics to %s: %s", s.cfg.MetricsFile, err)
	}
}

func (s *session) finish() {
	s.writeMetrics()
	s.close()
}

func openBus(cfg config.Config) (barometer.Opener, func(), error) {
	switch cfg.Adapter {
	case config.AdapterPeriph:
		return i2c.NewGenericBus(cfg.Device), func() {}, nil
	case config.AdapterMCP2221:
		return barometer.Addressed(adapter.NewMCP2221()), func() {}, nil
	case config.AdapterSim:
		return barometer.Addressed(adapter.NewSimulator(cfg.Address)), func() {}, nil
	case config.AdapterNanoPi:
		npi := nanopi.NewNeoAdaptor()
		if err := npi.I2cBusAdaptor.Connect(); err != nil {
			return nil, nil, fmt.Errorf("adaptor connect error: %w", err)
		}
		return adapter.NewGobotBus(npi, cfg.Bus), func() {
			if err := npi.I2cBusAdaptor.Finalize(); err != nil {
				console.Warnf("error finalizing adaptor: %s", err)
			}
		}, nil
	}
	return nil, nil, fmt.Errorf("unknown adapter %q", cfg.Adapter)
}

func acquisitionExit(what string, err error) cli.ExitCoder {
	return console.Exit(console.CodeFailure, "could not %s: %s", what, console.Red(err))
}
