package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/barometer/cmd/mpl115a2/console"
	"github.com/mklimuk/barometer/report"
)

var publishCmd = cli.Command{
	Name:  "publish",
	Usage: "publish readings to an MQTT broker",
	Flags: append([]cli.Flag{
		&cli.StringFlag{
			Name:  "broker",
			Usage: "MQTT broker URL",
		},
		&cli.StringFlag{
			Name:  "topic",
			Usage: "MQTT topic",
		},
		&cli.DurationFlag{
			Name:  "interval",
			Usage: "publish repeatedly at this interval until interrupted; 0 publishes once",
		},
		&cli.StringFlag{
			Name:  "metrics-listen",
			Usage: "serve Prometheus metrics on this address while publishing",
		},
	}, sensorFlags...),
	Action: func(c *cli.Context) error {
		s, err := newSession(c)
		if err != nil {
			return err
		}
		defer s.finish()
		mq := s.cfg.MQTT
		if c.IsSet("broker") {
			mq.Broker = c.String("broker")
		}
		if c.IsSet("topic") {
			mq.Topic = c.String("topic")
		}

		client, err := report.Connect(mq.Broker, mq.ClientID, mq.Timeout)
		if err != nil {
			return console.Exit(console.CodeFailure, "%s", console.Red(err))
		}
		defer client.Disconnect(250)
		pub := report.NewPublisher(client, mq.Topic, report.WithQoS(mq.QoS), report.WithRetained(mq.Retained))

		ctx, stop := signal.NotifyContext(s.ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		s.ctx = ctx

		if addr := c.String("metrics-listen"); addr != "" {
			srv := &http.Server{Addr: addr, Handler: s.collector.Handler(), ReadHeaderTimeout: 5 * time.Second}
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					slog.Error("metrics server failed", "error", err)
				}
			}()
			defer func() { _ = srv.Close() }()
		}

		publishOnce := func() error {
			r, err := s.acquire()
			if err != nil {
				slog.Error("acquisition failed", "error", err)
				return acquisitionExit("read pressure", err)
			}
			pctx, cancel := context.WithTimeout(ctx, mq.Timeout)
			defer cancel()
			if err := pub.Publish(pctx, r); err != nil {
				return console.Exit(console.CodeFailure, "%s", console.Red(err))
			}
			slog.Info("reading published", "topic", mq.Topic, "hPa", r.HectoPascal())
			s.writeMetrics()
			return nil
		}

		interval := c.Duration("interval")
		if interval <= 0 {
			return publishOnce()
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			if err := publishOnce(); err != nil {
				console.Errorf("%s", err)
			}
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	},
}
