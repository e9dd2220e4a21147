package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	chlog "github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/barometer/cmd/mpl115a2/console"
	"github.com/mklimuk/barometer/config"
)

var version string
var commit string
var date string

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	app := newApp()
	err := app.Run(args)
	if err != nil {
		var exerr cli.ExitCoder
		if errors.As(err, &exerr) {
			console.Error(exerr.Error())
			return exerr.ExitCode()
		}
		console.Error(err.Error())
		return console.CodeUsage
	}
	return 0
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "mpl115a2"
	app.EnableBashCompletion = true
	if version == "" {
		version = config.Version
	}
	app.Version = fmt.Sprintf("%s-%s-%s", version, date, commit)
	app.Usage = "read barometric pressure from an MPL115A2 sensor"
	// exit codes are resolved by run
	app.ExitErrHandler = func(*cli.Context, error) {}
	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "enable verbose logging and register dumps",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "path to a YAML configuration file",
			EnvVars: []string{"MPL115A2_CONFIG"},
		},
	}
	app.Before = func(ctx *cli.Context) error {
		charm := chlog.NewWithOptions(os.Stderr, chlog.Options{
			ReportCaller:    true,
			ReportTimestamp: true,
			TimeFormat:      time.DateTime,
		})
		charm.SetColorProfile(termenv.TrueColor)
		charm.SetLevel(chlog.InfoLevel)
		if ctx.Bool("verbose") {
			charm.SetLevel(chlog.DebugLevel)
		}
		slog.SetDefault(slog.New(charm))
		return nil
	}
	app.Commands = cli.Commands{
		&readCmd,
		&coefficientsCmd,
		&publishCmd,
		&mcp2221Cmd,
	}
	return app
}
