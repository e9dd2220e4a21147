package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/barometer/adapter"
	"github.com/mklimuk/barometer/cmd/mpl115a2/console"
	"github.com/mklimuk/barometer/snsctx"
)

var indexFlag = &cli.IntFlag{
	Name:  "index",
	Usage: "bridge to use when several are attached",
	Value: -1,
}

var mcp2221Cmd = cli.Command{
	Name:  "mcp2221",
	Usage: "inspect the MCP2221 USB bridge",
	Subcommands: cli.Commands{
		&mcp2221StatusCmd,
		&mcp2221ReleaseCmd,
		&mcp2221DetectCmd,
	},
}

func newBridge(c *cli.Context) *adapter.MCP2221 {
	if c.IsSet("index") {
		return adapter.NewMCP2221(adapter.WithDeviceIndex(c.Int("index")))
	}
	return adapter.NewMCP2221()
}

var mcp2221StatusCmd = cli.Command{
	Name:  "status",
	Flags: []cli.Flag{indexFlag},
	Action: func(c *cli.Context) error {
		ctx := snsctx.SetVerbose(c.Context, c.Bool("verbose"))
		status, err := newBridge(c).Status(ctx)
		if err != nil {
			return console.Exit(console.CodeFailure, "adapter communication error: %s", console.Red(err))
		}
		if err := yaml.NewEncoder(c.App.Writer).Encode(status); err != nil {
			return console.Exit(console.CodeFailure, "encoding error: %s", console.Red(err))
		}
		return nil
	},
}

var mcp2221ReleaseCmd = cli.Command{
	Name:  "release",
	Usage: "cancel the current transfer and free the I2C bus",
	Flags: []cli.Flag{
		indexFlag,
		&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "do not ask for confirmation"},
	},
	Action: func(c *cli.Context) error {
		if !c.Bool("yes") {
			ok, err := console.Confirm("cancel the current I2C transfer?")
			if err != nil {
				return console.Exit(console.CodeUsage, "prompt error: %s", console.Red(err))
			}
			if !ok {
				console.Info("aborted")
				return nil
			}
		}
		ctx := snsctx.SetVerbose(c.Context, c.Bool("verbose"))
		status, err := newBridge(c).ReleaseBus(ctx)
		if err != nil {
			return console.Exit(console.CodeFailure, "adapter communication error: %s", console.Red(err))
		}
		if err := yaml.NewEncoder(c.App.Writer).Encode(status); err != nil {
			return console.Exit(console.CodeFailure, "encoding error: %s", console.Red(err))
		}
		return nil
	},
}

var mcp2221DetectCmd = cli.Command{
	Name:  "detect",
	Usage: "list attached bridges",
	Action: func(c *cli.Context) error {
		devices := adapter.Detect()
		if len(devices) == 0 {
			return console.Exit(console.CodeFailure, "%s", console.Red(adapter.ErrDeviceNotFound))
		}
		w := tabwriter.NewWriter(c.App.Writer, 8, 0, 2, ' ', 0)
		_, _ = fmt.Fprintf(w, "INDEX\tPATH\tSERIAL\tVENDOR\tPRODUCT\n")
		for i, dev := range devices {
			_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%#x\t%#x\n", i, dev.Path, dev.Serial, dev.VendorID, dev.ProductID)
		}
		return w.Flush()
	},
}
