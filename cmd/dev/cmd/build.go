package cmd

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/gophertribe/devtool/build"
	"github.com/spf13/cobra"
)

const (
	binary        = "dist/mpl115a2"
	mainPackage   = "./cmd/mpl115a2"
	configPackage = "github.com/mklimuk/barometer/config"
	builderImage  = "gophertribe/gobuild:1.25-bookworm"
)

// targets maps board names to GOOS/GOARCH pairs.
var targets = map[string][2]string{
	"rpi":    {"linux", "arm64"},
	"nanopi": {"linux", "arm"},
}

func BuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the mpl115a2 binary",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			version, _ := flags.GetString("version")
			goos, _ := flags.GetString("os")
			goarch, _ := flags.GetString("arch")
			if board, _ := flags.GetString("board"); board != "" {
				t, ok := targets[board]
				if !ok {
					return fmt.Errorf("unknown board %q", board)
				}
				goos, goarch = t[0], t[1]
			}

			crossOS, _ := flags.GetString("cross-os")
			crossArch, _ := flags.GetString("cross-arch")
			if crossOS != "" && crossArch != "" {
				goos, goarch = crossOS, crossArch
			} else if goos != runtime.GOOS || goarch != runtime.GOARCH {
				// hid needs cgo, so foreign targets are built inside the builder image
				noCache, _ := flags.GetBool("no-cache")
				slog.Info("building in docker", "os", goos, "arch", goarch)
				return build.Docker(cmd.Context(), fmt.Sprintf("./dev-%s-%s", goos, goarch),
					[]string{"build", "--version", version, "--cross-os", goos, "--cross-arch", goarch},
					build.DockerBuildOpts{NoCache: noCache, Image: builderImage})
			}
			slog.Info("building", "binary", binary, "version", version, "os", goos, "arch", goarch)
			return build.GoBuild(binary, mainPackage, build.GoBuildOpts{
				Version:       version,
				InjectVersion: true,
				ConfigPackage: configPackage,
				EnableCgo:     true,
				OS:            goos,
				Arch:          goarch,
			})
		},
	}
	cmd.Flags().String("version", "latest", "version injected into the binary")
	cmd.Flags().String("os", runtime.GOOS, "target os")
	cmd.Flags().String("arch", runtime.GOARCH, "target arch")
	cmd.Flags().String("board", "", "target board (rpi, nanopi)")
	cmd.Flags().Bool("no-cache", false, "do not use the docker build cache")
	cmd.Flags().String("cross-os", "", "os to cross-compile for inside the builder image")
	cmd.Flags().String("cross-arch", "", "arch to cross-compile for inside the builder image")
	_ = cmd.Flags().MarkHidden("cross-os")
	_ = cmd.Flags().MarkHidden("cross-arch")
	return cmd
}
