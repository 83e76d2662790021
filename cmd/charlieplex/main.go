package main

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/coreman2200/funtimes-charlieplex/internal/config"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

type rootOpts struct {
	configPath string
	logLevel   string
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &rootOpts{}
	root := &cobra.Command{
		Use:          "charlieplex",
		Short:        "Drive a 12x8 charlieplexed LED matrix",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			setupLogging(cmd.ErrOrStderr(), opts.logLevel)
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&opts.configPath, "config", "config.yaml", "path to config.yaml")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (overrides config)")

	root.AddCommand(newRunCmd(opts), newWiringCmd(), newCaptureCmd())
	return root
}

func setupLogging(w io.Writer, level string) {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen})
	if level == "" {
		return
	}
	if l, err := zerolog.ParseLevel(level); err == nil {
		zerolog.SetGlobalLevel(l)
	} else {
		log.Warn().Str("level", level).Msg("unknown log level")
	}
}

// loadConfig falls back to defaults when the file does not exist, so the
// binary runs out of the box in sim mode.
func loadConfig(path string) (*config.Config, error) {
	c, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn().Str("path", path).Msg("config not found; using defaults")
		return config.Default(), nil
	}
	return c, err
}
