package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/xyproto/env/v2"
)

var (
	version = "dev"

	flagCode     string
	flagStdin    bool
	flagNoColor  bool
	flagLogLevel string
	flagMaxPages uint32
)

func main() {
	root := &cobra.Command{
		Use:     "luma",
		Short:   "The Luma compiler and runtime",
		Version: version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagNoColor || !isTerminalOutput() {
				color.NoColor = true
			}
			configureLogging()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flagCode, "code", "c", "", "Code to compile")
	pf.BoolVar(&flagStdin, "stdin", false, "Read code from stdin")
	pf.BoolVar(&flagNoColor, "no-color", env.Bool("NO_COLOR"), "Disable colored output")
	pf.StringVar(&flagLogLevel, "log-level", env.Str("LUMA_LOG_LEVEL", "warn"),
		"Log level (trace, debug, info, warn, error)")
	pf.Uint32Var(&flagMaxPages, "max-pages", uint32(env.Int("LUMA_MAX_PAGES", 0)),
		"Linear memory cap in 64 KiB pages")

	root.AddCommand(
		runCommand(),
		buildCommand(),
		disCommand(),
		tokensCommand(),
		checkCommand(),
	)

	if err := root.Execute(); err != nil {
		fatal(err)
	}
}

func configureLogging() {
	level, err := zerolog.ParseLevel(flagLogLevel)
	if err != nil {
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)
	logger = zerolog.New(zerolog.ConsoleWriter{
		Out:     os.Stderr,
		NoColor: color.NoColor,
	}).Level(level).With().Timestamp().Logger()
}

var logger zerolog.Logger
