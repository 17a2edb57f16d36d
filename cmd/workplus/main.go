package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/workplus/workplus/internal/config"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

const appName = "workplus"

type flags struct {
	ConfigPath string
	LogLevel   string
	LogFile    string
	Config     *config.Config
}

func build() string {
	short := commit
	if len(commit) > 7 {
		short = commit[:7]
	}

	return fmt.Sprintf("%s (%s) %s", version, short, date)
}

func main() {
	if err := setupLogger("info", ""); err != nil {
		panic(err)
	}

	f := &flags{}

	app := &cli.Command{
		Name:      appName,
		Usage:     "Workstation activity agent",
		UsageText: "workplus [global options] command [command options]",
		Description: `workplus watches keyboard and mouse idle time, reports online/offline
transitions, captures periodic screenshots and uploads them to the collection
API. Uploads that fail are queued on disk and retried.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("WORKPLUS_CONFIG"),
				Value:       config.DefaultPath(),
				Destination: &f.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (trace, debug, info, warn, error); defaults to logs.level from the config",
				Sources:     cli.EnvVars("WORKPLUS_LOG_LEVEL"),
				Destination: &f.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (optional)",
				Sources:     cli.EnvVars("WORKPLUS_LOG_FILE"),
				Destination: &f.LogFile,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			cfg, err := config.New(f.ConfigPath)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			f.Config = cfg

			level := f.LogLevel
			if level == "" {
				level = cfg.Logs.Level
			}
			if err := setupLogger(level, f.LogFile); err != nil {
				return ctx, err
			}
			return ctx, nil
		},
		Commands: []*cli.Command{
			newStartCmd(f),
			newRunCmd(f),
			newStopCmd(f),
			newStatusCmd(f),
			newReportCmd(f),
			{
				Name:  "version",
				Usage: "Show version information",
				Action: func(_ context.Context, _ *cli.Command) error {
					fmt.Printf("%s version %s\n", appName, build())
					return nil
				},
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// setupLogger writes human-readable output to a terminal and JSON otherwise.
// A log file always receives JSON.
func setupLogger(level string, logFile string) error {
	parsedLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %w", err)
	}

	var output io.Writer = os.Stderr
	if term.IsTerminal(int(os.Stderr.Fd())) {
		output = zerolog.ConsoleWriter{Out: os.Stderr}
	}

	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}

		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}

		output = io.MultiWriter(output, file)
	}

	log.Logger = zerolog.New(output).Level(parsedLevel).With().Timestamp().Logger()

	return nil
}
