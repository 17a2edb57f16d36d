package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/workplus/workplus/internal/daemon"
	"github.com/workplus/workplus/internal/database"
	"github.com/workplus/workplus/internal/di"
	"github.com/workplus/workplus/internal/reporter"
	"github.com/workplus/workplus/internal/status"
	"github.com/workplus/workplus/internal/upload"
	"github.com/workplus/workplus/pkg/detector"
	"github.com/workplus/workplus/pkg/utils"
)

const stopTimeout = 10 * time.Second

func portFlag() cli.Flag {
	return &cli.IntFlag{
		Name:  "port",
		Usage: "status API port (overrides web.port)",
	}
}

func applyPort(f *flags, c *cli.Command) error {
	if !c.IsSet("port") {
		return nil
	}
	return f.Config.SetWebPort(int(c.Int("port")))
}

func newStartCmd(f *flags) *cli.Command {
	return &cli.Command{
		Name:  "start",
		Usage: "Start the agent in the background",
		Flags: []cli.Flag{portFlag()},
		Action: func(_ context.Context, c *cli.Command) error {
			if err := applyPort(f, c); err != nil {
				return err
			}

			dm := daemon.New(f.Config.Daemon.PIDFile)
			running, pid, err := dm.IsRunning()
			if err != nil {
				return fmt.Errorf("check daemon status: %w", err)
			}
			if running {
				return fmt.Errorf("daemon is already running (PID: %d)", pid)
			}

			return daemonize(f, c)
		},
	}
}

// daemonize re-executes the binary with the run command in a new session.
// Output of the child goes to agent.log in the base directory.
func daemonize(f *flags, c *cli.Command) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	logPath := f.LogFile
	if logPath == "" {
		logPath = filepath.Join(f.Config.BaseDir, "agent.log")
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	args := []string{exe, "--config", f.ConfigPath}
	if f.LogLevel != "" {
		args = append(args, "--log-level", f.LogLevel)
	}
	args = append(args, "run")
	if c.IsSet("port") {
		args = append(args, "--port", fmt.Sprint(c.Int("port")))
	}

	devNull, err := os.Open(os.DevNull)
	if err != nil {
		return err
	}
	defer devNull.Close()

	process, err := os.StartProcess(exe, args, &os.ProcAttr{
		Env:   os.Environ(),
		Files: []*os.File{devNull, logFile, logFile},
		Sys:   &syscall.SysProcAttr{Setsid: true},
	})
	if err != nil {
		return fmt.Errorf("start daemon process: %w", err)
	}

	fmt.Printf("Daemon started successfully (PID: %d)\n", process.Pid)
	if f.Config.Web.Enabled {
		fmt.Printf("Status API available at: http://%s:%d\n", f.Config.Web.Host, f.Config.Web.Port)
	}
	fmt.Printf("Logs: %s\n", logPath)
	return process.Release()
}

func newRunCmd(f *flags) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the agent in the foreground",
		Flags: []cli.Flag{portFlag()},
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := applyPort(f, c); err != nil {
				return err
			}
			cfg := f.Config

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			dm := daemon.New(cfg.Daemon.PIDFile)
			if err := dm.Acquire(); err != nil {
				return err
			}
			defer func() {
				if err := dm.RemovePID(); err != nil {
					log.Warn().Err(err).Msg("failed to remove PID file")
				}
			}()

			backend, err := detector.New(true)
			if err != nil {
				return fmt.Errorf("initialize desktop backend: %w", err)
			}
			defer backend.Close()
			log.Info().Str("backend", backend.GetDisplayServer()).Msg("desktop backend initialized")

			a, cleanup, err := di.InitAgent(log.Logger, cfg, backend)
			if err != nil {
				return fmt.Errorf("initialize agent: %w", err)
			}
			defer cleanup()

			hup := make(chan os.Signal, 1)
			signal.Notify(hup, syscall.SIGHUP)
			defer signal.Stop(hup)
			go func() {
				for {
					select {
					case <-hup:
						a.Reload()
					case <-ctx.Done():
						return
					}
				}
			}()

			log.Info().Str("version", version).Msg("starting workplus agent")
			log.Debug().Msg(cfg.String())

			if err := a.Run(ctx); err != nil {
				return err
			}
			log.Info().Msg("agent stopped")
			return nil
		},
	}
}

func newStopCmd(f *flags) *cli.Command {
	return &cli.Command{
		Name:  "stop",
		Usage: "Stop the background agent",
		Action: func(_ context.Context, _ *cli.Command) error {
			dm := daemon.New(f.Config.Daemon.PIDFile)
			err := dm.Stop(stopTimeout)
			if errors.Is(err, daemon.ErrNotRunning) {
				fmt.Println("Daemon is not running")
				return nil
			}
			if err != nil {
				return fmt.Errorf("stop daemon: %w", err)
			}

			fmt.Println("Daemon stopped successfully")
			return nil
		},
	}
}

func newStatusCmd(f *flags) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show daemon state, the last journaled status and the failed queue",
		Action: func(_ context.Context, _ *cli.Command) error {
			cfg := f.Config

			dm := daemon.New(cfg.Daemon.PIDFile)
			running, pid, err := dm.IsRunning()
			if err != nil {
				return fmt.Errorf("check daemon status: %w", err)
			}
			if running {
				fmt.Printf("Daemon: running (PID: %d)\n", pid)
			} else {
				fmt.Println("Daemon: not running")
			}
			fmt.Printf("Display server: %s\n", detector.DetectDisplayServer())

			queue := upload.NewFailedQueue(cfg.ScreenshotDir(), cfg.FailedDir())
			fmt.Printf("Failed queue: %d screenshot(s)\n", queue.Len())

			db, err := openJournal(cfg.DatabasePath())
			if err != nil {
				return err
			}
			defer db.Close()

			latest, err := database.NewRepository(db).LatestTransition()
			if err != nil {
				return err
			}
			if latest == nil {
				fmt.Println("Last status: none recorded")
				return nil
			}
			label := latest.Status
			if st, err := status.Parse(latest.Status); err == nil {
				label = st.Upper()
			}
			fmt.Printf("Last status: %s since %s (%s ago)\n",
				label,
				latest.Timestamp.Format("2006-01-02 15:04:05"),
				utils.HumanDuration(time.Since(latest.Timestamp)))
			return nil
		},
	}
}

func newReportCmd(f *flags) *cli.Command {
	return &cli.Command{
		Name:      "report",
		Usage:     "Print online/offline totals for a period",
		ArgsUsage: "[day|week|month]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print the report as JSON",
			},
		},
		Action: func(_ context.Context, c *cli.Command) error {
			period := "day"
			if c.Args().Len() > 0 {
				period = c.Args().First()
			}

			db, err := openJournal(f.Config.DatabasePath())
			if err != nil {
				return err
			}
			defer db.Close()

			rep := reporter.New(database.NewRepository(db))
			report, err := rep.GenerateReport(period)
			if err != nil {
				return fmt.Errorf("generate report: %w", err)
			}

			if c.Bool("json") {
				out, err := rep.FormatReportJSON(report)
				if err != nil {
					return err
				}
				fmt.Println(out)
				return nil
			}
			fmt.Println(rep.FormatReportText(report))
			return nil
		},
	}
}

func openJournal(path string) (*database.DB, error) {
	db, err := database.Connect(path)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := db.Initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize database: %w", err)
	}
	return db, nil
}
