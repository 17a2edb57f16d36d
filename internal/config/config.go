package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gookit/validate"
)

// Config holds all agent configuration
type Config struct {
	// BaseDir holds the activity logs, the screenshot directories and the
	// journal database
	BaseDir string `mapstructure:"baseDir" validate:"required"`

	Identity   IdentityConfig   `mapstructure:"identity"`
	Status     StatusConfig     `mapstructure:"status"`
	QuietHours QuietHoursConfig `mapstructure:"quietHours"`
	Screenshot ScreenshotConfig `mapstructure:"screenshot"`
	Upload     UploadConfig     `mapstructure:"upload"`
	Retry      RetryConfig      `mapstructure:"retry"`
	Logs       LogsConfig       `mapstructure:"logs"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Daemon     DaemonConfig     `mapstructure:"daemon"`
	Web        WebConfig        `mapstructure:"web"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// IdentityConfig controls how the reporting identity is resolved
type IdentityConfig struct {
	File     string        `mapstructure:"file"`
	Default  string        `mapstructure:"default" validate:"required"`
	CacheTTL time.Duration `mapstructure:"cacheTTL" validate:"required|min:1"`
}

// StatusConfig holds online/offline detection settings
type StatusConfig struct {
	PollInterval  time.Duration `mapstructure:"pollInterval" validate:"required|min:1"`
	IdleThreshold time.Duration `mapstructure:"idleThreshold" validate:"required|min:1"`
}

// QuietHoursConfig suppresses tracking and capture from CutoffHour until
// midnight in TimeZone
type QuietHoursConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	CutoffHour int    `mapstructure:"cutoffHour" validate:"min:0|max:23"`
	TimeZone   string `mapstructure:"timeZone" validate:"required"`
}

// ScreenshotConfig holds capture cadence settings
type ScreenshotConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Interval     time.Duration `mapstructure:"interval" validate:"required|min:1"`
	OnTransition bool          `mapstructure:"onTransition"`
}

// UploadConfig describes the remote collection API
type UploadConfig struct {
	ScreenshotURL    string        `mapstructure:"screenshotURL" validate:"required|fullUrl"`
	StatusURL        string        `mapstructure:"statusURL" validate:"required|fullUrl"`
	DailyActivityURL string        `mapstructure:"dailyActivityURL" validate:"required|fullUrl"`
	Timeout          time.Duration `mapstructure:"timeout" validate:"required|min:1"`
	ProbeAddress     string        `mapstructure:"probeAddress" validate:"required"`
	ProbeTimeout     time.Duration `mapstructure:"probeTimeout" validate:"required|min:1"`
	StatusTimeout    time.Duration `mapstructure:"statusTimeout" validate:"required|min:1"`
}

// RetryConfig controls the failed-queue sweep
type RetryConfig struct {
	Interval time.Duration `mapstructure:"interval" validate:"required|min:1"`
}

// LogsConfig holds diagnostic logging and activity log housekeeping settings
type LogsConfig struct {
	Level            string        `mapstructure:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	ArchiveAfterDays int           `mapstructure:"archiveAfterDays" validate:"min:1"`
	RetentionDays    int           `mapstructure:"retentionDays" validate:"min:1"`
	CleanupInterval  time.Duration `mapstructure:"cleanupInterval" validate:"required|min:1"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Path string `mapstructure:"path"` // Empty means <baseDir>/workplus.db
}

// DaemonConfig holds daemon process configuration
type DaemonConfig struct {
	PIDFile string `mapstructure:"pidFile" validate:"required"`
}

// WebConfig holds the local status API configuration
type WebConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host" validate:"required"`
	Port    int    `mapstructure:"port" validate:"min:1|max:65535"`
}

// MetricsConfig toggles the Prometheus collectors
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}

	return &Config{
		BaseDir: filepath.Join(home, ".local", "share", "workplus"),
		Identity: IdentityConfig{
			File:     filepath.Join(home, ".config", "workplus", "username.txt"),
			Default:  "unknown@workplus.local",
			CacheTTL: 5 * time.Minute,
		},
		Status: StatusConfig{
			PollInterval:  1 * time.Second,
			IdleThreshold: 30 * time.Second,
		},
		QuietHours: QuietHoursConfig{
			Enabled:    true,
			CutoffHour: 19,
			TimeZone:   "Local",
		},
		Screenshot: ScreenshotConfig{
			Enabled:      true,
			Interval:     5*time.Minute + 30*time.Second,
			OnTransition: false,
		},
		Upload: UploadConfig{
			ScreenshotURL:    "http://localhost:8888/api/uploadScreenShot",
			StatusURL:        "http://localhost:8888/api/gap-track/saveGap",
			DailyActivityURL: "http://localhost:8888/api/saveDailyActivity",
			Timeout:          30 * time.Second,
			ProbeAddress:     "8.8.8.8:53",
			ProbeTimeout:     1 * time.Second,
			StatusTimeout:    5 * time.Second,
		},
		Retry: RetryConfig{
			Interval: 5 * time.Minute,
		},
		Logs: LogsConfig{
			Level:            "info",
			ArchiveAfterDays: 7,
			RetentionDays:    30,
			CleanupInterval:  24 * time.Hour,
		},
		Database: DatabaseConfig{
			Path: "",
		},
		Daemon: DaemonConfig{
			PIDFile: fmt.Sprintf("/tmp/workplus-%d.pid", os.Getuid()),
		},
		Web: WebConfig{
			Enabled: true,
			Host:    "localhost",
			Port:    10000 + os.Getuid()%50000,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	v := validate.Struct(c)
	if !v.Validate() {
		return fmt.Errorf("invalid configuration: %s", v.Errors.One())
	}

	// a poll slower than the threshold can miss a whole idle period
	if c.Status.PollInterval >= c.Status.IdleThreshold {
		return fmt.Errorf("poll interval (%v) must be shorter than idle threshold (%v)",
			c.Status.PollInterval, c.Status.IdleThreshold)
	}

	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid quiet hours time zone %q: %w", c.QuietHours.TimeZone, err)
	}

	if c.Logs.RetentionDays < c.Logs.ArchiveAfterDays {
		return fmt.Errorf("log retention (%d days) cannot be shorter than archive age (%d days)",
			c.Logs.RetentionDays, c.Logs.ArchiveAfterDays)
	}

	return nil
}

// SetWebPort sets the web server port with validation
func (c *Config) SetWebPort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	c.Web.Port = port
	return nil
}

// Location returns the time zone quiet hours are evaluated in
func (c *Config) Location() (*time.Location, error) {
	if c.QuietHours.TimeZone == "" || c.QuietHours.TimeZone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.QuietHours.TimeZone)
}

// ScreenshotDir is the active artifact directory
func (c *Config) ScreenshotDir() string {
	return filepath.Join(c.BaseDir, "screenshots")
}

// FailedDir is the failed-queue directory
func (c *Config) FailedDir() string {
	return filepath.Join(c.ScreenshotDir(), "failed")
}

// DatabasePath returns the journal location
func (c *Config) DatabasePath() string {
	if c.Database.Path != "" {
		return c.Database.Path
	}
	return filepath.Join(c.BaseDir, "workplus.db")
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf(`Configuration:
  Base Dir: %s
  Identity:
    File: %s
    Default: %s
  Status:
    Poll Interval: %v
    Idle Threshold: %v
  Quiet Hours:
    Enabled: %v
    Cutoff Hour: %d
    Time Zone: %s
  Screenshot:
    Enabled: %v
    Interval: %v
    On Transition: %v
  Upload:
    Screenshot URL: %s
    Status URL: %s
    Daily Activity URL: %s
    Timeout: %v
    Probe: %s (%v)
    Status Timeout: %v
  Retry:
    Interval: %v
  Logs:
    Level: %s
    Archive After: %d days
    Retention: %d days
  Database:
    Path: %s
  Daemon:
    PID File: %s
  Web:
    Enabled: %v
    Address: %s:%d
  Metrics:
    Enabled: %v`,
		c.BaseDir,
		c.Identity.File,
		c.Identity.Default,
		c.Status.PollInterval,
		c.Status.IdleThreshold,
		c.QuietHours.Enabled,
		c.QuietHours.CutoffHour,
		c.QuietHours.TimeZone,
		c.Screenshot.Enabled,
		c.Screenshot.Interval,
		c.Screenshot.OnTransition,
		c.Upload.ScreenshotURL,
		c.Upload.StatusURL,
		c.Upload.DailyActivityURL,
		c.Upload.Timeout,
		c.Upload.ProbeAddress,
		c.Upload.ProbeTimeout,
		c.Upload.StatusTimeout,
		c.Retry.Interval,
		c.Logs.Level,
		c.Logs.ArchiveAfterDays,
		c.Logs.RetentionDays,
		c.DatabasePath(),
		c.Daemon.PIDFile,
		c.Web.Enabled,
		c.Web.Host,
		c.Web.Port,
		c.Metrics.Enabled,
	)
}
