package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g.
// WORKPLUS_STATUS_IDLETHRESHOLD=45s.
const EnvPrefix = "WORKPLUS"

// DefaultPath returns the config file location used when none is given
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "workplus.yaml"
	}
	return filepath.Join(home, ".config", "workplus", "config.yaml")
}

// Load reads configuration from the YAML file at path (a missing file is not
// an error), then applies environment overrides on top of Default().
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		_, err := os.Stat(path)
		switch {
		case err == nil:
			v.SetConfigFile(path)
			if filepath.Ext(path) == "" {
				v.SetConfigType("yaml")
			}
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to stat config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	return &cfg, nil
}

// New loads the configuration at path and validates it
func New(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so that AutomaticEnv can override it
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("baseDir", d.BaseDir)

	v.SetDefault("identity.file", d.Identity.File)
	v.SetDefault("identity.default", d.Identity.Default)
	v.SetDefault("identity.cacheTTL", d.Identity.CacheTTL)

	v.SetDefault("status.pollInterval", d.Status.PollInterval)
	v.SetDefault("status.idleThreshold", d.Status.IdleThreshold)

	v.SetDefault("quietHours.enabled", d.QuietHours.Enabled)
	v.SetDefault("quietHours.cutoffHour", d.QuietHours.CutoffHour)
	v.SetDefault("quietHours.timeZone", d.QuietHours.TimeZone)

	v.SetDefault("screenshot.enabled", d.Screenshot.Enabled)
	v.SetDefault("screenshot.interval", d.Screenshot.Interval)
	v.SetDefault("screenshot.onTransition", d.Screenshot.OnTransition)

	v.SetDefault("upload.screenshotURL", d.Upload.ScreenshotURL)
	v.SetDefault("upload.statusURL", d.Upload.StatusURL)
	v.SetDefault("upload.dailyActivityURL", d.Upload.DailyActivityURL)
	v.SetDefault("upload.timeout", d.Upload.Timeout)
	v.SetDefault("upload.probeAddress", d.Upload.ProbeAddress)
	v.SetDefault("upload.probeTimeout", d.Upload.ProbeTimeout)
	v.SetDefault("upload.statusTimeout", d.Upload.StatusTimeout)

	v.SetDefault("retry.interval", d.Retry.Interval)

	v.SetDefault("logs.level", d.Logs.Level)
	v.SetDefault("logs.archiveAfterDays", d.Logs.ArchiveAfterDays)
	v.SetDefault("logs.retentionDays", d.Logs.RetentionDays)
	v.SetDefault("logs.cleanupInterval", d.Logs.CleanupInterval)

	v.SetDefault("database.path", d.Database.Path)

	v.SetDefault("daemon.pidFile", d.Daemon.PIDFile)

	v.SetDefault("web.enabled", d.Web.Enabled)
	v.SetDefault("web.host", d.Web.Host)
	v.SetDefault("web.port", d.Web.Port)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
}
