package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty base dir", func(c *Config) { c.BaseDir = "" }},
		{"empty default identity", func(c *Config) { c.Identity.Default = "" }},
		{"zero poll interval", func(c *Config) { c.Status.PollInterval = 0 }},
		{"poll equals threshold", func(c *Config) { c.Status.PollInterval = c.Status.IdleThreshold }},
		{"cutoff hour out of range", func(c *Config) { c.QuietHours.CutoffHour = 24 }},
		{"unknown time zone", func(c *Config) { c.QuietHours.TimeZone = "Mars/Olympus" }},
		{"relative screenshot url", func(c *Config) { c.Upload.ScreenshotURL = "/api/upload" }},
		{"zero upload timeout", func(c *Config) { c.Upload.Timeout = 0 }},
		{"empty probe address", func(c *Config) { c.Upload.ProbeAddress = "" }},
		{"zero status timeout", func(c *Config) { c.Upload.StatusTimeout = 0 }},
		{"bad log level", func(c *Config) { c.Logs.Level = "verbose" }},
		{"retention shorter than archive", func(c *Config) { c.Logs.RetentionDays = 3 }},
		{"port out of range", func(c *Config) { c.Web.Port = 0 }},
		{"empty pid file", func(c *Config) { c.Daemon.PIDFile = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestPaths(t *testing.T) {
	c := Default()
	c.BaseDir = "/var/lib/workplus"

	assert.Equal(t, "/var/lib/workplus/screenshots", c.ScreenshotDir())
	assert.Equal(t, "/var/lib/workplus/screenshots/failed", c.FailedDir())
	assert.Equal(t, "/var/lib/workplus/workplus.db", c.DatabasePath())

	c.Database.Path = "/tmp/other.db"
	assert.Equal(t, "/tmp/other.db", c.DatabasePath())
}

func TestLocation(t *testing.T) {
	c := Default()
	loc, err := c.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	c.QuietHours.TimeZone = "UTC"
	loc, err = c.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	d := Default()
	assert.Equal(t, d.Status.IdleThreshold, cfg.Status.IdleThreshold)
	assert.Equal(t, d.Upload.ScreenshotURL, cfg.Upload.ScreenshotURL)
	assert.Equal(t, d.QuietHours.CutoffHour, cfg.QuietHours.CutoffHour)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `baseDir: /srv/workplus
status:
  pollInterval: 2s
  idleThreshold: 45s
quietHours:
  enabled: false
  cutoffHour: 20
upload:
  screenshotURL: https://collector.example.com/api/uploadScreenShot
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/workplus", cfg.BaseDir)
	assert.Equal(t, 2*time.Second, cfg.Status.PollInterval)
	assert.Equal(t, 45*time.Second, cfg.Status.IdleThreshold)
	assert.False(t, cfg.QuietHours.Enabled)
	assert.Equal(t, 20, cfg.QuietHours.CutoffHour)
	assert.Equal(t, "https://collector.example.com/api/uploadScreenShot", cfg.Upload.ScreenshotURL)
	// untouched keys keep their defaults
	assert.Equal(t, Default().Upload.Timeout, cfg.Upload.Timeout)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("status:\n  idleThreshold: 45s\n"), 0o644))

	t.Setenv("WORKPLUS_STATUS_IDLETHRESHOLD", "90s")
	t.Setenv("WORKPLUS_IDENTITY_DEFAULT", "ops@example.com")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 90*time.Second, cfg.Status.IdleThreshold)
	assert.Equal(t, "ops@example.com", cfg.Identity.Default)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("status: [unterminated"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestNew_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("status:\n  pollInterval: 1m\n"), 0o644))

	_, err := New(path)
	assert.Error(t, err)
}

func TestString(t *testing.T) {
	s := Default().String()
	assert.Contains(t, s, "Idle Threshold: 30s")
	assert.Contains(t, s, "Cutoff Hour: 19")
}
