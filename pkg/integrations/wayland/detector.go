package wayland

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/workplus/workplus/pkg/desktop"
)

// Detector implements desktop.Backend for Wayland
type Detector struct {
	compositor string
	hasGdbus   bool
	grabber    string
}

// NewDetector creates a new Wayland detector
func NewDetector() *Detector {
	d := &Detector{}
	d.hasGdbus = commandExists("gdbus")
	d.detectCompositor()
	d.grabber = d.detectGrabber()
	return d
}

// commandExists checks if a command is available in PATH
func commandExists(cmd string) bool {
	_, err := exec.LookPath(cmd)
	return err == nil
}

// detectCompositor attempts to detect the Wayland compositor
func (d *Detector) detectCompositor() {
	compositors := map[string]string{
		"sway":         "sway",
		"Hyprland":     "hyprland",
		"wayfire":      "wayfire",
		"river":        "river",
		"gnome-shell":  "gnome",
		"kwin_wayland": "kde",
	}

	for process, name := range compositors {
		cmd := exec.Command("pgrep", "-x", process)
		if err := cmd.Run(); err == nil {
			d.compositor = name
			return
		}
	}

	d.compositor = "unknown"
}

// detectGrabber picks the screenshot tool matching the compositor
func (d *Detector) detectGrabber() string {
	var candidates []string
	switch d.compositor {
	case "gnome":
		candidates = []string{"gnome-screenshot", "grim"}
	case "kde":
		candidates = []string{"spectacle", "grim"}
	default:
		candidates = []string{"grim"}
	}

	for _, c := range candidates {
		if commandExists(c) {
			return c
		}
	}
	return ""
}

// IsAvailable reports whether either idle time or screenshots can be served
func (d *Detector) IsAvailable() bool {
	return (d.compositor == "gnome" && d.hasGdbus) || d.grabber != ""
}

// GetDisplayServer returns "wayland"
func (d *Detector) GetDisplayServer() string {
	return "wayland"
}

// IdleTime asks the Mutter idle monitor. Other compositors do not expose
// idle time to unprivileged clients.
func (d *Detector) IdleTime() (time.Duration, error) {
	if d.compositor != "gnome" || !d.hasGdbus {
		return 0, desktop.ErrUnsupported
	}

	cmd := exec.Command("gdbus", "call", "--session",
		"--dest", "org.gnome.Mutter.IdleMonitor",
		"--object-path", "/org/gnome/Mutter/IdleMonitor/Core",
		"--method", "org.gnome.Mutter.IdleMonitor.GetIdletime")
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("failed to query mutter idle monitor: %w", err)
	}

	return parseGdbusUint64(string(output))
}

// parseGdbusUint64 parses a gdbus reply of the form "(uint64 12345,)" as
// milliseconds.
func parseGdbusUint64(output string) (time.Duration, error) {
	s := strings.TrimSpace(output)
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")
	s = strings.TrimSuffix(s, ",")
	s = strings.TrimSpace(strings.TrimPrefix(s, "uint64"))

	ms, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected gdbus reply %q: %w", strings.TrimSpace(output), err)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// GrabScreen shells out to the compositor's screenshot tool
func (d *Detector) GrabScreen(path string) error {
	var cmd *exec.Cmd
	switch d.grabber {
	case "grim":
		cmd = exec.Command("grim", "-t", "png", path)
	case "gnome-screenshot":
		cmd = exec.Command("gnome-screenshot", "-f", path)
	case "spectacle":
		cmd = exec.Command("spectacle", "-b", "-n", "-f", "-o", path)
	default:
		return fmt.Errorf("no wayland screenshot tool for compositor %s: %w", d.compositor, desktop.ErrUnsupported)
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s failed: %w (%s)", d.grabber, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// IsLocked checks if screen is locked
func (d *Detector) IsLocked() bool {
	lockers := []string{
		"swaylock",
		"waylock",
		"gtklock",
		"hyprlock",
		"gnome-screensaver-dialog",
	}

	for _, locker := range lockers {
		cmd := exec.Command("pgrep", "-x", locker)
		if err := cmd.Run(); err == nil {
			return true
		}
	}

	cmd := exec.Command("loginctl", "show-session", "-p", "LockedHint")
	if output, err := cmd.Output(); err == nil {
		if strings.Contains(string(output), "LockedHint=yes") {
			return true
		}
	}

	return false
}

// Close cleans up resources
func (d *Detector) Close() error {
	return nil
}
