package hybrid

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/workplus/workplus/pkg/desktop"
	"github.com/workplus/workplus/pkg/integrations/wayland"
	"github.com/workplus/workplus/pkg/integrations/x11"
)

// Detector chains the session's native backend with XWayland so that a
// request one backend cannot serve is retried on the next.
type Detector struct {
	backends []desktop.Backend

	lastSuccessfulMethod string
}

func NewDetector() (*Detector, error) {
	d := &Detector{backends: detectBackends()}

	if len(d.backends) == 0 {
		return nil, fmt.Errorf("no desktop backend available (DISPLAY and WAYLAND_DISPLAY unset or unreachable)")
	}

	for _, b := range d.backends {
		log.Debug().Str("backend", b.GetDisplayServer()).Msg("desktop backend initialized")
	}
	return d, nil
}

// New builds a hybrid detector over explicit backends
func New(backends ...desktop.Backend) *Detector {
	return &Detector{backends: backends}
}

func detectBackends() []desktop.Backend {
	var backends []desktop.Backend

	waylandDisplay := os.Getenv("WAYLAND_DISPLAY")
	xdgSessionType := os.Getenv("XDG_SESSION_TYPE")

	if waylandDisplay != "" || xdgSessionType == "wayland" {
		det := wayland.NewDetector()
		if det.IsAvailable() {
			backends = append(backends, det)
		}
	}

	// XWayland also sets DISPLAY, which gives idle time on compositors that
	// do not export it natively.
	if os.Getenv("DISPLAY") != "" {
		det := x11.NewDetector()
		if det.IsAvailable() {
			backends = append(backends, det)
		} else {
			det.Close()
		}
	}

	return backends
}

func (d *Detector) IdleTime() (time.Duration, error) {
	var errs []error
	for _, b := range d.backends {
		idle, err := b.IdleTime()
		if err == nil {
			d.lastSuccessfulMethod = b.GetDisplayServer()
			return idle, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", b.GetDisplayServer(), err))
	}

	if len(errs) == 0 {
		return 0, desktop.ErrUnsupported
	}
	return 0, errors.Join(errs...)
}

func (d *Detector) GrabScreen(path string) error {
	var errs []error
	for _, b := range d.backends {
		err := b.GrabScreen(path)
		if err == nil {
			return nil
		}
		_ = os.Remove(path)
		errs = append(errs, fmt.Errorf("%s: %w", b.GetDisplayServer(), err))
	}

	if len(errs) == 0 {
		return desktop.ErrUnsupported
	}
	return errors.Join(errs...)
}

func (d *Detector) IsLocked() bool {
	for _, b := range d.backends {
		if b.IsLocked() {
			return true
		}
	}
	return isSessionLocked()
}

// isSessionLocked asks the session managers directly
func isSessionLocked() bool {
	cmd := exec.Command("gdbus", "call", "--session", "--dest", "org.gnome.ScreenSaver", "--object-path", "/org/gnome/ScreenSaver", "--method", "org.gnome.ScreenSaver.GetActive")
	if output, err := cmd.Output(); err == nil {
		if strings.Contains(string(output), "true") {
			return true
		}
	}

	cmd = exec.Command("loginctl", "show-session", "-p", "LockedHint")
	if output, err := cmd.Output(); err == nil {
		if strings.Contains(string(output), "LockedHint=yes") {
			return true
		}
	}

	return false
}

func (d *Detector) IsAvailable() bool {
	for _, b := range d.backends {
		if b.IsAvailable() {
			return true
		}
	}
	return false
}

func (d *Detector) GetDisplayServer() string {
	if len(d.backends) > 0 {
		return d.backends[0].GetDisplayServer()
	}
	return "none"
}

func (d *Detector) GetStatus() string {
	status := "Desktop Backend Status:\n"

	if len(d.backends) == 0 {
		status += "  no backend available\n"
	}
	for _, b := range d.backends {
		status += fmt.Sprintf("  %s (available: %v)\n", b.GetDisplayServer(), b.IsAvailable())
	}
	status += fmt.Sprintf("  Last successful idle source: %s\n", d.lastSuccessfulMethod)

	return status
}

func (d *Detector) Close() error {
	for _, b := range d.backends {
		if err := b.Close(); err != nil {
			log.Warn().Err(err).Str("backend", b.GetDisplayServer()).Msg("error closing desktop backend")
		}
	}
	return nil
}
