package detector

import (
	"os"

	"github.com/workplus/workplus/pkg/desktop"
	"github.com/workplus/workplus/pkg/integrations/hybrid"
)

// New returns the desktop backend for the current session. When no display
// server is reachable and allowHeadless is set, a Static backend that never
// reports idleness and cannot grab the screen is returned instead.
func New(allowHeadless bool) (desktop.Backend, error) {
	det, err := hybrid.NewDetector()
	if err != nil {
		if allowHeadless {
			return desktop.NewStatic(), nil
		}
		return nil, err
	}
	return det, nil
}

func DetectDisplayServer() string {
	sessionType := os.Getenv("XDG_SESSION_TYPE")
	waylandDisplay := os.Getenv("WAYLAND_DISPLAY")
	x11Display := os.Getenv("DISPLAY")

	if sessionType == "wayland" || waylandDisplay != "" {
		return "wayland"
	}

	if sessionType == "x11" || x11Display != "" {
		return "x11"
	}

	return "unknown"
}
