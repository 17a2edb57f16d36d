package detector

import (
	"testing"
)

func TestNew(t *testing.T) {
	backend, err := New(false)
	if err != nil {
		t.Logf("New() returned error (may be expected): %v", err)
		return
	}

	if backend == nil {
		t.Fatal("New() returned nil backend without error")
	}

	t.Logf("Detected display server: %s", backend.GetDisplayServer())

	idle, err := backend.IdleTime()
	if err != nil {
		t.Logf("IdleTime() error: %v", err)
	} else {
		t.Logf("Idle time: %v", idle)
	}

	if err := backend.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}

func TestDetectDisplayServer(t *testing.T) {
	tests := []struct {
		name             string
		sessionType      string
		waylandDisplay   string
		x11Display       string
		expectedContains string
	}{
		{
			name:             "Wayland session",
			sessionType:      "wayland",
			waylandDisplay:   "wayland-0",
			x11Display:       "",
			expectedContains: "wayland",
		},
		{
			name:             "X11 session",
			sessionType:      "x11",
			waylandDisplay:   "",
			x11Display:       ":0",
			expectedContains: "x11",
		},
		{
			name:             "Unknown session",
			sessionType:      "",
			waylandDisplay:   "",
			x11Display:       "",
			expectedContains: "unknown",
		},
		{
			name:             "Wayland display set",
			sessionType:      "",
			waylandDisplay:   "wayland-1",
			x11Display:       "",
			expectedContains: "wayland",
		},
		{
			name:             "X11 display set",
			sessionType:      "",
			waylandDisplay:   "",
			x11Display:       ":1",
			expectedContains: "x11",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("XDG_SESSION_TYPE", tt.sessionType)
			t.Setenv("WAYLAND_DISPLAY", tt.waylandDisplay)
			t.Setenv("DISPLAY", tt.x11Display)

			result := DetectDisplayServer()
			if result != tt.expectedContains {
				t.Errorf("DetectDisplayServer() = %s, want %s", result, tt.expectedContains)
			}
		})
	}
}

func TestNewHeadless(t *testing.T) {
	t.Setenv("XDG_SESSION_TYPE", "")
	t.Setenv("WAYLAND_DISPLAY", "")
	t.Setenv("DISPLAY", "")

	backend, err := New(true)
	if err != nil {
		t.Fatalf("New(true) error: %v", err)
	}
	defer backend.Close()

	if backend.GetDisplayServer() != "static" {
		t.Errorf("GetDisplayServer() = %s, want static", backend.GetDisplayServer())
	}

	if _, err := New(false); err == nil {
		t.Error("New(false) expected error without a display server")
	}
}
