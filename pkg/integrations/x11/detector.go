package x11

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/screensaver"
	"github.com/jezek/xgb/xproto"

	"github.com/workplus/workplus/pkg/desktop"
)

// Detector implements desktop.Backend for X11
type Detector struct {
	mu             sync.Mutex
	conn           *xgb.Conn
	root           xproto.Window
	connErr        error
	hasScreensaver bool
	hasXprintidle  bool
}

// NewDetector creates a new X11 detector. A failed connection is remembered
// and reported by IsAvailable and by every query.
func NewDetector() *Detector {
	d := &Detector{}
	d.hasXprintidle = commandExists("xprintidle")

	conn, err := xgb.NewConn()
	if err != nil {
		d.connErr = fmt.Errorf("failed to connect to X server: %w", err)
		return d
	}

	d.conn = conn
	d.root = xproto.Setup(conn).DefaultScreen(conn).Root
	d.hasScreensaver = screensaver.Init(conn) == nil

	return d
}

// commandExists checks if a command is available in PATH
func commandExists(cmd string) bool {
	_, err := exec.LookPath(cmd)
	return err == nil
}

// IsAvailable checks if X11 detection is available
func (d *Detector) IsAvailable() bool {
	return d.conn != nil
}

// GetDisplayServer returns "x11"
func (d *Detector) GetDisplayServer() string {
	return "x11"
}

// IdleTime returns the time since the last user input. The MIT-SCREEN-SAVER
// extension is preferred; xprintidle is the fallback.
func (d *Detector) IdleTime() (time.Duration, error) {
	if d.conn != nil && d.hasScreensaver {
		d.mu.Lock()
		reply, err := screensaver.QueryInfo(d.conn, xproto.Drawable(d.root)).Reply()
		d.mu.Unlock()
		if err == nil {
			return time.Duration(reply.MsSinceUserInput) * time.Millisecond, nil
		}
		if !d.hasXprintidle {
			return 0, fmt.Errorf("failed to query screensaver info: %w", err)
		}
	}

	if d.hasXprintidle {
		output, err := exec.Command("xprintidle").Output()
		if err != nil {
			return 0, fmt.Errorf("failed to execute xprintidle: %w", err)
		}
		return parseIdleMillis(string(output))
	}

	if d.connErr != nil {
		return 0, d.connErr
	}
	return 0, desktop.ErrUnsupported
}

// parseIdleMillis parses the millisecond count printed by xprintidle
func parseIdleMillis(output string) (time.Duration, error) {
	ms, err := strconv.ParseInt(strings.TrimSpace(output), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid idle time %q: %w", strings.TrimSpace(output), err)
	}
	if ms < 0 {
		return 0, fmt.Errorf("negative idle time %d", ms)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// GrabScreen reads the whole root window, which spans every monitor, and
// stores it as PNG at path.
func (d *Detector) GrabScreen(path string) error {
	if d.conn == nil {
		return d.connErr
	}

	d.mu.Lock()
	geom, err := xproto.GetGeometry(d.conn, xproto.Drawable(d.root)).Reply()
	if err != nil {
		d.mu.Unlock()
		return fmt.Errorf("failed to get root geometry: %w", err)
	}
	reply, err := xproto.GetImage(d.conn, xproto.ImageFormatZPixmap, xproto.Drawable(d.root),
		0, 0, geom.Width, geom.Height, 0xffffffff).Reply()
	d.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to get root image: %w", err)
	}

	img, err := bgraToRGBA(reply.Data, int(geom.Width), int(geom.Height))
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create screenshot file: %w", err)
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode screenshot: %w", err)
	}
	return file.Close()
}

// bgraToRGBA converts a 32 bits per pixel ZPixmap (BGRX byte order on
// little-endian servers) into an opaque RGBA image.
func bgraToRGBA(data []byte, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid screen size %dx%d", width, height)
	}
	if len(data) < width*height*4 {
		return nil, fmt.Errorf("unsupported pixmap: got %d bytes for %dx%d", len(data), width, height)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < width*height; i++ {
		src := data[i*4 : i*4+4]
		dst := img.Pix[i*4 : i*4+4]
		dst[0] = src[2]
		dst[1] = src[1]
		dst[2] = src[0]
		dst[3] = 0xff
	}
	return img, nil
}

// IsLocked checks if a known X11 screen locker is running
func (d *Detector) IsLocked() bool {
	lockers := []string{
		"gnome-screensaver-dialog",
		"kscreenlocker",
		"i3lock",
		"slock",
		"xscreensaver",
		"xsecurelock",
	}

	for _, locker := range lockers {
		cmd := exec.Command("pgrep", "-x", locker)
		if err := cmd.Run(); err == nil {
			return true
		}
	}

	return false
}

// Close releases the X connection
func (d *Detector) Close() error {
	if d.conn != nil {
		d.conn.Close()
		d.conn = nil
	}
	return nil
}
