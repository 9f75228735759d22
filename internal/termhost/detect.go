package termhost

import (
	"os"
	"strconv"

	"golang.org/x/term"
)

const (
	fallbackWidth  = 80
	fallbackHeight = 24
)

// DetectSize returns the best-effort terminal size by probing stdout, stderr,
// and stdin, then the COLUMNS/LINES environment variables. Detection failures
// fall back to 80x24 so non-TTY environments still get a usable viewport.
func DetectSize() (width, height int) {
	fds := []uintptr{os.Stdout.Fd(), os.Stderr.Fd(), os.Stdin.Fd()}
	for _, fd := range fds {
		if w, h, err := term.GetSize(int(fd)); err == nil && w > 0 && h > 0 {
			return w, h
		}
	}
	width, height = fallbackWidth, fallbackHeight
	if col := os.Getenv("COLUMNS"); col != "" {
		if w, err := strconv.Atoi(col); err == nil && w > 0 {
			width = w
		}
	}
	if lines := os.Getenv("LINES"); lines != "" {
		if h, err := strconv.Atoi(lines); err == nil && h > 0 {
			height = h
		}
	}
	return width, height
}
