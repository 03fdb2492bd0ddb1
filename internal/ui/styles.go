package ui

import (
	"fmt"
	"strconv"
	"strings"
)

// ANSI256 color codes matching the Ayu palette.
const (
	colorAccent = 74  // blue
	colorCmd    = 250 // light gray
	colorMuted  = 245 // medium gray
	colorPass   = 114 // green
	colorFail   = 203 // red
)

var noColor bool

func render(code int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string { return render(colorAccent, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return render(colorMuted, s) }

// RenderCommand returns s styled as a command name (light gray).
func RenderCommand(s string) string { return render(colorCmd, s) }

// RenderBest marks a personal-best lap time.
func RenderBest(s string) string {
	if noColor {
		return s + " *"
	}
	return fmt.Sprintf("\x1b[1;38;5;%dm%s\x1b[0m", colorPass, s)
}

// RenderGate renders a gate state as online or offline.
func RenderGate(online bool) string {
	if online {
		return render(colorPass, "online")
	}
	return render(colorFail, "offline")
}

// RenderSwatch returns a small block in the given #rgb or #rrggbb color,
// followed by the color text. Unparseable colors are returned as-is.
func RenderSwatch(color string) string {
	if noColor || color == "" {
		return color
	}
	r, g, b, ok := parseHex(color)
	if !ok {
		return color
	}
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm■\x1b[0m %s", r, g, b, color)
}

func parseHex(s string) (r, g, b uint8, ok bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), true
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
