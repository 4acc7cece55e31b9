// Package logging installs the process-wide slog logger for the clipq
// daemon and its client commands.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pwntr/tinter"
)

// Mode is the kind of process doing the logging. It picks the level used
// when none is configured.
type Mode int

const (
	// Service is the daemon under a service manager: info and up.
	Service Mode = iota
	// Foreground is the daemon run by hand: everything, including debug.
	Foreground
	// Client is a one-shot command talking to the daemon: warnings only,
	// so normal output stays readable.
	Client
)

// Options hold the user-facing logging settings.
type Options struct {
	Mode Mode

	// Format is auto, json, or text (also spelled tint or human). Auto uses
	// tinted text on a terminal and JSON elsewhere.
	Format string

	// Level overrides the mode's level when it parses.
	Level string
}

// Leveler returns the effective level.
func (o Options) Leveler() slog.Level {
	var l slog.Level
	if o.Level != "" && l.UnmarshalText([]byte(strings.TrimSpace(o.Level))) == nil {
		return l
	}
	switch o.Mode {
	case Foreground:
		return slog.LevelDebug
	case Client:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

func (o Options) tinted(w io.Writer) bool {
	switch strings.ToLower(strings.TrimSpace(o.Format)) {
	case "text", "tint", "human":
		return true
	case "json":
		return false
	default:
		return IsTerminal(w)
	}
}

// Handler builds the handler o describes, writing to w.
func (o Options) Handler(w io.Writer) slog.Handler {
	if o.tinted(w) {
		return tinter.NewHandler(w, &tinter.Options{
			Level:      o.Leveler(),
			TimeFormat: "15:04:05.000",
		})
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: o.Leveler()})
}

// Install makes o the default logger on stderr.
func Install(o Options) *slog.Logger {
	l := slog.New(o.Handler(os.Stderr))
	slog.SetDefault(l)
	return l
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}
