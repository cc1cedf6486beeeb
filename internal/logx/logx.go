// Package logx builds the *slog.Logger passed to every component, matching
// the dependency-injected logger pattern of
// _examples/pgaskin-barlib/redshift/manager.go and the level/handler setup
// of _examples/nikoskalogridis-streamerbrainz/logger.go, with file rotation
// layered on via gopkg.in/natefinch/lumberjack.v2 so a long-running daemon
// does not grow its log file without bound.
package logx

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configure where and how verbosely sunsetr logs.
type Options struct {
	Debug bool
	// FilePath, if set, tees log output to a rotated file in addition to
	// stderr. Empty means stderr only.
	FilePath string
}

// New builds the process-wide logger. Debug enables slog.LevelDebug;
// otherwise the daemon logs at Info and above.
func New(opts Options) *slog.Logger {
	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}

	var w io.Writer = os.Stderr
	if opts.FilePath != "" {
		w = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    5, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		})
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				a.Value = slog.StringValue(a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	})
	return slog.New(handler)
}

// Since formats the time elapsed since t for operator-facing log lines,
// e.g. "2 minutes ago" instead of "2m0s".
func Since(t time.Time) string {
	return humanize.Time(t)
}

// Duration renders a duration in rounded human units for log messages, e.g.
// next_event_in="45 minutes".
func Duration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return humanize.RelTime(time.Now(), time.Now().Add(d), "", "")
}
