package telemetry

import (
	"log/slog"
	"os"
)

// InitSlog installs the default logger. Debug mode lowers the level and
// includes source locations.
func InitSlog(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	})))
}
