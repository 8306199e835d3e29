package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// FileConfig controls rotation of the log file used outside the local env.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// SetupLogger returns a text logger on stdout for local runs and a JSON
// logger writing to a rotating file for dev and prod.
func SetupLogger(env string, file FileConfig) (*slog.Logger, error) {
	var out io.Writer = os.Stdout
	if env != EnvLocal {
		out = &lumberjack.Logger{
			Filename:   file.Path,
			MaxSize:    file.MaxSizeMB,
			MaxBackups: file.MaxBackups,
			MaxAge:     file.MaxAgeDays,
			Compress:   true,
		}
	}
	return newLogger(env, out)
}

func newLogger(env string, out io.Writer) (*slog.Logger, error) {
	switch env {
	case EnvLocal:
		return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug})), nil
	case EnvDev:
		return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug})), nil
	case EnvProd:
		return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo})), nil
	default:
		return nil, fmt.Errorf("invalid environment: %q", env)
	}
}
