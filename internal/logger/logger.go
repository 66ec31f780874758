package logger

import (
	"io"
	"log/slog"
	"os"

	_ "github.com/jsternberg/zap-logfmt" // registers the "logfmt" zap encoder
	"go.uber.org/zap"
)

func New(env string) *slog.Logger {
	return NewWriter(env, os.Stdout)
}

func NewWriter(env string, w io.Writer) *slog.Logger {
	var h slog.Handler
	if env == "prod" {
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.New(h)
}

// NewZap builds the logfmt zap logger used by the categorizer service.
func NewZap(service, level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "logfmt"
	_ = cfg.Level.UnmarshalText([]byte(level))
	cfg.InitialFields = make(map[string]any)
	cfg.InitialFields["host"], _ = os.Hostname()
	cfg.InitialFields["service"] = service
	cfg.OutputPaths = []string{"stdout"}
	return cfg.Build()
}
