package infra

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"

	"github.com/tnqbao/gau-3d-forge/config"
)

type LoggerClient struct {
	logger *slog.Logger
}

// InitLoggerClient wires slog into the OTel log pipeline when telemetry is
// configured, otherwise logs to stdout.
func InitLoggerClient(cfg *config.EnvConfig, telemetry *TelemetryClient) *LoggerClient {
	if telemetry != nil {
		return &LoggerClient{
			logger: otelslog.NewLogger(cfg.Grafana.ServiceName, otelslog.WithLoggerProvider(telemetry.LoggerProvider)),
		}
	}

	level := slog.LevelInfo
	if cfg.Environment.Mode == "development" {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return &LoggerClient{logger: slog.New(handler)}
}

func (l *LoggerClient) InfoWithContextf(ctx context.Context, format string, args ...interface{}) {
	l.logger.InfoContext(ctx, fmt.Sprintf(format, args...))
}

func (l *LoggerClient) WarningWithContextf(ctx context.Context, format string, args ...interface{}) {
	l.logger.WarnContext(ctx, fmt.Sprintf(format, args...))
}

func (l *LoggerClient) ErrorWithContextf(ctx context.Context, err error, format string, args ...interface{}) {
	if err != nil {
		l.logger.ErrorContext(ctx, fmt.Sprintf(format, args...), slog.Any("error", err))
		return
	}
	l.logger.ErrorContext(ctx, fmt.Sprintf(format, args...))
}
