package observability

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/andeantech/ventas-bff/internal/config"
)

// NewLogger builds the service's JSON logger.
//
// Level conventions:
//   - error: infrastructure failures (store down, unhandled panics), 5xx
//   - warn:  client errors, catalog load failures, circuit breaker opens
//   - info:  request lines, session lifecycle, generation outcomes
//   - debug: draft mutations, derived view computation
func NewLogger(cfg config.ObservabilityConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Sampling = nil
	zc.EncoderConfig.TimeKey = "timestamp"
	zc.EncoderConfig.MessageKey = "msg"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.EncoderConfig.EncodeDuration = zapcore.MillisDurationEncoder
	zc.InitialFields = map[string]any{"service": "ventas-bff"}

	return zc.Build()
}
