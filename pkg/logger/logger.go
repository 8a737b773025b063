package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap's sugared logger with request-scoped helpers.
type Logger struct {
	*zap.SugaredLogger
}

// New builds a logger for the given level and environment. Production
// gets sampled JSON output; anything else gets colored console output.
func New(level, environment string) *Logger {
	config := configFor(environment)
	config.Level = zap.NewAtomicLevelAt(parseLevel(level))

	zapLog, err := config.Build()
	if err != nil {
		panic(err)
	}

	return &Logger{SugaredLogger: zapLog.Sugar()}
}

func configFor(environment string) zap.Config {
	if environment == "production" {
		return zap.NewProductionConfig()
	}
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return config
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Fatal logs a message and exits.
func (l *Logger) Fatal(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Fatalw(msg, keysAndValues...)
	os.Exit(1)
}

// WithError returns a logger carrying an error field.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With("error", err)}
}

// ForRequest returns a logger carrying per-request correlation fields.
func (l *Logger) ForRequest(requestID, method, path string) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(
		"request_id", requestID,
		"method", method,
		"path", path,
	)}
}

// Zap returns the underlying structured logger for packages that take
// *zap.Logger directly.
func (l *Logger) Zap() *zap.Logger {
	return l.SugaredLogger.Desugar()
}
