package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Nop until Init runs, so packages and tests can log without setup.
var log = zap.NewNop().Sugar()

// Options describes the process logger.
type Options struct {
	Service string
	Level   string
	Env     string
}

// OptionsFromEnv reads LOG_LEVEL and APP_ENV for the named service.
func OptionsFromEnv(service string) Options {
	return Options{
		Service: service,
		Level:   os.Getenv("LOG_LEVEL"),
		Env:     os.Getenv("APP_ENV"),
	}
}

// Init installs the process logger for service. A build failure falls back
// to zap's example logger rather than exiting.
func Init(service string) {
	built, err := Build(OptionsFromEnv(service))
	if err != nil {
		Use(zap.NewExample().With(zap.String("service", service)))
		Warn("Failed to initialize logger, using fallback", "error", err)
		return
	}
	Use(built)
}

// Build returns JSON output with ISO8601 timestamps, or colored console
// output when Env is development. Every entry carries the service name.
func Build(opts Options) (*zap.Logger, error) {
	development := opts.Env == "development"

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	encoding := "json"
	if development {
		encoding = "console"
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(ParseLevel(opts.Level)),
		Development:      development,
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	var fields []zap.Option
	if opts.Service != "" {
		fields = append(fields, zap.Fields(zap.String("service", opts.Service)))
	}
	return config.Build(fields...)
}

// ParseLevel maps a level name to a zap level. Empty or unknown names are info.
func ParseLevel(name string) zapcore.Level {
	level, err := zapcore.ParseLevel(name)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// Use replaces the process logger.
func Use(l *zap.Logger) {
	log = l.Sugar()
}

func Debug(msg string, keysAndValues ...interface{}) {
	log.Debugw(msg, keysAndValues...)
}

func Info(msg string, keysAndValues ...interface{}) {
	log.Infow(msg, keysAndValues...)
}

func Warn(msg string, keysAndValues ...interface{}) {
	log.Warnw(msg, keysAndValues...)
}

func Error(msg string, keysAndValues ...interface{}) {
	log.Errorw(msg, keysAndValues...)
}

func Fatal(msg string, err error) {
	log.Fatalw(msg, "error", err)
}

func Sync() {
	_ = log.Sync()
}
