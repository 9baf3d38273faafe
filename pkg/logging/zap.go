package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the zap backend behind a Logger.
type Config struct {
	Level  string `yaml:"level,omitempty"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format,omitempty"` // "json", "console"
	Output string `yaml:"output,omitempty"` // "stdout", "stderr", file path
}

// DefaultConfig logs human-readable lines to stderr, leaving stdout to the
// supervised services.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "console",
		Output: "stderr",
	}
}

// ValidLevels lists the accepted Config.Level values.
var ValidLevels = []string{"debug", "info", "warn", "error"}

// NewZapLogger builds a zap-backed Logger. The returned func flushes and
// releases the output and must be called before exit.
func NewZapLogger(config Config) (Logger, func(), error) {
	if config.Level == "" {
		config.Level = "info"
	}
	level, err := zapcore.ParseLevel(config.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", config.Level, err)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	encoderConfig.LevelKey = "level"
	encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder

	var encoder zapcore.Encoder
	switch config.Format {
	case "json":
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	case "console", "":
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	default:
		return nil, nil, fmt.Errorf("invalid log format %q", config.Format)
	}

	output := config.Output
	if output == "" {
		output = "stderr"
	}
	writeSyncer, closeOutput, err := zap.Open(output)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log output %q: %w", output, err)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(writeSyncer), level)
	zapLogger := zap.New(core, zap.AddStacktrace(zapcore.ErrorLevel))

	cleanup := func() {
		_ = zapLogger.Sync()
		closeOutput()
	}
	return NewZapLoggerFromCore(zapLogger), cleanup, nil
}

// NewZapLoggerFromCore adapts an existing zap logger.
func NewZapLoggerFromCore(zapLogger *zap.Logger) Logger {
	sugar := zapLogger.Sugar()
	return NewLogger("", LogFuncs{
		Debugf: sugar.Debugf,
		Infof:  sugar.Infof,
		Warnf:  sugar.Warnf,
		Errorf: sugar.Errorf,
	})
}
