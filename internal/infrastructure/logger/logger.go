package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ISO8601Millis is the timestamp layout of JSON logs.
const ISO8601Millis = "2006-01-02T15:04:05.000Z07:00"

// Config selects level, encoding and destination of the process logger.
type Config struct {
	Level string
	// Format is "json" or "console".
	Format string
	// Output is stdout, stderr or a file path opened for append.
	Output     string
	TimeLayout string
	// Fields are attached to every entry.
	Fields []zap.Field
}

// New builds the process logger. extra cores, such as the OTLP bridge, are
// teed with the encoder core and filter levels on their own.
func New(cfg Config, extra ...zapcore.Core) (*zap.Logger, error) {
	output := cfg.Output
	if output == "" {
		output = "stdout"
	}
	sink, _, err := zap.Open(output)
	if err != nil {
		return nil, err
	}

	core := zapcore.NewCore(newEncoder(cfg), sink, ParseLevel(cfg.Level))
	if len(extra) > 0 {
		core = zapcore.NewTee(append([]zapcore.Core{core}, extra...)...)
	}
	return zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(cfg.Fields...),
	), nil
}

// ParseLevel reads a level name case-insensitively. "warning" is accepted
// for warn; anything unknown is info.
func ParseLevel(level string) zapcore.Level {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		return zapcore.WarnLevel
	}
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return parsed
}

func newEncoder(cfg Config) zapcore.Encoder {
	layout := cfg.TimeLayout
	if layout == "" {
		layout = ISO8601Millis
	}
	if cfg.Format == "console" {
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		ec.EncodeTime = zapcore.TimeEncoderOfLayout(layout)
		return zapcore.NewConsoleEncoder(ec)
	}
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "time"
	ec.EncodeTime = zapcore.TimeEncoderOfLayout(layout)
	ec.EncodeDuration = zapcore.MillisDurationEncoder
	return zapcore.NewJSONEncoder(ec)
}
