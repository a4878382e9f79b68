package logging

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewFileLogger returns a logger that writes to stdout and to a size rotated file at path. The
// returned closer releases the file.
func NewFileLogger(name, path string, lvl zapcore.Level) (Logger, io.Closer) {
	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    64,
		MaxBackups: 2,
		Compress:   true,
	}
	return newTeeLogger(name, lvl, zapcore.AddSync(file)), file
}

func newTeeLogger(name string, lvl zapcore.Level, sink zapcore.WriteSyncer) Logger {
	config := NewLoggerConfig()
	config.Level.SetLevel(lvl)

	fileEncoderConfig := config.EncoderConfig
	fileEncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(fileEncoderConfig), sink, config.Level)

	logger := zap.Must(config.Build(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, fileCore)
	})))
	return &impl{logger.Sugar().Named(name), config.Level}
}
