// Package logging builds the structured logger used by the contacts harness.
package logging

import (
	"fmt"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/smileynet/contacts/internal/config"
)

// Options configures New.
type Options struct {
	Log    config.Log
	Dev    bool      // Human-readable console output instead of JSON.
	Writer io.Writer // Console destination; nil disables console output.
}

// New builds a zap logger writing to opts.Writer and, when opts.Log.File is
// set, to a size-rotated file. The returned func flushes and closes outputs.
func New(opts Options) (*zap.Logger, func(), error) {
	level, err := zapcore.ParseLevel(opts.Log.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("logging: %w", err)
	}

	var cores []zapcore.Core
	if opts.Writer != nil {
		var enc zapcore.Encoder
		if opts.Dev {
			encCfg := zap.NewDevelopmentEncoderConfig()
			encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
			enc = zapcore.NewConsoleEncoder(encCfg)
		} else {
			enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		}
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(opts.Writer), level))
	}

	var file *lumberjack.Logger
	if opts.Log.File != "" {
		file = &lumberjack.Logger{
			Filename:   opts.Log.File,
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			MaxAge:     7, // days
			Compress:   true,
		}
		enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(file), level))
	}

	if len(cores) == 0 {
		return zap.NewNop(), func() {}, nil
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddStacktrace(zap.ErrorLevel))
	closeFn := func() {
		_ = logger.Sync()
		if file != nil {
			_ = file.Close()
		}
	}
	return logger, closeFn, nil
}
