// Package logger builds the process-wide zap logger. Output always goes to
// stdout; when a file is configured it is also written as JSON to a
// lumberjack-rotated file.
package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/iliyamo/pharmacy-marketplace/internal/config"
)

// New builds a logger from cfg without installing it globally.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		lvl, err := zap.ParseAtomicLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return nil, err
		}
		zapConfig.Level = lvl
	}
	zapConfig.OutputPaths = []string{"stdout"}

	if cfg.File == "" {
		return zapConfig.Build(zap.AddCaller())
	}

	console := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	if cfg.Mode == "production" {
		console = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}
	core := zapcore.NewTee(
		zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(Rotating(cfg.File, cfg)),
			zapConfig.Level,
		),
		zapcore.NewCore(console, zapcore.AddSync(os.Stdout), zapConfig.Level),
	)
	return zap.New(core, zap.AddCaller()), nil
}

// Init builds the logger and installs it as zap's global logger.
func Init(cfg config.LogConfig) (*zap.Logger, error) {
	l, err := New(cfg)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(l)
	return l, nil
}

// Rotating returns a size-rotated file writer for path using the retention
// settings of cfg.
func Rotating(path string, cfg config.LogConfig) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
}

// NewFileOnly returns a JSON logger that writes to a rotated file and
// nowhere else. The audit consumer uses it to keep domain events apart from
// the request log.
func NewFileOnly(path string, cfg config.LogConfig) *zap.Logger {
	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.AddSync(Rotating(path, cfg)), zap.InfoLevel)
	return zap.New(core)
}
