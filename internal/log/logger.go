package log

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mrlokans/kobo-highlights/internal/config"
)

// Logger is the process-wide logger. It discards everything until Setup is called.
var Logger = zap.NewNop()

func Info(msg string, fields ...zap.Field) {
	Logger.Info(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	Logger.Error(msg, fields...)
}

func Debug(msg string, fields ...zap.Field) {
	Logger.Debug(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	Logger.Warn(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	Logger.Fatal(msg, fields...)
}

// Sync flushes buffered entries. Errors from syncing stdout are ignored.
func Sync() {
	_ = Logger.Sync()
}

// Setup replaces Logger with one built from cfg.
func Setup(cfg config.Log) {
	Logger = New(cfg)
}

// New builds a console logger on stdout, teed into a rotated JSON file when
// cfg.File is set.
func New(cfg config.Log) *zap.Logger {
	encodeConfig := zap.NewProductionEncoderConfig()
	encodeConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	level := ParseLevel(cfg.Level)

	consoleEncoder := zapcore.NewConsoleEncoder(encodeConfig)
	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), level),
	}

	if cfg.File != "" {
		rotationLog := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.FileMaxSize, // megabytes
			MaxBackups: cfg.FileMaxBackups,
			MaxAge:     cfg.FileMaxAge, // days
			Compress:   cfg.Compress,
		}
		fileEncoder := zapcore.NewJSONEncoder(encodeConfig)
		cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.AddSync(rotationLog), level))
	}

	core := zapcore.NewTee(cores...)

	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel))
}

func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
