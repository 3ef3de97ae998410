package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	Log   *zap.Logger
	Sugar *zap.SugaredLogger
)

// Options selects where and how verbosely Setup logs.
type Options struct {
	Dir   string
	Level string
}

func init() {
	// Until Setup is called, only warnings and errors go to stderr.
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig()),
		zapcore.Lock(os.Stderr),
		zapcore.WarnLevel,
	)
	replace(zap.New(core, zap.AddCaller()))
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format("2006/01/02 15:04:05"))
	}
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncodeCaller = zapcore.ShortCallerEncoder
	return cfg
}

// Setup redirects logging to <dir>/lanshare.log. The level comes from opts
// unless LANSHARE_LOG_LEVEL or LOG_LEVEL is set.
func Setup(opts Options) error {
	dir := opts.Dir
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}

	file, err := os.OpenFile(filepath.Join(dir, "lanshare.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	level := ParseLevel(opts.Level)
	levelStr := strings.TrimSpace(os.Getenv("LANSHARE_LOG_LEVEL"))
	if levelStr == "" {
		levelStr = strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	}
	if levelStr != "" {
		level = ParseLevel(levelStr)
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig()),
		zapcore.AddSync(file),
		level,
	)

	replace(zap.New(core, zap.AddCaller()))
	return nil
}

// ParseLevel maps a level name onto a zap level, defaulting to info.
func ParseLevel(s string) zapcore.Level {
	level := zapcore.InfoLevel
	if s = strings.TrimSpace(s); s != "" {
		_ = level.UnmarshalText([]byte(strings.ToLower(s)))
	}
	return level
}

func replace(l *zap.Logger) {
	Log = l
	Sugar = l.Sugar()
}

// Sync flushes buffered log entries.
func Sync() {
	_ = Log.Sync()
}
