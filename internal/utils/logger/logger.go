package logger

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	base  *zap.Logger
	once  sync.Once
)

// Logger returns the shared sugared logger. Packages may capture it at
// init time; the level stays adjustable through SetLevel afterwards.
func Logger() *zap.SugaredLogger {
	once.Do(func() {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		core := zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.Lock(os.Stderr),
			level,
		)
		base = zap.New(core)
		zap.ReplaceGlobals(base)
	})
	return base.Sugar()
}

// SetLevel adjusts the level of the shared logger.
// Accepted values: debug, info, warn, error.
func SetLevel(lvl string) error {
	parsed, err := zapcore.ParseLevel(lvl)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", lvl, err)
	}
	level.SetLevel(parsed)
	return nil
}

// Sync flushes buffered log entries. Errors from syncing stderr are ignored.
func Sync() {
	if base != nil {
		_ = base.Sync()
	}
}
