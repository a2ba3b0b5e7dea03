// Package logger holds the process-wide zap logger.
package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logMu sync.RWMutex
	log   *zap.Logger
	sugar *zap.SugaredLogger
)

// InitProduction installs a JSON logger at info level.
func InitProduction() error {
	return build(zap.NewProductionConfig())
}

// InitDevelopment installs a console logger at debug level.
func InitDevelopment() error {
	return build(zap.NewDevelopmentConfig())
}

func build(cfg zap.Config) error {
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	l, err := cfg.Build()
	if err != nil {
		return err
	}
	Set(l)
	return nil
}

// Set replaces the process logger and the zap globals.
func Set(l *zap.Logger) {
	logMu.Lock()
	defer logMu.Unlock()
	zap.ReplaceGlobals(l)
	if log != nil {
		_ = log.Sync()
	}
	log = l
	sugar = l.Sugar()
}

// Log returns the process logger, or zap's global one before Init.
func Log() *zap.Logger {
	logMu.RLock()
	defer logMu.RUnlock()
	if log != nil {
		return log
	}
	return zap.L()
}

// S returns the sugared process logger.
func S() *zap.SugaredLogger {
	logMu.RLock()
	defer logMu.RUnlock()
	if sugar != nil {
		return sugar
	}
	return zap.S()
}

// Or returns l when non-nil and the process logger otherwise.
func Or(l *zap.Logger) *zap.Logger {
	if l != nil {
		return l
	}
	return Log()
}

// Sync flushes buffered entries.
func Sync() {
	logMu.RLock()
	defer logMu.RUnlock()
	if log != nil {
		_ = log.Sync()
	}
}
