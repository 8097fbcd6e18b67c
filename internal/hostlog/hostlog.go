// Package hostlog provides structured logging for m1ctl using zap.
//
// This is the host-side counterpart to internal/logsink: the target image
// can't allocate or format, so it writes fixed strings straight to a UART;
// m1ctl runs on an ordinary OS and gets the real thing, grounded on
// zboralski-galago's internal/log package.
package hostlog

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	L    *zap.Logger
	once sync.Once
)

// Init initializes the global logger. Safe to call multiple times; only
// the first call takes effect.
func Init(debug bool) {
	once.Do(func() {
		L = New(debug)
	})
}

func New(debug bool) *zap.Logger {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		logger = zap.NewNop()
	}
	return logger
}

// RequestID creates the correlation-id field attached to every wire
// transaction m1ctl issues, so a captured session log can be replayed
// request-by-request against the serial trace.
func RequestID(id string) zap.Field {
	return zap.String("req_id", id)
}

// Command creates a field naming the proxyproto.Command a log line
// concerns.
func Command(name string) zap.Field {
	return zap.String("cmd", name)
}
