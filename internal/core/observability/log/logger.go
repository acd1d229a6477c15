package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the production logger: JSON to stderr, sampled, no caller
// annotation. Level comes from the caller so binaries can expose a flag.
func New(level zapcore.Level) *zap.Logger {
	config := zap.Config{
		Level:       zap.NewAtomicLevelAt(level),
		Development: false,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		DisableCaller:    true,
	}
	logger, err := config.Build()
	if err != nil {
		panic(err)
	}
	return logger
}

// Nop returns a logger that discards everything. Default for library
// consumers and tests.
func Nop() *zap.Logger { return zap.NewNop() }
