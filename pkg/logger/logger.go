package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const EnvProduction = "production"

type Log struct {
	LogLevel    zapcore.Level `yaml:"level" envconfig:"LOG_LEVEL"`
	Sink        string        `yaml:"sink" envconfig:"LOG_SINK"`
	Environment string        `yaml:"environment" envconfig:"ENVIRONMENT"`
}

// NewLogger builds a named zap logger. Production environments get JSON
// output, everything else a human readable console encoding.
// An unusable Sink falls back to stdout and the first entry says so.
func NewLogger(cfg Log, name string) *zap.Logger {
	return newLogger(cfg, name, zapcore.Lock(os.Stdout))
}

func newLogger(cfg Log, name string, stdout zapcore.WriteSyncer) *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encoder := zapcore.NewConsoleEncoder(encCfg)
	if cfg.Environment == EnvProduction {
		encCfg = zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	ws, sinkErr := sink(cfg.Sink, stdout)
	core := zapcore.NewCore(encoder, ws, zap.NewAtomicLevelAt(cfg.LogLevel))
	log := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.DPanicLevel)).Named(name)
	if sinkErr != nil {
		log.Warn("log sink unavailable, writing to stdout",
			zap.String("sink", cfg.Sink), zap.Error(sinkErr))
	}
	return log
}

func sink(path string, stdout zapcore.WriteSyncer) (zapcore.WriteSyncer, error) {
	if path == "" {
		return stdout, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return stdout, err
	}
	return zapcore.AddSync(f), nil
}
