package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger_UnusableSinkIsReported(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	// a directory cannot be opened for writing
	log := newLogger(Log{
		LogLevel:    zapcore.InfoLevel,
		Sink:        t.TempDir(),
		Environment: EnvProduction,
	}, "book", zapcore.AddSync(&out))

	log.Info("after fallback")
	require.NoError(t, log.Sync())

	require.Contains(t, out.String(), `"msg":"log sink unavailable, writing to stdout"`)
	require.Contains(t, out.String(), `"msg":"after fallback"`)
}
