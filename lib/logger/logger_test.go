package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer

	log, err := newLogger(EnvProd, &buf)
	require.NoError(t, err)
	log.Debug("hidden")
	log.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	log, err = newLogger(EnvLocal, &buf)
	require.NoError(t, err)
	log.Debug("debug line")
	assert.Contains(t, buf.String(), "debug line")
}

func TestNewLoggerRejectsUnknownEnv(t *testing.T) {
	_, err := newLogger("staging", &bytes.Buffer{})
	assert.Error(t, err)
}
