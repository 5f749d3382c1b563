package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, logrus.WarnLevel, ParseLevel(" WARN "))
	assert.Equal(t, logrus.InfoLevel, ParseLevel(""))
	assert.Equal(t, logrus.InfoLevel, ParseLevel("chatty"))
}

func TestNewProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "production", "info")

	logger.WithField("sector", "Construction").Info("Sector forecast")
	logger.Debug("hidden")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Sector forecast", entry["msg"])
	assert.Equal(t, "Construction", entry["sector"])
	assert.Equal(t, "info", entry["level"])
}

func TestNewDevelopmentWritesText(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "development", "debug")

	logger.Debug("starting")
	assert.Contains(t, buf.String(), "level=debug")
	assert.Contains(t, buf.String(), `msg=starting`)
}
