package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure_LevelParsing(t *testing.T) {
	levels := []string{"DEBUG", "info", "Warn", "WARNING", "error", "", "bogus"}
	for _, level := range levels {
		t.Run("level_"+level, func(t *testing.T) {
			logger := Configure(Config{Level: level})
			require.NotNil(t, logger)
		})
	}
}

func TestConfigure_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := configure(Config{Level: "INFO", Format: "json"}, &buf)

	logger.Info("zone created", "zone", "example.com.")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "zone created", line["msg"])
	assert.Equal(t, "example.com.", line["zone"])
}

func TestConfigure_ExtraFieldsAttached(t *testing.T) {
	var buf bytes.Buffer
	logger := configure(Config{
		Level:       "INFO",
		Format:      "json",
		ExtraFields: map[string]string{"region": "eu-1"},
	}, &buf)

	logger.Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "eu-1", line["region"])
}

func TestConfigure_DebugSuppressedAtInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := configure(Config{Level: "INFO", Format: "json"}, &buf)

	logger.Debug("hidden")
	assert.Zero(t, buf.Len())
}
