package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud", Output: "stdout"})
	require.Error(t, err)
}

func TestFieldsAreWritten(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf).With(String("component", "pipeline"))

	log.Info("run finished",
		Int("rows", 240),
		Float64("score", 0.7),
		Float64("erp", math.NaN()),
		Duration("took", 1500*time.Millisecond),
		Bool("cached", true),
		Strings("series", []string{"vix", "gsec"}),
		Error(errors.New("boom")),
	)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "run finished", entry["message"])
	assert.Equal(t, "pipeline", entry["component"])
	assert.EqualValues(t, 240, entry["rows"])
	assert.InDelta(t, 0.7, entry["score"], 1e-9)
	assert.Equal(t, "NaN", entry["erp"])
	assert.EqualValues(t, 1500, entry["took"])
	assert.Equal(t, true, entry["cached"])
	assert.Equal(t, "vix, gsec", entry["series"])
	assert.Equal(t, "boom", entry["error"])
}

func TestNopDiscards(t *testing.T) {
	assert.NotPanics(t, func() { Nop().Warn("ignored", Int("n", 1)) })
}
