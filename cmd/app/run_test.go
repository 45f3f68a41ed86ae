package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketTiming/internal/domain/models"
)

func reportSnapshot() *models.Snapshot {
	feb := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	jan := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	latest := models.Signal{
		Date:   feb,
		Label:  "SELL",
		Score:  -1.4,
		Regime: "BULL RUN",
		SubScores: []models.SubScore{
			{Name: "PE", Column: "PE_Percentile", Value: 91.5, Label: "EXPENSIVE", Score: -2, Weight: 0.4},
			{Name: "ERP", Column: "ERP", Value: models.Float(models.Missing), Label: models.NoDataLabel, Weight: 0.35},
		},
		Allocation: &models.Allocation{Model: "Defensive", Equity: "30%", Gold: "20%", Debt: "50%"},
	}
	return &models.Snapshot{
		GeneratedAt: feb.Add(time.Hour),
		Latest:      latest,
		History:     []models.Signal{{Date: jan, Label: "HOLD", Regime: "TRANSITIONAL"}, latest},
		Statuses: []models.SeriesStatus{
			{Name: "Nifty50", State: models.SeriesLoaded, Rows: 500, Last: &feb},
			{Name: "GSec_Yield", State: models.SeriesDefaulted, Message: "source not found; using default 7.2"},
		},
	}
}

func TestWriteTextReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeTextReport(&buf, reportSnapshot()))
	out := buf.String()

	assert.Contains(t, out, "Signal:  SELL (score -1.40) as of 2024-02-29")
	assert.Contains(t, out, "Regime:  BULL RUN")
	assert.Contains(t, out, "Model:   Defensive (equity 30%, gold 20%, debt 50%)")
	assert.Contains(t, out, "91.50")
	assert.Contains(t, out, "n/a")
	assert.Contains(t, out, "using default 7.2")
	assert.Contains(t, out, "2024-01")
	assert.Contains(t, out, "TRANSITIONAL")
}

func TestWriteJSONReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSONReport(&buf, reportSnapshot()))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "SELL", got["label"])
	assert.Equal(t, "BULL RUN", got["regime"])
	assert.Len(t, got["history"], 2)
	assert.Contains(t, got, "allocation")
	assert.NotContains(t, got, "sectors")

	subs := got["sub_scores"].([]any)
	require.Len(t, subs, 2)
	assert.Nil(t, subs[1].(map[string]any)["value"])
}

func TestRootCommandWiring(t *testing.T) {
	root := newRootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["run"])
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))

	run, _, err := root.Find([]string{"run"})
	require.NoError(t, err)
	assert.NotNil(t, run.Flags().Lookup("json"))
}

func TestRunCommandConfigError(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"run", "--config", "does-not-exist.yaml"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config load failed")
}
