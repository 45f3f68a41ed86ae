package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketTiming/internal/domain/models"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadBuiltInDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, time.Hour, c.Sources.CacheTTL)
	assert.Equal(t, "@every 1h", c.Pipeline.Schedule)
	assert.Equal(t, 12, c.Pipeline.HistorySize)
	assert.Equal(t, []int{50, 200}, c.Pipeline.Indicators.MovingAverages)
	assert.Equal(t, models.PercentileStatic, c.Pipeline.Indicators.PercentileMode)
	assert.InDelta(t, 7.2, c.Pipeline.BondYield.Anchor, 1e-9)
	assert.Len(t, c.Series, 9)
	assert.Len(t, c.Signals.Composite.Inputs, 3)
	assert.Equal(t, models.DefaultRegime, c.Signals.Regimes[len(c.Signals.Regimes)-1].Label)

	for _, d := range c.Series {
		assert.Equal(t, "Date", d.DateColumn, d.Name)
		assert.NotEmpty(t, d.Fill, d.Name)
		assert.NotEmpty(t, d.MonthlyAgg, d.Name)
	}
}

func TestLoadRepositoryConfig(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "config", "config.yaml"))
	require.NoError(t, err)

	assert.True(t, c.Metrics.Enabled)
	assert.Equal(t, 3, c.Server.RefreshLimit.Burst)
	assert.Equal(t, time.Minute, c.Server.RefreshLimit.Interval)
	assert.Len(t, c.Series, 9)
	weights := 0.0
	for _, in := range c.Signals.Composite.Inputs {
		weights += in.Weight
		assert.Equal(t, in.Name, in.Table.Name)
	}
	assert.InDelta(t, 1.0, weights, 1e-9)
	assert.Equal(t, models.AggMean, c.Series[1].MonthlyAgg)
}

func TestLoadOverridesAndElementDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
pipeline:
  indicators:
    moving_averages: [20]
series:
  - name: Close
    source: nifty50
    base: true
`)
	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, []int{20}, c.Pipeline.Indicators.MovingAverages)
	require.Len(t, c.Series, 1)
	assert.Equal(t, "Close", c.Series[0].ValueColumn)
	assert.Equal(t, models.FillForward, c.Series[0].Fill)
	assert.Equal(t, models.GranularityDate, c.Series[0].Granularity)
}

func TestValidateRequiresSingleBase(t *testing.T) {
	path := writeConfig(t, `
series:
  - name: A
    source: nifty50
  - name: B
    source: vix
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one base series")
}

func TestValidateRejectsUnorderedBands(t *testing.T) {
	path := writeConfig(t, `
signals:
  composite:
    inputs:
      - name: valuation
        column: ERP
        weight: 1
        table:
          direction: higher_is_better
          bands:
            - {bound: 1, label: LOW, score: 0}
            - {bound: 2, label: HIGH, score: 1}
          floor: {label: NONE, score: -1}
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be less than")
}

func TestValidateRejectsUnknownFillPolicy(t *testing.T) {
	path := writeConfig(t, `
series:
  - name: Nifty50
    source: nifty50
    base: true
    fill: backward
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("MT_DATA_DIR", "/srv/a, /srv/b")
	t.Setenv("MT_REDIS_ADDR", "cache:6380")
	t.Setenv("MT_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("MT_HTTP_PORT", "8181")
	t.Setenv("MT_LOG_LEVEL", "debug")

	c, err := LoadWithEnv("")
	require.NoError(t, err)

	assert.Equal(t, []string{"/srv/a", "/srv/b"}, c.Sources.DataDirs)
	assert.True(t, c.Cache.Redis.Enabled)
	assert.Equal(t, "cache", c.Cache.Redis.Host)
	assert.Equal(t, 6380, c.Cache.Redis.Port)
	assert.True(t, c.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.Equal(t, 8181, c.Server.Port)
	assert.Equal(t, "debug", c.Log.Level)
}

func TestLoadWithEnvRejectsBadPort(t *testing.T) {
	t.Setenv("MT_HTTP_PORT", "http")
	_, err := LoadWithEnv("")
	require.Error(t, err)
}
