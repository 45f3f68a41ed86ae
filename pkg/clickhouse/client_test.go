package clickhouse

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	ch "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN(ClientConfig{
		Host: "ch", Port: 9000, Database: "market", User: "default", Password: "pw",
		DialTimeout: 5 * time.Second, MaxExecTime: time.Minute, ReadOnly: true,
	})
	assert.Equal(t, "clickhouse://default:pw@ch:9000/market?dial_timeout=5s&max_execution_time=60&readonly=2", dsn)

	assert.Equal(t, "http://u:@ch:8123/db", buildDSN(ClientConfig{Host: "ch", Port: 8123, Database: "db", User: "u", UseHTTP: true}))
}

func TestNewClientRequiresHost(t *testing.T) {
	_, err := NewClient()
	assert.Error(t, err)
}

func TestClientOptions(t *testing.T) {
	cfg := &ClientConfig{Port: 9000, MaxOpenConns: 4, MaxIdleConns: 2, ConnMaxLifetime: time.Minute}
	for _, opt := range []ClientOption{
		WithAddr("ch", 0),
		WithPool(0, 1, 0),
		WithReadOnly(true),
	} {
		opt(cfg)
	}
	assert.Equal(t, "ch", cfg.Host)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 4, cfg.MaxOpenConns)
	assert.Equal(t, 1, cfg.MaxIdleConns)
	assert.Equal(t, time.Minute, cfg.ConnMaxLifetime)
	assert.True(t, cfg.ReadOnly)
}

func TestFormatValue(t *testing.T) {
	f := 22.5
	var nilPtr *float64
	assert.Equal(t, "", FormatValue(nil))
	assert.Equal(t, "22.5", FormatValue(22.5))
	assert.Equal(t, "22.5", FormatValue(&f))
	assert.Equal(t, "", FormatValue(nilPtr))
	assert.Equal(t, "42", FormatValue(int64(42)))
	assert.Equal(t, "Nifty 50", FormatValue([]byte("Nifty 50")))
	assert.Equal(t, "2024-01-31", FormatValue(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-01-31T09:15:00Z", FormatValue(time.Date(2024, 1, 31, 9, 15, 0, 0, time.UTC)))
}

func TestQueryStrings(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT \\* FROM market.raw_vix").
		WillReturnRows(sqlmock.NewRows([]string{"Date", "VIX_Close"}).
			AddRow(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), 14.2).
			AddRow(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), nil))

	cols, rows, err := NewClientFromDB(db).QueryStrings(context.Background(), "SELECT * FROM market.raw_vix ORDER BY Date")
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "VIX_Close"}, cols)
	assert.Equal(t, [][]string{{"2024-01-02", "14.2"}, {"2024-01-03", ""}}, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUnknownTable(t *testing.T) {
	err := fmt.Errorf("clickhouse query: %w", &ch.Exception{Code: 60, Message: "Table market.raw_vix does not exist"})
	assert.True(t, IsUnknownTable(err))
	assert.False(t, IsUnknownTable(&ch.Exception{Code: 241}))
	assert.False(t, IsUnknownTable(errors.New("boom")))
}
