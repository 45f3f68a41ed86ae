package repository

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	ch "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"MarketTiming/internal/domain/models"
	"MarketTiming/pkg/cache"
	"MarketTiming/pkg/clickhouse"
	pkghttp "MarketTiming/pkg/http"
	"MarketTiming/pkg/logger"
)

const vixCSV = "\ufeffDate, VIX_Close\n2024-01-02,14.5\n2024-01-03,\"15.25\"\n"

func TestDecodeTableCSV(t *testing.T) {
	tbl, err := DecodeTable(strings.NewReader(vixCSV), "India_VIX_Yahoo.csv", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "VIX_Close"}, tbl.Header)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "15.25", tbl.Rows[1][1])

	_, err = DecodeTable(strings.NewReader(""), "empty.csv", "")
	assert.ErrorIs(t, err, errEmptyDocument)
}

func TestFileSourceSearchesDirectoriesInOrder(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(second, "vix.csv"), []byte(vixCSV), 0o644))

	src := NewFileSource([]string{first, second}, map[string]string{"vix": "vix.csv"}, "", logger.Nop())
	tbl, err := src.Load(context.Background(), "vix")
	require.NoError(t, err)
	assert.Equal(t, "vix", tbl.Key)
	assert.Equal(t, "local:"+filepath.Join(second, "vix.csv"), tbl.Origin)
	assert.Len(t, tbl.Rows, 2)

	_, err = src.Load(context.Background(), "gsec")
	assert.ErrorIs(t, err, models.ErrSourceNotFound)

	src = NewFileSource([]string{first}, map[string]string{"vix": "vix.csv"}, "", logger.Nop())
	_, err = src.Load(context.Background(), "vix")
	assert.ErrorIs(t, err, models.ErrSourceNotFound)
}

func TestFileSourceReadsXLSX(t *testing.T) {
	dir := t.TempDir()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Date", "Index", "PE_Ratio"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"2024-01-31", "Nifty 50", "22.4"}))
	require.NoError(t, f.SaveAs(filepath.Join(dir, "pe.xlsx")))
	require.NoError(t, f.Close())

	src := NewFileSource([]string{dir}, map[string]string{"pe_data": "pe.xlsx"}, "", logger.Nop())
	tbl, err := src.Load(context.Background(), "pe_data")
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "Index", "PE_Ratio"}, tbl.Header)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "Nifty 50", tbl.Rows[0][1])
}

func TestRemoteSource(t *testing.T) {
	var failures atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data/vix.csv":
			_, _ = w.Write([]byte(vixCSV))
		case "/data/broken.csv":
			failures.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	files := map[string]string{"vix": "vix.csv", "gsec": "gsec.csv", "broken": "broken.csv"}
	src := NewRemoteSource(pkghttp.NewClient(pkghttp.WithTimeout(2*time.Second)), srv.URL+"/data/", files, "",
		BreakerSettings{MaxFailures: 2, OpenTimeout: time.Minute}, logger.Nop())
	ctx := context.Background()

	tbl, err := src.Load(ctx, "vix")
	require.NoError(t, err)
	assert.Equal(t, "remote:"+srv.URL+"/data/vix.csv", tbl.Origin)

	// 404 does not count against the breaker
	for i := 0; i < 3; i++ {
		_, err = src.Load(ctx, "gsec")
		assert.ErrorIs(t, err, models.ErrSourceNotFound)
	}

	for i := 0; i < 2; i++ {
		_, err = src.Load(ctx, "broken")
		var se *pkghttp.StatusError
		assert.True(t, errors.As(err, &se))
	}
	_, err = src.Load(ctx, "broken")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), failures.Load())
}

func TestClickHouseSource(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	src := NewClickHouseSource(clickhouse.NewClientFromDB(db), "market", "raw_", "Date")

	mock.ExpectQuery("SELECT \\* FROM `market`.`raw_vix` ORDER BY `Date`").
		WillReturnRows(sqlmock.NewRows([]string{"Date", "VIX_Close"}).
			AddRow(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), 14.5))
	tbl, err := src.Load(context.Background(), "vix")
	require.NoError(t, err)
	assert.Equal(t, "clickhouse:market.raw_vix", tbl.Origin)
	assert.Equal(t, [][]string{{"2024-01-02", "14.5"}}, tbl.Rows)

	mock.ExpectQuery("SELECT \\* FROM `market`.`raw_gsec`").
		WillReturnError(&ch.Exception{Code: 60, Message: "Table market.raw_gsec does not exist"})
	_, err = src.Load(context.Background(), "gsec")
	assert.ErrorIs(t, err, models.ErrSourceNotFound)

	_, err = src.Load(context.Background(), "bad key; DROP")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

type stubSource struct {
	calls atomic.Int32
	table *models.RawTable
	err   error
}

func (s *stubSource) Load(_ context.Context, key string) (*models.RawTable, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	t := *s.table
	t.Key = key
	return &t, nil
}

func TestFallbackSource(t *testing.T) {
	missing := &stubSource{err: models.ErrSourceNotFound}
	ok := &stubSource{table: &models.RawTable{Origin: "remote:x", Header: []string{"Date"}}}

	tbl, err := NewFallbackSource(missing, ok).Load(context.Background(), "vix")
	require.NoError(t, err)
	assert.Equal(t, "remote:x", tbl.Origin)

	boom := &stubSource{err: errors.New("boom")}
	_, err = NewFallbackSource(missing, boom).Load(context.Background(), "vix")
	assert.ErrorIs(t, err, models.ErrSourceNotFound)
	assert.ErrorContains(t, err, "boom")
}

func TestCachedSource(t *testing.T) {
	store := cache.NewMemoryCache()
	defer store.Close()
	next := &stubSource{table: &models.RawTable{Origin: "local:vix.csv", Header: []string{"Date", "VIX_Close"}, Rows: [][]string{{"2024-01-02", "14.5"}}}}
	src := NewCachedSource(next, store, time.Hour, logger.Nop())
	ctx := context.Background()

	a, err := src.Load(ctx, "vix")
	require.NoError(t, err)
	b, err := src.Load(ctx, "vix")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, int32(1), next.calls.Load())

	require.NoError(t, src.Invalidate(ctx, "vix"))
	_, err = src.Load(ctx, "vix")
	require.NoError(t, err)
	assert.Equal(t, int32(2), next.calls.Load())

	// no keys drops everything requested so far
	_, err = src.Load(ctx, "pe")
	require.NoError(t, err)
	assert.Equal(t, int32(3), next.calls.Load())
	require.NoError(t, src.Invalidate(ctx))
	_, err = src.Load(ctx, "vix")
	require.NoError(t, err)
	_, err = src.Load(ctx, "pe")
	require.NoError(t, err)
	assert.Equal(t, int32(5), next.calls.Load())
	require.NoError(t, NewCachedSource(next, store, time.Hour, logger.Nop()).Invalidate(ctx))

	failing := NewCachedSource(&stubSource{err: models.ErrSourceNotFound}, store, time.Hour, logger.Nop())
	_, err = failing.Load(ctx, "gsec")
	assert.ErrorIs(t, err, models.ErrSourceNotFound)
	_, err = store.Get(ctx, cache.GenerateKey("raw", "gsec"))
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}
