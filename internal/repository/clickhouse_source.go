package repository

import (
	"context"
	"fmt"
	"regexp"

	"MarketTiming/internal/domain/models"
	"MarketTiming/pkg/clickhouse"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ClickHouseSource reads raw tables from <database>.<prefix><key>, one
// warehouse table per source key with the same columns as the CSV files.
type ClickHouseSource struct {
	client   *clickhouse.Client
	database string
	prefix   string
	orderBy  string
}

func NewClickHouseSource(client *clickhouse.Client, database, prefix, orderBy string) *ClickHouseSource {
	return &ClickHouseSource{client: client, database: database, prefix: prefix, orderBy: orderBy}
}

func (s *ClickHouseSource) Load(ctx context.Context, key string) (*models.RawTable, error) {
	table := s.prefix + key
	for _, id := range []string{s.database, table, s.orderBy} {
		if !identRe.MatchString(id) {
			return nil, fmt.Errorf("clickhouse source %q: invalid identifier %q", key, id)
		}
	}

	q := fmt.Sprintf("SELECT * FROM `%s`.`%s` ORDER BY `%s`", s.database, table, s.orderBy)
	cols, rows, err := s.client.QueryStrings(ctx, q)
	if err != nil {
		if clickhouse.IsUnknownTable(err) {
			return nil, fmt.Errorf("%w: %s.%s", models.ErrSourceNotFound, s.database, table)
		}
		return nil, err
	}
	return &models.RawTable{
		Key:    key,
		Origin: "clickhouse:" + s.database + "." + table,
		Header: cols,
		Rows:   rows,
	}, nil
}
