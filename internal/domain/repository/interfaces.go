package repository

import (
	"context"

	"MarketTiming/internal/domain/models"
)

// Source loads a raw table by its source key. Implementations return an error
// wrapping models.ErrSourceNotFound when the key has no backing table.
type Source interface {
	Load(ctx context.Context, key string) (*models.RawTable, error)
}

type SnapshotPublisher interface {
	Publish(ctx context.Context, s *models.Snapshot) error
	Close() error
}

type Metrics interface {
	RecordRun(ok bool, seconds float64)
	RecordSourceLoad(source string, err error)
	RecordSnapshot(s *models.Snapshot)
	RecordError(kind string)
}
