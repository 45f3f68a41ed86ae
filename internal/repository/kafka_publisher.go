package repository

import (
	"context"

	"MarketTiming/internal/domain/models"
	pkgkafka "MarketTiming/pkg/kafka"
)

// SnapshotEvent is the message published for every successful run.
type SnapshotEvent struct {
	models.Summary
	Allocation *models.Allocation        `json:"allocation,omitempty"`
	Sectors    []models.SectorValuation `json:"sectors,omitempty"`
	DurationMS int64                     `json:"duration_ms"`
}

// KafkaSnapshotPublisher implements SnapshotPublisher for Kafka. Events are
// keyed by the signal month so compaction keeps one event per month.
type KafkaSnapshotPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaSnapshotPublisher(producer *pkgkafka.Producer, topic string) *KafkaSnapshotPublisher {
	return &KafkaSnapshotPublisher{producer: producer, topic: topic}
}

func (p *KafkaSnapshotPublisher) Publish(ctx context.Context, s *models.Snapshot) error {
	ev := SnapshotEvent{
		Summary:    s.Summary(),
		Allocation: s.Latest.Allocation,
		Sectors:    s.Sectors,
		DurationMS: s.Duration.Milliseconds(),
	}
	key := []byte(s.Latest.Date.Format("2006-01"))
	return p.producer.Publish(ctx, p.topic, key, ev)
}

func (p *KafkaSnapshotPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NopPublisher drops snapshots. Used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *models.Snapshot) error { return nil }
func (NopPublisher) Close() error                                    { return nil }

