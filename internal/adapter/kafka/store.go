// Package kafka provides the Kafka-backed persistence collaborator:
// normalized reports and fetch audit logs are published to two append-only
// topics.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/space-weather-ingest/internal/config"
	"github.com/couchcryptid/space-weather-ingest/internal/domain"
)

// Store implements pipeline.Store on two Kafka topics. kafka-go writers are
// safe for concurrent use, which the orchestrator's fan-out relies on.
type Store struct {
	reports  *kafkago.Writer
	auditLog *kafkago.Writer
	logger   *slog.Logger
}

// NewStore creates writers for the report and fetch-log topics.
func NewStore(cfg *config.Config, logger *slog.Logger) *Store {
	newWriter := func(topic string) *kafkago.Writer {
		return &kafkago.Writer{
			Addr:         kafkago.TCP(cfg.KafkaBrokers...),
			Topic:        topic,
			Balancer:     &kafkago.LeastBytes{},
			RequiredAcks: kafkago.RequireAll,
		}
	}
	return &Store{
		reports:  newWriter(cfg.KafkaReportTopic),
		auditLog: newWriter(cfg.KafkaFetchLogTopic),
		logger:   logger,
	}
}

// SaveReport publishes one normalized report, keyed by source so a
// partition holds one agency's timeline in order.
func (s *Store) SaveReport(ctx context.Context, report domain.NormalizedReport) error {
	msg, err := reportToMessage(report)
	if err != nil {
		return err
	}
	return s.reports.WriteMessages(ctx, msg)
}

// SaveFetchLog publishes one audit entry.
func (s *Store) SaveFetchLog(ctx context.Context, entry domain.FetchLog) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("serialize fetch log: %w", err)
	}
	return s.auditLog.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(entry.Source),
		Value: data,
	})
}

func (s *Store) Close() error {
	repErr := s.reports.Close()
	logErr := s.auditLog.Close()
	if repErr != nil {
		return repErr
	}
	return logErr
}

// reportToMessage marshals a report into a Kafka message with routing
// headers.
func reportToMessage(report domain.NormalizedReport) (kafkago.Message, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize report: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(report.Source),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte(report.Source)},
			{Key: "fetched_at", Value: []byte(report.FetchedAt.Format(time.RFC3339))},
		},
	}, nil
}
