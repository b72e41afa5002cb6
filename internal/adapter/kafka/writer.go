package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/epi-report-service/internal/config"
	"github.com/couchcryptid/epi-report-service/internal/domain"
	"github.com/couchcryptid/epi-report-service/internal/export"
	"github.com/couchcryptid/epi-report-service/internal/observability"
)

// messageWriter is the subset of *kafkago.Writer the exporter uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes aggregated tables to a Kafka topic, one message per
// entity and date.
type Writer struct {
	writer  messageWriter
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewWriter creates a Kafka producer for the configured export topic.
// metrics may be nil.
func NewWriter(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, metrics: metrics, logger: logger}
}

// Publish serializes every observed cell of t and writes them in a single
// WriteMessages call. Messages of one entity share a key and so a partition.
func (w *Writer) Publish(ctx context.Context, t domain.Table) (int, error) {
	rows := export.Rows(t)
	if len(rows) == 0 {
		return 0, nil
	}
	column := ""
	if wt, ok := t.(*domain.WideTable); ok {
		column = wt.Column
	}
	generatedAt := domain.Now()

	msgs := make([]kafkago.Message, len(rows))
	for i := range rows {
		msg, err := serializeToMessage(rows[i], column, generatedAt)
		if err != nil {
			return 0, err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return 0, fmt.Errorf("publish %d rows: %w", len(msgs), err)
	}
	if w.metrics != nil {
		w.metrics.MessagesPublished.Add(float64(len(msgs)))
	}
	w.logger.Info("aggregate published", "messages", len(msgs), "entities", len(t.Entities()))
	return len(msgs), nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// message is the JSON value of an exported row. Dates are ISO calendar days;
// non-finite values are null.
type message struct {
	Name   string                  `json:"name"`
	Date   string                  `json:"date"`
	Values map[string]export.Float `json:"values"`
}

// serializeToMessage marshals a table row into a Kafka message keyed by
// entity name. column is empty for long tables.
func serializeToMessage(row export.Row, column string, generatedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(message{
		Name:   row.Name,
		Date:   row.Date.Format("2006-01-02"),
		Values: export.FloatMap(row.Values),
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize row %s %s: %w", row.Name, domain.FormatDay(row.Date), err)
	}
	return kafkago.Message{
		Key:   []byte(row.Name),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "column", Value: []byte(column)},
			{Key: "generated_at", Value: []byte(generatedAt.Format(time.RFC3339))},
		},
	}, nil
}
