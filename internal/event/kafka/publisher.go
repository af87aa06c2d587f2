package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tagdex/internal/metrics"
)

type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher implements tagging.Reindexer by publishing ReindexRequested events.
// Events are keyed by collection so one collection's requests stay ordered.
type Publisher struct {
	w       writer
	brokers []string
	logger  *zap.Logger
	now     func() time.Time
}

// NewPublisher creates a publisher writing to cfg.Topic.
func NewPublisher(cfg Config, logger *zap.Logger) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: brokers are required")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.topic(),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return newPublisher(w, cfg.Brokers, logger), nil
}

func newPublisher(w writer, brokers []string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{w: w, brokers: brokers, logger: logger, now: time.Now}
}

// RequestReindex publishes a ReindexRequested event for collection.
func (p *Publisher) RequestReindex(ctx context.Context, collection string) error {
	evt := ReindexRequested{
		EventID:     uuid.NewString(),
		Collection:  collection,
		RequestedAt: p.now().UTC(),
	}
	value, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal reindex event: %w", err)
	}

	err = p.w.WriteMessages(ctx, kafka.Message{Key: []byte(collection), Value: value})
	if err != nil {
		metrics.ReindexRequestsTotal.WithLabelValues("async", "error").Inc()
		return fmt.Errorf("publish reindex %s: %w", collection, err)
	}
	metrics.ReindexRequestsTotal.WithLabelValues("async", "ok").Inc()
	p.logger.Debug("reindex requested",
		zap.String("collection", collection),
		zap.String("event_id", evt.EventID),
	)
	return nil
}

// HealthCheck dials the first reachable broker.
func (p *Publisher) HealthCheck(ctx context.Context) error {
	var errs []error
	for _, b := range p.brokers {
		conn, err := kafka.DialContext(ctx, "tcp", b)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		return conn.Close()
	}
	return fmt.Errorf("kafka: no reachable broker: %w", errors.Join(errs...))
}

// Close flushes pending writes.
func (p *Publisher) Close() error {
	return p.w.Close()
}
