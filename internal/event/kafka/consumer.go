package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tagdex/internal/domain"
)

type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Rebuilder performs the actual rebuild for a collection.
type Rebuilder interface {
	RequestReindex(ctx context.Context, collection string) error
}

const (
	defaultMinBackoff = 500 * time.Millisecond
	defaultMaxBackoff = 30 * time.Second
)

// Consumer reads ReindexRequested events and rebuilds the named collections.
// Messages are handled strictly in order: a failed rebuild is retried with
// backoff until it succeeds, and only then is its offset committed. Group
// commits are cumulative, so moving past an uncommitted message would lose it.
type Consumer struct {
	r          reader
	rebuilder  Rebuilder
	logger     *zap.Logger
	minBackoff time.Duration
	maxBackoff time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewConsumer creates a consumer-group reader on cfg.Topic.
func NewConsumer(cfg Config, rebuilder Rebuilder, logger *zap.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: brokers are required")
	}
	if cfg.GroupID == "" {
		return nil, errors.New("kafka: group id is required")
	}
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.topic(),
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return newConsumer(r, rebuilder, logger), nil
}

func newConsumer(r reader, rebuilder Rebuilder, logger *zap.Logger) *Consumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consumer{
		r:          r,
		rebuilder:  rebuilder,
		logger:     logger,
		minBackoff: defaultMinBackoff,
		maxBackoff: defaultMaxBackoff,
		sleep:      sleepCtx,
	}
}

// Run processes events until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("reindex worker started")
	delay := c.minBackoff
	for {
		msg, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("reindex worker stopped")
				return nil
			}
			c.logger.Error("fetch reindex event", zap.Error(err), zap.Duration("retry_in", delay))
			if c.sleep(ctx, delay) != nil {
				c.logger.Info("reindex worker stopped")
				return nil
			}
			delay = c.next(delay)
			continue
		}
		delay = c.minBackoff

		if !c.handle(ctx, msg) {
			c.logger.Info("reindex worker stopped", zap.Int64("uncommitted_offset", msg.Offset))
			return nil
		}
		c.commit(ctx, msg)
	}
}

// handle returns true when the message is done and should be committed. It
// returns false only if ctx is cancelled before the rebuild succeeds; the
// message then stays uncommitted and is redelivered to the next group member.
func (c *Consumer) handle(ctx context.Context, msg kafka.Message) bool {
	var evt ReindexRequested
	if err := json.Unmarshal(msg.Value, &evt); err != nil || evt.Collection == "" {
		c.logger.Warn("dropping malformed reindex event",
			zap.ByteString("key", msg.Key),
			zap.Int64("offset", msg.Offset),
			zap.Error(err),
		)
		return true
	}

	log := c.logger.With(
		zap.String("collection", evt.Collection),
		zap.String("event_id", evt.EventID),
		zap.Int64("offset", msg.Offset),
	)

	delay := c.minBackoff
	for attempt := 1; ; attempt++ {
		err := c.rebuilder.RequestReindex(ctx, evt.Collection)
		switch {
		case err == nil:
			return true
		case errors.Is(err, domain.ErrCollectionNotFound):
			log.Warn("dropping reindex event for unknown collection", zap.Error(err))
			return true
		case ctx.Err() != nil:
			return false
		}

		log.Error("rebuild failed", zap.Error(err), zap.Int("attempt", attempt), zap.Duration("retry_in", delay))
		if c.sleep(ctx, delay) != nil {
			return false
		}
		delay = c.next(delay)
	}
}

func (c *Consumer) next(d time.Duration) time.Duration {
	return min(d*2, c.maxBackoff)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.r.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("commit reindex event", zap.Int64("offset", msg.Offset), zap.Error(err))
	}
}

// Close closes the underlying reader.
func (c *Consumer) Close() error {
	return c.r.Close()
}
