// Package kafka carries reindex requests between the API and the worker over Kafka.
package kafka

import (
	"time"
)

// DefaultTopic receives ReindexRequested events.
const DefaultTopic = "tagdex.reindex"

// ReindexRequested asks the worker to rebuild one collection's tag index.
type ReindexRequested struct {
	EventID     string    `json:"event_id"`
	Collection  string    `json:"collection"`
	RequestedAt time.Time `json:"requested_at"`
}

// Config holds Kafka connection settings shared by publisher and consumer.
type Config struct {
	Brokers []string
	Topic   string
	GroupID string
}

func (c Config) topic() string {
	if c.Topic == "" {
		return DefaultTopic
	}
	return c.Topic
}
