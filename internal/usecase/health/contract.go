package health

import "context"

// DBPinger checks document store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// QueueChecker checks the async reindex broker.
type QueueChecker interface {
	HealthCheck(ctx context.Context) error
}
