package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db    DBPinger
	queue QueueChecker
}

// New creates a Service. queue is nil when reindexing runs in-process.
func New(db DBPinger, queue QueueChecker) *Service {
	return &Service{db: db, queue: queue}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckError
	} else {
		checks["database"] = CheckOK
	}

	if s.queue != nil {
		if err := s.queue.HealthCheck(ctx); err != nil {
			checks["reindex_queue"] = CheckError
		} else {
			checks["reindex_queue"] = CheckOK
		}
	}

	// Without the store nothing works; a broker outage only delays rebuilds.
	status := Healthy
	switch {
	case checks["database"] == CheckError:
		status = Unhealthy
	case checks["reindex_queue"] == CheckError:
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}
