package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
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
	Status   Status
	Checks   map[string]CheckResult
	Sessions int
}

// Service coordinates health checks. Answering works without the cache, so a failing
// cache degrades the report rather than failing it.
type Service struct {
	cache     CachePinger
	embedding EmbeddingChecker
	sessions  SessionCounter
}

// New creates a Service. cache and embedding can be nil.
func New(cache CachePinger, embedding EmbeddingChecker, sessions SessionCounter) *Service {
	return &Service{cache: cache, embedding: embedding, sessions: sessions}
}

// Check runs health checks against all configured components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if s.cache != nil {
		checks["cache"] = result(s.cache.Ping(ctx))
	}
	if s.embedding != nil {
		checks["embedding"] = result(s.embedding.HealthCheck(ctx))
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	report := Report{Status: status, Checks: checks}
	if s.sessions != nil {
		report.Sessions = s.sessions.Len()
	}
	return report
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
