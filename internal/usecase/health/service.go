package health

import (
	"context"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded means chat still answers, with reduced quality (no context, no audio).
	Degraded Status = "degraded"
	// Unhealthy means the database is unreachable and sessions cannot be kept.
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

const checkTimeout = 3 * time.Second

// Report aggregates health check results. Chunks is -1 when the index could not be read.
type Report struct {
	Status Status
	Checks map[string]CheckResult
	Chunks int
}

// Service coordinates health checks.
type Service struct {
	db        DBPinger
	chunks    ChunkCounter
	providers map[string]ProviderChecker
}

// New creates a Service. chunks may be nil; providers maps check names to checkers.
func New(db DBPinger, chunks ChunkCounter, providers map[string]ProviderChecker) *Service {
	return &Service{db: db, chunks: chunks, providers: providers}
}

// Check runs every check with a per-check timeout.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, len(s.providers)+1)
	status := Healthy

	checks["database"] = result(s.run(ctx, s.db.Ping))
	if checks["database"] == CheckError {
		status = Unhealthy
	}

	for name, p := range s.providers {
		checks[name] = result(s.run(ctx, p.HealthCheck))
		if checks[name] == CheckError && status == Healthy {
			status = Degraded
		}
	}

	rep := Report{Status: status, Checks: checks, Chunks: -1}
	if s.chunks != nil && checks["database"] == CheckOK {
		cctx, cancel := context.WithTimeout(ctx, checkTimeout)
		defer cancel()
		if n, err := s.chunks.Count(cctx); err == nil {
			rep.Chunks = n
		}
	}
	return rep
}

func (s *Service) run(ctx context.Context, fn func(context.Context) error) error {
	cctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	return fn(cctx)
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
