package health

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates a provider is failing while storage is up.
	Degraded Status = "degraded"
	// Unhealthy indicates the database is unreachable.
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

// DatabaseCheck is the key of the storage check in Report.Checks.
const DatabaseCheck = "database"

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db       DBPinger
	checkers map[string]Checker
	timeout  time.Duration
}

// New creates a Service. Provider checkers are added with WithChecker.
func New(db DBPinger) *Service {
	return &Service{db: db, checkers: map[string]Checker{}, timeout: 5 * time.Second}
}

// WithChecker registers a named provider check. nil checkers are skipped.
func (s *Service) WithChecker(name string, c Checker) *Service {
	if c != nil {
		s.checkers[name] = c
	}
	return s
}

// WithTimeout bounds each individual check.
func (s *Service) WithTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Check runs all checks concurrently.
func (s *Service) Check(ctx context.Context) Report {
	var (
		mu     sync.Mutex
		checks = make(map[string]CheckResult, len(s.checkers)+1)
	)
	record := func(name string, err error) {
		res := CheckOK
		if err != nil {
			res = CheckError
		}
		mu.Lock()
		checks[name] = res
		mu.Unlock()
	}

	var g errgroup.Group
	g.Go(func() error {
		cctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		record(DatabaseCheck, s.db.Ping(cctx))
		return nil
	})
	for name, c := range s.checkers {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			record(name, c.HealthCheck(cctx))
			return nil
		})
	}
	_ = g.Wait()

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if checks[DatabaseCheck] == CheckError {
		status = Unhealthy
	}
	return Report{Status: status, Checks: checks}
}
