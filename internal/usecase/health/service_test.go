package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

// --- Mocks ---

type mockDBPinger struct {
	err error
}

func (m *mockDBPinger) Ping(_ context.Context) error { return m.err }

type mockChecker struct {
	err   error
	block bool
}

func (m *mockChecker) HealthCheck(ctx context.Context) error {
	if m.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return m.err
}

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockDBPinger{}).
		WithChecker("embedding", &mockChecker{}).
		WithChecker("llm", &mockChecker{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	for _, name := range []string{DatabaseCheck, "embedding", "llm"} {
		if r.Checks[name] != CheckOK {
			t.Errorf("expected %s %q, got %q", name, CheckOK, r.Checks[name])
		}
	}
}

func TestCheck_DBErrorIsUnhealthy(t *testing.T) {
	svc := New(&mockDBPinger{err: errors.New("conn refused")}).WithChecker("embedding", &mockChecker{})
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
	if r.Checks[DatabaseCheck] != CheckError {
		t.Errorf("expected database %q, got %q", CheckError, r.Checks[DatabaseCheck])
	}
	if r.Checks["embedding"] != CheckOK {
		t.Errorf("expected embedding %q, got %q", CheckOK, r.Checks["embedding"])
	}
}

func TestCheck_ProviderErrorIsDegraded(t *testing.T) {
	svc := New(&mockDBPinger{}).
		WithChecker("embedding", &mockChecker{}).
		WithChecker("llm", &mockChecker{err: errors.New("401")})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["llm"] != CheckError {
		t.Errorf("expected llm %q, got %q", CheckError, r.Checks["llm"])
	}
}

func TestCheck_NilCheckerSkipped(t *testing.T) {
	r := New(&mockDBPinger{}).WithChecker("embedding", nil).Check(context.Background())

	if _, ok := r.Checks["embedding"]; ok {
		t.Error("nil checker should be skipped")
	}
	if len(r.Checks) != 1 || r.Status != Healthy {
		t.Errorf("unexpected report: %+v", r)
	}
}

func TestCheck_TimeoutCountsAsError(t *testing.T) {
	svc := New(&mockDBPinger{}).
		WithChecker("llm", &mockChecker{block: true}).
		WithTimeout(10 * time.Millisecond)
	r := svc.Check(context.Background())

	if r.Checks["llm"] != CheckError || r.Status != Degraded {
		t.Errorf("unexpected report: %+v", r)
	}
}
