package worker

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	domainErrors "github.com/polkiloo/cashout/internal/domain/errors"
	"github.com/polkiloo/cashout/internal/ledger"
	testhelpers "github.com/polkiloo/cashout/internal/test"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatal("timeout waiting for auditor")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestNewLedgerAuditorDefaults(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	auditor := NewLedgerAuditor(&testhelpers.AuditFacadeStub{}, 0, 0, logger)
	if auditor.workers != 1 {
		t.Fatalf("expected workers default to 1, got %d", auditor.workers)
	}
	if auditor.interval != time.Minute {
		t.Fatalf("expected interval default to 1m, got %s", auditor.interval)
	}
}

func TestLedgerAuditorAuditsEveryAccount(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	facade := &testhelpers.AuditFacadeStub{
		AccountsFn: func(context.Context) ([]string, error) { return []string{"a", "b", "c"}, nil },
	}
	auditor := NewLedgerAuditor(facade, 10*time.Millisecond, 2, logger)

	auditor.Start(context.Background())
	waitFor(t, func() bool {
		seen := map[string]bool{}
		for _, id := range facade.Audited() {
			seen[id] = true
		}
		return seen["a"] && seen["b"] && seen["c"]
	})
	auditor.Stop()
}

func TestLedgerAuditorLogsViolations(t *testing.T) {
	out := &syncBuffer{}
	logger := slog.New(slog.NewJSONHandler(out, nil))
	facade := &testhelpers.AuditFacadeStub{
		AccountsFn: func(context.Context) ([]string, error) { return []string{"broken", "gone"}, nil },
		AuditFn: func(_ context.Context, id string) ([]ledger.Violation, error) {
			if id == "gone" {
				return nil, domainErrors.ErrNotFound
			}
			return []ledger.Violation{{AccountID: id, Rule: "overcommitted", Detail: "available=-5"}}, nil
		},
	}
	auditor := NewLedgerAuditor(facade, 10*time.Millisecond, 1, logger)

	auditor.Start(context.Background())
	waitFor(t, func() bool { return strings.Contains(out.String(), "ledger invariant violated") })
	auditor.Stop()

	logs := out.String()
	if !strings.Contains(logs, `"level":"ERROR"`) || !strings.Contains(logs, `"rule":"overcommitted"`) {
		t.Fatalf("expected violation logged at error level, got %s", logs)
	}
	if strings.Contains(logs, `"account":"gone"`) {
		t.Fatalf("did not expect vanished account to be reported: %s", logs)
	}
}

func TestLedgerAuditorSurvivesListFailure(t *testing.T) {
	out := &syncBuffer{}
	logger := slog.New(slog.NewJSONHandler(out, nil))
	var (
		mu    sync.Mutex
		calls int
	)
	facade := &testhelpers.AuditFacadeStub{
		AccountsFn: func(context.Context) ([]string, error) {
			mu.Lock()
			defer mu.Unlock()
			calls++
			if calls == 1 {
				return nil, errors.New("store unavailable")
			}
			return []string{"acc"}, nil
		},
	}
	auditor := NewLedgerAuditor(facade, 10*time.Millisecond, 1, logger)

	auditor.Start(context.Background())
	waitFor(t, func() bool { return len(facade.Audited()) > 0 })
	auditor.Stop()

	if !strings.Contains(out.String(), "list accounts for audit failed") {
		t.Fatalf("expected list failure to be logged, got %s", out.String())
	}
}

func TestLedgerAuditorOutlivesStartContext(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	facade := &testhelpers.AuditFacadeStub{
		AccountsFn: func(context.Context) ([]string, error) { return []string{"acc"}, nil },
	}
	auditor := NewLedgerAuditor(facade, 10*time.Millisecond, 1, logger)

	ctx, cancel := context.WithCancel(context.Background())
	auditor.Start(ctx)
	cancel()

	waitFor(t, func() bool { return len(facade.Audited()) > 0 })
	done := make(chan struct{})
	go func() {
		auditor.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected stop to return")
	}
}
