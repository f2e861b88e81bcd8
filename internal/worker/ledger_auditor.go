package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/cashout/internal/domain/errors"
	"github.com/polkiloo/cashout/internal/ledger"
)

// AuditFacade exposes the subset of application functionality required by the auditor.
type AuditFacade interface {
	Accounts(ctx context.Context) ([]string, error)
	Audit(ctx context.Context, accountID string) ([]ledger.Violation, error)
}

// LedgerAuditor periodically re-checks stored accounts against ledger invariants.
type LedgerAuditor struct {
	facade   AuditFacade
	interval time.Duration
	workers  int
	logger   *slog.Logger

	jobs   chan string
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewLedgerAuditor constructs auditor worker pool.
func NewLedgerAuditor(facade AuditFacade, interval time.Duration, workers int, logger *slog.Logger) *LedgerAuditor {
	if workers <= 0 {
		workers = 1
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &LedgerAuditor{
		facade:   facade,
		interval: interval,
		workers:  workers,
		logger:   logger,
		jobs:     make(chan string, workers*2),
	}
}

// Start launches background auditing.
func (a *LedgerAuditor) Start(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		return
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.cancel = cancel

	for i := 0; i < a.workers; i++ {
		a.wg.Add(1)
		go a.worker(runCtx)
	}

	a.wg.Add(1)
	go a.dispatch(runCtx)
}

// Stop cancels auditing and waits for all workers to finish.
func (a *LedgerAuditor) Stop() {
	a.mu.Lock()
	if a.cancel != nil {
		a.cancel()
	}
	a.mu.Unlock()

	a.wg.Wait()
}

func (a *LedgerAuditor) dispatch(ctx context.Context) {
	defer a.wg.Done()
	defer close(a.jobs)
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.listAndDispatch(ctx)
		}
	}
}

func (a *LedgerAuditor) listAndDispatch(ctx context.Context) {
	ids, err := a.facade.Accounts(ctx)
	if err != nil {
		a.logger.Error("list accounts for audit failed", slog.String("error", err.Error()))
		return
	}
	for _, id := range ids {
		select {
		case <-ctx.Done():
			return
		case a.jobs <- id:
		}
	}
}

func (a *LedgerAuditor) worker(ctx context.Context) {
	defer a.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case id, ok := <-a.jobs:
			if !ok {
				return
			}
			a.auditAccount(ctx, id)
		}
	}
}

func (a *LedgerAuditor) auditAccount(ctx context.Context, accountID string) {
	violations, err := a.facade.Audit(ctx, accountID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return
		}
		a.logger.Error("account audit failed", slog.String("account", accountID), slog.String("error", err.Error()))
		return
	}
	for _, v := range violations {
		a.logger.Error("ledger invariant violated",
			slog.String("account", v.AccountID),
			slog.String("transaction", v.TransactionID),
			slog.String("rule", v.Rule),
			slog.String("detail", v.Detail))
	}
}
