// Package scheduler persists lazily derived overdue statuses on a cron
// schedule, so stored strings catch up with the calendar even when nobody
// queries with commit.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pkordes/equipment-loans/internal/domain"
	"github.com/pkordes/equipment-loans/internal/service"
)

// Committer is the part of the loan service the scheduled job needs.
type Committer interface {
	Ledgers(ctx context.Context) ([]string, error)
	CommitOverdue(ctx context.Context, sess service.Session) (service.BatchResult, error)
}

// Scheduler runs the overdue commit job.
type Scheduler struct {
	cron          *cron.Cron
	loans         Committer
	defaultLedger string
	timeout       time.Duration
	log           *slog.Logger
}

// New registers the overdue commit job on spec, a cron expression with a
// seconds field (descriptors such as "@daily" are accepted too).
// defaultLedger is committed when the store holds no ledger yet.
func New(spec string, loans Committer, defaultLedger string, log *slog.Logger) (*Scheduler, error) {
	if log == nil {
		log = slog.Default()
	}
	s := &Scheduler{
		loans:         loans,
		defaultLedger: defaultLedger,
		timeout:       5 * time.Minute,
		log:           log,
	}

	cl := cronLogger{log: log}
	s.cron = cron.New(
		cron.WithSeconds(),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("scheduler.New: invalid schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start begins the cron scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.log.Info("starting overdue commit scheduler")
	s.cron.Start()
}

// Stop stops the scheduler and waits for a running job, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info("overdue commit scheduler stopped")
	case <-ctx.Done():
		s.log.Warn("overdue commit scheduler did not stop in time")
	}
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.CommitAll(ctx); err != nil {
		s.log.Error("overdue commit failed", "error", err)
	}
}

// CommitAll commits overdue statuses for every ledger.
// Ledgers are independent: a failure in one is collected and the rest still
// run, except an unavailable store which stops the pass.
func (s *Scheduler) CommitAll(ctx context.Context) error {
	ledgers, err := s.loans.Ledgers(ctx)
	if err != nil {
		return fmt.Errorf("scheduler.CommitAll: %w", err)
	}
	if len(ledgers) == 0 && s.defaultLedger != "" {
		ledgers = []string{s.defaultLedger}
	}

	var errs []error
	for _, ledger := range ledgers {
		sess, err := service.NewSession(ledger)
		if err != nil {
			s.log.Warn("skipping ledger", "ledger", ledger, "error", err)
			continue
		}
		res, err := s.loans.CommitOverdue(ctx, sess)
		if err != nil {
			errs = append(errs, fmt.Errorf("ledger %s: %w", ledger, err))
			if errors.Is(err, domain.ErrStoreUnavailable) {
				break
			}
			continue
		}
		s.log.Info("overdue statuses committed",
			"ledger", ledger,
			"updated", len(res.Updated),
			"skipped", res.SkippedCount(),
			"failed", len(res.Failed),
		)
	}
	return errors.Join(errs...)
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
