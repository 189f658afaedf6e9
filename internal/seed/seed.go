// Package seed loads initial data into collections that are still empty.
package seed

import (
	"context"
	"fmt"
	"sync"

	"finanzas/internal/core"
	applog "finanzas/internal/log"
)

// Target is the part of the store the loader fills.
type Target interface {
	Accounts() []core.Account
	Loans() []core.Loan
	Services() []core.Service
	AddAccount(ctx context.Context, a core.Account) (core.Account, error)
	AddLoan(ctx context.Context, l core.Loan) (core.Loan, error)
	AddService(ctx context.Context, s core.Service) (core.Service, error)
}

// Result counts the entities added per collection.
type Result struct {
	Accounts int
	Loans    int
	Services int
}

func (r Result) Total() int { return r.Accounts + r.Loans + r.Services }

// Loader seeds each collection at most once per session.
type Loader struct {
	mu       sync.Mutex
	fixtures Fixtures
	done     map[core.Collection]bool
	logger   *applog.Logger
}

func NewLoader(f Fixtures, logger *applog.Logger) *Loader {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Loader{
		fixtures: f,
		done:     make(map[core.Collection]bool, 3),
		logger:   logger.WithComponent(applog.ComponentSeed),
	}
}

// Load adds the fixtures of every collection that is empty in t. Collections
// that already hold data, or were handled by an earlier call, are skipped.
func (l *Loader) Load(ctx context.Context, t Target) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var res Result
	steps := []struct {
		coll  core.Collection
		empty func() bool
		add   func() (int, error)
		count *int
	}{
		{core.CollectionAccounts, func() bool { return len(t.Accounts()) == 0 }, func() (int, error) {
			return addAll(ctx, l.fixtures.Accounts, t.AddAccount)
		}, &res.Accounts},
		{core.CollectionLoans, func() bool { return len(t.Loans()) == 0 }, func() (int, error) {
			return addAll(ctx, l.fixtures.Loans, t.AddLoan)
		}, &res.Loans},
		{core.CollectionServices, func() bool { return len(t.Services()) == 0 }, func() (int, error) {
			return addAll(ctx, l.fixtures.Services, t.AddService)
		}, &res.Services},
	}

	for _, step := range steps {
		if l.done[step.coll] {
			continue
		}
		if step.empty() {
			n, err := step.add()
			*step.count = n
			if err != nil {
				return res, fmt.Errorf("seed %s: %w", step.coll, err)
			}
		}
		l.done[step.coll] = true
	}

	if res.Total() > 0 {
		l.logger.InfoContext(ctx, "Initial data loaded",
			applog.FieldOperation, applog.OpSeed,
			"accounts", res.Accounts,
			"loans", res.Loans,
			"services", res.Services)
	}
	return res, nil
}

// Load seeds t from f once, skipping collections that already hold data.
func Load(ctx context.Context, t Target, f Fixtures) (Result, error) {
	return NewLoader(f, nil).Load(ctx, t)
}

func addAll[T any](ctx context.Context, items []T, add func(context.Context, T) (T, error)) (int, error) {
	for i, it := range items {
		if _, err := add(ctx, it); err != nil {
			return i, err
		}
	}
	return len(items), nil
}
