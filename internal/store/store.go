// Package store is the single owner of the finance collections. It applies
// mutations, persists a snapshot after each one, and derives the per-holder,
// per-account and global aggregates on demand.
package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/dateutil"
	applog "finanzas/internal/log"
)

// Notifier receives committed changes. Failures are logged and never undo
// the mutation.
type Notifier interface {
	Notify(ctx context.Context, ev core.ChangeEvent) error
}

// Revisions counts committed changes per collection. Derived views use them
// as cache keys.
type Revisions struct {
	Accounts uint64
	Loans    uint64
	Services uint64
	Payments uint64
	Incomes  uint64
}

type Store struct {
	mu      sync.RWMutex
	data    Snapshot
	rev     Revisions
	version uint64

	kv       Persister
	key      string
	ids      IDProvider
	clock    dateutil.Clock
	holders  core.Holders
	notifier Notifier
	logger   *applog.Logger
}

type Option func(*Store)

func WithIDProvider(p IDProvider) Option { return func(s *Store) { s.ids = p } }

func WithClock(c dateutil.Clock) Option { return func(s *Store) { s.clock = c } }

func WithHolders(h core.Holders) Option { return func(s *Store) { s.holders = h } }

func WithNotifier(n Notifier) Option { return func(s *Store) { s.notifier = n } }

func WithSnapshotKey(key string) Option { return func(s *Store) { s.key = key } }

func WithLogger(l *applog.Logger) Option {
	return func(s *Store) { s.logger = l.WithComponent(applog.ComponentStore) }
}

// New creates an empty store. A nil kv keeps the store in memory only.
func New(kv Persister, opts ...Option) *Store {
	s := &Store{
		kv:      kv,
		key:     DefaultSnapshotKey,
		ids:     UUIDProvider{},
		clock:   dateutil.SystemClock{},
		holders: core.DefaultHolders(),
		logger:  applog.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.data.normalize()
	return s
}

// Open creates a store and rehydrates it from the snapshot, if any.
func Open(ctx context.Context, kv Persister, opts ...Option) (*Store, error) {
	s := New(kv, opts...)
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload replaces the collections with the persisted snapshot. A missing
// snapshot leaves five empty collections.
func (s *Store) Reload(ctx context.Context) error {
	if s.kv == nil {
		return nil
	}
	data, found, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return fmt.Errorf("load snapshot %q: %w", s.key, err)
	}
	snap := Snapshot{}
	if found {
		if snap, err = decodeSnapshot(data); err != nil {
			return fmt.Errorf("load snapshot %q: %w", s.key, err)
		}
	}
	snap.normalize()

	s.mu.Lock()
	s.data = snap
	s.version++
	s.rev = Revisions{
		Accounts: s.rev.Accounts + 1,
		Loans:    s.rev.Loans + 1,
		Services: s.rev.Services + 1,
		Payments: s.rev.Payments + 1,
		Incomes:  s.rev.Incomes + 1,
	}
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "Snapshot loaded",
		applog.FieldKey, s.key,
		"found", found,
		"accounts", len(snap.Accounts),
		"loans", len(snap.Loans),
		"services", len(snap.Services))
	return nil
}

func (s *Store) AddAccount(ctx context.Context, in core.Account) (core.Account, error) {
	acc := in.Clone()
	_, err := s.mutate(ctx, core.CollectionAccounts, core.OpAdd, func(next *Snapshot) (string, error) {
		acc.ID = s.ids.NewID(core.PrefixAccount)
		acc.CreatedAt = s.clock.Now()
		next.Accounts = append(next.Accounts, acc)
		return acc.ID, nil
	})
	if err != nil {
		return core.Account{}, err
	}
	return acc.Clone(), nil
}

// UpdateAccount merges patch into the account. Unknown ids return
// core.ErrAccountNotFound and change nothing.
func (s *Store) UpdateAccount(ctx context.Context, id string, patch core.AccountPatch) error {
	_, err := s.mutate(ctx, core.CollectionAccounts, core.OpUpdate, func(next *Snapshot) (string, error) {
		i := slices.IndexFunc(next.Accounts, func(a core.Account) bool { return a.ID == id })
		if i < 0 {
			return "", core.ErrAccountNotFound
		}
		next.Accounts[i] = next.Accounts[i].Apply(patch)
		return id, nil
	})
	return err
}

// AddLoan stores a new active loan with an empty payment history, whatever
// status or history the input carries.
func (s *Store) AddLoan(ctx context.Context, in core.Loan) (core.Loan, error) {
	loan := in.Clone()
	_, err := s.mutate(ctx, core.CollectionLoans, core.OpAdd, func(next *Snapshot) (string, error) {
		loan.ID = s.ids.NewID(core.PrefixLoan)
		loan.CreatedAt = s.clock.Now()
		loan.Status = core.LoanActive
		loan.PaymentHistory = []core.LoanPayment{}
		next.Loans = append(next.Loans, loan)
		return loan.ID, nil
	})
	if err != nil {
		return core.Loan{}, err
	}
	return loan.Clone(), nil
}

func (s *Store) UpdateLoan(ctx context.Context, id string, patch core.LoanPatch) error {
	_, err := s.mutate(ctx, core.CollectionLoans, core.OpUpdate, func(next *Snapshot) (string, error) {
		i := slices.IndexFunc(next.Loans, func(l core.Loan) bool { return l.ID == id })
		if i < 0 {
			return "", core.ErrLoanNotFound
		}
		next.Loans[i] = next.Loans[i].Apply(patch)
		return id, nil
	})
	return err
}

// AddLoanPayment appends a payment dated now to the loan's history. Status and
// balance are left for the caller to update.
func (s *Store) AddLoanPayment(ctx context.Context, loanID string, in core.LoanPayment) (core.LoanPayment, error) {
	payment := in
	_, err := s.mutate(ctx, core.CollectionLoans, core.OpPayment, func(next *Snapshot) (string, error) {
		i := slices.IndexFunc(next.Loans, func(l core.Loan) bool { return l.ID == loanID })
		if i < 0 {
			return "", core.ErrLoanNotFound
		}
		payment.ID = s.ids.NewID(core.PrefixPayment)
		payment.Date = s.clock.Now()
		loan := next.Loans[i]
		history := make([]core.LoanPayment, 0, len(loan.PaymentHistory)+1)
		loan.PaymentHistory = append(append(history, loan.PaymentHistory...), payment)
		next.Loans[i] = loan
		return loanID, nil
	})
	if err != nil {
		return core.LoanPayment{}, err
	}
	return payment, nil
}

// AddService stores a new active service.
func (s *Store) AddService(ctx context.Context, in core.Service) (core.Service, error) {
	svc := in
	_, err := s.mutate(ctx, core.CollectionServices, core.OpAdd, func(next *Snapshot) (string, error) {
		svc.ID = s.ids.NewID(core.PrefixService)
		svc.CreatedAt = s.clock.Now()
		svc.Status = core.ServiceActive
		next.Services = append(next.Services, svc)
		return svc.ID, nil
	})
	if err != nil {
		return core.Service{}, err
	}
	return svc, nil
}

func (s *Store) UpdateService(ctx context.Context, id string, patch core.ServicePatch) error {
	_, err := s.mutate(ctx, core.CollectionServices, core.OpUpdate, func(next *Snapshot) (string, error) {
		i := slices.IndexFunc(next.Services, func(sv core.Service) bool { return sv.ID == id })
		if i < 0 {
			return "", core.ErrServiceNotFound
		}
		next.Services[i] = next.Services[i].Apply(patch)
		return id, nil
	})
	return err
}

// AddServicePayment records a payment for serviceID in the flat payments
// collection. The service is not required to exist.
func (s *Store) AddServicePayment(ctx context.Context, serviceID string, in core.ServicePayment) (core.ServicePayment, error) {
	payment := in
	_, err := s.mutate(ctx, core.CollectionPayments, core.OpAdd, func(next *Snapshot) (string, error) {
		payment.ID = s.ids.NewID(core.PrefixPayment)
		payment.ServiceID = serviceID
		payment.Date = s.clock.Now()
		next.Payments = append(next.Payments, payment)
		return payment.ID, nil
	})
	if err != nil {
		return core.ServicePayment{}, err
	}
	return payment, nil
}

func (s *Store) AddIncome(ctx context.Context, in core.Income) (core.Income, error) {
	income := in.Clone()
	_, err := s.mutate(ctx, core.CollectionIncomes, core.OpAdd, func(next *Snapshot) (string, error) {
		income.ID = s.ids.NewID(core.PrefixIncome)
		income.CreatedAt = s.clock.Now()
		next.Incomes = append(next.Incomes, income)
		return income.ID, nil
	})
	if err != nil {
		return core.Income{}, err
	}
	return income.Clone(), nil
}

func (s *Store) UpdateIncome(ctx context.Context, id string, patch core.IncomePatch) error {
	_, err := s.mutate(ctx, core.CollectionIncomes, core.OpUpdate, func(next *Snapshot) (string, error) {
		i := slices.IndexFunc(next.Incomes, func(in core.Income) bool { return in.ID == id })
		if i < 0 {
			return "", core.ErrIncomeNotFound
		}
		next.Incomes[i] = next.Incomes[i].Apply(patch)
		return id, nil
	})
	return err
}

// mutate applies fn to a copy of the collections, persists the copy and only
// then makes it current. A failed apply or save leaves the store untouched.
func (s *Store) mutate(ctx context.Context, coll core.Collection, op string, fn func(*Snapshot) (string, error)) (core.ChangeEvent, error) {
	s.mu.Lock()
	next := s.data.clone()
	id, err := fn(&next)
	if err != nil {
		s.mu.Unlock()
		return core.ChangeEvent{}, err
	}
	if err := s.save(ctx, next); err != nil {
		s.mu.Unlock()
		s.logger.ErrorContext(ctx, "Failed to persist mutation",
			applog.FieldCollection, coll,
			applog.FieldOperation, op,
			applog.FieldEntityID, id,
			applog.FieldError, err)
		return core.ChangeEvent{}, err
	}
	s.data = next
	s.version++
	s.bump(coll)
	ev := core.ChangeEvent{Collection: coll, Operation: op, ID: id, Revision: s.version, At: s.clock.Now()}
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "Store mutation committed", applog.NewFields().WithChange(string(ev.Collection), ev.Operation, ev.ID, ev.Revision).ToSlice()...)
	s.notify(ctx, ev)
	return ev, nil
}

func (s *Store) save(ctx context.Context, snap Snapshot) error {
	if s.kv == nil {
		return nil
	}
	data, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("save snapshot %q: %w", s.key, err)
	}
	return nil
}

func (s *Store) bump(coll core.Collection) {
	switch coll {
	case core.CollectionAccounts:
		s.rev.Accounts++
	case core.CollectionLoans:
		s.rev.Loans++
	case core.CollectionServices:
		s.rev.Services++
	case core.CollectionPayments:
		s.rev.Payments++
	case core.CollectionIncomes:
		s.rev.Incomes++
	}
}

func (s *Store) notify(ctx context.Context, ev core.ChangeEvent) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish change notification",
			applog.NewFields().WithChange(string(ev.Collection), ev.Operation, ev.ID, ev.Revision).WithError(err).ToSlice()...)
	}
}

// current returns the live collections for read-only use. Slices are never
// written in place after being published, so they may be read without the
// lock once returned.
func (s *Store) current() (Snapshot, core.Holders) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data, s.holders
}

func (s *Store) Accounts() []core.Account {
	snap, _ := s.current()
	return cloneAll(snap.Accounts, core.Account.Clone)
}

func (s *Store) Loans() []core.Loan {
	snap, _ := s.current()
	return cloneAll(snap.Loans, core.Loan.Clone)
}

func (s *Store) Services() []core.Service {
	snap, _ := s.current()
	return slices.Clone(snap.Services)
}

func (s *Store) Payments() []core.ServicePayment {
	snap, _ := s.current()
	return slices.Clone(snap.Payments)
}

func (s *Store) Incomes() []core.Income {
	snap, _ := s.current()
	return cloneAll(snap.Incomes, core.Income.Clone)
}

// Snapshot returns a copy of all five collections.
func (s *Store) Snapshot() Snapshot {
	snap, _ := s.current()
	return snap.clone()
}

func (s *Store) Holders() core.Holders {
	_, h := s.current()
	return h
}

func (s *Store) Account(id string) (core.Account, bool) {
	return find(s.Accounts(), func(a core.Account) bool { return a.ID == id })
}

func (s *Store) Loan(id string) (core.Loan, bool) {
	return find(s.Loans(), func(l core.Loan) bool { return l.ID == id })
}

func (s *Store) Service(id string) (core.Service, bool) {
	return find(s.Services(), func(sv core.Service) bool { return sv.ID == id })
}

func (s *Store) Income(id string) (core.Income, bool) {
	return find(s.Incomes(), func(in core.Income) bool { return in.ID == id })
}

// Revisions reports the per-collection change counters.
func (s *Store) Revisions() Revisions {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rev
}

// Now is the store's clock reading.
func (s *Store) Now() time.Time {
	return s.clock.Now()
}

func cloneAll[T any](items []T, clone func(T) T) []T {
	out := make([]T, len(items))
	for i, it := range items {
		out[i] = clone(it)
	}
	return out
}

func find[T any](items []T, match func(T) bool) (T, bool) {
	if i := slices.IndexFunc(items, match); i >= 0 {
		return items[i], true
	}
	var zero T
	return zero, false
}
