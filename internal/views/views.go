// Package views derives read-only projections from the store: per-holder and
// per-account payment views, the payments overview with upcoming dues, and
// sorted or filtered lists.
//
// Results are memoized in an LRU cache keyed by the store revisions they
// depend on, so a mutation invalidates them without explicit eviction.
package views

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"finanzas/internal/cache"
	"finanzas/internal/core"
	"finanzas/internal/dateutil"
	applog "finanzas/internal/log"
	"finanzas/internal/store"
)

// Source is the part of the store the views read.
type Source interface {
	Holders() core.Holders
	Accounts() []core.Account
	Loans() []core.Loan
	Services() []core.Service
	TotalsByHolder() map[string]core.HolderTotals
	GlobalSummary() core.GlobalSummary
	Revisions() store.Revisions
}

// HolderView lists what one holder pays each month.
type HolderView struct {
	Holder        string             `json:"holder"`
	Loans         []core.Loan        `json:"loans"`
	Services      []core.ServiceLine `json:"services"`
	TotalLoans    float64            `json:"totalLoans"`
	TotalServices float64            `json:"totalServices"`
	TotalMonthly  float64            `json:"totalMonthly"`
}

// AccountView lists what is debited from one account each month.
type AccountView struct {
	Account       core.Account   `json:"account"`
	Loans         []core.Loan    `json:"loans"`
	Services      []core.Service `json:"services"`
	TotalLoans    float64        `json:"totalLoans"`
	TotalServices float64        `json:"totalServices"`
	TotalMonthly  float64        `json:"totalMonthly"`
}

// Upcoming payment kinds.
const (
	KindLoan    = "loan"
	KindService = "service"
)

// UpcomingPayment is the next due date of one loan or service.
type UpcomingPayment struct {
	Kind    string    `json:"type"`
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Holder  string    `json:"holder"`
	Account string    `json:"account"`
	Amount  float64   `json:"amount"`
	Date    time.Time `json:"date"`
}

// Overview pairs the global summary with the upcoming payments.
type Overview struct {
	Summary  core.GlobalSummary `json:"summary"`
	Upcoming []UpcomingPayment  `json:"upcomingPayments"`
}

const (
	DefaultCacheSize = 128
	DefaultCacheTTL  = 10 * time.Minute
)

type Views struct {
	src    Source
	cache  *cache.LRUCache[any]
	group  singleflight.Group
	logger *applog.Logger
}

type Option func(*Views)

// WithCache sizes the memoization cache.
func WithCache(size int, ttl time.Duration) Option {
	return func(v *Views) { v.cache = cache.NewLRUCache[any](size, ttl) }
}

func WithLogger(l *applog.Logger) Option {
	return func(v *Views) { v.logger = l.WithComponent(applog.ComponentViews) }
}

func New(src Source, opts ...Option) *Views {
	v := &Views{
		src:    src,
		cache:  cache.NewLRUCache[any](DefaultCacheSize, DefaultCacheTTL),
		logger: applog.Discard(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Cache exposes the memoization cache so a cache.Manager can sweep it.
func (v *Views) Cache() *cache.LRUCache[any] {
	return v.cache
}

// HolderPayments returns the active loans and all services of a holder,
// looked up by upper-cased id. Unknown holders return false.
func (v *Views) HolderPayments(holderID string) (*HolderView, bool) {
	rev := v.src.Revisions()
	key := fmt.Sprintf("holder-payments:%s:%d:%d", strings.ToUpper(holderID), rev.Loans, rev.Services)
	return memo(v, key, func() (*HolderView, bool) {
		holder, ok := v.src.Holders().Lookup(holderID)
		if !ok {
			return nil, false
		}
		view := &HolderView{
			Holder:   holder.Name,
			Loans:    []core.Loan{},
			Services: []core.ServiceLine{},
		}
		for _, l := range v.src.Loans() {
			if l.Status == core.LoanActive && holder.Matches(l.Owner) {
				view.Loans = append(view.Loans, l)
				view.TotalLoans += l.Amount
			}
		}
		for _, s := range v.src.Services() {
			if holder.Matches(s.Holder) {
				monthly := core.MonthlyAmount(s)
				view.Services = append(view.Services, core.ServiceLine{Service: s, MonthlyAmount: monthly})
				view.TotalServices += monthly
			}
		}
		view.TotalMonthly = view.TotalLoans + view.TotalServices
		return view, true
	})
}

// HolderData returns the holder's entry of the store's per-holder totals.
func (v *Views) HolderData(holderID string) (*core.HolderTotals, bool) {
	rev := v.src.Revisions()
	key := fmt.Sprintf("holder-data:%s:%d:%d", strings.ToUpper(holderID), rev.Loans, rev.Services)
	return memo(v, key, func() (*core.HolderTotals, bool) {
		totals, ok := v.src.TotalsByHolder()[strings.ToUpper(strings.TrimSpace(holderID))]
		if !ok {
			return nil, false
		}
		return &totals, true
	})
}

// AccountPayments returns the active loans and debit services of an account,
// found by id or by number. Unknown accounts return false.
func (v *Views) AccountPayments(accountID string) (*AccountView, bool) {
	rev := v.src.Revisions()
	key := fmt.Sprintf("account-payments:%s:%d:%d:%d", accountID, rev.Accounts, rev.Loans, rev.Services)
	return memo(v, key, func() (*AccountView, bool) {
		accounts := v.src.Accounts()
		i := slices.IndexFunc(accounts, func(a core.Account) bool { return a.ID == accountID })
		if i < 0 {
			i = slices.IndexFunc(accounts, func(a core.Account) bool { return a.Number != "" && a.Number == accountID })
		}
		if i < 0 {
			return nil, false
		}
		acc := accounts[i]
		view := &AccountView{Account: acc, Loans: []core.Loan{}, Services: []core.Service{}}
		for _, l := range v.src.Loans() {
			if l.Status == core.LoanActive && refersTo(acc, l.Account) {
				view.Loans = append(view.Loans, l)
				view.TotalLoans += l.Amount
			}
		}
		for _, s := range v.src.Services() {
			if strings.HasPrefix(s.PaymentMethod, core.DebitPrefix) && refersTo(acc, core.AccountFromMethod(s.PaymentMethod)) {
				view.Services = append(view.Services, s)
				view.TotalServices += core.MonthlyAmount(s)
			}
		}
		view.TotalMonthly = view.TotalLoans + view.TotalServices
		return view, true
	})
}

// Overview returns the global summary and every upcoming payment ordered by
// date. Loans contribute their installment when active with a next payment
// date; services with a billing day contribute their full UYU price.
func (v *Views) Overview(now time.Time) Overview {
	rev := v.src.Revisions()
	key := fmt.Sprintf("overview:%s:%d:%d:%d:%d", now.Format(time.DateOnly), rev.Accounts, rev.Loans, rev.Services, rev.Payments)
	ov, _ := memo(v, key, func() (Overview, bool) {
		return Overview{Summary: v.src.GlobalSummary(), Upcoming: upcoming(v.src.Loans(), v.src.Services(), now)}, true
	})
	return ov
}

func upcoming(loans []core.Loan, services []core.Service, now time.Time) []UpcomingPayment {
	out := []UpcomingPayment{}
	for _, l := range loans {
		if l.Status != core.LoanActive || l.NextPaymentDate == nil {
			continue
		}
		out = append(out, UpcomingPayment{
			Kind:    KindLoan,
			ID:      l.ID,
			Name:    l.Name,
			Holder:  l.Owner,
			Account: l.Account,
			Amount:  l.Amount,
			Date:    *l.NextPaymentDate,
		})
	}
	for _, s := range services {
		if s.BillingDay <= 0 {
			continue
		}
		out = append(out, UpcomingPayment{
			Kind:    KindService,
			ID:      s.ID,
			Name:    s.Name,
			Holder:  s.Holder,
			Account: core.AccountFromMethod(s.PaymentMethod),
			Amount:  s.Price.UYUEquivalent,
			Date:    dateutil.NextPaymentDate(now, s.BillingDay, now),
		})
	}
	slices.SortStableFunc(out, func(a, b UpcomingPayment) int { return a.Date.Compare(b.Date) })
	return out
}

// refersTo matches a loan account or debit method against the account id or
// its number.
func refersTo(acc core.Account, ref string) bool {
	return ref != "" && (ref == acc.ID || ref == acc.Number)
}

type memoEntry[T any] struct {
	value T
	ok    bool
}

// memo returns the cached result for key, computing it once per key even
// under concurrent callers.
func memo[T any](v *Views, key string, compute func() (T, bool)) (T, bool) {
	if cached, hit := v.cache.Get(key); hit {
		if e, ok := cached.(memoEntry[T]); ok {
			return e.value, e.ok
		}
	}
	res, _, _ := v.group.Do(key, func() (any, error) {
		value, ok := compute()
		e := memoEntry[T]{value: value, ok: ok}
		v.cache.Set(key, e)
		v.logger.Debug("View computed", "key", key, "found", ok)
		return e, nil
	})
	e := res.(memoEntry[T])
	return e.value, e.ok
}
