package store

import (
	"slices"
	"strings"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/dateutil"
)

// TotalsByHolder returns the monthly obligations of every configured holder.
// Holders without matches are present with zero totals and empty lists.
func (s *Store) TotalsByHolder() map[string]core.HolderTotals {
	snap, holders := s.current()
	return totalsByHolder(holders, snap.Loans, snap.Services)
}

// PaymentsByAccount groups active loans and debit services per account id.
func (s *Store) PaymentsByAccount() map[string]core.AccountPayments {
	snap, _ := s.current()
	return paymentsByAccount(snap.Accounts, snap.Loans, snap.Services)
}

// ServiceDetails enriches a service with its payments, newest first.
func (s *Store) ServiceDetails(id string) (*core.ServiceDetails, bool) {
	snap, _ := s.current()
	i := slices.IndexFunc(snap.Services, func(sv core.Service) bool { return sv.ID == id })
	if i < 0 {
		return nil, false
	}
	details := serviceDetails(snap.Services[i], snap.Payments, s.clock.Now())
	return &details, true
}

func (s *Store) GlobalSummary() core.GlobalSummary {
	snap, holders := s.current()
	return globalSummary(holders, snap)
}

func totalsByHolder(holders core.Holders, loans []core.Loan, services []core.Service) map[string]core.HolderTotals {
	out := make(map[string]core.HolderTotals, holders.Len())
	for _, key := range holders.Keys() {
		holder, _ := holders.Lookup(key)
		totals := core.HolderTotals{
			LoansList:    []core.Loan{},
			ServicesList: []core.ServiceLine{},
		}
		for _, l := range loans {
			if l.Status == core.LoanActive && holder.Matches(l.Owner) {
				totals.Loans += l.Amount
				totals.LoansList = append(totals.LoansList, l.Clone())
			}
		}
		for _, sv := range services {
			if holder.Matches(sv.Holder) {
				monthly := core.MonthlyAmount(sv)
				totals.Services += monthly
				totals.ServicesList = append(totals.ServicesList, core.ServiceLine{Service: sv, MonthlyAmount: monthly})
			}
		}
		totals.Total = totals.Loans + totals.Services
		out[key] = totals
	}
	return out
}

func paymentsByAccount(accounts []core.Account, loans []core.Loan, services []core.Service) map[string]core.AccountPayments {
	out := make(map[string]core.AccountPayments, len(accounts))
	for _, acc := range accounts {
		out[acc.ID] = accountPayments(acc, loans, services)
	}
	return out
}

// accountPayments matches loans and debit methods against the account id or,
// when set, its number, so "debit_6039" reaches the account numbered 6039.
// Matching the number as well as the literal debit_<id> keeps the seeded
// numeric payment methods attached to their accounts.
func accountPayments(acc core.Account, loans []core.Loan, services []core.Service) core.AccountPayments {
	ap := core.AccountPayments{Loans: []core.Loan{}, Services: []core.Service{}}
	refers := func(ref string) bool {
		return ref != "" && (ref == acc.ID || ref == acc.Number)
	}
	for _, l := range loans {
		if l.Status == core.LoanActive && refers(l.Account) {
			ap.Loans = append(ap.Loans, l.Clone())
			ap.Total += l.Amount
		}
	}
	for _, sv := range services {
		if strings.HasPrefix(sv.PaymentMethod, core.DebitPrefix) && refers(core.AccountFromMethod(sv.PaymentMethod)) {
			ap.Services = append(ap.Services, sv)
			ap.Total += core.MonthlyAmount(sv)
		}
	}
	return ap
}

func serviceDetails(svc core.Service, payments []core.ServicePayment, now time.Time) core.ServiceDetails {
	details := core.ServiceDetails{Service: svc, Payments: []core.ServicePayment{}}
	for _, p := range payments {
		if p.ServiceID == svc.ID {
			details.Payments = append(details.Payments, p)
		}
	}
	slices.SortStableFunc(details.Payments, func(a, b core.ServicePayment) int {
		return b.Date.Compare(a.Date)
	})
	if len(details.Payments) > 0 {
		last := details.Payments[0]
		details.LastPayment = &last
		details.IsPaid = dateutil.IsCurrentMonth(last.Date, now)
	}
	if svc.BillingDay > 0 {
		next := dateutil.NextPaymentDate(now, svc.BillingDay, now)
		details.NextPaymentDate = &next
	}
	return details
}

func monthlyBreakdown(loans []core.Loan, services []core.Service) core.MonthlyBreakdown {
	var m core.MonthlyBreakdown
	for _, l := range loans {
		if l.Status == core.LoanActive {
			m.Loans += l.Amount
		}
	}
	for _, sv := range services {
		m.Services += core.MonthlyAmount(sv)
	}
	return m
}

func globalSummary(holders core.Holders, snap Snapshot) core.GlobalSummary {
	summary := core.GlobalSummary{
		ByHolder:  totalsByHolder(holders, snap.Loans, snap.Services),
		ByAccount: paymentsByAccount(snap.Accounts, snap.Loans, snap.Services),
		Monthly:   monthlyBreakdown(snap.Loans, snap.Services),
	}
	for _, k := range holders.Keys() {
		summary.TotalLoans += summary.ByHolder[k].Loans
		summary.TotalServices += summary.ByHolder[k].Services
	}
	return summary
}
