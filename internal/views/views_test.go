package views

import (
	"context"
	"sync"
	"testing"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/dateutil"
	"finanzas/internal/store"
)

var testNow = time.Date(2026, time.October, 19, 10, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(nil,
		store.WithIDProvider(&store.SequenceProvider{}),
		store.WithClock(dateutil.FixedClock(testNow)))
}

func must[T any](t *testing.T) func(T, error) T {
	return func(v T, err error) T {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
		return v
	}
}

func TestHolderPayments(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	must[core.Loan](t)(s.AddLoan(ctx, core.Loan{Name: "Auto", Owner: "nacho", Amount: 1000}))
	must[core.Loan](t)(s.AddLoan(ctx, core.Loan{Name: "Casa", Owner: "YENNI", Amount: 700}))
	must[core.Service](t)(s.AddService(ctx, core.Service{Name: "Antel", Holder: "lafio", BillingCycle: core.Annual, Price: core.Price{UYUEquivalent: 2400}}))

	v := New(s)
	view, ok := v.HolderPayments("ignacio")
	if !ok {
		t.Fatal("holder not found")
	}
	if view.Holder != "IGNACIO" {
		t.Errorf("holder = %q", view.Holder)
	}
	if len(view.Loans) != 1 || view.Loans[0].Name != "Auto" {
		t.Errorf("loans = %+v", view.Loans)
	}
	if view.TotalLoans != 1000 || view.TotalServices != 200 || view.TotalMonthly != 1200 {
		t.Errorf("totals = %v %v %v", view.TotalLoans, view.TotalServices, view.TotalMonthly)
	}

	if _, ok := v.HolderPayments("MARIA"); ok {
		t.Error("unknown holder should not be found")
	}
}

func TestHolderDataMatchesStoreTotals(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	must[core.Loan](t)(s.AddLoan(ctx, core.Loan{Owner: "LOVIA", Amount: 300}))

	v := New(s)
	data, ok := v.HolderData("yenniffer")
	if !ok {
		t.Fatal("holder data missing")
	}
	if data.Loans != 300 || len(data.LoansList) != 1 {
		t.Errorf("holder data = %+v", data)
	}
	if _, ok := v.HolderData("nobody"); ok {
		t.Error("unknown holder data should not be found")
	}
}

func TestAccountPaymentsByIDOrNumber(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	acc := must[core.Account](t)(s.AddAccount(ctx, core.Account{Name: "Itaú", Number: "6039"}))
	must[core.Loan](t)(s.AddLoan(ctx, core.Loan{Owner: "IGNACIO", Account: "6039", Amount: 500}))
	must[core.Service](t)(s.AddService(ctx, core.Service{PaymentMethod: core.MethodDebit6039, Price: core.Price{UYUEquivalent: 150}}))
	must[core.Service](t)(s.AddService(ctx, core.Service{PaymentMethod: core.MethodDebit2477, Price: core.Price{UYUEquivalent: 999}}))

	v := New(s)
	for _, id := range []string{acc.ID, "6039"} {
		view, ok := v.AccountPayments(id)
		if !ok {
			t.Fatalf("account %s not found", id)
		}
		if view.TotalLoans != 500 || view.TotalServices != 150 || view.TotalMonthly != 650 {
			t.Errorf("account %s totals = %+v", id, view)
		}
	}
	if _, ok := v.AccountPayments("0000"); ok {
		t.Error("unknown account should not be found")
	}
}

func TestOverviewUpcoming(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	next := time.Date(2026, time.October, 25, 0, 0, 0, 0, time.UTC)
	loan := must[core.Loan](t)(s.AddLoan(ctx, core.Loan{Name: "Auto", Owner: "IGNACIO", Account: "6039", Amount: 1000}))
	if err := s.UpdateLoan(ctx, loan.ID, core.LoanPatch{NextPaymentDate: &next}); err != nil {
		t.Fatal(err)
	}
	must[core.Loan](t)(s.AddLoan(ctx, core.Loan{Name: "Sin fecha", Owner: "IGNACIO", Amount: 10}))
	must[core.Service](t)(s.AddService(ctx, core.Service{
		Name:          "Netflix",
		Holder:        "YENNIFFER",
		BillingDay:    20,
		BillingCycle:  core.Annual,
		PaymentMethod: core.MethodDebit2477,
		Price:         core.Price{Amount: 10, Currency: "USD", UYUEquivalent: 1200},
	}))
	must[core.Service](t)(s.AddService(ctx, core.Service{Name: "Sin día", BillingDay: 0}))

	ov := New(s).Overview(testNow)
	if len(ov.Upcoming) != 2 {
		t.Fatalf("upcoming = %+v", ov.Upcoming)
	}
	first, second := ov.Upcoming[0], ov.Upcoming[1]
	if first.Kind != KindService || !first.Date.Equal(time.Date(2026, time.October, 20, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("first upcoming = %+v", first)
	}
	if first.Amount != 1200 || first.Account != "2477" {
		t.Errorf("service upcoming should use full price and stripped account: %+v", first)
	}
	if second.Kind != KindLoan || second.ID != loan.ID || !second.Date.Equal(next) {
		t.Errorf("second upcoming = %+v", second)
	}
	if ov.Summary.Monthly.Loans != 1010 {
		t.Errorf("summary monthly loans = %v", ov.Summary.Monthly.Loans)
	}
}

func TestViewsInvalidateOnMutation(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	must[core.Loan](t)(s.AddLoan(ctx, core.Loan{Owner: "IGNACIO", Amount: 100}))

	v := New(s)
	before, _ := v.HolderPayments("IGNACIO")
	again, _ := v.HolderPayments("IGNACIO")
	if before != again {
		t.Error("second read should be served from the cache")
	}

	must[core.Loan](t)(s.AddLoan(ctx, core.Loan{Owner: "IGNACIO", Amount: 50}))
	after, _ := v.HolderPayments("IGNACIO")
	if after.TotalLoans != 150 {
		t.Errorf("stale view after mutation: %v", after.TotalLoans)
	}
	if before.TotalLoans != 100 {
		t.Errorf("earlier view changed: %v", before.TotalLoans)
	}
}

func TestViewsConcurrentReads(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	must[core.Service](t)(s.AddService(ctx, core.Service{Holder: "IGNACIO", Price: core.Price{UYUEquivalent: 80}}))

	v := New(s, WithCache(4, time.Minute))
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if view, ok := v.HolderPayments("IGNACIO"); !ok || view.TotalServices != 80 {
				t.Errorf("concurrent view = %+v, %v", view, ok)
			}
		}()
	}
	wg.Wait()
	if v.Cache().Size() != 1 {
		t.Errorf("cache size = %d, want 1", v.Cache().Size())
	}
}
