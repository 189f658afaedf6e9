package core

import (
	"errors"
	"testing"
	"time"
)

func TestHolderMatches(t *testing.T) {
	h, ok := DefaultHolders().Lookup("ignacio")
	if !ok {
		t.Fatal("expected IGNACIO holder")
	}
	cases := []struct {
		name string
		want bool
	}{
		{"IGNACIO", true},
		{"ignacio", true},
		{"nacho", true},
		{"Nacho", true},
		{" lafio ", true},
		{"NACH", false},
		{"NACHO2", false},
		{"YENNI", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := h.Matches(tc.name); got != tc.want {
			t.Errorf("Matches(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestHoldersResolveAndKeys(t *testing.T) {
	hs := DefaultHolders()
	if got := hs.Keys(); len(got) != 2 || got[0] != "IGNACIO" || got[1] != "YENNIFFER" {
		t.Fatalf("unexpected keys: %v", got)
	}
	if k, ok := hs.Resolve("lovia"); !ok || k != "YENNIFFER" {
		t.Fatalf("Resolve(lovia) = %q, %v", k, ok)
	}
	if _, ok := hs.Resolve("someone"); ok {
		t.Fatal("expected unknown name not to resolve")
	}
	if _, ok := hs.Lookup("nacho"); ok {
		t.Fatal("Lookup is by holder id, not alias")
	}
}

func TestNotFoundErrors(t *testing.T) {
	for _, err := range []error{ErrAccountNotFound, ErrLoanNotFound, ErrServiceNotFound, ErrIncomeNotFound} {
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("%v should wrap ErrNotFound", err)
		}
	}
	if ErrLoanNotFound.Error() != "loan not found" {
		t.Errorf("unexpected message %q", ErrLoanNotFound.Error())
	}
}

func TestLoanApply(t *testing.T) {
	base := Loan{ID: "LOAN-1", Name: "Auto", Owner: "nacho", Amount: 100, Status: LoanActive}
	status := LoanCompleted
	amount := 250.0
	next := time.Date(2026, 11, 5, 0, 0, 0, 0, time.UTC)

	got := base.Apply(LoanPatch{Status: &status, Amount: &amount, NextPaymentDate: &next})
	if got.Status != LoanCompleted || got.Amount != 250 || got.NextPaymentDate == nil || !got.NextPaymentDate.Equal(next) {
		t.Fatalf("patch not applied: %+v", got)
	}
	if got.Name != "Auto" || got.Owner != "nacho" || got.ID != "LOAN-1" {
		t.Fatalf("untouched fields changed: %+v", got)
	}
	if base.Status != LoanActive {
		t.Fatal("Apply must not modify the receiver's caller copy")
	}
}

func TestAccountApplyMergesAttributes(t *testing.T) {
	base := Account{ID: "ACC-1", Name: "Brou", Attributes: map[string]string{"color": "blue", "alias": "caja"}}
	name := "Brou Débito"
	got := base.Apply(AccountPatch{Name: &name, Attributes: map[string]string{"color": "red"}})

	if got.Name != name {
		t.Fatalf("name = %q", got.Name)
	}
	if got.Attributes["color"] != "red" || got.Attributes["alias"] != "caja" {
		t.Fatalf("unexpected attributes: %v", got.Attributes)
	}
	if base.Attributes["color"] != "blue" {
		t.Fatal("merge must not write into the original map")
	}
}

func TestServiceApply(t *testing.T) {
	base := Service{ID: "SRV-1", BillingCycle: Monthly, Price: Price{UYUEquivalent: 100}}
	cycle := Annual
	day := 10
	got := base.Apply(ServicePatch{BillingCycle: &cycle, BillingDay: &day})
	if got.BillingCycle != Annual || got.BillingDay != 10 || got.Price.UYUEquivalent != 100 {
		t.Fatalf("unexpected service: %+v", got)
	}
}

func TestAccountFromMethod(t *testing.T) {
	cases := map[string]string{
		"debit_6039":          "6039",
		DebitMethod("ACC-1"): "ACC-1",
		"cash":                "cash",
	}
	for in, want := range cases {
		if got := AccountFromMethod(in); got != want {
			t.Errorf("AccountFromMethod(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEnumValidity(t *testing.T) {
	if !LoanCancelled.IsValid() || LoanStatus("paused").IsValid() {
		t.Error("loan status validity")
	}
	if !ServicePending.IsValid() || ServiceStatus("done").IsValid() {
		t.Error("service status validity")
	}
	if !Annual.IsValid() || BillingCycle("weekly").IsValid() {
		t.Error("billing cycle validity")
	}
}
