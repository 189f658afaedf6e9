package views

import (
	"testing"
	"time"

	"finanzas/internal/core"
)

func names[T interface{ Field(string) any }](items []T) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i], _ = it.Field("name").(string)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSorted(t *testing.T) {
	loans := []core.Loan{
		{Name: "Casa", Owner: "IGNACIO", Amount: 700},
		{Name: "Auto", Owner: "YENNI", Amount: 1000},
		{Name: "Beca", Owner: "nacho", Amount: 700},
	}

	tests := []struct {
		name string
		cfg  SortConfig
		want []string
	}{
		{"default sorts by name", SortConfig{}, []string{"Auto", "Beca", "Casa"}},
		{"descending name", SortConfig{Direction: Desc}, []string{"Casa", "Beca", "Auto"}},
		{"numeric sort is stable", SortConfig{SortBy: "amount"}, []string{"Casa", "Beca", "Auto"}},
		{"filter is case-insensitive substring", SortConfig{FilterBy: "owner", FilterValue: "yEn"}, []string{"Auto"}},
		{"filter needs a value", SortConfig{FilterBy: "owner"}, []string{"Auto", "Beca", "Casa"}},
		{"unknown field keeps order", SortConfig{SortBy: "nope"}, []string{"Casa", "Auto", "Beca"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := names(Sorted(loans, tt.cfg, core.Loan.Field))
			if !equalStrings(got, tt.want) {
				t.Errorf("Sorted() = %v, want %v", got, tt.want)
			}
		})
	}
	if loans[0].Name != "Casa" {
		t.Error("input slice was reordered")
	}
}

func TestSortedByDateAndMonthly(t *testing.T) {
	early := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.AddDate(0, 3, 0)
	services := []core.Service{
		{Name: "Anual", BillingCycle: core.Annual, Price: core.Price{UYUEquivalent: 1200}, CreatedAt: late},
		{Name: "Mensual", BillingCycle: core.Monthly, Price: core.Price{UYUEquivalent: 300}, CreatedAt: early},
	}
	if got := names(Sorted(services, SortConfig{SortBy: "monthlyAmount"}, core.Service.Field)); !equalStrings(got, []string{"Anual", "Mensual"}) {
		t.Errorf("by monthly amount = %v", got)
	}
	if got := names(Sorted(services, SortConfig{SortBy: "createdAt"}, core.Service.Field)); !equalStrings(got, []string{"Mensual", "Anual"}) {
		t.Errorf("by createdAt = %v", got)
	}
}
