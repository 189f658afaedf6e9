package core

import "time"

// ServiceLine is a service together with its monthly-equivalent amount.
type ServiceLine struct {
	Service
	MonthlyAmount float64 `json:"monthlyAmount"`
}

// HolderTotals aggregates what one holder pays per month.
type HolderTotals struct {
	Loans        float64       `json:"loans"`
	Services     float64       `json:"services"`
	Total        float64       `json:"total"`
	LoansList    []Loan        `json:"loansList"`
	ServicesList []ServiceLine `json:"servicesList"`
}

// AccountPayments lists what is debited from one account.
type AccountPayments struct {
	Loans    []Loan    `json:"loans"`
	Services []Service `json:"services"`
	Total    float64   `json:"total"`
}

// ServiceDetails is a service enriched with its payment state.
type ServiceDetails struct {
	Service
	Payments        []ServicePayment `json:"payments"`
	LastPayment     *ServicePayment  `json:"lastPayment,omitempty"`
	IsPaid          bool             `json:"isPaid"`
	NextPaymentDate *time.Time       `json:"nextPaymentDate,omitempty"`
}

type MonthlyBreakdown struct {
	Loans    float64 `json:"loans"`
	Services float64 `json:"services"`
}

func (m MonthlyBreakdown) Total() float64 {
	return m.Loans + m.Services
}

// GlobalSummary is the dashboard-level view of every obligation.
type GlobalSummary struct {
	TotalLoans    float64                    `json:"totalLoans"`
	TotalServices float64                    `json:"totalServices"`
	ByHolder      map[string]HolderTotals    `json:"byHolder"`
	ByAccount     map[string]AccountPayments `json:"byAccount"`
	Monthly       MonthlyBreakdown           `json:"monthly"`
}
