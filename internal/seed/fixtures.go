package seed

import "finanzas/internal/core"

// Fixtures is the initial data offered to an empty store.
type Fixtures struct {
	Accounts []core.Account
	Loans    []core.Loan
	Services []core.Service
}

// Default returns the household's four cards plus its recurring loans and
// services. Loans reference accounts by number.
func Default() Fixtures {
	return Fixtures{
		Accounts: []core.Account{
			{Name: "Brou Débito 6039", Bank: "BROU", Number: "6039", Type: "debit", Currency: "UYU", Holder: "IGNACIO"},
			{Name: "Visa Santander 2477", Bank: "Santander", Number: "2477", Type: "credit", Currency: "UYU", Holder: "IGNACIO"},
			{Name: "Brou Mastercard 8475", Bank: "BROU", Number: "8475", Type: "credit", Currency: "UYU", Holder: "YENNIFFER"},
			{Name: "Prex Mastercard UY", Bank: "Prex", Number: "3879", Type: "prepaid", Currency: "UYU", Holder: "YENNIFFER"},
		},
		Loans: []core.Loan{
			{Name: "Préstamo automotor", Owner: "IGNACIO", Account: "6039", Amount: 8500, TotalAmountToPay: 204000, Installments: 24, Currency: "UYU"},
			{Name: "Préstamo consumo", Owner: "YENNI", Account: "8475", Amount: 3200, TotalAmountToPay: 38400, Installments: 12, Currency: "UYU"},
		},
		Services: []core.Service{
			{Name: "Antel Fibra", Holder: "IGNACIO", Category: "internet", Price: core.Price{Amount: 1890, Currency: "UYU", UYUEquivalent: 1890}, BillingCycle: core.Monthly, BillingDay: 10, PaymentMethod: core.MethodDebit6039},
			{Name: "UTE", Holder: "NACHO", Category: "utilities", Price: core.Price{Amount: 2400, Currency: "UYU", UYUEquivalent: 2400}, BillingCycle: core.Monthly, BillingDay: 15, PaymentMethod: core.MethodDebit6039},
			{Name: "Netflix", Holder: "YENNIFFER", Category: "streaming", Price: core.Price{Amount: 9.99, Currency: "USD", UYUEquivalent: 400}, BillingCycle: core.Monthly, BillingDay: 5, PaymentMethod: core.MethodDebit2477},
			{Name: "Spotify", Holder: "LOVIA", Category: "streaming", Price: core.Price{Amount: 119.88, Currency: "USD", UYUEquivalent: 4800}, BillingCycle: core.Annual, BillingDay: 20, PaymentMethod: core.MethodDebit3879},
			{Name: "Gimnasio", Holder: "YENNI", Category: "health", Price: core.Price{Amount: 1500, Currency: "UYU", UYUEquivalent: 1500}, BillingCycle: core.Monthly, PaymentMethod: core.MethodCash},
		},
	}
}
