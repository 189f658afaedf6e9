// Package core holds the finance domain: entities, holders, summaries and
// the pure calculation helpers used to aggregate them.
//
// This file contains the calculation utilities. They never fail: malformed
// numeric input resolves to zero.
package core

import (
	"math"

	"github.com/shopspring/decimal"
)

// Payment is implemented by loan and service payments.
type Payment interface {
	PaymentAmount() float64
	PaymentKind() PaymentType
}

var half = decimal.New(5, -1)

// RoundToTwo rounds to two decimal places in decimal arithmetic, so 1.005
// becomes 1.01 rather than 1.00. Halves round toward positive infinity:
// -1.005 becomes -1.00. NaN and infinities round to 0.
func RoundToTwo(x float64) float64 {
	if !finite(x) {
		return 0
	}
	return decimal.NewFromFloat(x).Shift(2).Add(half).Floor().Shift(-2).InexactFloat64()
}

// MonthlyEquivalent normalizes an amount billed on cycle to a per-month value.
func MonthlyEquivalent(amount float64, cycle BillingCycle) float64 {
	if cycle == Annual {
		return amount / 12
	}
	return amount
}

// MonthlyAmount is the monthly equivalent of a service's UYU price.
func MonthlyAmount(s Service) float64 {
	return MonthlyEquivalent(s.Price.UYUEquivalent, s.BillingCycle)
}

// CalculateProgress returns current/total as a percentage clamped to [0,100].
func CalculateProgress(current, total float64) float64 {
	if total == 0 || !finite(total) || !finite(current) {
		return 0
	}
	return math.Max(0, math.Min(100, current/total*100))
}

// CalculateLateFee applies rate percent per 30 days late.
func CalculateLateFee(amount, rate float64, daysLate int) float64 {
	if amount == 0 || rate == 0 || daysLate == 0 || !finite(amount) || !finite(rate) {
		return 0
	}
	return amount * (rate / 100) * float64(daysLate) / 30
}

// SumPayments totals the payments of the given type, or all of them for
// PaymentTypeAll.
func SumPayments[P Payment](payments []P, kind PaymentType) float64 {
	var sum float64
	for _, p := range payments {
		if kind == PaymentTypeAll || p.PaymentKind() == kind {
			sum += p.PaymentAmount()
		}
	}
	return sum
}

func CalculateAnnualTotal(monthly float64) float64 {
	return monthly * 12
}

// RemainingBalance is what is left to pay on a loan, never below zero.
func RemainingBalance(l Loan) float64 {
	paid := SumPayments(l.PaymentHistory, PaymentTypeAll)
	return math.Max(0, l.TotalAmountToPay-paid)
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
