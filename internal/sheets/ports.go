// Package sheets builds the spreadsheet rows exported by the worker and
// defines the port the spreadsheet adapters implement.
package sheets

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"finanzas/internal/core"
	"finanzas/internal/dateutil"
	"finanzas/internal/format"
	"finanzas/internal/views"
)

// RowWriter replaces the contents of one sheet with rows and returns a
// reference to the written range.
type RowWriter interface {
	WriteRows(ctx context.Context, sheet string, rows [][]any) (ref string, err error)
}

// SummaryRows lays out the global summary: per-holder totals, per-account
// debits and the monthly breakdown. Amounts are rounded to cents.
func SummaryRows(sum core.GlobalSummary, holders core.Holders, accounts []core.Account, now time.Time) [][]any {
	rows := [][]any{
		{"Resumen", dateutil.FormatMonth(now), "Actualizado", format.Date(now, format.DateLong)},
		{},
		{"Titular", "Préstamos", "Servicios", "Total"},
	}

	var loans, services decimal.Decimal
	for _, key := range holders.Keys() {
		t := sum.ByHolder[key]
		rows = append(rows, []any{format.HolderName(key), money(t.Loans), money(t.Services), money(t.Total)})
		loans = loans.Add(decimal.NewFromFloat(t.Loans))
		services = services.Add(decimal.NewFromFloat(t.Services))
	}
	rows = append(rows, []any{"Total", cents(loans), cents(services), cents(loans.Add(services))})

	rows = append(rows, []any{}, []any{"Cuenta", "Número", "Préstamos", "Servicios", "Total"})
	for _, acc := range accounts {
		p, ok := sum.ByAccount[acc.ID]
		if !ok {
			continue
		}
		rows = append(rows, []any{acc.Name, acc.Number, len(p.Loans), len(p.Services), money(p.Total)})
	}

	rows = append(rows,
		[]any{},
		[]any{"Mensual", "Préstamos", "Servicios", "Total"},
		[]any{dateutil.MonthName(now.Month()), money(sum.Monthly.Loans), money(sum.Monthly.Services), money(sum.Monthly.Total())},
	)
	return rows
}

// UpcomingRows lists upcoming payments in date order, one per row.
func UpcomingRows(items []views.UpcomingPayment, now time.Time) [][]any {
	rows := [][]any{{"Fecha", "Tipo", "Nombre", "Titular", "Cuenta", "Monto", "Vence"}}
	total := decimal.Zero
	for _, it := range items {
		rows = append(rows, []any{
			it.Date.Format(time.DateOnly),
			kindLabel(it.Kind),
			it.Name,
			format.HolderName(it.Holder),
			format.AccountName(it.Account),
			money(it.Amount),
			dateutil.FormatRelative(it.Date, now),
		})
		total = total.Add(decimal.NewFromFloat(it.Amount))
	}
	rows = append(rows, []any{"Total", "", "", "", "", cents(total), ""})
	return rows
}

func kindLabel(kind string) string {
	switch kind {
	case views.KindLoan:
		return "Préstamo"
	case views.KindService:
		return "Servicio"
	}
	return kind
}

func money(x float64) float64 {
	return cents(decimal.NewFromFloat(x))
}

func cents(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
