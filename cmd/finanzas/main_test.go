package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"finanzas/internal/cli"
	"finanzas/internal/config"
	"finanzas/internal/core"
	"finanzas/internal/format"
)

func newApp(t *testing.T, seed bool) *cli.App {
	t.Helper()
	cfg := &config.Config{
		StoreBackend:  config.BackendMemory,
		SnapshotKey:   "finance-store",
		SeedOnStart:   seed,
		WatchInterval: time.Second,
		ViewCacheSize: 16,
		ViewCacheTTL:  time.Minute,
	}
	app, err := cli.Bootstrap(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { app.Close() })
	return app
}

func runCmd(t *testing.T, app *cli.App, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), args, &out, app)
	return out.String(), err
}

func TestRunUsage(t *testing.T) {
	app := newApp(t, false)
	out, err := runCmd(t, app)
	require.NoError(t, err)
	require.Contains(t, out, "usage: finanzas")
	require.Contains(t, out, "pay-loan")

	_, err = runCmd(t, app, "nope")
	require.ErrorContains(t, err, `unknown command "nope"`)
}

func TestSummaryWithSeedData(t *testing.T) {
	app := newApp(t, true)
	out, err := runCmd(t, app, "summary")
	require.NoError(t, err)

	require.Contains(t, out, "Ignacio")
	require.Contains(t, out, "Yenniffer")
	require.Contains(t, out, "Brou Débito 6039")
	sum := app.Store.GlobalSummary()
	require.Contains(t, out, format.Currency(sum.Monthly.Total()))
}

func TestAddAndReportFlow(t *testing.T) {
	app := newApp(t, false)

	out, err := runCmd(t, app, "add-account", "-name", "Brou", "-bank", "BROU", "-number", "6039", "-holder", "IGNACIO")
	require.NoError(t, err)
	require.Contains(t, out, "Cuenta creada")

	_, err = runCmd(t, app, "add-loan", "-name", "Auto", "-owner", "nacho", "-account", "6039", "-amount", "1000", "-total", "12000", "-next", "2026-11-05")
	require.NoError(t, err)
	_, err = runCmd(t, app, "add-service", "-name", "Spotify", "-holder", "LAFIO", "-amount", "1200", "-cycle", "annual", "-day", "20", "-method", core.MethodDebit6039)
	require.NoError(t, err)

	out, err = runCmd(t, app, "holder", "ignacio")
	require.NoError(t, err)
	require.Contains(t, out, "Auto")
	require.Contains(t, out, "Spotify")
	require.Contains(t, out, format.Currency(1100))

	out, err = runCmd(t, app, "account", "6039")
	require.NoError(t, err)
	require.Contains(t, out, format.Currency(1100))

	out, err = runCmd(t, app, "upcoming")
	require.NoError(t, err)
	require.Contains(t, out, "05/11/2026")
	require.Contains(t, out, "Spotify")
}

func TestPayLoanUpdatesBalance(t *testing.T) {
	app := newApp(t, false)
	loan, err := app.Store.AddLoan(context.Background(), core.Loan{Name: "Auto", Owner: "IGNACIO", Amount: 100, TotalAmountToPay: 1000})
	require.NoError(t, err)

	out, err := runCmd(t, app, "pay-loan", loan.ID, "-amount", "250")
	require.NoError(t, err)
	require.Contains(t, out, format.Currency(750))

	got, ok := app.Store.Loan(loan.ID)
	require.True(t, ok)
	require.Len(t, got.PaymentHistory, 1)

	_, err = runCmd(t, app, "pay-loan", "LOAN-missing", "-amount", "10")
	require.True(t, errors.Is(err, core.ErrNotFound), "err = %v", err)

	_, err = runCmd(t, app, "pay-loan", loan.ID, "-amount", "-5")
	require.ErrorContains(t, err, "amount: failed gt=0")
}

func TestPayServiceAndDetails(t *testing.T) {
	app := newApp(t, false)
	svc, err := app.Store.AddService(context.Background(), core.Service{
		Name: "UTE", Holder: "NACHO", BillingDay: 15, BillingCycle: core.Monthly,
		Price: core.Price{Amount: 2400, Currency: "UYU", UYUEquivalent: 2400}, PaymentMethod: core.MethodCash,
	})
	require.NoError(t, err)

	_, err = runCmd(t, app, "pay-service", svc.ID, "-amount", "2400")
	require.NoError(t, err)

	out, err := runCmd(t, app, "service", svc.ID)
	require.NoError(t, err)
	require.Contains(t, out, "UTE")
	require.Contains(t, out, "Efectivo")
	require.Contains(t, out, "Este mes: Pagado")
	require.Contains(t, out, "Próximo pago")

	_, err = runCmd(t, app, "service", "SRV-missing")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestUpdateLoan(t *testing.T) {
	app := newApp(t, false)
	loan, err := app.Store.AddLoan(context.Background(), core.Loan{Name: "Auto", Owner: "IGNACIO", Amount: 100})
	require.NoError(t, err)

	_, err = runCmd(t, app, "update-loan", loan.ID, "-status", "completed", "-next", "2026-12-01")
	require.NoError(t, err)

	got, _ := app.Store.Loan(loan.ID)
	require.Equal(t, core.LoanCompleted, got.Status)
	require.Equal(t, 100.0, got.Amount, "amount flag was not given")
	require.NotNil(t, got.NextPaymentDate)
	require.Equal(t, "2026-12-01", got.NextPaymentDate.Format(time.DateOnly))

	_, err = runCmd(t, app, "update-loan", loan.ID, "-status", "paused")
	require.ErrorContains(t, err, "status: failed oneof")
	_, err = runCmd(t, app, "update-loan", loan.ID, "-next", "01/12/2026")
	require.ErrorContains(t, err, "YYYY-MM-DD")
}

func TestListSortAndFilter(t *testing.T) {
	app := newApp(t, true)

	out, err := runCmd(t, app, "list", "services", "-sort", "name", "-dir", "desc")
	require.NoError(t, err)
	ute := strings.Index(out, "UTE")
	antel := strings.Index(out, "Antel Fibra")
	require.True(t, ute >= 0 && antel >= 0 && ute < antel, "descending order expected:\n%s", out)

	out, err = runCmd(t, app, "list", "services", "-filter", "category=stream")
	require.NoError(t, err)
	require.Contains(t, out, "Netflix")
	require.NotContains(t, out, "UTE")

	_, err = runCmd(t, app, "list", "services", "-dir", "sideways")
	require.ErrorContains(t, err, "direction")
	_, err = runCmd(t, app, "list", "services", "-filter", "category")
	require.ErrorContains(t, err, "field=value")
	_, err = runCmd(t, app, "list", "cars")
	require.ErrorContains(t, err, "unknown collection")
}

func TestAddValidation(t *testing.T) {
	app := newApp(t, false)
	_, err := runCmd(t, app, "add-loan", "-name", "Auto")
	require.ErrorContains(t, err, "owner: failed required")
	_, err = runCmd(t, app, "add-service", "-name", "X", "-holder", "IGNACIO", "-cycle", "weekly")
	require.ErrorContains(t, err, "cycle: failed oneof")
	_, err = runCmd(t, app, "add-income", "-holder", "YENNI", "-amount", "50000", "-currency", "pesos")
	require.ErrorContains(t, err, "currency")

	out, err := runCmd(t, app, "add-income", "-holder", "YENNI", "-source", "Sueldo", "-amount", "50000")
	require.NoError(t, err)
	require.Contains(t, out, "Ingreso creado")
	require.Len(t, app.Store.Incomes(), 1)
}

func TestWatchPrintsOnceWithoutChanges(t *testing.T) {
	app := newApp(t, true)
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	require.NoError(t, run(ctx, []string{"watch", "-interval", "20ms"}, &out, app))
	require.Equal(t, 1, strings.Count(out.String(), "Resumen "))
}
