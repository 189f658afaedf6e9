package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/dateutil"
	"finanzas/internal/format"
	applog "finanzas/internal/log"
	"finanzas/internal/views"
)

func cmdSummary(ctx context.Context, e *env, args []string) error {
	return printSummary(e.out, e)
}

func printSummary(w io.Writer, e *env) error {
	st := e.app.Store
	sum := st.GlobalSummary()
	now := st.Now()

	heading(w, "Resumen "+dateutil.FormatMonth(now))
	tw := newTable(w)
	row(tw, "TITULAR", "PRÉSTAMOS", "SERVICIOS", "TOTAL")
	for _, key := range st.Holders().Keys() {
		t := sum.ByHolder[key]
		row(tw, format.HolderName(key), format.Currency(t.Loans), format.Currency(t.Services), format.Currency(t.Total))
	}
	row(tw, "Total", format.Currency(sum.TotalLoans), format.Currency(sum.TotalServices), format.Currency(sum.TotalLoans+sum.TotalServices))
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	tw = newTable(w)
	row(tw, "CUENTA", "NÚMERO", "PRÉSTAMOS", "SERVICIOS", "TOTAL")
	for _, acc := range st.Accounts() {
		p := sum.ByAccount[acc.ID]
		row(tw, acc.Name, acc.Number, len(p.Loans), len(p.Services), format.Currency(p.Total))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nMensual: préstamos %s, servicios %s, total %s\n",
		format.Currency(sum.Monthly.Loans), format.Currency(sum.Monthly.Services), format.Currency(sum.Monthly.Total()))
	return nil
}

func cmdHolder(ctx context.Context, e *env, args []string) error {
	id, _ := splitID(args)
	if id == "" {
		return errors.New("holder: missing holder id")
	}
	view, ok := e.app.Views.HolderPayments(id)
	if !ok {
		return fmt.Errorf("holder %q: %w", id, core.ErrNotFound)
	}

	heading(e.out, format.HolderName(view.Holder))
	tw := newTable(e.out)
	row(tw, "TIPO", "NOMBRE", "CUENTA", "MENSUAL")
	for _, l := range view.Loans {
		row(tw, "Préstamo", l.Name, format.AccountName(l.Account), format.Currency(l.Amount))
	}
	for _, s := range view.Services {
		row(tw, "Servicio", s.Name, format.PaymentMethod(s.PaymentMethod), format.Currency(s.MonthlyAmount))
	}
	row(tw, "Total", "", "", format.Currency(view.TotalMonthly))
	return tw.Flush()
}

func cmdAccount(ctx context.Context, e *env, args []string) error {
	id, _ := splitID(args)
	if id == "" {
		return errors.New("account: missing account id or number")
	}
	view, ok := e.app.Views.AccountPayments(id)
	if !ok {
		return fmt.Errorf("account %q: %w", id, core.ErrNotFound)
	}

	heading(e.out, view.Account.Name)
	tw := newTable(e.out)
	row(tw, "TIPO", "NOMBRE", "TITULAR", "MENSUAL")
	for _, l := range view.Loans {
		row(tw, "Préstamo", l.Name, format.HolderName(l.Owner), format.Currency(l.Amount))
	}
	for _, s := range view.Services {
		row(tw, "Servicio", s.Name, format.HolderName(s.Holder), format.Currency(core.MonthlyAmount(s)))
	}
	row(tw, "Total", "", "", format.Currency(view.TotalMonthly))
	return tw.Flush()
}

func cmdUpcoming(ctx context.Context, e *env, args []string) error {
	now := e.app.Store.Now()
	ov := e.app.Views.Overview(now)

	heading(e.out, "Próximos pagos")
	if len(ov.Upcoming) == 0 {
		fmt.Fprintln(e.out, "Sin pagos programados")
		return nil
	}
	tw := newTable(e.out)
	row(tw, "FECHA", "VENCE", "TIPO", "NOMBRE", "TITULAR", "CUENTA", "MONTO")
	for _, p := range ov.Upcoming {
		kind := "Servicio"
		if p.Kind == views.KindLoan {
			kind = "Préstamo"
		}
		row(tw, format.Date(p.Date, format.DateShort), dateutil.FormatRelative(p.Date, now), kind, p.Name,
			format.HolderName(p.Holder), format.AccountName(p.Account), format.Currency(p.Amount))
	}
	return tw.Flush()
}

func cmdService(ctx context.Context, e *env, args []string) error {
	id, _ := splitID(args)
	if id == "" {
		return errors.New("service: missing service id")
	}
	d, ok := e.app.Store.ServiceDetails(id)
	if !ok {
		return fmt.Errorf("service %q: %w", id, core.ErrNotFound)
	}

	heading(e.out, d.Name)
	fmt.Fprintf(e.out, "Titular: %s\n", format.HolderName(d.Holder))
	fmt.Fprintf(e.out, "Precio: %s (%s)\n", format.CurrencyIn(d.Price.Amount, d.Price.Currency), format.Currency(d.Price.UYUEquivalent))
	fmt.Fprintf(e.out, "Mensual: %s\n", format.Currency(core.MonthlyAmount(d.Service)))
	fmt.Fprintf(e.out, "Medio de pago: %s\n", format.PaymentMethod(d.PaymentMethod))
	fmt.Fprintf(e.out, "Estado: %s\n", format.Status(string(d.Status), format.StatusGeneral))
	paid := "pending"
	if d.IsPaid {
		paid = "paid"
	}
	fmt.Fprintf(e.out, "Este mes: %s\n", format.Status(paid, format.StatusPayment))
	if d.NextPaymentDate != nil {
		fmt.Fprintf(e.out, "Próximo pago: %s (%s)\n", format.Date(*d.NextPaymentDate, format.DateLong),
			dateutil.FormatRelative(*d.NextPaymentDate, e.app.Store.Now()))
	}
	if len(d.Payments) == 0 {
		return nil
	}
	fmt.Fprintln(e.out)
	tw := newTable(e.out)
	row(tw, "FECHA", "MONTO", "TIPO")
	for _, p := range d.Payments {
		row(tw, format.Date(p.Date, format.DateShort), format.Currency(p.Amount), p.Type)
	}
	return tw.Flush()
}

func cmdList(ctx context.Context, e *env, args []string) error {
	what, rest := splitID(args)
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var cfg views.SortConfig
	var filter string
	fs.StringVar(&cfg.SortBy, "sort", "", "field to sort by")
	fs.StringVar(&cfg.Direction, "dir", views.Asc, "asc or desc")
	fs.StringVar(&filter, "filter", "", "field=value substring filter")
	if err := fs.Parse(rest); err != nil {
		return fmt.Errorf("list: %w", err)
	}
	if filter != "" {
		field, value, ok := strings.Cut(filter, "=")
		if !ok {
			return fmt.Errorf("list: filter must be field=value, got %q", filter)
		}
		cfg.FilterBy, cfg.FilterValue = field, value
	}
	if err := validateInput(cfg); err != nil {
		return fmt.Errorf("list: %w", err)
	}

	st := e.app.Store
	tw := newTable(e.out)
	switch what {
	case "accounts":
		row(tw, "ID", "NOMBRE", "BANCO", "NÚMERO", "TITULAR")
		for _, a := range views.Sorted(st.Accounts(), cfg, core.Account.Field) {
			row(tw, a.ID, a.Name, a.Bank, a.Number, format.HolderName(a.Holder))
		}
	case "loans":
		row(tw, "ID", "NOMBRE", "TITULAR", "CUOTA", "PAGADO", "PROGRESO", "ESTADO")
		for _, l := range views.Sorted(st.Loans(), cfg, core.Loan.Field) {
			paid := core.SumPayments(l.PaymentHistory, core.PaymentTypeAll)
			row(tw, l.ID, l.Name, format.HolderName(l.Owner), format.Currency(l.Amount), format.Currency(paid),
				format.Percentage(core.CalculateProgress(paid, l.TotalAmountToPay), 1), format.Status(string(l.Status), format.StatusLoan))
		}
	case "services":
		row(tw, "ID", "NOMBRE", "TITULAR", "CICLO", "MENSUAL", "ESTADO")
		for _, s := range views.Sorted(st.Services(), cfg, core.Service.Field) {
			row(tw, s.ID, s.Name, format.HolderName(s.Holder), s.BillingCycle, format.Currency(core.MonthlyAmount(s)),
				format.Status(string(s.Status), format.StatusGeneral))
		}
	case "incomes":
		row(tw, "ID", "TITULAR", "ORIGEN", "MONTO")
		for _, i := range views.Sorted(st.Incomes(), cfg, core.Income.Field) {
			row(tw, i.ID, format.HolderName(i.Holder), i.Source, format.CurrencyIn(i.Amount, currencyOr(i.Currency)))
		}
	default:
		return fmt.Errorf("list: unknown collection %q (accounts, loans, services, incomes)", what)
	}
	return tw.Flush()
}

func currencyOr(code string) string {
	if code == "" {
		return format.DefaultCurrency
	}
	return code
}

// cmdWatch reloads the snapshot every interval and reprints the summary
// when it changed, until interrupted.
func cmdWatch(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	interval := fs.Duration("interval", e.app.Config.WatchInterval, "reload interval")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	if *interval <= 0 {
		return errors.New("watch: interval must be positive")
	}

	var last []byte
	render := func() error {
		var buf bytes.Buffer
		if err := printSummary(&buf, e); err != nil {
			return err
		}
		if bytes.Equal(buf.Bytes(), last) {
			return nil
		}
		last = buf.Bytes()
		_, err := e.out.Write(last)
		return err
	}
	if err := render(); err != nil {
		return err
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := e.app.Store.Reload(ctx); err != nil {
				e.app.Logger.WarnContext(ctx, "Reload failed", applog.FieldError, err)
				continue
			}
			if err := render(); err != nil {
				return err
			}
		}
	}
}
