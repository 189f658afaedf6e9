package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"finanzas/internal/core"
	"finanzas/internal/format"
)

var validate = validator.New()

// validateInput checks v's validate tags and reports every failing field.
func validateInput(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			problems = append(problems, fmt.Sprintf("%s: failed %s=%s", strings.ToLower(fe.Field()), fe.Tag(), fe.Param()))
		} else {
			problems = append(problems, fmt.Sprintf("%s: failed %s", strings.ToLower(fe.Field()), fe.Tag()))
		}
	}
	return fmt.Errorf("invalid input: %s", strings.Join(problems, "; "))
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, fmt.Errorf("date %q must be YYYY-MM-DD", s)
	}
	return &t, nil
}

type accountInput struct {
	Name     string `validate:"required"`
	Bank     string
	Number   string `validate:"omitempty,numeric"`
	Type     string `validate:"omitempty,oneof=debit credit prepaid savings"`
	Currency string `validate:"omitempty,iso4217"`
	Holder   string
}

func cmdAddAccount(ctx context.Context, e *env, args []string) error {
	var in accountInput
	fs := newFlagSet("add-account")
	fs.StringVar(&in.Name, "name", "", "display name")
	fs.StringVar(&in.Bank, "bank", "", "bank")
	fs.StringVar(&in.Number, "number", "", "card or account number")
	fs.StringVar(&in.Type, "type", "", "debit, credit, prepaid or savings")
	fs.StringVar(&in.Currency, "currency", format.DefaultCurrency, "ISO currency")
	fs.StringVar(&in.Holder, "holder", "", "holder")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("add-account: %w", err)
	}
	if err := validateInput(in); err != nil {
		return fmt.Errorf("add-account: %w", err)
	}

	acc, err := e.app.Store.AddAccount(ctx, core.Account{
		Name: in.Name, Bank: in.Bank, Number: in.Number, Type: in.Type, Currency: in.Currency, Holder: in.Holder,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Cuenta creada: %s\n", acc.ID)
	return nil
}

type loanInput struct {
	Name         string  `validate:"required"`
	Owner        string  `validate:"required"`
	Account      string
	Amount       float64 `validate:"gt=0"`
	Total        float64 `validate:"gte=0"`
	Installments int     `validate:"gte=0"`
	Currency     string  `validate:"omitempty,iso4217"`
	Next         string
}

func cmdAddLoan(ctx context.Context, e *env, args []string) error {
	var in loanInput
	fs := newFlagSet("add-loan")
	fs.StringVar(&in.Name, "name", "", "loan name")
	fs.StringVar(&in.Owner, "owner", "", "holder or alias")
	fs.StringVar(&in.Account, "account", "", "account id or number")
	fs.Float64Var(&in.Amount, "amount", 0, "monthly installment")
	fs.Float64Var(&in.Total, "total", 0, "total amount to pay")
	fs.IntVar(&in.Installments, "installments", 0, "number of installments")
	fs.StringVar(&in.Currency, "currency", format.DefaultCurrency, "ISO currency")
	fs.StringVar(&in.Next, "next", "", "next payment date YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("add-loan: %w", err)
	}
	if err := validateInput(in); err != nil {
		return fmt.Errorf("add-loan: %w", err)
	}
	next, err := parseDate(in.Next)
	if err != nil {
		return fmt.Errorf("add-loan: %w", err)
	}

	loan, err := e.app.Store.AddLoan(ctx, core.Loan{
		Name: in.Name, Owner: in.Owner, Account: in.Account, Amount: in.Amount, TotalAmountToPay: in.Total,
		Installments: in.Installments, Currency: in.Currency, NextPaymentDate: next,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Préstamo creado: %s\n", loan.ID)
	return nil
}

type serviceInput struct {
	Name     string  `validate:"required"`
	Holder   string  `validate:"required"`
	Category string
	Amount   float64 `validate:"gte=0"`
	Currency string  `validate:"omitempty,iso4217"`
	UYU      float64 `validate:"gte=0"`
	Cycle    string  `validate:"oneof=monthly annual"`
	Day      int     `validate:"min=0,max=31"`
	Method   string
}

func cmdAddService(ctx context.Context, e *env, args []string) error {
	var in serviceInput
	fs := newFlagSet("add-service")
	fs.StringVar(&in.Name, "name", "", "service name")
	fs.StringVar(&in.Holder, "holder", "", "holder or alias")
	fs.StringVar(&in.Category, "category", "", "category")
	fs.Float64Var(&in.Amount, "amount", 0, "price in its own currency")
	fs.StringVar(&in.Currency, "currency", format.DefaultCurrency, "ISO currency")
	fs.Float64Var(&in.UYU, "uyu", 0, "price in UYU, defaults to amount")
	fs.StringVar(&in.Cycle, "cycle", string(core.Monthly), "monthly or annual")
	fs.IntVar(&in.Day, "day", 0, "billing day, 0 for none")
	fs.StringVar(&in.Method, "method", "", "payment method, e.g. debit_6039 or cash")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("add-service: %w", err)
	}
	if err := validateInput(in); err != nil {
		return fmt.Errorf("add-service: %w", err)
	}
	if in.UYU == 0 && strings.EqualFold(in.Currency, format.DefaultCurrency) {
		in.UYU = in.Amount
	}

	svc, err := e.app.Store.AddService(ctx, core.Service{
		Name:          in.Name,
		Holder:        in.Holder,
		Category:      in.Category,
		Price:         core.Price{Amount: in.Amount, Currency: in.Currency, UYUEquivalent: in.UYU},
		BillingCycle:  core.BillingCycle(in.Cycle),
		BillingDay:    in.Day,
		PaymentMethod: in.Method,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Servicio creado: %s\n", svc.ID)
	return nil
}

type incomeInput struct {
	Holder   string  `validate:"required"`
	Source   string
	Amount   float64 `validate:"gt=0"`
	Currency string  `validate:"omitempty,iso4217"`
}

func cmdAddIncome(ctx context.Context, e *env, args []string) error {
	var in incomeInput
	fs := newFlagSet("add-income")
	fs.StringVar(&in.Holder, "holder", "", "holder or alias")
	fs.StringVar(&in.Source, "source", "", "income source")
	fs.Float64Var(&in.Amount, "amount", 0, "amount")
	fs.StringVar(&in.Currency, "currency", format.DefaultCurrency, "ISO currency")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("add-income: %w", err)
	}
	if err := validateInput(in); err != nil {
		return fmt.Errorf("add-income: %w", err)
	}

	inc, err := e.app.Store.AddIncome(ctx, core.Income{Holder: in.Holder, Source: in.Source, Amount: in.Amount, Currency: in.Currency})
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Ingreso creado: %s\n", inc.ID)
	return nil
}

type paymentInput struct {
	ID     string  `validate:"required"`
	Amount float64 `validate:"gt=0"`
	Type   string  `validate:"omitempty,alphanum"`
}

func parsePayment(name string, args []string) (paymentInput, error) {
	var in paymentInput
	id, rest := splitID(args)
	in.ID = id
	fs := newFlagSet(name)
	fs.Float64Var(&in.Amount, "amount", 0, "amount paid")
	fs.StringVar(&in.Type, "type", "", "payment type, e.g. regular or extra")
	if err := fs.Parse(rest); err != nil {
		return in, fmt.Errorf("%s: %w", name, err)
	}
	if err := validateInput(in); err != nil {
		return in, fmt.Errorf("%s: %w", name, err)
	}
	return in, nil
}

func cmdPayLoan(ctx context.Context, e *env, args []string) error {
	in, err := parsePayment("pay-loan", args)
	if err != nil {
		return err
	}
	p, err := e.app.Store.AddLoanPayment(ctx, in.ID, core.LoanPayment{Amount: in.Amount, Type: core.PaymentType(in.Type)})
	if err != nil {
		return err
	}
	loan, _ := e.app.Store.Loan(in.ID)
	fmt.Fprintf(e.out, "Pago registrado: %s, saldo %s\n", p.ID, format.Currency(core.RemainingBalance(loan)))
	return nil
}

func cmdPayService(ctx context.Context, e *env, args []string) error {
	in, err := parsePayment("pay-service", args)
	if err != nil {
		return err
	}
	p, err := e.app.Store.AddServicePayment(ctx, in.ID, core.ServicePayment{Amount: in.Amount, Type: core.PaymentType(in.Type)})
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Pago registrado: %s\n", p.ID)
	return nil
}

type loanUpdateInput struct {
	ID     string  `validate:"required"`
	Status string  `validate:"omitempty,oneof=active completed cancelled"`
	Amount float64 `validate:"gte=0"`
	Next   string
	Notes  string
}

func cmdUpdateLoan(ctx context.Context, e *env, args []string) error {
	var in loanUpdateInput
	id, rest := splitID(args)
	in.ID = id
	fs := newFlagSet("update-loan")
	fs.StringVar(&in.Status, "status", "", "active, completed or cancelled")
	fs.Float64Var(&in.Amount, "amount", 0, "new monthly installment")
	fs.StringVar(&in.Next, "next", "", "next payment date YYYY-MM-DD")
	fs.StringVar(&in.Notes, "notes", "", "notes")
	if err := fs.Parse(rest); err != nil {
		return fmt.Errorf("update-loan: %w", err)
	}
	if err := validateInput(in); err != nil {
		return fmt.Errorf("update-loan: %w", err)
	}
	next, err := parseDate(in.Next)
	if err != nil {
		return fmt.Errorf("update-loan: %w", err)
	}

	var patch core.LoanPatch
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["status"] {
		status := core.LoanStatus(in.Status)
		patch.Status = &status
	}
	if set["amount"] {
		patch.Amount = &in.Amount
	}
	if set["notes"] {
		patch.Notes = &in.Notes
	}
	patch.NextPaymentDate = next

	if err := e.app.Store.UpdateLoan(ctx, in.ID, patch); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Préstamo actualizado: %s\n", in.ID)
	return nil
}
