// Command finanzas is the terminal front end of the household finance
// tracker: it prints the derived summaries and records accounts, loans,
// services, incomes and payments.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"finanzas/internal/cli"
	applog "finanzas/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Stderr, os.Getenv("LOG_LEVEL"), applog.ComponentCLI)

	if len(os.Args) < 2 || os.Args[1] == "help" || os.Args[1] == "-h" || os.Args[1] == "--help" {
		usage(os.Stdout)
		return
	}

	cfg, err := cli.LoadAndValidateConfig(logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, _ := cli.GracefulShutdown(logger, 5*time.Second, nil)

	app, err := cli.Bootstrap(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open store", applog.FieldError, err)
		os.Exit(1)
	}

	err = run(ctx, os.Args[1:], os.Stdout, app)
	if cerr := app.Close(); cerr != nil {
		logger.Warn("Failed to release resources", applog.FieldError, cerr)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// command is one CLI subcommand.
type command struct {
	summary string
	run     func(ctx context.Context, e *env, args []string) error
}

// env is what a command needs to do its work.
type env struct {
	app *cli.App
	out io.Writer
}

var commands = map[string]command{
	"summary":     {"global monthly summary by holder and account", cmdSummary},
	"holder":      {"loans and services of a holder: holder <id>", cmdHolder},
	"account":     {"what is debited from an account: account <id|number>", cmdAccount},
	"upcoming":    {"upcoming loan and service payments", cmdUpcoming},
	"service":     {"service details and payment history: service <id>", cmdService},
	"list":        {"sorted list: list <accounts|loans|services|incomes> [-sort f] [-dir asc|desc] [-filter f=v]", cmdList},
	"add-account": {"record an account", cmdAddAccount},
	"add-loan":    {"record a loan", cmdAddLoan},
	"add-service": {"record a service", cmdAddService},
	"add-income":  {"record an income", cmdAddIncome},
	"pay-loan":    {"record a loan payment: pay-loan <id> -amount n", cmdPayLoan},
	"pay-service": {"record a service payment: pay-service <id> -amount n", cmdPayService},
	"update-loan": {"change a loan: update-loan <id> [-status s] [-amount n] [-next date]", cmdUpdateLoan},
	"watch":       {"reprint the summary whenever the stored data changes", cmdWatch},
}

func run(ctx context.Context, args []string, stdout io.Writer, app *cli.App) error {
	if len(args) == 0 {
		usage(stdout)
		return nil
	}
	cmd, ok := commands[args[0]]
	if !ok {
		usage(stdout)
		return fmt.Errorf("unknown command %q", args[0])
	}
	app.Logger.DebugContext(ctx, "Running command", applog.FieldCommand, args[0])
	return cmd.run(ctx, &env{app: app, out: stdout}, args[1:])
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: finanzas <command> [flags]")
	fmt.Fprintln(w)
	for _, name := range slices.Sorted(maps.Keys(commands)) {
		fmt.Fprintf(w, "  %-12s %s\n", name, commands[name].summary)
	}
}

// splitID takes a leading positional id off args so flags may follow it.
func splitID(args []string) (string, []string) {
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		return args[0], args[1:]
	}
	return "", args
}
