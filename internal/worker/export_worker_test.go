package worker

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"finanzas/internal/amqp"
	"finanzas/internal/core"
	"finanzas/internal/dateutil"
	sheetsmem "finanzas/internal/sheets/memory"
	"finanzas/internal/storage"
	"finanzas/internal/store"
	"finanzas/internal/views"
)

var testNow = time.Date(2026, time.October, 19, 10, 0, 0, 0, time.UTC)

type fixture struct {
	writer *store.Store
	reader *store.Store
	sheets *sheetsmem.Store
	worker *ExportWorker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	kv := storage.NewMemory()
	clock := store.WithClock(dateutil.FixedClock(testNow))

	writer, err := store.Open(ctx, kv, clock, store.WithIDProvider(&store.SequenceProvider{}))
	if err != nil {
		t.Fatal(err)
	}
	reader, err := store.Open(ctx, kv, clock)
	if err != nil {
		t.Fatal(err)
	}
	out := sheetsmem.New()
	w := NewExportWorker(reader, views.New(reader), out, Config{SummarySheet: "Resumen", UpcomingSheet: "Proximos"}, nil)
	return &fixture{writer: writer, reader: reader, sheets: out, worker: w}
}

func rowWithLabel(rows [][]any, label string) []any {
	for _, r := range rows {
		if len(r) > 0 && r[0] == label {
			return r
		}
	}
	return nil
}

func TestHandleChangeReloadsAndExports(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	loan, err := f.writer.AddLoan(ctx, core.Loan{Name: "Auto", Owner: "NACHO", Amount: 1000})
	if err != nil {
		t.Fatal(err)
	}
	if len(f.reader.Loans()) != 0 {
		t.Fatal("reader should not see the loan before reloading")
	}

	msg := &amqp.ChangeMessage{Collection: string(core.CollectionLoans), Operation: core.OpAdd, ID: loan.ID, Revision: 1}
	if err := f.worker.HandleChange(ctx, msg); err != nil {
		t.Fatalf("HandleChange() error = %v", err)
	}

	rows, ok := f.sheets.Rows("Resumen")
	if !ok {
		t.Fatal("summary sheet not written")
	}
	if got := rowWithLabel(rows, "Ignacio"); got == nil || got[1] != 1000.0 {
		t.Errorf("Ignacio row = %v", got)
	}
	if _, ok := f.sheets.Rows("Proximos"); !ok {
		t.Error("upcoming sheet not written")
	}

	stats := f.worker.Stats()
	if stats.Exports != 1 || stats.Failures != 0 || stats.LastRef != "mem:Resumen!A1:R"+strconv.Itoa(len(rows)) {
		t.Errorf("stats = %+v", stats)
	}
}

func TestExportNowIncludesUpcomingServices(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if _, err := f.writer.AddService(ctx, core.Service{
		Name:          "Antel",
		Holder:        "YENNI",
		BillingDay:    25,
		PaymentMethod: core.MethodDebit2477,
		Price:         core.Price{Amount: 1500, Currency: "UYU", UYUEquivalent: 1500},
	}); err != nil {
		t.Fatal(err)
	}

	if err := f.worker.Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	rows, _ := f.sheets.Rows("Proximos")
	if len(rows) != 3 {
		t.Fatalf("upcoming rows = %v", rows)
	}
	if rows[1][0] != "2026-10-25" || rows[1][2] != "Antel" || rows[1][5] != 1500.0 {
		t.Errorf("upcoming row = %v", rows[1])
	}
}

type failingWriter struct {
	mu    sync.Mutex
	calls int
}

func (w *failingWriter) WriteRows(ctx context.Context, sheet string, rows [][]any) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	return "", errors.New("quota exceeded")
}

func TestExportNowReportsWriterErrors(t *testing.T) {
	f := newFixture(t)
	fw := &failingWriter{}
	w := NewExportWorker(f.reader, views.New(f.reader), fw, Config{SummarySheet: "Resumen"}, nil)

	err := w.ExportNow(context.Background())
	if err == nil {
		t.Fatal("expected export error")
	}
	if fw.calls != 1 {
		t.Errorf("calls = %d, upcoming sheet is disabled", fw.calls)
	}
	if s := w.Stats(); s.Failures != 1 || s.Exports != 0 {
		t.Errorf("stats = %+v", s)
	}

	msg := &amqp.ChangeMessage{Collection: "loans"}
	if err := w.HandleChange(context.Background(), msg); err == nil {
		t.Error("HandleChange should surface export errors so the message is requeued")
	}
}

type brokenSource struct{ Source }

func (brokenSource) Reload(context.Context) error { return errors.New("snapshot unavailable") }

func TestHandleChangeReloadError(t *testing.T) {
	f := newFixture(t)
	w := NewExportWorker(brokenSource{f.reader}, views.New(f.reader), f.sheets, Config{SummarySheet: "Resumen"}, nil)
	if err := w.HandleChange(context.Background(), &amqp.ChangeMessage{Collection: "loans"}); err == nil {
		t.Fatal("expected reload error")
	}
	if f.sheets.Writes() != 0 {
		t.Error("nothing should be exported when reload fails")
	}
}

type oneShotConsumer struct {
	msg    *amqp.ChangeMessage
	cancel context.CancelFunc
	err    error
}

func (c *oneShotConsumer) Run(ctx context.Context, handler amqp.Handler) error {
	c.err = handler(ctx, c.msg)
	c.cancel()
	<-ctx.Done()
	return ctx.Err()
}

func TestRunServesConsumerUntilCancelled(t *testing.T) {
	f := newFixture(t)
	if _, err := f.writer.AddAccount(context.Background(), core.Account{Name: "Brou", Number: "6039"}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	consumer := &oneShotConsumer{msg: &amqp.ChangeMessage{Collection: "accounts"}, cancel: cancel}

	if err := f.worker.Run(ctx, consumer, time.Hour); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if consumer.err != nil {
		t.Errorf("handler error = %v", consumer.err)
	}
	// Startup export plus the consumed message, two sheets each.
	if f.sheets.Writes() != 4 {
		t.Errorf("writes = %d, want 4", f.sheets.Writes())
	}
	if f.worker.Stats().Exports != 2 {
		t.Errorf("exports = %d", f.worker.Stats().Exports)
	}
}

func TestRunPeriodic(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := f.worker.RunPeriodic(ctx, 20*time.Millisecond)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("RunPeriodic() error = %v", err)
	}
	if f.worker.Stats().Exports == 0 {
		t.Error("expected at least one periodic export")
	}

	if err := f.worker.RunPeriodic(context.Background(), 0); err == nil {
		t.Error("zero interval should be rejected")
	}
}
