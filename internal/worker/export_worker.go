// Package worker keeps the exported spreadsheet in step with the store. It
// reacts to change notifications and re-exports periodically as a fallback
// for lost messages.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"finanzas/internal/amqp"
	"finanzas/internal/core"
	applog "finanzas/internal/log"
	"finanzas/internal/sheets"
	"finanzas/internal/views"
)

// Source is the store surface the worker reads.
type Source interface {
	Reload(ctx context.Context) error
	GlobalSummary() core.GlobalSummary
	Holders() core.Holders
	Accounts() []core.Account
	Now() time.Time
}

// Config names the target sheets.
type Config struct {
	SummarySheet  string
	UpcomingSheet string
}

// Stats counts finished exports.
type Stats struct {
	Exports  int64
	Failures int64
	LastRef  string
	LastAt   time.Time
}

type ExportWorker struct {
	src    Source
	views  *views.Views
	writer sheets.RowWriter
	cfg    Config
	logger *applog.Logger

	mu    sync.Mutex
	stats Stats
}

func NewExportWorker(src Source, v *views.Views, writer sheets.RowWriter, cfg Config, logger *applog.Logger) *ExportWorker {
	if logger == nil {
		logger = applog.Discard()
	}
	return &ExportWorker{
		src:    src,
		views:  v,
		writer: writer,
		cfg:    cfg,
		logger: logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleChange reloads the snapshot written by the publishing process and
// exports the refreshed summary.
func (w *ExportWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	w.logger.InfoContext(ctx, "Processing change message",
		applog.NewFields().
			WithChange(msg.Collection, msg.Operation, msg.ID, msg.Revision).
			WithOperation(applog.OpConsume).
			ToSlice()...)

	if err := w.src.Reload(ctx); err != nil {
		return fmt.Errorf("reload snapshot: %w", err)
	}
	if err := w.ExportNow(ctx); err != nil {
		return fmt.Errorf("export after change: %w", err)
	}
	return nil
}

// Refresh reloads and exports. It backs the periodic tick and the startup
// export.
func (w *ExportWorker) Refresh(ctx context.Context) error {
	if err := w.src.Reload(ctx); err != nil {
		return fmt.Errorf("reload snapshot: %w", err)
	}
	return w.ExportNow(ctx)
}

// ExportNow writes the summary and upcoming sheets concurrently from the
// current store state. Exports are serialized.
func (w *ExportWorker) ExportNow(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	start := time.Now()
	now := w.src.Now()
	summaryRows := sheets.SummaryRows(w.src.GlobalSummary(), w.src.Holders(), w.src.Accounts(), now)
	upcomingRows := sheets.UpcomingRows(w.views.Overview(now).Upcoming, now)

	var summaryRef, upcomingRef string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ref, err := w.writer.WriteRows(gctx, w.cfg.SummarySheet, summaryRows)
		if err != nil {
			return fmt.Errorf("write %s: %w", w.cfg.SummarySheet, err)
		}
		summaryRef = ref
		return nil
	})
	if w.cfg.UpcomingSheet != "" {
		g.Go(func() error {
			ref, err := w.writer.WriteRows(gctx, w.cfg.UpcomingSheet, upcomingRows)
			if err != nil {
				return fmt.Errorf("write %s: %w", w.cfg.UpcomingSheet, err)
			}
			upcomingRef = ref
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		w.stats.Failures++
		w.logger.ErrorContext(ctx, "Export failed", applog.NewFields().
			WithError(err).
			WithOperation(applog.OpExport).
			ToSlice()...)
		return err
	}

	w.stats.Exports++
	w.stats.LastRef = summaryRef
	w.stats.LastAt = now
	w.logger.InfoContext(ctx, "Export completed",
		applog.FieldOperation, applog.OpExport,
		applog.FieldSheetsRef, summaryRef,
		"upcoming_ref", upcomingRef,
		applog.FieldRows, len(summaryRows)+len(upcomingRows),
		applog.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

// RunPeriodic refreshes the export every interval until ctx is cancelled.
// Failures are logged and retried on the next tick.
func (w *ExportWorker) RunPeriodic(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return errors.New("export interval must be positive")
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Refresh(ctx); err != nil && ctx.Err() == nil {
				w.logger.ErrorContext(ctx, "Periodic export failed", applog.FieldError, err)
			}
		}
	}
}

// Consumer delivers change messages until ctx is cancelled.
type Consumer interface {
	Run(ctx context.Context, handler amqp.Handler) error
}

// Run performs a startup export, then serves change messages from consumer
// (when not nil) alongside the periodic refresh. It returns when ctx is
// cancelled or the consumer fails for good.
func (w *ExportWorker) Run(ctx context.Context, consumer Consumer, interval time.Duration) error {
	if err := w.Refresh(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Startup export failed", applog.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.RunPeriodic(gctx, interval) })
	if consumer != nil {
		g.Go(func() error { return consumer.Run(gctx, w.HandleChange) })
	}
	err := g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (w *ExportWorker) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}
