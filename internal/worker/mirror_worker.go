// Package worker mirrors committed expense rows to the spreadsheet sink.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"duckledger/internal/amqp"
	"duckledger/internal/core"
	"duckledger/internal/sheets"
	"duckledger/internal/storage"
)

// Store is the repository surface the worker needs.
type Store interface {
	GetExpense(ctx context.Context, id int64) (core.Expense, error)
	GetPendingMirrorExpenses(ctx context.Context, limit int) ([]core.Expense, error)
	MarkMirrored(ctx context.Context, id int64) error
	MarkMirrorError(ctx context.Context, id int64) error
}

// MirrorWorker copies expense rows from SQLite to the spreadsheet.
type MirrorWorker struct {
	store     Store
	appender  sheets.RowAppender
	batchSize int
}

func NewMirrorWorker(store Store, appender sheets.RowAppender, batchSize int) *MirrorWorker {
	return &MirrorWorker{
		store:     store,
		appender:  appender,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes one sync message from the queue.
// A row deleted before the message arrived (export-and-clear) is not an
// error: there is nothing left to mirror.
func (w *MirrorWorker) HandleSyncMessage(ctx context.Context, msg *amqp.ExpenseSyncMessage) error {
	expense, err := w.store.GetExpense(ctx, msg.ID)
	if errors.Is(err, storage.ErrNotFound) {
		slog.InfoContext(ctx, "Expense gone before mirroring, skipping", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get expense from storage: %w", err)
	}

	return w.mirrorExpense(ctx, expense)
}

// SweepPending mirrors any rows that never got a queue message, oldest
// first. This is the backup path for lost AMQP messages.
func (w *MirrorWorker) SweepPending(ctx context.Context) error {
	pending, err := w.store.GetPendingMirrorExpenses(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending expenses: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Mirroring pending expenses", "count", len(pending))

	for _, expense := range pending {
		if err := w.mirrorExpense(ctx, expense); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror expense",
				"id", expense.ID, "error", err)
		}
	}
	return nil
}

// StartupSweep runs a larger pending sweep at worker startup to recover
// from downtime.
func (w *MirrorWorker) StartupSweep(ctx context.Context) error {
	pending, err := w.store.GetPendingMirrorExpenses(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending expenses for startup sweep: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending expenses found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending expenses on startup", "count", len(pending))

	synced, failed := 0, 0
	for _, expense := range pending {
		if err := w.mirrorExpense(ctx, expense); err != nil {
			slog.ErrorContext(ctx, "Startup mirror failed",
				"id", expense.ID, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Startup sweep completed",
		"total", len(pending), "synced", synced, "errors", failed)
	return nil
}

func (w *MirrorWorker) mirrorExpense(ctx context.Context, expense core.Expense) error {
	ref, err := w.appender.AppendExpense(ctx, expense)
	if err != nil {
		if markErr := w.store.MarkMirrorError(ctx, expense.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark mirror error",
				"id", expense.ID, "error", markErr)
		}
		return fmt.Errorf("append to sheet: %w", err)
	}

	if err := w.store.MarkMirrored(ctx, expense.ID); err != nil {
		// The append succeeded; only the bookkeeping failed.
		slog.ErrorContext(ctx, "Failed to mark as mirrored",
			"id", expense.ID, "error", err)
	}

	slog.InfoContext(ctx, "Expense mirrored",
		"id", expense.ID, "sheets_ref", ref)
	return nil
}
