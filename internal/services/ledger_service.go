// Package services orchestrates ledger operations across the SQLite store,
// the AMQP mirror queue, and the export sinks.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"duckledger/internal/core"
	"duckledger/internal/report"
	"duckledger/internal/sheets"
)

// Store is the persistence surface the service needs. *storage.Repository
// implements it.
type Store interface {
	AddExpense(ctx context.Context, owner core.Owner, category string, amount core.Money, at time.Time) (core.Expense, error)
	UpsertLimit(ctx context.Context, l core.Limit) error
	GetLimit(ctx context.Context, owner core.Owner, category string) (core.Money, bool, error)
	ListExpenses(ctx context.Context, owner core.Owner, w core.Window) ([]core.Expense, error)
	SumCategory(ctx context.Context, owner core.Owner, category string, w core.Window) (core.Money, error)
	ClearExpenses(ctx context.Context, owner core.Owner) (int64, error)
}

// Publisher pushes mirror messages for the worker. May be nil when no
// broker is configured.
type Publisher interface {
	PublishExpenseSync(ctx context.Context, id, version int64) error
}

// LedgerService records expenses and limits, aggregates them, and produces
// export artifacts.
type LedgerService struct {
	store     Store
	publisher Publisher
	mirror    sheets.TableWriter // optional export mirror
	loc       *time.Location
	exportDir string
	now       func() time.Time
}

func NewLedgerService(store Store, publisher Publisher, mirror sheets.TableWriter, loc *time.Location, exportDir string) *LedgerService {
	if loc == nil {
		loc = time.UTC
	}
	return &LedgerService{
		store:     store,
		publisher: publisher,
		mirror:    mirror,
		loc:       loc,
		exportDir: exportDir,
		now:       time.Now,
	}
}

// Location returns the fixed zone used for month boundaries.
func (s *LedgerService) Location() *time.Location {
	return s.loc
}

// CurrentMonth returns this month's window in the service's fixed zone,
// the same zone expenses are recorded against.
func (s *LedgerService) CurrentMonth() core.Window {
	return core.MonthWindow(s.now(), s.loc)
}

// RecordEntries appends one expense per entry, in input order, and returns
// the created records plus limit overruns triggered by the batch.
//
// Each line is inserted independently: a failure mid-batch leaves earlier
// lines committed and is returned with the records created so far.
func (s *LedgerService) RecordEntries(ctx context.Context, owner core.Owner, entries []core.Entry) ([]core.Expense, []core.LimitStatus, error) {
	at := s.now()
	month := s.CurrentMonth()

	var (
		created  []core.Expense
		breaches []core.LimitStatus
		warned   = make(map[string]bool)
	)
	for _, entry := range entries {
		e, err := s.store.AddExpense(ctx, owner, entry.Category, entry.Amount, at)
		if err != nil {
			return created, breaches, fmt.Errorf("record %q: %w", entry.Category, err)
		}
		created = append(created, e)
		s.publishMirror(ctx, e.ID)

		if warned[entry.Category] {
			continue
		}
		status, checked, err := s.checkLimit(ctx, owner, entry.Category, month)
		if err != nil {
			// The expense is saved; a failed limit lookup only costs the warning.
			slog.ErrorContext(ctx, "Limit check failed",
				"owner", int64(owner), "category", entry.Category, "error", err)
			continue
		}
		if checked && status.Over() {
			breaches = append(breaches, status)
			warned[entry.Category] = true
		}
	}
	return created, breaches, nil
}

func (s *LedgerService) checkLimit(ctx context.Context, owner core.Owner, category string, month core.Window) (core.LimitStatus, bool, error) {
	limit, ok, err := s.store.GetLimit(ctx, owner, category)
	if err != nil {
		return core.LimitStatus{}, false, err
	}
	if !ok {
		return core.LimitStatus{}, false, nil
	}
	spent, err := s.store.SumCategory(ctx, owner, category, month)
	if err != nil {
		return core.LimitStatus{}, false, err
	}
	return core.CompareLimit(category, spent, limit), true, nil
}

// SetLimits upserts one limit per entry. Last write wins per category.
func (s *LedgerService) SetLimits(ctx context.Context, owner core.Owner, entries []core.Entry) error {
	for _, entry := range entries {
		l := core.Limit{Owner: owner, Category: entry.Category, Amount: entry.Amount}
		if err := s.store.UpsertLimit(ctx, l); err != nil {
			return fmt.Errorf("set limit %q: %w", entry.Category, err)
		}
	}
	return nil
}

// Summarize aggregates an owner's expenses over the window and joins the
// totals against any configured limits.
func (s *LedgerService) Summarize(ctx context.Context, owner core.Owner, w core.Window) (core.Summary, []core.LimitStatus, error) {
	expenses, err := s.store.ListExpenses(ctx, owner, w)
	if err != nil {
		return core.Summary{}, nil, fmt.Errorf("list expenses: %w", err)
	}

	summary := core.Summarize(expenses)

	var statuses []core.LimitStatus
	for _, ca := range summary.ByCategory {
		limit, ok, err := s.store.GetLimit(ctx, owner, ca.Name)
		if err != nil {
			return core.Summary{}, nil, fmt.Errorf("limit for %q: %w", ca.Name, err)
		}
		if ok {
			statuses = append(statuses, core.CompareLimit(ca.Name, ca.Amount, limit))
		}
	}
	return summary, statuses, nil
}

// Export materializes all of the owner's expenses as a CSV artifact and
// returns its path together with the number of exported records.
func (s *LedgerService) Export(ctx context.Context, owner core.Owner) (string, int, error) {
	expenses, err := s.store.ListExpenses(ctx, owner, core.Window{})
	if err != nil {
		return "", 0, fmt.Errorf("list expenses: %w", err)
	}

	table := report.BuildTable(expenses, s.loc)
	path, err := report.ExportFile(s.exportDir, owner, s.now().In(s.loc), table)
	if err != nil {
		return "", 0, err
	}

	if s.mirror != nil {
		title := fmt.Sprintf("Export %d", int64(owner))
		if err := s.mirror.WriteTable(ctx, title, table.Cells()); err != nil {
			// The local artifact is already flushed; spreadsheet mirroring is
			// best-effort on top of it.
			slog.ErrorContext(ctx, "Export mirror failed",
				"owner", int64(owner), "error", err)
		}
	}
	return path, len(expenses), nil
}

// ExportAndClear materializes the artifact first and deletes the owner's
// expense records only after the file is flushed, so a delivery failure
// never loses data. Limits survive.
func (s *LedgerService) ExportAndClear(ctx context.Context, owner core.Owner) (string, int, error) {
	path, n, err := s.Export(ctx, owner)
	if err != nil {
		return "", 0, err
	}
	if _, err := s.store.ClearExpenses(ctx, owner); err != nil {
		return path, n, fmt.Errorf("clear after export: %w", err)
	}
	return path, n, nil
}

func (s *LedgerService) publishMirror(ctx context.Context, id int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishExpenseSync(ctx, id, 1); err != nil {
		// The expense is committed locally; the worker's pending sweep will
		// pick the row up even without the message.
		slog.ErrorContext(ctx, "Failed to publish sync message", "id", id, "error", err)
	}
}
