// Package storage persists expense and limit records in SQLite.
//
// Every query is scoped by owner; there is no shared state between owners
// beyond the table itself. All operations are single-statement transactions
// with immediate commit.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"duckledger/internal/core"

	_ "modernc.org/sqlite"
)

// Sync status values for the spreadsheet mirror queue.
const (
	SyncPending = "pending"
	SyncDone    = "synced"
	SyncError   = "error"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// AddExpense appends one immutable expense record. No dedup: the same
// category and amount can be recorded any number of times.
func (r *Repository) AddExpense(ctx context.Context, owner core.Owner, category string, amount core.Money, at time.Time) (core.Expense, error) {
	e := core.Expense{
		Owner:      owner,
		Category:   category,
		Amount:     amount,
		RecordedAt: at,
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (owner, category, amount_cents, recorded_at, sync_status)
		 VALUES (?, ?, ?, ?, ?)`,
		int64(owner), category, amount.Cents, at.Unix(), SyncPending)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense id: %w", err)
	}
	e.ID = id

	slog.InfoContext(ctx, "Expense saved",
		"id", e.ID,
		"owner", int64(owner),
		"category", category,
		"amount_cents", amount.Cents)

	return e, nil
}

// UpsertLimit inserts or overwrites the limit for (owner, category).
// Last write wins; no history is kept.
func (r *Repository) UpsertLimit(ctx context.Context, l core.Limit) error {
	if err := l.Validate(); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO limits (owner, category, limit_cents)
		 VALUES (?, ?, ?)
		 ON CONFLICT (owner, category) DO UPDATE SET
		     limit_cents = excluded.limit_cents`,
		int64(l.Owner), l.Category, l.Amount.Cents)
	if err != nil {
		return fmt.Errorf("upsert limit: %w", err)
	}
	return nil
}

// GetLimit returns the limit for (owner, category), or ok=false when none
// has been set.
func (r *Repository) GetLimit(ctx context.Context, owner core.Owner, category string) (core.Money, bool, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx,
		`SELECT limit_cents FROM limits WHERE owner = ? AND category = ?`,
		int64(owner), category).Scan(&cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Money{}, false, nil
	}
	if err != nil {
		return core.Money{}, false, fmt.Errorf("query limit: %w", err)
	}
	return core.Money{Cents: cents}, true, nil
}

// ListLimits returns all limits for an owner, ordered by category.
func (r *Repository) ListLimits(ctx context.Context, owner core.Owner) ([]core.Limit, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, limit_cents FROM limits WHERE owner = ? ORDER BY category`,
		int64(owner))
	if err != nil {
		return nil, fmt.Errorf("query limits: %w", err)
	}
	defer rows.Close()

	var limits []core.Limit
	for rows.Next() {
		l := core.Limit{Owner: owner}
		if err := rows.Scan(&l.Category, &l.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan limit: %w", err)
		}
		limits = append(limits, l)
	}
	return limits, rows.Err()
}

// ListExpenses returns an owner's expenses ordered by recorded-at, then id.
// A non-zero window filters to [Start, End).
func (r *Repository) ListExpenses(ctx context.Context, owner core.Owner, w core.Window) ([]core.Expense, error) {
	query := `SELECT id, owner, category, amount_cents, recorded_at
	          FROM expenses WHERE owner = ?`
	args := []any{int64(owner)}
	if !w.Start.IsZero() {
		query += ` AND recorded_at >= ?`
		args = append(args, w.Start.Unix())
	}
	if !w.End.IsZero() {
		query += ` AND recorded_at < ?`
		args = append(args, w.End.Unix())
	}
	query += ` ORDER BY recorded_at, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	return scanExpenses(rows)
}

// SumCategory returns the total spent by owner on one category within the
// window. A category with no records sums to zero.
func (r *Repository) SumCategory(ctx context.Context, owner core.Owner, category string, w core.Window) (core.Money, error) {
	query := `SELECT COALESCE(SUM(amount_cents), 0)
	          FROM expenses WHERE owner = ? AND category = ?`
	args := []any{int64(owner), category}
	if !w.Start.IsZero() {
		query += ` AND recorded_at >= ?`
		args = append(args, w.Start.Unix())
	}
	if !w.End.IsZero() {
		query += ` AND recorded_at < ?`
		args = append(args, w.End.Unix())
	}

	var cents int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&cents); err != nil {
		return core.Money{}, fmt.Errorf("sum category: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

// ClearExpenses deletes all of the owner's expense records and returns the
// number removed. Limits are left untouched.
func (r *Repository) ClearExpenses(ctx context.Context, owner core.Owner) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE owner = ?`, int64(owner))
	if err != nil {
		return 0, fmt.Errorf("clear expenses: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	slog.InfoContext(ctx, "Expenses cleared", "owner", int64(owner), "deleted", n)
	return n, nil
}

// GetExpense retrieves a single expense by ID, regardless of owner. Used by
// the mirror worker, which trusts queue messages it produced itself.
func (r *Repository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, owner, category, amount_cents, recorded_at
		 FROM expenses WHERE id = ?`, id)

	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense by id: %w", err)
	}
	return e, nil
}

// GetPendingMirrorExpenses returns up to limit expenses not yet mirrored to
// the spreadsheet, oldest first.
func (r *Repository) GetPendingMirrorExpenses(ctx context.Context, limit int) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner, category, amount_cents, recorded_at
		 FROM expenses WHERE sync_status = ? ORDER BY id LIMIT ?`,
		SyncPending, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending expenses: %w", err)
	}
	defer rows.Close()

	return scanExpenses(rows)
}

// MarkMirrored marks an expense as successfully mirrored.
func (r *Repository) MarkMirrored(ctx context.Context, id int64) error {
	if err := r.setSyncStatus(ctx, id, SyncDone); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Expense marked as mirrored", "id", id)
	return nil
}

// MarkMirrorError marks an expense as having failed to mirror.
func (r *Repository) MarkMirrorError(ctx context.Context, id int64) error {
	if err := r.setSyncStatus(ctx, id, SyncError); err != nil {
		return err
	}
	slog.WarnContext(ctx, "Expense marked with mirror error", "id", id)
	return nil
}

func (r *Repository) setSyncStatus(ctx context.Context, id int64, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET sync_status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("set sync status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e       core.Expense
		owner   int64
		unixSec int64
	)
	if err := row.Scan(&e.ID, &owner, &e.Category, &e.Amount.Cents, &unixSec); err != nil {
		return core.Expense{}, err
	}
	e.Owner = core.Owner(owner)
	e.RecordedAt = time.Unix(unixSec, 0).UTC()
	return e, nil
}

func scanExpenses(rows *sql.Rows) ([]core.Expense, error) {
	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}
