// Package sheets defines ports for spreadsheet sinks: the async row mirror
// used by the worker and the whole-table writer used by exports.
package sheets

import (
	"context"

	"duckledger/internal/core"
)

type (
	// RowAppender mirrors one expense record as a spreadsheet row.
	RowAppender interface {
		AppendExpense(ctx context.Context, e core.Expense) (rowRef string, err error)
	}

	// TableWriter replaces the contents of a named sheet with a full table.
	// rows[0] is the header.
	TableWriter interface {
		WriteTable(ctx context.Context, title string, rows [][]string) error
	}
)
