// Package memory is an in-memory spreadsheet sink, used in tests and in
// deployments without Google credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	"duckledger/internal/core"
)

type Store struct {
	mu     sync.Mutex
	rows   []core.Expense
	tables map[string][][]string
}

func New() *Store {
	return &Store{tables: make(map[string][][]string)}
}

// AppendExpense stores the expense and returns a synthetic row reference.
func (s *Store) AppendExpense(_ context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, e)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// WriteTable replaces the named table with rows.
func (s *Store) WriteTable(_ context.Context, title string, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([][]string, len(rows))
	for i, row := range rows {
		copied[i] = append([]string(nil), row...)
	}
	s.tables[title] = copied
	return nil
}

// Rows returns a copy of the mirrored expenses.
func (s *Store) Rows() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Expense(nil), s.rows...)
}

// Table returns the last table written under title, or nil.
func (s *Store) Table(title string) [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tables[title]
}
