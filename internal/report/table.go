// Package report renders expense records into tabular export artifacts.
package report

import (
	"sort"
	"strings"
	"time"

	"duckledger/internal/core"
)

// DateFormat is the day-granularity format used in the first column.
const DateFormat = "02/01/2006"

// Table is a date-by-category grid. Header[0] names the date column; the
// remaining header cells are the distinct categories, sorted ascending
// case-insensitively. Each row starts with the formatted date followed by
// one cell per category: the day's sum for that category, or blank when
// nothing was spent. Blank is deliberate — it distinguishes "no spending"
// from "spent zero".
type Table struct {
	Header []string
	Rows   [][]string
}

// Cells returns the table as raw rows, header first, for sinks that take
// a plain grid.
func (t Table) Cells() [][]string {
	return append([][]string{t.Header}, t.Rows...)
}

// BuildTable aggregates expenses into a Table. Dates are bucketed by
// calendar day in loc and rows are sorted by date ascending. With no
// records the result still carries the header row, never an error.
func BuildTable(expenses []core.Expense, loc *time.Location) Table {
	type dayKey struct {
		year  int
		month time.Month
		day   int
	}

	sums := make(map[dayKey]map[string]int64)
	categorySet := make(map[string]struct{})

	for _, e := range expenses {
		at := e.RecordedAt.In(loc)
		key := dayKey{at.Year(), at.Month(), at.Day()}
		if sums[key] == nil {
			sums[key] = make(map[string]int64)
		}
		sums[key][e.Category] += e.Amount.Cents
		categorySet[e.Category] = struct{}{}
	}

	categories := make([]string, 0, len(categorySet))
	for c := range categorySet {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool {
		a, b := strings.ToLower(categories[i]), strings.ToLower(categories[j])
		if a != b {
			return a < b
		}
		return categories[i] < categories[j]
	})

	days := make([]dayKey, 0, len(sums))
	for d := range sums {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool {
		a, b := days[i], days[j]
		if a.year != b.year {
			return a.year < b.year
		}
		if a.month != b.month {
			return a.month < b.month
		}
		return a.day < b.day
	})

	table := Table{Header: append([]string{"Date"}, categories...)}
	for _, d := range days {
		date := time.Date(d.year, d.month, d.day, 0, 0, 0, 0, loc)
		row := make([]string, 0, len(categories)+1)
		row = append(row, date.Format(DateFormat))
		for _, c := range categories {
			if cents, ok := sums[d][c]; ok {
				row = append(row, core.Money{Cents: cents}.String())
			} else {
				row = append(row, "")
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}
