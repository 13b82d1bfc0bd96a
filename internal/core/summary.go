package core

import "sort"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// Summary holds per-category totals plus the grand total for one owner
// over one window. Categories are sorted descending by amount, ties broken
// by name so output is stable.
type Summary struct {
	Total      Money
	ByCategory []CategoryAmount
}

// Summarize groups expenses by category and sums the amounts. The grand
// total always equals the sum of the per-category values: every record is
// counted exactly once.
func Summarize(expenses []Expense) Summary {
	byCategory := make(map[string]int64)
	var total int64
	for _, e := range expenses {
		byCategory[e.Category] += e.Amount.Cents
		total += e.Amount.Cents
	}

	s := Summary{Total: Money{Cents: total}}
	for name, cents := range byCategory {
		s.ByCategory = append(s.ByCategory, CategoryAmount{
			Name:   name,
			Amount: Money{Cents: cents},
		})
	}
	sort.Slice(s.ByCategory, func(i, j int) bool {
		a, b := s.ByCategory[i], s.ByCategory[j]
		if a.Amount.Cents != b.Amount.Cents {
			return a.Amount.Cents > b.Amount.Cents
		}
		return a.Name < b.Name
	})
	return s
}

// Top returns at most n categories with the highest totals.
func (s Summary) Top(n int) []CategoryAmount {
	if n > len(s.ByCategory) {
		n = len(s.ByCategory)
	}
	return s.ByCategory[:n]
}

// LimitStatus is the outcome of comparing spending against a limit.
type LimitStatus struct {
	Category string
	Spent    Money
	Limit    Money
	// Remaining is limit minus spent; negative means over the limit.
	Remaining Money
}

// Over reports whether spending exceeded the limit.
func (ls LimitStatus) Over() bool {
	return ls.Remaining.Cents < 0
}

// Overrun returns the positive amount by which the limit was exceeded.
func (ls LimitStatus) Overrun() Money {
	if ls.Remaining.Cents >= 0 {
		return Money{}
	}
	return Money{Cents: -ls.Remaining.Cents}
}

// CompareLimit joins spending against a limit for one category.
func CompareLimit(category string, spent, limit Money) LimitStatus {
	return LimitStatus{
		Category:  category,
		Spent:     spent,
		Limit:     limit,
		Remaining: Money{Cents: limit.Cents - spent.Cents},
	}
}
