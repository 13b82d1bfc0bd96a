package core

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Separators recognized between category and amount. The ASCII hyphen is
// what the help text advertises; en and em dashes show up when phone
// keyboards autocorrect it.
const separators = "-–—"

// LineError reports a parse failure for one input line, keeping the
// offending line verbatim so the user can see exactly what was rejected.
type LineError struct {
	Line string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %q: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// ParseEntries parses a multi-line "Category-Amount" message into entries,
// preserving input line order. Blank lines are skipped; a message with no
// non-blank lines fails with ErrEmptyInput.
//
// The whole batch fails on the first bad line: partial results are never
// returned, so a caller either applies every line or none.
func ParseEntries(text string) ([]Entry, error) {
	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		if line := strings.TrimSpace(raw); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil, ErrEmptyInput
	}

	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		entry, err := parseLine(line)
		if err != nil {
			return nil, &LineError{Line: line, Err: err}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func parseLine(line string) (Entry, error) {
	idx := strings.IndexAny(line, separators)
	if idx < 0 {
		return Entry{}, ErrMissingSeparator
	}

	category := strings.TrimSpace(line[:idx])
	// The separator may be a multi-byte dash; skip the whole rune.
	_, width := utf8.DecodeRuneInString(line[idx:])
	amountStr := strings.TrimSpace(line[idx+width:])

	if category == "" {
		return Entry{}, ErrEmptyCategory
	}
	if amountStr == "" {
		return Entry{}, ErrEmptyAmount
	}

	cents, err := ParseDecimalToCents(amountStr)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Category: category, Amount: Money{Cents: cents}}, nil
}

// IsParseError reports whether err comes from the line parser taxonomy,
// as opposed to a store or transport failure.
func IsParseError(err error) bool {
	for _, target := range []error{
		ErrEmptyInput,
		ErrMissingSeparator,
		ErrEmptyCategory,
		ErrEmptyAmount,
		ErrInvalidAmount,
		ErrNonPositiveAmount,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
