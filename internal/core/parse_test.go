package core

import (
	"errors"
	"strings"
	"testing"
)

func TestParseEntriesMultiLine(t *testing.T) {
	entries, err := ParseEntries("Cat1-10\nCat2-20.5")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	want := []Entry{
		{Category: "Cat1", Amount: Money{Cents: 1000}},
		{Category: "Cat2", Amount: Money{Cents: 2050}},
	}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Fatalf("entry %d: expected %+v, got %+v", i, want[i], entries[i])
		}
	}
}

func TestParseEntriesCommaDecimal(t *testing.T) {
	entries, err := ParseEntries("Food-12,5")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if entries[0].Amount.Cents != 1250 {
		t.Fatalf("expected 1250 cents, got %d", entries[0].Amount.Cents)
	}
}

func TestParseEntriesSeparatorVariants(t *testing.T) {
	for _, text := range []string{"Taxi-300", "Taxi–300", "Taxi—300", "Taxi - 300"} {
		entries, err := ParseEntries(text)
		if err != nil {
			t.Fatalf("%q: expected ok, got %v", text, err)
		}
		if entries[0].Category != "Taxi" || entries[0].Amount.Cents != 30000 {
			t.Fatalf("%q: got %+v", text, entries[0])
		}
	}
}

func TestParseEntriesSkipsBlankLines(t *testing.T) {
	entries, err := ParseEntries("\n  Food-10\n\n\tTaxi-5\n")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
}

func TestParseEntriesErrors(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want error
	}{
		{"empty", "", ErrEmptyInput},
		{"blank lines only", " \n\t\n", ErrEmptyInput},
		{"no separator", "Food 100", ErrMissingSeparator},
		{"empty category", "-100", ErrEmptyCategory},
		{"empty amount", "Food-", ErrEmptyAmount},
		{"bad amount", "Food-abc", ErrInvalidAmount},
		{"zero amount", "Food-0", ErrNonPositiveAmount},
		{"negative amount", "Food--5", ErrNonPositiveAmount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseEntries(tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if !IsParseError(err) {
				t.Fatalf("expected parse error classification for %v", err)
			}
		})
	}
}

func TestParseEntriesErrorNamesLine(t *testing.T) {
	_, err := ParseEntries("Food-10\nno separator here\nTaxi-5")
	if err == nil {
		t.Fatal("expected error")
	}
	var lineErr *LineError
	if !errors.As(err, &lineErr) {
		t.Fatalf("expected LineError, got %T", err)
	}
	if lineErr.Line != "no separator here" {
		t.Fatalf("expected offending line verbatim, got %q", lineErr.Line)
	}
	if !strings.Contains(err.Error(), "no separator here") {
		t.Fatalf("error message should quote the line: %v", err)
	}
}

func TestParseEntriesWholeBatchFails(t *testing.T) {
	entries, err := ParseEntries("Food-10\nbroken line")
	if err == nil {
		t.Fatal("expected error")
	}
	if entries != nil {
		t.Fatalf("expected no partial result, got %v", entries)
	}
}
