package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"reflect"
	"testing"
	"time"

	"duckledger/internal/core"
)

func expenseAt(day time.Time, category string, cents int64) core.Expense {
	return core.Expense{
		Owner:      1,
		Category:   category,
		Amount:     core.Money{Cents: cents},
		RecordedAt: day,
	}
}

func TestBuildTableDateByCategory(t *testing.T) {
	day := time.Date(2024, 1, 5, 14, 30, 0, 0, time.UTC)
	expenses := []core.Expense{
		expenseAt(day, "Food", 10000),
		expenseAt(day, "Taxi", 5000),
	}

	table := BuildTable(expenses, time.UTC)

	wantHeader := []string{"Date", "Food", "Taxi"}
	if !reflect.DeepEqual(table.Header, wantHeader) {
		t.Fatalf("expected header %v, got %v", wantHeader, table.Header)
	}
	if len(table.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(table.Rows))
	}
	wantRow := []string{"05/01/2024", "100.00", "50.00"}
	if !reflect.DeepEqual(table.Rows[0], wantRow) {
		t.Fatalf("expected row %v, got %v", wantRow, table.Rows[0])
	}
}

func TestBuildTableBlankNotZero(t *testing.T) {
	d1 := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 1, 6, 10, 0, 0, 0, time.UTC)
	expenses := []core.Expense{
		expenseAt(d1, "Food", 10000),
		expenseAt(d2, "Taxi", 5000),
	}

	table := BuildTable(expenses, time.UTC)

	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(table.Rows))
	}
	// Day 1 has no Taxi spending: the cell is blank, not "0".
	if got := table.Rows[0][2]; got != "" {
		t.Fatalf("expected blank cell, got %q", got)
	}
	if got := table.Rows[1][1]; got != "" {
		t.Fatalf("expected blank cell, got %q", got)
	}
}

func TestBuildTableSumsSameDaySameCategory(t *testing.T) {
	day := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	expenses := []core.Expense{
		expenseAt(day, "Food", 1000),
		expenseAt(day.Add(3*time.Hour), "Food", 500),
	}

	table := BuildTable(expenses, time.UTC)
	if table.Rows[0][1] != "15.00" {
		t.Fatalf("expected summed cell 15.00, got %q", table.Rows[0][1])
	}
}

func TestBuildTableSortsCategoriesCaseInsensitive(t *testing.T) {
	day := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)
	expenses := []core.Expense{
		expenseAt(day, "zoo", 100),
		expenseAt(day, "Apple", 100),
		expenseAt(day, "banana", 100),
	}

	table := BuildTable(expenses, time.UTC)
	wantHeader := []string{"Date", "Apple", "banana", "zoo"}
	if !reflect.DeepEqual(table.Header, wantHeader) {
		t.Fatalf("expected header %v, got %v", wantHeader, table.Header)
	}
}

func TestBuildTableSortsRowsByDate(t *testing.T) {
	expenses := []core.Expense{
		expenseAt(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), "A", 100),
		expenseAt(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), "A", 100),
		expenseAt(time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), "A", 100),
	}

	table := BuildTable(expenses, time.UTC)
	want := []string{"02/01/2024", "05/02/2024", "10/03/2024"}
	for i, date := range want {
		if table.Rows[i][0] != date {
			t.Fatalf("row %d: expected %s, got %s", i, date, table.Rows[i][0])
		}
	}
}

func TestBuildTableBucketsDaysInLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	// 22:30 UTC on Jan 5 is already Jan 6 in UTC+3.
	at := time.Date(2024, 1, 5, 22, 30, 0, 0, time.UTC)

	table := BuildTable([]core.Expense{expenseAt(at, "Food", 100)}, loc)
	if table.Rows[0][0] != "06/01/2024" {
		t.Fatalf("expected local-day bucketing, got %s", table.Rows[0][0])
	}
}

func TestBuildTableEmptyStillHasHeader(t *testing.T) {
	table := BuildTable(nil, time.UTC)
	if len(table.Header) != 1 || table.Header[0] != "Date" {
		t.Fatalf("expected minimal header, got %v", table.Header)
	}
	if len(table.Rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(table.Rows))
	}
}

func TestWriteCSVRoundTrip(t *testing.T) {
	day := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)
	table := BuildTable([]core.Expense{
		expenseAt(day, "Food", 10000),
		expenseAt(day, "Taxi", 5000),
	}, time.UTC)

	var buf bytes.Buffer
	if err := WriteCSV(&buf, table); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header + 1 row, got %d records", len(records))
	}
	if !reflect.DeepEqual(records[0], []string{"Date", "Food", "Taxi"}) {
		t.Fatalf("unexpected header: %v", records[0])
	}
	if !reflect.DeepEqual(records[1], []string{"05/01/2024", "100.00", "50.00"}) {
		t.Fatalf("unexpected row: %v", records[1])
	}
}

func TestExportFile(t *testing.T) {
	dir := t.TempDir()
	day := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)
	table := BuildTable([]core.Expense{expenseAt(day, "Food", 10000)}, time.UTC)

	path, err := ExportFile(dir, 42, time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC), table)
	if err != nil {
		t.Fatalf("export file: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if !bytes.Contains(data, []byte("05/01/2024")) {
		t.Fatalf("artifact missing data row: %s", data)
	}
	if !bytes.Contains([]byte(path), []byte("expenses_42_")) {
		t.Fatalf("artifact name should include owner: %s", path)
	}
}
