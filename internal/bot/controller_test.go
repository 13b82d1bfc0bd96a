package bot

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"duckledger/internal/services"
	"duckledger/internal/storage"
)

var _ Ledger = (*services.LedgerService)(nil)

func newTestController(t *testing.T) *Controller {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	svc := services.NewLedgerService(repo, nil, nil, time.UTC, t.TempDir())
	return NewController(svc)
}

func TestInsertBatchFlow(t *testing.T) {
	c := newTestController(t)
	ctx := context.Background()

	reply := c.Handle(ctx, 1, "/insert")
	if !strings.Contains(reply, "Category-Amount") {
		t.Fatalf("expected batch prompt, got %q", reply)
	}

	reply = c.Handle(ctx, 1, "Food-500\nTaxi-300")
	if !strings.Contains(reply, "Saved 2 expense(s)") {
		t.Fatalf("expected save confirmation, got %q", reply)
	}

	// Batch mode must be cleared: plain nonsense now gets the format hint,
	// not a batch retry prompt.
	reply = c.Handle(ctx, 1, "what is this")
	if reply != replyFormatHint {
		t.Fatalf("expected format hint after batch completes, got %q", reply)
	}
}

func TestBatchModeRetainsStateOnParseError(t *testing.T) {
	c := newTestController(t)
	ctx := context.Background()

	c.Handle(ctx, 1, "/insert")

	reply := c.Handle(ctx, 1, "no separator line")
	if !strings.Contains(reply, "no separator line") {
		t.Fatalf("error must quote the offending line, got %q", reply)
	}
	if !strings.Contains(reply, "Try again") {
		t.Fatalf("expected retry hint, got %q", reply)
	}

	// Still awaiting the batch: a corrected message completes it.
	reply = c.Handle(ctx, 1, "Food-500")
	if !strings.Contains(reply, "Saved 1 expense(s)") {
		t.Fatalf("expected save after retry, got %q", reply)
	}
}

func TestLimitFlowAndWarning(t *testing.T) {
	c := newTestController(t)
	ctx := context.Background()

	c.Handle(ctx, 1, "/limit")
	reply := c.Handle(ctx, 1, "Food-100")
	if !strings.Contains(reply, "Limits updated for 1 categories") {
		t.Fatalf("expected limit confirmation, got %q", reply)
	}

	// Spending 120 against the 100 limit warns with the overrun of 20.
	reply = c.Handle(ctx, 1, "Food-120")
	if !strings.Contains(reply, "Limits exceeded") {
		t.Fatalf("expected limit warning, got %q", reply)
	}
	if !strings.Contains(reply, "over by 20.00") {
		t.Fatalf("expected overrun amount, got %q", reply)
	}
}

func TestFreeTextBestEffortInsert(t *testing.T) {
	c := newTestController(t)
	ctx := context.Background()

	reply := c.Handle(ctx, 1, "Coffee-3,5")
	if !strings.Contains(reply, "Saved 1 expense(s)") {
		t.Fatalf("expected best-effort insert, got %q", reply)
	}

	reply = c.Handle(ctx, 1, "/month")
	if !strings.Contains(reply, "Coffee: 3.50") {
		t.Fatalf("expected month summary with coffee, got %q", reply)
	}
}

func TestMonthSummaryWithLimits(t *testing.T) {
	c := newTestController(t)
	ctx := context.Background()

	c.Handle(ctx, 1, "/limit")
	c.Handle(ctx, 1, "Food-100")
	c.Handle(ctx, 1, "Food-80")

	reply := c.Handle(ctx, 1, "/month")
	if !strings.Contains(reply, "Food: 80.00") {
		t.Fatalf("expected food total, got %q", reply)
	}
	if !strings.Contains(reply, "20.00 left of 100.00") {
		t.Fatalf("expected remaining amount, got %q", reply)
	}
}

func TestTopCategories(t *testing.T) {
	c := newTestController(t)
	ctx := context.Background()

	c.Handle(ctx, 1, "A-400\nB-300\nC-200\nD-100")

	reply := c.Handle(ctx, 1, "/categories")
	lines := strings.Split(reply, "\n")
	if len(lines) != 4 { // title + top 3
		t.Fatalf("expected top 3 listing, got %q", reply)
	}
	if !strings.Contains(lines[1], "A") || !strings.Contains(lines[3], "C") {
		t.Fatalf("unexpected ordering: %q", reply)
	}
}

func TestExportClearFlow(t *testing.T) {
	c := newTestController(t)
	ctx := context.Background()

	c.Handle(ctx, 1, "Food-100\nTaxi-50")

	reply := c.Handle(ctx, 1, "/export_clear")
	if !strings.Contains(reply, "Exported 2 records") {
		t.Fatalf("expected export confirmation, got %q", reply)
	}
	if !strings.Contains(reply, "cleared") {
		t.Fatalf("expected clear notice, got %q", reply)
	}

	reply = c.Handle(ctx, 1, "/total")
	if reply != replyNoExpenses {
		t.Fatalf("expected empty ledger after clear, got %q", reply)
	}
}

func TestExportEmpty(t *testing.T) {
	c := newTestController(t)

	reply := c.Handle(context.Background(), 1, "/export")
	if !strings.Contains(reply, "no recorded expenses") {
		t.Fatalf("expected no-data notice, got %q", reply)
	}
}

func TestOwnersAreIsolated(t *testing.T) {
	c := newTestController(t)
	ctx := context.Background()

	c.Handle(ctx, 1, "/insert")

	// Owner 2 is idle even while owner 1 waits for a batch: free text goes
	// through the best-effort path and a summary stays empty for owner 2's
	// own ledger.
	reply := c.Handle(ctx, 2, "Food-10")
	if !strings.Contains(reply, "recognized without a command") {
		t.Fatalf("owner 2 must be idle, got %q", reply)
	}

	reply = c.Handle(ctx, 1, "Taxi-5")
	if strings.Contains(reply, "recognized without a command") {
		t.Fatalf("owner 1 must still be in batch mode, got %q", reply)
	}

	reply = c.Handle(ctx, 2, "/month")
	if strings.Contains(reply, "Taxi") {
		t.Fatalf("owner 2 must not see owner 1's expenses: %q", reply)
	}
}

func TestUnknownCommand(t *testing.T) {
	c := newTestController(t)
	if reply := c.Handle(context.Background(), 1, "/frobnicate"); reply != replyUnknownCommand {
		t.Fatalf("expected unknown-command reply, got %q", reply)
	}
}

func TestStartAndHelp(t *testing.T) {
	c := newTestController(t)
	ctx := context.Background()

	if reply := c.Handle(ctx, 1, "/start"); !strings.Contains(reply, "duckledger") {
		t.Fatalf("unexpected start reply: %q", reply)
	}
	if reply := c.Handle(ctx, 1, "/help"); !strings.Contains(reply, "/export_clear") {
		t.Fatalf("help should list commands: %q", reply)
	}
}
