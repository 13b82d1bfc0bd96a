// Package bot implements the conversation controller: a two-state flow per
// owner that routes incoming text to the ledger service.
//
// The chat transport itself is an external collaborator; whatever gateway
// delivers messages calls Handle with the owner identity and raw text and
// sends the returned reply back.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"duckledger/internal/core"
)

// Command tokens recognized at the start of a message.
const (
	CmdStart       = "/start"
	CmdHelp        = "/help"
	CmdInsert      = "/insert"
	CmdLimit       = "/limit"
	CmdMonth       = "/month"
	CmdTotal       = "/total"
	CmdCategories  = "/categories"
	CmdExport      = "/export"
	CmdExportClear = "/export_clear"
)

// topCategories is how many categories /categories shows.
const topCategories = 3

type batchKind int

const (
	batchNone batchKind = iota
	batchExpenses
	batchLimits
)

// Ledger is the service surface the controller drives.
// *services.LedgerService implements it.
type Ledger interface {
	RecordEntries(ctx context.Context, owner core.Owner, entries []core.Entry) ([]core.Expense, []core.LimitStatus, error)
	SetLimits(ctx context.Context, owner core.Owner, entries []core.Entry) error
	Summarize(ctx context.Context, owner core.Owner, w core.Window) (core.Summary, []core.LimitStatus, error)
	Export(ctx context.Context, owner core.Owner) (path string, records int, err error)
	ExportAndClear(ctx context.Context, owner core.Owner) (path string, records int, err error)
	CurrentMonth() core.Window
}

// Controller holds the per-owner conversation state. Waiting states persist
// until a message arrives; there is no timeout.
type Controller struct {
	ledger Ledger

	mu      sync.Mutex
	waiting map[core.Owner]batchKind
}

func NewController(ledger Ledger) *Controller {
	return &Controller{
		ledger:  ledger,
		waiting: make(map[core.Owner]batchKind),
	}
}

// Handle processes one incoming message and returns the reply text.
// Parse errors never escape: they become user-visible messages naming the
// offending line. Store failures are logged and reported generically with
// the conversation state left unchanged.
func (c *Controller) Handle(ctx context.Context, owner core.Owner, text string) string {
	trimmed := strings.TrimSpace(text)

	if strings.HasPrefix(trimmed, "/") {
		return c.handleCommand(ctx, owner, trimmed)
	}

	switch c.pending(owner) {
	case batchExpenses:
		return c.handleExpenseBatch(ctx, owner, text)
	case batchLimits:
		return c.handleLimitBatch(ctx, owner, text)
	default:
		return c.handleFreeText(ctx, owner, text)
	}
}

func (c *Controller) handleCommand(ctx context.Context, owner core.Owner, text string) string {
	cmd := text
	if i := strings.IndexAny(cmd, " \t\n"); i >= 0 {
		cmd = cmd[:i]
	}

	switch cmd {
	case CmdStart:
		return replyStart
	case CmdHelp:
		return replyHelp
	case CmdInsert:
		c.setPending(owner, batchExpenses)
		return replyInsertPrompt
	case CmdLimit:
		c.setPending(owner, batchLimits)
		return replyLimitPrompt
	case CmdMonth:
		return c.replySummary(ctx, owner, c.ledger.CurrentMonth(), "this month")
	case CmdTotal:
		return c.replySummary(ctx, owner, core.Window{}, "all time")
	case CmdCategories:
		return c.replyTopCategories(ctx, owner)
	case CmdExport:
		return c.replyExport(ctx, owner, false)
	case CmdExportClear:
		return c.replyExport(ctx, owner, true)
	default:
		return replyUnknownCommand
	}
}

// handleFreeText is the idle-state fallback: plain text is tried as a
// best-effort expense batch. A failed parse is not an error, just a hint.
func (c *Controller) handleFreeText(ctx context.Context, owner core.Owner, text string) string {
	entries, err := core.ParseEntries(text)
	if err != nil {
		return replyFormatHint
	}

	created, breaches, err := c.ledger.RecordEntries(ctx, owner, entries)
	if err != nil {
		return c.storeFailure(ctx, owner, err)
	}
	return replySaved(len(created), breaches) + "\n(recognized without a command)"
}

func (c *Controller) handleExpenseBatch(ctx context.Context, owner core.Owner, text string) string {
	entries, err := core.ParseEntries(text)
	if err != nil {
		// Stay in batch mode so the user can retry.
		return replyParseError(err)
	}

	created, breaches, err := c.ledger.RecordEntries(ctx, owner, entries)
	if err != nil {
		return c.storeFailure(ctx, owner, err)
	}

	c.setPending(owner, batchNone)
	return replySaved(len(created), breaches)
}

func (c *Controller) handleLimitBatch(ctx context.Context, owner core.Owner, text string) string {
	entries, err := core.ParseEntries(text)
	if err != nil {
		return replyParseError(err)
	}

	if err := c.ledger.SetLimits(ctx, owner, entries); err != nil {
		return c.storeFailure(ctx, owner, err)
	}

	c.setPending(owner, batchNone)
	return fmt.Sprintf("✅ Limits updated for %d categories.", len(entries))
}

func (c *Controller) replySummary(ctx context.Context, owner core.Owner, w core.Window, label string) string {
	summary, statuses, err := c.ledger.Summarize(ctx, owner, w)
	if err != nil {
		return c.storeFailure(ctx, owner, err)
	}
	if len(summary.ByCategory) == 0 {
		return replyNoExpenses
	}

	limits := make(map[string]core.LimitStatus, len(statuses))
	for _, st := range statuses {
		limits[st.Category] = st
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Spending %s — total %s:\n", label, summary.Total)
	for _, ca := range summary.ByCategory {
		fmt.Fprintf(&b, "— %s: %s", ca.Name, ca.Amount)
		if st, ok := limits[ca.Name]; ok {
			if st.Over() {
				fmt.Fprintf(&b, " ⚠️ over limit %s by %s", st.Limit, st.Overrun())
			} else {
				fmt.Fprintf(&b, " (%s left of %s)", st.Remaining, st.Limit)
			}
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (c *Controller) replyTopCategories(ctx context.Context, owner core.Owner) string {
	summary, _, err := c.ledger.Summarize(ctx, owner, c.ledger.CurrentMonth())
	if err != nil {
		return c.storeFailure(ctx, owner, err)
	}

	top := summary.Top(topCategories)
	if len(top) == 0 {
		return replyNoExpenses
	}

	var b strings.Builder
	b.WriteString("Top categories this month:\n")
	for i, ca := range top {
		fmt.Fprintf(&b, "%d. %s — %s\n", i+1, ca.Name, ca.Amount)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (c *Controller) replyExport(ctx context.Context, owner core.Owner, clear bool) string {
	var (
		path    string
		records int
		err     error
	)
	if clear {
		path, records, err = c.ledger.ExportAndClear(ctx, owner)
	} else {
		path, records, err = c.ledger.Export(ctx, owner)
	}
	if err != nil {
		return c.storeFailure(ctx, owner, err)
	}

	if records == 0 {
		return fmt.Sprintf("You have no recorded expenses yet. An empty table was written to %s.", path)
	}
	reply := fmt.Sprintf("📄 Exported %d records to %s.", records, path)
	if clear {
		reply += "\n🧹 Your expense records were cleared. Limits are kept."
	}
	return reply
}

func (c *Controller) storeFailure(ctx context.Context, owner core.Owner, err error) string {
	slog.ErrorContext(ctx, "Ledger operation failed",
		"owner", int64(owner), "error", err)
	return replyStoreFailure
}

func (c *Controller) pending(owner core.Owner) batchKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.waiting[owner]
}

func (c *Controller) setPending(owner core.Owner, kind batchKind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if kind == batchNone {
		delete(c.waiting, owner)
		return
	}
	c.waiting[owner] = kind
}
