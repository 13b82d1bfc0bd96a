package bot

import (
	"fmt"
	"strings"

	"duckledger/internal/core"
)

const replyStart = `Hi! I'm duckledger, an expense-tracking bot.

📥 Recording expenses:
— Just send lines like Category-Amount, one or many:
  Food-500
  Taxi-300
  Coffee-200

Or use /insert.

💰 Per-category monthly limits: /limit, same format:
  Food-15000
  Taxi-5000

See /help for everything else.`

const replyHelp = `duckledger commands:

• /start — short intro.
• /help — this message.
• /insert — add expenses as a list. Send lines like Category-Amount,
  one line or many.
• /limit — set monthly limits per category, same format.
• /month — spending summary for the current month.
• /total — spending summary for all time.
• /categories — top 3 categories this month.
• /export — export all your expenses to a CSV table.
• /export_clear — export, then clear your expense records.

You can also skip /insert and just send Category-Amount lines directly.`

const replyInsertPrompt = `Send the expense list, one line per expense:
Category-Amount

For example:
Food-500
Taxi-300
Coffee-200`

const replyLimitPrompt = `Send the limit list, one line per category:
Category-Amount

For example:
Food-15000
Taxi-5000`

const replyFormatHint = `I didn't understand that message.
To record expenses use /insert, or send lines like Category-Amount.`

const replyUnknownCommand = "Unknown command. See /help for what I can do."

const replyNoExpenses = "You have no recorded expenses yet."

const replyStoreFailure = "Something went wrong on my side. Your message was not applied — please try again."

func replyParseError(err error) string {
	return fmt.Sprintf("⚠️ %v\n\nTry again.", err)
}

func replySaved(n int, breaches []core.LimitStatus) string {
	reply := fmt.Sprintf("✅ Saved %d expense(s).", n)
	if len(breaches) == 0 {
		return reply
	}

	var b strings.Builder
	b.WriteString(reply)
	b.WriteString("\n\n⚠️ Limits exceeded:")
	for _, st := range breaches {
		fmt.Fprintf(&b, "\n— %s: spent %s this month, limit %s (over by %s)",
			st.Category, st.Spent, st.Limit, st.Overrun())
	}
	return b.String()
}
