package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"MarketWorkbook/internal/model"
)

// maxNotices caps the notices listed in one message.
const maxNotices = 10

// FormatRun formats one export run as an HTML Telegram message.
func FormatRun(run *model.ExportRun) string {
	var b strings.Builder

	icon := "✅"
	switch {
	case run.Err != "":
		icon = "❌"
	case run.Rows == 0:
		icon = "⚠️"
	}
	b.WriteString(fmt.Sprintf("%s <b>%s export</b> | %s\n\n", icon, html.EscapeString(run.Mode.String()),
		run.StartedAt.Format("2006-01-02 15:04")))

	b.WriteString(fmt.Sprintf("Trigger: %s\n", run.Trigger))
	b.WriteString(fmt.Sprintf("Sheets: %d | Rows: %d\n", run.Sheets, run.Rows))
	if run.Filename != "" {
		b.WriteString(fmt.Sprintf("File: <code>%s</code>\n", html.EscapeString(run.Filename)))
	}
	if run.Exported {
		b.WriteString(fmt.Sprintf("Delivered to: %s\n", html.EscapeString(run.Destination)))
	}
	b.WriteString(fmt.Sprintf("Duration: %s\n", run.Duration.Round(time.Millisecond)))

	if run.Err != "" {
		b.WriteString(fmt.Sprintf("\nError: %s\n", html.EscapeString(run.Err)))
	}

	if len(run.Notices) > 0 {
		b.WriteString("\n<b>Notices:</b>\n")
		for i, n := range run.Notices {
			if i == maxNotices {
				b.WriteString(fmt.Sprintf("  … and %d more\n", len(run.Notices)-maxNotices))
				break
			}
			b.WriteString(fmt.Sprintf("  • %s\n", html.EscapeString(n)))
		}
	}
	return b.String()
}

// FormatStatus formats the most recent run, or a placeholder when none exist.
func FormatStatus(run *model.ExportRun) string {
	if run == nil {
		return "📭 No export has run yet"
	}
	return "📦 <b>Last export</b>\n\n" + FormatRun(run)
}

// FormatHelp lists the supported commands.
func FormatHelp() string {
	return "Available commands:\n• /all - export all index components\n• /realtime - export realtime quotes\n• /status - show the last export"
}
