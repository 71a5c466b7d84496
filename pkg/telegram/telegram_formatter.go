package telegram

import (
	"fmt"
	"strings"
	"time"

	"roundtable-ingestor/internal/ingestor/dto"
	"roundtable-ingestor/pkg/utils"
)

const (
	maxMessageLength = 4090
	maxReportedErrs  = 10
)

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// FormatRunReport renders one ingestion run as a Markdown message.
func FormatRunReport(trigger, status string, startedAt time.Time, duration time.Duration, result *dto.RunResult) string {
	var b strings.Builder

	icon := "✅"
	if status != "COMPLETED" {
		icon = "❌"
	}
	fmt.Fprintf(&b, "%s *Ingestion run %s*\n", icon, markdownEscaper.Replace(status))
	fmt.Fprintf(&b, "🕒 %s (%s)\n", startedAt.In(utils.GetEasternTimeLocation()).Format("Jan 2, 2006 3:04 PM MST"), duration.Round(time.Second))
	fmt.Fprintf(&b, "⚙️ Trigger: %s\n\n", markdownEscaper.Replace(trigger))

	if result != nil {
		fmt.Fprintf(&b, "📡 Feeds: %d fetched / %d initialized\n", result.FeedsFetched, result.FeedsInitialized)
		fmt.Fprintf(&b, "📰 Articles: %d fetched, %d new\n", result.ArticlesFetched, result.ArticlesNew)
		fmt.Fprintf(&b, "🔎 Scored: %d approved, %d rejected\n", result.ArticlesApproved, result.ArticlesRejected)
		fmt.Fprintf(&b, "📝 Summarized: %d\n", result.ArticlesSummarized)
		fmt.Fprintf(&b, "🏛 Policies: %d created, %d events added\n", result.PoliciesCreated, result.EventsAdded)
		if result.ArticlesErrored > 0 {
			fmt.Fprintf(&b, "⚠️ Errored articles: %d\n", result.ArticlesErrored)
		}

		if len(result.Errors) > 0 {
			b.WriteString("\n*Errors:*\n")
			for i, e := range result.Errors {
				if i == maxReportedErrs {
					fmt.Fprintf(&b, "…and %d more\n", len(result.Errors)-maxReportedErrs)
					break
				}
				fmt.Fprintf(&b, "• %s\n", markdownEscaper.Replace(e))
			}
		}
	}

	return truncateMessage(b.String())
}

func truncateMessage(msg string) string {
	runes := []rune(msg)
	if len(runes) <= maxMessageLength {
		return msg
	}
	return string(runes[:maxMessageLength-1]) + "…"
}
