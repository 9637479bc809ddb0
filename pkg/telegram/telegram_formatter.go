package telegram

import (
	"fmt"
	"strings"
	"time"

	"kointos-backend/internal/entity"
	"kointos-backend/pkg/utils"
)

// MaxMessageLength is kept a little under Telegram's 4096 limit.
const MaxMessageLength = 4090

// FormatPriceAlert formats a triggered price alert into a Markdown string for Telegram.
func FormatPriceAlert(alert entity.PriceAlert, price float64, at time.Time) string {
	var builder strings.Builder

	var title, emoji string
	switch alert.AlertType {
	case entity.AlertTypeAbove:
		title = "Price rose above target"
		emoji = "🚀"
	case entity.AlertTypeBelow:
		title = "Price fell below target"
		emoji = "📉"
	default:
		title = "Price Alert"
		emoji = "🔔"
	}

	var target float64
	if alert.TargetPrice != nil {
		target = *alert.TargetPrice
	}

	builder.WriteString(fmt.Sprintf("%s *[%s] %s*\n", emoji, strings.ToUpper(alert.CryptoSymbol), title))
	builder.WriteString(fmt.Sprintf("💰 Price: %s (target: %s)\n", formatPrice(price), formatPrice(target)))
	builder.WriteString(fmt.Sprintf("👤 User: %s\n", alert.UserID))
	builder.WriteString(fmt.Sprintf("%s\n", utils.PrettyDate(at)))
	return builder.String()
}

// FormatNewsDigest formats newly ingested articles into one or more Markdown messages, each
// no longer than MaxMessageLength.
func FormatNewsDigest(articles []entity.NewsArticle) []string {
	if len(articles) == 0 {
		return []string{"No new crypto news."}
	}

	var messages []string
	var current strings.Builder
	part := 1

	startNewPart := func() {
		current.Reset()
		if part == 1 {
			current.WriteString("📰 *Crypto News Digest* 📰\n\n")
		} else {
			current.WriteString(fmt.Sprintf("---*Crypto News Digest Part %d*---\n\n", part))
		}
	}
	startNewPart()

	for _, a := range articles {
		var entry strings.Builder
		entry.WriteString(fmt.Sprintf("%s *%s*\n", sentimentIcon(a.Sentiment), a.Title))
		if len(a.MentionedCryptos) > 0 {
			entry.WriteString(fmt.Sprintf("🪙 %s\n", strings.Join(a.MentionedCryptos, ", ")))
		}
		if a.Summary != "" {
			entry.WriteString(fmt.Sprintf("💬 %s\n", a.Summary))
		}
		if a.SourceURL != "" {
			entry.WriteString(fmt.Sprintf("🔗 %s\n", a.SourceURL))
		}
		entry.WriteString("\n")

		text := entry.String()
		if current.Len()+len(text) > MaxMessageLength {
			messages = append(messages, current.String())
			part++
			startNewPart()
		}
		current.WriteString(text)
	}
	messages = append(messages, current.String())
	return messages
}

// FormatErrorAlertMessage formats a worker failure that needs operator attention.
func FormatErrorAlertMessage(at time.Time, errType string, errMsg string, data string) string {
	return fmt.Sprintf("📛 [ERROR ALERT]\n%s\n🔧 %s\n⚠️ %s\n\n📄 Data: %s\n", utils.PrettyDate(at), errType, errMsg, data)
}

func sentimentIcon(s entity.Sentiment) string {
	switch s {
	case entity.SentimentPositive:
		return "😊"
	case entity.SentimentNegative:
		return "😟"
	default:
		return "😐"
	}
}

func formatPrice(p float64) string {
	if p >= 1 {
		return fmt.Sprintf("$%.2f", p)
	}
	return fmt.Sprintf("$%.6f", p)
}
