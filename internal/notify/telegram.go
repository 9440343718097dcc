package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ladislavh/terminwatch/internal/slot"
)

const telegramTimeout = 10 * time.Second

// TelegramSender posts batched slot notifications via the Bot API. Bot
// tokens are per-watcher (users bring their own bot), so a bot client is
// built per send rather than held long-term.
type TelegramSender struct {
	httpClient *http.Client
	endpoint   string // Bot API endpoint template; overridable for tests
	logger     *slog.Logger
}

// NewTelegramSender creates a Telegram sender. endpoint may be empty to use
// the public Bot API.
func NewTelegramSender(endpoint string, logger *slog.Logger) *TelegramSender {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TelegramSender{
		httpClient: &http.Client{Timeout: telegramTimeout},
		endpoint:   endpoint,
		logger:     logger,
	}
}

// Send posts one Markdown message covering all slots to the chat.
func (t *TelegramSender) Send(ctx context.Context, botToken, chatID, doctorName, doctorURL string, slots []slot.Slot) error {
	bot, err := tgbotapi.NewBotAPIWithClient(botToken, t.endpoint, t.httpClient)
	if err != nil {
		return fmt.Errorf("telegram bot auth: %w", err)
	}

	text := telegramMessage(doctorName, doctorURL, slots)

	var msg tgbotapi.MessageConfig
	if id, convErr := strconv.ParseInt(chatID, 10, 64); convErr == nil {
		msg = tgbotapi.NewMessage(id, text)
	} else {
		// Channel usernames ("@mychannel") are the only non-numeric form
		// the Bot API accepts.
		msg = tgbotapi.NewMessageToChannel(chatID, text)
	}
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true

	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	t.logger.Info("telegram notification sent", "doctor", doctorName, "slots", len(slots))
	return nil
}

// telegramMessage builds the Markdown body: clickable doctor name, then one
// line for a single slot or a counted bullet list for several.
func telegramMessage(doctorName, doctorURL string, slots []slot.Slot) string {
	sorted := sortedCopy(slots)

	var b strings.Builder
	fmt.Fprintf(&b, "[%s](%s)\n\n", doctorName, doctorURL)

	if len(sorted) == 1 {
		fmt.Fprintf(&b, "Termín: %s %s - OPEN", sorted[0].Date, sorted[0].Time)
		return b.String()
	}

	fmt.Fprintf(&b, "Nájdených %d termínov:\n\n", len(sorted))
	for _, s := range sorted {
		fmt.Fprintf(&b, "• %s %s\n", s.Date, s.Time)
	}
	return b.String()
}
