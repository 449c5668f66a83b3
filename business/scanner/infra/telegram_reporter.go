package infra

import (
	"context"
	"fmt"
	"strings"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	executionDomain "github.com/fd1az/dex-scanner/business/execution/domain"
	"github.com/fd1az/dex-scanner/business/scanner/domain"
	"github.com/fd1az/dex-scanner/internal/apperror"
)

// Sender is the subset of *tgbot.BotAPI the reporter needs.
type Sender interface {
	Send(c tgbot.Chattable) (tgbot.Message, error)
}

// TelegramReporter sends opportunity and transaction notifications to a chat.
// Cycle summaries are not sent.
type TelegramReporter struct {
	bot    Sender
	chatID int64
}

// NewTelegramReporter connects to the bot API with token.
func NewTelegramReporter(token string, chatID int64) (*TelegramReporter, error) {
	b, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, apperror.New(apperror.CodeConfigurationError, apperror.WithContext("telegram bot"), apperror.WithCause(err))
	}
	return NewTelegramReporterWithSender(b, chatID), nil
}

// NewTelegramReporterWithSender creates a reporter over an existing sender.
func NewTelegramReporterWithSender(bot Sender, chatID int64) *TelegramReporter {
	return &TelegramReporter{bot: bot, chatID: chatID}
}

// Start announces the scanner in the chat.
func (t *TelegramReporter) Start(ctx context.Context) error {
	return t.send("🟢 DEX scanner started")
}

// ReportOpportunity sends an opportunity notification.
func (t *TelegramReporter) ReportOpportunity(ctx context.Context, opp domain.Opportunity) error {
	var b strings.Builder
	fmt.Fprintf(&b, "📈 %s %s on %s\n", strings.ToUpper(string(opp.Action)), opp.Pair.Key(), opp.Venue)
	fmt.Fprintf(&b, "price: %s (ref %s, %s%%)\n", opp.Price, opp.Reference, opp.Change.Shift(2).StringFixed(2))
	fmt.Fprintf(&b, "rsi: %s wma: %s\n", opp.Signal.RSI.StringFixed(2), opp.Signal.WMA.StringFixed(6))
	fmt.Fprintf(&b, "amount: %s %s", opp.Amount, opp.Pair.Base)
	return t.send(b.String())
}

// ReportResult sends a transaction notification.
func (t *TelegramReporter) ReportResult(ctx context.Context, opp domain.Opportunity, res executionDomain.TransactionResult) error {
	return t.send(fmt.Sprintf("✅ %s %s confirmed: %s", res.Venue, opp.Pair.Key(), res.Signature))
}

// ReportCycle does nothing.
func (t *TelegramReporter) ReportCycle(ctx context.Context, report domain.CycleReport) error {
	return nil
}

// Stop announces shutdown.
func (t *TelegramReporter) Stop() error {
	return t.send("⏹ DEX scanner stopped")
}

func (t *TelegramReporter) send(text string) error {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return nil
	}
	if _, err := t.bot.Send(tgbot.NewMessage(t.chatID, text)); err != nil {
		return apperror.New(apperror.CodeReportFailed, apperror.WithContext("telegram send"), apperror.WithCause(err))
	}
	return nil
}
