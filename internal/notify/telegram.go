package notify

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/events"
	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Sender is the part of the Telegram bot API the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier pushes booking lifecycle events to the admin chats. It is
// fire-and-forget: a delivery failure is logged and never blocks the booking
// flow.
type TelegramNotifier struct {
	sender       Sender
	adminChatIDs []int64
	logger       *zerolog.Logger
}

func NewTelegramNotifier(sender Sender, adminChatIDs []int64, logger *zerolog.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		sender:       sender,
		adminChatIDs: adminChatIDs,
		logger:       logger,
	}
}

// NewBotAPI connects to Telegram with the given token.
func NewBotAPI(token string) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return bot, nil
}

// SubscribeTo registers the notifier on the bus for all booking events.
func (n *TelegramNotifier) SubscribeTo(bus *events.EventBus) {
	for _, eventType := range []string{
		events.EventBookingCreated,
		events.EventBookingApproved,
		events.EventBookingCancelled,
		events.EventPaymentCompleted,
	} {
		bus.Subscribe(eventType, n.handleEvent)
	}
}

func (n *TelegramNotifier) handleEvent(event *events.Event) error {
	var payload events.BookingEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		n.logger.Error().Err(err).Str("event_type", event.Type).Msg("decode event payload")
		return err
	}

	text := n.formatMessage(event.Type, payload)
	if text == "" {
		return nil
	}

	for _, chatID := range n.adminChatIDs {
		msg := tgbotapi.NewMessage(chatID, text)
		if _, err := n.sender.Send(msg); err != nil {
			n.logger.Error().Err(err).Int64("chat_id", chatID).Str("event_type", event.Type).Msg("telegram send failed")
		}
	}
	return nil
}

func (n *TelegramNotifier) formatMessage(eventType string, p events.BookingEventPayload) string {
	var b strings.Builder

	switch eventType {
	case events.EventBookingCreated:
		b.WriteString("🆕 New booking request\n")
	case events.EventBookingApproved:
		b.WriteString("✅ Booking approved\n")
	case events.EventBookingCancelled:
		if p.CancelledReason == models.CancelReasonExpired {
			b.WriteString("⏳ Booking hold expired\n")
		} else {
			b.WriteString("❌ Booking cancelled\n")
		}
	case events.EventPaymentCompleted:
		b.WriteString("💰 Booking fully paid\n")
	default:
		return ""
	}

	fmt.Fprintf(&b, "Number: %s\n", p.BookingNumber)
	fmt.Fprintf(&b, "Date: %s\n", models.DateKey(p.Date))
	fmt.Fprintf(&b, "Hours: %s\n", formatHours(p.SlotHours))
	fmt.Fprintf(&b, "Total: %d\n", p.TotalAmount)
	if p.RemainingPayment > 0 {
		fmt.Fprintf(&b, "Remaining: %d\n", p.RemainingPayment)
	}
	if p.CancelledReason != "" {
		fmt.Fprintf(&b, "Reason: %s\n", p.CancelledReason)
	}

	return b.String()
}

func formatHours(hours []int) string {
	parts := make([]string, 0, len(hours))
	for _, h := range hours {
		parts = append(parts, fmt.Sprintf("%02d:00", h))
	}
	return strings.Join(parts, ", ")
}
