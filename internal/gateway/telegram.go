package gateway

import (
	"fmt"
	"log"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rahul/deepdive/pkg/config"
)

// TelegramMessageLimit is the maximum length of a Telegram text message.
const TelegramMessageLimit = 4096

type TelegramGateway struct {
	Bot *tgbotapi.BotAPI
}

func NewTelegramGateway(token string) (*TelegramGateway, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	return &TelegramGateway{Bot: bot}, nil
}

func (tg *TelegramGateway) Send(chatID string, text string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil || id == 0 {
		return fmt.Errorf("invalid chat ID: %s", chatID)
	}

	// Plain text: report bodies are model output and rarely valid Telegram Markdown.
	msg := tgbotapi.NewMessage(id, text)
	_, err = tg.Bot.Send(msg)
	return err
}

// NewTelegramNotifier connects to the Bot API and returns a report publisher
// for the configured chat.
func NewTelegramNotifier(cfg config.ChannelConfig) (*Notifier, error) {
	if cfg.Token == "" || cfg.ChatID == "" {
		return nil, fmt.Errorf("telegram notifier needs token and chat_id")
	}
	tg, err := NewTelegramGateway(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return &Notifier{Target: "telegram", Messenger: tg, ChatID: cfg.ChatID, Limit: TelegramMessageLimit}, nil
}
