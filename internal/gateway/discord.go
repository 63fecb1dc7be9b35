package gateway

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rahul/deepdive/pkg/config"
)

// DiscordMessageLimit is the maximum length of a Discord message.
const DiscordMessageLimit = 2000

// DiscordGateway posts through the Discord REST API; no websocket session is opened.
type DiscordGateway struct {
	Session *discordgo.Session
}

func NewDiscordGateway(token string) (*DiscordGateway, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	return &DiscordGateway{Session: s}, nil
}

func (d *DiscordGateway) Send(channelID string, text string) error {
	if channelID == "" {
		return fmt.Errorf("invalid channel ID")
	}
	_, err := d.Session.ChannelMessageSend(channelID, text)
	return err
}

func NewDiscordNotifier(cfg config.ChannelConfig) (*Notifier, error) {
	if cfg.Token == "" || cfg.ChatID == "" {
		return nil, fmt.Errorf("discord notifier needs token and chat_id")
	}
	d, err := NewDiscordGateway(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("discord: %w", err)
	}
	return &Notifier{Target: "discord", Messenger: d, ChatID: cfg.ChatID, Limit: DiscordMessageLimit}, nil
}
