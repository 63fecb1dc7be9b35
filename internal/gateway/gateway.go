package gateway

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rahul/deepdive/internal/agent"
)

// Messenger defines the interface for communication gateways (Telegram, Discord, etc.)
type Messenger interface {
	// Send sends a message to a specific chat
	Send(chatID string, text string) error
}

// Notifier delivers finished reports to one chat through a Messenger,
// splitting them to fit the platform's message size limit.
type Notifier struct {
	Target    string
	Messenger Messenger
	ChatID    string
	Limit     int
}

func (n *Notifier) Name() string { return n.Target }

func (n *Notifier) Publish(ctx context.Context, r agent.Report) error {
	chunks := SplitMessage(FormatReport(r), n.Limit)
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := n.Messenger.Send(n.ChatID, chunk); err != nil {
			return fmt.Errorf("send part %d/%d to %s: %w", i+1, len(chunks), n.Target, err)
		}
	}
	return nil
}

// FormatReport renders a report as a chat message.
func FormatReport(r agent.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📄 Research Report: %s\n", r.Topic)
	if r.Objective != "" {
		fmt.Fprintf(&b, "📋 Objective: %s\n", r.Objective)
	}
	if r.Path != "" {
		fmt.Fprintf(&b, "💾 Saved as %s\n", r.Path)
	}
	b.WriteString("\n")
	b.WriteString(r.Body)
	return b.String()
}

// SplitMessage breaks text into chunks of at most limit runes, preferring line
// boundaries. Lines longer than limit are cut.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var cur strings.Builder
	curLen := 0
	flush := func() {
		if curLen > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		n := utf8.RuneCountInString(line)
		if curLen+n <= limit {
			cur.WriteString(line)
			curLen += n
			continue
		}
		flush()
		for n > limit {
			r := []rune(line)
			chunks = append(chunks, string(r[:limit]))
			line = string(r[limit:])
			n -= limit
		}
		cur.WriteString(line)
		curLen = n
	}
	flush()
	return chunks
}
