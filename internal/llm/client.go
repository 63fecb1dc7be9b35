package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/rahul/deepdive/internal/observability"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

// Role is the speaker of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a chat completion request.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// System and User build messages for the two roles every prompt uses.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }
func User(content string) Message   { return Message{Role: RoleUser, Content: content} }

// Completion is the outcome of one completion call. Err is set when the model
// could not be reached or returned nothing usable; Text is then empty.
type Completion struct {
	Text string
	Err  error
}

// Failed reports whether the call did not produce model output.
func (c Completion) Failed() bool { return c.Err != nil }

// String renders the completion for use inside further prompts. Failures keep
// the "Error: " prefix so the model reads them as plain language.
func (c Completion) String() string {
	if c.Err != nil {
		return fmt.Sprintf("Error: Could not get response from LLM - %v", c.Err)
	}
	return c.Text
}

var errEmptyResponse = errors.New("model returned no choices")

// Client is a stateless request/response wrapper around an llms.Model.
type Client struct {
	Model     llms.Model
	ModelName string
	Timeout   time.Duration
	Observer  observability.Observer

	// MaxTokens applies when a call passes maxTokens <= 0.
	MaxTokens int
}

func NewClient(model llms.Model, modelName string, timeout time.Duration, observer observability.Observer) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if observer == nil {
		observer = observability.Nop{}
	}
	return &Client{
		Model:     model,
		ModelName: modelName,
		Timeout:   timeout,
		Observer:  observer,
	}
}

// Complete sends messages to the model and never returns an error: transport
// failures, timeouts and empty responses are folded into the Completion.
func (c *Client) Complete(ctx context.Context, messages []Message, temperature float64, maxTokens int) Completion {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	content := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		content = append(content, llms.MessageContent{
			Role:  chatType(m.Role),
			Parts: []llms.ContentPart{llms.TextPart(m.Content)},
		})
	}

	opts := []llms.CallOption{llms.WithTemperature(temperature)}
	if maxTokens <= 0 {
		maxTokens = c.MaxTokens
	}
	if maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(maxTokens))
	}

	runID := observability.RunIDFrom(ctx)
	resp, err := c.generate(ctx, content, opts)
	if err != nil {
		log.Printf("Error calling LLM: %v", err)
		observability.LogLLM(c.Observer, runID, messages, "error: "+err.Error())
		return Completion{Err: err}
	}

	choice := resp.Choices[0]
	text := StripThinking(choice.Content)
	observability.LogLLM(c.Observer, runID, messages, text)
	if pt, ct, ok := tokenUsage(choice.GenerationInfo); ok {
		observability.LogCost(c.Observer, runID, pt, ct, c.ModelName)
	}
	return Completion{Text: text}
}

// generate isolates the model call so a misbehaving provider cannot panic
// through the tool boundary.
func (c *Client) generate(ctx context.Context, content []llms.MessageContent, opts []llms.CallOption) (resp *llms.ContentResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp, err = nil, fmt.Errorf("provider panic: %v", r)
		}
	}()
	resp, err = c.Model.GenerateContent(ctx, content, opts...)
	if err != nil {
		return nil, err
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return nil, errEmptyResponse
	}
	return resp, nil
}

func chatType(r Role) schema.ChatMessageType {
	switch r {
	case RoleSystem:
		return schema.ChatMessageTypeSystem
	case RoleAssistant:
		return schema.ChatMessageTypeAI
	default:
		return schema.ChatMessageTypeHuman
	}
}

var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// StripThinking removes <think> blocks emitted by local reasoning models.
func StripThinking(s string) string {
	return strings.TrimSpace(thinkBlock.ReplaceAllString(s, ""))
}

func tokenUsage(info map[string]any) (int, int, bool) {
	if info == nil {
		return 0, 0, false
	}
	pt, ok1 := asInt(info["PromptTokens"])
	ct, ok2 := asInt(info["CompletionTokens"])
	return pt, ct, ok1 && ok2
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}
