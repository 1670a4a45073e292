package ai

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

const historyLimit = 20

// EinoBackend serves conversations through an eino chain (template -> chat model).
type EinoBackend struct {
	chatModel model.BaseChatModel
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewEinoBackend compiles the conversation chain around chatModel.
func NewEinoBackend(ctx context.Context, chatModel model.BaseChatModel) (*EinoBackend, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &EinoBackend{chatModel: chatModel, chain: runnable}, nil
}

// OpenConversation starts an empty dialogue bound to systemInstruction.
func (b *EinoBackend) OpenConversation(_ context.Context, systemInstruction string) (Conversation, error) {
	return &einoConversation{backend: b, system: systemInstruction}, nil
}

// CompleteOnce issues a single multimodal request with no history.
func (b *EinoBackend) CompleteOnce(ctx context.Context, instruction string, parts ...Part) (string, error) {
	messages := make([]*schema.Message, 0, 2)
	if strings.TrimSpace(instruction) != "" {
		messages = append(messages, schema.SystemMessage(instruction))
	}

	user := &schema.Message{Role: schema.User}
	for _, part := range parts {
		if part.IsImage() {
			user.MultiContent = append(user.MultiContent, schema.ChatMessagePart{
				Type:     schema.ChatMessagePartTypeImageURL,
				ImageURL: &schema.ChatMessageImageURL{URL: part.DataURL()},
			})
			continue
		}
		user.MultiContent = append(user.MultiContent, schema.ChatMessagePart{
			Type: schema.ChatMessagePartTypeText,
			Text: part.Text,
		})
	}
	messages = append(messages, user)

	resp, err := b.chatModel.Generate(ctx, messages)
	if err != nil {
		return "", unavailable("complete once", err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", unavailable("complete once", errEmptyReply)
	}
	return resp.Content, nil
}

// einoConversation keeps the dialogue history on the backend side of the seam.
type einoConversation struct {
	backend *EinoBackend
	system  string

	mu      sync.Mutex
	history []*schema.Message
}

func (c *einoConversation) Continue(ctx context.Context, text string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	input := map[string]any{
		"system":  c.system,
		"history": c.recentHistory(),
		"query":   text,
	}

	resp, err := c.backend.chain.Invoke(ctx, input)
	if err != nil {
		return "", unavailable("continue conversation", err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", unavailable("continue conversation", errEmptyReply)
	}

	c.history = append(c.history, schema.UserMessage(text), schema.AssistantMessage(resp.Content, nil))
	log.Printf("[ai] eino reply length=%d history=%d", len(resp.Content), len(c.history))
	return resp.Content, nil
}

func (c *einoConversation) recentHistory() []*schema.Message {
	start := 0
	if len(c.history) > historyLimit {
		start = len(c.history) - historyLimit
	}
	return append([]*schema.Message(nil), c.history[start:]...)
}
