package ai

import (
	"context"
	"fmt"
	"log"
	"strings"

	"google.golang.org/genai"

	"github.com/krishimitra/krishi-mitra/backend/internal/config"
)

// GeminiBackend serves conversations through the Gemini API chat sessions.
type GeminiBackend struct {
	client    *genai.Client
	modelName string

	temperature *float32
	topP        *float32
	maxTokens   int32
}

// NewGeminiBackend creates a Gemini API client from cfg.
func NewGeminiBackend(ctx context.Context, cfg config.AIConfig) (*GeminiBackend, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	b := &GeminiBackend{client: client, modelName: cfg.GeminiModel}
	if cfg.Temperature != nil {
		val := float32(*cfg.Temperature)
		b.temperature = &val
	}
	if cfg.TopP != nil {
		val := float32(*cfg.TopP)
		b.topP = &val
	}
	if cfg.MaxTokens != nil {
		b.maxTokens = int32(*cfg.MaxTokens)
	}
	return b, nil
}

// OpenConversation creates a Gemini chat whose history lives in the returned handle.
func (b *GeminiBackend) OpenConversation(ctx context.Context, systemInstruction string) (Conversation, error) {
	chat, err := b.client.Chats.Create(ctx, b.modelName, b.generationConfig(systemInstruction), nil)
	if err != nil {
		return nil, unavailable("create chat", err)
	}
	return &geminiConversation{chat: chat}, nil
}

// CompleteOnce issues one GenerateContent call with inline image bytes.
func (b *GeminiBackend) CompleteOnce(ctx context.Context, instruction string, parts ...Part) (string, error) {
	contentParts := make([]*genai.Part, 0, len(parts))
	for _, part := range parts {
		if part.IsImage() {
			contentParts = append(contentParts, genai.NewPartFromBytes(part.Data, part.MIMEType))
			continue
		}
		contentParts = append(contentParts, genai.NewPartFromText(part.Text))
	}

	contents := []*genai.Content{genai.NewContentFromParts(contentParts, genai.RoleUser)}
	res, err := b.client.Models.GenerateContent(ctx, b.modelName, contents, b.generationConfig(instruction))
	if err != nil {
		return "", unavailable("generate content", err)
	}

	text := res.Text()
	if strings.TrimSpace(text) == "" {
		return "", unavailable("generate content", errEmptyReply)
	}
	return text, nil
}

func (b *GeminiBackend) generationConfig(systemInstruction string) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature:     b.temperature,
		TopP:            b.topP,
		MaxOutputTokens: b.maxTokens,
	}
	if strings.TrimSpace(systemInstruction) != "" {
		cfg.SystemInstruction = genai.NewContentFromText(systemInstruction, genai.RoleUser)
	}
	return cfg
}

type geminiConversation struct {
	chat *genai.Chat
}

func (c *geminiConversation) Continue(ctx context.Context, text string) (string, error) {
	res, err := c.chat.SendMessage(ctx, genai.Part{Text: text})
	if err != nil {
		return "", unavailable("send message", err)
	}

	reply := res.Text()
	if strings.TrimSpace(reply) == "" {
		return "", unavailable("send message", errEmptyReply)
	}
	log.Printf("[ai] gemini reply length=%d", len(reply))
	return reply, nil
}
