package chat

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/krishimitra/krishi-mitra/backend/internal/service/ai"
)

// stubBackend answers every turn with reply(text). When gate is set each call
// waits for a value on it before returning.
type stubBackend struct {
	reply func(text string) (string, error)
	gate  chan struct{}

	opens atomic.Int32
	calls atomic.Int32

	mu       sync.Mutex
	received []string
}

func (b *stubBackend) OpenConversation(ctx context.Context, systemInstruction string) (ai.Conversation, error) {
	b.opens.Add(1)
	return &stubConversation{backend: b}, nil
}

func (b *stubBackend) CompleteOnce(ctx context.Context, instruction string, parts ...ai.Part) (string, error) {
	return "", errors.New("not used")
}

func (b *stubBackend) texts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.received...)
}

type stubConversation struct {
	backend *stubBackend
}

func (c *stubConversation) Continue(ctx context.Context, text string) (string, error) {
	b := c.backend
	b.calls.Add(1)
	b.mu.Lock()
	b.received = append(b.received, text)
	b.mu.Unlock()

	if b.gate != nil {
		<-b.gate
	}
	if b.reply == nil {
		return "ok", nil
	}
	return b.reply(text)
}

func echoReply(text string) (string, error) {
	if text == BootstrapMessage {
		return "Welcome!", nil
	}
	return "reply to " + text, nil
}
