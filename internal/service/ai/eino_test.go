package ai

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

type fakeChatModel struct {
	mu     sync.Mutex
	inputs [][]*schema.Message
	reply  string
	err    error
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (f *fakeChatModel) BindTools(_ []*schema.ToolInfo) error { return nil }

func (f *fakeChatModel) lastInput() []*schema.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inputs[len(f.inputs)-1]
}

func TestEinoConversationKeepsHistoryBackendSide(t *testing.T) {
	ctx := context.Background()
	fake := &fakeChatModel{reply: "Namaste! Which crop price are you interested in?"}

	backend, err := NewEinoBackend(ctx, fake)
	if err != nil {
		t.Fatalf("NewEinoBackend err: %v", err)
	}

	conv, err := backend.OpenConversation(ctx, "You are Mandi Mitra.")
	if err != nil {
		t.Fatalf("OpenConversation err: %v", err)
	}

	if _, err := conv.Continue(ctx, "Hello"); err != nil {
		t.Fatalf("first Continue err: %v", err)
	}
	first := fake.lastInput()
	if len(first) != 2 {
		t.Fatalf("expected system + user messages, got %d", len(first))
	}
	if first[0].Role != schema.System || first[0].Content != "You are Mandi Mitra." {
		t.Fatalf("unexpected system message: %+v", first[0])
	}

	fake.reply = "Tomato is trading around 25 per kg in Pune."
	reply, err := conv.Continue(ctx, "tomato price in Pune")
	if err != nil {
		t.Fatalf("second Continue err: %v", err)
	}
	if !strings.Contains(reply, "Pune") {
		t.Fatalf("unexpected reply: %q", reply)
	}

	second := fake.lastInput()
	// system, Hello, greeting, new query
	if len(second) != 4 {
		t.Fatalf("expected history to be replayed by the backend, got %d messages", len(second))
	}
	if second[len(second)-1].Content != "tomato price in Pune" {
		t.Fatalf("unexpected last message: %q", second[len(second)-1].Content)
	}
}

func TestEinoConversationWrapsFailures(t *testing.T) {
	ctx := context.Background()
	fake := &fakeChatModel{err: errors.New("quota exceeded")}

	backend, err := NewEinoBackend(ctx, fake)
	if err != nil {
		t.Fatalf("NewEinoBackend err: %v", err)
	}
	conv, _ := backend.OpenConversation(ctx, "system")

	if _, err := conv.Continue(ctx, "hi"); !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}

	fake.err = nil
	fake.reply = "   "
	if _, err := conv.Continue(ctx, "hi"); !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("expected empty reply to be unavailable, got %v", err)
	}
}

func TestEinoCompleteOnceSendsImagePart(t *testing.T) {
	ctx := context.Background()
	fake := &fakeChatModel{reply: "**Early blight** detected."}

	backend, err := NewEinoBackend(ctx, fake)
	if err != nil {
		t.Fatalf("NewEinoBackend err: %v", err)
	}

	text, err := backend.CompleteOnce(ctx, "You are a plant pathologist.",
		InlineImage([]byte{0x89, 0x50, 0x4e, 0x47}, "image/png"),
		TextPart("Analyze this leaf."),
	)
	if err != nil {
		t.Fatalf("CompleteOnce err: %v", err)
	}
	if text != "**Early blight** detected." {
		t.Fatalf("unexpected text %q", text)
	}

	input := fake.lastInput()
	if len(input) != 2 {
		t.Fatalf("expected system + user message, got %d", len(input))
	}
	user := input[1]
	if len(user.MultiContent) != 2 {
		t.Fatalf("expected two parts, got %d", len(user.MultiContent))
	}
	img := user.MultiContent[0]
	if img.Type != schema.ChatMessagePartTypeImageURL || img.ImageURL == nil {
		t.Fatalf("expected image part first, got %+v", img)
	}
	if !strings.HasPrefix(img.ImageURL.URL, "data:image/png;base64,") {
		t.Fatalf("unexpected data url %q", img.ImageURL.URL)
	}
	if user.MultiContent[1].Text != "Analyze this leaf." {
		t.Fatalf("unexpected text part %+v", user.MultiContent[1])
	}
}

func TestRecentHistoryIsBounded(t *testing.T) {
	conv := &einoConversation{}
	for i := 0; i < historyLimit+6; i++ {
		conv.history = append(conv.history, schema.UserMessage("m"))
	}
	if got := len(conv.recentHistory()); got != historyLimit {
		t.Fatalf("expected %d messages, got %d", historyLimit, got)
	}
}
