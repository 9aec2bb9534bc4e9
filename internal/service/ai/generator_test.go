package ai

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/vishnusiva/callmate/backend/internal/config"
	modelcall "github.com/vishnusiva/callmate/backend/internal/model/call"
)

// fakeChatModel records prompts and echoes a canned completion.
type fakeChatModel struct {
	mu      sync.Mutex
	reply   string
	prompts [][]*schema.Message
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, input)
	f.mu.Unlock()
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

func newTestGenerator(t *testing.T, chatModel model.ChatModel, cfg config.AIConfig) *Generator {
	t.Helper()
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = "You are a test assistant."
	}
	gen, err := newGeneratorWithModel(context.Background(), chatModel, cfg)
	if err != nil {
		t.Fatalf("newGeneratorWithModel err: %v", err)
	}
	return gen
}

func TestGenerateReplyStripsRoleLabel(t *testing.T) {
	fake := &fakeChatModel{reply: "AI: hello"}
	gen := newTestGenerator(t, fake, config.AIConfig{})

	reply, err := gen.GenerateReply(context.Background(), nil, "hi")
	if err != nil {
		t.Fatalf("GenerateReply err: %v", err)
	}
	if reply != "hello" {
		t.Fatalf("expected stripped reply %q, got %q", "hello", reply)
	}
}

func TestGenerateReplyEmptyCompletion(t *testing.T) {
	fake := &fakeChatModel{reply: "   "}
	gen := newTestGenerator(t, fake, config.AIConfig{})

	if _, err := gen.GenerateReply(context.Background(), nil, "hi"); err == nil {
		t.Fatal("expected error for empty completion")
	}
}

func TestGenerateReplySendsSystemPromptEveryTurn(t *testing.T) {
	fake := &fakeChatModel{reply: "ok"}
	gen := newTestGenerator(t, fake, config.AIConfig{SystemPrompt: "persona instruction"})

	for i := 0; i < 3; i++ {
		if _, err := gen.GenerateReply(context.Background(), nil, fmt.Sprintf("q%d", i)); err != nil {
			t.Fatalf("GenerateReply err: %v", err)
		}
	}

	if len(fake.prompts) != 3 {
		t.Fatalf("expected 3 prompts, got %d", len(fake.prompts))
	}
	for i, prompt := range fake.prompts {
		if len(prompt) == 0 || prompt[0].Role != schema.System {
			t.Fatalf("prompt %d missing leading system message", i)
		}
		if prompt[0].Content != "persona instruction" {
			t.Fatalf("prompt %d system content: %q", i, prompt[0].Content)
		}
		if last := prompt[len(prompt)-1]; last.Role != schema.User || last.Content != fmt.Sprintf("q%d", i) {
			t.Fatalf("prompt %d unexpected trailing message: %+v", i, last)
		}
	}
}

func TestGenerateReplyReplaysHistory(t *testing.T) {
	fake := &fakeChatModel{reply: "ok"}
	gen := newTestGenerator(t, fake, config.AIConfig{})

	turns := []modelcall.Turn{
		{UserText: "q0", ReplyText: "a0", CreatedAt: time.Now()},
		{UserText: "q1", ReplyText: "a1", CreatedAt: time.Now()},
	}

	if _, err := gen.GenerateReply(context.Background(), turns, "q2"); err != nil {
		t.Fatalf("GenerateReply err: %v", err)
	}

	prompt := fake.prompts[0]
	// system + 2 turns * 2 messages + query
	if len(prompt) != 6 {
		t.Fatalf("expected 6 messages, got %d", len(prompt))
	}
	if prompt[1].Role != schema.User || prompt[1].Content != "q0" {
		t.Fatalf("unexpected history message: %+v", prompt[1])
	}
	if prompt[2].Role != schema.Assistant || prompt[2].Content != "a0" {
		t.Fatalf("unexpected history message: %+v", prompt[2])
	}
}

func TestGenerateReplyHistoryLimit(t *testing.T) {
	fake := &fakeChatModel{reply: "ok"}
	gen := newTestGenerator(t, fake, config.AIConfig{HistoryLimit: 2})

	var turns []modelcall.Turn
	for i := 0; i < 5; i++ {
		turns = append(turns, modelcall.Turn{
			UserText:  fmt.Sprintf("q%d", i),
			ReplyText: fmt.Sprintf("a%d", i),
		})
	}

	if _, err := gen.GenerateReply(context.Background(), turns, "q5"); err != nil {
		t.Fatalf("GenerateReply err: %v", err)
	}

	prompt := fake.prompts[0]
	// system + 2 windowed turns * 2 messages + query
	if len(prompt) != 6 {
		t.Fatalf("expected 6 messages, got %d", len(prompt))
	}
	if prompt[1].Content != "q3" {
		t.Fatalf("window should start at q3, got %q", prompt[1].Content)
	}
}

func TestStripRoleLabel(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"AI: hello", "hello"},
		{"ai:hello", "hello"},
		{"Ai:   vanakkam", "vanakkam"},
		{"AI:\nhello", "hello"},
		{"hello AI: there", "hello AI: there"},
		{"aim: hello", "aim: hello"},
		{"", ""},
		{"ai", "ai"},
	}

	for _, tc := range cases {
		if got := StripRoleLabel(tc.in); got != tc.want {
			t.Errorf("StripRoleLabel(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
