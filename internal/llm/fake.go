package llm

import "context"

// Fake is an in-memory Provider test double. Each method defers to the
// matching func field when set, and falls back to a canned response
// otherwise, mirroring the teacher's configurable-func mock clients.
type Fake struct {
	ChatFunc                 func(ctx context.Context, messages []Message, systemPrompt string) (<-chan string, <-chan error)
	ChatCompleteFunc         func(ctx context.Context, messages []Message, systemPrompt string) (string, error)
	CreateToolUseMessageFunc func(ctx context.Context, messages []Message, systemPrompt string, tools []ToolDefinition) (ToolUseResult, error)

	// Calls records every invocation for assertion in tests.
	Calls []string
}

func (f *Fake) Chat(ctx context.Context, messages []Message, systemPrompt string) (<-chan string, <-chan error) {
	f.Calls = append(f.Calls, "Chat")
	if f.ChatFunc != nil {
		return f.ChatFunc(ctx, messages, systemPrompt)
	}
	out := make(chan string, 1)
	errs := make(chan error, 1)
	out <- "ok"
	close(out)
	close(errs)
	return out, errs
}

func (f *Fake) ChatComplete(ctx context.Context, messages []Message, systemPrompt string) (string, error) {
	f.Calls = append(f.Calls, "ChatComplete")
	if f.ChatCompleteFunc != nil {
		return f.ChatCompleteFunc(ctx, messages, systemPrompt)
	}
	return "ok", nil
}

func (f *Fake) CreateToolUseMessage(ctx context.Context, messages []Message, systemPrompt string, tools []ToolDefinition) (ToolUseResult, error) {
	f.Calls = append(f.Calls, "CreateToolUseMessage")
	if f.CreateToolUseMessageFunc != nil {
		return f.CreateToolUseMessageFunc(ctx, messages, systemPrompt, tools)
	}
	return ToolUseResult{StopReason: StopEndTurn, TextContent: "ok"}, nil
}

var _ Provider = (*Fake)(nil)
