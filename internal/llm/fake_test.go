package llm

import (
	"context"
	"testing"
)

func TestFakeChatCompleteDefaultsToOK(t *testing.T) {
	f := &Fake{}
	got, err := f.ChatComplete(context.Background(), []Message{{Role: "user", Content: "hi"}}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" {
		t.Fatalf("got %q, want %q", got, "ok")
	}
}

func TestFakeChatCompleteUsesOverride(t *testing.T) {
	f := &Fake{
		ChatCompleteFunc: func(ctx context.Context, messages []Message, systemPrompt string) (string, error) {
			return "custom", nil
		},
	}
	got, _ := f.ChatComplete(context.Background(), nil, "")
	if got != "custom" {
		t.Fatalf("got %q, want %q", got, "custom")
	}
}

func TestFakeCreateToolUseMessageDefaultsToEndTurn(t *testing.T) {
	f := &Fake{}
	res, err := f.CreateToolUseMessage(context.Background(), nil, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.StopReason != StopEndTurn {
		t.Fatalf("got stop reason %q, want %q", res.StopReason, StopEndTurn)
	}
}

func TestFakeRecordsCalls(t *testing.T) {
	f := &Fake{}
	ctx := context.Background()
	f.ChatComplete(ctx, nil, "")
	f.CreateToolUseMessage(ctx, nil, "", nil)
	out, errs := f.Chat(ctx, nil, "")
	for range out {
	}
	for range errs {
	}

	if len(f.Calls) != 3 {
		t.Fatalf("got %d calls, want 3: %v", len(f.Calls), f.Calls)
	}
}
