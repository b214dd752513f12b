package judgment

import (
	"context"
	"io"
	"os"
	"testing"

	"autocompact/core/provider"
	"autocompact/rawr"
)

// mockProvider streams a single fixed reply, ignoring the request shape —
// enough to drive RequestJudgment end to end without a real LLM.
type mockProvider struct {
	reply string
}

func (m *mockProvider) Send(ctx context.Context, req provider.Request) (provider.StreamIterator, error) {
	return &mockIterator{chunks: []provider.StreamChunk{
		{Event: provider.EventTextDelta, Text: m.reply},
		{Event: provider.EventMessageStop},
	}}, nil
}

func (m *mockProvider) ListModels(ctx context.Context) ([]provider.ModelInfo, error) {
	return nil, nil
}

type mockIterator struct {
	chunks []provider.StreamChunk
	pos    int
}

func (m *mockIterator) Next() (provider.StreamChunk, error) {
	if m.pos >= len(m.chunks) {
		return provider.StreamChunk{}, io.EOF
	}
	c := m.chunks[m.pos]
	m.pos++
	return c, nil
}

func (m *mockIterator) Close() error { return nil }

func TestRequestJudgment_UsesOverridePromptWhenGiven(t *testing.T) {
	home := t.TempDir()
	overridePath := home + "/custom-judgment.md"
	if err := os.WriteFile(overridePath, []byte("custom system prompt body"), 0o644); err != nil {
		t.Fatalf("writing override: %v", err)
	}

	var sentSystem string
	p := &recordingProvider{
		reply: `{"should_compact": false, "reason": "no pressure"}`,
		onSend: func(req provider.Request) {
			sentSystem = req.System
		},
	}
	r := NewRequester(p, home, "test-model")

	_, err := r.RequestJudgment(context.Background(), Request{
		RequestID:          "req-1",
		Tier:               rawr.TierReady,
		DecisionPromptPath: overridePath,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sentSystem != "custom system prompt body" {
		t.Errorf("expected the override's body as the system prompt, got %q", sentSystem)
	}
}

type recordingProvider struct {
	reply  string
	onSend func(provider.Request)
}

func (p *recordingProvider) Send(ctx context.Context, req provider.Request) (provider.StreamIterator, error) {
	if p.onSend != nil {
		p.onSend(req)
	}
	return &mockIterator{chunks: []provider.StreamChunk{
		{Event: provider.EventTextDelta, Text: p.reply},
		{Event: provider.EventMessageStop},
	}}, nil
}

func (p *recordingProvider) ListModels(ctx context.Context) ([]provider.ModelInfo, error) {
	return nil, nil
}

func TestRequestJudgment_EchoesRequestIDAndTier(t *testing.T) {
	home := t.TempDir()
	p := &mockProvider{reply: `{"should_compact": true, "reason": "pressure plus commit"}`}
	r := NewRequester(p, home, "test-model")

	req := Request{
		RequestID:        "req-123",
		ThreadID:         rawr.ThreadId("thread-1"),
		TurnID:           rawr.TurnId("turn-1"),
		Tier:             rawr.TierAsap,
		PercentRemaining: 20,
	}

	result, err := r.RequestJudgment(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RequestID != "req-123" {
		t.Errorf("RequestID = %q, want echoed %q", result.RequestID, "req-123")
	}
	if result.Tier != rawr.TierAsap {
		t.Errorf("Tier = %q, want %q", result.Tier, rawr.TierAsap)
	}
	if !result.ShouldCompact || result.Reason != "pressure plus commit" {
		t.Errorf("unexpected verdict: %+v", result)
	}
}

func TestParseResult_BareJSON(t *testing.T) {
	got, err := ParseResult(`{"should_compact": true, "reason": "topic shift plus pressure"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.ShouldCompact || got.Reason != "topic shift plus pressure" {
		t.Errorf("unexpected result: %+v", got)
	}
}

func TestParseResult_FencedCodeBlock(t *testing.T) {
	got, err := ParseResult("```json\n{\"should_compact\": false, \"reason\": \"not yet\"}\n```")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ShouldCompact || got.Reason != "not yet" {
		t.Errorf("unexpected result: %+v", got)
	}
}

func TestParseResult_SurroundedByProse(t *testing.T) {
	got, err := ParseResult("Sure, here's my verdict:\n{\"should_compact\": true, \"reason\": \"pr checkpoint\"}\nLet me know if you need anything else.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.ShouldCompact || got.Reason != "pr checkpoint" {
		t.Errorf("unexpected result: %+v", got)
	}
}

func TestParseResult_Unparseable(t *testing.T) {
	if _, err := ParseResult("I don't have an opinion on this."); err == nil {
		t.Fatalf("expected an error for unparseable text")
	}
}

func TestBuildTranscriptExcerpt_CapsAtTwelveMessages(t *testing.T) {
	var messages []provider.Message
	for i := 0; i < 20; i++ {
		messages = append(messages, provider.Message{Role: provider.RoleUser, Content: "short"})
	}
	excerpt := BuildTranscriptExcerpt(messages)
	lines := 0
	for _, r := range excerpt {
		if r == '\n' {
			lines++
		}
	}
	if lines != transcriptExcerptMaxMessages {
		t.Errorf("expected %d lines, got %d: %q", transcriptExcerptMaxMessages, lines, excerpt)
	}
}

func TestBuildTranscriptExcerpt_PreservesChronologicalOrder(t *testing.T) {
	messages := []provider.Message{
		{Role: provider.RoleUser, Content: "first"},
		{Role: provider.RoleAssistant, Content: "second"},
		{Role: provider.RoleUser, Content: "third"},
	}
	excerpt := BuildTranscriptExcerpt(messages)
	firstIdx := indexOf(excerpt, "first")
	secondIdx := indexOf(excerpt, "second")
	thirdIdx := indexOf(excerpt, "third")
	if !(firstIdx < secondIdx && secondIdx < thirdIdx) {
		t.Errorf("expected chronological order, got %q", excerpt)
	}
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}

func TestBuildTranscriptExcerpt_TruncatesEachMessageIndependently(t *testing.T) {
	big := make([]byte, 900)
	for i := range big {
		big[i] = 'x'
	}
	messages := []provider.Message{
		{Role: provider.RoleUser, Content: "small"},
		{Role: provider.RoleAssistant, Content: string(big)},
	}
	excerpt := BuildTranscriptExcerpt(messages)
	wantTruncated := string(big[:transcriptExcerptMaxChars]) + "…"
	if indexOf(excerpt, wantTruncated) == -1 {
		t.Errorf("expected the long message truncated to %d chars plus an ellipsis", transcriptExcerptMaxChars)
	}
	if indexOf(excerpt, string(big)) != -1 {
		t.Errorf("expected the long message not to appear in full")
	}
	if indexOf(excerpt, "small") == -1 {
		t.Errorf("expected the older, short message to still be included")
	}
}

func TestBuildTranscriptExcerpt_SkipsEmptyMessages(t *testing.T) {
	messages := []provider.Message{
		{Role: provider.RoleUser, Content: "first"},
		{Role: provider.RoleAssistant, Content: "   "},
		{Role: provider.RoleUser, Content: "third"},
	}
	excerpt := BuildTranscriptExcerpt(messages)
	if indexOf(excerpt, "first") == -1 || indexOf(excerpt, "third") == -1 {
		t.Errorf("expected both non-empty messages present, got %q", excerpt)
	}
	lines := 0
	for _, r := range excerpt {
		if r == '\n' {
			lines++
		}
	}
	if lines != 2 {
		t.Errorf("expected the whitespace-only message to be skipped, got %d lines: %q", lines, excerpt)
	}
}
