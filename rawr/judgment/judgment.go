// Package judgment asks a model to weigh in on a borderline compaction
// decision: the arbiter's tier/boundary policy is the fast path, and this
// package is the slow path it falls back to when a tier's allowed-boundary
// gating comes back unsatisfied but the tier itself still warrants a second
// opinion. It reuses autocompact/core/provider's streaming abstraction rather
// than inventing a second one.
package judgment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"autocompact/core/provider"
	"autocompact/rawr"
	"autocompact/rawr/prompts"
)

// Request bundles the decision context a judgment prompt is built from.
// RequestID identifies the judgment op the host is issuing; it is echoed
// back verbatim on the Result so the host can correlate the two.
type Request struct {
	RequestID        string             `json:"request_id"`
	ThreadID         rawr.ThreadId      `json:"thread_id"`
	TurnID           rawr.TurnId        `json:"turn_id"`
	Tier             rawr.Tier          `json:"tier"`
	PercentRemaining int64              `json:"percent_remaining"`
	Signals          rawr.TurnSignals   `json:"-"`
	LastAgentMessage string             `json:"last_agent_message"`
	Transcript       []provider.Message `json:"-"`
	TotalUsageTokens int64              `json:"-"`

	// DecisionPromptPath overrides the system prompt body, resolved the way
	// prompts.ResolvePath resolves it (absolute, else catalog, else the
	// current working directory). Empty means "use the catalog's judgment
	// slot", the common case. Matches the RawrAutoCompactionJudgment wire
	// event's decision_prompt_path field.
	DecisionPromptPath string `json:"decision_prompt_path"`

	ModelContextWindow *int64 `json:"-"`
}

// BoundariesPresent renders req.Signals as the boundaries_present: [String]
// the RawrAutoCompactionJudgment wire event carries, for hosts that frame
// this request as JSON rather than constructing it in-process.
func (req Request) BoundariesPresent() []string {
	return boundaryNames(req.Signals)
}

// Result is the judgment verdict, matching the wire shape of a
// RawrAutoCompactionJudgmentResult event: a request id the caller can
// correlate against the request that produced it, the tier the request was
// evaluated at, and the model's should_compact/reason verdict.
type Result struct {
	RequestID     string    `json:"request_id"`
	Tier          rawr.Tier `json:"tier"`
	ShouldCompact bool      `json:"should_compact"`
	Reason        string    `json:"reason"`
}

// Requester issues judgment requests against a provider.Provider, using the
// operator's prompt catalog (rawr/prompts) for both the system prompt and
// the context message.
type Requester struct {
	Provider   provider.Provider
	CosmosHome string
	Model      string
}

// NewRequester builds a Requester. model is the provider-specific model id
// to request judgments from; it is deliberately independent of the model
// driving the conversation itself.
func NewRequester(p provider.Provider, cosmosHome, model string) *Requester {
	return &Requester{Provider: p, CosmosHome: cosmosHome, Model: model}
}

// RequestJudgment builds a provider.Request from req using the operator's
// judgment prompts, streams the reply, and parses it into a Result.
func (r *Requester) RequestJudgment(ctx context.Context, req Request) (Result, error) {
	judgmentBody, err := r.resolveJudgmentPrompt(req.DecisionPromptPath)
	if err != nil {
		return Result{}, err
	}
	system := prompts.ExpandPlaceholders(judgmentBody, judgmentValues(req))
	contextMessage := prompts.ExpandPlaceholders(
		prompts.ReadOrDefault(r.CosmosHome, prompts.JudgmentContext),
		contextValues(req),
	)

	iter, err := r.Provider.Send(ctx, provider.Request{
		Model:  r.Model,
		System: system,
		Messages: []provider.Message{
			{Role: provider.RoleUser, Content: contextMessage},
		},
		MaxTokens: 512,
	})
	if err != nil {
		return Result{}, fmt.Errorf("rawr judgment: sending request: %w", err)
	}
	defer iter.Close()

	text, err := drainText(iter)
	if err != nil {
		return Result{}, fmt.Errorf("rawr judgment: reading response: %w", err)
	}

	result, err := ParseResult(text)
	if err != nil {
		return Result{}, err
	}
	result.RequestID = req.RequestID
	result.Tier = req.Tier
	return result, nil
}

// resolveJudgmentPrompt returns the system prompt body for a judgment
// request: the catalog's judgment slot if override is empty, or the
// contents of the resolved override path otherwise.
func (r *Requester) resolveJudgmentPrompt(override string) (string, error) {
	if override == "" {
		return prompts.ReadOrDefault(r.CosmosHome, prompts.Judgment), nil
	}
	path, err := prompts.ResolvePath(r.CosmosHome, override)
	if err != nil {
		return "", fmt.Errorf("rawr judgment: resolving decision prompt path: %w", err)
	}
	return prompts.ReadPath(path)
}

// drainText consumes iter to completion, concatenating only EventTextDelta
// chunks. Tool-call events, reasoning-only deltas, and usage metadata are
// absorbed quietly — a judgment prompt never asks for tools, so anything
// else is noise the caller doesn't need to see.
func drainText(iter provider.StreamIterator) (string, error) {
	var b strings.Builder
	for {
		chunk, err := iter.Next()
		if err == io.EOF {
			return b.String(), nil
		}
		if err != nil {
			return "", err
		}
		if chunk.Event == provider.EventTextDelta {
			b.WriteString(chunk.Text)
		}
	}
}

// ParseResult extracts a Result from a model's reply, tolerating the three
// shapes models commonly return: a bare JSON object, one wrapped in a
// ```json fenced code block, or JSON with leading/trailing prose around it.
func ParseResult(text string) (Result, error) {
	if result, err := parseJSON(text); err == nil {
		return result, nil
	}

	if fenced := stripCodeFence(text); fenced != text {
		if result, err := parseJSON(fenced); err == nil {
			return result, nil
		}
	}

	if sliced, ok := sliceBraces(text); ok {
		if result, err := parseJSON(sliced); err == nil {
			return result, nil
		}
	}

	return Result{}, fmt.Errorf("rawr judgment: could not parse a JSON verdict out of: %q", text)
}

func parseJSON(text string) (Result, error) {
	var result Result
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &result); err != nil {
		return Result{}, err
	}
	return result, nil
}

func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return text
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}

func sliceBraces(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return text[start : end+1], true
}

func judgmentValues(req Request) map[string]string {
	return map[string]string{
		"tier":             string(req.Tier),
		"percentRemaining": strconv.FormatInt(req.PercentRemaining, 10),
		"boundariesJson":   boundariesJSON(req.Signals),
		"lastAgentMessage": req.LastAgentMessage,
	}
}

func contextValues(req Request) map[string]string {
	window := "unknown"
	if req.ModelContextWindow != nil {
		window = strconv.FormatInt(*req.ModelContextWindow, 10)
	}
	return map[string]string{
		"threadId":           string(req.ThreadID),
		"turnId":             string(req.TurnID),
		"totalUsageTokens":   strconv.FormatInt(req.TotalUsageTokens, 10),
		"modelContextWindow": window,
		"transcriptExcerpt":  BuildTranscriptExcerpt(req.Transcript),
	}
}

func boundaryNames(signals rawr.TurnSignals) []string {
	var seen []string
	if signals.SawCommit {
		seen = append(seen, "commit")
	}
	if signals.SawPlanCheckpoint {
		seen = append(seen, "plan_checkpoint")
	}
	if signals.SawPlanUpdate {
		seen = append(seen, "plan_update")
	}
	if signals.SawPrCheckpoint {
		seen = append(seen, "pr_checkpoint")
	}
	if signals.SawAgentDone {
		seen = append(seen, "agent_done")
	}
	if signals.SawTopicShift {
		seen = append(seen, "topic_shift")
	}
	if signals.SawConcludingThought {
		seen = append(seen, "concluding_thought")
	}
	return seen
}

// boundariesJSON renders signals as the boundaries_present: [String] array
// the judgment prompt's boundariesJson placeholder expects.
func boundariesJSON(signals rawr.TurnSignals) string {
	encoded, err := json.Marshal(boundaryNames(signals))
	if err != nil {
		return "[]"
	}
	return string(encoded)
}

const (
	transcriptExcerptMaxMessages = 12
	transcriptExcerptMaxChars    = 800
)

// BuildTranscriptExcerpt assembles a bounded, chronological excerpt of the
// most recent transcript messages: walk backward from the end, skipping
// empty/whitespace-only messages, truncating each surviving message to
// transcriptExcerptMaxChars with a trailing "…" ellipsis, until
// transcriptExcerptMaxMessages are collected, then reverse back to
// chronological order and join with newlines.
func BuildTranscriptExcerpt(messages []provider.Message) string {
	var picked []provider.Message
	for i := len(messages) - 1; i >= 0 && len(picked) < transcriptExcerptMaxMessages; i-- {
		content := strings.TrimSpace(messages[i].Content)
		if content == "" {
			continue
		}
		picked = append(picked, provider.Message{Role: messages[i].Role, Content: truncateExcerpt(content)})
	}

	var b strings.Builder
	for i := len(picked) - 1; i >= 0; i-- {
		fmt.Fprintf(&b, "%s: %s\n", picked[i].Role, picked[i].Content)
	}
	return b.String()
}

// truncateExcerpt caps content at transcriptExcerptMaxChars runes, appending
// an ellipsis when it had to cut anything off.
func truncateExcerpt(content string) string {
	runes := []rune(content)
	if len(runes) <= transcriptExcerptMaxChars {
		return content
	}
	return string(runes[:transcriptExcerptMaxChars]) + "…"
}
