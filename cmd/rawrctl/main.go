// Command rawrctl is a thin driver over the auto-compaction arbiter,
// exercising the same path the cosmos runtime would drive internally: load
// config, reduce a boundary event into durable state, evaluate the policy,
// and persist a shadow decision when the predicate says to. It exists for
// operators to inspect and debug the arbiter's behavior outside a live
// session.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	hostconfig "autocompact/config"
	"autocompact/rawr"
	"autocompact/rawr/arbiter"
	"autocompact/rawr/config"
	"autocompact/rawr/judgment"
	"autocompact/rawr/judgment/bedrockprovider"
	"autocompact/rawr/observer"
	"autocompact/rawr/store"
)

const version = "0.1.0"

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Println(version)
		return
	}
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "rawrctl: expected a subcommand: \"evaluate\" or \"judge\"")
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "evaluate":
		err = runEvaluate(os.Args[2:])
	case "judge":
		err = runJudge(os.Args[2:])
	default:
		err = fmt.Errorf("unknown subcommand %q", os.Args[1])
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "rawrctl: %v\n", err)
		os.Exit(1)
	}
}

func runEvaluate(args []string) error {
	fs := flag.NewFlagSet("evaluate", flag.ContinueOnError)
	cosmosHome := fs.String("cosmos-home", defaultCosmosHome(), "cosmos home directory")
	threadID := fs.String("thread", "", "thread id (required)")
	turnID := fs.String("turn", "", "turn id (required)")
	boundary := fs.String("boundary", "", "boundary kind: turn_started, commit, plan_checkpoint, plan_update, pr_checkpoint, agent_done, topic_shift, concluding_thought (required)")
	seq := fs.Int64("seq", 1, "monotonic sequence number for this event")
	totalTokens := fs.Int64("total-tokens", 0, "total usage tokens at this point in the turn")
	contextWindow := fs.Int64("context-window", 0, "model context window; 0 means unknown")
	repoCwd := fs.String("repo-cwd", "", "working directory to observe git/graphite context from, if any")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *threadID == "" || *turnID == "" || *boundary == "" {
		return fmt.Errorf("--thread, --turn, and --boundary are all required")
	}

	host := hostconfig.Config{CosmosDir: *cosmosHome}
	if err := host.EnsureDirs(); err != nil {
		return fmt.Errorf("ensuring cosmos home directory: %w", err)
	}

	cfg, err := config.Load(host.ConfigFilePath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if !cfg.Enabled {
		fmt.Fprintln(os.Stderr, "rawrctl: rawr_auto_compaction is disabled in config; evaluating anyway")
	}
	if !config.InScope(cfg, rawr.ThreadId(*threadID)) {
		fmt.Fprintln(os.Stderr, "rawrctl: thread is out of configured scope; evaluating anyway")
	}

	kind, err := parseBoundary(*boundary)
	if err != nil {
		return err
	}

	var repo *rawr.RepoSnapshot
	if *repoCwd != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		repo = observer.Observe(ctx, *repoCwd, observer.DefaultConfig(), kind)
	}

	event := rawr.BoundaryEvent{
		ID:           fmt.Sprintf("%s-%d", *turnID, *seq),
		OccurredAtMs: rawr.NowMs(),
		ThreadID:     rawr.ThreadId(*threadID),
		TurnID:       rawr.TurnId(*turnID),
		Seq:          *seq,
		Source:       rawr.SourceCore,
		Repo:         repo,
		Kind:         kind,
	}

	st := store.New(*cosmosHome)
	updated, err := st.AppendEvent(event)
	if err != nil {
		return fmt.Errorf("appending event: %w", err)
	}

	var window *int64
	if *contextWindow > 0 {
		window = contextWindow
	}
	tc := arbiter.TokenContext{TotalUsageTokens: *totalTokens, ModelContextWindow: window}

	decision := arbiter.EvaluateBoundaryEvent(cfg, updated, event, *seq, tc)

	isCompactionCompleted := kind.Kind == rawr.KindCompactionCompleted
	if arbiter.ShouldPersistShadowDecision(isCompactionCompleted, decision) {
		if _, err := st.AppendDecision(decision); err != nil {
			return fmt.Errorf("persisting decision: %w", err)
		}
	}

	return printJSON(decision)
}

// runJudge issues a standalone judgment request against a live Bedrock
// model, for operators diagnosing a marginal decision outside the arbiter's
// own fast path.
func runJudge(args []string) error {
	fs := flag.NewFlagSet("judge", flag.ContinueOnError)
	cosmosHome := fs.String("cosmos-home", defaultCosmosHome(), "cosmos home directory")
	requestID := fs.String("request-id", "", "judgment request id to echo back (required)")
	threadID := fs.String("thread", "", "thread id (required)")
	turnID := fs.String("turn", "", "turn id (required)")
	tierFlag := fs.String("tier", "", "pressure tier: early, ready, asap, emergency (required)")
	percentRemaining := fs.Int64("percent-remaining", 0, "percent of context window remaining")
	totalTokens := fs.Int64("total-tokens", 0, "total usage tokens at this point in the turn")
	contextWindow := fs.Int64("context-window", 0, "model context window; 0 means unknown")
	lastAgentMessage := fs.String("last-agent-message", "", "most recent assistant message, for the decision context")
	decisionPromptPath := fs.String("decision-prompt-path", "", "override the judgment system prompt: absolute path, else resolved under the prompt catalog, else the working directory")
	region := fs.String("region", "us-east-1", "AWS region for the Bedrock client")
	profile := fs.String("profile", "", "named AWS credentials profile, if not the default")
	model := fs.String("model", bedrockprovider.DefaultModel, "Bedrock model id to request the judgment from")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *requestID == "" || *threadID == "" || *turnID == "" || *tierFlag == "" {
		return fmt.Errorf("--request-id, --thread, --turn, and --tier are all required")
	}

	ctx := context.Background()
	p, err := bedrockprovider.New(ctx, *region, *profile)
	if err != nil {
		return fmt.Errorf("building bedrock provider: %w", err)
	}

	var window *int64
	if *contextWindow > 0 {
		window = contextWindow
	}

	req := judgment.Request{
		RequestID:          *requestID,
		ThreadID:           rawr.ThreadId(*threadID),
		TurnID:             rawr.TurnId(*turnID),
		Tier:               rawr.Tier(*tierFlag),
		PercentRemaining:   *percentRemaining,
		LastAgentMessage:   *lastAgentMessage,
		DecisionPromptPath: *decisionPromptPath,
		TotalUsageTokens:   *totalTokens,
		ModelContextWindow: window,
	}

	result, err := judgment.NewRequester(p, *cosmosHome, *model).RequestJudgment(ctx, req)
	if err != nil {
		return fmt.Errorf("requesting judgment: %w", err)
	}

	return printJSON(result)
}

func parseBoundary(name string) (rawr.BoundaryKind, error) {
	switch name {
	case "turn_started":
		return rawr.NewTurnStarted(), nil
	case "commit":
		return rawr.NewCommit(), nil
	case "plan_checkpoint":
		return rawr.NewPlanUpdated(true), nil
	case "plan_update":
		return rawr.NewPlanUpdated(false), nil
	case "pr_checkpoint":
		return rawr.NewPrCheckpoint(), nil
	case "agent_done":
		return rawr.NewAgentDone(), nil
	case "topic_shift":
		return rawr.NewTopicShift(), nil
	case "concluding_thought":
		return rawr.NewConcludingThought(), nil
	default:
		return rawr.BoundaryKind{}, fmt.Errorf("unrecognized boundary kind %q", name)
	}
}

func defaultCosmosHome() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cosmos")
	}
	return ".cosmos"
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
