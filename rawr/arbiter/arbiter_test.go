package arbiter

import (
	"testing"

	"autocompact/rawr"
	"autocompact/rawr/config"
	"autocompact/rawr/state"
)

func enabledConfig() config.Config {
	cfg := config.Default()
	cfg.Enabled = true
	return cfg
}

func windowOf(n int64) *int64 { return &n }

// S1: Arbiter fires on commit under pressure.
func TestEvaluateBoundaryEvent_FiresOnCommitUnderPressure(t *testing.T) {
	cfg := enabledConfig()
	st := rawr.FreshState("thread-1")
	start := rawr.BoundaryEvent{ID: "e1", ThreadID: "thread-1", TurnID: "turn-1", Seq: 1, Source: rawr.SourceCore, Kind: rawr.NewTurnStarted()}
	st = state.Reduce(st, start, 100)
	commit := rawr.BoundaryEvent{ID: "e2", ThreadID: "thread-1", TurnID: "turn-1", Seq: 2, Source: rawr.SourceTool, Kind: rawr.NewCommit()}
	st = state.Reduce(st, commit, 101)

	decision := EvaluateBoundaryEvent(cfg, st, commit, commit.Seq, TokenContext{TotalUsageTokens: 500, ModelContextWindow: windowOf(1000)})

	if decision.Action != rawr.ActionConsiderCompaction {
		t.Fatalf("expected consider_compaction, got %v", decision.Action)
	}
	if decision.Tier == nil || *decision.Tier != rawr.TierAsap {
		t.Fatalf("expected tier=asap, got %v", decision.Tier)
	}
	if len(decision.Reasons) != 1 || decision.Reasons[0] != rawr.ReasonEligibleByPolicy {
		t.Fatalf("expected reasons=[eligible_by_policy], got %v", decision.Reasons)
	}
}

// S2: Missing context window.
func TestEvaluateBoundaryEvent_MissingContextWindow(t *testing.T) {
	cfg := enabledConfig()
	st := rawr.FreshState("thread-1")
	start := rawr.BoundaryEvent{ID: "e1", ThreadID: "thread-1", TurnID: "turn-1", Seq: 1, Source: rawr.SourceCore, Kind: rawr.NewTurnStarted()}
	st = state.Reduce(st, start, 100)

	decision := EvaluateBoundaryEvent(cfg, st, start, start.Seq, TokenContext{TotalUsageTokens: 100, ModelContextWindow: nil})

	if decision.Action != rawr.ActionNoAction {
		t.Fatalf("expected no_action, got %v", decision.Action)
	}
	if decision.Tier != nil {
		t.Fatalf("expected no tier, got %v", decision.Tier)
	}
	if len(decision.Reasons) != 1 || decision.Reasons[0] != rawr.ReasonMissingContextWindow {
		t.Fatalf("expected reasons=[missing_context_window], got %v", decision.Reasons)
	}
}

// S3: Above threshold.
func TestEvaluateBoundaryEvent_AboveThreshold(t *testing.T) {
	cfg := enabledConfig()
	st := rawr.FreshState("thread-1")
	start := rawr.BoundaryEvent{ID: "e1", ThreadID: "thread-1", TurnID: "turn-1", Seq: 1, Source: rawr.SourceCore, Kind: rawr.NewTurnStarted()}
	st = state.Reduce(st, start, 100)

	decision := EvaluateBoundaryEvent(cfg, st, start, start.Seq, TokenContext{TotalUsageTokens: 10, ModelContextWindow: windowOf(1000)})

	if decision.Action != rawr.ActionNoAction || decision.Tier != nil {
		t.Fatalf("expected no_action with no tier, got action=%v tier=%v", decision.Action, decision.Tier)
	}
	if len(decision.Reasons) != 1 || decision.Reasons[0] != rawr.ReasonAboveThreshold {
		t.Fatalf("expected reasons=[above_threshold], got %v", decision.Reasons)
	}
}

// S4: Gating not satisfied.
func TestEvaluateBoundaryEvent_GatingNotSatisfied(t *testing.T) {
	cfg := enabledConfig()
	st := rawr.FreshState("thread-1")
	start := rawr.BoundaryEvent{ID: "e1", ThreadID: "thread-1", TurnID: "turn-1", Seq: 1, Source: rawr.SourceCore, Kind: rawr.NewTurnStarted()}
	st = state.Reduce(st, start, 100)

	decision := EvaluateBoundaryEvent(cfg, st, start, start.Seq, TokenContext{TotalUsageTokens: 500, ModelContextWindow: windowOf(1000)})

	if decision.Action != rawr.ActionNoAction {
		t.Fatalf("expected no_action, got %v", decision.Action)
	}
	if decision.Tier == nil || *decision.Tier != rawr.TierAsap {
		t.Fatalf("expected tier=asap, got %v", decision.Tier)
	}
	if len(decision.Reasons) != 1 || decision.Reasons[0] != rawr.ReasonBoundaryGatingNotSatisfied {
		t.Fatalf("expected reasons=[boundary_gating_not_satisfied], got %v", decision.Reasons)
	}
}

// S5: Mid-turn early-tier plan-update alone vs. plus topic-shift.
func TestEvaluateTokenPressureMidTurn_EarlyTierPlanUpdateAloneNotEnough(t *testing.T) {
	cfg := enabledConfig()
	signals := rawr.FreshTurnSignals("turn-1")
	signals.SawPlanUpdate = true

	decision := EvaluateTokenPressureMidTurn(cfg, "thread-1", "turn-1", signals, 1, TokenContext{TotalUsageTokens: 200, ModelContextWindow: windowOf(1000)})
	if decision.Action != rawr.ActionNoAction || decision.Reasons[0] != rawr.ReasonBoundaryGatingNotSatisfied {
		t.Fatalf("expected plan_update alone to be insufficient at the early tier, got %v / %v", decision.Action, decision.Reasons)
	}
}

func TestEvaluateTokenPressureMidTurn_EarlyTierPlanUpdatePlusTopicShift(t *testing.T) {
	cfg := enabledConfig()
	signals := rawr.FreshTurnSignals("turn-1")
	signals.SawPlanUpdate = true
	signals.SawTopicShift = true

	decision := EvaluateTokenPressureMidTurn(cfg, "thread-1", "turn-1", signals, 1, TokenContext{TotalUsageTokens: 200, ModelContextWindow: windowOf(1000)})
	if decision.Action != rawr.ActionConsiderCompaction || decision.Reasons[0] != rawr.ReasonEligibleByPolicy {
		t.Fatalf("expected topic_shift to satisfy early tier gating once added, got %v / %v", decision.Action, decision.Reasons)
	}
}

func TestEvaluateTokenPressureMidTurn_EarlyTierNoSignalsAtAll(t *testing.T) {
	cfg := enabledConfig()
	signals := rawr.FreshTurnSignals("turn-1")

	decision := EvaluateTokenPressureMidTurn(cfg, "thread-1", "turn-1", signals, 1, TokenContext{TotalUsageTokens: 200, ModelContextWindow: windowOf(1000)})
	if decision.Action != rawr.ActionNoAction || decision.Reasons[0] != rawr.ReasonBoundaryGatingNotSatisfied {
		t.Fatalf("expected no gating signal to produce boundary_gating_not_satisfied, got %v / %v", decision.Action, decision.Reasons)
	}
}

// S6: Emergency ignores gating.
func TestEvaluateTokenPressureMidTurn_EmergencyIgnoresGating(t *testing.T) {
	cfg := enabledConfig()
	signals := rawr.FreshTurnSignals("turn-1")

	decision := EvaluateTokenPressureMidTurn(cfg, "thread-1", "turn-1", signals, 1, TokenContext{TotalUsageTokens: 990, ModelContextWindow: windowOf(1000)})
	if decision.Tier == nil || *decision.Tier != rawr.TierEmergency {
		t.Fatalf("expected tier=emergency, got %v", decision.Tier)
	}
	if decision.Action != rawr.ActionConsiderCompaction || decision.Reasons[0] != rawr.ReasonEligibleByPolicy {
		t.Fatalf("expected emergency tier to fire regardless of signals, got %v / %v", decision.Action, decision.Reasons)
	}
}

func TestShouldCompactMidTurn_FeatureDisabledAlwaysFalse(t *testing.T) {
	cfg := config.Default()
	cfg.Enabled = false
	signals := rawr.FreshTurnSignals("turn-1")
	signals.SawCommit = true
	if ShouldCompactMidTurn(cfg, 1, signals) {
		t.Fatalf("disabled feature must never compact")
	}
}

func TestShouldCompactMidTurn_ConfiguredOverrideReplacesAllowedSet(t *testing.T) {
	cfg := enabledConfig()
	cfg.Trigger = &config.TriggerConfig{AutoRequiresAnyBoundary: []config.Boundary{config.BoundaryAgentDone}}

	signals := rawr.FreshTurnSignals("turn-1")
	signals.SawTopicShift = true // in the default ready-tier allowed set, but NOT in the override
	if ShouldCompactMidTurn(cfg, 70, signals) {
		t.Fatalf("override should replace, not extend, the default allowed set")
	}

	signals.SawAgentDone = true
	if !ShouldCompactMidTurn(cfg, 70, signals) {
		t.Fatalf("expected override's required boundary to satisfy gating once observed")
	}
}

func TestShouldPersistShadowDecision(t *testing.T) {
	tierAsap := rawr.TierAsap
	cases := []struct {
		name                   string
		isCompactionCompleted bool
		decision               rawr.CompactionDecision
		want                   bool
	}{
		{"compaction completed always persists", true, rawr.CompactionDecision{Action: rawr.ActionNoAction}, true},
		{"non no_action persists", false, rawr.CompactionDecision{Action: rawr.ActionConsiderCompaction}, true},
		{"tiered no_action persists", false, rawr.CompactionDecision{Action: rawr.ActionNoAction, Tier: &tierAsap}, true},
		{"no tier no action does not persist", false, rawr.CompactionDecision{Action: rawr.ActionNoAction}, false},
	}
	for _, tc := range cases {
		if got := ShouldPersistShadowDecision(tc.isCompactionCompleted, tc.decision); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}
