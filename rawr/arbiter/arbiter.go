// Package arbiter composes structured state, the tier engine, and the
// boundary-gating policy into CompactionDecision values. It has two entry
// points (EvaluateBoundaryEvent, EvaluateTokenPressureMidTurn) that share the
// same decision-construction core.
package arbiter

import (
	"github.com/google/uuid"

	"autocompact/rawr"
	"autocompact/rawr/config"
	"autocompact/rawr/tier"
)

// TokenContext carries the usage numbers a decision is evaluated against.
type TokenContext struct {
	TotalUsageTokens   int64
	ModelContextWindow *int64
}

// defaultAllowedBoundaries is the fixed per-tier allowed set (spec §4.5).
// Emergency has no entry: it bypasses gating entirely.
//
// Early deliberately excludes PlanUpdate (a bare, non-checkpoint plan edit):
// at the lowest pressure tier a plan update alone is not a strong enough
// semantic break to justify compaction on its own — it must co-occur with
// another boundary (a plan checkpoint, a PR checkpoint, or a topic shift).
// Ready and Asap, under more pressure, accept it alone.
var defaultAllowedBoundaries = map[rawr.Tier][]config.Boundary{
	rawr.TierEarly: {
		config.BoundaryPlanCheckpoint,
		config.BoundaryPrCheckpoint, config.BoundaryTopicShift,
	},
	rawr.TierReady: {
		config.BoundaryCommit, config.BoundaryPlanCheckpoint, config.BoundaryPlanUpdate,
		config.BoundaryPrCheckpoint, config.BoundaryTopicShift,
	},
	rawr.TierAsap: {
		config.BoundaryCommit, config.BoundaryPlanCheckpoint, config.BoundaryPlanUpdate,
		config.BoundaryPrCheckpoint, config.BoundaryAgentDone, config.BoundaryTopicShift,
		config.BoundaryConcludingThought,
	},
}

// signalFor reads the TurnSignals flag corresponding to boundary. TurnComplete
// is recognized but never satisfies gating on its own (spec §4.5).
func signalFor(signals rawr.TurnSignals, boundary config.Boundary) bool {
	switch boundary {
	case config.BoundaryCommit:
		return signals.SawCommit
	case config.BoundaryPlanCheckpoint:
		return signals.SawPlanCheckpoint
	case config.BoundaryPlanUpdate:
		return signals.SawPlanUpdate
	case config.BoundaryPrCheckpoint:
		return signals.SawPrCheckpoint
	case config.BoundaryAgentDone:
		return signals.SawAgentDone
	case config.BoundaryTopicShift:
		return signals.SawTopicShift
	case config.BoundaryConcludingThought:
		return signals.SawConcludingThought
	case config.BoundaryTurnComplete:
		return false
	default:
		return false
	}
}

// ShouldCompactMidTurn implements the boundary-gating policy
// (should_compact_mid_turn): false if the feature is disabled; true
// unconditionally at the emergency tier; otherwise true iff at least one
// boundary in the effective required set (the operator override if
// non-empty, else the tier's default allowed set) is currently signaled.
func ShouldCompactMidTurn(cfg config.Config, percentRemaining int64, signals rawr.TurnSignals) bool {
	if !cfg.Enabled {
		return false
	}

	t, ok := tier.PickTier(config.Thresholds(cfg), percentRemaining)
	if !ok {
		return false
	}
	if t == rawr.TierEmergency {
		return true
	}

	allowed := defaultAllowedBoundaries[t]
	required := config.RequiredBoundaries(cfg)
	if len(required) == 0 {
		required = allowed
	}

	for _, boundary := range required {
		if signalFor(signals, boundary) {
			return true
		}
	}
	return false
}

// ShouldPersistShadowDecision implements the shadow-persistence predicate
// (spec §4.5 / testable property 4): true iff the event is
// CompactionCompleted, or the action is not no_action, or the decision named
// a tier.
func ShouldPersistShadowDecision(isCompactionCompleted bool, decision rawr.CompactionDecision) bool {
	return isCompactionCompleted || decision.Action != rawr.ActionNoAction || decision.Tier != nil
}

func newDecisionID() string { return uuid.New().String() }

func baseDecision(threadID rawr.ThreadId, turnID rawr.TurnId, seq int64, trigger rawr.DecisionTrigger, tc TokenContext, signals *rawr.TurnSignals) rawr.CompactionDecision {
	return rawr.CompactionDecision{
		ID:                 newDecisionID(),
		OccurredAtMs:       rawr.NowMs(),
		ThreadID:           threadID,
		TurnID:             turnID,
		Seq:                seq,
		Trigger:            trigger,
		Status:             rawr.DecisionStatusShadow,
		Action:             rawr.ActionNoAction,
		TotalUsageTokens:   tc.TotalUsageTokens,
		ModelContextWindow: tc.ModelContextWindow,
		TurnSignals:        signals,
		Reasons:            nil,
	}
}

// evaluate is the decision-construction core shared by both entry points.
// signals, when non-nil, are the turn signals to gate against; nil gates
// against all-false signals (the boundary path passes nil when the stored
// signals do not belong to event.turn_id). A thread outside cfg's
// ThreadScope is evaluated as if the feature were disabled.
func evaluate(cfg config.Config, threadID rawr.ThreadId, turnID rawr.TurnId, seq int64, trigger rawr.DecisionTrigger, tc TokenContext, signals *rawr.TurnSignals) rawr.CompactionDecision {
	if !config.InScope(cfg, threadID) {
		cfg.Enabled = false
	}
	decision := baseDecision(threadID, turnID, seq, trigger, tc, signals)

	percentRemaining, ok := tier.PercentRemaining(tc.TotalUsageTokens, tc.ModelContextWindow)
	if !ok {
		decision.Reasons = append(decision.Reasons, rawr.ReasonMissingContextWindow)
		return decision
	}
	decision.PercentRemaining = &percentRemaining

	t, ok := tier.PickTier(config.Thresholds(cfg), percentRemaining)
	if !ok {
		decision.Reasons = append(decision.Reasons, rawr.ReasonAboveThreshold)
		return decision
	}
	decision.Tier = &t

	effectiveSignals := rawr.TurnSignals{}
	if signals != nil {
		effectiveSignals = *signals
	}

	if ShouldCompactMidTurn(cfg, percentRemaining, effectiveSignals) {
		decision.Action = rawr.ActionConsiderCompaction
		decision.Reasons = append(decision.Reasons, rawr.ReasonEligibleByPolicy)
	} else {
		decision.Reasons = append(decision.Reasons, rawr.ReasonBoundaryGatingNotSatisfied)
	}
	return decision
}

// EvaluateBoundaryEvent evaluates the arbiter's policy for a freshly-reduced
// boundary event. state must already reflect event (i.e. called after the
// reducer has run). decisionSeq is the seq to stamp the resulting decision
// with (typically event.Seq).
func EvaluateBoundaryEvent(cfg config.Config, st rawr.StructuredState, event rawr.BoundaryEvent, decisionSeq int64, tc TokenContext) rawr.CompactionDecision {
	var signals *rawr.TurnSignals
	if st.CurrentTurn != nil && st.CurrentTurn.TurnID == event.TurnID {
		signals = st.CurrentTurn
	}
	return evaluate(cfg, event.ThreadID, event.TurnID, decisionSeq, rawr.NewBoundaryEventTrigger(event.ID), tc, signals)
}

// EvaluateTokenPressureMidTurn evaluates the arbiter's policy on a tick-like
// mid-turn probe, using caller-supplied signals rather than reading them
// from persisted state.
func EvaluateTokenPressureMidTurn(cfg config.Config, threadID rawr.ThreadId, turnID rawr.TurnId, signals rawr.TurnSignals, decisionSeq int64, tc TokenContext) rawr.CompactionDecision {
	return evaluate(cfg, threadID, turnID, decisionSeq, rawr.NewTokenPressureMidTurnTrigger(), tc, &signals)
}
