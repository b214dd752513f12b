// Package state implements the Structured State & Reducer: a deterministic,
// I/O-free fold of boundary events into per-thread state. The reducer never
// touches the filesystem — repo snapshots are attached to events upstream by
// the Repo Observer, and persistence is the Durable Store's job.
package state

import "autocompact/rawr"

// Reduce applies event to state, returning the updated state. state is
// copied by value so callers retain the pre-reduction value if needed; the
// returned copy is what must be persisted.
//
// Rules (spec §4.2):
//   - every event stamps updated_at_ms, last_event_id, last_seq, and (if
//     present) replaces last_repo.
//   - TurnStarted replaces current_turn with fresh signals for its turn.
//   - any signal-bearing event re-initializes current_turn when it is
//     missing or bound to a different turn, then flips the relevant flag.
//     PlanUpdated{checkpoint:true} flips both saw_plan_update and
//     saw_plan_checkpoint.
//   - CompactionCompleted never touches current_turn; it records
//     last_compaction.
func Reduce(s rawr.StructuredState, event rawr.BoundaryEvent, nowMs int64) rawr.StructuredState {
	s.UpdatedAtMs = nowMs
	s.LastEventID = event.ID
	s.LastSeq = event.Seq
	if event.Repo != nil {
		repo := *event.Repo
		s.LastRepo = &repo
	}

	switch event.Kind.Kind {
	case rawr.KindTurnStarted:
		signals := rawr.FreshTurnSignals(event.TurnID)
		s.CurrentTurn = &signals

	case rawr.KindCompactionCompleted:
		s.LastCompaction = &rawr.LastCompactionSummary{
			OccurredAtMs:      nowMs,
			TurnID:            event.TurnID,
			Seq:               event.Seq,
			TotalTokensBefore: event.Kind.TotalTokensBefore,
			TotalTokensAfter:  event.Kind.TotalTokensAfter,
			Trigger:           event.Kind.Trigger,
		}

	default:
		if event.Kind.IsSignalBearing() {
			ensureCurrentTurn(&s, event.TurnID)
			applySignal(s.CurrentTurn, event.Kind)
		}
	}

	return s
}

// ensureCurrentTurn re-initializes state's current turn if it is missing or
// bound to a different turn id. Preserved from the original: the reducer
// resets current_turn on any signal event whose turn_id differs from the
// stored one, even without an intervening TurnStarted, so it stays robust
// against a missing turn-start event.
func ensureCurrentTurn(s *rawr.StructuredState, turnID rawr.TurnId) {
	if s.CurrentTurn != nil && s.CurrentTurn.TurnID == turnID {
		return
	}
	signals := rawr.FreshTurnSignals(turnID)
	s.CurrentTurn = &signals
}

func applySignal(signals *rawr.TurnSignals, kind rawr.BoundaryKind) {
	switch kind.Kind {
	case rawr.KindPlanUpdated:
		signals.SawPlanUpdate = true
		if kind.Checkpoint {
			signals.SawPlanCheckpoint = true
		}
	case rawr.KindCommit:
		signals.SawCommit = true
	case rawr.KindPrCheckpoint:
		signals.SawPrCheckpoint = true
	case rawr.KindAgentDone:
		signals.SawAgentDone = true
	case rawr.KindTopicShift:
		signals.SawTopicShift = true
	case rawr.KindConcludingThought:
		signals.SawConcludingThought = true
	}
}

// ReplayAll folds a full event history, in seq order, from a fresh state.
// Used by tests asserting the deterministic-reduction invariant. The durable
// store does not call it: a missing state.json loads as a fresh state.
func ReplayAll(threadID rawr.ThreadId, events []rawr.BoundaryEvent, nowMs int64) rawr.StructuredState {
	s := rawr.FreshState(threadID)
	for _, event := range events {
		s = Reduce(s, event, nowMs)
	}
	return s
}
