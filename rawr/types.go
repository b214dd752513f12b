// Package rawr defines the data model shared by the auto-compaction arbiter:
// thread/turn identifiers, boundary events, decisions, and the structured
// state those events are folded into.
package rawr

import "time"

// ThreadId identifies a conversation thread. Stable for the life of the
// thread and used as the partition key for all durable state.
type ThreadId string

// TurnId identifies one turn (request/response cycle) within a thread.
type TurnId string

// BoundarySource is the provenance tag attached to every boundary event.
type BoundarySource string

const (
	SourceCore       BoundarySource = "core"
	SourceTool       BoundarySource = "tool"
	SourceCompaction BoundarySource = "compaction"
)

// BoundaryKindTag discriminates the BoundaryKind tagged union.
type BoundaryKindTag string

const (
	KindTurnStarted         BoundaryKindTag = "turn_started"
	KindPlanUpdated         BoundaryKindTag = "plan_updated"
	KindCommit              BoundaryKindTag = "commit"
	KindPrCheckpoint        BoundaryKindTag = "pr_checkpoint"
	KindAgentDone           BoundaryKindTag = "agent_done"
	KindTopicShift          BoundaryKindTag = "topic_shift"
	KindConcludingThought   BoundaryKindTag = "concluding_thought"
	KindCompactionCompleted BoundaryKindTag = "compaction_completed"
)

// BoundaryKind is a closed discriminated union over the semantic boundaries
// the classifier can detect. Only the fields relevant to Kind are populated;
// construct instances with the New* helpers rather than building the struct
// literal directly so the discriminator and payload never drift apart.
type BoundaryKind struct {
	Kind BoundaryKindTag `json:"kind"`

	// PlanUpdated payload.
	Checkpoint bool `json:"checkpoint,omitempty"`

	// CompactionCompleted payload.
	Trigger           *CompactionTrigger `json:"trigger,omitempty"`
	TotalTokensBefore int64              `json:"total_tokens_before,omitempty"`
	TotalTokensAfter  int64              `json:"total_tokens_after,omitempty"`
}

func NewTurnStarted() BoundaryKind       { return BoundaryKind{Kind: KindTurnStarted} }
func NewCommit() BoundaryKind            { return BoundaryKind{Kind: KindCommit} }
func NewPrCheckpoint() BoundaryKind      { return BoundaryKind{Kind: KindPrCheckpoint} }
func NewAgentDone() BoundaryKind         { return BoundaryKind{Kind: KindAgentDone} }
func NewTopicShift() BoundaryKind        { return BoundaryKind{Kind: KindTopicShift} }
func NewConcludingThought() BoundaryKind { return BoundaryKind{Kind: KindConcludingThought} }

func NewPlanUpdated(checkpoint bool) BoundaryKind {
	return BoundaryKind{Kind: KindPlanUpdated, Checkpoint: checkpoint}
}

func NewCompactionCompleted(trigger *CompactionTrigger, tokensBefore, tokensAfter int64) BoundaryKind {
	return BoundaryKind{
		Kind:              KindCompactionCompleted,
		Trigger:           trigger,
		TotalTokensBefore: tokensBefore,
		TotalTokensAfter:  tokensAfter,
	}
}

// isSignalBearing reports whether this boundary flips one of TurnSignals'
// flags when reduced (see rawr/state).
func (k BoundaryKind) isSignalBearing() bool {
	switch k.Kind {
	case KindPlanUpdated, KindCommit, KindPrCheckpoint, KindAgentDone, KindTopicShift, KindConcludingThought:
		return true
	default:
		return false
	}
}

// IsSignalBearing exposes isSignalBearing to other rawr packages.
func (k BoundaryKind) IsSignalBearing() bool { return k.isSignalBearing() }

// RepoSnapshot is the best-effort repository context the Repo Observer
// attaches to an event before it reaches the reducer. Never produced by the
// reducer itself — attached upstream.
type RepoSnapshot struct {
	RepoRoot       string `json:"repo_root,omitempty"`
	Branch         string `json:"branch,omitempty"`
	CommitHash     string `json:"commit_hash,omitempty"`
	GraphiteStatus string `json:"graphite_status,omitempty"`
	GraphiteError  string `json:"graphite_error,omitempty"`
}

// BoundaryEvent is one classified, ordered occurrence within a thread.
type BoundaryEvent struct {
	ID           string         `json:"id"`
	OccurredAtMs int64          `json:"occurred_at_ms"`
	ThreadID     ThreadId       `json:"thread_id"`
	TurnID       TurnId         `json:"turn_id"`
	Seq          int64          `json:"seq"`
	Source       BoundarySource `json:"source"`
	Repo         *RepoSnapshot  `json:"repo,omitempty"`
	Kind         BoundaryKind   `json:"kind"`
}

// TurnSignals tracks the per-turn booleans the boundary-gating policy reads.
// Each flag is monotonic (false→true only) within TurnID; a new TurnStarted
// event replaces the whole struct.
type TurnSignals struct {
	TurnID               TurnId `json:"turn_id"`
	SawCommit            bool   `json:"saw_commit"`
	SawPlanCheckpoint    bool   `json:"saw_plan_checkpoint"`
	SawPlanUpdate        bool   `json:"saw_plan_update"`
	SawPrCheckpoint      bool   `json:"saw_pr_checkpoint"`
	SawAgentDone         bool   `json:"saw_agent_done"`
	SawTopicShift        bool   `json:"saw_topic_shift"`
	SawConcludingThought bool   `json:"saw_concluding_thought"`
}

// FreshTurnSignals returns all-false signals bound to turnID.
func FreshTurnSignals(turnID TurnId) TurnSignals {
	return TurnSignals{TurnID: turnID}
}

// PacketAuthor identifies who composes the post-compaction continuation
// packet: the watcher subsystem (this arbiter's host) or the agent itself.
type PacketAuthor string

const (
	PacketAuthorWatcher PacketAuthor = "watcher"
	PacketAuthorAgent   PacketAuthor = "agent"
)

// CompactionTriggerKind discriminates the CompactionTrigger union. Only one
// variant exists today; new variants require a schema version bump.
type CompactionTriggerKind string

const CompactionTriggerAutoWatcher CompactionTriggerKind = "auto_watcher"

// CompactionTrigger records how a compaction was attributed. AutoWatcher is
// currently the only shape.
type CompactionTrigger struct {
	TriggerKind             CompactionTriggerKind `json:"trigger_kind"`
	TriggerPercentRemaining int64                 `json:"trigger_percent_remaining"`
	SawCommit               bool                  `json:"saw_commit"`
	SawPlanCheckpoint       bool                  `json:"saw_plan_checkpoint"`
	SawPlanUpdate           bool                  `json:"saw_plan_update"`
	SawPrCheckpoint         bool                  `json:"saw_pr_checkpoint"`
	PacketAuthor            PacketAuthor          `json:"packet_author"`
}

// NewAutoWatcherTrigger builds the AutoWatcher trigger variant from the
// turn's observed signals. Restores the original's auto_watcher_trigger
// constructor (core/src/rawr_compaction_trigger.rs).
func NewAutoWatcherTrigger(percentRemaining int64, signals TurnSignals, packetAuthor PacketAuthor) CompactionTrigger {
	return CompactionTrigger{
		TriggerKind:             CompactionTriggerAutoWatcher,
		TriggerPercentRemaining: percentRemaining,
		SawCommit:               signals.SawCommit,
		SawPlanCheckpoint:       signals.SawPlanCheckpoint,
		SawPlanUpdate:           signals.SawPlanUpdate,
		SawPrCheckpoint:         signals.SawPrCheckpoint,
		PacketAuthor:            packetAuthor,
	}
}

// DecisionAction is the arbiter's verdict for a single decision.
type DecisionAction string

const (
	ActionNoAction           DecisionAction = "no_action"
	ActionConsiderCompaction DecisionAction = "consider_compaction"
)

// DecisionReason explains why an action was (or wasn't) taken. Decisions
// carry an ordered list so callers can see every contributing reason.
type DecisionReason string

const (
	ReasonMissingContextWindow       DecisionReason = "missing_context_window"
	ReasonAboveThreshold             DecisionReason = "above_threshold"
	ReasonBoundaryGatingNotSatisfied DecisionReason = "boundary_gating_not_satisfied"
	ReasonEligibleByPolicy           DecisionReason = "eligible_by_policy"
)

// DecisionStatus is reserved for future statuses; only "shadow" exists today.
type DecisionStatus string

const DecisionStatusShadow DecisionStatus = "shadow"

// Tier is the pressure bucket derived from percent_remaining.
type Tier string

const (
	TierEarly     Tier = "early"
	TierReady     Tier = "ready"
	TierAsap      Tier = "asap"
	TierEmergency Tier = "emergency"
)

// DecisionTriggerKind discriminates DecisionTrigger.
type DecisionTriggerKind string

const (
	DecisionTriggerBoundaryEvent        DecisionTriggerKind = "boundary_event"
	DecisionTriggerTokenPressureMidTurn DecisionTriggerKind = "token_pressure_mid_turn"
)

// DecisionTrigger identifies what provoked an arbiter evaluation.
type DecisionTrigger struct {
	Kind    DecisionTriggerKind `json:"kind"`
	EventID string              `json:"event_id,omitempty"`
}

func NewBoundaryEventTrigger(eventID string) DecisionTrigger {
	return DecisionTrigger{Kind: DecisionTriggerBoundaryEvent, EventID: eventID}
}

func NewTokenPressureMidTurnTrigger() DecisionTrigger {
	return DecisionTrigger{Kind: DecisionTriggerTokenPressureMidTurn}
}

// CompactionDecision is a single arbiter verdict, persisted when
// ShouldPersistShadowDecision (arbiter package) says so.
type CompactionDecision struct {
	ID                 string           `json:"id"`
	OccurredAtMs       int64            `json:"occurred_at_ms"`
	ThreadID           ThreadId         `json:"thread_id"`
	TurnID             TurnId           `json:"turn_id"`
	Seq                int64            `json:"seq"`
	Trigger            DecisionTrigger  `json:"trigger"`
	Status             DecisionStatus   `json:"status"`
	Action             DecisionAction   `json:"action"`
	TotalUsageTokens   int64            `json:"total_usage_tokens"`
	ModelContextWindow *int64           `json:"model_context_window,omitempty"`
	PercentRemaining   *int64           `json:"percent_remaining,omitempty"`
	Tier               *Tier            `json:"tier,omitempty"`
	TurnSignals        *TurnSignals     `json:"turn_signals,omitempty"`
	Reasons            []DecisionReason `json:"reasons"`
}

// LastDecisionSummary is the trimmed record of the most recent decision kept
// inline in StructuredState (full decisions live only in decisions.jsonl).
type LastDecisionSummary struct {
	ID             string           `json:"id"`
	TurnID         TurnId           `json:"turn_id"`
	Seq            int64            `json:"seq"`
	TriggerEventID string           `json:"trigger_event_id,omitempty"`
	Action         DecisionAction   `json:"action"`
	Tier           *Tier            `json:"tier,omitempty"`
	Reasons        []DecisionReason `json:"reasons"`
}

// LastCompactionSummary records the most recent completed compaction.
type LastCompactionSummary struct {
	OccurredAtMs      int64              `json:"occurred_at_ms"`
	TurnID            TurnId             `json:"turn_id"`
	Seq               int64              `json:"seq"`
	TotalTokensBefore int64              `json:"total_tokens_before"`
	TotalTokensAfter  int64              `json:"total_tokens_after"`
	Trigger           *CompactionTrigger `json:"trigger,omitempty"`
}

// StateSchemaVersion is the current StructuredState.Version.
const StateSchemaVersion = 1

// StructuredState is the per-thread, persisted reduction of every boundary
// event observed so far. It is a cache: reconstructable by replaying
// events.jsonl through the reducer from a fresh state.
type StructuredState struct {
	Version        int                     `json:"version"`
	ThreadID       ThreadId                `json:"thread_id"`
	UpdatedAtMs    int64                   `json:"updated_at_ms"`
	LastEventID    string                  `json:"last_event_id,omitempty"`
	LastSeq        int64                   `json:"last_seq"`
	CurrentTurn    *TurnSignals            `json:"current_turn,omitempty"`
	LastRepo       *RepoSnapshot           `json:"last_repo,omitempty"`
	LastDecision   *LastDecisionSummary    `json:"last_decision,omitempty"`
	LastCompaction *LastCompactionSummary  `json:"last_compaction,omitempty"`
}

// FreshState returns a zero-value state for a thread that hasn't recorded
// anything yet.
func FreshState(threadID ThreadId) StructuredState {
	return StructuredState{Version: StateSchemaVersion, ThreadID: threadID}
}

// NowMs is the clock the reducer and store stamp events/state with. A var so
// tests can override it deterministically, matching the teacher's use of
// time.Now().UTC() at call sites rather than behind an interface.
var NowMs = func() int64 { return time.Now().UnixMilli() }
