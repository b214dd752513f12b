// Package config loads and validates the auto-compaction arbiter's
// configuration block from the host's TOML config file, the same way
// autocompact/config loads Config — via github.com/BurntSushi/toml — but
// stricter: an unknown key or a malformed threshold quadruple is refused at
// load time rather than merely warned about (spec §7: configuration errors
// must surface and refuse to start, never silently coerce).
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"

	"autocompact/rawr"
	"autocompact/rawr/tier"
)

// Boundary names the gating-relevant boundaries a tier's allowed set (or an
// operator override) can name.
type Boundary string

const (
	BoundaryCommit            Boundary = "commit"
	BoundaryPlanCheckpoint    Boundary = "plan_checkpoint"
	BoundaryPlanUpdate        Boundary = "plan_update"
	BoundaryPrCheckpoint      Boundary = "pr_checkpoint"
	BoundaryAgentDone         Boundary = "agent_done"
	BoundaryTopicShift        Boundary = "topic_shift"
	BoundaryConcludingThought Boundary = "concluding_thought"
	BoundaryTurnComplete      Boundary = "turn_complete"
)

var validBoundaries = map[Boundary]bool{
	BoundaryCommit: true, BoundaryPlanCheckpoint: true, BoundaryPlanUpdate: true,
	BoundaryPrCheckpoint: true, BoundaryAgentDone: true, BoundaryTopicShift: true,
	BoundaryConcludingThought: true, BoundaryTurnComplete: true,
}

// TriggerConfig is the [rawr_auto_compaction.trigger] TOML block.
type TriggerConfig struct {
	EarlyPercentRemainingLt     *int64     `toml:"early_percent_remaining_lt"`
	ReadyPercentRemainingLt     *int64     `toml:"ready_percent_remaining_lt"`
	AsapPercentRemainingLt      *int64     `toml:"asap_percent_remaining_lt"`
	EmergencyPercentRemainingLt *int64     `toml:"emergency_percent_remaining_lt"`
	AutoRequiresAnyBoundary     []Boundary `toml:"auto_requires_any_boundary"`
}

// Config is the [rawr_auto_compaction] TOML block.
type Config struct {
	Enabled      bool                `toml:"enabled"`
	Trigger      *TriggerConfig      `toml:"trigger"`
	PacketAuthor *rawr.PacketAuthor  `toml:"packet_author"`

	// ThreadScope, when non-empty, is a doublestar glob restricting which
	// thread ids the arbiter evaluates at all (see SPEC_FULL.md's domain
	// stack section) — unmatched threads are treated as if the feature flag
	// were disabled for them.
	ThreadScope string `toml:"thread_scope"`
}

// fileShape is the top-level TOML document shape: everything lives under
// [rawr_auto_compaction], matching autocompact/config's top-level-struct idiom.
type fileShape struct {
	RawrAutoCompaction *Config `toml:"rawr_auto_compaction"`
}

// Default returns a disabled config with every threshold at its documented
// default. Matches tier.DefaultThresholds.
func Default() Config {
	return Config{Enabled: false, PacketAuthor: packetAuthorPtr(rawr.PacketAuthorWatcher)}
}

func packetAuthorPtr(p rawr.PacketAuthor) *rawr.PacketAuthor { return &p }

// Load reads path (typically <cosmos_dir>/config.toml) and returns the
// rawr_auto_compaction block, overlaid onto Default(). A missing file is not
// an error — the feature simply stays disabled (first run). A malformed
// threshold quadruple (not strictly descending) or an unrecognized key under
// [rawr_auto_compaction] IS an error: the arbiter must refuse to start
// rather than silently coerce (spec §7).
func Load(path string) (Config, error) {
	cfg := Default()

	var doc fileShape
	meta, err := toml.DecodeFile(path, &doc)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("rawr config: loading %s: %w", path, err)
	}

	if doc.RawrAutoCompaction != nil {
		cfg = *doc.RawrAutoCompaction
		if cfg.PacketAuthor == nil {
			cfg.PacketAuthor = packetAuthorPtr(rawr.PacketAuthorWatcher)
		}
	}

	for _, key := range meta.Undecoded() {
		// Keys outside [rawr_auto_compaction] belong to other subsystems
		// sharing the same file and are not this loader's concern.
		if len(key) > 0 && key[0] == "rawr_auto_compaction" {
			return Config{}, fmt.Errorf("rawr config: unknown config key: %s", key.String())
		}
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func validate(cfg Config) error {
	if cfg.PacketAuthor != nil {
		switch *cfg.PacketAuthor {
		case rawr.PacketAuthorWatcher, rawr.PacketAuthorAgent:
		default:
			return fmt.Errorf("rawr config: invalid packet_author: %q", *cfg.PacketAuthor)
		}
	}
	if cfg.Trigger == nil {
		return nil
	}

	for _, b := range cfg.Trigger.AutoRequiresAnyBoundary {
		if !validBoundaries[b] {
			return fmt.Errorf("rawr config: unknown boundary name: %q", b)
		}
	}

	thresholds := Thresholds(cfg)
	if !(thresholds.EmergencyPercentRemainingLt < thresholds.AsapPercentRemainingLt &&
		thresholds.AsapPercentRemainingLt < thresholds.ReadyPercentRemainingLt &&
		thresholds.ReadyPercentRemainingLt < thresholds.EarlyPercentRemainingLt) {
		return fmt.Errorf("rawr config: thresholds must be strictly descending (emergency < asap < ready < early), got %+v", thresholds)
	}
	return nil
}

// Thresholds resolves cfg's trigger block (if any) onto tier.DefaultThresholds,
// matching RawrAutoCompactionThresholds::from_config.
func Thresholds(cfg Config) tier.Thresholds {
	defaults := tier.DefaultThresholds
	if cfg.Trigger == nil {
		return defaults
	}
	t := cfg.Trigger
	result := defaults
	if t.EarlyPercentRemainingLt != nil {
		result.EarlyPercentRemainingLt = *t.EarlyPercentRemainingLt
	}
	if t.ReadyPercentRemainingLt != nil {
		result.ReadyPercentRemainingLt = *t.ReadyPercentRemainingLt
	}
	if t.AsapPercentRemainingLt != nil {
		result.AsapPercentRemainingLt = *t.AsapPercentRemainingLt
	}
	if t.EmergencyPercentRemainingLt != nil {
		result.EmergencyPercentRemainingLt = *t.EmergencyPercentRemainingLt
	}
	return result
}

// RequiredBoundaries returns cfg's configured override list, or nil if the
// operator left it empty (meaning: use the tier's default allowed set).
func RequiredBoundaries(cfg Config) []Boundary {
	if cfg.Trigger == nil {
		return nil
	}
	return cfg.Trigger.AutoRequiresAnyBoundary
}

// ResolvedPacketAuthor returns cfg's packet author, defaulting to watcher.
func ResolvedPacketAuthor(cfg Config) rawr.PacketAuthor {
	if cfg.PacketAuthor == nil {
		return rawr.PacketAuthorWatcher
	}
	return *cfg.PacketAuthor
}

// InScope reports whether threadID is within cfg's configured thread scope.
// An empty ThreadScope matches every thread (the common case). Matched with
// doublestar.Match.
func InScope(cfg Config, threadID rawr.ThreadId) bool {
	if cfg.ThreadScope == "" {
		return true
	}
	ok, err := doublestar.Match(cfg.ThreadScope, string(threadID))
	if err != nil {
		// An unparseable glob never matches — fail closed rather than
		// silently treating every thread as in scope.
		return false
	}
	return ok
}
