// Package tier implements the Threshold & Tier Engine: mapping a remaining
// context-window percentage onto a pressure tier using configurable,
// strictly-descending cutoffs.
package tier

import "autocompact/rawr"

// Thresholds are the four percent_remaining cutoffs, checked in order
// emergency -> asap -> ready -> early (first match wins).
type Thresholds struct {
	EarlyPercentRemainingLt     int64
	ReadyPercentRemainingLt     int64
	AsapPercentRemainingLt      int64
	EmergencyPercentRemainingLt int64
}

// DefaultThresholds matches the original's defaults.
var DefaultThresholds = Thresholds{
	EarlyPercentRemainingLt:     85,
	ReadyPercentRemainingLt:     75,
	AsapPercentRemainingLt:      65,
	EmergencyPercentRemainingLt: 15,
}

// PickTier returns the first tier whose threshold percentRemaining is below,
// checked emergency -> asap -> ready -> early. Returns (zero-value, false)
// if no tier matches (no pressure).
func PickTier(thresholds Thresholds, percentRemaining int64) (rawr.Tier, bool) {
	switch {
	case percentRemaining < thresholds.EmergencyPercentRemainingLt:
		return rawr.TierEmergency, true
	case percentRemaining < thresholds.AsapPercentRemainingLt:
		return rawr.TierAsap, true
	case percentRemaining < thresholds.ReadyPercentRemainingLt:
		return rawr.TierReady, true
	case percentRemaining < thresholds.EarlyPercentRemainingLt:
		return rawr.TierEarly, true
	default:
		return "", false
	}
}

// PercentRemaining computes ((contextWindow - totalUsageTokens) * 100) /
// contextWindow, clamped to >= 0. Returns (0, true) if contextWindow is 0,
// and (_, false) if contextWindow is nil (undefined pressure — the caller
// must treat this as "missing context window", not zero pressure).
func PercentRemaining(totalUsageTokens int64, contextWindow *int64) (int64, bool) {
	if contextWindow == nil {
		return 0, false
	}
	if *contextWindow == 0 {
		return 0, true
	}
	remaining := ((*contextWindow - totalUsageTokens) * 100) / *contextWindow
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}
