// Package classify holds the pure, side-effect-free predicates that map
// normalized host inputs (command argv, plan diffs, assistant messages)
// onto the boundary semantics the arbiter reasons about. None of these
// functions perform I/O or panic on empty/non-ASCII input.
package classify

import (
	"path/filepath"
	"strings"
)

// LooksLikeGitCommit reports whether argv represents a `git commit`
// invocation: either the lowercased joined command contains "git commit", or
// some adjacent pair (a, b) has basename(a) == "git" and b == "commit"
// (case-insensitive).
func LooksLikeGitCommit(argv []string) bool {
	if len(argv) == 0 {
		return false
	}

	joined := strings.ToLower(strings.Join(argv, " "))
	if strings.Contains(joined, "git commit") {
		return true
	}

	for i := 0; i+1 < len(argv); i++ {
		if filepath.Base(argv[i]) == "git" && strings.EqualFold(argv[i+1], "commit") {
			return true
		}
	}
	return false
}

// prCheckpointNeedles are the substrings that mark a publish/review-lifecycle
// command as a PR checkpoint.
var prCheckpointNeedles = []string{
	"git push",
	"gt submit", "gt ss", "gt create", "gt review", "gt land",
	"gh pr create", "gh pr close", "gh pr merge", "gh pr reopen", "gh pr review",
}

// LooksLikePrCheckpoint reports whether argv represents a push/PR lifecycle
// command.
func LooksLikePrCheckpoint(argv []string) bool {
	if len(argv) == 0 {
		return false
	}
	joined := strings.ToLower(strings.Join(argv, " "))
	for _, needle := range prCheckpointNeedles {
		if strings.Contains(joined, needle) {
			return true
		}
	}
	return false
}

// PlanStep is the minimal shape the classifier needs from a plan-update
// payload; the host's richer plan-tool type can be adapted to this.
type PlanStep struct {
	Status string // e.g. "pending", "in_progress", "completed"
}

// IsPlanCheckpoint reports whether the updated plan contains any step whose
// status is "completed".
func IsPlanCheckpoint(steps []PlanStep) bool {
	for _, step := range steps {
		if step.Status == "completed" {
			return true
		}
	}
	return false
}

var notDoneNeedles = []string{"not done", "not completed", "not finished"}
var doneNeedles = []string{"done", "completed", "finished", "shipped", "pushed"}

// AgentMessageLooksDone is the "agent-done" heuristic: false on empty input
// or any negated-completion phrase, else true if any completion word
// appears.
func AgentMessageLooksDone(message string) bool {
	lower := strings.ToLower(strings.TrimSpace(message))
	if lower == "" {
		return false
	}
	for _, needle := range notDoneNeedles {
		if strings.Contains(lower, needle) {
			return false
		}
	}
	for _, needle := range doneNeedles {
		if strings.Contains(lower, needle) {
			return true
		}
	}
	return false
}

var topicShiftNeedles = []string{
	"moving on", "switching to", "next,", "next:", "next up",
	"now, let's", "now let's", "we'll now",
}

// AgentMessageLooksLikeTopicShift is the topic-shift heuristic.
func AgentMessageLooksLikeTopicShift(message string) bool {
	lower := strings.ToLower(strings.TrimSpace(message))
	if lower == "" {
		return false
	}
	for _, needle := range topicShiftNeedles {
		if strings.Contains(lower, needle) {
			return true
		}
	}
	return false
}

var concludingThoughtNeedles = []string{
	"in summary", "to summarize", "to wrap up", "wrapping up",
	"conclusion", "concluding", "final thoughts", "next steps",
}

// AgentMessageLooksLikeConcludingThought is the concluding-thought heuristic.
func AgentMessageLooksLikeConcludingThought(message string) bool {
	lower := strings.ToLower(strings.TrimSpace(message))
	if lower == "" {
		return false
	}
	for _, needle := range concludingThoughtNeedles {
		if strings.Contains(lower, needle) {
			return true
		}
	}
	return false
}
