package prompts

// Default prompt bodies, seeded to disk the first time a thread asks for
// them. Operators are free to edit the files in place; these constants are
// only the fallback when a file is missing or unreadable.

const defaultAutoCompactPrompt = `You are compacting a long-running agent conversation.

Summarize the transcript below into a compact continuation packet that
preserves open plan items, unresolved questions, and anything in flight
(commits made, PRs opened, tools called). Drop resolved small talk and
intermediate tool output that has already served its purpose.

Thread: {threadId}
Turn: {turnId}
Tier: {tier}
Percent remaining: {percentRemaining}
`

const defaultScratchWritePrompt = `Write a short scratch note capturing the current plan and any
outstanding TODOs for thread {threadId}, turn {turnId}, so the next turn
can pick up without re-deriving context.
`

const defaultJudgmentPrompt = `Decide whether this conversation should be compacted now.

Tier: {tier}
Percent remaining: {percentRemaining}
Boundaries observed this turn: {boundariesJson}
Last agent message: {lastAgentMessage}

Respond with a JSON object: {"should_compact": bool, "reason": string}.
`

const defaultJudgmentContextPrompt = `Thread: {threadId}
Turn: {turnId}
Total usage tokens: {totalUsageTokens}
Model context window: {modelContextWindow}

Recent transcript:
{transcriptExcerpt}
`
