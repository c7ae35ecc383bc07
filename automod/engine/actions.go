package engine

import (
	"github.com/amaranth-bot/amaranth/automod/policy"
)

// ResolveActions computes the final action list for a violation. Pure
// selection: filter-specific actions are used verbatim when present (never
// merged with defaults), otherwise the guild defaults apply; send_message
// actions marked requires_armed are dropped while disarmed. Ordering is
// preserved; callers are expected to execute delete before message-posting
// actions.
func ResolveActions(matched, defaults []policy.Action, armed bool) []policy.Action {
	source := matched
	if source == nil {
		source = defaults
	}
	out := make([]policy.Action, 0, len(source))
	for _, a := range source {
		if a.Kind == policy.ActionSendMessage && a.RequiresArmed && !armed {
			continue
		}
		actionResolvedCount.WithLabelValues(string(a.Kind)).Inc()
		out = append(out, a)
	}
	return out
}
