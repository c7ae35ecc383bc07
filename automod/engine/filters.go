package engine

import (
	"github.com/amaranth-bot/amaranth/automod/policy"
)

// FilterResult is the outcome of evaluating one filter: clean, or violated
// at a specific rule with a human-readable reason.
type FilterResult struct {
	Violated  bool
	RuleIndex int
	Reason    string
}

// evaluateMessageFilter runs the filter's rules in declaration order and
// stops at the first match. Scoping has already been resolved by the caller.
func (eng *Engine) evaluateMessageFilter(f *policy.MessageFilter, sample *policy.Sample) FilterResult {
	for i := range f.Rules {
		if reason, hit := eng.safeMatchMessage(&f.Rules[i], sample); hit {
			return FilterResult{Violated: true, RuleIndex: i, Reason: reason}
		}
	}
	return FilterResult{}
}

func (eng *Engine) evaluateReactionFilter(f *policy.ReactionFilter, emojiID, emojiName string) FilterResult {
	for i := range f.Rules {
		if reason, hit := eng.safeMatchReaction(&f.Rules[i], emojiID, emojiName); hit {
			return FilterResult{Violated: true, RuleIndex: i, Reason: reason}
		}
	}
	return FilterResult{}
}

// The safeMatch wrappers degrade a panicking rule to "no match": all rules
// are pre-compiled and pre-validated, so a crash here is unexpected input
// (eg malformed unicode), and skipping one rule is safer than aborting the
// whole evaluation.

func (eng *Engine) safeMatchMessage(r *policy.MessageRule, sample *policy.Sample) (reason string, hit bool) {
	defer func() {
		if rec := recover(); rec != nil {
			eng.Logger.Warn("rule evaluation exception", "ruleType", r.Type, "err", rec)
			reason, hit = "", false
		}
	}()
	return r.Match(sample)
}

func (eng *Engine) safeMatchReaction(r *policy.ReactionRule, emojiID, emojiName string) (reason string, hit bool) {
	defer func() {
		if rec := recover(); rec != nil {
			eng.Logger.Warn("rule evaluation exception", "ruleType", r.Type, "err", rec)
			reason, hit = "", false
		}
	}()
	return r.Match(emojiID, emojiName)
}

func (eng *Engine) safeMatchUsername(r *policy.UsernameRule, name string) (reason string, hit bool) {
	defer func() {
		if rec := recover(); rec != nil {
			eng.Logger.Warn("rule evaluation exception", "ruleType", r.Type, "err", rec)
			reason, hit = "", false
		}
	}()
	return r.Match(name)
}
