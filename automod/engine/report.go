package engine

import (
	"github.com/amaranth-bot/amaranth/automod/policy"
)

// FilterTestResult is the diagnostic outcome for one message filter.
type FilterTestResult struct {
	Name      string `json:"name"`
	Violated  bool   `json:"violated"`
	RuleIndex int    `json:"rule_index,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// TestReport is the diagnostic-mode result: one entry per message filter,
// evaluated regardless of earlier violations so operators see exactly which
// filters a message trips and why.
type TestReport struct {
	GuildID    string             `json:"guild_id"`
	Configured bool               `json:"configured"`
	Passed     bool               `json:"passed"`
	Results    []FilterTestResult `json:"results"`
}

// TestMessage evaluates input against every message filter of a guild in
// diagnostic mode. There is no real message, so scoping is ignored and only
// rules which operate on bare text participate; rules needing attachments,
// stickers or emoji metadata report clean.
func (eng *Engine) TestMessage(guildID, input string) *TestReport {
	report := &TestReport{GuildID: guildID, Passed: true}

	pol, ok := eng.Policies.Get(guildID)
	if !ok {
		return report
	}
	report.Configured = true

	sample := policy.TextSample(input)
	for i := range pol.Messages {
		f := &pol.Messages[i]
		result := FilterTestResult{Name: f.Name}
		for j := range f.Rules {
			if !f.Rules[j].TextOnly() {
				continue
			}
			if reason, hit := eng.safeMatchMessage(&f.Rules[j], sample); hit {
				result.Violated = true
				result.RuleIndex = j
				result.Reason = reason
				report.Passed = false
				break
			}
		}
		report.Results = append(report.Results, result)
	}
	return report
}
