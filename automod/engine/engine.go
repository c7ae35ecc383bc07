package engine

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/amaranth-bot/amaranth/automod/policy"
	"github.com/amaranth-bot/amaranth/automod/spamwindow"
)

// Engine evaluates inbound content events against per-guild moderation
// policies and selects the automated actions to run. It never talks to the
// chat platform itself; executing the returned actions is the caller's job.
//
// One engine is constructed at startup and shared across all event handlers.
type Engine struct {
	Logger   *slog.Logger
	Policies *policy.Store
	Spam     spamwindow.Store

	// process-wide switch gating send_message actions marked requires_armed
	armed atomic.Bool
}

// Violation describes one rule or spam-threshold match, with enough detail
// to select actions and to explain the decision.
type Violation struct {
	Type string `json:"type"` // message, reaction, username, spam
	// name of the violated filter, or the spam signal kind
	Filter    string `json:"filter"`
	RuleIndex int    `json:"rule_index"`
	Reason    string `json:"reason"`
}

// Outcome is the result of evaluating one event: the resolved, ordered
// action list plus the violation that produced it (nil when clean).
type Outcome struct {
	Actions   []policy.Action
	Violation *Violation
}

var cleanOutcome = &Outcome{}

func (eng *Engine) Arm() { eng.armed.Store(true) }

func (eng *Engine) Disarm() { eng.armed.Store(false) }

func (eng *Engine) SetArmed(v bool) { eng.armed.Store(v) }

func (eng *Engine) Armed() bool { return eng.armed.Load() }

// ProcessMessage evaluates a message-create event: every message filter in
// declaration order (first violated filter wins), then the spam detector.
// The spam windows are fed regardless of filter outcomes.
func (eng *Engine) ProcessMessage(ctx context.Context, evt *MessageEvent) (out *Outcome) {
	// recover any panics from rule evaluation; a skipped event is safer than
	// halting moderation for the whole guild
	defer func() {
		if r := recover(); r != nil {
			eng.Logger.Error("moderation event execution exception", "err", r, "guild", evt.GuildID, "author", evt.AuthorID)
			eventErrorCount.WithLabelValues("message").Inc()
			out = cleanOutcome
		}
	}()
	start := time.Now()
	defer func() {
		eventProcessDuration.WithLabelValues("message").Observe(time.Since(start).Seconds())
	}()
	eventProcessCount.WithLabelValues("message").Inc()

	pol, ok := eng.Policies.Get(evt.GuildID)
	if !ok {
		return cleanOutcome
	}
	if evt.Bot && !pol.IncludeBots {
		return cleanOutcome
	}

	// every message event feeds the spam windows, whatever the filters say
	counts := eng.recordSpamSignals(ctx, pol, evt)

	sample := evt.Sample()
	for i := range pol.Messages {
		f := &pol.Messages[i]
		if !pol.EffectiveScoping(f.Scoping).Applies(evt.ChannelID, evt.AuthorRoles) {
			continue
		}
		res := eng.evaluateMessageFilter(f, sample)
		if !res.Violated {
			continue
		}
		v := &Violation{Type: "message", Filter: f.Name, RuleIndex: res.RuleIndex, Reason: res.Reason}
		eng.logViolation(evt.GuildID, v)
		return &Outcome{
			Actions:   ResolveActions(f.Actions, pol.DefaultActions, eng.Armed()),
			Violation: v,
		}
	}

	if v := eng.checkSpamThresholds(pol, counts); v != nil {
		eng.logViolation(evt.GuildID, v)
		return &Outcome{
			Actions:   ResolveActions(pol.Spam.Actions, pol.DefaultActions, eng.Armed()),
			Violation: v,
		}
	}

	return cleanOutcome
}

// ProcessReaction evaluates a reaction-add event against the guild's
// reaction filters.
func (eng *Engine) ProcessReaction(ctx context.Context, evt *ReactionEvent) (out *Outcome) {
	defer func() {
		if r := recover(); r != nil {
			eng.Logger.Error("moderation event execution exception", "err", r, "guild", evt.GuildID, "author", evt.AuthorID)
			eventErrorCount.WithLabelValues("reaction").Inc()
			out = cleanOutcome
		}
	}()
	start := time.Now()
	defer func() {
		eventProcessDuration.WithLabelValues("reaction").Observe(time.Since(start).Seconds())
	}()
	eventProcessCount.WithLabelValues("reaction").Inc()

	pol, ok := eng.Policies.Get(evt.GuildID)
	if !ok {
		return cleanOutcome
	}
	if evt.Bot && !pol.IncludeBots {
		return cleanOutcome
	}

	for i := range pol.Reactions {
		f := &pol.Reactions[i]
		if !pol.EffectiveScoping(f.Scoping).Applies(evt.ChannelID, evt.AuthorRoles) {
			continue
		}
		res := eng.evaluateReactionFilter(f, evt.EmojiID, evt.EmojiName)
		if !res.Violated {
			continue
		}
		v := &Violation{Type: "reaction", Filter: f.Name, RuleIndex: res.RuleIndex, Reason: res.Reason}
		eng.logViolation(evt.GuildID, v)
		return &Outcome{
			Actions:   ResolveActions(f.Actions, pol.DefaultActions, eng.Armed()),
			Violation: v,
		}
	}
	return cleanOutcome
}

// ProcessUsernameChange evaluates a username/display-name change. Username
// filters carry mandatory actions; there is no default-action fallback.
func (eng *Engine) ProcessUsernameChange(ctx context.Context, evt *UsernameEvent) (out *Outcome) {
	defer func() {
		if r := recover(); r != nil {
			eng.Logger.Error("moderation event execution exception", "err", r, "guild", evt.GuildID, "user", evt.UserID)
			eventErrorCount.WithLabelValues("username").Inc()
			out = cleanOutcome
		}
	}()
	start := time.Now()
	defer func() {
		eventProcessDuration.WithLabelValues("username").Observe(time.Since(start).Seconds())
	}()
	eventProcessCount.WithLabelValues("username").Inc()

	pol, ok := eng.Policies.Get(evt.GuildID)
	if !ok || pol.Usernames == nil {
		return cleanOutcome
	}
	if evt.Bot && !pol.IncludeBots {
		return cleanOutcome
	}

	for i := range pol.Usernames.Rules {
		reason, hit := eng.safeMatchUsername(&pol.Usernames.Rules[i], evt.NewName)
		if !hit {
			continue
		}
		v := &Violation{Type: "username", Filter: "usernames", RuleIndex: i, Reason: reason}
		eng.logViolation(evt.GuildID, v)
		return &Outcome{
			Actions:   ResolveActions(pol.Usernames.Actions, nil, eng.Armed()),
			Violation: v,
		}
	}
	return cleanOutcome
}

// RemoveGuild drops a guild's policy and discards its spam window state.
func (eng *Engine) RemoveGuild(ctx context.Context, guildID string) {
	eng.Policies.Remove(guildID)
	if err := eng.Spam.RemoveGuild(ctx, guildID); err != nil {
		eng.Logger.Warn("discarding spam windows failed", "guild", guildID, "err", err)
	}
}

func (eng *Engine) logViolation(guildID string, v *Violation) {
	violationCount.WithLabelValues(v.Type).Inc()
	eng.Logger.Info("content violation",
		"guild", guildID,
		"type", v.Type,
		"filter", v.Filter,
		"rule", v.RuleIndex,
		"reason", v.Reason,
	)
}
