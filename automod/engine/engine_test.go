package engine

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amaranth-bot/amaranth/automod/policy"
	"github.com/amaranth-bot/amaranth/automod/spamwindow"
)

// engineWithPolicy builds an armed engine serving one guild with the given
// policy document.
func engineWithPolicy(t *testing.T, guildID string, raw string) *Engine {
	t.Helper()
	pol, err := policy.Parse([]byte(raw))
	require.NoError(t, err)

	store := policy.NewStore()
	store.Set(guildID, pol)
	eng := &Engine{
		Logger:   slog.Default(),
		Policies: store,
		Spam:     spamwindow.NewMemStore(),
	}
	eng.Arm()
	return eng
}

func TestProcessMessageWordFilter(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng := EngineTestFixture()

	out := eng.ProcessMessage(ctx, &MessageEvent{
		GuildID:   "guild-1",
		ChannelID: "c1",
		MessageID: "m1",
		AuthorID:  "u1",
		Text:      "this is spam",
	})
	require.NotNil(t, out.Violation)
	assert.Equal("message", out.Violation.Type)
	assert.Equal("bad-words", out.Violation.Filter)
	assert.Equal(0, out.Violation.RuleIndex)
	assert.Equal("spam", out.Violation.Reason)
	assert.Equal([]policy.Action{{Kind: policy.ActionDelete}}, out.Actions)

	out = eng.ProcessMessage(ctx, &MessageEvent{
		GuildID:   "guild-1",
		ChannelID: "c1",
		MessageID: "m2",
		AuthorID:  "u1",
		Text:      "this is fine",
	})
	assert.Nil(out.Violation)
	assert.Empty(out.Actions)
}

func TestProcessMessageUnknownGuild(t *testing.T) {
	assert := assert.New(t)
	eng := EngineTestFixture()

	out := eng.ProcessMessage(context.Background(), &MessageEvent{
		GuildID: "nobody-home",
		Text:    "this is spam",
	})
	assert.Nil(out.Violation)
	assert.Empty(out.Actions)
}

func TestProcessMessageBotAuthors(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng := EngineTestFixture()
	out := eng.ProcessMessage(ctx, &MessageEvent{
		GuildID: "guild-1",
		Text:    "this is spam",
		Bot:     true,
	})
	assert.Nil(out.Violation)

	optIn := engineWithPolicy(t, "g1", `{
		"include_bots": true,
		"default_actions": [{"action": "delete"}],
		"messages": [{"name": "w", "rules": [{"type": "words", "words": ["spam"]}]}]
	}`)
	out = optIn.ProcessMessage(ctx, &MessageEvent{GuildID: "g1", Text: "this is spam", Bot: true})
	assert.NotNil(out.Violation)
}

func TestProcessMessageScoping(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng := engineWithPolicy(t, "g1", `{
		"default_actions": [{"action": "delete"}],
		"messages": [{
			"name": "w",
			"scoping": {"exclude_channels": ["safe"], "exclude_roles": ["mod"]},
			"rules": [{"type": "words", "words": ["spam"]}]
		}]
	}`)

	out := eng.ProcessMessage(ctx, &MessageEvent{GuildID: "g1", ChannelID: "general", Text: "this is spam"})
	assert.NotNil(out.Violation)

	out = eng.ProcessMessage(ctx, &MessageEvent{GuildID: "g1", ChannelID: "safe", Text: "this is spam"})
	assert.Nil(out.Violation)

	out = eng.ProcessMessage(ctx, &MessageEvent{
		GuildID: "g1", ChannelID: "general", AuthorRoles: []string{"mod"}, Text: "this is spam",
	})
	assert.Nil(out.Violation)
}

func TestProcessMessageFirstFilterWins(t *testing.T) {
	assert := assert.New(t)

	eng := engineWithPolicy(t, "g1", `{
		"default_actions": [{"action": "delete"}],
		"messages": [
			{"name": "first", "rules": [{"type": "words", "words": ["spam"]}],
			 "actions": [{"action": "send_log", "channel_id": "logs"}]},
			{"name": "second", "rules": [{"type": "substring", "substrings": ["spam"]}]}
		]
	}`)

	out := eng.ProcessMessage(context.Background(), &MessageEvent{GuildID: "g1", Text: "pure spam"})
	require.NotNil(t, out.Violation)
	assert.Equal("first", out.Violation.Filter)
	assert.Equal([]policy.Action{{Kind: policy.ActionSendLog, ChannelID: "logs"}}, out.Actions)
}

func TestProcessMessageArmedGating(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng := engineWithPolicy(t, "g1", `{
		"messages": [{
			"name": "w",
			"rules": [{"type": "words", "words": ["spam"]}],
			"actions": [
				{"action": "delete"},
				{"action": "send_message", "channel_id": "c1", "content": "warned", "requires_armed": true}
			]
		}]
	}`)

	evt := &MessageEvent{GuildID: "g1", Text: "this is spam"}

	out := eng.ProcessMessage(ctx, evt)
	require.NotNil(t, out.Violation)
	assert.Len(out.Actions, 2)

	eng.Disarm()
	out = eng.ProcessMessage(ctx, evt)
	require.NotNil(t, out.Violation)
	assert.Equal([]policy.Action{{Kind: policy.ActionDelete}}, out.Actions)
}

func TestProcessMessageLinkSpam(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng := engineWithPolicy(t, "g1", `{
		"default_actions": [{"action": "delete"}],
		"spam": {"links": 3, "interval": 60}
	}`)

	for i := 0; i < 2; i++ {
		out := eng.ProcessMessage(ctx, &MessageEvent{
			GuildID: "g1", ChannelID: "c1", AuthorID: "u1",
			Text: "look https://example.com/offer",
		})
		assert.Nil(out.Violation, "message %d should not trip", i)
	}

	out := eng.ProcessMessage(ctx, &MessageEvent{
		GuildID: "g1", ChannelID: "c1", AuthorID: "u1",
		Text: "look https://example.com/offer",
	})
	require.NotNil(t, out.Violation)
	assert.Equal("spam", out.Violation.Type)
	assert.Equal("link", out.Violation.Filter)
	assert.Equal(-1, out.Violation.RuleIndex)
	assert.Equal([]policy.Action{{Kind: policy.ActionDelete}}, out.Actions)

	// windows are never cleared on a violation: the next message trips again
	out = eng.ProcessMessage(ctx, &MessageEvent{
		GuildID: "g1", ChannelID: "c1", AuthorID: "u1",
		Text: "look https://example.com/offer",
	})
	assert.NotNil(out.Violation)

	// a different author has an independent window
	out = eng.ProcessMessage(ctx, &MessageEvent{
		GuildID: "g1", ChannelID: "c1", AuthorID: "u2",
		Text: "look https://example.com/offer",
	})
	assert.Nil(out.Violation)
}

// Thresholds are evaluated against the whole window on every in-scope
// message, so while a window stays saturated even a follow-up that adds no
// new signals of that kind is flagged. This is deliberate: the author is
// mid-spam-burst and the dispatcher rate-limits the resulting actions.
func TestSpamFlagsFollowUpWhileWindowSaturated(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng := engineWithPolicy(t, "g1", `{
		"default_actions": [{"action": "delete"}],
		"spam": {"links": 3, "interval": 60}
	}`)

	msg := func(text string) *Outcome {
		return eng.ProcessMessage(ctx, &MessageEvent{
			GuildID: "g1", ChannelID: "c1", AuthorID: "u1", Text: text,
		})
	}

	assert.Nil(msg("https://example.com/a").Violation)
	assert.Nil(msg("https://example.com/b").Violation)
	out := msg("https://example.com/c")
	require.NotNil(t, out.Violation)
	assert.Equal("link", out.Violation.Filter)

	// link-free follow-up within the interval
	out = msg("sorry about that, no links this time")
	require.NotNil(t, out.Violation)
	assert.Equal("spam", out.Violation.Type)
	assert.Equal("link", out.Violation.Filter)
}

func TestProcessMessageDuplicateSpam(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng := engineWithPolicy(t, "g1", `{
		"default_actions": [{"action": "delete"}],
		"spam": {"duplicates": 2, "interval": 60}
	}`)

	msg := func(text string) *Outcome {
		return eng.ProcessMessage(ctx, &MessageEvent{
			GuildID: "g1", ChannelID: "c1", AuthorID: "u1", Text: text,
		})
	}

	assert.Nil(msg("buy now").Violation)
	// first repeat counts one duplicate event
	assert.Nil(msg("buy now").Violation)
	// second repeat reaches the threshold
	out := msg("buy now")
	require.NotNil(t, out.Violation)
	assert.Equal("duplicate", out.Violation.Filter)

	// only the immediately preceding message is compared
	eng2 := engineWithPolicy(t, "g1", `{
		"default_actions": [{"action": "delete"}],
		"spam": {"duplicates": 1, "interval": 60}
	}`)
	msg2 := func(text string) *Outcome {
		return eng2.ProcessMessage(ctx, &MessageEvent{
			GuildID: "g1", ChannelID: "c1", AuthorID: "u1", Text: text,
		})
	}
	assert.Nil(msg2("aaa").Violation)
	assert.Nil(msg2("bbb").Violation)
	assert.NotNil(msg2("bbb").Violation)
}

func TestProcessMessageSpamScoping(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng := engineWithPolicy(t, "g1", `{
		"default_actions": [{"action": "delete"}],
		"spam": {"links": 1, "interval": 60, "scoping": {"exclude_channels": ["bots"]}}
	}`)

	out := eng.ProcessMessage(ctx, &MessageEvent{
		GuildID: "g1", ChannelID: "bots", AuthorID: "u1",
		Text: "https://example.com/a https://example.com/b",
	})
	assert.Nil(out.Violation)

	out = eng.ProcessMessage(ctx, &MessageEvent{
		GuildID: "g1", ChannelID: "general", AuthorID: "u1",
		Text: "https://example.com/a",
	})
	assert.NotNil(out.Violation)
}

func TestProcessReaction(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng := engineWithPolicy(t, "g1", `{
		"default_actions": [{"action": "delete"}],
		"reactions": [{
			"name": "no-eggplant",
			"rules": [{"type": "default", "mode": "deny", "emoji": ["🍆"]}]
		}]
	}`)

	out := eng.ProcessReaction(ctx, &ReactionEvent{
		GuildID: "g1", ChannelID: "c1", MessageID: "m1", AuthorID: "u1",
		EmojiName: "🍆",
	})
	require.NotNil(t, out.Violation)
	assert.Equal("reaction", out.Violation.Type)
	assert.Equal("no-eggplant", out.Violation.Filter)

	out = eng.ProcessReaction(ctx, &ReactionEvent{
		GuildID: "g1", ChannelID: "c1", MessageID: "m1", AuthorID: "u1",
		EmojiName: "👍",
	})
	assert.Nil(out.Violation)
}

func TestProcessUsernameChange(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng := engineWithPolicy(t, "g1", `{
		"usernames": {
			"rules": [{"type": "substring", "substrings": ["admin"]}],
			"actions": [{"action": "send_log", "channel_id": "logs"}]
		}
	}`)

	out := eng.ProcessUsernameChange(ctx, &UsernameEvent{
		GuildID: "g1", UserID: "u1", OldName: "harmless", NewName: "fake-Admin",
	})
	require.NotNil(t, out.Violation)
	assert.Equal("username", out.Violation.Type)
	assert.Equal([]policy.Action{{Kind: policy.ActionSendLog, ChannelID: "logs"}}, out.Actions)

	out = eng.ProcessUsernameChange(ctx, &UsernameEvent{
		GuildID: "g1", UserID: "u1", OldName: "fake-Admin", NewName: "harmless",
	})
	assert.Nil(out.Violation)
}

func TestRemoveGuild(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng := EngineTestFixture()

	eng.RemoveGuild(ctx, "guild-1")
	out := eng.ProcessMessage(ctx, &MessageEvent{GuildID: "guild-1", Text: "this is spam"})
	assert.Nil(out.Violation)
}

func TestTestMessage(t *testing.T) {
	assert := assert.New(t)

	eng := engineWithPolicy(t, "g1", `{
		"default_actions": [{"action": "delete"}],
		"messages": [
			{"name": "words", "scoping": {"include_channels": ["c1"]},
			 "rules": [{"type": "words", "words": ["spam"]}]},
			{"name": "links", "rules": [{"type": "link", "mode": "deny", "domains": ["example.com"]}]},
			{"name": "attachments", "rules": [{"type": "mime_type", "mode": "allow", "types": ["image/png"]}]}
		]
	}`)

	report := eng.TestMessage("g1", "spam with https://example.com/x attached")
	assert.True(report.Configured)
	assert.False(report.Passed)
	require.Len(t, report.Results, 3)

	// scoping is ignored in diagnostic mode, so the words filter still trips
	assert.Equal("words", report.Results[0].Name)
	assert.True(report.Results[0].Violated)
	assert.Equal("spam", report.Results[0].Reason)

	// every filter is evaluated, not just the first violated one
	assert.True(report.Results[1].Violated)
	assert.Equal("example.com", report.Results[1].Reason)

	// rules needing attachment metadata report clean on a text-only sample
	assert.False(report.Results[2].Violated)

	clean := eng.TestMessage("g1", "nothing of note")
	assert.True(clean.Passed)

	unknown := eng.TestMessage("g9", "anything")
	assert.False(unknown.Configured)
	assert.True(unknown.Passed)
	assert.Empty(unknown.Results)
}
