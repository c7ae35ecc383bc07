package discord

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"

	"github.com/amaranth-bot/amaranth/automod/engine"
	"github.com/amaranth-bot/amaranth/automod/policy"
)

func TestEmojiAPIName(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("🍆", emojiAPIName("", "🍆"))
	assert.Equal("pog:123", emojiAPIName("123", "pog"))
}

func TestDedupeKey(t *testing.T) {
	assert := assert.New(t)

	req := &ActionRequest{GuildID: "g1", MessageID: "m1", AuthorID: "u1"}
	del := &policy.Action{Kind: policy.ActionDelete}
	logAct := &policy.Action{Kind: policy.ActionSendLog, ChannelID: "c9"}

	assert.Equal(dedupeKey(req, del), dedupeKey(req, del))
	assert.NotEqual(dedupeKey(req, del), dedupeKey(req, logAct))

	other := &ActionRequest{GuildID: "g1", MessageID: "m2", AuthorID: "u1"}
	assert.NotEqual(dedupeKey(req, del), dedupeKey(other, del))

	// username violations have no message ID; consecutive renames by the same
	// member must still dispatch separately
	renameA := &ActionRequest{GuildID: "g1", AuthorID: "u1", Username: "admin-alice"}
	renameB := &ActionRequest{GuildID: "g1", AuthorID: "u1", Username: "admin-bob"}
	assert.NotEqual(dedupeKey(renameA, del), dedupeKey(renameB, del))
}

func TestWarnCapIsPerGuild(t *testing.T) {
	assert := assert.New(t)

	d := NewDispatcher(nil, nil, policy.NewStore())

	// drain one guild's cap; another guild stays unaffected
	for i := 0; i < warnsPerMinute; i++ {
		assert.True(d.warnCap("g1").Allow(), "allowance %d", i)
	}
	assert.False(d.warnCap("g1").Allow())
	assert.True(d.warnCap("g2").Allow())
}

func TestDisplayName(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("Nick", displayName(&discordgo.Member{Nick: "Nick", User: &discordgo.User{Username: "user"}}))
	assert.Equal("user", displayName(&discordgo.Member{User: &discordgo.User{Username: "user"}}))
	assert.Equal("", displayName(&discordgo.Member{}))
}

func TestFormatTestReport(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("No policy is loaded for this guild.", formatTestReport(&engine.TestReport{}))
	assert.Equal("No message filters are configured.", formatTestReport(&engine.TestReport{Configured: true, Passed: true}))

	out := formatTestReport(&engine.TestReport{
		Configured: true,
		Passed:     false,
		Results: []engine.FilterTestResult{
			{Name: "clean-filter"},
			{Name: "tripped", Violated: true, RuleIndex: 1, Reason: "spam"},
		},
	})
	assert.Contains(out, "violates the policy")
	assert.Contains(out, "✅ clean-filter")
	assert.Contains(out, "❌ tripped: rule 1, spam")
}
