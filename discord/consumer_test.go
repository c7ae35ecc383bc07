package discord

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amaranth-bot/amaranth/automod/engine"
	"github.com/amaranth-bot/amaranth/automod/policy"
	"github.com/amaranth-bot/amaranth/automod/spamwindow"
)

// consumerFixture builds a consumer over one bot-inclusive guild policy and a
// session whose logged-in user is "bot-1". The dispatcher is left nil on
// purpose: any dispatched action in these tests would panic, which is exactly
// the regression being guarded against.
func consumerFixture(t *testing.T) (*Consumer, *discordgo.Session) {
	t.Helper()
	pol, err := policy.Parse([]byte(`{
		"include_bots": true,
		"default_actions": [{"action": "delete"}],
		"messages": [{"name": "w", "rules": [{"type": "words", "words": ["spam"]}]}],
		"reactions": [{"name": "r", "rules": [{"type": "default", "mode": "deny", "emoji": ["🍆"]}]}],
		"spam": {"duplicates": 5, "interval": 60}
	}`))
	require.NoError(t, err)

	store := policy.NewStore()
	store.Set("g1", pol)
	eng := &engine.Engine{
		Logger:   slog.Default(),
		Policies: store,
		Spam:     spamwindow.NewMemStore(),
	}
	eng.Arm()

	session := &discordgo.Session{State: discordgo.NewState()}
	session.State.User = &discordgo.User{ID: "bot-1", Bot: true}

	return &Consumer{Logger: slog.Default(), Engine: eng}, session
}

func TestConsumerIgnoresOwnMessages(t *testing.T) {
	assert := assert.New(t)
	c, session := consumerFixture(t)

	// a self-authored violating message must be dropped before the engine,
	// even though the guild opts in to bot-authored content
	assert.NotPanics(func() {
		c.HandleMessageCreate(session, &discordgo.MessageCreate{Message: &discordgo.Message{
			GuildID:   "g1",
			ChannelID: "c1",
			ID:        "m1",
			Author:    &discordgo.User{ID: "bot-1", Bot: true},
			Content:   "this is spam",
		}})
	})

	// nor does a self-authored message feed the spam windows
	prev, err := c.Engine.Spam.SwapLastMessage(context.Background(), "g1", "bot-1", "", time.Minute, time.Now())
	assert.NoError(err)
	assert.Equal("", prev)

	// other bots still go through when include_bots is set
	c.HandleMessageCreate(session, &discordgo.MessageCreate{Message: &discordgo.Message{
		GuildID:   "g1",
		ChannelID: "c1",
		ID:        "m2",
		Author:    &discordgo.User{ID: "bot-2", Bot: true},
		Content:   "harmless",
	}})
	prev, err = c.Engine.Spam.SwapLastMessage(context.Background(), "g1", "bot-2", "", time.Minute, time.Now())
	assert.NoError(err)
	assert.Equal("harmless", prev)
}

func TestConsumerIgnoresOwnReactions(t *testing.T) {
	assert := assert.New(t)
	c, session := consumerFixture(t)

	assert.NotPanics(func() {
		c.HandleReactionAdd(session, &discordgo.MessageReactionAdd{MessageReaction: &discordgo.MessageReaction{
			GuildID:   "g1",
			ChannelID: "c1",
			MessageID: "m1",
			UserID:    "bot-1",
			Emoji:     discordgo.Emoji{Name: "🍆"},
		}})
	})
}
