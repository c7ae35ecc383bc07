package discord

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/amaranth-bot/amaranth/automod/engine"
	"github.com/amaranth-bot/amaranth/automod/text"
)

// Consumer subscribes to gateway events and feeds them through the moderation
// engine, handing any resolved actions to the dispatcher. It owns no state of
// its own; all per-guild state lives in the engine's stores.
type Consumer struct {
	Logger     *slog.Logger
	Engine     *engine.Engine
	Dispatcher *Dispatcher
}

// Subscribe registers the gateway handlers on an open session.
func (c *Consumer) Subscribe(s *discordgo.Session) {
	s.AddHandler(c.HandleMessageCreate)
	s.AddHandler(c.HandleReactionAdd)
	s.AddHandler(c.HandleMemberUpdate)
	s.AddHandler(c.HandleGuildDelete)
}

// selfAuthored reports whether an event was authored by this bot itself.
// The bot always ignores its own activity, independent of include_bots;
// otherwise its own warning messages could match a filter and feed back.
func selfAuthored(s *discordgo.Session, userID string) bool {
	return s != nil && s.State != nil && s.State.User != nil && s.State.User.ID == userID
}

// HandleMessageCreate translates a message-create gateway event and runs it
// through the engine.
func (c *Consumer) HandleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.GuildID == "" || m.Author == nil || selfAuthored(s, m.Author.ID) {
		return
	}
	ctx := context.Background()

	evt := &engine.MessageEvent{
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		MessageID: m.ID,
		AuthorID:  m.Author.ID,
		Bot:       m.Author.Bot,
		Text:      m.Content,
	}
	if m.Member != nil {
		evt.AuthorRoles = m.Member.Roles
	}
	for _, a := range m.Attachments {
		evt.AttachmentTypes = append(evt.AttachmentTypes, a.ContentType)
	}
	for _, st := range m.StickerItems {
		evt.Stickers = append(evt.Stickers, engine.Sticker{ID: st.ID, Name: st.Name})
	}
	for _, em := range text.ExtractCustomEmoji(m.Content) {
		evt.EmojiNames = append(evt.EmojiNames, em.Name)
	}

	out := c.Engine.ProcessMessage(ctx, evt)
	if out.Violation == nil {
		return
	}
	c.Dispatcher.Run(ctx, &ActionRequest{
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		MessageID: m.ID,
		AuthorID:  m.Author.ID,
		Outcome:   out,
	})
}

// HandleReactionAdd translates a reaction-add gateway event.
func (c *Consumer) HandleReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if r.GuildID == "" || selfAuthored(s, r.UserID) {
		return
	}
	ctx := context.Background()

	evt := &engine.ReactionEvent{
		GuildID:   r.GuildID,
		ChannelID: r.ChannelID,
		MessageID: r.MessageID,
		AuthorID:  r.UserID,
		EmojiID:   r.Emoji.ID,
		EmojiName: r.Emoji.Name,
	}
	if r.Member != nil {
		evt.AuthorRoles = r.Member.Roles
		if r.Member.User != nil {
			evt.Bot = r.Member.User.Bot
		}
	}

	out := c.Engine.ProcessReaction(ctx, evt)
	if out.Violation == nil {
		return
	}
	c.Dispatcher.Run(ctx, &ActionRequest{
		GuildID:   r.GuildID,
		ChannelID: r.ChannelID,
		MessageID: r.MessageID,
		AuthorID:  r.UserID,
		EmojiID:   r.Emoji.ID,
		EmojiName: r.Emoji.Name,
		Outcome:   out,
	})
}

// HandleMemberUpdate translates nick/username changes. Discord does not carry
// the previous name on every update, so OldName may be empty.
func (c *Consumer) HandleMemberUpdate(s *discordgo.Session, m *discordgo.GuildMemberUpdate) {
	if m.Member == nil || m.User == nil || selfAuthored(s, m.User.ID) {
		return
	}
	ctx := context.Background()

	evt := &engine.UsernameEvent{
		GuildID:     m.GuildID,
		UserID:      m.User.ID,
		AuthorRoles: m.Roles,
		Bot:         m.User.Bot,
		NewName:     displayName(m.Member),
	}
	if m.BeforeUpdate != nil {
		evt.OldName = displayName(m.BeforeUpdate)
	}
	if evt.OldName == evt.NewName {
		return
	}

	out := c.Engine.ProcessUsernameChange(ctx, evt)
	if out.Violation == nil {
		return
	}
	c.Dispatcher.Run(ctx, &ActionRequest{
		GuildID:  m.GuildID,
		AuthorID: m.User.ID,
		Username: evt.NewName,
		Outcome:  out,
	})
}

// HandleGuildDelete drops all moderation state for a guild the bot left.
func (c *Consumer) HandleGuildDelete(s *discordgo.Session, g *discordgo.GuildDelete) {
	if g.Unavailable {
		// outage, not a removal
		return
	}
	c.Logger.Info("left guild, discarding state", "guild", g.ID)
	c.Engine.RemoveGuild(context.Background(), g.ID)
}

func displayName(m *discordgo.Member) string {
	if m.Nick != "" {
		return m.Nick
	}
	if m.User != nil {
		return m.User.Username
	}
	return ""
}
