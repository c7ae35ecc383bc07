package engine

import (
	"github.com/amaranth-bot/amaranth/automod/policy"
)

// Sticker is one sticker attached to a message.
type Sticker struct {
	ID   string
	Name string
}

// MessageEvent is a message-create record from the platform ingestion layer.
type MessageEvent struct {
	GuildID     string
	ChannelID   string
	MessageID   string
	AuthorID    string
	AuthorRoles []string
	Bot         bool

	Text string
	// declared MIME type per attachment; empty string when undeclared
	AttachmentTypes []string
	Stickers        []Sticker
	// custom emoji names referenced in the message content
	EmojiNames []string
}

// Sample projects the event into the view rules match against.
func (evt *MessageEvent) Sample() *policy.Sample {
	stickerIDs := make([]string, len(evt.Stickers))
	stickerNames := make([]string, len(evt.Stickers))
	for i, st := range evt.Stickers {
		stickerIDs[i] = st.ID
		stickerNames[i] = st.Name
	}
	return &policy.Sample{
		Text:            evt.Text,
		AttachmentTypes: evt.AttachmentTypes,
		StickerIDs:      stickerIDs,
		StickerNames:    stickerNames,
		EmojiNames:      evt.EmojiNames,
	}
}

// ReactionEvent is a reaction-add record. EmojiID is empty for built-in
// emoji, in which case EmojiName holds the emoji itself.
type ReactionEvent struct {
	GuildID     string
	ChannelID   string
	MessageID   string
	AuthorID    string
	AuthorRoles []string
	Bot         bool

	EmojiID   string
	EmojiName string
}

// UsernameEvent is a username or display-name change record.
type UsernameEvent struct {
	GuildID     string
	UserID      string
	AuthorRoles []string
	Bot         bool

	OldName string
	NewName string
}
