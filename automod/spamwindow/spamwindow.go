// Package spamwindow maintains per-(guild, author) sliding time windows of
// qualifying message signals (links, attachments, emoji, ...) for spam
// threshold checks. Entries older than the configured interval are evicted
// lazily on access; windows are never persisted.
package spamwindow

import (
	"context"
	"fmt"
	"time"
)

// Kind is one spam signal kind tracked per message.
type Kind string

const (
	KindEmoji      Kind = "emoji"
	KindDuplicate  Kind = "duplicate"
	KindLink       Kind = "link"
	KindAttachment Kind = "attachment"
	KindSpoiler    Kind = "spoiler"
	KindMention    Kind = "mention"
)

// AllKinds, in the order thresholds are checked. Fixed order keeps which
// signal trips first deterministic when several cross at once.
var AllKinds = []Kind{KindEmoji, KindDuplicate, KindLink, KindAttachment, KindSpoiler, KindMention}

type Store interface {
	// RecordAndCount appends n entries of the given kind at time now to the
	// (guild, author) window, evicts entries older than interval, and returns
	// the post-eviction count for that kind. The window is never cleared on a
	// violation; repeated rapid violations are expected to repeat-trigger.
	RecordAndCount(ctx context.Context, guildID, authorID string, kind Kind, n int, interval time.Duration, now time.Time) (int, error)

	// SwapLastMessage records content as the author's most recent message and
	// returns the previous one, or empty string when none was recorded within
	// ttl. Duplicate detection compares against this single value only, which
	// keeps the check O(1) per event.
	SwapLastMessage(ctx context.Context, guildID, authorID, content string, ttl time.Duration, now time.Time) (string, error)

	// RemoveGuild discards all window state for a guild.
	RemoveGuild(ctx context.Context, guildID string) error
}

func windowKey(guildID, authorID string) string {
	return fmt.Sprintf("%s/%s", guildID, authorID)
}
