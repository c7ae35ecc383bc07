package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/amaranth-bot/amaranth/automod/policy"
	"github.com/amaranth-bot/amaranth/automod/spamwindow"
	"github.com/amaranth-bot/amaranth/automod/text"
)

// recordSpamSignals derives the qualifying signals from a message, appends
// them to the author's sliding windows, and returns the post-eviction count
// per configured signal kind. Signals without a configured threshold are not
// recorded. Returns nil when the guild has no spam filter or the message is
// out of the spam filter's scope.
func (eng *Engine) recordSpamSignals(ctx context.Context, pol *policy.GuildPolicy, evt *MessageEvent) map[spamwindow.Kind]int {
	spam := pol.Spam
	if spam == nil {
		return nil
	}
	if !pol.EffectiveScoping(spam.Scoping).Applies(evt.ChannelID, evt.AuthorRoles) {
		return nil
	}

	interval := time.Duration(spam.Interval) * time.Second
	now := time.Now()

	signals := map[spamwindow.Kind]int{}
	if spam.Emoji != nil {
		signals[spamwindow.KindEmoji] = len(evt.EmojiNames)
	}
	if spam.Links != nil {
		signals[spamwindow.KindLink] = len(text.ExtractURLs(evt.Text))
	}
	if spam.Attachments != nil {
		signals[spamwindow.KindAttachment] = len(evt.AttachmentTypes)
	}
	if spam.Spoilers != nil {
		signals[spamwindow.KindSpoiler] = text.CountSpoilers(evt.Text)
	}
	if spam.Mentions != nil {
		signals[spamwindow.KindMention] = text.CountMentions(evt.Text)
	}
	if spam.Duplicates != nil {
		prev, err := eng.Spam.SwapLastMessage(ctx, evt.GuildID, evt.AuthorID, evt.Text, interval, now)
		if err != nil {
			eng.Logger.Warn("spam window bookkeeping failed", "guild", evt.GuildID, "kind", spamwindow.KindDuplicate, "err", err)
		} else if evt.Text != "" && prev == evt.Text {
			signals[spamwindow.KindDuplicate] = 1
		} else {
			signals[spamwindow.KindDuplicate] = 0
		}
	}

	counts := make(map[spamwindow.Kind]int, len(signals))
	for kind, n := range signals {
		count, err := eng.Spam.RecordAndCount(ctx, evt.GuildID, evt.AuthorID, kind, n, interval, now)
		if err != nil {
			// degrade to "not counted" for this kind; moderation keeps running
			eng.Logger.Warn("spam window bookkeeping failed", "guild", evt.GuildID, "kind", kind, "err", err)
			continue
		}
		counts[kind] = count
	}
	return counts
}

// checkSpamThresholds compares post-eviction counts against the guild's
// configured thresholds, in fixed kind order. Meeting or exceeding a
// threshold trips it.
func (eng *Engine) checkSpamThresholds(pol *policy.GuildPolicy, counts map[spamwindow.Kind]int) *Violation {
	if pol.Spam == nil || counts == nil {
		return nil
	}
	for _, kind := range spamwindow.AllKinds {
		threshold := spamThreshold(pol.Spam, kind)
		if threshold == nil {
			continue
		}
		count, ok := counts[kind]
		if !ok || count < *threshold {
			continue
		}
		return &Violation{
			Type:      "spam",
			Filter:    string(kind),
			RuleIndex: -1,
			Reason:    fmt.Sprintf("%d %s events within %ds (threshold %d)", count, kind, pol.Spam.Interval, *threshold),
		}
	}
	return nil
}

func spamThreshold(spam *policy.SpamConfig, kind spamwindow.Kind) *int {
	switch kind {
	case spamwindow.KindEmoji:
		return spam.Emoji
	case spamwindow.KindDuplicate:
		return spam.Duplicates
	case spamwindow.KindLink:
		return spam.Links
	case spamwindow.KindAttachment:
		return spam.Attachments
	case spamwindow.KindSpoiler:
		return spam.Spoilers
	case spamwindow.KindMention:
		return spam.Mentions
	}
	return nil
}
