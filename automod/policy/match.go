package policy

import (
	"strings"

	"github.com/amaranth-bot/amaranth/automod/text"
)

// Sample is the kind-appropriate view of one piece of message content that
// rules match against. Fields irrelevant to a rule kind are simply unused by
// that rule.
type Sample struct {
	Text string
	// declared MIME type per attachment; empty string when undeclared
	AttachmentTypes []string
	StickerIDs      []string
	StickerNames    []string
	// custom emoji names referenced in the content
	EmojiNames []string
}

// TextSample builds a text-only sample, as used by the diagnostic test
// command where no real message exists.
func TextSample(t string) *Sample {
	return &Sample{Text: t}
}

// Match evaluates the rule against the sample. On a hit it returns the
// matched substring/value as a human-readable reason.
func (r *MessageRule) Match(s *Sample) (string, bool) {
	switch r.Type {
	case RuleWords:
		if r.wordPattern == nil {
			return "", false
		}
		if m := r.wordPattern.FindString(strings.ToLower(s.Text)); m != "" {
			return m, true
		}
	case RuleSubstring:
		if r.substringPattern == nil {
			return "", false
		}
		if m := r.substringPattern.FindString(strings.ToLower(s.Text)); m != "" {
			return m, true
		}
	case RuleRegex:
		for _, p := range r.patterns {
			if m := p.FindString(s.Text); m != "" {
				return m, true
			}
		}
	case RuleZalgo:
		if text.IsZalgo(s.Text) {
			return "excessive combining characters", true
		}
	case RuleMimeType:
		for _, mt := range s.AttachmentTypes {
			if mt == "" {
				if !r.AllowUnknown {
					return "attachment with no declared type", true
				}
				continue
			}
			if modeViolation(r.Mode, r.mimeSet[strings.ToLower(mt)]) {
				return mt, true
			}
		}
	case RuleInvite:
		for _, code := range text.ExtractInviteCodes(s.Text) {
			if modeViolation(r.Mode, r.inviteSet[strings.ToLower(code)]) {
				return code, true
			}
		}
	case RuleLink:
		for _, u := range text.ExtractURLs(s.Text) {
			host := text.Hostname(u)
			if host == "" {
				continue
			}
			listed := false
			for _, d := range r.domainList {
				if text.DomainMatches(host, d) {
					listed = true
					break
				}
			}
			if modeViolation(r.Mode, listed) {
				return text.RegisteredDomain(u), true
			}
		}
	case RuleStickerID:
		for _, id := range s.StickerIDs {
			if modeViolation(r.Mode, r.stickerIDSet[strings.ToLower(id)]) {
				return id, true
			}
		}
	case RuleStickerName:
		if r.substringPattern == nil {
			return "", false
		}
		for _, name := range s.StickerNames {
			if m := r.substringPattern.FindString(strings.ToLower(name)); m != "" {
				return m, true
			}
		}
	case RuleEmojiName:
		if r.substringPattern == nil {
			return "", false
		}
		for _, name := range s.EmojiNames {
			if m := r.substringPattern.FindString(strings.ToLower(name)); m != "" {
				return m, true
			}
		}
	}
	return "", false
}

// TextOnly reports whether the rule can be meaningfully evaluated against a
// bare text sample (no attachments, stickers or emoji metadata). Used by the
// diagnostic test command.
func (r *MessageRule) TextOnly() bool {
	switch r.Type {
	case RuleWords, RuleSubstring, RuleRegex, RuleZalgo, RuleInvite, RuleLink:
		return true
	}
	return false
}

// modeViolation translates list membership into a violation under a filter
// mode: an allow list is violated by unlisted values, a deny list by listed
// ones.
func modeViolation(mode FilterMode, listed bool) bool {
	if mode == ModeAllow {
		return !listed
	}
	return listed
}

// Match evaluates the reaction rule against one reaction. EmojiID is empty
// for default (built-in) emoji; emojiName is the unicode emoji itself in
// that case.
func (r *ReactionRule) Match(emojiID, emojiName string) (string, bool) {
	switch r.Type {
	case ReactionRuleDefault:
		if emojiID != "" {
			return "", false
		}
		if modeViolation(r.Mode, r.emojiSet[emojiName]) {
			return emojiName, true
		}
	case ReactionRuleCustomID:
		if emojiID == "" {
			return "", false
		}
		if modeViolation(r.Mode, r.emojiSet[emojiID]) {
			return emojiID, true
		}
	case ReactionRuleCustomName:
		if emojiID == "" || r.namePattern == nil {
			return "", false
		}
		if m := r.namePattern.FindString(strings.ToLower(emojiName)); m != "" {
			return m, true
		}
	}
	return "", false
}

// Match evaluates the username rule against a display/user name. Substring
// rules also check a mark-stripped fold of the name, catching
// decorated-unicode obfuscation.
func (r *UsernameRule) Match(name string) (string, bool) {
	switch r.Type {
	case UsernameRuleSubstring:
		if r.substringPattern == nil {
			return "", false
		}
		if m := r.substringPattern.FindString(strings.ToLower(name)); m != "" {
			return m, true
		}
		if m := r.substringPattern.FindString(text.Fold(name)); m != "" {
			return m, true
		}
	case UsernameRuleRegex:
		for _, p := range r.patterns {
			if m := p.FindString(name); m != "" {
				return m, true
			}
		}
	}
	return "", false
}
