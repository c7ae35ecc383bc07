package text

import "regexp"

// CustomEmoji is one custom-emoji token referenced in message text.
type CustomEmoji struct {
	Name string
	ID   string
}

var customEmojiRegex = regexp.MustCompile(`<a?:([0-9A-Za-z_]+):([0-9]+)>`)

// ExtractCustomEmoji returns every custom-emoji token in the text, in order
// of appearance. Repeated uses of the same emoji are returned repeatedly,
// which is what spam counting wants.
func ExtractCustomEmoji(raw string) []CustomEmoji {
	matches := customEmojiRegex.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]CustomEmoji, 0, len(matches))
	for _, m := range matches {
		out = append(out, CustomEmoji{Name: m[1], ID: m[2]})
	}
	return out
}

var spoilerRegex = regexp.MustCompile(`(?s)\|\|.+?\|\|`)

// CountSpoilers returns the number of spoiler-tagged spans in the text.
func CountSpoilers(raw string) int {
	return len(spoilerRegex.FindAllStringIndex(raw, -1))
}

var mentionRegex = regexp.MustCompile(`<@[!&]?[0-9]+>`)

// CountMentions returns the number of user/role mention tokens in the text.
func CountMentions(raw string) int {
	return len(mentionRegex.FindAllStringIndex(raw, -1))
}
