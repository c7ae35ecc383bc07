package text

import "regexp"

// Fixed recognizer for invite-style URL tokens. Covers the discord.gg short
// form plus the /invite/ paths on the main domains.
var inviteRegex = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?(?:discord\.gg|discord(?:app)?\.com/invite)/([a-zA-Z0-9-]+)`)

// ExtractInviteCodes returns the invite code portion of every invite-style
// URL token found in the text, in order of appearance.
func ExtractInviteCodes(raw string) []string {
	matches := inviteRegex.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return nil
	}
	codes := make([]string, 0, len(matches))
	for _, m := range matches {
		codes = append(codes, m[1])
	}
	return codes
}
