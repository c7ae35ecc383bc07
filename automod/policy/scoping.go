package policy

// Applies reports whether content in the given channel, authored by a user
// with the given roles, falls inside this scoping. Pure and total.
//
// Precedence: if include_channels is set only listed channels match; else if
// exclude_channels is set every other channel matches; else every channel
// matches. Independently, any author role listed in exclude_roles makes the
// scope never match.
func (s *Scoping) Applies(channelID string, roles []string) bool {
	if s == nil {
		return true
	}
	for _, excluded := range s.ExcludeRoles {
		for _, r := range roles {
			if r == excluded {
				return false
			}
		}
	}
	if len(s.IncludeChannels) > 0 {
		for _, c := range s.IncludeChannels {
			if c == channelID {
				return true
			}
		}
		return false
	}
	for _, c := range s.ExcludeChannels {
		if c == channelID {
			return false
		}
	}
	return true
}
