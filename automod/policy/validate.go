package policy

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ValidationError aggregates every problem found in a policy document, not
// just the first; operators fix their config in one pass.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid guild policy: %s", strings.Join(e.Problems, "; "))
}

// Parse unmarshals, validates, and compiles a guild policy document. Fails
// closed: on any validation problem no policy is returned.
func Parse(raw []byte) (*GuildPolicy, error) {
	var pol GuildPolicy
	if err := json.Unmarshal(raw, &pol); err != nil {
		return nil, fmt.Errorf("parsing guild policy: %w", err)
	}
	if problems := pol.compile(); len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}
	return &pol, nil
}

// compile validates the document and prepares all rule matchers. Returns the
// full list of problems found; an empty list means the policy is ready for
// evaluation.
func (g *GuildPolicy) compile() []string {
	var problems []string
	addf := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if g.SlashCommands != nil && len(g.SlashCommands.Roles) == 0 {
		addf("slash_commands.roles is empty; no roles will be able to use the control commands")
	}

	if g.DefaultScoping != nil {
		problems = append(problems, validateScoping(g.DefaultScoping, "default scoping")...)
	}

	hasDefaultActions := false
	if g.DefaultActions != nil {
		if len(g.DefaultActions) == 0 {
			addf("default_actions is specified but is empty")
		} else {
			hasDefaultActions = true
			problems = append(problems, validateActions(g.DefaultActions, "default_actions")...)
		}
	}

	if g.Notifications != nil {
		if g.Notifications.ChannelID == "" {
			addf("notification settings are missing a channel")
		}
		if g.Notifications.PingRoles != nil && len(g.Notifications.PingRoles) == 0 {
			addf("notification settings specify an empty ping_roles; omit the key instead")
		}
	}

	if g.Messages != nil && len(g.Messages) == 0 {
		addf("messages is specified but is empty; omit the key instead")
	}
	for i := range g.Messages {
		f := &g.Messages[i]
		where := fmt.Sprintf("message filter %d (%s)", i, f.Name)
		if f.Name == "" {
			addf("message filter %d has no name", i)
		}
		problems = append(problems, validateFilterActions(f.Actions, hasDefaultActions, where)...)
		if f.Scoping != nil {
			problems = append(problems, validateScoping(f.Scoping, where)...)
		}
		if len(f.Rules) == 0 {
			addf("%s has no rules", where)
		}
		for j := range f.Rules {
			for _, p := range f.Rules[j].compile() {
				addf("%s, rule %d: %s", where, j, p)
			}
		}
	}

	if g.Reactions != nil && len(g.Reactions) == 0 {
		addf("reactions is specified but is empty; omit the key instead")
	}
	for i := range g.Reactions {
		f := &g.Reactions[i]
		where := fmt.Sprintf("reaction filter %d (%s)", i, f.Name)
		if f.Name == "" {
			addf("reaction filter %d has no name", i)
		}
		problems = append(problems, validateFilterActions(f.Actions, hasDefaultActions, where)...)
		if f.Scoping != nil {
			problems = append(problems, validateScoping(f.Scoping, where)...)
		}
		if len(f.Rules) == 0 {
			addf("%s has no rules", where)
		}
		for j := range f.Rules {
			for _, p := range f.Rules[j].compile() {
				addf("%s, rule %d: %s", where, j, p)
			}
		}
	}

	if g.Spam != nil {
		if g.Spam.Scoping != nil {
			problems = append(problems, validateScoping(g.Spam.Scoping, "spam scoping")...)
		}
		if g.Spam.Actions != nil {
			if len(g.Spam.Actions) == 0 {
				addf("in spam config, actions is specified but is empty")
			} else {
				problems = append(problems, validateActions(g.Spam.Actions, "spam actions")...)
			}
		} else if !hasDefaultActions {
			addf("in spam config, no actions are specified and there are no default actions for this guild")
		}
		if g.Spam.Interval <= 0 {
			addf("in spam config, interval must be a positive number of seconds")
		}
		if g.Spam.Emoji == nil && g.Spam.Duplicates == nil && g.Spam.Links == nil &&
			g.Spam.Attachments == nil && g.Spam.Spoilers == nil && g.Spam.Mentions == nil {
			addf("in spam config, no spam thresholds are specified; spam filtering will have no effect")
		}
	}

	if g.Usernames != nil {
		if len(g.Usernames.Actions) == 0 {
			addf("in username config, actions is empty")
		} else {
			problems = append(problems, validateActions(g.Usernames.Actions, "username actions")...)
		}
		if len(g.Usernames.Rules) == 0 {
			addf("in username config, rules is empty")
		}
		for j := range g.Usernames.Rules {
			for _, p := range g.Usernames.Rules[j].compile() {
				addf("username rule %d: %s", j, p)
			}
		}
	}

	return problems
}

func validateScoping(s *Scoping, where string) []string {
	var problems []string
	addf := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}
	if s.ExcludeChannels != nil && s.IncludeChannels != nil {
		addf("in %s, scoping specifies both exclude_channels and include_channels; specify only one", where)
	}
	if s.ExcludeChannels != nil && len(s.ExcludeChannels) == 0 {
		addf("in %s, scoping specifies an empty exclude_channels; omit the key instead", where)
	}
	if s.IncludeChannels != nil && len(s.IncludeChannels) == 0 {
		addf("in %s, scoping specifies an empty include_channels; omit the key instead", where)
	}
	if s.ExcludeRoles != nil && len(s.ExcludeRoles) == 0 {
		addf("in %s, scoping specifies an empty exclude_roles; omit the key instead", where)
	}
	return problems
}

func validateFilterActions(actions []Action, hasDefaults bool, where string) []string {
	if actions == nil {
		if !hasDefaults {
			return []string{fmt.Sprintf("%s does not specify actions, and this guild has no default actions", where)}
		}
		return nil
	}
	if len(actions) == 0 {
		return []string{fmt.Sprintf("%s has an empty actions array; omit the key to use default actions", where)}
	}
	return validateActions(actions, where)
}

func validateActions(actions []Action, where string) []string {
	var problems []string
	for i, a := range actions {
		switch a.Kind {
		case ActionDelete:
		case ActionSendMessage:
			if a.ChannelID == "" || a.Content == "" {
				problems = append(problems, fmt.Sprintf("in %s, send_message action %d needs both channel_id and content", where, i))
			}
		case ActionSendLog:
			if a.ChannelID == "" {
				problems = append(problems, fmt.Sprintf("in %s, send_log action %d needs a channel_id", where, i))
			}
		default:
			problems = append(problems, fmt.Sprintf("in %s, action %d has unknown kind %q", where, i, a.Kind))
		}
	}
	return problems
}
