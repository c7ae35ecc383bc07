package policy

// Per-guild moderation policy schema. Guild policies are declarative JSON
// documents: named filters over messages and reactions, an optional spam
// filter, an optional username filter, and the actions to take when content
// violates a rule. Documents are parsed and validated eagerly; a policy that
// fails validation is never installed.

// FilterMode selects allow-list or deny-list semantics for rules which carry
// a list of permitted/forbidden values.
type FilterMode string

const (
	ModeAllow FilterMode = "allow"
	ModeDeny  FilterMode = "deny"
)

// ActionKind discriminates the action union ("action" key in JSON).
type ActionKind string

const (
	ActionDelete      ActionKind = "delete"
	ActionSendMessage ActionKind = "send_message"
	ActionSendLog     ActionKind = "send_log"
)

// Action is one automated response to a violation. Actions are data: the
// engine selects them, the platform glue executes them.
type Action struct {
	Kind      ActionKind `json:"action"`
	ChannelID string     `json:"channel_id,omitempty"`
	Content   string     `json:"content,omitempty"`
	// RequiresArmed marks a send_message action which should only fire while
	// the process-wide armed switch is on. Delete and send_log are never
	// gated on armed state.
	RequiresArmed bool `json:"requires_armed,omitempty"`
}

// Scoping restricts which parts of a guild a filter applies to. Channel
// inclusion and exclusion are mutually exclusive; role exclusion layers on
// top of either.
type Scoping struct {
	ExcludeChannels []string `json:"exclude_channels,omitempty"`
	IncludeChannels []string `json:"include_channels,omitempty"`
	ExcludeRoles    []string `json:"exclude_roles,omitempty"`
}

// MessageFilter is a named, ordered list of rules over message content.
type MessageFilter struct {
	Name    string        `json:"name"`
	Rules   []MessageRule `json:"rules"`
	Scoping *Scoping      `json:"scoping,omitempty"`
	Actions []Action      `json:"actions,omitempty"`
}

// ReactionFilter is a named, ordered list of rules over reactions.
type ReactionFilter struct {
	Name    string         `json:"name"`
	Rules   []ReactionRule `json:"rules"`
	Scoping *Scoping       `json:"scoping,omitempty"`
	Actions []Action       `json:"actions,omitempty"`
}

// UsernameFilter applies rules to display/user names. Actions are mandatory;
// there is no default-action fallback for username violations.
type UsernameFilter struct {
	Rules   []UsernameRule `json:"rules"`
	Actions []Action       `json:"actions"`
}

// SpamConfig holds sliding-window spam thresholds. A nil threshold means
// that signal kind is not checked. Interval is in seconds.
type SpamConfig struct {
	Emoji       *int     `json:"emoji,omitempty"`
	Duplicates  *int     `json:"duplicates,omitempty"`
	Links       *int     `json:"links,omitempty"`
	Attachments *int     `json:"attachments,omitempty"`
	Spoilers    *int     `json:"spoilers,omitempty"`
	Mentions    *int     `json:"mentions,omitempty"`
	Interval    int      `json:"interval"`
	Actions     []Action `json:"actions,omitempty"`
	Scoping     *Scoping `json:"scoping,omitempty"`
}

// Notifications configures escalation pings attached to log messages.
type Notifications struct {
	ChannelID string   `json:"channel"`
	PingRoles []string `json:"ping_roles,omitempty"`
}

// SlashCommands restricts which roles may invoke the control commands
// (arm/disarm/reload/test) in a guild.
type SlashCommands struct {
	Roles []string `json:"roles"`
}

// GuildPolicy is the complete moderation policy for one guild. Immutable
// once compiled; reloads replace the whole policy atomically.
type GuildPolicy struct {
	Notifications  *Notifications   `json:"notifications,omitempty"`
	SlashCommands  *SlashCommands   `json:"slash_commands,omitempty"`
	DefaultScoping *Scoping         `json:"default_scoping,omitempty"`
	DefaultActions []Action         `json:"default_actions,omitempty"`
	Messages       []MessageFilter  `json:"messages,omitempty"`
	Reactions      []ReactionFilter `json:"reactions,omitempty"`
	Spam           *SpamConfig      `json:"spam,omitempty"`
	Usernames      *UsernameFilter  `json:"usernames,omitempty"`
	// IncludeBots enables evaluation of bot-authored content. Off by default;
	// mostly useful for integration testing with a second bot.
	IncludeBots bool `json:"include_bots,omitempty"`
}

// EffectiveScoping returns the filter-specific scoping if set, otherwise the
// guild default. May return nil, which means globally applicable.
func (g *GuildPolicy) EffectiveScoping(s *Scoping) *Scoping {
	if s != nil {
		return s
	}
	return g.DefaultScoping
}
