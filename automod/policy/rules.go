package policy

import (
	"fmt"
	"regexp"
	"strings"
)

// Rule kind discriminators ("type" key in JSON). Each rule carries only the
// fields relevant to its kind; the set of kinds is closed.
type MessageRuleType string

const (
	RuleWords       MessageRuleType = "words"
	RuleSubstring   MessageRuleType = "substring"
	RuleRegex       MessageRuleType = "regex"
	RuleZalgo       MessageRuleType = "zalgo"
	RuleMimeType    MessageRuleType = "mime_type"
	RuleInvite      MessageRuleType = "invite"
	RuleLink        MessageRuleType = "link"
	RuleStickerID   MessageRuleType = "sticker_id"
	RuleStickerName MessageRuleType = "sticker_name"
	RuleEmojiName   MessageRuleType = "emoji_name"
)

type ReactionRuleType string

const (
	ReactionRuleDefault    ReactionRuleType = "default"
	ReactionRuleCustomID   ReactionRuleType = "custom_id"
	ReactionRuleCustomName ReactionRuleType = "custom_name"
)

type UsernameRuleType string

const (
	UsernameRuleSubstring UsernameRuleType = "substring"
	UsernameRuleRegex     UsernameRuleType = "regex"
)

// MessageRule is one case of the message rule union. Word, substring and
// name lists are compiled once into a single alternation regexp when the
// policy is compiled, so evaluation never re-parses patterns.
type MessageRule struct {
	Type MessageRuleType `json:"type"`

	Words      []string `json:"words,omitempty"`
	Substrings []string `json:"substrings,omitempty"`
	Regexes    []string `json:"regexes,omitempty"`

	Mode         FilterMode `json:"mode,omitempty"`
	Types        []string   `json:"types,omitempty"`
	AllowUnknown bool       `json:"allow_unknown,omitempty"`
	Invites      []string   `json:"invites,omitempty"`
	Domains      []string   `json:"domains,omitempty"`
	Stickers     []string   `json:"stickers,omitempty"`
	Names        []string   `json:"names,omitempty"`

	wordPattern      *regexp.Regexp
	substringPattern *regexp.Regexp
	patterns         []*regexp.Regexp
	stickerIDSet     map[string]bool
	mimeSet          map[string]bool
	inviteSet        map[string]bool
	domainList       []string
}

// ReactionRule is one case of the reaction rule union.
type ReactionRule struct {
	Type ReactionRuleType `json:"type"`

	Mode  FilterMode `json:"mode,omitempty"`
	Emoji []string   `json:"emoji,omitempty"`
	Names []string   `json:"names,omitempty"`

	namePattern *regexp.Regexp
	emojiSet    map[string]bool
}

// UsernameRule is one case of the username rule union.
type UsernameRule struct {
	Type UsernameRuleType `json:"type"`

	Substrings []string `json:"substrings,omitempty"`
	Regexes    []string `json:"regexes,omitempty"`

	substringPattern *regexp.Regexp
	patterns         []*regexp.Regexp
}

// compileWordList joins escaped, lower-cased literals into one alternation
// anchored at token boundaries: \b(a|b|c)\b. Matching against a lower-cased
// sample makes the rule case-insensitive, which is the behavior guild
// operators expect from a word list.
func compileWordList(words []string) (*regexp.Regexp, error) {
	return regexp.Compile(`\b(` + alternation(words) + `)\b`)
}

// compileSubstringList is the unanchored variant: any literal anywhere.
func compileSubstringList(substrings []string) (*regexp.Regexp, error) {
	return regexp.Compile(alternation(substrings))
}

func alternation(literals []string) string {
	escaped := make([]string, len(literals))
	for i, w := range literals {
		escaped[i] = regexp.QuoteMeta(strings.ToLower(w))
	}
	return strings.Join(escaped, "|")
}

func stringSet(vals []string) map[string]bool {
	set := make(map[string]bool, len(vals))
	for _, v := range vals {
		set[strings.ToLower(v)] = true
	}
	return set
}

// compile prepares the rule's matcher state. Returns a human-readable
// problem description rather than acting on it, so the caller can aggregate.
func (r *MessageRule) compile() []string {
	var problems []string
	var err error
	switch r.Type {
	case RuleWords:
		if len(r.Words) == 0 {
			problems = append(problems, "words rule has an empty word list")
			break
		}
		if r.wordPattern, err = compileWordList(r.Words); err != nil {
			problems = append(problems, fmt.Sprintf("words rule failed to compile: %v", err))
		}
	case RuleSubstring:
		if len(r.Substrings) == 0 {
			problems = append(problems, "substring rule has an empty substring list")
			break
		}
		if r.substringPattern, err = compileSubstringList(r.Substrings); err != nil {
			problems = append(problems, fmt.Sprintf("substring rule failed to compile: %v", err))
		}
	case RuleRegex:
		if len(r.Regexes) == 0 {
			problems = append(problems, "regex rule has an empty pattern list")
		}
		for _, raw := range r.Regexes {
			p, err := regexp.Compile(raw)
			if err != nil {
				problems = append(problems, fmt.Sprintf("invalid regex %q: %v", raw, err))
				continue
			}
			r.patterns = append(r.patterns, p)
		}
	case RuleZalgo:
		// no parameters
	case RuleMimeType:
		if err := checkMode(r.Mode); err != nil {
			problems = append(problems, err.Error())
		}
		if len(r.Types) == 0 {
			problems = append(problems, "mime_type rule has an empty type list")
		}
		r.mimeSet = stringSet(r.Types)
	case RuleInvite:
		if err := checkMode(r.Mode); err != nil {
			problems = append(problems, err.Error())
		}
		if len(r.Invites) == 0 {
			problems = append(problems, "invite rule has an empty invite list")
		}
		r.inviteSet = stringSet(r.Invites)
	case RuleLink:
		if err := checkMode(r.Mode); err != nil {
			problems = append(problems, err.Error())
		}
		if len(r.Domains) == 0 {
			problems = append(problems, "link rule has an empty domain list")
		}
		r.domainList = make([]string, len(r.Domains))
		for i, d := range r.Domains {
			r.domainList[i] = strings.ToLower(d)
		}
	case RuleStickerID:
		if err := checkMode(r.Mode); err != nil {
			problems = append(problems, err.Error())
		}
		if len(r.Stickers) == 0 {
			problems = append(problems, "sticker_id rule has an empty sticker list")
		}
		r.stickerIDSet = stringSet(r.Stickers)
	case RuleStickerName:
		if len(r.Stickers) == 0 {
			problems = append(problems, "sticker_name rule has an empty sticker list")
			break
		}
		if r.substringPattern, err = compileSubstringList(r.Stickers); err != nil {
			problems = append(problems, fmt.Sprintf("sticker_name rule failed to compile: %v", err))
		}
	case RuleEmojiName:
		if len(r.Names) == 0 {
			problems = append(problems, "emoji_name rule has an empty name list")
			break
		}
		if r.substringPattern, err = compileSubstringList(r.Names); err != nil {
			problems = append(problems, fmt.Sprintf("emoji_name rule failed to compile: %v", err))
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown message rule type %q", r.Type))
	}
	return problems
}

func (r *ReactionRule) compile() []string {
	var problems []string
	var err error
	switch r.Type {
	case ReactionRuleDefault, ReactionRuleCustomID:
		if err := checkMode(r.Mode); err != nil {
			problems = append(problems, err.Error())
		}
		if len(r.Emoji) == 0 {
			problems = append(problems, fmt.Sprintf("%s reaction rule has an empty emoji list", r.Type))
		}
		r.emojiSet = stringSet(r.Emoji)
	case ReactionRuleCustomName:
		if len(r.Names) == 0 {
			problems = append(problems, "custom_name reaction rule has an empty name list")
			break
		}
		if r.namePattern, err = compileSubstringList(r.Names); err != nil {
			problems = append(problems, fmt.Sprintf("custom_name reaction rule failed to compile: %v", err))
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown reaction rule type %q", r.Type))
	}
	return problems
}

func (r *UsernameRule) compile() []string {
	var problems []string
	var err error
	switch r.Type {
	case UsernameRuleSubstring:
		if len(r.Substrings) == 0 {
			problems = append(problems, "substring username rule has an empty substring list")
			break
		}
		if r.substringPattern, err = compileSubstringList(r.Substrings); err != nil {
			problems = append(problems, fmt.Sprintf("substring username rule failed to compile: %v", err))
		}
	case UsernameRuleRegex:
		if len(r.Regexes) == 0 {
			problems = append(problems, "regex username rule has an empty pattern list")
		}
		for _, raw := range r.Regexes {
			p, err := regexp.Compile(raw)
			if err != nil {
				problems = append(problems, fmt.Sprintf("invalid username regex %q: %v", raw, err))
				continue
			}
			r.patterns = append(r.patterns, p)
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown username rule type %q", r.Type))
	}
	return problems
}

func checkMode(mode FilterMode) error {
	switch mode {
	case ModeAllow, ModeDeny:
		return nil
	case "":
		return fmt.Errorf("rule is missing a filter mode; specify \"allow\" or \"deny\"")
	default:
		return fmt.Errorf("unknown filter mode %q", mode)
	}
}
