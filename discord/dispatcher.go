package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/RussellLuo/slidingwindow"
	"github.com/bwmarrin/discordgo"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/time/rate"

	"github.com/amaranth-bot/amaranth/automod/engine"
	"github.com/amaranth-bot/amaranth/automod/policy"
)

// ActionRequest carries one engine outcome plus the platform identifiers the
// dispatcher needs to execute it.
type ActionRequest struct {
	GuildID   string
	ChannelID string
	MessageID string
	AuthorID  string

	// set for reaction violations
	EmojiID   string
	EmojiName string

	// set for username violations
	Username string

	Outcome *engine.Outcome
}

// Dispatcher executes resolved moderation actions against the Discord REST
// API. Outbound calls share a rate limiter; warning messages are additionally
// capped per guild, since a user tripping a spam window trips it on every
// subsequent message until the window drains.
type Dispatcher struct {
	Logger   *slog.Logger
	Session  *discordgo.Session
	Policies *policy.Store

	rest     *rate.Limiter
	warnCaps *xsync.MapOf[string, *slidingwindow.Limiter]
	dedupe   *expirable.LRU[string, struct{}]
}

const (
	restPerSecond  = 10
	warnsPerMinute = 10
	dedupeTTL      = time.Minute
	dedupeSize     = 4096
)

func NewDispatcher(logger *slog.Logger, session *discordgo.Session, policies *policy.Store) *Dispatcher {
	return &Dispatcher{
		Logger:   logger,
		Session:  session,
		Policies: policies,
		rest:     rate.NewLimiter(rate.Limit(restPerSecond), restPerSecond),
		warnCaps: xsync.NewMapOf[string, *slidingwindow.Limiter](),
		dedupe:   expirable.NewLRU[string, struct{}](dedupeSize, nil, dedupeTTL),
	}
}

// Run executes every action of an outcome in order. Failures are logged and
// skipped; one failing action never blocks the rest.
func (d *Dispatcher) Run(ctx context.Context, req *ActionRequest) {
	if req.Outcome == nil || req.Outcome.Violation == nil {
		return
	}
	for _, act := range req.Outcome.Actions {
		key := dedupeKey(req, &act)
		if _, seen := d.dedupe.Get(key); seen {
			continue
		}
		d.dedupe.Add(key, struct{}{})

		var err error
		switch act.Kind {
		case policy.ActionDelete:
			err = d.doDelete(ctx, req)
		case policy.ActionSendMessage:
			err = d.doSendMessage(ctx, req, &act)
		case policy.ActionSendLog:
			err = d.doSendLog(ctx, req, &act)
		default:
			d.Logger.Warn("unknown action kind", "kind", act.Kind, "guild", req.GuildID)
			continue
		}
		if err != nil {
			d.Logger.Error("action execution failed", "kind", act.Kind, "guild", req.GuildID, "channel", req.ChannelID, "err", err)
		}
	}
}

func (d *Dispatcher) doDelete(ctx context.Context, req *ActionRequest) error {
	switch req.Outcome.Violation.Type {
	case "reaction":
		if err := d.rest.Wait(ctx); err != nil {
			return err
		}
		return d.Session.MessageReactionRemove(req.ChannelID, req.MessageID, emojiAPIName(req.EmojiID, req.EmojiName), req.AuthorID)
	case "username":
		// nothing to delete for a name change
		return nil
	default:
		if err := d.rest.Wait(ctx); err != nil {
			return err
		}
		return d.Session.ChannelMessageDelete(req.ChannelID, req.MessageID)
	}
}

func (d *Dispatcher) doSendMessage(ctx context.Context, req *ActionRequest, act *policy.Action) error {
	if !d.warnCap(req.GuildID).Allow() {
		d.Logger.Info("warning message suppressed by per-guild cap", "guild", req.GuildID)
		return nil
	}
	channelID := act.ChannelID
	if channelID == "" {
		channelID = req.ChannelID
	}
	if channelID == "" {
		return fmt.Errorf("send_message with no target channel")
	}
	if err := d.rest.Wait(ctx); err != nil {
		return err
	}
	_, err := d.Session.ChannelMessageSend(channelID, act.Content)
	return err
}

func (d *Dispatcher) doSendLog(ctx context.Context, req *ActionRequest, act *policy.Action) error {
	v := req.Outcome.Violation

	channelID := act.ChannelID
	var pings []string
	if pol, ok := d.Policies.Get(req.GuildID); ok && pol.Notifications != nil {
		if channelID == "" {
			channelID = pol.Notifications.ChannelID
		}
		for _, role := range pol.Notifications.PingRoles {
			pings = append(pings, "<@&"+role+">")
		}
	}
	if channelID == "" {
		return fmt.Errorf("send_log with no target channel")
	}

	embed := &discordgo.MessageEmbed{
		Title: "content violation",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Type", Value: v.Type, Inline: true},
			{Name: "Filter", Value: v.Filter, Inline: true},
			{Name: "User", Value: "<@" + req.AuthorID + ">", Inline: true},
			{Name: "Reason", Value: v.Reason},
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if req.ChannelID != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Channel", Value: "<#" + req.ChannelID + ">", Inline: true,
		})
	}
	if req.Username != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Username", Value: req.Username, Inline: true,
		})
	}

	if err := d.rest.Wait(ctx); err != nil {
		return err
	}
	_, err := d.Session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: strings.Join(pings, " "),
		Embed:   embed,
	})
	return err
}

func (d *Dispatcher) warnCap(guildID string) *slidingwindow.Limiter {
	lim, _ := d.warnCaps.LoadOrCompute(guildID, func() *slidingwindow.Limiter {
		l, _ := slidingwindow.NewLimiter(time.Minute, warnsPerMinute, func() (slidingwindow.Window, slidingwindow.StopFunc) {
			return slidingwindow.NewLocalWindow()
		})
		return l
	})
	return lim
}

// dedupeKey covers the violating event, not just its IDs: username events
// carry no message ID, so the username itself has to distinguish two renames
// by the same member.
func dedupeKey(req *ActionRequest, act *policy.Action) string {
	return strings.Join([]string{req.GuildID, req.MessageID, req.AuthorID, req.Username, string(act.Kind), act.ChannelID}, "/")
}

// emojiAPIName builds the reaction endpoint emoji segment: the bare unicode
// emoji, or name:id for custom emoji.
func emojiAPIName(emojiID, emojiName string) string {
	if emojiID == "" {
		return emojiName
	}
	return emojiName + ":" + emojiID
}
