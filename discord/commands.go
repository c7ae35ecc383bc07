package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/amaranth-bot/amaranth/automod/engine"
)

// ReloadFunc re-reads one guild's policy document from its backing store. A
// failed reload must leave the previously installed policy in place.
type ReloadFunc func(ctx context.Context, guildID string) error

// Commands wires the operator slash commands: arm, disarm, reload, test.
type Commands struct {
	Logger *slog.Logger
	Engine *engine.Engine
	Reload ReloadFunc
}

func commandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "amaranth-arm",
			Description: "Enable armed-only moderation responses",
		},
		{
			Name:        "amaranth-disarm",
			Description: "Disable armed-only moderation responses",
		},
		{
			Name:        "amaranth-reload",
			Description: "Reload this guild's moderation policy",
		},
		{
			Name:        "amaranth-test",
			Description: "Run a message through every filter and report the results",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "message",
					Description: "Message text to test",
					Type:        discordgo.ApplicationCommandOptionString,
					Required:    true,
				},
			},
		},
	}
}

// Register creates the slash commands in every guild with a loaded policy and
// subscribes the interaction handler.
func (c *Commands) Register(s *discordgo.Session, guildIDs []string) error {
	appID := s.State.User.ID
	for _, guildID := range guildIDs {
		for _, cmd := range commandDefinitions() {
			if _, err := s.ApplicationCommandCreate(appID, guildID, cmd); err != nil {
				return fmt.Errorf("registering /%s in guild %s: %w", cmd.Name, guildID, err)
			}
		}
	}
	s.AddHandler(c.HandleInteraction)
	return nil
}

func (c *Commands) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand || i.Member == nil {
		return
	}
	name := i.ApplicationCommandData().Name
	if !strings.HasPrefix(name, "amaranth-") {
		return
	}
	if !c.permitted(i) {
		c.respondEphemeral(s, i, "You are not permitted to run moderation commands here.")
		return
	}

	switch name {
	case "amaranth-arm":
		c.Engine.Arm()
		c.Logger.Info("armed via command", "guild", i.GuildID, "user", i.Member.User.ID)
		c.respondEphemeral(s, i, "Armed. Gated responses are now live.")
	case "amaranth-disarm":
		c.Engine.Disarm()
		c.Logger.Info("disarmed via command", "guild", i.GuildID, "user", i.Member.User.ID)
		c.respondEphemeral(s, i, "Disarmed. Gated responses are suppressed.")
	case "amaranth-reload":
		if err := c.Reload(context.Background(), i.GuildID); err != nil {
			c.Logger.Warn("policy reload failed", "guild", i.GuildID, "err", err)
			c.respondEphemeral(s, i, "Reload failed, previous policy kept:\n"+err.Error())
			return
		}
		c.respondEphemeral(s, i, "Policy reloaded.")
	case "amaranth-test":
		input := i.ApplicationCommandData().Options[0].StringValue()
		report := c.Engine.TestMessage(i.GuildID, input)
		c.respondEphemeral(s, i, formatTestReport(report))
	}
}

// permitted checks the invoking member against the guild policy's
// slash_commands role list. Without that config section, guild administrators
// may still operate the bot.
func (c *Commands) permitted(i *discordgo.InteractionCreate) bool {
	pol, ok := c.Engine.Policies.Get(i.GuildID)
	if ok && pol.SlashCommands != nil {
		for _, allowed := range pol.SlashCommands.Roles {
			for _, have := range i.Member.Roles {
				if have == allowed {
					return true
				}
			}
		}
		return false
	}
	return i.Member.Permissions&discordgo.PermissionAdministrator != 0
}

func formatTestReport(r *engine.TestReport) string {
	if !r.Configured {
		return "No policy is loaded for this guild."
	}
	if len(r.Results) == 0 {
		return "No message filters are configured."
	}
	var b strings.Builder
	if r.Passed {
		b.WriteString("Message passes every filter.\n")
	} else {
		b.WriteString("Message violates the policy.\n")
	}
	for _, res := range r.Results {
		if res.Violated {
			fmt.Fprintf(&b, "❌ %s: rule %d, %s\n", res.Name, res.RuleIndex, res.Reason)
		} else {
			fmt.Fprintf(&b, "✅ %s\n", res.Name)
		}
	}
	return b.String()
}

func (c *Commands) respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		c.Logger.Warn("interaction response failed", "guild", i.GuildID, "err", err)
	}
}
