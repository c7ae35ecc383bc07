package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/amaranth-bot/amaranth/automod/engine"
	"github.com/amaranth-bot/amaranth/automod/policy"
	"github.com/amaranth-bot/amaranth/automod/spamwindow"
	"github.com/amaranth-bot/amaranth/discord"
)

type Server struct {
	logger    *slog.Logger
	engine    *engine.Engine
	spam      spamwindow.Store
	session   *discordgo.Session
	consumer  *discord.Consumer
	commands  *discord.Commands
	policyDir string
	guildIDs  []string
}

type Config struct {
	Logger       *slog.Logger
	DiscordToken string
	PolicyDir    string
	GuildIDs     []string
	RedisURL     string
	Armed        bool
}

func NewServer(config Config) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	var spam spamwindow.Store
	if config.RedisURL != "" {
		st, err := spamwindow.NewRedisStore(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis spam store: %w", err)
		}
		spam = st
	} else {
		spam = spamwindow.NewMemStore()
	}

	guildIDs := config.GuildIDs
	if len(guildIDs) == 0 {
		var err error
		guildIDs, err = policy.DiscoverGuilds(config.PolicyDir)
		if err != nil {
			return nil, err
		}
	}
	if len(guildIDs) == 0 {
		return nil, fmt.Errorf("no guild policy documents found in %s", config.PolicyDir)
	}

	policies := policy.NewStore()
	for _, guildID := range guildIDs {
		pol, err := policy.LoadFile(config.PolicyDir, guildID)
		if err != nil {
			return nil, fmt.Errorf("loading policy: %w", err)
		}
		policies.Set(guildID, pol)
		logger.Info("loaded guild policy", "guild", guildID)
	}

	eng := &engine.Engine{
		Logger:   logger,
		Policies: policies,
		Spam:     spam,
	}
	eng.SetArmed(config.Armed)

	session, err := discordgo.New("Bot " + config.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("creating gateway session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsGuildMembers |
		discordgo.IntentMessageContent

	s := &Server{
		logger:    logger,
		engine:    eng,
		spam:      spam,
		session:   session,
		policyDir: config.PolicyDir,
		guildIDs:  guildIDs,
	}

	dispatcher := discord.NewDispatcher(logger, session, policies)
	s.consumer = &discord.Consumer{
		Logger:     logger,
		Engine:     eng,
		Dispatcher: dispatcher,
	}
	s.commands = &discord.Commands{
		Logger: logger,
		Engine: eng,
		Reload: s.reloadGuild,
	}

	return s, nil
}

// reloadGuild re-reads one guild's policy document from disk. On failure the
// previously installed policy stays active.
func (s *Server) reloadGuild(ctx context.Context, guildID string) error {
	pol, err := policy.LoadFile(s.policyDir, guildID)
	if err != nil {
		return err
	}
	s.engine.Policies.Set(guildID, pol)
	s.logger.Info("reloaded guild policy", "guild", guildID)
	return nil
}

// Run opens the gateway session and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	// the redis store expires its own keys; in-process windows need a janitor
	if ms, ok := s.spam.(*spamwindow.MemStore); ok {
		go ms.RunJanitor(ctx, 10*time.Minute, time.Hour)
	}

	s.consumer.Subscribe(s.session)

	if err := s.session.Open(); err != nil {
		return fmt.Errorf("opening gateway session: %w", err)
	}
	defer s.session.Close()

	if err := s.commands.Register(s.session, s.guildIDs); err != nil {
		return err
	}
	s.logger.Info("daemon running", "guilds", len(s.guildIDs), "armed", s.engine.Armed())

	<-ctx.Done()
	s.logger.Info("shutting down")
	return nil
}

func (s *Server) RunMetrics(listen string) error {
	http.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(listen, nil)
}

// RunAdminAPI serves the local operator endpoints: health, armed state,
// reload, and diagnostic message testing.
func (s *Server) RunAdminAPI(bind string) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{"status": "ok", "armed": s.engine.Armed()})
	})
	e.POST("/admin/arm", func(c echo.Context) error {
		s.engine.Arm()
		return c.JSON(http.StatusOK, map[string]any{"armed": true})
	})
	e.POST("/admin/disarm", func(c echo.Context) error {
		s.engine.Disarm()
		return c.JSON(http.StatusOK, map[string]any{"armed": false})
	})
	e.POST("/admin/guilds/:guildID/reload", func(c echo.Context) error {
		guildID := c.Param("guildID")
		if err := s.reloadGuild(c.Request().Context(), guildID); err != nil {
			return c.JSON(http.StatusUnprocessableEntity, map[string]any{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]any{"guild": guildID, "reloaded": true})
	})
	e.POST("/admin/guilds/:guildID/test", func(c echo.Context) error {
		var body struct {
			Message string `json:"message"`
		}
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]any{"error": "expected JSON body with message field"})
		}
		report := s.engine.TestMessage(c.Param("guildID"), body.Message)
		return c.JSON(http.StatusOK, report)
	})

	return e.Start(bind)
}

// checkPolicies validates policy documents without starting the daemon. With
// no explicit IDs, every document in the directory is checked.
func checkPolicies(logger *slog.Logger, dir string, guildIDs []string) error {
	if len(guildIDs) == 0 {
		var err error
		guildIDs, err = policy.DiscoverGuilds(dir)
		if err != nil {
			return err
		}
	}
	var failed int
	for _, guildID := range guildIDs {
		if _, err := policy.LoadFile(dir, guildID); err != nil {
			logger.Error("policy invalid", "guild", guildID, "err", err)
			failed++
			continue
		}
		logger.Info("policy ok", "guild", guildID)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d policy documents failed validation", failed, len(guildIDs))
	}
	return nil
}
