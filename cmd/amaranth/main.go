package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "amaranth",
		Usage:   "guild content moderation daemon",
		Version: versioninfo.Short(),
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "policy-dir",
			Usage:   "directory of per-guild policy documents (<guildID>.json)",
			Value:   "policies",
			EnvVars: []string{"AMARANTH_POLICY_DIR"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log verbosity (debug, info, warn, error)",
			Value:   "info",
			EnvVars: []string{"AMARANTH_LOG_LEVEL", "LOG_LEVEL"},
		},
	}

	app.Commands = []*cli.Command{
		runCmd,
		checkCmd,
	}

	return app.Run(args)
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "run the daemon",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "discord-token",
			Usage:    "bot token for the gateway session",
			Required: true,
			EnvVars:  []string{"DISCORD_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "redis connection URL for spam window state; empty means in-process",
			EnvVars: []string{"AMARANTH_REDIS_URL", "REDIS_URL"},
		},
		&cli.StringSliceFlag{
			Name:    "guild",
			Usage:   "guild ID to serve; repeatable. Default is every document in the policy dir",
			EnvVars: []string{"AMARANTH_GUILDS"},
		},
		&cli.StringFlag{
			Name:    "bind",
			Usage:   "IP or address, and port, to listen on for the admin API",
			Value:   ":2470",
			EnvVars: []string{"AMARANTH_BIND"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics",
			Value:   ":2471",
			EnvVars: []string{"AMARANTH_METRICS_LISTEN"},
		},
		&cli.BoolFlag{
			Name:    "armed",
			Usage:   "start with armed-only responses enabled",
			Value:   true,
			EnvVars: []string{"AMARANTH_ARMED"},
		},
	},
	Action: func(cctx *cli.Context) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: parseLogLevel(cctx.String("log-level")),
		}))
		slog.SetDefault(logger)

		configOTEL("amaranth")

		srv, err := NewServer(Config{
			Logger:       logger,
			DiscordToken: cctx.String("discord-token"),
			PolicyDir:    cctx.String("policy-dir"),
			GuildIDs:     cctx.StringSlice("guild"),
			RedisURL:     cctx.String("redis-url"),
			Armed:        cctx.Bool("armed"),
		})
		if err != nil {
			return err
		}

		go func() {
			if err := srv.RunMetrics(cctx.String("metrics-listen")); err != nil {
				slog.Error("failed to start metrics endpoint", "error", err)
				panic(fmt.Errorf("failed to start metrics endpoint: %w", err))
			}
		}()
		go func() {
			if err := srv.RunAdminAPI(cctx.String("bind")); err != nil {
				slog.Error("admin API stopped", "error", err)
			}
		}()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("failed to run moderation daemon: %w", err)
		}
		return nil
	},
}

// checkCmd validates policy documents and exits; useful in CI for policy
// repositories.
var checkCmd = &cli.Command{
	Name:      "check",
	Usage:     "validate policy documents without connecting",
	ArgsUsage: "[guildID ...]",
	Action: func(cctx *cli.Context) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: parseLogLevel(cctx.String("log-level")),
		}))
		return checkPolicies(logger, cctx.String("policy-dir"), cctx.Args().Slice())
	},
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
