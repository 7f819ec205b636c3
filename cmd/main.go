package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"calbot/internal/auth"
	"calbot/internal/bot"
	"calbot/internal/calendar"
	"calbot/internal/clock"
	"calbot/internal/config"
	"calbot/internal/extract"
	"calbot/internal/server"
	"calbot/internal/store"
	"calbot/internal/telegram"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "calbot",
		Usage: "Turn Telegram messages, voice notes and photos into Google Calendar events.",
		Commands: []*cli.Command{
			serveCommand(),
			setWebhookCommand(),
			authURLCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the webhook server.",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := setupLogger(cfg.LogLevel)

			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			mgr := auth.NewManager(logger, st, cfg.GoogleClientID, cfg.GoogleSecret, cfg.BaseURL+"/oauth/callback")

			extractor, err := extract.NewExtractor(c.Context, logger, cfg.GeminiAPIKey, cfg.GeminiModel)
			if err != nil {
				return err
			}

			tg, err := telegram.NewClient(logger, cfg.TelegramToken)
			if err != nil {
				return err
			}

			ownerChatID, err := telegram.ParseChatID(cfg.OwnerChatID)
			if err != nil {
				return err
			}

			clk := clock.New(cfg.Timezone)
			sync := calendar.NewSynchronizer(logger, mgr, cfg.CalendarID, cfg.Timezone)
			router := bot.NewRouter(logger, tg, extractor, sync, mgr, clk, cfg.SendICS)

			srv := server.New(logger, router, mgr, tg, ownerChatID, cfg.Port)
			return srv.Start()
		},
	}
}

func setWebhookCommand() *cli.Command {
	return &cli.Command{
		Name:  "set-webhook",
		Usage: "Register this deployment's /webhook route with Telegram.",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := setupLogger(cfg.LogLevel)

			tg, err := telegram.NewClient(logger, cfg.TelegramToken)
			if err != nil {
				return err
			}
			return tg.SetWebhook(cfg.BaseURL + "/webhook")
		},
	}
}

func authURLCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth-url",
		Usage: "Print the Google authorization URL for the calendar owner.",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := setupLogger(cfg.LogLevel)

			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			mgr := auth.NewManager(logger, st, cfg.GoogleClientID, cfg.GoogleSecret, cfg.BaseURL+"/oauth/callback")
			fmt.Println(mgr.AuthURL())
			return nil
		},
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
