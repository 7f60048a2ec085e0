package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"placedesk/internal/api"
	"placedesk/internal/bot"
	"placedesk/internal/config"
	"placedesk/internal/database"
	"placedesk/internal/geocode"
	"placedesk/internal/initdata"
	"placedesk/internal/scheduler"
	"placedesk/internal/summarizer"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	start := time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.WarnContext(ctx, "Failed to load .env file",
			"error", err)
	}

	cfg := config.LoadConfig()

	db, err := database.New(ctx, cfg.DBPath, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize db",
			"error", err,
			"dbPath", cfg.DBPath)

		return
	}
	defer func() {
		if err = db.Close(); err != nil {
			log.ErrorContext(ctx, "Failed to close db",
				"error", err,
				"dbPath", cfg.DBPath)
		}
	}()
	log.InfoContext(ctx, "DB is initialized",
		"dbPath", cfg.DBPath)

	botAPI, err := tgbotapi.NewBotAPI(strings.TrimSpace(cfg.Token))
	if err != nil {
		log.ErrorContext(ctx, "Failed to authenticate Telegram bot",
			"error", err)

		return
	}
	log.InfoContext(ctx, "Telegram bot is authenticated",
		"username", botAPI.Self.UserName)

	// The REST backend authenticates each call with a Mini-App init-data
	// envelope; the bot mints them for its own identity.
	tokens := initdata.NewSource(initdata.New(), initdata.User{
		ID:        botAPI.Self.ID,
		FirstName: botAPI.Self.FirstName,
		Username:  botAPI.Self.UserName,
	})

	client := api.New(cfg.APIBaseURL, tokens, log)
	geocoder := geocode.New(cfg.GeocoderBaseURL)

	botInst := bot.New(botAPI, client, geocoder, db, cfg.AllowedUsers, log)
	log.InfoContext(ctx, "Bot is initialized",
		"allowedUsersCount", len(cfg.AllowedUsers),
		"apiBaseURL", cfg.APIBaseURL)

	sched := scheduler.New(ctx, botInst, client, db, initOpenAISummarizer(ctx, cfg.OpenAIAPIKey, log), log)

	if err = sched.Start(); err != nil {
		log.ErrorContext(ctx, "Failed to start scheduler",
			"error", err,
			"spec", scheduler.HourlyDigestSpec,
			"timezone", time.FixedZone(scheduler.Timezone, scheduler.TimezoneOffsetSeconds).String())

		return
	}
	defer sched.Stop()
	log.InfoContext(ctx, "Scheduler is started",
		"spec", scheduler.HourlyDigestSpec,
		"timezone", time.FixedZone(scheduler.Timezone, scheduler.TimezoneOffsetSeconds).String())

	go func() {
		botInst.Start(ctx)
	}()
	log.InfoContext(ctx, "Bot is started",
		"updateTimeoutSeconds", bot.BotUpdateTimeout)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	sig := <-c
	log.InfoContext(ctx, "Shutdown signal is received",
		"signal", sig.String())
	cancel()

	log.InfoContext(ctx, "Exiting...",
		"signal", sig.String(),
		"uptimeSeconds", time.Since(start).Seconds())

	botInst.Stop()
	log.InfoContext(ctx, "Bot is stopped",
		"uptimeSeconds", time.Since(start).Seconds())
}

func initOpenAISummarizer(ctx context.Context, apiKey string, log *slog.Logger) summarizer.Summarizer {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		log.WarnContext(ctx, "OPENAI_API_KEY is missing so review digests will be truncated, not summarized",
			"envVar", "OPENAI_API_KEY")

		return nil
	}

	s, err := summarizer.NewOpenAISummarizer(apiKey)
	if err != nil {
		log.ErrorContext(ctx, "Failed to create OpenAI summarizer so fallback will be used",
			"error", err,
			"envVar", "OPENAI_API_KEY")

		return nil
	}

	log.InfoContext(ctx, "OpenAI summarizer is initialized",
		"provider", "openai")

	return s
}
