package main

import (
	"context"
	"log/slog"

	"dudebox-backend/api"
	"dudebox-backend/config"
	"dudebox-backend/moderation"
	"dudebox-backend/notify"
	"dudebox-backend/store"
)

func main() {
	ctx := context.Background()

	// Getting the config
	config := config.New()

	// Database initialization
	db, err := store.New(ctx, config.Dsn())
	if err != nil {
		slog.Error("Database initialization failed", "error", err)
		panic(err)
	}

	// Moderation screener and notifier
	screener := moderation.NewLLMScreener(config.ModerationModel())

	var notifier notify.Notifier = notify.Nop{}
	if config.SMTPHost() != "" {
		notifier = notify.NewMailer(
			config.SMTPHost(),
			config.SMTPPort(),
			config.SMTPUsername(),
			config.SMTPPassword(),
			config.SMTPSender(),
			config.AdminEmail(),
		)
	} else {
		slog.Warn("SMTP not configured, moderation emails disabled")
	}

	svc := moderation.NewService(db, screener, notifier)

	// Running the server
	api, err := api.New(db, svc)
	if err != nil {
		slog.Error("Api initialization failed", "error", err)
		panic(err)
	}
	api.Run(config.ServerPort())
}
