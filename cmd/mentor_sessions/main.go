package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mentorhub/mentor_sessions/internal/app"
	"github.com/mentorhub/mentor_sessions/internal/config"
	"github.com/mentorhub/mentor_sessions/internal/controller"
	"github.com/mentorhub/mentor_sessions/internal/meeting"
	"github.com/mentorhub/mentor_sessions/internal/model"
	"github.com/mentorhub/mentor_sessions/internal/notify"
	"github.com/mentorhub/mentor_sessions/internal/remote"
	"github.com/mentorhub/mentor_sessions/internal/repository"
	"github.com/mentorhub/mentor_sessions/internal/service"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	logger.Info("Starting mentor sessions service",
		zap.String("environment", cfg.Environment),
		zap.String("remote_base_url", cfg.RemoteBaseURL),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// База контактов: нужна только для адресов доставки уведомлений
	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to connect to contacts database", zap.Error(err))
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	migrator.Close()

	// Канал доставки: Telegram, если настроен токен, иначе симуляция через лог
	var tgBot *bot.Bot
	if cfg.TelegramToken != "" {
		tgBot, err = bot.New(cfg.TelegramToken)
		if err != nil {
			logger.Fatal("Failed to create telegram bot", zap.Error(err))
		}
	} else {
		logger.Warn("TELEGRAM_TOKEN is not set, notifications will be simulated")
	}

	dispatcher := notify.NewDispatcher(notify.NewTelegramChannel(tgBot), logger)

	// Хранилище заявок: удалённый REST плюс локальный демо-режим по требованию
	client := remote.NewClient(cfg.RemoteBaseURL, cfg.RemoteTimeout, logger)
	demoStore := remote.NewDemoStore(logger)
	store := remote.NewSelector(client, demoStore, logger)

	provisioner := meeting.NewProvisioner(cfg.MeetingProvider, cfg.MeetingURLTemplate)
	contactRepo := repository.NewContactRepository(pool)
	addresses := service.NewContactAddressResolver(contactRepo)

	decisionService := service.NewDecisionService(store, provisioner, dispatcher, addresses, logger)

	// Поллер наблюдает решения менторов; рабочая копия обновляется из его callback
	var bookingService *service.BookingService
	poller := app.NewDecisionPoller(store, cfg.PollInterval, func(session *model.SessionRequest) {
		if _, err := bookingService.Refresh(ctx, session.ID); err != nil {
			logger.Warn("Failed to refresh working copy after decision",
				zap.String("session_id", session.ID),
				zap.Error(err),
			)
		}
	}, logger)

	bookingService = service.NewBookingService(store, addresses, dispatcher, poller, logger)

	poller.Start(ctx)
	defer poller.Stop()

	logger.Info("Mentor sessions service started")

	// Решения менторов принимаем через Telegram-команды, если бот настроен
	if tgBot != nil {
		botController := controller.NewBotController(tgBot, decisionService, contactRepo, logger)
		if err := botController.RegisterHandlers(ctx); err != nil {
			logger.Fatal("Failed to register bot handlers", zap.Error(err))
		}
		botController.Start(ctx)
	} else {
		<-ctx.Done()
	}

	logger.Info("Shutting down")
}
